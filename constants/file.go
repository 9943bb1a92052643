package constants

import "strings"

type Format string

const (
	PDF   Format = "PDF"
	IMAGE Format = "IMAGE"
)

// SupportedExtensions holds the receipt file extensions the renamer picks up.
var SupportedExtensions = map[string]Format{
	"pdf":  PDF,
	"jpg":  IMAGE,
	"jpeg": IMAGE,
	"png":  IMAGE,
	"bmp":  IMAGE,
	"tiff": IMAGE,
	"tif":  IMAGE,
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat returns the source format for an extension, or "" when unsupported.
func MapExtToFormat(ext string) Format {
	return SupportedExtensions[NormalizeExt(ext)]
}

// IsSupportedExt reports whether ext (with or without the dot) is a receipt extension.
func IsSupportedExt(ext string) bool {
	_, ok := SupportedExtensions[NormalizeExt(ext)]
	return ok
}
