package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/receipt-renamer/constants"
)

// AllowedExt checks if a file extension is one the renamer handles.
func AllowedExt(ext string) bool {
	return constants.IsSupportedExt(ext)
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}
