//go:build !linux

package rename

func renameNoReplace(src, dst string) error {
	return linkRename(src, dst)
}
