//go:build linux

package rename

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

func renameNoReplace(src, dst string) error {
	err := unix.Renameat2(unix.AT_FDCWD, src, unix.AT_FDCWD, dst, unix.RENAME_NOREPLACE)
	if err == nil {
		return nil
	}
	// Some filesystems (older kernels, certain FUSE/network mounts) lack
	// RENAME_NOREPLACE.
	if errors.Is(err, unix.EINVAL) || errors.Is(err, unix.ENOSYS) {
		return linkRename(src, dst)
	}
	return &os.LinkError{Op: "renameat2", Old: src, New: dst, Err: err}
}
