// Package rename moves a receipt to its composed name inside the directory
// it already lives in, never overwriting another file.
package rename

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/receipt-renamer/internal/common"
)

// MaxConflictAttempts bounds the _1 … _N suffix search.
const MaxConflictAttempts = 1000

type Renamer struct {
	maxAttempts int
	logger      *slog.Logger

	// move performs the no-replace rename; swapped in tests.
	move func(src, dst string) error
}

type Option func(*Renamer)

// WithMaxAttempts overrides the suffix bound.
func WithMaxAttempts(n int) Option {
	return func(r *Renamer) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

func NewRenamer(logger *slog.Logger, opts ...Option) *Renamer {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Renamer{maxAttempts: MaxConflictAttempts, logger: logger, move: renameNoReplace}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve returns the first free name among name, stem_1.ext … stem_N.ext.
func (r *Renamer) Resolve(dir, name string) (string, error) {
	got, _, err := r.resolveFrom(dir, name, 0)
	return got, err
}

// resolveFrom starts at suffix "from" (0 means the bare name) and also
// returns the suffix it settled on.
func (r *Renamer) resolveFrom(dir, name string, from int) (string, int, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := from; i <= r.maxAttempts; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s_%d%s", stem, i, ext)
		}
		_, err := os.Lstat(filepath.Join(dir, candidate))
		if errors.Is(err, fs.ErrNotExist) {
			return candidate, i, nil
		}
		if err != nil {
			return "", i, common.NewAppError(common.CodeRenameFailed, "stat "+candidate, err)
		}
	}
	return "", r.maxAttempts, common.NewConflictExhaustedError(name, r.maxAttempts)
}

// Plan runs conflict resolution and the path-safety check without touching
// the filesystem. It returns the destination a real run would use.
func (r *Renamer) Plan(src, name string) (string, error) {
	if filepath.Base(src) == name {
		return src, nil
	}
	dir := filepath.Dir(src)
	if _, err := safeDestination(src, name); err != nil {
		return "", err
	}
	final, err := r.Resolve(dir, name)
	if err != nil {
		return "", err
	}
	return safeDestination(src, final)
}

// Rename moves src to name in the same directory and returns the final path.
// The safety check runs before every attempt. If another writer claims the
// chosen name between resolve and rename, resolution restarts once from the
// next suffix.
func (r *Renamer) Rename(src, name string) (string, error) {
	if filepath.Base(src) == name {
		r.logger.Debug("rename.noop", "path", src)
		return src, nil
	}
	if _, err := safeDestination(src, name); err != nil {
		r.logger.Warn("rename.rejected", "path", src, "name", name)
		return "", err
	}

	dir := filepath.Dir(src)
	from := 0
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		final, suffix, err := r.resolveFrom(dir, name, from)
		if err != nil {
			return "", err
		}
		dst, err := safeDestination(src, final)
		if err != nil {
			return "", err
		}

		err = r.move(src, dst)
		if err == nil {
			r.logger.Debug("rename.ok", "from", src, "to", dst)
			return dst, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", common.NewAppError(common.CodeRenameFailed, "rename "+filepath.Base(src), err)
		}
		r.logger.Debug("rename.conflict_retry", "path", src, "taken", final)
		lastErr = err
		from = suffix + 1
	}
	return "", common.NewAppError(common.CodeRenameFailed, "destination claimed concurrently twice", lastErr)
}

// safeDestination joins name onto the source directory and confirms the
// result still lives in that directory once symlinks are resolved.
func safeDestination(src, name string) (string, error) {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return "", common.NewPathTraversalError(name)
	}

	srcDir, err := filepath.Abs(filepath.Dir(src))
	if err != nil {
		return "", common.NewAppError(common.CodeRenameFailed, "resolve source directory", err)
	}
	dst := filepath.Join(srcDir, name)

	wantParent, err := filepath.EvalSymlinks(srcDir)
	if err != nil {
		return "", common.NewAppError(common.CodeRenameFailed, "resolve source directory", err)
	}
	gotParent, err := filepath.EvalSymlinks(filepath.Dir(dst))
	if err != nil {
		return "", common.NewPathTraversalError(name)
	}
	if gotParent != wantParent {
		return "", common.NewPathTraversalError(name)
	}
	return dst, nil
}

// linkRename claims dst with a hard link, which fails if dst exists, then
// drops the old name.
func linkRename(src, dst string) error {
	if err := os.Link(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}
