// Package ingest finds the receipt files a run should process.
package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type Options struct {
	Recursive  bool
	SkipHidden bool
	Logger     *slog.Logger
}

type DirStats struct {
	Scanned     uint32
	Matched     uint32
	Unsupported uint32
	Hidden      uint32
	Failed      uint32
}

// Discover walks root, keeps files with a supported extension and returns
// them sorted by path. Subdirectories are only entered with Recursive.
// Unreadable entries are counted and logged, not returned as errors.
func Discover(root string, opts Options) ([]string, DirStats, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, DirStats{}, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, DirStats{}, fmt.Errorf("%s is not a directory", root)
	}

	var files []string
	var stats DirStats

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			logger.Warn("ingest.walk.error", "path", path, "error", walkErr)
			stats.Failed++
			return nil
		}
		if path == root {
			return nil
		}
		if d.IsDir() {
			if !opts.Recursive || (opts.SkipHidden && IsHidden(path)) {
				return filepath.SkipDir
			}
			return nil
		}

		stats.Scanned++
		if opts.SkipHidden && IsHidden(path) {
			stats.Hidden++
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if !AllowedExt(filepath.Ext(path)) {
			stats.Unsupported++
			return nil
		}
		stats.Matched++
		files = append(files, path)
		return nil
	})
	if err != nil {
		return files, stats, fmt.Errorf("walk: %w", err)
	}

	sort.Strings(files)
	logger.Debug("ingest.discover.ok",
		"root", root,
		"recursive", opts.Recursive,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
	)
	return files, stats, nil
}
