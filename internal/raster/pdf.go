package raster

import (
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// renderFirstPage rasterizes page 1 of a PDF at the target DPI.
func (n *Normalizer) renderFirstPage(ctx context.Context, path string) (image.Image, error) {
	tmpDir, err := os.MkdirTemp("", "rr-pdf-*")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			n.logger.Warn("raster.pdf.cleanup_failed", "dir", tmpDir, "error", err)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -f 1 -l 1 -singlefile -r 400 -png <in.pdf> <tmp/page>  => tmp/page.png
	_, errb, err := n.runner.Run(ctx, n.cfg.Pdftoppm,
		"-f", "1", "-l", "1", "-singlefile",
		"-r", strconv.Itoa(n.cfg.DPI),
		"-png", path, prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, truncate(strings.TrimSpace(string(errb)), 512))
	}

	img, err := decodeFile(prefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("read rendered page: %w", err)
	}
	return img, nil
}

// CheckPDFSupport reports whether the pdftoppm binary can be found.
func (n *Normalizer) CheckPDFSupport() error {
	if _, err := exec.LookPath(n.cfg.Pdftoppm); err != nil {
		return fmt.Errorf("%s not found: PDF receipts need poppler-utils installed", n.cfg.Pdftoppm)
	}
	return nil
}
