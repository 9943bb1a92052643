// Package raster turns receipt files of any supported format into one
// normalized PNG for the vision model.
package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	// registered decoders
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/joseph-ayodele/receipt-renamer/constants"
	"github.com/joseph-ayodele/receipt-renamer/internal/common"
)

type Config struct {
	Pdftoppm string // binary name or absolute path; if empty -> "pdftoppm"
	DPI      int    // target DPI, default 400

	// PageLongEdgeInches is the physical page size every input is normalized
	// to. Default 11.69 (A4).
	PageLongEdgeInches float64
}

// Image is a normalized raster ready for the model.
type Image struct {
	PNG          []byte
	Width        int
	Height       int
	SourceFormat constants.Format
	SourceWidth  int
	SourceHeight int
}

type Normalizer struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

type Option func(*Normalizer)

// WithRunner replaces the command runner used for pdftoppm.
func WithRunner(r Runner) Option {
	return func(n *Normalizer) {
		if r != nil {
			n.runner = r
		}
	}
}

func NewNormalizer(cfg Config, logger *slog.Logger, opts ...Option) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 400
	}
	if cfg.PageLongEdgeInches <= 0 {
		cfg.PageLongEdgeInches = 11.69
	}
	n := &Normalizer{cfg: cfg, logger: logger}
	n.runner = execRunner{logger: logger}
	for _, o := range opts {
		o(n)
	}
	return n
}

// TargetLongEdge is the pixel length of the long edge of every normalized image.
func (n *Normalizer) TargetLongEdge() int {
	return int(math.Round(n.cfg.PageLongEdgeInches * float64(n.cfg.DPI)))
}

// Normalize decodes path (first page only for PDFs) and rescales it so the long
// edge is TargetLongEdge pixels. PDFs and images share the same rescale step, so
// output size never depends on the input format or the camera resolution.
func (n *Normalizer) Normalize(ctx context.Context, path string) (Image, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	format := constants.MapExtToFormat(ext)

	var (
		src image.Image
		err error
	)
	switch format {
	case constants.PDF:
		src, err = n.renderFirstPage(ctx, path)
	case constants.IMAGE:
		src, err = decodeFile(path)
	default:
		n.logger.Warn("raster.normalize.unsupported", "path", path, "ext", ext)
		return Image{}, common.NewUnsupportedFormatError(path, ext)
	}
	if err != nil {
		n.logger.Error("raster.normalize.decode_failed", "path", path, "format", format, "error", err)
		return Image{}, common.NewDecodeError(path, err)
	}

	sb := src.Bounds()
	out := fitLongEdge(src, n.TargetLongEdge())

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return Image{}, common.NewDecodeError(path, fmt.Errorf("encode png: %w", err))
	}

	ob := out.Bounds()
	n.logger.Debug("raster.normalize.ok",
		"path", path,
		"format", format,
		"src_w", sb.Dx(), "src_h", sb.Dy(),
		"out_w", ob.Dx(), "out_h", ob.Dy(),
		"png_bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return Image{
		PNG:          buf.Bytes(),
		Width:        ob.Dx(),
		Height:       ob.Dy(),
		SourceFormat: format,
		SourceWidth:  sb.Dx(),
		SourceHeight: sb.Dy(),
	}, nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("empty image")
	}
	return img, nil
}
