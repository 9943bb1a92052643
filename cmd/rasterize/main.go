// Command rasterize writes the normalized page image the vision model would
// see for one receipt file. Useful for checking pdftoppm and scaling.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/receipt-renamer/internal/common"
	"github.com/joseph-ayodele/receipt-renamer/internal/raster"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	var (
		configPath = flag.String("config", "", "TOML configuration file")
		dpi        = flag.Int("dpi", 0, "override rasterization DPI")
		out        = flag.String("out", "", "output PNG path (default <file>.normalized.png)")
	)
	flag.Parse()

	if flag.NArg() < 1 || flag.NArg() > 2 {
		logger.Error("usage", "cmd", "rasterize [-dpi N] <receipt-file> [out.png]")
		os.Exit(2)
	}
	path := flag.Arg(0)
	if flag.NArg() == 2 {
		*out = flag.Arg(1)
	}

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}
	if *dpi > 0 {
		cfg.Raster.DPI = *dpi
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	n := raster.NewNormalizer(raster.Config{
		Pdftoppm:           cfg.Raster.Pdftoppm,
		DPI:                cfg.Raster.DPI,
		PageLongEdgeInches: cfg.Raster.PageLongEdgeInches,
	}, logger)

	start := time.Now()
	img, err := n.Normalize(ctx, path)
	if err != nil {
		logger.Error("normalize failed", "path", path, "kind", common.Kind(err), "error", err)
		os.Exit(1)
	}

	dst := *out
	if dst == "" {
		dst = strings.TrimSuffix(path, filepath.Ext(path)) + ".normalized.png"
	}
	if err := os.WriteFile(dst, img.PNG, 0o644); err != nil {
		logger.Error("write output", "path", dst, "error", err)
		os.Exit(1)
	}

	logger.Info("rasterize OK",
		"source_format", img.SourceFormat,
		"source", fmt.Sprintf("%dx%d", img.SourceWidth, img.SourceHeight),
		"normalized", fmt.Sprintf("%dx%d", img.Width, img.Height),
		"target_long_edge", n.TargetLongEdge(),
		"out", dst,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
