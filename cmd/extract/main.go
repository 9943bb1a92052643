// Command extract runs extraction and verification on one file several times
// without renaming it, to see how stable the model's answers are.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joseph-ayodele/receipt-renamer/internal/common"
	"github.com/joseph-ayodele/receipt-renamer/internal/entity"
	"github.com/joseph-ayodele/receipt-renamer/internal/extract"
	"github.com/joseph-ayodele/receipt-renamer/internal/llm/ollama"
	"github.com/joseph-ayodele/receipt-renamer/internal/naming"
	"github.com/joseph-ayodele/receipt-renamer/internal/raster"
	"github.com/joseph-ayodele/receipt-renamer/internal/routing"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	var (
		configPath = flag.String("config", "", "TOML configuration file")
		model      = flag.String("model", "", "override the Ollama model")
		times      = flag.Int("times", 3, "number of runs")
		noVerify   = flag.Bool("no-verify", false, "skip the verification pass")
	)
	flag.Parse()

	if flag.NArg() < 1 || flag.NArg() > 2 {
		logger.Error("usage: extract [-model NAME] [-no-verify] <receipt-file> [times]")
		os.Exit(2)
	}
	path := flag.Arg(0)
	if flag.NArg() == 2 {
		n, err := strconv.Atoi(flag.Arg(1))
		if err != nil || n < 1 {
			logger.Error("times must be a positive integer", "value", flag.Arg(1))
			os.Exit(2)
		}
		*times = n
	}

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}
	if *model != "" {
		cfg.Model.Name = *model
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	client := ollama.NewClient(ollama.Config{
		Host:        cfg.Model.Host,
		Temperature: cfg.Model.Temperature,
		Timeout:     cfg.ModelTimeout(),
	}, logger)
	if err := client.CheckAvailable(ctx, cfg.Model.Name); err != nil {
		logger.Error("model unavailable", "error", err)
		os.Exit(1)
	}

	normalizer := raster.NewNormalizer(raster.Config{
		Pdftoppm:           cfg.Raster.Pdftoppm,
		DPI:                cfg.Raster.DPI,
		PageLongEdgeInches: cfg.Raster.PageLongEdgeInches,
	}, logger)
	img, err := normalizer.Normalize(ctx, path)
	if err != nil {
		logger.Error("normalize", "path", path, "error", err)
		os.Exit(1)
	}

	extractor, err := extract.NewExtractor(client, cfg.Model.Name, logger)
	if err != nil {
		logger.Error("extractor", "error", err)
		os.Exit(1)
	}
	verifier, err := extract.NewVerifier(client, cfg.Model.Name, logger)
	if err != nil {
		logger.Error("verifier", "error", err)
		os.Exit(1)
	}
	thresholds := routing.Thresholds{AutoApprove: cfg.Routing.AutoApprove, SoftReview: cfg.Routing.SoftReview}

	for i := 1; i <= *times; i++ {
		start := time.Now()
		rec, err := extractor.Extract(ctx, img.PNG)
		if err != nil {
			logger.Error("extract.run.error", "iter", i, "kind", common.Kind(err), "error", err)
			continue
		}

		ver := entity.FullTrust()
		if !*noVerify && rec.IsMedicalReceipt {
			ver, err = verifier.Verify(ctx, img.PNG, rec)
			if err != nil {
				logger.Error("verify.run.error", "iter", i, "error", err)
				continue
			}
		}
		decision, score := routing.Route(ver, thresholds)

		recJSON, _ := json.Marshal(rec)
		logger.Info("extract.run.ok",
			"iter", i,
			"record", string(recJSON),
			"decision", decision,
			"aggregate", score,
			"name", naming.Compose(rec, filepath.Ext(path), cfg.Routing.BaseCurrency),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}
}
