package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/receipt-renamer/internal/common"
	"github.com/joseph-ayodele/receipt-renamer/internal/export"
	"github.com/joseph-ayodele/receipt-renamer/internal/extract"
	"github.com/joseph-ayodele/receipt-renamer/internal/ingest"
	"github.com/joseph-ayodele/receipt-renamer/internal/llm/ollama"
	"github.com/joseph-ayodele/receipt-renamer/internal/pipeline"
	"github.com/joseph-ayodele/receipt-renamer/internal/raster"
	"github.com/joseph-ayodele/receipt-renamer/internal/rename"
	"github.com/joseph-ayodele/receipt-renamer/internal/review"
)

// errFilesFailed makes the process exit non-zero after the summary already
// listed the failures.
var errFilesFailed = errors.New("one or more files failed")

type cliFlags struct {
	configPath     string
	dryRun         bool
	verbose        bool
	yes            bool
	confirm        bool
	workers        int
	model          string
	dpi            int
	recursive      bool
	noVerify       bool
	verifyRequired bool
	reportPath     string
	ollamaHost     string
}

func newRootCommand(stdin *os.File, stdout, stderr io.Writer) *cobra.Command {
	var flags cliFlags

	cmd := &cobra.Command{
		Use:   "receipt-renamer DIR",
		Short: "Rename medical receipts from their contents using a local vision model",
		Long: `Reads each receipt in DIR with a local Ollama vision model and renames it to
YYYY-MM-DD_Provider_Patient_AMOUNT.ext. Nothing leaves your computer.`,
		Example: `  receipt-renamer ~/receipts --dry-run -v     Preview renames
  receipt-renamer ~/receipts                   Rename, confirming each file
  receipt-renamer ~/receipts --confirm         Only confirm low-confidence files
  receipt-renamer ~/receipts -y -w 8           Unattended, 8 parallel workers`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, flags)
			if err != nil {
				return err
			}
			return run(cmd, cfg, args[0], stdin, stdout, stderr)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.configPath, "config", "c", "", "TOML configuration file")
	f.BoolVar(&flags.dryRun, "dry-run", false, "Preview renames without executing")
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "Show detailed extraction for each file")
	f.BoolVarP(&flags.yes, "yes", "y", false, "Skip confirmation prompts and process files in parallel")
	f.BoolVar(&flags.confirm, "confirm", false, "Only prompt for files routed to review")
	f.IntVarP(&flags.workers, "workers", "w", 4, "Number of parallel workers (requires -y)")
	f.StringVar(&flags.model, "model", "", "Ollama vision model (default qwen2.5vl:7b)")
	f.IntVar(&flags.dpi, "dpi", 0, "Rasterization resolution (default 400)")
	f.BoolVar(&flags.recursive, "recursive", false, "Descend into subdirectories")
	f.BoolVar(&flags.noVerify, "no-verify", false, "Skip the verification pass and trust every field")
	f.BoolVar(&flags.verifyRequired, "verify-required", false, "Fail a file when verification fails instead of trusting it")
	f.StringVar(&flags.reportPath, "report", "", "Write an XLSX run report to this path")
	f.StringVar(&flags.ollamaHost, "ollama-host", "", "Ollama base URL (default http://localhost:11434)")

	return cmd
}

// buildConfig layers explicitly set flags over file and environment config.
func buildConfig(cmd *cobra.Command, flags cliFlags) (*common.Config, error) {
	cfg, err := common.LoadConfig(flags.configPath)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("dry-run") {
		cfg.Run.DryRun = flags.dryRun
	}
	if changed("verbose") {
		cfg.Run.Verbose = flags.verbose
	}
	if changed("yes") {
		cfg.Run.Yes = flags.yes
	}
	if changed("confirm") {
		cfg.Run.Confirm = flags.confirm
	}
	if changed("workers") {
		cfg.Run.Workers = flags.workers
		cfg.Run.WorkersSet = true
	}
	if changed("model") {
		cfg.Model.Name = flags.model
	}
	if changed("dpi") {
		cfg.Raster.DPI = flags.dpi
	}
	if changed("recursive") {
		cfg.Run.Recursive = flags.recursive
	}
	if flags.noVerify {
		cfg.Routing.Verify = false
	}
	if flags.verifyRequired {
		cfg.Routing.VerifyOptional = false
	}
	if changed("report") {
		cfg.Report.Path = flags.reportPath
	}
	if changed("ollama-host") {
		cfg.Model.Host = flags.ollamaHost
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(cmd *cobra.Command, cfg *common.Config, dir string, stdin *os.File, stdout, stderr io.Writer) error {
	ctx := cmd.Context()

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("directory not found: %s", dir)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", dir)
	}

	logger := common.NewLogger(stderr, cfg.Run.Verbose)
	slog.SetDefault(logger)

	interactive := cfg.Prompt() != common.PromptNever
	var reviewer review.Reviewer
	if interactive {
		if err := review.RequireTerminal(stdin); err != nil {
			return err
		}
		reviewer = review.NewConsole(stdin, stdout)
	}

	mode := "LIVE"
	if cfg.Run.DryRun {
		mode = "DRY RUN"
	}
	fmt.Fprintf(stdout, "Model: %s | DPI: %d | Mode: %s\n\n", cfg.Model.Name, cfg.Raster.DPI, mode)

	client := ollama.NewClient(ollama.Config{
		Host:        cfg.Model.Host,
		Temperature: cfg.Model.Temperature,
		Timeout:     cfg.ModelTimeout(),
	}, logger)
	if err := client.CheckAvailable(ctx, cfg.Model.Name); err != nil {
		return err
	}

	normalizer := raster.NewNormalizer(raster.Config{
		Pdftoppm:           cfg.Raster.Pdftoppm,
		DPI:                cfg.Raster.DPI,
		PageLongEdgeInches: cfg.Raster.PageLongEdgeInches,
	}, logger)
	if err := normalizer.CheckPDFSupport(); err != nil {
		logger.Warn("raster.pdf.unavailable", "error", err)
	}

	extractor, err := extract.NewExtractor(client, cfg.Model.Name, logger)
	if err != nil {
		return err
	}
	var verifier pipeline.FieldVerifier
	if cfg.Routing.Verify {
		v, err := extract.NewVerifier(client, cfg.Model.Name, logger)
		if err != nil {
			return err
		}
		verifier = v
	}

	proc := pipeline.NewProcessor(logger, pipeline.OptionsFromConfig(cfg),
		normalizer, extractor, verifier, rename.NewRenamer(logger), reviewer)

	printer := newProgressPrinter(stdout, cfg.Run.Verbose, cfg.Run.DryRun, interactive)
	opts := []pipeline.OrchestratorOption{pipeline.WithObserver(printer)}
	if cfg.Parallel() {
		opts = append(opts, pipeline.WithParallel(cfg.EffectiveWorkers()))
	}
	orch := pipeline.NewOrchestrator(proc, logger, opts...)

	sum, err := orch.RunDir(ctx, dir, ingest.Options{
		Recursive:  cfg.Run.Recursive,
		SkipHidden: cfg.Run.SkipHidden,
	})
	if err != nil {
		return err
	}
	if len(sum.Results) > 0 {
		printSummary(stdout, sum, cfg.Run.DryRun)
	}

	if cfg.Report.Path != "" {
		if err := export.NewService(logger).WriteRunReport(cfg.Report.Path, sum.Results); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Report written to %s\n", cfg.Report.Path)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if sum.HasErrors() {
		return errFilesFailed
	}
	return nil
}
