// Package pipeline runs the per-file steps and fans files out over workers.
package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/receipt-renamer/constants"
	"github.com/joseph-ayodele/receipt-renamer/internal/common"
	"github.com/joseph-ayodele/receipt-renamer/internal/entity"
	"github.com/joseph-ayodele/receipt-renamer/internal/naming"
	"github.com/joseph-ayodele/receipt-renamer/internal/raster"
	"github.com/joseph-ayodele/receipt-renamer/internal/review"
	"github.com/joseph-ayodele/receipt-renamer/internal/routing"
)

// Normalizer is satisfied by *raster.Normalizer.
type Normalizer interface {
	Normalize(ctx context.Context, path string) (raster.Image, error)
}

// FieldExtractor is satisfied by *extract.Extractor.
type FieldExtractor interface {
	Extract(ctx context.Context, png []byte) (entity.ReceiptRecord, error)
}

// FieldVerifier is satisfied by *extract.Verifier.
type FieldVerifier interface {
	Verify(ctx context.Context, png []byte, rec entity.ReceiptRecord) (entity.VerificationRecord, error)
}

// FileRenamer is satisfied by *rename.Renamer.
type FileRenamer interface {
	Plan(src, name string) (string, error)
	Rename(src, name string) (string, error)
}

// Options are the read-only settings shared by every job.
type Options struct {
	Thresholds     routing.Thresholds
	VerifyOptional bool
	BaseCurrency   string
	DryRun         bool
	Prompt         common.PromptPolicy
}

// OptionsFromConfig maps the loaded configuration onto processor options.
func OptionsFromConfig(cfg *common.Config) Options {
	return Options{
		Thresholds: routing.Thresholds{
			AutoApprove: cfg.Routing.AutoApprove,
			SoftReview:  cfg.Routing.SoftReview,
		},
		VerifyOptional: cfg.Routing.VerifyOptional,
		BaseCurrency:   cfg.Routing.BaseCurrency,
		DryRun:         cfg.Run.DryRun,
		Prompt:         cfg.Prompt(),
	}
}

// Processor takes one file from raw bytes to its final name.
type Processor struct {
	normalizer Normalizer
	extractor  FieldExtractor
	verifier   FieldVerifier // nil when verification is disabled
	renamer    FileRenamer
	reviewer   review.Reviewer // nil means never prompt
	opts       Options
	logger     *slog.Logger
}

func NewProcessor(
	logger *slog.Logger,
	opts Options,
	normalizer Normalizer,
	extractor FieldExtractor,
	verifier FieldVerifier,
	renamer FileRenamer,
	reviewer review.Reviewer,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Thresholds == (routing.Thresholds{}) {
		opts.Thresholds = routing.DefaultThresholds()
	}
	if opts.BaseCurrency == "" {
		opts.BaseCurrency = constants.DefaultBaseCurrency
	}
	return &Processor{
		normalizer: normalizer,
		extractor:  extractor,
		verifier:   verifier,
		renamer:    renamer,
		reviewer:   reviewer,
		opts:       opts,
		logger:     logger,
	}
}

// Process never returns an error: every failure is recorded on the result
// with status skipped_error so the caller can move on to the next file.
func (p *Processor) Process(ctx context.Context, path string) (res entity.FileJobResult) {
	start := time.Now()
	ctx = common.WithFilePath(common.WithRequestID(ctx, uuid.New().String()), path)
	res = entity.FileJobResult{Path: path, DryRun: p.opts.DryRun}
	defer func() { res.Elapsed = time.Since(start) }()

	logger := p.logger.With("req_id", common.RequestIDFromContext(ctx), "path", path)

	img, err := p.normalizer.Normalize(ctx, path)
	if err != nil {
		return p.fail(logger, res, err)
	}

	rec, err := p.extractor.Extract(ctx, img.PNG)
	if err != nil {
		return p.fail(logger, res, err)
	}
	res.Record = &rec
	if !rec.IsMedicalReceipt {
		res.Status = constants.StatusSkippedNonReceipt
		logger.Debug("pipeline.skip.non_receipt")
		return res
	}

	ver, err := p.verify(ctx, logger, img.PNG, rec)
	if err != nil {
		return p.fail(logger, res, err)
	}

	decision, score := routing.Route(ver, p.opts.Thresholds)
	res.Decision = decision
	res.Aggregate = score
	res.Flagged = decision != entity.AutoApprove
	low := routing.LowConfidence(ver, p.opts.Thresholds.SoftReview)
	logger.Debug("pipeline.route", "decision", decision, "aggregate", score, "low_fields", low)

	ext := filepath.Ext(path)
	named := rec
	if decision == entity.HardConfirm && !p.asks(decision) {
		named, _ = routing.ApplyPlaceholderPolicy(rec, ver, p.opts.Thresholds.SoftReview)
	}
	target := naming.Compose(named, ext, p.opts.BaseCurrency)
	status := constants.StatusRenamed

	if p.asks(decision) {
		answer, err := p.reviewer.Confirm(ctx, review.Proposal{
			Path:      path,
			Target:    target,
			Decision:  decision,
			Aggregate: score,
			LowFields: low,
		})
		if err != nil {
			return p.fail(logger, res, err)
		}
		switch answer.Action {
		case review.Skip:
			res.Status = constants.StatusSkippedByUser
			logger.Debug("pipeline.skip.user")
			return res
		case review.Edit:
			target = answer.Name
			status = constants.StatusReviewedAndEdited
		}
	}

	var dst string
	if p.opts.DryRun {
		dst, err = p.renamer.Plan(path, target)
	} else {
		dst, err = p.renamer.Rename(path, target)
	}
	if err != nil {
		return p.fail(logger, res, err)
	}

	res.Target = filepath.Base(dst)
	res.Status = status
	logger.Debug("pipeline.done", "target", res.Target, "status", status, "dry_run", p.opts.DryRun)
	return res
}

func (p *Processor) verify(ctx context.Context, logger *slog.Logger, png []byte, rec entity.ReceiptRecord) (entity.VerificationRecord, error) {
	if p.verifier == nil {
		return entity.FullTrust(), nil
	}
	ver, err := p.verifier.Verify(ctx, png, rec)
	if err == nil {
		return ver, nil
	}
	if p.opts.VerifyOptional {
		logger.Warn("pipeline.verify.fallback_full_trust", "error", err)
		return entity.FullTrust(), nil
	}
	return entity.VerificationRecord{}, err
}

// asks reports whether the operator is consulted for this decision.
func (p *Processor) asks(decision entity.RoutingDecision) bool {
	if p.reviewer == nil {
		return false
	}
	switch p.opts.Prompt {
	case common.PromptEvery:
		return true
	case common.PromptGated:
		return decision != entity.AutoApprove
	default:
		return false
	}
}

func (p *Processor) fail(logger *slog.Logger, res entity.FileJobResult, err error) entity.FileJobResult {
	res.Status = constants.StatusSkippedError
	res.Target = ""
	res.Err = err
	logger.Debug("pipeline.file.failed", "kind", common.Kind(err), "error", err)
	return res
}
