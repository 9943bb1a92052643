// Package extract reads receipt fields off a normalized image with a vision
// model and asks the same model to ground each value in the image.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/receipt-renamer/internal/common"
	"github.com/joseph-ayodele/receipt-renamer/internal/entity"
	"github.com/joseph-ayodele/receipt-renamer/internal/llm"
)

const maxTextFieldLen = 200

// Extractor turns one page image into a ReceiptRecord.
type Extractor struct {
	model  llm.VisionModel
	name   string
	schema *jsonschema.Schema
	logger *slog.Logger
}

// NewExtractor compiles the extraction schema once; the error only fires on a
// broken schema definition.
func NewExtractor(model llm.VisionModel, modelName string, logger *slog.Logger) (*Extractor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	schema, err := llm.CompileSchema(llm.BuildExtractionSchema())
	if err != nil {
		return nil, fmt.Errorf("extraction schema: %w", err)
	}
	return &Extractor{model: model, name: modelName, schema: schema, logger: logger}, nil
}

// extractionWire mirrors the model reply. Pointers keep "absent" apart from zero.
type extractionWire struct {
	Date             *string          `json:"date"`
	Provider         *string          `json:"provider"`
	Patient          *string          `json:"patient"`
	Amount           *decimal.Decimal `json:"amount"`
	Currency         *string          `json:"currency"`
	IsMedicalReceipt *bool            `json:"is_medical_receipt"`
}

// Extract issues exactly one model call. Call failures come back as
// ExtractionCallError; a reply that cannot be decoded into a record comes
// back as ExtractionParseError. Neither is ever turned into a non-receipt.
func (e *Extractor) Extract(ctx context.Context, png []byte) (entity.ReceiptRecord, error) {
	reqID := uuid.New().String()
	start := time.Now()
	e.logger.Debug("llm.extract.start", "req_id", reqID, "model", e.name, "image_bytes", len(png))

	reply, err := e.model.Chat(ctx, llm.VisionRequest{
		Model:  e.name,
		Prompt: llm.ExtractionPrompt,
		Images: [][]byte{png},
		Format: llm.BuildExtractionSchema(),
	})
	if err != nil {
		e.logger.Debug("llm.extract.call_error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return entity.ReceiptRecord{}, common.NewExtractionCallError(err)
	}

	rec, err := e.parse(reply)
	if err != nil {
		e.logger.Debug("llm.extract.parse_error", "req_id", reqID, "error", err, "reply", truncate(reply, 300))
		return entity.ReceiptRecord{}, err
	}

	e.logger.Debug("llm.extract.ok",
		"req_id", reqID,
		"is_medical_receipt", rec.IsMedicalReceipt,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return rec, nil
}

func (e *Extractor) parse(reply string) (entity.ReceiptRecord, error) {
	obj, err := llm.ExtractJSONObject(reply)
	if err != nil {
		return entity.ReceiptRecord{}, common.NewExtractionParseError("locate json", err)
	}
	norm, err := llm.NormalizeExtractionJSON(obj, e.logger)
	if err != nil {
		return entity.ReceiptRecord{}, common.NewExtractionParseError("malformed json", err)
	}
	if err := llm.ValidateJSON(e.schema, norm); err != nil {
		return entity.ReceiptRecord{}, common.NewExtractionParseError("schema", err)
	}

	var w extractionWire
	if err := json.Unmarshal(norm, &w); err != nil {
		return entity.ReceiptRecord{}, common.NewExtractionParseError("decode", err)
	}
	if w.IsMedicalReceipt == nil {
		return entity.ReceiptRecord{}, common.NewExtractionParseError("missing is_medical_receipt", nil)
	}

	rec := entity.ReceiptRecord{
		Date:             w.Date,
		Provider:         w.Provider,
		Patient:          w.Patient,
		Amount:           w.Amount,
		Currency:         w.Currency,
		IsMedicalReceipt: *w.IsMedicalReceipt,
	}
	return e.dropInvalid(rec), nil
}

// dropInvalid clears values that decoded but are not usable (e.g. "15/03/2024"
// as a date). Those fields become absent, which later shows up as a placeholder.
func (e *Extractor) dropInvalid(rec entity.ReceiptRecord) entity.ReceiptRecord {
	v := common.NewValidator().
		Field(string(entity.FieldDate), rec.Date, common.ISODate).
		Field(string(entity.FieldProvider), rec.Provider, common.MaxLength(maxTextFieldLen)).
		Field(string(entity.FieldPatient), rec.Patient, common.MaxLength(maxTextFieldLen)).
		Field(string(entity.FieldAmount), rec.Amount, common.NonNegativeAmount).
		Field(string(entity.FieldCurrency), rec.Currency, common.CurrencyCode)
	if !v.HasErrors() {
		return rec
	}

	var bad []entity.Field
	for _, f := range entity.AllFields {
		if v.FieldFailed(string(f)) {
			bad = append(bad, f)
		}
	}
	e.logger.Warn("llm.extract.invalid_fields", "fields", bad, "detail", v.ErrorMessage())
	return rec.Without(bad...)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
