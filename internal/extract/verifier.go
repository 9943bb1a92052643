package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/receipt-renamer/internal/common"
	"github.com/joseph-ayodele/receipt-renamer/internal/entity"
	"github.com/joseph-ayodele/receipt-renamer/internal/llm"
)

// Verifier asks the model to point at the text backing each extracted value
// and turns its answer into per-field confidences.
type Verifier struct {
	model  llm.VisionModel
	name   string
	schema *jsonschema.Schema
	logger *slog.Logger
}

func NewVerifier(model llm.VisionModel, modelName string, logger *slog.Logger) (*Verifier, error) {
	if logger == nil {
		logger = slog.Default()
	}
	schema, err := llm.CompileSchema(llm.BuildVerificationSchema())
	if err != nil {
		return nil, fmt.Errorf("verification schema: %w", err)
	}
	return &Verifier{model: model, name: modelName, schema: schema, logger: logger}, nil
}

type evidenceWire struct {
	SourceText *string  `json:"source_text"`
	Confidence *float64 `json:"confidence"`
}

// Verify never mutates rec. Any call or decode failure is a VerificationCallError;
// whether that is fatal is the caller's decision.
func (v *Verifier) Verify(ctx context.Context, png []byte, rec entity.ReceiptRecord) (entity.VerificationRecord, error) {
	reqID := uuid.New().String()
	start := time.Now()
	v.logger.Debug("llm.verify.start", "req_id", reqID, "model", v.name)

	reply, err := v.model.Chat(ctx, llm.VisionRequest{
		Model:  v.name,
		Prompt: llm.BuildVerificationPrompt(rec),
		Images: [][]byte{png},
		Format: llm.BuildVerificationSchema(),
	})
	if err != nil {
		v.logger.Debug("llm.verify.call_error", "req_id", reqID, "error", err)
		return entity.VerificationRecord{}, common.NewVerificationCallError(err)
	}

	out, err := v.parse(reply, rec)
	if err != nil {
		v.logger.Debug("llm.verify.parse_error", "req_id", reqID, "error", err, "reply", truncate(reply, 300))
		return entity.VerificationRecord{}, common.NewVerificationCallError(err)
	}

	v.logger.Debug("llm.verify.ok", "req_id", reqID, "elapsed_ms", time.Since(start).Milliseconds())
	return out, nil
}

func (v *Verifier) parse(reply string, rec entity.ReceiptRecord) (entity.VerificationRecord, error) {
	obj, err := llm.ExtractJSONObject(reply)
	if err != nil {
		return entity.VerificationRecord{}, err
	}
	if err := llm.ValidateJSON(v.schema, obj); err != nil {
		return entity.VerificationRecord{}, err
	}
	var wire map[string]evidenceWire
	if err := json.Unmarshal(obj, &wire); err != nil {
		return entity.VerificationRecord{}, fmt.Errorf("decode: %w", err)
	}

	out := entity.VerificationRecord{Fields: make(map[entity.Field]entity.FieldVerification, len(entity.AllFields))}
	for _, f := range entity.AllFields {
		ev := wire[string(f)]
		fv := entity.FieldVerification{}
		if ev.SourceText != nil {
			fv.SourceText = strings.TrimSpace(*ev.SourceText)
		}
		switch {
		case !rec.Has(f):
			// nothing to vouch for
		case fv.SourceText == "":
			// a value with no visible evidence is untrusted
		case ev.Confidence != nil:
			fv.Confidence = normalizeConfidence(*ev.Confidence)
		}
		out.Fields[f] = fv
	}
	return out, nil
}

// normalizeConfidence accepts 0..1 or 0..100 and clamps to [0,1].
func normalizeConfidence(c float64) float64 {
	if c > 1 && c <= 100 {
		c /= 100
	}
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
