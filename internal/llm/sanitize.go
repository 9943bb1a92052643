package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/receipt-renamer/constants"
)

// ErrNoJSONObject is returned when a reply holds no brace-delimited object.
var ErrNoJSONObject = errors.New("no json object in model reply")

// ExtractJSONObject cuts the first {...} span out of a model reply, dropping
// markdown fences and any prose around it.
func ExtractJSONObject(reply string) ([]byte, error) {
	s := strings.TrimSpace(reply)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return nil, ErrNoJSONObject
	}
	return []byte(s[start : end+1]), nil
}

var extractionKeys = map[string]struct{}{
	"date": {}, "provider": {}, "patient": {}, "amount": {}, "currency": {}, "is_medical_receipt": {},
}

var nonAmountChars = regexp.MustCompile(`[^\d.]`)

// NormalizeExtractionJSON coerces the loose shapes small models produce into
// the extraction schema before validation:
//   - amount strings such as "$45.99" become numbers
//   - blank strings and the literal "null" become null
//   - currency symbols become ISO codes
//   - "true"/"false" strings become booleans
//   - unknown keys are removed
//
// Keys the model left out are not invented; the schema catches those.
func NormalizeExtractionJSON(raw []byte, logger *slog.Logger) ([]byte, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("normalize: decode: %w", err)
	}

	var dropped []string
	for k := range m {
		if _, ok := extractionKeys[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k)
		}
	}

	for _, k := range []string{"date", "provider", "patient", "currency"} {
		s, ok := m[k].(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" || strings.EqualFold(s, "null") {
			m[k] = nil
			continue
		}
		m[k] = s
	}

	if s, ok := m["currency"].(string); ok {
		if code, ok := constants.CanonicalizeCurrency(s); ok {
			m["currency"] = code
		}
	}

	if s, ok := m["amount"].(string); ok {
		m["amount"] = coerceAmount(s)
	}

	if s, ok := m["is_medical_receipt"].(string); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			m["is_medical_receipt"] = b
		}
	}

	if len(dropped) > 0 {
		logger.Warn("llm.normalize.dropped_keys", "keys", dropped)
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("normalize: encode: %w", err)
	}
	return out, nil
}

// coerceAmount keeps digits and dots only. Anything that does not then parse
// as a number is treated as unknown.
func coerceAmount(s string) any {
	cleaned := nonAmountChars.ReplaceAllString(s, "")
	if cleaned == "" {
		return nil
	}
	if _, err := strconv.ParseFloat(cleaned, 64); err != nil {
		return nil
	}
	return json.Number(cleaned)
}
