package llm

// BuildExtractionSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// We pass this to Ollama as the structured output format and also use it locally to validate.
// Every key is required; unknown values are sent as null.
func BuildExtractionSchema() map[string]any {
	props := map[string]any{
		"date":               nullable("string"),
		"provider":           nullable("string"),
		"patient":            nullable("string"),
		"amount":             map[string]any{"type": []string{"number", "null"}, "minimum": 0},
		"currency":           nullable("string"),
		"is_medical_receipt": map[string]any{"type": "boolean"},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             []string{"date", "provider", "patient", "amount", "currency", "is_medical_receipt"},
	}
}

// BuildVerificationSchema describes the per-field evidence reply.
func BuildVerificationSchema() map[string]any {
	evidence := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"source_text": nullable("string"),
			"confidence":  map[string]any{"type": "number"},
		},
		"required": []string{"source_text", "confidence"},
	}
	fields := []string{"date", "provider", "patient", "amount", "currency"}
	props := make(map[string]any, len(fields))
	for _, f := range fields {
		props[f] = evidence
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             fields,
	}
}

func nullable(t string) map[string]any {
	return map[string]any{"type": []string{t, "null"}}
}
