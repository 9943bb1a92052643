package entity

// FieldVerification is the verifier's evidence for one field.
type FieldVerification struct {
	SourceText string  `json:"source_text"`
	Confidence float64 `json:"confidence"`
}

// VerificationRecord holds per-field evidence for one ReceiptRecord.
type VerificationRecord struct {
	Fields map[Field]FieldVerification `json:"fields"`
}

// FullTrust is used when verification is disabled: every field at 1.0.
func FullTrust() VerificationRecord {
	v := VerificationRecord{Fields: make(map[Field]FieldVerification, len(AllFields))}
	for _, f := range AllFields {
		v.Fields[f] = FieldVerification{Confidence: 1.0}
	}
	return v
}

// Confidence returns the score for f. Missing entries count as 0.
func (v VerificationRecord) Confidence(f Field) float64 {
	return v.Fields[f].Confidence
}
