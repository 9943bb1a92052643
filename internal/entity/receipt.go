package entity

import (
	"github.com/shopspring/decimal"
)

// Field names one extracted receipt field.
type Field string

const (
	FieldDate     Field = "date"
	FieldProvider Field = "provider"
	FieldPatient  Field = "patient"
	FieldAmount   Field = "amount"
	FieldCurrency Field = "currency"
)

// AllFields lists every field in extraction order.
var AllFields = []Field{FieldDate, FieldProvider, FieldPatient, FieldAmount, FieldCurrency}

// ScoredFields are the fields that count towards the routing aggregate.
// Currency is left out: when absent the base currency applies.
var ScoredFields = []Field{FieldDate, FieldProvider, FieldPatient, FieldAmount}

// ReceiptRecord is what the extractor read off one receipt. Absent fields are
// nil, never empty strings or zero amounts.
type ReceiptRecord struct {
	Date             *string          `json:"date"` // YYYY-MM-DD
	Provider         *string          `json:"provider"`
	Patient          *string          `json:"patient"`
	Amount           *decimal.Decimal `json:"amount"`
	Currency         *string          `json:"currency"` // ISO 4217
	IsMedicalReceipt bool             `json:"is_medical_receipt"`
}

// Has reports whether field f was extracted.
func (r ReceiptRecord) Has(f Field) bool {
	switch f {
	case FieldDate:
		return r.Date != nil
	case FieldProvider:
		return r.Provider != nil
	case FieldPatient:
		return r.Patient != nil
	case FieldAmount:
		return r.Amount != nil
	case FieldCurrency:
		return r.Currency != nil
	}
	return false
}

// Value returns the field as display text and whether it is present.
func (r ReceiptRecord) Value(f Field) (string, bool) {
	switch f {
	case FieldDate:
		return deref(r.Date)
	case FieldProvider:
		return deref(r.Provider)
	case FieldPatient:
		return deref(r.Patient)
	case FieldAmount:
		if r.Amount == nil {
			return "", false
		}
		return r.Amount.String(), true
	case FieldCurrency:
		return deref(r.Currency)
	}
	return "", false
}

// Without returns a copy with the given fields cleared. The receiver is not modified.
func (r ReceiptRecord) Without(fields ...Field) ReceiptRecord {
	out := r
	for _, f := range fields {
		switch f {
		case FieldDate:
			out.Date = nil
		case FieldProvider:
			out.Provider = nil
		case FieldPatient:
			out.Patient = nil
		case FieldAmount:
			out.Amount = nil
		case FieldCurrency:
			out.Currency = nil
		}
	}
	return out
}

func deref(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	return *s, true
}

// StringPtr is a small helper for building records in code and tests.
func StringPtr(s string) *string { return &s }

// AmountPtr parses s as a decimal amount and panics on bad input; meant for literals.
func AmountPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
