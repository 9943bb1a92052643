package common

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidatorRules(t *testing.T) {
	date := "2024-02-30"
	neg := decimal.NewFromInt(-5)

	v := NewValidator().
		Field("date", &date, ISODate).
		Field("currency", "sgd", CurrencyCode).
		Field("amount", &neg, NonNegativeAmount).
		Field("provider", "Clinic", MaxLength(3))

	for _, field := range []string{"date", "currency", "amount", "provider"} {
		if !v.FieldFailed(field) {
			t.Errorf("expected %s to fail validation", field)
		}
	}
	if v.Error() == nil {
		t.Fatal("expected combined error")
	}
}

func TestValidatorSkipsAbsentValues(t *testing.T) {
	var date *string
	var amount *decimal.Decimal

	v := NewValidator().
		Field("date", date, ISODate).
		Field("amount", amount, NonNegativeAmount).
		Field("currency", (*string)(nil), CurrencyCode)
	if v.HasErrors() {
		t.Fatalf("absent values should not fail: %s", v.ErrorMessage())
	}
}

func TestISODateAcceptsRealDates(t *testing.T) {
	if err := ISODate("date", "2024-03-15"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ISODate("date", "15/03/2024"); err == nil {
		t.Fatal("expected DD/MM/YYYY to be rejected")
	}
}
