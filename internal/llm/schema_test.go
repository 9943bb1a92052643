package llm

import (
	"strings"
	"testing"

	"github.com/joseph-ayodele/receipt-renamer/internal/entity"
)

func TestExtractionSchema(t *testing.T) {
	schema, err := CompileSchema(BuildExtractionSchema())
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{
			name: "complete",
			doc:  `{"date":"2024-03-15","provider":"Clinic","patient":"John Doe","amount":150,"currency":"SGD","is_medical_receipt":true}`,
		},
		{
			name: "all nulls",
			doc:  `{"date":null,"provider":null,"patient":null,"amount":null,"currency":null,"is_medical_receipt":false}`,
		},
		{
			name:    "missing flag",
			doc:     `{"date":null,"provider":null,"patient":null,"amount":null,"currency":null}`,
			wantErr: true,
		},
		{
			name:    "amount as string",
			doc:     `{"date":null,"provider":null,"patient":null,"amount":"12","currency":null,"is_medical_receipt":true}`,
			wantErr: true,
		},
		{
			name:    "negative amount",
			doc:     `{"date":null,"provider":null,"patient":null,"amount":-1,"currency":null,"is_medical_receipt":true}`,
			wantErr: true,
		},
		{
			name:    "extra key",
			doc:     `{"date":null,"provider":null,"patient":null,"amount":null,"currency":null,"is_medical_receipt":true,"x":1}`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateJSON(schema, []byte(tt.doc))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestVerificationSchema(t *testing.T) {
	schema, err := CompileSchema(BuildVerificationSchema())
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	ok := `{
		"date": {"source_text": "15 Mar 2024", "confidence": 0.95},
		"provider": {"source_text": "Clinic", "confidence": 0.9},
		"patient": {"source_text": null, "confidence": 0},
		"amount": {"source_text": "S$150.00", "confidence": 1},
		"currency": {"source_text": "S$", "confidence": 0.8}
	}`
	if err := ValidateJSON(schema, []byte(ok)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateJSON(schema, []byte(`{"date": {"confidence": 0.5}}`)); err == nil {
		t.Fatal("expected incomplete reply to fail")
	}
}

func TestBuildVerificationPromptListsValues(t *testing.T) {
	rec := entity.ReceiptRecord{
		Date:     entity.StringPtr("2024-03-15"),
		Provider: entity.StringPtr("Raffles Medical"),
		Amount:   entity.AmountPtr("85.50"),
	}
	p := BuildVerificationPrompt(rec)
	for _, want := range []string{"- date: 2024-03-15", "- provider: Raffles Medical", "- patient: null", "- amount: 85.5"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
