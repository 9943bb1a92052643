package llm

import (
	"strings"

	"github.com/joseph-ayodele/receipt-renamer/internal/entity"
)

// ExtractionPrompt asks for the receipt fields as strict JSON. The examples keep
// small vision models from inventing fields or answering in prose.
const ExtractionPrompt = `Analyze this image and extract the following information.
Return ONLY a valid JSON object with exactly these fields:

{
  "date": "YYYY-MM-DD format, or null if not visible",
  "provider": "Doctor, clinic, hospital, or pharmacy name, or null",
  "patient": "Patient's full name, or null",
  "amount": "Total amount paid as a number (no currency symbol), or null",
  "currency": "3-letter ISO currency code (see instructions below), or null",
  "is_medical_receipt": true or false
}

CURRENCY DETECTION - Look carefully at the receipt for:
- S$ or SGD = "SGD", $ with Singapore address = "SGD"
- RM = "MYR", € = "EUR", £ = "GBP", ¥ = "JPY"
- If the receipt shows a Singapore clinic/hospital/address, use SGD
- Only use "USD" if explicitly shown or if from a US provider
- If unclear, infer from the country/region shown on the receipt

CLASSIFICATION:
- is_medical_receipt is true only for receipts or invoices from a doctor,
  clinic, hospital, dentist, pharmacy, or other healthcare provider.
- Utility bills, shop receipts, bank statements and letters are NOT medical
  receipts: set is_medical_receipt to false and the other fields to null.

EXAMPLES:
Clinic receipt, Singapore, total S$150.00, patient John Doe, 15 March 2024:
{"date": "2024-03-15", "provider": "Dr Smith Family Clinic", "patient": "John Doe", "amount": 150.00, "currency": "SGD", "is_medical_receipt": true}

Electricity bill:
{"date": null, "provider": null, "patient": null, "amount": null, "currency": null, "is_medical_receipt": false}

Pharmacy receipt with an unreadable date:
{"date": null, "provider": "Guardian Pharmacy", "patient": "Jane Doe", "amount": 85.50, "currency": "SGD", "is_medical_receipt": true}

If a field is not visible or unclear, use null for that field. Never guess.

Return ONLY the JSON object, no other text.`

// BuildVerificationPrompt asks the model to ground each extracted value in
// literal text from the image and score it.
func BuildVerificationPrompt(rec entity.ReceiptRecord) string {
	var b strings.Builder
	b.WriteString("You previously read these values from this receipt image:\n\n")
	for _, f := range entity.AllFields {
		v, ok := rec.Value(f)
		if !ok {
			v = "null"
		}
		b.WriteString("- ")
		b.WriteString(string(f))
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteString("\n")
	}
	b.WriteString(`
For EACH field, find the exact text printed on the receipt that supports the value.
Return ONLY a JSON object of this shape:

{
  "date":     {"source_text": "text copied from the image, or null", "confidence": 0.0 to 1.0},
  "provider": {"source_text": "...", "confidence": 0.0 to 1.0},
  "patient":  {"source_text": "...", "confidence": 0.0 to 1.0},
  "amount":   {"source_text": "...", "confidence": 0.0 to 1.0},
  "currency": {"source_text": "...", "confidence": 0.0 to 1.0}
}

Rules:
- source_text must be copied literally from the image. Use null if you cannot find it.
- confidence is how sure you are that the value above matches the image.
- A null value with no supporting text gets confidence 0.

Return ONLY the JSON object, no other text.`)
	return b.String()
}
