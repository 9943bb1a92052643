// Package naming builds the canonical receipt filename.
package naming

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/receipt-renamer/constants"
	"github.com/joseph-ayodele/receipt-renamer/internal/entity"
)

const (
	PlaceholderReview  = "REVIEW"
	PlaceholderUnknown = "UNKNOWN"

	MaxFieldLength = 30
)

var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Compose returns DATE_PROVIDER_PATIENT_AMOUNT plus the lower-cased extension.
// It is total: every record yields a name, and the name is always a single
// path element.
func Compose(rec entity.ReceiptRecord, ext, baseCurrency string) string {
	return Stem(rec, baseCurrency) + Extension(ext)
}

// Stem is Compose without the extension.
func Stem(rec entity.ReceiptRecord, baseCurrency string) string {
	date := PlaceholderReview
	if rec.Date != nil && isoDate.MatchString(*rec.Date) {
		date = *rec.Date
	}

	currency := baseCurrency
	if rec.Currency != nil {
		currency = *rec.Currency
	}

	return strings.Join([]string{
		date,
		Sanitize(deref(rec.Provider)),
		Sanitize(deref(rec.Patient)),
		FormatAmount(rec.Amount, currency),
	}, "_")
}

// Sanitize keeps letters, digits and whitespace, capitalizes each word and
// joins them: "Dr. Smith's Clinic!" becomes "DrSmithsClinic". Results are
// cut to MaxFieldLength runes; an empty result is UNKNOWN.
func Sanitize(text string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return r
		case unicode.IsSpace(r), r == '_':
			return ' '
		}
		return -1
	}, text)

	var b strings.Builder
	for _, word := range strings.Fields(cleaned) {
		b.WriteString(capitalize(word))
	}
	out := truncateRunes(b.String(), MaxFieldLength)
	if out == "" {
		return PlaceholderUnknown
	}
	return out
}

// FormatAmount renders SGD150 for whole amounts and SGD85.50 otherwise.
func FormatAmount(amount *decimal.Decimal, currency string) string {
	if amount == nil {
		return PlaceholderUnknown
	}
	code := strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r
		}
		return -1
	}, strings.ToUpper(currency))

	if amount.Equal(amount.Truncate(0)) {
		return code + amount.Truncate(0).String()
	}
	return code + amount.StringFixed(2)
}

// Extension lower-cases ext and keeps only letters and digits after the dot.
func Extension(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	ext = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, ext)
	if ext == "" {
		return ""
	}
	return "." + ext
}

// FromUserInput sanitizes an operator-typed filename. The file keeps its
// original extension; a typed receipt extension is dropped. Each
// underscore-separated part is cleaned on its own. Returns "" when nothing
// usable is left.
func FromUserInput(input, originalExt string) string {
	stem := strings.TrimSpace(input)
	if i := strings.LastIndex(stem, "."); i > 0 && constants.IsSupportedExt(stem[i:]) {
		stem = stem[:i]
	}

	var parts []string
	for _, p := range strings.Split(stem, "_") {
		if isoDate.MatchString(p) {
			parts = append(parts, p)
			continue
		}
		if s := sanitizeKeepDots(p); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "_") + Extension(originalExt)
}

// sanitizeKeepDots is Sanitize for free-form parts like "SGD85.50" where the
// decimal point must survive but spaces and separators must not.
func sanitizeKeepDots(part string) string {
	out := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' {
			return r
		}
		return -1
	}, part)
	out = strings.Trim(out, ".")
	for strings.Contains(out, "..") {
		out = strings.ReplaceAll(out, "..", ".")
	}
	return out
}

func capitalize(word string) string {
	r, size := utf8.DecodeRuneInString(word)
	return string(unicode.ToUpper(r)) + strings.ToLower(word[size:])
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
