package constants

import (
	"strings"
)

// DefaultBaseCurrency is used when a receipt shows no currency at all.
const DefaultBaseCurrency = "USD"

// currencySymbols maps what vision models sometimes return instead of an ISO code.
var currencySymbols = map[string]string{
	"s$":  "SGD",
	"sg$": "SGD",
	"rm":  "MYR",
	"€":   "EUR",
	"£":   "GBP",
	"¥":   "JPY",
	"a$":  "AUD",
	"hk$": "HKD",
	"₹":   "INR",
	"$":   "USD",
	"us$": "USD",
}

// CanonicalizeCurrency maps a symbol or loosely formatted code to an upper-case
// ISO 4217 code. The second return is false when nothing sensible was found.
func CanonicalizeCurrency(input string) (string, bool) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", false
	}
	if code, ok := currencySymbols[strings.ToLower(s)]; ok {
		return code, true
	}

	s = strings.ToUpper(s)
	if len(s) != 3 {
		return "", false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return "", false
		}
	}
	return s, true
}
