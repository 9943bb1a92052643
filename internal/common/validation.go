package common

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidInput = errors.New("invalid input")

	currencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)
	isoDateRegex  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// ValidationError represents validation failures
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s", e.Field, e.Value, e.Message)
}

// Validator provides validation utilities
type Validator struct {
	errors []ValidationError
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		errors: make([]ValidationError, 0),
	}
}

// Field validates a field and collects errors
func (v *Validator) Field(fieldName string, value interface{}, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if err := rule(fieldName, value); err != nil {
			v.errors = append(v.errors, *err)
		}
	}
	return v
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// FieldFailed reports whether any rule failed for fieldName.
func (v *Validator) FieldFailed(fieldName string) bool {
	for _, err := range v.errors {
		if err.Field == fieldName {
			return true
		}
	}
	return false
}

// Error returns a combined error message
func (v *Validator) Error() error {
	if !v.HasErrors() {
		return nil
	}
	return errors.New(v.ErrorMessage())
}

// ErrorMessage returns a combined error message as string
func (v *Validator) ErrorMessage() string {
	if !v.HasErrors() {
		return ""
	}

	var messages []string
	for _, err := range v.errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// ValidationRule represents a single validation rule
type ValidationRule func(fieldName string, value interface{}) *ValidationError

// MaxLength returns a rule rejecting strings longer than max runes.
func MaxLength(max int) ValidationRule {
	return func(fieldName string, value interface{}) *ValidationError {
		str, ok := stringValue(value)
		if !ok {
			return nil
		}
		if utf8.RuneCountInString(str) > max {
			return &ValidationError{
				Field:   fieldName,
				Value:   value,
				Message: fmt.Sprintf("must be at most %d characters", max),
			}
		}
		return nil
	}
}

func CurrencyCode(fieldName string, value interface{}) *ValidationError {
	str, ok := stringValue(value)
	if !ok {
		return nil
	}

	// ISO 4217 currency codes are 3 letters
	if !currencyRegex.MatchString(str) {
		return &ValidationError{
			Field:   fieldName,
			Value:   value,
			Message: "must be 3 uppercase letters (ISO 4217)",
		}
	}
	return nil
}

// ISODate accepts YYYY-MM-DD strings naming a real calendar day.
func ISODate(fieldName string, value interface{}) *ValidationError {
	str, ok := stringValue(value)
	if !ok {
		return nil
	}
	if !isoDateRegex.MatchString(str) {
		return &ValidationError{Field: fieldName, Value: value, Message: "must be YYYY-MM-DD"}
	}
	if _, err := time.Parse(time.DateOnly, str); err != nil {
		return &ValidationError{Field: fieldName, Value: value, Message: "is not a calendar date"}
	}
	return nil
}

// NonNegativeAmount rejects negative decimal amounts.
func NonNegativeAmount(fieldName string, value interface{}) *ValidationError {
	var d decimal.Decimal
	switch v := value.(type) {
	case decimal.Decimal:
		d = v
	case *decimal.Decimal:
		if v == nil {
			return nil
		}
		d = *v
	default:
		return nil
	}
	if d.IsNegative() {
		return &ValidationError{Field: fieldName, Value: d.String(), Message: "must not be negative"}
	}
	return nil
}

// stringValue unwraps string and *string; nil pointers count as "absent" and skip the rule.
func stringValue(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case *string:
		if v == nil {
			return "", false
		}
		return *v, true
	}
	return "", false
}
