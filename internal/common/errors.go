package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches the sentinel registered for the error's code, so callers can
// write errors.Is(err, ErrDecode) while Cause still carries the underlying error.
func (e *AppError) Is(target error) bool {
	sentinel, ok := sentinelByCode[e.Code]
	return ok && sentinel == target
}

// Stable error codes, also written to the run report.
const (
	CodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	CodeDecode            = "DECODE_ERROR"
	CodeExtractionCall    = "EXTRACTION_CALL_ERROR"
	CodeExtractionParse   = "EXTRACTION_PARSE_ERROR"
	CodeVerificationCall  = "VERIFICATION_CALL_ERROR"
	CodeConflictExhausted = "CONFLICT_RESOLUTION_EXHAUSTED"
	CodePathTraversal     = "PATH_TRAVERSAL_REJECTED"
	CodeConfig            = "CONFIG_ERROR"
	CodeModelUnavailable  = "MODEL_UNAVAILABLE"
	CodeRenameFailed      = "RENAME_FAILED"
	CodeReviewInputFailed = "REVIEW_INPUT_ERROR"
)

// Common application errors
var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrDecode            = errors.New("decode failed")
	ErrExtractionCall    = errors.New("extraction call failed")
	ErrExtractionParse   = errors.New("extraction response could not be parsed")
	ErrVerificationCall  = errors.New("verification call failed")
	ErrConflictExhausted = errors.New("conflict resolution exhausted")
	ErrPathTraversal     = errors.New("path traversal rejected")
	ErrConfiguration     = errors.New("invalid configuration")
	ErrModelUnavailable  = errors.New("model unavailable")
	ErrRenameFailed      = errors.New("rename failed")
	ErrReviewInput       = errors.New("review input failed")
)

var sentinelByCode = map[string]error{
	CodeUnsupportedFormat: ErrUnsupportedFormat,
	CodeDecode:            ErrDecode,
	CodeExtractionCall:    ErrExtractionCall,
	CodeExtractionParse:   ErrExtractionParse,
	CodeVerificationCall:  ErrVerificationCall,
	CodeConflictExhausted: ErrConflictExhausted,
	CodePathTraversal:     ErrPathTraversal,
	CodeConfig:            ErrConfiguration,
	CodeModelUnavailable:  ErrModelUnavailable,
	CodeRenameFailed:      ErrRenameFailed,
	CodeReviewInputFailed: ErrReviewInput,
}

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func NewUnsupportedFormatError(path, ext string) *AppError {
	return NewAppError(CodeUnsupportedFormat, fmt.Sprintf("%s: extension %q is not supported", path, ext), nil)
}

func NewDecodeError(path string, cause error) *AppError {
	return NewAppError(CodeDecode, "decode "+path, cause)
}

func NewExtractionCallError(cause error) *AppError {
	return NewAppError(CodeExtractionCall, "vision model call failed", cause)
}

func NewExtractionParseError(message string, cause error) *AppError {
	return NewAppError(CodeExtractionParse, message, cause)
}

func NewVerificationCallError(cause error) *AppError {
	return NewAppError(CodeVerificationCall, "verification call failed", cause)
}

func NewConflictExhaustedError(name string, attempts int) *AppError {
	return NewAppError(CodeConflictExhausted, fmt.Sprintf("no free name for %q after %d attempts", name, attempts), nil)
}

func NewPathTraversalError(name string) *AppError {
	return NewAppError(CodePathTraversal, fmt.Sprintf("destination %q leaves the source directory", name), nil)
}

func NewConfigError(message string) *AppError {
	return NewAppError(CodeConfig, message, nil)
}

// Kind returns the AppError code in err's chain, or "" for foreign errors.
func Kind(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
