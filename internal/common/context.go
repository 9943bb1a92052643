package common

import (
	"context"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRequestID contextKey = "request_id"
	ContextKeyFilePath  contextKey = "file_path"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// WithFilePath records which input file a call is working on, for log correlation.
func WithFilePath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, ContextKeyFilePath, path)
}

// FilePathFromContext extracts the input file path from context
func FilePathFromContext(ctx context.Context) string {
	if path, ok := ctx.Value(ContextKeyFilePath).(string); ok {
		return path
	}
	return ""
}
