package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/receipt-renamer/internal/common"
)

// StatusError is returned for non-2xx responses. Body holds the raw reply.
type StatusError struct {
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("non-2xx status: %d", e.Status)
}

// SendJSON posts a JSON body to a full URL and returns the raw response body.
// It does not assume any provider; callers decide the URL and headers.
func SendJSON(ctx context.Context, client *http.Client, url string, body any, headers map[string]string, logger *slog.Logger) ([]byte, int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	reqID := uuid.New().String()

	bs, err := json.Marshal(body)
	if err != nil {
		logger.Error("llm.http.encode_error", "req_id", reqID, "error", err)
		return nil, 0, fmt.Errorf("encode json: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bs))
	if err != nil {
		logger.Error("llm.http.build_request_error", "req_id", reqID, "error", err)
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return do(client, req, reqID, len(bs), logger)
}

// GetJSON issues a GET and returns the raw response body.
func GetJSON(ctx context.Context, client *http.Client, url string, logger *slog.Logger) ([]byte, int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	reqID := uuid.New().String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		logger.Error("llm.http.build_request_error", "req_id", reqID, "error", err)
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return do(client, req, reqID, 0, logger)
}

func do(client *http.Client, req *http.Request, reqID string, contentLength int, logger *slog.Logger) ([]byte, int, error) {
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	start := time.Now()

	logger.Debug("llm.http.request",
		"req_id", reqID,
		"file", common.FilePathFromContext(req.Context()),
		"method", req.Method,
		"url", req.URL.String(),
		"content_length", contentLength,
	)

	resp, err := client.Do(req)
	if err != nil {
		logger.Debug("llm.http.send_error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, 0, err
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			logger.Warn("llm.http.response_body_close_error", "req_id", reqID, "error", err)
		}
	}(resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}

	logger.Debug("llm.http.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return raw, resp.StatusCode, &StatusError{Status: resp.StatusCode, Body: raw}
	}
	return raw, resp.StatusCode, nil
}
