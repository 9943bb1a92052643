// Package ollama talks to a local Ollama runtime over its native HTTP API.
package ollama

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/joseph-ayodele/receipt-renamer/internal/common"
	"github.com/joseph-ayodele/receipt-renamer/internal/llm"
)

const DefaultHost = "http://localhost:11434"

// Config holds the connection settings.
type Config struct {
	Host        string
	Temperature float64
	Timeout     time.Duration
}

// Client implements llm.VisionModel against /api/chat.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

var _ llm.VisionModel = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client; its timeout wins over Config.Timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient builds a client. Zero config values fall back to defaults.
func NewClient(cfg Config, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	cfg.Host = strings.TrimRight(cfg.Host, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	c := &Client{cfg: cfg, logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: cfg.Timeout}
	}
	return c
}

type chatMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Format   any            `json:"format,omitempty"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Error string `json:"error"`
}

// Chat sends one user turn with images and returns the reply text.
func (c *Client) Chat(ctx context.Context, req llm.VisionRequest) (string, error) {
	images := make([]string, 0, len(req.Images))
	for _, img := range req.Images {
		images = append(images, base64.StdEncoding.EncodeToString(img))
	}
	body := chatRequest{
		Model: req.Model,
		Messages: []chatMessage{{
			Role:    "user",
			Content: req.Prompt,
			Images:  images,
		}},
		Stream:  false,
		Options: map[string]any{"temperature": c.cfg.Temperature},
	}
	if req.Format != nil {
		body.Format = req.Format
	}

	start := time.Now()
	raw, _, err := llm.SendJSON(ctx, c.http, c.cfg.Host+"/api/chat", body, nil, c.logger)
	if err != nil {
		return "", c.describe(err)
	}

	var resp chatResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if resp.Error != "" {
		return "", fmt.Errorf("ollama: %s", resp.Error)
	}
	c.logger.Debug("ollama.chat.ok",
		"model", req.Model,
		"images", len(images),
		"reply_chars", len(resp.Message.Content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return resp.Message.Content, nil
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// ListModels returns the names of locally pulled models.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	raw, _, err := llm.GetJSON(ctx, c.http, c.cfg.Host+"/api/tags", c.logger)
	if err != nil {
		return nil, c.describe(err)
	}
	var resp tagsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode tags response: %w", err)
	}
	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// CheckAvailable verifies the runtime answers and has the model pulled.
// "qwen2.5vl" matches "qwen2.5vl:7b".
func (c *Client) CheckAvailable(ctx context.Context, model string) error {
	names, err := c.ListModels(ctx)
	if err != nil {
		return common.NewAppError(common.CodeModelUnavailable,
			fmt.Sprintf("cannot connect to Ollama at %s. Make sure Ollama is running: ollama serve", c.cfg.Host),
			err)
	}
	for _, n := range names {
		if strings.Contains(n, model) {
			return nil
		}
	}
	return common.NewAppError(common.CodeModelUnavailable,
		fmt.Sprintf("model '%s' not found. Run: ollama pull %s", model, model), nil)
}

// describe pulls Ollama's {"error": "..."} body into the message when present.
func (c *Client) describe(err error) error {
	var se *llm.StatusError
	if !errors.As(err, &se) {
		return err
	}
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(se.Body, &body) == nil && body.Error != "" {
		return fmt.Errorf("ollama: status %d: %s", se.Status, body.Error)
	}
	return err
}
