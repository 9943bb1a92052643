package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration
type Config struct {
	Model   ModelConfig   `toml:"model"`
	Raster  RasterConfig  `toml:"raster"`
	Routing RoutingConfig `toml:"routing"`
	Run     RunConfig     `toml:"run"`
	Report  ReportConfig  `toml:"report"`
}

// ModelConfig holds vision-model related configuration
type ModelConfig struct {
	Host           string  `toml:"host"`
	Name           string  `toml:"name"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	Temperature    float64 `toml:"temperature"`
}

// RasterConfig holds image normalization configuration
type RasterConfig struct {
	DPI                int     `toml:"dpi"`
	Pdftoppm           string  `toml:"pdftoppm"`
	PageLongEdgeInches float64 `toml:"page_long_edge_inches"`
}

// RoutingConfig holds verification and confidence routing configuration
type RoutingConfig struct {
	Verify         bool    `toml:"verify"`
	VerifyOptional bool    `toml:"verify_optional"`
	AutoApprove    float64 `toml:"auto_approve"`
	SoftReview     float64 `toml:"soft_review"`
	BaseCurrency   string  `toml:"base_currency"`
}

// RunConfig holds per-invocation behaviour. Most of it comes from CLI flags.
type RunConfig struct {
	DryRun     bool `toml:"dry_run"`
	Verbose    bool `toml:"verbose"`
	Yes        bool `toml:"yes"`
	Confirm    bool `toml:"confirm"`
	Workers    int  `toml:"workers"`
	Recursive  bool `toml:"recursive"`
	SkipHidden bool `toml:"skip_hidden"`

	// WorkersSet records that -w was given explicitly on the command line.
	WorkersSet bool `toml:"-"`
}

// ReportConfig holds run report configuration
type ReportConfig struct {
	Path string `toml:"path"`
}

// PromptPolicy says when the operator is asked before a rename.
type PromptPolicy int

const (
	// PromptEvery asks before every rename (default sequential mode).
	PromptEvery PromptPolicy = iota
	// PromptGated asks only when routing flags the record (--confirm).
	PromptGated
	// PromptNever never asks (-y).
	PromptNever
)

// DefaultConfig returns the configuration used when nothing else is set.
func DefaultConfig() Config {
	return Config{
		Model: ModelConfig{
			Host:           "http://localhost:11434",
			Name:           "qwen2.5vl:7b",
			TimeoutSeconds: 120,
			Temperature:    0,
		},
		Raster: RasterConfig{
			DPI:                400,
			Pdftoppm:           "pdftoppm",
			PageLongEdgeInches: 11.69,
		},
		Routing: RoutingConfig{
			Verify:         true,
			VerifyOptional: true,
			AutoApprove:    0.9,
			SoftReview:     0.7,
			BaseCurrency:   "USD",
		},
		Run: RunConfig{
			Workers:    4,
			SkipHidden: true,
		},
	}
}

// LoadConfig builds the configuration from defaults, an optional TOML file and
// environment variables, in that order. An empty path falls back to
// RECEIPT_RENAMER_CONFIG; a missing file is only an error when set explicitly.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = getEnv("RECEIPT_RENAMER_CONFIG", "")
	}
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, NewAppError(CodeConfig, "parse config "+path, err)
		}
	}

	cfg.Model.Host = getEnv("OLLAMA_HOST", cfg.Model.Host)
	cfg.Model.Name = getEnv("RECEIPT_MODEL", cfg.Model.Name)
	cfg.Model.TimeoutSeconds = int(getEnvAsDuration("OLLAMA_TIMEOUT", time.Duration(cfg.Model.TimeoutSeconds)*time.Second) / time.Second)
	cfg.Raster.DPI = getEnvAsInt("RECEIPT_DPI", cfg.Raster.DPI)
	cfg.Raster.Pdftoppm = getEnv("PDFTOPPM", cfg.Raster.Pdftoppm)
	cfg.Run.Workers = getEnvAsInt("RECEIPT_WORKERS", cfg.Run.Workers)
	cfg.Routing.BaseCurrency = getEnv("RECEIPT_BASE_CURRENCY", cfg.Routing.BaseCurrency)

	cfg.normalize()
	return &cfg, nil
}

func (c *Config) normalize() {
	c.Model.Host = strings.TrimRight(strings.TrimSpace(c.Model.Host), "/")
	if c.Model.Host != "" && !strings.Contains(c.Model.Host, "://") {
		// OLLAMA_HOST is commonly exported as host:port
		c.Model.Host = "http://" + c.Model.Host
	}
	c.Model.Name = strings.TrimSpace(c.Model.Name)
	c.Routing.BaseCurrency = strings.ToUpper(strings.TrimSpace(c.Routing.BaseCurrency))
}

// ModelTimeout returns the transport timeout for one model call.
func (c *Config) ModelTimeout() time.Duration {
	return time.Duration(c.Model.TimeoutSeconds) * time.Second
}

// Parallel reports whether files are processed by the worker pool.
func (c *Config) Parallel() bool {
	return c.Run.Yes
}

// Prompt returns when the operator is asked for confirmation.
func (c *Config) Prompt() PromptPolicy {
	switch {
	case c.Run.Yes:
		return PromptNever
	case c.Run.Confirm:
		return PromptGated
	default:
		return PromptEvery
	}
}

// EffectiveWorkers is the pool size actually used. Interactive runs are always sequential.
func (c *Config) EffectiveWorkers() int {
	if !c.Parallel() {
		return 1
	}
	return c.Run.Workers
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate checks the assembled configuration. All failures are ConfigurationErrors.
func (c *Config) Validate() error {
	if c.Model.Name == "" {
		return NewConfigError("model name is required")
	}
	if c.Model.Host == "" {
		return NewConfigError("ollama host is required")
	}
	if c.Model.TimeoutSeconds <= 0 {
		return NewConfigError("model timeout must be positive")
	}
	if c.Raster.DPI < 72 || c.Raster.DPI > 1200 {
		return NewConfigError(fmt.Sprintf("dpi must be between 72 and 1200, got %d", c.Raster.DPI))
	}
	if c.Raster.PageLongEdgeInches <= 0 {
		return NewConfigError("page_long_edge_inches must be positive")
	}
	if err := c.validateRouting(); err != nil {
		return err
	}
	return c.validateRun()
}

func (c *Config) validateRouting() error {
	r := c.Routing
	if r.AutoApprove < 0 || r.AutoApprove > 1 || r.SoftReview < 0 || r.SoftReview > 1 {
		return NewConfigError("confidence thresholds must be within [0, 1]")
	}
	if r.SoftReview > r.AutoApprove {
		return NewConfigError("soft_review threshold must not exceed auto_approve")
	}
	v := NewValidator().Field("base_currency", r.BaseCurrency, CurrencyCode)
	if v.HasErrors() {
		return NewAppError(CodeConfig, v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}

func (c *Config) validateRun() error {
	run := c.Run
	if run.Workers < 1 {
		return NewConfigError("workers must be at least 1")
	}
	if run.WorkersSet && !run.Yes {
		return NewConfigError("-w/--workers requires -y/--yes: parallel workers cannot prompt interactively")
	}
	if run.Yes && run.Confirm {
		return NewConfigError("--confirm cannot be combined with -y/--yes: interactive review needs sequential processing")
	}
	return nil
}
