package common

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
	if cfg.Model.Name != "qwen2.5vl:7b" {
		t.Fatalf("unexpected default model %q", cfg.Model.Name)
	}
	if cfg.Raster.DPI != 400 {
		t.Fatalf("unexpected default dpi %d", cfg.Raster.DPI)
	}
	if cfg.Run.Workers != 4 {
		t.Fatalf("unexpected default workers %d", cfg.Run.Workers)
	}
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "renamer.toml")
	content := `
[model]
name = "llava:13b"
timeout_seconds = 30

[raster]
dpi = 300

[routing]
auto_approve = 0.95
soft_review = 0.6
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("RECEIPT_DPI", "200")
	t.Setenv("OLLAMA_HOST", "127.0.0.1:11500")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Model.Name != "llava:13b" {
		t.Fatalf("expected model from file, got %q", cfg.Model.Name)
	}
	if cfg.ModelTimeout() != 30*time.Second {
		t.Fatalf("expected 30s timeout, got %v", cfg.ModelTimeout())
	}
	if cfg.Raster.DPI != 200 {
		t.Fatalf("expected env to override dpi, got %d", cfg.Raster.DPI)
	}
	if cfg.Model.Host != "http://127.0.0.1:11500" {
		t.Fatalf("expected scheme added to host, got %q", cfg.Model.Host)
	}
	if cfg.Routing.AutoApprove != 0.95 || cfg.Routing.SoftReview != 0.6 {
		t.Fatalf("unexpected thresholds %+v", cfg.Routing)
	}
	if cfg.Routing.BaseCurrency != "USD" {
		t.Fatalf("expected default base currency kept, got %q", cfg.Routing.BaseCurrency)
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[model]\nnmae = \"typo\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, err := LoadConfig(path)
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidateRunModes(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "sequential default", mutate: func(*Config) {}},
		{name: "parallel with workers", mutate: func(c *Config) { c.Run.Yes = true; c.Run.Workers = 8; c.Run.WorkersSet = true }},
		{name: "workers without yes", mutate: func(c *Config) { c.Run.Workers = 8; c.Run.WorkersSet = true }, wantErr: true},
		{name: "yes with confirm", mutate: func(c *Config) { c.Run.Yes = true; c.Run.Confirm = true }, wantErr: true},
		{name: "zero workers", mutate: func(c *Config) { c.Run.Yes = true; c.Run.Workers = 0 }, wantErr: true},
		{name: "dpi too low", mutate: func(c *Config) { c.Raster.DPI = 10 }, wantErr: true},
		{name: "thresholds inverted", mutate: func(c *Config) { c.Routing.SoftReview = 0.95 }, wantErr: true},
		{name: "bad base currency", mutate: func(c *Config) { c.Routing.BaseCurrency = "dollars" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrConfiguration) {
					t.Fatalf("expected ConfigurationError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestPromptPolicyAndWorkers(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Prompt() != PromptEvery || cfg.EffectiveWorkers() != 1 {
		t.Fatalf("default should prompt every file sequentially, got policy=%v workers=%d", cfg.Prompt(), cfg.EffectiveWorkers())
	}

	cfg.Run.Confirm = true
	if cfg.Prompt() != PromptGated {
		t.Fatalf("--confirm should gate prompts, got %v", cfg.Prompt())
	}

	cfg.Run.Confirm = false
	cfg.Run.Yes = true
	if cfg.Prompt() != PromptNever || cfg.EffectiveWorkers() != 4 {
		t.Fatalf("-y should run 4 workers without prompts, got policy=%v workers=%d", cfg.Prompt(), cfg.EffectiveWorkers())
	}
}
