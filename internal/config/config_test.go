package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != 1 {
		t.Errorf("Version = %d, want 1", cfg.Version)
	}
	if cfg.Sandbox.TimeoutSeconds != 10 {
		t.Errorf("Sandbox.TimeoutSeconds = %v, want 10", cfg.Sandbox.TimeoutSeconds)
	}
	if cfg.Sandbox.TimeoutMode != TimeoutModeInterrupt {
		t.Errorf("Sandbox.TimeoutMode = %q, want %q", cfg.Sandbox.TimeoutMode, TimeoutModeInterrupt)
	}
	if cfg.Sandbox.MaxCallDepth != 1000 {
		t.Errorf("Sandbox.MaxCallDepth = %d, want 1000", cfg.Sandbox.MaxCallDepth)
	}
	if cfg.Trace.MinVisibleSteps != 10 {
		t.Errorf("Trace.MinVisibleSteps = %d, want 10", cfg.Trace.MinVisibleSteps)
	}
	if cfg.Trace.SimpleStepCap != 20 {
		t.Errorf("Trace.SimpleStepCap = %d, want 20", cfg.Trace.SimpleStepCap)
	}
	if cfg.Matcher.ConfidenceThreshold != 0.7 {
		t.Errorf("Matcher.ConfidenceThreshold = %v, want 0.7", cfg.Matcher.ConfidenceThreshold)
	}
	if cfg.Classifier.Endpoint != "" {
		t.Error("classifier should be disabled by default")
	}
	if cfg.Explainer.Provider != ProviderTemplate {
		t.Errorf("Explainer.Provider = %q, want %q", cfg.Explainer.Provider, ProviderTemplate)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad version", func(c *Config) { c.Version = 7 }, "version"},
		{"zero timeout", func(c *Config) { c.Sandbox.TimeoutSeconds = 0 }, "sandbox.timeoutSeconds"},
		{"bad mode", func(c *Config) { c.Sandbox.TimeoutMode = "signal" }, "sandbox.timeoutMode"},
		{"timer mode", func(c *Config) { c.Sandbox.TimeoutMode = TimeoutModeTimer }, ""},
		{"depth", func(c *Config) { c.Sandbox.MaxCallDepth = 0 }, "sandbox.maxCallDepth"},
		{"max steps", func(c *Config) { c.Trace.MaxSteps = 0 }, "trace.maxSteps"},
		{"simple cap", func(c *Config) { c.Trace.SimpleStepCap = 0 }, "trace.simpleStepCap"},
		{"threshold", func(c *Config) { c.Matcher.ConfidenceThreshold = 1.5 }, "matcher.confidenceThreshold"},
		{"provider", func(c *Config) { c.Explainer.Provider = "magic" }, "explainer.provider"},
		{"openai without model", func(c *Config) {
			c.Explainer.Provider = ProviderOpenAI
			c.Explainer.Model = ""
		}, "explainer.model"},
		{"openai", func(c *Config) { c.Explainer.Provider = ProviderOpenAI }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Validate() = %v, want *ConfigError", err)
			}
			if cfgErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.wantField)
			}
		})
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir(), "")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Trace.MaxSteps != 10000 {
		t.Errorf("Trace.MaxSteps = %d, want 10000", cfg.Trace.MaxSteps)
	}
	if cfg.Explainer.CacheEntries != 4096 {
		t.Errorf("Explainer.CacheEntries = %d, want 4096", cfg.Explainer.CacheEntries)
	}
}

func TestLoadConfig_PartialFile(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, DirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	content := `version = 1

[sandbox]
timeoutSeconds = 2.5
timeoutMode = "timer"

[explainer]
provider = "openai"
baseURL = "http://localhost:11434/v1"
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(root, "")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.SandboxTimeout() != 2500*time.Millisecond {
		t.Errorf("SandboxTimeout() = %v, want 2.5s", cfg.SandboxTimeout())
	}
	if cfg.Sandbox.TimeoutMode != TimeoutModeTimer {
		t.Errorf("TimeoutMode = %q, want timer", cfg.Sandbox.TimeoutMode)
	}
	if cfg.Sandbox.MaxCallDepth != 1000 {
		t.Errorf("MaxCallDepth = %d, want default 1000", cfg.Sandbox.MaxCallDepth)
	}
	if cfg.Explainer.BaseURL != "http://localhost:11434/v1" {
		t.Errorf("BaseURL = %q", cfg.Explainer.BaseURL)
	}
	if cfg.Explainer.Model != "gpt-4o-mini" {
		t.Errorf("Model = %q, want default", cfg.Explainer.Model)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("ALGOSCOPE_TRACE_MAXSTEPS", "50")

	cfg, err := LoadConfig(t.TempDir(), "")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Trace.MaxSteps != 50 {
		t.Errorf("Trace.MaxSteps = %d, want 50", cfg.Trace.MaxSteps)
	}
}

func TestLoadConfig_ExplicitMissingFile(t *testing.T) {
	if _, err := LoadConfig(t.TempDir(), filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("expected error for a missing explicit config file")
	}
}

func TestLoadConfig_InvalidValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")
	if err := os.WriteFile(path, []byte("version = 1\n[matcher]\nconfidenceThreshold = 3.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadConfig(t.TempDir(), path)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("LoadConfig() error = %v, want *ConfigError", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	root := t.TempDir()
	cfg := DefaultConfig()
	cfg.Trace.MaxSteps = 321
	cfg.Logging.Level = "debug"

	path, err := cfg.Save(root)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if filepath.Base(path) != FileName {
		t.Errorf("Save() path = %q", path)
	}

	loaded, err := LoadConfig(root, "")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if loaded.Trace.MaxSteps != 321 {
		t.Errorf("Trace.MaxSteps = %d, want 321", loaded.Trace.MaxSteps)
	}
	if loaded.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", loaded.Logging.Level)
	}
}

func TestConfigError_Error(t *testing.T) {
	err := &ConfigError{Field: "trace.maxSteps", Message: "must be at least 1"}
	want := "config error in field 'trace.maxSteps': must be at least 1"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
