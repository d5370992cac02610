// Package config loads and validates algoscope settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

// DirName is the per-project settings directory.
const DirName = ".algoscope"

// FileName is the settings file inside DirName.
const FileName = "config.toml"

// EnvPrefix prefixes environment overrides, e.g. ALGOSCOPE_SANDBOX_TIMEOUTSECONDS.
const EnvPrefix = "ALGOSCOPE"

// Timeout modes for the sandbox.
const (
	TimeoutModeInterrupt = "interrupt"
	TimeoutModeTimer     = "timer"
)

// Explainer providers.
const (
	ProviderTemplate = "template"
	ProviderOpenAI   = "openai"
)

// Config represents the complete algoscope configuration
type Config struct {
	Version int `toml:"version" json:"version" mapstructure:"version"`

	Sandbox    SandboxConfig    `toml:"sandbox" json:"sandbox" mapstructure:"sandbox"`
	Trace      TraceConfig      `toml:"trace" json:"trace" mapstructure:"trace"`
	Matcher    MatcherConfig    `toml:"matcher" json:"matcher" mapstructure:"matcher"`
	Classifier ClassifierConfig `toml:"classifier" json:"classifier" mapstructure:"classifier"`
	Explainer  ExplainerConfig  `toml:"explainer" json:"explainer" mapstructure:"explainer"`
	Logging    LoggingConfig    `toml:"logging" json:"logging" mapstructure:"logging"`
}

// SandboxConfig bounds a single sandboxed run
type SandboxConfig struct {
	TimeoutSeconds float64 `toml:"timeoutSeconds" json:"timeoutSeconds" mapstructure:"timeoutSeconds"`
	TimeoutMode    string  `toml:"timeoutMode" json:"timeoutMode" mapstructure:"timeoutMode"`
	MaxCallDepth   int     `toml:"maxCallDepth" json:"maxCallDepth" mapstructure:"maxCallDepth"`
}

// TraceConfig contains tracer limits
type TraceConfig struct {
	MaxSteps        int `toml:"maxSteps" json:"maxSteps" mapstructure:"maxSteps"`
	MinVisibleSteps int `toml:"minVisibleSteps" json:"minVisibleSteps" mapstructure:"minVisibleSteps"`
	SimpleStepCap   int `toml:"simpleStepCap" json:"simpleStepCap" mapstructure:"simpleStepCap"`
}

// MatcherConfig contains pattern orchestration settings
type MatcherConfig struct {
	ConfidenceThreshold float64 `toml:"confidenceThreshold" json:"confidenceThreshold" mapstructure:"confidenceThreshold"`
}

// ClassifierConfig points at the external statistical classifier. An empty endpoint disables it.
type ClassifierConfig struct {
	Endpoint  string `toml:"endpoint" json:"endpoint" mapstructure:"endpoint"`
	TimeoutMs int    `toml:"timeoutMs" json:"timeoutMs" mapstructure:"timeoutMs"`
}

// ExplainerConfig selects the step explanation backend
type ExplainerConfig struct {
	Provider          string  `toml:"provider" json:"provider" mapstructure:"provider"`
	Model             string  `toml:"model" json:"model" mapstructure:"model"`
	BaseURL           string  `toml:"baseURL" json:"baseURL" mapstructure:"baseURL"`
	APIKeyEnv         string  `toml:"apiKeyEnv" json:"apiKeyEnv" mapstructure:"apiKeyEnv"`
	TimeoutMs         int     `toml:"timeoutMs" json:"timeoutMs" mapstructure:"timeoutMs"`
	RequestsPerSecond float64 `toml:"requestsPerSecond" json:"requestsPerSecond" mapstructure:"requestsPerSecond"`
	CacheEntries      int64   `toml:"cacheEntries" json:"cacheEntries" mapstructure:"cacheEntries"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `toml:"format" json:"format" mapstructure:"format"`
	Level  string `toml:"level" json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Sandbox: SandboxConfig{
			TimeoutSeconds: 10,
			TimeoutMode:    TimeoutModeInterrupt,
			MaxCallDepth:   1000,
		},
		Trace: TraceConfig{
			MaxSteps:        10000,
			MinVisibleSteps: 10,
			SimpleStepCap:   20,
		},
		Matcher: MatcherConfig{
			ConfidenceThreshold: 0.7,
		},
		Classifier: ClassifierConfig{
			TimeoutMs: 3000,
		},
		Explainer: ExplainerConfig{
			Provider:          ProviderTemplate,
			Model:             "gpt-4o-mini",
			APIKeyEnv:         "OPENAI_API_KEY",
			TimeoutMs:         10000,
			RequestsPerSecond: 5,
			CacheEntries:      4096,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "warn",
		},
	}
}

// setDefaults mirrors DefaultConfig into viper so partial files and env overrides merge over it.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("version", d.Version)
	v.SetDefault("sandbox.timeoutSeconds", d.Sandbox.TimeoutSeconds)
	v.SetDefault("sandbox.timeoutMode", d.Sandbox.TimeoutMode)
	v.SetDefault("sandbox.maxCallDepth", d.Sandbox.MaxCallDepth)
	v.SetDefault("trace.maxSteps", d.Trace.MaxSteps)
	v.SetDefault("trace.minVisibleSteps", d.Trace.MinVisibleSteps)
	v.SetDefault("trace.simpleStepCap", d.Trace.SimpleStepCap)
	v.SetDefault("matcher.confidenceThreshold", d.Matcher.ConfidenceThreshold)
	v.SetDefault("classifier.endpoint", d.Classifier.Endpoint)
	v.SetDefault("classifier.timeoutMs", d.Classifier.TimeoutMs)
	v.SetDefault("explainer.provider", d.Explainer.Provider)
	v.SetDefault("explainer.model", d.Explainer.Model)
	v.SetDefault("explainer.baseURL", d.Explainer.BaseURL)
	v.SetDefault("explainer.apiKeyEnv", d.Explainer.APIKeyEnv)
	v.SetDefault("explainer.timeoutMs", d.Explainer.TimeoutMs)
	v.SetDefault("explainer.requestsPerSecond", d.Explainer.RequestsPerSecond)
	v.SetDefault("explainer.cacheEntries", d.Explainer.CacheEntries)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.level", d.Logging.Level)
}

// LoadConfig loads configuration from explicitPath, or from <root>/.algoscope/config.toml
// when explicitPath is empty. A missing project file yields the defaults. Environment
// variables prefixed with ALGOSCOPE_ override both.
func LoadConfig(root, explicitPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(filepath.Join(root, DirName))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || explicitPath != "" {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the configuration to <root>/.algoscope/config.toml
func (c *Config) Save(root string) (string, error) {
	dir := filepath.Join(root, DirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName)
	return path, os.WriteFile(path, data, 0o644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != 1 {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if c.Sandbox.TimeoutSeconds <= 0 {
		return &ConfigError{Field: "sandbox.timeoutSeconds", Message: "must be positive"}
	}
	if c.Sandbox.TimeoutMode != TimeoutModeInterrupt && c.Sandbox.TimeoutMode != TimeoutModeTimer {
		return &ConfigError{Field: "sandbox.timeoutMode", Message: "must be interrupt or timer"}
	}
	if c.Sandbox.MaxCallDepth < 1 {
		return &ConfigError{Field: "sandbox.maxCallDepth", Message: "must be at least 1"}
	}
	if c.Trace.MaxSteps < 1 {
		return &ConfigError{Field: "trace.maxSteps", Message: "must be at least 1"}
	}
	if c.Trace.MinVisibleSteps < 0 {
		return &ConfigError{Field: "trace.minVisibleSteps", Message: "must not be negative"}
	}
	if c.Trace.SimpleStepCap < 1 {
		return &ConfigError{Field: "trace.simpleStepCap", Message: "must be at least 1"}
	}
	if c.Matcher.ConfidenceThreshold < 0 || c.Matcher.ConfidenceThreshold > 1 {
		return &ConfigError{Field: "matcher.confidenceThreshold", Message: "must be within [0, 1]"}
	}
	switch c.Explainer.Provider {
	case ProviderTemplate:
	case ProviderOpenAI:
		if c.Explainer.Model == "" {
			return &ConfigError{Field: "explainer.model", Message: "required for the openai provider"}
		}
	default:
		return &ConfigError{Field: "explainer.provider", Message: "must be template or openai"}
	}
	if c.Explainer.RequestsPerSecond < 0 {
		return &ConfigError{Field: "explainer.requestsPerSecond", Message: "must not be negative"}
	}
	if c.Explainer.CacheEntries < 0 {
		return &ConfigError{Field: "explainer.cacheEntries", Message: "must not be negative"}
	}
	return nil
}

// SandboxTimeout returns the run budget as a duration
func (c *Config) SandboxTimeout() time.Duration {
	return time.Duration(c.Sandbox.TimeoutSeconds * float64(time.Second))
}

// ClassifierTimeout returns the classifier request budget
func (c *Config) ClassifierTimeout() time.Duration {
	return time.Duration(c.Classifier.TimeoutMs) * time.Millisecond
}

// ExplainerTimeout returns the explainer request budget
func (c *Config) ExplainerTimeout() time.Duration {
	return time.Duration(c.Explainer.TimeoutMs) * time.Millisecond
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
