// Package config provides configuration types, defaults, and persistence for
// stupidea.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zjrosen/stupidea/internal/gateway"
	"github.com/zjrosen/stupidea/internal/highlight"
	"github.com/zjrosen/stupidea/internal/log"
)

// ErrMissingAPIKey is returned when no API credential is set.
var ErrMissingAPIKey = errors.New("API key is not set")

// FallbackAPIKeyEnv is consulted when the configured variable is empty.
const FallbackAPIKeyEnv = "API_KEY"

// Lower bounds accepted by the settings form.
const (
	MinShortDelay     = 100 * time.Millisecond
	MinLongDelay      = time.Second
	MinRateLimitDelay = 200 * time.Millisecond
)

// Config holds all configuration options for stupidea.
type Config struct {
	APIKeyEnv string          `mapstructure:"api_key_env"`
	File      string          `mapstructure:"file"`
	Watch     bool            `mapstructure:"watch"`
	Highlight HighlightConfig `mapstructure:"highlight"`
	Compile   CompileConfig   `mapstructure:"compile"`
	Sandbox   SandboxConfig   `mapstructure:"sandbox"`
	History   HistoryConfig   `mapstructure:"history"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	UI        UIConfig        `mapstructure:"ui"`
}

// CacheConfig controls one of the model response caches.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// HighlightConfig configures incremental highlighting.
type HighlightConfig struct {
	ShortDelay     time.Duration `mapstructure:"short_delay"`      // debounce before a partial pass
	LongDelay      time.Duration `mapstructure:"long_delay"`       // debounce before a full pass
	RateLimitDelay time.Duration `mapstructure:"rate_limit_delay"` // cool-down between model calls
	Model          string        `mapstructure:"model"`
	Cache          CacheConfig   `mapstructure:"cache"`
}

// CompileConfig configures compilation.
type CompileConfig struct {
	Model      string        `mapstructure:"model"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Cache      CacheConfig   `mapstructure:"cache"`
	EchoScript bool          `mapstructure:"echo_script"`
}

// SandboxConfig configures script execution.
type SandboxConfig struct {
	// Timeout interrupts runaway scripts. Zero disables the limit.
	Timeout time.Duration `mapstructure:"timeout"`
}

// HistoryConfig configures the run history database.
type HistoryConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Path defaults to ~/.stupidea/history.db.
	Path string `mapstructure:"path"`
}

// TracingConfig holds distributed tracing configuration.
type TracingConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the trace export backend.
	// Options: "none", "file", "stdout", "otlp"
	Exporter string `mapstructure:"exporter"`

	// FilePath is the output file for the "file" exporter.
	// Default: ~/.config/stupidea/traces/traces.jsonl
	FilePath string `mapstructure:"file_path"`

	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SampleRate   float64 `mapstructure:"sample_rate"`
}

// UIConfig holds user interface options.
type UIConfig struct {
	MarkdownStyle string `mapstructure:"markdown_style"` // "dark" (default) or "light"
}

// Settings is the subset of the configuration editable at runtime.
type Settings struct {
	ShortDelay     time.Duration
	LongDelay      time.Duration
	RateLimitDelay time.Duration
	HighlightModel string
	CompileModel   string
}

// Settings extracts the runtime settings.
func (c Config) Settings() Settings {
	return Settings{
		ShortDelay:     c.Highlight.ShortDelay,
		LongDelay:      c.Highlight.LongDelay,
		RateLimitDelay: c.Highlight.RateLimitDelay,
		HighlightModel: c.Highlight.Model,
		CompileModel:   c.Compile.Model,
	}
}

// ApplySettings copies s into the configuration.
func (c *Config) ApplySettings(s Settings) {
	c.Highlight.ShortDelay = s.ShortDelay
	c.Highlight.LongDelay = s.LongDelay
	c.Highlight.RateLimitDelay = s.RateLimitDelay
	c.Highlight.Model = s.HighlightModel
	c.Compile.Model = s.CompileModel
}

// Highlighter returns the scheduling settings for the highlighter.
func (s Settings) Highlighter() highlight.Settings {
	return highlight.Settings{
		ShortDelay:     s.ShortDelay,
		LongDelay:      s.LongDelay,
		RateLimitDelay: s.RateLimitDelay,
		Model:          s.HighlightModel,
	}
}

// Validate enforces the delay minimums and that both models are named.
func (s Settings) Validate() error {
	switch {
	case s.ShortDelay < MinShortDelay:
		return fmt.Errorf("short delay must be at least %s", MinShortDelay)
	case s.LongDelay < MinLongDelay:
		return fmt.Errorf("long delay must be at least %s", MinLongDelay)
	case s.RateLimitDelay < MinRateLimitDelay:
		return fmt.Errorf("rate limit delay must be at least %s", MinRateLimitDelay)
	case s.HighlightModel == "":
		return fmt.Errorf("highlight model is required")
	case s.CompileModel == "":
		return fmt.Errorf("compile model is required")
	}
	return nil
}

// Validate checks the whole configuration. Unknown model names are only
// logged since new models appear faster than releases.
func Validate(c Config) error {
	if err := c.Settings().Validate(); err != nil {
		return err
	}
	for _, m := range []string{c.Highlight.Model, c.Compile.Model} {
		if !gateway.KnownModel(m) {
			log.Warn(log.CatConfig, "unknown model, using it anyway", "model", m)
		}
	}
	if c.Compile.Timeout < 0 {
		return fmt.Errorf("compile timeout must not be negative")
	}
	if c.Sandbox.Timeout < 0 {
		return fmt.Errorf("sandbox timeout must not be negative")
	}
	return ValidateTracing(c.Tracing)
}

// ValidateTracing checks tracing configuration for errors.
func ValidateTracing(t TracingConfig) error {
	switch t.Exporter {
	case "", "none", "file", "stdout", "otlp":
	default:
		return fmt.Errorf("invalid tracing exporter %q: must be one of none, file, stdout, otlp", t.Exporter)
	}
	if t.SampleRate < 0 || t.SampleRate > 1 {
		return fmt.Errorf("tracing sample_rate must be between 0 and 1, got %v", t.SampleRate)
	}
	return nil
}

// APIKey reads the credential from the configured environment variable,
// falling back to API_KEY.
func (c Config) APIKey() (string, error) {
	env := c.APIKeyEnv
	if env == "" {
		env = DefaultAPIKeyEnv
	}
	for _, name := range []string{env, FallbackAPIKeyEnv} {
		if v := os.Getenv(name); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: set the %s environment variable", ErrMissingAPIKey, env)
}

// KeyEnv returns the name of the environment variable holding the API key.
func (c Config) KeyEnv() string {
	if c.APIKeyEnv == "" {
		return DefaultAPIKeyEnv
	}
	return c.APIKeyEnv
}

// HistoryPath returns the configured history database path or the default.
func (c Config) HistoryPath() string {
	if c.History.Path != "" {
		return c.History.Path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".stupidea", "history.db")
	}
	return filepath.Join(home, ".stupidea", "history.db")
}

// DefaultTracesFilePath returns ~/.config/stupidea/traces/traces.jsonl or ""
// without a home directory.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "stupidea", "traces", "traces.jsonl")
}

// DefaultAPIKeyEnv is the environment variable read for the API key.
const DefaultAPIKeyEnv = "GEMINI_API_KEY"

// DefaultFile is opened when no file is given.
const DefaultFile = "main.stupid"

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		APIKeyEnv: DefaultAPIKeyEnv,
		File:      DefaultFile,
		Watch:     true,
		Highlight: HighlightConfig{
			ShortDelay:     300 * time.Millisecond,
			LongDelay:      5 * time.Second,
			RateLimitDelay: time.Second,
			Model:          gateway.DefaultModel,
			Cache:          CacheConfig{Enabled: true, TTL: 10 * time.Minute},
		},
		Compile: CompileConfig{
			Model:   gateway.DefaultModel,
			Timeout: 60 * time.Second,
			Cache:   CacheConfig{Enabled: false, TTL: 10 * time.Minute},
		},
		Sandbox: SandboxConfig{Timeout: 5 * time.Second},
		History: HistoryConfig{Enabled: true},
		Tracing: TracingConfig{
			Exporter:     "file",
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
		UI: UIConfig{MarkdownStyle: "dark"},
	}
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# stupidea configuration

# Environment variable holding the Gemini API key (API_KEY is tried as well)
api_key_env: GEMINI_API_KEY

# File opened when none is given on the command line
file: main.stupid

# Reload the file when it changes on disk
watch: true

highlight:
  # Wait this long after the last edit before colouring the edited lines
  short_delay: 300ms          # minimum 100ms
  # Wait this long after the last edit before recolouring the whole buffer
  long_delay: 5s              # minimum 1s
  # Minimum spacing between highlighting requests
  rate_limit_delay: 1s        # minimum 200ms
  model: gemini-2.5-flash
  cache:
    enabled: true
    ttl: 10m

compile:
  model: gemini-2.5-flash
  timeout: 60s
  cache:
    enabled: false
    ttl: 10m
  # Show the compiled JavaScript in the terminal before running it
  echo_script: false

sandbox:
  # Interrupt scripts that run longer than this (0 disables the limit)
  timeout: 5s

history:
  enabled: true
  # Default: ~/.stupidea/history.db
  path: ""

# Distributed tracing
tracing:
  enabled: false
  # Options: none, file, stdout, otlp
  exporter: file
  # Default: ~/.config/stupidea/traces/traces.jsonl
  file_path: ""
  otlp_endpoint: localhost:4317
  sample_rate: 1.0

ui:
  # Help overlay style: dark or light
  markdown_style: dark
`
}

// WriteDefaultConfig creates a config file at the given path with default
// settings and comments. Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
