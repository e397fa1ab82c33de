// Package config loads the twm YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/twm/internal/foundation/errors"
)

// DefaultPath is where commands look for the configuration by default.
const DefaultPath = "twm.yaml"

// Config is the root configuration document.
type Config struct {
	InputPath  string `yaml:"input_path"`
	OutputPath string `yaml:"output_path"`
	Lang       string `yaml:"lang"`
	// BuildPath is relative to InputPath. Empty selects the language default.
	BuildPath string `yaml:"build_path,omitempty"`

	Extensions       []ExtensionConfig `yaml:"extensions,omitempty"`
	Include          string            `yaml:"include,omitempty"`
	OnlyCopy         []string          `yaml:"only_copy,omitempty"`
	RespectGitignore bool              `yaml:"respect_gitignore"`

	Watch               WatchConfig    `yaml:"watch"`
	Compiler            CompilerConfig `yaml:"compiler"`
	History             HistoryConfig  `yaml:"history"`
	Notify              NotifyConfig   `yaml:"notify"`
	Metrics             MetricsConfig  `yaml:"metrics"`
	Retry               RetryConfig    `yaml:"retry"`
	FullRebuildInterval time.Duration  `yaml:"full_rebuild_interval,omitempty"`
	Logging             LoggingConfig  `yaml:"logging"`
}

// ExtensionConfig adds a user extension rule after the built-in ones.
type ExtensionConfig struct {
	Extname string `yaml:"extname"`
	Replace string `yaml:"replace,omitempty"`
	// Translator names a registered translator. Empty means passthrough.
	Translator string `yaml:"translator,omitempty"`
}

// WatchConfig tunes the change aggregator.
type WatchConfig struct {
	AggregateTimeout time.Duration `yaml:"aggregate_timeout"`
	Ignored          []string      `yaml:"ignored,omitempty"`
}

// CompilerConfig describes the external type-check/emit step for ts projects.
// "{input}" in Args is replaced with the absolute input path.
type CompilerConfig struct {
	Command string        `yaml:"command"`
	Args    []string      `yaml:"args"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// HistoryConfig enables the sqlite cycle history when Path is set.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
}

// NotifyConfig enables NATS cycle notifications when NATSURL is set.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// MetricsConfig enables the Prometheus endpoint when Listen is set.
type MetricsConfig struct {
	Listen string `yaml:"listen,omitempty"`
	Path   string `yaml:"path,omitempty"`
}

// RetryConfig retries failed copies and writes. MaxRetries 0 disables retries.
type RetryConfig struct {
	Backoff      string        `yaml:"backoff,omitempty"`
	InitialDelay time.Duration `yaml:"initial_delay,omitempty"`
	MaxDelay     time.Duration `yaml:"max_delay,omitempty"`
	MaxRetries   int           `yaml:"max_retries"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads configPath after loading .env files, expands ${VAR} references,
// applies defaults and validates the result.
func Load(configPath string) (*Config, error) {
	if _, err := LoadEnvFiles(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return nil, errors.ConfigError("configuration file not found").
			WithContext("path", configPath).
			Build()
	}
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			WithContext("path", configPath).
			Build()
	}
	return Parse(data)
}

// Parse decodes data as a configuration document.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse config").
			Fatal().
			UserAction().
			Build()
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// String renders cfg as YAML.
func (c *Config) String() string {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return string(data)
}
