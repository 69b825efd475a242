// Package config provides configuration for the CLI: built-in defaults,
// an optional YAML file, then environment overrides, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sujalrajpoot/chatgpt-go/core/chat"
)

// Config holds every user-tunable knob of the client.
type Config struct {
	// BaseURL is the upstream site URL.
	BaseURL string `yaml:"base_url"`
	// Model is the provider model string (e.g. "gpt-4o").
	Model string `yaml:"model"`
	// Timeout bounds each network operation.
	Timeout time.Duration `yaml:"timeout"`
	// ChunkSize bounds each streamed read, in bytes.
	ChunkSize int `yaml:"chunk_size"`
	// Markdown converts HTML markup in replies to Markdown.
	Markdown bool `yaml:"markdown"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		BaseURL:   "https://chatgpt.es",
		Model:     "gpt-4o",
		Timeout:   30 * time.Second,
		ChunkSize: 1000,
		LogLevel:  "info",
	}
}

// Load builds the effective configuration: defaults, overlaid with the YAML
// file at path (skipped when path is empty), overlaid with environment
// variables, then validated.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("error parsing config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overlays CHATGPT_* environment variables onto the configuration.
func (c *Config) applyEnv() {
	if v := os.Getenv("CHATGPT_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("CHATGPT_MODEL"); v != "" {
		c.Model = v
	}
	c.Timeout = envDuration("CHATGPT_TIMEOUT", c.Timeout)
	c.ChunkSize = envInt("CHATGPT_CHUNK_SIZE", c.ChunkSize)
	if v := os.Getenv("CHATGPT_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("CHATGPT_MARKDOWN"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Markdown = b
		}
	}
}

// Validate checks the configuration for values the client would reject.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url must not be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize)
	}
	if _, err := chat.ParseModel(c.Model); err != nil {
		return fmt.Errorf("invalid model %q (known: %v)", c.Model, chat.Models())
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return nil
}

// envDuration reads a duration from an environment variable, returning the
// default when unset or invalid. Accepts plain integers (seconds) or Go
// duration strings such as "90s" or "2m".
func envDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	return defaultVal
}

// envInt reads an integer from an environment variable, returning the default
// when unset or invalid.
func envInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(val); err == nil {
		return n
	}
	return defaultVal
}
