// Package config loads and stores CLI configuration in the XDG config dir.
// Only non-secret settings are kept here; the API token goes to the OS keychain.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"lakechat/cli/internal/xdg"
)

const fileName = "config.yaml"

// Environment variables that override file settings.
const (
	EnvBaseURL     = "LAKECHAT_BASE_URL"
	EnvLogLevel    = "LAKECHAT_LOG_LEVEL"
	EnvHistoryDSN  = "LAKECHAT_HISTORY_DSN"
	EnvCallTimeout = "LAKECHAT_CALL_TIMEOUT"
)

// Config holds non-sensitive CLI settings.
type Config struct {
	LogLevel string        `yaml:"log_level"`
	Backend  BackendConfig `yaml:"backend"`
	History  HistoryConfig `yaml:"history"`
}

// BackendConfig holds chat service connection settings.
type BackendConfig struct {
	BaseURL               string        `yaml:"base_url"`
	Format                string        `yaml:"format"`
	ConnectTimeout        time.Duration `yaml:"connect_timeout"`
	TLSHandshakeTimeout   time.Duration `yaml:"tls_handshake_timeout"`
	ResponseHeaderTimeout time.Duration `yaml:"response_header_timeout"`
	CallTimeout           time.Duration `yaml:"call_timeout"`
	MaxAttempts           int           `yaml:"max_attempts"`
	BaseBackoff           time.Duration `yaml:"base_backoff"`
	MaxBackoff            time.Duration `yaml:"max_backoff"`
}

// HistoryConfig selects where conversation history is kept.
// An empty DSN means local JSONL files under the XDG state dir.
type HistoryConfig struct {
	DSN   string `yaml:"dsn,omitempty"`
	Limit int    `yaml:"limit"`
}

// Default returns the settings used when no config file exists.
func Default() Config {
	return Config{
		LogLevel: "info",
		Backend: BackendConfig{
			BaseURL:               "http://localhost:8080",
			Format:                "slack",
			ConnectTimeout:        10 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
			CallTimeout:           5 * time.Minute,
			MaxAttempts:           3,
			BaseBackoff:           time.Second,
			MaxBackoff:            5 * time.Second,
		},
		History: HistoryConfig{Limit: 20},
	}
}

// Path returns the path to the config file.
func Path() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// Load reads configuration from the XDG config dir and applies environment
// overrides; a missing file yields defaults.
func Load() (Config, error) {
	p, err := Path()
	if err != nil {
		return Config{}, err
	}
	return LoadFrom(p)
}

// LoadFrom reads configuration from path. Keys absent from the file keep
// their default values.
func LoadFrom(path string) (Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return c, fmt.Errorf("reading config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &c); err != nil {
			return c, fmt.Errorf("parsing config: %w", err)
		}
	}
	if err := c.applyEnv(); err != nil {
		return c, err
	}
	return c, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvHistoryDSN); v != "" {
		c.History.DSN = v
	}
	if v := os.Getenv(EnvCallTimeout); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvCallTimeout, err)
		}
		c.Backend.CallTimeout = d
	}
	return nil
}

// parseDuration accepts Go durations ("90s") or a bare number of seconds.
func parseDuration(v string) (time.Duration, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(v)
}

// Validate reports settings the client cannot work with.
func (c Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return errors.New("backend.base_url is required")
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil {
		return fmt.Errorf("backend.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend.base_url: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("backend.base_url: missing host")
	}
	if c.Backend.MaxAttempts < 1 {
		return fmt.Errorf("backend.max_attempts must be at least 1, got %d", c.Backend.MaxAttempts)
	}
	if c.Backend.BaseBackoff < 0 || c.Backend.MaxBackoff < 0 {
		return errors.New("backend backoff must not be negative")
	}
	if c.History.Limit < 0 {
		return fmt.Errorf("history.limit must not be negative, got %d", c.History.Limit)
	}
	return nil
}

// Save writes configuration to the XDG config dir with 0600 permissions.
func Save(c Config) error {
	p, err := Path()
	if err != nil {
		return err
	}
	return SaveTo(p, c)
}

// SaveTo writes configuration to path with 0600 permissions.
func SaveTo(path string, c Config) error {
	b, err := Marshal(c)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Marshal renders c as YAML.
func Marshal(c Config) ([]byte, error) {
	b, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshalling config: %w", err)
	}
	return b, nil
}
