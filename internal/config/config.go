// Package config resolves runtime settings for the board engine. Values
// layer in fixed precedence: built-in defaults, then an optional YAML file,
// then QUORUM_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultModel          = "gpt-4o-mini"
	DefaultBaseURL        = "https://api.openai.com/v1"
	DefaultTemperature    = 0.3
	DefaultSeatTimeout    = 90 * time.Second
	DefaultOverallTimeout = 3 * time.Minute
	DefaultHistoryDir     = "~/.quorum/rounds"
)

// RuntimeConfig captures user-configurable settings shared across commands.
type RuntimeConfig struct {
	Model       string  `json:"model" yaml:"model"`
	BaseURL     string  `json:"base_url" yaml:"base_url"`
	APIKey      string  `json:"api_key" yaml:"api_key"`
	Temperature float64 `json:"temperature" yaml:"temperature"`

	SeatTimeoutSeconds    int `json:"seat_timeout_seconds" yaml:"seat_timeout_seconds"`
	OverallTimeoutSeconds int `json:"overall_timeout_seconds" yaml:"overall_timeout_seconds"`

	PanelFile  string `json:"panel_file" yaml:"panel_file"`
	HistoryDir string `json:"history_dir" yaml:"history_dir"`
	ProjectID  string `json:"project_id" yaml:"project_id"`

	MetricsPort int  `json:"metrics_port" yaml:"metrics_port"`
	Verbose     bool `json:"verbose" yaml:"verbose"`
}

// Default returns the built-in configuration.
func Default() RuntimeConfig {
	return RuntimeConfig{
		Model:                 DefaultModel,
		BaseURL:               DefaultBaseURL,
		Temperature:           DefaultTemperature,
		SeatTimeoutSeconds:    int(DefaultSeatTimeout.Seconds()),
		OverallTimeoutSeconds: int(DefaultOverallTimeout.Seconds()),
		HistoryDir:            DefaultHistoryDir,
	}
}

// Load resolves the full configuration: defaults, then the YAML file at path
// (skipped when path is empty or missing), then the environment.
func Load(path string) (RuntimeConfig, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv(os.LookupEnv)
	return cfg, nil
}

// applyEnv overlays QUORUM_* variables onto cfg. OPENAI_API_KEY is honored as
// a fallback key source so existing provider setups work unchanged.
func (c *RuntimeConfig) applyEnv(lookup func(string) (string, bool)) {
	setString := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				*dst = n
			}
		}
	}

	setString("QUORUM_MODEL", &c.Model)
	setString("QUORUM_BASE_URL", &c.BaseURL)
	setString("QUORUM_API_KEY", &c.APIKey)
	if c.APIKey == "" {
		setString("OPENAI_API_KEY", &c.APIKey)
	}
	if v, ok := lookup("QUORUM_TEMPERATURE"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			c.Temperature = f
		}
	}
	setInt("QUORUM_SEAT_TIMEOUT_SECONDS", &c.SeatTimeoutSeconds)
	setInt("QUORUM_OVERALL_TIMEOUT_SECONDS", &c.OverallTimeoutSeconds)
	setString("QUORUM_PANEL_FILE", &c.PanelFile)
	setString("QUORUM_HISTORY_DIR", &c.HistoryDir)
	setString("QUORUM_PROJECT_ID", &c.ProjectID)
	setInt("QUORUM_METRICS_PORT", &c.MetricsPort)
	if v, ok := lookup("QUORUM_VERBOSE"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Verbose = b
		}
	}
}

// Validate checks the resolved configuration before a round starts.
func (c RuntimeConfig) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("no model configured")
	}
	if c.SeatTimeoutSeconds <= 0 || c.OverallTimeoutSeconds <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.SeatTimeoutSeconds > c.OverallTimeoutSeconds {
		return fmt.Errorf("seat timeout %ds exceeds overall timeout %ds", c.SeatTimeoutSeconds, c.OverallTimeoutSeconds)
	}
	return nil
}

// SeatTimeout returns the per-seat deadline as a duration.
func (c RuntimeConfig) SeatTimeout() time.Duration {
	return time.Duration(c.SeatTimeoutSeconds) * time.Second
}

// OverallTimeout returns the whole-round deadline as a duration.
func (c RuntimeConfig) OverallTimeout() time.Duration {
	return time.Duration(c.OverallTimeoutSeconds) * time.Second
}
