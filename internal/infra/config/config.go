// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Monitor  MonitorConfig  `yaml:"monitor"`
	Session  SessionConfig  `yaml:"session"`
	Tracking TrackingConfig `yaml:"tracking"`
	Stats    StatsConfig    `yaml:"stats"`
	Storage  StorageConfig  `yaml:"storage"`
	Spotify  SpotifyConfig  `yaml:"spotify"`
}

// MonitorConfig represents poll loop configuration.
type MonitorConfig struct {
	PollIntervalMs           int `yaml:"poll_interval_ms" default:"1000" validate:"gte=100,lte=60000"`
	PositionSampleIntervalMs int `yaml:"position_sample_interval_ms" default:"5000" validate:"gte=1000,lte=60000"`
}

// SessionConfig represents session boundary configuration.
type SessionConfig struct {
	GapSeconds         int `yaml:"gap_seconds" default:"30" validate:"gte=1,lte=3600"`
	MinDurationSeconds int `yaml:"min_duration_seconds" default:"10" validate:"gte=0,lte=3600"`
}

// TrackingConfig represents track accounting configuration.
type TrackingConfig struct {
	SkipThreshold float64 `yaml:"skip_threshold" default:"0.8" validate:"gt=0,lte=1"`
}

// StatsConfig represents statistics processing configuration.
type StatsConfig struct {
	ProcessIntervalMinutes int `yaml:"process_interval_minutes" default:"60" validate:"gte=1"`
	CleanupIntervalHours   int `yaml:"cleanup_interval_hours" default:"24" validate:"gte=1"`
	TopCount               int `yaml:"top_count" default:"10" validate:"gte=1,lte=100"`
	RetentionDays          int `yaml:"retention_days" default:"90" validate:"gte=1"`
}

// StorageConfig represents local persistence configuration.
type StorageConfig struct {
	Path string `yaml:"path" default:"data/listening.db"`
}

// SpotifyConfig represents Spotify API configuration.
type SpotifyConfig struct {
	ClientID     string `yaml:"client_id" validate:"required"`
	ClientSecret string `yaml:"client_secret" validate:"required"`
	RefreshToken string `yaml:"refresh_token" validate:"required"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Spotify.ClientSecret = v
	}
	if v := os.Getenv("SPOTIFY_REFRESH_TOKEN"); v != "" {
		c.Spotify.RefreshToken = v
	}
	if v := os.Getenv("STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}

// PollInterval returns the poll loop cadence.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Monitor.PollIntervalMs) * time.Millisecond
}

// PositionSampleInterval returns the position sub-sampling cadence.
func (c *Config) PositionSampleInterval() time.Duration {
	return time.Duration(c.Monitor.PositionSampleIntervalMs) * time.Millisecond
}

// SessionGap returns the session boundary gap.
func (c *Config) SessionGap() time.Duration {
	return time.Duration(c.Session.GapSeconds) * time.Second
}

// MinSessionDuration returns the validity floor for sessions.
func (c *Config) MinSessionDuration() time.Duration {
	return time.Duration(c.Session.MinDurationSeconds) * time.Second
}

// StatsProcessInterval returns the snapshot processing cadence.
func (c *Config) StatsProcessInterval() time.Duration {
	return time.Duration(c.Stats.ProcessIntervalMinutes) * time.Minute
}

// CleanupInterval returns the history cleanup cadence.
func (c *Config) CleanupInterval() time.Duration {
	return time.Duration(c.Stats.CleanupIntervalHours) * time.Hour
}

// HistoryRetention returns how long finalized sessions are kept.
func (c *Config) HistoryRetention() time.Duration {
	return time.Duration(c.Stats.RetentionDays) * 24 * time.Hour
}
