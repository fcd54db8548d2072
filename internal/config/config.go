// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/sethvargo/go-envconfig"

	"github.com/silentcut/silentcut-api/internal/pipeline"
)

// ErrInvalidPreset is returned when QUALITY_PRESET is not a known x264 preset.
var ErrInvalidPreset = errors.New("config: QUALITY_PRESET is not a valid preset")

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port int `env:"PORT, default=8080" json:"port"`

	// Tool locations
	FFmpegPath  string `env:"FFMPEG_PATH, default=ffmpeg" json:"ffmpeg_path"`
	FFprobePath string `env:"FFPROBE_PATH, default=ffprobe" json:"ffprobe_path"`

	// Storage settings
	TempDir string `env:"TEMP_DIR, default=/tmp/silentcut" json:"temp_dir"`

	// Trim defaults, used when a request leaves them unset
	NoiseFloorDB  float64 `env:"NOISE_FLOOR_DB, default=-35.0" json:"noise_floor_db"`
	MinSilenceSec float64 `env:"MIN_SILENCE_SEC, default=0.5" json:"min_silence_sec"`
	PreferHW      bool    `env:"PREFER_HW_ENCODER, default=true" json:"prefer_hw_encoder"`
	QualityPreset string  `env:"QUALITY_PRESET, default=medium" json:"quality_preset"`

	// Optional S3 settings
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// S3Enabled returns true if S3 configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// TrimDefaults returns the pipeline options derived from the configuration.
func (c *Config) TrimDefaults() pipeline.Options {
	return pipeline.Options{
		NoiseFloorDB:   c.NoiseFloorDB,
		MinSilenceSec:  c.MinSilenceSec,
		PreferHardware: c.PreferHW,
		QualityPreset:  c.QualityPreset,
	}
}

// Load reads configuration from environment variables using go-envconfig.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *Config) Validate() error {
	if !pipeline.ValidPreset(c.QualityPreset) {
		return ErrInvalidPreset
	}
	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, FFmpegPath: %s, FFprobePath: %s, TempDir: %s, NoiseFloorDB: %g, MinSilenceSec: %g, PreferHW: %t, QualityPreset: %s, S3Bucket: %s, S3Region: %s, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.FFmpegPath,
		c.FFprobePath,
		c.TempDir,
		c.NoiseFloorDB,
		c.MinSilenceSec,
		c.PreferHW,
		c.QualityPreset,
		c.S3Bucket,
		c.S3Region,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
