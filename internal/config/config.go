// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/0bVdnt/pixlview/internal/logger"
	"github.com/0bVdnt/pixlview/internal/native"
	"github.com/0bVdnt/pixlview/internal/video"
	"gopkg.in/yaml.v3"
)

// Config represents the full configuration for pixlview.
type Config struct {
	// Decoding
	FFmpegPath  string  `yaml:"ffmpeg"`
	FFprobePath string  `yaml:"ffprobe"`
	TargetFPS   float64 `yaml:"target_fps"`
	MaxWidth    int     `yaml:"max_width"`
	MaxHeight   int     `yaml:"max_height"`

	// Playback
	PollIntervalMs int    `yaml:"poll_interval_ms"`
	Allocator      string `yaml:"allocator"`
	SeekStepMs     int    `yaml:"seek_step_ms"`

	// Logging
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",
		MaxWidth:    640,
		MaxHeight:   360,

		PollIntervalMs: 100,
		Allocator:      "heap",
		SeekStepMs:     5000,

		LogLevel: "info",
	}
}

// LoadFromFile loads configuration from a YAML file over the defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.FFmpegPath == "" {
		errs = append(errs, errors.New("ffmpeg path is empty"))
	}
	if c.FFprobePath == "" {
		errs = append(errs, errors.New("ffprobe path is empty"))
	}
	if c.TargetFPS < 0 {
		errs = append(errs, fmt.Errorf("target_fps must not be negative, got %g", c.TargetFPS))
	}
	if c.MaxWidth < 2 || c.MaxHeight < 2 {
		errs = append(errs, fmt.Errorf("max size must be at least 2x2, got %dx%d", c.MaxWidth, c.MaxHeight))
	}
	if c.PollIntervalMs <= 0 {
		errs = append(errs, fmt.Errorf("poll_interval_ms must be positive, got %d", c.PollIntervalMs))
	}
	if c.SeekStepMs <= 0 {
		errs = append(errs, fmt.Errorf("seek_step_ms must be positive, got %d", c.SeekStepMs))
	}
	switch c.Allocator {
	case "heap", "libc":
	default:
		errs = append(errs, fmt.Errorf("allocator must be heap or libc, got %q", c.Allocator))
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

func (c Config) SeekStep() time.Duration {
	return time.Duration(c.SeekStepMs) * time.Millisecond
}

// Level returns the parsed log level, info when invalid.
func (c Config) Level() logger.Level {
	l, _ := logger.ParseLevel(c.LogLevel)
	return l
}

// ToFFmpegConfig converts Config to video.FFmpegConfig.
func (c Config) ToFFmpegConfig() video.FFmpegConfig {
	return video.FFmpegConfig{
		FFmpegPath:  c.FFmpegPath,
		FFprobePath: c.FFprobePath,
		TargetFPS:   c.TargetFPS,
		MaxWidth:    c.MaxWidth,
		MaxHeight:   c.MaxHeight,
	}
}

// NewAllocator builds the configured allocator. When libc is unavailable
// it falls back to the Go heap and returns the reason alongside.
func (c Config) NewAllocator() (native.Allocator, error) {
	alloc, err := native.New(c.Allocator)
	if err != nil {
		return native.NewHeap(), err
	}
	return alloc, nil
}
