// Package main provides the CLI entry point for pixlview.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/ideamans/go-l10n"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/0bVdnt/pixlview/internal/config"
	"github.com/0bVdnt/pixlview/internal/logger"
)

var version = "dev"

func main() {
	// Load environment configuration
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: .env: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Name:    "pixlview",
		Usage:   l10n.T("Play videos in the terminal"),
		Version: version,
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			playCommand(),
			probeCommand(),
			snapshotCommand(),
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   l10n.T("YAML configuration file"),
			EnvVars: []string{"PIXLVIEW_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "ffmpeg",
			Usage:   l10n.T("Path to the ffmpeg executable"),
			EnvVars: []string{"PIXLVIEW_FFMPEG"},
		},
		&cli.StringFlag{
			Name:    "ffprobe",
			Usage:   l10n.T("Path to the ffprobe executable"),
			EnvVars: []string{"PIXLVIEW_FFPROBE"},
		},
		&cli.Float64Flag{
			Name:    "fps",
			Usage:   l10n.T("Decode frame rate (0 picks one from the frame size)"),
			EnvVars: []string{"PIXLVIEW_FPS"},
		},
		&cli.IntFlag{
			Name:    "max-width",
			Usage:   l10n.T("Maximum decoded width in pixels"),
			EnvVars: []string{"PIXLVIEW_MAX_WIDTH"},
		},
		&cli.IntFlag{
			Name:    "max-height",
			Usage:   l10n.T("Maximum decoded height in pixels"),
			EnvVars: []string{"PIXLVIEW_MAX_HEIGHT"},
		},
		&cli.StringFlag{
			Name:    "allocator",
			Usage:   l10n.T("Frame buffer allocator (heap, libc)"),
			EnvVars: []string{"PIXLVIEW_ALLOCATOR"},
		},
		&cli.DurationFlag{
			Name:    "poll-interval",
			Usage:   l10n.T("How often playback end is checked"),
			EnvVars: []string{"PIXLVIEW_POLL_INTERVAL"},
		},
		&cli.DurationFlag{
			Name:    "seek-step",
			Usage:   l10n.T("Seek distance for the arrow keys"),
			EnvVars: []string{"PIXLVIEW_SEEK_STEP"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Aliases: []string{"l"},
			Usage:   l10n.T("Log level (debug, info, warn, error, quiet)"),
			EnvVars: []string{"PIXLVIEW_LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "log-file",
			Usage:   l10n.T("Write logs to this file"),
			EnvVars: []string{"PIXLVIEW_LOG_FILE"},
		},
	}
}

// loadConfig layers the config file and the flags over the defaults.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	if c.IsSet("ffmpeg") {
		cfg.FFmpegPath = c.String("ffmpeg")
	}
	if c.IsSet("ffprobe") {
		cfg.FFprobePath = c.String("ffprobe")
	}
	if c.IsSet("fps") {
		cfg.TargetFPS = c.Float64("fps")
	}
	if c.IsSet("max-width") {
		cfg.MaxWidth = c.Int("max-width")
	}
	if c.IsSet("max-height") {
		cfg.MaxHeight = c.Int("max-height")
	}
	if c.IsSet("allocator") {
		cfg.Allocator = c.String("allocator")
	}
	if c.IsSet("poll-interval") {
		cfg.PollIntervalMs = int(c.Duration("poll-interval").Milliseconds())
	}
	if c.IsSet("seek-step") {
		cfg.SeekStepMs = int(c.Duration("seek-step").Milliseconds())
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("log-file") {
		cfg.LogFile = c.String("log-file")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newLogger opens the configured log file. Without one, console commands
// log to stderr while the player stays silent so the screen is untouched.
func newLogger(cfg config.Config, console bool) (*logger.Logger, error) {
	if cfg.LogFile != "" {
		return logger.New(cfg.LogFile, cfg.Level())
	}
	if console {
		return logger.NewWriter(os.Stderr, cfg.Level()), nil
	}
	return logger.Noop(), nil
}

func sourceArg(c *cli.Context) (string, error) {
	source := c.Args().First()
	if source == "" {
		return "", cli.Exit(fmt.Sprintf(l10n.T("Usage: pixlview %s <video-file>"), c.Command.Name), 2)
	}
	return source, nil
}
