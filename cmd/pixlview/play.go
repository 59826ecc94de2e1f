package main

import (
	"fmt"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/0bVdnt/pixlview/internal/dispatch"
	"github.com/0bVdnt/pixlview/internal/player"
	"github.com/0bVdnt/pixlview/internal/renderer"
	"github.com/0bVdnt/pixlview/internal/tui"
	"github.com/0bVdnt/pixlview/internal/video"
)

func playCommand() *cli.Command {
	return &cli.Command{
		Name:      "play",
		Usage:     l10n.T("Play a video in the terminal"),
		ArgsUsage: "<video-file>",
		Action:    runPlay,
	}
}

func runPlay(c *cli.Context) error {
	source, err := sourceArg(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	log, err := newLogger(cfg, false)
	if err != nil {
		return err
	}
	defer log.Close()

	// probe before the terminal is taken over so errors print normally
	meta, err := video.ProbeFile(source, cfg.FFprobePath)
	if err != nil {
		return fmt.Errorf("probe %s: %w", source, err)
	}

	alloc, err := cfg.NewAllocator()
	if err != nil {
		log.Warn("Allocator %s unavailable, using heap: %v", cfg.Allocator, err)
	}

	render, err := renderer.New()
	if err != nil {
		return fmt.Errorf("init terminal: %w", err)
	}
	defer render.Close()

	disp := dispatch.NewScreen(render.Screen())
	defer disp.Close()

	decoder := video.NewFFmpegDecoder(cfg.ToFFmpegConfig(), log.WithComponent("ffmpeg").Log)

	pcfg := player.Config{
		PollInterval: cfg.PollInterval(),
		Logger:       log,
		Allocator:    alloc,
	}
	return player.With(decoder, disp, pcfg, func(p *player.Player) error {
		app := tui.New(render, disp, p, *meta, tui.Config{
			SeekStep: cfg.SeekStep(),
			Logger:   log,
		})
		return app.Run(c.Context, source)
	})
}
