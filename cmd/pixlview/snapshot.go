package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync/atomic"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/0bVdnt/pixlview/internal/dispatch"
	"github.com/0bVdnt/pixlview/internal/player"
	"github.com/0bVdnt/pixlview/internal/renderer"
	"github.com/0bVdnt/pixlview/internal/video"
)

var errNoFrame = errors.New("no frame decoded")

func snapshotCommand() *cli.Command {
	return &cli.Command{
		Name:      "snapshot",
		Usage:     l10n.T("Print a single frame with ANSI colours"),
		ArgsUsage: "<video-file>",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "at",
				Value: 5 * time.Second,
				Usage: l10n.T("Position of the frame"),
			},
			&cli.IntFlag{
				Name:  "width",
				Value: 80,
				Usage: l10n.T("Frame width in pixels"),
			},
			&cli.IntFlag{
				Name:  "height",
				Value: 40,
				Usage: l10n.T("Frame height in pixels, two per text row"),
			},
			&cli.BoolFlag{
				Name:  "ascii",
				Usage: l10n.T("Print brightness characters instead of colour"),
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: 10 * time.Second,
				Usage: l10n.T("Give up when no frame arrives in time"),
			},
		},
		Action: runSnapshot,
	}
}

func runSnapshot(c *cli.Context) error {
	source, err := sourceArg(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	cfg.MaxWidth = c.Int("width")
	cfg.MaxHeight = c.Int("height")

	log, err := newLogger(cfg, true)
	if err != nil {
		return err
	}
	defer log.Close()

	alloc, err := cfg.NewAllocator()
	if err != nil {
		log.Warn("Allocator %s unavailable, using heap: %v", cfg.Allocator, err)
	}

	ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
	defer cancel()

	// headless: the loop goroutine stands in for the screen
	loop := dispatch.NewLoop(dispatch.DefaultQueueSize)
	defer loop.Close()

	decoder := video.NewFFmpegDecoder(cfg.ToFFmpegConfig(), log.WithComponent("ffmpeg").Log)

	var frame *image.RGBA
	pcfg := player.Config{
		PollInterval: cfg.PollInterval(),
		Logger:       log,
		Allocator:    alloc,
	}
	err = player.With(decoder, loop, pcfg, func(p *player.Player) error {
		img, err := capture(ctx, p, loop, source, c.Duration("at"))
		frame = img
		return err
	})
	if err != nil {
		return err
	}

	m := decoder.Metadata()
	out := c.App.Writer
	fmt.Fprintf(out, l10n.T("Video: %s (%dx%d @ %.1f fps)\n"), source, m.Width, m.Height, m.FPS)
	fmt.Fprintf(out, l10n.T("Frame at: %v\n\n"), c.Duration("at"))
	if c.Bool("ascii") {
		_, err = fmt.Fprint(out, renderer.ASCII(frame))
		return err
	}
	return renderer.WriteANSI(out, frame)
}

// capture loads source, holds it paused at pos and returns a copy of the
// first frame presented after the seek.
func capture(ctx context.Context, p *player.Player, loop *dispatch.Loop, source string, pos time.Duration) (*image.RGBA, error) {
	// A seek always renegotiates, and renegotiation replaces both frame
	// buffers. Only frames presented after that surface event come from
	// the seek target.
	var seeking, armed atomic.Bool
	frames := make(chan *image.RGBA, 1)

	unsubscribe := p.Subscribe(func(ev player.Event) {
		switch ev.Kind {
		case player.EventSurface:
			if seeking.Load() {
				armed.Store(true)
			}
			return
		case player.EventFrame:
			if !armed.Load() {
				return
			}
		default:
			return
		}
		surface := p.Frame()
		if surface == nil {
			return
		}
		img := image.NewRGBA(surface.Bounds())
		copy(img.Pix, surface.Pix)
		select {
		case frames <- img:
		default:
		}
	})
	defer unsubscribe()

	if err := p.Load(source); err != nil {
		return nil, err
	}
	if err := p.Pause(); err != nil {
		return nil, err
	}
	// let the negotiation of the paused run reach the observer first
	if err := loop.Invoke(ctx, func() {}); err != nil {
		return nil, err
	}
	seeking.Store(true)
	p.Seek(pos)

	select {
	case img := <-frames:
		return img, nil
	case <-ctx.Done():
		if err := p.LastError(); err != nil {
			return nil, fmt.Errorf("%w: %v", errNoFrame, err)
		}
		return nil, fmt.Errorf("%w at %v", errNoFrame, pos)
	}
}
