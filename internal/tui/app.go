// Package tui is the terminal front end: it runs the presentation goroutine,
// maps keys to player controls and draws the frame with a status bar.
package tui

import (
	"context"
	"image"
	"time"

	"github.com/0bVdnt/pixlview/internal/dispatch"
	"github.com/0bVdnt/pixlview/internal/logger"
	"github.com/0bVdnt/pixlview/internal/player"
	"github.com/0bVdnt/pixlview/internal/renderer"
	"github.com/0bVdnt/pixlview/internal/video"
	"github.com/gdamore/tcell/v2"
)

const (
	SeekSmall = 5 * time.Second
	SeekLarge = 30 * time.Second
)

type Config struct {
	// SeekStep is the arrow key seek distance; up and down use six times it.
	SeekStep time.Duration
	Logger   *logger.Logger
}

// App owns the presentation goroutine: the goroutine calling Run.
type App struct {
	render *renderer.Renderer
	disp   *dispatch.Screen
	player *player.Player
	meta   video.Metadata
	log    *logger.Logger

	seekSmall time.Duration
	seekLarge time.Duration

	// presentation goroutine only
	dirty     bool
	quit      bool
	errMsg    string
}

// Creates an app drawing p on render. disp must dispatch through
// render's screen.
func New(render *renderer.Renderer, disp *dispatch.Screen, p *player.Player, meta video.Metadata, cfg Config) *App {
	log := cfg.Logger
	if log == nil {
		log = logger.Noop()
	}
	step := cfg.SeekStep
	if step <= 0 {
		step = SeekSmall
	}
	return &App{
		render:    render,
		disp:      disp,
		player:    p,
		meta:      meta,
		log:       log.WithComponent("tui"),
		seekSmall: step,
		seekLarge: step * 6,
		dirty:     true,
	}
}

// Run loads source and processes terminal events and player tasks until the
// user quits, ctx is done or the screen goes away.
func (a *App) Run(ctx context.Context, source string) error {
	unsubscribe := a.player.Subscribe(a.onEvent)
	defer unsubscribe()

	stop := context.AfterFunc(ctx, func() {
		a.disp.Post(func() { a.quit = true })
	})
	defer stop()

	if err := a.player.Load(source); err != nil {
		return err
	}

	screen := a.render.Screen()
	if screen == nil {
		return nil
	}

	a.draw()
	for !a.quit {
		ev := screen.PollEvent()
		if ev == nil {
			return nil
		}
		if a.disp.Run(ev) {
			if a.dirty && !a.quit {
				a.draw()
			}
			continue
		}
		if a.HandleEvent(ev) == EventQuit {
			return nil
		}
		if a.dirty {
			a.draw()
		}
	}
	return nil
}

func (a *App) onEvent(ev player.Event) {
	switch ev.Kind {
	case player.EventSurface:
		a.render.Invalidate(renderer.DamageVideo)
	case player.EventState:
		if err := a.player.LastError(); err != nil && ev.State == player.StateStopped {
			a.errMsg = err.Error()
		}
	}
	a.dirty = true
}

// frameSize returns the source size used for aspect ratio.
func (a *App) frameSize(frame *image.RGBA) (int, int) {
	if frame != nil {
		return frame.Bounds().Dx(), frame.Bounds().Dy()
	}
	return a.meta.Width, a.meta.Height
}

func (a *App) draw() {
	a.dirty = false
	if a.render.IsClosed() {
		return
	}

	// each player state gets a fresh video area
	state := a.player.State()
	screenW, screenH := a.render.BeginFrame(int(state), StatusRows)
	defer a.render.EndFrame()

	frame := a.player.Frame()
	srcW, srcH := a.frameSize(frame)
	frameW, frameH := CalculateFrameDimensions(screenW, screenH, srcW, srcH)

	switch {
	case a.errMsg != "":
		a.render.RenderMessage(a.errMsg, tcell.ColorDarkRed)
	case frame == nil && state == player.StatePlaying:
		a.render.RenderMessage("Loading video...", tcell.ColorDarkBlue)
	case frame == nil:
		a.render.RenderMessage("Waiting...", tcell.ColorDarkBlue)
	default:
		offsetX, offsetY := frameOffset(screenW, screenH, frameW, frameH)
		a.render.RenderScaled(frame, frameW, frameH, offsetX, offsetY)
	}

	a.drawStatus(screenW, screenH, frameW, frameH, state)
}
