package tui

import (
	"errors"

	"github.com/0bVdnt/pixlview/internal/player"
	"github.com/0bVdnt/pixlview/internal/renderer"
	"github.com/gdamore/tcell/v2"
)

type EventResult int

const (
	EventContinue EventResult = iota
	EventQuit
)

func (a *App) HandleEvent(ev tcell.Event) EventResult {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		return a.handleResize()
	case *tcell.EventKey:
		return a.handleKey(ev)
	}
	return EventContinue
}

func (a *App) handleResize() EventResult {
	a.render.Invalidate(renderer.DamageScreen)
	a.dirty = true
	return EventContinue
}

func (a *App) handleKey(ev *tcell.EventKey) EventResult {
	if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
		return EventQuit
	}
	if ev.Key() == tcell.KeyRune && (ev.Rune() == 'q' || ev.Rune() == 'Q') {
		return EventQuit
	}

	if a.errMsg != "" {
		a.errMsg = ""
		a.render.Invalidate(renderer.DamageVideo)
	}
	a.dirty = true

	switch ev.Key() {
	case tcell.KeyRune:
		return a.handleRune(ev.Rune())
	case tcell.KeyLeft:
		a.player.SeekBy(-a.seekSmall)
	case tcell.KeyRight:
		a.player.SeekBy(a.seekSmall)
	case tcell.KeyDown:
		a.player.SeekBy(-a.seekLarge)
	case tcell.KeyUp:
		a.player.SeekBy(a.seekLarge)
	case tcell.KeyHome:
		a.player.Seek(0)
	case tcell.KeyEnd:
		// just before the end so one frame can still be shown
		if dur := a.player.Duration(); dur > a.seekSmall {
			a.player.Seek(dur - a.seekSmall)
		}
	}
	return EventContinue
}

func (a *App) handleRune(r rune) EventResult {
	switch r {
	case ' ':
		a.check("pause", a.player.TogglePause())
	case 's', 'S':
		a.check("stop", a.player.Stop())
	case 'r', 'R':
		a.render.Invalidate(renderer.DamageScreen)
		if err := a.player.Stop(); err == nil || errors.Is(err, player.ErrNotLoaded) {
			a.check("restart", a.player.Play())
		}
	}
	return EventContinue
}

func (a *App) check(op string, err error) {
	if err == nil {
		return
	}
	a.log.Warn("%s failed: %v", op, err)
	a.errMsg = err.Error()
	a.render.Invalidate(renderer.DamageVideo)
}
