package tui

import (
	"fmt"
	"unicode/utf8"

	"github.com/0bVdnt/pixlview/internal/player"
	"github.com/gdamore/tcell/v2"
)

func (a *App) drawStatus(w, h, frameW, frameH int, state player.State) {
	if w < 10 || h < 5 {
		return
	}

	currentTime := a.player.Position()
	duration := a.player.Duration()
	stats := a.player.Stats()

	// Progress bar
	barY := h - 2
	bgStyle := tcell.StyleDefault.Background(tcell.ColorBlack)
	a.render.FillLine(barY, bgStyle)

	if duration > 0 {
		progress := float64(currentTime) / float64(duration)
		a.render.ProgressBar(barY, progress, tcell.ColorGreen, tcell.ColorDarkGray)
	}

	// Status bar
	statusY := h - 1
	statusStyle := tcell.StyleDefault.
		Background(tcell.ColorDarkBlue).
		Foreground(tcell.ColorWhite)

	a.render.FillLine(statusY, statusStyle)

	codec := a.meta.Codec
	if codec == "" {
		codec = "?"
	}

	counters := ""
	if stats.FramesDropped > 0 {
		counters += fmt.Sprintf(" D:%d", stats.FramesDropped)
	}
	if stats.FramesCoalesced > 0 {
		counters += fmt.Sprintf(" C:%d", stats.FramesCoalesced)
	}

	status := fmt.Sprintf(" %s %s/%s │ %s │ %dx%d%s │ Q:quit SPC:pause S:stop R:restart ←/→:seek",
		state.Icon(),
		formatDuration(currentTime),
		formatDuration(duration),
		codec,
		frameW, frameH,
		counters,
	)

	a.render.DrawText(0, statusY, truncate(status, w), statusStyle)
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
