// Package renderer draws frame bitmaps and status widgets on a tcell screen.
//
// Drawing happens in frames: BeginFrame applies the damage recorded since
// the last frame, the caller draws, and EndFrame flushes the cells. Frame
// images are diffed against the cells of the previous frame, so only
// changed half blocks are written.
package renderer

import (
	"fmt"
	"image"
	"sync"

	"github.com/gdamore/tcell/v2"
)

// Damage is how much of the screen a change invalidated.
type Damage int

const (
	DamageNone Damage = iota
	// DamageVideo repaints the video area above the status rows.
	DamageVideo
	// DamageScreen repaints the whole terminal, e.g. after a resize.
	DamageScreen
)

// fallback size once the screen is gone
const (
	closedWidth  = 80
	closedHeight = 24
)

var videoBackground = tcell.StyleDefault.Background(tcell.ColorBlack)

type Renderer struct {
	mu     sync.Mutex
	screen tcell.Screen
	closed bool

	damage Damage
	scene  int

	// packed colours of the cells drawn by the last image
	cells        []uint64
	cellW, cellH int

	// scaling target reused between frames
	scaled *image.RGBA
}

// Creates a renderer on the terminal
func New() (*Renderer, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("create screen: %w", err)
	}
	return NewWithScreen(screen)
}

// NewWithScreen initialises screen and draws on it. The first frame
// repaints the video area.
func NewWithScreen(screen tcell.Screen) (*Renderer, error) {
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init screen: %w", err)
	}
	screen.SetStyle(videoBackground)
	screen.HideCursor()
	screen.Clear()

	return &Renderer{
		screen: screen,
		damage: DamageVideo,
	}, nil
}

func (r *Renderer) Screen() tcell.Screen {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.screen
}

func (r *Renderer) Size() (width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.usableLocked() {
		return closedWidth, closedHeight
	}
	return r.screen.Size()
}

// Invalidate records damage for the next BeginFrame. The widest damage
// recorded wins.
func (r *Renderer) Invalidate(d Damage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.damage = max(r.damage, d)
}

// BeginFrame starts a frame showing scene and returns the screen size.
// Recorded damage, or a scene other than the last frame's, clears the
// video area above statusRows and forgets the cells of the last image.
func (r *Renderer) BeginFrame(scene, statusRows int) (width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.usableLocked() {
		return closedWidth, closedHeight
	}
	if scene != r.scene {
		r.damage = max(r.damage, DamageVideo)
		r.scene = scene
	}

	switch r.damage {
	case DamageScreen:
		r.screen.Sync()
		r.screen.Clear()
		r.cells = nil
	case DamageVideo:
		w, h := r.screen.Size()
		for y := 0; y < h-statusRows; y++ {
			for x := 0; x < w; x++ {
				r.screen.SetContent(x, y, ' ', nil, videoBackground)
			}
		}
		r.cells = nil
	}
	r.damage = DamageNone
	return r.screen.Size()
}

// EndFrame flushes the cells drawn since BeginFrame.
func (r *Renderer) EndFrame() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.usableLocked() {
		r.screen.Show()
	}
}

func (r *Renderer) IsClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.usableLocked()
}

// Close restores the terminal. Drawing after Close does nothing.
func (r *Renderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	if r.screen != nil {
		r.screen.Fini()
		r.screen = nil
	}
}

// caller holds mu
func (r *Renderer) usableLocked() bool {
	return r.screen != nil && !r.closed
}
