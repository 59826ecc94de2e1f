package dispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
)

// Screen dispatches tasks through a tcell event queue. The goroutine that
// polls the screen becomes the presentation goroutine: it must hand every
// event to Run.
type Screen struct {
	screen tcell.Screen

	mu     sync.Mutex
	closed bool
	quit   chan struct{}
}

func NewScreen(screen tcell.Screen) *Screen {
	return &Screen{
		screen: screen,
		quit:   make(chan struct{}),
	}
}

func (d *Screen) Post(task func()) error {
	if d.isClosed() {
		return ErrClosed
	}
	if err := d.screen.PostEvent(tcell.NewEventInterrupt(task)); err != nil {
		return fmt.Errorf("%w: %v", ErrQueueFull, err)
	}
	return nil
}

func (d *Screen) Invoke(ctx context.Context, task func()) error {
	return invoke(ctx, d.Post, d.quit, task)
}

// Run executes ev if it carries a task and reports whether it did. Tasks
// reaching Run after Close are dropped.
func (d *Screen) Run(ev tcell.Event) bool {
	ie, ok := ev.(*tcell.EventInterrupt)
	if !ok {
		return false
	}
	task, ok := ie.Data().(func())
	if !ok {
		return false
	}
	if !d.isClosed() {
		task()
	}
	return true
}

// Close rejects further tasks and releases pending Invoke callers. The
// screen itself stays open.
func (d *Screen) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	close(d.quit)
}

func (d *Screen) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}
