package mocks

import (
	"context"
	"sync"

	"github.com/0bVdnt/pixlview/internal/dispatch"
)

// Dispatcher queues posted tasks until the test runs them. Invoke runs
// the queued tasks first and then its own, all on the calling goroutine, so
// its task sees the same FIFO order a real dispatcher gives it.
type Dispatcher struct {
	mu      sync.Mutex
	queue   []func()
	closed  bool
	posts   int
	postErr error
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

func (d *Dispatcher) Post(task func()) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return dispatch.ErrClosed
	}
	if d.postErr != nil {
		return d.postErr
	}
	d.queue = append(d.queue, task)
	d.posts++
	return nil
}

func (d *Dispatcher) Invoke(ctx context.Context, task func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return dispatch.ErrClosed
	}
	d.RunPending()
	task()
	return nil
}

// SetPostErr makes every following Post fail with err until it is reset
// with nil.
func (d *Dispatcher) SetPostErr(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.postErr = err
}

func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.queue = nil
}

// Returns the number of queued tasks
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// Returns the number of accepted posts
func (d *Dispatcher) Posts() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.posts
}

// RunNext runs the oldest queued task and reports whether there was one.
func (d *Dispatcher) RunNext() bool {
	d.mu.Lock()
	if len(d.queue) == 0 {
		d.mu.Unlock()
		return false
	}
	task := d.queue[0]
	d.queue = d.queue[1:]
	d.mu.Unlock()

	task()
	return true
}

// RunPending runs tasks until the queue is empty, including tasks posted
// while running, and returns how many ran.
func (d *Dispatcher) RunPending() int {
	n := 0
	for d.RunNext() {
		n++
	}
	return n
}
