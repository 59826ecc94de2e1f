// Package dispatch runs tasks on a single presentation goroutine.
//
// Tasks posted to a Dispatcher run one at a time, in posting order. Invoke
// additionally waits until its task has run.
package dispatch

import (
	"context"
	"errors"
	"time"
)

// RetryInterval is how long Invoke waits before posting again to a full
// queue.
const RetryInterval = 2 * time.Millisecond

var (
	ErrClosed    = errors.New("dispatcher closed")
	ErrQueueFull = errors.New("dispatcher queue full")
)

type Dispatcher interface {
	// Post queues task without waiting for it.
	Post(task func()) error
	// Invoke queues task and blocks until it has run, ctx is done or the
	// dispatcher is closed. A full queue is retried, not reported. Calling
	// Invoke from a task deadlocks.
	Invoke(ctx context.Context, task func()) error
	Close()
}

func invoke(ctx context.Context, post func(func()) error, closed <-chan struct{}, task func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan struct{})
	wrapped := func() {
		defer close(done)
		task()
	}
	for {
		err := post(wrapped)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrQueueFull) {
			return err
		}
		timer := time.NewTimer(RetryInterval)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-closed:
			timer.Stop()
			return ErrClosed
		}
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-closed:
		// the task may have completed just before the close
		select {
		case <-done:
			return nil
		default:
			return ErrClosed
		}
	}
}
