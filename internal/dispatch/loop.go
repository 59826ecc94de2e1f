package dispatch

import (
	"context"
	"sync"
)

const DefaultQueueSize = 64

// Loop is a headless Dispatcher backed by its own goroutine.
type Loop struct {
	tasks chan func()
	quit  chan struct{}
	done  chan struct{}
	once  sync.Once
}

func NewLoop(queue int) *Loop {
	if queue <= 0 {
		queue = DefaultQueueSize
	}
	l := &Loop{
		tasks: make(chan func(), queue),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		select {
		case <-l.quit:
			return
		default:
		}

		select {
		case <-l.quit:
			return
		case task := <-l.tasks:
			task()
		}
	}
}

func (l *Loop) Post(task func()) error {
	select {
	case <-l.quit:
		return ErrClosed
	default:
	}

	select {
	case l.tasks <- task:
		return nil
	case <-l.quit:
		return ErrClosed
	default:
		return ErrQueueFull
	}
}

func (l *Loop) Invoke(ctx context.Context, task func()) error {
	return invoke(ctx, l.Post, l.quit, task)
}

// Close stops the loop and waits for the running task to finish. Queued
// tasks are dropped. Must not be called from a task.
func (l *Loop) Close() {
	l.once.Do(func() { close(l.quit) })
	<-l.done
}

// Returns a channel closed once the loop goroutine has exited
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
