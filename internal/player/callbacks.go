package player

import (
	"sync/atomic"
	"time"

	"github.com/0bVdnt/pixlview/internal/video"
)

// callbacks is what the decoder goroutine calls into.
type callbacks struct {
	p *Player
}

func (c *callbacks) FormatProposed(prop *video.FormatProposal) error {
	p := c.p
	if p.ctx.Err() != nil {
		return ErrDisposed
	}

	f, err := p.handoff.Negotiate(prop, func(f video.VideoFormat) error {
		return p.disp.Invoke(p.ctx, func() { p.presenter.publish(f) })
	})
	if err != nil {
		if p.ctx.Err() != nil {
			return ErrDisposed
		}
		p.mu.Lock()
		p.lastErr = err
		p.mu.Unlock()
		p.log.Error("Format negotiation failed: %v", err)
		return err
	}

	p.log.Info("Format negotiated: %s, %d bytes per frame", f, f.Size())
	return nil
}

func (c *callbacks) LockBuffer(fill func(pix []byte)) bool {
	return c.p.handoff.LockForWrite(fill)
}

func (c *callbacks) FrameDisplayed() {
	p := c.p
	if p.handoff.FrameReady() {
		p.presenter.schedule()
	}
}

// FormatCleanup releases the buffers once the presentation goroutine has
// taken the last staged frame. A renegotiation in between keeps them.
func (c *callbacks) FormatCleanup() {
	c.p.presenter.releaseAfter(c.p.handoff.Generation())
}

func (c *callbacks) TimeChanged(ms int64) {
	p := c.p
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctx.Err() != nil || (p.state != StatePlaying && p.state != StatePaused) {
		return
	}
	p.position = time.Duration(ms) * time.Millisecond
	p.presenter.emit(Event{Kind: EventTime, Time: p.position})
}

// waiter watches one playback run. It leaves when the decoder finishes or,
// within one poll interval, when stop is set.
type waiter struct {
	stop atomic.Bool
	done chan struct{}
}

// caller holds opMu
func (p *Player) startWaiter() {
	w := &waiter{done: make(chan struct{})}
	p.waiter = w
	go p.wait(w, p.decoder.Done())
}

// caller holds opMu
func (p *Player) stopWaiter() {
	w := p.waiter
	if w == nil {
		return
	}
	p.waiter = nil
	w.stop.Store(true)
	<-w.done
}

func (p *Player) wait(w *waiter, decoderDone <-chan struct{}) {
	defer close(w.done)

	ticker := time.NewTicker(p.poll)
	defer ticker.Stop()

	for {
		select {
		case <-decoderDone:
			if !w.stop.Load() {
				p.finished()
			}
			return
		case <-ticker.C:
			if w.stop.Load() {
				return
			}
		}
	}
}

// finished handles the decoder ending a run by itself.
func (p *Player) finished() {
	var runErr error
	if d, ok := p.decoder.(interface{ LastError() error }); ok {
		runErr = d.LastError()
	}

	p.mu.Lock()
	if p.state != StatePlaying {
		p.mu.Unlock()
		return
	}
	p.ended = true
	if runErr != nil {
		p.lastErr = runErr
	}
	p.setStateLocked(StateStopped)
	position := p.position
	p.mu.Unlock()

	if runErr != nil {
		p.log.Error("Playback stopped: %v", runErr)
		return
	}
	p.log.Info("Playback finished at %v", position)
}
