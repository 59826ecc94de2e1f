package player

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Load opens source and starts playing it. A session that is playing or
// paused is stopped first.
func (p *Player) Load(source string) error {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	if p.disposed() {
		return ErrDisposed
	}

	p.stopWaiter()
	if st := p.State(); st == StatePlaying || st == StatePaused {
		if err := p.decoder.Stop(); err != nil {
			p.log.Warn("Stopping previous session failed: %v", err)
		}
	}

	if err := p.decoder.Open(source, p.callbacks); err != nil {
		p.mu.Lock()
		p.lastErr = err
		p.position = 0
		p.source = ""
		p.setStateLocked(StateIdle)
		p.mu.Unlock()
		return fmt.Errorf("open %s: %w", source, err)
	}

	session := uuid.NewString()
	p.mu.Lock()
	p.source = source
	p.session = session
	p.position = 0
	p.ended = false
	p.lastErr = nil
	p.mu.Unlock()

	p.log.Info("Loaded %s (session %s)", source, session)
	return p.start()
}

// Play resumes a paused session or restarts a stopped one.
func (p *Player) Play() error {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	if p.disposed() {
		return ErrDisposed
	}

	p.mu.Lock()
	st, ended := p.state, p.ended
	p.mu.Unlock()

	switch st {
	case StateIdle:
		return ErrNotLoaded
	case StatePlaying:
		return nil
	case StateStopped:
		if ended {
			// rewind after running out
			if err := p.decoder.Stop(); err != nil {
				p.log.Warn("Rewind failed: %v", err)
			}
			p.mu.Lock()
			p.position = 0
			p.ended = false
			p.mu.Unlock()
		}
	}
	return p.start()
}

// caller holds opMu
func (p *Player) start() error {
	p.setState(StatePlaying)

	if err := p.decoder.Play(); err != nil {
		p.mu.Lock()
		p.lastErr = err
		p.setStateLocked(StateStopped)
		p.mu.Unlock()
		return fmt.Errorf("play: %w", err)
	}

	p.startWaiter()
	return nil
}

// Pause holds playback at the current position.
func (p *Player) Pause() error {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	if p.disposed() {
		return ErrDisposed
	}

	switch p.State() {
	case StateIdle:
		return ErrNotLoaded
	case StatePlaying:
	default:
		return nil
	}

	p.stopWaiter()

	p.mu.Lock()
	if p.state != StatePlaying {
		// ran out while the wait goroutine was leaving
		p.mu.Unlock()
		return nil
	}
	p.setStateLocked(StatePaused)
	p.mu.Unlock()

	if err := p.decoder.Pause(); err != nil {
		return fmt.Errorf("pause: %w", err)
	}
	return nil
}

// Stop ends playback and rewinds to zero. Observers receive exactly one
// zero time event.
func (p *Player) Stop() error {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	if p.disposed() {
		return ErrDisposed
	}

	switch p.State() {
	case StateIdle:
		return ErrNotLoaded
	case StateStopped:
		return nil
	}

	p.stopWaiter()

	p.mu.Lock()
	if p.state == StateStopped {
		p.mu.Unlock()
		return nil
	}
	p.position = 0
	p.ended = false
	p.setStateLocked(StateStopped)
	p.mu.Unlock()

	err := p.decoder.Stop()
	p.presenter.emit(Event{Kind: EventTime, Time: 0})
	if err != nil {
		return fmt.Errorf("stop: %w", err)
	}
	return nil
}

// Seek moves playback to pos, clamped to [0, Duration]. When the duration
// is unknown only the lower bound applies. Seeking before Load or after
// Close does nothing. A failed decoder seek is logged and leaves playback
// where it was.
func (p *Player) Seek(pos time.Duration) {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	if p.disposed() || !p.State().Loaded() {
		return
	}

	pos = clampPosition(pos, p.decoder.Duration())

	wasPlaying := p.State() == StatePlaying
	if wasPlaying {
		p.stopWaiter()
	}

	err := p.decoder.Seek(pos)
	if err != nil {
		p.log.Debug("Seek to %v failed: %v", pos, err)
	}

	p.mu.Lock()
	if err == nil {
		p.position = pos
		p.ended = false
		p.presenter.emit(Event{Kind: EventTime, Time: pos})
	}
	playing := p.state == StatePlaying
	p.mu.Unlock()

	if wasPlaying && playing {
		if err != nil && runEnded(p.decoder.Done()) {
			// the failed seek took the run down; resume where it was
			if perr := p.decoder.Play(); perr != nil {
				p.log.Warn("Resuming after failed seek: %v", perr)
			}
		}
		p.startWaiter()
	}
}

func runEnded(done <-chan struct{}) bool {
	select {
	case <-done:
		return true
	default:
		return false
	}
}

// SeekBy moves playback by delta from the current position.
func (p *Player) SeekBy(delta time.Duration) {
	p.Seek(p.Position() + delta)
}

// TogglePause pauses a playing session and resumes anything else.
func (p *Player) TogglePause() error {
	if p.State() == StatePlaying {
		return p.Pause()
	}
	return p.Play()
}

func clampPosition(pos, duration time.Duration) time.Duration {
	if pos < 0 {
		return 0
	}
	if duration > 0 && pos > duration {
		return duration
	}
	return pos
}
