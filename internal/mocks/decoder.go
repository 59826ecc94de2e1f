// Package mocks provides hand-written fakes of the decoder and the
// presentation dispatcher for tests.
package mocks

import (
	"errors"
	"sync"
	"time"

	"github.com/0bVdnt/pixlview/internal/video"
)

var ErrReleased = errors.New("decoder released")

// Decoder is a scripted video.Decoder. Tests play the decoder goroutine by
// calling the registered callbacks through Callbacks.
type Decoder struct {
	OpenErr error
	PlayErr error
	SeekErr error

	mu       sync.Mutex
	cb       video.Callbacks
	source   string
	duration time.Duration
	position time.Duration
	playing  bool
	released bool
	done     chan struct{}
	calls    []string
}

func NewDecoder(duration time.Duration) *Decoder {
	done := make(chan struct{})
	close(done)
	return &Decoder{duration: duration, done: done}
}

func (d *Decoder) record(call string) {
	d.calls = append(d.calls, call)
}

func (d *Decoder) Open(source string, cb video.Callbacks) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("open")
	if d.released {
		return ErrReleased
	}
	if d.OpenErr != nil {
		return d.OpenErr
	}
	d.finishLocked()
	d.cb = cb
	d.source = source
	d.position = 0
	return nil
}

func (d *Decoder) Play() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("play")
	if d.PlayErr != nil {
		return d.PlayErr
	}
	if d.cb == nil || d.released {
		return video.ErrNotOpen
	}
	if !d.playing {
		d.playing = true
		d.done = make(chan struct{})
	}
	return nil
}

func (d *Decoder) Pause() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("pause")
	d.finishLocked()
	return nil
}

func (d *Decoder) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("stop")
	d.finishLocked()
	d.position = 0
	return nil
}

func (d *Decoder) Seek(pos time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("seek")
	if d.SeekErr != nil {
		return d.SeekErr
	}
	if d.cb == nil {
		return video.ErrNotOpen
	}
	d.position = pos
	if d.playing {
		// restart the run the way a seek restarts decoding
		close(d.done)
		d.done = make(chan struct{})
	}
	return nil
}

func (d *Decoder) Duration() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.duration
}

func (d *Decoder) Done() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.done
}

func (d *Decoder) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("release")
	d.finishLocked()
	d.released = true
}

// End simulates the media running out while playing.
func (d *Decoder) End() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.finishLocked()
}

func (d *Decoder) finishLocked() {
	if d.playing {
		d.playing = false
		close(d.done)
	}
}

// Returns the callbacks passed to the last successful Open
func (d *Decoder) Callbacks() video.Callbacks {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cb
}

func (d *Decoder) Source() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.source
}

func (d *Decoder) Position() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.position
}

func (d *Decoder) Playing() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.playing
}

func (d *Decoder) Released() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.released
}

// Returns the control calls received so far, in order
func (d *Decoder) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

// Counts how many times call was made
func (d *Decoder) Count(call string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.calls {
		if c == call {
			n++
		}
	}
	return n
}

// Negotiate proposes a format through the registered callbacks.
func (d *Decoder) Negotiate(width, height int) (*video.FormatProposal, error) {
	p := &video.FormatProposal{Chroma: "I420", Width: width, Height: height}
	return p, d.Callbacks().FormatProposed(p)
}

// Frame writes one frame filled with v and signals it complete. It reports
// whether the buffer could be locked.
func (d *Decoder) Frame(v byte) bool {
	cb := d.Callbacks()
	locked := cb.LockBuffer(func(pix []byte) {
		for i := range pix {
			pix[i] = v
		}
	})
	if locked {
		cb.FrameDisplayed()
	}
	return locked
}
