package video

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/0bVdnt/pixlview/internal/native"
)

var ErrHandoffClosed = errors.New("frame handoff closed")

// Handoff is the double buffer between the decoder and the presentation side.
//
// The decoder writes into the raw block under bufMu; FrameReady copies the
// raw block into the staged block; TakeStaged copies the staged block out.
// Lock order is always bufMu before stagedMu.
type Handoff struct {
	alloc native.Allocator

	bufMu  sync.Mutex
	format VideoFormat
	raw    *native.Block
	closed bool

	stagedMu sync.Mutex
	staged   *native.Block

	negotiations atomic.Uint64
	stagedCount  atomic.Uint64
}

// Creates a handoff drawing its blocks from alloc
func NewHandoff(alloc native.Allocator) *Handoff {
	if alloc == nil {
		alloc = native.NewHeap()
	}
	return &Handoff{alloc: alloc}
}

// Negotiate fixes the proposal, replaces both blocks and calls publish with
// the new format while still holding the buffer lock. Any failure leaves the
// handoff without buffers.
func (h *Handoff) Negotiate(p *FormatProposal, publish func(VideoFormat) error) (VideoFormat, error) {
	h.bufMu.Lock()
	defer h.bufMu.Unlock()

	if h.closed {
		return VideoFormat{}, ErrHandoffClosed
	}

	f, err := FixFormat(p)
	if err != nil {
		return VideoFormat{}, err
	}

	h.alloc.Free(h.raw)
	h.raw = nil
	h.format = VideoFormat{}

	raw, err := h.alloc.Allocate(f.Size())
	if err != nil {
		h.releaseStaged()
		return VideoFormat{}, fmt.Errorf("raw frame buffer: %w", err)
	}

	h.stagedMu.Lock()
	h.alloc.Free(h.staged)
	h.staged, err = h.alloc.Allocate(f.Size())
	h.stagedMu.Unlock()
	if err != nil {
		h.alloc.Free(raw)
		return VideoFormat{}, fmt.Errorf("staged frame buffer: %w", err)
	}

	h.raw = raw
	h.format = f
	h.negotiations.Add(1)

	if publish != nil {
		if err := publish(f); err != nil {
			h.releaseLocked()
			return VideoFormat{}, fmt.Errorf("publish surface: %w", err)
		}
	}
	return f, nil
}

// LockForWrite runs fill with the raw block while holding the buffer lock.
// It is a no-op returning false when no format has been negotiated.
func (h *Handoff) LockForWrite(fill func(pix []byte)) bool {
	h.bufMu.Lock()
	defer h.bufMu.Unlock()

	if h.raw.Freed() {
		return false
	}
	fill(h.raw.Bytes())
	return true
}

// FrameReady copies the whole raw block into the staged block.
func (h *Handoff) FrameReady() bool {
	h.bufMu.Lock()
	defer h.bufMu.Unlock()

	if h.raw.Freed() {
		return false
	}

	h.stagedMu.Lock()
	defer h.stagedMu.Unlock()

	if h.staged.Len() != h.raw.Len() {
		return false
	}
	copy(h.staged.Bytes(), h.raw.Bytes())
	h.stagedCount.Add(1)
	return true
}

// TakeStaged copies the staged frame into dst. Nothing is copied unless dst
// is exactly one frame long.
func (h *Handoff) TakeStaged(dst []byte) bool {
	h.stagedMu.Lock()
	defer h.stagedMu.Unlock()

	if h.staged.Freed() || len(dst) != h.staged.Len() {
		return false
	}
	copy(dst, h.staged.Bytes())
	return true
}

// Cleanup releases both blocks; the next negotiation allocates new ones.
func (h *Handoff) Cleanup() {
	h.bufMu.Lock()
	defer h.bufMu.Unlock()
	h.releaseLocked()
}

// CleanupGeneration releases both blocks unless a negotiation has happened
// since Generation returned gen.
func (h *Handoff) CleanupGeneration(gen uint64) bool {
	h.bufMu.Lock()
	defer h.bufMu.Unlock()
	if h.negotiations.Load() != gen {
		return false
	}
	h.releaseLocked()
	return true
}

// TryCleanupGeneration is CleanupGeneration for callers that must not wait
// on the buffer lock, such as the presentation goroutine while a
// negotiation is publishing to it. It reports false only when gen is still
// current and the lock is busy; the caller retries later.
func (h *Handoff) TryCleanupGeneration(gen uint64) bool {
	if h.negotiations.Load() != gen {
		return true
	}
	if !h.bufMu.TryLock() {
		return false
	}
	defer h.bufMu.Unlock()
	if h.negotiations.Load() == gen {
		h.releaseLocked()
	}
	return true
}

// Close releases both blocks and refuses further negotiation. Safe to call
// more than once and concurrently with the decoder callbacks.
func (h *Handoff) Close() {
	h.bufMu.Lock()
	defer h.bufMu.Unlock()
	h.releaseLocked()
	h.closed = true
}

// Returns the currently negotiated format
func (h *Handoff) Format() VideoFormat {
	h.bufMu.Lock()
	defer h.bufMu.Unlock()
	return h.format
}

// Returns how many negotiations succeeded
func (h *Handoff) Negotiations() uint64 {
	return h.negotiations.Load()
}

// Generation identifies the current format session.
func (h *Handoff) Generation() uint64 {
	return h.negotiations.Load()
}

// Returns how many frames were copied into the staged block
func (h *Handoff) FramesStaged() uint64 {
	return h.stagedCount.Load()
}

// caller holds bufMu
func (h *Handoff) releaseLocked() {
	h.alloc.Free(h.raw)
	h.raw = nil
	h.format = VideoFormat{}
	h.releaseStaged()
}

func (h *Handoff) releaseStaged() {
	h.stagedMu.Lock()
	h.alloc.Free(h.staged)
	h.staged = nil
	h.stagedMu.Unlock()
}
