// Package player drives a video.Decoder into a frame bitmap owned by a
// presentation goroutine, and controls the playback lifecycle.
//
// Control methods may be called from any goroutine, including the
// presentation goroutine. Observers and Frame belong to the presentation
// goroutine. Close must not be called from inside a decoder callback.
package player

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"

	"github.com/0bVdnt/pixlview/internal/dispatch"
	"github.com/0bVdnt/pixlview/internal/logger"
	"github.com/0bVdnt/pixlview/internal/native"
	"github.com/0bVdnt/pixlview/internal/video"
)

var (
	ErrDisposed  = errors.New("player disposed")
	ErrNotLoaded = errors.New("no media loaded")
)

const DefaultPollInterval = 100 * time.Millisecond

type Config struct {
	// PollInterval bounds how long a stop request waits to be observed by
	// the background wait goroutine.
	PollInterval time.Duration
	Logger       *logger.Logger
	// Allocator backs the frame buffers; nil uses the Go heap.
	Allocator native.Allocator
}

type Player struct {
	decoder video.Decoder
	disp    dispatch.Dispatcher
	log     *logger.Logger
	poll    time.Duration

	alloc     *native.Counting
	handoff   *video.Handoff
	presenter *presenter
	callbacks *callbacks

	// cancelled first on Close; unblocks negotiations waiting on the
	// presentation goroutine
	ctx    context.Context
	cancel context.CancelFunc

	opMu   sync.Mutex
	waiter *waiter

	mu       sync.Mutex
	state    State
	position time.Duration
	source   string
	session  string
	ended    bool
	lastErr  error
}

// Creates a player. The player never closes disp or frees memory it did
// not allocate; decoder is released by Close.
func New(decoder video.Decoder, disp dispatch.Dispatcher, cfg Config) (*Player, error) {
	if decoder == nil {
		return nil, errors.New("player: nil decoder")
	}
	if disp == nil {
		return nil, errors.New("player: nil dispatcher")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Noop()
	}
	log = log.WithComponent("player")

	alloc := native.NewCounting(cfg.Allocator)
	alloc.Logf = log.WithComponent("native").Debug
	handoff := video.NewHandoff(alloc)

	ctx, cancel := context.WithCancel(context.Background())
	p := &Player{
		decoder:   decoder,
		disp:      disp,
		log:       log,
		poll:      cfg.PollInterval,
		alloc:     alloc,
		handoff:   handoff,
		presenter: newPresenter(disp, handoff, log),
		ctx:       ctx,
		cancel:    cancel,
		state:     StateIdle,
	}
	p.callbacks = &callbacks{p: p}
	return p, nil
}

// With creates a player, runs fn and closes the player on every exit path.
func With(decoder video.Decoder, disp dispatch.Dispatcher, cfg Config, fn func(*Player) error) error {
	p, err := New(decoder, disp, cfg)
	if err != nil {
		return err
	}
	defer p.Close()
	return fn(p)
}

// Close tears the player down: it stops the wait goroutine, drops every
// observer, releases the decoder and frees the frame buffers. Safe to call
// more than once.
func (p *Player) Close() {
	p.cancel()

	p.opMu.Lock()
	defer p.opMu.Unlock()

	if p.State() == StateDisposed {
		return
	}

	p.stopWaiter()
	p.presenter.close()
	p.decoder.Release()
	p.handoff.Close()

	p.mu.Lock()
	p.state = StateDisposed
	session := p.session
	p.mu.Unlock()

	blocks, bytes := p.alloc.Live()
	p.log.Info("Player disposed (session %s, %d blocks / %d bytes live)", session, blocks, bytes)
}

func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Returns the last reported playback position
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position
}

// Returns the media duration, zero when unknown or nothing is loaded
func (p *Player) Duration() time.Duration {
	if !p.State().Loaded() {
		return 0
	}
	return p.decoder.Duration()
}

func (p *Player) Source() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.source
}

// Returns the id of the current load, empty before the first Load
func (p *Player) Session() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session
}

// Returns the error that ended the last playback run, if any
func (p *Player) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// Frame returns the current frame bitmap. It must only be called on the
// presentation goroutine and the bitmap must not be modified.
func (p *Player) Frame() *image.RGBA {
	if p.presenter.isClosed() {
		return nil
	}
	return p.presenter.surface
}

// Subscribe registers fn for events; the returned func removes it.
func (p *Player) Subscribe(fn func(Event)) (cancel func()) {
	return p.presenter.subscribe(fn)
}

func (p *Player) Stats() Stats {
	pr := p.presenter
	s := Stats{
		FramesStaged:    p.handoff.FramesStaged(),
		FramesPresented: pr.presented.Load(),
		FramesCoalesced: pr.coalesced.Load(),
		PostFailures:    pr.postFailures.Load(),
		Negotiations:    p.handoff.Negotiations(),
	}
	s.LiveBlocks, s.LiveBytes = p.alloc.Live()
	if d, ok := p.decoder.(interface{ Dropped() uint64 }); ok {
		s.FramesDropped = d.Dropped()
	}
	return s
}

func (p *Player) disposed() bool {
	return p.ctx.Err() != nil || p.State() == StateDisposed
}

// setStateLocked records s and notifies observers when it changed.
func (p *Player) setStateLocked(s State) {
	if p.state == s {
		return
	}
	p.log.Debug("State %s -> %s", p.state, s)
	p.state = s
	p.presenter.emit(Event{Kind: EventState, State: s})
}

func (p *Player) setState(s State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setStateLocked(s)
}
