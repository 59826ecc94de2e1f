package player

import (
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/0bVdnt/pixlview/internal/dispatch"
	"github.com/0bVdnt/pixlview/internal/logger"
	"github.com/0bVdnt/pixlview/internal/video"
)

// retryDelay is how long a flush waits before posting again to a full queue
// or retrying a cleanup that found the buffers busy.
const retryDelay = 5 * time.Millisecond

// presenter moves staged frames, events and buffer cleanups onto the
// presentation goroutine through a single flush task. At most one flush is
// queued or running at any time; work arriving while it is in flight is
// folded into it or into exactly one follow-up flush.
type presenter struct {
	disp    dispatch.Dispatcher
	handoff *video.Handoff
	log     *logger.Logger

	mu           sync.Mutex
	scheduled    bool
	framePending bool
	events       []Event
	cleanup      bool
	cleanupGen   uint64
	closed       bool

	obsMu     sync.Mutex
	observers []observer
	nextID    int

	// presentation goroutine only
	surface *image.RGBA
	format  video.VideoFormat

	presented    atomic.Uint64
	coalesced    atomic.Uint64
	postFailures atomic.Uint64
}

type observer struct {
	id int
	fn func(Event)
}

func newPresenter(disp dispatch.Dispatcher, handoff *video.Handoff, log *logger.Logger) *presenter {
	return &presenter{
		disp:    disp,
		handoff: handoff,
		log:     log,
	}
}

// schedule is called after a frame was staged.
func (pr *presenter) schedule() {
	pr.mu.Lock()
	if pr.closed {
		pr.mu.Unlock()
		return
	}
	if pr.framePending {
		pr.coalesced.Add(1)
	}
	pr.framePending = true
	start := pr.claimLocked()
	pr.mu.Unlock()

	if start {
		pr.post()
	}
}

// emit queues ev for the observers. A time event replaces a time event
// still waiting at the tail, so a stalled presentation goroutine sees only
// the latest position.
func (pr *presenter) emit(ev Event) {
	pr.mu.Lock()
	if pr.closed {
		pr.mu.Unlock()
		return
	}
	if n := len(pr.events); ev.Kind == EventTime && n > 0 && pr.events[n-1].Kind == EventTime {
		pr.events[n-1] = ev
	} else {
		pr.events = append(pr.events, ev)
	}
	start := pr.claimLocked()
	pr.mu.Unlock()

	if start {
		pr.post()
	}
}

// releaseAfter frees the buffers of session gen after the frames staged
// before it have been presented. A negotiation in between keeps them.
func (pr *presenter) releaseAfter(gen uint64) {
	pr.mu.Lock()
	if pr.closed {
		pr.mu.Unlock()
		return
	}
	pr.cleanup = true
	pr.cleanupGen = gen
	start := pr.claimLocked()
	pr.mu.Unlock()

	if start {
		pr.post()
	}
}

// claimLocked marks a flush as scheduled and reports whether the caller has
// to post it.
func (pr *presenter) claimLocked() bool {
	if pr.scheduled {
		return false
	}
	pr.scheduled = true
	return true
}

// post queues the flush. A full queue keeps the claim and retries after
// retryDelay; a closed dispatcher abandons the pending work.
func (pr *presenter) post() {
	err := pr.disp.Post(pr.flush)
	if err == nil {
		return
	}
	pr.postFailures.Add(1)
	if errors.Is(err, dispatch.ErrQueueFull) && !pr.isClosed() {
		pr.log.Debug("Presentation queue full, retrying: %v", err)
		time.AfterFunc(retryDelay, pr.retry)
		return
	}
	pr.log.Debug("Presentation post failed: %v", err)
	pr.abandon()
}

func (pr *presenter) retry() {
	if pr.isClosed() {
		pr.abandon()
		return
	}
	pr.post()
}

// abandon drops queued work when no flush can run. A pending cleanup is
// done inline; Invoke fails on a closed dispatcher, so no negotiation holds
// the buffer lock waiting for this goroutine.
func (pr *presenter) abandon() {
	pr.mu.Lock()
	cleanup := pr.cleanup && !pr.closed
	gen := pr.cleanupGen
	pr.scheduled = false
	pr.framePending = false
	pr.events = nil
	pr.cleanup = false
	pr.mu.Unlock()

	if cleanup {
		pr.handoff.CleanupGeneration(gen)
	}
}

// flush runs on the presentation goroutine. Events go out in order, then
// the latest staged frame, then any requested cleanup.
func (pr *presenter) flush() {
	pr.mu.Lock()
	if pr.closed {
		pr.scheduled = false
		pr.mu.Unlock()
		return
	}
	events := pr.events
	pr.events = nil
	frame := pr.framePending
	pr.framePending = false
	cleanup, gen := pr.cleanup, pr.cleanupGen
	pr.mu.Unlock()

	for _, ev := range events {
		pr.notify(ev)
	}
	if frame && pr.surface != nil && pr.handoff.TakeStaged(pr.surface.Pix) {
		pr.presented.Add(1)
		pr.notify(Event{Kind: EventFrame, Bounds: pr.surface.Bounds()})
	}

	busy := false
	if cleanup {
		// a negotiation may hold the buffer lock while it waits for this
		// goroutine to publish, so never block on it here
		busy = !pr.handoff.TryCleanupGeneration(gen)
	}

	pr.mu.Lock()
	if !busy && pr.cleanup && pr.cleanupGen == gen {
		pr.cleanup = false
	}
	if pr.closed || (!pr.framePending && len(pr.events) == 0 && !pr.cleanup) {
		pr.scheduled = false
		pr.mu.Unlock()
		return
	}
	onlyCleanup := !pr.framePending && len(pr.events) == 0
	pr.mu.Unlock()

	if busy && onlyCleanup {
		time.AfterFunc(retryDelay, pr.retry)
		return
	}
	pr.post()
}

// publish installs a bitmap for f. Runs on the presentation goroutine.
func (pr *presenter) publish(f video.VideoFormat) {
	if pr.isClosed() {
		return
	}
	if !video.BitmapMatches(pr.surface, f) {
		pr.surface = video.NewBitmap(f)
	}
	pr.format = f
	pr.notify(Event{Kind: EventSurface, Bounds: pr.surface.Bounds()})
}

func (pr *presenter) notify(ev Event) {
	pr.obsMu.Lock()
	observers := append([]observer(nil), pr.observers...)
	pr.obsMu.Unlock()

	for _, o := range observers {
		o.fn(ev)
	}
}

func (pr *presenter) subscribe(fn func(Event)) func() {
	pr.obsMu.Lock()
	if fn == nil || pr.isClosed() {
		pr.obsMu.Unlock()
		return func() {}
	}
	id := pr.nextID
	pr.nextID++
	pr.observers = append(pr.observers, observer{id: id, fn: fn})
	pr.obsMu.Unlock()

	return func() {
		pr.obsMu.Lock()
		defer pr.obsMu.Unlock()
		for i, o := range pr.observers {
			if o.id == id {
				pr.observers = append(pr.observers[:i:i], pr.observers[i+1:]...)
				return
			}
		}
	}
}

// close stops scheduling and drops every observer. Buffers are released
// by the player closing the handoff.
func (pr *presenter) close() {
	pr.mu.Lock()
	pr.closed = true
	pr.events = nil
	pr.framePending = false
	pr.cleanup = false
	pr.mu.Unlock()

	pr.obsMu.Lock()
	pr.observers = nil
	pr.obsMu.Unlock()
}

func (pr *presenter) isClosed() bool {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	return pr.closed
}
