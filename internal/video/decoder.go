package video

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"
)

type LogFunc func(format string, args ...any)

var (
	ErrNoVideoStream  = errors.New("no video stream found")
	ErrDecodeFailed   = errors.New("decode failed")
	ErrFFmpegNotFound = errors.New("ffmpeg not found")
	ErrNotOpen        = errors.New("no media opened")

	errStreamReplaced = errors.New("stream replaced")
)

// Callbacks is the contract a Decoder drives from its own goroutine while it
// decodes.
type Callbacks interface {
	// FormatProposed fixes the proposal in place. A non-nil error aborts the
	// decode session.
	FormatProposed(p *FormatProposal) error

	// LockBuffer calls fill with the buffer for the next frame. It returns
	// false, without calling fill, when there is nowhere to write.
	LockBuffer(fill func(pix []byte)) bool

	// FrameDisplayed signals that the frame written last is complete.
	FrameDisplayed()

	// FormatCleanup ends the format session started by FormatProposed.
	FormatCleanup()

	// TimeChanged reports the playback offset in milliseconds.
	TimeChanged(ms int64)
}

// Decoder produces frames through Callbacks.
type Decoder interface {
	Open(source string, cb Callbacks) error
	Play() error
	Pause() error
	Stop() error
	Seek(pos time.Duration) error
	Duration() time.Duration

	// Done is closed when the current playback run ends for any reason.
	Done() <-chan struct{}

	// Release stops decoding and waits for the decode goroutine to exit.
	Release()
}

// FFmpegConfig holds settings for the ffmpeg backed decoder
type FFmpegConfig struct {
	FFmpegPath  string
	FFprobePath string
	TargetFPS   float64
	MaxWidth    int
	MaxHeight   int
}

func (c FFmpegConfig) withDefaults() FFmpegConfig {
	if c.FFmpegPath == "" {
		c.FFmpegPath = "ffmpeg"
	}
	if c.FFprobePath == "" {
		c.FFprobePath = "ffprobe"
	}
	if c.MaxWidth <= 0 {
		c.MaxWidth = 640
	}
	if c.MaxHeight <= 0 {
		c.MaxHeight = 360
	}
	return c
}

// FFmpegDecoder decodes with an ffmpeg child process and pushes packed RGBA
// frames through Callbacks.
type FFmpegDecoder struct {
	cfg   FFmpegConfig
	logFn LogFunc

	mu       sync.Mutex
	path     string
	metadata Metadata
	width    int
	height   int
	cb       Callbacks
	stream   *Stream
	done     chan struct{}
	position time.Duration
	lastErr  error
	dropped  uint64
	released bool

	runs sync.WaitGroup
}

// Creates a new ffmpeg decoder
func NewFFmpegDecoder(cfg FFmpegConfig, logFn LogFunc) *FFmpegDecoder {
	if logFn == nil {
		logFn = func(format string, args ...any) {}
	}
	done := make(chan struct{})
	close(done)
	return &FFmpegDecoder{
		cfg:   cfg.withDefaults(),
		logFn: logFn,
		done:  done,
	}
}

func (d *FFmpegDecoder) Open(source string, cb Callbacks) error {
	if cb == nil {
		return errors.New("nil callbacks")
	}
	info, err := os.Stat(source)
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}
	d.logFn("File: %s (%d bytes)", source, info.Size())

	if _, err := exec.LookPath(d.cfg.FFmpegPath); err != nil {
		return fmt.Errorf("%w: %s", ErrFFmpegNotFound, d.cfg.FFmpegPath)
	}

	meta, err := ProbeFile(source, d.cfg.FFprobePath)
	if err != nil {
		return err
	}
	d.logFn("Metadata: %dx%d @ %.2f fps, codec=%s, duration=%v",
		meta.Width, meta.Height, meta.FPS, meta.Codec, meta.Duration)

	d.stopStream(true)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return errors.New("decoder released")
	}
	d.path = source
	d.metadata = *meta
	d.width, d.height = FitDimensions(meta.Width, meta.Height, d.cfg.MaxWidth, d.cfg.MaxHeight)
	d.cb = cb
	d.position = 0
	d.lastErr = nil
	return nil
}

// Returns video metadata
func (d *FFmpegDecoder) Metadata() Metadata {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.metadata
}

func (d *FFmpegDecoder) Duration() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.metadata.Duration
}

func (d *FFmpegDecoder) Done() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.done
}

// Returns the error that ended the last run, if any
func (d *FFmpegDecoder) LastError() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastErr
}

// Returns how many decoded frames were skipped to keep pace
func (d *FFmpegDecoder) Dropped() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := d.dropped
	if d.stream != nil {
		n += d.stream.Dropped()
	}
	return n
}

func (d *FFmpegDecoder) IsRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stream != nil
}

func (d *FFmpegDecoder) Play() error {
	d.mu.Lock()
	s := d.stream
	pos := d.position
	d.mu.Unlock()
	if s != nil && !s.single {
		return nil
	}
	d.stopStream(false)
	return d.startStream(pos, false)
}

// Pause stops the child process and keeps the position for the next Play
func (d *FFmpegDecoder) Pause() error {
	d.stopStream(false)
	return nil
}

func (d *FFmpegDecoder) Stop() error {
	d.stopStream(false)
	d.mu.Lock()
	d.position = 0
	d.mu.Unlock()
	return nil
}

// Seek restarts decoding at pos. When nothing is playing a single frame at
// pos is decoded so the surface shows the new position. The replacement
// starts before the old stream is stopped; if it cannot start, the old
// stream keeps running and the position is unchanged.
func (d *FFmpegDecoder) Seek(pos time.Duration) error {
	d.mu.Lock()
	if d.path == "" || d.released {
		d.mu.Unlock()
		return ErrNotOpen
	}
	old := d.stream
	running := old != nil && !old.single
	prev := d.position
	d.position = pos
	d.mu.Unlock()

	if err := d.startStream(pos, !running); err != nil {
		d.mu.Lock()
		if d.stream == old {
			d.position = prev
		}
		d.mu.Unlock()
		return err
	}
	if old != nil {
		old.Stop(false, d.logFn)
	}
	return nil
}

// Release also waits for streams that were stopped earlier without waiting.
func (d *FFmpegDecoder) Release() {
	d.mu.Lock()
	d.released = true
	d.mu.Unlock()
	d.stopStream(true)
	d.runs.Wait()
}

func (d *FFmpegDecoder) startStream(pos time.Duration, single bool) error {
	d.mu.Lock()
	if d.path == "" || d.released {
		d.mu.Unlock()
		return ErrNotOpen
	}

	targetFPS := d.cfg.TargetFPS
	if targetFPS <= 0 {
		targetFPS = DefaultTargetFPS(d.width, d.height, d.metadata.FPS)
	}

	config := StreamConfig{
		FFmpegPath:  d.cfg.FFmpegPath,
		Width:       d.width,
		Height:      d.height,
		StartPos:    pos,
		TargetFPS:   targetFPS,
		SingleFrame: single,
	}
	d.logFn("StartStream: %dx%d @ %.1f fps, startPos=%v, single=%v",
		config.Width, config.Height, config.TargetFPS, pos, single)

	stream, err := StartStream(d.path, config, d.logFn)
	if err != nil {
		d.mu.Unlock()
		return err
	}

	done := make(chan struct{})
	d.stream = stream
	d.done = done
	cb := d.cb
	d.runs.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.runs.Done()
		defer close(done)
		err := stream.Run(&trackingCallbacks{Callbacks: cb, d: d, s: stream}, d.logFn)

		d.mu.Lock()
		if d.stream == stream {
			d.stream = nil
		}
		if err != nil && !errors.Is(err, errStreamReplaced) {
			d.lastErr = err
		}
		d.dropped += stream.Dropped()
		d.mu.Unlock()

		if err != nil {
			d.logFn("Stream ended with error: %v", err)
		}
	}()
	return nil
}

// stopStream terminates the current stream. Release waits for the decode
// goroutine to exit; the other controls bound the wait like the read loop
// shutdown always has.
func (d *FFmpegDecoder) stopStream(wait bool) {
	d.mu.Lock()
	stream := d.stream
	d.stream = nil
	d.mu.Unlock()

	if stream != nil {
		stream.Stop(wait, d.logFn)
	}
}

func (d *FFmpegDecoder) current(s *Stream) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stream == s
}

// trackingCallbacks drops callbacks from streams that have been replaced and
// keeps the decoder position in step with the reported time.
type trackingCallbacks struct {
	Callbacks
	d *FFmpegDecoder
	s *Stream
}

func (t *trackingCallbacks) FormatProposed(p *FormatProposal) error {
	if !t.d.current(t.s) {
		return errStreamReplaced
	}
	return t.Callbacks.FormatProposed(p)
}

func (t *trackingCallbacks) FormatCleanup() {
	if t.d.current(t.s) {
		t.Callbacks.FormatCleanup()
	}
}

func (t *trackingCallbacks) LockBuffer(fill func(pix []byte)) bool {
	if !t.d.current(t.s) {
		return false
	}
	return t.Callbacks.LockBuffer(fill)
}

func (t *trackingCallbacks) FrameDisplayed() {
	if t.d.current(t.s) {
		t.Callbacks.FrameDisplayed()
	}
}

func (t *trackingCallbacks) TimeChanged(ms int64) {
	t.d.mu.Lock()
	current := t.d.stream == t.s
	if current {
		t.d.position = time.Duration(ms) * time.Millisecond
	}
	t.d.mu.Unlock()

	if current {
		t.Callbacks.TimeChanged(ms)
	}
}

// FitDimensions scales width x height down to fit maxW x maxH, keeping the
// aspect ratio and even sizes.
func FitDimensions(width, height, maxW, maxH int) (int, int) {
	if width <= 0 || height <= 0 {
		return normalizeEven(maxW, 4, MaxDimension), normalizeEven(maxH, 4, MaxDimension)
	}
	w, h := width, height
	if maxW > 0 && w > maxW {
		h = h * maxW / w
		w = maxW
	}
	if maxH > 0 && h > maxH {
		w = w * maxH / h
		h = maxH
	}
	return normalizeEven(w, 4, MaxDimension), normalizeEven(h, 4, MaxDimension)
}
