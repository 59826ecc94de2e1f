package video

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"time"
)

// Holds streaming parameters
type StreamConfig struct {
	FFmpegPath  string
	Width       int
	Height      int
	StartPos    time.Duration
	TargetFPS   float64
	SingleFrame bool
}

// Calculates an appropriate FPS based on frame size
func DefaultTargetFPS(width, height int, sourceFPS float64) float64 {
	targetFPS := 30.0
	pixels := width * height
	if pixels > 1000000 {
		targetFPS = 15
	} else if pixels > 400000 {
		targetFPS = 24
	}

	if sourceFPS > 0 && targetFPS > sourceFPS {
		targetFPS = sourceFPS
	}

	return targetFPS
}

// Manages the ffmpeg decode process
type Stream struct {
	cmd    *exec.Cmd
	cancel context.CancelFunc
	stdout io.ReadCloser
	stderr io.ReadCloser

	width    int
	height   int
	fps      float64
	startPos time.Duration
	single   bool

	mu      sync.Mutex
	stopped bool
	dropped uint64
	done    chan struct{}
}

// Creates and starts a new decode process
func StartStream(path string, config StreamConfig, logFn LogFunc) (*Stream, error) {
	width := normalizeEven(config.Width, 4, MaxDimension)
	height := normalizeEven(config.Height, 4, MaxDimension)
	if config.TargetFPS <= 0 {
		config.TargetFPS = DefaultTargetFPS(width, height, 0)
	}
	ffmpeg := config.FFmpegPath
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}

	args := buildFFmpegArgs(path, width, height, config.StartPos, config.TargetFPS, config.SingleFrame)
	if logFn != nil {
		logFn("FFmpeg args: %v", args)
	}

	cmdCtx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(cmdCtx, ffmpeg, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		stdout.Close()
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		stdout.Close()
		stderr.Close()
		return nil, fmt.Errorf("start: %w", err)
	}

	if logFn != nil {
		logFn("FFmpeg started, PID=%d", cmd.Process.Pid)
	}

	return &Stream{
		cmd:      cmd,
		cancel:   cancel,
		stdout:   stdout,
		stderr:   stderr,
		width:    width,
		height:   height,
		fps:      config.TargetFPS,
		startPos: config.StartPos,
		single:   config.SingleFrame,
		done:     make(chan struct{}),
	}, nil
}

// Builds arguments for FFmpeg
func buildFFmpegArgs(path string, width, height int, startPos time.Duration, fps float64, single bool) []string {
	args := []string{
		"-threads", fmt.Sprintf("%d", runtime.NumCPU()),
	}

	if startPos > 0 {
		args = append(args, "-ss", fmt.Sprintf("%.3f", startPos.Seconds()))
	}

	args = append(args, "-i", path)
	if single {
		args = append(args, "-frames:v", "1")
	}

	args = append(args,
		"-vf", fmt.Sprintf("fps=%.2f,scale=%d:%d", fps, width, height),
		"-pix_fmt", "rgba",
		"-f", "rawvideo",
		"-an",
		"-sn",
		"-loglevel", "error",
		"-",
	)
	return args
}

// Run drives cb with the frames read from the process until the stream ends
// or is stopped. It returns nil on end of stream and on Stop.
func (s *Stream) Run(cb Callbacks, logFn LogFunc) (err error) {
	defer func() {
		close(s.done)
		s.stdout.Close()
		s.cmd.Wait()
		if logFn != nil {
			logFn("Stream read loop exited")
		}
		if s.isStopped() {
			err = nil
		}
	}()

	go s.drainStderr(logFn)

	proposal := &FormatProposal{Chroma: "I420", Width: s.width, Height: s.height}
	if err := cb.FormatProposed(proposal); err != nil {
		return fmt.Errorf("format negotiation: %w", err)
	}
	defer cb.FormatCleanup()

	// ffmpeg writes tightly packed rgba rows
	if proposal.Pitch != s.width*BytesPerPixel || proposal.Lines != s.height {
		return fmt.Errorf("%w: pitch %d lines %d for %dx%d output",
			ErrDecodeFailed, proposal.Pitch, proposal.Lines, s.width, s.height)
	}
	frameSize := proposal.Pitch * proposal.Lines
	frameDuration := time.Duration(float64(time.Second) / s.fps)
	reader := bufio.NewReaderSize(s.stdout, frameSize*2)

	currentTime := s.startPos
	playbackStart := time.Now()
	frameNum := 0

	for {
		if s.isStopped() {
			return nil
		}

		var readErr error
		locked := cb.LockBuffer(func(pix []byte) {
			if len(pix) < frameSize {
				readErr = ErrDecodeFailed
				return
			}
			_, readErr = io.ReadFull(reader, pix[:frameSize])
		})
		if !locked {
			_, readErr = io.CopyN(io.Discard, reader, int64(frameSize))
		}
		if readErr != nil {
			if frameNum == 0 && !s.isStopped() {
				return fmt.Errorf("%w: %v", ErrDecodeFailed, readErr)
			}
			return nil
		}

		// Timing check for frame dropping
		expectedTime := playbackStart.Add(time.Duration(frameNum) * frameDuration)
		lag := time.Since(expectedTime)

		if lag > frameDuration*5 && !s.single {
			s.mu.Lock()
			s.dropped++
			s.mu.Unlock()
		} else if locked {
			cb.FrameDisplayed()
		}
		cb.TimeChanged(currentTime.Milliseconds())

		frameNum++
		currentTime += frameDuration

		// Pace control
		if lag < -5*time.Millisecond {
			time.Sleep(-lag - 2*time.Millisecond)
		}
	}
}

func (s *Stream) drainStderr(logFn LogFunc) {
	buf := make([]byte, 1024)
	for {
		n, err := s.stderr.Read(buf)
		if n > 0 && logFn != nil {
			logFn("FFmpeg stderr: %s", string(buf[:n]))
		}
		if err != nil {
			break
		}
	}
	s.stderr.Close()
}

func (s *Stream) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// Terminates the stream. With wait set it blocks until the read loop has
// exited, otherwise it gives the loop a short grace period.
func (s *Stream) Stop(wait bool, logFn LogFunc) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		if wait {
			<-s.done
		}
		return
	}
	s.stopped = true
	s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	if s.cmd != nil && s.cmd.Process != nil {
		if err := s.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) && logFn != nil {
			logFn("FFmpeg kill: %v", err)
		}
	}

	if wait {
		<-s.done
		return
	}
	select {
	case <-s.done:
	case <-time.After(500 * time.Millisecond):
	}
}

// Returns a channel that's closed when the stream finishes
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Returns how many decoded frames were skipped to keep up
func (s *Stream) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func normalizeEven(v, min, max int) int {
	v = (v / 2) * 2
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
