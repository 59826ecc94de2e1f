// Package logger writes timestamped, levelled log lines to a file or writer.
//
// Messages are format strings used as translation keys, so the same call
// site prints localized text when a lexicon for the user's language exists.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/mattn/go-isatty"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelQuiet
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelQuiet:
		return "quiet"
	default:
		return "unknown"
	}
}

// ParseLevel parses debug, info, warn, error or quiet.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "quiet", "off":
		return LevelQuiet, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGray   = "\033[90m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
)

// shared by a logger and every component logger derived from it
type sink struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	sync   func() error
	closed bool
}

// Thread safe logging
type Logger struct {
	sink      *sink
	level     Level
	component string
	color     bool
}

// Creates a logger writing to a new file at path. An empty path gives a
// disabled logger.
func New(path string, level Level) (*Logger, error) {
	if path == "" {
		return Noop(), nil
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	return &Logger{
		sink:  &sink{w: file, closer: file, sync: file.Sync},
		level: level,
	}, nil
}

// Creates a logger writing to w. Colour is used when w is a terminal.
func NewWriter(w io.Writer, level Level) *Logger {
	color := false
	if f, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Logger{
		sink:  &sink{w: w},
		level: level,
		color: color,
	}
}

// returns a no-op logger
func Noop() *Logger {
	return &Logger{level: LevelQuiet}
}

// Returns a logger sharing l's output that prefixes lines with component
func (l *Logger) WithComponent(component string) *Logger {
	if l == nil {
		return Noop()
	}
	c := *l
	c.component = component
	return &c
}

// Log writes a debug line. It matches the decoder's log hook.
func (l *Logger) Log(format string, args ...any) {
	l.write(LevelDebug, format, args...)
}

func (l *Logger) Debug(format string, args ...any) {
	l.write(LevelDebug, format, args...)
}

func (l *Logger) Info(format string, args ...any) {
	l.write(LevelInfo, format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.write(LevelWarn, format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.write(LevelError, format, args...)
}

// Reports whether lines at level are written
func (l *Logger) Enabled(level Level) bool {
	return l != nil && l.sink != nil && level != LevelQuiet && level >= l.level
}

// Returns whether logging is enabled
func (l *Logger) IsEnabled() bool {
	return l.Enabled(LevelError)
}

func (l *Logger) Level() Level {
	if l == nil {
		return LevelQuiet
	}
	return l.level
}

func (l *Logger) write(level Level, format string, args ...any) {
	if !l.Enabled(level) {
		return
	}

	msg := l10n.F(format, args...)
	if l.component != "" {
		if l.color {
			msg = fmt.Sprintf("%s[%s]%s %s", colorCyan, l.component, colorReset, msg)
		} else {
			msg = fmt.Sprintf("[%s] %s", l.component, msg)
		}
	}
	if l.color {
		switch level {
		case LevelDebug:
			msg = colorGray + msg + colorReset
		case LevelWarn:
			msg = colorYellow + msg + colorReset
		case LevelError:
			msg = colorRed + msg + colorReset
		}
	}

	timestamp := time.Now().Format("15:04:05.000")

	s := l.sink
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	fmt.Fprintf(s.w, "[%s] %-5s %s\n", timestamp, strings.ToUpper(level.String()), msg)
	if s.sync != nil {
		s.sync()
	}
}

// Closes the log file. Component loggers sharing it stop writing.
func (l *Logger) Close() {
	if l == nil || l.sink == nil {
		return
	}
	s := l.sink
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.closer != nil {
		s.closer.Close()
	}
}
