package player

import (
	"image"
	"time"
)

type State int

const (
	StateIdle State = iota
	StatePlaying
	StatePaused
	StateStopped
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

func (s State) Icon() string {
	switch s {
	case StatePlaying:
		return "▶"
	case StatePaused:
		return "⏸"
	case StateStopped:
		return "⏹"
	case StateDisposed:
		return "✕"
	default:
		return "○"
	}
}

// Loaded reports whether a source is open in this state.
func (s State) Loaded() bool {
	return s == StatePlaying || s == StatePaused || s == StateStopped
}

type EventKind int

const (
	// EventFrame: the current frame was rewritten.
	EventFrame EventKind = iota
	// EventTime: the playback position changed.
	EventTime
	// EventState: the playback state changed.
	EventState
	// EventSurface: a new frame bitmap replaced the previous one.
	EventSurface
)

func (k EventKind) String() string {
	switch k {
	case EventFrame:
		return "frame"
	case EventTime:
		return "time"
	case EventState:
		return "state"
	case EventSurface:
		return "surface"
	default:
		return "unknown"
	}
}

// Event is delivered to observers on the presentation goroutine.
type Event struct {
	Kind   EventKind
	Time   time.Duration
	State  State
	Bounds image.Rectangle
}

// Stats are pipeline counters.
type Stats struct {
	FramesStaged    uint64
	FramesPresented uint64
	FramesCoalesced uint64
	FramesDropped   uint64
	PostFailures    uint64
	Negotiations    uint64
	LiveBlocks      int
	LiveBytes       int64
}
