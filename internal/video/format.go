package video

import (
	"errors"
	"fmt"
)

// ChromaRV32 is the only pixel layout the pipeline stores: packed 8-bit
// R, G, B, A, four bytes per pixel.
const ChromaRV32 = "RV32"

const (
	BytesPerPixel = 4
	MaxDimension  = 16384
)

var ErrInvalidFormat = errors.New("invalid video format")

// VideoFormat describes the storage of one frame.
type VideoFormat struct {
	Chroma string
	Width  int
	Height int
	Stride int
	Rows   int
}

// Returns the number of bytes in one frame
func (f VideoFormat) Size() int {
	return f.Stride * f.Rows
}

func (f VideoFormat) IsZero() bool {
	return f.Size() == 0
}

func (f VideoFormat) String() string {
	return fmt.Sprintf("%s %dx%d stride=%d", f.Chroma, f.Width, f.Height, f.Stride)
}

// FormatProposal is exchanged with the decoder during negotiation. The decoder
// fills Chroma, Width and Height; negotiation overwrites Chroma and sets Pitch
// and Lines, which the decoder must use for every following write.
type FormatProposal struct {
	Chroma string
	Width  int
	Height int
	Pitch  int
	Lines  int
}

// FixFormat validates a proposal, forces the packed RGBA layout and writes
// the binding pitch and line count back into it.
func FixFormat(p *FormatProposal) (VideoFormat, error) {
	if p == nil {
		return VideoFormat{}, fmt.Errorf("%w: nil proposal", ErrInvalidFormat)
	}
	if p.Width <= 0 || p.Height <= 0 {
		return VideoFormat{}, fmt.Errorf("%w: %dx%d", ErrInvalidFormat, p.Width, p.Height)
	}
	if p.Width > MaxDimension || p.Height > MaxDimension {
		return VideoFormat{}, fmt.Errorf("%w: %dx%d exceeds %d", ErrInvalidFormat, p.Width, p.Height, MaxDimension)
	}

	f := VideoFormat{
		Chroma: ChromaRV32,
		Width:  p.Width,
		Height: p.Height,
		Stride: p.Width * BytesPerPixel,
		Rows:   p.Height,
	}

	p.Chroma = f.Chroma
	p.Pitch = f.Stride
	p.Lines = f.Rows
	return f, nil
}
