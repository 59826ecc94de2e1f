//go:build !darwin && !linux

package native

import (
	"errors"
	"fmt"
)

// Libc is only available on linux and darwin.
type Libc struct{}

func NewLibc() (*Libc, error) {
	return nil, fmt.Errorf("load libc: %w", errors.ErrUnsupported)
}

func (l *Libc) Allocate(size int) (*Block, error) {
	return nil, fmt.Errorf("%w: libc allocator unsupported", ErrAllocFailed)
}

func (l *Libc) Free(b *Block) {
	if b != nil {
		b.free()
	}
}
