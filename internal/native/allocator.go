// Package native manages the fixed-size pixel blocks shared with the decoder.
//
// Blocks are handed out by an Allocator and must be returned to the same
// Allocator. Callers serialize Allocate and Free for a given buffer; the
// allocators themselves hold no locks.
package native

import (
	"errors"
	"fmt"
	"sync/atomic"
)

var ErrAllocFailed = errors.New("native allocation failed")

// Block is an exclusively owned, zero-initialised memory block.
type Block struct {
	data    []byte
	release func()
}

// Returns the block contents, nil once freed
func (b *Block) Bytes() []byte {
	if b == nil {
		return nil
	}
	return b.data
}

// Returns the block size in bytes
func (b *Block) Len() int {
	if b == nil {
		return 0
	}
	return len(b.data)
}

// Reports whether the block has been released
func (b *Block) Freed() bool {
	return b == nil || b.data == nil
}

func (b *Block) free() bool {
	if b.Freed() {
		return false
	}
	if b.release != nil {
		b.release()
	}
	b.data = nil
	b.release = nil
	return true
}

// Allocator hands out blocks of an exact size. Free is idempotent: freeing a
// nil or already freed block is a no-op.
type Allocator interface {
	Allocate(size int) (*Block, error)
	Free(b *Block)
}

// Heap allocates blocks from the Go heap.
type Heap struct{}

func NewHeap() *Heap {
	return &Heap{}
}

func (h *Heap) Allocate(size int) (*Block, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: size %d", ErrAllocFailed, size)
	}
	return &Block{data: make([]byte, size)}, nil
}

func (h *Heap) Free(b *Block) {
	if b != nil {
		b.free()
	}
}

// Counting wraps an Allocator and tracks the blocks still alive.
type Counting struct {
	// Logf, when set before first use, receives one line per allocation
	// and free.
	Logf func(format string, args ...any)

	inner  Allocator
	blocks atomic.Int64
	bytes  atomic.Int64
	total  atomic.Uint64
}

func NewCounting(inner Allocator) *Counting {
	if inner == nil {
		inner = NewHeap()
	}
	return &Counting{inner: inner}
}

func (c *Counting) Allocate(size int) (*Block, error) {
	b, err := c.inner.Allocate(size)
	if err != nil {
		return nil, err
	}
	c.blocks.Add(1)
	c.bytes.Add(int64(b.Len()))
	c.total.Add(1)
	if c.Logf != nil {
		c.Logf("Allocated %d byte block", b.Len())
	}
	return b, nil
}

func (c *Counting) Free(b *Block) {
	if b.Freed() {
		return
	}
	n := b.Len()
	c.inner.Free(b)
	c.blocks.Add(-1)
	c.bytes.Add(-int64(n))
	if c.Logf != nil {
		c.Logf("Freed %d byte block", n)
	}
}

// Returns the number of live blocks and their combined size
func (c *Counting) Live() (blocks int, bytes int64) {
	return int(c.blocks.Load()), c.bytes.Load()
}

// Returns how many blocks were ever allocated
func (c *Counting) Allocations() uint64 {
	return c.total.Load()
}

// New returns the allocator registered under name ("heap" or "libc").
func New(name string) (Allocator, error) {
	switch name {
	case "", "heap":
		return NewHeap(), nil
	case "libc":
		l, err := NewLibc()
		if err != nil {
			return nil, err
		}
		return l, nil
	default:
		return nil, fmt.Errorf("unknown allocator %q", name)
	}
}
