package native

import (
	"errors"
	"runtime"
	"testing"
)

func TestHeap_AllocateZeroed(t *testing.T) {
	h := NewHeap()

	b, err := h.Allocate(64)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if b.Len() != 64 {
		t.Errorf("Len() = %d, want 64", b.Len())
	}
	for i, v := range b.Bytes() {
		if v != 0 {
			t.Fatalf("byte %d = %d, want 0", i, v)
		}
	}
}

func TestHeap_AllocateInvalidSize(t *testing.T) {
	h := NewHeap()

	for _, size := range []int{0, -1} {
		if _, err := h.Allocate(size); !errors.Is(err, ErrAllocFailed) {
			t.Errorf("Allocate(%d) error = %v, want ErrAllocFailed", size, err)
		}
	}
}

func TestHeap_FreeIdempotent(t *testing.T) {
	h := NewHeap()

	b, err := h.Allocate(16)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	h.Free(b)
	if !b.Freed() {
		t.Error("expected block to be freed")
	}
	if b.Bytes() != nil {
		t.Error("expected nil bytes after free")
	}

	// Should not panic
	h.Free(b)
	h.Free(nil)
}

func TestCounting_Live(t *testing.T) {
	c := NewCounting(NewHeap())

	a, _ := c.Allocate(100)
	b, _ := c.Allocate(50)

	blocks, bytes := c.Live()
	if blocks != 2 || bytes != 150 {
		t.Errorf("Live() = %d, %d; want 2, 150", blocks, bytes)
	}

	c.Free(a)
	c.Free(a)
	blocks, bytes = c.Live()
	if blocks != 1 || bytes != 50 {
		t.Errorf("Live() after free = %d, %d; want 1, 50", blocks, bytes)
	}

	c.Free(b)
	c.Free(nil)
	blocks, bytes = c.Live()
	if blocks != 0 || bytes != 0 {
		t.Errorf("Live() after all freed = %d, %d; want 0, 0", blocks, bytes)
	}
	if c.Allocations() != 2 {
		t.Errorf("Allocations() = %d, want 2", c.Allocations())
	}
}

func TestCounting_FailedAllocationNotCounted(t *testing.T) {
	c := NewCounting(nil)

	if _, err := c.Allocate(0); err == nil {
		t.Fatal("expected error")
	}
	if blocks, _ := c.Live(); blocks != 0 {
		t.Errorf("Live() blocks = %d, want 0", blocks)
	}
}

func TestNew(t *testing.T) {
	if _, err := New("heap"); err != nil {
		t.Errorf("New(heap) failed: %v", err)
	}
	if _, err := New("mmap"); err == nil {
		t.Error("expected error for unknown allocator")
	}
}

func TestLibc_AllocateAndFree(t *testing.T) {
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
		t.Skip("libc allocator not supported on " + runtime.GOOS)
	}
	l, err := NewLibc()
	if err != nil {
		t.Skipf("libc unavailable: %v", err)
	}

	b, err := l.Allocate(4096)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	pix := b.Bytes()
	for i, v := range pix {
		if v != 0 {
			t.Fatalf("byte %d = %d, want 0", i, v)
		}
	}
	pix[0], pix[4095] = 0xAB, 0xCD
	if b.Bytes()[4095] != 0xCD {
		t.Error("write through block view was lost")
	}

	l.Free(b)
	l.Free(b)
	if !b.Freed() {
		t.Error("expected block to be freed")
	}
}
