package video

import (
	"errors"
	"sync"
	"testing"

	"github.com/0bVdnt/pixlview/internal/native"
)

func negotiate(t *testing.T, h *Handoff, width, height int) VideoFormat {
	t.Helper()
	f, err := h.Negotiate(&FormatProposal{Chroma: "I420", Width: width, Height: height}, nil)
	if err != nil {
		t.Fatalf("Negotiate(%dx%d) failed: %v", width, height, err)
	}
	return f
}

func fillFrame(h *Handoff, v byte) bool {
	return h.LockForWrite(func(pix []byte) {
		for i := range pix {
			pix[i] = v
		}
	})
}

func TestHandoff_Negotiate640x360(t *testing.T) {
	alloc := native.NewCounting(native.NewHeap())
	h := NewHandoff(alloc)

	var published VideoFormat
	f, err := h.Negotiate(&FormatProposal{Width: 640, Height: 360}, func(f VideoFormat) error {
		published = f
		return nil
	})
	if err != nil {
		t.Fatalf("Negotiate failed: %v", err)
	}

	if f.Size() != 921600 {
		t.Errorf("size = %d, want 921600", f.Size())
	}
	if published != f {
		t.Errorf("published %v, want %v", published, f)
	}
	img := NewBitmap(published)
	if img.Bounds().Dx() != 640 || img.Bounds().Dy() != 360 {
		t.Errorf("bitmap bounds = %v, want 640x360", img.Bounds())
	}

	blocks, bytes := alloc.Live()
	if blocks != 2 || bytes != 2*921600 {
		t.Errorf("Live() = %d, %d; want 2, %d", blocks, bytes, 2*921600)
	}
}

func TestHandoff_RenegotiateFreesPrevious(t *testing.T) {
	alloc := native.NewCounting(native.NewHeap())
	h := NewHandoff(alloc)

	negotiate(t, h, 640, 360)
	f := negotiate(t, h, 1280, 720)

	if f.Size() != 1280*4*720 {
		t.Errorf("size = %d, want %d", f.Size(), 1280*4*720)
	}

	// one raw and one staged block, both for 1280x720
	blocks, bytes := alloc.Live()
	if blocks != 2 || bytes != 2*int64(f.Size()) {
		t.Errorf("Live() = %d, %d; want 2, %d", blocks, bytes, 2*f.Size())
	}
	if alloc.Allocations() != 4 {
		t.Errorf("Allocations() = %d, want 4", alloc.Allocations())
	}

	var rawLen int
	h.LockForWrite(func(pix []byte) { rawLen = len(pix) })
	if rawLen != f.Size() {
		t.Errorf("raw buffer = %d bytes, want %d", rawLen, f.Size())
	}
	if h.Negotiations() != 2 {
		t.Errorf("Negotiations() = %d, want 2", h.Negotiations())
	}
}

func TestHandoff_InvalidProposalRejected(t *testing.T) {
	h := NewHandoff(nil)

	_, err := h.Negotiate(&FormatProposal{Width: 0, Height: 360}, nil)
	if !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("error = %v, want ErrInvalidFormat", err)
	}
	if fillFrame(h, 1) {
		t.Error("LockForWrite should be a no-op without a format")
	}
}

func TestHandoff_PublishFailureReleasesBuffers(t *testing.T) {
	alloc := native.NewCounting(nil)
	h := NewHandoff(alloc)

	boom := errors.New("loop gone")
	_, err := h.Negotiate(&FormatProposal{Width: 8, Height: 8}, func(VideoFormat) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}
	if blocks, _ := alloc.Live(); blocks != 0 {
		t.Errorf("Live() blocks = %d, want 0", blocks)
	}
	if !h.Format().IsZero() {
		t.Error("format should be cleared")
	}
}

type failingAllocator struct {
	native.Heap
	after int
}

func (f *failingAllocator) Allocate(size int) (*native.Block, error) {
	if f.after == 0 {
		return nil, native.ErrAllocFailed
	}
	f.after--
	return f.Heap.Allocate(size)
}

func TestHandoff_AllocationFailure(t *testing.T) {
	for _, after := range []int{0, 1} {
		h := NewHandoff(&failingAllocator{after: after})

		_, err := h.Negotiate(&FormatProposal{Width: 8, Height: 8}, nil)
		if !errors.Is(err, native.ErrAllocFailed) {
			t.Errorf("after=%d: error = %v, want ErrAllocFailed", after, err)
		}
		if fillFrame(h, 1) || h.FrameReady() {
			t.Errorf("after=%d: buffers should be unavailable", after)
		}
	}
}

func TestHandoff_LockBeforeNegotiation(t *testing.T) {
	h := NewHandoff(nil)

	called := false
	if h.LockForWrite(func([]byte) { called = true }) {
		t.Error("expected false before negotiation")
	}
	if called {
		t.Error("fill should not run before negotiation")
	}
	if h.FrameReady() {
		t.Error("FrameReady should fail before negotiation")
	}
	if h.TakeStaged(make([]byte, 16)) {
		t.Error("TakeStaged should fail before negotiation")
	}
}

func TestHandoff_StageAndTake(t *testing.T) {
	h := NewHandoff(nil)
	f := negotiate(t, h, 4, 2)

	fillFrame(h, 7)
	if !h.FrameReady() {
		t.Fatal("FrameReady failed")
	}

	// the decoder may start on the next frame right away
	fillFrame(h, 9)

	dst := make([]byte, f.Size())
	if !h.TakeStaged(dst) {
		t.Fatal("TakeStaged failed")
	}
	for i, v := range dst {
		if v != 7 {
			t.Fatalf("byte %d = %d, want 7", i, v)
		}
	}
	if h.FramesStaged() != 1 {
		t.Errorf("FramesStaged() = %d, want 1", h.FramesStaged())
	}
}

func TestHandoff_TakeStagedRejectsWrongSize(t *testing.T) {
	h := NewHandoff(nil)
	f := negotiate(t, h, 4, 2)
	fillFrame(h, 3)
	h.FrameReady()

	for _, n := range []int{0, f.Size() - 1, f.Size() + 4} {
		dst := make([]byte, n)
		if h.TakeStaged(dst) {
			t.Errorf("TakeStaged(len=%d) should fail for frame size %d", n, f.Size())
		}
		for _, v := range dst {
			if v != 0 {
				t.Fatalf("len=%d: destination modified", n)
			}
		}
	}
}

func TestHandoff_TakeAfterRenegotiation(t *testing.T) {
	h := NewHandoff(nil)
	small := negotiate(t, h, 4, 2)
	fillFrame(h, 1)
	h.FrameReady()

	big := negotiate(t, h, 8, 4)

	if h.TakeStaged(make([]byte, small.Size())) {
		t.Error("old-size bitmap must not receive the new staged frame")
	}
	if !h.TakeStaged(make([]byte, big.Size())) {
		t.Error("new-size bitmap should receive the staged frame")
	}
}

func TestHandoff_CleanupAndClose(t *testing.T) {
	alloc := native.NewCounting(nil)
	h := NewHandoff(alloc)
	negotiate(t, h, 4, 4)

	h.Cleanup()
	if blocks, _ := alloc.Live(); blocks != 0 {
		t.Errorf("Live() after cleanup = %d, want 0", blocks)
	}
	if fillFrame(h, 1) {
		t.Error("LockForWrite should be a no-op after cleanup")
	}

	negotiate(t, h, 4, 4)
	h.Close()
	h.Close()
	if blocks, _ := alloc.Live(); blocks != 0 {
		t.Errorf("Live() after close = %d, want 0", blocks)
	}

	_, err := h.Negotiate(&FormatProposal{Width: 4, Height: 4}, nil)
	if !errors.Is(err, ErrHandoffClosed) {
		t.Errorf("error = %v, want ErrHandoffClosed", err)
	}
}

// Decoder goroutines keep writing and staging while another goroutine closes
// the handoff; freed blocks must never be written to or read from.
func TestHandoff_ConcurrentFrameReadyAndClose(t *testing.T) {
	for round := 0; round < 50; round++ {
		alloc := native.NewCounting(native.NewHeap())
		h := NewHandoff(alloc)
		f := negotiate(t, h, 16, 16)

		var wg sync.WaitGroup
		start := make(chan struct{})

		for w := 0; w < 4; w++ {
			wg.Add(1)
			go func(v byte) {
				defer wg.Done()
				<-start
				for i := 0; i < 200; i++ {
					h.LockForWrite(func(pix []byte) {
						if len(pix) != f.Size() {
							t.Errorf("write into %d byte buffer, want %d", len(pix), f.Size())
						}
						for j := range pix {
							pix[j] = v
						}
					})
					h.FrameReady()
				}
			}(byte(w + 1))
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			dst := make([]byte, f.Size())
			for i := 0; i < 200; i++ {
				h.TakeStaged(dst)
			}
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			h.Close()
		}()

		close(start)
		wg.Wait()

		if blocks, _ := alloc.Live(); blocks != 0 {
			t.Fatalf("round %d: %d blocks still alive", round, blocks)
		}
		if fillFrame(h, 1) || h.FrameReady() {
			t.Fatalf("round %d: buffer access after close", round)
		}
	}
}

func TestHandoff_CleanupGeneration(t *testing.T) {
	alloc := native.NewCounting(nil)
	h := NewHandoff(alloc)

	negotiate(t, h, 4, 4)
	stale := h.Generation()
	negotiate(t, h, 8, 8)

	if h.CleanupGeneration(stale) {
		t.Error("cleanup for a replaced session should be ignored")
	}
	if blocks, _ := alloc.Live(); blocks != 2 {
		t.Errorf("Live() = %d, want 2", blocks)
	}

	if !h.CleanupGeneration(h.Generation()) {
		t.Error("cleanup for the current session should release")
	}
	if blocks, _ := alloc.Live(); blocks != 0 {
		t.Errorf("Live() = %d, want 0", blocks)
	}
}

func TestHandoff_TryCleanupGeneration(t *testing.T) {
	alloc := native.NewCounting(nil)
	h := NewHandoff(alloc)

	negotiate(t, h, 4, 4)
	gen := h.Generation()

	h.bufMu.Lock()
	if h.TryCleanupGeneration(gen) {
		h.bufMu.Unlock()
		t.Fatal("cleanup should report busy while the buffer lock is held")
	}
	h.bufMu.Unlock()

	if blocks, _ := alloc.Live(); blocks != 2 {
		t.Fatalf("Live() = %d after busy attempt, want 2", blocks)
	}
	if !h.TryCleanupGeneration(gen) {
		t.Fatal("cleanup should succeed once the lock is free")
	}
	if blocks, _ := alloc.Live(); blocks != 0 {
		t.Errorf("Live() = %d, want 0", blocks)
	}
}

func TestHandoff_TryCleanupDuringPublish(t *testing.T) {
	alloc := native.NewCounting(nil)
	h := NewHandoff(alloc)

	negotiate(t, h, 4, 4)
	stale := h.Generation()

	// publish blocks until the stale cleanup has been attempted, as it would
	// if both ran on the same presentation goroutine
	settled := make(chan bool, 1)
	_, err := h.Negotiate(&FormatProposal{Chroma: "I420", Width: 8, Height: 8}, func(VideoFormat) error {
		settled <- h.TryCleanupGeneration(stale)
		return nil
	})
	if err != nil {
		t.Fatalf("Negotiate failed: %v", err)
	}
	if !<-settled {
		t.Error("stale cleanup should settle without the buffer lock")
	}
	if blocks, _ := alloc.Live(); blocks != 2 {
		t.Errorf("Live() = %d, want the new pair", blocks)
	}
}
