//go:build darwin || linux

package native

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

var (
	libcOnce    sync.Once
	libcInitErr error

	libcCalloc func(nmemb, size uintptr) uintptr
	libcFree   func(ptr uintptr)
)

func loadLibc() error {
	libcOnce.Do(func() {
		libcInitErr = loadLibcSymbols()
	})
	return libcInitErr
}

func loadLibcSymbols() error {
	var lastErr error
	for _, path := range libcPaths() {
		handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			lastErr = err
			continue
		}
		purego.RegisterLibFunc(&libcCalloc, handle, "calloc")
		purego.RegisterLibFunc(&libcFree, handle, "free")
		return nil
	}
	return fmt.Errorf("load libc: %w", lastErr)
}

func libcPaths() []string {
	if runtime.GOOS == "darwin" {
		return []string{"/usr/lib/libSystem.B.dylib"}
	}
	return []string{"libc.so.6", "libc.so"}
}

// Libc allocates blocks outside the Go heap with calloc and releases them
// with free.
type Libc struct{}

func NewLibc() (*Libc, error) {
	if err := loadLibc(); err != nil {
		return nil, err
	}
	return &Libc{}, nil
}

func (l *Libc) Allocate(size int) (*Block, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: size %d", ErrAllocFailed, size)
	}
	ptr := libcCalloc(1, uintptr(size))
	if ptr == 0 {
		return nil, fmt.Errorf("%w: calloc(%d) returned NULL", ErrAllocFailed, size)
	}
	return &Block{
		data:    unsafe.Slice((*byte)(unsafe.Pointer(ptr)), size),
		release: func() { libcFree(ptr) },
	}, nil
}

func (l *Libc) Free(b *Block) {
	if b != nil {
		b.free()
	}
}
