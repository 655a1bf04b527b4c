package wasmexec

import (
	"sync"

	"github.com/tetratelabs/wazero/api"
)

// wasmPageSize is the fixed 64KiB WASM linear-memory page, used to decide
// how many pages a bump allocation needs to grow the guest by.
const wasmPageSize = 1 << 16

// bumpAllocator backs the env malloc/calloc/realloc/free family (spec.md
// §4.7) with a monotonic bump pointer into guest linear memory, growing
// the memory on demand. It never reclaims freed ranges; the interpreter
// targets short-lived `chic run`/`chic test` guest processes where an
// arena allocator is a faithful stand-in for malloc without needing a
// real free-list.
type bumpAllocator struct {
	mu     sync.Mutex
	cursor uint32
}

// newBumpAllocator reserves the first 8 bytes of linear memory so
// offset 0 is never returned as a live allocation; callers that treat 0
// as a null/failure sentinel (the emitted Nullable<T> ABI does) stay
// correct.
func newBumpAllocator() *bumpAllocator {
	return &bumpAllocator{cursor: 8}
}

func alignUp(v, align uint32) uint32 {
	if align <= 1 {
		return v
	}
	return (v + align - 1) &^ (align - 1)
}

// alloc bumps the cursor by size (aligned to align), growing mem's pages
// as needed. Returns 0 on failure (out of addressable space or a Grow
// that wazero refuses).
func (a *bumpAllocator) alloc(mem api.Memory, size, align uint32) uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()

	if size == 0 {
		size = 1
	}
	start := alignUp(a.cursor, align)
	end := start + size
	if end < start {
		return 0 // overflow
	}

	needed := mem.Size()
	for end > needed {
		if _, ok := mem.Grow(1); !ok {
			return 0
		}
		needed = mem.Size()
	}
	a.cursor = end
	return start
}

// EnvHost's malloc family (spec.md §4.7's `env` import group): a single
// per-guest bump allocator instance, lazily created on first call since
// EnvHost is shared across every guest instance the executor runs.
type allocState struct {
	mu    sync.Mutex
	byMod map[api.Module]*bumpAllocator
}

func newAllocState() *allocState {
	return &allocState{byMod: make(map[api.Module]*bumpAllocator)}
}

func (s *allocState) forModule(mod api.Module) *bumpAllocator {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byMod[mod]
	if !ok {
		a = newBumpAllocator()
		s.byMod[mod] = a
	}
	return a
}
