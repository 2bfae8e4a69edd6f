package facade

import (
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/hardrt/tlsf"
)

func newTestFacade(t *testing.T, arenas, sizeEach int) *Facade {
	t.Helper()
	regions := make([][]byte, arenas)
	for i := range regions {
		regions[i] = make([]byte, sizeEach)
	}
	f, err := New(regions, tlsf.Params{}, Params{})
	require.NoError(t, err)
	return f
}

func TestMallocFreeRoundTrip(t *testing.T) {
	f := newTestFacade(t, 4, 1<<16)

	ptr, err := f.Malloc(128)
	require.NoError(t, err)
	require.NotNil(t, ptr)

	require.NoError(t, f.Free(ptr))
	require.NoError(t, f.Check())
}

func TestFreeFindsOwningArenaRegardlessOfHint(t *testing.T) {
	f := newTestFacade(t, 4, 1<<16)

	var ptrs []unsafe.Pointer
	for i := 0; i < 32; i++ {
		ptr, err := f.Malloc(64)
		require.NoError(t, err)
		ptrs = append(ptrs, ptr)
	}
	for _, ptr := range ptrs {
		require.NoError(t, f.Free(ptr))
	}
	require.NoError(t, f.Check())
}

func TestResizeStaysWithinOwningArena(t *testing.T) {
	f := newTestFacade(t, 4, 1<<16)

	ptr, err := f.Malloc(64)
	require.NoError(t, err)

	owner := f.findOwner(ptr)
	require.NotNil(t, owner)
	owner.lock.Unlock()

	grown, err := f.Resize(ptr, 256)
	require.NoError(t, err)

	grownOwner := f.findOwner(grown)
	require.Same(t, owner, grownOwner)
	grownOwner.lock.Unlock()
	require.NoError(t, f.Check())
}

func TestConcurrentMallocFreeAcrossArenas(t *testing.T) {
	f := newTestFacade(t, 8, 1<<18)

	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var ptrs []unsafe.Pointer
			for i := 0; i < 50; i++ {
				ptr, err := f.Malloc(128)
				if err == nil {
					ptrs = append(ptrs, ptr)
				}
			}
			for _, ptr := range ptrs {
				require.NoError(t, f.Free(ptr))
			}
		}()
	}
	wg.Wait()

	require.NoError(t, f.Check())
}

// TestConcurrentMallocFreeOnGrowableArenas exercises the race findOwner's
// locking exists to prevent: one goroutine's Malloc can grow an arena
// in place (mutating the pool's size under that arena's own lock) while
// another goroutine's Free/Resize is concurrently testing ownership of a
// pointer against that same arena. Unlike TestConcurrentMallocFreeAcrossArenas,
// every arena here is growable, so this path is actually exercised. Run
// with -race to catch a regression.
func TestConcurrentMallocFreeOnGrowableArenas(t *testing.T) {
	const arenaCount = 4
	const backingSize = 1 << 20
	const committedSize = 1 << 12

	regions := make([][]byte, arenaCount)
	resizers := make([]tlsf.ResizeFunc, arenaCount)
	for i := range regions {
		backing := make([]byte, backingSize)
		regions[i] = backing[:committedSize]
		resizers[i] = func(newSize uintptr) (unsafe.Pointer, error) {
			if newSize > uintptr(len(backing)) {
				return nil, tlsf.ErrOutOfMemory
			}
			return unsafe.Pointer(&backing[0]), nil
		}
	}

	f, err := NewGrowable(regions, resizers, tlsf.Params{}, Params{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var ptrs []unsafe.Pointer
			for i := 0; i < 200; i++ {
				ptr, err := f.Malloc(256)
				if err == nil {
					ptrs = append(ptrs, ptr)
				}
				if len(ptrs) > 0 && i%3 == 0 {
					idx := i % len(ptrs)
					require.NoError(t, f.Free(ptrs[idx]))
					ptrs = append(ptrs[:idx], ptrs[idx+1:]...)
				}
			}
			for _, ptr := range ptrs {
				require.NoError(t, f.Free(ptr))
			}
		}()
	}
	wg.Wait()

	require.NoError(t, f.Check())
}

func TestStatsAggregatesAllArenas(t *testing.T) {
	f := newTestFacade(t, 3, 1<<14)
	stats, err := f.Stats()
	require.NoError(t, err)
	require.Len(t, stats, 3)
}

func TestMixHintDistributesAcrossArenas(t *testing.T) {
	seen := make(map[uint32]bool)
	for h := uint32(0); h < 1000; h++ {
		seen[mixHint(h)%8] = true
	}
	require.Greater(t, len(seen), 1, "mixHint should spread across more than one bucket")
}
