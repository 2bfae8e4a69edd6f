package tlsf

import (
	"math/rand"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T, size int) *Pool {
	t.Helper()
	mem := make([]byte, size)
	p := &Pool{}
	require.NoError(t, p.Init(mem, Params{}))
	return p
}

func TestAllocateFreeRoundTrip(t *testing.T) {
	p := newTestPool(t, 1<<16)

	ptr, err := p.Allocate(128)
	require.NoError(t, err)
	require.NotNil(t, ptr)
	require.NoError(t, p.Check())

	require.NoError(t, p.Free(ptr))
	require.NoError(t, p.Check())

	stats, err := p.Stats()
	require.NoError(t, err)
	require.Equal(t, uint64(0), stats.UsedBytes)
	require.Equal(t, uint64(1), stats.FreeBlockCount)
}

func TestAllocateExhaustsStaticPool(t *testing.T) {
	p := newTestPool(t, 1<<10)

	var ptrs []unsafe.Pointer
	for {
		ptr, err := p.Allocate(64)
		if err != nil {
			require.ErrorIs(t, err, ErrOutOfMemory)
			break
		}
		ptrs = append(ptrs, ptr)
	}
	require.NotEmpty(t, ptrs)
	require.NoError(t, p.Check())

	for _, ptr := range ptrs {
		require.NoError(t, p.Free(ptr))
	}
	require.NoError(t, p.Check())
}

func TestAllocateTooLarge(t *testing.T) {
	p := newTestPool(t, 1<<12)
	_, err := p.Allocate(MaxSize + 1)
	require.ErrorIs(t, err, ErrTooLarge)
}

func TestAllocateAlignedSatisfiesAlignment(t *testing.T) {
	p := newTestPool(t, 1<<16)

	for _, align := range []uintptr{16, 64, 256, 4096} {
		ptr, err := p.AllocateAligned(100, align)
		require.NoError(t, err)
		require.Zero(t, uintptr(ptr)%align, "align=%d", align)
	}
	require.NoError(t, p.Check())
}

func TestAllocateAlignedRejectsNonPowerOfTwo(t *testing.T) {
	p := newTestPool(t, 1<<12)
	_, err := p.AllocateAligned(16, 3)
	require.ErrorIs(t, err, ErrInvalidAlignment)
}

func TestResizeShrinkInPlace(t *testing.T) {
	p := newTestPool(t, 1<<16)

	ptr, err := p.Allocate(1024)
	require.NoError(t, err)

	shrunk, err := p.Resize(ptr, 64)
	require.NoError(t, err)
	require.Equal(t, ptr, shrunk)
	require.NoError(t, p.Check())
}

func TestResizeGrowForward(t *testing.T) {
	p := newTestPool(t, 1<<16)

	a, err := p.Allocate(64)
	require.NoError(t, err)
	b, err := p.Allocate(64)
	require.NoError(t, err)
	require.NoError(t, p.Free(b))

	grown, err := p.Resize(a, 96)
	require.NoError(t, err)
	require.NotNil(t, grown)
	require.NoError(t, p.Check())
}

func TestResizeGrowBackward(t *testing.T) {
	p := newTestPool(t, 1<<16)

	a, err := p.Allocate(64)
	require.NoError(t, err)
	b, err := p.Allocate(64)
	require.NoError(t, err)
	// A live successor keeps expandForward from satisfying the resize.
	_, err = p.Allocate(64)
	require.NoError(t, err)
	require.NoError(t, p.Free(a))

	grown, err := p.Resize(b, 96)
	require.NoError(t, err)
	require.Equal(t, a, grown)
	require.NoError(t, p.Check())
}

// TestResizeGrowBackwardAndForwardCombined lays out four adjacent live
// blocks A, B, C, D, frees A and C (leaving B sandwiched between two free
// neighbors that are each individually too small to satisfy the grow), and
// resizes B to a size only the backward AND forward free neighbors merged
// together can satisfy. Neither expandForward nor expandBackward alone
// covers the request; only expandBackward's combined merge does, without
// falling through to relocate.
func TestResizeGrowBackwardAndForwardCombined(t *testing.T) {
	p := newTestPool(t, 1<<16)

	a, err := p.Allocate(512)
	require.NoError(t, err)
	b, err := p.Allocate(256)
	require.NoError(t, err)
	c, err := p.Allocate(512)
	require.NoError(t, err)
	_, err = p.Allocate(128)
	require.NoError(t, err)

	require.NoError(t, p.Free(a))
	require.NoError(t, p.Free(c))

	grown, err := p.Resize(b, 1216)
	require.NoError(t, err)
	require.NotNil(t, grown)
	require.NoError(t, p.Check())
}

func TestResizeNilIsAllocate(t *testing.T) {
	p := newTestPool(t, 1<<12)
	ptr, err := p.Resize(nil, 32)
	require.NoError(t, err)
	require.NotNil(t, ptr)
}

func TestResizeZeroIsFree(t *testing.T) {
	p := newTestPool(t, 1<<12)
	ptr, err := p.Allocate(32)
	require.NoError(t, err)

	out, err := p.Resize(ptr, 0)
	require.NoError(t, err)
	require.Nil(t, out)
	require.NoError(t, p.Check())
}

func TestAppendExtendsPool(t *testing.T) {
	mem := make([]byte, 1<<16)
	p := &Pool{}
	require.NoError(t, p.Init(mem[:1<<14], Params{}))

	require.NoError(t, p.Append(mem[1<<14:]))
	require.NoError(t, p.Check())

	stats, err := p.Stats()
	require.NoError(t, err)
	require.Equal(t, uint64(len(mem)), stats.PoolSize)
}

func TestAppendRejectsNonAdjacent(t *testing.T) {
	mem := make([]byte, 1<<14)
	other := make([]byte, 1<<10)
	p := &Pool{}
	require.NoError(t, p.Init(mem, Params{}))
	require.ErrorIs(t, p.Append(other), ErrNonAdjacent)
}

func TestGrowableResizeBacking(t *testing.T) {
	backing := make([]byte, 1<<20)
	committed := uintptr(1 << 12)

	resize := func(newSize uintptr) (unsafe.Pointer, error) {
		if newSize > uintptr(len(backing)) {
			return nil, ErrOutOfMemory
		}
		committed = newSize
		return unsafe.Pointer(&backing[0]), nil
	}

	p, err := NewGrowable(backing[:committed], resize, Params{})
	require.NoError(t, err)

	var ptrs []unsafe.Pointer
	for i := 0; i < 64; i++ {
		ptr, err := p.Allocate(256)
		require.NoError(t, err)
		ptrs = append(ptrs, ptr)
	}
	require.NoError(t, p.Check())
	require.Greater(t, committed, uintptr(1<<12))

	for _, ptr := range ptrs {
		require.NoError(t, p.Free(ptr))
	}
	require.NoError(t, p.Check())
}

func TestResetDiscardsAllocations(t *testing.T) {
	p := newTestPool(t, 1<<14)
	_, err := p.Allocate(256)
	require.NoError(t, err)

	require.NoError(t, p.Reset())
	stats, err := p.Stats()
	require.NoError(t, err)
	require.Equal(t, uint64(0), stats.UsedBytes)
	require.Equal(t, uint64(1), stats.FreeBlockCount)
}

func TestFuzzRandomAllocFreeResizeGuardInvariants(t *testing.T) {
	p := newTestPool(t, 1<<20)

	rng := rand.New(rand.NewSource(42))
	live := make(map[unsafe.Pointer]uintptr)
	var order []unsafe.Pointer

	for i := 0; i < 500; i++ {
		op := rng.Intn(3)

		switch op {
		case 0: // allocate
			size := uintptr(8 + rng.Intn(2048))
			ptr, err := p.Allocate(size)
			if err == nil {
				live[ptr] = size
				order = append(order, ptr)
				t.Logf("Step %d: allocated %d bytes", i, size)
			} else {
				t.Logf("Step %d: allocate failed (expected under pressure): %v", i, err)
			}

		case 1: // free
			if len(order) > 0 {
				idx := rng.Intn(len(order))
				ptr := order[idx]
				order = append(order[:idx], order[idx+1:]...)
				require.NoError(t, p.Free(ptr))
				delete(live, ptr)
				t.Logf("Step %d: freed", i)
			}

		case 2: // resize
			if len(order) > 0 {
				idx := rng.Intn(len(order))
				ptr := order[idx]
				newSize := uintptr(8 + rng.Intn(2048))
				out, err := p.Resize(ptr, newSize)
				if err == nil {
					order[idx] = out
					delete(live, ptr)
					live[out] = newSize
					t.Logf("Step %d: resized to %d bytes", i, newSize)
				} else {
					t.Logf("Step %d: resize failed (expected under pressure): %v", i, err)
				}
			}
		}

		require.NoError(t, p.Check(), "Step %d: invariant check failed", i)
	}

	t.Logf("500 random operations completed, all invariants held, %d live allocations", len(live))
}
