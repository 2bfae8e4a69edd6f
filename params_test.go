package tlsf

import (
	"math/bits"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLog2FloorMatchesBitsLen(t *testing.T) {
	for x := uint(1); x < 1<<20; x <<= 1 {
		require.Equal(t, uint(bits.Len(x)-1), log2Floor(x), "x=%d", x)
	}
	require.Equal(t, uint(0), log2Floor(1))
	require.Equal(t, uint(3), log2Floor(8))
	require.Equal(t, uint(3), log2Floor(15))
	require.Equal(t, uint(4), log2Floor(16))
}

func TestMappingRoundTripsThroughBinFloor(t *testing.T) {
	sizes := []uint{
		alignSize, blockSizeMin, blockSizeSmall - alignSize, blockSizeSmall,
		blockSizeSmall + alignSize, 1 << 10, 1 << 16, 1 << 20, MaxSize,
	}
	for _, size := range sizes {
		fl, sl := mapping(size)
		floor := binFloor(fl, sl)
		require.LessOrEqualf(t, floor, size, "binFloor(mapping(%d)) = %d should not exceed %d", size, floor, size)

		// A block sized exactly to roundBlockSize(size) must map back to a
		// bin whose floor is >= size: this is the property findSuitable
		// depends on, since every block in the bin it starts searching
		// from is then large enough.
		rounded := roundBlockSize(size)
		rfl, rsl := mapping(rounded)
		require.GreaterOrEqual(t, binFloor(rfl, rsl), size)
	}
}

func TestMappingIsMonotonic(t *testing.T) {
	prevFL, prevSL := mapping(alignSize)
	for size := uint(alignSize * 2); size < 1<<24; size += alignSize {
		fl, sl := mapping(size)
		require.False(t, fl < prevFL || (fl == prevFL && sl < prevSL),
			"mapping must not decrease as size grows: size=%d got (%d,%d) after (%d,%d)",
			size, fl, sl, prevFL, prevSL)
		prevFL, prevSL = fl, sl
	}
}

func TestAdjustSizeFloor(t *testing.T) {
	require.Equal(t, uint(blockSizeMin), adjustSize(0))
	require.Equal(t, uint(blockSizeMin), adjustSize(1))
	require.Equal(t, alignUp(uint(blockSizeMin+1), alignSize), adjustSize(blockSizeMin+1))
}

func TestParamsSplitThresholdDefault(t *testing.T) {
	var p Params
	require.Equal(t, defaultSplitThreshold, p.splitThreshold())

	p = Params{SplitThreshold: blockSizeMin + alignSize}
	require.Equal(t, blockSizeMin+alignSize, p.splitThreshold())

	p = Params{SplitThreshold: 1}
	require.Equal(t, defaultSplitThreshold, p.splitThreshold())
}
