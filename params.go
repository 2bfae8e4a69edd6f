package tlsf

import "math/bits"

// uintSize is the native word width in bits: 64 on 64-bit targets, 32 on
// 32-bit targets. Using a const expression instead of a build tag keeps the
// two size regimes (original tlsf.h's "#if __SIZE_WIDTH__ == 64") expressed
// as ordinary Go arithmetic.
const uintSize = 32 << (^uint(0) >> 63)

const (
	// alignShift is 3 on 64-bit targets (8-byte alignment), 2 on 32-bit
	// (4-byte alignment) — one pointer's worth.
	alignShift = uintSize/32 + 1
	alignSize  = 1 << alignShift

	// slShift is fixed at 5: 32 second-level bins per first-level row.
	slShift = 5
	slCount = 1 << slShift

	// flShift is the log2 boundary between the linear (fl=0) and
	// logarithmic binning regimes.
	flShift = slShift + alignShift

	// flMax bounds the largest representable block size; flCount derives
	// from it. 39 on 64-bit, 31 on 32-bit, matching _TLSF_FL_MAX.
	flMax   = 39*(uintSize/64) + 31*(1-uintSize/64)
	flCount = flMax - flShift + 1

	// blockOverhead is the size of the header word (the `size` field).
	blockOverhead = alignSize

	// blockSizeMin is the minimum representable block size: the payload
	// region (the size field's own value) must have room for both
	// free-list pointers (prevFree, nextFree) plus one more word, because
	// the last word of that payload region doubles as the NEXT physical
	// block's boundary tag (its "prev" field) once this block is freed.
	// Matches the original's `sizeof(tlsf_block_t) - sizeof(tlsf_block_t*)`.
	blockSizeMin = 3 * alignSize

	// blockSizeSmall is the boundary between linear (fl=0) and
	// logarithmic size mapping.
	blockSizeSmall = 1 << flShift

	// blockSizeMax is the largest a single block's payload may be.
	blockSizeMax = 1 << (flMax - 1)

	// MaxSize is the largest size a single allocation request may ask
	// for; above this, adjustSize's caller must fail without rounding
	// (TLSF_MAX_SIZE in the original).
	MaxSize = blockSizeMax - alignSize
)

// defaultSplitThreshold is the minimum size of the trailing remainder a
// split must produce to be worth keeping as its own free block (not smaller
// than blockSizeMin).
const defaultSplitThreshold = blockSizeMin

// Params configures the tunable knob the C original exposes as a
// compile-time override (SPLIT_THRESHOLD); FL_MAX is the fixed constant
// flMax here. The zero value selects the defaults used throughout this
// package.
type Params struct {
	// SplitThreshold is the minimum remainder size (beyond blockOverhead)
	// a split leaves behind; below it, the allocator gives the whole
	// block to the caller instead of fragmenting it. Zero, or any value
	// below blockSizeMin, selects blockSizeMin.
	SplitThreshold int
}

func (p Params) splitThreshold() int {
	if p.SplitThreshold <= 0 || p.SplitThreshold < blockSizeMin {
		return defaultSplitThreshold
	}
	return p.SplitThreshold
}

// log2Floor returns floor(log2(x)) for x > 0. Grounded on the original's
// __builtin_clzll/__builtin_clz compiler intrinsics; math/bits.Len is the
// Go-idiomatic equivalent (compiler-intrinsic-backed on every supported
// architecture), which is why the teacher's own test suite already uses it
// as the correctness oracle for its hand-rolled SWAR implementation.
func log2Floor(x uint) uint {
	return uint(bits.Len(x) - 1)
}

// ctz returns the number of trailing zero bits of x, undefined for x == 0.
func ctz(x uint32) uint32 {
	return uint32(bits.TrailingZeros32(x))
}

// alignUp rounds x up to the nearest multiple of align (a power of two).
// Bounds on x must be checked by the caller BEFORE calling this: near the
// word-width maximum, (x-1)|(align-1))+1 wraps to zero and would silently
// bypass a subsequent MaxSize check performed afterward.
func alignUp(x, align uint) uint {
	return ((x - 1) | (align - 1)) + 1
}

// adjustSize adjusts a requested allocation size up to an aligned size no
// smaller than blockSizeMin. The MaxSize bound must be checked by the
// caller against the ORIGINAL size, before calling adjustSize, to avoid the
// overflow trap described in alignUp's doc comment.
func adjustSize(size uint) uint {
	size = alignUp(size, alignSize)
	if size < blockSizeMin {
		return blockSizeMin
	}
	return size
}

// roundBlockSize rounds size up to the next representable bin boundary so
// that any free block satisfying it is large enough. Branch-free: below
// blockSizeSmall the rounding mask is zero (identity); above it, it rounds
// up to the next second-level bin boundary.
func roundBlockSize(size uint) uint {
	lg := uint32(log2Floor(size))
	isLarge := uint(0)
	if lg >= uint32(flShift) {
		isLarge = 1
	}
	shift := (lg - uint32(slShift)) & (uintSize - 1)
	round := isLarge << shift
	t := round - isLarge
	return (size + t) &^ t
}

// mapping computes the (fl, sl) bin indices for size. Branch-free: both the
// linear and logarithmic candidates are computed and selected via a mask
// derived from comparing the log2 floor against flShift, so the function
// has no data-dependent branch — mandatory for predictable latency on
// in-order cores where a mispredicted branch stalls the pipeline.
func mapping(size uint) (fl, sl uint32) {
	t := uint32(log2Floor(size))
	var small uint32
	if t < uint32(flShift) {
		small = ^uint32(0)
	}

	fl = ^small & (t - uint32(flShift) + 1)

	shift := (t - uint32(slShift)) & (uintSize - 1)
	slLarge := uint32(size>>shift) ^ slCount
	slSmall := uint32(size >> alignShift)
	sl = (^small & slLarge) | (small & slSmall)

	return fl, sl
}

// binFloor returns the smallest size mapped to bin (fl, sl) — the inverse
// of mapping. The allocator does not record it as a block's size: a block
// keeps its actual size, and insert/remove derive its bin from that size
// each time.
func binFloor(fl, sl uint32) uint {
	if fl == 0 {
		return uint(sl) * (blockSizeSmall / slCount)
	}
	base := uint(1) << (fl + flShift - 1)
	return base + uint(sl)*(base>>slShift)
}
