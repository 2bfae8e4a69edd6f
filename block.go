package tlsf

import "unsafe"

// Block status bits live in the two low bits of the header word; alignment
// forces every real size to be a multiple of alignSize (>= 4), so those
// bits never collide with a genuine size value.
const (
	bitFree     = uint(1) // block is on a free list
	bitPrevFree = uint(2) // the physically preceding block is free
	bitsMask    = bitFree | bitPrevFree
)

// block addresses the header word of a block within the pool's memory
// region. Everything around the header is reached by raw pointer
// arithmetic, never by a typed Go struct field, because two of its
// neighboring words are shared, physically overlapping storage:
//
//   - the word immediately BEFORE the header (prevWordAddr) is this
//     block's own "prev" link, valid only when bitPrevFree is set; it
//     physically occupies the tail word of the PRECEDING block's payload.
//   - the two words immediately AFTER the header are this block's
//     prevFree/nextFree free-list links, valid only while this block
//     itself is free; when the block is in use those same bytes are the
//     start of the caller's payload.
//
// A zero block denotes "no block" (used as a sentinel terminator the same
// way a nil pointer would be, except the pool's embedded null block needs
// a real address to write through unconditionally — see Pool.nullBlock).
type block struct{ p unsafe.Pointer }

func blockOf(p unsafe.Pointer) block { return block{p} }

func wordAt(addr unsafe.Pointer) *uint {
	return (*uint)(addr)
}

func (b block) addr() unsafe.Pointer { return b.p }

func (b block) header() uint       { return *wordAt(b.addr()) }
func (b block) setHeader(v uint)   { *wordAt(b.addr()) = v }

func (b block) size() uint { return b.header() &^ bitsMask }

func (b block) setSize(size uint) {
	b.setHeader(size | (b.header() & bitsMask))
}

func (b block) isFree() bool     { return b.header()&bitFree != 0 }
func (b block) isPrevFree() bool { return b.header()&bitPrevFree != 0 }

func (b block) setPrevFreeBit(free bool) {
	if free {
		b.setHeader(b.header() | bitPrevFree)
	} else {
		b.setHeader(b.header() &^ bitPrevFree)
	}
}

// payload returns the address of the first byte usable by the caller (or,
// for a free block, the address of its prevFree link).
func (b block) payload() unsafe.Pointer {
	return unsafe.Add(b.addr(), blockOverhead)
}

func blockFromPayload(p unsafe.Pointer) block {
	return blockOf(unsafe.Add(p, -blockOverhead))
}

// prevWordAddr is the address of this block's "prev" (boundary tag) field,
// one word before the header. Only legal to dereference when isPrevFree().
func (b block) prevWordAddr() unsafe.Pointer {
	return unsafe.Add(b.addr(), -blockOverhead)
}

// prevPhysical returns the physically preceding block. The caller must
// have established isPrevFree() first; this is the boundary-tag read the
// spec's §9 design note warns must go through raw bytes, never a typed
// field overlapping user data.
func (b block) prevPhysical() block {
	return blockOf(*(*unsafe.Pointer)(b.prevWordAddr()))
}

func (b block) setPrevPhysical(p block) {
	*(*unsafe.Pointer)(b.prevWordAddr()) = p.addr()
}

// nextPhysical returns the next block in physical (address) order. Must
// not be called on a sentinel (size 0).
func (b block) nextPhysical() block {
	return blockOf(unsafe.Add(b.payload(), b.size()))
}

// linkNext writes this block's address into the next physical block's
// boundary tag, and returns that next block. Matches the original's
// block_link_next: every caller that changes where "next" begins (split,
// absorb, grow) must re-link so next.prevPhysical() stays correct.
func (b block) linkNext() block {
	next := b.nextPhysical()
	next.setPrevPhysical(b)
	return next
}

// freeLink fields overlap the payload exactly like prevWordAddr overlaps
// the preceding block: valid only while isFree().
func (b block) nextFreeAddr() *block { return (*block)(b.payload()) }
func (b block) prevFreeAddr() *block {
	return (*block)(unsafe.Add(b.payload(), blockOverhead))
}

func (b block) freeNext() block      { return *b.nextFreeAddr() }
func (b block) setFreeNext(n block)  { *b.nextFreeAddr() = n }
func (b block) freePrev() block      { return *b.prevFreeAddr() }
func (b block) setFreePrev(p block)  { *b.prevFreeAddr() = p }

func (b block) isNil() bool { return b.addr() == nil }

// setFree flips this block's free bit and relinks + updates the next
// physical block's prevFree bit to match. Every caller that flips
// isFree() must go through this (not setHeader directly) so the
// boundary-tag invariant (PREV_FREE_BIT(next) == FREE_BIT(b)) never
// drifts out of sync, including after a split changed where "next"
// physically begins.
func (b block) setFree(free bool) {
	if free {
		b.setHeader(b.header() | bitFree)
	} else {
		b.setHeader(b.header() &^ bitFree)
	}
	b.linkNext().setPrevFreeBit(free)
}

// canSplit reports whether splitting off a piece of exactly `size` bytes
// of payload would leave enough room (at least blockSizeMin, plus a header)
// for the remainder to be a valid block on its own.
func (b block) canSplit(size uint) bool {
	return b.size() >= blockSizeMin+blockOverhead+size
}

// canTrim is like canSplit but additionally requires the remainder to
// clear the configured split threshold, so trims don't scatter
// metadata-dominated slivers across the pool.
func (b block) canTrim(size uint, threshold uint) bool {
	return b.size() >= blockOverhead+threshold+size
}

// split carves a `size`-byte payload off the front of b, and returns the
// remaining free block. Caller is responsible for inserting the remainder
// into the free-list index and setting its free-bit/prevFree-bit state.
func (b block) split(size uint) block {
	rest := blockOf(unsafe.Add(b.payload(), size))
	restSize := b.size() - (size + blockOverhead)
	rest.setHeader(restSize)
	b.setSize(size)
	return rest
}

// absorb folds the immediately following physical block into b, growing b
// by next's full footprint (header included). Caller must already know
// next is not the sentinel and must separately remove both b and next from
// any free-list they're threaded on before calling this.
func (b block) absorb(next block) {
	b.setSize(b.size() + next.size() + blockOverhead)
	b.linkNext()
}
