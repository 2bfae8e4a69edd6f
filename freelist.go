/* This program is free software. It comes without any warranty, to
 * the extent permitted by applicable law. You can redistribute it
 * and/or modify it under the terms of the Do What The Fuck You Want
 * To Public License, Version 2, as published by Sam Hocevar. See
 * http://sam.zoy.org/wtfpl/COPYING for more details. */

package tlsf

import "math/bits"

// freelist is the two-level segregated index: a first-level bitmap over
// flCount size classes, a second-level bitmap of slCount bins within each
// first-level row, and the list heads themselves. Every free block not equal
// to the null sentinel is threaded into exactly one head[fl][sl] list.
type freelist struct {
	flBitmap uint32
	slBitmap [flCount]uint32
	head     [flCount][slCount]block

	// null is a distinguished block that every empty list head points at
	// instead of a nil pointer, so insert/remove never need a "is this
	// list empty" branch on the pointer itself — they branch on the
	// bitmap bit instead, and writes to null.freeNext/freePrev are simply
	// discarded scratch writes. Matches the original's block_null sentinel.
	null block
}

func (f *freelist) init(nullBlock block) {
	f.null = nullBlock
	f.null.setFreeNext(nullBlock)
	f.null.setFreePrev(nullBlock)
	for i := range f.head {
		for j := range f.head[i] {
			f.head[i][j] = nullBlock
		}
	}
}

// insert threads a free block onto the head of its (fl, sl) list and sets
// the corresponding bitmap bits. The caller has already set the block's
// free bit and the successor's prevFree bit via block.setFree.
func (f *freelist) insert(b block) {
	fl, sl := mapping(b.size())
	head := f.head[fl][sl]

	b.setFreeNext(head)
	b.setFreePrev(f.null)
	head.setFreePrev(b)
	f.head[fl][sl] = b

	f.flBitmap |= 1 << fl
	f.slBitmap[fl] |= 1 << sl
}

// remove unthreads a free block from its (fl, sl) list, clearing bitmap
// bits that become empty.
func (f *freelist) remove(b block) {
	fl, sl := mapping(b.size())
	f.removeKnown(b, fl, sl)
}

// removeKnown is remove with the bin already known, for callers (findSuitable)
// that just computed it and would otherwise recompute mapping redundantly.
func (f *freelist) removeKnown(b block, fl, sl uint32) {
	prev, next := b.freePrev(), b.freeNext()
	next.setFreePrev(prev)
	prev.setFreeNext(next)

	if f.head[fl][sl] == b {
		f.head[fl][sl] = next
		if next == f.null {
			f.slBitmap[fl] &^= 1 << sl
			if f.slBitmap[fl] == 0 {
				f.flBitmap &^= 1 << fl
			}
		}
	}
}

// findSuitable returns the head block of the smallest non-empty bin at or
// above size, rounded up to the next bin boundary so any block in the
// chosen bin truly satisfies the request. Reports the block (or the null sentinel if none fit) along
// with its (fl, sl) so the caller can remove it without recomputing mapping.
//
// Small sizes (below blockSizeSmall) always map to fl == 0, where SL bins
// sit at a flat alignSize stride; below that boundary the bin index is just
// size>>alignShift, so log2Floor/roundBlockSize/mapping's CLZ-based work is
// unneeded and skipped entirely, matching the original's tlsf_malloc fast
// path. Falling through (no fl==0 bin covers size) defers to the generic
// search below exactly like the original's "fall through" comment.
func (f *freelist) findSuitable(size uint) (b block, fl, sl uint32, ok bool) {
	if size < blockSizeSmall {
		smallSl := uint32(size >> alignShift)
		if slMap := f.slBitmap[0] & (^uint32(0) << smallSl); slMap != 0 {
			foundSl := uint32(bits.TrailingZeros32(slMap))
			b := f.head[0][foundSl]
			if b != f.null {
				return b, 0, foundSl, true
			}
		}
	}

	size = roundBlockSize(size)
	fl, sl = mapping(size)

	if fl >= flCount {
		return f.null, 0, 0, false
	}

	slMap := f.slBitmap[fl] & (^uint32(0) << sl)
	if slMap == 0 {
		flMap := f.flBitmap & (^uint32(0) << (fl + 1))
		if flMap == 0 {
			return f.null, 0, 0, false
		}
		fl = uint32(bits.TrailingZeros32(flMap))
		slMap = f.slBitmap[fl]
	}
	sl = uint32(bits.TrailingZeros32(slMap))

	b = f.head[fl][sl]
	if b == f.null {
		return f.null, 0, 0, false
	}
	return b, fl, sl, true
}
