/* This program is free software. It comes without any warranty, to
 * the extent permitted by applicable law. You can redistribute it
 * and/or modify it under the terms of the Do What The Fuck You Want
 * To Public License, Version 2, as published by Sam Hocevar. See
 * http://sam.zoy.org/wtfpl/COPYING for more details. */

package tlsf

import "unsafe"

// Resize changes the size of a previously allocated block, preserving its
// contents up to the smaller of the old and new sizes. ptr == nil behaves
// like Allocate; newSize == 0 behaves like Free and returns a nil pointer.
//
// Four strategies are tried in order, each strictly cheaper than the next:
// shrink/in-place fit, forward expansion into a free successor, backward
// expansion into a free predecessor (optionally also folding in a free
// successor in the same merge, with a payload move), and finally
// relocation through a fresh Allocate plus a copy.
func (p *Pool) Resize(ptr unsafe.Pointer, newSize uintptr) (unsafe.Pointer, error) {
	if !p.ready {
		return nil, ErrUninitialized
	}
	if ptr == nil {
		return p.Allocate(newSize)
	}
	if newSize == 0 {
		return nil, p.Free(ptr)
	}
	if uint(newSize) > MaxSize {
		return nil, ErrTooLarge
	}

	b := blockFromPayload(ptr)
	if AssertEnabled {
		if err := p.assertValidBlock(b); err != nil {
			return nil, err
		}
	}
	adjusted := adjustSize(uint(newSize))
	oldFootprint := uintptr(b.size() + blockOverhead)

	if adjusted <= b.size() {
		b = p.trimAndUse(b, adjusted)
		// A trimmed-off remainder may sit right before a free block; merge them.
		if rest := b.nextPhysical(); rest.isFree() {
			if next := rest.nextPhysical(); next.isFree() {
				p.fl.remove(rest)
				p.fl.remove(next)
				rest.absorb(next)
				p.fl.insert(rest)
			}
		}
		p.commitResize(oldFootprint, b)
		return b.payload(), nil
	}

	if grown, ok := p.expandForward(b, adjusted); ok {
		p.commitResize(oldFootprint, grown)
		return grown.payload(), nil
	}

	if grown, ok := p.expandBackward(b, adjusted); ok {
		p.commitResize(oldFootprint, grown)
		return grown.payload(), nil
	}

	return p.relocate(b, newSize)
}

func (p *Pool) commitResize(oldFootprint uintptr, b block) {
	newFootprint := uintptr(b.size() + blockOverhead)
	p.used = p.used - oldFootprint + newFootprint
}

// expandForward grows b into its immediately following physical block when
// that block is free and the combination is big enough.
func (p *Pool) expandForward(b block, adjusted uint) (block, bool) {
	next := b.nextPhysical()
	if !next.isFree() {
		return block{}, false
	}
	if b.size()+blockOverhead+next.size() < adjusted {
		return block{}, false
	}
	p.fl.remove(next)
	b.absorb(next)
	return p.trimAndUse(b, adjusted), true
}

// expandBackward grows b into its immediately preceding physical block when
// that block is free, also folding in the immediately-following block in
// the same move whenever that block is free — mirroring
// the original's combined-merge branch in tlsf_realloc, which computes
// prev+avail+overhead and then, in the same branch, adds the successor's
// size before deciding whether the merge covers the request. Moves the
// payload to the lower address the merged block now starts at.
func (p *Pool) expandBackward(b block, adjusted uint) (block, bool) {
	if !b.isPrevFree() {
		return block{}, false
	}
	prev := b.prevPhysical()
	combined := prev.size() + blockOverhead + b.size()

	next := b.nextPhysical()
	mergeNext := next.isFree()
	if mergeNext {
		combined += blockOverhead + next.size()
	}
	if combined < adjusted {
		return block{}, false
	}

	oldPayload := b.payload()
	oldSize := b.size()

	if mergeNext {
		p.fl.remove(next)
	}
	p.fl.remove(prev)
	// Move the payload before relinking: when next is not merged, its
	// boundary tag is the last word of the old payload.
	moveBytes(prev.payload(), oldPayload, oldSize)
	prev.setSize(combined)
	prev.linkNext()

	return p.trimAndUse(prev, adjusted), true
}

// relocate is the fallback path: allocate a fresh block, copy the smaller
// of the old and new sizes, and free the original.
func (p *Pool) relocate(b block, newSize uintptr) (unsafe.Pointer, error) {
	newPtr, err := p.Allocate(newSize)
	if err != nil {
		return nil, err
	}

	copyLen := b.size()
	if uint(newSize) < copyLen {
		copyLen = uint(newSize)
	}
	moveBytes(newPtr, b.payload(), copyLen)

	if err := p.Free(b.payload()); err != nil {
		return nil, err
	}
	return newPtr, nil
}

// moveBytes copies n bytes from src to dst, safe for overlapping regions
// (the backward-expansion path shifts a live payload to a lower, and
// necessarily overlapping, address).
func moveBytes(dst, src unsafe.Pointer, n uint) {
	if n == 0 || dst == src {
		return
	}
	dstSlice := unsafe.Slice((*byte)(dst), n)
	srcSlice := unsafe.Slice((*byte)(src), n)
	copy(dstSlice, srcSlice)
}
