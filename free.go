/* This program is free software. It comes without any warranty, to
 * the extent permitted by applicable law. You can redistribute it
 * and/or modify it under the terms of the Do What The Fuck You Want
 * To Public License, Version 2, as published by Sam Hocevar. See
 * http://sam.zoy.org/wtfpl/COPYING for more details. */

package tlsf

import "unsafe"

// Free returns a block previously obtained from Allocate, AllocateAligned,
// or Resize back to the pool. Freeing nil is a no-op; freeing an address
// not owned by this pool, or freeing the same address twice, is undefined
// behavior (the caller owns that contract, same as the underlying C).
func (p *Pool) Free(ptr unsafe.Pointer) error {
	if !p.ready {
		return ErrUninitialized
	}
	if ptr == nil {
		return nil
	}
	b := blockFromPayload(ptr)
	if AssertEnabled {
		if err := p.assertValidBlock(b); err != nil {
			return err
		}
	}
	p.used -= uintptr(b.size() + blockOverhead)
	p.releaseBlock(b)
	p.maybeShrink()
	return nil
}

// releaseBlock performs two-way coalescing (merge with a free physical
// predecessor, then with a free physical successor) and threads the
// resulting block onto the free-list index. b must already carry the
// correct size for its own footprint and must not yet be marked free.
func (p *Pool) releaseBlock(b block) {
	if b.isPrevFree() {
		prev := b.prevPhysical()
		p.fl.remove(prev)
		prev.absorb(b)
		b = prev
	}

	next := b.nextPhysical()
	if next.isFree() {
		p.fl.remove(next)
		b.absorb(next)
	}

	b.setFree(true)
	p.fl.insert(b)
}

// maybeShrink gives backing memory back to a growable pool's resize
// callback when the block immediately preceding the sentinel is free: the
// mirror image of growInPlace. It never collapses the pool below one
// minimum-sized anchor block, so a subsequent allocation can always grow
// back in place without re-running Init.
func (p *Pool) maybeShrink() {
	if p.resize == nil {
		return
	}
	last := p.end()
	if !last.isPrevFree() {
		return
	}

	freeBlock := last.prevPhysical()
	keep := uintptr(uintptr(freeBlock.addr()) - uintptr(p.base))
	anchor := keep < poolOverhead
	if anchor {
		// The whole pool is one free block: keep it at minimum size.
		keep = blockOverhead + blockSizeMin
	}

	newSize := keep + blockOverhead
	if newSize == p.size {
		return
	}

	p.fl.remove(freeBlock)
	newBase, err := p.resize(newSize)
	if err != nil || newBase != p.base {
		p.fl.insert(freeBlock)
		return
	}

	p.size = newSize
	if anchor {
		freeBlock.setSize(blockSizeMin)
		freeBlock.linkNext()
		p.fl.insert(freeBlock)
	}
	p.end().setHeader(0)
	p.end().setPrevFreeBit(anchor)
}
