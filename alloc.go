/* This program is free software. It comes without any warranty, to
 * the extent permitted by applicable law. You can redistribute it
 * and/or modify it under the terms of the Do What The Fuck You Want
 * To Public License, Version 2, as published by Sam Hocevar. See
 * http://sam.zoy.org/wtfpl/COPYING for more details. */

package tlsf

import "unsafe"

// Allocate returns size bytes of zero-initialized-or-not (the original
// makes no promise either way; neither do we) memory carved from the pool,
// in bounded time regardless of pool occupancy.
func (p *Pool) Allocate(size uintptr) (unsafe.Pointer, error) {
	if !p.ready {
		return nil, ErrUninitialized
	}
	if uint(size) > MaxSize {
		return nil, ErrTooLarge
	}

	adjusted := adjustSize(uint(size))
	b, err := p.acquireBlock(adjusted)
	if err != nil {
		return nil, err
	}
	b = p.trimAndUse(b, adjusted)
	p.used += uintptr(b.size() + blockOverhead)
	return b.payload(), nil
}

// AllocateAligned is like Allocate but additionally guarantees the returned
// address is a multiple of align, which must be a power of two. Alignments
// at or below the pool's natural word alignment cost nothing extra; larger
// ones over-allocate and trim the unused lead into its own free block.
func (p *Pool) AllocateAligned(size, align uintptr) (unsafe.Pointer, error) {
	if !p.ready {
		return nil, ErrUninitialized
	}
	if align == 0 || align&(align-1) != 0 {
		return nil, ErrInvalidAlignment
	}
	if uint(align) <= alignSize {
		return p.Allocate(size)
	}
	if uint(size) > MaxSize {
		return nil, ErrTooLarge
	}

	adjusted := adjustSize(uint(size))
	gapMax := uint(align) - alignSize
	// Over-allocate enough that, whatever the acquired block's starting
	// alignment, there's room both for a lead block big enough to be a
	// real free block on its own and for the adjusted payload after it.
	total := adjusted + gapMax + blockSizeMin + blockOverhead

	b, err := p.acquireBlock(total)
	if err != nil {
		return nil, err
	}

	payload := uintptr(b.payload())
	alignedPayload := (payload + uintptr(align) - 1) &^ (uintptr(align) - 1)
	gap := uint(alignedPayload - payload)
	if gap != 0 && gap < blockSizeMin+blockOverhead {
		// Too small to become a free lead block: move on to an aligned
		// address at least a minimum block's footprint further in.
		alignedPayload = (payload + uintptr(blockSizeMin+blockOverhead) + uintptr(align) - 1) &^ (uintptr(align) - 1)
		gap = uint(alignedPayload - payload)
	}

	if gap >= blockSizeMin+blockOverhead {
		leadSize := gap - blockOverhead
		rest := b.split(leadSize)
		b.linkNext()
		b.setFree(true)
		p.fl.insert(b)
		b = rest
	}

	b = p.trimAndUse(b, adjusted)
	p.used += uintptr(b.size() + blockOverhead)
	return b.payload(), nil
}

// acquireBlock finds (growing the backing region first if necessary and
// allowed) a free block of at least adjusted bytes and removes it from the
// free-list index. The returned block is still marked free; the caller
// decides how to split it.
func (p *Pool) acquireBlock(adjusted uint) (block, error) {
	b, fl, sl, ok := p.fl.findSuitable(adjusted)
	if !ok {
		if p.resize == nil || !p.grow(adjusted) {
			return block{}, ErrOutOfMemory
		}
		b, fl, sl, ok = p.fl.findSuitable(adjusted)
		if !ok {
			return block{}, ErrOutOfMemory
		}
	}
	p.fl.removeKnown(b, fl, sl)
	return b, nil
}

// trimAndUse splits off and re-frees a block's trailing remainder when it
// clears the pool's split threshold, then marks the (now right-sized)
// block used.
func (p *Pool) trimAndUse(b block, adjusted uint) block {
	threshold := uint(p.params.splitThreshold())
	if b.canTrim(adjusted, threshold) {
		rest := b.split(adjusted)
		b.linkNext()
		rest.setFree(true)
		p.fl.insert(rest)
	}
	b.setFree(false)
	return b
}

// grow asks the resize callback to back enough additional memory, at the
// pool's fixed base address, to satisfy an allocation of adjusted bytes,
// then folds the new space into the pool exactly like Append.
func (p *Pool) grow(adjusted uint) bool {
	extra := roundBlockSize(adjusted) + blockOverhead
	newTotal := p.size + uintptr(extra)
	if newTotal > maxPoolSize {
		return false
	}
	newBase, err := p.resize(newTotal)
	if err != nil || newBase != p.base {
		return false
	}
	p.growInPlace(extra)
	return true
}
