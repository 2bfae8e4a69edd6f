/* This program is free software. It comes without any warranty, to
 * the extent permitted by applicable law. You can redistribute it
 * and/or modify it under the terms of the Do What The Fuck You Want
 * To Public License, Version 2, as published by Sam Hocevar. See
 * http://sam.zoy.org/wtfpl/COPYING for more details. */

package tlsf

import "fmt"

// Check walks the whole pool and verifies its structural invariants in
// three phases: the physical block chain, the free-list bitmap index, and
// a cross-validation that the two agree on how many blocks are free. It is
// O(n) in the block count and meant for tests and diagnostics, never the
// allocation hot path.
//
// On the first violation found, Check logs the invariant's name and
// returns an error wrapping ErrCorrupt.
func (p *Pool) Check() error {
	if !p.ready {
		return ErrUninitialized
	}

	physicalFree, err := p.checkPhysicalChain()
	if err != nil {
		return err
	}

	indexFree, err := p.checkFreeListIndex()
	if err != nil {
		return err
	}

	if physicalFree != indexFree {
		return p.corrupt("free block count mismatch between physical chain and free-list index")
	}

	return nil
}

func (p *Pool) corrupt(invariant string) error {
	logger.Error("tlsf: consistency check failed", "invariant", invariant)
	return fmt.Errorf("%s: %w", invariant, ErrCorrupt)
}

// assertValidBlock is the single-block validity check AssertEnabled gates
// in Free and Resize: the block's header must be in-pool, aligned, of a
// representable size, and currently marked used. It checks only what's
// reachable from one boundary tag, not the whole pool, so it stays cheap
// enough to run on every release even though Check itself never is.
func (p *Pool) assertValidBlock(b block) error {
	if !p.Owns(b.addr()) {
		return p.corrupt("block header outside pool bounds")
	}
	if b.size() < blockSizeMin || b.size() > blockSizeMax {
		return p.corrupt("block size outside representable range")
	}
	if uint(uintptr(b.addr()))%alignSize != 0 {
		return p.corrupt("block not aligned")
	}
	if b.isFree() {
		return p.corrupt("double free: block already marked free")
	}
	return nil
}

// checkPhysicalChain walks every block from the first to the sentinel,
// verifying address monotonicity, alignment, and that each block's free bit
// agrees with its successor's prevFree bit. Returns the number of free
// blocks it saw.
func (p *Pool) checkPhysicalChain() (uint64, error) {
	end := p.end()
	var freeCount uint64
	var prevWasFree bool

	for b := blockOf(p.base); ; b = b.nextPhysical() {
		if b.isPrevFree() != prevWasFree {
			return 0, p.corrupt("prevFree bit disagrees with predecessor's free bit")
		}
		if b == end {
			if b.isFree() {
				return 0, p.corrupt("sentinel block marked free")
			}
			break
		}
		if b.size() < blockSizeMin {
			return 0, p.corrupt("block smaller than the minimum block size")
		}
		if uint(uintptr(b.addr()))%alignSize != 0 {
			return 0, p.corrupt("block not aligned")
		}
		if b.isFree() {
			freeCount++
		}
		prevWasFree = b.isFree()
	}

	return freeCount, nil
}

// checkFreeListIndex walks every (fl, sl) list the bitmap claims is
// non-empty, verifying each block actually maps back to that bin and using
// Floyd's cycle detection to catch a corrupted list before it loops
// forever, in O(1) extra space. Returns the number of free blocks it saw.
func (p *Pool) checkFreeListIndex() (uint64, error) {
	var total uint64

	for fl := uint32(0); fl < flCount; fl++ {
		flBitSet := p.fl.flBitmap&(1<<fl) != 0
		slBitmap := p.fl.slBitmap[fl]

		if !flBitSet && slBitmap != 0 {
			return 0, p.corrupt("fl bitmap bit clear but sl bitmap non-empty")
		}

		for sl := uint32(0); sl < slCount; sl++ {
			head := p.fl.head[fl][sl]
			slBitSet := slBitmap&(1<<sl) != 0

			if head == p.fl.null {
				if slBitSet {
					return 0, p.corrupt("sl bitmap bit set but list empty")
				}
				continue
			}
			if !slBitSet {
				return 0, p.corrupt("sl bitmap bit clear but list non-empty")
			}

			n, err := p.checkFreeList(head, fl, sl)
			if err != nil {
				return 0, err
			}
			total += n
		}
	}

	return total, nil
}

func (p *Pool) checkFreeList(head block, fl, sl uint32) (uint64, error) {
	slow, fast := head, head
	var count uint64

	for {
		if !slow.isFree() {
			return 0, p.corrupt("non-free block found on a free list")
		}
		gotFL, gotSL := mapping(slow.size())
		if gotFL != fl || gotSL != sl {
			return 0, p.corrupt("free block threaded onto the wrong bin")
		}
		count++

		slow = slow.freeNext()
		if fast != p.fl.null {
			fast = fast.freeNext()
		}
		if fast != p.fl.null {
			fast = fast.freeNext()
		}

		if slow == p.fl.null {
			break
		}
		if slow == fast {
			return 0, p.corrupt("cycle detected in free list")
		}
	}

	return count, nil
}
