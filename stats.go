/* This program is free software. It comes without any warranty, to
 * the extent permitted by applicable law. You can redistribute it
 * and/or modify it under the terms of the Do What The Fuck You Want
 * To Public License, Version 2, as published by Sam Hocevar. See
 * http://sam.zoy.org/wtfpl/COPYING for more details. */

package tlsf

import "fmt"

// Stats summarizes a pool's current occupancy. Walking the physical chain
// to produce it is O(n) in the block count, unlike every other operation in
// this package; it exists for introspection and diagnostics, never on a
// latency-sensitive path.
type Stats struct {
	PoolSize        uint64 // total bytes currently backed
	UsedBytes       uint64 // bytes handed to callers, including per-block overhead
	FreeBytes       uint64 // bytes available to satisfy future requests, including overhead
	FreeBlockCount  uint64
	UsedBlockCount  uint64
	LargestFreeSize uint64 // payload size of the largest free block (Allocate rounds requests up to a bin boundary, so not every request this small fits)
}

// Stats reports the pool's current occupancy. Returns an error for an
// uninitialized pool, matching the original's -1 return code for a nil
// receiver.
func (p *Pool) Stats() (Stats, error) {
	if !p.ready {
		return Stats{}, fmt.Errorf("tlsf: stats on uninitialized pool: %w", ErrUninitialized)
	}

	s := Stats{
		PoolSize: uint64(p.size),
	}

	end := p.end()
	for b := blockOf(p.base); b != end; b = b.nextPhysical() {
		if b.isFree() {
			s.FreeBlockCount++
			s.FreeBytes += uint64(b.size() + blockOverhead)
			if uint64(b.size()) > s.LargestFreeSize {
				s.LargestFreeSize = uint64(b.size())
			}
		} else {
			s.UsedBlockCount++
			s.UsedBytes += uint64(b.size() + blockOverhead)
		}
	}

	return s, nil
}
