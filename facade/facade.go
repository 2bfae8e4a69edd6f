/* This program is free software. It comes without any warranty, to
 * the extent permitted by applicable law. You can redistribute it
 * and/or modify it under the terms of the Do What The Fuck You Want
 * To Public License, Version 2, as published by Sam Hocevar. See
 * http://sam.zoy.org/wtfpl/COPYING for more details. */

// Package facade wraps tlsf.Pool with a fixed set of independently locked
// arenas, so many goroutines can allocate and free concurrently without
// serializing on one mutex. Each arena is a complete pool of its own;
// Malloc picks one with a cheap thread hint, Free and Resize find the
// owning arena by address range.
package facade

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/hardrt/tlsf"
)

// cacheLinePad sizes the gap between adjacent arena slots so two arenas'
// lock and pool fields don't share a cache line (false sharing between
// goroutines hammering different arenas would otherwise serialize them at
// the hardware level even though they hold independent locks).
const cacheLinePad = 40

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

// SetLogger installs the logger used to report Malloc/AlignedMalloc falling
// back to a non-preferred arena (Debug level only; never on the common-case
// path).
func SetLogger(l *slog.Logger) { logger = l }

// Params configures a Facade.
type Params struct {
	// ThreadHint overrides the default OS-thread-id-based hint used to pick
	// a caller's preferred arena. Needed on platforms (FreeRTOS, Zephyr,
	// WASM) where no OS thread id is available.
	ThreadHint ThreadHint
}

type arenaSlot struct {
	lock Locker
	pool *tlsf.Pool
	_    [cacheLinePad]byte
}

// Facade is a fixed-size set of independently locked tlsf.Pool arenas.
type Facade struct {
	arenas []*arenaSlot
	hint   ThreadHint
}

// New builds a Facade with one arena per region in regions, each
// initialized as a static pool (see tlsf.Pool.Init) over its own region.
func New(regions [][]byte, poolParams tlsf.Params, params Params) (*Facade, error) {
	if len(regions) == 0 {
		return nil, fmt.Errorf("tlsf/facade: at least one arena region required")
	}

	hint := params.ThreadHint
	if hint == nil {
		hint = defaultThreadHint
	}

	f := &Facade{
		arenas: make([]*arenaSlot, len(regions)),
		hint:   hint,
	}
	for i, region := range regions {
		pool := &tlsf.Pool{}
		if err := pool.Init(region, poolParams); err != nil {
			return nil, fmt.Errorf("tlsf/facade: arena %d: %w", i, err)
		}
		f.arenas[i] = &arenaSlot{lock: newMutexLocker(), pool: pool}
	}
	return f, nil
}

// NewGrowable is like New but each arena is backed by its own ResizeFunc,
// one per region/resize pair, matching tlsf.NewGrowable per arena.
func NewGrowable(regions [][]byte, resizers []tlsf.ResizeFunc, poolParams tlsf.Params, params Params) (*Facade, error) {
	if len(regions) == 0 || len(regions) != len(resizers) {
		return nil, fmt.Errorf("tlsf/facade: regions and resizers must be equal, non-zero length")
	}

	hint := params.ThreadHint
	if hint == nil {
		hint = defaultThreadHint
	}

	f := &Facade{
		arenas: make([]*arenaSlot, len(regions)),
		hint:   hint,
	}
	for i := range regions {
		pool, err := tlsf.NewGrowable(regions[i], resizers[i], poolParams)
		if err != nil {
			return nil, fmt.Errorf("tlsf/facade: arena %d: %w", i, err)
		}
		f.arenas[i] = &arenaSlot{lock: newMutexLocker(), pool: pool}
	}
	return f, nil
}

// ArenaCount returns the number of arenas the facade was built with.
func (f *Facade) ArenaCount() int { return len(f.arenas) }

// preferredIndex maps the current thread hint onto an arena slot.
func (f *Facade) preferredIndex() int {
	return int(mixHint(f.hint()) % uint32(len(f.arenas)))
}
