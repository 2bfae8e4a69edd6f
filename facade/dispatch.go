/* This program is free software. It comes without any warranty, to
 * the extent permitted by applicable law. You can redistribute it
 * and/or modify it under the terms of the Do What The Fuck You Want
 * To Public License, Version 2, as published by Sam Hocevar. See
 * http://sam.zoy.org/wtfpl/COPYING for more details. */

package facade

import (
	"fmt"
	"unsafe"

	"github.com/hardrt/tlsf"
)

// Malloc allocates from the caller's preferred arena (picked from the
// current thread hint). If that arena is momentarily locked by another
// goroutine, it falls through to a non-blocking scan of the remaining
// arenas before finally blocking on the preferred one — the same
// try-then-fall-back-then-block order the original uses, so a contended
// allocator degrades gracefully instead of piling every caller onto one
// lock.
func (f *Facade) Malloc(size uintptr) (unsafe.Pointer, error) {
	n := len(f.arenas)
	preferred := f.preferredIndex()

	if slot := f.arenas[preferred]; slot.lock.TryLock() {
		ptr, err := slot.pool.Allocate(size)
		slot.lock.Unlock()
		return ptr, err
	}

	for i := 1; i < n; i++ {
		idx := (preferred + i) % n
		slot := f.arenas[idx]
		if slot.lock.TryLock() {
			logger.Debug("tlsf/facade: fell back to another arena", "preferred", preferred, "used", idx)
			ptr, err := slot.pool.Allocate(size)
			slot.lock.Unlock()
			return ptr, err
		}
	}

	slot := f.arenas[preferred]
	slot.lock.Lock()
	ptr, err := slot.pool.Allocate(size)
	slot.lock.Unlock()
	return ptr, err
}

// AlignedMalloc is Malloc with a required alignment; see
// tlsf.Pool.AllocateAligned.
func (f *Facade) AlignedMalloc(size, align uintptr) (unsafe.Pointer, error) {
	n := len(f.arenas)
	preferred := f.preferredIndex()

	if slot := f.arenas[preferred]; slot.lock.TryLock() {
		ptr, err := slot.pool.AllocateAligned(size, align)
		slot.lock.Unlock()
		return ptr, err
	}

	for i := 1; i < n; i++ {
		idx := (preferred + i) % n
		slot := f.arenas[idx]
		if slot.lock.TryLock() {
			logger.Debug("tlsf/facade: fell back to another arena", "preferred", preferred, "used", idx)
			ptr, err := slot.pool.AllocateAligned(size, align)
			slot.lock.Unlock()
			return ptr, err
		}
	}

	slot := f.arenas[preferred]
	slot.lock.Lock()
	ptr, err := slot.pool.AllocateAligned(size, align)
	slot.lock.Unlock()
	return ptr, err
}

// findOwner returns the arena slot whose pool owns ptr, LOCKED — the
// caller must Unlock it once done, never re-Lock it. This has to lock each
// slot before testing Owns, not just before touching the pool afterward:
// Owns reads the pool's size, which a concurrent Malloc can be mutating
// through growInPlace while holding that same arena's lock (growable
// arenas are a facade addition with no equivalent in the original, whose
// arena_find is safely lock-free only because that C facade never grows an
// arena in place). A nil ptr has no owner.
func (f *Facade) findOwner(ptr unsafe.Pointer) *arenaSlot {
	if ptr == nil {
		return nil
	}
	for _, slot := range f.arenas {
		slot.lock.Lock()
		if slot.pool.Owns(ptr) {
			return slot
		}
		slot.lock.Unlock()
	}
	return nil
}

// Free returns ptr to whichever arena owns it. ptr need not have come from
// this goroutine's preferred arena.
func (f *Facade) Free(ptr unsafe.Pointer) error {
	if ptr == nil {
		return nil
	}
	slot := f.findOwner(ptr)
	if slot == nil {
		return fmt.Errorf("tlsf/facade: pointer not owned by any arena")
	}
	defer slot.lock.Unlock()
	return slot.pool.Free(ptr)
}

// Resize resizes ptr in place within its owning arena when possible. When
// ptr is nil it allocates from the caller's preferred arena like Malloc.
// Growing past what the owning arena can satisfy in place relocates into
// that SAME arena (never across arenas, so ownership lookups by address
// stay correct) via tlsf.Pool.Resize's own relocate path.
func (f *Facade) Resize(ptr unsafe.Pointer, newSize uintptr) (unsafe.Pointer, error) {
	if ptr == nil {
		return f.Malloc(newSize)
	}
	slot := f.findOwner(ptr)
	if slot == nil {
		return nil, fmt.Errorf("tlsf/facade: pointer not owned by any arena")
	}
	defer slot.lock.Unlock()
	return slot.pool.Resize(ptr, newSize)
}

// Check runs tlsf.Pool.Check against every arena, stopping at the first
// failure.
func (f *Facade) Check() error {
	for i, slot := range f.arenas {
		slot.lock.Lock()
		err := slot.pool.Check()
		slot.lock.Unlock()
		if err != nil {
			return fmt.Errorf("arena %d: %w", i, err)
		}
	}
	return nil
}

// Stats aggregates tlsf.Pool.Stats across every arena.
func (f *Facade) Stats() ([]tlsf.Stats, error) {
	out := make([]tlsf.Stats, len(f.arenas))
	for i, slot := range f.arenas {
		slot.lock.Lock()
		s, err := slot.pool.Stats()
		slot.lock.Unlock()
		if err != nil {
			return nil, fmt.Errorf("arena %d: %w", i, err)
		}
		out[i] = s
	}
	return out, nil
}
