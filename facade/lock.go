/* This program is free software. It comes without any warranty, to
 * the extent permitted by applicable law. You can redistribute it
 * and/or modify it under the terms of the Do What The Fuck You Want
 * To Public License, Version 2, as published by Sam Hocevar. See
 * http://sam.zoy.org/wtfpl/COPYING for more details. */

package facade

import "sync"

// Locker is the lock interface each arena is guarded by. New and
// NewGrowable always install the sync.Mutex-backed default; Params has no
// field for supplying another implementation. A blocking-only lock (no
// contention-free fast path) satisfies the interface; TryLock just won't
// ever help the dispatcher skip to a different arena.
type Locker interface {
	TryLock() bool
	Lock()
	Unlock()
}

// mutexLocker is the default Locker, backed by sync.Mutex's own
// TryLock (added in Go 1.18), the natural non-blocking-acquire primitive
// for this job.
type mutexLocker struct {
	mu sync.Mutex
}

func newMutexLocker() Locker { return &mutexLocker{} }

func (l *mutexLocker) TryLock() bool { return l.mu.TryLock() }
func (l *mutexLocker) Lock()         { l.mu.Lock() }
func (l *mutexLocker) Unlock()       { l.mu.Unlock() }
