/* This program is free software. It comes without any warranty, to
 * the extent permitted by applicable law. You can redistribute it
 * and/or modify it under the terms of the Do What The Fuck You Want
 * To Public License, Version 2, as published by Sam Hocevar. See
 * http://sam.zoy.org/wtfpl/COPYING for more details. */

package facade

// ThreadHint returns a number that's cheap to compute and tends to stay
// stable for the life of the calling goroutine's underlying OS thread, used
// to pick a preferred arena so the same caller tends to hit the same arena
// call after call (better cache locality, fewer cross-arena frees). It
// needn't be unique or even particularly well distributed on its own —
// mixHint below takes care of that — only cheap and locally stable.
//
// The default, defaultThreadHint, uses the OS thread id on platforms where
// one is available. A goroutine can migrate between OS threads between
// calls, so this is a hint, not a guarantee: Malloc and Free correctly
// handle a miss by falling back to scanning other arenas.
type ThreadHint func() uint32

// mixHint spreads a thread hint's low bits across the whole word before
// it's reduced mod the arena count, the same one-round integer finalizer
// the original facade uses to turn a TLS/thread-id value (often just a
// small counter or a pointer's low bits) into a usable hash.
func mixHint(h uint32) uint32 {
	h ^= h >> 16
	h *= 0x45d9f3b
	h ^= h >> 16
	return h
}
