/* This program is free software. It comes without any warranty, to
 * the extent permitted by applicable law. You can redistribute it
 * and/or modify it under the terms of the Do What The Fuck You Want
 * To Public License, Version 2, as published by Sam Hocevar. See
 * http://sam.zoy.org/wtfpl/COPYING for more details. */

// Package tlsf implements a Two-Level Segregated Fit memory allocator with
// a hard O(1) instruction bound on every allocate, free, and resize,
// independent of heap state or pool occupancy.
//
// A Pool manages a single caller-supplied contiguous byte slice and services
// allocation requests carved from that slice. Two-level segregated bins
// (a first-level bitmap over power-of-two size classes, a second-level
// bitmap subdividing each class into 32 linear bins) let allocation and
// release touch at most two bitmap words and splice one doubly-linked list,
// regardless of how many blocks the pool holds.
//
// IMPORTANT: Pool is NOT goroutine-safe. Concurrent access to the same Pool
// from multiple goroutines is undefined behavior; use package
// github.com/hardrt/tlsf/facade for a locked, multi-arena wrapper.
package tlsf
