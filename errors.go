/* This program is free software. It comes without any warranty, to
 * the extent permitted by applicable law. You can redistribute it
 * and/or modify it under the terms of the Do What The Fuck You Want
 * To Public License, Version 2, as published by Sam Hocevar. See
 * http://sam.zoy.org/wtfpl/COPYING for more details. */

package tlsf

import "errors"

// Sentinel errors returned by Pool's operations. Check wraps ErrCorrupt with
// the name of the violated invariant via %w; Init, NewGrowable and Stats
// also wrap theirs with context, so match with errors.Is.
var (
	// ErrOutOfMemory means no free block satisfied the request and either
	// the pool isn't growable or its backing callback failed.
	ErrOutOfMemory = errors.New("tlsf: out of memory")

	// ErrInvalidAlignment means the requested alignment was zero or not a
	// power of two.
	ErrInvalidAlignment = errors.New("tlsf: invalid alignment")

	// ErrTooLarge means the requested size exceeds MaxSize, or that Init,
	// NewGrowable or Append would make the pool larger than its maximum size.
	ErrTooLarge = errors.New("tlsf: requested size too large")

	// ErrUninitialized means an operation was attempted on a zero-value
	// Pool that was never passed to Init or created by NewGrowable.
	ErrUninitialized = errors.New("tlsf: pool not initialized")

	// ErrNonAdjacent means Append was called with a region that doesn't
	// begin exactly where the pool's current backing memory ends.
	ErrNonAdjacent = errors.New("tlsf: appended region is not adjacent")

	// ErrCorrupt means Check found a violated structural invariant. The
	// specific invariant is wrapped in via fmt.Errorf("%s: %w", name, ErrCorrupt).
	ErrCorrupt = errors.New("tlsf: consistency check failed")
)
