/* This program is free software. It comes without any warranty, to
 * the extent permitted by applicable law. You can redistribute it
 * and/or modify it under the terms of the Do What The Fuck You Want
 * To Public License, Version 2, as published by Sam Hocevar. See
 * http://sam.zoy.org/wtfpl/COPYING for more details. */

//go:build !linux

package facade

// defaultThreadHint has no cheap OS-thread id available on this platform
// and always returns 0, collapsing every caller onto arena 0 as its
// preferred arena (still correct, just without the locality benefit).
// Callers on these platforms that care should supply Params.ThreadHint.
func defaultThreadHint() uint32 {
	return 0
}
