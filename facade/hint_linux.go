/* This program is free software. It comes without any warranty, to
 * the extent permitted by applicable law. You can redistribute it
 * and/or modify it under the terms of the Do What The Fuck You Want
 * To Public License, Version 2, as published by Sam Hocevar. See
 * http://sam.zoy.org/wtfpl/COPYING for more details. */

//go:build linux

package facade

import "golang.org/x/sys/unix"

// defaultThreadHint uses the kernel thread id of the OS thread the calling
// goroutine happens to be running on right now, mirroring the original's
// pthread_self()-based default.
func defaultThreadHint() uint32 {
	return uint32(unix.Gettid())
}
