/* This program is free software. It comes without any warranty, to
 * the extent permitted by applicable law. You can redistribute it
 * and/or modify it under the terms of the Do What The Fuck You Want
 * To Public License, Version 2, as published by Sam Hocevar. See
 * http://sam.zoy.org/wtfpl/COPYING for more details. */

package tlsf

import (
	"io"
	"log/slog"
)

// logger is used only off the allocation/release hot path: by Check, to
// report which invariant failed before returning ErrCorrupt. Allocate,
// Free, and the in-place paths of Resize never touch it. Defaults to
// discarding everything; SetLogger replaces it.
var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

// SetLogger installs the logger used by Check's diagnostic output.
func SetLogger(l *slog.Logger) {
	logger = l
}

// AssertEnabled toggles extra invariant checks (currently: Free and Resize
// call Check's per-block validity helper on the block they're handed).
// The original exposes this as a compile-time ENABLE_ASSERT flag; Go has no
// preprocessor, so it's a package variable instead — leave it false in
// production, turn it on in tests.
var AssertEnabled = false
