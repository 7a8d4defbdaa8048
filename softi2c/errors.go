// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package softi2c

import "errors"

var (
	// ErrNACK signals that the target did not acknowledge a byte. A missing
	// target, a busy target and a rejected byte all look the same on the wire.
	ErrNACK = errors.New("softi2c: NACK received")

	// ErrPEC signals that the packet error code read back from the target does
	// not match the one computed over the transaction.
	ErrPEC = errors.New("softi2c: PEC mismatch")

	errNoPin       = errors.New("softi2c: SCL and SDA pins are required")
	errSamePin     = errors.New("softi2c: SCL and SDA must be different pins")
	errClosed      = errors.New("softi2c: bus is closed")
	errInvalidAddr = errors.New("softi2c: only 7 bit addresses are supported")
)
