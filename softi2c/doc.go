// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package softi2c implements an I²C bus master by bit-banging two GPIO pins.
//
// No I²C controller is used: SCL and SDA are toggled in software and every
// transition is followed by a microsecond wait. This trades throughput for
// full control of the signal timing, which helps with long lines, repeaters or
// unusual bus capacitance, and lets any pair of GPIO pins become a bus.
//
// # Drive modes
//
// In OpenDrain mode (the default) a line is never driven high. It is either
// pulled low as an output or released as an input and pulled up, either by the
// pin's internal pull-up or by external resistors. Pins without true
// open-drain support emulate it this way.
//
// In PushPull mode both lines are driven high and low as ordinary outputs. SDA
// is turned into an input only while the target is expected to drive it. This
// works without any pull-up but is unsafe on a bus where another device may
// drive the lines.
//
// # Timing
//
// The bus speed is reduced to two waits: the pulse, during which SCL is held
// released for a data bit, and the delay, the propagation time after any other
// transition. Because waits have a microsecond resolution the effective speed
// only approximates the requested one:
//
//	1kHz        pulse=500µs delay=250µs
//	10kHz       pulse=50µs  delay=25µs
//	50-55kHz    pulse=10µs  delay=5µs
//	84-99kHz    pulse=6µs   delay=3µs
//	100-124kHz  pulse=5µs   delay=3µs
//	125-166kHz  pulse=4µs   delay=2µs
//	167-249kHz  pulse=3µs   delay=2µs
//	250-499kHz  pulse=2µs   delay=1µs
//	>=500kHz    pulse=1µs   delay=1µs
//
// Many targets accept much lower speeds than their nominal one.
//
// # Transactions
//
// The primitives Start, Stop, WriteByte, ReadByte, ReadAck and ReadNack give
// direct control of the bus. Transmit and TransmitBytes run the common
// START, WRITE+ACK..., STOP sequence. When a byte is not acknowledged they
// return immediately and leave the bus mid-transaction; call Stop or Off to
// release it.
//
// Bus also implements i2c.BusCloser so that the periph.io device drivers can
// use it, and Register exposes it through i2creg.
//
// # References
//
// https://www.nxp.com/docs/en/user-guide/UM10204.pdf
//
// http://www.i2c-bus.org/repeated-start-condition
package softi2c
