// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package waveform records, decodes and renders the levels of digital lines.
//
// It is a small logic analyser for bit-banged buses. A Capture wraps
// gpio.PinIO so that every level change is recorded with a timestamp. Decode
// reads an I²C trace back into START, STOP and bit symbols, and Transactions
// groups them into acknowledged bytes.
//
// A trace can be printed as text, drawn in a terminal with ANSI colors, or
// plotted to a PNG image.
package waveform
