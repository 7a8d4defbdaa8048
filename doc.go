// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package softi2c is a container for a bit-banged I²C master and its tooling.
//
// softi2c/ drives the bus on two GPIO pins, softi2c/softi2ctest simulates a
// bus and its targets, waveform/ records, decodes and draws the lines, and
// cmd/softi2c is a command line tool tying them together.
package softi2c
