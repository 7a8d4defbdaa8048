// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package softi2c

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

// Drive selects how a released line goes high.
type Drive int

const (
	// OpenDrain never drives a line high. A released line is an input and is
	// pulled up, either by the pin or by external resistors.
	OpenDrain Drive = iota
	// PushPull drives released lines high as outputs. SDA becomes an input
	// only while the target is expected to drive it.
	PushPull
)

func (d Drive) String() string {
	switch d {
	case OpenDrain:
		return "OpenDrain"
	case PushPull:
		return "PushPull"
	default:
		return fmt.Sprintf("Drive(%d)", int(d))
	}
}

// line is one of the two bus signals.
type line struct {
	p     gpio.PinIO
	drive Drive
	pull  gpio.Pull
}

// setLow drives the line low.
func (l *line) setLow() error {
	return l.wrap(l.p.Out(gpio.Low))
}

// release lets the line go high.
func (l *line) release() error {
	if l.drive == PushPull {
		return l.wrap(l.p.Out(gpio.High))
	}
	return l.listen()
}

// listen stops driving the line so that a target can pull it low.
func (l *line) listen() error {
	return l.wrap(l.p.In(l.pull, gpio.NoEdge))
}

// read samples the line. It only reflects the bus while the line is released
// to an input.
func (l *line) read() gpio.Level {
	return l.p.Read()
}

func (l *line) wrap(err error) error {
	if err != nil {
		return fmt.Errorf("softi2c: %s: %w", l.p, err)
	}
	return nil
}
