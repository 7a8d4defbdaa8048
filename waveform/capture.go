// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package waveform

import (
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Capture collects the events of several recorded pins into one Trace.
type Capture struct {
	now func() time.Duration

	mu     sync.Mutex
	events Trace
	last   map[string]gpio.Level
}

// NewCapture returns a Capture timestamping events with now. When now is nil
// the monotonic time since the call to NewCapture is used.
func NewCapture(now func() time.Duration) *Capture {
	if now == nil {
		start := time.Now()
		now = func() time.Duration { return time.Since(start) }
	}
	return &Capture{now: now, last: map[string]gpio.Level{}}
}

// Wrap returns a pin that behaves as p and records its level under name.
//
// The level is recorded after Out and In, and on Read when it differs from the
// last recorded one, so that levels driven by another device show up when the
// pin is sampled. Such events are marked Sampled.
func (c *Capture) Wrap(name string, p gpio.PinIO) gpio.PinIO {
	return &Recorder{PinIO: p, name: name, c: c}
}

// Trace returns a copy of the events recorded so far.
func (c *Capture) Trace() Trace {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append(Trace(nil), c.events...)
}

// Reset drops the recorded events.
func (c *Capture) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
	c.last = map[string]gpio.Level{}
}

// Record appends an event if line changes level.
func (c *Capture) Record(line string, l gpio.Level) {
	c.record(line, l, false)
}

func (c *Capture) record(line string, l gpio.Level, sampled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.last[line]; ok && prev == l {
		return
	}
	c.last[line] = l
	c.events = append(c.events, Event{Line: line, Level: l, At: c.now(), Sampled: sampled})
}

// Recorder is a gpio.PinIO that records its level changes into a Capture.
type Recorder struct {
	gpio.PinIO
	name string
	c    *Capture
}

// Out implements gpio.PinOut.
func (r *Recorder) Out(l gpio.Level) error {
	if err := r.PinIO.Out(l); err != nil {
		return err
	}
	r.c.Record(r.name, l)
	return nil
}

// In implements gpio.PinIn.
func (r *Recorder) In(pull gpio.Pull, edge gpio.Edge) error {
	if err := r.PinIO.In(pull, edge); err != nil {
		return err
	}
	r.c.Record(r.name, r.PinIO.Read())
	return nil
}

// Read implements gpio.PinIn.
func (r *Recorder) Read() gpio.Level {
	l := r.PinIO.Read()
	r.c.record(r.name, l, true)
	return l
}

func (r *Recorder) String() string {
	return r.name + "(" + r.PinIO.String() + ")"
}

var _ gpio.PinIO = &Recorder{}
