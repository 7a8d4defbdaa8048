// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package waveform

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Names of the I²C lines as used by Decode.
const (
	SCL = "SCL"
	SDA = "SDA"
)

// Event is a line taking a new level.
type Event struct {
	Line    string
	Level   gpio.Level
	At      time.Duration // since the start of the trace
	Sampled bool          // observed by a read rather than set by the pin owner
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s@%s", e.Line, e.Level, e.At)
}

// Trace is a time ordered list of events. Lines are assumed high until their
// first event.
type Trace []Event

// Lines returns the names of the lines in the trace. SCL and SDA come first,
// then the other lines in order of first appearance.
func (t Trace) Lines() []string {
	seen := map[string]bool{}
	for _, e := range t {
		seen[e.Line] = true
	}
	var names []string
	for _, n := range []string{SCL, SDA} {
		if seen[n] {
			names = append(names, n)
			seen[n] = false
		}
	}
	for _, e := range t {
		if seen[e.Line] {
			seen[e.Line] = false
			names = append(names, e.Line)
		}
	}
	return names
}

// End returns the timestamp of the last event.
func (t Trace) End() time.Duration {
	if len(t) == 0 {
		return 0
	}
	return t[len(t)-1].At
}

// LevelAt returns the level of line at time at, after all events at that time.
func (t Trace) LevelAt(line string, at time.Duration) gpio.Level {
	l := gpio.High
	for _, e := range t {
		if e.At > at {
			break
		}
		if e.Line == line {
			l = e.Level
		}
	}
	return l
}

// Filter returns the events of line.
func (t Trace) Filter(line string) Trace {
	var out Trace
	for _, e := range t {
		if e.Line == line {
			out = append(out, e)
		}
	}
	return out
}

// Step returns the shortest non-zero interval between two events, which is
// the coarsest sampling step that still shows every level. It returns 0 when
// all the events share a timestamp.
func (t Trace) Step() time.Duration {
	var step time.Duration
	for i := 1; i < len(t); i++ {
		if d := t[i].At - t[i-1].At; d > 0 && (step == 0 || d < step) {
			step = d
		}
	}
	return step
}

// Sample returns the level of line every step, from 0 to the end of the trace
// inclusive.
func (t Trace) Sample(line string, step time.Duration) []gpio.Level {
	if step <= 0 {
		step = t.Step()
	}
	if step <= 0 {
		return []gpio.Level{t.LevelAt(line, t.End())}
	}
	n := int(t.End()/step) + 1
	out := make([]gpio.Level, n)
	l := gpio.High
	i := 0
	for s := range n {
		at := time.Duration(s) * step
		for ; i < len(t) && t[i].At <= at; i++ {
			if t[i].Line == line {
				l = t[i].Level
			}
		}
		out[s] = l
	}
	return out
}
