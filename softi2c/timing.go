// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package softi2c

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/physic"
)

// Timing is the pair of waits every bus transition is followed by.
type Timing struct {
	Pulse time.Duration // SCL released time for one bit
	Delay time.Duration // propagation time after any other transition
}

// TimingFor derives the waits for the requested bus speed.
//
// The speed is truncated to whole kilohertz, then pulse = ⌈1000/2k⌉µs and
// delay = ⌈1000/4k⌉µs. Speeds of 500kHz and more saturate at 1µs for both.
func TimingFor(f physic.Frequency) (Timing, error) {
	k := int64(f / physic.KiloHertz)
	if k < 1 {
		return Timing{}, fmt.Errorf("softi2c: invalid speed %s; minimum supported clock is 1kHz", f)
	}
	return Timing{
		Pulse: time.Duration(ceilDiv(1000, 2*k)) * time.Microsecond,
		Delay: time.Duration(ceilDiv(1000, 4*k)) * time.Microsecond,
	}, nil
}

// Frequency returns the effective SCL frequency of a written bit: one delay
// of setup, one pulse high and one delay low.
func (t Timing) Frequency() physic.Frequency {
	return physic.PeriodToFrequency(t.Pulse + 2*t.Delay)
}

func (t Timing) String() string {
	return fmt.Sprintf("pulse=%s delay=%s", t.Pulse, t.Delay)
}

func (t Timing) validate() error {
	if t.Delay < time.Microsecond {
		return fmt.Errorf("softi2c: invalid delay %s; must be at least 1µs", t.Delay)
	}
	if t.Pulse < t.Delay {
		return fmt.Errorf("softi2c: invalid pulse %s; must not be shorter than delay %s", t.Pulse, t.Delay)
	}
	return nil
}

func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}
