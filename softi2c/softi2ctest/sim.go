// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package softi2ctest is meant to be used to test drivers bit-banging I²C.
//
// Sim is an in-memory two-wire bus with a virtual clock. The master drives it
// through two gpio.PinIO lines while a Peripheral plays the target side.
package softi2ctest

import (
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/pin"

	"github.com/GermanBionicSystems/softi2c/waveform"
)

// Peripheral is the target side of a Sim.
//
// Its methods are called with the Sim lock held and must not call back into
// the Sim.
type Peripheral interface {
	// Start is called on a START or repeated START condition.
	Start()
	// Stop is called on a STOP condition.
	Stop()
	// Sample is called when SCL goes low after a clock pulse, with the SDA
	// level seen while SCL was high. Clock pulses ended by a START or STOP
	// are not reported.
	Sample(sda gpio.Level)
	// Drive is called each time SCL goes low, after Sample. The returned level
	// is held on SDA until SCL goes low again; gpio.High leaves SDA released.
	Drive() gpio.Level
}

type drive int

const (
	released drive = iota
	drivenLow
	drivenHigh
)

// Sim is a simulated I²C bus.
//
// The zero value is not usable; use New.
type Sim struct {
	// PullUp tells whether the bus has external pull-up resistors. Without
	// them, a released line with no pull-up requested by the master reads
	// low.
	PullUp bool

	mu          sync.Mutex
	p           Peripheral
	now         time.Duration
	scl         *Line
	sda         *Line
	target      drive // SDA as driven by the peripheral
	level       [2]gpio.Level
	sampled     gpio.Level
	pending     bool
	contended   bool
	contentions int
	trace       waveform.Trace
}

// New returns an idle Sim with external pull-ups, played by p on the target
// side. p can be nil for a bus without any target.
func New(p Peripheral) *Sim {
	s := &Sim{PullUp: true, p: p, level: [2]gpio.Level{gpio.High, gpio.High}}
	s.scl = &Line{s: s, idx: 0, name: waveform.SCL}
	s.sda = &Line{s: s, idx: 1, name: waveform.SDA}
	return s
}

// SCL returns the clock line.
func (s *Sim) SCL() *Line {
	return s.scl
}

// SDA returns the data line.
func (s *Sim) SDA() *Line {
	return s.sda
}

// Sleep advances the virtual clock by d. Use it as the bus Sleep option.
func (s *Sim) Sleep(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now += d
}

// Now returns the virtual time.
func (s *Sim) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Trace returns the level changes of both lines as seen on the bus.
func (s *Sim) Trace() waveform.Trace {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(waveform.Trace(nil), s.trace...)
}

// ResetTrace drops the recorded events.
func (s *Sim) ResetTrace() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trace = nil
}

// Contentions returns how many times the master drove SDA high while the
// target pulled it low. This only happens in push-pull mode.
func (s *Sim) Contentions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.contentions
}

// Levels returns the current bus levels.
func (s *Sim) Levels() (scl, sda gpio.Level) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level[0], s.level[1]
}

// Driven returns whether each line is actively driven low by the master.
func (s *Sim) Driven() (scl, sda bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scl.d == drivenLow, s.sda.d == drivenLow
}

func (s *Sim) String() string {
	return "softi2ctest.Sim"
}

// resolve computes the level of line i. Must be called with the lock held.
func (s *Sim) resolve(i int) gpio.Level {
	l := s.scl
	if i == 1 {
		l = s.sda
	}
	targetLow := i == 1 && s.target == drivenLow
	switch l.d {
	case drivenLow:
		return gpio.Low
	case drivenHigh:
		if targetLow {
			return gpio.Low
		}
		return gpio.High
	}
	if targetLow {
		return gpio.Low
	}
	if s.PullUp || l.pull == gpio.PullUp {
		return gpio.High
	}
	return gpio.Low
}

// update propagates a change made by the master. Must be called with the lock
// held.
func (s *Sim) update() {
	defer func() {
		c := s.sda.d == drivenHigh && s.target == drivenLow
		if c && !s.contended {
			s.contentions++
		}
		s.contended = c
	}()
	for i := range s.level {
		l := s.resolve(i)
		if l == s.level[i] {
			continue
		}
		s.level[i] = l
		line := waveform.SCL
		if i == 1 {
			line = waveform.SDA
		}
		s.trace = append(s.trace, waveform.Event{Line: line, Level: l, At: s.now})
		if i == 0 {
			s.clock(l)
		} else {
			s.data(l)
		}
	}
}

func (s *Sim) clock(l gpio.Level) {
	if l == gpio.High {
		s.pending = true
		s.sampled = s.level[1]
		return
	}
	if s.p == nil {
		return
	}
	if s.pending {
		s.pending = false
		s.p.Sample(s.sampled)
	}
	s.target = released
	if s.p.Drive() == gpio.Low {
		s.target = drivenLow
	}
	// The target moves SDA while SCL is low.
	if l := s.resolve(1); l != s.level[1] {
		s.level[1] = l
		s.trace = append(s.trace, waveform.Event{Line: waveform.SDA, Level: l, At: s.now})
	}
}

func (s *Sim) data(l gpio.Level) {
	if s.level[0] != gpio.High {
		return
	}
	s.pending = false
	if s.p == nil {
		return
	}
	if l == gpio.Low {
		s.p.Start()
	} else {
		s.p.Stop()
	}
}

// Line is one simulated line. It implements gpio.PinIO.
type Line struct {
	s    *Sim
	idx  int
	name string
	d    drive
	pull gpio.Pull
}

// String implements conn.Resource.
func (l *Line) String() string {
	return fmt.Sprintf("Sim%s", l.name)
}

// Halt implements conn.Resource.
func (l *Line) Halt() error {
	return nil
}

// Name implements pin.Pin.
func (l *Line) Name() string {
	return l.name
}

// Number implements pin.Pin.
func (l *Line) Number() int {
	return -1
}

// Function implements pin.Pin.
func (l *Line) Function() string {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	if l.d == released {
		return "In/" + l.s.level[l.idx].String()
	}
	return "Out/" + l.s.level[l.idx].String()
}

// In implements gpio.PinIn.
func (l *Line) In(pull gpio.Pull, edge gpio.Edge) error {
	if edge != gpio.NoEdge {
		return fmt.Errorf("softi2ctest: %s: edge detection is not supported", l)
	}
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	l.d = released
	if pull != gpio.PullNoChange {
		l.pull = pull
	}
	l.s.update()
	return nil
}

// Read implements gpio.PinIn.
func (l *Line) Read() gpio.Level {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return l.s.level[l.idx]
}

// WaitForEdge implements gpio.PinIn.
func (l *Line) WaitForEdge(timeout time.Duration) bool {
	return false
}

// Pull implements gpio.PinIn.
func (l *Line) Pull() gpio.Pull {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return l.pull
}

// DefaultPull implements gpio.PinIn.
func (l *Line) DefaultPull() gpio.Pull {
	return gpio.Float
}

// Out implements gpio.PinOut.
func (l *Line) Out(level gpio.Level) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	l.d = drivenLow
	if level == gpio.High {
		l.d = drivenHigh
	}
	l.s.update()
	return nil
}

// PWM implements gpio.PinOut.
func (l *Line) PWM(duty gpio.Duty, f physic.Frequency) error {
	return fmt.Errorf("softi2ctest: %s: PWM is not supported", l)
}

var _ gpio.PinIO = &Line{}
var _ pin.Pin = &Line{}
