// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package softi2ctest

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/gpio"
)

// master drives a Sim directly, without timing.
type master struct {
	t *testing.T
	s *Sim
}

func (m *master) out(p gpio.PinIO, l gpio.Level) {
	if err := p.Out(l); err != nil {
		m.t.Fatal(err)
	}
}

func (m *master) release(p gpio.PinIO) {
	if err := p.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		m.t.Fatal(err)
	}
}

func (m *master) start() {
	m.out(m.s.SDA(), gpio.Low)
	m.out(m.s.SCL(), gpio.Low)
}

func (m *master) stop() {
	m.out(m.s.SDA(), gpio.Low)
	m.release(m.s.SCL())
	m.release(m.s.SDA())
}

// bit clocks one bit and returns the SDA level seen while SCL was high.
func (m *master) bit(l gpio.Level) gpio.Level {
	if l == gpio.High {
		m.release(m.s.SDA())
	} else {
		m.out(m.s.SDA(), gpio.Low)
	}
	m.release(m.s.SCL())
	v := m.s.SDA().Read()
	m.out(m.s.SCL(), gpio.Low)
	return v
}

func (m *master) write(v byte) bool {
	for i := 7; i >= 0; i-- {
		m.bit(v&(1<<uint(i)) != 0)
	}
	return m.bit(gpio.High) == gpio.Low
}

func (m *master) read(ack bool) byte {
	var v byte
	for range 8 {
		v <<= 1
		if m.bit(gpio.High) == gpio.High {
			v |= 1
		}
	}
	m.bit(gpio.Level(!ack))
	return v
}

func TestResolve(t *testing.T) {
	s := New(nil)
	if scl, sda := s.Levels(); scl != gpio.High || sda != gpio.High {
		t.Fatal("expected idle bus")
	}
	if err := s.SDA().Out(gpio.Low); err != nil {
		t.Fatal(err)
	}
	if _, sda := s.Levels(); sda != gpio.Low {
		t.Error("driven low")
	}
	if _, sda := s.Driven(); !sda {
		t.Error("expected SDA driven")
	}
	if f := s.SDA().Function(); f != "Out/Low" {
		t.Errorf("Function()=%q", f)
	}

	// Without external pull-ups the line floats low unless the master asks
	// for its pull-up.
	s.PullUp = false
	if err := s.SDA().In(gpio.Float, gpio.NoEdge); err != nil {
		t.Fatal(err)
	}
	if s.SDA().Read() != gpio.Low {
		t.Error("floating line should read low")
	}
	if err := s.SDA().In(gpio.PullUp, gpio.NoEdge); err != nil {
		t.Fatal(err)
	}
	if s.SDA().Read() != gpio.High {
		t.Error("pulled-up line should read high")
	}
	if p := s.SDA().Pull(); p != gpio.PullUp {
		t.Errorf("Pull()=%s", p)
	}
	if f := s.SDA().Function(); f != "In/High" {
		t.Errorf("Function()=%q", f)
	}
}

func TestLineUnsupported(t *testing.T) {
	s := New(nil)
	if s.SCL().In(gpio.PullUp, gpio.BothEdges) == nil {
		t.Error("expected edge detection error")
	}
	if s.SCL().PWM(gpio.DutyHalf, 0) == nil {
		t.Error("expected PWM error")
	}
	if s.SCL().WaitForEdge(time.Second) {
		t.Error("unexpected edge")
	}
	if s.SCL().Number() != -1 || s.SCL().Name() != "SCL" || s.SDA().String() != "SimSDA" {
		t.Error("unexpected identity")
	}
}

func TestSleep(t *testing.T) {
	s := New(nil)
	s.Sleep(3 * time.Microsecond)
	if err := s.SCL().Out(gpio.Low); err != nil {
		t.Fatal(err)
	}
	s.Sleep(2 * time.Microsecond)
	if n := s.Now(); n != 5*time.Microsecond {
		t.Fatalf("Now()=%s", n)
	}
	tr := s.Trace()
	if len(tr) != 1 || tr[0].At != 3*time.Microsecond {
		t.Errorf("unexpected trace %v", tr)
	}
	s.ResetTrace()
	if len(s.Trace()) != 0 {
		t.Error("ResetTrace() kept events")
	}
}

func TestTarget(t *testing.T) {
	target := &Target{Addr: 0x50, Data: []byte{0x12, 0x34}}
	s := New(target)
	m := &master{t: t, s: s}

	m.start()
	if !m.write(0xA0) {
		t.Fatal("address not acknowledged")
	}
	if !m.write(0x07) {
		t.Fatal("data not acknowledged")
	}
	m.release(s.SDA())
	m.release(s.SCL())
	m.start()
	if !m.write(0xA1) {
		t.Fatal("address not acknowledged")
	}
	got := []byte{m.read(true), m.read(true), m.read(false)}
	m.stop()

	if diff := cmp.Diff(got, []byte{0x12, 0x34, 0x12}); diff != "" {
		t.Errorf("read difference (-got +want):\n%s", diff)
	}
	if diff := cmp.Diff(target.Writes, [][]byte{{0x07}}); diff != "" {
		t.Errorf("Writes difference (-got +want):\n%s", diff)
	}
	if target.Starts != 2 || target.Stops != 1 {
		t.Errorf("%d START %d STOP", target.Starts, target.Stops)
	}
	if scl, sda := s.Levels(); scl != gpio.High || sda != gpio.High {
		t.Error("expected idle bus")
	}
}

func TestTargetWrongAddress(t *testing.T) {
	target := &Target{Addr: 0x50}
	s := New(target)
	m := &master{t: t, s: s}
	m.start()
	if m.write(0xA2) {
		t.Fatal("unexpected acknowledge")
	}
	// The target stays off the bus until the next START.
	if m.write(0x00) {
		t.Fatal("unexpected acknowledge")
	}
	m.stop()
	if len(target.Writes) != 0 {
		t.Errorf("unexpected writes %v", target.Writes)
	}
}

func TestTargetRaw(t *testing.T) {
	target := &Target{Raw: true, NackAt: 2}
	s := New(target)
	m := &master{t: t, s: s}
	m.start()
	if !m.write(0x01) {
		t.Fatal("expected acknowledge")
	}
	if m.write(0x02) {
		t.Fatal("expected NACK")
	}
	m.stop()
	if diff := cmp.Diff(target.Writes, [][]byte{{0x01, 0x02}}); diff != "" {
		t.Errorf("Writes difference (-got +want):\n%s", diff)
	}
}

func TestTargetEmptyData(t *testing.T) {
	s := New(&Target{Addr: 0x10})
	m := &master{t: t, s: s}
	m.start()
	if !m.write(0x21) {
		t.Fatal("address not acknowledged")
	}
	if v := m.read(false); v != 0xFF {
		t.Errorf("read 0x%02x", v)
	}
	m.stop()
}

func TestLoopback(t *testing.T) {
	s := New(&Loopback{})
	m := &master{t: t, s: s}
	m.start()
	// The acknowledge clock carries the first replayed bit.
	if m.write(0xA5) {
		t.Fatal("unexpected acknowledge")
	}
	var v byte
	for range 7 {
		v <<= 1
		if m.bit(gpio.High) == gpio.High {
			v |= 1
		}
	}
	if v != 0xA5&0x7f {
		t.Errorf("replayed 0x%02x", v)
	}
	m.stop()
}

func TestBits(t *testing.T) {
	b := &Bits{Levels: []gpio.Level{gpio.Low, gpio.High, gpio.Low}}
	s := New(b)
	m := &master{t: t, s: s}
	m.out(s.SCL(), gpio.Low)
	var got []gpio.Level
	for range 4 {
		got = append(got, m.bit(gpio.High))
	}
	want := []gpio.Level{gpio.Low, gpio.High, gpio.Low, gpio.High}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("levels difference (-got +want):\n%s", diff)
	}
	if diff := cmp.Diff(b.Samples, want); diff != "" {
		t.Errorf("Samples difference (-got +want):\n%s", diff)
	}
}

func TestContention(t *testing.T) {
	s := New(&Bits{Levels: []gpio.Level{gpio.Low}})
	m := &master{t: t, s: s}
	m.out(s.SCL(), gpio.Low)
	// The target holds SDA low while the master drives it high.
	m.out(s.SDA(), gpio.High)
	m.out(s.SDA(), gpio.High)
	if _, sda := s.Levels(); sda != gpio.Low {
		t.Error("target should win")
	}
	if n := s.Contentions(); n != 1 {
		t.Errorf("Contentions()=%d", n)
	}
	m.release(s.SDA())
	m.out(s.SDA(), gpio.High)
	if n := s.Contentions(); n != 2 {
		t.Errorf("Contentions()=%d", n)
	}
}

func TestConditions(t *testing.T) {
	target := &Target{Addr: 0x50}
	s := New(target)
	m := &master{t: t, s: s}
	m.start()
	m.stop()
	m.start()
	m.release(s.SDA())
	m.release(s.SCL())
	m.start()
	m.stop()
	if target.Starts != 3 || target.Stops != 2 {
		t.Errorf("%d START %d STOP", target.Starts, target.Stops)
	}
	// SDA moving while SCL is low is not a condition.
	m.out(s.SCL(), gpio.Low)
	m.out(s.SDA(), gpio.Low)
	m.release(s.SDA())
	if target.Starts != 3 || target.Stops != 2 {
		t.Errorf("%d START %d STOP", target.Starts, target.Stops)
	}
}
