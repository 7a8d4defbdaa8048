// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package softi2ctest

import (
	"periph.io/x/conn/v3/gpio"
)

type phase int

const (
	idle    phase = iota
	receive       // master writes a byte
	ackOut        // target acknowledges
	send          // target writes a byte
	ackIn         // master acknowledges
)

// Target is an I²C target. It acknowledges its address and every data byte
// written to it, and serves Data on reads.
//
// The fields are only meant to be read once the transactions are done.
type Target struct {
	Addr uint16 // 7-bit address
	Raw  bool   // no address phase: every byte is a data byte

	// NackAt makes the target leave the NackAt-th byte of each transaction
	// unacknowledged, counting from 1 and including the address byte. 0
	// acknowledges everything.
	NackAt int

	// Data is served in a loop on reads. When empty, reads return 0xFF.
	Data []byte

	Writes [][]byte // data bytes received, one slice per START that has any
	Starts int
	Stops  int

	phase   phase
	n       int
	shift   byte
	count   int
	ack     bool
	reading bool
	out     byte
	next    int
	fresh   bool
}

// Start implements Peripheral.
func (t *Target) Start() {
	t.Starts++
	t.fresh = true
	t.phase = receive
	t.n = 0
	t.shift = 0
	t.count = 0
	t.reading = false
}

// Stop implements Peripheral.
func (t *Target) Stop() {
	t.Stops++
	t.phase = idle
}

// Sample implements Peripheral.
func (t *Target) Sample(sda gpio.Level) {
	switch t.phase {
	case receive:
		t.shift <<= 1
		if sda {
			t.shift |= 1
		}
		if t.n++; t.n < 8 {
			return
		}
		t.count++
		t.n = 0
		if !t.Raw && t.count == 1 {
			t.ack = uint16(t.shift>>1) == t.Addr
			t.reading = t.ack && t.shift&1 == 1
		} else {
			if t.fresh {
				t.Writes = append(t.Writes, nil)
				t.fresh = false
			}
			t.Writes[len(t.Writes)-1] = append(t.Writes[len(t.Writes)-1], t.shift)
			t.ack = true
		}
		if t.count == t.NackAt {
			t.ack = false
		}
		t.phase = ackOut
	case ackOut:
		switch {
		case !t.ack:
			t.phase = idle
		case t.reading:
			t.load()
		default:
			t.phase = receive
			t.shift = 0
		}
	case send:
		if t.n++; t.n == 8 {
			t.phase = ackIn
		}
	case ackIn:
		if sda == gpio.Low {
			t.load()
		} else {
			t.phase = idle
		}
	}
}

// Drive implements Peripheral.
func (t *Target) Drive() gpio.Level {
	switch t.phase {
	case ackOut:
		return gpio.Level(!t.ack)
	case send:
		return gpio.Level(t.out&(0x80>>uint(t.n)) != 0)
	}
	return gpio.High
}

func (t *Target) load() {
	t.out = 0xff
	if len(t.Data) != 0 {
		t.out = t.Data[t.next%len(t.Data)]
		t.next++
	}
	t.n = 0
	t.phase = send
}

// Loopback echoes every byte written to it on the next eight clock pulses.
// It has no acknowledge slot: the replay starts on the clock pulse right after
// the eighth bit.
type Loopback struct {
	n      int
	shift  byte
	replay bool
}

// Start implements Peripheral.
func (l *Loopback) Start() {
	l.n = 0
	l.shift = 0
	l.replay = false
}

// Stop implements Peripheral.
func (l *Loopback) Stop() {
	l.Start()
}

// Sample implements Peripheral.
func (l *Loopback) Sample(sda gpio.Level) {
	if l.replay {
		if l.n++; l.n == 8 {
			l.replay = false
			l.n = 0
			l.shift = 0
		}
		return
	}
	l.shift <<= 1
	if sda {
		l.shift |= 1
	}
	if l.n++; l.n == 8 {
		l.replay = true
		l.n = 0
	}
}

// Drive implements Peripheral.
func (l *Loopback) Drive() gpio.Level {
	if !l.replay {
		return gpio.High
	}
	return gpio.Level(l.shift&(0x80>>uint(l.n)) != 0)
}

// Bits drives scripted levels on SDA, one per clock pulse starting with the
// pulse after the first time SCL goes low, and records what it samples.
type Bits struct {
	Levels  []gpio.Level
	Samples []gpio.Level

	i int
}

// Start implements Peripheral.
func (b *Bits) Start() {}

// Stop implements Peripheral.
func (b *Bits) Stop() {}

// Sample implements Peripheral.
func (b *Bits) Sample(sda gpio.Level) {
	b.Samples = append(b.Samples, sda)
}

// Drive implements Peripheral.
func (b *Bits) Drive() gpio.Level {
	if b.i >= len(b.Levels) {
		return gpio.High
	}
	l := b.Levels[b.i]
	b.i++
	return l
}

var _ Peripheral = &Target{}
var _ Peripheral = &Loopback{}
var _ Peripheral = &Bits{}
