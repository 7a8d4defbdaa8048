// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package waveform

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Kind is the kind of a decoded I²C symbol.
type Kind int

const (
	Bit Kind = iota
	Start
	Stop
)

func (k Kind) String() string {
	switch k {
	case Bit:
		return "Bit"
	case Start:
		return "Start"
	case Stop:
		return "Stop"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Symbol is one decoded I²C bus event.
type Symbol struct {
	Kind  Kind
	Level gpio.Level    // sampled SDA level, for Bit only
	At    time.Duration // SCL rising edge for Bit, SDA edge otherwise
}

func (s Symbol) String() string {
	if s.Kind == Bit {
		if s.Level {
			return "1"
		}
		return "0"
	}
	if s.Kind == Start {
		return "S"
	}
	return "P"
}

// Decode reads the SCL and SDA events of t as I²C symbols.
//
// A bit is the SDA level while SCL is high. An SDA edge while SCL is high is a
// START (falling) or a STOP (rising) and cancels the bit of that clock pulse.
// Both lines are assumed idle high before their first event. Sampled SDA
// events seen while SCL is high update the bit instead, since the level was
// driven by the target before the clock edge.
func Decode(t Trace) []Symbol {
	var out []Symbol
	scl, sda := gpio.High, gpio.High
	pending := false
	var bit Symbol
	for _, e := range t {
		switch e.Line {
		case SCL:
			if e.Level == scl {
				continue
			}
			scl = e.Level
			if scl == gpio.High {
				pending = true
				bit = Symbol{Kind: Bit, Level: sda, At: e.At}
			} else if pending {
				pending = false
				out = append(out, bit)
			}
		case SDA:
			if e.Level == sda {
				continue
			}
			sda = e.Level
			if scl == gpio.High && e.Sampled {
				// The change happened at some point while SCL was low but
				// was only seen when the bit was sampled.
				bit.Level = sda
				continue
			}
			if scl == gpio.High {
				pending = false
				k := Stop
				if sda == gpio.Low {
					k = Start
				}
				out = append(out, Symbol{Kind: k, At: e.At})
			}
		}
	}
	return out
}

// Frame is one byte and its acknowledge bit.
type Frame struct {
	Value byte
	Ack   bool          // SDA was low on the ninth clock
	At    time.Duration // first bit
}

func (f Frame) String() string {
	if f.Ack {
		return fmt.Sprintf("0x%02X+A", f.Value)
	}
	return fmt.Sprintf("0x%02X+N", f.Value)
}

// Transaction is the sequence of frames following a START.
type Transaction struct {
	Frames  []Frame
	Stopped bool // ended by a STOP rather than a repeated START or the trace end
	Partial int  // number of bits after the last complete frame
}

// Transactions groups the symbols in frames of 9 bits, one transaction per
// START. Bits before the first START are ignored.
func Transactions(syms []Symbol) []Transaction {
	var out []Transaction
	var cur *Transaction
	var bits []Symbol
	for _, s := range syms {
		switch s.Kind {
		case Start:
			if cur != nil {
				cur.Partial = len(bits)
				out = append(out, *cur)
			}
			cur = &Transaction{}
			bits = bits[:0]
		case Stop:
			if cur != nil {
				cur.Stopped = true
				cur.Partial = len(bits)
				out = append(out, *cur)
				cur = nil
			}
			bits = bits[:0]
		case Bit:
			if cur == nil {
				continue
			}
			bits = append(bits, s)
			if len(bits) == 9 {
				f := Frame{At: bits[0].At, Ack: bits[8].Level == gpio.Low}
				for _, b := range bits[:8] {
					f.Value <<= 1
					if b.Level {
						f.Value |= 1
					}
				}
				cur.Frames = append(cur.Frames, f)
				bits = bits[:0]
			}
		}
	}
	if cur != nil {
		cur.Partial = len(bits)
		out = append(out, *cur)
	}
	return out
}
