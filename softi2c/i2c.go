// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package softi2c

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"

	"github.com/GermanBionicSystems/softi2c/common"
)

// Tx implements i2c.Bus.
//
// It writes w then reads into r in a single transaction, with a repeated START
// in between when both are set. Every read byte is acknowledged except the
// last one. Unlike TransmitBytes, Tx always ends with a STOP condition so that
// the bus is idle when it returns, NACK or not.
//
// With Opts.PEC, a packet error code is appended to a write-only transaction
// and read back after the data of a transaction with a read phase.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	if addr > 0x7f {
		return errInvalidAddr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	err := b.tx(byte(addr), w, r)
	if err != nil && b.err == nil {
		// Protocol error only; the pins still work so release the bus.
		_ = b.Stop()
	}
	return err
}

func (b *Bus) tx(addr byte, w, r []byte) error {
	var pec byte
	if err := b.Start(); err != nil {
		return err
	}
	if len(w) != 0 || len(r) == 0 {
		a := addr << 1
		if err := b.send(a); err != nil {
			return fmt.Errorf("softi2c: no device at 0x%02x: %w", addr, err)
		}
		pec = common.Update(pec, common.SMBus, []byte{a})
		for i, v := range w {
			if err := b.send(v); err != nil {
				return fmt.Errorf("softi2c: 0x%02x: write byte %d of %d: %w", addr, i, len(w), err)
			}
		}
		pec = common.Update(pec, common.SMBus, w)
		if b.pec && len(r) == 0 {
			if err := b.send(pec); err != nil {
				return fmt.Errorf("softi2c: 0x%02x: write PEC: %w", addr, err)
			}
		}
	}
	if len(r) != 0 {
		if len(w) != 0 {
			if err := b.Start(); err != nil {
				return err
			}
		}
		a := addr<<1 | 1
		if err := b.send(a); err != nil {
			return fmt.Errorf("softi2c: no device at 0x%02x: %w", addr, err)
		}
		pec = common.Update(pec, common.SMBus, []byte{a})
		for i := range r {
			v, err := b.ReadByte()
			if err != nil {
				return err
			}
			if err := b.WriteAck(b.pec || i != len(r)-1); err != nil {
				return err
			}
			r[i] = v
		}
		pec = common.Update(pec, common.SMBus, r)
		if b.pec {
			got, err := b.ReadByte()
			if err != nil {
				return err
			}
			if err := b.WriteAck(false); err != nil {
				return err
			}
			if got != pec {
				return fmt.Errorf("softi2c: 0x%02x: got PEC 0x%02x, expected 0x%02x: %w", addr, got, pec, ErrPEC)
			}
		}
	}
	return b.Stop()
}

// send writes v and turns a missing acknowledge into ErrNACK.
func (b *Bus) send(v byte) error {
	ok, err := b.writeAcked(v)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNACK
	}
	return nil
}

// SetSpeed implements i2c.Bus.
//
// It replaces explicit Pulse and Delay options as well.
func (b *Bus) SetSpeed(f physic.Frequency) error {
	t, err := TimingFor(f)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.timing = t
	return nil
}

// SCL implements i2c.Pins.
func (b *Bus) SCL() gpio.PinIO {
	return b.scl.p
}

// SDA implements i2c.Pins.
func (b *Bus) SDA() gpio.PinIO {
	return b.sda.p
}

// Halt implements conn.Resource.
//
// It releases both lines to idle. It does not generate a STOP condition.
func (b *Bus) Halt() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.idle()
}

// Close idles the lines and gives up ownership of the pins. The Bus cannot be
// used afterward.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return errClosed
	}
	err := b.idle()
	b.free()
	b.closed = true
	if b.err == nil {
		b.err = errClosed
	}
	return err
}

func (b *Bus) idle() error {
	if b.err != nil {
		return b.err
	}
	return errors.Join(b.sda.release(), b.scl.release())
}

var _ i2c.BusCloser = &Bus{}
var _ i2c.Pins = &Bus{}
