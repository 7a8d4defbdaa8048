// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package softi2c

import (
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3/cpu"
)

// Opts contains options to pass to the constructor.
//
// The timing is taken from Pulse and Delay when either is set, otherwise it is
// derived from Speed. When both are zero the bus runs at 100kHz. A zero Pull
// (gpio.PullNoChange) means gpio.PullUp.
type Opts struct {
	Speed physic.Frequency // bus speed, see TimingFor
	Pulse time.Duration    // explicit SCL high time, overrides Speed
	Delay time.Duration    // explicit propagation time, overrides Speed

	Drive Drive     // OpenDrain or PushPull
	Pull  gpio.Pull // pull requested on a line released to input; gpio.Float relies on external resistors

	// Sleep waits for the given duration. It defaults to cpu.Nanospin. The
	// calling goroutine must not be preempted for longer than the bus
	// tolerates while a transaction is in flight.
	Sleep func(time.Duration)

	// PEC enables SMBus packet error checking in Tx.
	PEC bool
}

// DefaultOpts is the recommended default options: 100kHz, open-drain emulation
// with the pins' internal pull-ups.
var DefaultOpts = Opts{
	Speed: 100 * physic.KiloHertz,
	Drive: OpenDrain,
	Pull:  gpio.PullUp,
}

func (o *Opts) timing() (Timing, error) {
	if o.Pulse != 0 || o.Delay != 0 {
		t := Timing{Pulse: o.Pulse, Delay: o.Delay}
		return t, t.validate()
	}
	f := o.Speed
	if f == 0 {
		f = DefaultOpts.Speed
	}
	return TimingFor(f)
}

func (o *Opts) pull() gpio.Pull {
	if o.Pull == gpio.PullNoChange {
		return gpio.PullUp
	}
	return o.Pull
}

// Bus is a bit-banged I²C master on two GPIO pins.
//
// Bus implements a persistent error model: the first error returned by a pin
// is latched and returned by every later call except Off. A new Bus must be
// created to proceed.
//
// The primitives are not safe for concurrent use. Tx, SetSpeed and Close are
// serialized so that several device drivers can share the Bus.
type Bus struct {
	mu     sync.Mutex // serializes the i2c.Bus methods
	scl    line
	sda    line
	timing Timing
	sleep  func(time.Duration)
	pec    bool
	err    error // persistent error
	closed bool
}

var (
	ownersMu sync.Mutex
	owners   = map[gpio.PinIO]*Bus{}
)

// New returns a Bus that owns scl and sda until it is closed.
//
// Both lines are released to idle before returning, whatever their previous
// state. opts can be nil, in which case DefaultOpts is used.
func New(scl, sda gpio.PinIO, opts *Opts) (*Bus, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if scl == nil || sda == nil {
		return nil, errNoPin
	}
	if scl == sda {
		return nil, errSamePin
	}
	t, err := opts.timing()
	if err != nil {
		return nil, err
	}
	b := &Bus{
		scl:    line{p: scl, drive: opts.Drive, pull: opts.pull()},
		sda:    line{p: sda, drive: opts.Drive, pull: opts.pull()},
		timing: t,
		sleep:  opts.Sleep,
		pec:    opts.PEC,
	}
	if b.sleep == nil {
		b.sleep = cpu.Nanospin
	}
	if err := b.claim(); err != nil {
		return nil, err
	}
	b.release(&b.sda)
	b.release(&b.scl)
	b.wait(t.Delay)
	if b.err != nil {
		b.free()
		return nil, b.err
	}
	return b, nil
}

// Timing returns the waits in use.
func (b *Bus) Timing() Timing {
	return b.timing
}

// Start generates a START condition, or a repeated START when called in the
// middle of a transaction. It leaves SCL and SDA low.
func (b *Bus) Start() error {
	b.release(&b.sda)
	b.release(&b.scl)
	b.wait(b.timing.Delay)
	b.low(&b.sda)
	b.wait(b.timing.Delay)
	b.low(&b.scl)
	b.wait(b.timing.Delay)
	return b.err
}

// Stop generates a STOP condition and leaves the bus idle. SCL must be low.
func (b *Bus) Stop() error {
	b.low(&b.sda)
	b.wait(b.timing.Delay)
	b.release(&b.scl)
	b.wait(b.timing.Delay)
	b.release(&b.sda)
	b.wait(b.timing.Delay)
	return b.err
}

// WriteByte clocks out v, most significant bit first.
//
// Each bit is set on SDA while SCL is low and held while SCL is released. SCL
// is left low and SDA holds the last bit.
func (b *Bus) WriteByte(v byte) error {
	for i := 7; i >= 0; i-- {
		b.writeBit(v&(1<<uint(i)) != 0)
	}
	return b.err
}

// ReadByte releases SDA to the target and clocks in one byte, most
// significant bit first. SCL is left low.
//
// ReadByte does not acknowledge the byte; see WriteAck.
func (b *Bus) ReadByte() (byte, error) {
	b.listen(&b.sda)
	var v byte
	for range 8 {
		v <<= 1
		if b.readBit() {
			v |= 1
		}
	}
	if b.err != nil {
		return 0, b.err
	}
	return v, nil
}

// ReadAck reads the acknowledge bit that follows a written byte. It returns
// true when the target pulled SDA low.
func (b *Bus) ReadAck() (bool, error) {
	b.listen(&b.sda)
	l := b.readBit()
	if b.err != nil {
		return false, b.err
	}
	return l == gpio.Low, nil
}

// ReadNack reads the acknowledge bit that follows a written byte. It returns
// true when the target left SDA high, the exact complement of ReadAck.
func (b *Bus) ReadNack() (bool, error) {
	b.listen(&b.sda)
	l := b.readBit()
	if b.err != nil {
		return false, b.err
	}
	return l == gpio.High, nil
}

// WriteAck sends the master's acknowledge bit after ReadByte. ack=false
// signals the target that no more bytes will be read.
func (b *Bus) WriteAck(ack bool) error {
	b.writeBit(!ack)
	return b.err
}

// Transmit runs START, writes v, checks the acknowledge bit then runs STOP.
//
// When v is not acknowledged ErrNACK is returned and no STOP is generated; the
// caller has to call Stop or Off.
func (b *Bus) Transmit(v byte) error {
	if err := b.Start(); err != nil {
		return err
	}
	ok, err := b.writeAcked(v)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNACK
	}
	return b.Stop()
}

// TransmitBytes runs START, writes each byte of p checking its acknowledge
// bit, then runs STOP.
//
// It aborts on the first byte not acknowledged with an error wrapping ErrNACK
// and generates no STOP; the caller has to call Stop or Off.
func (b *Bus) TransmitBytes(p []byte) error {
	if err := b.Start(); err != nil {
		return err
	}
	for i, v := range p {
		ok, err := b.writeAcked(v)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("softi2c: byte %d of %d: %w", i, len(p), ErrNACK)
		}
	}
	return b.Stop()
}

// Off drives both lines low regardless of the bus state, silencing the bus.
//
// It is not a protocol primitive. SCL goes first so that no START condition
// is signalled. Off is attempted even after a persistent error, but not once
// the Bus is closed since the pins may belong to another Bus by then.
func (b *Bus) Off() error {
	if b.closed {
		return errClosed
	}
	err := b.scl.setLow()
	if err2 := b.sda.setLow(); err == nil {
		err = err2
	}
	b.sleep(b.timing.Delay)
	return err
}

func (b *Bus) String() string {
	return fmt.Sprintf("softi2c(SCL=%s, SDA=%s)", b.scl.p, b.sda.p)
}

// writeAcked writes v and reads the acknowledge bit.
func (b *Bus) writeAcked(v byte) (bool, error) {
	if err := b.WriteByte(v); err != nil {
		return false, err
	}
	return b.ReadAck()
}

func (b *Bus) writeBit(high bool) {
	if high {
		b.release(&b.sda)
	} else {
		b.low(&b.sda)
	}
	b.wait(b.timing.Delay)
	b.clockPulse()
}

func (b *Bus) readBit() gpio.Level {
	b.release(&b.scl)
	b.wait(b.timing.Pulse)
	l := b.sda.read()
	b.low(&b.scl)
	b.wait(b.timing.Delay)
	return l
}

// clockPulse releases SCL for one pulse. SDA must already be stable.
func (b *Bus) clockPulse() {
	b.release(&b.scl)
	b.wait(b.timing.Pulse)
	b.low(&b.scl)
	b.wait(b.timing.Delay)
}

func (b *Bus) low(l *line) {
	if b.err == nil {
		b.err = l.setLow()
	}
}

func (b *Bus) release(l *line) {
	if b.err == nil {
		b.err = l.release()
	}
}

func (b *Bus) listen(l *line) {
	if b.err == nil {
		b.err = l.listen()
	}
}

func (b *Bus) wait(d time.Duration) {
	if b.err == nil {
		b.sleep(d)
	}
}

// claim registers b as the owner of its pins.
func (b *Bus) claim() error {
	ownersMu.Lock()
	defer ownersMu.Unlock()
	for _, p := range []gpio.PinIO{b.scl.p, b.sda.p} {
		if o, ok := owners[p]; ok {
			return fmt.Errorf("softi2c: pin %s is already used by %s", p, o)
		}
	}
	owners[b.scl.p] = b
	owners[b.sda.p] = b
	return nil
}

func (b *Bus) free() {
	ownersMu.Lock()
	defer ownersMu.Unlock()
	for _, p := range []gpio.PinIO{b.scl.p, b.sda.p} {
		if owners[p] == b {
			delete(owners, p)
		}
	}
}
