// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// softi2c runs one I²C transaction on two GPIO pins.
//
// Example:
//
//	softi2c -scl GPIO5 -sda GPIO6 -addr 0x3c -w 00,af
//	softi2c -sim -addr 0x50 -w 00 -r 2 -trace
package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/softi2c/softi2c"
	"github.com/GermanBionicSystems/softi2c/softi2c/softi2ctest"
	"github.com/GermanBionicSystems/softi2c/waveform"
)

func parseHex(s string) ([]byte, error) {
	s = strings.NewReplacer(",", "", " ", "", "0x", "").Replace(s)
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid -w value: %w", err)
	}
	return b, nil
}

// checkFlags rejects flag combinations that cannot work.
func checkFlags(sim, raw, pec bool, read int) error {
	if raw && read != 0 {
		return errors.New("-r cannot be used with -raw")
	}
	if raw && pec {
		return errors.New("-pec cannot be used with -raw")
	}
	if read < 0 {
		return errors.New("-r must not be negative")
	}
	// The simulated target does not compute packet error codes.
	if sim && pec && read != 0 {
		return errors.New("-pec cannot be used with -sim and -r")
	}
	return nil
}

func showTrace(tr waveform.Trace, step time.Duration) error {
	for _, tx := range waveform.Transactions(waveform.Decode(tr)) {
		var s []string
		for _, f := range tx.Frames {
			s = append(s, f.String())
		}
		end := "Sr"
		if tx.Stopped {
			end = "P"
		}
		fmt.Printf("S %s %s\n", strings.Join(s, " "), end)
	}
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		t := waveform.NewTerminal(&waveform.TerminalOpts{Step: step})
		defer t.Halt()
		return t.Draw(tr)
	}
	_, err := io.WriteString(os.Stdout, waveform.Text(tr, step))
	return err
}

func mainImpl() error {
	sclName := flag.String("scl", "", "SCL pin name")
	sdaName := flag.String("sda", "", "SDA pin name")
	speed := flag.Int("speed", 100, "bus speed in kHz")
	pulse := flag.Duration("pulse", 0, "SCL high time, overrides -speed")
	delay := flag.Duration("delay", 0, "propagation time, overrides -speed")
	pushPull := flag.Bool("pushpull", false, "drive the lines high instead of releasing them")
	float := flag.Bool("float", false, "do not enable the pins' pull-ups")
	addr := flag.Int("addr", 0x3c, "7-bit device address")
	write := flag.String("w", "", "hex bytes to write, e.g. 00,af")
	read := flag.Int("r", 0, "number of bytes to read")
	raw := flag.Bool("raw", false, "send the -w bytes verbatim, without address nor repeated START")
	pec := flag.Bool("pec", false, "SMBus packet error checking")
	off := flag.Bool("off", false, "drive both lines low when done")
	trace := flag.Bool("trace", false, "print the waveform")
	step := flag.Duration("step", 0, "waveform sampling step, 0 for the shortest interval")
	pngFile := flag.String("png", "", "write the waveform as a PNG image")
	sim := flag.Bool("sim", false, "use a simulated bus with a target at -addr")
	verbose := flag.Bool("v", false, "verbose mode")
	flag.Parse()
	if !*verbose {
		log.SetOutput(io.Discard)
	}
	log.SetFlags(log.Lmicroseconds)
	if flag.NArg() != 0 {
		return errors.New("unexpected argument, try -help")
	}

	w, err := parseHex(*write)
	if err != nil {
		return err
	}
	if err := checkFlags(*sim, *raw, *pec, *read); err != nil {
		return err
	}

	opts := softi2c.DefaultOpts
	opts.Speed = physic.Frequency(*speed) * physic.KiloHertz
	opts.Pulse = *pulse
	opts.Delay = *delay
	opts.PEC = *pec
	if *pushPull {
		opts.Drive = softi2c.PushPull
	}
	if *float {
		opts.Pull = gpio.Float
	}

	var scl, sda gpio.PinIO
	var s *softi2ctest.Sim
	if *sim {
		s = softi2ctest.New(&softi2ctest.Target{
			Addr: uint16(*addr),
			Raw:  *raw,
			Data: []byte{0xde, 0xad, 0xbe, 0xef},
		})
		s.PullUp = !*float
		opts.Sleep = s.Sleep
		scl, sda = s.SCL(), s.SDA()
	} else {
		if _, err := host.Init(); err != nil {
			return err
		}
		if scl = gpioreg.ByName(*sclName); scl == nil {
			return fmt.Errorf("unknown SCL pin %q", *sclName)
		}
		if sda = gpioreg.ByName(*sdaName); sda == nil {
			return fmt.Errorf("unknown SDA pin %q", *sdaName)
		}
	}

	var c *waveform.Capture
	if s == nil && (*trace || *pngFile != "") {
		c = waveform.NewCapture(nil)
		scl = c.Wrap(waveform.SCL, scl)
		sda = c.Wrap(waveform.SDA, sda)
	}

	b, err := softi2c.New(scl, sda, &opts)
	if err != nil {
		return err
	}
	defer b.Close()
	log.Printf("%s at %s (%s)", b, b.Timing().Frequency(), b.Timing())

	if *raw {
		if err = b.TransmitBytes(w); err != nil && !*off {
			// TransmitBytes leaves the bus as is on NACK.
			_ = b.Stop()
		}
	} else {
		r := make([]byte, *read)
		if err = b.Tx(uint16(*addr), w, r); err == nil && len(r) != 0 {
			fmt.Printf("%#x\n", r)
		}
	}
	if *off {
		if err2 := b.Off(); err == nil {
			err = err2
		}
	}

	var tr waveform.Trace
	switch {
	case s != nil:
		tr = s.Trace()
		log.Printf("%s: %s, %d contentions", s, s.Now(), s.Contentions())
	case c != nil:
		tr = c.Trace()
	}
	if *trace {
		if err2 := showTrace(tr, *step); err == nil {
			err = err2
		}
	}
	if *pngFile != "" {
		f, err2 := os.Create(*pngFile)
		if err2 == nil {
			err2 = waveform.EncodePNG(f, tr, nil)
			if err3 := f.Close(); err2 == nil {
				err2 = err3
			}
		}
		if err == nil {
			err = err2
		}
	}
	return err
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "softi2c: %s.\n", err)
		os.Exit(1)
	}
}
