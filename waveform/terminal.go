// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package waveform

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"time"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/gpio"
)

// TerminalOpts represents the options available for a Terminal.
type TerminalOpts struct {
	Step    time.Duration // sampling step; 0 picks the trace's shortest interval
	Palette *ansi256.Palette
	High    color.Color // defaults to green
	Low     color.Color // defaults to dark gray

	_ struct{}
}

// Terminal draws traces to a console using ANSI color blocks, one row per
// line.
type Terminal struct {
	w       io.Writer
	step    time.Duration
	palette ansi256.Palette
	high    color.NRGBA
	low     color.NRGBA

	buf bytes.Buffer
}

// NewTerminal returns a Terminal that draws to stdout.
func NewTerminal(opts *TerminalOpts) *Terminal {
	return NewTerminalWriter(colorable.NewColorableStdout(), opts)
}

// NewTerminalWriter returns a Terminal that draws to w.
func NewTerminalWriter(w io.Writer, opts *TerminalOpts) *Terminal {
	if opts == nil {
		opts = &TerminalOpts{}
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	high, low := opts.High, opts.Low
	if high == nil {
		high = color.NRGBA{0x00, 0xd0, 0x00, 0xff}
	}
	if low == nil {
		low = color.NRGBA{0x30, 0x30, 0x30, 0xff}
	}
	return &Terminal{
		w:       w,
		step:    opts.Step,
		palette: *p,
		high:    color.NRGBAModel.Convert(high).(color.NRGBA),
		low:     color.NRGBAModel.Convert(low).(color.NRGBA),
	}
}

func (t *Terminal) String() string {
	return "Terminal"
}

// Halt implements conn.Resource.
//
// It resets the colors so the console is not corrupted.
func (t *Terminal) Halt() error {
	_, err := t.w.Write([]byte("\033[0m"))
	return err
}

// Draw writes tr to the console.
func (t *Terminal) Draw(tr Trace) error {
	// This code is designed to minimize the amount of memory allocated per call.
	t.buf.Reset()
	lines := tr.Lines()
	width := 0
	for _, n := range lines {
		width = max(width, len(n))
	}
	for _, n := range lines {
		_, _ = fmt.Fprintf(&t.buf, "\033[0m%-*s ", width, n)
		for _, l := range tr.Sample(n, t.step) {
			c := t.low
			if l == gpio.High {
				c = t.high
			}
			_, _ = io.WriteString(&t.buf, t.palette.Block(c))
		}
		_, _ = t.buf.WriteString("\033[0m\n")
	}
	_, err := t.buf.WriteTo(t.w)
	return err
}

var _ fmt.Stringer = &Terminal{}
