// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package waveform

import (
	"fmt"
	"image"
	"io"
	"sync"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"periph.io/x/conn/v3/gpio"
)

// PlotOpts represents the options available for Plot.
type PlotOpts struct {
	Width     int     // image width in pixels
	RowHeight int     // height of one line in pixels
	FontSize  float64 // label size in points

	// Annotate draws START/STOP markers and the decoded bytes when the trace
	// has SCL and SDA lines.
	Annotate bool
}

// DefaultPlotOpts is the recommended default options.
var DefaultPlotOpts = PlotOpts{
	Width:     1200,
	RowHeight: 60,
	FontSize:  12,
	Annotate:  true,
}

const (
	plotLabel  = 48 // width of the line names column
	plotMargin = 12
)

var (
	monoOnce sync.Once
	monoFont *truetype.Font
	monoErr  error
)

func face(size float64) (font.Face, error) {
	monoOnce.Do(func() {
		monoFont, monoErr = truetype.Parse(gomono.TTF)
	})
	if monoErr != nil {
		return nil, monoErr
	}
	return truetype.NewFace(monoFont, &truetype.Options{Size: size}), nil
}

// Plot draws t as a logic analyser view, one row per line.
func Plot(t Trace, opts *PlotOpts) (image.Image, error) {
	dc, err := plot(t, opts)
	if err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

// EncodePNG plots t and writes it to w as a PNG image.
func EncodePNG(w io.Writer, t Trace, opts *PlotOpts) error {
	dc, err := plot(t, opts)
	if err != nil {
		return err
	}
	return dc.EncodePNG(w)
}

func plot(t Trace, opts *PlotOpts) (*gg.Context, error) {
	if opts == nil {
		opts = &DefaultPlotOpts
	}
	lines := t.Lines()
	if len(lines) == 0 {
		return nil, fmt.Errorf("waveform: empty trace")
	}
	if opts.Width <= plotLabel+2*plotMargin || opts.RowHeight <= 2*plotMargin {
		return nil, fmt.Errorf("waveform: plot of %dx%d per row is too small", opts.Width, opts.RowHeight)
	}
	f, err := face(opts.FontSize)
	if err != nil {
		return nil, err
	}
	h := len(lines)*opts.RowHeight + 2*plotMargin
	dc := gg.NewContext(opts.Width, h)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetFontFace(f)

	end := t.End()
	span := float64(opts.Width - plotLabel - 2*plotMargin)
	x := func(at time.Duration) float64 {
		if end == 0 {
			return plotLabel + plotMargin
		}
		return plotLabel + plotMargin + span*float64(at)/float64(end)
	}
	row := map[string]int{}
	for i, n := range lines {
		row[n] = i
		top := float64(plotMargin + i*opts.RowHeight)
		hi := top + float64(plotMargin)
		lo := top + float64(opts.RowHeight-plotMargin)
		y := func(l gpio.Level) float64 {
			if l == gpio.High {
				return hi
			}
			return lo
		}

		dc.SetRGB(0, 0, 0)
		dc.DrawStringAnchored(n, plotMargin, (hi+lo)/2, 0, 0.5)

		dc.SetRGB(0, 0.5, 0)
		dc.SetLineWidth(2)
		l := gpio.High
		dc.MoveTo(x(0), y(l))
		for _, e := range t.Filter(n) {
			dc.LineTo(x(e.At), y(l))
			l = e.Level
			dc.LineTo(x(e.At), y(l))
		}
		dc.LineTo(x(end), y(l))
		dc.Stroke()
	}

	_, hasSCL := row[SCL]
	_, hasSDA := row[SDA]
	if opts.Annotate && hasSCL && hasSDA {
		annotate(dc, t, x, float64(plotMargin+row[SDA]*opts.RowHeight), float64(h))
	}
	return dc, nil
}

// annotate marks START (green) and STOP (red) and writes each decoded byte
// above the SDA row.
func annotate(dc *gg.Context, t Trace, x func(time.Duration) float64, sdaTop, h float64) {
	syms := Decode(t)
	dc.SetLineWidth(1)
	dc.SetDash(4, 4)
	for _, s := range syms {
		switch s.Kind {
		case Start:
			dc.SetRGB(0, 0.6, 0)
		case Stop:
			dc.SetRGB(0.8, 0, 0)
		default:
			continue
		}
		dc.DrawLine(x(s.At), plotMargin/2, x(s.At), h-plotMargin/2)
		dc.Stroke()
	}
	dc.SetDash()
	dc.SetRGB(0, 0, 0.7)
	for _, tx := range Transactions(syms) {
		for _, f := range tx.Frames {
			dc.DrawStringAnchored(f.String(), x(f.At), sdaTop+2, 0, 1)
		}
	}
}
