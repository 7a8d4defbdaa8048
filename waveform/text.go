// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package waveform

import (
	"strings"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Text renders one row per line, sampling every step: '‾' for high and '_'
// for low. A zero step uses t.Step().
func Text(t Trace, step time.Duration) string {
	if step <= 0 {
		step = t.Step()
	}
	lines := t.Lines()
	width := 0
	for _, n := range lines {
		width = max(width, len(n))
	}
	var b strings.Builder
	for _, n := range lines {
		b.WriteString(n)
		b.WriteString(strings.Repeat(" ", width-len(n)+1))
		for _, l := range t.Sample(n, step) {
			if l == gpio.High {
				b.WriteRune('‾')
			} else {
				b.WriteByte('_')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
