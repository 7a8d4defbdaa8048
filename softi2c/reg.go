// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package softi2c

import (
	"fmt"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
)

// Register makes a bus on the pins named scl and sda available through
// i2creg under name, aliases and number.
//
// The pins are looked up with gpioreg and the Bus is created each time the
// bus is opened. opts is copied; nil means DefaultOpts.
func Register(name string, aliases []string, number int, scl, sda string, opts *Opts) error {
	o := DefaultOpts
	if opts != nil {
		o = *opts
	}
	return i2creg.Register(name, aliases, number, func() (i2c.BusCloser, error) {
		c := gpioreg.ByName(scl)
		if c == nil {
			return nil, fmt.Errorf("softi2c: unknown SCL pin %q", scl)
		}
		d := gpioreg.ByName(sda)
		if d == nil {
			return nil, fmt.Errorf("softi2c: unknown SDA pin %q", sda)
		}
		return New(c, d, &o)
	})
}
