// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package common contains functions used across multiple packages. For
// example, the CRC-8 used for SMBus packet error checking.
package common

// Table is a 256-entry lookup table for one CRC-8 polynomial, most
// significant bit first and without reflection.
type Table [256]byte

// SMBus is the table for the SMBus packet error code polynomial
// x⁸+x²+x+1 (0x07).
var SMBus = MakeTable(0x07)

// MakeTable returns the table for the polynomial poly, omitting the x⁸ term.
func MakeTable(poly byte) *Table {
	t := new(Table)
	for i := range t {
		crc := byte(i)
		for range 8 {
			if crc&0x80 == 0 {
				crc <<= 1
			} else {
				crc = (crc << 1) ^ poly
			}
		}
		t[i] = crc
	}
	return t
}

// Update returns the result of adding the bytes in p to crc.
//
// SMBus starts from 0. Sensors from TI and Sensirion use the polynomial 0x31
// starting from 0xff.
func Update(crc byte, tab *Table, p []byte) byte {
	for _, v := range p {
		crc = tab[crc^v]
	}
	return crc
}
