/*
DESCRIPTION
  dequant_test.go contains testing for functionality found in dequant.go.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package jpegxs

import "testing"

func TestDequantizeDeadzone(t *testing.T) {
	cases := []struct {
		name     string
		mag      uint32
		gtli     int
		want     uint32
	}{
		{"zeroGTLI", 5, 0, 5},
		{"zeroMag", 0, 3, 0},
		{"typical", 3, 2, 3<<2 | 1<<1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := dequantizeDeadzone(c.mag, c.gtli); got != c.want {
				t.Errorf("dequantizeDeadzone(%d, %d) = %d, want %d", c.mag, c.gtli, got, c.want)
			}
		})
	}
}

func TestDequantizeUniform(t *testing.T) {
	cases := []struct {
		name string
		mag  uint32
		gcli int
		gtli int
	}{
		{"zeroGTLI", 5, 4, 0},
		{"zeroMag", 0, 4, 2},
		{"equalScale", 7, 3, 2},
		{"wideScale", 1, 10, 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := dequantizeUniform(c.mag, c.gcli, c.gtli)
			if c.gtli == 0 || c.mag == 0 {
				if got != c.mag {
					t.Errorf("dequantizeUniform(%d, %d, %d) = %d, want passthrough %d", c.mag, c.gcli, c.gtli, got, c.mag)
				}
				return
			}
			// The reconstructed value must always carry the gtli low-order
			// bits cleared (they're restored as zero, not reconstructed).
			if got&((1<<uint(c.gtli))-1) != 0 {
				t.Errorf("dequantizeUniform(%d, %d, %d) = %d, low %d bits not zero", c.mag, c.gcli, c.gtli, got, c.gtli)
			}
		})
	}
}

// TestDequantizeUniformShiftsBeforeAccumulating pins the exact reconstructed
// value for a multi-term accumulation: mag=7, gcli=3, gtli=2 (scale=2) must
// shift mag by gtli to 28 before accumulating 28 + 28>>2 + 28>>4 = 36, not
// accumulate the raw magnitude first and shift the sum afterward (which
// would give 32).
func TestDequantizeUniformShiftsBeforeAccumulating(t *testing.T) {
	if got := dequantizeUniform(7, 3, 2); got != 36 {
		t.Errorf("dequantizeUniform(7, 3, 2) = %d, want 36", got)
	}
}

func TestDequantizeBand(t *testing.T) {
	const width, height = 8, 2
	stride := width
	coeffs := make([]uint16, stride*height)
	// One coefficient group (4 wide) with gcli 3, rest gcli 0 (already zero).
	gcliWidth := (width + coeffGroupSize - 1) / coeffGroupSize
	gcliBuf := make([]int, gcliWidth*height)
	gcliBuf[0] = 3
	coeffs[0] = makeCoeff(5, false)
	coeffs[1] = makeCoeff(2, true)

	dequantizeBand(0, coeffs, gcliBuf, 1, width, height, stride)

	if coeffMagnitude(coeffs[0]) == 5 {
		t.Errorf("coefficient 0 was not dequantized: still raw magnitude 5")
	}
	if !coeffSign(coeffs[1]) {
		t.Errorf("coefficient 1 lost its sign bit after dequantization")
	}
	// A coefficient outside any significant group must be left untouched.
	if coeffs[4] != 0 {
		t.Errorf("coeffs[4] = %d, want untouched 0", coeffs[4])
	}
}

func TestDequantizeBandStrideOffset(t *testing.T) {
	// Two precinct columns, each 4 wide, sharing an 8-wide band row: the
	// second column's window must dequantize without touching the first.
	const fullWidth, height = 8, 1
	data := make([]uint16, fullWidth*height)
	data[0] = makeCoeff(5, false) // column 0's coefficient.
	data[4] = makeCoeff(5, false) // column 1's coefficient, at fullWidth offset 4.

	gcliBuf := []int{3}
	// Dequantize only the second column's 4-wide window, addressed at
	// colOffset 4 with the full row's stride.
	dequantizeBand(0, data[4:], gcliBuf, 1, 4, height, fullWidth)

	if coeffMagnitude(data[0]) != 5 {
		t.Errorf("column 0 was modified: got magnitude %d, want untouched 5", coeffMagnitude(data[0]))
	}
	if coeffMagnitude(data[4]) == 5 {
		t.Errorf("column 1 was not dequantized: still raw magnitude 5")
	}
}
