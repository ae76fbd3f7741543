/*
DESCRIPTION
  vlc.go provides the unary variable-length code reader used for GCLI
  residuals, as described in section 4.2 of the ISO/IEC 21122 decoder design.

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

import "github.com/ausocean/jpegxs/codec/jpegxs/bits"

// maxUnaryRun is the cap on the number of leading ones a unary code may
// carry; a run longer than this is InvalidBitstream.
const maxUnaryRun = 32

// vlcReader reads unary codes (x ones followed by a terminating zero,
// representing the integer x) from a bits.Reader.
type vlcReader struct {
	br *bits.Reader
}

// newVLCReader returns a vlcReader over br.
func newVLCReader(br *bits.Reader) *vlcReader {
	return &vlcReader{br: br}
}

// readUnary consumes a unary code and returns its value x, the count of
// leading one bits before the terminating zero. It returns -1 if the run
// exceeds maxUnaryRun (32) without terminating; the caller surfaces
// InvalidBitstream in that case.
//
// The fast path peeks up to 32 bits at a time, bitwise-inverts them so that
// the run of leading ones becomes a run of leading zeros, then counts
// leading zeros via a simple loop (counting leading set bits after
// inversion is equivalent to a bit-scan, so a small lookup would suffice on
// real hardware; a loop is used here since it is the scalar reference
// kernel, see kernels.go). If the peeked window is exhausted without a
// terminator, the cursor is advanced by what was consumed and the loop
// continues.
func (v *vlcReader) readUnary() (int, error) {
	x := 0
	for {
		avail := v.br.RemainingBits()
		if avail == 0 {
			return 0, bits.ErrTooShort
		}
		window := 32
		if window > avail {
			window = avail
		}
		peeked, err := v.br.PeekBits(window)
		if err != nil {
			return 0, err
		}
		inverted := (^peeked) & ((1 << uint(window)) - 1)
		if inverted == 0 {
			// All ones in this window; consume it all and keep scanning.
			if err := v.br.Skip(window); err != nil {
				return 0, err
			}
			x += window
			if x > maxUnaryRun {
				return -1, nil
			}
			continue
		}
		// Position of the highest set bit in inverted, within [0,window).
		// That many bits from the top of the window were zero-after-
		// inversion, i.e. one before inversion.
		lead := 0
		for bit := window - 1; bit >= 0; bit-- {
			if inverted&(1<<uint(bit)) != 0 {
				break
			}
			lead++
		}
		if err := v.br.Skip(lead + 1); err != nil {
			return 0, err
		}
		x += lead
		if x > maxUnaryRun {
			return -1, nil
		}
		return x, nil
	}
}

// readUnarySafe is the bit-by-bit fallback path, kept for reference and for
// exhaustive property testing against readUnary.
func (v *vlcReader) readUnarySafe() (int, error) {
	x := 0
	for {
		b, err := v.br.ReadBits(1)
		if err != nil {
			return 0, err
		}
		if b == 0 {
			return x, nil
		}
		x++
		if x > maxUnaryRun {
			return -1, nil
		}
	}
}

// signedDelta maps a decoded unary value x to the signed residual delta used
// for vertical-prediction GCLI decoding, given the top-neighbor gcli mTop
// and the band's gtli threshold, per section 4.2:
//
//	T = max(mTop - gtli, 0)
//	x > 2T      => delta = x - T
//	0 < x <= 2T => delta = -(x+1)/2 if x odd, x/2 if x even
//	x == 0      => delta = 0
func signedDelta(x, mTop, gtli int) int {
	t := mTop - gtli
	if t < 0 {
		t = 0
	}
	switch {
	case x > 2*t:
		return x - t
	case x > 0:
		if x%2 == 1 {
			return -((x + 1) / 2)
		}
		return x / 2
	default:
		return 0
	}
}
