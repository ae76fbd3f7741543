/*
DESCRIPTION
  vlc_test.go provides testing for the unary VLC reader in vlc.go.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/
package jpegxs

import (
	"testing"

	"github.com/ausocean/jpegxs/codec/jpegxs/bits"
)

// encodeUnary builds a byte buffer holding x one-bits followed by a
// terminating zero, then pads with zero bytes so the reader never runs out
// of bits while scanning its lookahead window.
func encodeUnary(x int) []byte {
	nbits := x + 1 + 64 // Code plus generous zero padding for lookahead.
	buf := make([]byte, (nbits+7)/8)
	for i := 0; i < x; i++ {
		buf[i/8] |= 1 << uint(7-i%8)
	}
	return buf
}

func TestReadUnaryIdentity(t *testing.T) {
	for x := 0; x <= maxUnaryRun; x++ {
		buf := encodeUnary(x)
		v := newVLCReader(bits.New(buf))
		got, err := v.readUnary()
		if err != nil {
			t.Fatalf("x=%d: unexpected error: %v", x, err)
		}
		if got != x {
			t.Errorf("x=%d: got %d", x, got)
		}
	}
}

func TestReadUnarySafeMatchesFast(t *testing.T) {
	for x := 0; x <= maxUnaryRun; x++ {
		buf := encodeUnary(x)
		fast, err := newVLCReader(bits.New(buf)).readUnary()
		if err != nil {
			t.Fatalf("x=%d: fast path error: %v", x, err)
		}
		safe, err := newVLCReader(bits.New(buf)).readUnarySafe()
		if err != nil {
			t.Fatalf("x=%d: safe path error: %v", x, err)
		}
		if fast != safe {
			t.Errorf("x=%d: fast=%d safe=%d mismatch", x, fast, safe)
		}
	}
}

func TestReadUnaryOverflow(t *testing.T) {
	buf := encodeUnary(maxUnaryRun + 1)
	got, err := newVLCReader(bits.New(buf)).readUnary()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != -1 {
		t.Errorf("got %d, want -1 for overflow run", got)
	}
}

func TestSignedDeltaPiecewise(t *testing.T) {
	// Exhaustively check signedDelta's three branches over (mTop, gtli) in
	// [0,31]x[0,31] and x in [0,2*maxUnaryRun], per the mapping in section
	// 4.2: T = max(mTop-gtli,0); x>2T => delta=x-T; 0<x<=2T => delta is the
	// zig-zag unmap; x==0 => delta=0.
	for mTop := 0; mTop < 32; mTop++ {
		for gtli := 0; gtli < 32; gtli++ {
			tVal := mTop - gtli
			if tVal < 0 {
				tVal = 0
			}
			for x := 0; x <= 2*maxUnaryRun; x++ {
				got := signedDelta(x, mTop, gtli)
				var want int
				switch {
				case x > 2*tVal:
					want = x - tVal
				case x > 0:
					if x%2 == 1 {
						want = -((x + 1) / 2)
					} else {
						want = x / 2
					}
				default:
					want = 0
				}
				if got != want {
					t.Fatalf("mTop=%d gtli=%d x=%d: got %d want %d", mTop, gtli, x, got, want)
				}
			}
		}
	}
}
