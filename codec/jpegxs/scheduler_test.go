/*
DESCRIPTION
  scheduler_test.go contains testing for functionality found in
  scheduler.go.

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

import (
	"testing"

	"github.com/ausocean/jpegxs/codec/jpegxs/config"
)

func baseConstHeader() *PictureHeaderConst {
	return &PictureHeaderConst{
		W: 64, H: 32, Ppoc: 16, Hsl: 2, Nc: 1,
		DecomH: 1, DecomV: 1, Cpih: 0,
		BitDepth: []int{8}, Sx: []int{1}, Sy: []int{1},
	}
}

func TestSameConstHeaderIdentical(t *testing.T) {
	a := baseConstHeader()
	b := baseConstHeader()
	if !sameConstHeader(a, b) {
		t.Error("identical headers should compare equal")
	}
}

func TestSameConstHeaderDiffers(t *testing.T) {
	cases := []func(*PictureHeaderConst){
		func(c *PictureHeaderConst) { c.W = 128 },
		func(c *PictureHeaderConst) { c.H = 16 },
		func(c *PictureHeaderConst) { c.Nc = 2 },
		func(c *PictureHeaderConst) { c.Cpih = 1 },
		func(c *PictureHeaderConst) { c.BitDepth[0] = 10 },
		func(c *PictureHeaderConst) { c.Sx[0] = 2 },
	}
	for i, mutate := range cases {
		a := baseConstHeader()
		b := baseConstHeader()
		mutate(b)
		if sameConstHeader(a, b) {
			t.Errorf("case %d: headers should compare unequal after mutation", i)
		}
	}
}

// TestDecoderStartAndClose is a lifecycle smoke test: the scheduler's
// Init/Universal/Final goroutines must start and then shut down cleanly on
// close, without ever being fed a frame.
func TestDecoderStartAndClose(t *testing.T) {
	var cfg config.Config
	cfg.Threads = 2
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	d := newDecoder(cfg, nil)
	d.close()
}
