/*
DESCRIPTION
  precinct_test.go contains testing for functionality found in precinct.go.

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

	"github.com/ausocean/jpegxs/codec/jpegxs/bits"
)

func TestBandDecodeModeFlags(t *testing.T) {
	cases := []struct {
		mode      bandDecodeMode
		wantVpred bool
		wantSig   bool
	}{
		{modeZeroNoSig, false, false},
		{modeZeroSig, false, true},
		{modeVPredNoSig, true, false},
		{modeVPredSig, true, true},
	}
	for _, c := range cases {
		if got := c.mode.vpred(); got != c.wantVpred {
			t.Errorf("mode %d: vpred() = %v, want %v", c.mode, got, c.wantVpred)
		}
		if got := c.mode.sig(); got != c.wantSig {
			t.Errorf("mode %d: sig() = %v, want %v", c.mode, got, c.wantSig)
		}
	}
}

func TestDeriveGTLI(t *testing.T) {
	pi := &PictureInfo{
		Components: []ComponentInfo{
			{Bands: []Band{{Priority: 1}, {Priority: 3}}},
		},
	}
	variant := &PrecinctVariant{Geom: [][]PrecinctGeom{{{}, {}}}}
	d := &precinctDecoder{
		pi: pi, variant: variant,
		quantIdx: 10, refineIdx: 0b00000010, // bit 1 set -> band index 1 refined down.
		cur: &PrecinctState{GTLI: [][]int{{0, 0}}},
	}
	d.deriveGTLI()

	if d.cur.GTLI[0][0] != 9 { // 10 - priority(1) = 9, refine bit 0 not set.
		t.Errorf("GTLI[0][0] = %d, want 9", d.cur.GTLI[0][0])
	}
	if d.cur.GTLI[0][1] != 6 { // 10 - priority(3) = 7, refine bit 1 set -> 6.
		t.Errorf("GTLI[0][1] = %d, want 6", d.cur.GTLI[0][1])
	}
}

func TestDeriveGTLIClampsToZero(t *testing.T) {
	pi := &PictureInfo{Components: []ComponentInfo{{Bands: []Band{{Priority: 20}}}}}
	variant := &PrecinctVariant{Geom: [][]PrecinctGeom{{{}}}}
	d := &precinctDecoder{
		pi: pi, variant: variant, quantIdx: 5,
		cur: &PrecinctState{GTLI: [][]int{{0}}},
	}
	d.deriveGTLI()
	if d.cur.GTLI[0][0] != 0 {
		t.Errorf("GTLI clamp = %d, want 0", d.cur.GTLI[0][0])
	}
}

func TestPacketExists(t *testing.T) {
	variant := &PrecinctVariant{
		Geom: [][]PrecinctGeom{
			{{Height: 2}, {Height: 0}},
		},
	}
	d := &precinctDecoder{variant: variant}
	if !d.packetExists(PacketEntry{BandStart: 0, BandStop: 1, LineIdx: 0}) {
		t.Error("packetExists should be true: band 0 has height 2 > lineIdx 0")
	}
	if d.packetExists(PacketEntry{BandStart: 1, BandStop: 1, LineIdx: 0}) {
		t.Error("packetExists should be false: band 1 has height 0")
	}
	if d.packetExists(PacketEntry{BandStart: 0, BandStop: 0, LineIdx: 2}) {
		t.Error("packetExists should be false: lineIdx 2 >= height 2")
	}
}

// TestDecodeData exercises the coefficient data sub-packet decode for a
// single 4-wide group, with GCLI/GTLI supplied directly (bypassing
// decodeGCLI) and Fs=0 so signs are interleaved per group.
func TestDecodeData(t *testing.T) {
	// sign nibble 0x9 (1001: k0 neg, k3 neg), then 3 bitplane nibbles
	// encoding mags [5,3,0,7] MSB-first.
	buf := []byte{0x99, 0x5D}
	pi := &PictureInfo{
		Components: []ComponentInfo{
			{Bands: []Band{{Width: 4, Height: 1, HeightLines: 1}}},
		},
	}
	store := newFrameCoefficientStore(pi, 1)

	d := &precinctDecoder{
		br:        bits.New(buf),
		dyn:       &PictureHeaderDynamic{Fs: 0},
		coeffs:    store,
		lineIdx:   0,
		colOffset: [][]int{{0}},
		cur: &PrecinctState{
			GCLI: [][][]int{{{5}}},
			GTLI: [][]int{{2}},
		},
	}
	geom := PrecinctGeom{Width: 4, GCLIWidth: 1, SigWidth: 1, Height: 1}
	if err := d.decodeData(0, 0, geom); err != nil {
		t.Fatalf("decodeData: %v", err)
	}

	out, _ := store.Slice(0, 0, 0, 0)
	wantMag := []uint16{5, 3, 0, 7}
	wantSign := []bool{true, false, false, true}
	for k := 0; k < 4; k++ {
		if coeffMagnitude(out[k]) != wantMag[k] {
			t.Errorf("out[%d] magnitude = %d, want %d", k, coeffMagnitude(out[k]), wantMag[k])
		}
		if coeffSign(out[k]) != wantSign[k] {
			t.Errorf("out[%d] sign = %v, want %v", k, coeffSign(out[k]), wantSign[k])
		}
	}
}

func TestDecodeDataInsignificantGroupIsZero(t *testing.T) {
	pi := &PictureInfo{
		Components: []ComponentInfo{
			{Bands: []Band{{Width: 4, Height: 1, HeightLines: 1}}},
		},
	}
	store := newFrameCoefficientStore(pi, 1)
	d := &precinctDecoder{
		br:        bits.New(nil),
		dyn:       &PictureHeaderDynamic{Fs: 0},
		coeffs:    store,
		lineIdx:   0,
		colOffset: [][]int{{0}},
		cur: &PrecinctState{
			GCLI: [][][]int{{{2}}}, // gcli == gtli -> insignificant group, no bits consumed.
			GTLI: [][]int{{2}},
		},
	}
	geom := PrecinctGeom{Width: 4, GCLIWidth: 1, SigWidth: 1, Height: 1}
	if err := d.decodeData(0, 0, geom); err != nil {
		t.Fatalf("decodeData: %v", err)
	}
	out, _ := store.Slice(0, 0, 0, 0)
	for k := 0; k < 4; k++ {
		if coeffMagnitude(out[k]) != 0 {
			t.Errorf("out[%d] = %d, want 0 for an insignificant group", k, coeffMagnitude(out[k]))
		}
	}
}
