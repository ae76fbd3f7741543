/*
DESCRIPTION
  pi_test.go contains testing for functionality found in pi.go.

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

	"github.com/google/go-cmp/cmp"
)

func TestBuildComponentBands(t *testing.T) {
	got := buildComponentBands(16, 8, 2, 1, nil, nil)
	want := []Band{
		{Level: 3, Orientation: orientLL, Width: 4, Height: 4, HeightLines: 4},
		{Level: 2, Orientation: orientH, Width: 4, Height: 4, HeightLines: 4},
		{Level: 1, Orientation: orientHH, Width: 8, Height: 4, HeightLines: 4},
		{Level: 1, Orientation: orientLH, Width: 8, Height: 4, HeightLines: 4},
		{Level: 1, Orientation: orientHL, Width: 8, Height: 4, HeightLines: 4},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("buildComponentBands mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildPI(t *testing.T) {
	c := &PictureHeaderConst{
		Nc: 1, W: 32, H: 16, Ppoc: 16, Hsl: 1,
		DecomH: 1, DecomV: 1,
		Sx: []int{1}, Sy: []int{1},
	}
	pi, err := buildPI(c)
	if err != nil {
		t.Fatalf("buildPI: %v", err)
	}
	if pi.PrecinctsPerLine != 2 {
		t.Errorf("PrecinctsPerLine = %d, want 2", pi.PrecinctsPerLine)
	}
	if pi.PrecinctsPerCol != 8 {
		t.Errorf("PrecinctsPerCol = %d, want 8", pi.PrecinctsPerCol)
	}
	if pi.SlicesNum != 8 {
		t.Errorf("SlicesNum = %d, want 8", pi.SlicesNum)
	}
	if len(pi.Components) != 1 || len(pi.Components[0].Bands) != 4 {
		t.Fatalf("Components/Bands not as expected: %+v", pi.Components)
	}
	if len(pi.Packets) != 2 {
		t.Errorf("Packets = %d, want 2 (LL packet + one 3-band level)", len(pi.Packets))
	}
}

func TestBuildPIRequiresCDT(t *testing.T) {
	c := &PictureHeaderConst{Nc: 1, W: 32, H: 16, Ppoc: 16, Hsl: 1}
	_, err := buildPI(c)
	if kindOf(err) != DecoderInternal {
		t.Errorf("kindOf(err) = %v, want DecoderInternal (CDT not parsed)", kindOf(err))
	}
}

func TestBandRunLength(t *testing.T) {
	pi := &PictureInfo{
		Components: []ComponentInfo{
			{Bands: []Band{
				{Level: 2, Orientation: orientLL},
				{Level: 1, Orientation: orientHL},
				{Level: 1, Orientation: orientLH},
				{Level: 1, Orientation: orientHH},
			}},
		},
	}
	if got := bandRunLength(pi, 1); got != 3 {
		t.Errorf("bandRunLength(1) = %d, want 3", got)
	}
	if got := bandRunLength(pi, 0); got != 1 {
		t.Errorf("bandRunLength(0) = %d, want 1", got)
	}
}
