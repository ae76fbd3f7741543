/*
DESCRIPTION
  imgsink_test.go contains testing for functionality found in imgsink.go.

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
	"bytes"
	"image"
	"image/png"
	"testing"
)

func TestToImageNil(t *testing.T) {
	if _, err := ToImage(nil); err == nil {
		t.Fatal("ToImage(nil) should error")
	}
}

func TestToImageGray8(t *testing.T) {
	f := &Frame{
		Config: OutputImageConfig{Width: 2, Height: 1, BitDepth: []int{8}},
		Planes: [][]uint16{{10, 200}},
	}
	img, err := ToImage(f)
	if err != nil {
		t.Fatalf("ToImage: %v", err)
	}
	gray, ok := img.(*image.Gray)
	if !ok {
		t.Fatalf("ToImage for 8-bit single plane = %T, want *image.Gray", img)
	}
	if gray.GrayAt(0, 0).Y != 10 || gray.GrayAt(1, 0).Y != 200 {
		t.Errorf("pixel values wrong: %v, %v", gray.GrayAt(0, 0), gray.GrayAt(1, 0))
	}
}

func TestToImageGray16(t *testing.T) {
	f := &Frame{
		Config: OutputImageConfig{Width: 1, Height: 1, BitDepth: []int{12}},
		Planes: [][]uint16{{0xFFF}}, // max 12-bit value.
	}
	img, err := ToImage(f)
	if err != nil {
		t.Fatalf("ToImage: %v", err)
	}
	gray16, ok := img.(*image.Gray16)
	if !ok {
		t.Fatalf("ToImage for 12-bit single plane = %T, want *image.Gray16", img)
	}
	// 0xFFF << 4 == 0xFFF0, the full-scale 16-bit value for a 12-bit max.
	if gray16.Gray16At(0, 0).Y != 0xFFF0 {
		t.Errorf("Gray16At = 0x%X, want 0xFFF0", gray16.Gray16At(0, 0).Y)
	}
}

func TestToImageRGB(t *testing.T) {
	f := &Frame{
		Config: OutputImageConfig{Width: 1, Height: 1, BitDepth: []int{8, 8, 8}},
		Planes: [][]uint16{{0xFF}, {0x80}, {0x00}},
	}
	img, err := ToImage(f)
	if err != nil {
		t.Fatalf("ToImage: %v", err)
	}
	nrgba, ok := img.(*image.NRGBA64)
	if !ok {
		t.Fatalf("ToImage for 3 planes = %T, want *image.NRGBA64", img)
	}
	c := nrgba.NRGBA64At(0, 0)
	if c.A != 0xFFFF {
		t.Errorf("alpha = 0x%X, want fully opaque", c.A)
	}
}

func TestToImageUnsupportedComponentCount(t *testing.T) {
	f := &Frame{Planes: [][]uint16{{1}, {2}}}
	if _, err := ToImage(f); err == nil {
		t.Error("2-component frame should have no image.Image representation")
	}
}

func TestThumbnailSinkWrite(t *testing.T) {
	f := &Frame{
		Config: OutputImageConfig{Width: 4, Height: 4, BitDepth: []int{8}},
		Planes: [][]uint16{{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}},
	}
	var buf bytes.Buffer
	sink := NewThumbnailSink(&buf, 2, 2, png.Encode)
	if err := sink.Write(f); err != nil {
		t.Fatalf("Write: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decoding written PNG: %v", err)
	}
	if img.Bounds().Dx() != 2 || img.Bounds().Dy() != 2 {
		t.Errorf("thumbnail size = %v, want 2x2", img.Bounds())
	}
}
