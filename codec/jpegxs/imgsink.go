/*
DESCRIPTION
  imgsink.go converts a decoded Frame's planar, native-bit-depth samples
  into a standard library image.Image, and provides a thumbnail sink built
  on golang.org/x/image/draw, the way filter/basic.go consumes a decoded
  image.Image for its own per-pixel processing.

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
	"image"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

// ToImage converts a decoded Frame into a standard image.Image. A
// single-component frame becomes an image.Gray or image.Gray16 depending
// on bit depth; a three-component frame (already inverse color
// transformed to RGB planes by the decoder when Cpih was set) becomes an
// image.NRGBA64. Any other component count is rejected: there is no
// standard image.Image representation for it.
func ToImage(f *Frame) (image.Image, error) {
	if f == nil {
		return nil, errors.New("jpegxs: nil frame")
	}
	w, h := f.Config.Width, f.Config.Height
	switch len(f.Planes) {
	case 1:
		return grayImage(f.Planes[0], w, h, f.Config.BitDepth[0]), nil
	case 3:
		return rgbImage(f.Planes, w, h, f.Config.BitDepth), nil
	default:
		return nil, errors.Errorf("jpegxs: no image.Image representation for %d components", len(f.Planes))
	}
}

func grayImage(plane []uint16, w, h, depth int) image.Image {
	if depth <= 8 {
		img := image.NewGray(image.Rect(0, 0, w, h))
		for i, v := range plane {
			img.Pix[i] = uint8(v)
		}
		return img
	}
	img := image.NewGray16(image.Rect(0, 0, w, h))
	shift := uint(16 - depth)
	for i, v := range plane {
		sv := v << shift
		img.Pix[2*i] = uint8(sv >> 8)
		img.Pix[2*i+1] = uint8(sv)
	}
	return img
}

func rgbImage(planes [][]uint16, w, h int, depth []int) image.Image {
	img := image.NewNRGBA64(image.Rect(0, 0, w, h))
	shifts := [3]uint{16 - uint(depth[0]), 16 - uint(depth[1]), 16 - uint(depth[2])}
	for i := 0; i < w*h; i++ {
		r := planes[0][i] << shifts[0]
		g := planes[1][i] << shifts[1]
		b := planes[2][i] << shifts[2]
		off := i * 8
		img.Pix[off+0], img.Pix[off+1] = uint8(r>>8), uint8(r)
		img.Pix[off+2], img.Pix[off+3] = uint8(g>>8), uint8(g)
		img.Pix[off+4], img.Pix[off+5] = uint8(b>>8), uint8(b)
		img.Pix[off+6], img.Pix[off+7] = 0xff, 0xff
	}
	return img
}

// ThumbnailSink scales every decoded Frame down to a fixed size and writes
// it as a PNG to dst, using golang.org/x/image/draw's bilinear scaler. It
// is meant for quick-look previews, not for archival output.
type ThumbnailSink struct {
	dst          io.Writer
	w, h         int
	encode       func(io.Writer, image.Image) error
	interpolator draw.Interpolator
}

// NewThumbnailSink returns a ThumbnailSink writing w x h images to dst via
// encode (e.g. png.Encode or a jpeg.Encode closure).
func NewThumbnailSink(dst io.Writer, w, h int, encode func(io.Writer, image.Image) error) *ThumbnailSink {
	return &ThumbnailSink{dst: dst, w: w, h: h, encode: encode, interpolator: draw.BiLinear}
}

// Write scales f to the sink's configured dimensions and encodes it to dst.
func (s *ThumbnailSink) Write(f *Frame) error {
	src, err := ToImage(f)
	if err != nil {
		return err
	}
	dstImg := image.NewRGBA(image.Rect(0, 0, s.w, s.h))
	s.interpolator.Scale(dstImg, dstImg.Bounds(), src, src.Bounds(), draw.Src, nil)
	return s.encode(s.dst, dstImg)
}
