/*
DESCRIPTION
  slicewalk.go discovers slice and frame boundaries by walking precinct
  length-prefixes without entropy-decoding their contents, per section 4.8
  ("discovers the slice boundary by walking precinct length-prefixes") and
  section 4.9's get_single_frame_size.

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

// sliceRange names one slice's byte extent within the frame buffer.
type sliceRange struct {
	id         int
	start, end int // Byte offsets into the whole frame buffer.
}

// selectVariantKind picks one of the four precinct shapes for a precinct at
// (col, globalRow), per section 3.
func selectVariantKind(pi *PictureInfo, col, globalRow int) PrecinctVariantKind {
	lastCol := col == pi.PrecinctsPerLine-1
	lastRow := globalRow == pi.PrecinctsPerCol-1
	switch {
	case lastRow && lastCol:
		return VariantLast
	case lastRow:
		return VariantLastNormal
	case lastCol:
		return VariantNormalLast
	default:
		return VariantNormal
	}
}

// selectVariant returns the precinct geometry variant for (col, globalRow).
func selectVariant(pi *PictureInfo, col, globalRow int) *PrecinctVariant {
	return &pi.Variants[selectVariantKind(pi, col, globalRow)]
}

// bandModeCount returns the number of (component, band) mode bits carried
// by every precinct header, which is the same for every variant since they
// share band counts and differ only in width/height.
func bandModeCount(pi *PictureInfo) int {
	n := 0
	for _, bands := range pi.Variants[VariantNormal].Geom {
		n += len(bands)
	}
	return n
}

// skipPrecinctHeaderAndBody reads one precinct's Lprc/quant/refine/mode
// header fields and skips its declared body, without interpreting any
// sub-packet contents.
func skipPrecinctHeaderAndBody(r *bits.Reader, modesCount int) error {
	lprc, err := r.ReadBits(24)
	if err != nil {
		return wrapKind(BitstreamTooShort, err, "read Lprc")
	}
	if _, err := r.ReadBits(8); err != nil {
		return wrapKind(BitstreamTooShort, err, "read quant index")
	}
	if _, err := r.ReadBits(8); err != nil {
		return wrapKind(BitstreamTooShort, err, "read refinement index")
	}
	if err := r.Skip(modesCount * 2); err != nil {
		return wrapKind(BitstreamTooShort, err, "skip band modes")
	}
	r.ByteAlign()
	if err := r.Skip(int(lprc) * 8); err != nil {
		return wrapKind(BitstreamTooShort, err, "skip precinct body")
	}
	return nil
}

// walkSlices walks every slice of a frame starting at slhOffset (the byte
// offset of the first SLH marker, as returned by headerParser.parse),
// returning each slice's byte range within buf and the total frame size in
// bytes (slhOffset plus everything walked).
func walkSlices(buf []byte, slhOffset int, pi *PictureInfo, c *PictureHeaderConst) ([]sliceRange, int, error) {
	r := bits.New(buf[slhOffset:])
	ranges := make([]sliceRange, 0, pi.SlicesNum)
	modesCount := bandModeCount(pi)

	globalRow := 0
	for sliceID := 0; sliceID < pi.SlicesNum; sliceID++ {
		if !r.EnoughBits(16) {
			return nil, 0, newKind(BitstreamTooShort, "truncated before SLH")
		}
		if _, err := r.ReadBits(16); err != nil {
			return nil, 0, wrapKind(BitstreamTooShort, err, "read SLH marker")
		}
		if !r.EnoughBits(slhPayloadLen * 8) {
			return nil, 0, newKind(BitstreamTooShort, "truncated SLH payload")
		}
		if _, err := r.ReadBits(slhPayloadLen * 8); err != nil {
			return nil, 0, wrapKind(BitstreamTooShort, err, "read SLH payload")
		}
		start := slhOffset + r.BytePos()

		rows := c.Hsl
		if globalRow+rows > pi.PrecinctsPerCol {
			rows = pi.PrecinctsPerCol - globalRow
		}
		for row := 0; row < rows; row++ {
			for col := 0; col < pi.PrecinctsPerLine; col++ {
				if err := skipPrecinctHeaderAndBody(r, modesCount); err != nil {
					return nil, 0, err
				}
			}
			globalRow++
		}
		ranges = append(ranges, sliceRange{id: sliceID, start: start, end: slhOffset + r.BytePos()})
	}
	return ranges, slhOffset + r.BytePos(), nil
}

// getSingleFrameSize walks markers and precinct lengths to determine one
// frame's total codestream size, per section 4.9. When fast is true, only
// the PIH/CDT portion is probed and the slice walk is skipped, trading an
// exact byte count for speed; fast callers get back 0 for size.
func getSingleFrameSize(buf []byte, log Log, fast bool) (*PictureHeaderConst, int, error) {
	if fast {
		c, err := probeImageConfig(buf, log)
		if err != nil {
			return nil, 0, err
		}
		return c, 0, nil
	}

	c, dyn, slhOffset, err := newHeaderParser(buf, log).parse()
	if err != nil {
		return nil, 0, err
	}
	if err := c.validate(); err != nil {
		return nil, 0, err
	}
	if err := dyn.validate(); err != nil {
		return nil, 0, err
	}
	pi, err := buildPI(c)
	if err != nil {
		return nil, 0, err
	}
	_, size, err := walkSlices(buf, slhOffset, pi, c)
	if err != nil {
		return nil, 0, err
	}
	return c, size, nil
}
