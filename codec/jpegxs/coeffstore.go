/*
DESCRIPTION
  coeffstore.go implements the frame-wide 16-bit coefficient store described
  in section 3: a single buffer holding every precinct's coefficients for a
  frame, addressed by precinct line and per-component/per-band offsets.

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

// signBit is the top bit of each 16-bit coefficient word; the remaining 15
// bits hold the unsigned magnitude. This "one's complement"-like layout is
// chosen so the data-stage inner loop is branchless; per section 9, it must
// never be mapped to a native signed integer type.
const signBit = uint16(1 << 15)

// magMask isolates the 15-bit magnitude.
const magMask = uint16(0x7fff)

func coeffMagnitude(v uint16) uint16 { return v & magMask }
func coeffSign(v uint16) bool        { return v&signBit != 0 }

func makeCoeff(mag uint16, negative bool) uint16 {
	mag &= magMask
	if negative && mag != 0 {
		return mag | signBit
	}
	return mag
}

// FrameCoefficientStore is a single 16-bit buffer sized
// (precinctsPerCol * precinctLineCoeffSize), holding the wavelet
// coefficients for every precinct of a frame, per section 3. Each
// (component, band)'s region within a precinct line spans that band's full
// row width, so that precinct columns write into disjoint, correctly
// offset windows of the same row rather than each starting at offset 0.
type FrameCoefficientStore struct {
	data             []uint16
	precinctLineSize int     // Coefficients per precinct line (all components, all bands).
	componentOffset  []int   // Per component, starting coefficient offset within a precinct line.
	bandOffset       [][]int // Per component, per band, starting coefficient offset within a component's region.
	bandStride       [][]int // Per component, per band, the full row width (stride) used for addressing.
}

// newFrameCoefficientStore allocates a store sized for pi, with
// precinctsPerCol precinct rows.
func newFrameCoefficientStore(pi *PictureInfo, precinctsPerCol int) *FrameCoefficientStore {
	componentOffset := make([]int, len(pi.Components))
	bandOffset := make([][]int, len(pi.Components))
	bandStride := make([][]int, len(pi.Components))
	offset := 0
	for ci, comp := range pi.Components {
		componentOffset[ci] = offset
		bandOffset[ci] = make([]int, len(comp.Bands))
		bandStride[ci] = make([]int, len(comp.Bands))
		compOffset := 0
		for bi, band := range comp.Bands {
			bandOffset[ci][bi] = compOffset
			bandStride[ci][bi] = band.Width
			compOffset += band.Width * band.HeightLines
		}
		offset += compOffset
	}
	return &FrameCoefficientStore{
		data:             make([]uint16, offset*precinctsPerCol),
		precinctLineSize: offset,
		componentOffset:  componentOffset,
		bandOffset:       bandOffset,
		bandStride:       bandStride,
	}
}

// Slice returns the coefficient data for (precinctLineIdx, component, band)
// starting colOffset columns into the band's full-width row, along with
// the row stride to use when indexing it: element (row, col) of a
// width-wide, heightLines-tall precinct-column window lives at
// data[row*stride+col]. colOffset is the sum of the normal-variant widths
// of every precinct column to the left of this one in the same row, so
// that multiple precinct columns sharing a precinct line write into
// disjoint spans of the same band row instead of all starting at 0.
func (s *FrameCoefficientStore) Slice(precinctLineIdx, component, band, colOffset int) (data []uint16, stride int) {
	stride = s.bandStride[component][band]
	base := precinctLineIdx*s.precinctLineSize + s.componentOffset[component] + s.bandOffset[component][band] + colOffset
	return s.data[base:], stride
}

// FullBand gathers one (component, band)'s complete coefficient raster,
// fullWidth by fullHeight, by concatenating the HeightLines-tall
// contribution of every precinct line (0 to precinctsPerCol-1), truncating
// the final line's contribution if fullHeight isn't an exact multiple of
// linesPerPrecinct. Raw 16-bit coefficient bins are expanded to signed
// int32 values, since the inverse DWT, nonlinearity, and color transform
// all operate on signed samples.
func (s *FrameCoefficientStore) FullBand(component, band, precinctsPerCol, fullWidth, fullHeight, linesPerPrecinct int) []int32 {
	out := make([]int32, fullWidth*fullHeight)
	row := 0
	for lineIdx := 0; lineIdx < precinctsPerCol && row < fullHeight; lineIdx++ {
		data, stride := s.Slice(lineIdx, component, band, 0)
		rows := linesPerPrecinct
		if row+rows > fullHeight {
			rows = fullHeight - row
		}
		for r := 0; r < rows; r++ {
			for col := 0; col < fullWidth; col++ {
				v := data[r*stride+col]
				mag := int32(coeffMagnitude(v))
				if coeffSign(v) {
					mag = -mag
				}
				out[row*fullWidth+col] = mag
			}
			row++
		}
	}
	return out
}
