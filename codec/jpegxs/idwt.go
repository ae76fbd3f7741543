/*
DESCRIPTION
  idwt.go implements the reversible 5/3 inverse discrete wavelet transform
  used to reconstruct integer samples from wavelet bands, per section 4.6 of
  the ISO/IEC 21122 decoder design.

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

// idwt1D performs one inverse 5/3 reversible wavelet transform pass,
// combining a low-pass row/column lo with its matching high-pass
// counterpart hi into an interleaved output of length len(lo)+len(hi), per
// section 4.6:
//
//	lo_out[0]        = lo[0] - ((hi[0]+1)>>1)
//	out[2i]   (i>0)  = lo[i] - ((hi[i-1]+hi[i]+2)>>2)
//	out[2i+1]        = hi[i] + ((out[2i]+out[2i+2])>>1)
//
// Boundary samples (hi[-1] and the final out[2i+2]) are handled by
// whole-point symmetric extension: the missing neighbor is taken to equal
// the nearest in-range sample.
func idwt1D(lo, hi []int32) []int32 {
	nl, nh := len(lo), len(hi)
	n := nl + nh
	out := make([]int32, n)
	if n == 0 {
		return out
	}
	if n == 1 {
		out[0] = lo[0]
		return out
	}

	hiAt := func(i int) int32 {
		switch {
		case nh == 0:
			return 0
		case i < 0:
			return hi[0]
		case i >= nh:
			return hi[nh-1]
		default:
			return hi[i]
		}
	}

	for i := 0; i < nl; i++ {
		if i == 0 {
			out[0] = lo[0] - ((hiAt(0) + 1) >> 1)
		} else {
			out[2*i] = lo[i] - ((hiAt(i-1) + hiAt(i) + 2) >> 2)
		}
	}

	outAt := func(j int) int32 {
		switch {
		case j < 0:
			return out[0]
		case j >= n:
			return out[n-2]
		default:
			return out[j]
		}
	}
	for i := 0; i < nh; i++ {
		out[2*i+1] = hi[i] + ((outAt(2*i) + outAt(2*i+2)) >> 1)
	}
	return out
}

// combineHorizontal applies idwt1D across each of rows rows of row-major
// buffers lo (width loW) and hi (width hiW), producing a row-major buffer
// of width loW+hiW.
func combineHorizontal(lo []int32, loW int, hi []int32, hiW int, rows int) []int32 {
	outW := loW + hiW
	out := make([]int32, outW*rows)
	loRow := make([]int32, loW)
	hiRow := make([]int32, hiW)
	for r := 0; r < rows; r++ {
		copy(loRow, lo[r*loW:(r+1)*loW])
		copy(hiRow, hi[r*hiW:(r+1)*hiW])
		copy(out[r*outW:(r+1)*outW], idwt1D(loRow, hiRow))
	}
	return out
}

// combineVertical applies idwt1D across each of cols columns of row-major
// buffers lo (loH rows) and hi (hiH rows), producing a row-major buffer of
// (loH+hiH) rows, cols columns.
func combineVertical(lo []int32, loH int, hi []int32, hiH int, cols int) []int32 {
	outH := loH + hiH
	out := make([]int32, cols*outH)
	loCol := make([]int32, loH)
	hiCol := make([]int32, hiH)
	for c := 0; c < cols; c++ {
		for r := 0; r < loH; r++ {
			loCol[r] = lo[r*cols+c]
		}
		for r := 0; r < hiH; r++ {
			hiCol[r] = hi[r*cols+c]
		}
		merged := idwt1D(loCol, hiCol)
		for r := 0; r < outH; r++ {
			out[r*cols+c] = merged[r]
		}
	}
	return out
}

// idwtReconstructComponent rebuilds one component's full-resolution integer
// image from its wavelet bands, combining levels from the coarsest (LL)
// outward, per section 4.6. bands and bandData must share the same
// coarsest-to-finest ordering produced by buildComponentBands (LL first).
// A horizontal-only level combines the running LL with a single H band
// row-wise; a full level combines LL+LH vertically, HL+HH vertically, then
// the two vertical results horizontally.
func idwtReconstructComponent(bands []Band, bandData [][]int32) []int32 {
	if len(bands) == 0 {
		return nil
	}
	cur := bandData[0]
	curW, curH := bands[0].Width, bands[0].Height

	i := 1
	for i < len(bands) {
		lvl := bands[i].Level
		fullLevel := i+2 < len(bands) &&
			bands[i].Orientation == orientHL && bands[i+1].Orientation == orientLH &&
			bands[i+2].Orientation == orientHH && bands[i+1].Level == lvl && bands[i+2].Level == lvl

		if fullLevel {
			hl, lh, hh := bandData[i], bandData[i+1], bandData[i+2]
			bw, bh := bands[i].Width, bands[i].Height

			lCol := combineVertical(cur, curH, lh, bh, curW)
			hCol := combineVertical(hl, bh, hh, bh, bw)

			nextH := curH + bh
			cur = combineHorizontal(lCol, curW, hCol, bw, nextH)
			curW, curH = curW+bw, nextH
			i += 3
			continue
		}

		h := bandData[i]
		bw := bands[i].Width
		cur = combineHorizontal(cur, curW, h, bw, curH)
		curW = curW + bw
		i++
	}
	return cur
}
