/*
DESCRIPTION
  dequant.go reconstructs integer wavelet coefficient values from the raw
  magnitude bins produced by the precinct entropy decoder, per section 4.5
  of the ISO/IEC 21122 decoder design: a deadzone mode (Qpih=0) and a
  uniform mode (Qpih=1), selected per picture.

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

// dequantizeDeadzone reconstructs a coefficient magnitude by placing mag in
// the bit-plane above gtli and setting the deadzone's midpoint bit, per
// section 4.5: "OR (1 << (gtli-1)) into the magnitude".
func dequantizeDeadzone(mag uint32, gtli int) uint32 {
	if gtli == 0 || mag == 0 {
		return mag
	}
	val := mag << uint(gtli)
	val |= 1 << uint(gtli-1)
	return val
}

// dequantizeUniform reconstructs a coefficient magnitude using the uniform
// reconstruction rule of section 4.5: scale = gcli - gtli + 1, then mag is
// first left-shifted by gtli to restore its low-order bits, and the value
// is rebuilt by accumulating that shifted magnitude right-shifted by
// successive multiples of scale until the contribution vanishes.
func dequantizeUniform(mag uint32, gcli, gtli int) uint32 {
	if gtli == 0 || mag == 0 {
		return mag
	}
	scale := gcli - gtli + 1
	if scale < 1 {
		scale = 1
	}
	m := mag << uint(gtli)
	var acc uint32
	for k := 0; ; k++ {
		contrib := m >> uint(k*scale)
		if contrib == 0 {
			break
		}
		acc += contrib
	}
	return acc
}

// dequantizeBand reconstructs every coefficient of one (component, band) in
// place, given its gcli groups (coeffGroupSize-wide) and current gtli.
// Coefficients whose gcli does not exceed gtli are already zero and are
// left untouched. coeffs is indexed with the given stride, which may
// exceed width when this window is one of several precinct columns sharing
// a wider band row.
func dequantizeBand(qpih int, coeffs []uint16, gcliBuf []int, gtli, width, height, stride int) {
	gcliWidth := (width + coeffGroupSize - 1) / coeffGroupSize
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			g := row*gcliWidth + col/coeffGroupSize
			gcli := 0
			if g < len(gcliBuf) {
				gcli = gcliBuf[g]
			}
			if gcli <= gtli {
				continue
			}
			idx := row*stride + col
			v := coeffs[idx]
			mag := uint32(coeffMagnitude(v))
			if mag == 0 {
				continue
			}
			var dq uint32
			if qpih == 0 {
				dq = dequantizeDeadzone(mag, gtli)
			} else {
				dq = dequantizeUniform(mag, gcli, gtli)
			}
			if dq > uint32(magMask) {
				dq = uint32(magMask)
			}
			coeffs[idx] = makeCoeff(uint16(dq), coeffSign(v))
		}
	}
}

// dequantizePrecinct reconstructs every active (component, band) of a
// decoded precinct in place, using the dynamic header's Qpih to select
// deadzone or uniform reconstruction. colOffset gives, per (component,
// band), this precinct column's starting offset within the band's full row.
func dequantizePrecinct(dyn *PictureHeaderDynamic, variant *PrecinctVariant, coeffs *FrameCoefficientStore,
	lineIdx int, colOffset [][]int, state *PrecinctState) {
	for ci, bands := range variant.Geom {
		for bi, geom := range bands {
			slice, stride := coeffs.Slice(lineIdx, ci, bi, colOffset[ci][bi])
			dequantizeBand(dyn.Qpih, slice, state.GCLI[ci][bi], state.GTLI[ci][bi], geom.Width, geom.Height, stride)
		}
	}
}
