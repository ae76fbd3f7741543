/*
DESCRIPTION
  nlt.go implements the inverse nonlinearity transform, per section 4.7 of
  the ISO/IEC 21122 decoder design. Only the linear mode (Tnlt=0) is
  implemented; non-linear modes are surfaced by the header parser but
  rejected here, per spec section 4.7's explicit allowance to treat them as
  out of scope for the core.

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

// clip32 clamps v to [lo, hi].
func clip32(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// inverseNLTLinear reconstructs a final sample from an intermediate value x
// for Tnlt=0 (linear): shift = bw - depth; rounding = 1 << (bw-1); result is
// clipped to [0, (1<<depth)-1].
func inverseNLTLinear(x int32, bw, depth int) int32 {
	shift := bw - depth
	hi := int32(1)<<uint(depth) - 1
	if shift <= 0 {
		return clip32(x, 0, hi)
	}
	rounding := int32(1) << uint(bw-1)
	return clip32((x+rounding)>>uint(shift), 0, hi)
}

// inverseNLT applies the inverse nonlinearity transform in place to a
// plane of intermediate samples. It returns InvalidBitstream if tnlt is
// anything other than 0 (linear): non-linear NLT reconstruction is out of
// scope for this decoder's core, and a stream requiring it cannot be
// decoded, per section 4.7's explicit allowance to refuse Tnlt != 0.
func inverseNLT(plane []int32, tnlt, bw, depth int) error {
	if tnlt != 0 {
		return newKind(InvalidBitstream, "non-linear NLT modes are not supported")
	}
	for i, x := range plane {
		plane[i] = inverseNLTLinear(x, bw, depth)
	}
	return nil
}
