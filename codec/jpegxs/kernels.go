/*
DESCRIPTION
  kernels.go defines the dispatch-table shape for the decoder's hot inner
  loops, per section 9 of the ISO/IEC 21122 decoder design: a KernelSet of
  function pointers so a future vectorized build can register replacements
  for the scalar reference kernels without touching call sites.

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

// KernelSet collects the decoder's replaceable hot-loop implementations.
// Only a scalar variant is registered by this module; the levelA/levelB
// slots exist so a reimplementation targeting specific CPU features can
// register vectorized kernels without changing call sites, per section 9.
type KernelSet struct {
	IDWT1D     func(lo, hi []int32) []int32
	Dequantize func(qpih int, coeffs []uint16, gcliBuf []int, gtli, width, height, stride int)
}

// scalarKernels is the portable reference implementation, used when no
// more specific kernel set has been registered.
var scalarKernels = KernelSet{
	IDWT1D:     idwt1D,
	Dequantize: dequantizeBand,
}

// activeKernels is the currently selected KernelSet. Only scalarKernels is
// ever assigned by this module; a future build targeting a specific CPU
// feature level could swap it for a levelA/levelB set at init time.
var activeKernels = scalarKernels
