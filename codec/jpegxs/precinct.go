/*
DESCRIPTION
  precinct.go implements the per-precinct entropy decoder described in
  section 4.4 of the ISO/IEC 21122 decoder design: precinct header, packet
  headers, the significance sub-packet, the GCLI (bit-plane-count)
  sub-packet in its three prediction variants, the coefficient data
  sub-packet, and the optional sign sub-packet.

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
	"fmt"

	"github.com/ausocean/jpegxs/codec/jpegxs/bits"
)

// bandDecodeMode is D[p,b], the 2-bit per-band coding mode carried in the
// precinct header.
type bandDecodeMode int

const (
	modeZeroNoSig  bandDecodeMode = 0
	modeZeroSig    bandDecodeMode = 1
	modeVPredNoSig bandDecodeMode = 2
	modeVPredSig   bandDecodeMode = 3
)

func (m bandDecodeMode) vpred() bool { return m == modeVPredNoSig || m == modeVPredSig }
func (m bandDecodeMode) sig() bool   { return m == modeZeroSig || m == modeVPredSig }

// PrecinctState holds, per worker and per precinct column, the GCLI and
// significance line buffers for every (component, band) active in that
// precinct, plus the current gtli thresholds. The previous column's state
// is retained by the caller (ring-swapped between precinct columns) so
// vertical-prediction GCLI decoding has access to its top neighbor.
type PrecinctState struct {
	GCLI        [][][]int  // [component][band][gcliGroupIdx]
	Significant [][][]bool // [component][band][sigGroupIdx]
	GTLI        [][]int    // [component][band]
}

// newPrecinctState allocates a PrecinctState sized for the given precinct
// variant.
func newPrecinctState(variant *PrecinctVariant) *PrecinctState {
	s := &PrecinctState{
		GCLI:        make([][][]int, len(variant.Geom)),
		Significant: make([][][]bool, len(variant.Geom)),
		GTLI:        make([][]int, len(variant.Geom)),
	}
	for ci, bands := range variant.Geom {
		s.GCLI[ci] = make([][]int, len(bands))
		s.Significant[ci] = make([][]bool, len(bands))
		s.GTLI[ci] = make([]int, len(bands))
		for bi, g := range bands {
			s.GCLI[ci][bi] = make([]int, g.GCLIWidth*g.Height)
			s.Significant[ci][bi] = make([]bool, g.SigWidth*g.Height)
		}
	}
	return s
}

// precinctDecoder decodes one precinct's entropy-coded content.
type precinctDecoder struct {
	br      *bits.Reader
	pi      *PictureInfo
	dyn     *PictureHeaderDynamic
	variant *PrecinctVariant
	coeffs  *FrameCoefficientStore
	lineIdx int // Precinct line index into the coefficient store.
	// colOffset[ci][bi] is this precinct column's starting offset, in
	// coefficients, within (component ci, band bi)'s full row, per the
	// coefficient store's windowing scheme.
	colOffset [][]int
	log       Log

	prev *PrecinctState // Previous column's state (nil for the first column).
	cur  *PrecinctState

	firstOfSlice bool

	quantIdx, refineIdx int
	modes               [][]bandDecodeMode // [component][bandLocalIdx]
}

// decodePrecinct decodes one precinct starting at the bitstream cursor,
// advancing it by exactly the precinct's total length on success. colOffset
// gives, per (component, band), this precinct column's starting offset
// within the band's full row (0 for the first column of a precinct line).
func decodePrecinct(br *bits.Reader, pi *PictureInfo, dyn *PictureHeaderDynamic, variant *PrecinctVariant,
	coeffs *FrameCoefficientStore, lineIdx int, colOffset [][]int, prev, cur *PrecinctState, firstOfSlice bool, log Log) error {

	d := &precinctDecoder{
		br: br, pi: pi, dyn: dyn, variant: variant, coeffs: coeffs, lineIdx: lineIdx, colOffset: colOffset,
		log: log, prev: prev, cur: cur, firstOfSlice: firstOfSlice,
	}
	return d.decode()
}

func (d *precinctDecoder) decode() error {
	startByte := d.br.BytePos()

	lprc, err := d.br.ReadBits(24)
	if err != nil {
		return wrapKind(BitstreamTooShort, err, "read Lprc")
	}
	if lprc > 1<<20-1 {
		return newKind(InvalidBitstream, "Lprc exceeds maximum")
	}
	quantIdx, err := d.br.ReadBits(8)
	if err != nil {
		return wrapKind(BitstreamTooShort, err, "read quant index")
	}
	refineIdx, err := d.br.ReadBits(8)
	if err != nil {
		return wrapKind(BitstreamTooShort, err, "read refinement index")
	}
	d.quantIdx, d.refineIdx = int(quantIdx), int(refineIdx)

	d.modes = make([][]bandDecodeMode, len(d.variant.Geom))
	for ci, bands := range d.variant.Geom {
		d.modes[ci] = make([]bandDecodeMode, len(bands))
		for bi := range bands {
			v, err := d.br.ReadBits(2)
			if err != nil {
				return wrapKind(BitstreamTooShort, err, "read band decode mode")
			}
			mode := bandDecodeMode(v)
			if mode.vpred() && d.firstOfSlice {
				return newKind(InvalidBitstream, "VPRED mode in first precinct of slice")
			}
			d.modes[ci][bi] = mode
		}
	}
	d.br.ByteAlign()

	d.deriveGTLI()

	declaredBody := int(lprc)
	bodyStart := d.br.BytePos()

	for pIdx, pkt := range d.pi.Packets {
		if !d.packetExists(pkt) {
			continue
		}
		if err := d.decodePacket(pkt); err != nil {
			return fmt.Errorf("packet %d: %w", pIdx, err)
		}
	}

	bodyConsumed := d.br.BytePos() - bodyStart
	if bodyConsumed > declaredBody {
		return newKind(InvalidBitstream, "precinct body overran declared Lprc")
	}
	if bodyConsumed < declaredBody {
		// The encoder may pad a precinct's body beyond what its sub-packets
		// strictly require; any such padding is skipped here.
		if err := d.br.Skip((declaredBody - bodyConsumed) * 8); err != nil {
			return wrapKind(BitstreamTooShort, err, "skip precinct padding")
		}
	}

	totalConsumed := d.br.BytePos() - startByte
	if totalConsumed != (bodyStart-startByte)+declaredBody {
		return newKind(DecoderInternal, "precinct byte accounting diverged")
	}
	return nil
}

// deriveGTLI computes, for each (component, band), the current gtli
// (bit-plane truncation threshold) from the quantization index, refinement
// index, and the band's priority, following this implementation's
// resolution of an open question in section 4.4 (documented in DESIGN.md):
// gtli = clamp(quantIdx - priority, 0, 31), refined down by one further
// bit-plane when the refinement index's bit (band index mod 8) is set.
func (d *precinctDecoder) deriveGTLI() {
	for ci, bands := range d.variant.Geom {
		for bi := range bands {
			var priority int
			if ci < len(d.pi.Components) && bi < len(d.pi.Components[ci].Bands) {
				priority = d.pi.Components[ci].Bands[bi].Priority
			}
			gtli := d.quantIdx - priority
			if gtli < 0 {
				gtli = 0
			}
			if gtli > 31 {
				gtli = 31
			}
			if d.refineIdx&(1<<uint(bi%8)) != 0 && gtli > 0 {
				gtli--
			}
			d.cur.GTLI[ci][bi] = gtli
		}
	}
}

// packetExists reports whether any (component, band) in pkt's range still
// has unread precinct lines, per section 4.4's packet-iteration rule.
func (d *precinctDecoder) packetExists(pkt PacketEntry) bool {
	for _, bands := range d.variant.Geom {
		for b := pkt.BandStart; b <= pkt.BandStop && b < len(bands); b++ {
			if pkt.LineIdx < bands[b].Height {
				return true
			}
		}
	}
	return false
}

// packetHeader is the parsed short/long packet header.
type packetHeader struct {
	raw     bool
	dataLen int
	gcliLen int
	signLen int
}

// readPacketHeader reads either the 5-byte short or 7-byte long packet
// header, per section 4.4.
func (d *precinctDecoder) readPacketHeader(shortAllowed bool) (packetHeader, error) {
	var h packetHeader
	raw, err := d.br.ReadBits(1)
	if err != nil {
		return h, wrapKind(BitstreamTooShort, err, "read Dr")
	}
	h.raw = raw == 1

	dataBits, gcliBits, signBits := 20, 20, 15
	if shortAllowed {
		dataBits, gcliBits, signBits = 15, 13, 11
	}
	data, err := d.br.ReadBits(dataBits)
	if err != nil {
		return h, wrapKind(BitstreamTooShort, err, "read packet data length")
	}
	gcli, err := d.br.ReadBits(gcliBits)
	if err != nil {
		return h, wrapKind(BitstreamTooShort, err, "read packet gcli length")
	}
	sign, err := d.br.ReadBits(signBits)
	if err != nil {
		return h, wrapKind(BitstreamTooShort, err, "read packet sign length")
	}
	h.dataLen, h.gcliLen, h.signLen = int(data), int(gcli), int(sign)
	return h, nil
}

// decodePacket decodes one packet: header, GCLI, data, and (if Fs=1) sign
// sub-packets, for every (component, band) the packet's range covers.
func (d *precinctDecoder) decodePacket(pkt PacketEntry) error {
	hdr, err := d.readPacketHeader(true)
	if err != nil {
		return err
	}

	gcliStart := d.br.BytePos()
	for ci, bands := range d.variant.Geom {
		for b := pkt.BandStart; b <= pkt.BandStop && b < len(bands); b++ {
			if err := d.decodeGCLI(ci, b, bands[b], d.modes[ci][b], hdr); err != nil {
				return err
			}
		}
	}
	if c := d.br.BytePos() - gcliStart; c > hdr.gcliLen {
		return newKind(InvalidBitstream, "gcli sub-packet overran declared length")
	}

	dataStart := d.br.BytePos()
	for ci, bands := range d.variant.Geom {
		for b := pkt.BandStart; b <= pkt.BandStop && b < len(bands); b++ {
			if err := d.decodeData(ci, b, bands[b]); err != nil {
				return err
			}
		}
	}
	if c := d.br.BytePos() - dataStart; c > hdr.dataLen {
		return newKind(InvalidBitstream, "data sub-packet overran declared length")
	}

	if d.dyn.Fs == 1 {
		signStart := d.br.BytePos()
		for ci, bands := range d.variant.Geom {
			for b := pkt.BandStart; b <= pkt.BandStop && b < len(bands); b++ {
				if err := d.decodeSign(ci, b, bands[b]); err != nil {
					return err
				}
			}
		}
		signConsumed := d.br.BytePos() - signStart
		if signConsumed > hdr.signLen {
			return newKind(InvalidBitstream, "sign sub-packet overran declared length")
		}
		if signConsumed < hdr.signLen {
			if err := d.br.Skip((hdr.signLen - signConsumed) * 8); err != nil {
				return wrapKind(BitstreamTooShort, err, "skip sign sub-packet remainder")
			}
		}
	}

	d.br.ByteAlign()
	return nil
}

// decodeGCLI decodes the GCLI sub-packet for one (component, band), in one
// of three modes: raw (each value an explicit nibble), zero-prediction
// coded (each group's GCLI carried as gtli plus a unary residual), or
// vertical-prediction coded (residual measured against the same group in
// the previous precinct column's line), per section 4.4. A set
// significance bit marks a whole group of coeffGroupSize-wide gcli groups
// as insignificant (gcli == gtli, i.e. no magnitude bits to read).
func (d *precinctDecoder) decodeGCLI(ci, bi int, geom PrecinctGeom, mode bandDecodeMode, hdr packetHeader) error {
	gtli := d.cur.GTLI[ci][bi]
	gcliBuf := d.cur.GCLI[ci][bi]
	n := len(gcliBuf)

	if hdr.raw {
		for i := 0; i < n; i++ {
			v, err := d.br.Read4BitsAlign4()
			if err != nil {
				return wrapKind(BitstreamTooShort, err, "read raw gcli nibble")
			}
			gcliBuf[i] = int(v)
		}
		return nil
	}

	var topRow []int
	if mode.vpred() && d.prev != nil && ci < len(d.prev.GCLI) && bi < len(d.prev.GCLI[ci]) {
		topRow = d.prev.GCLI[ci][bi]
	}

	if !mode.sig() {
		for g := 0; g*coeffGroupSize < n; g++ {
			if err := d.decodeGCLIGroup(gcliBuf, g, n, gtli, mode, topRow); err != nil {
				return err
			}
		}
		return nil
	}

	sigBuf := d.cur.Significant[ci][bi]
	groupsPerSig := sigGroupSize
	for sg := 0; sg*groupsPerSig*coeffGroupSize < n; sg++ {
		b, err := d.br.ReadBits(1)
		if err != nil {
			return wrapKind(BitstreamTooShort, err, "read significance bit")
		}
		insig := b == 1
		if sg < len(sigBuf) {
			sigBuf[sg] = insig
		}
		firstGroup := sg * groupsPerSig
		lastGroup := firstGroup + groupsPerSig
		for g := firstGroup; g < lastGroup && g*coeffGroupSize < n; g++ {
			if insig {
				for j := g * coeffGroupSize; j < (g+1)*coeffGroupSize && j < n; j++ {
					gcliBuf[j] = gtli
				}
				continue
			}
			if err := d.decodeGCLIGroup(gcliBuf, g, n, gtli, mode, topRow); err != nil {
				return err
			}
		}
	}
	return nil
}

// decodeGCLIGroup decodes one coeffGroupSize-wide group's GCLI values via a
// unary residual, per section 4.2/4.4: in zero-prediction mode the group's
// gcli is gtli+x; in vertical-prediction mode it is
// max(gcliTop, T) + signedDelta(x, gcliTop, gtli), where gcliTop is the
// corresponding group's gcli in the previous column and T = max(gcliTop-gtli, 0).
func (d *precinctDecoder) decodeGCLIGroup(gcliBuf []int, g, n, gtli int, mode bandDecodeMode, topRow []int) error {
	v := newVLCReader(d.br)
	x, err := v.readUnary()
	if err != nil {
		return wrapKind(BitstreamTooShort, err, "read gcli vlc residual")
	}
	if x < 0 {
		return newKind(InvalidBitstream, "gcli vlc residual exceeded maximum unary run")
	}

	for j := g * coeffGroupSize; j < (g+1)*coeffGroupSize && j < n; j++ {
		if !mode.vpred() {
			gcliBuf[j] = gtli + x
			continue
		}
		gcliTop := gtli
		if topRow != nil && j < len(topRow) {
			gcliTop = topRow[j]
		}
		t := gcliTop - gtli
		if t < 0 {
			t = 0
		}
		base := gcliTop
		if t > base {
			base = t
		}
		v := base + signedDelta(x, gcliTop, gtli)
		if v < gtli {
			v = gtli
		}
		gcliBuf[j] = v
	}
	return nil
}

// decodeData decodes the coefficient data sub-packet for one (component,
// band): for each group of coeffGroupSize coefficients, reads
// (gcli-gtli) magnitude bit-planes (bit-interleaved across the group as a
// nibble per plane), plus one sign nibble per group when signs are
// interleaved (Fs=0). When Fs=1 signs are read later by decodeSign.
func (d *precinctDecoder) decodeData(ci, bi int, geom PrecinctGeom) error {
	gtli := d.cur.GTLI[ci][bi]
	gcliBuf := d.cur.GCLI[ci][bi]
	out, stride := d.coeffs.Slice(d.lineIdx, ci, bi, d.colOffset[ci][bi])

	for row := 0; row < geom.Height; row++ {
		for col := 0; col < geom.Width; col += coeffGroupSize {
			g := row*geom.GCLIWidth + col/coeffGroupSize
			gcli := 0
			if g < len(gcliBuf) {
				gcli = gcliBuf[g]
			}
			groupLen := coeffGroupSize
			if col+groupLen > geom.Width {
				groupLen = geom.Width - col
			}

			if gcli <= gtli {
				for k := 0; k < groupLen; k++ {
					out[row*stride+col+k] = 0
				}
				continue
			}

			planes := gcli - gtli
			var signs [coeffGroupSize]bool
			if d.dyn.Fs == 0 {
				signNibble, err := d.br.Read4BitsAlign4()
				if err != nil {
					return wrapKind(BitstreamTooShort, err, "read sign nibble")
				}
				for k := 0; k < coeffGroupSize; k++ {
					signs[k] = signNibble&(1<<uint(3-k)) != 0
				}
			}
			var mags [coeffGroupSize]uint32
			for p := 0; p < planes; p++ {
				nibble, err := d.br.Read4BitsAlign4()
				if err != nil {
					return wrapKind(BitstreamTooShort, err, "read coefficient bitplane")
				}
				for k := 0; k < coeffGroupSize; k++ {
					bit := (nibble >> uint(3-k)) & 1
					mags[k] = mags[k]<<1 | bit
				}
			}
			for k := 0; k < groupLen; k++ {
				// Stored as the raw magnitude bin; dequant.go reconstructs
				// the integer coefficient value from (mag, gcli, gtli).
				out[row*stride+col+k] = makeCoeff(uint16(mags[k]), signs[k])
			}
		}
	}
	return nil
}

// decodeSign applies the deferred sign sub-packet (Fs=1): one bit per
// non-zero coefficient in scan order. Any trailing bits padding out the
// sub-packet's declared length are skipped by the caller.
func (d *precinctDecoder) decodeSign(ci, bi int, geom PrecinctGeom) error {
	out, stride := d.coeffs.Slice(d.lineIdx, ci, bi, d.colOffset[ci][bi])
	for row := 0; row < geom.Height; row++ {
		for col := 0; col < geom.Width; col++ {
			idx := row*stride + col
			if coeffMagnitude(out[idx]) == 0 {
				continue
			}
			b, err := d.br.ReadBits(1)
			if err != nil {
				return wrapKind(BitstreamTooShort, err, "read sign bit")
			}
			out[idx] = makeCoeff(coeffMagnitude(out[idx]), b == 1)
		}
	}
	return nil
}
