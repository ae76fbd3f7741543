/*
DESCRIPTION
  header.go implements the codestream header parser described in section 4.3
  of the ISO/IEC 21122 decoder design: it walks markers from SOC through SLH,
  filling a PictureHeaderConst (invariants that must not change across
  frames of a stream) and a PictureHeaderDynamic (per-frame quantities).

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

// Group sizes are fixed by the format, not derived from the stream.
const (
	coeffGroupSize = 4
	sigGroupSize   = 8
	maxComponents  = 8
)

// PictureHeaderConst holds the picture header quantities that must not
// change across frames of a single stream. A subsequent frame whose const
// header differs from this one is a DecoderConfigChange error.
type PictureHeaderConst struct {
	Ppih, Plev uint32 // Profile and level indicators from the PIH payload.
	W, H       int    // Frame width and height in samples.
	Ppoc       int    // Precinct width, in samples.
	Hsl        int    // Slice height, in precincts.
	Nc         int    // Component count.
	Ng         int    // Coefficient group size; must equal coeffGroupSize (4).
	Ss         int    // Significance group size; must equal sigGroupSize (8).

	BitDepth []int // Per component, bit depth (8-16).
	Sx, Sy   []int // Per component, horizontal/vertical subsampling (1 or 2).

	DecomH, DecomV int // Horizontal (0-5) and vertical (0-2) decomposition levels.
	Cpih           int // Color transform mode: 0, 1, or 3.
	NumSd          int // Number of raw ("Sd") components, from CWD.
	Fslc           bool
	Lh, Rl         bool // Short-header / reduced-length capability bits.

	// Gain and Priority are per-band tables from WGT, copied into the const
	// header at init since WGT must precede SLH and is not expected to vary.
	Gain     []int
	Priority []int
}

// PictureHeaderDynamic holds the picture header quantities that may vary
// frame to frame.
type PictureHeaderDynamic struct {
	Lcod int // Declared codestream length in bytes; 0 = variable.
	Fq   int // Fractional quantization bits: one of 0, 6, 8.
	Bw   int // Bit-width parameter from PIH.
	Br   int // Always 4.

	Fs int // Sign-handling mode: 0 or 1.
	Rm int // Run-mode flag: 0 or 1.

	Qpih int // Inverse-quantization type: 0 or 1.

	// Nonlinearity parameters, surfaced from NLT but only Tnlt=0 (linear) is
	// implemented by the decode path; see section 4.7 and section 9's open
	// question.
	Tnlt          int
	Sigma         int
	Alpha         int
	T1, T2        int
	E             int

	Cf int // Color-transform marker data (Cpih=3).

	// Per component registration offsets from CRG (Cpih=3 only).
	Xcrg, Ycrg []int
}

// validate checks the invariants listed in section 3 of the decoder design.
func (c *PictureHeaderConst) validate() error {
	switch {
	case c.Ng != coeffGroupSize:
		return newKind(InvalidBitstream, "Ng must equal 4")
	case c.Ss != sigGroupSize:
		return newKind(InvalidBitstream, "Ss must equal 8")
	case c.Cpih != 0 && c.Cpih != 1 && c.Cpih != 3:
		return newKind(InvalidBitstream, "Cpih must be 0, 1, or 3")
	case c.Nc < 1 || c.Nc > maxComponents:
		return newKind(InvalidBitstream, "Nc out of range")
	case c.DecomH < 0 || c.DecomH > 5:
		return newKind(InvalidBitstream, "decom_h out of range")
	case c.DecomV < 0 || c.DecomV > 2:
		return newKind(InvalidBitstream, "decom_v out of range")
	}
	// BitDepth/Sx/Sy are filled by CDT, which follows PIH; validate is also
	// called straight after PIH parsing, before CDT has run, so skip the
	// per-component checks until those slices exist.
	if len(c.BitDepth) < c.Nc {
		return nil
	}
	for i := 0; i < c.Nc; i++ {
		if c.BitDepth[i] < 8 || c.BitDepth[i] > 16 {
			return newKind(InvalidBitstream, "component bit depth out of range")
		}
		if c.Sx[i] != 1 && c.Sx[i] != 2 {
			return newKind(InvalidBitstream, "Sx must be 1 or 2")
		}
		if c.Sy[i] != 1 && c.Sy[i] != 2 {
			return newKind(InvalidBitstream, "Sy must be 1 or 2")
		}
		if c.Sy[i] > c.Sx[i] {
			return newKind(InvalidBitstream, "Sy must be <= Sx")
		}
		if c.DecomV-(c.Sy[i]-1) < 0 {
			return newKind(InvalidBitstream, "decom_v - (Sy-1) must be >= 0")
		}
	}
	if c.Cpih != 0 {
		for i := 1; i < c.Nc; i++ {
			if c.Sx[i] != c.Sx[0] || c.Sy[i] != c.Sy[0] {
				return newKind(InvalidBitstream, "Cpih!=0 requires shared subsampling")
			}
		}
	}
	return nil
}

// validate checks the dynamic-header invariants from section 3.
func (d *PictureHeaderDynamic) validate() error {
	switch {
	case d.Fq != 0 && d.Fq != 6 && d.Fq != 8:
		return newKind(InvalidBitstream, "Fq must be 0, 6, or 8")
	case d.Br != 4:
		return newKind(InvalidBitstream, "Br must equal 4")
	case d.Qpih > 1:
		return newKind(InvalidBitstream, "Qpih must be 0 or 1")
	case d.Fs > 1:
		return newKind(InvalidBitstream, "Fs must be 0 or 1")
	case d.Rm > 1:
		return newKind(InvalidBitstream, "Rm must be 0 or 1")
	}
	return nil
}

// headerParser walks a codestream buffer's markers from SOC through SLH.
type headerParser struct {
	r   *bits.Reader
	log Log

	seen map[marker]bool

	c *PictureHeaderConst
	d *PictureHeaderDynamic
}

// newHeaderParser returns a headerParser over buf.
func newHeaderParser(buf []byte, log Log) *headerParser {
	return &headerParser{
		r:    bits.New(buf),
		log:  log,
		seen: make(map[marker]bool),
		c:    &PictureHeaderConst{},
		d:    &PictureHeaderDynamic{},
	}
}

// readMarker reads a 16-bit marker code.
func (p *headerParser) readMarker() (marker, error) {
	v, err := p.r.ReadBits(16)
	if err != nil {
		return 0, wrapKind(BitstreamTooShort, err, "read marker")
	}
	return marker(v), nil
}

// readLen reads a 16-bit marker-payload length field (the length field's
// own 2 bytes are included in JPEG-XS-family conventions, so the payload
// that follows is length-2 bytes; callers that need raw payload length
// subtract 2).
func (p *headerParser) readLen() (int, error) {
	v, err := p.r.ReadBits(16)
	if err != nil {
		return 0, wrapKind(BitstreamTooShort, err, "read marker length")
	}
	return int(v), nil
}

// parse drives the marker walk and returns the completed const/dynamic
// headers, plus the byte offset at which the SLH marker begins (the caller
// rewinds to this point to continue with slice/precinct parsing).
func (p *headerParser) parse() (*PictureHeaderConst, *PictureHeaderDynamic, int, error) {
	logf(p.log, logDebug, "jpegxs: parsing picture header")
	m, err := p.readMarker()
	if err != nil {
		return nil, nil, 0, err
	}
	if m != markerSOC {
		return nil, nil, 0, newKind(InvalidBitstream, "codestream does not begin with SOC")
	}
	p.seen[markerSOC] = true

	for {
		if !p.r.EnoughBits(16) {
			return nil, nil, 0, newKind(BitstreamTooShort, "header truncated before SLH")
		}
		slhOffset := p.r.BytePos()
		m, err := p.readMarker()
		if err != nil {
			return nil, nil, 0, err
		}

		if m == markerSLH {
			if err := p.checkComplete(); err != nil {
				return nil, nil, 0, err
			}
			logf(p.log, logDebug, "jpegxs: picture header complete", "slhOffset", slhOffset)
			return p.c, p.d, slhOffset, nil
		}

		if err := p.dispatch(m); err != nil {
			return nil, nil, 0, err
		}
	}
}

// checkComplete verifies all mandatory markers were observed before SLH.
func (p *headerParser) checkComplete() error {
	mandatory := []marker{markerCAP, markerPIH, markerCDT, markerWGT}
	if p.c.Cpih == 3 {
		mandatory = append(mandatory, markerCTS, markerCRG)
	}
	for _, m := range mandatory {
		if !p.seen[m] {
			return newKind(InvalidBitstream, fmt.Sprintf("missing mandatory marker %s", m))
		}
	}
	return nil
}

// dispatch parses one non-SLH, non-SOC marker and records bookkeeping for
// duplicate/ordering checks.
func (p *headerParser) dispatch(m marker) error {
	if m != markerCOM && p.seen[m] {
		return newKind(InvalidBitstream, fmt.Sprintf("duplicate marker %s", m))
	}
	if p.seen[markerPIH] {
		switch m {
		case markerCTS, markerCRG, markerCOM:
		default:
			return newKind(InvalidBitstream, fmt.Sprintf("marker %s not permitted after PIH", m))
		}
	}

	length, err := p.readLen()
	if err != nil {
		return err
	}
	payloadLen := length - 2
	if payloadLen < 0 || !p.r.EnoughBits(payloadLen*8) {
		return newKind(InvalidBitstream, fmt.Sprintf("malformed length for marker %s", m))
	}
	start := p.r.BytePos()

	switch m {
	case markerCAP:
		if err := p.parseCAP(payloadLen); err != nil {
			return err
		}
	case markerPIH:
		if payloadLen != pihPayloadLen {
			return newKind(InvalidBitstream, "PIH payload length mismatch")
		}
		if err := p.parsePIH(); err != nil {
			return err
		}
	case markerCDT:
		if err := p.parseCDT(); err != nil {
			return err
		}
	case markerWGT:
		if err := p.parseWGT(payloadLen); err != nil {
			return err
		}
	case markerCWD:
		if err := p.parseCWD(); err != nil {
			return err
		}
	case markerNLT:
		if err := p.parseNLT(); err != nil {
			return err
		}
	case markerCTS:
		if err := p.parseCTS(payloadLen); err != nil {
			return err
		}
	case markerCRG:
		if err := p.parseCRG(); err != nil {
			return err
		}
	case markerCOM:
		if err := p.r.Skip(payloadLen * 8); err != nil {
			return wrapKind(BitstreamTooShort, err, "skip COM payload")
		}
		logf(p.log, logDebug, "jpegxs: skipped comment marker", "len", payloadLen)
	default:
		return newKind(InvalidBitstream, fmt.Sprintf("unrecognised marker %s", m))
	}

	p.seen[m] = true

	consumed := p.r.BytePos() - start
	if consumed != payloadLen {
		return newKind(InvalidBitstream, fmt.Sprintf("marker %s payload length mismatch: consumed %d, declared %d", m, consumed, payloadLen))
	}
	return nil
}

// parseCAP parses the capability marker. Only its length is validated; its
// contents are advisory and are not required by the decode path.
func (p *headerParser) parseCAP(payloadLen int) error {
	if err := p.r.Skip(payloadLen * 8); err != nil {
		return wrapKind(BitstreamTooShort, err, "skip CAP payload")
	}
	return nil
}

// parsePIH parses the fixed 24-byte picture-header payload, per the bit
// layout given in section 6:
//
//	Lcod:4, Ppih:2, Plev:2, W:2, H:2, Ppoc:2, Hsl:2, Nc:1, Ng:1, Ss:1, Bw:1,
//	Fq:4bits, Br:4bits, Fslc:1bit, reserved:3bits, Cpih:4bits,
//	decom_h:4bits, decom_v:4bits, Lh:1bit, Rl:1bit, Qpih:2bits, Fs:2bits, Rm:2bits
func (p *headerParser) parsePIH() error {
	f := newFieldReader(p.r)

	lcod := f.u(32)
	ppih := f.u(16)
	plev := f.u(16)
	w := f.u(16)
	h := f.u(16)
	ppoc := f.u(16)
	hsl := f.u(16)
	nc := f.u(8)
	ng := f.u(8)
	ss := f.u(8)
	bw := f.u(8)

	fq := f.u(4)
	br := f.u(4)

	fslc := f.bit()
	f.u(3) // reserved
	cpih := f.u(4)

	decomH := f.u(4)
	decomV := f.u(4)

	lh := f.bit()
	rl := f.bit()
	qpih := f.u(2)
	fs := f.u(2)
	rm := f.u(2)

	if f.err() != nil {
		return wrapKind(BitstreamTooShort, f.err(), "parse PIH fields")
	}

	if nc < 1 || nc > maxComponents {
		return newKind(InvalidBitstream, "Nc out of range in PIH")
	}

	p.c.Ppih = ppih
	p.c.Plev = plev
	p.c.W = int(w)
	p.c.H = int(h)
	p.c.Ppoc = int(ppoc)
	p.c.Hsl = int(hsl)
	p.c.Nc = int(nc)
	p.c.Ng = int(ng)
	p.c.Ss = int(ss)
	p.c.Cpih = int(cpih)
	p.c.DecomH = int(decomH)
	p.c.DecomV = int(decomV)
	p.c.Fslc = fslc
	p.c.Lh = lh
	p.c.Rl = rl

	p.d.Lcod = int(lcod)
	p.d.Fq = int(fq)
	p.d.Bw = int(bw)
	p.d.Br = int(br)
	p.d.Qpih = int(qpih)
	p.d.Fs = int(fs)
	p.d.Rm = int(rm)

	if err := p.c.validate(); err != nil {
		return err
	}
	return p.d.validate()
}

// parseCDT parses the component table: per component, bit depth and
// subsampling factors.
func (p *headerParser) parseCDT() error {
	nc := p.c.Nc
	if nc == 0 {
		return newKind(InvalidBitstream, "CDT before PIH")
	}
	p.c.BitDepth = make([]int, nc)
	p.c.Sx = make([]int, nc)
	p.c.Sy = make([]int, nc)

	for i := 0; i < nc; i++ {
		f := newFieldReader(p.r)
		bd := f.u(8)
		sx := f.nibble()
		sy := f.nibble()
		if f.err() != nil {
			return wrapKind(BitstreamTooShort, f.err(), "parse CDT component")
		}
		p.c.BitDepth[i] = int(bd)
		p.c.Sx[i] = int(sx)
		p.c.Sy[i] = int(sy)
	}
	return p.c.validate()
}

// parseWGT parses the weights table: a gain/priority byte pair per existing
// band, for exactly payloadLen/2 bands. The global band existence map
// (which bands actually exist under the stream's subsampling) is computed
// later in pi.go from the const header; WGT's bands_num_exists count must
// agree with that map, checked when PI is derived.
func (p *headerParser) parseWGT(payloadLen int) error {
	if payloadLen%2 != 0 {
		return newKind(InvalidBitstream, "WGT payload length must be even")
	}
	n := payloadLen / 2
	gain := make([]int, n)
	priority := make([]int, n)
	for i := 0; i < n; i++ {
		g, err := p.r.ReadBits(8)
		if err != nil {
			return wrapKind(BitstreamTooShort, err, "parse WGT gain")
		}
		pr, err := p.r.ReadBits(8)
		if err != nil {
			return wrapKind(BitstreamTooShort, err, "parse WGT priority")
		}
		gain[i] = int(g)
		priority[i] = int(pr)
	}
	p.c.Gain = gain
	p.c.Priority = priority
	return nil
}

// parseCWD parses the Sd (raw component count) extension marker.
func (p *headerParser) parseCWD() error {
	v, err := p.r.ReadBits(8)
	if err != nil {
		return wrapKind(BitstreamTooShort, err, "parse CWD")
	}
	p.c.NumSd = int(v)
	return nil
}

// parseNLT parses the nonlinearity marker: Tnlt:8, then Tnlt-specific
// fields whose length and packing depend on Tnlt, per section 4.7:
//
//	Tnlt=0 (linear): no further fields.
//	Tnlt=1: one 16-bit field packing sigma:1, alpha:15.
//	Tnlt=2: t1:32, t2:32, e:8.
//
// Only Tnlt=0 (linear) is used by the decode path; Tnlt=1/2 are recorded
// but not acted on, per section 9's documented permissive behavior.
func (p *headerParser) parseNLT() error {
	f := newFieldReader(p.r)
	tnlt := f.u(8)
	p.d.Tnlt = int(tnlt)
	switch tnlt {
	case 0:
		// No further fields.
	case 1:
		v := f.u(16)
		p.d.Sigma = int(v >> 15)
		p.d.Alpha = int(v & 0x7FFF)
	case 2:
		p.d.T1 = int(f.u(32))
		p.d.T2 = int(f.u(32))
		p.d.E = int(f.u(8))
	default:
		if f.err() != nil {
			return wrapKind(BitstreamTooShort, f.err(), "parse NLT")
		}
		return newKind(InvalidBitstream, fmt.Sprintf("unrecognised NLT type %d", tnlt))
	}
	if f.err() != nil {
		return wrapKind(BitstreamTooShort, f.err(), "parse NLT")
	}
	return nil
}

// parseCTS parses the color transform specification marker (mandatory when
// Cpih=3).
func (p *headerParser) parseCTS(payloadLen int) error {
	v, err := p.r.ReadBits(8)
	if err != nil {
		return wrapKind(BitstreamTooShort, err, "parse CTS")
	}
	p.d.Cf = int(v)
	if payloadLen > 1 {
		if err := p.r.Skip((payloadLen - 1) * 8); err != nil {
			return wrapKind(BitstreamTooShort, err, "skip CTS extra payload")
		}
	}
	return nil
}

// parseCRG parses the component registration marker (mandatory when
// Cpih=3): per component, Xcrg/Ycrg offsets.
func (p *headerParser) parseCRG() error {
	nc := p.c.Nc
	if nc == 0 {
		return newKind(InvalidBitstream, "CRG before PIH")
	}
	p.d.Xcrg = make([]int, nc)
	p.d.Ycrg = make([]int, nc)
	for i := 0; i < nc; i++ {
		f := newFieldReader(p.r)
		x := f.u(16)
		y := f.u(16)
		if f.err() != nil {
			return wrapKind(BitstreamTooShort, f.err(), "parse CRG component")
		}
		p.d.Xcrg[i] = int(x)
		p.d.Ycrg[i] = int(y)
	}
	return nil
}

// probeImageConfig parses only the fixed PIH/CDT portions of a codestream
// far enough to describe the image configuration, without requiring WGT or
// entropy-decoding anything, per section 4.3's "probe" contract.
func probeImageConfig(buf []byte, log Log) (*PictureHeaderConst, error) {
	p := newHeaderParser(buf, log)
	m, err := p.readMarker()
	if err != nil {
		return nil, err
	}
	if m != markerSOC {
		return nil, newKind(InvalidBitstream, "codestream does not begin with SOC")
	}
	for {
		if !p.r.EnoughBits(16) {
			return nil, newKind(BitstreamTooShort, "truncated before PIH")
		}
		m, err := p.readMarker()
		if err != nil {
			return nil, err
		}
		if m == markerPIH {
			length, err := p.readLen()
			if err != nil {
				return nil, err
			}
			if length-2 != pihPayloadLen {
				return nil, newKind(InvalidBitstream, "PIH payload length mismatch")
			}
			if err := p.parsePIH(); err != nil {
				return nil, err
			}
			return p.c, nil
		}
		if m == markerSLH || m == markerEOC {
			return nil, newKind(InvalidBitstream, "PIH not found before SLH/EOC")
		}
		length, err := p.readLen()
		if err != nil {
			return nil, err
		}
		if err := p.r.Skip((length - 2) * 8); err != nil {
			return nil, wrapKind(BitstreamTooShort, err, "skip marker during probe")
		}
	}
}
