/*
DESCRIPTION
  jxsmts.go wraps and unwraps JPEG XS codestreams in MPEG-TS, the way
  container/mts wraps H264/H265/JPEG/PCM/ADPCM elementary streams: a
  minimal single-program PAT/PMT, one elementary PID per JPEG XS stream,
  and PES packets carrying whole codestream frames with PTS stamping.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package jxsmts provides MPEG-TS muxing and demuxing for JPEG XS
// elementary streams.
package jxsmts

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"math/bits"
	"time"

	"github.com/Comcast/gots"
	gotspsi "github.com/Comcast/gots/psi"
	"github.com/pkg/errors"
)

// PacketSize is the fixed MPEG-TS packet size.
const PacketSize = 188

// HeadSize is the size of an MPEG-TS packet header, before any
// adaptation field or payload.
const HeadSize = 4

// Standard and assigned program IDs.
const (
	PatPid = 0
	PmtPid = 4096

	// JXSPid is the elementary PID this package assigns to a JPEG XS
	// stream when muxing. A demuxed stream's actual PID is read back from
	// its PMT rather than assumed to be this value.
	JXSPid = 256
)

// JXSStreamType is this implementation's stream_type value for a JPEG XS
// elementary stream in the PMT, analogous to container/mts's EncodeJPEG
// stream IDs. ISO/IEC 13818-1 reserves user-private values in the
// 0x80-0xFF range; 0xA1 is used here as an implementation-defined choice,
// not a registered value.
const JXSStreamType = 0xA1

// PTSFrequency is the 90kHz clock PES PTS fields are expressed in.
const PTSFrequency = 90000

// jxsStreamID is the PES stream_id this package uses for JPEG XS data,
// taken from the private_stream_1 range (section 2.4.3.7 of 13818-1).
const jxsStreamID = 0xBD

// crcSize is the trailing CRC32 on every PSI section.
const crcSize = 4

// Errors returned by the demuxer.
var (
	ErrShortPacket = errors.New("jxsmts: data shorter than one TS packet")
	ErrNoPAT       = errors.New("jxsmts: no PAT found")
	ErrNoPMT       = errors.New("jxsmts: no PMT found")
	ErrNoJXSStream = errors.New("jxsmts: no JPEG XS elementary stream in PMT")
)

// pid returns the 13-bit PID of one 188-byte TS packet.
func pid(p []byte) uint16 {
	return uint16(p[1]&0x1f)<<8 | uint16(p[2])
}

// payloadUnitStart reports the payload_unit_start_indicator bit.
func payloadUnitStart(p []byte) bool {
	return p[1]&0x40 != 0
}

// hasAdaptationField reports whether octet 3's adaptation_field_control
// indicates an adaptation field is present.
func hasAdaptationField(p []byte) bool {
	c := (p[3] & 0x30) >> 4
	return c == 2 || c == 3
}

// payload returns one TS packet's payload, skipping any adaptation field.
func payload(p []byte) ([]byte, error) {
	c := (p[3] & 0x30) >> 4
	if c == 2 {
		return nil, errors.New("jxsmts: packet has no payload")
	}
	off := HeadSize
	if hasAdaptationField(p) {
		off = HeadSize + 1 + int(p[4])
	}
	if off > len(p) {
		return nil, errors.New("jxsmts: adaptation field overruns packet")
	}
	return p[off:], nil
}

// findPid returns the first packet with the given PID, and its byte offset.
func findPid(d []byte, want uint16) ([]byte, int, error) {
	if len(d) < PacketSize {
		return nil, -1, ErrShortPacket
	}
	for i := 0; i+PacketSize <= len(d); i += PacketSize {
		if pid(d[i:i+PacketSize]) == want {
			return d[i : i+PacketSize], i, nil
		}
	}
	return nil, -1, fmt.Errorf("jxsmts: no packet with PID %d", want)
}

// jxsPID locates the JPEG XS elementary stream's PID by reading the PAT
// then the PMT it points to, using github.com/Comcast/gots/psi the same
// way container/mts's Programs/Streams helpers do.
func jxsPID(d []byte) (uint16, error) {
	patPkt, _, err := findPid(d, PatPid)
	if err != nil {
		return 0, errors.Wrap(ErrNoPAT, err.Error())
	}
	if gotspsi.TableID(patPkt[HeadSize+1:]) != 0x00 {
		return 0, errors.New("jxsmts: unexpected PAT table_id")
	}
	pat, err := gotspsi.NewPAT(patPkt)
	if err != nil {
		return 0, errors.Wrap(err, "parse PAT")
	}
	var pmtPID uint16
	for _, p := range pat.ProgramMap() {
		pmtPID = uint16(p)
		break
	}
	if pmtPID == 0 {
		return 0, ErrNoPAT
	}

	pmtPkt, _, err := findPid(d, pmtPID)
	if err != nil {
		return 0, errors.Wrap(ErrNoPMT, err.Error())
	}
	pay, err := payload(pmtPkt)
	if err != nil {
		return 0, errors.Wrap(err, "PMT payload")
	}
	pmt, err := gotspsi.NewPMT(pay)
	if err != nil {
		return 0, errors.Wrap(err, "parse PMT")
	}
	for _, s := range pmt.ElementaryStreams() {
		if s.StreamType() == JXSStreamType {
			return uint16(s.ElementaryPid()), nil
		}
	}
	return 0, ErrNoJXSStream
}

// Frames demuxes every complete JPEG XS codestream frame from an MPEG-TS
// buffer d, in presentation order. Each returned []byte is one PES
// payload's worth of elementary stream data, i.e. one codestream suitable
// for jpegxs.Decoder.SendFrame.
func Frames(d []byte) ([][]byte, error) {
	target, err := jxsPID(d)
	if err != nil {
		return nil, err
	}

	var frames [][]byte
	var cur []byte
	flush := func() {
		if len(cur) > 0 {
			frames = append(frames, cur)
			cur = nil
		}
	}

	for i := 0; i+PacketSize <= len(d); i += PacketSize {
		pkt := d[i : i+PacketSize]
		if pid(pkt) != target {
			continue
		}
		pay, err := payload(pkt)
		if err != nil {
			continue
		}
		if payloadUnitStart(pkt) {
			flush()
			pay = stripPESHeader(pay)
		}
		cur = append(cur, pay...)
	}
	flush()
	return frames, nil
}

// stripPESHeader removes a PES packet's fixed and optional headers,
// returning just the elementary stream data, per the PES layout described
// in container/mts/pes.
func stripPESHeader(p []byte) []byte {
	if len(p) < 9 || p[0] != 0x00 || p[1] != 0x00 || p[2] != 0x01 {
		return p
	}
	headerLen := int(p[8])
	start := 9 + headerLen
	if start > len(p) {
		return nil
	}
	return p[start:]
}

// Muxer wraps JPEG XS codestream frames into an MPEG-TS byte stream,
// written to dst, for producing test fixtures and for symmetry with
// Frames. It is not a requirement of the decoder itself.
type Muxer struct {
	dst io.Writer
	cc  map[uint16]byte

	pktSincePSI int
	patBytes    []byte
	pmtBytes    []byte
}

// psiSendInterval mirrors container/mts's psiSendCount: PAT/PMT are
// repeated every this many elementary-stream packets.
const psiSendInterval = 7

// NewMuxer returns a Muxer that writes a single-program, single-stream
// MPEG-TS to dst, with one JPEG XS elementary stream at JXSPid.
func NewMuxer(dst io.Writer) *Muxer {
	m := &Muxer{
		dst: dst,
		cc:  map[uint16]byte{PatPid: 0, PmtPid: 0, JXSPid: 0},
	}
	m.patBytes = buildPAT()
	m.pmtBytes = buildPMT()
	return m
}

// WriteFrame packetizes one codestream frame into PES then TS packets,
// stamping pts (relative to the stream's start) into the PES header, and
// emits a fresh PAT/PMT first if psiSendInterval packets have elapsed.
func (m *Muxer) WriteFrame(codestream []byte, pts time.Duration) error {
	if m.pktSincePSI == 0 {
		if err := m.writeTable(PatPid, m.patBytes); err != nil {
			return err
		}
		if err := m.writeTable(PmtPid, m.pmtBytes); err != nil {
			return err
		}
	}

	pesPTS := uint64(pts*time.Duration(PTSFrequency)/time.Second) & (1<<33 - 1)
	pes := buildPES(codestream, pesPTS)

	first := true
	for len(pes) > 0 {
		n := PacketSize - HeadSize
		if n > len(pes) {
			n = len(pes)
		}
		chunk := pes[:n]
		pes = pes[n:]

		pkt := make([]byte, PacketSize)
		writeTSHeader(pkt, JXSPid, first, m.nextCC(JXSPid))
		copy(pkt[HeadSize:], chunk)
		for i := HeadSize + len(chunk); i < PacketSize; i++ {
			pkt[i] = 0xff
		}
		if _, err := m.dst.Write(pkt); err != nil {
			return err
		}
		first = false
	}

	m.pktSincePSI++
	if m.pktSincePSI >= psiSendInterval {
		m.pktSincePSI = 0
	}
	return nil
}

func (m *Muxer) writeTable(p uint16, table []byte) error {
	pkt := make([]byte, PacketSize)
	writeTSHeader(pkt, p, true, m.nextCC(p))
	pkt[HeadSize] = 0x00 // pointer_field
	copy(pkt[HeadSize+1:], table)
	for i := HeadSize + 1 + len(table); i < PacketSize; i++ {
		pkt[i] = 0xff
	}
	_, err := m.dst.Write(pkt)
	return err
}

func (m *Muxer) nextCC(p uint16) byte {
	cc := m.cc[p] & 0xf
	m.cc[p] = (cc + 1) & 0xf
	return cc
}

// writeTSHeader fills pkt[0:4] with a standard TS header for PID p.
func writeTSHeader(pkt []byte, p uint16, unitStart bool, cc byte) {
	pkt[0] = 0x47
	pkt[1] = byte(p >> 8 & 0x1f)
	if unitStart {
		pkt[1] |= 0x40
	}
	pkt[2] = byte(p & 0xff)
	pkt[3] = 0x10 | (cc & 0xf) // payload only, no adaptation field.
}

// buildPES wraps data in a minimal PES header using jxsStreamID and a PTS
// stamped via github.com/Comcast/gots's InsertPTS, the same helper
// container/mts/pes uses for its own PES timestamp encoding.
func buildPES(data []byte, pts uint64) []byte {
	buf := make([]byte, 9, 9+5+len(data))
	buf[0], buf[1], buf[2] = 0x00, 0x00, 0x01
	buf[3] = jxsStreamID
	length := len(data) + 5
	if length > 0xffff {
		length = 0 // PES_packet_length of 0 means "unbounded", valid for video.
	}
	buf[4] = byte(length >> 8)
	buf[5] = byte(length)
	buf[6] = 0x80
	buf[7] = 0x80 // PTS only.
	buf[8] = 5
	buf = buf[:9+5]
	gots.InsertPTS(buf[9:], pts)
	return append(buf, data...)
}

// buildPAT builds a minimal single-program PAT section.
func buildPAT() []byte {
	section := []byte{
		0x00,       // table_id
		0xb0, 0x0d, // section_syntax_indicator|1|reserved|section_length (13)
		0x00, 0x01, // transport_stream_id
		0xc1,       // reserved|version|current_next_indicator
		0x00, 0x00, // section_number, last_section_number
		0x00, 0x01, // program_number 1
		0xe0 | byte(PmtPid>>8), byte(PmtPid), // reserved|PMT PID
	}
	return appendCRC(section)
}

// buildPMT builds a minimal single-stream PMT section for the JPEG XS
// elementary stream at JXSPid.
func buildPMT() []byte {
	section := []byte{
		0x02,       // table_id
		0xb0, 0x12, // section_syntax_indicator|1|reserved|section_length (18)
		0x00, 0x01, // program_number
		0xc1,       // reserved|version|current_next_indicator
		0x00, 0x00, // section_number, last_section_number
		0xe0 | byte(JXSPid>>8), byte(JXSPid), // reserved|PCR_PID
		0xf0, 0x00, // reserved|program_info_length (0)
		JXSStreamType,
		0xe0 | byte(JXSPid>>8), byte(JXSPid), // reserved|elementary_PID
		0xf0, 0x00, // reserved|ES_info_length (0)
	}
	return appendCRC(section)
}

// appendCRC appends the MPEG-2 CRC32 (as used by every PSI section) to
// section, covering every byte except the four it adds.
func appendCRC(section []byte) []byte {
	t := make([]byte, len(section)+crcSize)
	copy(t, section)
	tbl := crc32.MakeTable(bits.Reverse32(crc32.IEEE))
	sum := crc32.Update(0xffffffff, tbl, t[:len(t)-crcSize])
	binary.BigEndian.PutUint32(t[len(t)-crcSize:], sum)
	return t
}
