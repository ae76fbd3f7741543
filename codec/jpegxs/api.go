/*
DESCRIPTION
  api.go implements the public control surface described in sections 4.9
  and 6 of the ISO/IEC 21122 decoder design: get_single_frame_size, init,
  send_frame, send_packet, send_eoc, get_frame, and close, plus the Frame
  and OutputImageConfig types that cross the boundary.

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
	"github.com/ausocean/jpegxs/codec/jpegxs/config"
)

// APIMajor and APIMinor are this build's supported control-surface version.
// Init rejects any caller requesting a different major version.
const (
	APIMajor = 1
	APIMinor = 0
)

// OutputImageConfig describes an output frame's geometry, derived from the
// stream's const picture header.
type OutputImageConfig struct {
	Width, Height int
	Components    int
	BitDepth      []int
	Sx, Sy        []int
}

// imageConfigFromConst derives an OutputImageConfig from a validated const
// picture header.
func imageConfigFromConst(c *PictureHeaderConst) OutputImageConfig {
	bd := make([]int, len(c.BitDepth))
	copy(bd, c.BitDepth)
	sx := make([]int, len(c.Sx))
	copy(sx, c.Sx)
	sy := make([]int, len(c.Sy))
	copy(sy, c.Sy)
	return OutputImageConfig{
		Width: c.W, Height: c.H, Components: c.Nc,
		BitDepth: bd, Sx: sx, Sy: sy,
	}
}

// Frame is one decoded frame: native-bit-depth planar samples, one plane
// per component in component order, plus the geometry they were decoded
// against.
type Frame struct {
	FrameNum int64
	Config   OutputImageConfig
	Planes   [][]uint16
}

// logFromLogger adapts a config.Config's logging.Logger (the ambient
// stack's wider logging interface) down to the package-internal Log
// callback used by the header parser and entropy decoder.
func logFromLogger(cfg config.Config) Log {
	if cfg.Logger == nil {
		return nil
	}
	return func(lvl int8, msg string, args ...interface{}) {
		cfg.Logger.Log(lvl, msg, args...)
	}
}

// GetSingleFrameSize returns the const picture header and, unless fast is
// true, the exact byte size of the next complete frame in buf, per section
// 4.9. fast trades an exact size for speed, probing only PIH/CDT and
// returning a size of 0.
func GetSingleFrameSize(buf []byte, cfg config.Config, fast bool) (*OutputImageConfig, int, ErrorKind) {
	c, size, err := getSingleFrameSize(buf, logFromLogger(cfg), fast)
	if err != nil {
		return nil, 0, kindOf(err)
	}
	out := imageConfigFromConst(c)
	return &out, size, None
}

// Init validates apiMajor/apiMinor and cfg, parses the first frame's
// header from buf to derive the stream's output image configuration, and
// starts the decoder's scheduler goroutines, per section 6.
func Init(apiMajor, apiMinor int, cfg config.Config, buf []byte) (*Decoder, *OutputImageConfig, ErrorKind) {
	if apiMajor != APIMajor {
		return nil, nil, InvalidAPIVersion
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, kindOf(err)
	}
	log := logFromLogger(cfg)

	c, dyn, _, err := newHeaderParser(buf, log).parse()
	if err != nil {
		return nil, nil, kindOf(err)
	}
	if err := c.validate(); err != nil {
		return nil, nil, kindOf(err)
	}
	if err := dyn.validate(); err != nil {
		return nil, nil, kindOf(err)
	}
	if cfg.PacketizationMode == config.PacketizationPacket && dyn.Lcod == 0 {
		return nil, nil, BadParameter
	}

	d := newDecoder(cfg, log)
	d.headerMu.Lock()
	d.constHeader = c
	d.headerMu.Unlock()

	out := imageConfigFromConst(c)
	logf(log, logInfo, "jpegxs: decoder initialized", "width", c.W, "height", c.H, "components", c.Nc)
	return d, &out, None
}

// SendFrame queues one complete codestream buffer for decoding, valid only
// when cfg.PacketizationMode is PacketizationFrame. If blocking is false
// and the Init-stage queue is full, InsufficientResources is returned
// immediately instead of blocking.
func (d *Decoder) SendFrame(buf []byte, blocking bool) ErrorKind {
	if len(buf) == 0 {
		return InvalidPointer
	}
	if blocking {
		select {
		case d.inputQ <- buf:
			return None
		case <-d.stopCh:
			return DecoderInternal
		}
	}
	select {
	case d.inputQ <- buf:
		return None
	default:
		return InsufficientResources
	}
}

// SendPacket accumulates one bitstream chunk, valid only when
// cfg.PacketizationMode is PacketizationPacket (constant-bitrate streams
// only). Once enough bytes have accumulated to cover the declared Lcod,
// the buffered frame is dispatched directly to the Universal queue without
// an Init-stage round trip, per section 4.9.
func (d *Decoder) SendPacket(chunk []byte) ErrorKind {
	if len(chunk) == 0 {
		return InvalidPointer
	}
	d.packetMu.Lock()
	defer d.packetMu.Unlock()

	d.packetBuf = append(d.packetBuf, chunk...)

	_, dyn, _, err := newHeaderParser(d.packetBuf, d.log).parse()
	if err != nil {
		if kindOf(err) == BitstreamTooShort {
			return None
		}
		return kindOf(err)
	}
	if dyn.Lcod == 0 {
		return BadParameter
	}
	if len(d.packetBuf) < dyn.Lcod {
		return None
	}

	frameBuf := d.packetBuf[:dyn.Lcod]
	d.packetBuf = append([]byte(nil), d.packetBuf[dyn.Lcod:]...)
	if err := d.dispatchFrame(frameBuf); err != nil {
		return kindOf(err)
	}
	return None
}

// SendEOC signals end of codestream: no further SendFrame/SendPacket calls
// will be made, and GetFrame should return EndOfCodestream once every
// already-queued frame has drained.
func (d *Decoder) SendEOC() ErrorKind {
	d.eocMu.Lock()
	d.eocSent = true
	d.eocMu.Unlock()
	return None
}

// GetFrame pops the next frame in frame_num order. If blocking is false and
// no frame is ready, NoErrorEmptyQueue is returned immediately. Once
// SendEOC has been observed and the output queue is drained,
// EndOfCodestream is returned instead.
func (d *Decoder) GetFrame(blocking bool) (*Frame, ErrorKind) {
	if blocking {
		select {
		case f := <-d.outputQ:
			return f, None
		case err := <-d.errQ:
			return nil, kindOf(err)
		case <-d.stopCh:
			return nil, DecoderInternal
		}
	}
	select {
	case f := <-d.outputQ:
		return f, None
	case err := <-d.errQ:
		return nil, kindOf(err)
	default:
	}
	d.eocMu.Lock()
	eoc := d.eocSent
	d.eocMu.Unlock()
	if eoc {
		return nil, EndOfCodestream
	}
	return nil, NoErrorEmptyQueue
}

// Close stops every scheduler goroutine. The Decoder must not be used
// afterward.
func (d *Decoder) Close() ErrorKind {
	d.close()
	return None
}
