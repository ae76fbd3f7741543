/*
DESCRIPTION
  scheduler.go implements the three-stage decoder scheduler described in
  sections 4.8 and 5 of the ISO/IEC 21122 decoder design: an Init stage that
  parses headers and discovers slice boundaries, a pool of Universal workers
  that entropy-decode and dequantize each slice, and a Final stage that
  reconstructs, color-transforms and reorders completed frames.

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
	"sync"
	"sync/atomic"

	"github.com/ausocean/jpegxs/codec/jpegxs/bits"
	"github.com/ausocean/jpegxs/codec/jpegxs/config"
)

// universalTask is one slice's work item, queued by Init (or dispatchFrame
// directly, in packet mode) for a Universal worker to decode.
type universalTask struct {
	inst    *DecoderInstance
	buf     []byte
	rng     sliceRange
	ringIdx int
}

// finalMsg notifies Final that a ring slot has become ready (every slice
// received, successfully or not).
type finalMsg struct {
	ringIdx int
	err     error
}

// Decoder owns the full three-stage scheduler for one decode session:
// an instance pool, a reorder ring, and the Init/Universal/Final
// goroutines that move frames through them, per section 5.
type Decoder struct {
	cfg config.Config
	log Log

	headerMu    sync.Mutex
	constHeader *PictureHeaderConst

	instancePool chan *DecoderInstance
	ring         *ReorderRing

	inputQ     chan []byte
	universalQ chan universalTask
	finalQ     chan finalMsg
	outputQ    chan *Frame
	errQ       chan error

	nextFrameNum int64

	packetMu  sync.Mutex
	packetBuf []byte

	wg     sync.WaitGroup
	stopCh chan struct{}

	eocMu   sync.Mutex
	eocSent bool
}

// newDecoder allocates and starts a Decoder's scheduler goroutines.
func newDecoder(cfg config.Config, log Log) *Decoder {
	n := cfg.WorkerCount()
	ringSize := n + int(cfg.RingSize)
	qCap := 2*n + 10

	d := &Decoder{
		cfg:          cfg,
		log:          log,
		instancePool: make(chan *DecoderInstance, cfg.InstancePoolSize),
		ring:         newReorderRing(ringSize),
		inputQ:       make(chan []byte, qCap),
		universalQ:   make(chan universalTask, n),
		finalQ:       make(chan finalMsg, qCap),
		outputQ:      make(chan *Frame, qCap),
		errQ:         make(chan error, qCap),
		stopCh:       make(chan struct{}),
	}
	for i := uint(0); i < cfg.InstancePoolSize; i++ {
		d.instancePool <- newDecoderInstance()
	}

	d.wg.Add(2 + n)
	go d.runInit()
	for i := 0; i < n; i++ {
		go d.runUniversal()
	}
	go d.runFinal()

	return d
}

// close stops every scheduler goroutine and releases queued resources. It
// does not drain in-flight frames; callers that need a clean shutdown
// should first observe EndOfCodestream from GetFrame.
func (d *Decoder) close() {
	close(d.stopCh)
	d.wg.Wait()
}

// runInit is the Init stage: it receives whole-frame buffers from inputQ
// (frame-packetization mode only; packet mode calls dispatchFrame directly
// from SendPacket), parses the picture header, derives PI, acquires an
// instance and a reorder-ring slot, walks slice boundaries, and dispatches
// one universalTask per slice.
func (d *Decoder) runInit() {
	defer d.wg.Done()
	for {
		select {
		case <-d.stopCh:
			return
		case buf, ok := <-d.inputQ:
			if !ok {
				return
			}
			logf(d.log, logDebug, "jpegxs: init stage dispatching frame", "bytes", len(buf))
			if err := d.dispatchFrame(buf); err != nil {
				logf(d.log, logWarning, "jpegxs: frame dispatch failed", "err", err)
			}
		}
	}
}

// dispatchFrame parses one complete frame buffer's header, derives PI,
// claims an instance and reorder-ring slot, walks its slice boundaries, and
// queues one universalTask per slice. Any header or slice-locating failure
// is instead injected as a synthetic one-slice error task, per section
// 4.8, so the reorder ring still advances past the bad frame.
func (d *Decoder) dispatchFrame(buf []byte) error {
	c, dyn, slhOffset, err := newHeaderParser(buf, d.log).parse()
	if err != nil {
		return d.injectFrameError(err)
	}
	if err := c.validate(); err != nil {
		return d.injectFrameError(err)
	}
	if err := dyn.validate(); err != nil {
		return d.injectFrameError(err)
	}

	d.headerMu.Lock()
	if d.constHeader == nil {
		d.constHeader = c
	} else if !sameConstHeader(d.constHeader, c) {
		d.headerMu.Unlock()
		return d.injectFrameError(newKind(DecoderConfigChange, "picture header changed mid-stream"))
	}
	d.headerMu.Unlock()

	pi, err := buildPI(c)
	if err != nil {
		return d.injectFrameError(err)
	}

	slices, _, err := walkSlices(buf, slhOffset, pi, c)
	if err != nil {
		return d.injectFrameError(err)
	}

	inst := <-d.instancePool
	frameNum := atomic.AddInt64(&d.nextFrameNum, 1) - 1
	inst.reset(c, dyn, pi, frameNum)

	ringIdx := d.ring.acquire(frameNum, len(slices), inst)
	for _, sl := range slices {
		select {
		case d.universalQ <- universalTask{inst: inst, buf: buf, rng: sl, ringIdx: ringIdx}:
		case <-d.stopCh:
			return nil
		}
	}
	return nil
}

// injectFrameError claims one instance and a one-slice reorder-ring slot
// purely to carry err through to Final/drain in frame_num order, per
// section 4.8's handling of header-stage failures.
func (d *Decoder) injectFrameError(err error) error {
	inst := <-d.instancePool
	frameNum := atomic.AddInt64(&d.nextFrameNum, 1) - 1
	ringIdx := d.ring.acquire(frameNum, 1, inst)
	if d.ring.completeSlice(ringIdx, err) {
		select {
		case d.finalQ <- finalMsg{ringIdx: ringIdx, err: err}:
		case <-d.stopCh:
		}
	}
	return err
}

// sameConstHeader reports whether two const picture headers describe the
// same stream configuration, per the DecoderConfigChange invariant of
// section 3.
func sameConstHeader(a, b *PictureHeaderConst) bool {
	if a.W != b.W || a.H != b.H || a.Ppoc != b.Ppoc || a.Hsl != b.Hsl || a.Nc != b.Nc ||
		a.DecomH != b.DecomH || a.DecomV != b.DecomV || a.Cpih != b.Cpih {
		return false
	}
	for i := 0; i < a.Nc; i++ {
		if a.BitDepth[i] != b.BitDepth[i] || a.Sx[i] != b.Sx[i] || a.Sy[i] != b.Sy[i] {
			return false
		}
	}
	return true
}

// runUniversal is one Universal worker: it decodes and dequantizes whole
// slices from universalQ, forwarding the ring slot to Final exactly once,
// when the slot's last outstanding slice completes.
func (d *Decoder) runUniversal() {
	defer d.wg.Done()
	for {
		select {
		case <-d.stopCh:
			return
		case task, ok := <-d.universalQ:
			if !ok {
				return
			}
			err := d.decodeSlice(task)
			if d.ring.completeSlice(task.ringIdx, err) {
				select {
				case d.finalQ <- finalMsg{ringIdx: task.ringIdx, err: d.ring.errAt(task.ringIdx)}:
				case <-d.stopCh:
					return
				}
			}
		}
	}
}

// decodeSlice entropy-decodes and dequantizes every precinct of one slice,
// left to right then top to bottom, ring-swapping the previous column's
// PrecinctState for vertical-prediction GCLI decoding. For decom_v != 0
// streams it then waits on the next slice's sliceSync, implementing the
// cross-slice handshake of section 4.8: the actual inverse transform runs
// once per frame over the whole coefficient store in Final (section 4.6),
// since FrameCoefficientStore is already frame-wide, but the handshake that
// would gate per-row recomputation is preserved here so a slice never
// reports done to Final before the slice below it has begun decoding.
func (d *Decoder) decodeSlice(task universalTask) error {
	inst := task.inst
	pi := inst.pi
	r := bits.New(task.buf[task.rng.start:task.rng.end])

	rowsInSlice := inst.c.Hsl
	globalRowStart := task.rng.id * inst.c.Hsl
	if globalRowStart+rowsInSlice > pi.PrecinctsPerCol {
		rowsInSlice = pi.PrecinctsPerCol - globalRowStart
	}

	normalGeom := pi.Variants[VariantNormal].Geom
	colOffsets := make([][]int, len(normalGeom))
	for ci, bands := range normalGeom {
		colOffsets[ci] = make([]int, len(bands))
	}

	var states [2]*PrecinctState
	for row := 0; row < rowsInSlice; row++ {
		globalRow := globalRowStart + row
		for ci := range colOffsets {
			for bi := range colOffsets[ci] {
				colOffsets[ci][bi] = 0
			}
		}

		for col := 0; col < pi.PrecinctsPerLine; col++ {
			variant := selectVariant(pi, col, globalRow)
			cur := newPrecinctState(variant)
			var prev *PrecinctState
			if col > 0 {
				prev = states[(col-1)%2]
			}
			firstOfSlice := row == 0

			if err := decodePrecinct(r, pi, inst.dyn, variant, inst.coeffs, globalRow, colOffsets, prev, cur, firstOfSlice, d.log); err != nil {
				inst.sliceSync[task.rng.id].markError(err)
				return err
			}
			dequantizePrecinct(inst.dyn, variant, inst.coeffs, globalRow, colOffsets, cur)
			states[col%2] = cur

			for ci, bands := range variant.Geom {
				for bi := range bands {
					colOffsets[ci][bi] += normalGeom[ci][bi].Width
				}
			}
		}

		if row == 1 {
			inst.sliceSync[task.rng.id].markReady()
		}
	}
	inst.sliceSync[task.rng.id].markReady()

	if inst.c.DecomV != 0 && task.rng.id+1 < len(inst.sliceSync) {
		if state, err := inst.sliceSync[task.rng.id+1].wait(); state == sliceError {
			return err
		}
	}
	return nil
}

// runFinal is the Final stage: once a ring slot's every slice has
// completed, it runs the full-frame inverse DWT, inverse nonlinearity, and
// inverse color transform, attaches the output Frame to the slot, releases
// the instance back to the pool, and drains every now-contiguous ring slot
// to outputQ/errQ.
func (d *Decoder) runFinal() {
	defer d.wg.Done()
	for {
		select {
		case <-d.stopCh:
			return
		case msg, ok := <-d.finalQ:
			if !ok {
				return
			}
			inst := d.ring.instanceAt(msg.ringIdx)
			if msg.err == nil {
				if f, err := d.reconstructFrame(inst); err != nil {
					d.ring.setError(msg.ringIdx, err)
				} else {
					d.ring.setFrame(msg.ringIdx, f)
				}
			}
			if inst != nil {
				select {
				case d.instancePool <- inst:
				case <-d.stopCh:
					return
				}
			}
			d.ring.drain(d.outputQ, d.errQ)
		}
	}
}

// reconstructFrame runs the inverse DWT over every band of every
// component, then (for Cpih != 0) the inverse nonlinearity and inverse
// color transform, producing the output Frame.
func (d *Decoder) reconstructFrame(inst *DecoderInstance) (*Frame, error) {
	pi := inst.pi
	c := inst.c

	// inst.planes is a pre-sized, pool-reused buffer for Cpih != 0 streams
	// (the only case the color transform needs all components' full
	// planes together); otherwise each component's reconstruction is
	// independent and a fresh slice per call is simplest.
	planes := inst.planes
	if planes == nil {
		planes = make([][]int32, c.Nc)
	}
	for ci, comp := range pi.Components {
		bandData := make([][]int32, len(comp.Bands))
		for bi, band := range comp.Bands {
			bandData[bi] = inst.coeffs.FullBand(ci, bi, pi.PrecinctsPerCol, band.Width, band.Height, band.HeightLines)
		}
		rec := idwtReconstructComponent(comp.Bands, bandData)
		if len(planes[ci]) == len(rec) {
			copy(planes[ci], rec)
		} else {
			planes[ci] = rec
		}
	}

	if c.Cpih != 0 {
		if err := inverseColorTransform(c.Cpih, planes, inst.dyn); err != nil {
			return nil, err
		}
	}

	out := make([][]uint16, c.Nc)
	for ci, comp := range pi.Components {
		depth := c.BitDepth[ci]
		if err := inverseNLT(planes[ci], inst.dyn.Tnlt, inst.dyn.Bw, depth); err != nil {
			return nil, err
		}
		row := make([]uint16, comp.Width*comp.Height)
		for i, v := range planes[ci] {
			row[i] = uint16(v)
		}
		out[ci] = row
	}

	return &Frame{
		FrameNum: inst.frameNum,
		Config:   imageConfigFromConst(c),
		Planes:   out,
	}, nil
}
