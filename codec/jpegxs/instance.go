/*
DESCRIPTION
  instance.go implements DecoderInstance, the per-in-flight-frame state
  described in section 3/5 of the ISO/IEC 21122 decoder design: a
  coefficient store, per-slice synchronization variables, and (when
  Cpih!=0) a full-frame intermediate buffer per component.

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

import "sync"

// sliceState is the three-valued state of a slice's decode-done condition
// variable, per section 5.
type sliceState int32

const (
	sliceInit sliceState = iota
	sliceOK
	sliceError
)

// sliceSync is one slice's condition variable: INIT -> OK happens after the
// slice's second precinct row has been decoded; INIT -> ERROR happens on
// any slice-local failure. Waiters never block past a terminal state.
type sliceSync struct {
	mu    sync.Mutex
	cond  *sync.Cond
	state sliceState
	err   error
}

func newSliceSync() *sliceSync {
	s := &sliceSync{state: sliceInit}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// markReady transitions INIT -> OK. A no-op if already terminal.
func (s *sliceSync) markReady() {
	s.mu.Lock()
	if s.state == sliceInit {
		s.state = sliceOK
	}
	s.mu.Unlock()
	s.cond.Broadcast()
}

// markError transitions to ERROR, recording err.
func (s *sliceSync) markError(err error) {
	s.mu.Lock()
	s.state = sliceError
	s.err = err
	s.mu.Unlock()
	s.cond.Broadcast()
}

// wait blocks until the state is OK or ERROR.
func (s *sliceSync) wait() (sliceState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.state == sliceInit {
		s.cond.Wait()
	}
	return s.state, s.err
}

// DecoderInstance owns everything needed to decode one in-flight frame: a
// frame-wide coefficient store, the picture header pair it was parsed
// against, per-slice synchronization, and (for Cpih!=0) a full-frame
// []int32 intermediate buffer per component for the color transform.
type DecoderInstance struct {
	pi  *PictureInfo
	c   *PictureHeaderConst
	dyn *PictureHeaderDynamic

	coeffs *FrameCoefficientStore

	sliceSync []*sliceSync

	// planes holds one full-frame []int32 per component, populated by
	// Final once every slice has been IDWT'd, used only when Cpih != 0.
	planes [][]int32

	frameNum int64
}

// newDecoderInstance returns an unconfigured, reusable DecoderInstance.
func newDecoderInstance() *DecoderInstance {
	return &DecoderInstance{}
}

// reset reconfigures the instance for a new frame's header pair, replacing
// (and resizing, if needed) its coefficient store and slice sync vars.
func (d *DecoderInstance) reset(c *PictureHeaderConst, dyn *PictureHeaderDynamic, pi *PictureInfo, frameNum int64) {
	d.c = c
	d.dyn = dyn
	d.pi = pi
	d.frameNum = frameNum
	d.coeffs = newFrameCoefficientStore(pi, pi.PrecinctsPerCol)

	d.sliceSync = make([]*sliceSync, pi.SlicesNum)
	for i := range d.sliceSync {
		d.sliceSync[i] = newSliceSync()
	}

	if c.Cpih != 0 {
		d.planes = make([][]int32, c.Nc)
		for i, comp := range pi.Components {
			d.planes[i] = make([]int32, comp.Width*comp.Height)
		}
	} else {
		d.planes = nil
	}
}

// sliceAt returns the slice index a given precinct row belongs to.
func (d *DecoderInstance) sliceAt(precinctRow int) int {
	return precinctRow / d.pi.PrecinctsPerSlice
}
