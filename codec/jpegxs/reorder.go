/*
DESCRIPTION
  reorder.go implements ReorderRing, the fixed-size output reorder ring
  described in sections 3/5 of the ISO/IEC 21122 decoder design: Final
  aggregates completed slices into the slot indexed by
  sync_output_frame_idx, and drains contiguous ready slots in frame_num
  order.

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

// ringSlot is one reorder-ring slot.
type ringSlot struct {
	inUse          bool
	frameNum       int64
	totalSlices    int
	receivedSlices int
	err            error
	ready          bool
	instance       *DecoderInstance
	frame          *Frame
}

// ReorderRing is a ring of output slots, sized N+DefaultRingSize per
// section 5, guarded by a "slot available" condition variable.
type ReorderRing struct {
	mu      sync.Mutex
	cond    *sync.Cond
	slots   []ringSlot
	beginID int64 // Oldest not-yet-drained frame_num.
}

// newReorderRing returns a ReorderRing with size slots.
func newReorderRing(size int) *ReorderRing {
	r := &ReorderRing{slots: make([]ringSlot, size)}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// acquire blocks until the slot for frameNum is free, then claims it for
// inst with the given expected slice count.
func (r *ReorderRing) acquire(frameNum int64, totalSlices int, inst *DecoderInstance) int {
	idx := int(frameNum % int64(len(r.slots)))
	r.mu.Lock()
	for r.slots[idx].inUse {
		r.cond.Wait()
	}
	r.slots[idx] = ringSlot{inUse: true, frameNum: frameNum, totalSlices: totalSlices, instance: inst}
	r.mu.Unlock()
	return idx
}

// completeSlice records one slice's completion (or error) for the slot at
// idx, returning true exactly once, when the slot transitions to ready.
func (r *ReorderRing) completeSlice(idx int, sliceErr error) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := &r.slots[idx]
	if sliceErr != nil && s.err == nil {
		s.err = sliceErr
	}
	s.receivedSlices++
	if s.receivedSlices >= s.totalSlices && !s.ready {
		s.ready = true
		return true
	}
	return false
}

// setFrame attaches the finished output descriptor to the slot at idx.
func (r *ReorderRing) setFrame(idx int, f *Frame) {
	r.mu.Lock()
	r.slots[idx].frame = f
	r.mu.Unlock()
}

// setError records a post-completion failure (e.g. reconstruction) for the
// already-ready slot at idx, without touching its slice-completion count.
func (r *ReorderRing) setError(idx int, err error) {
	r.mu.Lock()
	if r.slots[idx].err == nil {
		r.slots[idx].err = err
	}
	r.mu.Unlock()
}

// instanceAt returns the DecoderInstance claiming slot idx.
func (r *ReorderRing) instanceAt(idx int) *DecoderInstance {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.slots[idx].instance
}

// errAt returns the recorded error, if any, for slot idx.
func (r *ReorderRing) errAt(idx int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.slots[idx].err
}

// drain pushes every contiguous ready slot starting at beginID to out (or
// errOut, for a failed slice) in frame_num order, freeing each slot and
// waking any Init goroutine waiting for a slot.
func (r *ReorderRing) drain(out chan<- *Frame, errOut chan<- error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for {
		idx := int(r.beginID % int64(len(r.slots)))
		s := &r.slots[idx]
		if !s.inUse || !s.ready {
			return
		}
		if s.err != nil {
			errOut <- s.err
		} else {
			out <- s.frame
		}
		*s = ringSlot{}
		r.beginID++
		r.cond.Broadcast()
	}
}
