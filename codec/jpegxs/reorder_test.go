/*
DESCRIPTION
  reorder_test.go contains testing for functionality found in reorder.go.

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
	"testing"
)

func TestReorderRingCompleteAndDrainInOrder(t *testing.T) {
	r := newReorderRing(4)

	idx1 := r.acquire(1, 1, nil)
	idx0 := r.acquire(0, 2, nil)

	// Frame 1 finishes first, but must not drain before frame 0.
	if !r.completeSlice(idx1, nil) {
		t.Fatal("completeSlice should report ready on the only expected slice")
	}
	r.setFrame(idx1, &Frame{FrameNum: 1})

	out := make(chan *Frame, 4)
	errOut := make(chan error, 4)
	r.drain(out, errOut)
	select {
	case <-out:
		t.Fatal("frame 1 drained before frame 0 was ready")
	default:
	}

	// Frame 0 needs two slices.
	if r.completeSlice(idx0, nil) {
		t.Fatal("completeSlice should not report ready after only 1 of 2 slices")
	}
	if !r.completeSlice(idx0, nil) {
		t.Fatal("completeSlice should report ready after the 2nd of 2 slices")
	}
	r.setFrame(idx0, &Frame{FrameNum: 0})

	r.drain(out, errOut)
	f0 := <-out
	f1 := <-out
	if f0.FrameNum != 0 || f1.FrameNum != 1 {
		t.Errorf("drained frames out of order: got %d then %d, want 0 then 1", f0.FrameNum, f1.FrameNum)
	}
}

func TestReorderRingErrorPropagation(t *testing.T) {
	r := newReorderRing(2)
	idx := r.acquire(0, 1, nil)

	wantErr := newKind(InvalidBitstream, "boom")
	if !r.completeSlice(idx, wantErr) {
		t.Fatal("completeSlice should report ready")
	}

	out := make(chan *Frame, 1)
	errOut := make(chan error, 1)
	r.drain(out, errOut)

	select {
	case err := <-errOut:
		if kindOf(err) != InvalidBitstream {
			t.Errorf("kindOf(err) = %v, want InvalidBitstream", kindOf(err))
		}
	default:
		t.Fatal("expected an error on errOut")
	}
}

func TestReorderRingSetErrorAfterReady(t *testing.T) {
	r := newReorderRing(2)
	idx := r.acquire(0, 1, nil)
	if !r.completeSlice(idx, nil) {
		t.Fatal("completeSlice should report ready")
	}
	r.setError(idx, newKind(DecoderInternal, "reconstruction failed"))

	if kindOf(r.errAt(idx)) != DecoderInternal {
		t.Errorf("errAt after setError = %v, want DecoderInternal", kindOf(r.errAt(idx)))
	}
}
