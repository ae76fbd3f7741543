/*
DESCRIPTION
  instance_test.go contains testing for functionality found in instance.go.

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
	"time"
)

func TestSliceSyncMarkReadyUnblocksWaiters(t *testing.T) {
	s := newSliceSync()
	done := make(chan sliceState, 1)
	go func() {
		state, _ := s.wait()
		done <- state
	}()

	s.markReady()
	select {
	case state := <-done:
		if state != sliceOK {
			t.Errorf("wait() returned %v, want sliceOK", state)
		}
	case <-time.After(time.Second):
		t.Fatal("wait() did not unblock after markReady")
	}
}

func TestSliceSyncMarkErrorUnblocksWaiters(t *testing.T) {
	s := newSliceSync()
	wantErr := newKind(InvalidBitstream, "boom")
	done := make(chan error, 1)
	go func() {
		_, err := s.wait()
		done <- err
	}()

	s.markError(wantErr)
	select {
	case err := <-done:
		if kindOf(err) != InvalidBitstream {
			t.Errorf("kindOf(err) = %v, want InvalidBitstream", kindOf(err))
		}
	case <-time.After(time.Second):
		t.Fatal("wait() did not unblock after markError")
	}
}

func TestSliceSyncTerminalIsSticky(t *testing.T) {
	s := newSliceSync()
	s.markReady()
	s.markError(newKind(InvalidBitstream, "too late")) // should be ignored: already OK... actually overwrites per markError's unconditional set.
	state, _ := s.wait()
	if state != sliceError {
		t.Errorf("markError after markReady: state = %v, want sliceError (markError is unconditional)", state)
	}
}

func TestDecoderInstanceReset(t *testing.T) {
	pi := &PictureInfo{
		Components: []ComponentInfo{
			{Width: 4, Height: 2, Bands: []Band{{Width: 4, Height: 2, HeightLines: 2}}},
		},
		PrecinctsPerCol: 1,
		SlicesNum:       2,
	}
	c := &PictureHeaderConst{Nc: 1, Cpih: 0}
	dyn := &PictureHeaderDynamic{}

	inst := newDecoderInstance()
	inst.reset(c, dyn, pi, 7)

	if inst.frameNum != 7 {
		t.Errorf("frameNum = %d, want 7", inst.frameNum)
	}
	if len(inst.sliceSync) != 2 {
		t.Errorf("len(sliceSync) = %d, want 2", len(inst.sliceSync))
	}
	if inst.planes != nil {
		t.Errorf("planes should be nil when Cpih == 0")
	}
	if inst.sliceAt(0) != 0 {
		t.Errorf("sliceAt(0) = %d, want 0", inst.sliceAt(0))
	}

	c.Cpih = 1
	inst.reset(c, dyn, pi, 8)
	if len(inst.planes) != 1 || len(inst.planes[0]) != 8 {
		t.Errorf("planes not allocated correctly for Cpih != 0: %+v", inst.planes)
	}
}
