/*
DESCRIPTION
  errors_test.go contains testing for functionality found in errors.go.

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
	"errors"
	"testing"
)

func TestKindOfNil(t *testing.T) {
	if got := kindOf(nil); got != None {
		t.Errorf("kindOf(nil) = %v, want None", got)
	}
}

func TestKindOfKindErr(t *testing.T) {
	err := newKind(InvalidBitstream, "bad marker")
	if got := kindOf(err); got != InvalidBitstream {
		t.Errorf("kindOf = %v, want InvalidBitstream", got)
	}
}

func TestKindOfWrapped(t *testing.T) {
	inner := errors.New("eof")
	err := wrapKind(BitstreamTooShort, inner, "read PIH")
	if got := kindOf(err); got != BitstreamTooShort {
		t.Errorf("kindOf = %v, want BitstreamTooShort", got)
	}
	if errors.Unwrap(err) == nil {
		t.Error("wrapKind's error should unwrap to the pkg/errors-wrapped cause")
	}
}

func TestKindOfBareErrorKind(t *testing.T) {
	if got := kindOf(DecoderInternal); got != DecoderInternal {
		t.Errorf("kindOf(DecoderInternal) = %v, want DecoderInternal", got)
	}
}

func TestKindOfUnclassified(t *testing.T) {
	if got := kindOf(errors.New("mystery")); got != DecoderInternal {
		t.Errorf("kindOf(unclassified) = %v, want DecoderInternal", got)
	}
}

func TestErrorKindString(t *testing.T) {
	if InvalidBitstream.String() != "InvalidBitstream" {
		t.Errorf("String() = %q, want InvalidBitstream", InvalidBitstream.String())
	}
	if ErrorKind(999).String() != "Unknown" {
		t.Errorf("String() of unknown kind = %q, want Unknown", ErrorKind(999).String())
	}
}
