/*
DESCRIPTION
  errors.go defines the flat ErrorKind enum that crosses the public API
  boundary, as specified in section 7 of the ISO/IEC 21122 decoder design.

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

import "github.com/pkg/errors"

// ErrorKind is the flat result enum returned by every public control
// surface entry point. Internal errors are wrapped with github.com/pkg/errors
// for diagnostics, then classified down to one of these kinds at the API
// boundary.
type ErrorKind int

const (
	// None indicates success.
	None ErrorKind = iota

	// NoErrorEmptyQueue is returned by a non-blocking GetFrame when no frame
	// is ready yet.
	NoErrorEmptyQueue

	// EndOfCodestream is returned once SendEOC has been observed and all
	// buffered frames have been delivered.
	EndOfCodestream

	// InvalidAPIVersion indicates the caller's requested API version is not
	// supported by this build.
	InvalidAPIVersion

	// BadParameter indicates a caller-supplied parameter violates its
	// documented contract (e.g. a nil output descriptor).
	BadParameter

	// InvalidPointer indicates a required buffer or pointer was nil or empty.
	InvalidPointer

	// InsufficientResources indicates a pool (instances, queue slots) could
	// not be acquired, distinct from simply blocking for one.
	InsufficientResources

	// DecoderInternal indicates an invariant inside the decoder was
	// violated; this should never occur on a build without bugs.
	DecoderInternal

	// BitstreamTooShort indicates a read ran past the end of the supplied
	// buffer. The caller should feed more bytes and retry; within a slice
	// already in flight this is fatal to the current frame.
	BitstreamTooShort

	// InvalidBitstream indicates a structural or arithmetic violation of the
	// codestream syntax. The current frame is lost; the decoder remains
	// usable for subsequent frames.
	InvalidBitstream

	// DecoderConfigChange indicates a subsequent frame's const picture header
	// differs from the one the decoder was initialized with; the caller must
	// re-initialize.
	DecoderConfigChange
)

// String implements fmt.Stringer.
func (e ErrorKind) String() string {
	switch e {
	case None:
		return "None"
	case NoErrorEmptyQueue:
		return "NoErrorEmptyQueue"
	case EndOfCodestream:
		return "EndOfCodestream"
	case InvalidAPIVersion:
		return "InvalidApiVersion"
	case BadParameter:
		return "BadParameter"
	case InvalidPointer:
		return "InvalidPointer"
	case InsufficientResources:
		return "InsufficientResources"
	case DecoderInternal:
		return "DecoderInternal"
	case BitstreamTooShort:
		return "BitstreamTooShort"
	case InvalidBitstream:
		return "InvalidBitstream"
	case DecoderConfigChange:
		return "DecoderConfigChange"
	default:
		return "Unknown"
	}
}

// Error implements the error interface so ErrorKind can be used directly
// where an error is expected (e.g. wrapped by pkg/errors for diagnostics).
func (e ErrorKind) Error() string { return e.String() }

// kindOf classifies an internal error (possibly wrapped with pkg/errors) down
// to the public ErrorKind that should cross the API boundary. Errors that
// are already an ErrorKind pass through unchanged.
func kindOf(err error) ErrorKind {
	if err == nil {
		return None
	}
	type kinder interface{ Kind() ErrorKind }
	if k, ok := err.(kinder); ok {
		return k.Kind()
	}
	for _, k := range []ErrorKind{
		BitstreamTooShort, InvalidBitstream, DecoderConfigChange,
		InvalidAPIVersion, BadParameter, InvalidPointer,
		InsufficientResources, DecoderInternal, EndOfCodestream,
	} {
		if err == k {
			return k
		}
	}
	return DecoderInternal
}

// kindErr pairs an ErrorKind with a pkg/errors-wrapped diagnostic message,
// so internal call sites can add context (errors.Wrap) while still letting
// the API boundary recover the flat kind via kindOf.
type kindErr struct {
	kind ErrorKind
	err  error
}

func (e *kindErr) Error() string    { return e.err.Error() }
func (e *kindErr) Kind() ErrorKind  { return e.kind }
func (e *kindErr) Unwrap() error    { return e.err }

// wrapKind wraps err with msg context (via pkg/errors) and tags it with
// kind, for classification at the API boundary.
func wrapKind(kind ErrorKind, err error, msg string) error {
	if err == nil {
		err = kind
	}
	return &kindErr{kind: kind, err: errors.Wrap(err, msg)}
}

// newKind creates a new kindErr from a message, without wrapping an
// existing error.
func newKind(kind ErrorKind, msg string) error {
	return &kindErr{kind: kind, err: errors.New(msg)}
}
