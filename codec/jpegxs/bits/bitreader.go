/*
DESCRIPTION
  bitreader.go provides a bit reader implementation that reads big-endian
  bit fields from an immutable in-memory byte buffer, with byte and
  sub-byte granularity.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package bits provides a bit reader over an immutable byte buffer, used by
// the jpegxs codestream and precinct parsers.
package bits

import "errors"

// ErrTooShort is returned when a read or skip would run past the end of the
// buffer. The reader never reads past its end; callers that need to avoid
// the error check Remaining/EnoughBits first.
var ErrTooShort = errors.New("bits: buffer too short")

// Reader is a cursor over an immutable byte buffer, tracking a bit position
// within that buffer. The zero value is not usable; construct with New.
type Reader struct {
	buf    []byte
	bitPos int // Absolute bit offset from the start of buf.
}

// New returns a Reader positioned at the start of buf. buf is not copied and
// must not be mutated while the Reader is in use.
func New(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Len returns the total number of bits in the buffer.
func (r *Reader) Len() int { return len(r.buf) * 8 }

// BitPos returns the current absolute bit offset from the start of the buffer.
func (r *Reader) BitPos() int { return r.bitPos }

// BytePos returns the current byte offset, valid only when ByteAligned.
func (r *Reader) BytePos() int { return r.bitPos / 8 }

// RemainingBits returns the number of unread bits left in the buffer.
func (r *Reader) RemainingBits() int { return r.Len() - r.bitPos }

// RemainingBytes returns the number of whole unread bytes left, rounding down.
func (r *Reader) RemainingBytes() int { return r.RemainingBits() / 8 }

// EnoughBits reports whether n more bits can be read without exceeding the
// buffer.
func (r *Reader) EnoughBits(n int) bool { return r.RemainingBits() >= n }

// ByteAligned reports whether the cursor sits on a byte boundary.
func (r *Reader) ByteAligned() bool { return r.bitPos%8 == 0 }

// ReadBits reads n bits (0 <= n <= 32) and returns them right-justified in a
// uint32, most-significant bit first. It fails with ErrTooShort rather than
// reading past the end of the buffer.
func (r *Reader) ReadBits(n int) (uint32, error) {
	if n == 0 {
		return 0, nil
	}
	if !r.EnoughBits(n) {
		return 0, ErrTooShort
	}
	var v uint32
	for n > 0 {
		byteIdx := r.bitPos / 8
		bitOff := r.bitPos % 8
		avail := 8 - bitOff
		take := avail
		if take > n {
			take = n
		}
		b := r.buf[byteIdx]
		shift := avail - take
		mask := byte((1 << uint(take)) - 1)
		v = v<<uint(take) | uint32((b>>uint(shift))&mask)
		r.bitPos += take
		n -= take
	}
	return v, nil
}

// Read4BitsAlign4 reads a 4-bit nibble. The cursor must sit at bit offset 0
// or 4 within the current byte; this is a callee invariant enforced at
// entry to every data sub-packet nibble read, not a recoverable condition.
func (r *Reader) Read4BitsAlign4() (uint32, error) {
	if off := r.bitPos % 8; off != 0 && off != 4 {
		return 0, errors.New("bits: Read4BitsAlign4 called off nibble boundary")
	}
	return r.ReadBits(4)
}

// Skip advances the cursor by n bits without returning a value.
func (r *Reader) Skip(n int) error {
	if !r.EnoughBits(n) {
		return ErrTooShort
	}
	r.bitPos += n
	return nil
}

// ByteAlign advances the cursor to the next byte boundary, a no-op if
// already aligned.
func (r *Reader) ByteAlign() {
	if off := r.bitPos % 8; off != 0 {
		r.bitPos += 8 - off
	}
}

// SkipPadding byte-aligns the cursor; used between every sub-packet, which
// are each specified to be byte-aligned regardless of what they contain.
func (r *Reader) SkipPadding() { r.ByteAlign() }

// PeekBits returns the next n bits without advancing the cursor.
func (r *Reader) PeekBits(n int) (uint32, error) {
	save := r.bitPos
	v, err := r.ReadBits(n)
	r.bitPos = save
	return v, err
}

// Bytes returns the raw underlying buffer bytes from the current byte
// position to the end. The cursor must be byte-aligned.
func (r *Reader) Bytes() []byte {
	return r.buf[r.BytePos():]
}
