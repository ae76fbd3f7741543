/*
DESCRIPTION
  fieldreader.go provides a sticky-error wrapper around bits.Reader, letting
  a long run of fixed-width field reads defer error checking to a single
  point at the end, mirroring codec/h264/h264dec's fieldReader.

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

import "github.com/ausocean/jpegxs/codec/jpegxs/bits"

// fieldReader reads bool and uint32 fields from a bits.Reader with a sticky
// error that can be checked once after a series of reads, rather than after
// every single field.
type fieldReader struct {
	r *bits.Reader
	e error
}

// newFieldReader returns a new fieldReader over r.
func newFieldReader(r *bits.Reader) *fieldReader {
	return &fieldReader{r: r}
}

// u reads n bits and returns them as a uint32. If a previous read already
// failed, the read is skipped and 0 is returned.
func (f *fieldReader) u(n int) uint32 {
	if f.e != nil {
		return 0
	}
	var v uint32
	v, f.e = f.r.ReadBits(n)
	return v
}

// bit reads a single bit and returns it as a bool.
func (f *fieldReader) bit() bool {
	return f.u(1) == 1
}

// nibble reads a 4-bit field that must sit on a nibble boundary.
func (f *fieldReader) nibble() uint32 {
	if f.e != nil {
		return 0
	}
	var v uint32
	v, f.e = f.r.Read4BitsAlign4()
	return v
}

// align byte-aligns the underlying reader; always succeeds.
func (f *fieldReader) align() { f.r.ByteAlign() }

// err returns the sticky error, if any.
func (f *fieldReader) err() error { return f.e }
