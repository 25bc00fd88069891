package golite

import (
	"encoding/binary"
	"fmt"
)

// Reader provides big-endian fixed-width reads over a byte slice with a
// cursor that tracks the current position. It has no notion of
// alignment; every read is a plain byte-offset slice.
type Reader struct {
	data []byte
	pos  int
}

// NewReader wraps data in a Reader positioned at offset 0.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Pos returns the current cursor position.
func (r *Reader) Pos() int { return r.pos }

// Len returns the length of the underlying buffer.
func (r *Reader) Len() int { return len(r.data) }

// Set moves the cursor to an absolute position.
func (r *Reader) Set(pos int) { r.pos = pos }

// Advance moves the cursor forward by n bytes.
func (r *Reader) Advance(n int) { r.pos += n }

// Rewind moves the cursor backward by n bytes.
func (r *Reader) Rewind(n int) { r.pos -= n }

func (r *Reader) need(n int) error {
	if r.pos < 0 || r.pos+n > len(r.data) {
		return fmt.Errorf("%w: read of %d bytes at offset %d exceeds buffer of length %d", ErrMalformedPage, n, r.pos, len(r.data))
	}
	return nil
}

// U8 reads an unsigned 8-bit integer at the cursor and advances past it.
func (r *Reader) U8() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.data[r.pos]
	r.pos++
	return v, nil
}

// U16 reads a big-endian unsigned 16-bit integer at the cursor and
// advances past it.
func (r *Reader) U16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(r.data[r.pos : r.pos+2])
	r.pos += 2
	return v, nil
}

// U32 reads a big-endian unsigned 32-bit integer at the cursor and
// advances past it.
func (r *Reader) U32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.data[r.pos : r.pos+4])
	r.pos += 4
	return v, nil
}

// I32 reads a big-endian signed 32-bit integer at the cursor and advances
// past it.
func (r *Reader) I32() (int32, error) {
	v, err := r.U32()
	return int32(v), err
}

// Bytes reads n raw bytes at the cursor and advances past them. The
// returned slice aliases the underlying buffer.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	v := r.data[r.pos : r.pos+n]
	r.pos += n
	return v, nil
}
