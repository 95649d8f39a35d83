package binary

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrShortData is returned when a read runs past the end of the buffer.
var ErrShortData = errors.New("mat: unexpected end of data")

// Reader wraps a byte slice with position tracking and MAT-specific read
// methods. All multi-byte values are little-endian.
type Reader struct {
	data []byte
	pos  int
}

// NewReader creates a new Reader over the given bytes.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Position returns the current byte position.
func (r *Reader) Position() int {
	return r.pos
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// ReadBytes reads exactly n bytes.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, r.wrapError(ErrShortData)
	}
	out := r.data[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

// ReadU16 reads a little-endian uint16.
func (r *Reader) ReadU16() (uint16, error) {
	b, err := r.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadU32 reads a little-endian uint32.
func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadU64 reads a little-endian uint64.
func (r *Reader) ReadU64() (uint64, error) {
	b, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadI32 reads a little-endian int32.
func (r *Reader) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

// Align8 advances the position to the next 8-byte boundary.
func (r *Reader) Align8() {
	for r.pos%8 != 0 && r.pos < len(r.data) {
		r.pos++
	}
}

// ReadTag reads an element tag, handling both the full 8-byte form and
// the compact small-data-element form. It returns the element type, the
// payload byte count and whether the compact form was used.
func (r *Reader) ReadTag() (elementType uint32, size uint32, small bool, err error) {
	word, err := r.ReadU32()
	if err != nil {
		return 0, 0, false, err
	}
	// Nonzero upper 16 bits mark a small data element.
	if word>>16 != 0 {
		return word & 0xffff, word >> 16, true, nil
	}
	size, err = r.ReadU32()
	if err != nil {
		return 0, 0, false, err
	}
	return word, size, false, nil
}

// ReadElement reads a complete data element including alignment padding
// and returns its type and payload.
func (r *Reader) ReadElement() (elementType uint32, data []byte, err error) {
	elementType, size, small, err := r.ReadTag()
	if err != nil {
		return 0, nil, err
	}
	data, err = r.ReadBytes(int(size))
	if err != nil {
		return 0, nil, err
	}
	if small {
		// Small elements occupy a fixed 8 bytes total.
		if _, err := r.ReadBytes(4 - int(size)); err != nil {
			return 0, nil, err
		}
		return elementType, data, nil
	}
	r.Align8()
	return elementType, data, nil
}

func (r *Reader) wrapError(err error) error {
	return fmt.Errorf("%w at offset %d", err, r.pos)
}
