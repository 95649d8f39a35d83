package binary

import (
	"bytes"
	"encoding/binary"
)

// Writer provides buffered writing utilities for MAT binary encoding.
// All multi-byte values are little-endian, matching the "IM" endian
// indicator written in the file header.
type Writer struct {
	buf *bytes.Buffer
}

// NewWriter creates a new Writer.
func NewWriter() *Writer {
	return &Writer{buf: &bytes.Buffer{}}
}

// Bytes returns the written bytes.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Byte writes a single byte.
func (w *Writer) Byte(b byte) {
	w.buf.WriteByte(b)
}

// WriteBytes writes a byte slice.
func (w *Writer) WriteBytes(data []byte) {
	w.buf.Write(data)
}

// WriteString writes raw string bytes with no length prefix.
func (w *Writer) WriteString(s string) {
	w.buf.WriteString(s)
}

// WriteU16 writes a little-endian uint16.
func (w *Writer) WriteU16(v uint16) {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	w.buf.Write(buf[:])
}

// WriteU32 writes a little-endian uint32.
func (w *Writer) WriteU32(v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	w.buf.Write(buf[:])
}

// WriteU64 writes a little-endian uint64.
func (w *Writer) WriteU64(v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	w.buf.Write(buf[:])
}

// WriteI32 writes a little-endian int32.
func (w *Writer) WriteI32(v int32) {
	w.WriteU32(uint32(v))
}

// Pad8 pads the buffer with zero bytes to the next 8-byte boundary.
// MAT data elements are always aligned to 8 bytes.
func (w *Writer) Pad8() {
	for w.buf.Len()%8 != 0 {
		w.buf.WriteByte(0)
	}
}

// WriteTag writes a full 8-byte element tag (type + byte count).
func (w *Writer) WriteTag(elementType uint32, size uint32) {
	w.WriteU32(elementType)
	w.WriteU32(size)
}

// WriteSmallTag writes a compact 4-byte tag for elements whose data fits
// in 4 bytes: the low 16 bits of the first word carry the type and the
// high 16 bits the byte count, followed immediately by the data bytes.
func (w *Writer) WriteSmallTag(elementType uint32, size uint32) {
	w.WriteU16(uint16(elementType))
	w.WriteU16(uint16(size))
}

// WriteElement writes a complete data element: tag, payload and trailing
// alignment padding. Payloads of four bytes or fewer use the compact
// small-data-element form.
func (w *Writer) WriteElement(elementType uint32, data []byte) {
	if len(data) <= 4 && len(data) > 0 {
		w.WriteSmallTag(elementType, uint32(len(data)))
		w.WriteBytes(data)
		// Small elements occupy exactly 8 bytes.
		for i := len(data); i < 4; i++ {
			w.buf.WriteByte(0)
		}
		return
	}
	w.WriteTag(elementType, uint32(len(data)))
	w.WriteBytes(data)
	w.Pad8()
}
