package tag

import (
	"encoding/binary"
	"math"
)

// Writer appends tagged fields to an in-memory buffer.
type Writer struct {
	buf []byte
}

// NewWriter returns a writer with no header.
func NewWriter() *Writer {
	return &Writer{}
}

// NewChunkWriter returns a writer whose buffer starts with the current
// version header.
func NewChunkWriter() *Writer {
	w := &Writer{}
	w.Version(Current())
	return w
}

// Version writes a two byte header.
func (w *Writer) Version(v Version) {
	w.buf = append(w.buf, v.Major, v.Minor)
}

func (w *Writer) Uint8(v uint8) { w.buf = append(w.buf, v) }

func (w *Writer) Bool(v bool) {
	if v {
		w.Uint8(1)
		return
	}
	w.Uint8(0)
}

func (w *Writer) Int16(v int16)   { w.buf = binary.BigEndian.AppendUint16(w.buf, uint16(v)) }
func (w *Writer) Uint16(v uint16) { w.buf = binary.BigEndian.AppendUint16(w.buf, v) }
func (w *Writer) Int32(v int32)   { w.buf = binary.BigEndian.AppendUint32(w.buf, uint32(v)) }
func (w *Writer) Uint32(v uint32) { w.buf = binary.BigEndian.AppendUint32(w.buf, v) }
func (w *Writer) Int64(v int64)   { w.buf = binary.BigEndian.AppendUint64(w.buf, uint64(v)) }
func (w *Writer) Uint64(v uint64) { w.buf = binary.BigEndian.AppendUint64(w.buf, v) }

// Int writes a Go int as a 32-bit value, saturating out-of-range values.
func (w *Writer) Int(v int) {
	switch {
	case v > math.MaxInt32:
		v = math.MaxInt32
	case v < math.MinInt32:
		v = math.MinInt32
	}
	w.Int32(int32(v))
}

// String writes a 32-bit length followed by the raw bytes.
func (w *Writer) String(s string) {
	w.Uint32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

// Blob writes a 32-bit length followed by b.
func (w *Writer) Blob(b []byte) {
	w.Uint32(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

// Raw appends b without a length prefix.
func (w *Writer) Raw(b []byte) { w.buf = append(w.buf, b...) }

// Len reports the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// Bytes returns the encoded buffer. The writer must not be reused after.
func (w *Writer) Bytes() []byte { return w.buf }
