package tag

import (
	"encoding/binary"
	"fmt"
)

// Reader consumes tagged fields. The first failure sticks: later reads
// return zero values and Err reports the original failure.
type Reader struct {
	data    []byte
	off     int
	version Version
	err     error
}

// NewReader reads raw fields with no header. The reader behaves as if the
// data were written at the current version.
func NewReader(data []byte) *Reader {
	return &Reader{data: data, version: Current()}
}

// NewChunkReader consumes and validates the version header.
func NewChunkReader(data []byte) (*Reader, error) {
	r := NewReader(data)
	raw := r.Version("header")
	if err := r.Err(); err != nil {
		return nil, err
	}
	v, err := Normalize(raw)
	if err != nil {
		return nil, err
	}
	r.version = v
	return r, nil
}

// Version reads a two byte header without validating it.
func (r *Reader) Version(field string) Version {
	b := r.take(field, 2)
	if b == nil {
		return Version{}
	}
	return Version{Major: b[0], Minor: b[1]}
}

// SetMinor overrides the minor used for gating, e.g. for nested records
// that carry their own header.
func (r *Reader) SetMinor(minor uint8) { r.version.Minor = minor }

// Minor reports the effective minor version of the data.
func (r *Reader) Minor() uint8 { return r.version.Minor }

// AtLeast reports whether fields introduced at minor are present.
func (r *Reader) AtLeast(minor uint8) bool { return r.version.Minor >= minor }

// Err returns the first failure, if any.
func (r *Reader) Err() error { return r.err }

// Offset reports the next byte to be read.
func (r *Reader) Offset() int { return r.off }

// Remaining reports unread bytes.
func (r *Reader) Remaining() int { return len(r.data) - r.off }

func (r *Reader) take(field string, n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.Remaining() < n {
		r.err = &ReadError{Kind: KindTruncated, Field: field, Offset: r.off,
			Detail: fmt.Sprintf("need %d bytes, have %d", n, r.Remaining())}
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

// Corrupt records a validation failure for field unless an earlier error
// is already pending.
func (r *Reader) Corrupt(field, format string, args ...any) {
	if r.err != nil {
		return
	}
	r.err = &ReadError{Kind: KindCorrupt, Field: field, Offset: r.off, Detail: fmt.Sprintf(format, args...)}
}

// FailIfNotEOF marks the stream corrupt when bytes remain unread.
func (r *Reader) FailIfNotEOF(field string) error {
	if r.err == nil && r.Remaining() > 0 {
		r.Corrupt(field, "%d trailing bytes", r.Remaining())
	}
	return r.err
}

func (r *Reader) Uint8(field string) uint8 {
	b := r.take(field, 1)
	if b == nil {
		return 0
	}
	return b[0]
}

// Bool reads a byte that must be 0 or 1.
func (r *Reader) Bool(field string) bool {
	v := r.Uint8(field)
	if v > 1 {
		r.Corrupt(field, "bool byte %d", v)
		return false
	}
	return v == 1
}

func (r *Reader) Int16(field string) int16 { return int16(r.Uint16(field)) }

func (r *Reader) Uint16(field string) uint16 {
	b := r.take(field, 2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (r *Reader) Int32(field string) int32 { return int32(r.Uint32(field)) }

func (r *Reader) Uint32(field string) uint32 {
	b := r.take(field, 4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (r *Reader) Int64(field string) int64 { return int64(r.Uint64(field)) }

func (r *Reader) Uint64(field string) uint64 {
	b := r.take(field, 8)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

// Int reads a 32-bit value as a Go int.
func (r *Reader) Int(field string) int { return int(r.Int32(field)) }

// String reads a length-prefixed string.
func (r *Reader) String(field string) string {
	return string(r.Blob(field))
}

// Blob reads a length-prefixed byte slice. The result aliases the input.
func (r *Reader) Blob(field string) []byte {
	n := r.Uint32(field + ".len")
	if r.err != nil {
		return nil
	}
	return r.take(field, int(n))
}

// Count reads a 32-bit element count and rejects values above max.
func (r *Reader) Count(field string, max int) int {
	n := r.Int32(field)
	if r.err != nil {
		return 0
	}
	if n < 0 || int(n) > max {
		r.Corrupt(field, "count %d outside [0, %d]", n, max)
		return 0
	}
	return int(n)
}

// Raw reads n bytes without a length prefix.
func (r *Reader) Raw(field string, n int) []byte { return r.take(field, n) }
