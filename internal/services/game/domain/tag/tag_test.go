package tag

import (
	"errors"
	"testing"
)

func TestRoundTripPrimitives(t *testing.T) {
	w := NewChunkWriter()
	w.Uint8(7)
	w.Bool(true)
	w.Int16(-300)
	w.Uint16(65000)
	w.Int32(-70000)
	w.Uint32(4000000000)
	w.Int64(-1 << 40)
	w.Uint64(1 << 63)
	w.Int(-5)
	w.String("Deep Dwarf")
	w.Blob([]byte{1, 2, 3})

	r, err := NewChunkReader(w.Bytes())
	if err != nil {
		t.Fatalf("NewChunkReader: %v", err)
	}
	if got := r.Uint8("u8"); got != 7 {
		t.Fatalf("u8 = %d, want 7", got)
	}
	if got := r.Bool("bool"); !got {
		t.Fatal("bool = false, want true")
	}
	if got := r.Int16("i16"); got != -300 {
		t.Fatalf("i16 = %d, want -300", got)
	}
	if got := r.Uint16("u16"); got != 65000 {
		t.Fatalf("u16 = %d, want 65000", got)
	}
	if got := r.Int32("i32"); got != -70000 {
		t.Fatalf("i32 = %d, want -70000", got)
	}
	if got := r.Uint32("u32"); got != 4000000000 {
		t.Fatalf("u32 = %d, want 4000000000", got)
	}
	if got := r.Int64("i64"); got != -1<<40 {
		t.Fatalf("i64 = %d, want %d", got, int64(-1<<40))
	}
	if got := r.Uint64("u64"); got != 1<<63 {
		t.Fatalf("u64 = %d, want %d", got, uint64(1<<63))
	}
	if got := r.Int("int"); got != -5 {
		t.Fatalf("int = %d, want -5", got)
	}
	if got := r.String("name"); got != "Deep Dwarf" {
		t.Fatalf("string = %q, want %q", got, "Deep Dwarf")
	}
	if got := r.Blob("blob"); len(got) != 3 || got[2] != 3 {
		t.Fatalf("blob = %v, want [1 2 3]", got)
	}
	if err := r.FailIfNotEOF("end"); err != nil {
		t.Fatalf("FailIfNotEOF: %v", err)
	}
}

func TestHeaderIsBigEndianPair(t *testing.T) {
	w := NewChunkWriter()
	w.Uint16(0x0102)
	got := w.Bytes()
	want := []byte{MajorVersion, MinorCurrent, 0x01, 0x02}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d = %#x, want %#x", i, got[i], want[i])
		}
	}
}

func TestNewChunkReaderVersionGating(t *testing.T) {
	tests := []struct {
		name      string
		header    Version
		wantErr   error
		wantMinor uint8
	}{
		{"current", Current(), nil, MinorCurrent},
		{"older minor", Version{MajorVersion, MinorReset}, nil, MinorReset},
		{"legacy carve-out", Version{34, 17}, nil, MinorReset},
		{"legacy other minor", Version{34, 16}, ErrMajorVersion, 0},
		{"newer major", Version{MajorVersion + 1, 0}, ErrMajorVersion, 0},
		{"newer minor", Version{MajorVersion, MinorCurrent + 1}, ErrMinorTooNew, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWriter()
			w.Version(tt.header)
			r, err := NewChunkReader(w.Bytes())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) || !errors.Is(err, ErrVersion) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.Minor() != tt.wantMinor {
				t.Fatalf("minor = %d, want %d", r.Minor(), tt.wantMinor)
			}
		})
	}
}

// A record whose second field was introduced at MinorLives.
func writeGated(minor uint8, base, gated int) []byte {
	w := NewWriter()
	w.Version(Version{MajorVersion, minor})
	w.Int(base)
	if minor >= MinorLives {
		w.Int(gated)
	}
	return w.Bytes()
}

func readGated(t *testing.T, data []byte) (int, int) {
	t.Helper()
	r, err := NewChunkReader(data)
	if err != nil {
		t.Fatalf("NewChunkReader: %v", err)
	}
	base := r.Int("base")
	gated := 0
	if r.AtLeast(MinorLives) {
		gated = r.Int("gated")
	}
	if err := r.FailIfNotEOF("gated"); err != nil {
		t.Fatalf("read gated record: %v", err)
	}
	return base, gated
}

func TestVersionGatedFieldsAreSkippedForOlderMinors(t *testing.T) {
	for minor := MinorReset; minor <= MinorCurrent; minor++ {
		base, gated := readGated(t, writeGated(minor, 11, 22))
		if base != 11 {
			t.Fatalf("minor %d: base = %d, want 11", minor, base)
		}
		wantGated := 0
		if minor >= MinorLives {
			wantGated = 22
		}
		if gated != wantGated {
			t.Fatalf("minor %d: gated = %d, want %d", minor, gated, wantGated)
		}
	}
}

func TestTruncatedIsDistinctFromCorrupt(t *testing.T) {
	w := NewChunkWriter()
	w.Int32(5)
	data := w.Bytes()

	r, err := NewChunkReader(data[:len(data)-1])
	if err != nil {
		t.Fatalf("NewChunkReader: %v", err)
	}
	_ = r.Int32("hp")
	if !errors.Is(r.Err(), ErrTruncated) || errors.Is(r.Err(), ErrCorrupt) {
		t.Fatalf("err = %v, want truncated only", r.Err())
	}

	r = NewReader([]byte{2})
	_ = r.Bool("flag")
	if !errors.Is(r.Err(), ErrCorrupt) || errors.Is(r.Err(), ErrTruncated) {
		t.Fatalf("err = %v, want corrupt only", r.Err())
	}
	if KindOf(r.Err()) != KindCorrupt {
		t.Fatalf("KindOf = %v, want corrupt", KindOf(r.Err()))
	}
}

func TestEmptyStreamIsTruncated(t *testing.T) {
	_, err := NewChunkReader(nil)
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("err = %v, want truncated", err)
	}
}

func TestErrorsAreSticky(t *testing.T) {
	r := NewReader([]byte{0, 0})
	_ = r.Int32("first")
	first := r.Err()
	if got := r.Uint8("second"); got != 0 {
		t.Fatalf("read after failure = %d, want 0", got)
	}
	r.Corrupt("third", "ignored")
	if r.Err() != first {
		t.Fatalf("err changed to %v, want %v", r.Err(), first)
	}
	var re *ReadError
	if !errors.As(first, &re) || re.Field != "first" || re.Offset != 0 {
		t.Fatalf("read error = %+v, want field first at offset 0", re)
	}
}

func TestCountRejectsOutOfRange(t *testing.T) {
	w := NewWriter()
	w.Int32(-1)
	w.Int32(500)
	r := NewReader(w.Bytes())
	if n := r.Count("negative", 10); n != 0 || !errors.Is(r.Err(), ErrCorrupt) {
		t.Fatalf("Count = %d, err %v; want corrupt", n, r.Err())
	}
}

func TestFailIfNotEOF(t *testing.T) {
	r := NewReader([]byte{1, 2})
	_ = r.Uint8("one")
	if err := r.FailIfNotEOF("tail"); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("FailIfNotEOF = %v, want corrupt", err)
	}
}

func TestLongBlobLengthIsTruncation(t *testing.T) {
	w := NewWriter()
	w.Uint32(1 << 20)
	w.Raw([]byte("short"))
	r := NewReader(w.Bytes())
	_ = r.Blob("payload")
	if !errors.Is(r.Err(), ErrTruncated) {
		t.Fatalf("err = %v, want truncated", r.Err())
	}
}
