package turnstamp

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

var start = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func stamps(t *testing.T, path string) []uint32 {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(data)%4 != 0 {
		t.Fatalf("file size %d is not a whole number of words", len(data))
	}
	out := make([]uint32, 0, len(data)/4)
	for i := 0; i < len(data); i += 4 {
		out = append(out, binary.BigEndian.Uint32(data[i:]))
	}
	return out
}

func TestFilename(t *testing.T) {
	if got, want := Filename("Ur/ist", start), "timestamp-Urist-20260102-030405.ts"; got != want {
		t.Fatalf("Filename = %q, want %q", got, want)
	}
}

func TestDue(t *testing.T) {
	tests := []struct {
		turn int
		want bool
	}{
		{0, false},
		{50, false},
		{100, true},
		{250, false},
		{300, true},
		{MaxTurn, false},
	}
	for _, tt := range tests {
		if got := Due(tt.turn); got != tt.want {
			t.Fatalf("Due(%d) = %v, want %v", tt.turn, got, tt.want)
		}
	}
}

func TestRecordWritesVersionAndStamps(t *testing.T) {
	dir := t.TempDir()
	r := NewRecorder(dir, "Urist", start, nil)
	defer r.Close()

	for turn := 1; turn <= 200; turn++ {
		if err := r.Record(turn, time.Unix(int64(1000+turn), 0)); err != nil {
			t.Fatalf("record %d: %v", turn, err)
		}
	}
	if got, want := stamps(t, r.Path()), []uint32{Version, 1100, 1200}; !slices.Equal(got, want) {
		t.Fatalf("stamps = %v, want %v", got, want)
	}
}

func TestRecordZeroFillsGap(t *testing.T) {
	dir := t.TempDir()
	r := NewRecorder(dir, "Urist", start, nil)
	if err := r.Record(300, time.Unix(7, 0)); err != nil {
		t.Fatalf("record: %v", err)
	}
	r.Close()
	if got, want := stamps(t, r.Path()), []uint32{Version, 0, 0, 7}; !slices.Equal(got, want) {
		t.Fatalf("stamps = %v, want %v", got, want)
	}
}

func TestRecordDoesNotRewindAfterCrash(t *testing.T) {
	dir := t.TempDir()
	first := NewRecorder(dir, "Urist", start, nil)
	for _, turn := range []int{100, 200, 300} {
		if err := first.Record(turn, time.Unix(int64(turn), 0)); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	first.Close()

	// The restored game resumes from turn 100.
	second := NewRecorder(dir, "Urist", start, nil)
	defer second.Close()
	for _, turn := range []int{200, 300, 400} {
		if err := second.Record(turn, time.Unix(int64(turn+5000), 0)); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	if got, want := stamps(t, second.Path()), []uint32{Version, 100, 200, 300, 5400}; !slices.Equal(got, want) {
		t.Fatalf("stamps = %v, want %v", got, want)
	}
}

func TestUnknownVersionIsLeftAlone(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, Filename("Urist", start))
	original := []byte{0, 0, 0, 9, 0, 0, 0, 1}
	if err := os.WriteFile(path, original, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	r := NewRecorder(dir, "Urist", start, nil)
	if err := r.Record(100, time.Unix(1, 0)); err != nil {
		t.Fatalf("record: %v", err)
	}
	r.Close()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != string(original) {
		t.Fatalf("file = %v, want untouched %v", data, original)
	}
}

func TestTruncatedFileIsRecreated(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, Filename("Urist", start))
	if err := os.WriteFile(path, []byte{0, 1}, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	r := NewRecorder(dir, "Urist", start, nil)
	if err := r.Record(100, time.Unix(42, 0)); err != nil {
		t.Fatalf("record: %v", err)
	}
	r.Close()
	if got, want := stamps(t, path), []uint32{Version, 42}; !slices.Equal(got, want) {
		t.Fatalf("stamps = %v, want %v", got, want)
	}
}

func TestDisabledRecorder(t *testing.T) {
	r := NewRecorder("", "Urist", start, nil)
	if err := r.Record(100, time.Now()); err != nil {
		t.Fatalf("record: %v", err)
	}
	if r.Path() != "" {
		t.Fatalf("path = %q, want empty", r.Path())
	}
	var nilRecorder *Recorder
	if err := nilRecorder.Record(100, time.Now()); err != nil {
		t.Fatalf("nil record: %v", err)
	}
}
