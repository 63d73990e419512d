// Package turnstamp appends wall-clock timestamps to a per-game file at
// regular turn intervals, so recordings of a game can be seeked by turn.
//
// The file starts with a four byte version word followed by one four byte
// Unix time per interval; the entry for turn t sits at offset
// 4 + (t/Interval-1)*4. Files are append only. A file whose version is
// unknown is never touched.
package turnstamp

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/louisbranch/undercroft/internal/services/game/domain/tag"
)

const (
	// Version is the only file format this package reads or writes.
	Version uint32 = 1
	// Interval is the number of turns between timestamps.
	Interval = 100
	// MaxTurn stops recording for very long games.
	MaxTurn = 500000

	wordSize       = 4
	fileTimeFormat = "20060102-150405"
)

// Filename is the timestamp file name for a character started at start.
func Filename(name string, start time.Time) string {
	base := "timestamp-" + name + "-" + start.UTC().Format(fileTimeFormat)
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			return r
		}
		return -1
	}, base) + ".ts"
}

// Offset is the file offset of the timestamp for turn.
func Offset(turn int) int64 {
	return int64(wordSize + (turn/Interval-1)*wordSize)
}

// Due reports whether turn gets a timestamp.
func Due(turn int) bool {
	return turn > 0 && turn < MaxTurn && turn%Interval == 0
}

// Recorder writes one game's timestamp file. The file is opened lazily on
// the first due turn. A nil Recorder records nothing.
type Recorder struct {
	path   string
	logger *zap.Logger

	opened   bool
	disabled bool
	synced   bool
	f        *os.File
}

// NewRecorder returns a recorder writing to dir. An empty dir disables
// recording.
func NewRecorder(dir, name string, start time.Time, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Recorder{logger: logger}
	if strings.TrimSpace(dir) == "" {
		r.disabled = true
		return r
	}
	r.path = filepath.Join(dir, Filename(name, start))
	return r
}

// Path is the timestamp file path, empty when disabled.
func (r *Recorder) Path() string {
	if r == nil {
		return ""
	}
	return r.path
}

// Record writes now as the timestamp of turn when turn is due.
func (r *Recorder) Record(turn int, now time.Time) error {
	if r == nil || r.disabled || !Due(turn) {
		return nil
	}
	if err := r.open(); err != nil {
		return err
	}
	if r.f == nil {
		return nil
	}

	offset := Offset(turn)
	if !r.synced {
		info, err := r.f.Stat()
		if err != nil {
			return fmt.Errorf("stat timestamp file: %w", err)
		}
		size := info.Size()
		w := tag.NewWriter()
		if size == 0 {
			w.Uint32(Version)
			size = wordSize
		}
		// A crash rewinds the game to its last save while the file keeps
		// the later stamps; skip until the turn count catches up.
		if size > offset {
			return r.append(w.Bytes())
		}
		for gap := (offset - size) / wordSize; gap > 0; gap-- {
			w.Uint32(0)
		}
		if err := r.append(w.Bytes()); err != nil {
			return err
		}
		r.synced = true
	}

	w := tag.NewWriter()
	w.Uint32(uint32(now.Unix()))
	return r.append(w.Bytes())
}

func (r *Recorder) append(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if _, err := r.f.Write(data); err != nil {
		return fmt.Errorf("write timestamp file: %w", err)
	}
	return nil
}

// open checks any existing file once. Unknown versions disable the
// recorder; files too short to hold a version are removed and recreated.
func (r *Recorder) open() error {
	if r.opened {
		return nil
	}
	r.opened = true

	usable, err := r.checkExisting()
	if err != nil {
		return err
	}
	if !usable {
		r.disabled = true
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create timestamp directory: %w", err)
	}
	f, err := os.OpenFile(r.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open timestamp file: %w", err)
	}
	r.f = f
	return nil
}

func (r *Recorder) checkExisting() (bool, error) {
	f, err := os.Open(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("open timestamp file: %w", err)
	}
	head := make([]byte, wordSize)
	_, err = io.ReadFull(f, head)
	_ = f.Close()
	if err != nil {
		if rmErr := os.Remove(r.path); rmErr != nil {
			r.logger.Warn("cannot replace truncated timestamp file",
				zap.String("path", r.path), zap.Error(rmErr))
			return false, nil
		}
		return true, nil
	}
	rd := tag.NewReader(head)
	if v := rd.Uint32("version"); v != Version {
		r.logger.Warn("timestamp file has unknown version",
			zap.String("path", r.path), zap.Uint32("version", v))
		return false, nil
	}
	return true, nil
}

// Close releases the file.
func (r *Recorder) Close() error {
	if r == nil || r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	r.disabled = true
	return err
}
