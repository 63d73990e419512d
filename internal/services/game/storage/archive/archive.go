// Package archive stores a game's named chunks in one bbolt file.
//
// Writes are staged in memory and become durable only on Commit, which
// applies them in a single transaction. bbolt holds an exclusive flock on
// the file while it is open for writing, so a second writer fails with
// ErrLocked instead of corrupting the save.
package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"go.etcd.io/bbolt"
)

const (
	chunkBucket = "chunks"
	// MaxChunkName bounds chunk names.
	MaxChunkName = 64
	// DefaultLockTimeout is how long Open waits for another process to
	// release the file.
	DefaultLockTimeout = 100 * time.Millisecond
)

var (
	// ErrLocked reports that another process holds the archive.
	ErrLocked = errors.New("save archive is locked by another process")
	// ErrNotFound reports a missing archive file.
	ErrNotFound = errors.New("save archive not found")
	// ErrChunkNotFound reports a missing chunk.
	ErrChunkNotFound = errors.New("chunk not found")
	ErrClosed        = errors.New("save archive is closed")
	ErrReadOnly      = errors.New("save archive is read-only")
	ErrInvalidName   = errors.New("invalid chunk name")
)

// Options configures Open.
type Options struct {
	// Create makes a new archive when none exists.
	Create bool
	// ReadOnly takes a shared lock and rejects writes.
	ReadOnly    bool
	LockTimeout time.Duration
}

// Archive is an open save file. It is not safe for concurrent use.
type Archive struct {
	path     string
	db       *bbolt.DB
	readOnly bool
	// staged maps chunk name to pending content; nil marks a deletion.
	staged map[string][]byte
	enc    *zstd.Encoder
	dec    *zstd.Decoder
}

// Open opens the archive at path.
func Open(path string, opts Options) (*Archive, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("archive path is required")
	}
	path = filepath.Clean(path)
	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat archive: %w", err)
		}
		if !opts.Create || opts.ReadOnly {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create save directory: %w", err)
		}
	}

	timeout := opts.LockTimeout
	if timeout <= 0 {
		timeout = DefaultLockTimeout
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: timeout, ReadOnly: opts.ReadOnly})
	if err != nil {
		if errors.Is(err, bbolt.ErrTimeout) {
			return nil, fmt.Errorf("%w: %s", ErrLocked, path)
		}
		return nil, fmt.Errorf("open archive: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create chunk encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = enc.Close()
		_ = db.Close()
		return nil, fmt.Errorf("create chunk decoder: %w", err)
	}

	a := &Archive{
		path:     path,
		db:       db,
		readOnly: opts.ReadOnly,
		staged:   map[string][]byte{},
		enc:      enc,
		dec:      dec,
	}
	if !opts.ReadOnly {
		if err := a.ensureBuckets(); err != nil {
			_ = a.Close()
			return nil, err
		}
	}
	return a, nil
}

// Path returns the archive file path.
func (a *Archive) Path() string { return a.path }

// ReadOnly reports whether writes are rejected.
func (a *Archive) ReadOnly() bool { return a.readOnly }

// Has reports whether name exists, counting staged changes.
func (a *Archive) Has(name string) bool {
	if a == nil || a.db == nil {
		return false
	}
	if data, ok := a.staged[name]; ok {
		return data != nil
	}
	found := false
	_ = a.db.View(func(tx *bbolt.Tx) error {
		if b := tx.Bucket([]byte(chunkBucket)); b != nil {
			found = b.Get([]byte(name)) != nil
		}
		return nil
	})
	return found
}

// Read returns the content of name.
func (a *Archive) Read(name string) ([]byte, error) {
	if a == nil || a.db == nil {
		return nil, ErrClosed
	}
	if data, ok := a.staged[name]; ok {
		if data == nil {
			return nil, fmt.Errorf("%w: %s", ErrChunkNotFound, name)
		}
		return append([]byte(nil), data...), nil
	}
	var stored []byte
	err := a.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(chunkBucket))
		if b == nil {
			return fmt.Errorf("%w: %s", ErrChunkNotFound, name)
		}
		v := b.Get([]byte(name))
		if v == nil {
			return fmt.Errorf("%w: %s", ErrChunkNotFound, name)
		}
		stored = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	data, err := a.dec.DecodeAll(stored, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress chunk %s: %w", name, err)
	}
	return data, nil
}

// Write stages data as the new content of name.
func (a *Archive) Write(name string, data []byte) error {
	if err := a.writable(name); err != nil {
		return err
	}
	if data == nil {
		data = []byte{}
	}
	a.staged[name] = append([]byte(nil), data...)
	return nil
}

// Delete stages the removal of name. Deleting a missing chunk is not an
// error.
func (a *Archive) Delete(name string) error {
	if err := a.writable(name); err != nil {
		return err
	}
	a.staged[name] = nil
	return nil
}

// Pending reports the number of staged changes.
func (a *Archive) Pending() int { return len(a.staged) }

// Commit durably applies every staged change in one transaction. On
// failure nothing is applied and the changes stay staged.
func (a *Archive) Commit() error {
	if a == nil || a.db == nil {
		return ErrClosed
	}
	if a.readOnly {
		return ErrReadOnly
	}
	if len(a.staged) == 0 {
		return nil
	}
	names := make([]string, 0, len(a.staged))
	for name := range a.staged {
		names = append(names, name)
	}
	sort.Strings(names)
	err := a.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(chunkBucket))
		if b == nil {
			return fmt.Errorf("chunk bucket is missing")
		}
		for _, name := range names {
			data := a.staged[name]
			if data == nil {
				if err := b.Delete([]byte(name)); err != nil {
					return fmt.Errorf("delete chunk %s: %w", name, err)
				}
				continue
			}
			if err := b.Put([]byte(name), a.enc.EncodeAll(data, nil)); err != nil {
				return fmt.Errorf("put chunk %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("commit archive: %w", err)
	}
	a.staged = map[string][]byte{}
	return nil
}

// Abort discards staged changes.
func (a *Archive) Abort() {
	if a != nil {
		a.staged = map[string][]byte{}
	}
}

// Chunks lists chunk names, counting staged changes, in sorted order.
func (a *Archive) Chunks() ([]string, error) {
	if a == nil || a.db == nil {
		return nil, ErrClosed
	}
	set := map[string]bool{}
	err := a.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(chunkBucket))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			set[string(k)] = true
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	for name, data := range a.staged {
		set[name] = data != nil
	}
	names := make([]string, 0, len(set))
	for name, present := range set {
		if present {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Close releases the file lock. Staged changes are discarded.
func (a *Archive) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	a.staged = nil
	_ = a.enc.Close()
	a.dec.Close()
	err := a.db.Close()
	a.db = nil
	return err
}

// Unlink closes and deletes the archive file.
func (a *Archive) Unlink() error {
	if a == nil {
		return nil
	}
	path := a.path
	if err := a.Close(); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove archive: %w", err)
	}
	return nil
}

func (a *Archive) writable(name string) error {
	if a == nil || a.db == nil {
		return ErrClosed
	}
	if a.readOnly {
		return ErrReadOnly
	}
	if name == "" || len(name) > MaxChunkName {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

func (a *Archive) ensureBuckets() error {
	return a.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(chunkBucket)); err != nil {
			return fmt.Errorf("create chunk bucket: %w", err)
		}
		return nil
	})
}
