package bones

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sys/unix"
)

// ErrSlotTaken reports that a slot already exists or is locked by another
// writer.
var ErrSlotTaken = errors.New("bones slot is taken")

// Slot is an exclusively held, newly created bones file.
type Slot interface {
	io.Writer
	Name() string
	// Close releases the lock and keeps the file.
	Close() error
	// Discard releases the lock and removes the file.
	Discard() error
}

// Pool is a directory of bones files.
type Pool interface {
	// List returns the names in the pool starting with prefix, sorted.
	List(prefix string) ([]string, error)
	// Create makes name exclusively, failing with ErrSlotTaken if it
	// exists or cannot be locked.
	Create(name string) (Slot, error)
	Read(name string) ([]byte, error)
	Remove(name string) error
}

// TryAcquireSlot claims the first free slot among names.
func TryAcquireSlot(pool Pool, names []string) (Slot, bool) {
	for _, name := range names {
		slot, err := pool.Create(name)
		if err != nil {
			continue
		}
		return slot, true
	}
	return nil, false
}

// DirPool keeps bones files in a directory, guarding creation with
// O_EXCL and an advisory flock.
type DirPool struct {
	dir string
}

// NewDirPool returns a pool rooted at dir, creating it if needed.
func NewDirPool(dir string) (*DirPool, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("bones directory is required")
	}
	dir = filepath.Clean(dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create bones directory: %w", err)
	}
	return &DirPool{dir: dir}, nil
}

// Dir returns the pool directory.
func (p *DirPool) Dir() string { return p.dir }

func (p *DirPool) List(prefix string) ([]string, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list bones: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasPrefix(e.Name(), prefix) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (p *DirPool) Create(name string) (Slot, error) {
	path := filepath.Join(p.dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o666)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%w: %s", ErrSlotTaken, name)
		}
		return nil, fmt.Errorf("create bones file: %w", err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: lock %s: %v", ErrSlotTaken, name, err)
	}
	return &fileSlot{f: f, name: name}, nil
}

func (p *DirPool) Read(name string) ([]byte, error) {
	f, err := os.Open(filepath.Join(p.dir, name))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	// A writer still holding the slot has not finished the file.
	if err := unix.Flock(int(f.Fd()), unix.LOCK_SH|unix.LOCK_NB); err != nil {
		return nil, fmt.Errorf("%w: %s is being written", ErrSlotTaken, name)
	}
	defer unix.Flock(int(f.Fd()), unix.LOCK_UN) //nolint:errcheck
	return io.ReadAll(f)
}

func (p *DirPool) Remove(name string) error {
	err := os.Remove(filepath.Join(p.dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove bones file: %w", err)
	}
	return nil
}

type fileSlot struct {
	f    *os.File
	name string
}

func (s *fileSlot) Name() string { return s.name }

func (s *fileSlot) Write(b []byte) (int, error) { return s.f.Write(b) }

func (s *fileSlot) Close() error {
	unlockErr := unix.Flock(int(s.f.Fd()), unix.LOCK_UN)
	if err := s.f.Close(); err != nil {
		return fmt.Errorf("close bones file: %w", err)
	}
	if unlockErr != nil {
		return fmt.Errorf("unlock bones file: %w", unlockErr)
	}
	return nil
}

func (s *fileSlot) Discard() error {
	path := s.f.Name()
	_ = s.Close()
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove bones file: %w", err)
	}
	return nil
}

// MemoryPool is an in-process Pool for tests.
type MemoryPool struct {
	mu      sync.Mutex
	files   map[string][]byte
	held    map[string]bool
	blocked map[string]bool
}

// NewMemoryPool returns an empty pool.
func NewMemoryPool() *MemoryPool {
	return &MemoryPool{files: map[string][]byte{}, held: map[string]bool{}, blocked: map[string]bool{}}
}

// Block makes Create fail for name as if another process held it.
func (p *MemoryPool) Block(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.blocked[name] = true
}

// Put stores a finished file directly.
func (p *MemoryPool) Put(name string, data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.files[name] = append([]byte(nil), data...)
}

// Files returns a copy of the pool contents.
func (p *MemoryPool) Files() map[string][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string][]byte, len(p.files))
	for k, v := range p.files {
		out[k] = append([]byte(nil), v...)
	}
	return out
}

func (p *MemoryPool) List(prefix string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var names []string
	for name := range p.files {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (p *MemoryPool) Create(name string) (Slot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.files[name]; ok || p.blocked[name] || p.held[name] {
		return nil, fmt.Errorf("%w: %s", ErrSlotTaken, name)
	}
	p.files[name] = nil
	p.held[name] = true
	return &memorySlot{pool: p, name: name}, nil
}

func (p *MemoryPool) Read(name string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.held[name] {
		return nil, fmt.Errorf("%w: %s is being written", ErrSlotTaken, name)
	}
	data, ok := p.files[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, os.ErrNotExist)
	}
	return append([]byte(nil), data...), nil
}

func (p *MemoryPool) Remove(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.files, name)
	return nil
}

type memorySlot struct {
	pool *MemoryPool
	name string
	buf  bytes.Buffer
}

func (s *memorySlot) Name() string { return s.name }

func (s *memorySlot) Write(b []byte) (int, error) { return s.buf.Write(b) }

func (s *memorySlot) Close() error {
	s.pool.mu.Lock()
	defer s.pool.mu.Unlock()
	s.pool.files[s.name] = append([]byte(nil), s.buf.Bytes()...)
	delete(s.pool.held, s.name)
	return nil
}

func (s *memorySlot) Discard() error {
	s.pool.mu.Lock()
	defer s.pool.mu.Unlock()
	delete(s.pool.files, s.name)
	delete(s.pool.held, s.name)
	return nil
}
