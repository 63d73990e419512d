// Package bones writes and reads the ghost files that dead characters
// leave for later games.
//
// Each level has a pool of up to Limit files named bones.<level>_<slot>.
// Writers claim a slot by exclusive create plus flock and fall over to the
// next slot on contention. Readers pick one file at random, delete it, and
// return whatever valid ghosts it held.
package bones

import (
	"context"
	"errors"
	"fmt"

	"github.com/zyedidia/generic/mapset"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/louisbranch/undercroft/internal/platform/otel"
	"github.com/louisbranch/undercroft/internal/random"
	"github.com/louisbranch/undercroft/internal/services/game/domain/ghost"
	"github.com/louisbranch/undercroft/internal/services/game/domain/level"
)

// Limit is the number of bones files kept per level.
const Limit = 27

const filePrefix = "bones."

var (
	// ErrPoolFull reports that a level already has Limit bones files or no
	// slot could be claimed.
	ErrPoolFull = errors.New("bones pool is full")
	// ErrIneligible reports a level that never receives ghosts.
	ErrIneligible = errors.New("level does not take ghosts")
)

// BaseName is the pool prefix for id, and the legacy file name.
func BaseName(id level.ID) string { return filePrefix + id.FileSafe() }

// SlotName is the file name of slot on id.
func SlotName(id level.ID, slot int) string { return fmt.Sprintf("%s_%d", BaseName(id), slot) }

var noGhostBranches = func() mapset.Set[level.Branch] {
	s := mapset.New[level.Branch]()
	for b := level.Branch(0); b < level.BranchCount; b++ {
		if b.Info().NoGhosts {
			s.Put(b)
		}
	}
	return s
}()

// Eligible reports whether ghosts may be saved on id. The first two
// dungeon levels and the no-ghost branches are excluded unless forced.
func Eligible(id level.ID, force bool) bool {
	if force {
		return true
	}
	if noGhostBranches.Has(id.Branch) {
		return false
	}
	return !(id.Branch == level.BranchDungeon && id.Depth < 3)
}

// Manager saves and loads ghosts through a slot pool.
type Manager struct {
	pool Pool
	// legacy holds single-file bones from before pooling; may be nil.
	legacy Pool
	rng    *random.RNG
	logger *zap.Logger
	tracer trace.Tracer
}

// NewManager wires a manager. legacy may be nil.
func NewManager(pool Pool, legacy Pool, rng *random.RNG, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rng == nil {
		seed, _ := random.NewSeed()
		rng = random.New(seed)
	}
	return &Manager{
		pool:   pool,
		legacy: legacy,
		rng:    rng,
		logger: logger.Named("bones"),
		tracer: otel.Tracer("bones"),
	}
}

type fileRef struct {
	pool Pool
	name string
}

// files lists the bones files for id, legacy file last.
func (m *Manager) files(id level.ID) ([]fileRef, error) {
	names, err := m.pool.List(BaseName(id) + "_")
	if err != nil {
		return nil, err
	}
	refs := make([]fileRef, 0, len(names)+1)
	for _, n := range names {
		refs = append(refs, fileRef{pool: m.pool, name: n})
	}
	if m.legacy == nil {
		return refs, nil
	}
	legacy, err := m.legacy.List(BaseName(id))
	if err != nil {
		m.logger.Warn("list legacy bones", zap.Error(err))
		return refs, nil
	}
	for _, n := range legacy {
		if n == BaseName(id) {
			m.logger.Debug("found legacy bones file", zap.String("file", n))
			refs = append(refs, fileRef{pool: m.legacy, name: n})
		}
	}
	return refs, nil
}

// Count reports how many bones files id has.
func (m *Manager) Count(id level.ID) (int, error) {
	refs, err := m.files(id)
	return len(refs), err
}

// Save writes ghosts to a free slot on id and returns the file name.
func (m *Manager) Save(ctx context.Context, id level.ID, ghosts []ghost.Record, force bool) (string, error) {
	_, span := m.tracer.Start(ctx, "bones.Save", trace.WithAttributes(
		attribute.String("level", id.String()),
		attribute.Int("ghosts", len(ghosts)),
	))
	defer span.End()

	if len(ghosts) == 0 {
		m.logger.Debug("no ghosts for level", zap.String("level", id.String()))
		return "", nil
	}
	if !Eligible(id, force) {
		return "", fmt.Errorf("%w: %s", ErrIneligible, id)
	}
	refs, err := m.files(id)
	if err != nil {
		return "", fmt.Errorf("list bones: %w", err)
	}
	if len(refs) >= Limit {
		return "", fmt.Errorf("%w: %s has %d files", ErrPoolFull, id, len(refs))
	}

	names := make([]string, Limit)
	for i := range names {
		names[i] = SlotName(id, i)
	}
	slot, ok := TryAcquireSlot(m.pool, names)
	if !ok {
		return "", fmt.Errorf("%w: no free slot on %s", ErrPoolFull, id)
	}
	if _, err := slot.Write(Encode(ghosts)); err != nil {
		_ = slot.Discard()
		return "", fmt.Errorf("write bones: %w", err)
	}
	if err := slot.Close(); err != nil {
		m.logger.Warn("close bones file", zap.String("file", slot.Name()), zap.Error(err))
	}
	m.logger.Debug("saved ghosts", zap.String("file", slot.Name()), zap.Int("ghosts", len(ghosts)))
	return slot.Name(), nil
}

// Load consumes one random bones file for id. Incompatible and corrupt
// files are deleted and yield no ghosts; empty files and files still held
// by a writer are left alone. Invalid ghosts are dropped. Only listing
// failures are returned as errors.
func (m *Manager) Load(ctx context.Context, id level.ID) ([]ghost.Record, error) {
	_, span := m.tracer.Start(ctx, "bones.Load", trace.WithAttributes(attribute.String("level", id.String())))
	defer span.End()

	refs, err := m.files(id)
	if err != nil {
		return nil, fmt.Errorf("list bones: %w", err)
	}
	if len(refs) == 0 {
		return nil, nil
	}
	ref := refs[m.rng.Random2(len(refs))]
	log := m.logger.With(zap.String("file", ref.name))

	data, err := ref.pool.Read(ref.name)
	if err != nil {
		if errors.Is(err, ErrSlotTaken) {
			log.Debug("bones file still being written")
		} else {
			log.Debug("bones file invalidated before read", zap.Error(err))
		}
		return nil, nil
	}
	// An empty file may be a slot created but not yet locked by its writer.
	if len(data) == 0 {
		log.Debug("empty bones file left in place")
		return nil, nil
	}
	if err := ref.pool.Remove(ref.name); err != nil {
		log.Warn("remove bones file", zap.Error(err))
	}

	ghosts, err := Decode(data)
	if err != nil {
		if errors.Is(err, ErrIncompatible) {
			log.Debug("skipping incompatible bones file", zap.Error(err))
		} else {
			log.Warn("broken bones file", zap.Error(err))
		}
		return nil, nil
	}
	valid := ghosts[:0]
	for _, g := range ghosts {
		if err := g.Validate(); err != nil {
			log.Warn("refusing to load invalid ghost", zap.Error(err))
			continue
		}
		valid = append(valid, g)
	}
	log.Debug("loaded ghosts", zap.Int("ghosts", len(valid)))
	span.SetAttributes(attribute.Int("ghosts", len(valid)))
	return valid, nil
}
