// Package persist moves the player between levels and keeps the running
// game in its save archive.
//
// The current level lives in memory on the session; every other level the
// player has seen is a chunk in the archive keyed by its level id. Chunk
// writes are staged until SaveGame or Checkpoint commits them.
package persist

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	apperrors "github.com/louisbranch/undercroft/internal/platform/errors"
	"github.com/louisbranch/undercroft/internal/platform/otel"
	"github.com/louisbranch/undercroft/internal/services/game/domain/level"
	"github.com/louisbranch/undercroft/internal/services/game/domain/player"
	"github.com/louisbranch/undercroft/internal/services/game/domain/score"
	"github.com/louisbranch/undercroft/internal/services/game/domain/session"
)

// Config configures a Manager.
type Config struct {
	// MorgueDir receives character dumps and morgue files. Empty disables
	// both.
	MorgueDir string
}

// Manager persists one game session. It implements session.Checkpointer
// and session.Ender.
type Manager struct {
	s         *session.GameSession
	morgueDir string
	tracer    trace.Tracer
	now       func() time.Time
}

// New returns a manager for s.
func New(s *session.GameSession, cfg Config) *Manager {
	return &Manager{
		s:         s,
		morgueDir: strings.TrimSpace(cfg.MorgueDir),
		tracer:    otel.Tracer("persist"),
		now:       time.Now,
	}
}

func (m *Manager) archive() (session.Archive, error) {
	if m.s.Archive == nil {
		return nil, apperrors.New(apperrors.CodeArchiveNotWritten, "no save archive is open")
	}
	return m.s.Archive, nil
}

// writeState stages every chunk of the running game.
func (m *Manager) writeState() error {
	s := m.s
	a, err := m.archive()
	if err != nil {
		return err
	}
	if err := a.Write(session.ChunkPlayer, encodePlayerChunk(s.Player, s.Transit)); err != nil {
		return writeError(session.ChunkPlayer, err)
	}
	summary, err := player.EncodeSummary(player.Summarize(s.Player))
	if err != nil {
		return writeError(session.ChunkSummary, err)
	}
	if err := a.Write(session.ChunkSummary, summary); err != nil {
		return writeError(session.ChunkSummary, err)
	}
	if s.Level != nil && !s.Level.Deleted {
		if err := m.saveLevel(s.Level); err != nil {
			return err
		}
	}
	for _, c := range s.Chunks {
		data, err := c.Save()
		if err != nil {
			return writeError(c.ChunkName(), err)
		}
		if err := a.Write(c.ChunkName(), data); err != nil {
			return writeError(c.ChunkName(), err)
		}
	}
	return nil
}

func (m *Manager) commit() error {
	a, err := m.archive()
	if err != nil {
		return err
	}
	if err := a.Commit(); err != nil {
		return apperrors.Wrap(apperrors.CodeArchiveNotWritten, "commit save", err)
	}
	return nil
}

func (m *Manager) saveLevel(l *level.Level) error {
	a, err := m.archive()
	if err != nil {
		return err
	}
	l.ElapsedTime = m.s.Player.ElapsedTime
	name := l.ID.ChunkName()
	if err := a.Write(name, encodeLevelChunk(l)); err != nil {
		return writeError(name, err)
	}
	return nil
}

// Checkpoint commits the whole game so a crash cannot roll it back.
func (m *Manager) Checkpoint(ctx context.Context) error {
	_, span := m.tracer.Start(ctx, "persist.Checkpoint")
	defer span.End()
	if err := m.writeState(); err != nil {
		span.RecordError(err)
		return err
	}
	if err := m.commit(); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// SaveGame commits the game. When leaving, farewell is shown to the
// player; an empty farewell uses a default.
func (m *Manager) SaveGame(ctx context.Context, leaving bool, farewell string) error {
	s := m.s
	_, span := m.tracer.Start(ctx, "persist.SaveGame", trace.WithAttributes(
		attribute.Bool("leaving", leaving),
	))
	defer span.End()

	if s.Mode.Tutorial {
		s.Logger.Debug("tutorial games are not saved")
		return nil
	}
	if !s.NeedSave {
		s.Logger.Debug("game does not need saving", zap.String("name", s.Player.Name))
		return nil
	}
	if err := m.writeState(); err != nil {
		span.RecordError(err)
		return err
	}
	if err := m.commit(); err != nil {
		span.RecordError(err)
		return err
	}
	s.Logger.Info("game saved",
		zap.String("name", s.Player.Name),
		zap.String("level", s.Player.Place.String()),
		zap.Bool("leaving", leaving))

	if s.Options.DumpOnSave {
		if err := m.dumpCharacter(); err != nil {
			s.Logger.Warn("dump character", zap.Error(err))
		}
	}
	if leaving {
		if farewell == "" {
			farewell = fmt.Sprintf("See you soon, %s!", s.Player.Name)
		}
		s.Say(session.ChannelPlain, farewell)
	}
	return nil
}

// EndGame removes the save of a finished game and writes its morgue
// file.
func (m *Manager) EndGame(ctx context.Context, e score.Entry, rank int) error {
	s := m.s
	s.Logger.Info("game over",
		zap.String("name", e.Name),
		zap.Int64("points", e.Points),
		zap.Int("rank", rank),
		zap.String("cause", e.DeathDescription(score.Terse)))

	if err := m.writeMorgue(e, rank); err != nil {
		s.Logger.Warn("write morgue", zap.Error(err))
	}
	if u, ok := s.Archive.(interface{ Unlink() error }); ok {
		if err := u.Unlink(); err != nil {
			return fmt.Errorf("remove save: %w", err)
		}
	}
	s.Archive = nil
	return nil
}

func (m *Manager) writeMorgue(e score.Entry, rank int) error {
	if m.morgueDir == "" {
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", player.Summarize(m.s.Player).Describe())
	fmt.Fprintf(&b, "%s\n", e.DeathDescription(score.Verbose))
	if rank > 0 {
		fmt.Fprintf(&b, "Rank %d with %d points.\n", rank, e.Points)
	} else {
		fmt.Fprintf(&b, "%d points.\n", e.Points)
	}
	path := filepath.Join(m.morgueDir, score.MorgueName(e.Name, m.now())+".txt")
	return writeFile(path, b.String())
}

func (m *Manager) dumpCharacter() error {
	if m.morgueDir == "" {
		return nil
	}
	p := m.s.Player
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", player.Summarize(p).Describe())
	fmt.Fprintf(&b, "HP %d/%d MP %d/%d Turns %d\n", p.HP, p.HPMax, p.MP, p.MPMax, p.Turns)
	fmt.Fprintf(&b, "Levels seen %d, branches visited %d\n", p.Global.LevelsSeen, p.Global.NumVisits)
	name := strings.TrimSuffix(SaveFilename(p.Name), SaveExt) + ".txt"
	return writeFile(filepath.Join(m.morgueDir, name), b.String())
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
