package persist

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	apperrors "github.com/louisbranch/undercroft/internal/platform/errors"
	"github.com/louisbranch/undercroft/internal/services/game/domain/level"
	"github.com/louisbranch/undercroft/internal/services/game/domain/player"
	"github.com/louisbranch/undercroft/internal/services/game/domain/session"
	"github.com/louisbranch/undercroft/internal/services/game/storage/archive"
)

const (
	// SaveExt is the suffix of save archives.
	SaveExt = ".cs"
	// maxBaseName bounds the character part of a save file name, in bytes.
	maxBaseName = 250
)

// SaveFilename is the archive file name for a character.
func SaveFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	base := b.String()
	if base == "" {
		base = "nameless"
	}
	for len(base) > maxBaseName {
		_, size := utf8.DecodeLastRuneInString(base)
		base = base[:len(base)-size]
	}
	return base + SaveExt
}

// OpenArchive opens the save at path, reporting failures as coded errors.
func OpenArchive(path string, create bool, lockTimeout time.Duration) (*archive.Archive, error) {
	a, err := archive.Open(path, archive.Options{Create: create, LockTimeout: lockTimeout})
	if err != nil {
		return nil, apperrors.WrapWithMetadata(codeFor(err, apperrors.CodeUnknown), "open save",
			map[string]string{"path": path}, err)
	}
	return a, nil
}

// ListSavedCharacters reads the summary of every save in dir. Saves that
// are locked or unreadable are skipped.
func ListSavedCharacters(dir string) ([]player.Summary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read save directory: %w", err)
	}
	var out []player.Summary
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != SaveExt {
			continue
		}
		sum, err := readSummary(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		out = append(out, sum)
	}
	return out, nil
}

func readSummary(path string) (player.Summary, error) {
	a, err := archive.Open(path, archive.Options{ReadOnly: true})
	if err != nil {
		return player.Summary{}, err
	}
	defer a.Close()
	data, err := a.Read(session.ChunkSummary)
	if err != nil {
		return player.Summary{}, err
	}
	return player.DecodeSummary(data)
}

// RestoreGame rebuilds the session from its open archive and reloads the
// level the player saved on.
func (m *Manager) RestoreGame(ctx context.Context) error {
	s := m.s
	ctx, span := m.tracer.Start(ctx, "persist.RestoreGame")
	defer span.End()

	fail := func(err error) error {
		span.RecordError(err)
		return err
	}
	if s.Archive == nil {
		return fail(apperrors.New(apperrors.CodeArchiveNotFound, "no save archive is open"))
	}

	data, err := s.Archive.Read(session.ChunkPlayer)
	if err != nil {
		return fail(chunkError(session.ChunkPlayer, err))
	}
	p, transit, err := decodePlayerChunk(data)
	if err != nil {
		return fail(chunkError(session.ChunkPlayer, err))
	}
	s.Player = p
	s.Transit = transit

	for _, c := range s.Chunks {
		name := c.ChunkName()
		if !s.Archive.Has(name) {
			continue
		}
		data, err := s.Archive.Read(name)
		if err != nil {
			return fail(chunkError(name, err))
		}
		if err := c.Load(data); err != nil {
			return fail(chunkError(name, err))
		}
	}

	if _, err := m.LoadLevel(ctx, level.FeatUnseen, RestartGame, level.Unset); err != nil {
		return fail(err)
	}
	// Saved between a lost life and the next turn.
	if p.PendingRevival {
		p.Revive()
		s.Logger.Debug("revival completed on restore", zap.Int("lives", p.Lives))
	}
	s.NeedSave = true
	span.SetAttributes(attribute.String("level", p.Place.String()))
	s.Logger.Info("game restored",
		zap.String("name", p.Name),
		zap.String("level", p.Place.String()),
		zap.Int("transit", len(transit)))
	return nil
}
