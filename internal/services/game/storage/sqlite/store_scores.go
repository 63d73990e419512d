package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/undercroft/internal/services/game/domain/score"
	"github.com/louisbranch/undercroft/internal/services/game/storage"
)

const maxBusyRetries = 3

// ErrDuplicateEntry reports an entry whose id is already on the table.
var ErrDuplicateEntry = errors.New("score entry already recorded")

var _ storage.ScoreStore = (*Store)(nil)

// Record appends e to the logfile and, when it is scored, inserts it into
// the high-score table. Entries pushed below the table size are pruned.
// The returned rank is 1-based; 0 means e is not on the table.
func (s *Store) Record(ctx context.Context, e score.Entry) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(e.Name) == "" {
		return 0, fmt.Errorf("entry name is required")
	}

	var rank int
	var err error
	for attempt := 0; ; attempt++ {
		rank, err = s.record(ctx, e)
		if err == nil || !isSQLiteBusyError(err) || attempt >= maxBusyRetries {
			break
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 25 * time.Millisecond):
		}
	}
	return rank, err
}

func (s *Store) record(ctx context.Context, e score.Entry) (int, error) {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin record: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	line := e.Logline()
	id := e.ID.String()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO logfile (id, scored, written_at, logline) VALUES (?, ?, ?, ?)`,
		id, e.Scored(), toMillis(s.now()), line,
	); err != nil {
		return 0, fmt.Errorf("append logfile: %w", err)
	}

	rank := 0
	if e.Scored() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO scores (id, game_id, name, points, xl, place, method, ended_at, logline)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, e.GameID.String(), e.Name, e.Points, e.XL, e.Place.String(), e.Method.String(), toMillis(e.End), line,
		); err != nil {
			if isConstraintError(err) {
				return 0, fmt.Errorf("%w: %s", ErrDuplicateEntry, id)
			}
			return 0, fmt.Errorf("insert score: %w", err)
		}

		// Ties go to the earlier game.
		var better int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM scores WHERE points > ? OR (points = ? AND ended_at < ?)`,
			e.Points, e.Points, toMillis(e.End),
		).Scan(&better); err != nil {
			return 0, fmt.Errorf("rank score: %w", err)
		}
		if better < s.maxEntries {
			rank = better + 1
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM scores WHERE id NOT IN (
				SELECT id FROM scores ORDER BY points DESC, ended_at ASC LIMIT ?
			)`, s.maxEntries,
		); err != nil {
			return 0, fmt.Errorf("prune scores: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit record: %w", err)
	}
	return rank, nil
}

// Top returns up to limit high-score entries, best first.
func (s *Store) Top(ctx context.Context, limit int) ([]score.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 || limit > s.maxEntries {
		limit = s.maxEntries
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT logline FROM scores ORDER BY points DESC, ended_at ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	defer rows.Close()

	var entries []score.Entry
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		e, err := score.EntryFromLogline(line)
		if err != nil {
			return nil, fmt.Errorf("decode score: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read scores: %w", err)
	}
	return entries, nil
}

// Get returns the high-score entry with the given id.
func (s *Store) Get(ctx context.Context, id string) (score.Entry, error) {
	if err := ctx.Err(); err != nil {
		return score.Entry{}, err
	}
	if s == nil || s.sqlDB == nil {
		return score.Entry{}, fmt.Errorf("storage is not configured")
	}
	var line string
	err := s.sqlDB.QueryRowContext(ctx, `SELECT logline FROM scores WHERE id = ?`, id).Scan(&line)
	if errors.Is(err, sql.ErrNoRows) {
		return score.Entry{}, storage.ErrNotFound
	}
	if err != nil {
		return score.Entry{}, fmt.Errorf("get score: %w", err)
	}
	e, err := score.EntryFromLogline(line)
	if err != nil {
		return score.Entry{}, fmt.Errorf("decode score: %w", err)
	}
	return e, nil
}

// Logfile returns every logline in write order.
func (s *Store) Logfile(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT logline FROM logfile ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list logfile: %w", err)
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, fmt.Errorf("scan logline: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read logfile: %w", err)
	}
	return lines, nil
}
