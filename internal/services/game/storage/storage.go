package storage

import (
	"context"

	apperrors "github.com/louisbranch/undercroft/internal/platform/errors"
	"github.com/louisbranch/undercroft/internal/services/game/domain/score"
)

// ErrNotFound indicates a requested persistence record is missing.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// ScoreStore keeps finished games.
//
// Every finished game is appended to the logfile. Only scored games, those
// outside wizard and explore mode, compete for a place on the high-score
// table, which holds at most a fixed number of entries.
type ScoreStore interface {
	// Record stores e and returns its rank on the high-score table, or 0
	// when it did not make the table.
	Record(ctx context.Context, e score.Entry) (int, error)
	// Top returns up to limit high-score entries, best first.
	Top(ctx context.Context, limit int) ([]score.Entry, error)
	// Get returns the high-score entry with the given id.
	Get(ctx context.Context, id string) (score.Entry, error)
	// Logfile returns every logline in the order it was written.
	Logfile(ctx context.Context) ([]string, error)
}
