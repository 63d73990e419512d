package persist

import (
	"context"
	"errors"

	"github.com/louisbranch/undercroft/internal/services/game/domain/level"
)

var errExcursionClosed = errors.New("excursion is closed")

// Excursion makes other levels current for cross-level work, then
// returns the session to the level it started on.
type Excursion struct {
	m      *Manager
	origin level.ID
	pos    level.Coord
	closed bool
}

// Excursion starts an excursion from the current level.
func (m *Manager) Excursion() *Excursion {
	p := m.s.Player
	return &Excursion{m: m, origin: p.Place, pos: p.Pos}
}

// GoTo saves the current level and loads id as a visitor. Levels that
// were never generated cannot be visited.
func (e *Excursion) GoTo(ctx context.Context, id level.ID) error {
	if e.closed {
		return errExcursionClosed
	}
	s := e.m.s
	if s.Level != nil && s.Level.ID == id {
		return nil
	}
	if s.Level != nil {
		if err := e.m.saveLevel(s.Level); err != nil {
			return err
		}
	}
	prev := s.Player.Place
	s.Player.Place = id
	if _, err := e.m.LoadLevel(ctx, level.FeatUnseen, Visitor, level.Unset); err != nil {
		s.Player.Place = prev
		return err
	}
	return nil
}

// Close returns to the starting level. It is safe to call twice.
func (e *Excursion) Close(ctx context.Context) error {
	if e.closed {
		return nil
	}
	err := e.GoTo(ctx, e.origin)
	e.closed = true
	e.m.s.Player.Place = e.origin
	e.m.s.Player.Pos = e.pos
	return err
}
