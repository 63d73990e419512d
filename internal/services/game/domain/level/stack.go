package level

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDuplicateOnStack is a consistency violation: a level may appear on the
// excursion stack at most once.
var ErrDuplicateOnStack = errors.New("level already on stack")

// Pos is a level plus a position on it.
type Pos struct {
	ID  ID
	Pos Coord
}

// Stack records the levels to return to from nested excursions into
// portal branches. The zero value is empty.
type Stack struct {
	entries []Pos
}

// Len reports the stack depth.
func (s *Stack) Len() int { return len(s.entries) }

// Push adds p on top, rejecting a level already present.
func (s *Stack) Push(p Pos) error {
	if s.Contains(p.ID) {
		return fmt.Errorf("%w: %s (stack: %s)", ErrDuplicateOnStack, p.ID, s)
	}
	s.entries = append(s.entries, p)
	return nil
}

// Top returns the most recent entry.
func (s *Stack) Top() (Pos, bool) {
	if len(s.entries) == 0 {
		return Pos{}, false
	}
	return s.entries[len(s.entries)-1], true
}

// Pop removes and returns the top entry.
func (s *Stack) Pop() (Pos, bool) {
	top, ok := s.Top()
	if ok {
		s.entries = s.entries[:len(s.entries)-1]
	}
	return top, ok
}

// Contains reports whether id is anywhere on the stack.
func (s *Stack) Contains(id ID) bool {
	for _, e := range s.entries {
		if e.ID == id {
			return true
		}
	}
	return false
}

// Entries returns a copy, bottom first.
func (s *Stack) Entries() []Pos {
	return append([]Pos(nil), s.entries...)
}

func (s *Stack) String() string {
	names := make([]string, len(s.entries))
	for i, e := range s.entries {
		names[i] = e.ID.String()
	}
	return strings.Join(names, ", ")
}
