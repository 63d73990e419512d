// Package level models dungeon levels: identities, features, the map and
// its monsters, the excursion stack and per-branch statistics.
package level

import "errors"

// ErrOutOfBounds indicates a coordinate outside the map.
var ErrOutOfBounds = errors.New("coordinate out of bounds")

// Default map size.
const (
	Width  = 80
	Height = 70
)

// Item is an object lying on the floor.
type Item struct {
	Pos    Coord
	Name   string
	Corpse bool
	// Skeleton is set once a corpse has rotted.
	Skeleton bool
}

// Cloud is a short-lived cloud of smoke, fog or similar.
type Cloud struct {
	Pos      Coord
	Kind     string
	Duration int
}

// Level is the full state of one level.
type Level struct {
	ID     ID
	Width  int
	Height int
	Grid   []Feature

	Monsters []*Monster
	Items    []Item
	Clouds   []Cloud

	// ElapsedTime is the game time when the level was last left.
	ElapsedTime  int
	TurnsOnLevel int
	NextMID      MID

	// Deleted marks the level for removal instead of saving on exit. It
	// is never persisted.
	Deleted bool
}

// New returns a level filled with wall.
func New(id ID, width, height int) *Level {
	lvl := &Level{ID: id, Width: width, Height: height, Grid: make([]Feature, width*height), NextMID: firstMonsterMID}
	for i := range lvl.Grid {
		lvl.Grid[i] = FeatWall
	}
	return lvl
}

// InBounds reports whether c lies inside the map border.
func (l *Level) InBounds(c Coord) bool {
	return c.X > 0 && c.Y > 0 && c.X < l.Width-1 && c.Y < l.Height-1
}

// Centre is the middle of the map.
func (l *Level) Centre() Coord { return Coord{l.Width / 2, l.Height / 2} }

// At returns the feature at c, FeatWall when out of bounds.
func (l *Level) At(c Coord) Feature {
	if c.X < 0 || c.Y < 0 || c.X >= l.Width || c.Y >= l.Height {
		return FeatWall
	}
	return l.Grid[c.Y*l.Width+c.X]
}

// SetFeature changes the feature at c.
func (l *Level) SetFeature(c Coord, f Feature) error {
	if c.X < 0 || c.Y < 0 || c.X >= l.Width || c.Y >= l.Height {
		return ErrOutOfBounds
	}
	l.Grid[c.Y*l.Width+c.X] = f
	return nil
}

// Find returns every cell holding f in row-major order.
func (l *Level) Find(f Feature) []Coord {
	var out []Coord
	for i, g := range l.Grid {
		if g == f {
			out = append(out, Coord{i % l.Width, i / l.Width})
		}
	}
	return out
}

// Nearest returns the cell holding f closest to from. Ties go to the
// first in row-major order.
func (l *Level) Nearest(f Feature, from Coord) (Coord, bool) {
	best, found := Coord{}, false
	for _, c := range l.Find(f) {
		if !found || c.Distance(from) < best.Distance(from) {
			best, found = c, true
		}
	}
	return best, found
}

// MonsterAt returns the live monster at c.
func (l *Level) MonsterAt(c Coord) *Monster {
	for _, m := range l.Monsters {
		if m.Pos == c && m.Alive() {
			return m
		}
	}
	return nil
}

// Monster finds a live monster by MID.
func (l *Level) Monster(mid MID) *Monster {
	if mid == MIDNobody || mid == MIDPlayer {
		return nil
	}
	for _, m := range l.Monsters {
		if m.MID == mid && m.Alive() {
			return m
		}
	}
	return nil
}

// AddMonster places m, assigning a fresh MID when it has none or when its
// MID is already taken here.
func (l *Level) AddMonster(m *Monster) *Monster {
	if m.MID == MIDNobody || l.Monster(m.MID) != nil {
		if l.NextMID < firstMonsterMID {
			l.NextMID = firstMonsterMID
		}
		m.MID = l.NextMID
		l.NextMID++
	} else if m.MID >= l.NextMID {
		l.NextMID = m.MID + 1
	}
	l.Monsters = append(l.Monsters, m)
	return m
}

// RemoveMonster drops m from the level.
func (l *Level) RemoveMonster(mid MID) *Monster {
	for i, m := range l.Monsters {
		if m.MID == mid {
			l.Monsters = append(l.Monsters[:i], l.Monsters[i+1:]...)
			return m
		}
	}
	return nil
}

// AddCloud puts a cloud at c, replacing any cloud already there.
func (l *Level) AddCloud(c Cloud) {
	for i := range l.Clouds {
		if l.Clouds[i].Pos == c.Pos {
			l.Clouds[i] = c
			return
		}
	}
	l.Clouds = append(l.Clouds, c)
}

// ClearClouds removes every cloud.
func (l *Level) ClearClouds() { l.Clouds = nil }
