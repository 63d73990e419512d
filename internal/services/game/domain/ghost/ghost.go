// Package ghost holds the snapshot of a dead character that bones files
// carry into later games.
package ghost

import (
	"errors"
	"fmt"

	"github.com/louisbranch/undercroft/internal/services/game/domain/level"
	"github.com/louisbranch/undercroft/internal/services/game/domain/player"
)

// Limits enforced on decoded records.
const (
	MaxGhosts  = 10
	MaxHP      = 400
	MaxDamage  = 50
	maxNameLen = 80
	minSpeed   = 2
	maxSpeed   = 30
)

// ErrInvalid reports a ghost that fails the sanity checks.
var ErrInvalid = errors.New("invalid ghost")

// Record is the combat-relevant state of a dead character.
type Record struct {
	Name     string
	Species  player.Species
	Job      string
	Religion player.God
	XL       int
	MaxHP    int
	AC       int
	EV       int
	Damage   int
	Speed    int
	Resists  player.Resists
	Flies    bool
	// SeeInvisible is kept from the character's equipment.
	SeeInvisible bool
}

// FromPlayer snapshots p.
func FromPlayer(p *player.Player) Record {
	return Record{
		Name:     p.Name,
		Species:  p.Species,
		Job:      p.Job,
		Religion: p.Religion,
		XL:       p.XL,
		MaxHP:    clamp(p.HPMax, 1, MaxHP),
		AC:       p.XL / 3,
		EV:       p.XL / 2,
		Damage:   clamp(5+p.XL, 5, MaxDamage),
		Speed:    player.BaselineDelay,
		Resists:  p.Resists,
		Flies:    p.Airborne,
	}
}

// Validate checks that r could belong to a real character.
func (r Record) Validate() error {
	switch {
	case r.Name == "" || len(r.Name) > maxNameLen:
		return fmt.Errorf("%w: name length %d", ErrInvalid, len(r.Name))
	case !r.Species.Valid():
		return fmt.Errorf("%w: species %d", ErrInvalid, r.Species)
	case !r.Religion.Valid():
		return fmt.Errorf("%w: god %d", ErrInvalid, r.Religion)
	case r.XL < 1 || r.XL > player.MaxXL:
		return fmt.Errorf("%w: experience level %d", ErrInvalid, r.XL)
	case r.MaxHP < 1 || r.MaxHP > MaxHP:
		return fmt.Errorf("%w: max hp %d", ErrInvalid, r.MaxHP)
	case r.Damage < 0 || r.Damage > MaxDamage:
		return fmt.Errorf("%w: damage %d", ErrInvalid, r.Damage)
	case r.Speed < minSpeed || r.Speed > maxSpeed:
		return fmt.Errorf("%w: speed %d", ErrInvalid, r.Speed)
	}
	return nil
}

// Undead species leave no ghost.
func Undead(s player.Species) bool { return s == player.SpeciesMummy }

// ToMonster turns r into a hostile player ghost at pos. The record is
// kept on the monster so it can be saved again.
func ToMonster(r Record, pos level.Coord) *level.Monster {
	return &level.Monster{
		Kind:  level.KindPlayerGhost,
		Name:  "the ghost of " + r.Name,
		Pos:   pos,
		HP:    r.MaxHP,
		MaxHP: r.MaxHP,
		XL:    r.XL,
		Speed: r.Speed,
		Flags: level.FlagNoStairs,
		Ghost: EncodeRecord(r),
	}
}

// Find collects the ghosts to save when p dies on l: p itself unless
// undead, then every living player ghost already on the level.
func Find(p *player.Player, l *level.Level) []Record {
	var out []Record
	if !Undead(p.Species) {
		out = append(out, FromPlayer(p))
	}
	if l == nil {
		return out
	}
	for _, m := range l.Monsters {
		if len(out) >= MaxGhosts {
			break
		}
		if m.Kind != level.KindPlayerGhost || !m.Alive() || len(m.Ghost) == 0 {
			continue
		}
		rec, err := DecodeRecord(m.Ghost)
		if err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
