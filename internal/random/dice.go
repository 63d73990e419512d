package random

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrMissingDice indicates an empty dice expression.
	ErrMissingDice = errors.New("at least one die is required")
	// ErrInvalidDiceSpec indicates non-positive sides or count.
	ErrInvalidDiceSpec = errors.New("dice must have positive sides and count")
)

// Dice describes Count dice with Sides faces each, plus a flat Bonus.
type Dice struct {
	Count int
	Sides int
	Bonus int
}

func (d Dice) String() string {
	switch {
	case d.Bonus > 0:
		return fmt.Sprintf("%dd%d+%d", d.Count, d.Sides, d.Bonus)
	case d.Bonus < 0:
		return fmt.Sprintf("%dd%d%d", d.Count, d.Sides, d.Bonus)
	}
	return fmt.Sprintf("%dd%d", d.Count, d.Sides)
}

// ParseDice reads expressions such as "3d6", "d8" and "2d4+1".
func ParseDice(expr string) (Dice, error) {
	expr = strings.ToLower(strings.TrimSpace(expr))
	if expr == "" {
		return Dice{}, ErrMissingDice
	}
	countText, rest, ok := strings.Cut(expr, "d")
	if !ok {
		return Dice{}, fmt.Errorf("parse dice %q: missing 'd'", expr)
	}
	d := Dice{Count: 1}
	if countText != "" {
		n, err := strconv.Atoi(countText)
		if err != nil {
			return Dice{}, fmt.Errorf("parse dice %q: %w", expr, err)
		}
		d.Count = n
	}
	sidesText := rest
	if i := strings.IndexAny(rest, "+-"); i >= 0 {
		sidesText = rest[:i]
		bonus, err := strconv.Atoi(rest[i:])
		if err != nil {
			return Dice{}, fmt.Errorf("parse dice %q: %w", expr, err)
		}
		d.Bonus = bonus
	}
	sides, err := strconv.Atoi(sidesText)
	if err != nil {
		return Dice{}, fmt.Errorf("parse dice %q: %w", expr, err)
	}
	d.Sides = sides
	if d.Count <= 0 || d.Sides <= 0 {
		return Dice{}, ErrInvalidDiceSpec
	}
	return d, nil
}

// Roll rolls d and returns the total, never below zero.
func (r *RNG) Roll(d Dice) (int, error) {
	if d.Count <= 0 || d.Sides <= 0 {
		return 0, ErrInvalidDiceSpec
	}
	total := d.Bonus
	for i := 0; i < d.Count; i++ {
		total += r.Random2(d.Sides) + 1
	}
	if total < 0 {
		total = 0
	}
	return total, nil
}
