package score

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/louisbranch/undercroft/internal/services/game/domain/level"
	"github.com/louisbranch/undercroft/internal/services/game/domain/player"
)

// WinBonus is added to the points of a character that escaped.
const WinBonus = 250000

// Entry is one finished game. It is built once at death and never
// mutated.
type Entry struct {
	ID      ulid.ULID
	GameID  uuid.UUID
	Name    string
	Species player.Species
	Job     string
	God     player.God
	XL      int
	Place   level.ID
	Points  int64

	Damage int
	HP     int
	HPMax  int
	Method KillMethod
	Source level.MID
	// Killer names the responsible monster, already resolved by the
	// caller since the monster may be gone.
	Killer string
	Aux    string

	Turns   int
	Start   time.Time
	End     time.Time
	Lives   int
	Deaths  int
	Wizard  bool
	Explore bool
}

// Death describes the damage that ended the game.
type Death struct {
	Damage int
	Method KillMethod
	Source level.MID
	Killer string
	Aux    string
}

// NewEntry records p's ending at now.
func NewEntry(p *player.Player, d Death, now time.Time) Entry {
	if !d.Method.Valid() {
		d.Method = KilledBySomething
	}
	if d.Method.MonsterCaused() && strings.TrimSpace(d.Killer) == "" {
		d.Killer = "something"
	}
	e := Entry{
		ID:      ulid.MustNew(ulid.Timestamp(now), rand.Reader),
		GameID:  p.GameID,
		Name:    p.Name,
		Species: p.Species,
		Job:     p.Job,
		God:     p.Religion,
		XL:      p.XL,
		Place:   p.Place,
		Damage:  d.Damage,
		HP:      p.HP,
		HPMax:   p.HPMax,
		Method:  d.Method,
		Source:  d.Source,
		Killer:  d.Killer,
		Aux:     d.Aux,
		Turns:   p.Turns,
		Start:   p.StartTime,
		End:     now.UTC().Truncate(time.Second),
		Lives:   p.Lives,
		Deaths:  p.Deaths,
		Wizard:  p.Wizard,
		Explore: p.Explore,
	}
	e.Points = Points(p, d.Method)
	return e
}

// Points scores a character: experience, plus a bonus per level seen, plus
// the escape bonus.
func Points(p *player.Player, method KillMethod) int64 {
	points := int64(p.Experience) + 100*int64(p.Global.LevelsSeen)
	if method == KilledByWinning {
		points += WinBonus
	}
	return points
}

// Scored reports whether the entry belongs on the high-score table.
func (e Entry) Scored() bool { return !e.Wizard && !e.Explore }
