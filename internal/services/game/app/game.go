package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/louisbranch/undercroft/internal/services/game/damage"
	"github.com/louisbranch/undercroft/internal/services/game/domain/level"
	"github.com/louisbranch/undercroft/internal/services/game/domain/score"
	"github.com/louisbranch/undercroft/internal/services/game/domain/session"
	"github.com/louisbranch/undercroft/internal/services/game/persist"
	"github.com/louisbranch/undercroft/internal/services/game/script"
	"github.com/louisbranch/undercroft/internal/services/game/storage/archive"
	"github.com/louisbranch/undercroft/internal/services/game/storage/sqlite"
	"github.com/louisbranch/undercroft/internal/services/game/storage/turnstamp"
	"github.com/louisbranch/undercroft/internal/services/game/trackers"
)

var (
	// ErrGameOver is returned for moves made after the game ended.
	ErrGameOver = errors.New("game is over")
	// ErrNoFeature indicates the current level has no such feature.
	ErrNoFeature = errors.New("feature not on level")
	// ErrNoMonster indicates there is no monster to act on.
	ErrNoMonster = errors.New("no monster in reach")
)

// Game is a running game and everything wired around it.
type Game struct {
	Session  *session.GameSession
	Manager  *persist.Manager
	Pipeline *damage.Pipeline

	Notes      *trackers.Notes
	Messages   *trackers.Messages
	Kills      *trackers.Kills
	Stashes    *trackers.Stashes
	Travel     *trackers.Travel
	Activities *trackers.Activities
	Script     *script.Host

	archive  *archive.Archive
	scores   *sqlite.Store
	stamps   *turnstamp.Recorder
	tutorial bool
	logger   *zap.Logger
	now      func() time.Time
}

// Over reports whether the game has ended.
func (g *Game) Over() bool { return g.Session.Over() }

// Scores returns the score database, nil when scores are disabled.
func (g *Game) Scores() *sqlite.Store { return g.scores }

// Use walks to the nearest f on the current level and takes it.
func (g *Game) Use(ctx context.Context, f level.Feature) (bool, error) {
	if g.Over() {
		return false, ErrGameOver
	}
	p, l := g.Session.Player, g.Session.Level
	c, ok := l.Nearest(f, p.Pos)
	if !ok {
		return false, fmt.Errorf("%w: %s on %s", ErrNoFeature, f, l.ID)
	}
	p.Pos = c
	return g.Take(ctx, f)
}

// Take leaves the level through taken, which the player stands on. It
// reports whether the destination was newly generated. Taking the dungeon
// exit ends the game.
func (g *Game) Take(ctx context.Context, taken level.Feature) (bool, error) {
	if g.Over() {
		return false, ErrGameOver
	}
	s, p := g.Session, g.Session.Player
	from := p.Place
	dest, err := level.Destination(from, taken, &p.Stack)
	if errors.Is(err, level.ErrLeavesDungeon) {
		_, err := g.Pipeline.Ouch(ctx, s, damage.Request{Damage: damage.InstantDeath, Method: score.KilledByLeaving})
		return false, err
	}
	if err != nil {
		return false, err
	}

	g.Travel.AddStairs(from, p.Pos)
	p.Place = dest
	created, err := g.Manager.LoadLevel(ctx, taken, persist.EnterLevel, from)
	if err != nil {
		return created, fmt.Errorf("take %s to %s: %w", taken, dest, err)
	}
	g.survey()
	return created, nil
}

// survey records the items lying on the current level.
func (g *Game) survey() {
	l := g.Session.Level
	if l == nil {
		return
	}
	cells := map[level.Coord][]string{}
	for _, it := range l.Items {
		cells[it.Pos] = append(cells[it.Pos], it.Name)
	}
	for c, names := range cells {
		g.Stashes.See(l.ID, c, names)
	}
}

// Hurt applies damage to the player.
func (g *Game) Hurt(ctx context.Context, req damage.Request) (damage.Result, error) {
	if g.Over() {
		return damage.Result{}, ErrGameOver
	}
	return g.Pipeline.Ouch(ctx, g.Session, req)
}

// Kill slays the live monster nearest the player and counts it.
func (g *Game) Kill() (*level.Monster, error) {
	if g.Over() {
		return nil, ErrGameOver
	}
	p, l := g.Session.Player, g.Session.Level
	var target *level.Monster
	for _, m := range l.Monsters {
		if !m.Alive() || m.Has(level.FlagWontAttack) {
			continue
		}
		if target == nil || m.Pos.Distance(p.Pos) < target.Pos.Distance(p.Pos) {
			target = m
		}
	}
	if target == nil {
		return nil, ErrNoMonster
	}
	l.RemoveMonster(target.MID)
	l.Items = append(l.Items, level.Item{Pos: target.Pos, Name: target.Kind + " corpse", Corpse: true})
	g.Kills.Record(target.Kind)
	g.Session.Say(session.ChannelPlain, "You kill the %s!", target.DisplayName())
	return target, nil
}

// EndTurn advances the clock by one player turn.
func (g *Game) EndTurn() {
	p := g.Session.Player
	p.Turns++
	p.ElapsedTime += p.TimeTaken
	p.ResetDamageCounters()
	if l := g.Session.Level; l != nil {
		l.TurnsOnLevel++
	}
	g.Activities.Tick()
	if p.PendingRevival {
		p.Revive()
		g.Session.Say(session.ChannelPlain, "You rise, %d %s left.", p.Lives, plural(p.Lives, "life", "lives"))
	}
	if g.stamps != nil {
		if err := g.stamps.Record(p.Turns, g.now()); err != nil {
			g.logger.Warn("record turn timestamp", zap.Error(err))
		}
	}
}

// Rest queues a rest of n turns and plays it out. It returns the turns
// actually rested.
func (g *Game) Rest(n int) int {
	if n <= 0 {
		return 0
	}
	g.Activities.Start(trackers.Activity{Name: "rest", Turns: n})
	rested := 0
	for !g.Over() {
		if _, ok := g.Activities.Current(); !ok {
			break
		}
		g.EndTurn()
		rested++
	}
	return rested
}

// Save commits the game. A leaving save says goodbye.
func (g *Game) Save(ctx context.Context, leaving bool) error {
	if g.Over() {
		return ErrGameOver
	}
	return g.Manager.SaveGame(ctx, leaving, "")
}

// Close releases every file the game holds. Uncommitted changes are lost;
// a tutorial save is removed.
func (g *Game) Close() error {
	var errs []error
	if g.stamps != nil {
		errs = append(errs, g.stamps.Close())
	}
	g.Script.Close()
	errs = append(errs, g.scores.Close())
	if g.tutorial {
		errs = append(errs, g.archive.Unlink())
	} else {
		errs = append(errs, g.archive.Close())
	}
	return errors.Join(errs...)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
