package session

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/louisbranch/undercroft/internal/random"
	"github.com/louisbranch/undercroft/internal/services/game/domain/level"
	"github.com/louisbranch/undercroft/internal/services/game/domain/player"
	"github.com/louisbranch/undercroft/internal/services/game/domain/score"
)

// GameSession is the state of one running game.
type GameSession struct {
	Player  *player.Player
	Level   *level.Level
	Archive Archive
	RNG     *random.RNG
	Logger  *zap.Logger
	Options Options
	Mode    Mode

	// Transit holds monsters on their way to a level, keyed by
	// destination. It is saved with the player.
	Transit map[level.ID][]*level.Monster

	// ActingGod is the god whose intervention is resolving right now.
	ActingGod player.God
	// WizardCommand is set while a wizard-mode command runs.
	WizardCommand bool

	// EscapedDeath records a death a god declined to finalize.
	EscapedDeath    score.KillMethod
	EscapedDeathAux string
	escaped         bool

	Notes        Notes
	Messages     Messages
	Activities   Activities
	Builder      Builder
	Trackers     []LevelTracker
	Chunks       []ChunkStore
	Scores       Scores
	Bones        Bones
	Checkpointer Checkpointer
	Ender        Ender
	Prompter     Prompter

	// NeedSave is cleared once the game has ended and must not be saved.
	NeedSave bool
	// NotesActive is cleared while a finished game is torn down.
	NotesActive bool
	// HintedHealing is set once the low health hint has been shown.
	HintedHealing bool

	outcome *score.Entry
}

// New returns a session for p with no level loaded. A nil logger
// discards output.
func New(p *player.Player, rng *random.RNG, logger *zap.Logger) *GameSession {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GameSession{
		Player:      p,
		RNG:         rng,
		Logger:      logger,
		Options:     DefaultOptions(),
		Transit:     map[level.ID][]*level.Monster{},
		NeedSave:    true,
		NotesActive: true,
	}
}

// Say sends a formatted message to the player.
func (s *GameSession) Say(ch Channel, format string, args ...any) {
	if s.Messages == nil {
		return
	}
	if len(args) > 0 {
		format = fmt.Sprintf(format, args...)
	}
	s.Messages.Add(ch, format)
}

// TakeNote records a note stamped with the current turn and place.
func (s *GameSession) TakeNote(kind NoteKind, first, second int, desc string) {
	if s.Notes == nil || !s.NotesActive {
		return
	}
	s.Notes.Add(Note{
		Kind:   kind,
		Turn:   s.Player.Turns,
		Place:  s.Player.Place,
		First:  first,
		Second: second,
		Desc:   desc,
	})
}

// Confirm asks a yes/no question. Test runs and sessions without a
// prompter take the default.
func (s *GameSession) Confirm(question string, def bool) bool {
	if s.Mode.Test || s.Prompter == nil {
		return def
	}
	return s.Prompter.YesNo(question, def)
}

// RemoveLevel drops the per-level annotations of every tracker.
func (s *GameSession) RemoveLevel(id level.ID) {
	for _, t := range s.Trackers {
		t.RemoveLevel(id)
	}
}

// EscapeDeath remembers a death that did not happen.
func (s *GameSession) EscapeDeath(method score.KillMethod, aux string) {
	s.EscapedDeath = method
	s.EscapedDeathAux = aux
	s.escaped = true
}

// ResetEscapedDeath forgets an escaped death.
func (s *GameSession) ResetEscapedDeath() {
	s.EscapedDeath = 0
	s.EscapedDeathAux = ""
	s.escaped = false
}

// Escaped reports whether a death was escaped since the last reset.
func (s *GameSession) Escaped() bool { return s.escaped }

// Finish marks the game over with its final record.
func (s *GameSession) Finish(e score.Entry) {
	s.NeedSave = false
	s.outcome = &e
}

// Over reports whether the game has ended.
func (s *GameSession) Over() bool { return s.outcome != nil }

// Outcome returns the final record of an ended game.
func (s *GameSession) Outcome() (score.Entry, bool) {
	if s.outcome == nil {
		return score.Entry{}, false
	}
	return *s.outcome, true
}

// InDangerousPlace reports whether the current level is a hostile
// environment where accidents amuse chaotic gods.
func (s *GameSession) InDangerousPlace() bool {
	switch s.Player.Place.Branch {
	case level.BranchAbyss, level.BranchPandemonium, level.BranchZiggurat:
		return true
	}
	return s.Player.Place.Branch.Info().Hell
}

// Monster resolves mid on the current level.
func (s *GameSession) Monster(mid level.MID) *level.Monster {
	if s.Level == nil {
		return nil
	}
	return s.Level.Monster(mid)
}
