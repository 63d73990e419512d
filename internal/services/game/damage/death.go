package damage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/louisbranch/undercroft/internal/services/game/domain/ghost"
	"github.com/louisbranch/undercroft/internal/services/game/domain/level"
	"github.com/louisbranch/undercroft/internal/services/game/domain/player"
	"github.com/louisbranch/undercroft/internal/services/game/domain/score"
	"github.com/louisbranch/undercroft/internal/services/game/domain/session"
	"github.com/louisbranch/undercroft/internal/services/game/storage/bones"
)

// die handles hit points reaching zero, or instant death.
func (pl *Pipeline) die(ctx context.Context, c *Context, dam int) (Result, error) {
	s := c.Session
	p := s.Player
	method, aux := c.Request.Method, c.Request.Aux
	nonDeath := method.NonDeath()

	if s.ActingGod == player.GodXom {
		s.EscapeDeath(method, aux)
		// Xom only kills followers under penance or when bored.
		if p.Worships(player.GodXom) && p.Penance == 0 && p.GiftTimeout > 0 {
			return Result{Outcome: Escaped}, nil
		}
		if s.WizardCommand && !p.Worships(player.GodXom) {
			return Result{Outcome: Escaped}, nil
		}
		s.ResetEscapedDeath()
		if aux == "" {
			if method != score.KilledByXom {
				aux = "Xom"
			}
		} else if !strings.Contains(aux, "Xom") {
			method = score.KilledByXom
		}
	} else if xomSavesLife(s, method) {
		return Result{Outcome: Escaped}, nil
	}

	if !nonDeath && s.Mode.DeathDisabled {
		p.RestoreLife()
		return Result{Outcome: Escaped}, nil
	}

	entry := score.NewEntry(p, score.Death{
		Damage: dam,
		Method: method,
		Source: c.Request.Source,
		Killer: killerName(s, c.Request),
		Aux:    aux,
	}, pl.now())
	res := Result{Entry: &entry}

	if !nonDeath && (s.Mode.Test || p.Wizard || p.Explore && p.Lives == 0) {
		s.Logger.Debug("death offered",
			zap.Int("damage", dam),
			zap.Int("hp", p.HP),
			zap.String("cause", entry.DeathDescription(score.Verbose)))
		if !s.Confirm("Die?", false) {
			s.Say(session.ChannelPrompt, "Thought so.")
			s.TakeNote(session.NoteDeath, p.HP, p.HPMax, entry.DeathDescription(score.Verbose))
			p.RestoreLife()
			res.Outcome = Escaped
			return res, nil
		}
	}

	if s.Mode.Tutorial {
		s.NeedSave = false
		if !nonDeath {
			s.Say(session.ChannelTutorial, "You died. Better luck in the next game.")
		}
		res.Outcome = Died
		return res, pl.endGame(ctx, s, entry, 0)
	}

	s.TakeNote(session.NoteDeath, p.HP, p.HPMax, entry.DeathDescription(score.Normal))

	if p.Lives > 0 && !nonDeath {
		s.Logger.Info("milestone",
			zap.String("type", "death"),
			zap.String("milestone", lowerFirst(entry.LongKillMessage())))
		p.Deaths++
		p.Lives--
		p.PendingRevival = true
		if s.Activities != nil {
			s.Activities.Stop()
		}
		// A crash now must not give the life back.
		if s.Options.SaveCheckpoints && s.Checkpointer != nil {
			if err := s.Checkpointer.Checkpoint(ctx); err != nil {
				s.Logger.Warn("checkpoint after death", zap.Error(err))
			}
		}
		s.Say(session.ChannelDanger, "You die...")
		placeCorpse(s, method == score.KilledByDisintegration)
		res.Outcome = LifeLost
		return res, nil
	}

	s.NeedSave = false
	s.NotesActive = false

	rank := 0
	if !p.Wizard && !p.Explore && s.Scores != nil {
		r, err := s.Scores.Record(ctx, entry)
		if err != nil {
			s.Logger.Warn("record score", zap.Error(err))
		} else {
			rank = r
		}
	}

	if !nonDeath && !s.Mode.Tutorial && !p.Wizard {
		saveGhost(ctx, s, false)
	}

	res.Outcome = Died
	return res, pl.endGame(ctx, s, entry, rank)
}

func (pl *Pipeline) endGame(ctx context.Context, s *session.GameSession, e score.Entry, rank int) error {
	s.Finish(e)
	if s.Ender == nil {
		return nil
	}
	if err := s.Ender.EndGame(ctx, e, rank); err != nil {
		return fmt.Errorf("end game: %w", err)
	}
	return nil
}

// saveGhost leaves the dead character, and any ghosts on the level, for
// future games.
func saveGhost(ctx context.Context, s *session.GameSession, force bool) {
	if s.Bones == nil || s.Level == nil {
		return
	}
	ghosts := ghost.Find(s.Player, s.Level)
	name, err := s.Bones.Save(ctx, s.Player.Place, ghosts, force)
	switch {
	case errors.Is(err, bones.ErrIneligible), errors.Is(err, bones.ErrPoolFull):
		s.Logger.Debug("no ghost saved", zap.String("level", s.Player.Place.String()), zap.Error(err))
	case err != nil:
		s.Logger.Warn("save ghost", zap.String("level", s.Player.Place.String()), zap.Error(err))
	case name != "":
		s.Logger.Debug("saved ghost", zap.String("file", name), zap.Int("ghosts", len(ghosts)))
	}
}

func placeCorpse(s *session.GameSession, explode bool) {
	p := s.Player
	if s.Level == nil || !s.Level.InBounds(p.Pos) {
		return
	}
	if p.Form != player.FormNone {
		s.Say(session.ChannelPlain, "Your shape twists and changes as you die.")
	}
	if explode {
		s.Level.Items = append(s.Level.Items, level.Item{Pos: p.Pos, Name: "chunks of " + p.Name})
		return
	}
	s.Level.Items = append(s.Level.Items, level.Item{Pos: p.Pos, Name: p.Name + " corpse", Corpse: true})
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
