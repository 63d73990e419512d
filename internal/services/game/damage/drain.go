package damage

import (
	"context"
	"fmt"

	"github.com/louisbranch/undercroft/internal/services/game/domain/level"
	"github.com/louisbranch/undercroft/internal/services/game/domain/player"
	"github.com/louisbranch/undercroft/internal/services/game/domain/score"
	"github.com/louisbranch/undercroft/internal/services/game/domain/session"
)

// DrainPlayer applies power points of experience drain and reports
// whether any landed.
func DrainPlayer(s *session.GameSession, power int, announceFull, ignoreProtection bool) bool {
	p := s.Player
	protection := 0
	if !ignoreProtection {
		protection = p.Resists.Neg
	}
	outcome := p.Drain(power, ignoreProtection)
	if outcome == player.DrainResisted {
		if announceFull {
			s.Say(session.ChannelPlain, "You resist.")
		}
		return false
	}
	if protection > 0 {
		s.Say(session.ChannelPlain, "You partially resist.")
	}
	if outcome == player.DrainNone {
		return false
	}
	s.Say(session.ChannelPlain, "You feel drained.")
	xomIsStimulated(s, 15)
	return true
}

// LoseLevel takes an experience level away. Losing level 1 is fatal.
func (pl *Pipeline) LoseLevel(ctx context.Context, s *session.GameSession) (Result, error) {
	p := s.Player
	if p.XL == 1 {
		return pl.Ouch(ctx, s, Request{Damage: InstantDeath, Method: score.KilledByDraining, Source: level.MIDNobody})
	}
	p.XL--
	s.Say(session.ChannelWarn, "You are now level %d!", p.XL)
	p.CalcHP()
	p.CalcMP()
	loseLevelAbilities(s)
	s.TakeNote(session.NoteXPLevelChange, p.XL, 0,
		fmt.Sprintf("HP: %d/%d MP: %d/%d", p.HP, p.HPMax, p.MP, p.MPMax))
	xomIsStimulated(s, 200)
	// Zero damage still kills a character whose max HP fell to nothing.
	return pl.Ouch(ctx, s, Request{Damage: 0, Method: score.KilledByDraining, Source: level.MIDNobody})
}

// loseLevelAbilities ends permanent flight granted by experience.
func loseLevelAbilities(s *session.GameSession) {
	p := s.Player
	if !p.Airborne || p.Duration(player.DurFlight) > 0 || p.XL >= flightLevel(p.Species) {
		return
	}
	p.IncreaseDuration(player.DurFlight, 50, 100)
	s.Say(session.ChannelWarn, "You feel your flight won't last long.")
}

// flightLevel is the experience level at which a species flies
// permanently, or above the maximum when it never does.
func flightLevel(sp player.Species) int {
	if sp == player.SpeciesGargoyle {
		return 14
	}
	return player.MaxXL + 1
}
