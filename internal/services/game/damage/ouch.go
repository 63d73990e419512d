// Package damage resolves damage dealt to the player: mitigation, hit
// point loss, the ordered side effects of being hurt, and death.
package damage

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/louisbranch/undercroft/internal/platform/errors"
	"github.com/louisbranch/undercroft/internal/platform/otel"
	"github.com/louisbranch/undercroft/internal/services/game/domain/level"
	"github.com/louisbranch/undercroft/internal/services/game/domain/player"
	"github.com/louisbranch/undercroft/internal/services/game/domain/score"
	"github.com/louisbranch/undercroft/internal/services/game/domain/session"
)

// InstantDeath kills regardless of hit points and skips every mitigation
// that scales damage.
const InstantDeath = -9999

// Request is one application of damage.
type Request struct {
	Damage int
	Method score.KillMethod
	Source level.MID
	Aux    string
	// SeeSource is false when the player could not see the attacker.
	SeeSource bool
	// SourceName names an attacker that may be gone by the time the
	// damage lands.
	SourceName string
}

// Outcome is how a request ended.
type Outcome int

const (
	// Ignored: the player could not be hurt at all this instant.
	Ignored Outcome = iota
	// Absorbed: a protection consumed the damage before hit points.
	Absorbed
	// Hurt: damage landed and the player lives.
	Hurt
	// Escaped: the player should have died but something intervened.
	Escaped
	// LifeLost: an extra life was spent; revival is pending.
	LifeLost
	// Died: the game is over.
	Died
)

var outcomeNames = [...]string{"ignored", "absorbed", "hurt", "escaped", "life_lost", "died"}

func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return "unknown"
}

// Result reports what a request did.
type Result struct {
	Outcome Outcome
	// Damage is the amount that reached hit points.
	Damage int
	// Entry is set when the death path built a record.
	Entry *score.Entry
}

// Pipeline applies damage through its observers.
type Pipeline struct {
	observers []Observer
	tracer    trace.Tracer
	now       func() time.Time
}

// New returns a pipeline firing observers in order after survivable
// damage. A nil slice uses DefaultObservers.
func New(observers []Observer) *Pipeline {
	if observers == nil {
		observers = DefaultObservers()
	}
	return &Pipeline{
		observers: observers,
		tracer:    otel.Tracer("damage"),
		now:       time.Now,
	}
}

func invalidInput(msg string, req Request) error {
	return apperrors.WithMetadata(apperrors.CodeDamageInvalidInput, msg, map[string]string{
		"damage": strconv.Itoa(req.Damage),
		"method": req.Method.String(),
	})
}

// Ouch hurts the player.
func (pl *Pipeline) Ouch(ctx context.Context, s *session.GameSession, req Request) (Result, error) {
	if req.Damage < 0 && req.Damage != InstantDeath {
		return Result{}, invalidInput("damage must not be negative", req)
	}
	if !req.Method.Valid() {
		return Result{}, invalidInput("unknown kill method", req)
	}
	p := s.Player
	if p.Duration(player.DurTimeStep) > 0 || p.PendingRevival {
		return Result{Outcome: Ignored}, nil
	}

	ctx, span := pl.tracer.Start(ctx, "damage.Ouch", trace.WithAttributes(
		attribute.Int("damage", req.Damage),
		attribute.String("method", req.Method.String()),
	))
	defer span.End()

	c := &Context{Session: s, Request: req, Torment: isTorment(req.Aux)}
	poison := req.Method == score.KilledByPoison
	dam := req.Damage
	instant := dam == InstantDeath

	if !instant {
		dam = extraHarm(s, dam, req.Source)
	}
	if p.CanShaveDamage() && !instant && !poison {
		dam = max(0, p.ShaveDamage(s.RNG, dam))
	}
	if !instant {
		if p.Form == player.FormShadow {
			c.DrainAmount = dam - dam/2
			dam /= 2
		}
		if p.Petrified() {
			dam /= 2
		} else if p.Petrifying() {
			dam = dam * 10 / 15
		}
	}

	if s.Activities != nil {
		s.Activities.Interrupt(session.Interrupt{Kind: "hp_loss", Damage: dam, Method: req.Method})
	}

	// Fatal and poison damage let a sleeper sleep on.
	if dam > 0 && dam < p.HP && !poison {
		p.CheckAwaken()
	}

	nonDeath := req.Method.NonDeath()
	envDeath := req.Source == level.MIDNobody && req.Method.Environmental()

	if p.Duration(player.DurDeathsDoor) > 0 && !envDeath && !nonDeath && p.HPMax > 0 {
		return Result{Outcome: Absorbed}, nil
	}

	if dam > 0 && !poison && p.HPMax > 0 {
		threatened(s, dam)
	}

	if !instant {
		if p.SpiritShield() && !poison && !strings.Contains(req.Aux, "flay_damage") {
			mp := s.RNG.DivRandRound(dam*p.MP, max(p.HP+p.MP, 1))
			// A hit that leaves the player alive must not kill through round-off.
			mp = max(mp, dam+1-p.HP)
			mp = min(mp, p.MP)
			dam -= mp
			p.DecMP(mp)
			if dam < p.HP {
				p.CheckAwaken()
			}
			if dam <= 0 && p.HP > 0 {
				return Result{Outcome: Absorbed}, nil
			}
		}

		if dam >= p.HP && p.HPMax > 0 && godProtects(s) {
			s.Say(session.ChannelGod, "%s protects you from harm!", p.Religion)
			p.CheckAwaken()
			return Result{Outcome: Absorbed}, nil
		}

		p.RecordDamage(dam, req.Source)
		p.DecHP(dam)

		if dam > 0 && p.HPMax <= dam*2 {
			s.Say(session.ChannelDanger, "Ouch! That really hurt!")
		}

		if p.HP > 0 && dam > 0 {
			c.Damage = dam
			for _, o := range pl.observers {
				if o.Applies(c) {
					o.Apply(c)
				}
			}
		}
		if p.HP > 0 {
			return Result{Outcome: Hurt, Damage: dam}, nil
		}
	}

	span.AddEvent("death", trace.WithAttributes(attribute.Int("hp", p.HP)))
	res, err := pl.die(ctx, c, dam)
	if !instant {
		res.Damage = dam
	}
	return res, err
}

func isTorment(aux string) bool {
	return strings.Contains(aux, "torment") ||
		strings.Contains(aux, "Torment") ||
		strings.Contains(aux, "exploding lurking horror")
}

func extraHarm(s *session.GameSession, dam int, source level.MID) int {
	if m := s.Monster(source); m != nil && m.HarmAmplified {
		return dam * 13 / 10
	}
	if s.Player.Artefacts.Harm {
		return dam * 6 / 5
	}
	return dam
}

// isThreatening decides whether a hit scares a mutation into reacting.
// Hits under 5% of max HP never do; big hits or low health make it
// certain.
func isThreatening(s *session.GameSession, damageFraction int) bool {
	hpFraction := s.Player.HPPercent()
	return damageFraction > 5 &&
		hpFraction <= 85 &&
		(damageFraction+s.RNG.Random2(20) >= 20 || s.RNG.Random2(100) < hpFraction)
}

func threatened(s *session.GameSession, dam int) {
	p := s.Player
	fraction := dam * 100 / p.HPMax

	// Each mutation rolls separately so they do not always fire together.
	if p.Mutation(player.MutBearserk) > 0 && isThreatening(s, fraction) {
		if p.Duration(player.DurCornered) == 0 {
			s.Say(session.ChannelPlain, "You feel threatened and you want to go bearserk!")
		}
		p.IncreaseDuration(player.DurCornered, 1+s.RNG.Random2(dam), 30)
	}
	if p.Mutation(player.MutNoRead) > 0 && isThreatening(s, fraction) {
		if p.Duration(player.DurNoScrolls) == 0 {
			s.Say(session.ChannelPlain, "You feel threatened and lose the ability to read scrolls!")
		}
		p.IncreaseDuration(player.DurNoScrolls, 1+s.RNG.Random2(dam), 30)
	}
	if p.Mutation(player.MutNoDrink) > 0 && isThreatening(s, fraction) {
		if p.Duration(player.DurNoPotions) == 0 {
			s.Say(session.ChannelPlain, "You feel threatened and lose the ability to drink potions!")
		}
		p.IncreaseDuration(player.DurNoPotions, 1+s.RNG.Random2(dam), 30)
	}
}

// killerName resolves the attacker for records, preferring a name given
// by the caller.
func killerName(s *session.GameSession, req Request) string {
	if req.SourceName != "" {
		return req.SourceName
	}
	if m := s.Monster(req.Source); m != nil {
		return describeMonster(m)
	}
	return ""
}

func describeMonster(m *level.Monster) string {
	if m.Name != "" {
		return m.Name
	}
	if m.Kind == "" {
		return "something"
	}
	switch m.Kind[0] {
	case 'a', 'e', 'i', 'o', 'u':
		return "an " + m.Kind
	}
	return "a " + m.Kind
}
