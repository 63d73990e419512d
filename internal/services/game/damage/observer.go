package damage

import (
	"fmt"

	"github.com/louisbranch/undercroft/internal/random"
	"github.com/louisbranch/undercroft/internal/services/game/domain/level"
	"github.com/louisbranch/undercroft/internal/services/game/domain/player"
	"github.com/louisbranch/undercroft/internal/services/game/domain/score"
	"github.com/louisbranch/undercroft/internal/services/game/domain/session"
)

// Context is what observers see of a survivable hit.
type Context struct {
	Session *session.GameSession
	Request Request
	// Damage is the amount that reached hit points.
	Damage int
	// DrainAmount is the share of the hit shadow form turned into drain.
	DrainAmount int
	Torment     bool
}

func (c *Context) player() *player.Player { return c.Session.Player }

// Observer reacts to the player surviving damage. Observers run in
// registration order and only when Applies holds.
type Observer interface {
	Name() string
	Applies(c *Context) bool
	Apply(c *Context)
}

type observer struct {
	name    string
	applies func(*Context) bool
	apply   func(*Context)
}

func (o observer) Name() string            { return o.name }
func (o observer) Applies(c *Context) bool { return o.applies(c) }
func (o observer) Apply(c *Context)        { o.apply(c) }

func always(*Context) bool { return true }

// DefaultObservers returns the side effects of being hurt in the order
// they must fire.
func DefaultObservers() []Observer {
	return []Observer{
		observer{"hp_warning", warnsLowHP, warnLowHP},
		observer{"hints", needsHealingHint, healingHint},
		observer{"xom_amusement", worshipsXom, xomChecksDamage},
		observer{"hp_note", always, noteHPChange},
		observer{"deteriorate", deteriorates, deteriorate},
		observer{"yred_mirror", yredMirrors, mirrorInjury},
		observer{"ru_retribution", ruRetaliates, retaliate},
		observer{"spawn", spawnsOnHit, spawnMonsters},
		observer{"fog", emitsSmoke, maybeFog},
		observer{"powered_by_pain", poweredByPain, focusPain},
		observer{"sanguine_armour", sanguineArmourValid, activateSanguineArmour},
		observer{"corrode", corrodes, corrode},
		observer{"slow", slows, slow},
		observer{"drain", drainsShadow, drainShadow},
	}
}

func notPoison(c *Context) bool { return c.Request.Method != score.KilledByPoison }

func warnsLowHP(c *Context) bool {
	p := c.player()
	warn := c.Session.Options.HPWarning
	return warn > 0 &&
		p.HP <= p.HPMax*warn/100 &&
		(notPoison(c) || p.Poison >= p.HP)
}

func warnLowHP(c *Context) {
	c.Session.Say(session.ChannelDanger, "* * * LOW HITPOINT WARNING * * *")
}

func needsHealingHint(c *Context) bool {
	p := c.player()
	return c.Session.Mode.Tutorial && !c.Session.HintedHealing && p.HP < p.HPMax/2
}

func healingHint(c *Context) {
	c.Session.HintedHealing = true
	c.Session.Say(session.ChannelTutorial, "You are badly hurt. Rest to recover your health before fighting on.")
}

func worshipsXom(c *Context) bool { return c.player().Worships(player.GodXom) }

func noteHPChange(c *Context) {
	s := c.Session
	var desc string
	if !c.Request.SeeSource {
		desc = fmt.Sprintf("something (%d)", c.Damage)
	} else {
		e := score.NewEntry(s.Player, score.Death{
			Damage: c.Damage,
			Method: c.Request.Method,
			Source: c.Request.Source,
			Killer: killerName(s, c.Request),
			Aux:    c.Request.Aux,
		}, s.Player.StartTime)
		desc = e.DeathDescription(score.Terse)
	}
	s.TakeNote(session.NoteHPChange, s.Player.HP, s.Player.HPMax, desc)
}

func deteriorates(c *Context) bool { return c.player().Mutation(player.MutDeterioration) > 0 }

func deteriorate(c *Context) {
	p := c.player()
	if c.Session.RNG.XChanceInY(p.Mutation(player.MutDeterioration), 4) && c.Damage > p.HPMax/10 {
		c.Session.Say(session.ChannelWarn, "Your body deteriorates!")
		p.LoseStat(c.Session.RNG, 1)
	}
}

func devoted(p *player.Player, g player.God, rank int) bool {
	return p.Worships(g) && p.Penance == 0 && p.Piety >= player.PietyBreakpoint(rank)
}

func yredMirrors(c *Context) bool { return devoted(c.player(), player.GodYredelemnul, 1) }

// overkillCapped is the damage that was enough to kill.
func overkillCapped(c *Context) int {
	dam := c.Damage
	if hp := c.player().HP; hp < 0 {
		dam += hp
	}
	return dam
}

func mirrorInjury(c *Context) {
	dam := overkillCapped(c)
	m := c.Session.Monster(c.Request.Source)
	if dam <= 0 || m == nil {
		return
	}
	c.Session.Say(session.ChannelGod, "Your injury is mirrored on %s.", describeMonster(m))
	hurtMonster(c.Session, m, dam)
}

func ruRetaliates(c *Context) bool { return devoted(c.player(), player.GodRu, 3) }

func retaliate(c *Context) {
	if !c.Session.RNG.OneChanceIn(10) {
		return
	}
	dam := overkillCapped(c)
	m := c.Session.Monster(c.Request.Source)
	if dam <= 0 || m == nil {
		return
	}
	c.Session.Say(session.ChannelGod, "You focus your will and strike back at %s!", describeMonster(m))
	hurtMonster(c.Session, m, dam)
}

func hurtMonster(s *session.GameSession, m *level.Monster, dam int) {
	m.HP -= dam
	if m.HP <= 0 {
		m.Set(level.FlagDead)
		s.Say(session.ChannelPlain, "%s is destroyed!", describeMonster(m))
	}
}

func spawnsOnHit(c *Context) bool {
	if c.Torment || c.Session.Monster(c.Request.Source) == nil {
		return false
	}
	p := c.player()
	return devoted(p, player.GodJiyva, 3) || p.Worships(player.GodXom)
}

func spawnMonsters(c *Context) {
	s := c.Session
	p := c.player()
	dam := c.Damage
	kind, howMany := "", 0
	if devoted(p, player.GodJiyva, 3) {
		kind = "jelly"
		switch {
		case dam >= p.HPMax*3/4:
			howMany = s.RNG.Random2(4) + 2
		case dam >= p.HPMax/2:
			howMany = s.RNG.Random2(2) + 2
		case dam >= p.HPMax/4:
			howMany = 1
		}
	} else if dam >= p.HPMax/4 && s.RNG.XChanceInY(dam, 3*p.HPMax) {
		kind = "butterfly"
		howMany = 2 + s.RNG.Random2(5)
	}
	if howMany == 0 || s.Level == nil {
		return
	}

	created := 0
	for i := 0; i < howMany; i++ {
		pos, ok := freeCellNear(s.Level, p.Pos, 2)
		if !ok {
			break
		}
		s.Level.AddMonster(&level.Monster{
			Kind:  kind,
			Pos:   pos,
			HP:    5,
			MaxHP: 5,
			XL:    1,
			Speed: player.BaselineDelay,
			Flags: level.FlagWontAttack | level.FlagSummoned,
		})
		created++
	}
	if created == 0 {
		return
	}
	if kind == "butterfly" {
		s.Say(session.ChannelGod, "A shower of butterflies erupts from you!")
		s.TakeNote(session.NoteXomEffect, p.Piety, -1, "butterfly on damage")
		return
	}
	blow := "blast"
	if c.Request.Method == score.KilledByMonster {
		blow = "blow"
	}
	jellies := "jelly pops out"
	if created > 1 {
		jellies = "flood of jellies pours out from you"
	}
	s.Say(session.ChannelPlain, "You shudder from the %s and a %s!", blow, jellies)
}

// freeCellNear finds the nearest empty habitable cell within radius of
// centre, excluding centre itself.
func freeCellNear(l *level.Level, centre level.Coord, radius int) (level.Coord, bool) {
	for r := 1; r <= radius; r++ {
		for _, c := range centre.Ring(r) {
			if l.InBounds(c) && l.At(c).Habitable(false) && !l.At(c).Dangerous() && l.MonsterAt(c) == nil {
				return c, true
			}
		}
	}
	return level.Coord{}, false
}

func emitsSmoke(c *Context) bool {
	p := c.player()
	return devoted(p, player.GodDithmenos, 1) || p.Worships(player.GodXom)
}

func maybeFog(c *Context) {
	s := c.Session
	p := c.player()
	dam := c.Damage
	smoke := devoted(p, player.GodDithmenos, 1)
	minPiety := player.PietyBreakpoint(2)
	if smoke {
		minPiety = player.PietyBreakpoint(1)
	}
	upper := p.HPMax / 2
	lower := upper
	if span := player.MaxPiety - minPiety; span > 0 {
		lower = upper - upper*(p.Piety-minPiety)/span
	}

	switch {
	case smoke && (dam > 0 && p.Form == player.FormShadow ||
		dam >= lower && s.RNG.XChanceInY(dam-lower, upper-lower)):
		s.Say(session.ChannelPlain, "You emit a cloud of dark smoke.")
		bigCloud(s, "black smoke", 4+s.RNG.Random2(5))
	case p.Worships(player.GodXom) && s.RNG.XChanceInY(dam, 30*upper):
		s.Say(session.ChannelGod, "You emit a cloud of colourful smoke!")
		bigCloud(s, "xom trail", 4+s.RNG.Random2(5))
		s.TakeNote(session.NoteXomEffect, p.Piety, -1, "smoke on damage")
	}
}

func bigCloud(s *session.GameSession, kind string, duration int) {
	if s.Level == nil {
		return
	}
	centre := s.Player.Pos
	cells := append([]level.Coord{centre}, centre.Adjacent()...)
	for _, c := range cells {
		if s.Level.InBounds(c) && s.Level.At(c).Habitable(true) {
			s.Level.AddCloud(level.Cloud{Pos: c, Kind: kind, Duration: duration})
		}
	}
}

func poweredByPain(c *Context) bool { return c.player().Mutation(player.MutPoweredByPain) > 0 }

func focusPain(c *Context) {
	s := c.Session
	p := c.player()
	lvl := p.Mutation(player.MutPoweredByPain)
	if !(s.RNG.Random2(c.Damage) > 4+s.RNG.DivRandRound(p.XL, 4) || c.Damage >= p.HPMax/2) {
		return
	}
	switch s.RNG.Random2(4) {
	case 0, 1:
		if p.MP < p.MPMax {
			s.Say(session.ChannelPlain, "You focus on the pain.")
			mp, _ := s.RNG.Roll(random.Dice{Count: 3, Sides: 2 + 3*lvl})
			s.Say(session.ChannelPlain, "You feel your power returning.")
			p.IncMP(mp)
		}
	case 2:
		s.Say(session.ChannelPlain, "You focus on the pain.")
		p.IncreaseDuration(player.DurMight, 35+s.RNG.Random2(lvl*20), 80)
	case 3:
		s.Say(session.ChannelPlain, "You focus on the pain.")
		p.IncreaseDuration(player.DurAgility, 35+s.RNG.Random2(lvl*20), 80)
	}
}

func sanguineArmourValid(c *Context) bool {
	p := c.player()
	return p.Artefacts.SanguineArmour && p.HP < p.HPMax*2/3
}

func activateSanguineArmour(c *Context) {
	p := c.player()
	if p.Duration(player.DurSanguineArmour) == 0 {
		c.Session.Say(session.ChannelPlain, "Your blood congeals into armour.")
	}
	p.SetDuration(player.DurSanguineArmour, 3*player.BaselineDelay)
}

func corrodes(c *Context) bool { return notPoison(c) && c.player().Artefacts.CorrodeSources > 0 }

func corrode(c *Context) {
	s := c.Session
	p := c.player()
	degree := s.RNG.Binomial(p.Artefacts.CorrodeSources, 3)
	if degree <= 0 {
		return
	}
	s.Say(session.ChannelWarn, "Your corrosive artefact corrodes you!")
	p.Corrosion += degree
	p.IncreaseDuration(player.DurCorrosion, 10+s.RNG.Random2(8), 50)
}

func slows(c *Context) bool { return notPoison(c) && c.player().Artefacts.SlowSources > 0 }

func slow(c *Context) {
	s := c.Session
	if s.RNG.XChanceInY(c.player().Artefacts.SlowSources, 100) {
		slowPlayer(s, 10+s.RNG.Random2(5))
	}
}

func slowPlayer(s *session.GameSession, turns int) {
	p := s.Player
	if p.Duration(player.DurSlow) == 0 {
		s.Say(session.ChannelWarn, "You feel yourself slow down.")
	}
	p.IncreaseDuration(player.DurSlow, turns, 100)
}

func drainsShadow(c *Context) bool { return c.DrainAmount > 0 }

func drainShadow(c *Context) { DrainPlayer(c.Session, c.DrainAmount, true, true) }
