package damage

import (
	"github.com/louisbranch/undercroft/internal/services/game/domain/level"
	"github.com/louisbranch/undercroft/internal/services/game/domain/player"
	"github.com/louisbranch/undercroft/internal/services/game/domain/score"
	"github.com/louisbranch/undercroft/internal/services/game/domain/session"
)

// xomIsStimulated raises Xom's interest by up to amount.
func xomIsStimulated(s *session.GameSession, amount int) {
	p := s.Player
	if !p.Worships(player.GodXom) || amount <= 0 {
		return
	}
	interest := s.RNG.Random2(min(255, amount))
	if interest <= p.GiftTimeout || interest < 10 {
		return
	}
	p.GiftTimeout = interest
	switch {
	case interest >= 200:
		s.Say(session.ChannelGod, "Xom roars with laughter!")
	case interest >= 100:
		s.Say(session.ChannelGod, "Xom is highly amused.")
	case interest >= 50:
		s.Say(session.ChannelGod, "Xom is amused.")
	default:
		s.Say(session.ChannelGod, "Xom is interested.")
	}
}

// xomChecksDamage scores a hit for Xom's entertainment.
func xomChecksDamage(c *Context) {
	s := c.Session
	p := s.Player
	dam := c.Damage
	method := c.Request.Method

	switch {
	case method == score.KilledByTargeting ||
		method == score.KilledByBounce ||
		method == score.KilledByReflection ||
		method == score.KilledBySelfAimed && s.InDangerousPlace():
		// Accidents are funny; deliberate self harm only when risky.
		amusement := 200 * dam / (dam + p.HP)
		if method == score.KilledBySelfAimed {
			amusement /= 5
		}
		xomIsStimulated(s, amusement)
		return
	case method == score.KilledByFallingDownStairs || method == score.KilledByFallingThroughGate:
		xomIsStimulated(s, 200)
		return
	case method == score.KilledByDisintegration:
		xomIsStimulated(s, 100)
		return
	case method != score.KilledByMonster && method != score.KilledByBeam:
		return
	}

	m := s.Monster(c.Request.Source)
	if m == nil {
		return
	}
	if m.Has(level.FlagWontAttack) {
		// Collateral damage from allies.
		xomIsStimulated(s, 200*dam/(dam+p.HP))
		return
	}

	leveldif := m.XL - p.XL
	if leveldif == 0 {
		leveldif = 1
	}
	amusement := 1 + leveldif*leveldif*dam
	if !c.Request.SeeSource {
		amusement += 8
	}
	if m.Speed < 100/player.BaselineDelay {
		amusement += 7
	}
	if s.InDangerousPlace() {
		amusement += 2
	}
	amusement /= max(p.HP, 1)
	xomIsStimulated(s, amusement)
}

// xomSavesLife gives Xom's worshippers a small chance to cheat death.
func xomSavesLife(s *session.GameSession, method score.KillMethod) bool {
	p := s.Player
	if !p.Worships(player.GodXom) || p.Penance > 0 || method.NonDeath() {
		return false
	}
	if p.HPMax < 1 || p.XL < 1 {
		return false
	}
	if !s.RNG.OneChanceIn(20) {
		return false
	}
	s.Say(session.ChannelGod, "Xom revives you!")
	p.SetHP(max(1, p.HPMax/2))
	p.GiftTimeout = 0
	s.TakeNote(session.NoteXomRevival, 0, 0, "")
	return true
}

// godProtects is Elyvilon's chance to turn aside a lethal blow.
func godProtects(s *session.GameSession) bool {
	p := s.Player
	if !devoted(p, player.GodElyvilon, 1) {
		return false
	}
	return s.RNG.XChanceInY(p.Piety, 2*player.MaxPiety)
}
