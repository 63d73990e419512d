package score

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Verbosity selects how much of the entry a description includes.
type Verbosity int

const (
	// Terse is the short form used for damage notes.
	Terse Verbosity = iota
	Normal
	Verbose
)

// killPhrase is the Normal description of the cause.
func (e Entry) killPhrase() string {
	killer := e.Killer
	if killer == "" {
		killer = "something"
	}
	switch e.Method {
	case KilledByMonster:
		return "Killed by " + killer
	case KilledByPoison:
		if e.Killer != "" {
			return "Succumbed to " + possessive(e.Killer) + " poison"
		}
		return "Succumbed to poison"
	case KilledByCloud:
		if e.Aux != "" {
			return "Engulfed by a cloud of " + e.Aux
		}
		return "Engulfed by a cloud"
	case KilledByBeam:
		return "Killed from afar by " + killer
	case KilledByLava:
		return "Took a swim in molten lava"
	case KilledByWater:
		return "Drowned"
	case KilledByStupidity:
		return "Forgot to breathe"
	case KilledByWeakness:
		return "Collapsed under their own weight"
	case KilledByClumsiness:
		return "Slipped on a banana peel"
	case KilledByTrap:
		if e.Aux != "" {
			return "Killed by triggering " + e.Aux
		}
		return "Killed by triggering a trap"
	case KilledByLeaving:
		return "Got out of the dungeon alive"
	case KilledByWinning:
		return "Escaped with the Orb"
	case KilledByQuitting:
		return "Quit the game"
	case KilledByDraining:
		return "Drained of all life"
	case KilledByFreezing:
		return "Froze to death"
	case KilledByBurning:
		return "Burnt to a crisp"
	case KilledByWildMagic:
		return "Killed by wild magic"
	case KilledByXom:
		return "Killed for Xom's enjoyment"
	case KilledByRotting:
		return "Rotted away"
	case KilledByTargeting:
		return "Killed themselves with bad targeting"
	case KilledByReflection:
		return "Killed by a reflected bolt"
	case KilledByBounce:
		return "Killed themselves with a bounced bolt"
	case KilledBySelfAimed:
		return "Killed themselves"
	case KilledByFallingDownStairs:
		return "Fell down a flight of stairs"
	case KilledByFallingThroughGate:
		return "Fell through a gate"
	case KilledByAcid:
		return "Splashed by acid"
	case KilledByDisintegration:
		return "Blown up by " + killer
	case KilledByDivineWrath:
		return "Killed by divine wrath"
	case KilledByZot:
		return "Tarried too long in the dungeon"
	}
	return "Died"
}

// shortCause is the Terse name of the cause.
func (e Entry) shortCause() string {
	if e.Method.MonsterCaused() || (e.Method == KilledByPoison && e.Killer != "") {
		if e.Killer != "" {
			return e.Killer
		}
		return "something"
	}
	if e.Aux != "" {
		return e.Aux
	}
	return strings.ReplaceAll(e.Method.String(), "_", " ")
}

// DeathDescription renders the entry at v. It never fails: missing
// details fall back to generic wording.
func (e Entry) DeathDescription(v Verbosity) string {
	switch v {
	case Terse:
		return fmt.Sprintf("%s (%d)", e.shortCause(), e.Damage)
	case Normal:
		desc := e.killPhrase()
		if e.Aux != "" && e.Method.MonsterCaused() {
			desc += " (" + e.Aux + ")"
		}
		return desc
	}

	printer := message.NewPrinter(language.English)
	var b strings.Builder
	b.WriteString(cases.Title(language.English, cases.NoLower).String(e.Name))
	b.WriteString(printer.Sprintf(" the %s %s (level %d, %d/%d HPs)", e.Species, e.Job, e.XL, e.HP, e.HPMax))
	b.WriteString(", ")
	b.WriteString(e.DeathDescription(Normal))
	if e.Place.Valid() && !e.Method.NonDeath() {
		b.WriteString(" on " + e.Place.String())
	}
	if e.Damage > 0 && !e.Method.NonDeath() {
		b.WriteString(printer.Sprintf(" (%d damage)", e.Damage))
	}
	b.WriteString(printer.Sprintf(", with %d points after %d turns.", e.Points, e.Turns))
	return b.String()
}

// LongKillMessage is the milestone text for a death.
func (e Entry) LongKillMessage() string {
	msg := e.DeathDescription(Normal)
	if e.Place.Valid() && !e.Method.NonDeath() {
		msg += " on " + e.Place.String()
	}
	return msg
}

func possessive(name string) string {
	if strings.HasSuffix(name, "s") {
		return name + "'"
	}
	return name + "'s"
}
