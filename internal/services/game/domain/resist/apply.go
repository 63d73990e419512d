package resist

import (
	"errors"

	"github.com/louisbranch/undercroft/internal/random"
	"github.com/louisbranch/undercroft/internal/services/game/domain/player"
)

// ErrMissingBeam reports a poison exposure without the beam that carries
// its dice.
var ErrMissingBeam = errors.New("poison exposure requires a beam")

const (
	msgResist        = "You resist."
	msgPartialResist = "You partially resist."
	// xomTerrible is the stimulus for damage amplified by a vulnerability.
	xomTerrible = 200
	// maxDrainPower caps drain from negative energy.
	maxDrainPower = 75
)

// Beam describes the projectile or effect that carried the damage.
type Beam struct {
	Source   string
	Name     string
	DiceNum  int
	DiceSize int
}

// Report lists what an applied exposure did, in the order it happened.
type Report struct {
	Damage   int
	Messages []string
	// XomStimulus is how much the exposure amused Xom.
	XomStimulus int
	Poisoned    int
	// PoisonSource and PoisonAux name what poisoned the player.
	PoisonSource    string
	PoisonAux       string
	Drain           player.DrainOutcome
	Drained         bool
	IcemailDepleted bool
	IcyArmourMelted bool
	Slowed          bool
	FlamesDoused    bool
}

func (r *Report) say(msg string) { r.Messages = append(r.Messages, msg) }

// Apply resolves dam of flavour f against p, with messages and side
// effects. source names the attacker when beam is nil.
func Apply(p *player.Player, rng *random.RNG, dam int, f Flavour, source string, beam *Beam) (Report, error) {
	if f.IsPoison() && beam == nil {
		return Report{Damage: dam}, ErrMissingBeam
	}
	original := dam
	rep := Report{}
	aux := ""
	if beam != nil {
		source = beam.Source
		aux = beam.Name
	}

	meltEnchantments(p, f, dam, &rep)

	def := DefensesOf(p)
	dam = Adjust(def, dam, f)

	switch f {
	case FlavourWater:
		if dam == 0 {
			rep.say("You shrug off the wave.")
		}
	case FlavourSteam:
		resistOrTerrible(&rep, dam, original, msgResist, "The steam scalds you terribly!")
	case FlavourFire:
		resistOrTerrible(&rep, dam, original, msgResist, "The fire burns you terribly!")
	case FlavourCold:
		resistOrTerrible(&rep, dam, original, msgResist, "You feel a terrible chill!")
	case FlavourIce:
		resistOrTerrible(&rep, dam, original, msgPartialResist, "You feel a painful chill!")
	case FlavourLava:
		resistOrTerrible(&rep, dam, original, msgPartialResist, "The lava burns you terribly!")
	case FlavourHoly:
		resistOrTerrible(&rep, dam, original, msgResist, "You writhe in agony!")
	case FlavourElectricity, FlavourAcid:
		if dam < original {
			rep.say(msgResist)
		}
	case FlavourMiasma:
		if dam == 0 && original > 0 {
			rep.say(msgResist)
		}
	case FlavourPoison:
		amount := poisonStrength(rng, beam)
		poisonPlayer(p, amount, false, &rep)
		rep.PoisonSource, rep.PoisonAux = source, aux
		if p.Resists.Poison > 0 {
			rep.say(msgResist)
		}
	case FlavourPoisonArrow:
		amount := poisonStrength(rng, beam)
		if p.Resists.Poison > 0 {
			amount /= 2
		}
		poisonPlayer(p, amount, true, &rep)
		rep.PoisonSource, rep.PoisonAux = source, aux
		if dam < original {
			rep.say(msgPartialResist)
		}
	case FlavourNegative:
		power := 35 + original*2/3
		if power > maxDrainPower {
			power = maxDrainPower
		}
		rep.Drain = p.Drain(power, false)
		rep.Drained = true
		if msg := DrainMessage(rep.Drain); msg != "" {
			rep.say(msg)
		}
	}
	rep.Damage = dam
	return rep, nil
}

func resistOrTerrible(rep *Report, dam, original int, resisted, terrible string) {
	switch {
	case dam < original:
		rep.say(resisted)
	case dam > original:
		rep.say(terrible)
		rep.XomStimulus += xomTerrible
	}
}

// poisonStrength rolls the poison a beam inflicts: a third of its dice
// product, jittered by a third either way, plus three.
func poisonStrength(rng *random.RNG, beam *Beam) int {
	pois := rng.DivRandRound(beam.DiceNum*beam.DiceSize, 3)
	return 3 + rng.RandomRange(pois*2/3, pois*4/3)
}

// poisonPlayer adds amount of poison. Resistance blocks it unless force is
// set; immunity always does.
func poisonPlayer(p *player.Player, amount int, force bool, rep *Report) {
	res := p.Resists.Poison
	if amount <= 0 || res >= 3 || (res > 0 && !force) {
		return
	}
	if p.Poison == 0 {
		rep.say("You are poisoned.")
	} else {
		rep.say("You feel worse.")
	}
	p.Poison += amount
	rep.Poisoned += amount
}

// meltEnchantments depletes icemail and melts icy armour on contact with
// heat. dam is the damage before resistance.
func meltEnchantments(p *player.Player, f Flavour, dam int, rep *Report) {
	if !f.Melts() {
		return
	}
	if p.Mutation(player.MutIcemail) > 0 {
		if p.Duration(player.DurIcemailDepleted) == 0 {
			rep.say("Your icy envelope dissipates!")
		}
		p.SetDuration(player.DurIcemailDepleted, player.IcemailTime)
		rep.IcemailDepleted = true
	}
	if armour := p.Duration(player.DurIcyArmour); armour > 0 {
		armour -= dam * player.BaselineDelay
		if armour <= 0 {
			p.SetDuration(player.DurIcyArmour, 0)
			p.MeltArmour = false
			rep.say("Your icy armour melts away.")
			rep.IcyArmourMelted = true
			return
		}
		p.SetDuration(player.DurIcyArmour, armour)
		p.MeltArmour = true
	}
}

// DrainMessage is the message for a drain outcome.
func DrainMessage(o player.DrainOutcome) string {
	switch o {
	case player.DrainResisted:
		return "You fully resist."
	case player.DrainPartial:
		return "You partially resist."
	case player.DrainFull:
		return "You feel drained."
	}
	return ""
}

// Expose applies the non-damage effects of contact with an element. It
// must run once per exposure, independently of Apply.
func Expose(p *player.Player, rng *random.RNG, f Flavour, strength int, slowColdBlooded bool) Report {
	var rep Report
	if f == FlavourCold && slowColdBlooded &&
		p.Mutation(player.MutColdBlooded) > 0 &&
		p.Resists.Cold <= 0 && rng.Coinflip() {
		p.IncreaseDuration(player.DurSlow, strength, 100)
		rep.Slowed = true
		rep.say("You feel yourself slow down.")
	}
	if f == FlavourWater && p.Duration(player.DurLiquidFlames) > 0 {
		p.SetDuration(player.DurLiquidFlames, 0)
		rep.FlamesDoused = true
		rep.say("The flames go out!")
	}
	return rep
}
