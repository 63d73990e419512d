package resist

import "github.com/louisbranch/undercroft/internal/services/game/domain/player"

// Defenses is the snapshot of the player state Adjust reads.
type Defenses struct {
	Resists  player.Resists
	Airborne bool
}

// DefensesOf captures p's current defences.
func DefensesOf(p *player.Player) Defenses {
	return Defenses{Resists: p.Resists, Airborne: p.Airborne}
}

// Level returns the resistance level that applies to f, or 0 when the
// flavour is not resisted through a level.
func (d Defenses) Level(f Flavour) int {
	r := d.Resists
	switch f {
	case FlavourFire, FlavourLava, FlavourStickyFlame:
		return r.Fire
	case FlavourCold, FlavourIce:
		return r.Cold
	case FlavourElectricity:
		return r.Elec
	case FlavourPoison, FlavourPoisonArrow:
		return r.Poison
	case FlavourNegative:
		return r.Neg
	case FlavourAcid:
		return r.Acid
	case FlavourHoly:
		return r.Holy
	case FlavourSteam:
		steam := r.Steam
		if r.Fire > 0 {
			steam += (r.Fire + 1) / 2
		}
		if steam > 3 {
			steam = 3
		}
		return steam
	}
	return 0
}

// Adjust returns dam after d's resistance to f. It has no side effects and
// draws no random numbers.
func Adjust(d Defenses, dam int, f Flavour) int {
	if dam <= 0 {
		return dam
	}
	switch f {
	case FlavourMiasma:
		if d.Resists.Rot {
			return 0
		}
		return dam
	case FlavourAir:
		if d.Resists.Wind {
			return 0
		}
		if d.Airborne {
			return dam + dam/2
		}
		return dam
	case FlavourPhysical, FlavourWater, FlavourDamnation:
		return dam
	}
	return scale(dam, d.Level(f), f)
}

func scale(dam, res int, f Flavour) int {
	if res == 0 {
		return dam
	}
	resistible := dam * f.resistibleFraction() / 100
	irresistible := dam - resistible
	switch {
	case res > 0:
		if res > 3 || (res >= 3 && f.immuneAtThree()) {
			resistible = 0
		} else {
			resistible /= 1 + res*res
		}
	default:
		resistible = resistible * 15 / 10
	}
	return resistible + irresistible
}
