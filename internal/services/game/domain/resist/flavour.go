// Package resist adjusts incoming damage for the player's elemental
// defences and applies the secondary effects of exposure.
//
// Adjust is a pure preview. Apply and Expose mutate the player and report
// what happened so the caller can emit messages in order.
package resist

import "strings"

// Flavour is the elemental type of a hit.
type Flavour uint8

const (
	FlavourPhysical Flavour = iota
	FlavourFire
	FlavourCold
	FlavourElectricity
	FlavourPoison
	FlavourPoisonArrow
	FlavourNegative
	FlavourWater
	FlavourSteam
	FlavourIce
	FlavourLava
	FlavourAcid
	FlavourMiasma
	FlavourHoly
	FlavourAir
	FlavourDamnation
	FlavourStickyFlame
	flavourCount
)

var flavourNames = [...]string{
	"physical", "fire", "cold", "electricity", "poison", "poison arrow",
	"negative energy", "water", "steam", "ice", "lava", "acid", "miasma",
	"holy", "air", "damnation", "sticky flame",
}

func (f Flavour) String() string {
	if f < flavourCount {
		return flavourNames[f]
	}
	return "unknown"
}

// Valid reports whether f is a known flavour.
func (f Flavour) Valid() bool { return f < flavourCount }

// ParseFlavour resolves a flavour by name, ignoring case.
func ParseFlavour(name string) (Flavour, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range flavourNames {
		if n == name {
			return Flavour(i), true
		}
	}
	return 0, false
}

// IsPoison reports whether f is one of the poison flavours. Poison damage
// bypasses shaving and the reactive armour effects.
func (f Flavour) IsPoison() bool {
	return f == FlavourPoison || f == FlavourPoisonArrow
}

// Melts reports whether f melts icy enchantments.
func (f Flavour) Melts() bool {
	switch f {
	case FlavourFire, FlavourLava, FlavourStickyFlame, FlavourSteam:
		return true
	}
	return false
}

// resistibleFraction is the percentage of damage a resistance applies to.
// The remainder always gets through.
func (f Flavour) resistibleFraction() int {
	switch f {
	case FlavourIce:
		return 50
	case FlavourLava:
		return 55
	case FlavourPoisonArrow:
		return 70
	}
	return 100
}

// immuneAtThree reports whether three levels of resistance grant full
// immunity. Other flavours need more than three.
func (f Flavour) immuneAtThree() bool {
	switch f {
	case FlavourNegative, FlavourPoison, FlavourPoisonArrow:
		return true
	}
	return false
}
