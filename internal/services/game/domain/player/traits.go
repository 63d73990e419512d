package player

// Species is the player's race.
type Species uint8

const (
	SpeciesHuman Species = iota
	SpeciesDeepDwarf
	SpeciesDraconian
	SpeciesGargoyle
	SpeciesMerfolk
	SpeciesMummy
	SpeciesOctopode
	speciesCount
)

var speciesNames = [...]string{"Human", "Deep Dwarf", "Draconian", "Gargoyle", "Merfolk", "Mummy", "Octopode"}

func (s Species) String() string {
	if s < speciesCount {
		return speciesNames[s]
	}
	return "Unknown"
}

// Valid reports whether s is a known species.
func (s Species) Valid() bool { return s < speciesCount }

// ParseSpecies resolves a species name.
func ParseSpecies(name string) (Species, bool) {
	for i, n := range speciesNames {
		if n == name {
			return Species(i), true
		}
	}
	return 0, false
}

// God is the deity the player worships.
type God uint8

const (
	GodNone God = iota
	GodXom
	GodYredelemnul
	GodRu
	GodJiyva
	GodDithmenos
	GodElyvilon
	GodFedhas
	GodZin
	godCount
)

var godNames = [...]string{"No God", "Xom", "Yredelemnul", "Ru", "Jiyva", "Dithmenos", "Elyvilon", "Fedhas", "Zin"}

func (g God) String() string {
	if g < godCount {
		return godNames[g]
	}
	return "Unknown"
}

// Valid reports whether g is a known god.
func (g God) Valid() bool { return g < godCount }

// Piety thresholds.
const (
	MaxPiety = 200
)

var pietyBreakpoints = [...]int{30, 50, 75, 100, 120, 160}

// PietyBreakpoint returns the piety needed for rank i (0-based).
func PietyBreakpoint(i int) int {
	if i < 0 {
		return 0
	}
	if i >= len(pietyBreakpoints) {
		return MaxPiety
	}
	return pietyBreakpoints[i]
}

// Mutation is an innate trait with a level.
type Mutation uint8

const (
	MutBearserk Mutation = iota
	MutNoRead
	MutNoDrink
	MutIcemail
	MutColdBlooded
	MutPoweredByPain
	MutDeterioration
	mutationCount
)

// Duration is a timed status. Values are in game time units.
type Duration uint8

const (
	DurTimeStep Duration = iota
	DurDeathsDoor
	DurCornered
	DurNoScrolls
	DurNoPotions
	DurIcemailDepleted
	DurIcyArmour
	DurLiquidFlames
	DurPetrified
	DurPetrifying
	DurSlow
	DurMight
	DurAgility
	DurFlight
	DurSanguineArmour
	DurCorrosion
	durationCount
)

// Form is a transformation.
type Form uint8

const (
	FormNone Form = iota
	FormShadow
	FormStatue
	FormDragon
	formCount
)

// Stat indexes Stats.
type Stat uint8

const (
	StatStr Stat = iota
	StatInt
	StatDex
	statCount
)

// Resists are the player's current resistance levels. Negative values are
// vulnerabilities.
type Resists struct {
	Fire   int
	Cold   int
	Elec   int
	Poison int
	// Neg is negative energy protection; 3 makes draining impossible.
	Neg   int
	Acid  int
	Steam int
	Holy  int
	Wind  bool
	Rot   bool
}

// Artefacts summarises equipment properties relevant to damage.
type Artefacts struct {
	Harm           bool
	SpiritShield   bool
	SanguineArmour bool
	CorrodeSources int
	SlowSources    int
}
