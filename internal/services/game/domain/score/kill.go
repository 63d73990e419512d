// Package score builds the immutable record of how a game ended and renders
// it for notes, the high-score table and the logfile.
package score

// KillMethod classifies what ended (or hurt) the character.
type KillMethod uint8

const (
	KilledByMonster KillMethod = iota
	KilledByPoison
	KilledByCloud
	KilledByBeam
	KilledByLava
	KilledByWater
	KilledByStupidity
	KilledByWeakness
	KilledByClumsiness
	KilledByTrap
	KilledByLeaving
	KilledByWinning
	KilledByQuitting
	KilledByDraining
	KilledByFreezing
	KilledByBurning
	KilledByWildMagic
	KilledByXom
	KilledByRotting
	KilledByTargeting
	KilledByReflection
	KilledByBounce
	KilledBySelfAimed
	KilledByFallingDownStairs
	KilledByFallingThroughGate
	KilledByAcid
	KilledByDisintegration
	KilledByDivineWrath
	KilledByZot
	KilledBySomething
	killMethodCount
)

var killMethodNames = [...]string{
	"monster", "poison", "cloud", "beam", "lava", "water", "stupidity",
	"weakness", "clumsiness", "trap", "leaving", "winning", "quitting",
	"draining", "freezing", "burning", "wild_magic", "xom", "rotting",
	"targeting", "reflection", "bounce", "self_aimed", "falling_down_stairs",
	"falling_through_gate", "acid", "disintegration", "divine_wrath", "zot",
	"something",
}

// String is the logfile key for the method.
func (k KillMethod) String() string {
	if k < killMethodCount {
		return killMethodNames[k]
	}
	return "unknown"
}

// Valid reports whether k is known.
func (k KillMethod) Valid() bool { return k < killMethodCount }

// ParseKillMethod resolves a logfile key.
func ParseKillMethod(name string) (KillMethod, bool) {
	for i, n := range killMethodNames {
		if n == name {
			return KillMethod(i), true
		}
	}
	return 0, false
}

// NonDeath reports methods that end a game without killing the
// character.
func (k KillMethod) NonDeath() bool {
	return k == KilledByQuitting || k == KilledByWinning || k == KilledByLeaving
}

// Environmental reports methods that death's door does not protect
// against when no monster is responsible.
func (k KillMethod) Environmental() bool {
	return k == KilledByLava || k == KilledByWater
}

// MonsterCaused reports methods with a monster behind them.
func (k KillMethod) MonsterCaused() bool {
	switch k {
	case KilledByMonster, KilledByBeam, KilledByDisintegration:
		return true
	}
	return false
}

// SelfInflicted reports methods where the player hurt themselves.
func (k KillMethod) SelfInflicted() bool {
	switch k {
	case KilledByTargeting, KilledByBounce, KilledByReflection, KilledBySelfAimed:
		return true
	}
	return false
}
