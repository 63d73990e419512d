package level

// MID identifies a monster for the lifetime of a game.
type MID uint32

// Reserved MIDs.
const (
	MIDNobody MID = 0
	MIDPlayer MID = 0xFFFFFFFF
	// firstMonsterMID leaves room below for special sources.
	firstMonsterMID MID = 0x100
)

// MonsterFlag is a bit set of monster state.
type MonsterFlag uint32

const (
	// FlagTakingStairs is set on monsters adjacent to the player that
	// intend to follow on the next level change.
	FlagTakingStairs MonsterFlag = 1 << iota
	// FlagWontAttack marks allies.
	FlagWontAttack
	FlagSummoned
	FlagUnique
	FlagIncapacitated
	// FlagNoStairs marks a monster that cannot use stairs at all.
	FlagNoStairs
	FlagDead
)

// KindPlayerGhost is the monster kind produced from bones files.
const KindPlayerGhost = "player ghost"

// Monster is a creature on a level or in transit between levels.
type Monster struct {
	MID   MID
	Kind  string
	Name  string
	Pos   Coord
	HP    int
	MaxHP int
	XL    int
	Speed int
	Flags MonsterFlag
	// HarmAmplified is set when the monster wears an amulet of harm.
	HarmAmplified bool
	Inventory     []string
	// Ghost carries the encoded ghost record for player ghosts.
	Ghost []byte
}

func (m *Monster) Has(f MonsterFlag) bool { return m.Flags&f != 0 }
func (m *Monster) Set(f MonsterFlag)      { m.Flags |= f }
func (m *Monster) Clear(f MonsterFlag)    { m.Flags &^= f }

// Alive reports whether m can still act.
func (m *Monster) Alive() bool { return !m.Has(FlagDead) && m.HP > 0 }

// CanUseStairs reports whether m can change levels.
func (m *Monster) CanUseStairs() bool { return !m.Has(FlagNoStairs) && !m.Has(FlagSummoned) }

// ClassCanUseStairs reports whether m's kind can use stairs, ignoring the
// summoned state. Summons of such kinds time out instead of following.
func (m *Monster) ClassCanUseStairs() bool { return !m.Has(FlagNoStairs) }

// DisplayName prefers the proper name over the kind.
func (m *Monster) DisplayName() string {
	if m.Name != "" {
		return m.Name
	}
	return "the " + m.Kind
}
