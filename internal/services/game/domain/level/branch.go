package level

import "strings"

// Branch identifies a section of the dungeon.
type Branch uint8

const (
	BranchDungeon Branch = iota
	BranchTemple
	BranchLair
	BranchOrc
	BranchVaults
	BranchDepths
	BranchZot
	BranchVestibule
	BranchDis
	BranchGehenna
	BranchCocytus
	BranchTartarus
	BranchAbyss
	BranchPandemonium
	BranchZiggurat
	BranchLabyrinth
	BranchSewer

	BranchCount
)

// BranchInfo is the static description of a branch.
type BranchInfo struct {
	Name   string
	Abbrev string
	// Depth is the number of levels in the branch.
	Depth  int
	Parent Branch
	// ParentDepth is where the entrance sits in Parent; zero for
	// branches reached through portals or the root.
	ParentDepth int
	Entry       Feature
	Exit        Feature
	// Portal branches are left off the connected level graph; their
	// levels are pushed on the level stack and deleted on exit.
	Portal bool
	// Hell marks the four hell sub-branches, not the Vestibule.
	Hell bool
	// NoGhosts excludes the branch from bones writes unless forced.
	NoGhosts bool
	// NoFollowers stops allies from taking the stairs.
	NoFollowers bool
}

var branchTable = [BranchCount]BranchInfo{
	BranchDungeon:     {Name: "Dungeon", Abbrev: "D", Depth: 15, Parent: BranchDungeon, Exit: FeatExitDungeon},
	BranchTemple:      {Name: "Temple", Abbrev: "Temple", Depth: 1, Parent: BranchDungeon, ParentDepth: 4, Entry: FeatEnterTemple, Exit: FeatExitTemple, NoGhosts: true},
	BranchLair:        {Name: "Lair", Abbrev: "Lair", Depth: 6, Parent: BranchDungeon, ParentDepth: 8, Entry: FeatEnterLair, Exit: FeatExitLair},
	BranchOrc:         {Name: "Orcish Mines", Abbrev: "Orc", Depth: 2, Parent: BranchDungeon, ParentDepth: 10, Entry: FeatEnterOrc, Exit: FeatExitOrc},
	BranchVaults:      {Name: "Vaults", Abbrev: "Vaults", Depth: 5, Parent: BranchDungeon, ParentDepth: 13, Entry: FeatEnterVaults, Exit: FeatExitVaults},
	BranchDepths:      {Name: "Depths", Abbrev: "Depths", Depth: 4, Parent: BranchDungeon, ParentDepth: 15, Entry: FeatEnterDepths, Exit: FeatExitDepths},
	BranchZot:         {Name: "Realm of Zot", Abbrev: "Zot", Depth: 5, Parent: BranchDepths, ParentDepth: 4, Entry: FeatEnterZot, Exit: FeatExitZot},
	BranchVestibule:   {Name: "Vestibule of Hell", Abbrev: "Hell", Depth: 1, Parent: BranchDepths, ParentDepth: 2, Entry: FeatEnterHell, Exit: FeatExitHell},
	BranchDis:         {Name: "Iron City of Dis", Abbrev: "Dis", Depth: 7, Parent: BranchVestibule, ParentDepth: 1, Entry: FeatEnterDis, Exit: FeatExitHell, Hell: true},
	BranchGehenna:     {Name: "Gehenna", Abbrev: "Geh", Depth: 7, Parent: BranchVestibule, ParentDepth: 1, Entry: FeatEnterGehenna, Exit: FeatExitHell, Hell: true},
	BranchCocytus:     {Name: "Cocytus", Abbrev: "Coc", Depth: 7, Parent: BranchVestibule, ParentDepth: 1, Entry: FeatEnterCocytus, Exit: FeatExitHell, Hell: true},
	BranchTartarus:    {Name: "Tartarus", Abbrev: "Tar", Depth: 7, Parent: BranchVestibule, ParentDepth: 1, Entry: FeatEnterTartarus, Exit: FeatExitHell, Hell: true},
	BranchAbyss:       {Name: "Abyss", Abbrev: "Abyss", Depth: 5, Parent: BranchDungeon, Entry: FeatEnterAbyss, Exit: FeatExitAbyss, Portal: true, NoGhosts: true},
	BranchPandemonium: {Name: "Pandemonium", Abbrev: "Pan", Depth: 1, Parent: BranchDungeon, Entry: FeatEnterPandemonium, Exit: FeatExitPandemonium, Portal: true},
	BranchZiggurat:    {Name: "Ziggurat", Abbrev: "Zig", Depth: 27, Parent: BranchDungeon, Entry: FeatEnterZiggurat, Exit: FeatExitZiggurat, Portal: true},
	BranchLabyrinth:   {Name: "Labyrinth", Abbrev: "Lab", Depth: 1, Parent: BranchDungeon, Entry: FeatEnterLabyrinth, Exit: FeatExitLabyrinth, Portal: true, NoFollowers: true},
	BranchSewer:       {Name: "Sewer", Abbrev: "Sewer", Depth: 1, Parent: BranchDungeon, Entry: FeatEnterSewer, Exit: FeatExitSewer, Portal: true},
}

// Info returns the static description of b. Unknown branches get a zero
// value with an empty name.
func (b Branch) Info() BranchInfo {
	if b >= BranchCount {
		return BranchInfo{}
	}
	return branchTable[b]
}

func (b Branch) String() string {
	if b >= BranchCount {
		return "unknown branch"
	}
	return branchTable[b].Name
}

// Valid reports whether b is a known branch.
func (b Branch) Valid() bool { return b < BranchCount }

// Connected reports whether b is part of the permanent level graph.
func (b Branch) Connected() bool { return b.Valid() && !branchTable[b].Portal }

// BranchByAbbrev resolves a short branch name, case-insensitively.
func BranchByAbbrev(abbrev string) (Branch, bool) {
	for i, info := range branchTable {
		if strings.EqualFold(info.Abbrev, abbrev) || strings.EqualFold(info.Name, abbrev) {
			return Branch(i), true
		}
	}
	return 0, false
}

// BranchByEntry finds the branch entered through f.
func BranchByEntry(f Feature) (Branch, bool) {
	for i, info := range branchTable {
		if info.Entry == f && f != FeatUnseen {
			return Branch(i), true
		}
	}
	return 0, false
}
