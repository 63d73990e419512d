package level

// Feature is the terrain or dungeon feature occupying a map cell.
type Feature uint8

const (
	FeatUnseen Feature = iota
	FeatFloor
	FeatWall
	FeatShallowWater
	FeatDeepWater
	FeatLava
	FeatTrap
	FeatTrapShaft
	FeatStoneArch

	FeatStoneStairsDownI
	FeatStoneStairsDownII
	FeatStoneStairsDownIII
	FeatStoneStairsUpI
	FeatStoneStairsUpII
	FeatStoneStairsUpIII
	FeatEscapeHatchDown
	FeatEscapeHatchUp

	FeatExitDungeon
	FeatEnterTemple
	FeatExitTemple
	FeatEnterLair
	FeatExitLair
	FeatEnterOrc
	FeatExitOrc
	FeatEnterVaults
	FeatExitVaults
	FeatEnterDepths
	FeatExitDepths
	FeatEnterZot
	FeatExitZot
	FeatEnterHell
	FeatExitHell
	FeatEnterDis
	FeatEnterGehenna
	FeatEnterCocytus
	FeatEnterTartarus

	FeatEnterAbyss
	FeatExitAbyss
	FeatExitThroughAbyss
	FeatEnterPandemonium
	FeatTransitPandemonium
	FeatExitPandemonium
	FeatEnterZiggurat
	FeatExitZiggurat
	FeatEnterLabyrinth
	FeatExitLabyrinth
	FeatEnterSewer
	FeatExitSewer

	featCount
)

var featureNames = [...]string{
	FeatUnseen:             "unseen",
	FeatFloor:              "floor",
	FeatWall:               "wall",
	FeatShallowWater:       "shallow water",
	FeatDeepWater:          "deep water",
	FeatLava:               "lava",
	FeatTrap:               "trap",
	FeatTrapShaft:          "shaft",
	FeatStoneArch:          "stone arch",
	FeatStoneStairsDownI:   "stone staircase down I",
	FeatStoneStairsDownII:  "stone staircase down II",
	FeatStoneStairsDownIII: "stone staircase down III",
	FeatStoneStairsUpI:     "stone staircase up I",
	FeatStoneStairsUpII:    "stone staircase up II",
	FeatStoneStairsUpIII:   "stone staircase up III",
	FeatEscapeHatchDown:    "escape hatch down",
	FeatEscapeHatchUp:      "escape hatch up",
	FeatExitDungeon:        "exit from the dungeon",
	FeatEnterTemple:        "entrance to the Temple",
	FeatExitTemple:         "exit from the Temple",
	FeatEnterLair:          "entrance to the Lair",
	FeatExitLair:           "exit from the Lair",
	FeatEnterOrc:           "entrance to the Orcish Mines",
	FeatExitOrc:            "exit from the Orcish Mines",
	FeatEnterVaults:        "entrance to the Vaults",
	FeatExitVaults:         "exit from the Vaults",
	FeatEnterDepths:        "entrance to the Depths",
	FeatExitDepths:         "exit from the Depths",
	FeatEnterZot:           "entrance to the Realm of Zot",
	FeatExitZot:            "exit from the Realm of Zot",
	FeatEnterHell:          "gateway to Hell",
	FeatExitHell:           "gateway back to the Dungeon",
	FeatEnterDis:           "gateway to the Iron City of Dis",
	FeatEnterGehenna:       "gateway to Gehenna",
	FeatEnterCocytus:       "gateway to Cocytus",
	FeatEnterTartarus:      "gateway to Tartarus",
	FeatEnterAbyss:         "gateway to the Abyss",
	FeatExitAbyss:          "gateway out of the Abyss",
	FeatExitThroughAbyss:   "gateway through the Abyss",
	FeatEnterPandemonium:   "gateway to Pandemonium",
	FeatTransitPandemonium: "gateway to another demonic plane",
	FeatExitPandemonium:    "gateway out of Pandemonium",
	FeatEnterZiggurat:      "gateway to a ziggurat",
	FeatExitZiggurat:       "exit from the ziggurat",
	FeatEnterLabyrinth:     "labyrinth entrance",
	FeatExitLabyrinth:      "exit from the labyrinth",
	FeatEnterSewer:         "sewer entrance",
	FeatExitSewer:          "exit from the sewer",
}

func (f Feature) String() string {
	if int(f) < len(featureNames) && featureNames[f] != "" {
		return featureNames[f]
	}
	return "unknown feature"
}

// Valid reports whether f is a known feature.
func (f Feature) Valid() bool { return f < featCount }

func (f Feature) IsStoneStair() bool {
	return f >= FeatStoneStairsDownI && f <= FeatStoneStairsUpIII
}

func (f Feature) IsStoneStairDown() bool {
	return f >= FeatStoneStairsDownI && f <= FeatStoneStairsDownIII
}

func (f Feature) IsEscapeHatch() bool {
	return f == FeatEscapeHatchDown || f == FeatEscapeHatchUp
}

// IsBranchEntrance reports whether f leads into a branch from its parent.
func (f Feature) IsBranchEntrance() bool {
	if f == FeatUnseen {
		return false
	}
	for _, info := range branchTable {
		if info.Entry == f {
			return true
		}
	}
	return false
}

// IsBranchExit reports whether f leads out of a branch to its parent.
func (f Feature) IsBranchExit() bool {
	for _, info := range branchTable {
		if info.Exit == f {
			return true
		}
	}
	return false
}

// IsPortalEntrance reports whether f leads into a non-connected branch.
func (f Feature) IsPortalEntrance() bool {
	if f == FeatUnseen {
		return false
	}
	for _, info := range branchTable {
		if info.Entry == f && info.Portal {
			return true
		}
	}
	return false
}

func (f Feature) IsTrap() bool { return f == FeatTrap || f == FeatTrapShaft }

// IsStair reports whether f moves the player between levels.
func (f Feature) IsStair() bool {
	return f.IsStoneStair() || f.IsEscapeHatch() || f == FeatTrapShaft ||
		(f >= FeatExitDungeon && f < featCount)
}

// Habitable reports whether a walking creature can stand on f.
func (f Feature) Habitable(canSwim bool) bool {
	switch f {
	case FeatWall, FeatUnseen, FeatLava:
		return false
	case FeatDeepWater:
		return canSwim
	}
	return f.Valid()
}

// Dangerous reports whether entering f can kill a non-flying player.
func (f Feature) Dangerous() bool {
	return f == FeatLava || f == FeatDeepWater
}
