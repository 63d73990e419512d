package level

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDestination indicates a feature that leads nowhere from the
	// level it is on.
	ErrNoDestination = errors.New("feature leads nowhere")
	// ErrLeavesDungeon is returned for the dungeon exit, which ends the
	// game rather than changing levels.
	ErrLeavesDungeon = errors.New("feature leaves the dungeon")
)

// Destination returns the level reached by taking feature taken on from.
// Exits from portal branches return to the top of stack; an empty stack
// falls back to the first dungeon level.
func Destination(from ID, taken Feature, stack *Stack) (ID, error) {
	info := from.Branch.Info()
	nowhere := func() (ID, error) {
		return ID{}, fmt.Errorf("%w: %s on %s", ErrNoDestination, taken, from)
	}

	switch {
	case taken == FeatExitDungeon && from.Branch == BranchDungeon:
		return ID{}, ErrLeavesDungeon
	case taken.IsStoneStairDown(), taken == FeatEscapeHatchDown, taken == FeatTrapShaft:
		if from.Depth >= info.Depth {
			return nowhere()
		}
		return ID{Branch: from.Branch, Depth: from.Depth + 1}, nil
	case taken.IsStoneStair(), taken == FeatEscapeHatchUp:
		if from.Depth <= 1 {
			return nowhere()
		}
		return ID{Branch: from.Branch, Depth: from.Depth - 1}, nil
	case taken == FeatTransitPandemonium:
		return ID{Branch: BranchPandemonium, Depth: 1}, nil
	case taken == FeatExitThroughAbyss:
		return ID{Branch: BranchAbyss, Depth: 1}, nil
	case taken == info.Exit:
		if from.Branch.Connected() {
			return ID{Branch: info.Parent, Depth: info.ParentDepth}, nil
		}
		if stack != nil {
			if top, ok := stack.Top(); ok {
				return top.ID, nil
			}
		}
		return ID{Branch: BranchDungeon, Depth: 1}, nil
	}
	if b, ok := BranchByEntry(taken); ok {
		return ID{Branch: b, Depth: 1}, nil
	}
	return nowhere()
}

// DestStairType maps the feature used to leave a level to the feature the
// player should arrive on in dest. findFirst is false when any matching
// feature will do rather than the one nearest the stored arrival position.
// Unrecognised features map to FeatFloor.
func DestStairType(taken Feature, dest Branch) (feat Feature, findFirst bool) {
	inHell := dest.Info().Hell

	switch {
	case taken == FeatExitAbyss:
		return FeatExitDungeon, false
	case taken == FeatExitHell:
		return FeatEnterHell, true
	case taken == FeatEnterHell:
		return FeatExitHell, true
	case inHell && taken.IsStoneStairDown():
		return FeatEnterHell, false
	}

	switch taken {
	case FeatStoneStairsUpI:
		return FeatStoneStairsDownI, true
	case FeatStoneStairsUpII:
		return FeatStoneStairsDownII, true
	case FeatStoneStairsUpIII:
		return FeatStoneStairsDownIII, true
	case FeatStoneStairsDownI:
		return FeatStoneStairsUpI, true
	case FeatStoneStairsDownII:
		return FeatStoneStairsUpII, true
	case FeatStoneStairsDownIII:
		return FeatStoneStairsUpIII, true
	}

	if taken.IsEscapeHatch() || taken == FeatTrapShaft {
		return taken, true
	}

	switch taken {
	case FeatEnterDis, FeatEnterGehenna, FeatEnterCocytus, FeatEnterTartarus:
		if inHell {
			return FeatEnterHell, true
		}
		return taken, true
	}

	if taken.IsBranchExit() {
		for _, info := range branchTable {
			if info.Exit == taken {
				return info.Entry, true
			}
		}
	}

	// Labyrinths pick their own arrival point.
	if taken == FeatEnterLabyrinth {
		return FeatEnterLabyrinth, true
	}

	if taken.IsBranchEntrance() {
		for _, info := range branchTable {
			if info.Entry == taken {
				if info.Portal {
					break
				}
				return info.Exit, true
			}
		}
	}

	if taken.IsPortalEntrance() {
		return FeatStoneArch, true
	}

	return FeatFloor, false
}
