package level

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidID indicates a malformed or out-of-range level identity.
var ErrInvalidID = errors.New("invalid level id")

// ID identifies one level: a branch and a 1-based depth within it.
type ID struct {
	Branch Branch
	Depth  int
}

// Unset is the identity used before the player has entered any level.
var Unset = ID{Branch: BranchDungeon, Depth: -1}

// Valid reports whether id names an existing level.
func (id ID) Valid() bool {
	return id.Branch.Valid() && id.Depth >= 1 && id.Depth <= id.Branch.Info().Depth
}

// String is the canonical form, e.g. "D:3" or "Zig:12". Single-level
// branches omit the depth.
func (id ID) String() string {
	info := id.Branch.Info()
	if info.Depth == 1 && id.Depth == 1 {
		return info.Abbrev
	}
	return fmt.Sprintf("%s:%d", info.Abbrev, id.Depth)
}

// ChunkName is the archive chunk holding this level.
func (id ID) ChunkName() string { return id.String() }

// FileSafe replaces characters that are awkward in file names.
func (id ID) FileSafe() string { return strings.ReplaceAll(id.String(), ":", "-") }

// ParseID reverses String.
func ParseID(s string) (ID, error) {
	abbrev, depthText, hasDepth := strings.Cut(strings.TrimSpace(s), ":")
	branch, ok := BranchByAbbrev(abbrev)
	if !ok {
		return ID{}, fmt.Errorf("%w: unknown branch %q", ErrInvalidID, abbrev)
	}
	id := ID{Branch: branch, Depth: 1}
	if hasDepth {
		depth, err := strconv.Atoi(depthText)
		if err != nil {
			return ID{}, fmt.Errorf("%w: depth %q", ErrInvalidID, depthText)
		}
		id.Depth = depth
	}
	if !id.Valid() {
		return ID{}, fmt.Errorf("%w: %s", ErrInvalidID, s)
	}
	return id, nil
}
