// Package builder generates plain room-and-corridor levels.
//
// It covers every connection a level needs: stairs to the levels above
// and below, branch entrances at their parent depth and the feature the
// player arrives on. It does not try to reproduce hand-made vaults.
package builder

import (
	"context"
	"errors"
	"fmt"

	"github.com/zyedidia/generic/mapset"
	"go.uber.org/zap"

	"github.com/louisbranch/undercroft/internal/random"
	"github.com/louisbranch/undercroft/internal/services/game/domain/level"
	"github.com/louisbranch/undercroft/internal/services/game/domain/session"
)

// ErrNoRoom indicates a feature could not be placed on the carved floor.
var ErrNoRoom = errors.New("no floor left for feature")

const (
	minSize  = 20
	minRooms = 5
	maxRooms = 9
)

var _ session.Builder = (*Builder)(nil)

// Builder generates levels. It is not safe for concurrent use.
type Builder struct {
	rng    *random.RNG
	logger *zap.Logger
	width  int
	height int
}

// Option configures a Builder.
type Option func(*Builder)

// WithSize overrides the default map size. Sizes below 20x20 are raised.
func WithSize(width, height int) Option {
	return func(b *Builder) {
		b.width = max(width, minSize)
		b.height = max(height, minSize)
	}
}

// New returns a builder drawing from rng.
func New(rng *random.RNG, logger *zap.Logger, opts ...Option) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Builder{rng: rng, logger: logger, width: level.Width, height: level.Height}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

type room struct {
	x, y, w, h int
}

func (r room) centre() level.Coord { return level.Coord{X: r.x + r.w/2, Y: r.y + r.h/2} }

// Generate builds the level id. arrive is always present on the result
// unless it is plain floor or a trap the player fell through.
func (b *Builder) Generate(ctx context.Context, id level.ID, arrive level.Feature) (*level.Level, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !id.Valid() {
		return nil, fmt.Errorf("%w: %s", level.ErrInvalidID, id)
	}
	l := level.New(id, b.width, b.height)
	rooms := b.carve(l)

	features := b.connections(id, arrive)
	for _, f := range features {
		if err := b.place(l, f); err != nil {
			return nil, fmt.Errorf("place %s on %s: %w", f, id, err)
		}
	}
	if id.Depth >= 3 && b.rng.OneChanceIn(3) {
		b.pool(l, rooms[b.rng.Random2(len(rooms))], id)
	}
	b.populate(l)

	b.logger.Debug("generated level",
		zap.String("level", id.String()),
		zap.Int("rooms", len(rooms)),
		zap.Int("features", len(features)),
		zap.Int("monsters", len(l.Monsters)))
	return l, nil
}

// carve digs rooms and joins each to the previous one, so all floor is
// connected.
func (b *Builder) carve(l *level.Level) []room {
	n := b.rng.RandomRange(minRooms, maxRooms)
	rooms := make([]room, 0, n)
	for range n {
		w := b.rng.RandomRange(4, min(10, l.Width/3))
		h := b.rng.RandomRange(3, min(7, l.Height/3))
		r := room{
			x: b.rng.RandomRange(1, l.Width-w-2),
			y: b.rng.RandomRange(1, l.Height-h-2),
			w: w,
			h: h,
		}
		for y := r.y; y < r.y+r.h; y++ {
			for x := r.x; x < r.x+r.w; x++ {
				_ = l.SetFeature(level.Coord{X: x, Y: y}, level.FeatFloor)
			}
		}
		if len(rooms) > 0 {
			b.corridor(l, rooms[len(rooms)-1].centre(), r.centre())
		}
		rooms = append(rooms, r)
	}
	return rooms
}

func (b *Builder) corridor(l *level.Level, from, to level.Coord) {
	dig := func(c level.Coord) {
		if l.InBounds(c) && l.At(c) == level.FeatWall {
			_ = l.SetFeature(c, level.FeatFloor)
		}
	}
	horizontalFirst := b.rng.Coinflip()
	corner := level.Coord{X: to.X, Y: from.Y}
	if !horizontalFirst {
		corner = level.Coord{X: from.X, Y: to.Y}
	}
	for _, leg := range [2][2]level.Coord{{from, corner}, {corner, to}} {
		c := leg[0]
		for {
			dig(c)
			if c == leg[1] {
				break
			}
			c = c.Add(level.Coord{X: sign(leg[1].X - c.X), Y: sign(leg[1].Y - c.Y)})
		}
	}
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

var (
	upStairs   = []level.Feature{level.FeatStoneStairsUpI, level.FeatStoneStairsUpII, level.FeatStoneStairsUpIII}
	downStairs = []level.Feature{level.FeatStoneStairsDownI, level.FeatStoneStairsDownII, level.FeatStoneStairsDownIII}
	portals    = []level.Branch{level.BranchSewer, level.BranchLabyrinth, level.BranchZiggurat, level.BranchPandemonium, level.BranchAbyss}
)

// connections lists the features id must carry, each exactly once.
func (b *Builder) connections(id level.ID, arrive level.Feature) []level.Feature {
	info := id.Branch.Info()
	seen := mapset.New[level.Feature]()
	var out []level.Feature
	add := func(f level.Feature) {
		if f == level.FeatUnseen || seen.Has(f) {
			return
		}
		seen.Put(f)
		out = append(out, f)
	}

	if id.Depth == 1 {
		add(info.Exit)
	} else {
		for _, f := range upStairs {
			add(f)
		}
	}
	if id.Depth < info.Depth {
		for _, f := range downStairs {
			add(f)
		}
	}
	for br := level.Branch(0); br < level.BranchCount; br++ {
		child := br.Info()
		if br != id.Branch && !child.Portal && child.Parent == id.Branch && child.ParentDepth == id.Depth {
			add(child.Entry)
		}
	}
	if id.Branch == level.BranchDungeon && id.Depth > 1 && b.rng.OneChanceIn(5) {
		add(portals[b.rng.Random2(len(portals))].Info().Entry)
	}

	if arrive != level.FeatFloor && !arrive.IsTrap() {
		add(arrive)
	}
	return out
}

// place puts f on a random floor cell that holds nothing else yet.
func (b *Builder) place(l *level.Level, f level.Feature) error {
	floor := l.Find(level.FeatFloor)
	if len(floor) == 0 {
		return ErrNoRoom
	}
	return l.SetFeature(floor[b.rng.Random2(len(floor))], f)
}

// pool floods the middle of r with water, lava in the hells and Zot. A
// pool that would cut the level in two is drained again.
func (b *Builder) pool(l *level.Level, r room, id level.ID) {
	liquid := level.FeatShallowWater
	switch {
	case id.Branch.Info().Hell, id.Branch == level.BranchZot:
		liquid = level.FeatLava
	case b.rng.Coinflip():
		liquid = level.FeatDeepWater
	}
	var flooded []level.Coord
	for y := r.y + 1; y < r.y+r.h-1; y++ {
		for x := r.x + 1; x < r.x+r.w-1; x++ {
			c := level.Coord{X: x, Y: y}
			if l.At(c) == level.FeatFloor && c != r.centre() {
				_ = l.SetFeature(c, liquid)
				flooded = append(flooded, c)
			}
		}
	}
	if !Connected(l) {
		for _, c := range flooded {
			_ = l.SetFeature(c, level.FeatFloor)
		}
	}
}

// Connected reports whether every cell a walker can stand on is reachable
// from every other.
func Connected(l *level.Level) bool {
	var start level.Coord
	total := 0
	for i, f := range l.Grid {
		if !f.Habitable(false) {
			continue
		}
		if total == 0 {
			start = level.Coord{X: i % l.Width, Y: i / l.Width}
		}
		total++
	}
	if total == 0 {
		return true
	}
	visited := mapset.New[level.Coord]()
	visited.Put(start)
	queue := []level.Coord{start}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		for _, n := range c.Adjacent() {
			if visited.Has(n) || !l.At(n).Habitable(false) {
				continue
			}
			visited.Put(n)
			queue = append(queue, n)
		}
	}
	return visited.Size() == total
}

type spawn struct {
	kind  string
	hp    int
	xl    int
	speed int
	flags level.MonsterFlag
}

// spawnTiers are indexed by depth band: shallow, middle, deep.
var spawnTiers = [3][]spawn{
	{
		{kind: "rat", hp: 3, xl: 1, speed: 12},
		{kind: "goblin", hp: 5, xl: 1, speed: 10},
		{kind: "jackal", hp: 7, xl: 1, speed: 14},
		{kind: "plant", hp: 10, xl: 1, speed: 0, flags: level.FlagNoStairs},
	},
	{
		{kind: "gnoll", hp: 16, xl: 2, speed: 10},
		{kind: "orc warrior", hp: 24, xl: 5, speed: 10},
		{kind: "oklob plant", hp: 40, xl: 10, speed: 0, flags: level.FlagNoStairs},
		{kind: "yak", hp: 30, xl: 7, speed: 10},
	},
	{
		{kind: "troll", hp: 60, xl: 11, speed: 10},
		{kind: "hydra", hp: 70, xl: 13, speed: 10},
		{kind: "ice statue", hp: 90, xl: 8, speed: 0, flags: level.FlagNoStairs},
		{kind: "tengu reaver", hp: 80, xl: 17, speed: 10},
	},
}

func (b *Builder) populate(l *level.Level) {
	band := min((l.ID.Depth-1)/5, len(spawnTiers)-1)
	tier := spawnTiers[band]
	n := b.rng.RandomRange(2, 3+l.ID.Depth/2)
	floor := l.Find(level.FeatFloor)
	for range n {
		if len(floor) == 0 {
			return
		}
		i := b.rng.Random2(len(floor))
		pos := floor[i]
		floor = append(floor[:i], floor[i+1:]...)
		sp := tier[b.rng.Random2(len(tier))]
		l.AddMonster(&level.Monster{
			Kind:  sp.kind,
			Pos:   pos,
			HP:    sp.hp,
			MaxHP: sp.hp,
			XL:    sp.xl,
			Speed: sp.speed,
			Flags: sp.flags,
		})
	}
}
