package trackers

import (
	"sort"

	"github.com/louisbranch/undercroft/internal/services/game/domain/level"
	"github.com/louisbranch/undercroft/internal/services/game/domain/session"
	"github.com/louisbranch/undercroft/internal/services/game/domain/tag"
)

const (
	maxTrackedLevels = 1024
	maxStashCells    = 8192
	maxStashItems    = 64
	maxStairs        = 64
)

func sortedIDs[V any](m map[level.ID]V) []level.ID {
	ids := make([]level.ID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Branch != ids[j].Branch {
			return ids[i].Branch < ids[j].Branch
		}
		return ids[i].Depth < ids[j].Depth
	})
	return ids
}

// Stashes remembers the items the player has seen on each level.
type Stashes struct {
	levels map[level.ID]map[level.Coord][]string
}

var (
	_ session.LevelTracker = (*Stashes)(nil)
	_ session.ChunkStore   = (*Stashes)(nil)
)

// See records the items seen at c on id. An empty list forgets the cell.
func (t *Stashes) See(id level.ID, c level.Coord, items []string) {
	if len(items) == 0 {
		if cells := t.levels[id]; cells != nil {
			delete(cells, c)
			if len(cells) == 0 {
				delete(t.levels, id)
			}
		}
		return
	}
	if t.levels == nil {
		t.levels = map[level.ID]map[level.Coord][]string{}
	}
	if t.levels[id] == nil {
		t.levels[id] = map[level.Coord][]string{}
	}
	t.levels[id][c] = append([]string(nil), items...)
}

// At returns the items remembered at c on id.
func (t *Stashes) At(id level.ID, c level.Coord) []string {
	return t.levels[id][c]
}

// Levels reports how many levels have stashes.
func (t *Stashes) Levels() int { return len(t.levels) }

// RemoveLevel forgets every stash on id.
func (t *Stashes) RemoveLevel(id level.ID) { delete(t.levels, id) }

func (t *Stashes) ChunkName() string { return session.ChunkStashes }

func (t *Stashes) Save() ([]byte, error) {
	w := tag.NewChunkWriter()
	ids := sortedIDs(t.levels)
	w.Int(len(ids))
	for _, id := range ids {
		level.EncodeID(w, id)
		cells := t.levels[id]
		coords := make([]level.Coord, 0, len(cells))
		for c := range cells {
			coords = append(coords, c)
		}
		sort.Slice(coords, func(i, j int) bool {
			if coords[i].Y != coords[j].Y {
				return coords[i].Y < coords[j].Y
			}
			return coords[i].X < coords[j].X
		})
		w.Int(len(coords))
		for _, c := range coords {
			level.EncodeCoord(w, c)
			w.Int(len(cells[c]))
			for _, item := range cells[c] {
				w.String(item)
			}
		}
	}
	return w.Bytes(), nil
}

func (t *Stashes) Load(data []byte) error {
	r, err := tag.NewChunkReader(data)
	if err != nil {
		return err
	}
	levels := map[level.ID]map[level.Coord][]string{}
	n := r.Count("stashes", maxTrackedLevels)
	for i := 0; i < n && r.Err() == nil; i++ {
		id := level.DecodeID(r, "stash.level")
		cells := map[level.Coord][]string{}
		count := r.Count("stash.cells", maxStashCells)
		for j := 0; j < count && r.Err() == nil; j++ {
			c := level.DecodeCoord(r, "stash.pos")
			items := make([]string, r.Count("stash.items", maxStashItems))
			for k := range items {
				items[k] = r.String("stash.item")
			}
			cells[c] = items
		}
		levels[id] = cells
	}
	if err := r.FailIfNotEOF(session.ChunkStashes); err != nil {
		return err
	}
	t.levels = levels
	return nil
}

// LevelTravel is what the travel cache knows about one level.
type LevelTravel struct {
	Stairs     []level.Coord
	Annotation string
}

// Travel caches known stairs and player annotations per level.
type Travel struct {
	levels map[level.ID]LevelTravel
}

var (
	_ session.LevelTracker = (*Travel)(nil)
	_ session.ChunkStore   = (*Travel)(nil)
)

// AddStairs records a staircase at c on id.
func (t *Travel) AddStairs(id level.ID, c level.Coord) {
	if t.levels == nil {
		t.levels = map[level.ID]LevelTravel{}
	}
	lt := t.levels[id]
	for _, known := range lt.Stairs {
		if known == c {
			return
		}
	}
	lt.Stairs = append(lt.Stairs, c)
	t.levels[id] = lt
}

// Annotate sets the annotation for id.
func (t *Travel) Annotate(id level.ID, note string) {
	if t.levels == nil {
		t.levels = map[level.ID]LevelTravel{}
	}
	lt := t.levels[id]
	lt.Annotation = note
	t.levels[id] = lt
}

// Level returns what is known about id.
func (t *Travel) Level(id level.ID) (LevelTravel, bool) {
	lt, ok := t.levels[id]
	return lt, ok
}

// RemoveLevel forgets id.
func (t *Travel) RemoveLevel(id level.ID) { delete(t.levels, id) }

func (t *Travel) ChunkName() string { return session.ChunkTravel }

func (t *Travel) Save() ([]byte, error) {
	w := tag.NewChunkWriter()
	ids := sortedIDs(t.levels)
	w.Int(len(ids))
	for _, id := range ids {
		lt := t.levels[id]
		level.EncodeID(w, id)
		w.String(lt.Annotation)
		w.Int(len(lt.Stairs))
		for _, c := range lt.Stairs {
			level.EncodeCoord(w, c)
		}
	}
	return w.Bytes(), nil
}

func (t *Travel) Load(data []byte) error {
	r, err := tag.NewChunkReader(data)
	if err != nil {
		return err
	}
	levels := map[level.ID]LevelTravel{}
	n := r.Count("travel", maxTrackedLevels)
	for i := 0; i < n && r.Err() == nil; i++ {
		id := level.DecodeID(r, "travel.level")
		lt := LevelTravel{Annotation: r.String("travel.annotation")}
		stairs := r.Count("travel.stairs", maxStairs)
		for j := 0; j < stairs && r.Err() == nil; j++ {
			lt.Stairs = append(lt.Stairs, level.DecodeCoord(r, "travel.stair"))
		}
		levels[id] = lt
	}
	if err := r.FailIfNotEOF(session.ChunkTravel); err != nil {
		return err
	}
	t.levels = levels
	return nil
}
