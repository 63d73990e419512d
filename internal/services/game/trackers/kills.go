package trackers

import (
	"sort"

	"github.com/louisbranch/undercroft/internal/services/game/domain/session"
	"github.com/louisbranch/undercroft/internal/services/game/domain/tag"
)

const maxKillKinds = 4096

// Kills counts the monsters the player has killed, by kind.
type Kills struct {
	counts map[string]int
}

var _ session.ChunkStore = (*Kills)(nil)

// Record counts one kill of kind.
func (t *Kills) Record(kind string) {
	if t.counts == nil {
		t.counts = map[string]int{}
	}
	t.counts[kind]++
}

// Count returns the kills of kind.
func (t *Kills) Count(kind string) int { return t.counts[kind] }

// Total is the number of kills of every kind.
func (t *Kills) Total() int {
	total := 0
	for _, n := range t.counts {
		total += n
	}
	return total
}

func (t *Kills) kinds() []string {
	kinds := make([]string, 0, len(t.counts))
	for k := range t.counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

func (t *Kills) ChunkName() string { return session.ChunkKills }

func (t *Kills) Save() ([]byte, error) {
	w := tag.NewChunkWriter()
	kinds := t.kinds()
	w.Int(len(kinds))
	for _, k := range kinds {
		w.String(k)
		w.Int(t.counts[k])
	}
	return w.Bytes(), nil
}

func (t *Kills) Load(data []byte) error {
	r, err := tag.NewChunkReader(data)
	if err != nil {
		return err
	}
	n := r.Count("kills", maxKillKinds)
	counts := make(map[string]int, n)
	for i := 0; i < n && r.Err() == nil; i++ {
		kind := r.String("kill.kind")
		counts[kind] = r.Int("kill.count")
	}
	if err := r.FailIfNotEOF(session.ChunkKills); err != nil {
		return err
	}
	t.counts = counts
	return nil
}
