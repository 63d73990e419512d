package persist

import (
	"sort"

	"github.com/louisbranch/undercroft/internal/services/game/domain/level"
	"github.com/louisbranch/undercroft/internal/services/game/domain/player"
	"github.com/louisbranch/undercroft/internal/services/game/domain/tag"
)

const (
	maxTransitLevels   = 64
	maxTransitMonsters = 512
)

// encodePlayerChunk writes the "you" chunk: the player followed by the
// monsters in transit.
func encodePlayerChunk(p *player.Player, transit map[level.ID][]*level.Monster) []byte {
	w := tag.NewChunkWriter()
	player.Encode(w, p)

	ids := make([]level.ID, 0, len(transit))
	for id, ms := range transit {
		if len(ms) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return lessID(ids[i], ids[j]) })
	w.Int(len(ids))
	for _, id := range ids {
		level.EncodeID(w, id)
		w.Int(len(transit[id]))
		for _, m := range transit[id] {
			level.EncodeMonster(w, m)
		}
	}
	return w.Bytes()
}

func decodePlayerChunk(data []byte) (*player.Player, map[level.ID][]*level.Monster, error) {
	r, err := tag.NewChunkReader(data)
	if err != nil {
		return nil, nil, err
	}
	p := player.Decode(r)

	transit := map[level.ID][]*level.Monster{}
	n := r.Count("transit.levels", maxTransitLevels)
	for i := 0; i < n && r.Err() == nil; i++ {
		id := level.DecodeID(r, "transit.level")
		count := r.Count("transit.monsters", maxTransitMonsters)
		for j := 0; j < count && r.Err() == nil; j++ {
			if m := level.DecodeMonster(r); m != nil {
				transit[id] = append(transit[id], m)
			}
		}
	}
	if err := r.FailIfNotEOF("you"); err != nil {
		return nil, nil, err
	}
	return p, transit, nil
}

func encodeLevelChunk(l *level.Level) []byte {
	w := tag.NewChunkWriter()
	level.Encode(w, l)
	return w.Bytes()
}

func decodeLevelChunk(data []byte) (*level.Level, error) {
	r, err := tag.NewChunkReader(data)
	if err != nil {
		return nil, err
	}
	l := level.Decode(r)
	if err := r.FailIfNotEOF("level"); err != nil {
		return nil, err
	}
	return l, nil
}

func lessID(a, b level.ID) bool {
	if a.Branch != b.Branch {
		return a.Branch < b.Branch
	}
	return a.Depth < b.Depth
}
