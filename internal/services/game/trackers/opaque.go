package trackers

import "github.com/louisbranch/undercroft/internal/services/game/domain/session"

// Opaque keeps a chunk this build does not interpret, such as the tile
// doll, so a save round-trips it unchanged.
type Opaque struct {
	Name string
	data []byte
}

var _ session.ChunkStore = (*Opaque)(nil)

func (o *Opaque) ChunkName() string { return o.Name }

func (o *Opaque) Save() ([]byte, error) { return o.data, nil }

func (o *Opaque) Load(data []byte) error {
	o.data = append([]byte(nil), data...)
	return nil
}
