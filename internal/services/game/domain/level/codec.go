package level

import (
	"github.com/louisbranch/undercroft/internal/services/game/domain/tag"
)

// Limits guarding decoded sizes.
const (
	maxDimension = 512
	maxMonsters  = 4096
	maxItems     = 8192
	maxInventory = 64
)

// EncodeID writes a level identity.
func EncodeID(w *tag.Writer, id ID) {
	w.Uint8(uint8(id.Branch))
	w.Int16(int16(id.Depth))
}

// DecodeID reads a level identity. Unset is accepted.
func DecodeID(r *tag.Reader, field string) ID {
	id := ID{Branch: Branch(r.Uint8(field + ".branch")), Depth: int(r.Int16(field + ".depth"))}
	if r.Err() == nil && id != Unset && !id.Valid() {
		r.Corrupt(field, "level %d:%d", id.Branch, id.Depth)
	}
	return id
}

// EncodeCoord writes a position.
func EncodeCoord(w *tag.Writer, c Coord) {
	w.Int16(int16(c.X))
	w.Int16(int16(c.Y))
}

// DecodeCoord reads a position.
func DecodeCoord(r *tag.Reader, field string) Coord {
	return Coord{X: int(r.Int16(field + ".x")), Y: int(r.Int16(field + ".y"))}
}

// EncodeStack writes the excursion stack.
func EncodeStack(w *tag.Writer, s *Stack) {
	w.Int(s.Len())
	for _, e := range s.entries {
		EncodeID(w, e.ID)
		EncodeCoord(w, e.Pos)
	}
}

// DecodeStack reads the excursion stack. A duplicate entry is corrupt.
func DecodeStack(r *tag.Reader) Stack {
	var s Stack
	n := r.Count("stack", int(BranchCount)*32)
	for i := 0; i < n && r.Err() == nil; i++ {
		p := Pos{ID: DecodeID(r, "stack.id"), Pos: DecodeCoord(r, "stack.pos")}
		if r.Err() != nil {
			break
		}
		if err := s.Push(p); err != nil {
			r.Corrupt("stack", "%v", err)
		}
	}
	return s
}

// EncodePlaceInfo writes one place info record at the current minor.
func EncodePlaceInfo(w *tag.Writer, p PlaceInfo) {
	EncodePlaceInfoAt(w, p, tag.MinorCurrent)
}

// EncodePlaceInfoAt writes the record as a writer at minor would have.
func EncodePlaceInfoAt(w *tag.Writer, p PlaceInfo, minor uint8) {
	w.Uint8(uint8(p.Branch))
	w.Bool(p.Global)
	w.Int(p.NumVisits)
	w.Int(p.LevelsSeen)
	if minor >= tag.MinorPlaceTurns {
		w.Int(p.TurnsTotal)
		w.Int(p.TurnsExplore)
		w.Int(p.TurnsTravel)
		w.Int(p.TurnsInterlevel)
		w.Int(p.TurnsResting)
		w.Int(p.TurnsOther)
	}
	for _, k := range p.MonKills {
		w.Int(k)
	}
}

// DecodePlaceInfo reads a record. Turn counters only exist from
// tag.MinorPlaceTurns on.
func DecodePlaceInfo(r *tag.Reader) PlaceInfo {
	p := PlaceInfo{
		Branch: Branch(r.Uint8("place.branch")),
		Global: r.Bool("place.global"),
	}
	p.NumVisits = r.Int("place.visits")
	p.LevelsSeen = r.Int("place.levels_seen")
	if r.AtLeast(tag.MinorPlaceTurns) {
		p.TurnsTotal = r.Int("place.turns_total")
		p.TurnsExplore = r.Int("place.turns_explore")
		p.TurnsTravel = r.Int("place.turns_travel")
		p.TurnsInterlevel = r.Int("place.turns_interlevel")
		p.TurnsResting = r.Int("place.turns_resting")
		p.TurnsOther = r.Int("place.turns_other")
	}
	for i := range p.MonKills {
		p.MonKills[i] = r.Int("place.kills")
	}
	if r.Err() == nil {
		if !p.Global && !p.Branch.Valid() {
			r.Corrupt("place.branch", "branch %d", p.Branch)
		} else if err := p.Validate(); err != nil {
			r.Corrupt("place", "%v", err)
		}
	}
	return p
}

// EncodeMonster writes a monster record.
func EncodeMonster(w *tag.Writer, m *Monster) {
	w.Uint32(uint32(m.MID))
	w.String(m.Kind)
	w.String(m.Name)
	EncodeCoord(w, m.Pos)
	w.Int(m.HP)
	w.Int(m.MaxHP)
	w.Int(m.XL)
	w.Int(m.Speed)
	w.Uint32(uint32(m.Flags))
	w.Bool(m.HarmAmplified)
	w.Int(len(m.Inventory))
	for _, item := range m.Inventory {
		w.String(item)
	}
	w.Blob(m.Ghost)
}

// DecodeMonster reads a monster record.
func DecodeMonster(r *tag.Reader) *Monster {
	m := &Monster{
		MID:   MID(r.Uint32("monster.mid")),
		Kind:  r.String("monster.kind"),
		Name:  r.String("monster.name"),
		Pos:   DecodeCoord(r, "monster.pos"),
		HP:    r.Int("monster.hp"),
		MaxHP: r.Int("monster.max_hp"),
		XL:    r.Int("monster.xl"),
		Speed: r.Int("monster.speed"),
		Flags: MonsterFlag(r.Uint32("monster.flags")),
	}
	m.HarmAmplified = r.Bool("monster.harm")
	n := r.Count("monster.inventory", maxInventory)
	for i := 0; i < n && r.Err() == nil; i++ {
		m.Inventory = append(m.Inventory, r.String("monster.item"))
	}
	if ghost := r.Blob("monster.ghost"); len(ghost) > 0 {
		m.Ghost = append([]byte(nil), ghost...)
	}
	return m
}

// Encode writes the whole level, without a version header.
func Encode(w *tag.Writer, l *Level) {
	EncodeID(w, l.ID)
	w.Int(l.Width)
	w.Int(l.Height)
	for _, f := range l.Grid {
		w.Uint8(uint8(f))
	}
	w.Int(l.ElapsedTime)
	w.Int(l.TurnsOnLevel)
	w.Uint32(uint32(l.NextMID))

	w.Int(len(l.Monsters))
	for _, m := range l.Monsters {
		EncodeMonster(w, m)
	}
	w.Int(len(l.Items))
	for _, it := range l.Items {
		EncodeCoord(w, it.Pos)
		w.String(it.Name)
		w.Bool(it.Corpse)
		w.Bool(it.Skeleton)
	}
	w.Int(len(l.Clouds))
	for _, c := range l.Clouds {
		EncodeCoord(w, c.Pos)
		w.String(c.Kind)
		w.Int(c.Duration)
	}
}

// Decode reads a level written by Encode.
func Decode(r *tag.Reader) *Level {
	l := &Level{ID: DecodeID(r, "level.id")}
	l.Width = r.Int("level.width")
	l.Height = r.Int("level.height")
	if r.Err() == nil && (l.Width <= 0 || l.Height <= 0 || l.Width > maxDimension || l.Height > maxDimension) {
		r.Corrupt("level.size", "%dx%d", l.Width, l.Height)
	}
	if r.Err() != nil {
		return nil
	}
	raw := r.Raw("level.grid", l.Width*l.Height)
	l.Grid = make([]Feature, len(raw))
	for i, b := range raw {
		f := Feature(b)
		if !f.Valid() {
			r.Corrupt("level.grid", "feature %d", b)
			return nil
		}
		l.Grid[i] = f
	}
	l.ElapsedTime = r.Int("level.elapsed")
	l.TurnsOnLevel = r.Int("level.turns_on_level")
	l.NextMID = MID(r.Uint32("level.next_mid"))

	n := r.Count("level.monsters", maxMonsters)
	for i := 0; i < n && r.Err() == nil; i++ {
		l.Monsters = append(l.Monsters, DecodeMonster(r))
	}
	n = r.Count("level.items", maxItems)
	for i := 0; i < n && r.Err() == nil; i++ {
		l.Items = append(l.Items, Item{
			Pos:      DecodeCoord(r, "item.pos"),
			Name:     r.String("item.name"),
			Corpse:   r.Bool("item.corpse"),
			Skeleton: r.Bool("item.skeleton"),
		})
	}
	n = r.Count("level.clouds", maxItems)
	for i := 0; i < n && r.Err() == nil; i++ {
		l.Clouds = append(l.Clouds, Cloud{
			Pos:      DecodeCoord(r, "cloud.pos"),
			Kind:     r.String("cloud.kind"),
			Duration: r.Int("cloud.duration"),
		})
	}
	if r.Err() != nil {
		return nil
	}
	return l
}
