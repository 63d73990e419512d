package ghost

import (
	"github.com/louisbranch/undercroft/internal/services/game/domain/player"
	"github.com/louisbranch/undercroft/internal/services/game/domain/tag"
)

// Encode writes one record.
func Encode(w *tag.Writer, r Record) {
	w.String(r.Name)
	w.Uint8(uint8(r.Species))
	w.String(r.Job)
	w.Uint8(uint8(r.Religion))
	w.Int(r.XL)
	w.Int(r.MaxHP)
	w.Int(r.AC)
	w.Int(r.EV)
	w.Int(r.Damage)
	w.Int(r.Speed)
	res := r.Resists
	for _, v := range []int{res.Fire, res.Cold, res.Elec, res.Poison, res.Neg, res.Acid, res.Steam, res.Holy} {
		w.Int(v)
	}
	w.Bool(res.Wind)
	w.Bool(res.Rot)
	w.Bool(r.Flies)
	w.Bool(r.SeeInvisible)
}

// Decode reads one record. Range checks are left to Validate so a
// structurally sound file with one bad ghost still yields the others.
func Decode(r *tag.Reader) Record {
	var g Record
	g.Name = r.String("ghost.name")
	g.Species = player.Species(r.Uint8("ghost.species"))
	g.Job = r.String("ghost.job")
	g.Religion = player.God(r.Uint8("ghost.religion"))
	g.XL = r.Int("ghost.xl")
	g.MaxHP = r.Int("ghost.max_hp")
	g.AC = r.Int("ghost.ac")
	g.EV = r.Int("ghost.ev")
	g.Damage = r.Int("ghost.damage")
	g.Speed = r.Int("ghost.speed")
	g.Resists = player.Resists{
		Fire:   r.Int("ghost.res_fire"),
		Cold:   r.Int("ghost.res_cold"),
		Elec:   r.Int("ghost.res_elec"),
		Poison: r.Int("ghost.res_poison"),
		Neg:    r.Int("ghost.res_neg"),
		Acid:   r.Int("ghost.res_acid"),
		Steam:  r.Int("ghost.res_steam"),
		Holy:   r.Int("ghost.res_holy"),
		Wind:   r.Bool("ghost.res_wind"),
		Rot:    r.Bool("ghost.res_rot"),
	}
	g.Flies = r.Bool("ghost.flies")
	g.SeeInvisible = r.Bool("ghost.see_invisible")
	return g
}

// EncodeAll writes a counted list of records.
func EncodeAll(w *tag.Writer, ghosts []Record) {
	w.Int(len(ghosts))
	for _, g := range ghosts {
		Encode(w, g)
	}
}

// DecodeAll reads a counted list of at most MaxGhosts records.
func DecodeAll(r *tag.Reader) []Record {
	n := r.Count("ghosts", MaxGhosts)
	out := make([]Record, 0, n)
	for i := 0; i < n && r.Err() == nil; i++ {
		out = append(out, Decode(r))
	}
	if r.Err() != nil {
		return nil
	}
	return out
}

// EncodeRecord is the standalone form stored on ghost monsters.
func EncodeRecord(g Record) []byte {
	w := tag.NewChunkWriter()
	Encode(w, g)
	return w.Bytes()
}

// DecodeRecord reads a standalone record.
func DecodeRecord(data []byte) (Record, error) {
	r, err := tag.NewChunkReader(data)
	if err != nil {
		return Record{}, err
	}
	g := Decode(r)
	if err := r.FailIfNotEOF("ghost"); err != nil {
		return Record{}, err
	}
	return g, nil
}
