package player

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/louisbranch/undercroft/internal/services/game/domain/level"
	"github.com/louisbranch/undercroft/internal/services/game/domain/tag"
)

const (
	maxNameLen = 80
	maxUniques = 1024
)

// Encode writes the player record at the current minor, without a
// version header.
func Encode(w *tag.Writer, p *Player) {
	EncodeAt(w, p, tag.MinorCurrent)
}

// EncodeAt writes the record as a writer at minor would have.
func EncodeAt(w *tag.Writer, p *Player, minor uint8) {
	w.String(p.Name)
	w.Raw(p.GameID[:])
	w.Uint8(uint8(p.Species))
	w.String(p.Job)
	w.Int(p.XL)
	w.Int(p.Experience)
	w.Int(p.HP)
	w.Int(p.HPMax)
	w.Int(p.MP)
	w.Int(p.MPMax)
	for _, s := range p.Stats {
		w.Int(s)
	}

	level.EncodeID(w, p.Place)
	level.EncodeCoord(w, p.Pos)
	level.EncodeStack(w, &p.Stack)

	w.Uint8(uint8(p.Religion))
	w.Int(p.Piety)
	w.Int(p.Penance)
	w.Int(p.GiftTimeout)

	w.Int(len(p.Mutations))
	for m := Mutation(0); m < mutationCount; m++ {
		if v, ok := p.Mutations[m]; ok {
			w.Uint8(uint8(m))
			w.Int(v)
		}
	}
	w.Int(len(p.Durations))
	for d := Duration(0); d < durationCount; d++ {
		if v, ok := p.Durations[d]; ok {
			w.Uint8(uint8(d))
			w.Int(v)
		}
	}
	w.Uint8(uint8(p.Form))

	r := p.Resists
	for _, v := range []int{r.Fire, r.Cold, r.Elec, r.Poison, r.Neg, r.Acid, r.Steam, r.Holy} {
		w.Int(v)
	}
	w.Bool(r.Wind)
	w.Bool(r.Rot)

	a := p.Artefacts
	w.Bool(a.Harm)
	w.Bool(a.SpiritShield)
	w.Bool(a.SanguineArmour)
	w.Int(a.CorrodeSources)
	w.Int(a.SlowSources)

	w.Bool(p.Airborne)
	w.Bool(p.Asleep)
	w.Int(p.Poison)
	w.Int(p.XPDrain)
	w.Int(p.Corrosion)
	w.Bool(p.MeltArmour)

	w.Int(p.TurnDamage)
	w.Uint32(uint32(p.DamageSource))
	w.Int(p.SourceDamage)

	if minor >= tag.MinorLives {
		w.Int(p.Lives)
		w.Int(p.Deaths)
		w.Bool(p.PendingRevival)
	}

	w.Int(len(p.PlaceInfo))
	for _, info := range p.PlaceInfo {
		level.EncodePlaceInfoAt(w, info, minor)
	}
	level.EncodePlaceInfoAt(w, p.Global, minor)

	w.Int(p.TimeTaken)
	w.Int(p.ElapsedTime)
	w.Int(p.Turns)
	w.Int64(p.StartTime.Unix())
	w.Bool(p.Wizard)
	w.Bool(p.Explore)

	uniques := make([]string, 0, len(p.Uniques))
	for name, seen := range p.Uniques {
		if seen {
			uniques = append(uniques, name)
		}
	}
	sort.Strings(uniques)
	w.Int(len(uniques))
	for _, name := range uniques {
		w.String(name)
	}
}

// Decode reads a player record. Lives and deaths are only present from
// tag.MinorLives; older records decode with both at zero.
func Decode(r *tag.Reader) *Player {
	p := &Player{
		Mutations: map[Mutation]int{},
		Durations: map[Duration]int{},
		Uniques:   map[string]bool{},
	}
	p.Name = r.String("player.name")
	if r.Err() == nil && (p.Name == "" || len(p.Name) > maxNameLen) {
		r.Corrupt("player.name", "name length %d", len(p.Name))
	}
	if raw := r.Raw("player.game_id", 16); raw != nil {
		id, err := uuid.FromBytes(raw)
		if err != nil {
			r.Corrupt("player.game_id", "%v", err)
		}
		p.GameID = id
	}
	p.Species = Species(r.Uint8("player.species"))
	if r.Err() == nil && !p.Species.Valid() {
		r.Corrupt("player.species", "species %d", p.Species)
	}
	p.Job = r.String("player.job")
	p.XL = r.Int("player.xl")
	if r.Err() == nil && (p.XL < 1 || p.XL > MaxXL) {
		r.Corrupt("player.xl", "experience level %d", p.XL)
	}
	p.Experience = r.Int("player.experience")
	p.HP = r.Int("player.hp")
	p.HPMax = r.Int("player.hp_max")
	p.MP = r.Int("player.mp")
	p.MPMax = r.Int("player.mp_max")
	for i := range p.Stats {
		p.Stats[i] = r.Int("player.stat")
	}

	p.Place = level.DecodeID(r, "player.place")
	p.Pos = level.DecodeCoord(r, "player.pos")
	p.Stack = level.DecodeStack(r)

	p.Religion = God(r.Uint8("player.religion"))
	if r.Err() == nil && !p.Religion.Valid() {
		r.Corrupt("player.religion", "god %d", p.Religion)
	}
	p.Piety = r.Int("player.piety")
	p.Penance = r.Int("player.penance")
	p.GiftTimeout = r.Int("player.gift_timeout")

	n := r.Count("player.mutations", int(mutationCount))
	for i := 0; i < n && r.Err() == nil; i++ {
		m := Mutation(r.Uint8("player.mutation"))
		v := r.Int("player.mutation_level")
		if r.Err() == nil && m >= mutationCount {
			r.Corrupt("player.mutation", "mutation %d", m)
		}
		p.Mutations[m] = v
	}
	n = r.Count("player.durations", int(durationCount))
	for i := 0; i < n && r.Err() == nil; i++ {
		d := Duration(r.Uint8("player.duration"))
		v := r.Int("player.duration_value")
		if r.Err() == nil && d >= durationCount {
			r.Corrupt("player.duration", "duration %d", d)
		}
		p.Durations[d] = v
	}
	p.Form = Form(r.Uint8("player.form"))
	if r.Err() == nil && p.Form >= formCount {
		r.Corrupt("player.form", "form %d", p.Form)
	}

	p.Resists = Resists{
		Fire:   r.Int("resist.fire"),
		Cold:   r.Int("resist.cold"),
		Elec:   r.Int("resist.elec"),
		Poison: r.Int("resist.poison"),
		Neg:    r.Int("resist.neg"),
		Acid:   r.Int("resist.acid"),
		Steam:  r.Int("resist.steam"),
		Holy:   r.Int("resist.holy"),
		Wind:   r.Bool("resist.wind"),
		Rot:    r.Bool("resist.rot"),
	}
	p.Artefacts = Artefacts{
		Harm:           r.Bool("artefact.harm"),
		SpiritShield:   r.Bool("artefact.spirit_shield"),
		SanguineArmour: r.Bool("artefact.sanguine"),
		CorrodeSources: r.Int("artefact.corrode"),
		SlowSources:    r.Int("artefact.slow"),
	}

	p.Airborne = r.Bool("player.airborne")
	p.Asleep = r.Bool("player.asleep")
	p.Poison = r.Int("player.poison")
	p.XPDrain = r.Int("player.xp_drain")
	p.Corrosion = r.Int("player.corrosion")
	p.MeltArmour = r.Bool("player.melt_armour")

	p.TurnDamage = r.Int("player.turn_damage")
	p.DamageSource = level.MID(r.Uint32("player.damage_source"))
	p.SourceDamage = r.Int("player.source_damage")

	if r.AtLeast(tag.MinorLives) {
		p.Lives = r.Int("player.lives")
		p.Deaths = r.Int("player.deaths")
		p.PendingRevival = r.Bool("player.pending_revival")
	}

	n = r.Count("player.place_info", int(level.BranchCount))
	if r.Err() == nil && n != int(level.BranchCount) {
		r.Corrupt("player.place_info", "%d branches, want %d", n, level.BranchCount)
	}
	for i := 0; i < n && r.Err() == nil; i++ {
		p.PlaceInfo[i] = level.DecodePlaceInfo(r)
	}
	p.Global = level.DecodePlaceInfo(r)

	p.TimeTaken = r.Int("player.time_taken")
	p.ElapsedTime = r.Int("player.elapsed_time")
	p.Turns = r.Int("player.turns")
	p.StartTime = time.Unix(r.Int64("player.start_time"), 0).UTC()
	p.Wizard = r.Bool("player.wizard")
	p.Explore = r.Bool("player.explore")

	n = r.Count("player.uniques", maxUniques)
	for i := 0; i < n && r.Err() == nil; i++ {
		p.Uniques[r.String("player.unique")] = true
	}
	if r.Err() != nil {
		return nil
	}
	return p
}
