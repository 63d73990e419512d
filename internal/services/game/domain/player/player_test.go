package player

import (
	"errors"
	"reflect"
	"testing"

	"github.com/louisbranch/undercroft/internal/random"
	"github.com/louisbranch/undercroft/internal/services/game/domain/level"
	"github.com/louisbranch/undercroft/internal/services/game/domain/tag"
)

func fixturePlayer() *Player {
	p := New("Urist", SpeciesDeepDwarf)
	p.XL = 9
	p.CalcHP()
	p.HP = 31
	p.Place = level.ID{Branch: level.BranchZiggurat, Depth: 2}
	p.Pos = level.Coord{X: 12, Y: 30}
	_ = p.Stack.Push(level.Pos{ID: level.ID{Branch: level.BranchDungeon, Depth: 6}, Pos: level.Coord{X: 40, Y: 20}})
	p.Religion = GodXom
	p.Piety = 120
	p.Mutations[MutBearserk] = 1
	p.Durations[DurDeathsDoor] = 40
	p.Form = FormShadow
	p.Resists = Resists{Fire: 2, Cold: -1, Neg: 1, Wind: true}
	p.Artefacts = Artefacts{Harm: true, CorrodeSources: 2}
	p.Lives = 1
	p.Deaths = 2
	p.TurnDamage = 7
	p.DamageSource = 0x123
	p.SourceDamage = 5
	p.PlaceInfo[level.BranchDungeon] = level.PlaceInfo{Branch: level.BranchDungeon, NumVisits: 1, LevelsSeen: 6, TurnsTotal: 900}
	p.Global = level.PlaceInfo{Global: true, NumVisits: 2, LevelsSeen: 8, TurnsTotal: 1000}
	p.Uniques["Sigmund"] = true
	p.Turns = 1234
	return p
}

func roundTrip(t *testing.T, p *Player, minor uint8) *Player {
	t.Helper()
	w := tag.NewWriter()
	w.Version(tag.Version{Major: tag.MajorVersion, Minor: minor})
	EncodeAt(w, p, minor)
	r, err := tag.NewChunkReader(w.Bytes())
	if err != nil {
		t.Fatalf("NewChunkReader: %v", err)
	}
	got := Decode(r)
	if err := r.FailIfNotEOF("player"); err != nil {
		t.Fatalf("decode player at minor %d: %v", minor, err)
	}
	return got
}

func TestPlayerRoundTrip(t *testing.T) {
	want := fixturePlayer()
	got := roundTrip(t, want, tag.MinorCurrent)

	if !got.StartTime.Equal(want.StartTime) {
		t.Fatalf("StartTime = %v, want %v", got.StartTime, want.StartTime)
	}
	got.StartTime = want.StartTime
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("decoded player = %+v\nwant %+v", got, want)
	}
}

func TestPlayerDecodeOlderMinorDropsLives(t *testing.T) {
	p := fixturePlayer()
	got := roundTrip(t, p, tag.MinorReset)
	if got.Lives != 0 || got.Deaths != 0 {
		t.Fatalf("lives/deaths = %d/%d, want 0/0 at MinorReset", got.Lives, got.Deaths)
	}
	if got.PlaceInfo[level.BranchDungeon].TurnsTotal != 0 {
		t.Fatalf("TurnsTotal = %d, want 0 at MinorReset", got.PlaceInfo[level.BranchDungeon].TurnsTotal)
	}
	if got.PlaceInfo[level.BranchDungeon].LevelsSeen != 6 || got.HP != p.HP || got.Name != p.Name {
		t.Fatalf("base fields not preserved: %+v", got)
	}

	got = roundTrip(t, p, tag.MinorLives)
	if got.Lives != 1 || got.Deaths != 2 {
		t.Fatalf("lives/deaths = %d/%d, want 1/2", got.Lives, got.Deaths)
	}
}

func TestPlayerDecodeRejectsCorruptSpecies(t *testing.T) {
	p := fixturePlayer()
	p.Species = speciesCount + 1
	w := tag.NewChunkWriter()
	Encode(w, p)
	r, _ := tag.NewChunkReader(w.Bytes())
	if Decode(r) != nil || !errors.Is(r.Err(), tag.ErrCorrupt) {
		t.Fatalf("err = %v, want corrupt", r.Err())
	}
}

func TestIncreaseDurationCaps(t *testing.T) {
	p := New("a", SpeciesHuman)
	p.IncreaseDuration(DurCornered, 20, 30)
	p.IncreaseDuration(DurCornered, 20, 30)
	if got := p.Duration(DurCornered); got != 30 {
		t.Fatalf("duration = %d, want 30", got)
	}
	p.SetDuration(DurCornered, 0)
	if _, ok := p.Durations[DurCornered]; ok {
		t.Fatal("SetDuration(0) left the entry behind")
	}
}

func TestDrain(t *testing.T) {
	tests := []struct {
		name       string
		protection int
		ignore     bool
		power      int
		want       DrainOutcome
		wantDrain  int
	}{
		{"unprotected", 0, false, 30, DrainFull, 30},
		{"partial", 1, false, 30, DrainPartial, 15},
		{"double", 2, false, 30, DrainPartial, 7},
		{"immune", 3, false, 30, DrainResisted, 0},
		{"ignore protection", 3, true, 30, DrainFull, 30},
		{"rounded away", 2, false, 3, DrainNone, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New("a", SpeciesHuman)
			p.Resists.Neg = tt.protection
			if got := p.Drain(tt.power, tt.ignore); got != tt.want {
				t.Fatalf("Drain = %v, want %v", got, tt.want)
			}
			if p.XPDrain != tt.wantDrain {
				t.Fatalf("XPDrain = %d, want %d", p.XPDrain, tt.wantDrain)
			}
		})
	}
}

func TestShaveDamage(t *testing.T) {
	human := New("h", SpeciesHuman)
	if got := human.ShaveDamage(random.New(1), 10); got != 10 {
		t.Fatalf("human shave = %d, want 10", got)
	}
	dwarf := New("d", SpeciesDeepDwarf)
	dwarf.XL = 9
	// random2(1+3) -> 3, random2(2+3) -> 4: shave 5.
	if got := dwarf.ShaveDamage(random.FromIntner(random.Highest{}), 10); got != 5 {
		t.Fatalf("dwarf max shave = %d, want 5", got)
	}
	if got := dwarf.ShaveDamage(random.FromIntner(random.NewSequence(0)), 10); got != 9 {
		t.Fatalf("dwarf min shave = %d, want 9", got)
	}
}

func TestRecordDamageResetsOnSourceChange(t *testing.T) {
	p := New("a", SpeciesHuman)
	p.RecordDamage(4, 0x200)
	p.RecordDamage(3, 0x200)
	if p.TurnDamage != 7 || p.SourceDamage != 7 {
		t.Fatalf("same source: turn %d source %d, want 7 7", p.TurnDamage, p.SourceDamage)
	}
	p.RecordDamage(2, 0x300)
	if p.TurnDamage != 9 || p.SourceDamage != 2 || p.DamageSource != 0x300 {
		t.Fatalf("new source: turn %d source %d (%x), want 9 2 (300)", p.TurnDamage, p.SourceDamage, p.DamageSource)
	}
	p.ResetDamageCounters()
	if p.TurnDamage != 0 || p.SourceDamage != 0 || p.DamageSource != level.MIDNobody {
		t.Fatalf("after reset: %+v", p)
	}
}

func TestReviveOnlyWhenPending(t *testing.T) {
	p := New("a", SpeciesHuman)
	p.HP = -3
	p.Revive()
	if p.HP != -3 {
		t.Fatalf("Revive without pending changed HP to %d", p.HP)
	}
	p.PendingRevival = true
	p.Durations[DurSlow] = 10
	p.Revive()
	if p.PendingRevival || p.HP != p.HPMax || len(p.Durations) != 0 {
		t.Fatalf("after revive: pending %v hp %d/%d durations %v", p.PendingRevival, p.HP, p.HPMax, p.Durations)
	}
}

func TestSummaryRoundTrip(t *testing.T) {
	p := fixturePlayer()
	want := Summarize(p)
	data, err := EncodeSummary(want)
	if err != nil {
		t.Fatalf("EncodeSummary: %v", err)
	}
	got, err := DecodeSummary(data)
	if err != nil {
		t.Fatalf("DecodeSummary: %v", err)
	}
	if got != want {
		t.Fatalf("summary = %+v, want %+v", got, want)
	}
	if got.Describe() != "Urist, a level 9 Deep Dwarf Fighter on Zig:2" {
		t.Fatalf("Describe() = %q", got.Describe())
	}
}

func TestSummaryFromOtherMajorStillDecodes(t *testing.T) {
	s := Summarize(fixturePlayer())
	s.Version = tag.Version{Major: 33, Minor: 4}
	data, err := EncodeSummary(s)
	if err != nil {
		t.Fatalf("EncodeSummary: %v", err)
	}
	got, err := DecodeSummary(data)
	if err != nil {
		t.Fatalf("DecodeSummary: %v", err)
	}
	if got.Version.Major != 33 {
		t.Fatalf("major = %d, want 33", got.Version.Major)
	}
}

func TestSummaryRejectsOversize(t *testing.T) {
	s := Summarize(fixturePlayer())
	s.Job = string(make([]byte, MaxSummarySize))
	if _, err := EncodeSummary(s); err == nil {
		t.Fatal("expected oversize summary to fail")
	}
}
