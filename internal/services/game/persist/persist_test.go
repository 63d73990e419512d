package persist

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	apperrors "github.com/louisbranch/undercroft/internal/platform/errors"
	"github.com/louisbranch/undercroft/internal/random"
	"github.com/louisbranch/undercroft/internal/services/game/domain/ghost"
	"github.com/louisbranch/undercroft/internal/services/game/domain/level"
	"github.com/louisbranch/undercroft/internal/services/game/domain/player"
	"github.com/louisbranch/undercroft/internal/services/game/domain/score"
	"github.com/louisbranch/undercroft/internal/services/game/domain/session"
	"github.com/louisbranch/undercroft/internal/services/game/storage/archive"
)

var (
	d1    = level.ID{Branch: level.BranchDungeon, Depth: 1}
	d2    = level.ID{Branch: level.BranchDungeon, Depth: 2}
	d3    = level.ID{Branch: level.BranchDungeon, Depth: 3}
	d4    = level.ID{Branch: level.BranchDungeon, Depth: 4}
	sewer = level.ID{Branch: level.BranchSewer, Depth: 1}
)

type stubBuilder struct{ generated []level.ID }

// Generate returns a walled room with up stairs at (2,2), down stairs at
// (9,9) and any other arrival feature at (5,2).
func (b *stubBuilder) Generate(_ context.Context, id level.ID, arrive level.Feature) (*level.Level, error) {
	b.generated = append(b.generated, id)
	l := level.New(id, 12, 12)
	for y := 1; y < 11; y++ {
		for x := 1; x < 11; x++ {
			_ = l.SetFeature(level.Coord{X: x, Y: y}, level.FeatFloor)
		}
	}
	_ = l.SetFeature(level.Coord{X: 2, Y: 2}, level.FeatStoneStairsUpI)
	_ = l.SetFeature(level.Coord{X: 9, Y: 9}, level.FeatStoneStairsDownI)
	switch arrive {
	case level.FeatFloor, level.FeatStoneStairsUpI, level.FeatStoneStairsDownI:
	default:
		_ = l.SetFeature(level.Coord{X: 5, Y: 2}, arrive)
	}
	return l, nil
}

type recordingTracker struct{ removed []level.ID }

func (r *recordingTracker) RemoveLevel(id level.ID) { r.removed = append(r.removed, id) }

type memoryChunk struct {
	name string
	data []byte
}

func (c *memoryChunk) ChunkName() string      { return c.name }
func (c *memoryChunk) Save() ([]byte, error)  { return c.data, nil }
func (c *memoryChunk) Load(data []byte) error { c.data = append([]byte(nil), data...); return nil }

type messageLog struct{ lines []string }

func (m *messageLog) Add(_ session.Channel, text string) { m.lines = append(m.lines, text) }

type fakeBones struct {
	records []ghost.Record
	loads   []level.ID
}

func (f *fakeBones) Save(context.Context, level.ID, []ghost.Record, bool) (string, error) {
	return "", nil
}

func (f *fakeBones) Load(_ context.Context, id level.ID) ([]ghost.Record, error) {
	f.loads = append(f.loads, id)
	return f.records, nil
}

type game struct {
	m       *Manager
	s       *session.GameSession
	builder *stubBuilder
	tracker *recordingTracker
	msgs    *messageLog
	path    string
}

func newSession(a session.Archive, p *player.Player, b *stubBuilder) (*session.GameSession, *recordingTracker, *messageLog) {
	s := session.New(p, random.FromIntner(random.NewSequence(0)), nil)
	s.Archive = a
	s.Builder = b
	s.Options.GhostChance = 0
	s.Options.SaveCheckpoints = false
	tracker := &recordingTracker{}
	s.Trackers = []session.LevelTracker{tracker}
	msgs := &messageLog{}
	s.Messages = msgs
	return s, tracker, msgs
}

func openArchive(t *testing.T, path string, create bool) *archive.Archive {
	t.Helper()
	a, err := OpenArchive(path, create, 0)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func newGame(t *testing.T, setup func(s *session.GameSession)) *game {
	t.Helper()
	path := filepath.Join(t.TempDir(), "saves", SaveFilename("Urist"))
	a := openArchive(t, path, true)
	p := player.New("Urist", player.SpeciesHuman)
	p.Place = d1
	b := &stubBuilder{}
	s, tracker, msgs := newSession(a, p, b)
	if setup != nil {
		setup(s)
	}
	m := New(s, Config{})
	if _, err := m.LoadLevel(context.Background(), level.FeatUnseen, StartGame, level.Unset); err != nil {
		t.Fatalf("start game: %v", err)
	}
	return &game{m: m, s: s, builder: b, tracker: tracker, msgs: msgs, path: path}
}

func (g *game) move(t *testing.T, to level.ID, taken level.Feature) bool {
	t.Helper()
	from := g.s.Player.Place
	g.s.Player.Place = to
	created, err := g.m.LoadLevel(context.Background(), taken, EnterLevel, from)
	if err != nil {
		t.Fatalf("move %s -> %s: %v", from, to, err)
	}
	return created
}

func TestStartGame(t *testing.T) {
	g := newGame(t, nil)
	p := g.s.Player
	if g.s.Level == nil || g.s.Level.ID != d1 {
		t.Fatalf("level = %v, want %s", g.s.Level, d1)
	}
	if want := (level.Coord{X: 5, Y: 2}); p.Pos != want {
		t.Fatalf("pos = %v, want %v on the dungeon exit", p.Pos, want)
	}
	bp := p.BranchPlaceInfo(level.BranchDungeon)
	if bp.NumVisits != 1 || bp.LevelsSeen != 1 || p.Global.NumVisits != 1 || p.Global.LevelsSeen != 1 {
		t.Fatalf("branch = %+v global = %+v", *bp, p.Global)
	}
	if !g.s.Archive.Has(d1.ChunkName()) {
		t.Fatal("new level was not written")
	}
}

func TestLevelsSeenCountsFirstVisitOnly(t *testing.T) {
	g := newGame(t, nil)
	p := g.s.Player
	g.move(t, d2, level.FeatStoneStairsDownI)

	before := p.BranchPlaceInfo(level.BranchDungeon).LevelsSeen
	globalBefore := p.Global.LevelsSeen
	if !g.move(t, d3, level.FeatStoneStairsDownI) {
		t.Fatal("first visit to D:3 should generate it")
	}
	if got := p.BranchPlaceInfo(level.BranchDungeon).LevelsSeen; got != before+1 {
		t.Fatalf("branch levels seen = %d, want %d", got, before+1)
	}
	if p.Global.LevelsSeen != globalBefore+1 {
		t.Fatalf("global levels seen = %d, want %d", p.Global.LevelsSeen, globalBefore+1)
	}
	if want := (level.Coord{X: 2, Y: 2}); p.Pos != want {
		t.Fatalf("pos = %v, want up stairs at %v", p.Pos, want)
	}

	if g.move(t, d2, level.FeatStoneStairsUpI) {
		t.Fatal("D:2 should be loaded, not generated")
	}
	if want := (level.Coord{X: 9, Y: 9}); p.Pos != want {
		t.Fatalf("pos = %v, want down stairs at %v", p.Pos, want)
	}
	if g.move(t, d3, level.FeatStoneStairsDownI) {
		t.Fatal("D:3 should be loaded on the second visit")
	}
	if got := p.BranchPlaceInfo(level.BranchDungeon).LevelsSeen; got != before+1 {
		t.Fatalf("levels seen after revisit = %d, want %d", got, before+1)
	}
	if p.BranchPlaceInfo(level.BranchDungeon).NumVisits != 1 {
		t.Fatal("moving within a branch must not count a visit")
	}
	if want := []level.ID{d1, d2, d3}; !reflect.DeepEqual(g.builder.generated, want) {
		t.Fatalf("generated = %v, want %v", g.builder.generated, want)
	}
}

func TestFollowersTakeTheStairs(t *testing.T) {
	g := newGame(t, nil)
	l := g.s.Level
	add := func(kind string, x, y int, flags level.MonsterFlag) *level.Monster {
		return l.AddMonster(&level.Monster{Kind: kind, Pos: level.Coord{X: x, Y: y}, HP: 10, MaxHP: 10, Flags: flags})
	}
	taking := level.FlagTakingStairs | level.FlagWontAttack
	add("dog", 6, 2, taking)
	add("cat", 7, 2, taking)
	add("spectral weapon", 5, 3, taking|level.FlagSummoned)
	add("rat", 4, 2, 0)
	add("plant", 4, 3, taking|level.FlagNoStairs)
	weak := add(level.KindPlayerGhost, 6, 3, level.FlagTakingStairs)
	weak.Name, weak.HP = "Bones", 2

	g.move(t, d2, level.FeatStoneStairsDownI)

	var arrived []string
	for _, m := range g.s.Level.Monsters {
		arrived = append(arrived, m.Kind)
		if m.Pos.Distance(g.s.Player.Pos) > 2 {
			t.Fatalf("%s placed at %v, far from the player at %v", m.Kind, m.Pos, g.s.Player.Pos)
		}
		if m.Has(level.FlagTakingStairs) {
			t.Fatalf("%s still taking stairs", m.Kind)
		}
	}
	if want := []string{"dog", "cat"}; !reflect.DeepEqual(arrived, want) {
		t.Fatalf("arrived = %v, want %v", arrived, want)
	}

	data, err := g.s.Archive.Read(d1.ChunkName())
	if err != nil {
		t.Fatalf("read D:1: %v", err)
	}
	old, err := decodeLevelChunk(data)
	if err != nil {
		t.Fatalf("decode D:1: %v", err)
	}
	var stayed []string
	for _, m := range old.Monsters {
		stayed = append(stayed, m.Kind)
		if m.Has(level.FlagTakingStairs) {
			t.Fatalf("%s left behind still taking stairs", m.Kind)
		}
	}
	if want := []string{"rat", "plant", level.KindPlayerGhost}; !reflect.DeepEqual(stayed, want) {
		t.Fatalf("stayed = %v, want %v", stayed, want)
	}

	want := []string{
		"Bones is too weak to follow you and flees.",
		"Your summoned ally is left behind.",
		"Your ally can't follow you.",
	}
	if !reflect.DeepEqual(g.msgs.lines, want) {
		t.Fatalf("messages = %q, want %q", g.msgs.lines, want)
	}
}

func TestPortalExcursionUsesLevelStack(t *testing.T) {
	g := newGame(t, nil)
	p := g.s.Player
	p.Pos = level.Coord{X: 7, Y: 7}

	g.move(t, sewer, level.FeatEnterSewer)
	if top, ok := p.Stack.Top(); !ok || top.ID != d1 || top.Pos != (level.Coord{X: 7, Y: 7}) {
		t.Fatalf("stack top = %+v, want D:1 at (7,7)", top)
	}
	if want := (level.Coord{X: 5, Y: 2}); p.Pos != want {
		t.Fatalf("pos = %v, want the stone arch at %v", p.Pos, want)
	}
	if p.BranchPlaceInfo(level.BranchSewer).NumVisits != 1 {
		t.Fatal("entering a portal branch counts a visit")
	}

	g.move(t, d1, level.FeatExitSewer)
	if p.Stack.Len() != 0 {
		t.Fatalf("stack = %s, want empty", &p.Stack)
	}
	if want := (level.Coord{X: 7, Y: 7}); p.Pos != want {
		t.Fatalf("pos = %v, want return position %v", p.Pos, want)
	}
	if g.s.Archive.Has(sewer.ChunkName()) {
		t.Fatal("portal level should be deleted on exit")
	}
	if want := []level.ID{sewer}; !reflect.DeepEqual(g.tracker.removed, want) {
		t.Fatalf("removed = %v, want %v", g.tracker.removed, want)
	}
	if p.BranchPlaceInfo(level.BranchDungeon).NumVisits != 1 {
		t.Fatal("returning from an excursion must not count a visit")
	}
}

func TestDuplicateOnStack(t *testing.T) {
	tests := []struct {
		name       string
		stacked    []level.ID
		permissive bool
	}{
		{"destination below the top", []level.ID{sewer, d2}, false},
		{"origin already stacked", []level.ID{d1}, false},
		{"permissive", []level.ID{sewer, d2}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGame(t, func(s *session.GameSession) { s.Mode.Permissive = tt.permissive })
			p := g.s.Player
			for _, id := range tt.stacked {
				if err := p.Stack.Push(level.Pos{ID: id}); err != nil {
					t.Fatalf("push %s: %v", id, err)
				}
			}
			p.Place = sewer
			_, err := g.m.LoadLevel(context.Background(), level.FeatEnterSewer, EnterLevel, d1)
			if tt.permissive {
				if err != nil {
					t.Fatalf("permissive load: %v", err)
				}
				if g.s.Level.ID != sewer {
					t.Fatalf("level = %s, want %s", g.s.Level.ID, sewer)
				}
				if len(g.msgs.lines) != 1 || !strings.Contains(g.msgs.lines[0], "already on the level stack") {
					t.Fatalf("messages = %q", g.msgs.lines)
				}
				return
			}
			code := apperrors.CodeOf(err)
			if code != apperrors.CodeLevelStackDuplicate {
				t.Fatalf("code = %s (%v), want %s", code, err, apperrors.CodeLevelStackDuplicate)
			}
			if !code.Fatal() {
				t.Fatal("stack duplicates must be fatal")
			}
		})
	}
}

func TestSaveAndRestore(t *testing.T) {
	g := newGame(t, nil)
	g.move(t, d2, level.FeatStoneStairsDownI)
	notes := &memoryChunk{name: session.ChunkNotes, data: []byte("notes")}
	g.s.Chunks = []session.ChunkStore{notes}
	g.s.Transit[d4] = []*level.Monster{{Kind: "orc", HP: 5, MaxHP: 5}}
	pos := g.s.Player.Pos
	gameID := g.s.Player.GameID

	if err := g.m.SaveGame(context.Background(), true, ""); err != nil {
		t.Fatalf("save: %v", err)
	}
	if last := g.msgs.lines[len(g.msgs.lines)-1]; last != "See you soon, Urist!" {
		t.Fatalf("farewell = %q", last)
	}
	if err := g.s.Archive.(*archive.Archive).Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	a := openArchive(t, g.path, false)
	b := &stubBuilder{}
	s, _, _ := newSession(a, player.New("Placeholder", player.SpeciesHuman), b)
	restored := &memoryChunk{name: session.ChunkNotes}
	s.Chunks = []session.ChunkStore{restored}
	if err := New(s, Config{}).RestoreGame(context.Background()); err != nil {
		t.Fatalf("restore: %v", err)
	}

	p := s.Player
	if p.Name != "Urist" || p.GameID != gameID || p.Place != d2 || p.Pos != pos {
		t.Fatalf("player = %s %s at %s %v", p.Name, p.GameID, p.Place, p.Pos)
	}
	if s.Level == nil || s.Level.ID != d2 {
		t.Fatalf("level = %v, want %s", s.Level, d2)
	}
	if len(b.generated) != 0 {
		t.Fatalf("restore generated %v", b.generated)
	}
	if len(s.Transit[d4]) != 1 || s.Transit[d4][0].Kind != "orc" {
		t.Fatalf("transit = %v", s.Transit)
	}
	if string(restored.data) != "notes" {
		t.Fatalf("notes chunk = %q", restored.data)
	}
}

func TestRestoreErrors(t *testing.T) {
	tests := []struct {
		name string
		you  []byte
		want apperrors.Code
	}{
		{"missing", nil, apperrors.CodeChunkNotFound},
		{"truncated", []byte{35, 2}, apperrors.CodeSaveTruncated},
		{"other major", []byte{36, 0, 0, 0}, apperrors.CodeSaveMajorVersion},
		{"newer minor", []byte{35, 9, 0, 0}, apperrors.CodeSaveMinorTooNew},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := openArchive(t, filepath.Join(t.TempDir(), "broken.cs"), true)
			if tt.you != nil {
				if err := a.Write(session.ChunkPlayer, tt.you); err != nil {
					t.Fatalf("write: %v", err)
				}
				if err := a.Commit(); err != nil {
					t.Fatalf("commit: %v", err)
				}
			}
			s, _, _ := newSession(a, player.New("Placeholder", player.SpeciesHuman), &stubBuilder{})
			err := New(s, Config{}).RestoreGame(context.Background())
			if code := apperrors.CodeOf(err); code != tt.want {
				t.Fatalf("code = %s (%v), want %s", code, err, tt.want)
			}
		})
	}
}

func TestOpenArchiveLocked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urist.cs")
	openArchive(t, path, true)
	_, err := OpenArchive(path, false, 10*time.Millisecond)
	if code := apperrors.CodeOf(err); code != apperrors.CodeArchiveLocked {
		t.Fatalf("code = %s (%v), want %s", code, err, apperrors.CodeArchiveLocked)
	}
}

func TestEndGameRemovesSave(t *testing.T) {
	g := newGame(t, nil)
	morgue := t.TempDir()
	g.m.morgueDir = morgue
	g.m.now = func() time.Time { return time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC) }

	e := score.NewEntry(g.s.Player, score.Death{Damage: 12, Method: score.KilledByMonster, Killer: "an orc"}, g.m.now())
	if err := g.m.EndGame(context.Background(), e, 3); err != nil {
		t.Fatalf("end game: %v", err)
	}
	if _, err := os.Stat(g.path); !os.IsNotExist(err) {
		t.Fatalf("save still exists: %v", err)
	}
	if g.s.Archive != nil {
		t.Fatal("session still holds the archive")
	}
	data, err := os.ReadFile(filepath.Join(morgue, "morgue-Urist-20260301-123000.txt"))
	if err != nil {
		t.Fatalf("read morgue: %v", err)
	}
	if !strings.Contains(string(data), "Rank 3") {
		t.Fatalf("morgue = %q", data)
	}
}

func TestExcursionReturnsToOrigin(t *testing.T) {
	g := newGame(t, nil)
	g.move(t, d2, level.FeatStoneStairsDownI)
	g.move(t, d1, level.FeatStoneStairsUpI)
	p := g.s.Player
	pos := p.Pos
	seen := p.Global.LevelsSeen

	e := g.m.Excursion()
	if err := e.GoTo(context.Background(), d2); err != nil {
		t.Fatalf("go to D:2: %v", err)
	}
	if g.s.Level.ID != d2 {
		t.Fatalf("level = %s, want %s", g.s.Level.ID, d2)
	}
	if err := e.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if g.s.Level.ID != d1 || p.Place != d1 || p.Pos != pos {
		t.Fatalf("back on %s at %v, want %s at %v", g.s.Level.ID, p.Pos, d1, pos)
	}
	if p.Global.LevelsSeen != seen {
		t.Fatalf("levels seen = %d, want %d", p.Global.LevelsSeen, seen)
	}
	if err := e.GoTo(context.Background(), d2); err == nil {
		t.Fatal("closed excursion accepted GoTo")
	}
}

func TestExcursionCannotGenerateLevels(t *testing.T) {
	g := newGame(t, nil)
	g.move(t, d2, level.FeatStoneStairsDownI)
	p := g.s.Player
	pos := p.Pos
	generated := len(g.builder.generated)

	e := g.m.Excursion()
	err := e.GoTo(context.Background(), d4)
	if code := apperrors.CodeOf(err); code != apperrors.CodeChunkNotFound {
		t.Fatalf("code = %s (%v), want %s", code, err, apperrors.CodeChunkNotFound)
	}
	if !errors.Is(err, ErrNotGenerated) {
		t.Fatalf("err = %v, want %v", err, ErrNotGenerated)
	}
	if g.s.Archive.Has(d4.ChunkName()) {
		t.Fatal("visit wrote a chunk for D:4")
	}
	if len(g.builder.generated) != generated {
		t.Fatalf("generated = %v, want no new levels", g.builder.generated)
	}
	if g.s.Level.ID != d2 || p.Place != d2 {
		t.Fatalf("level = %s place = %s, want %s", g.s.Level.ID, p.Place, d2)
	}
	if err := e.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if p.Pos != pos {
		t.Fatalf("pos = %v, want %v", p.Pos, pos)
	}

	seen := p.Global.LevelsSeen
	branchSeen := p.BranchPlaceInfo(level.BranchDungeon).LevelsSeen
	g.move(t, d3, level.FeatStoneStairsDownI)
	if !g.move(t, d4, level.FeatStoneStairsDownI) {
		t.Fatal("first real visit to D:4 should generate it")
	}
	if p.Global.LevelsSeen != seen+2 {
		t.Fatalf("levels seen = %d, want %d", p.Global.LevelsSeen, seen+2)
	}
	if got := p.BranchPlaceInfo(level.BranchDungeon).LevelsSeen; got != branchSeen+2 {
		t.Fatalf("branch levels seen = %d, want %d", got, branchSeen+2)
	}
}

func TestGhostsLoadOnNewLevels(t *testing.T) {
	bones := &fakeBones{records: []ghost.Record{ghost.FromPlayer(player.New("Ghosty", player.SpeciesHuman))}}
	g := newGame(t, func(s *session.GameSession) {
		s.Bones = bones
		s.Options.GhostChance = 1
	})
	g.move(t, d2, level.FeatStoneStairsDownI)
	g.move(t, d3, level.FeatStoneStairsDownI)
	if want := []level.ID{d3}; !reflect.DeepEqual(bones.loads, want) {
		t.Fatalf("ghost loads = %v, want %v", bones.loads, want)
	}
	found := false
	for _, m := range g.s.Level.Monsters {
		if m.Kind == level.KindPlayerGhost && m.Name == "the ghost of Ghosty" {
			found = true
		}
	}
	if !found {
		t.Fatal("ghost was not placed")
	}

	g.move(t, d2, level.FeatStoneStairsUpI)
	g.move(t, d3, level.FeatStoneStairsDownI)
	if len(bones.loads) != 1 {
		t.Fatalf("revisit loaded ghosts again: %v", bones.loads)
	}
}

func TestGhostsSkippedInSeededGames(t *testing.T) {
	bones := &fakeBones{}
	g := newGame(t, func(s *session.GameSession) {
		s.Bones = bones
		s.Options.GhostChance = 1
		s.Mode.Seeded = true
	})
	g.move(t, d2, level.FeatStoneStairsDownI)
	g.move(t, d3, level.FeatStoneStairsDownI)
	if len(bones.loads) != 0 {
		t.Fatalf("ghost loads = %v, want none", bones.loads)
	}
}

func TestDeleteLevelReleasesUniques(t *testing.T) {
	g := newGame(t, nil)
	g.move(t, d2, level.FeatStoneStairsDownI)
	g.s.Level.AddMonster(&level.Monster{Kind: "Sigmund", HP: 20, MaxHP: 20, Pos: level.Coord{X: 8, Y: 8}, Flags: level.FlagUnique})
	g.s.Player.Uniques["Sigmund"] = true
	g.move(t, d1, level.FeatStoneStairsUpI)

	if err := g.m.DeleteLevel(d2); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if g.s.Archive.Has(d2.ChunkName()) {
		t.Fatal("chunk still present")
	}
	if g.s.Player.Uniques["Sigmund"] {
		t.Fatal("unique not released")
	}
	if want := []level.ID{d2}; !reflect.DeepEqual(g.tracker.removed, want) {
		t.Fatalf("removed = %v, want %v", g.tracker.removed, want)
	}
}

func TestSaveFilename(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Urist", "Urist.cs"},
		{"Ur ist/../x", "Uristx.cs"},
		{"", "nameless.cs"},
		{"../", "nameless.cs"},
		{strings.Repeat("a", 300), strings.Repeat("a", 250) + ".cs"},
	}
	for _, tt := range tests {
		if got := SaveFilename(tt.name); got != tt.want {
			t.Fatalf("SaveFilename(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}

	long := SaveFilename(strings.Repeat("é", 200))
	base := strings.TrimSuffix(long, SaveExt)
	if len(base) > 250 || !utf8.ValidString(base) {
		t.Fatalf("base = %d bytes, valid = %v", len(base), utf8.ValidString(base))
	}
}

func TestListSavedCharacters(t *testing.T) {
	g := newGame(t, nil)
	if err := g.m.SaveGame(context.Background(), true, "bye"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := g.s.Archive.(*archive.Archive).Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	dir := filepath.Dir(g.path)
	if err := os.WriteFile(filepath.Join(dir, "junk.cs"), []byte("not a save"), 0o600); err != nil {
		t.Fatalf("write junk: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatalf("write notes: %v", err)
	}

	got, err := ListSavedCharacters(dir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Urist" || got[0].Place != d1 {
		t.Fatalf("summaries = %+v", got)
	}
	if got, err := ListSavedCharacters(filepath.Join(dir, "missing")); err != nil || got != nil {
		t.Fatalf("missing dir = %v, %v", got, err)
	}
}
