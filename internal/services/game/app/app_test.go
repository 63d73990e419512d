package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/louisbranch/undercroft/internal/services/game/damage"
	"github.com/louisbranch/undercroft/internal/services/game/domain/level"
	"github.com/louisbranch/undercroft/internal/services/game/domain/player"
	"github.com/louisbranch/undercroft/internal/services/game/persist"
	"github.com/louisbranch/undercroft/internal/services/game/storage/sqlite"
	"github.com/louisbranch/undercroft/internal/services/game/storage/turnstamp"
	"github.com/louisbranch/undercroft/internal/services/game/trackers"
)

var testStart = time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)

func testConfig(t *testing.T) Config {
	t.Helper()
	root := t.TempDir()
	return Config{
		SaveDir:   filepath.Join(root, "saves"),
		BonesDir:  filepath.Join(root, "saves", "bones"),
		ScoreDB:   filepath.Join(root, "saves", "scores.db"),
		MorgueDir: filepath.Join(root, "morgue"),
		Seed:      7,
	}
}

func testBootstrap() *bootstrap {
	return newBootstrapWithConfig(bootstrapConfig{
		now: func() time.Time { return testStart },
	})
}

func startGame(t *testing.T, cfg Config) *Game {
	t.Helper()
	g, err := testBootstrap().newGame(context.Background(), cfg, nil, "Urist", player.SpeciesHuman)
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	t.Cleanup(func() { _ = g.Close() })
	return g
}

func play(t *testing.T, g *Game, script string) {
	t.Helper()
	if err := Play(context.Background(), g, strings.NewReader(script)); err != nil {
		t.Fatalf("play: %v", err)
	}
}

func TestNormalizeBootstrapConfigDefaults(t *testing.T) {
	cfg := normalizeBootstrapConfig(bootstrapConfig{})
	if cfg.openArchive == nil {
		t.Fatal("expected default openArchive")
	}
	if cfg.openScores == nil {
		t.Fatal("expected default openScores")
	}
	if cfg.openBonesPool == nil {
		t.Fatal("expected default openBonesPool")
	}
	if cfg.newBuilder == nil {
		t.Fatal("expected default newBuilder")
	}
	if cfg.newSeed == nil {
		t.Fatal("expected default newSeed")
	}
	if cfg.now == nil {
		t.Fatal("expected default now")
	}
}

func TestNewGameCreatesSave(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer
	cfg.Out = &out
	g := startGame(t, cfg)

	if got := g.Session.Level.ID; got != (level.ID{Branch: level.BranchDungeon, Depth: 1}) {
		t.Fatalf("level = %s, want D:1", got)
	}
	if _, err := os.Stat(filepath.Join(cfg.SaveDir, persist.SaveFilename("Urist"))); err != nil {
		t.Fatalf("save file: %v", err)
	}
	if !strings.Contains(out.String(), "Welcome, Urist the Human.") {
		t.Fatalf("output = %q, want a welcome", out.String())
	}
	if !g.Session.Mode.Seeded {
		t.Fatal("fixed seed should mark the game seeded")
	}

	_, err := testBootstrap().newGame(context.Background(), cfg, nil, "Urist", player.SpeciesHuman)
	if !errors.Is(err, ErrSaveExists) {
		t.Fatalf("second new game = %v, want %v", err, ErrSaveExists)
	}
}

func TestNewGameRejectsBadInput(t *testing.T) {
	cfg := testConfig(t)
	if _, err := testBootstrap().newGame(context.Background(), cfg, nil, " ", player.SpeciesHuman); err == nil {
		t.Fatal("expected error for empty name")
	}
	if _, err := testBootstrap().newGame(context.Background(), cfg, nil, "Urist", player.Species(99)); err == nil {
		t.Fatal("expected error for unknown species")
	}
}

func TestResumeRestoresGame(t *testing.T) {
	cfg := testConfig(t)
	g, err := testBootstrap().newGame(context.Background(), cfg, nil, "Urist", player.SpeciesHuman)
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	play(t, g, `
# first steps
descend
wait 3
lua persist.gold = 42
note found the stairs
quit
`)
	if err := g.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	var out bytes.Buffer
	cfg.Out = &out
	resumed, err := testBootstrap().resume(context.Background(), cfg, nil, "Urist")
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	defer resumed.Close()

	p := resumed.Session.Player
	if p.Place != (level.ID{Branch: level.BranchDungeon, Depth: 2}) {
		t.Fatalf("place = %s, want D:2", p.Place)
	}
	if p.Turns != 3 {
		t.Fatalf("turns = %d, want 3", p.Turns)
	}
	if gold, ok := resumed.Script.Get("gold"); !ok || gold != 42 {
		t.Fatalf("persist.gold = %v (%v), want 42", gold, ok)
	}
	found := false
	for _, n := range resumed.Notes.All() {
		found = found || n.Desc == "found the stairs"
	}
	if !found {
		t.Fatalf("notes = %+v, want the script note", resumed.Notes.All())
	}
	if _, ok := resumed.Travel.Level(level.ID{Branch: level.BranchDungeon, Depth: 1}); !ok {
		t.Fatal("travel cache lost the stairs taken on D:1")
	}
	if !strings.Contains(out.String(), "Welcome back, Urist the Human.") {
		t.Fatalf("output = %q, want a welcome back", out.String())
	}
}

func TestResumeWithoutSave(t *testing.T) {
	cfg := testConfig(t)
	if _, err := testBootstrap().resume(context.Background(), cfg, nil, "Nobody"); err == nil {
		t.Fatal("expected error for a missing save")
	}
}

func TestDeathRecordsScoreAndRemovesSave(t *testing.T) {
	cfg := testConfig(t)
	g := startGame(t, cfg)

	play(t, g, "hurt 9999\nwait\n")
	if !g.Over() {
		t.Fatal("game should be over")
	}
	top, err := g.Scores().Top(context.Background(), 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 1 || top[0].Name != "Urist" {
		t.Fatalf("top = %+v, want Urist", top)
	}
	if _, err := os.Stat(filepath.Join(cfg.SaveDir, persist.SaveFilename("Urist"))); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("save stat = %v, want removed", err)
	}
	morgues, err := filepath.Glob(filepath.Join(cfg.MorgueDir, "morgue-Urist-*.txt"))
	if err != nil || len(morgues) != 1 {
		t.Fatalf("morgue files = %v (%v), want one", morgues, err)
	}
	if _, err := g.Hurt(context.Background(), damage.Request{Damage: 1}); !errors.Is(err, ErrGameOver) {
		t.Fatalf("hurt after death = %v, want %v", err, ErrGameOver)
	}
}

func TestLeavingTheDungeonEndsTheGame(t *testing.T) {
	cfg := testConfig(t)
	g := startGame(t, cfg)

	play(t, g, "climb\n")
	outcome, ok := g.Session.Outcome()
	if !ok {
		t.Fatal("game should be over")
	}
	if outcome.Method.String() != "leaving" {
		t.Fatalf("method = %s, want leaving", outcome.Method)
	}
}

func TestPlayReportsBadLines(t *testing.T) {
	g := startGame(t, testConfig(t))

	tests := []struct {
		script string
		want   string
	}{
		{"wait\ndance\n", "line 2"},
		{"hurt\n", "needs an amount"},
		{"hurt 3 tickling\n", "unknown kill method"},
		{"enter Nowhere\n", "unknown branch"},
		{"rest many\n", "rest turns"},
		{"lua (\n", "line 1: lua"},
	}
	for _, tt := range tests {
		err := Play(context.Background(), g, strings.NewReader(tt.script))
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Fatalf("%q: err = %v, want it to mention %q", tt.script, err, tt.want)
		}
	}
	err := Play(context.Background(), g, strings.NewReader("dance\n"))
	if !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("err = %v, want %v", err, ErrUnknownCommand)
	}
}

func TestUseMissingFeature(t *testing.T) {
	g := startGame(t, testConfig(t))
	if _, err := g.Use(context.Background(), level.FeatEnterLair); !errors.Is(err, ErrNoFeature) {
		t.Fatalf("err = %v, want %v", err, ErrNoFeature)
	}
}

func TestKillCountsMonsters(t *testing.T) {
	g := startGame(t, testConfig(t))
	l := g.Session.Level
	l.AddMonster(&level.Monster{Kind: "rat", Pos: g.Session.Player.Pos.Add(level.Coord{X: 1}), HP: 3, MaxHP: 3})
	before := len(l.Monsters)

	m, err := g.Kill()
	if err != nil {
		t.Fatalf("kill: %v", err)
	}
	if len(l.Monsters) != before-1 {
		t.Fatalf("monsters = %d, want %d", len(l.Monsters), before-1)
	}
	if g.Kills.Count(m.Kind) != 1 {
		t.Fatalf("kills of %s = %d, want 1", m.Kind, g.Kills.Count(m.Kind))
	}
}

func TestRestStopsWhenHurt(t *testing.T) {
	g := startGame(t, testConfig(t))
	if got := g.Rest(5); got != 5 {
		t.Fatalf("rested = %d, want 5", got)
	}
	if g.Session.Player.Turns != 5 {
		t.Fatalf("turns = %d, want 5", g.Session.Player.Turns)
	}

	g.Activities.Start(trackers.Activity{Name: "rest", Turns: 20})
	play(t, g, "hurt 1\n")
	if _, ok := g.Activities.Current(); ok {
		t.Fatal("damage should interrupt the rest")
	}
}

func TestTutorialLeavesNoSave(t *testing.T) {
	cfg := testConfig(t)
	cfg.Tutorial = true
	g, err := testBootstrap().newGame(context.Background(), cfg, nil, "Urist", player.SpeciesHuman)
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	if err := g.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.SaveDir, persist.SaveFilename("Urist"))); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("save stat = %v, want no save", err)
	}
}

func TestTimestampsRecordedEveryInterval(t *testing.T) {
	cfg := testConfig(t)
	cfg.Timestamps = true
	g := startGame(t, cfg)

	play(t, g, "wait 250\n")
	path := filepath.Join(cfg.MorgueDir, turnstamp.Filename("Urist", testStart))
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("timestamp file: %v", err)
	}
	// Version word plus turns 100 and 200.
	if info.Size() != 12 {
		t.Fatalf("size = %d, want 12", info.Size())
	}
}

func TestScoresDisabledWithoutPath(t *testing.T) {
	cfg := testConfig(t)
	cfg.ScoreDB = ""
	g := startGame(t, cfg)
	if g.Scores() != nil || g.Session.Scores != nil {
		t.Fatal("scores should be disabled")
	}
	play(t, g, "hurt 9999\n")
	if !g.Over() {
		t.Fatal("game should end without a score database")
	}
}

func TestFailedStartRemovesSave(t *testing.T) {
	cfg := testConfig(t)
	b := newBootstrapWithConfig(bootstrapConfig{
		openScores: func(string) (*sqlite.Store, error) { return nil, errors.New("disk full") },
	})
	if _, err := b.newGame(context.Background(), cfg, nil, "Urist", player.SpeciesHuman); err == nil {
		t.Fatal("expected error from score store")
	}
	if _, err := os.Stat(filepath.Join(cfg.SaveDir, persist.SaveFilename("Urist"))); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("save stat = %v, want removed after failed start", err)
	}
}

func TestLoadOptions(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write options: %v", err)
		}
		return path
	}

	opts, err := LoadOptions(write("ok.yaml", "hp_warning: 25\nghost_chance: 0\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if opts.HPWarning != 25 || opts.GhostChance != 0 || !opts.SaveCheckpoints {
		t.Fatalf("options = %+v", opts)
	}

	if _, err := LoadOptions(write("unknown.yaml", "hp_warnings: 25\n")); err == nil {
		t.Fatal("expected error for unknown key")
	}
	if _, err := LoadOptions(write("range.yaml", "hp_warning: 150\n")); err == nil {
		t.Fatal("expected error for out of range value")
	}
	defaults, err := LoadOptions("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if defaults.GhostChance != 3 {
		t.Fatalf("ghost chance = %d, want 3", defaults.GhostChance)
	}
}

func TestLostLifeRevivesNextTurn(t *testing.T) {
	cfg := testConfig(t)
	cfg.Lives = 1
	g := startGame(t, cfg)
	p := g.Session.Player

	res, err := g.Hurt(context.Background(), damage.Request{Damage: p.HP + 50, SourceName: "an ogre"})
	if err != nil {
		t.Fatalf("hurt: %v", err)
	}
	if res.Outcome != damage.LifeLost {
		t.Fatalf("outcome = %s, want %s", res.Outcome, damage.LifeLost)
	}
	if !p.PendingRevival || p.Lives != 0 {
		t.Fatalf("pending = %v lives = %d, want pending with no lives left", p.PendingRevival, p.Lives)
	}

	g.EndTurn()
	if p.PendingRevival {
		t.Fatal("revival should complete at the end of the turn")
	}
	if p.HP != p.HPMax {
		t.Fatalf("hp = %d, want %d", p.HP, p.HPMax)
	}

	res, err = g.Hurt(context.Background(), damage.Request{Damage: 1, SourceName: "an ogre"})
	if err != nil {
		t.Fatalf("hurt after revival: %v", err)
	}
	if res.Outcome != damage.Hurt || p.HP != p.HPMax-1 {
		t.Fatalf("outcome = %s hp = %d, want hurt at %d", res.Outcome, p.HP, p.HPMax-1)
	}
}

func TestResumeCompletesPendingRevival(t *testing.T) {
	cfg := testConfig(t)
	cfg.Lives = 1
	g, err := testBootstrap().newGame(context.Background(), cfg, nil, "Urist", player.SpeciesHuman)
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	if _, err := g.Hurt(context.Background(), damage.Request{Damage: g.Session.Player.HP + 5}); err != nil {
		t.Fatalf("hurt: %v", err)
	}
	// The death checkpoint is the last commit; nothing else is saved.
	if err := g.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	resumed, err := testBootstrap().resume(context.Background(), cfg, nil, "Urist")
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	defer resumed.Close()
	p := resumed.Session.Player
	if p.PendingRevival || p.HP != p.HPMax || p.Deaths != 1 {
		t.Fatalf("pending = %v hp = %d/%d deaths = %d, want revived after one death", p.PendingRevival, p.HP, p.HPMax, p.Deaths)
	}
}
