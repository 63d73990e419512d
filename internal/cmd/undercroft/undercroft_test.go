package undercroft

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/louisbranch/undercroft/internal/platform/config"
	apperrors "github.com/louisbranch/undercroft/internal/platform/errors"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("undercroft", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.SaveDir != "saves" {
		t.Fatalf("expected default save dir saves, got %q", cfg.SaveDir)
	}
	if cfg.ScoreDB != "saves/scores.db" {
		t.Fatalf("expected default score db, got %q", cfg.ScoreDB)
	}
	if cfg.LockTimeout != 100*time.Millisecond {
		t.Fatalf("expected lock timeout 100ms, got %s", cfg.LockTimeout)
	}
	if cfg.LegacyBonesDir != "" {
		t.Fatalf("expected legacy bones disabled, got %q", cfg.LegacyBonesDir)
	}
	if cfg.Command != "" {
		t.Fatalf("expected no command, got %q", cfg.Command)
	}
}

func TestParseConfigEnv(t *testing.T) {
	t.Setenv("UNDERCROFT_SAVE_DIR", "/var/games/undercroft")
	t.Setenv("UNDERCROFT_SEED", "99")
	fs := flag.NewFlagSet("undercroft", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-seed", "5"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.SaveDir != "/var/games/undercroft" {
		t.Fatalf("expected env save dir, got %q", cfg.SaveDir)
	}
	if cfg.Seed != 5 {
		t.Fatalf("expected flag to override env seed, got %d", cfg.Seed)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	fs := flag.NewFlagSet("undercroft", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-save-dir", "/tmp/s", "-wizard", "-lives", "2", "-lock-timeout", "2s", "new", "Urist", "Human"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.SaveDir != "/tmp/s" || !cfg.Wizard || cfg.Lives != 2 || cfg.LockTimeout != 2*time.Second {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
	if cfg.Command != CommandNew || len(cfg.Args) != 2 || cfg.Args[0] != "Urist" {
		t.Fatalf("unexpected command %q %v", cfg.Command, cfg.Args)
	}
}

func testConfig(t *testing.T, args ...string) Config {
	t.Helper()
	root := t.TempDir()
	fs := flag.NewFlagSet("undercroft", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, append([]string{
		"-save-dir", filepath.Join(root, "saves"),
		"-bones-dir", filepath.Join(root, "bones"),
		"-score-db", filepath.Join(root, "scores.db"),
		"-morgue-dir", filepath.Join(root, "morgue"),
		"-seed", "3",
	}, args...))
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	return cfg
}

func TestRunNewResumeAndList(t *testing.T) {
	cfg := testConfig(t, "new", "Urist", "Human")
	var out bytes.Buffer
	if err := run(context.Background(), cfg, strings.NewReader("descend\nquit\n"), &out); err != nil {
		t.Fatalf("new: %v", err)
	}
	if !strings.Contains(out.String(), "Welcome, Urist the Human.") {
		t.Fatalf("output = %q", out.String())
	}

	cfg.Command, cfg.Args = CommandSaves, nil
	out.Reset()
	if err := run(context.Background(), cfg, strings.NewReader(""), &out); err != nil {
		t.Fatalf("saves: %v", err)
	}
	if !strings.Contains(out.String(), "Urist") || !strings.Contains(out.String(), "D:2") {
		t.Fatalf("saves output = %q", out.String())
	}

	cfg.Command, cfg.Args = CommandResume, []string{"Urist"}
	out.Reset()
	if err := run(context.Background(), cfg, strings.NewReader("hurt 9999\n"), &out); err != nil {
		t.Fatalf("resume: %v", err)
	}

	cfg.Command, cfg.Args = CommandScores, nil
	out.Reset()
	if err := run(context.Background(), cfg, strings.NewReader(""), &out); err != nil {
		t.Fatalf("scores: %v", err)
	}
	if !strings.HasPrefix(out.String(), "  1.") {
		t.Fatalf("scores output = %q", out.String())
	}
}

func TestRunRejectsBadUsage(t *testing.T) {
	tests := [][]string{
		nil,
		{"dance"},
		{"new", "Urist"},
		{"resume"},
	}
	for _, args := range tests {
		cfg := testConfig(t, args...)
		err := run(context.Background(), cfg, strings.NewReader(""), &bytes.Buffer{})
		if !errors.Is(err, ErrUsage) {
			t.Fatalf("%v: err = %v, want %v", args, err, ErrUsage)
		}
	}
}

func TestRunUnknownSpecies(t *testing.T) {
	cfg := testConfig(t, "new", "Urist", "Dragon")
	if err := run(context.Background(), cfg, strings.NewReader(""), &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for unknown species")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		hint bool
	}{
		{"plain", errors.New("boom"), config.ExitFailure, false},
		{"corrupt save", apperrors.Wrap(apperrors.CodeSaveCorrupt, "read chunk", errors.New("bad")), config.ExitSaveProblem, true},
		{"locked", apperrors.New(apperrors.CodeArchiveLocked, "open save"), config.ExitFailure, true},
	}
	for _, tt := range tests {
		code, msg := ExitCode(tt.err)
		if code != tt.code {
			t.Fatalf("%s: code = %d, want %d", tt.name, code, tt.code)
		}
		if got := msg != tt.err.Error(); got != tt.hint {
			t.Fatalf("%s: message %q, hint expected %v", tt.name, msg, tt.hint)
		}
	}
}
