package app

import (
	"fmt"
	"io"
	"time"

	"github.com/louisbranch/undercroft/internal/platform/config"
	"github.com/louisbranch/undercroft/internal/services/game/domain/session"
)

// Config selects where a game keeps its files and how it is played.
type Config struct {
	SaveDir string
	// BonesDir holds ghost files shared between games.
	BonesDir string
	// LegacyBonesDir is searched for single-slot bones files left by older
	// versions. Empty disables it.
	LegacyBonesDir string
	// ScoreDB is the score database path. Empty disables score keeping.
	ScoreDB   string
	MorgueDir string
	// OptionsFile is a YAML file of player options. Empty uses defaults.
	OptionsFile string

	// Seed fixes the game RNG. Zero draws a random seed.
	Seed uint64
	// Lives is the number of deaths a new character survives.
	Lives       int
	Wizard      bool
	Explore     bool
	Tutorial    bool
	Test        bool
	Permissive  bool
	Timestamps  bool
	LockTimeout time.Duration

	// Out receives every message shown to the player.
	Out io.Writer
}

// LoadOptions reads the player options file, falling back to defaults for
// keys it does not set.
func LoadOptions(path string) (session.Options, error) {
	opts := session.DefaultOptions()
	if err := config.LoadYAML(path, &opts); err != nil {
		return session.Options{}, err
	}
	if err := opts.Validate(); err != nil {
		return session.Options{}, fmt.Errorf("options %s: %w", path, err)
	}
	return opts, nil
}
