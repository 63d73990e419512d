package session

import "fmt"

// Options are the player-tunable settings read from the options file.
type Options struct {
	// HPWarning is the health percentage at or below which damage triggers
	// the low hit point warning. Zero disables it.
	HPWarning int `yaml:"hp_warning"`
	// GhostChance is N in the one-in-N chance of meeting ghosts on a newly
	// generated level. Zero disables ghosts.
	GhostChance      int  `yaml:"ghost_chance"`
	DumpOnSave       bool `yaml:"dump_on_save"`
	SaveCheckpoints  bool `yaml:"save_checkpoints"`
	RestartAfterGame bool `yaml:"restart_after_game"`
}

// DefaultOptions returns the settings used when no options file exists.
func DefaultOptions() Options {
	return Options{
		HPWarning:       10,
		GhostChance:     3,
		SaveCheckpoints: true,
	}
}

// Validate rejects out of range values.
func (o Options) Validate() error {
	if o.HPWarning < 0 || o.HPWarning > 100 {
		return fmt.Errorf("hp_warning must be between 0 and 100, got %d", o.HPWarning)
	}
	if o.GhostChance < 0 {
		return fmt.Errorf("ghost_chance must not be negative, got %d", o.GhostChance)
	}
	return nil
}

// Mode flags select the kind of game being played.
// Wizard and explore mode live on the player since they persist with
// the save.
type Mode struct {
	Tutorial bool
	// Test runs refuse every confirmation and never finalize a death.
	Test bool
	// Seeded games never load ghosts.
	Seeded bool
	// Permissive downgrades consistency violations to warnings.
	Permissive bool
	// DeathDisabled is the wizard switch that restores life on any death.
	DeathDisabled bool
}
