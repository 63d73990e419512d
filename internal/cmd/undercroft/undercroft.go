// Package undercroft parses undercroft command flags and runs a game.
package undercroft

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	entrypoint "github.com/louisbranch/undercroft/internal/platform/cmd"
	"github.com/louisbranch/undercroft/internal/platform/config"
	apperrors "github.com/louisbranch/undercroft/internal/platform/errors"
	"github.com/louisbranch/undercroft/internal/services/game/app"
	"github.com/louisbranch/undercroft/internal/services/game/domain/player"
	"github.com/louisbranch/undercroft/internal/services/game/domain/score"
	"github.com/louisbranch/undercroft/internal/services/game/persist"
	"github.com/louisbranch/undercroft/internal/services/game/storage/sqlite"
)

// Commands accepted after the flags.
const (
	CommandNew    = "new"
	CommandResume = "resume"
	CommandScores = "scores"
	CommandSaves  = "saves"
)

// ErrUsage indicates a command line that names no known command or lacks
// its arguments.
var ErrUsage = errors.New("usage: undercroft [flags] new <name> <species> | resume <name> | scores | saves")

// Config holds undercroft command configuration.
type Config struct {
	SaveDir        string        `env:"SAVE_DIR" envDefault:"saves"`
	BonesDir       string        `env:"BONES_DIR" envDefault:"saves/bones"`
	LegacyBonesDir string        `env:"LEGACY_BONES_DIR"`
	ScoreDB        string        `env:"SCORE_DB" envDefault:"saves/scores.db"`
	MorgueDir      string        `env:"MORGUE_DIR" envDefault:"morgue"`
	OptionsFile    string        `env:"OPTIONS_FILE"`
	Seed           uint64        `env:"SEED"`
	Lives          int           `env:"LIVES"`
	Wizard         bool          `env:"WIZARD"`
	Explore        bool          `env:"EXPLORE"`
	Debug          bool          `env:"DEBUG"`
	Permissive     bool          `env:"PERMISSIVE"`
	Tutorial       bool          `env:"TUTORIAL"`
	LockTimeout    time.Duration `env:"LOCK_TIMEOUT" envDefault:"100ms"`
	Timestamps     bool          `env:"TIMESTAMPS"`

	// Script is a file of driver commands; empty reads stdin.
	Script string
	// TopScores is how many entries the scores command prints.
	TopScores int

	Command string
	Args    []string
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.SaveDir, "save-dir", cfg.SaveDir, "Directory holding character saves")
	fs.StringVar(&cfg.BonesDir, "bones-dir", cfg.BonesDir, "Directory holding shared ghost files")
	fs.StringVar(&cfg.LegacyBonesDir, "legacy-bones-dir", cfg.LegacyBonesDir, "Directory of old single-slot bones files")
	fs.StringVar(&cfg.ScoreDB, "score-db", cfg.ScoreDB, "Score database path (empty disables scores)")
	fs.StringVar(&cfg.MorgueDir, "morgue-dir", cfg.MorgueDir, "Directory receiving morgue files")
	fs.StringVar(&cfg.OptionsFile, "options", cfg.OptionsFile, "YAML player options file")
	fs.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "Fixed game seed (0 picks one)")
	fs.IntVar(&cfg.Lives, "lives", cfg.Lives, "Deaths a new character survives")
	fs.BoolVar(&cfg.Wizard, "wizard", cfg.Wizard, "Start in wizard mode")
	fs.BoolVar(&cfg.Explore, "explore", cfg.Explore, "Start in explore mode")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable debug logging")
	fs.BoolVar(&cfg.Permissive, "permissive", cfg.Permissive, "Log consistency problems instead of failing")
	fs.BoolVar(&cfg.Tutorial, "tutorial", cfg.Tutorial, "Play a tutorial game that is never saved")
	fs.DurationVar(&cfg.LockTimeout, "lock-timeout", cfg.LockTimeout, "How long to wait for a locked save")
	fs.BoolVar(&cfg.Timestamps, "timestamps", cfg.Timestamps, "Record turn timestamps next to morgue files")
	fs.StringVar(&cfg.Script, "script", "", "File of driver commands (default stdin)")
	fs.IntVar(&cfg.TopScores, "top", 15, "Entries listed by the scores command")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	cfg.Command = fs.Arg(0)
	if fs.NArg() > 1 {
		cfg.Args = fs.Args()[1:]
	}
	return cfg, nil
}

func (cfg Config) gameConfig(out io.Writer) app.Config {
	return app.Config{
		SaveDir:        cfg.SaveDir,
		BonesDir:       cfg.BonesDir,
		LegacyBonesDir: cfg.LegacyBonesDir,
		ScoreDB:        cfg.ScoreDB,
		MorgueDir:      cfg.MorgueDir,
		OptionsFile:    cfg.OptionsFile,
		Seed:           cfg.Seed,
		Lives:          cfg.Lives,
		Wizard:         cfg.Wizard,
		Explore:        cfg.Explore,
		Tutorial:       cfg.Tutorial,
		Permissive:     cfg.Permissive,
		Timestamps:     cfg.Timestamps,
		LockTimeout:    cfg.LockTimeout,
		Out:            out,
	}
}

// Run executes the configured command, writing player output to stdout.
func Run(ctx context.Context, cfg Config) error {
	return run(ctx, cfg, os.Stdin, os.Stdout)
}

func run(ctx context.Context, cfg Config, in io.Reader, out io.Writer) error {
	service := entrypoint.ServiceUndercroft
	if cfg.Command == CommandScores {
		service = entrypoint.ServiceScores
	}
	logger, err := entrypoint.NewLogger(service, cfg.Debug)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	return entrypoint.RunWithTelemetry(ctx, service, func(ctx context.Context) error {
		switch cfg.Command {
		case CommandNew:
			if len(cfg.Args) != 2 {
				return ErrUsage
			}
			species, ok := player.ParseSpecies(cfg.Args[1])
			if !ok {
				return fmt.Errorf("unknown species %q", cfg.Args[1])
			}
			g, err := app.NewGame(ctx, cfg.gameConfig(out), logger, cfg.Args[0], species)
			if err != nil {
				return err
			}
			return play(ctx, cfg, g, in)
		case CommandResume:
			if len(cfg.Args) != 1 {
				return ErrUsage
			}
			g, err := app.Resume(ctx, cfg.gameConfig(out), logger, cfg.Args[0])
			if err != nil {
				return err
			}
			return play(ctx, cfg, g, in)
		case CommandScores:
			return listScores(ctx, cfg, out)
		case CommandSaves:
			return listSaves(cfg, out)
		}
		return ErrUsage
	})
}

func play(ctx context.Context, cfg Config, g *app.Game, in io.Reader) (err error) {
	defer func() {
		err = errors.Join(err, g.Close())
	}()
	if cfg.Script != "" {
		f, err := os.Open(cfg.Script)
		if err != nil {
			return fmt.Errorf("open script: %w", err)
		}
		defer f.Close()
		in = f
	}
	return app.Play(ctx, g, in)
}

func listScores(ctx context.Context, cfg Config, out io.Writer) error {
	if strings.TrimSpace(cfg.ScoreDB) == "" {
		return fmt.Errorf("score database is disabled")
	}
	store, err := sqlite.Open(cfg.ScoreDB)
	if err != nil {
		return err
	}
	defer store.Close()
	top, err := store.Top(ctx, cfg.TopScores)
	if err != nil {
		return err
	}
	for i, e := range top {
		fmt.Fprintf(out, "%3d. %8d %s\n", i+1, e.Points, e.DeathDescription(score.Normal))
	}
	return nil
}

func listSaves(cfg Config, out io.Writer) error {
	saves, err := persist.ListSavedCharacters(cfg.SaveDir)
	if err != nil {
		return err
	}
	for _, s := range saves {
		fmt.Fprintln(out, s.Describe())
	}
	return nil
}

// ExitCode maps a failed run to a process exit code and the message shown
// to the player. Save problems carry the hint for their code.
func ExitCode(err error) (int, string) {
	var coded *apperrors.Error
	if errors.As(err, &coded) && coded.Code.Fatal() {
		return config.ExitSaveProblem, coded.UserMessage()
	}
	if errors.As(err, &coded) {
		if hint := coded.Code.Hint(); hint != "" {
			return config.ExitFailure, err.Error() + ". " + hint
		}
	}
	return config.ExitFailure, err.Error()
}
