package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/louisbranch/undercroft/internal/random"
	"github.com/louisbranch/undercroft/internal/services/game/builder"
	"github.com/louisbranch/undercroft/internal/services/game/damage"
	"github.com/louisbranch/undercroft/internal/services/game/domain/level"
	"github.com/louisbranch/undercroft/internal/services/game/domain/player"
	"github.com/louisbranch/undercroft/internal/services/game/domain/session"
	"github.com/louisbranch/undercroft/internal/services/game/persist"
	"github.com/louisbranch/undercroft/internal/services/game/script"
	"github.com/louisbranch/undercroft/internal/services/game/storage/archive"
	"github.com/louisbranch/undercroft/internal/services/game/storage/bones"
	"github.com/louisbranch/undercroft/internal/services/game/storage/sqlite"
	"github.com/louisbranch/undercroft/internal/services/game/storage/turnstamp"
	"github.com/louisbranch/undercroft/internal/services/game/trackers"
)

// ErrSaveExists indicates a new game for a character that already has a
// save.
var ErrSaveExists = errors.New("character already has a save")

// bootstrap configures each startup phase of a game.
type bootstrap struct {
	config bootstrapConfig
}

// bootstrapConfig holds the seams tests replace.
type bootstrapConfig struct {
	openArchive   func(path string, create bool, lockTimeout time.Duration) (*archive.Archive, error)
	openScores    func(path string) (*sqlite.Store, error)
	openBonesPool func(dir string) (bones.Pool, error)
	newBuilder    func(rng *random.RNG, logger *zap.Logger) session.Builder
	newSeed       func() (uint64, error)
	now           func() time.Time
}

func newBootstrap() *bootstrap {
	return newBootstrapWithConfig(bootstrapConfig{})
}

func newBootstrapWithConfig(cfg bootstrapConfig) *bootstrap {
	return &bootstrap{config: normalizeBootstrapConfig(cfg)}
}

func normalizeBootstrapConfig(cfg bootstrapConfig) bootstrapConfig {
	if cfg.openArchive == nil {
		cfg.openArchive = persist.OpenArchive
	}
	if cfg.openScores == nil {
		cfg.openScores = openScores
	}
	if cfg.openBonesPool == nil {
		cfg.openBonesPool = func(dir string) (bones.Pool, error) {
			return bones.NewDirPool(dir)
		}
	}
	if cfg.newBuilder == nil {
		cfg.newBuilder = func(rng *random.RNG, logger *zap.Logger) session.Builder {
			return builder.New(rng, logger)
		}
	}
	if cfg.newSeed == nil {
		cfg.newSeed = random.NewSeed
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}
	return cfg
}

func openScores(path string) (*sqlite.Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create score directory: %w", err)
	}
	return sqlite.Open(path)
}

// NewGame creates a character and its save, and loads the first level.
func NewGame(ctx context.Context, cfg Config, logger *zap.Logger, name string, species player.Species) (*Game, error) {
	return newBootstrap().newGame(ctx, cfg, logger, name, species)
}

// Resume reopens the save of name and restores the game in it.
func Resume(ctx context.Context, cfg Config, logger *zap.Logger, name string) (*Game, error) {
	return newBootstrap().resume(ctx, cfg, logger, name)
}

func (b *bootstrap) newGame(ctx context.Context, cfg Config, logger *zap.Logger, name string, species player.Species) (game *Game, err error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("character name is required")
	}
	if !species.Valid() {
		return nil, fmt.Errorf("unknown species %d", species)
	}
	if cfg.Lives < 0 {
		return nil, fmt.Errorf("lives must not be negative, got %d", cfg.Lives)
	}
	path := filepath.Join(cfg.SaveDir, persist.SaveFilename(name))
	if _, statErr := os.Stat(path); statErr == nil {
		return nil, fmt.Errorf("%w: %s", ErrSaveExists, path)
	}

	a, err := b.config.openArchive(path, true, cfg.LockTimeout)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = a.Unlink()
		}
	}()

	p := player.New(name, species)
	p.StartTime = b.config.now().UTC().Truncate(time.Second)
	p.Wizard = cfg.Wizard
	p.Explore = cfg.Explore
	p.Lives = cfg.Lives
	p.Place = level.ID{Branch: level.BranchDungeon, Depth: 1}

	g, err := b.assemble(cfg, logger, a, p)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = g.Close()
		}
	}()

	if _, err := g.Manager.LoadLevel(ctx, level.FeatUnseen, persist.StartGame, level.Unset); err != nil {
		return nil, fmt.Errorf("start game: %w", err)
	}
	g.survey()
	if err := g.Manager.SaveGame(ctx, false, ""); err != nil {
		return nil, fmt.Errorf("first save: %w", err)
	}
	g.startRecorder(cfg)
	g.Session.Say(session.ChannelPlain, "Welcome, %s the %s.", p.Name, p.Species)
	return g, nil
}

func (b *bootstrap) resume(ctx context.Context, cfg Config, logger *zap.Logger, name string) (game *Game, err error) {
	path := filepath.Join(cfg.SaveDir, persist.SaveFilename(name))
	a, err := b.config.openArchive(path, false, cfg.LockTimeout)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	// RestoreGame replaces the placeholder with the saved character.
	g, err := b.assemble(cfg, logger, a, player.New(name, player.SpeciesHuman))
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = g.Close()
		}
	}()

	if err := g.Manager.RestoreGame(ctx); err != nil {
		return nil, err
	}
	g.startRecorder(cfg)
	g.Session.Say(session.ChannelPlain, "Welcome back, %s the %s.", g.Session.Player.Name, g.Session.Player.Species)
	return g, nil
}

// assemble builds the session around an open archive. On error nothing it
// opened is left open.
func (b *bootstrap) assemble(cfg Config, logger *zap.Logger, a *archive.Archive, p *player.Player) (game *Game, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts, err := LoadOptions(cfg.OptionsFile)
	if err != nil {
		return nil, err
	}
	seed := cfg.Seed
	seeded := seed != 0
	if !seeded {
		if seed, err = b.config.newSeed(); err != nil {
			return nil, err
		}
	}
	rng := random.New(seed)

	s := session.New(p, rng, logger)
	s.Options = opts
	s.Mode = session.Mode{
		Tutorial:   cfg.Tutorial,
		Test:       cfg.Test,
		Seeded:     seeded,
		Permissive: cfg.Permissive,
	}
	s.Archive = a
	s.Builder = b.config.newBuilder(rng, logger)

	g := &Game{
		Session:    s,
		Pipeline:   damage.New(damage.DefaultObservers()),
		Notes:      &trackers.Notes{},
		Messages:   &trackers.Messages{Out: cfg.Out},
		Kills:      &trackers.Kills{},
		Stashes:    &trackers.Stashes{},
		Travel:     &trackers.Travel{},
		Activities: &trackers.Activities{},
		Script:     script.New(logger),
		archive:    a,
		tutorial:   cfg.Tutorial,
		logger:     logger,
		now:        b.config.now,
	}
	defer func() {
		if err != nil {
			g.Script.Close()
			_ = g.scores.Close()
		}
	}()
	s.Notes = g.Notes
	s.Messages = g.Messages
	s.Activities = g.Activities
	s.Trackers = []session.LevelTracker{g.Stashes, g.Travel}
	s.Chunks = []session.ChunkStore{
		g.Notes, g.Messages, g.Kills, g.Stashes, g.Travel, g.Script,
		&trackers.Opaque{Name: session.ChunkTileDoll},
	}

	if cfg.ScoreDB != "" {
		if g.scores, err = b.config.openScores(cfg.ScoreDB); err != nil {
			return nil, fmt.Errorf("open scores: %w", err)
		}
		s.Scores = g.scores
	}

	pool, err := b.config.openBonesPool(cfg.BonesDir)
	if err != nil {
		return nil, err
	}
	var legacy bones.Pool
	if cfg.LegacyBonesDir != "" {
		if legacy, err = b.config.openBonesPool(cfg.LegacyBonesDir); err != nil {
			return nil, err
		}
	}
	s.Bones = bones.NewManager(pool, legacy, random.New(seed+1), logger)

	g.Manager = persist.New(s, persist.Config{MorgueDir: cfg.MorgueDir})
	s.Checkpointer = g.Manager
	s.Ender = g.Manager

	logger.Debug("game assembled",
		zap.String("name", p.Name),
		zap.Uint64("seed", seed),
		zap.Bool("seeded", seeded),
		zap.Bool("scores", g.scores != nil))
	return g, nil
}

func (g *Game) startRecorder(cfg Config) {
	if !cfg.Timestamps || cfg.MorgueDir == "" || g.tutorial {
		return
	}
	p := g.Session.Player
	g.stamps = turnstamp.NewRecorder(cfg.MorgueDir, p.Name, p.StartTime, g.logger)
}
