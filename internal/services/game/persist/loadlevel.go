package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/zyedidia/generic/mapset"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	apperrors "github.com/louisbranch/undercroft/internal/platform/errors"
	"github.com/louisbranch/undercroft/internal/services/game/domain/ghost"
	"github.com/louisbranch/undercroft/internal/services/game/domain/level"
	"github.com/louisbranch/undercroft/internal/services/game/domain/player"
	"github.com/louisbranch/undercroft/internal/services/game/domain/session"
)

// Mode says why a level is being loaded.
type Mode int

const (
	// StartGame loads the first level of a new character.
	StartGame Mode = iota
	// EnterLevel is an ordinary move between levels.
	EnterLevel
	// RestartGame reloads the level a restored save was left on.
	RestartGame
	// Visitor makes a level current for a cross-level query without the
	// player arriving on it.
	Visitor
)

var modeNames = [...]string{"start_game", "enter_level", "restart_game", "visitor"}

func (m Mode) String() string {
	if m >= 0 && int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "unknown"
}

// ErrNotGenerated reports a visit to a level the player has never reached.
var ErrNotGenerated = errors.New("level has not been generated")

// arrival is where and how the player reaches the new level.
type arrival struct {
	feature   level.Feature
	findFirst bool
	popped    bool
	returnPos level.Coord
}

// LoadLevel makes the level at Player.Place current. The caller moves
// Player.Place to the destination first and passes the feature used to
// leave from. It reports whether the level was generated rather than
// loaded from the archive.
func (m *Manager) LoadLevel(ctx context.Context, taken level.Feature, mode Mode, from level.ID) (bool, error) {
	s := m.s
	p := s.Player
	dest := p.Place
	if !dest.Valid() {
		return false, apperrors.WithMetadata(apperrors.CodeLevelInvalidID, "invalid destination level",
			map[string]string{"level": dest.String()})
	}

	ctx, span := m.tracer.Start(ctx, "persist.LoadLevel", trace.WithAttributes(
		attribute.String("level", dest.String()),
		attribute.String("mode", mode.String()),
	))
	defer span.End()

	arrive := arrival{}
	arrive.feature, arrive.findFirst = level.DestStairType(taken, dest.Branch)
	if mode == StartGame {
		arrive.feature, arrive.findFirst = dest.Branch.Info().Exit, true
	}

	if mode == EnterLevel && s.Level != nil {
		var err error
		arrive.popped, arrive.returnPos, err = m.leaveLevel(taken, from, dest)
		if err != nil {
			span.RecordError(err)
			return false, err
		}
	}

	if mode == Visitor && (s.Archive == nil || !s.Archive.Has(dest.ChunkName())) {
		err := apperrors.WrapWithMetadata(apperrors.CodeChunkNotFound, "visit level",
			map[string]string{"level": dest.String()}, ErrNotGenerated)
		span.RecordError(err)
		return false, err
	}

	l, created, err := m.obtainLevel(ctx, dest, arrive.feature)
	if err != nil {
		span.RecordError(err)
		return false, err
	}
	span.SetAttributes(attribute.Bool("new", created))

	if mode == Visitor {
		s.Level = l
		return created, nil
	}

	if created {
		l.ElapsedTime = p.ElapsedTime
		l.TurnsOnLevel = 0
	} else {
		catchUp(l, p.ElapsedTime)
	}
	s.Level = l

	if mode != RestartGame {
		m.placePlayer(l, arrive)
	}
	m.placeTransit(l)
	if created {
		m.loadGhosts(ctx, l)
	}

	if mode == StartGame || mode == EnterLevel {
		bp := p.BranchPlaceInfo(dest.Branch)
		if mode == StartGame || !arrive.popped && from.Branch != dest.Branch {
			bp.NumVisits++
			p.Global.NumVisits++
		}
		if created {
			bp.LevelsSeen++
			p.Global.LevelsSeen++
		}
	}
	if mode == EnterLevel {
		if !created {
			p.TimeTaken *= 2
		}
		p.TimeTaken = s.RNG.DivRandRound(p.TimeTaken*3, 4)
	}
	if created && dest.Branch != level.BranchPandemonium {
		s.TakeNote(session.NoteLevelChange, 0, 0, dest.String())
	}

	if err := m.saveLevel(l); err != nil {
		span.RecordError(err)
		return created, err
	}
	if mode == EnterLevel && s.Options.SaveCheckpoints {
		if err := m.Checkpoint(ctx); err != nil {
			s.Logger.Warn("checkpoint after level change", zap.Error(err))
		}
	}
	return created, nil
}

// leaveLevel settles the current level before the player moves to dest.
// It reports whether dest was popped off the level stack and the
// position stored there.
func (m *Manager) leaveLevel(taken level.Feature, from, dest level.ID) (bool, level.Coord, error) {
	s := m.s
	p := s.Player
	old := s.Level

	if p.Worships(player.GodFedhas) {
		rotCorpses(old)
	}

	popped := false
	var returnPos level.Coord
	if top, ok := p.Stack.Top(); ok && top.ID == dest {
		p.Stack.Pop()
		returnPos = top.Pos
		old.Deleted = true
		popped = true
	} else if taken == level.FeatTransitPandemonium ||
		taken == level.FeatExitThroughAbyss ||
		taken == level.FeatStoneStairsDownI && from.Branch == level.BranchZiggurat ||
		from.Branch == level.BranchAbyss {
		old.Deleted = true
	}

	if !popped && !dest.Branch.Connected() && from.Branch != dest.Branch {
		if pushErr := p.Stack.Push(level.Pos{ID: from, Pos: p.Pos}); pushErr != nil {
			if err := m.stackViolation(dest, pushErr); err != nil {
				return false, returnPos, err
			}
		}
	}
	if p.Stack.Contains(dest) && dest.Branch != level.BranchAbyss {
		if err := m.stackViolation(dest, level.ErrDuplicateOnStack); err != nil {
			return false, returnPos, err
		}
	}

	if followers := m.grabFollowers(old, dest); len(followers) > 0 {
		if s.Transit == nil {
			s.Transit = map[level.ID][]*level.Monster{}
		}
		s.Transit[dest] = append(s.Transit[dest], followers...)
	}

	if old.Deleted {
		if err := m.deleteLevel(old); err != nil {
			return false, returnPos, err
		}
	} else if err := m.saveLevel(old); err != nil {
		return false, returnPos, err
	}
	return popped, returnPos, nil
}

// stackViolation is fatal unless the session is permissive.
func (m *Manager) stackViolation(dest level.ID, cause error) error {
	s := m.s
	err := apperrors.WrapWithMetadata(apperrors.CodeLevelStackDuplicate, "level already on stack",
		map[string]string{"level": dest.String(), "stack": s.Player.Stack.String()}, cause)
	if !s.Mode.Permissive {
		return err
	}
	s.Logger.Warn("level stack violation", zap.Error(err))
	s.Say(session.ChannelDiagnostic, "Error: %s is already on the level stack.", dest)
	return nil
}

func rotCorpses(l *level.Level) {
	for i := range l.Items {
		if l.Items[i].Corpse {
			l.Items[i].Corpse = false
			l.Items[i].Skeleton = true
		}
	}
}

// grabFollowers removes from l the monsters that take the stairs with the
// player. Followers are found by flood fill from the player through
// adjacent monsters that are taking the stairs.
func (m *Manager) grabFollowers(l *level.Level, dest level.ID) []*level.Monster {
	s := m.s
	p := s.Player
	defer func() {
		for _, mon := range l.Monsters {
			mon.Clear(level.FlagTakingStairs)
		}
	}()
	if dest.Branch.Info().NoFollowers {
		return nil
	}

	visited := mapset.New[level.Coord]()
	visited.Put(p.Pos)
	queue := []level.Coord{p.Pos}
	var followers, summons []*level.Monster
	alliesLeft := 0
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		for _, n := range c.Adjacent() {
			if visited.Has(n) {
				continue
			}
			visited.Put(n)
			mon := l.MonsterAt(n)
			if mon == nil || !mon.Alive() || !mon.Has(level.FlagTakingStairs) {
				continue
			}
			if mon.Kind == level.KindPlayerGhost && mon.HP < mon.MaxHP/2 {
				s.Say(session.ChannelPlain, "%s is too weak to follow you and flees.", mon.DisplayName())
				continue
			}
			// Allies that cannot take stairs still pass the flood on.
			queue = append(queue, n)
			switch {
			case mon.CanUseStairs():
				followers = append(followers, mon)
			case mon.Has(level.FlagSummoned) && mon.Has(level.FlagWontAttack):
				summons = append(summons, mon)
			case mon.Has(level.FlagWontAttack):
				alliesLeft++
			}
		}
	}

	for _, f := range followers {
		l.RemoveMonster(f.MID)
		f.Clear(level.FlagTakingStairs)
		s.Logger.Debug("monster follows player",
			zap.String("monster", f.DisplayName()),
			zap.String("to", dest.String()))
	}
	for _, mon := range summons {
		l.RemoveMonster(mon.MID)
	}
	switch {
	case len(summons) == 1:
		s.Say(session.ChannelPlain, "Your summoned ally is left behind.")
	case len(summons) > 1:
		s.Say(session.ChannelPlain, "Your summoned allies are left behind.")
	}
	switch {
	case alliesLeft == 1:
		s.Say(session.ChannelPlain, "Your ally can't follow you.")
	case alliesLeft > 1:
		s.Say(session.ChannelPlain, "Your allies can't follow you.")
	}
	return followers
}

// DeleteLevel discards id and everything tracked about it.
func (m *Manager) DeleteLevel(id level.ID) error {
	s := m.s
	if s.Level != nil && s.Level.ID == id {
		s.Level.Deleted = true
		return m.deleteLevel(s.Level)
	}
	l := &level.Level{ID: id}
	if s.Archive != nil && s.Archive.Has(id.ChunkName()) {
		data, err := s.Archive.Read(id.ChunkName())
		if err != nil {
			return chunkError(id.ChunkName(), err)
		}
		if decoded, err := decodeLevelChunk(data); err == nil {
			l = decoded
		} else {
			s.Logger.Warn("deleting unreadable level", zap.String("level", id.String()), zap.Error(err))
		}
	}
	return m.deleteLevel(l)
}

func (m *Manager) deleteLevel(l *level.Level) error {
	s := m.s
	s.RemoveLevel(l.ID)

	released := 0
	for _, mon := range l.Monsters {
		if mon.Has(level.FlagUnique) && mon.Alive() {
			delete(s.Player.Uniques, mon.Kind)
			released++
		}
	}

	name := l.ID.ChunkName()
	if s.Archive != nil && s.Archive.Has(name) {
		if err := s.Archive.Delete(name); err != nil {
			return writeError(name, err)
		}
	}
	s.Logger.Debug("deleted level",
		zap.String("level", l.ID.String()),
		zap.Int("released_uniques", released))
	return nil
}

func (m *Manager) obtainLevel(ctx context.Context, id level.ID, arrive level.Feature) (*level.Level, bool, error) {
	s := m.s
	name := id.ChunkName()
	if s.Archive != nil && s.Archive.Has(name) {
		data, err := s.Archive.Read(name)
		if err != nil {
			return nil, false, chunkError(name, err)
		}
		l, err := decodeLevelChunk(data)
		if err != nil {
			return nil, false, chunkError(name, err)
		}
		if l.ID != id {
			return nil, false, apperrors.WithMetadata(apperrors.CodeSaveCorrupt, "level chunk holds another level",
				map[string]string{"chunk": name, "level": l.ID.String()})
		}
		s.Logger.Debug("loaded level", zap.String("level", name))
		return l, false, nil
	}

	if s.Builder == nil {
		return nil, false, errors.New("no level builder configured")
	}
	l, err := s.Builder.Generate(ctx, id, arrive)
	if err != nil {
		return nil, false, fmt.Errorf("generate %s: %w", id, err)
	}
	s.Logger.Debug("generated level", zap.String("level", name), zap.String("arrive", arrive.String()))
	return l, true, nil
}

// catchUp ages a reloaded level by the time the player spent elsewhere.
func catchUp(l *level.Level, now int) {
	turns := (now - l.ElapsedTime) / player.BaselineDelay
	if turns > 0 {
		kept := l.Clouds[:0]
		for _, c := range l.Clouds {
			if c.Duration > turns {
				c.Duration -= turns
				kept = append(kept, c)
			}
		}
		l.Clouds = kept
	}
	l.ElapsedTime = now
}

func canSwim(p *player.Player) bool {
	return p.Airborne || p.Species == player.SpeciesMerfolk || p.Species == player.SpeciesOctopode
}

func standable(l *level.Level, c level.Coord, swim bool) bool {
	if !l.InBounds(c) {
		return false
	}
	f := l.At(c)
	return f.Habitable(swim) && !f.IsTrap() && (swim || !f.Dangerous())
}

// nearestFree scans rings of growing radius around from, starting at
// minRadius, for a standable cell with no monster on it other than the
// player's.
func nearestFree(l *level.Level, from level.Coord, minRadius int, swim bool, avoid level.Coord) (level.Coord, bool) {
	maxRadius := max(l.Width, l.Height)
	for r := minRadius; r <= maxRadius; r++ {
		for _, c := range from.Ring(r) {
			if c != avoid && standable(l, c, swim) && l.MonsterAt(c) == nil {
				return c, true
			}
		}
	}
	return level.Coord{}, false
}

func (m *Manager) placePlayer(l *level.Level, a arrival) {
	s := m.s
	p := s.Player
	swim := canSwim(p)

	pos, found := level.Coord{}, false
	switch {
	case p.Place.Branch == level.BranchAbyss:
		pos, found = l.Centre(), true
	case a.popped:
		pos, found = a.returnPos, true
	case a.feature != level.FeatFloor:
		if a.findFirst {
			pos, found = l.Nearest(a.feature, p.Pos)
		} else if cands := l.Find(a.feature); len(cands) > 0 {
			pos, found = cands[s.RNG.Random2(len(cands))], true
		}
	}
	if !found {
		if cands := l.Find(level.FeatFloor); len(cands) > 0 {
			pos = cands[s.RNG.Random2(len(cands))]
		} else {
			pos = l.Centre()
		}
	}
	if !standable(l, pos, swim) {
		if c, ok := nearestFree(l, pos, 0, swim, level.Coord{X: -1, Y: -1}); ok {
			pos = c
		}
	}

	if mon := l.MonsterAt(pos); mon != nil {
		if c, ok := nearestFree(l, pos, 1, false, pos); ok {
			mon.Pos = c
		} else {
			l.RemoveMonster(mon.MID)
			s.Logger.Debug("dismissed monster under arriving player", zap.String("monster", mon.DisplayName()))
		}
	}
	p.Pos = pos
}

// placeTransit puts followers and other monsters headed for l near the
// player.
func (m *Manager) placeTransit(l *level.Level) {
	s := m.s
	p := s.Player
	arriving := s.Transit[l.ID]
	delete(s.Transit, l.ID)
	for _, mon := range arriving {
		c, ok := nearestFree(l, p.Pos, 1, false, p.Pos)
		if !ok {
			s.Logger.Debug("monster lost in transit", zap.String("monster", mon.DisplayName()))
			continue
		}
		mon.Pos = c
		mon.Clear(level.FlagTakingStairs)
		l.AddMonster(mon)
	}
}

func (m *Manager) loadGhosts(ctx context.Context, l *level.Level) {
	s := m.s
	id := l.ID
	if s.Bones == nil || s.Mode.Seeded || s.Options.GhostChance <= 0 {
		return
	}
	if id.Branch == level.BranchAbyss || id.Branch.Info().NoGhosts ||
		id.Branch == level.BranchDungeon && id.Depth <= 2 {
		return
	}
	if !s.RNG.OneChanceIn(s.Options.GhostChance) {
		return
	}
	records, err := s.Bones.Load(ctx, id)
	if err != nil {
		s.Logger.Warn("load ghosts", zap.String("level", id.String()), zap.Error(err))
		return
	}
	placed := 0
	for _, r := range records {
		start := level.Coord{X: s.RNG.Random2(l.Width), Y: s.RNG.Random2(l.Height)}
		pos, ok := nearestFree(l, start, 0, false, s.Player.Pos)
		if !ok {
			break
		}
		l.AddMonster(ghost.ToMonster(r, pos))
		placed++
	}
	if placed > 0 {
		s.Logger.Debug("loaded ghosts", zap.String("level", id.String()), zap.Int("ghosts", placed))
	}
}
