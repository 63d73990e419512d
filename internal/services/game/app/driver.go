package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/louisbranch/undercroft/internal/services/game/damage"
	"github.com/louisbranch/undercroft/internal/services/game/domain/level"
	"github.com/louisbranch/undercroft/internal/services/game/domain/score"
	"github.com/louisbranch/undercroft/internal/services/game/domain/session"
)

// ErrUnknownCommand indicates a driver line that names no command.
var ErrUnknownCommand = errors.New("unknown command")

// errQuit stops the driver after a leaving save.
var errQuit = errors.New("quit")

// Play drives g from a script, one command per line. Blank lines and lines
// starting with # are skipped. Play stops at the end of the script, after
// quit, or when the game ends.
//
//	descend | climb          take the nearest down or up stairs
//	enter <branch>           take the entrance to a branch
//	exit                     take the exit of the current branch
//	hurt <damage> [method]   apply damage, method defaults to monster
//	kill                     slay the nearest monster
//	wait [turns]             pass turns
//	rest <turns>             rest until done or interrupted
//	note <text>              add a note
//	lua <source>             run a Lua statement
//	save | quit              save; quit also stops the driver
func Play(ctx context.Context, g *Game, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		err := g.run(ctx, line)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("line %d: %s: %w", lineNo, line, err)
		}
		if g.Over() {
			g.logger.Debug("game ended by script", zap.Int("line", lineNo))
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	return nil
}

func (g *Game) run(ctx context.Context, line string) error {
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	s := g.Session

	switch cmd {
	case "descend":
		_, err := g.Use(ctx, level.FeatStoneStairsDownI)
		return err
	case "climb":
		if s.Player.Place.Depth == 1 {
			_, err := g.Use(ctx, s.Player.Place.Branch.Info().Exit)
			return err
		}
		_, err := g.Use(ctx, level.FeatStoneStairsUpI)
		return err
	case "enter":
		b, ok := level.BranchByAbbrev(rest)
		if !ok {
			return fmt.Errorf("unknown branch %q", rest)
		}
		_, err := g.Use(ctx, b.Info().Entry)
		return err
	case "exit":
		_, err := g.Use(ctx, s.Player.Place.Branch.Info().Exit)
		return err
	case "hurt":
		req, err := parseHurt(rest)
		if err != nil {
			return err
		}
		res, err := g.Hurt(ctx, req)
		if err != nil {
			return err
		}
		g.logger.Debug("hurt", zap.String("outcome", res.Outcome.String()), zap.Int("damage", res.Damage))
		return nil
	case "kill":
		_, err := g.Kill()
		return err
	case "wait":
		n, err := optionalCount(rest)
		if err != nil {
			return err
		}
		for range n {
			g.EndTurn()
		}
		return nil
	case "rest":
		n, err := strconv.Atoi(rest)
		if err != nil {
			return fmt.Errorf("rest turns: %w", err)
		}
		g.Rest(n)
		return nil
	case "note":
		s.TakeNote(session.NoteMessage, 0, 0, rest)
		return nil
	case "lua":
		return g.Script.Run("driver", rest)
	case "save":
		return g.Save(ctx, false)
	case "quit":
		if err := g.Save(ctx, true); err != nil {
			return err
		}
		return errQuit
	}
	return fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
}

func parseHurt(args string) (damage.Request, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return damage.Request{}, fmt.Errorf("hurt needs an amount")
	}
	dam, err := strconv.Atoi(fields[0])
	if err != nil {
		return damage.Request{}, fmt.Errorf("hurt amount: %w", err)
	}
	req := damage.Request{Damage: dam, Method: score.KilledByMonster, SourceName: "an unseen horror"}
	if len(fields) > 1 {
		method, ok := score.ParseKillMethod(fields[1])
		if !ok {
			return damage.Request{}, fmt.Errorf("unknown kill method %q", fields[1])
		}
		req.Method = method
		req.SourceName = ""
	}
	return req, nil
}

func optionalCount(arg string) (int, error) {
	if arg == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("turn count %q", arg)
	}
	return n, nil
}
