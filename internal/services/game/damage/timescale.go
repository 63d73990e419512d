package damage

import (
	"github.com/louisbranch/undercroft/internal/random"
	"github.com/louisbranch/undercroft/internal/services/game/domain/level"
	"github.com/louisbranch/undercroft/internal/services/game/domain/player"
)

// TimescalePlayer scales per-turn damage by how long the player's last
// action took.
func TimescalePlayer(rng *random.RNG, p *player.Player, dam int) int {
	if dam < 0 {
		dam = 0
	}
	return rng.DivRandRound(dam*p.TimeTaken, player.BaselineDelay)
}

// TimescaleMonster scales per-turn damage by a monster's speed.
func TimescaleMonster(rng *random.RNG, m *level.Monster, dam int) int {
	if dam < 0 {
		dam = 0
	}
	speed := m.Speed
	if speed <= 0 {
		speed = player.BaselineDelay
	}
	return rng.DivRandRound(dam*player.BaselineDelay, speed)
}
