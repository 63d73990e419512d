// Package player holds the player's persistent state and the small rules
// that mutate it directly: durations, hit and magic points, draining.
package player

import (
	"time"

	"github.com/google/uuid"

	"github.com/louisbranch/undercroft/internal/random"
	"github.com/louisbranch/undercroft/internal/services/game/domain/level"
)

// Rules constants.
const (
	BaselineDelay = 10
	MaxXL         = 27
	// IcemailTime is how long icemail stays depleted after fire.
	IcemailTime = 300
	hpPerLevel  = 5
	mpPerLevel  = 2
)

// Player is the complete persistent player state.
type Player struct {
	Name    string
	GameID  uuid.UUID
	Species Species
	Job     string

	XL         int
	Experience int
	HP         int
	HPMax      int
	MP         int
	MPMax      int
	Stats      [statCount]int

	Place level.ID
	Pos   level.Coord
	Stack level.Stack

	Religion    God
	Piety       int
	Penance     int
	GiftTimeout int

	Mutations map[Mutation]int
	Durations map[Duration]int
	Form      Form
	Resists   Resists
	Artefacts Artefacts
	Airborne  bool
	Asleep    bool

	Poison    int
	XPDrain   int
	Corrosion int
	// MeltArmour is set while icy armour is partially melted.
	MeltArmour bool

	TurnDamage   int
	DamageSource level.MID
	SourceDamage int

	Lives          int
	Deaths         int
	PendingRevival bool

	PlaceInfo [level.BranchCount]level.PlaceInfo
	Global    level.PlaceInfo

	TimeTaken   int
	ElapsedTime int
	Turns       int
	StartTime   time.Time

	Wizard  bool
	Explore bool

	// Uniques records uniques that have been generated and must not
	// appear again.
	Uniques map[string]bool
}

// New creates a level 1 character standing nowhere.
func New(name string, species Species) *Player {
	p := &Player{
		Name:      name,
		GameID:    uuid.New(),
		Species:   species,
		Job:       "Fighter",
		XL:        1,
		Place:     level.Unset,
		Mutations: map[Mutation]int{},
		Durations: map[Duration]int{},
		Uniques:   map[string]bool{},
		Global:    level.PlaceInfo{Global: true},
		TimeTaken: BaselineDelay,
		StartTime: time.Now().UTC().Truncate(time.Second),
	}
	for b := range p.PlaceInfo {
		p.PlaceInfo[b].Branch = level.Branch(b)
	}
	p.Stats = [statCount]int{10, 10, 10}
	p.CalcHP()
	p.CalcMP()
	p.HP = p.HPMax
	p.MP = p.MPMax
	return p
}

// CalcHP recomputes maximum hit points from experience level, keeping HP
// at or below the new maximum.
func (p *Player) CalcHP() {
	p.HPMax = 10 + hpPerLevel*p.XL
	if p.HP > p.HPMax {
		p.HP = p.HPMax
	}
}

// CalcMP recomputes maximum magic points.
func (p *Player) CalcMP() {
	p.MPMax = 1 + mpPerLevel*p.XL
	if p.MP > p.MPMax {
		p.MP = p.MPMax
	}
}

// Dead reports whether hit points are exhausted.
func (p *Player) Dead() bool { return p.HP <= 0 }

// HPPercent is current HP as a percentage of maximum, or 0 when HPMax is
// not positive.
func (p *Player) HPPercent() int {
	if p.HPMax <= 0 {
		return 0
	}
	return p.HP * 100 / p.HPMax
}

// DecHP lowers HP. HP may go negative; death handling reads the overkill.
func (p *Player) DecHP(dam int) { p.HP -= dam }

// SetHP sets HP clamped to the maximum.
func (p *Player) SetHP(hp int) {
	if hp > p.HPMax {
		hp = p.HPMax
	}
	p.HP = hp
}

// DecMP lowers MP, never below zero.
func (p *Player) DecMP(mp int) {
	p.MP -= mp
	if p.MP < 0 {
		p.MP = 0
	}
}

// IncMP raises MP, never above the maximum.
func (p *Player) IncMP(mp int) {
	p.MP += mp
	if p.MP > p.MPMax {
		p.MP = p.MPMax
	}
}

// Mutation returns the level of m.
func (p *Player) Mutation(m Mutation) int { return p.Mutations[m] }

// Duration returns the remaining time of d.
func (p *Player) Duration(d Duration) int { return p.Durations[d] }

// IncreaseDuration adds amount to d, capped at limit when limit is
// positive.
func (p *Player) IncreaseDuration(d Duration, amount, limit int) {
	v := p.Durations[d] + amount
	if limit > 0 && v > limit {
		v = limit
	}
	p.Durations[d] = v
}

// SetDuration overwrites d; zero clears it.
func (p *Player) SetDuration(d Duration, v int) {
	if v <= 0 {
		delete(p.Durations, d)
		return
	}
	p.Durations[d] = v
}

func (p *Player) Petrified() bool  { return p.Durations[DurPetrified] > 0 }
func (p *Player) Petrifying() bool { return p.Durations[DurPetrifying] > 0 }

// SpiritShield reports whether damage is partly absorbed by magic points.
func (p *Player) SpiritShield() bool { return p.Artefacts.SpiritShield }

// Worships reports whether the player follows g.
func (p *Player) Worships(g God) bool { return p.Religion == g }

// CanShaveDamage reports the innate flat damage reduction trait.
func (p *Player) CanShaveDamage() bool { return p.Species == SpeciesDeepDwarf }

// ShaveDamage applies the innate reduction: 1+random2(2+random2(1+xl/3)).
func (p *Player) ShaveDamage(rng *random.RNG, dam int) int {
	if !p.CanShaveDamage() {
		return dam
	}
	shave := 1 + rng.Random2(2+rng.Random2(1+p.XL/3))
	return dam - shave
}

// CheckAwaken wakes a sleeping player.
func (p *Player) CheckAwaken() bool {
	if !p.Asleep {
		return false
	}
	p.Asleep = false
	return true
}

// CurrentPlaceInfo returns the statistics for the current branch.
func (p *Player) CurrentPlaceInfo() *level.PlaceInfo {
	return p.BranchPlaceInfo(p.Place.Branch)
}

// BranchPlaceInfo returns the statistics for b.
func (p *Player) BranchPlaceInfo(b level.Branch) *level.PlaceInfo {
	if !b.Valid() {
		return &p.Global
	}
	return &p.PlaceInfo[b]
}

// DrainOutcome reports the result of a drain attempt.
type DrainOutcome int

const (
	DrainResisted DrainOutcome = iota
	DrainPartial
	DrainFull
	DrainNone
)

// Drain applies power points of experience drain. Protection 3 resists
// fully; lower protection divides power by twice its level.
func (p *Player) Drain(power int, ignoreProtection bool) DrainOutcome {
	protection := 0
	if !ignoreProtection {
		protection = p.Resists.Neg
	}
	if protection >= 3 {
		return DrainResisted
	}
	outcome := DrainFull
	if protection > 0 {
		outcome = DrainPartial
		power /= protection * 2
	}
	if power <= 0 {
		return DrainNone
	}
	p.XPDrain += power
	return outcome
}

// LoseStat lowers one random stat by amount, never below zero.
func (p *Player) LoseStat(rng *random.RNG, amount int) Stat {
	s := Stat(rng.Random2(int(statCount)))
	p.Stats[s] -= amount
	if p.Stats[s] < 0 {
		p.Stats[s] = 0
	}
	return s
}

// ResetDamageCounters clears the per-turn damage tracking.
func (p *Player) ResetDamageCounters() {
	p.TurnDamage = 0
	p.DamageSource = level.MIDNobody
	p.SourceDamage = 0
}

// RecordDamage adds dam to the turn counter and to the per-source counter,
// restarting the latter when the source changes.
func (p *Player) RecordDamage(dam int, source level.MID) {
	p.TurnDamage += dam
	if p.DamageSource != source {
		p.DamageSource = source
		p.SourceDamage = 0
	}
	p.SourceDamage += dam
}

// RestoreLife brings a wizard-mode character back from death.
func (p *Player) RestoreLife() {
	if p.HPMax <= 0 {
		p.CalcHP()
	}
	for p.HPMax <= 0 {
		p.XL++
		p.CalcHP()
	}
	if p.HP <= 0 {
		p.HP = p.HPMax
	}
}

// Revive completes a pending revival.
func (p *Player) Revive() {
	if !p.PendingRevival {
		return
	}
	p.PendingRevival = false
	p.HP = p.HPMax
	p.MP = p.MPMax
	p.Durations = map[Duration]int{}
	p.Poison = 0
	p.ResetDamageCounters()
}
