package level

import "fmt"

// PlaceInfo accumulates statistics for one branch, or for the whole game
// when Global is set. Counters only grow.
type PlaceInfo struct {
	Branch Branch
	Global bool

	NumVisits  int
	LevelsSeen int

	TurnsTotal      int
	TurnsExplore    int
	TurnsTravel     int
	TurnsInterlevel int
	TurnsResting    int
	TurnsOther      int

	MonKills [KillCategories]int
}

// Kill categories tracked per place.
const (
	KillsByYou = iota
	KillsByFriends
	KillsOther
	KillCategories
)

// Add applies delta in place.
func (p *PlaceInfo) Add(delta PlaceInfo) {
	p.NumVisits += delta.NumVisits
	p.LevelsSeen += delta.LevelsSeen
	p.TurnsTotal += delta.TurnsTotal
	p.TurnsExplore += delta.TurnsExplore
	p.TurnsTravel += delta.TurnsTravel
	p.TurnsInterlevel += delta.TurnsInterlevel
	p.TurnsResting += delta.TurnsResting
	p.TurnsOther += delta.TurnsOther
	for i := range p.MonKills {
		p.MonKills[i] += delta.MonKills[i]
	}
}

// Validate rejects negative counters, which indicate a bad delta.
func (p PlaceInfo) Validate() error {
	counters := []int{p.NumVisits, p.LevelsSeen, p.TurnsTotal, p.TurnsExplore,
		p.TurnsTravel, p.TurnsInterlevel, p.TurnsResting, p.TurnsOther}
	counters = append(counters, p.MonKills[:]...)
	for _, c := range counters {
		if c < 0 {
			return fmt.Errorf("place info for %s has negative counter %d", p.name(), c)
		}
	}
	return nil
}

func (p PlaceInfo) name() string {
	if p.Global {
		return "global"
	}
	return p.Branch.String()
}
