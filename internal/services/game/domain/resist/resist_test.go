package resist

import (
	"errors"
	"reflect"
	"testing"

	"github.com/louisbranch/undercroft/internal/random"
	"github.com/louisbranch/undercroft/internal/services/game/domain/player"
)

func TestAdjust(t *testing.T) {
	tests := []struct {
		name    string
		def     Defenses
		dam     int
		flavour Flavour
		want    int
	}{
		{"unresisted fire", Defenses{}, 15, FlavourFire, 15},
		{"fire 1", Defenses{Resists: player.Resists{Fire: 1}}, 20, FlavourFire, 10},
		{"fire 2", Defenses{Resists: player.Resists{Fire: 2}}, 20, FlavourFire, 4},
		{"fire 3 is not immunity", Defenses{Resists: player.Resists{Fire: 3}}, 20, FlavourFire, 2},
		{"fire 4 is immunity", Defenses{Resists: player.Resists{Fire: 4}}, 20, FlavourFire, 0},
		{"fire vulnerable", Defenses{Resists: player.Resists{Fire: -1}}, 20, FlavourFire, 30},
		{"poison 1", Defenses{Resists: player.Resists{Poison: 1}}, 20, FlavourPoison, 10},
		{"poison 3 immune", Defenses{Resists: player.Resists{Poison: 3}}, 20, FlavourPoison, 0},
		{"negative 3 immune", Defenses{Resists: player.Resists{Neg: 3}}, 20, FlavourNegative, 0},
		{"ice half resistible", Defenses{Resists: player.Resists{Cold: 1}}, 20, FlavourIce, 15},
		{"lava mostly resistible", Defenses{Resists: player.Resists{Fire: 1}}, 20, FlavourLava, 14},
		{"poison arrow", Defenses{Resists: player.Resists{Poison: 1}}, 20, FlavourPoisonArrow, 13},
		{"steam through fire", Defenses{Resists: player.Resists{Fire: 1}}, 20, FlavourSteam, 10},
		{"wrong element", Defenses{Resists: player.Resists{Fire: 3}}, 20, FlavourCold, 20},
		{"damnation ignores resists", Defenses{Resists: player.Resists{Fire: 3}}, 20, FlavourDamnation, 20},
		{"air grounded", Defenses{}, 20, FlavourAir, 20},
		{"air airborne", Defenses{Airborne: true}, 20, FlavourAir, 30},
		{"air wind resistant", Defenses{Airborne: true, Resists: player.Resists{Wind: true}}, 20, FlavourAir, 0},
		{"miasma rot resistant", Defenses{Resists: player.Resists{Rot: true}}, 20, FlavourMiasma, 0},
		{"holy vulnerable", Defenses{Resists: player.Resists{Holy: -1}}, 10, FlavourHoly, 15},
		{"zero damage", Defenses{Resists: player.Resists{Fire: -1}}, 0, FlavourFire, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Adjust(tt.def, tt.dam, tt.flavour); got != tt.want {
				t.Fatalf("Adjust = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestApplyMatchesPreviewDamage(t *testing.T) {
	beam := &Beam{Source: "an adder", Name: "bite", DiceNum: 1, DiceSize: 3}
	for f := FlavourPhysical; f < flavourCount; f++ {
		p := player.New("a", player.SpeciesHuman)
		p.Resists = player.Resists{Fire: 1, Cold: -1, Poison: 1, Neg: 1, Holy: -1}
		want := Adjust(DefensesOf(p), 24, f)
		rep, err := Apply(p, random.New(7), 24, f, "", beam)
		if err != nil {
			t.Fatalf("%v: Apply: %v", f, err)
		}
		if rep.Damage != want {
			t.Fatalf("%v: applied damage = %d, preview %d", f, rep.Damage, want)
		}
	}
}

func TestAdjustDoesNotTouchPlayer(t *testing.T) {
	p := player.New("a", player.SpeciesHuman)
	p.Mutations[player.MutIcemail] = 1
	p.Durations[player.DurIcyArmour] = 40
	before := *p
	before.Durations = map[player.Duration]int{player.DurIcyArmour: 40}
	Adjust(DefensesOf(p), 30, FlavourFire)
	if !reflect.DeepEqual(p.Durations, before.Durations) || p.MeltArmour {
		t.Fatalf("preview changed the player: %v", p.Durations)
	}
}

func TestApplyFireVulnerability(t *testing.T) {
	p := player.New("a", player.SpeciesHuman)
	p.Resists.Fire = -1
	rep, err := Apply(p, random.New(1), 10, FlavourFire, "a hell hound", nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if rep.Damage != 15 || rep.XomStimulus != 200 {
		t.Fatalf("damage %d xom %d, want 15 200", rep.Damage, rep.XomStimulus)
	}
	if want := []string{"The fire burns you terribly!"}; !reflect.DeepEqual(rep.Messages, want) {
		t.Fatalf("messages = %q, want %q", rep.Messages, want)
	}
}

func TestApplyMeltsIcyEnchantments(t *testing.T) {
	tests := []struct {
		name       string
		armour     int
		dam        int
		wantArmour int
		wantMelt   bool
		wantGone   bool
	}{
		{"partial melt", 200, 5, 150, true, false},
		{"melted away", 50, 10, 0, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := player.New("a", player.SpeciesHuman)
			p.Mutations[player.MutIcemail] = 1
			p.Durations[player.DurIcyArmour] = tt.armour
			rep, err := Apply(p, random.New(1), tt.dam, FlavourLava, "", nil)
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if got := p.Duration(player.DurIcyArmour); got != tt.wantArmour {
				t.Fatalf("icy armour = %d, want %d", got, tt.wantArmour)
			}
			if p.MeltArmour != tt.wantMelt || rep.IcyArmourMelted != tt.wantGone {
				t.Fatalf("melt %v gone %v, want %v %v", p.MeltArmour, rep.IcyArmourMelted, tt.wantMelt, tt.wantGone)
			}
			if got := p.Duration(player.DurIcemailDepleted); got != player.IcemailTime {
				t.Fatalf("icemail depleted = %d, want %d", got, player.IcemailTime)
			}
			if rep.Messages[0] != "Your icy envelope dissipates!" {
				t.Fatalf("first message = %q", rep.Messages[0])
			}
		})
	}
}

func TestApplyPoison(t *testing.T) {
	beam := &Beam{Source: "a kobold", Name: "poisoned dart", DiceNum: 3, DiceSize: 6}
	tests := []struct {
		name         string
		flavour      Flavour
		res          int
		wantDamage   int
		wantPoisoned int
		wantLast     string
	}{
		// 18/3 = 6, range [4, 8] at its maximum: 3+8.
		{"unresisted", FlavourPoison, 0, 20, 11, "You are poisoned."},
		{"resisted", FlavourPoison, 1, 10, 0, "You resist."},
		{"arrow forces half", FlavourPoisonArrow, 1, 13, 5, "You partially resist."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := player.New("a", player.SpeciesHuman)
			p.Resists.Poison = tt.res
			rep, err := Apply(p, random.FromIntner(random.Highest{}), 20, tt.flavour, "", beam)
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if rep.Damage != tt.wantDamage || rep.Poisoned != tt.wantPoisoned || p.Poison != tt.wantPoisoned {
				t.Fatalf("damage %d poisoned %d (player %d), want %d %d", rep.Damage, rep.Poisoned, p.Poison, tt.wantDamage, tt.wantPoisoned)
			}
			if last := rep.Messages[len(rep.Messages)-1]; last != tt.wantLast {
				t.Fatalf("last message = %q, want %q", last, tt.wantLast)
			}
			if rep.PoisonSource != "a kobold" || rep.PoisonAux != "poisoned dart" {
				t.Fatalf("poison source = %q/%q", rep.PoisonSource, rep.PoisonAux)
			}
		})
	}
}

func TestApplyPoisonNeedsBeam(t *testing.T) {
	p := player.New("a", player.SpeciesHuman)
	if _, err := Apply(p, random.New(1), 5, FlavourPoison, "", nil); !errors.Is(err, ErrMissingBeam) {
		t.Fatalf("err = %v, want ErrMissingBeam", err)
	}
}

func TestApplyNegativeEnergyDrains(t *testing.T) {
	p := player.New("a", player.SpeciesHuman)
	rep, err := Apply(p, random.New(1), 60, FlavourNegative, "", nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !rep.Drained || rep.Drain != player.DrainFull || p.XPDrain != maxDrainPower {
		t.Fatalf("drain %v/%v xp drain %d, want full %d", rep.Drained, rep.Drain, p.XPDrain, maxDrainPower)
	}
}

func TestExpose(t *testing.T) {
	p := player.New("a", player.SpeciesDraconian)
	p.Mutations[player.MutColdBlooded] = 1
	rep := Expose(p, random.FromIntner(random.NewSequence(0)), FlavourCold, 12, true)
	if !rep.Slowed || p.Duration(player.DurSlow) != 12 {
		t.Fatalf("slowed %v duration %d, want true 12", rep.Slowed, p.Duration(player.DurSlow))
	}

	p.Resists.Cold = 1
	if rep := Expose(p, random.FromIntner(random.NewSequence(0)), FlavourCold, 12, true); rep.Slowed {
		t.Fatal("cold resistant player was slowed")
	}

	p.Durations[player.DurLiquidFlames] = 30
	rep = Expose(p, random.New(1), FlavourWater, 5, false)
	if !rep.FlamesDoused || p.Duration(player.DurLiquidFlames) != 0 {
		t.Fatalf("flames doused %v remaining %d", rep.FlamesDoused, p.Duration(player.DurLiquidFlames))
	}
}

func TestParseFlavour(t *testing.T) {
	if f, ok := ParseFlavour(" Poison Arrow "); !ok || f != FlavourPoisonArrow {
		t.Fatalf("ParseFlavour = %v %v", f, ok)
	}
	if _, ok := ParseFlavour("plasma"); ok {
		t.Fatal("unknown flavour parsed")
	}
}
