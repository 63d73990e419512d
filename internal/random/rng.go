package random

import "math/rand/v2"

// Intner is the minimal draw primitive. IntN returns a value in [0, n).
type Intner interface {
	IntN(n int) int
}

// RNG wraps an Intner with the helpers game rules use.
type RNG struct {
	src  Intner
	seed uint64
}

// New returns a deterministic RNG seeded with seed.
func New(seed uint64) *RNG {
	return &RNG{
		src:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		seed: seed,
	}
}

// FromIntner wraps an arbitrary source, typically a scripted one in tests.
func FromIntner(src Intner) *RNG {
	return &RNG{src: src}
}

// Seed reports the seed New was called with, or zero for wrapped sources.
func (r *RNG) Seed() uint64 {
	return r.seed
}

// Random2 returns a value in [0, max). Non-positive max yields 0 without
// consuming a draw.
func (r *RNG) Random2(max int) int {
	if max <= 1 {
		return 0
	}
	return r.src.IntN(max)
}

// RandomRange returns a value in [low, high] inclusive.
func (r *RNG) RandomRange(low, high int) int {
	if high < low {
		low, high = high, low
	}
	return low + r.Random2(high-low+1)
}

// Coinflip is a fair boolean.
func (r *RNG) Coinflip() bool {
	return r.Random2(2) == 0
}

// OneChanceIn is true with probability 1/n.
func (r *RNG) OneChanceIn(n int) bool {
	return r.Random2(n) == 0
}

// XChanceInY is true with probability x/y, clamped to [0, 1].
func (r *RNG) XChanceInY(x, y int) bool {
	if x <= 0 {
		return false
	}
	if x >= y {
		return true
	}
	return r.Random2(y) < x
}

// DivRandRound divides num by den and rounds the remainder up with
// probability remainder/den.
func (r *RNG) DivRandRound(num, den int) int {
	if den <= 0 {
		return num
	}
	neg := num < 0
	if neg {
		num = -num
	}
	q := num / den
	if rem := num % den; rem != 0 && r.Random2(den) < rem {
		q++
	}
	if neg {
		return -q
	}
	return q
}

// Sequence is a scripted Intner: each draw returns the next value modulo n,
// cycling when exhausted. An empty Sequence always draws 0.
type Sequence struct {
	values []int
	next   int
}

// NewSequence builds a scripted source.
func NewSequence(values ...int) *Sequence {
	return &Sequence{values: values}
}

// IntN implements Intner.
func (s *Sequence) IntN(n int) int {
	if len(s.values) == 0 || n <= 0 {
		return 0
	}
	v := s.values[s.next%len(s.values)]
	s.next++
	if v < 0 {
		v = -v
	}
	return v % n
}

// Draws reports how many values have been consumed.
func (s *Sequence) Draws() int {
	return s.next
}

// Highest always draws n-1, the worst case for the player in most rules.
type Highest struct{}

// IntN implements Intner.
func (Highest) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return n - 1
}

// Binomial counts successes in n trials that each succeed with pct
// percent chance.
func (r *RNG) Binomial(n, pct int) int {
	hits := 0
	for i := 0; i < n; i++ {
		if r.XChanceInY(pct, 100) {
			hits++
		}
	}
	return hits
}
