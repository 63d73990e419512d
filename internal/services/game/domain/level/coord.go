package level

// Coord is a map position. The zero value doubles as "no position".
type Coord struct {
	X, Y int
}

// Origin reports whether c is the unset position.
func (c Coord) Origin() bool { return c.X == 0 && c.Y == 0 }

func (c Coord) Add(d Coord) Coord { return Coord{c.X + d.X, c.Y + d.Y} }

// Distance is the Chebyshev distance, the number of king moves between
// two cells.
func (c Coord) Distance(o Coord) int {
	dx, dy := abs(c.X-o.X), abs(c.Y-o.Y)
	if dx > dy {
		return dx
	}
	return dy
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

var neighbourOffsets = [8]Coord{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// Adjacent returns the eight neighbours of c, without bounds checks.
func (c Coord) Adjacent() []Coord {
	out := make([]Coord, 0, len(neighbourOffsets))
	for _, d := range neighbourOffsets {
		out = append(out, c.Add(d))
	}
	return out
}

// Ring returns the cells at exactly Chebyshev distance r from c in a
// stable scan order. Ring(0) is c itself.
func (c Coord) Ring(r int) []Coord {
	if r <= 0 {
		return []Coord{c}
	}
	out := make([]Coord, 0, 8*r)
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if abs(dx) != r && abs(dy) != r {
				continue
			}
			out = append(out, Coord{c.X + dx, c.Y + dy})
		}
	}
	return out
}
