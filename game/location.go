package game

import "fmt"

// Location identifies a territory by its grid coordinates.
type Location struct {
	Row    int `json:"row"`
	Column int `json:"column"`
}

func (l Location) String() string {
	return fmt.Sprintf("(%d, %d)", l.Row, l.Column)
}

// IsAdjacent reports whether two locations touch, diagonals included.
// A location is not adjacent to itself.
func (l Location) IsAdjacent(other Location) bool {
	if l == other {
		return false
	}
	return abs(l.Row-other.Row) <= 1 && abs(l.Column-other.Column) <= 1
}

// neighbors lists the up to eight surrounding locations, without bounds checks.
func (l Location) neighbors() []Location {
	out := make([]Location, 0, 8)
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			out = append(out, Location{Row: l.Row + dr, Column: l.Column + dc})
		}
	}
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
