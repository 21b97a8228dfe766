package game

import "fmt"

// Territory is a single cell of the board. Owner holds the owning player's
// token and is empty while the territory is unclaimed.
type Territory struct {
	Location Location
	Owner    string
	Armies   int
}

func (t Territory) IsUnowned() bool {
	return t.Owner == ""
}

func (t Territory) String() string {
	owner := t.Owner
	if owner == "" {
		owner = "(Unoccupied)"
	}
	return fmt.Sprintf("%s: %d of %s", t.Location, t.Armies, owner)
}
