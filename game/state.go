package game

import (
	"encoding/binary"
	"fmt"

	"github.com/zeebo/blake3"
)

// StateHash fingerprints the board contents.
type StateHash [32]byte

func (h StateHash) String() string {
	return fmt.Sprintf("%x", h[:8])
}

// Board is the grid of territories. Adjacency is derived from locations and
// never stored.
type Board struct {
	Height      int
	Width       int
	territories []Territory
	index       map[Location]int
}

// NewBoard creates a height x width board of unowned, empty territories in
// row-major order.
func NewBoard(height, width int) *Board {
	b := &Board{
		Height:      height,
		Width:       width,
		territories: make([]Territory, 0, height*width),
		index:       make(map[Location]int, height*width),
	}
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			loc := Location{Row: row, Column: col}
			b.index[loc] = len(b.territories)
			b.territories = append(b.territories, Territory{Location: loc})
		}
	}
	return b
}

// Copy returns a deep copy of the board.
func (b *Board) Copy() *Board {
	territories := make([]Territory, len(b.territories))
	copy(territories, b.territories)

	// the index is never mutated after construction
	return &Board{
		Height:      b.Height,
		Width:       b.Width,
		territories: territories,
		index:       b.index,
	}
}

// Territories returns a copy of all territories in row-major order.
func (b *Board) Territories() []Territory {
	out := make([]Territory, len(b.territories))
	copy(out, b.territories)
	return out
}

func (b *Board) Territory(loc Location) (Territory, bool) {
	i, ok := b.index[loc]
	if !ok {
		return Territory{}, false
	}
	return b.territories[i], true
}

// Neighbors returns the on-board locations adjacent to loc.
func (b *Board) Neighbors(loc Location) []Location {
	var out []Location
	for _, n := range loc.neighbors() {
		if _, ok := b.index[n]; ok {
			out = append(out, n)
		}
	}
	return out
}

func (b *Board) TotalArmies() int {
	total := 0
	for _, t := range b.territories {
		total += t.Armies
	}
	return total
}

// Armies counts the armies placed by owner across the board.
func (b *Board) Armies(owner string) int {
	total := 0
	for _, t := range b.territories {
		if t.Owner == owner && owner != "" {
			total += t.Armies
		}
	}
	return total
}

// TerritoryCount counts the territories held by owner.
func (b *Board) TerritoryCount(owner string) int {
	count := 0
	for _, t := range b.territories {
		if t.Owner == owner && owner != "" {
			count++
		}
	}
	return count
}

// PlaceArmy puts one army of owner on loc. The territory must be unowned or
// already held by owner; maxArmies caps a territory when positive.
func (b *Board) PlaceArmy(owner string, loc Location, maxArmies int) error {
	i, ok := b.index[loc]
	if !ok {
		return fmt.Errorf("cannot deploy to %s: %w", loc, ErrInvalidLocation)
	}
	t := &b.territories[i]
	if !t.IsUnowned() && t.Owner != owner {
		return fmt.Errorf("cannot deploy to %s: %w", loc, ErrNotOwner)
	}
	if maxArmies > 0 && t.Armies >= maxArmies {
		return fmt.Errorf("cannot deploy to %s: %w", loc, ErrTerritoryFull)
	}
	t.Owner = owner
	t.Armies++
	return nil
}

// Release resets every territory held by owner to unowned with zero armies
// and returns how many territories were freed.
func (b *Board) Release(owner string) int {
	freed := 0
	for i := range b.territories {
		if b.territories[i].Owner == owner && owner != "" {
			b.territories[i].Owner = ""
			b.territories[i].Armies = 0
			freed++
		}
	}
	return freed
}

// CanAttack reports whether owner holds a territory with at least two armies
// next to a territory it does not own that has at least one army.
func (b *Board) CanAttack(owner string) bool {
	for _, t := range b.territories {
		if t.Owner != owner || t.Armies < 2 {
			continue
		}
		for _, n := range b.Neighbors(t.Location) {
			target := b.territories[b.index[n]]
			if target.Owner != owner && target.Armies >= 1 {
				return true
			}
		}
	}
	return false
}

// ValidateAttack checks an attack from one location to another on behalf of
// owner without changing the board.
func (b *Board) ValidateAttack(owner string, from, to Location) error {
	fi, ok := b.index[from]
	if !ok {
		return fmt.Errorf("cannot attack from %s: %w", from, ErrInvalidLocation)
	}
	ti, ok := b.index[to]
	if !ok {
		return fmt.Errorf("cannot attack %s: %w", to, ErrInvalidLocation)
	}
	attacker, defender := b.territories[fi], b.territories[ti]
	if attacker.Owner != owner {
		return fmt.Errorf("cannot attack from %s: %w", from, ErrNotOwner)
	}
	if defender.Owner == owner {
		return fmt.Errorf("cannot attack %s: %w", to, ErrOwnTerritory)
	}
	if !from.IsAdjacent(to) {
		return fmt.Errorf("cannot attack from %s to %s: %w", from, to, ErrNotAdjacent)
	}
	if attacker.Armies < 2 {
		return fmt.Errorf("cannot attack from %s with %d armies: %w", from, attacker.Armies, ErrInsufficientArmies)
	}
	if defender.Armies < 1 {
		return fmt.Errorf("cannot attack empty territory %s: %w", to, ErrInsufficientArmies)
	}
	return nil
}

// AttackResult is the outcome of one round of combat.
type AttackResult struct {
	AttackerLosses int
	DefenderLosses int
	Conquered      bool
	// CanContinue is set when the same pair may fight another round.
	CanContinue bool
}

// Attack validates and resolves one round of combat between from and to.
// The losses come from rules; the board only applies them. On conquest all
// but one army moves into the captured territory.
func (b *Board) Attack(owner string, from, to Location, rules Rules) (AttackResult, error) {
	if err := b.ValidateAttack(owner, from, to); err != nil {
		return AttackResult{}, err
	}
	attacker := &b.territories[b.index[from]]
	defender := &b.territories[b.index[to]]

	attackerLosses, defenderLosses := rules.Battle(attacker.Armies-1, defender.Armies)
	// Must leave at least one troop behind
	attackerLosses = clamp(attackerLosses, 0, attacker.Armies-1)
	defenderLosses = clamp(defenderLosses, 0, defender.Armies)

	attacker.Armies -= attackerLosses
	defender.Armies -= defenderLosses

	result := AttackResult{
		AttackerLosses: attackerLosses,
		DefenderLosses: defenderLosses,
	}
	if defender.Armies == 0 {
		moved := attacker.Armies - 1
		attacker.Armies -= moved
		defender.Armies = moved
		defender.Owner = owner
		if moved == 0 {
			defender.Owner = ""
		}
		result.Conquered = true
		return result, nil
	}
	result.CanContinue = attacker.Armies >= 2
	return result, nil
}

// Hash returns a blake3 digest over every territory's location, owner and armies.
func (b *Board) Hash() StateHash {
	hasher := blake3.New()
	var buf [8]byte
	for _, t := range b.territories {
		for _, v := range []int{t.Location.Row, t.Location.Column, t.Armies, len(t.Owner)} {
			binary.LittleEndian.PutUint64(buf[:], uint64(v))
			hasher.Write(buf[:])
		}
		hasher.Write([]byte(t.Owner))
	}
	var h StateHash
	copy(h[:], hasher.Sum(nil))
	return h
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
