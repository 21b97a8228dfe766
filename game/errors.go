package game

import "errors"

var (
	ErrInvalidLocation    = errors.New("location is not on the board")
	ErrNotOwner           = errors.New("territory is owned by another player")
	ErrTerritoryFull      = errors.New("territory cannot hold more armies")
	ErrNotAdjacent        = errors.New("territories are not adjacent")
	ErrInsufficientArmies = errors.New("not enough armies")
	ErrOwnTerritory       = errors.New("target territory is owned by the attacker")
	ErrIllegalTransition  = errors.New("illegal phase transition")
)
