// Package protocol holds the messages exchanged between the game server and
// the agents, and the views the server exposes to its own callers.
package protocol

import (
	"errors"
	"fmt"
	"slices"

	"riskserver/game"
)

var (
	// ErrAgentUnreachable covers transport failures, non-success replies and
	// expired call deadlines.
	ErrAgentUnreachable = errors.New("agent unreachable")
	// ErrProtocolViolation covers replies that cannot be decoded or lack
	// required fields.
	ErrProtocolViolation = errors.New("agent protocol violation")
)

type DeploymentStatus string

const (
	YourTurn              DeploymentStatus = "YourTurn"
	PreviousAttemptFailed DeploymentStatus = "PreviousAttemptFailed"
)

type BeginAttackStatus string

const (
	Normal                      BeginAttackStatus = "Normal"
	PreviousAttackRequestFailed BeginAttackStatus = "PreviousAttackRequestFailed"
)

// BoardTerritory is the wire form of a territory. OwnerName is empty for
// unowned territories. Names need not be unique, so boards sent to an agent
// also set Yours on the territories that agent holds.
type BoardTerritory struct {
	Location  game.Location `json:"location"`
	OwnerName string        `json:"ownerName,omitempty"`
	Armies    int           `json:"armies"`
	Yours     bool          `json:"yours,omitempty"`
}

// NewBoard converts a board to its wire form, resolving owner tokens to
// player names through nameOf.
func NewBoard(b *game.Board, nameOf func(token string) string) []BoardTerritory {
	territories := b.Territories()
	out := make([]BoardTerritory, len(territories))
	for i, t := range territories {
		out[i] = NewBoardTerritory(t, nameOf)
	}
	return out
}

// NewBoardFor is NewBoard as seen by the player holding token.
func NewBoardFor(b *game.Board, nameOf func(token string) string, token string) []BoardTerritory {
	out := NewBoard(b, nameOf)
	for i, t := range b.Territories() {
		out[i].Yours = !t.IsUnowned() && t.Owner == token
	}
	return out
}

func NewBoardTerritory(t game.Territory, nameOf func(token string) string) BoardTerritory {
	bt := BoardTerritory{Location: t.Location, Armies: t.Armies}
	if !t.IsUnowned() {
		bt.OwnerName = nameOf(t.Owner)
	}
	return bt
}

type DeployArmyRequest struct {
	Board           []BoardTerritory `json:"board"`
	Status          DeploymentStatus `json:"status"`
	ArmiesRemaining int              `json:"armiesRemaining"`
}

type DeployArmyResponse struct {
	DesiredLocation *game.Location `json:"desiredLocation"`
}

func (r DeployArmyResponse) Validate() error {
	if r.DesiredLocation == nil {
		return fmt.Errorf("deploy response without desiredLocation: %w", ErrProtocolViolation)
	}
	return nil
}

type BeginAttackRequest struct {
	Board  []BoardTerritory  `json:"board"`
	Status BeginAttackStatus `json:"status"`
}

type BeginAttackResponse struct {
	From *game.Location `json:"from"`
	To   *game.Location `json:"to"`
}

func (r BeginAttackResponse) Validate() error {
	if r.From == nil || r.To == nil {
		return fmt.Errorf("attack response without from/to: %w", ErrProtocolViolation)
	}
	return nil
}

type ContinueAttackRequest struct {
	Board              []BoardTerritory `json:"board"`
	AttackingTerritory BoardTerritory   `json:"attackingTerritory"`
	DefendingTerritory BoardTerritory   `json:"defendingTerritory"`
}

type ContinueAttackResponse struct {
	ContinueAttacking *bool `json:"continueAttacking"`
}

func (r ContinueAttackResponse) Validate() error {
	if r.ContinueAttacking == nil {
		return fmt.Errorf("continue response without continueAttacking: %w", ErrProtocolViolation)
	}
	return nil
}

// GameOverRequest is the final report sent to every remaining agent and
// served from the game-over stats endpoint.
type GameOverRequest struct {
	FinalBoard   []BoardTerritory `json:"finalBoard"`
	GameDuration string           `json:"gameDuration"`
	WinnerName   string           `json:"winnerName"`
	FinalScores  []string         `json:"finalScores"`
}

func (r GameOverRequest) Clone() GameOverRequest {
	r.FinalBoard = slices.Clone(r.FinalBoard)
	r.FinalScores = slices.Clone(r.FinalScores)
	return r
}

type JoinRequest struct {
	Name                string `json:"name"`
	CallbackBaseAddress string `json:"callbackBaseAddress"`
}

type JoinResponse struct {
	Token string `json:"token"`
}

type StartGameRequest struct {
	SecretCode string `json:"secretCode"`
}

// GameStatus is the externally visible state of the game.
type GameStatus struct {
	GameState game.Phase       `json:"gameState"`
	Board     []BoardTerritory `json:"board"`
	Players   []string         `json:"players"`
}

func (s GameStatus) Clone() GameStatus {
	s.Board = slices.Clone(s.Board)
	s.Players = slices.Clone(s.Players)
	return s
}
