package agent

import (
	"testing"

	"riskserver/game"
	"riskserver/protocol"

	"github.com/stretchr/testify/require"
)

// board builds a rows x cols wire board; owners maps a location to its owner
// and armies.
func board(rows, cols int, owners map[game.Location]protocol.BoardTerritory) []protocol.BoardTerritory {
	var out []protocol.BoardTerritory
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			loc := game.Location{Row: r, Column: c}
			t, ok := owners[loc]
			if !ok {
				t = protocol.BoardTerritory{}
			}
			t.Location = loc
			out = append(out, t)
		}
	}
	return out
}

func TestSampleDeploy(t *testing.T) {
	s := NewSeededSampleStrategy("me", 1)

	t.Run("middle of an empty board", func(t *testing.T) {
		loc, err := s.DeployArmy(protocol.DeployArmyRequest{Board: board(3, 3, nil), Status: protocol.YourTurn})
		require.NoError(t, err)
		require.Equal(t, game.Location{Row: 1, Column: 1}, loc)
	})

	t.Run("reinforces own territory", func(t *testing.T) {
		b := board(3, 3, map[game.Location]protocol.BoardTerritory{
			{Row: 0, Column: 2}: {OwnerName: "me", Yours: true, Armies: 1},
		})
		loc, err := s.DeployArmy(protocol.DeployArmyRequest{Board: b, Status: protocol.YourTurn})
		require.NoError(t, err)
		require.Equal(t, game.Location{Row: 0, Column: 2}, loc)
	})

	t.Run("ignores a namesake's territory", func(t *testing.T) {
		b := board(3, 3, map[game.Location]protocol.BoardTerritory{
			{Row: 0, Column: 0}: {OwnerName: "me", Armies: 1},
			{Row: 0, Column: 2}: {OwnerName: "me", Yours: true, Armies: 1},
		})
		loc, err := s.DeployArmy(protocol.DeployArmyRequest{Board: b, Status: protocol.YourTurn})
		require.NoError(t, err)
		require.Equal(t, game.Location{Row: 0, Column: 2}, loc)
	})

	t.Run("spreads out after a refusal", func(t *testing.T) {
		b := board(3, 3, map[game.Location]protocol.BoardTerritory{
			{Row: 0, Column: 2}: {OwnerName: "me", Yours: true, Armies: 1},
			{Row: 1, Column: 1}: {OwnerName: "them", Armies: 1},
		})
		loc, err := s.DeployArmy(protocol.DeployArmyRequest{Board: b, Status: protocol.PreviousAttemptFailed})
		require.NoError(t, err)
		require.Equal(t, game.Location{Row: 1, Column: 2}, loc)
	})

	t.Run("full board", func(t *testing.T) {
		b := board(1, 1, map[game.Location]protocol.BoardTerritory{
			{Row: 0, Column: 0}: {OwnerName: "them", Armies: 1},
		})
		_, err := s.DeployArmy(protocol.DeployArmyRequest{Board: b, Status: protocol.YourTurn})
		require.ErrorIs(t, err, ErrNoFreeTerritory)
	})
}

func TestSampleAttack(t *testing.T) {
	s := NewSeededSampleStrategy("me", 1)

	t.Run("weakest neighbour of the strongest territory", func(t *testing.T) {
		b := board(3, 3, map[game.Location]protocol.BoardTerritory{
			{Row: 0, Column: 0}: {OwnerName: "me", Yours: true, Armies: 2},
			{Row: 2, Column: 2}: {OwnerName: "me", Yours: true, Armies: 5},
			{Row: 1, Column: 1}: {OwnerName: "them", Armies: 3},
			{Row: 2, Column: 1}: {OwnerName: "them", Armies: 1},
		})
		from, to, err := s.BeginAttack(protocol.BeginAttackRequest{Board: b})
		require.NoError(t, err)
		require.Equal(t, game.Location{Row: 2, Column: 2}, from)
		require.Equal(t, game.Location{Row: 2, Column: 1}, to)
	})

	t.Run("skips territories that cannot attack", func(t *testing.T) {
		b := board(1, 3, map[game.Location]protocol.BoardTerritory{
			{Row: 0, Column: 0}: {OwnerName: "me", Yours: true, Armies: 1},
			{Row: 0, Column: 1}: {OwnerName: "them", Armies: 1},
		})
		_, _, err := s.BeginAttack(protocol.BeginAttackRequest{Board: b})
		require.ErrorIs(t, err, ErrNoAttack)
	})
}

func TestSampleContinueFlipsCoin(t *testing.T) {
	s := NewSeededSampleStrategy("me", 42)
	seen := map[bool]int{}
	for i := 0; i < 200; i++ {
		seen[s.ContinueAttacking(protocol.ContinueAttackRequest{})]++
	}
	require.Positive(t, seen[true])
	require.Positive(t, seen[false])
}
