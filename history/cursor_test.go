package history

import (
	"testing"

	"riskserver/game"

	"github.com/stretchr/testify/require"
)

func recorded(t *testing.T, n int) ([]Snapshot, []game.StateHash) {
	r := NewRecorder()
	b := game.NewBoard(2, 2)
	hashes := []game.StateHash{}
	for i := 0; i < n; i++ {
		require.NoError(t, b.PlaceArmy("a", game.Location{Row: 0, Column: 0}, 0))
		r.Record("deploy", status(b), b.Hash())
		hashes = append(hashes, b.Hash())
	}
	return r.All(), hashes
}

func TestCursorMoves(t *testing.T) {
	snapshots, _ := recorded(t, 4)
	c := NewCursor(snapshots)

	s, ok := c.Current()
	require.True(t, ok)
	require.Equal(t, 0, s.Seq)

	s, _ = c.Move(ForwardOneStep)
	require.Equal(t, 1, s.Seq)

	s, _ = c.Move(ForwardTillEnd)
	require.Equal(t, 3, s.Seq)

	s, _ = c.Move(ForwardOneStep)
	require.Equal(t, 3, s.Seq, "Forward at the end should stay put")

	s, _ = c.Move(BackwardTillStart)
	require.Equal(t, 0, s.Seq)

	s, _ = c.Move(BackwardOneStep)
	require.Equal(t, 0, s.Seq, "Backward at the start should stay put")
}

func TestCursorReplayRoundTrip(t *testing.T) {
	snapshots, hashes := recorded(t, 5)
	c := NewCursor(snapshots)

	forward := []string{}
	for i := 0; i < len(snapshots); i++ {
		s, _ := c.Current()
		require.Equal(t, hashes[i].String(), s.Digest)
		forward = append(forward, s.Digest)
		c.Move(ForwardOneStep)
	}
	for i := len(snapshots) - 1; i >= 0; i-- {
		s, _ := c.Current()
		require.Equal(t, forward[i], s.Digest, "Backward replay should revisit the same boards")
		require.Equal(t, i+1, s.Status.Board[0].Armies)
		c.Move(BackwardOneStep)
	}
}

func TestCursorEmptyAndExtend(t *testing.T) {
	c := NewCursor(nil)
	_, ok := c.Current()
	require.False(t, ok)
	_, ok = c.Move(ForwardOneStep)
	require.False(t, ok)

	_, ok = c.Last()
	require.False(t, ok)

	more, _ := recorded(t, 2)
	c.Extend(more)
	require.Equal(t, 2, c.Len())
	last, ok := c.Last()
	require.True(t, ok)
	require.Equal(t, 1, last.Seq)
	require.Equal(t, 0, c.Index(), "Last does not move the cursor")
	s, ok := c.Move(ForwardTillEnd)
	require.True(t, ok)
	require.Equal(t, 1, s.Seq)
}

func TestParseStep(t *testing.T) {
	step, err := ParseStep("backwardStart")
	require.NoError(t, err)
	require.Equal(t, BackwardTillStart, step)

	_, err = ParseStep("sideways")
	require.Error(t, err)
}
