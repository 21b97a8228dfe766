package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"riskserver/communication"
	"riskserver/communication/client"
	"riskserver/communication/server"
	"riskserver/game"
	"riskserver/gamemaster"
	"riskserver/protocol"

	"github.com/stretchr/testify/require"
)

func TestServerRoutes(t *testing.T) {
	srv := httptest.NewServer(NewServer(NewSeededSampleStrategy("me", 1)).Handler())
	defer srv.Close()
	ac := client.NewAgentClient(srv.URL)
	ctx := context.Background()

	require.NoError(t, ac.AreYouThere(ctx))

	deploy, err := ac.DeployArmy(ctx, protocol.DeployArmyRequest{Board: board(3, 3, nil), Status: protocol.YourTurn})
	require.NoError(t, err)
	require.Equal(t, &game.Location{Row: 1, Column: 1}, deploy.DesiredLocation)

	_, err = ac.BeginAttack(ctx, protocol.BeginAttackRequest{Board: board(3, 3, nil)})
	require.ErrorIs(t, err, protocol.ErrAgentUnreachable, "no attack is reported as a server error")

	proceed, err := ac.ContinueAttacking(ctx, protocol.ContinueAttackRequest{})
	require.NoError(t, err)
	require.NotNil(t, proceed.ContinueAttacking)

	require.NoError(t, ac.GameOver(ctx, protocol.GameOverRequest{WinnerName: "me"}))

	res, err := http.Post(srv.URL+communication.DeployArmy, communication.ContentTypeJSON, strings.NewReader("{"))
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestGameBetweenSampleAgents(t *testing.T) {
	opts := gamemaster.Options{
		Height:         3,
		Width:          3,
		StartingArmies: 4,
		SecretCode:     "s3cret",
		AgentTimeout:   5 * time.Second,
	}
	gm := gamemaster.New(opts, func(address string) gamemaster.Agent {
		return client.NewAgentClient(address)
	}, gamemaster.WithRules(game.NewSeededRules(3)))
	defer gm.Close()
	api := httptest.NewServer(server.NewServer(gm, server.WithStatusTTL(0)).Handler())
	defer api.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for i, name := range []string{"alice", "bob"} {
		player := httptest.NewServer(NewServer(NewSeededSampleStrategy(name, uint64(i))).Handler())
		defer player.Close()
		token, err := Join(ctx, http.DefaultClient, api.URL, protocol.JoinRequest{Name: name, CallbackBaseAddress: player.URL})
		require.NoError(t, err)
		require.NotEmpty(t, token)
	}

	_, err := Join(ctx, http.DefaultClient, api.URL, protocol.JoinRequest{Name: "ghost", CallbackBaseAddress: "http://127.0.0.1:1"})
	require.Error(t, err, "agents that do not answer cannot join")

	res, err := http.Post(api.URL+communication.StartGame, communication.ContentTypeJSON, strings.NewReader(`{"secretCode":"s3cret"}`))
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	require.NoError(t, gm.Wait(ctx))

	res, err = http.Get(api.URL + communication.GameOverStats)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	var stats protocol.GameOverRequest
	require.NoError(t, json.NewDecoder(res.Body).Decode(&stats))
	require.Contains(t, []string{"alice", "bob"}, stats.WinnerName)
	require.Len(t, stats.FinalScores, 2)
	require.Len(t, stats.FinalBoard, 9)

	snapshots := gm.PlayByPlay()
	require.Equal(t, "Game start!", snapshots[0].Label)
	require.Equal(t, "Game over!", snapshots[len(snapshots)-1].Label)
}
