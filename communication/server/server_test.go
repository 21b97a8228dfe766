package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"riskserver/communication"
	"riskserver/game"
	"riskserver/gamemaster"
	"riskserver/history"
	"riskserver/metrics"
	"riskserver/protocol"

	"github.com/fxamacker/cbor/v2"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type fakeGame struct {
	mu          sync.Mutex
	phase       game.Phase
	statusCalls int
	joinErr     error
	startErr    error
	restartErr  error
	stats       protocol.GameOverRequest
	statsErr    error
	history     *history.Recorder
	board       *game.Board
}

func newFakeGame() *fakeGame {
	return &fakeGame{
		history: history.NewRecorder(),
		board:   game.NewBoard(2, 2),
	}
}

func (g *fakeGame) record(label string) {
	g.history.Record(label, g.Status(), g.board.Hash())
}

func (g *fakeGame) Join(ctx context.Context, name, callbackAddress string) (string, error) {
	if g.joinErr != nil {
		return "", g.joinErr
	}
	return "token-" + name, nil
}

func (g *fakeGame) Start(secret string) error {
	if g.startErr != nil {
		return g.startErr
	}
	g.mu.Lock()
	g.phase = game.Deploying
	g.mu.Unlock()
	return nil
}

func (g *fakeGame) Restart(secret string) error {
	return g.restartErr
}

func (g *fakeGame) Status() protocol.GameStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statusCalls++
	return protocol.GameStatus{
		GameState: g.phase,
		Board:     protocol.NewBoard(g.board, func(token string) string { return token }),
		Players:   []string{"A", "B"},
	}
}

func (g *fakeGame) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.statusCalls
}

func (g *fakeGame) PlayByPlaySince(i int) []history.Snapshot {
	return g.history.Since(i)
}

func (g *fakeGame) GameOverStats() (protocol.GameOverRequest, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stats, g.statsErr
}

func (g *fakeGame) setStats(stats protocol.GameOverRequest, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stats, g.statsErr = stats, err
}

func post(t *testing.T, url string, body string) *http.Response {
	resp, err := http.Post(url, communication.ContentTypeJSON, strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, url string, header http.Header) *http.Response {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestJoin(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		joinErr error
		want    int
	}{
		{"ok", `{"name":"A","callbackBaseAddress":"http://localhost:9000"}`, nil, http.StatusOK},
		{"malformed body", `{"name":`, nil, http.StatusBadRequest},
		{"missing name", `{"callbackBaseAddress":"http://localhost:9000"}`, nil, http.StatusBadRequest},
		{"relative address", `{"name":"A","callbackBaseAddress":"localhost:9000"}`, nil, http.StatusBadRequest},
		{"agent does not answer", `{"name":"A","callbackBaseAddress":"http://localhost:9000"}`, fmt.Errorf("dial: %w", protocol.ErrAgentUnreachable), http.StatusBadGateway},
		{"game already running", `{"name":"A","callbackBaseAddress":"http://localhost:9000"}`, gamemaster.ErrPhaseViolation, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newFakeGame()
			g.joinErr = tt.joinErr
			srv := httptest.NewServer(NewServer(g).Handler())
			defer srv.Close()

			resp := post(t, srv.URL+communication.Join, tt.body)
			require.Equal(t, tt.want, resp.StatusCode)
			if tt.want == http.StatusOK {
				var joined protocol.JoinResponse
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&joined))
				require.Equal(t, "token-A", joined.Token)
			}
		})
	}
}

func TestGameControl(t *testing.T) {
	tests := []struct {
		name string
		path string
		err  error
		want int
	}{
		{"start", communication.StartGame, nil, http.StatusOK},
		{"start with wrong secret", communication.StartGame, gamemaster.ErrUnauthorized, http.StatusUnauthorized},
		{"start while running", communication.StartGame, gamemaster.ErrPhaseViolation, http.StatusConflict},
		{"start without agents", communication.StartGame, gamemaster.ErrNoAgents, http.StatusConflict},
		{"restart", communication.RestartGame, nil, http.StatusOK},
		{"restart with wrong secret", communication.RestartGame, gamemaster.ErrUnauthorized, http.StatusUnauthorized},
		{"restart before game over", communication.RestartGame, gamemaster.ErrPhaseViolation, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newFakeGame()
			g.startErr = tt.err
			g.restartErr = tt.err
			srv := httptest.NewServer(NewServer(g).Handler())
			defer srv.Close()

			resp := post(t, srv.URL+tt.path, `{"secretCode":"s"}`)
			require.Equal(t, tt.want, resp.StatusCode)
		})
	}

	t.Run("restart replies without reading the status", func(t *testing.T) {
		g := newFakeGame()
		srv := httptest.NewServer(NewServer(g).Handler())
		defer srv.Close()

		resp := post(t, srv.URL+communication.RestartGame, `{"secretCode":"s"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.Empty(t, body)
		require.Zero(t, g.calls())
	})

	t.Run("wrong method", func(t *testing.T) {
		srv := httptest.NewServer(NewServer(newFakeGame()).Handler())
		defer srv.Close()

		resp := get(t, srv.URL+communication.StartGame, nil)
		require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestStatusCache(t *testing.T) {
	t.Run("serves cached status until the game changes", func(t *testing.T) {
		g := newFakeGame()
		srv := httptest.NewServer(NewServer(g, WithStatusTTL(time.Minute)).Handler())
		defer srv.Close()

		for i := 0; i < 3; i++ {
			resp := get(t, srv.URL+communication.Status, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)
		}
		require.Equal(t, 1, g.calls())

		post(t, srv.URL+communication.StartGame, `{"secretCode":"s"}`)
		resp := get(t, srv.URL+communication.Status, nil)
		var status protocol.GameStatus
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
		require.Equal(t, game.Deploying, status.GameState, "start drops the cached status")
	})

	t.Run("disabled", func(t *testing.T) {
		g := newFakeGame()
		srv := httptest.NewServer(NewServer(g, WithStatusTTL(0)).Handler())
		defer srv.Close()

		get(t, srv.URL+communication.Status, nil)
		get(t, srv.URL+communication.Status, nil)
		require.Equal(t, 2, g.calls())
	})
}

func TestQueryRate(t *testing.T) {
	srv := httptest.NewServer(NewServer(newFakeGame(), WithQueryRate(0.001, 1)).Handler())
	defer srv.Close()

	require.Equal(t, http.StatusOK, get(t, srv.URL+communication.Status, nil).StatusCode)
	require.Equal(t, http.StatusTooManyRequests, get(t, srv.URL+communication.Status, nil).StatusCode)
	require.Equal(t, http.StatusOK, post(t, srv.URL+communication.StartGame, `{"secretCode":"s"}`).StatusCode, "control routes are not throttled")
}

func TestStatusAsCBOR(t *testing.T) {
	g := newFakeGame()
	require.NoError(t, g.Start("s"))
	srv := httptest.NewServer(NewServer(g).Handler())
	defer srv.Close()

	resp := get(t, srv.URL+communication.Status, http.Header{"Accept": {communication.ContentTypeCBOR}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, communication.ContentTypeCBOR, resp.Header.Get("Content-Type"))

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, cbor.Unmarshal(data, &decoded))
	require.Equal(t, "Deploying", decoded["gameState"])
	require.Len(t, decoded["board"], 4)
}

func TestPlayByPlay(t *testing.T) {
	g := newFakeGame()
	for i := 0; i < 40; i++ {
		g.record(fmt.Sprintf("event %d", i))
	}
	srv := httptest.NewServer(NewServer(g).Handler())
	defer srv.Close()

	t.Run("since", func(t *testing.T) {
		resp := get(t, srv.URL+communication.PlayByPlay+"?since=38", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var snapshots []history.Snapshot
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&snapshots))
		require.Len(t, snapshots, 2)
		require.Equal(t, "event 38", snapshots[0].Label)
	})

	t.Run("bad since", func(t *testing.T) {
		resp := get(t, srv.URL+communication.PlayByPlay+"?since=-1", nil)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("gzip", func(t *testing.T) {
		resp := get(t, srv.URL+communication.PlayByPlay, http.Header{"Accept-Encoding": {"gzip"}})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "gzip", resp.Header.Get("Content-Encoding"))
	})
}

func TestGameOverStats(t *testing.T) {
	g := newFakeGame()
	g.setStats(protocol.GameOverRequest{}, gamemaster.ErrPhaseViolation)
	srv := httptest.NewServer(NewServer(g).Handler())
	defer srv.Close()

	require.Equal(t, http.StatusConflict, get(t, srv.URL+communication.GameOverStats, nil).StatusCode)

	g.setStats(protocol.GameOverRequest{WinnerName: "A", FinalScores: []string{"A (9)"}}, nil)
	resp := get(t, srv.URL+communication.GameOverStats, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats protocol.GameOverRequest
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	require.Equal(t, "A", stats.WinnerName)
}

func TestMetricsRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	collector.AgentJoined()
	srv := httptest.NewServer(NewServer(newFakeGame(), WithGatherer(reg)).Handler())
	defer srv.Close()

	resp := get(t, srv.URL+communication.Metrics, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.True(t, bytes.Contains(body, []byte("risk_agents_joined_total 1")))
}

func TestPlayByPlayStream(t *testing.T) {
	g := newFakeGame()
	require.NoError(t, g.Start("s"))
	for i := 0; i < 3; i++ {
		g.record(fmt.Sprintf("event %d", i))
	}
	srv := httptest.NewServer(NewServer(g, WithStreamInterval(5*time.Millisecond)).Handler())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + communication.PlayByPlayStream
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	read := func() streamFrame {
		var frame streamFrame
		require.NoError(t, conn.ReadJSON(&frame))
		return frame
	}
	send := func(cmd string) streamFrame {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(cmd)))
		return read()
	}

	first := read()
	require.Equal(t, 0, first.Index)
	require.Equal(t, 3, first.Total)
	require.Equal(t, "event 0", first.Snapshot.Label)

	require.Equal(t, 2, send("forwardEnd").Index)
	require.Equal(t, 2, send("forwardOne").Index, "clamped at the end")
	require.Equal(t, 1, send("backwardOne").Index)
	require.Equal(t, 0, send("backwardStart").Index)
	require.NotEmpty(t, send("sideways").Error)

	require.Equal(t, 2, send("follow").Index)
	g.record("event 3")
	live := read()
	require.Equal(t, 3, live.Index)
	require.Equal(t, "event 3", live.Snapshot.Label)
}

func TestPlayByPlayStreamDetectsReset(t *testing.T) {
	g := newFakeGame()
	require.NoError(t, g.Start("s"))
	g.record("old 0")
	g.record("old 1")
	srv := httptest.NewServer(NewServer(g, WithStreamInterval(5*time.Millisecond)).Handler())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + communication.PlayByPlayStream
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var frame streamFrame
	require.NoError(t, conn.ReadJSON(&frame))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("follow")))
	require.NoError(t, conn.ReadJSON(&frame))
	require.Equal(t, 1, frame.Index)

	// a new game already past the old one's length, still not in Joining
	g.history.Reset()
	for i := 0; i < 4; i++ {
		g.record(fmt.Sprintf("new %d", i))
	}

	require.NoError(t, conn.ReadJSON(&frame))
	require.Equal(t, "game was reset", frame.Error)
	require.Equal(t, "old 1", frame.Snapshot.Label, "no snapshot of the new game is mixed in")
}
