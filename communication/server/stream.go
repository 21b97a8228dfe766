package server

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"riskserver/history"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	wsBufferSize = 1024
	wsWriteWait  = 10 * time.Second
)

// followCommand switches the stream to live mode: every new snapshot is
// pushed as it is recorded. Any playback step leaves live mode.
const followCommand = "follow"

type streamFrame struct {
	Index    int               `json:"index"`
	Total    int               `json:"total"`
	Snapshot *history.Snapshot `json:"snapshot,omitempty"`
	Error    string            `json:"error,omitempty"`
}

func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  wsBufferSize,
		WriteBufferSize: wsBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return len(s.allowedOrigins) == 0 || origin == "" || slices.Contains(s.allowedOrigins, origin)
		},
	}
}

func writeFrame(conn *websocket.Conn, cursor *history.Cursor, errMsg string) error {
	frame := streamFrame{Index: cursor.Index(), Total: cursor.Len(), Error: errMsg}
	if snapshot, ok := cursor.Current(); ok {
		frame.Snapshot = &snapshot
	}
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(frame)
}

// handleStream serves an interactive play-by-play over a websocket. The
// client sends playback steps (forwardOne, backwardOne, forwardEnd,
// backwardStart) or "follow" as text messages; every reply carries the
// snapshot under the cursor.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("play-by-play upgrade failed")
		return
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	commands := make(chan string)
	go func() {
		defer close(commands)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			select {
			case commands <- strings.TrimSpace(string(msg)):
			case <-done:
				return
			}
		}
	}()

	cursor := history.NewCursor(s.game.PlayByPlaySince(0))
	if err := writeFrame(conn, cursor, ""); err != nil {
		return
	}

	ticker := time.NewTicker(s.streamInterval)
	defer ticker.Stop()
	following := false
	for {
		select {
		case cmd, ok := <-commands:
			if !ok {
				return
			}
			more, ok := s.newSnapshots(cursor)
			if !ok {
				writeFrame(conn, cursor, "game was reset")
				return
			}
			cursor.Extend(more)
			if cmd == followCommand {
				following = true
				cursor.Move(history.ForwardTillEnd)
				if err := writeFrame(conn, cursor, ""); err != nil {
					return
				}
				continue
			}
			step, err := history.ParseStep(cmd)
			if err != nil {
				if err := writeFrame(conn, cursor, err.Error()); err != nil {
					return
				}
				continue
			}
			following = false
			cursor.Move(step)
			if err := writeFrame(conn, cursor, ""); err != nil {
				return
			}

		case <-ticker.C:
			if !following {
				continue
			}
			more, ok := s.newSnapshots(cursor)
			if !ok {
				writeFrame(conn, cursor, "game was reset")
				return
			}
			wasEmpty := cursor.Len() == 0
			cursor.Extend(more)
			for i := range more {
				// an empty cursor already sits on the first new snapshot
				if i > 0 || !wasEmpty {
					cursor.Move(history.ForwardOneStep)
				}
				if err := writeFrame(conn, cursor, ""); err != nil {
					return
				}
			}
		}
	}
}

// newSnapshots returns what was recorded after the cursor's newest snapshot.
// It reports false when the history no longer starts with what the cursor
// holds, which happens once the game was reset, even if a new game already
// recorded more than the cursor has seen.
func (s *Server) newSnapshots(cursor *history.Cursor) ([]history.Snapshot, bool) {
	last, ok := cursor.Last()
	if !ok {
		return s.game.PlayByPlaySince(0), true
	}
	more := s.game.PlayByPlaySince(last.Seq)
	if len(more) == 0 || !sameSnapshot(more[0], last) {
		return nil, false
	}
	return more[1:], true
}

func sameSnapshot(a, b history.Snapshot) bool {
	return a.Seq == b.Seq && a.Label == b.Label && a.Digest == b.Digest && a.Time.Equal(b.Time)
}
