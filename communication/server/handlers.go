package server

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"riskserver/gamemaster"
	"riskserver/protocol"

	"github.com/rs/zerolog/log"
)

// statusFor maps game master errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, gamemaster.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, gamemaster.ErrPhaseViolation), errors.Is(err, gamemaster.ErrNoAgents):
		return http.StatusConflict
	case errors.Is(err, protocol.ErrAgentUnreachable), errors.Is(err, protocol.ErrProtocolViolation):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func validateJoin(req protocol.JoinRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return errors.New("name is required")
	}
	u, err := url.ParseRequestURI(req.CallbackBaseAddress)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.New("callbackBaseAddress must be an absolute http(s) URL")
	}
	return nil
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req protocol.JoinRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateJoin(req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	token, err := s.game.Join(r.Context(), req.Name, req.CallbackBaseAddress)
	if err != nil {
		log.Info().Err(err).Msgf("join of %s refused", req.Name)
		writeError(w, r, statusFor(err), err.Error())
		return
	}
	s.invalidate()
	writeResponse(w, r, http.StatusOK, protocol.JoinResponse{Token: token})
}

func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request) {
	var req protocol.StartGameRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.game.Start(req.SecretCode); err != nil {
		log.Info().Err(err).Msg("start refused")
		writeError(w, r, statusFor(err), err.Error())
		return
	}
	s.invalidate()
	writeResponse(w, r, http.StatusOK, s.status())
}

func (s *Server) handleRestartGame(w http.ResponseWriter, r *http.Request) {
	var req protocol.StartGameRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.game.Restart(req.SecretCode); err != nil {
		log.Info().Err(err).Msg("restart refused")
		writeError(w, r, statusFor(err), err.Error())
		return
	}
	s.invalidate()
	// Reading the status here would consume Restarting before any client saw it.
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, r, http.StatusOK, s.status())
}

// handlePlayByPlay returns the recorded snapshots, optionally only those
// from index `since` on.
func (s *Server) handlePlayByPlay(w http.ResponseWriter, r *http.Request) {
	since := 0
	if v := r.URL.Query().Get("since"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, r, http.StatusBadRequest, "since must be a non-negative integer")
			return
		}
		since = n
	}
	writeResponse(w, r, http.StatusOK, s.game.PlayByPlaySince(since))
}

func (s *Server) handleGameOverStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.game.GameOverStats()
	if err != nil {
		writeError(w, r, statusFor(err), err.Error())
		return
	}
	writeResponse(w, r, http.StatusOK, stats)
}
