package agent

import (
	"encoding/json"
	"io"
	"net/http"

	"riskserver/communication"
	"riskserver/protocol"

	"github.com/rs/zerolog/log"
)

// Server answers the game server's requests with the decisions of a Strategy.
type Server struct {
	strategy Strategy
}

func NewServer(strategy Strategy) *Server {
	return &Server{strategy: strategy}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+communication.AreYouThere, s.handleAreYouThere)
	mux.HandleFunc("POST "+communication.DeployArmy, s.handleDeployArmy)
	mux.HandleFunc("POST "+communication.BeginAttack, s.handleBeginAttack)
	mux.HandleFunc("POST "+communication.ContinueAttacking, s.handleContinueAttacking)
	mux.HandleFunc("POST "+communication.GameOver, s.handleGameOver)
	return mux
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, communication.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func encode(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", communication.ContentTypeJSON)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "failed to encode reply: "+err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleAreYouThere(w http.ResponseWriter, r *http.Request) {
	io.WriteString(w, communication.AliveAnswer)
}

func (s *Server) handleDeployArmy(w http.ResponseWriter, r *http.Request) {
	var req protocol.DeployArmyRequest
	if !decode(w, r, &req) {
		return
	}
	loc, err := s.strategy.DeployArmy(req)
	if err != nil {
		log.Warn().Err(err).Msg("no deployment")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	encode(w, protocol.DeployArmyResponse{DesiredLocation: &loc})
}

func (s *Server) handleBeginAttack(w http.ResponseWriter, r *http.Request) {
	var req protocol.BeginAttackRequest
	if !decode(w, r, &req) {
		return
	}
	from, to, err := s.strategy.BeginAttack(req)
	if err != nil {
		log.Warn().Err(err).Msg("no attack")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	encode(w, protocol.BeginAttackResponse{From: &from, To: &to})
}

func (s *Server) handleContinueAttacking(w http.ResponseWriter, r *http.Request) {
	var req protocol.ContinueAttackRequest
	if !decode(w, r, &req) {
		return
	}
	proceed := s.strategy.ContinueAttacking(req)
	encode(w, protocol.ContinueAttackResponse{ContinueAttacking: &proceed})
}

func (s *Server) handleGameOver(w http.ResponseWriter, r *http.Request) {
	var req protocol.GameOverRequest
	if !decode(w, r, &req) {
		return
	}
	s.strategy.GameOver(req)
	w.WriteHeader(http.StatusOK)
}
