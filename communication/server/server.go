// Package server exposes the game master over HTTP: player registration,
// game control, and the read-only status, history and statistics views.
package server

import (
	"context"
	"net/http"
	"time"

	"riskserver/communication"
	"riskserver/history"
	"riskserver/meta"
	"riskserver/protocol"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// Game is the part of the game master the HTTP layer drives.
type Game interface {
	Join(ctx context.Context, name, callbackAddress string) (string, error)
	Start(secret string) error
	Restart(secret string) error
	Status() protocol.GameStatus
	PlayByPlaySince(i int) []history.Snapshot
	GameOverStats() (protocol.GameOverRequest, error)
}

const statusKey = "status"

type Server struct {
	game           Game
	statusTTL      time.Duration
	statusCache    *expirable.LRU[string, protocol.GameStatus]
	limiter        *rate.Limiter
	gatherer       prometheus.Gatherer
	streamInterval time.Duration
	allowedOrigins []string
}

type Option func(*Server)

// WithStatusTTL caches the status view for ttl. Zero disables the cache.
func WithStatusTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.statusTTL = ttl
	}
}

// WithQueryRate throttles the read-only endpoints. A non-positive limit
// leaves them unthrottled.
func WithQueryRate(limit float64, burst int) Option {
	return func(s *Server) {
		if limit <= 0 {
			s.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		s.limiter = rate.NewLimiter(rate.Limit(limit), max(burst, 1))
	}
}

// WithGatherer serves the metrics of g on the metrics route.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithStreamInterval sets how often the play-by-play stream checks for new
// snapshots while following the live game.
func WithStreamInterval(d time.Duration) Option {
	return func(s *Server) {
		s.streamInterval = d
	}
}

// WithAllowedOrigins restricts websocket upgrades to the given origins.
// Without it every origin is accepted.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		s.allowedOrigins = origins
	}
}

func NewServer(game Game, opts ...Option) *Server {
	s := &Server{
		game:           game,
		statusTTL:      meta.DEFAULT_STATUS_TTL,
		limiter:        rate.NewLimiter(rate.Inf, 0),
		streamInterval: 250 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.statusTTL > 0 {
		s.statusCache = expirable.NewLRU[string, protocol.GameStatus](1, nil, s.statusTTL)
	}
	return s
}

// Handler returns the routes of the game server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST "+communication.Join, s.handleJoin)
	mux.HandleFunc("POST "+communication.StartGame, s.handleStartGame)
	mux.HandleFunc("POST "+communication.RestartGame, s.handleRestartGame)

	mux.Handle("GET "+communication.Status, gzhttp.GzipHandler(s.throttled(s.handleStatus)))
	mux.Handle("GET "+communication.PlayByPlay, gzhttp.GzipHandler(s.throttled(s.handlePlayByPlay)))
	mux.Handle("GET "+communication.GameOverStats, gzhttp.GzipHandler(s.throttled(s.handleGameOverStats)))
	mux.HandleFunc("GET "+communication.PlayByPlayStream, s.handleStream)

	if s.gatherer != nil {
		mux.Handle("GET "+communication.Metrics, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

// NewHTTPServer wraps the handler in an http.Server listening on addr.
func (s *Server) NewHTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: communication.ReadHeaderTimeout,
	}
}

func (s *Server) throttled(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeError(w, r, http.StatusTooManyRequests, "too many requests")
			return
		}
		next(w, r)
	}
}

func (s *Server) status() protocol.GameStatus {
	if s.statusCache == nil {
		return s.game.Status()
	}
	if status, ok := s.statusCache.Get(statusKey); ok {
		return status.Clone()
	}
	status := s.game.Status()
	s.statusCache.Add(statusKey, status.Clone())
	return status
}

// invalidate drops the cached status after a request that changed the game.
func (s *Server) invalidate() {
	if s.statusCache != nil {
		s.statusCache.Purge()
	}
}
