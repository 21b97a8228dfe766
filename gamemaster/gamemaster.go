package gamemaster

import (
	"context"
	"crypto/subtle"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"riskserver/game"
	"riskserver/history"
	"riskserver/meta"
	"riskserver/metrics"
	"riskserver/protocol"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Agent is a remote player as seen by the game master. Every call is bounded
// by the context it receives.
type Agent interface {
	AreYouThere(ctx context.Context) error
	DeployArmy(ctx context.Context, req protocol.DeployArmyRequest) (protocol.DeployArmyResponse, error)
	BeginAttack(ctx context.Context, req protocol.BeginAttackRequest) (protocol.BeginAttackResponse, error)
	ContinueAttacking(ctx context.Context, req protocol.ContinueAttackRequest) (protocol.ContinueAttackResponse, error)
	GameOver(ctx context.Context, req protocol.GameOverRequest) error
}

// Dialer returns the agent listening at a callback base address.
type Dialer func(callbackAddress string) Agent

// Options are the game settings fixed for the lifetime of a game master.
type Options struct {
	Height         int
	Width          int
	StartingArmies int
	// MaxArmiesPerTerritory caps a territory during deployment; zero disables the cap.
	MaxArmiesPerTerritory int
	SecretCode            string
	AgentTimeout          time.Duration
}

func DefaultOptions(secretCode string) Options {
	return Options{
		Height:         meta.DEFAULT_HEIGHT,
		Width:          meta.DEFAULT_WIDTH,
		StartingArmies: meta.DEFAULT_STARTING_ARMIES,
		SecretCode:     secretCode,
		AgentTimeout:   meta.DEFAULT_AGENT_TIMEOUT,
	}
}

type Option func(*GameMaster)

func WithRules(rules game.Rules) Option {
	return func(gm *GameMaster) {
		gm.rules = rules
	}
}

func WithMetrics(collector metrics.Collector) Option {
	return func(gm *GameMaster) {
		gm.metrics = collector
	}
}

// WithResultsWriter stores the final standings of every game through w.
func WithResultsWriter(w *metrics.Writer) Option {
	return func(gm *GameMaster) {
		gm.results = w
	}
}

func WithClock(now func() time.Time) Option {
	return func(gm *GameMaster) {
		gm.now = now
	}
}

func WithTokenSource(newToken func() string) Option {
	return func(gm *GameMaster) {
		gm.newToken = newToken
	}
}

// GameMaster runs one game instance at a time: it admits players, drives the
// deployment and attack phases against the remote agents, and keeps the
// play-by-play history.
//
// Lifecycle requests and the runner goroutine share mu. While a game is
// active only the runner touches the board and roster; readers go through
// the published view.
type GameMaster struct {
	opts     Options
	dial     Dialer
	rules    game.Rules
	metrics  metrics.Collector
	results  *metrics.Writer
	now      func() time.Time
	newToken func() string
	history  *history.Recorder

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	phase  game.Phase
	board  *game.Board
	roster *roster
	report *protocol.GameOverRequest
	done   chan struct{}

	view atomic.Pointer[protocol.GameStatus]

	// owned by the runner
	startTime time.Time
}

func New(opts Options, dial Dialer, options ...Option) *GameMaster {
	if opts.AgentTimeout <= 0 {
		opts.AgentTimeout = meta.DEFAULT_AGENT_TIMEOUT
	}
	ctx, cancel := context.WithCancel(context.Background())
	gm := &GameMaster{
		opts:     opts,
		dial:     dial,
		rules:    game.NewStandardRules(),
		metrics:  metrics.NewDummyCollector(),
		now:      time.Now,
		newToken: uuid.NewString,
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, option := range options {
		option(gm)
	}
	gm.history = history.NewRecorder(history.WithClock(gm.now))
	gm.reset()
	return gm
}

// reset puts the instance back to an empty Joining game. The caller holds mu
// or owns gm exclusively.
func (gm *GameMaster) reset() {
	gm.phase = game.Joining
	gm.board = game.NewBoard(gm.opts.Height, gm.opts.Width)
	gm.roster = &roster{}
	gm.report = nil
	gm.history.Reset()
	gm.publish()
}

// consumeRestart finishes a pending restart. The caller holds mu.
func (gm *GameMaster) consumeRestart() {
	if gm.phase != game.Restarting {
		return
	}
	gm.transition(game.Joining)
	gm.reset()
	log.Info().Msg("game reset, waiting for players")
}

func (gm *GameMaster) transition(to game.Phase) {
	next, err := gm.phase.Transition(to)
	if err != nil {
		panic(fmt.Sprintf("game master: %v", err))
	}
	gm.phase = next
}

func (gm *GameMaster) authorized(secret string) bool {
	return subtle.ConstantTimeCompare([]byte(secret), []byte(gm.opts.SecretCode)) == 1
}

func (gm *GameMaster) status() protocol.GameStatus {
	return protocol.GameStatus{
		GameState: gm.phase,
		Board:     protocol.NewBoard(gm.board, gm.roster.nameOf),
		Players:   gm.roster.names(),
	}
}

func (gm *GameMaster) publish() protocol.GameStatus {
	status := gm.status()
	gm.view.Store(&status)
	return status
}

// record publishes the current state and appends it to the history.
func (gm *GameMaster) record(label string) {
	status := gm.publish()
	gm.history.Record(label, status, gm.board.Hash())
	log.Debug().Msg(label)
}

// Join admits a player after checking that its agent answers at
// callbackAddress. It returns the player's private token.
func (gm *GameMaster) Join(ctx context.Context, name, callbackAddress string) (string, error) {
	gm.mu.Lock()
	gm.consumeRestart()
	phase := gm.phase
	gm.mu.Unlock()
	if phase != game.Joining {
		return "", fmt.Errorf("cannot join while %s: %w", phase, ErrPhaseViolation)
	}

	agent := gm.dial(callbackAddress)
	callCtx, cancel := context.WithTimeout(ctx, gm.opts.AgentTimeout)
	defer cancel()
	if err := agent.AreYouThere(callCtx); err != nil {
		return "", fmt.Errorf("%s at %s did not answer: %w", name, callbackAddress, err)
	}

	gm.mu.Lock()
	defer gm.mu.Unlock()
	// the game may have started during the liveness check
	if gm.phase != game.Joining {
		return "", fmt.Errorf("cannot join while %s: %w", gm.phase, ErrPhaseViolation)
	}
	token := gm.newToken()
	gm.roster.add(&seat{
		name:    name,
		token:   token,
		address: callbackAddress,
		agent:   agent,
	})
	gm.metrics.AgentJoined()
	gm.publish()
	log.Info().Msgf("%s joined from %s", name, callbackAddress)
	return token, nil
}

// Start begins the game in the background. The phase is checked before the
// secret, then the roster.
func (gm *GameMaster) Start(secret string) error {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	gm.consumeRestart()
	if gm.phase != game.Joining {
		return fmt.Errorf("cannot start while %s: %w", gm.phase, ErrPhaseViolation)
	}
	if !gm.authorized(secret) {
		return ErrUnauthorized
	}
	if gm.roster.count() == 0 {
		return ErrNoAgents
	}

	gm.transition(game.Deploying)
	gm.record(meta.LABEL_GAME_START)
	done := make(chan struct{})
	gm.done = done
	log.Info().Msgf("game started with %d players on a %dx%d board", gm.roster.count(), gm.opts.Height, gm.opts.Width)
	go gm.run(gm.ctx, done)
	return nil
}

// Restart schedules a fresh game. It is only allowed once a game is over;
// the reset happens on the next status, join or start request.
func (gm *GameMaster) Restart(secret string) error {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	if gm.phase != game.GameOver {
		return fmt.Errorf("cannot restart while %s: %w", gm.phase, ErrPhaseViolation)
	}
	if !gm.authorized(secret) {
		return ErrUnauthorized
	}
	gm.transition(game.Restarting)
	gm.publish()
	log.Info().Msg("game restart requested")
	return nil
}

// Status returns a consistent copy of the current game state.
func (gm *GameMaster) Status() protocol.GameStatus {
	gm.mu.Lock()
	gm.consumeRestart()
	gm.mu.Unlock()
	return gm.view.Load().Clone()
}

func (gm *GameMaster) Phase() game.Phase {
	return gm.Status().GameState
}

// PlayByPlay returns every snapshot recorded since the game started.
func (gm *GameMaster) PlayByPlay() []history.Snapshot {
	return gm.history.All()
}

// PlayByPlaySince returns the snapshots from index i on.
func (gm *GameMaster) PlayByPlaySince(i int) []history.Snapshot {
	return gm.history.Since(i)
}

// GameOverStats returns the final report of a finished game.
func (gm *GameMaster) GameOverStats() (protocol.GameOverRequest, error) {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	if gm.phase != game.GameOver || gm.report == nil {
		return protocol.GameOverRequest{}, fmt.Errorf("no stats while %s: %w", gm.phase, ErrPhaseViolation)
	}
	return gm.report.Clone(), nil
}

// Done is closed once the current game has finished and its report has been
// delivered. It is nil before the first start.
func (gm *GameMaster) Done() <-chan struct{} {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	return gm.done
}

// Wait blocks until the current game is done or ctx expires.
func (gm *GameMaster) Wait(ctx context.Context) error {
	done := gm.Done()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close aborts a running game. Outstanding agent calls are cancelled.
func (gm *GameMaster) Close() {
	gm.cancel()
}
