// Package communication holds the HTTP routes shared by the game server, the
// agent client and the agent harness.
package communication

import "time"

// Routes every agent serves, relative to its callback base address.
const (
	AreYouThere       = "/areYouThere"
	DeployArmy        = "/deployArmy"
	BeginAttack       = "/beginAttack"
	ContinueAttacking = "/continueAttacking"
	GameOver          = "/gameOver"
)

// Routes the game server serves.
const (
	Join             = "/join"
	StartGame        = "/startGame"
	RestartGame      = "/restartGame"
	Status           = "/status"
	PlayByPlay       = "/playByPlay"
	PlayByPlayStream = "/playByPlay/stream"
	GameOverStats    = "/gameOverStats"
	Metrics          = "/metrics"
)

const (
	ContentTypeJSON = "application/json"
	ContentTypeCBOR = "application/cbor"
)

// MaxBodyBytes bounds every request and response body read from the wire.
const MaxBodyBytes = 1 << 20

// AliveAnswer is the body an agent returns from AreYouThere.
const AliveAnswer = "yes"

// ReadHeaderTimeout is applied to every HTTP server in the module.
const ReadHeaderTimeout = 5 * time.Second
