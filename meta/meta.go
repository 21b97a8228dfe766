// meta/meta.go
package meta

import "time"

// MAX_FAILED_TRIES is the number of consecutive failed requests after which
// an agent is booted from the game.
const MAX_FAILED_TRIES = 5

// Defaults used when the configuration leaves a value unset.
const (
	DEFAULT_HEIGHT          = 5
	DEFAULT_WIDTH           = 5
	DEFAULT_STARTING_ARMIES = 5
	DEFAULT_AGENT_TIMEOUT   = 10 * time.Second
	DEFAULT_STATUS_TTL      = time.Second
	DEFAULT_LISTEN          = ":5000"
)

// Labels recorded in the play-by-play history for game-level events.
const (
	LABEL_GAME_START = "Game start!"
	LABEL_GAME_OVER  = "Game over!"
)
