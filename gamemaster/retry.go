package gamemaster

import (
	"fmt"

	"riskserver/meta"

	"github.com/rs/zerolog/log"
)

// failed counts one failed request against s and boots it once the
// threshold is reached. It reports whether s was booted.
//
// The counter runs across turns and phases; only a successful request
// clears it.
func (gm *GameMaster) failed(s *seat, h handle, err error) bool {
	s.failures++
	reason := failureReason(err)
	gm.metrics.AgentFailed(reason)
	log.Warn().Err(err).Str("player", s.name).Str("reason", reason).Msgf("failed request %d/%d", s.failures, meta.MAX_FAILED_TRIES)
	if s.failures < meta.MAX_FAILED_TRIES {
		return false
	}
	gm.boot(s, h, fmt.Errorf("%w: %w", ErrBootThresholdReached, err))
	return true
}

func (gm *GameMaster) succeeded(s *seat) {
	s.failures = 0
}

// boot removes a player and frees all its territories.
func (gm *GameMaster) boot(s *seat, h handle, cause error) {
	freed := gm.board.Release(s.token)
	gm.roster.remove(h)
	gm.metrics.AgentBooted()
	log.Info().Err(cause).Msgf("%s booted, %d territories freed", s.name, freed)
	gm.record(fmt.Sprintf("%s was booted from the game! BYE...", s.name))
}
