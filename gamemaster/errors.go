package gamemaster

import (
	"errors"

	"riskserver/metrics"
	"riskserver/protocol"
)

var (
	// ErrPhaseViolation is returned for requests that are not legal in the
	// current phase. Nothing changes.
	ErrPhaseViolation = errors.New("request not allowed in current phase")
	// ErrUnauthorized is returned for privileged requests with the wrong
	// secret code. Nothing changes.
	ErrUnauthorized = errors.New("secret code does not match")
	// ErrRuleViolation wraps a well-formed agent decision that breaks a game rule.
	ErrRuleViolation = errors.New("move violates game rules")
	// ErrBootThresholdReached marks the failure that removed an agent.
	ErrBootThresholdReached = errors.New("too many failed requests")
	ErrNoAgents             = errors.New("no agents have joined")
)

// failureReason classifies an agent failure for metrics and logs. Anything
// not recognised is treated as a transport failure.
func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrRuleViolation):
		return metrics.ReasonRule
	case errors.Is(err, protocol.ErrProtocolViolation):
		return metrics.ReasonProtocol
	default:
		return metrics.ReasonUnreachable
	}
}
