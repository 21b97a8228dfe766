package game

import "fmt"

// Phase is the top-level state of a game instance. Deploying and Attacking
// together form the active game.
type Phase int

const (
	Joining Phase = iota
	Deploying
	Attacking
	GameOver
	Restarting
)

var phaseNames = map[Phase]string{
	Joining:    "Joining",
	Deploying:  "Deploying",
	Attacking:  "Attacking",
	GameOver:   "GameOver",
	Restarting: "Restarting",
}

// legal transitions; anything not listed is rejected
var transitions = map[Phase]Phase{
	Joining:    Deploying,
	Deploying:  Attacking,
	Attacking:  GameOver,
	GameOver:   Restarting,
	Restarting: Joining,
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

func (p Phase) IsActive() bool {
	return p == Deploying || p == Attacking
}

func (p Phase) CanTransition(to Phase) bool {
	next, ok := transitions[p]
	return ok && next == to
}

// Transition returns the new phase, or an error when the move is not legal.
func (p Phase) Transition(to Phase) (Phase, error) {
	if !p.CanTransition(to) {
		return p, fmt.Errorf("%s -> %s: %w", p, to, ErrIllegalTransition)
	}
	return to, nil
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	for phase, name := range phaseNames {
		if name == string(text) {
			*p = phase
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}
