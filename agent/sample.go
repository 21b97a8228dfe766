package agent

import (
	"errors"
	"sort"
	"sync"
	"time"

	"riskserver/game"
	"riskserver/protocol"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

var (
	ErrNoFreeTerritory = errors.New("no territory left to deploy to")
	ErrNoAttack        = errors.New("no territory I can attack")
)

// SampleStrategy keeps piling armies on its first territory, attacks the
// weakest enemy next to its strongest territory, and flips a coin on
// whether to keep attacking.
type SampleStrategy struct {
	Name string

	mu  sync.Mutex
	rng *rand.Rand
}

func NewSampleStrategy(name string) *SampleStrategy {
	return NewSeededSampleStrategy(name, uint64(time.Now().UnixNano()))
}

func NewSeededSampleStrategy(name string, seed uint64) *SampleStrategy {
	return &SampleStrategy{
		Name: name,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

// DeployArmy reinforces the first owned territory. Without one, or after a
// refused deployment, it takes the first free territory from the middle of
// the board on.
func (s *SampleStrategy) DeployArmy(req protocol.DeployArmyRequest) (game.Location, error) {
	if req.Status != protocol.PreviousAttemptFailed {
		for _, t := range req.Board {
			if t.Yours {
				return t.Location, nil
			}
		}
	}
	middle := len(req.Board) / 2
	for i := range req.Board {
		t := req.Board[(middle+i)%len(req.Board)]
		if t.OwnerName == "" {
			return t.Location, nil
		}
	}
	return game.Location{}, ErrNoFreeTerritory
}

func (s *SampleStrategy) BeginAttack(req protocol.BeginAttackRequest) (game.Location, game.Location, error) {
	var mine []protocol.BoardTerritory
	for _, t := range req.Board {
		if t.Yours && t.Armies >= 2 {
			mine = append(mine, t)
		}
	}
	sort.SliceStable(mine, func(i, j int) bool { return mine[i].Armies > mine[j].Armies })

	for _, from := range mine {
		var targets []protocol.BoardTerritory
		for _, t := range req.Board {
			if from.Location.IsAdjacent(t.Location) && !t.Yours && t.Armies >= 1 {
				targets = append(targets, t)
			}
		}
		if len(targets) == 0 {
			continue
		}
		sort.SliceStable(targets, func(i, j int) bool { return targets[i].Armies < targets[j].Armies })
		return from.Location, targets[0].Location, nil
	}
	return game.Location{}, game.Location{}, ErrNoAttack
}

func (s *SampleStrategy) ContinueAttacking(req protocol.ContinueAttackRequest) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(2) == 1
}

func (s *SampleStrategy) GameOver(req protocol.GameOverRequest) {
	log.Info().Msgf("game over after %s, winner %s, scores %v", req.GameDuration, req.WinnerName, req.FinalScores)
}
