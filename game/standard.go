package game

import (
	"sort"

	"golang.org/x/exp/rand"
)

// StandardRules is classic dice combat: the attacker rolls up to three dice,
// the defender up to two, highest dice are compared pairwise and ties go to
// the defender.
type StandardRules struct {
	MaxAttackDice int
	MaxDefendDice int
	rng           *rand.Rand
}

func NewStandardRules() *StandardRules {
	return &StandardRules{
		MaxAttackDice: 3,
		MaxDefendDice: 2,
	}
}

// NewSeededRules returns standard rules with a deterministic dice sequence.
func NewSeededRules(seed uint64) *StandardRules {
	sr := NewStandardRules()
	sr.rng = rand.New(rand.NewSource(seed))
	return sr
}

func (sr *StandardRules) Battle(attackers, defenders int) (attackerLosses, defenderLosses int) {
	attackerRolls := sr.rollDice(min(attackers, sr.MaxAttackDice))
	defenderRolls := sr.rollDice(min(defenders, sr.MaxDefendDice))
	return sr.DetermineAttackOutcome(attackerRolls, defenderRolls)
}

// DetermineAttackOutcome compares dice sorted in descending order.
func (sr *StandardRules) DetermineAttackOutcome(attackerRolls, defenderRolls []int) (attackerLosses, defenderLosses int) {
	battles := min(len(attackerRolls), len(defenderRolls))
	for i := 0; i < battles; i++ {
		if attackerRolls[i] > defenderRolls[i] {
			defenderLosses++
		} else {
			attackerLosses++
		}
	}
	return
}

func (sr *StandardRules) rollDice(num int) []int {
	rolls := make([]int, max(num, 0))
	for i := range rolls {
		if sr.rng != nil {
			rolls[i] = sr.rng.Intn(6) + 1
		} else {
			rolls[i] = rand.Intn(6) + 1
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(rolls)))
	return rolls
}
