package game

// Rules resolves a single round of combat. The board validates the attack and
// applies the losses; how the losses are decided is up to the implementation.
type Rules interface {
	// Battle returns the armies lost by each side when attackers (armies able
	// to attack, i.e. excluding the one left behind) fight defenders.
	Battle(attackers, defenders int) (attackerLosses, defenderLosses int)
}
