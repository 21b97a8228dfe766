package gamemaster

import (
	"context"
	"errors"
	"fmt"

	"riskserver/game"
	"riskserver/meta"
	"riskserver/protocol"

	"github.com/rs/zerolog/log"
)

// run plays one game from deployment to the final report and closes done.
func (gm *GameMaster) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	gm.startTime = gm.now()
	gm.deployArmies(ctx)

	gm.mu.Lock()
	gm.transition(game.Attacking)
	gm.publish()
	gm.mu.Unlock()

	gm.doBattle(ctx)
	gm.finish(ctx)
}

func (gm *GameMaster) wireBoard() []protocol.BoardTerritory {
	return protocol.NewBoard(gm.board, gm.roster.nameOf)
}

// boardFor is the board as sent to s.
func (gm *GameMaster) boardFor(s *seat) []protocol.BoardTerritory {
	return protocol.NewBoardFor(gm.board, gm.roster.nameOf, s.token)
}

func (gm *GameMaster) territoryFor(s *seat, loc game.Location) protocol.BoardTerritory {
	t, _ := gm.board.Territory(loc)
	bt := protocol.NewBoardTerritory(t, gm.roster.nameOf)
	bt.Yours = !t.IsUnowned() && t.Owner == s.token
	return bt
}

// deployArmies goes round the table one army at a time until every player
// still in the game has placed all of its starting armies.
func (gm *GameMaster) deployArmies(ctx context.Context) {
	for ctx.Err() == nil && gm.board.TotalArmies() < gm.opts.StartingArmies*gm.roster.count() {
		for h := handle(0); int(h) < gm.roster.len(); h++ {
			s := gm.roster.at(h)
			if s == nil || s.deployed >= gm.opts.StartingArmies {
				continue
			}
			gm.deployTurn(ctx, s, h)
			if ctx.Err() != nil {
				return
			}
		}
	}
}

// deployTurn asks s for a location until one army is placed or s is booted.
func (gm *GameMaster) deployTurn(ctx context.Context, s *seat, h handle) {
	status := protocol.YourTurn
	for {
		loc, err := gm.askForDeployLocation(ctx, s, status)
		if err == nil {
			err = gm.placeArmy(s, loc)
		}
		if err == nil {
			gm.succeeded(s)
			s.deployed++
			gm.metrics.ArmyDeployed()
			gm.record(fmt.Sprintf("%s deployed to %s", s.name, loc))
			return
		}
		if ctx.Err() != nil {
			return
		}
		if gm.failed(s, h, err) {
			return
		}
		status = protocol.PreviousAttemptFailed
	}
}

func (gm *GameMaster) askForDeployLocation(ctx context.Context, s *seat, status protocol.DeploymentStatus) (game.Location, error) {
	req := protocol.DeployArmyRequest{
		Board:           gm.boardFor(s),
		Status:          status,
		ArmiesRemaining: gm.opts.StartingArmies - s.deployed,
	}
	callCtx, cancel := context.WithTimeout(ctx, gm.opts.AgentTimeout)
	defer cancel()
	resp, err := s.agent.DeployArmy(callCtx, req)
	if err != nil {
		return game.Location{}, err
	}
	if err := resp.Validate(); err != nil {
		return game.Location{}, err
	}
	return *resp.DesiredLocation, nil
}

func (gm *GameMaster) placeArmy(s *seat, loc game.Location) error {
	if gm.phase != game.Deploying {
		return fmt.Errorf("deploy while %s: %w", gm.phase, ErrPhaseViolation)
	}
	if err := gm.board.PlaceArmy(s.token, loc, gm.opts.MaxArmiesPerTerritory); err != nil {
		return fmt.Errorf("%w: %w", ErrRuleViolation, err)
	}
	return nil
}

// doBattle gives every remaining player an attack turn in join order until
// one player is left or nobody can attack.
func (gm *GameMaster) doBattle(ctx context.Context) {
	for ctx.Err() == nil && gm.roster.count() > 1 && gm.anyCanAttack() {
		for h := handle(0); int(h) < gm.roster.len(); h++ {
			if ctx.Err() != nil || gm.roster.count() <= 1 {
				return
			}
			s := gm.roster.at(h)
			if s == nil {
				continue
			}
			if !gm.board.CanAttack(s.token) {
				gm.record(fmt.Sprintf("%s cannot attack.", s.name))
				continue
			}
			gm.attackTurn(ctx, s, h)
		}
	}
}

func (gm *GameMaster) anyCanAttack() bool {
	for _, s := range gm.roster.live() {
		if gm.board.CanAttack(s.token) {
			return true
		}
	}
	return false
}

// attackTurn runs one player's turn: an opening attack, retried until it is
// valid or the player is booted, then as many follow-up rounds on the same
// pair as the player asks for.
func (gm *GameMaster) attackTurn(ctx context.Context, s *seat, h handle) {
	status := protocol.Normal
	var from, to game.Location
	var result game.AttackResult
	for {
		var err error
		from, to, err = gm.askForAttackLocation(ctx, s, status)
		if err == nil {
			result, err = gm.tryAttack(s, from, to)
			if err != nil {
				gm.record(fmt.Sprintf("Invalid attack request! %s from %s to %s: %v", s.name, from, to, err))
			}
		} else if errors.Is(err, protocol.ErrProtocolViolation) {
			gm.record(fmt.Sprintf("Invalid attack request! %s: %v", s.name, err))
		}
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return
		}
		if gm.failed(s, h, err) {
			return
		}
		status = protocol.PreviousAttackRequestFailed
	}
	gm.succeeded(s)

	for result.CanContinue {
		keepGoing, err := gm.askContinueAttacking(ctx, s, from, to)
		if err != nil {
			if ctx.Err() == nil {
				gm.failed(s, h, err)
			}
			return
		}
		gm.succeeded(s)
		if !keepGoing {
			log.Debug().Msgf("%s stops attacking %s", s.name, to)
			return
		}
		result, err = gm.tryAttack(s, from, to)
		if err != nil {
			gm.record(fmt.Sprintf("Invalid attack request! %s from %s to %s: %v", s.name, from, to, err))
			gm.failed(s, h, err)
			return
		}
	}
}

func (gm *GameMaster) askForAttackLocation(ctx context.Context, s *seat, status protocol.BeginAttackStatus) (game.Location, game.Location, error) {
	req := protocol.BeginAttackRequest{
		Board:  gm.boardFor(s),
		Status: status,
	}
	callCtx, cancel := context.WithTimeout(ctx, gm.opts.AgentTimeout)
	defer cancel()
	resp, err := s.agent.BeginAttack(callCtx, req)
	if err != nil {
		return game.Location{}, game.Location{}, err
	}
	if err := resp.Validate(); err != nil {
		return game.Location{}, game.Location{}, err
	}
	return *resp.From, *resp.To, nil
}

func (gm *GameMaster) askContinueAttacking(ctx context.Context, s *seat, from, to game.Location) (bool, error) {
	req := protocol.ContinueAttackRequest{
		Board:              gm.boardFor(s),
		AttackingTerritory: gm.territoryFor(s, from),
		DefendingTerritory: gm.territoryFor(s, to),
	}
	callCtx, cancel := context.WithTimeout(ctx, gm.opts.AgentTimeout)
	defer cancel()
	resp, err := s.agent.ContinueAttacking(callCtx, req)
	if err != nil {
		return false, err
	}
	if err := resp.Validate(); err != nil {
		return false, err
	}
	return *resp.ContinueAttacking, nil
}

// tryAttack resolves one round between from and to and records it.
func (gm *GameMaster) tryAttack(s *seat, from, to game.Location) (game.AttackResult, error) {
	if gm.phase != game.Attacking {
		return game.AttackResult{}, fmt.Errorf("attack while %s: %w", gm.phase, ErrPhaseViolation)
	}
	defender := "nobody"
	if t, ok := gm.board.Territory(to); ok && !t.IsUnowned() {
		defender = gm.roster.nameOf(t.Owner)
	}
	result, err := gm.board.Attack(s.token, from, to, gm.rules)
	if err != nil {
		return result, fmt.Errorf("%w: %w", ErrRuleViolation, err)
	}
	gm.metrics.AttackResolved(result.Conquered)

	outcome := fmt.Sprintf("attacker lost %d, defender lost %d", result.AttackerLosses, result.DefenderLosses)
	if result.Conquered {
		outcome += ", territory conquered"
	}
	gm.record(fmt.Sprintf("%s attacked %s from %s to %s: %s", s.name, defender, from, to, outcome))
	return result, nil
}

// finish ends the game, publishes the report and delivers it to every
// remaining player. Delivery failures are only logged.
func (gm *GameMaster) finish(ctx context.Context) {
	end := gm.now()
	duration := end.Sub(gm.startTime)
	standings := gm.standings()
	report := gm.newReport(standings, duration)
	recipients := gm.roster.live()

	gm.mu.Lock()
	gm.transition(game.GameOver)
	gm.report = &report
	gm.record(meta.LABEL_GAME_OVER)
	gm.mu.Unlock()

	gm.metrics.GameCompleted(duration)
	if report.WinnerName != "" {
		log.Info().Msgf("game over after %s, %s wins", duration, report.WinnerName)
	} else {
		log.Info().Msgf("game over after %s, no players left", duration)
	}
	gm.writeStandings(end, duration, standings)
	gm.reportWinner(ctx, recipients, report)
}

func (gm *GameMaster) reportWinner(ctx context.Context, recipients []*seat, report protocol.GameOverRequest) {
	for _, s := range recipients {
		callCtx, cancel := context.WithTimeout(ctx, gm.opts.AgentTimeout)
		err := s.agent.GameOver(callCtx, report.Clone())
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("player", s.name).Msg("could not deliver game over report")
		}
	}
}
