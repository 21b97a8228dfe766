package gamemaster

import (
	"fmt"
	"sort"
	"time"

	"riskserver/game"
	"riskserver/metrics"
	"riskserver/protocol"

	"github.com/rs/zerolog/log"
)

// Score is 2 points per territory held plus 1 point per army on the board.
func Score(territories, armies int) int {
	return 2*territories + armies
}

// Rank scores every player on the board and orders them by descending
// score. Ties keep the order players are given in.
func Rank(board *game.Board, players []Player) []metrics.Standing {
	standings := make([]metrics.Standing, len(players))
	for i, p := range players {
		territories := board.TerritoryCount(p.Token)
		armies := board.Armies(p.Token)
		standings[i] = metrics.Standing{
			Name:        p.Name,
			Territories: territories,
			Armies:      armies,
			Score:       Score(territories, armies),
		}
	}
	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Score > standings[j].Score
	})
	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings
}

// Player names a board owner.
type Player struct {
	Name  string
	Token string
}

func (gm *GameMaster) standings() []metrics.Standing {
	live := gm.roster.live()
	players := make([]Player, len(live))
	for i, s := range live {
		players[i] = Player{Name: s.name, Token: s.token}
	}
	return Rank(gm.board, players)
}

func (gm *GameMaster) newReport(standings []metrics.Standing, duration time.Duration) protocol.GameOverRequest {
	report := protocol.GameOverRequest{
		FinalBoard:   gm.wireBoard(),
		GameDuration: duration.String(),
		FinalScores:  make([]string, len(standings)),
	}
	for i, s := range standings {
		report.FinalScores[i] = fmt.Sprintf("%s (%d)", s.Name, s.Score)
	}
	if len(standings) > 0 {
		report.WinnerName = standings[0].Name
	}
	return report
}

func (gm *GameMaster) writeStandings(end time.Time, duration time.Duration, standings []metrics.Standing) {
	if gm.results == nil {
		return
	}
	path, err := gm.results.WriteStandings(end, duration, standings)
	if err != nil {
		log.Error().Err(err).Msg("could not write standings")
		return
	}
	log.Info().Msgf("standings written to %s", path)
}
