// Package agent is the player side of the game: a Strategy decides moves and
// Server exposes it on the routes the game server calls.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"riskserver/communication"
	"riskserver/game"
	"riskserver/protocol"
)

type Strategy interface {
	// DeployArmy picks where the next army goes.
	DeployArmy(req protocol.DeployArmyRequest) (game.Location, error)
	// BeginAttack picks the territory to attack from and the one to attack.
	BeginAttack(req protocol.BeginAttackRequest) (from, to game.Location, err error)
	// ContinueAttacking decides whether to fight another round on the same pair.
	ContinueAttacking(req protocol.ContinueAttackRequest) bool
	GameOver(req protocol.GameOverRequest)
}

// Join registers an agent listening at callbackAddress with the game server
// at serverURL and returns the player's token.
func Join(ctx context.Context, httpClient *http.Client, serverURL string, req protocol.JoinRequest) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	url := strings.TrimRight(serverURL, "/") + communication.Join
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", communication.ContentTypeJSON)

	res, err := httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("join %s: %w", url, err)
	}
	defer res.Body.Close()
	body, err := io.ReadAll(io.LimitReader(res.Body, communication.MaxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("join %s: %w", url, err)
	}
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("join %s: %s: %s", url, res.Status, strings.TrimSpace(string(body)))
	}
	var joined protocol.JoinResponse
	if err := json.Unmarshal(body, &joined); err != nil {
		return "", fmt.Errorf("join %s: %w", url, err)
	}
	return joined.Token, nil
}
