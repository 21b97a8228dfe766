// Package client calls remote agents over HTTP on behalf of the game server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"riskserver/communication"
	"riskserver/protocol"
)

// AgentClient talks to one agent. Transport failures, non-success replies
// and expired deadlines wrap protocol.ErrAgentUnreachable; replies that do
// not decode wrap protocol.ErrProtocolViolation.
type AgentClient struct {
	baseURL string
	http    *http.Client
}

type Option func(*AgentClient)

func WithHTTPClient(c *http.Client) Option {
	return func(ac *AgentClient) {
		ac.http = c
	}
}

// NewAgentClient initializes a client for the agent at baseURL. Call
// deadlines come from the context of each request.
func NewAgentClient(baseURL string, opts ...Option) *AgentClient {
	ac := &AgentClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(ac)
	}
	return ac
}

func (ac *AgentClient) BaseURL() string {
	return ac.baseURL
}

// AreYouThere succeeds when the agent answers "yes", in any case.
func (ac *AgentClient) AreYouThere(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ac.baseURL+communication.AreYouThere, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", protocol.ErrAgentUnreachable, err)
	}
	body, err := ac.do(req)
	if err != nil {
		return err
	}
	answer := strings.Trim(strings.TrimSpace(string(body)), `"`)
	if !strings.EqualFold(answer, communication.AliveAnswer) {
		return fmt.Errorf("%w: unexpected liveness answer %q", protocol.ErrProtocolViolation, answer)
	}
	return nil
}

func (ac *AgentClient) DeployArmy(ctx context.Context, req protocol.DeployArmyRequest) (protocol.DeployArmyResponse, error) {
	var resp protocol.DeployArmyResponse
	err := ac.post(ctx, communication.DeployArmy, req, &resp)
	return resp, err
}

func (ac *AgentClient) BeginAttack(ctx context.Context, req protocol.BeginAttackRequest) (protocol.BeginAttackResponse, error) {
	var resp protocol.BeginAttackResponse
	err := ac.post(ctx, communication.BeginAttack, req, &resp)
	return resp, err
}

func (ac *AgentClient) ContinueAttacking(ctx context.Context, req protocol.ContinueAttackRequest) (protocol.ContinueAttackResponse, error) {
	var resp protocol.ContinueAttackResponse
	err := ac.post(ctx, communication.ContinueAttacking, req, &resp)
	return resp, err
}

// GameOver delivers the final report. The reply body is ignored.
func (ac *AgentClient) GameOver(ctx context.Context, req protocol.GameOverRequest) error {
	return ac.post(ctx, communication.GameOver, req, nil)
}

func (ac *AgentClient) post(ctx context.Context, path string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ac.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %w", protocol.ErrAgentUnreachable, err)
	}
	req.Header.Set("Content-Type", communication.ContentTypeJSON)
	req.Header.Set("Accept", communication.ContentTypeJSON)

	body, err := ac.do(req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode %s reply: %w", protocol.ErrProtocolViolation, path, err)
	}
	return nil
}

// do sends req and returns the body of a 2xx reply.
func (ac *AgentClient) do(req *http.Request) ([]byte, error) {
	res, err := ac.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", protocol.ErrAgentUnreachable, req.Method, req.URL.Path, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, communication.MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s reply: %w", protocol.ErrAgentUnreachable, req.URL.Path, err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s %s returned %s", protocol.ErrAgentUnreachable, req.Method, req.URL.Path, res.Status)
	}
	return body, nil
}
