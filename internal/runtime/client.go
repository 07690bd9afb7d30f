// ABOUTME: Typed client for the agent-runtime service REST surface
// ABOUTME: Agent CRUD, channel provisioning and central-channel messaging

package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/2389/grimoire/internal/compile"
	"github.com/2389/grimoire/internal/transport"
)

// Client wraps the agent-runtime HTTP API. All calls inherit the
// transport's retry policy.
type Client struct {
	http     *transport.Client
	serverID string
	logger   *slog.Logger
}

// New creates a runtime client. All channels are created under the
// runtime's default (zero-UUID) server.
func New(t *transport.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		http:     t,
		serverID: uuid.Nil.String(),
		logger:   logger.With("component", "runtime"),
	}
}

// AuthorID derives a stable message author id from a wallet address, so
// repeat sessions keep one identity without storing a mapping.
func AuthorID(address string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(address)).String()
}

// CreateAgent registers a new agent definition and returns the id the
// runtime assigned to it.
func (c *Client) CreateAgent(ctx context.Context, def *compile.AgentDefinition) (string, error) {
	resp, err := c.http.Do(ctx, http.MethodPost, "/agents", map[string]any{
		"characterJson": def,
	})
	if err != nil {
		return "", fmt.Errorf("creating agent: %w", err)
	}

	var out struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := resp.Decode(&out); err != nil {
		return "", fmt.Errorf("creating agent: %w", err)
	}
	return out.Data.ID, nil
}

// UpdateAgent replaces an existing agent's definition.
func (c *Client) UpdateAgent(ctx context.Context, agentID string, def *compile.AgentDefinition) error {
	if _, err := c.http.Do(ctx, http.MethodPatch, "/agents/"+agentID, def); err != nil {
		return fmt.Errorf("updating agent %s: %w", agentID, err)
	}
	return nil
}

// StartAgent asks the runtime to start a deployed agent.
func (c *Client) StartAgent(ctx context.Context, agentID string) error {
	if _, err := c.http.Do(ctx, http.MethodPost, "/agents/"+agentID+"/start", nil); err != nil {
		return fmt.Errorf("starting agent %s: %w", agentID, err)
	}
	return nil
}

// StopAgent asks the runtime to stop a running agent.
func (c *Client) StopAgent(ctx context.Context, agentID string) error {
	if _, err := c.http.Do(ctx, http.MethodPost, "/agents/"+agentID+"/stop", nil); err != nil {
		return fmt.Errorf("stopping agent %s: %w", agentID, err)
	}
	return nil
}

// DeleteAgent removes the agent from the runtime.
func (c *Client) DeleteAgent(ctx context.Context, agentID string) error {
	if _, err := c.http.Do(ctx, http.MethodDelete, "/agents/"+agentID, nil); err != nil {
		return fmt.Errorf("deleting agent %s: %w", agentID, err)
	}
	return nil
}

// AgentStatus is the runtime's view of a deployed agent.
type AgentStatus struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// GetAgent fetches status and details for one agent.
func (c *Client) GetAgent(ctx context.Context, agentID string) (*AgentStatus, error) {
	resp, err := c.http.Do(ctx, http.MethodGet, "/agents/"+agentID, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching agent %s: %w", agentID, err)
	}

	var out struct {
		Data AgentStatus `json:"data"`
	}
	if err := resp.Decode(&out); err != nil {
		return nil, fmt.Errorf("fetching agent %s: %w", agentID, err)
	}
	return &out.Data, nil
}

// CreateChannel creates a group channel on the default server and
// returns its id.
func (c *Client) CreateChannel(ctx context.Context, name string) (string, error) {
	resp, err := c.http.Do(ctx, http.MethodPost, "/messaging/channels", map[string]any{
		"name":     name,
		"serverId": c.serverID,
		"type":     "group",
	})
	if err != nil {
		return "", fmt.Errorf("creating channel: %w", err)
	}

	var out struct {
		Data struct {
			Channel struct {
				ID string `json:"id"`
			} `json:"channel"`
		} `json:"data"`
	}
	if err := resp.Decode(&out); err != nil {
		return "", fmt.Errorf("creating channel: %w", err)
	}
	return out.Data.Channel.ID, nil
}

// AddAgentToChannel binds an agent to a central channel so it receives
// messages posted there.
func (c *Client) AddAgentToChannel(ctx context.Context, channelID, agentID string) error {
	path := "/messaging/central-channels/" + channelID + "/agents"
	if _, err := c.http.Do(ctx, http.MethodPost, path, map[string]any{"agentId": agentID}); err != nil {
		return fmt.Errorf("binding agent %s to channel %s: %w", agentID, channelID, err)
	}
	return nil
}
