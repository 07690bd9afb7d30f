// ABOUTME: Message types and send/list operations for central channels
// ABOUTME: Lists arrive newest-first and are reversed to chronological order

package runtime

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Source type markers on channel messages. A message is agent-authored
// iff its source type equals SourceAgentResponse; everything else is
// user or system traffic.
const (
	SourceAgentResponse = "agent_response"
	SourceUserMessage   = "user_message"
)

// Message is one message in a central channel.
type Message struct {
	ID         string    `json:"id"`
	ChannelID  string    `json:"channelId"`
	AuthorID   string    `json:"authorId"`
	Content    string    `json:"content"`
	SourceType string    `json:"sourceType"`
	CreatedAt  time.Time `json:"createdAt"`
}

// FromAgent reports whether the message was authored by the agent.
func (m *Message) FromAgent() bool {
	return m.SourceType == SourceAgentResponse
}

// SendRequest describes one outbound user message.
type SendRequest struct {
	ChannelID  string
	AuthorID   string
	AuthorName string
	Text       string
}

// SendMessage posts a user message into a central channel.
func (c *Client) SendMessage(ctx context.Context, req SendRequest) error {
	path := "/messaging/central-channels/" + req.ChannelID + "/messages"
	body := map[string]any{
		"author_id":   req.AuthorID,
		"content":     req.Text,
		"server_id":   c.serverID,
		"source_type": SourceUserMessage,
		"metadata": map[string]any{
			"user_display_name": req.AuthorName,
		},
	}
	if _, err := c.http.Do(ctx, http.MethodPost, path, body); err != nil {
		return fmt.Errorf("sending message to channel %s: %w", req.ChannelID, err)
	}
	return nil
}

// ListMessages fetches up to limit recent messages for a channel. The
// runtime returns them newest-first; the result here is chronological.
func (c *Client) ListMessages(ctx context.Context, channelID string, limit int) ([]Message, error) {
	path := "/messaging/central-channels/" + channelID + "/messages?limit=" + strconv.Itoa(limit)
	resp, err := c.http.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("listing messages for channel %s: %w", channelID, err)
	}

	var out struct {
		Data struct {
			Messages []Message `json:"messages"`
		} `json:"data"`
	}
	if err := resp.Decode(&out); err != nil {
		return nil, fmt.Errorf("listing messages for channel %s: %w", channelID, err)
	}

	messages := out.Data.Messages
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
