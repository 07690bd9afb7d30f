// ABOUTME: Channel provisioning and send-then-poll response synchronization
// ABOUTME: Best-effort side calls never abort; poll timeout is a soft outcome

package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/2389/grimoire/internal/runtime"
	"github.com/2389/grimoire/internal/store"
)

var (
	// ErrChannelCreate means no usable channel exists for the session.
	ErrChannelCreate = errors.New("channel creation failed")

	// ErrSendFailed means the outbound message never reached the
	// runtime. Distinct from a poll timeout: the UI tells the user "try
	// sending again" rather than "the agent hasn't replied yet".
	ErrSendFailed = errors.New("message send failed")
)

const (
	defaultPollAttempts = 10
	defaultPollInterval = 2 * time.Second

	// fetchLimit bounds each poll's message list request.
	fetchLimit = 50

	// addressPrefixLen is how much of the wallet address lands in a
	// generated room name.
	addressPrefixLen = 8
)

// Store is what the chat service needs from persistence.
type Store interface {
	FindUserByAddress(ctx context.Context, address string) (*store.User, error)
	SetAgentRoom(ctx context.Context, address, agentID, roomID string) error
}

// Runtime is what the chat service needs from the agent runtime.
type Runtime interface {
	StartAgent(ctx context.Context, agentID string) error
	CreateChannel(ctx context.Context, name string) (string, error)
	AddAgentToChannel(ctx context.Context, channelID, agentID string) error
	SendMessage(ctx context.Context, req runtime.SendRequest) error
	ListMessages(ctx context.Context, channelID string, limit int) ([]runtime.Message, error)
}

// Config tunes the poll loop. Zero values fall back to the defaults
// (10 attempts, 2s apart).
type Config struct {
	PollAttempts int
	PollInterval time.Duration
}

// Service provisions channels and synchronizes on agent replies.
type Service struct {
	store    Store
	runtime  Runtime
	logger   *slog.Logger
	attempts int
	interval time.Duration

	// delay is swapped out in tests so polls don't sleep for real.
	delay func(ctx context.Context, d time.Duration) error
}

// New creates a chat service.
func New(s Store, rt Runtime, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PollAttempts <= 0 {
		cfg.PollAttempts = defaultPollAttempts
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	return &Service{
		store:    s,
		runtime:  rt,
		logger:   logger.With("component", "chat"),
		attempts: cfg.PollAttempts,
		interval: cfg.PollInterval,
		delay:    sleepContext,
	}
}

// Channel is the result of EnsureChannel.
type Channel struct {
	RoomID string
	IsNew  bool
}

// EnsureChannel returns the communication channel for an (agent, user)
// pair, creating one if the agent's record doesn't cache a room id yet.
// The cached path is terminal and makes no network calls - it is the
// common case for repeat chat sessions.
//
// Start and bind are best-effort: the agent may already be running, and
// a channel without a binding is still usable. Only channel creation
// itself is fatal. If caching the new room id fails, the channel is
// still returned - the next session just re-creates one, which is a
// rare, low-cost duplication.
func (s *Service) EnsureChannel(ctx context.Context, address, agentID, roomName string) (*Channel, error) {
	user, err := s.store.FindUserByAddress(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	record := user.Agent(agentID)
	if record == nil {
		return nil, fmt.Errorf("agent %s: %w", agentID, store.ErrNotFound)
	}

	if record.RoomID != "" {
		return &Channel{RoomID: record.RoomID, IsNew: false}, nil
	}

	if err := s.runtime.StartAgent(ctx, agentID); err != nil {
		s.logger.Warn("start before channel create failed", "agent_id", agentID, "error", err)
	}

	if roomName == "" {
		roomName = defaultRoomName(record.Name, address)
	}
	roomID, err := s.runtime.CreateChannel(ctx, roomName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChannelCreate, err)
	}
	if roomID == "" {
		return nil, fmt.Errorf("%w: runtime response carried no channel id", ErrChannelCreate)
	}

	if err := s.runtime.AddAgentToChannel(ctx, roomID, agentID); err != nil {
		s.logger.Warn("agent bind failed, channel still usable",
			"agent_id", agentID,
			"room_id", roomID,
			"error", err)
	}

	if err := s.store.SetAgentRoom(ctx, address, agentID, roomID); err != nil {
		s.logger.Warn("room id not cached, next session will create a new channel",
			"agent_id", agentID,
			"room_id", roomID,
			"error", err)
	}

	s.logger.Info("channel provisioned", "agent_id", agentID, "room_id", roomID, "name", roomName)
	return &Channel{RoomID: roomID, IsNew: true}, nil
}

// MessageCount returns the channel's current message count, used as the
// baseline before a send.
func (s *Service) MessageCount(ctx context.Context, channelID string) (int, error) {
	messages, err := s.runtime.ListMessages(ctx, channelID, fetchLimit)
	if err != nil {
		return 0, fmt.Errorf("fetching baseline for channel %s: %w", channelID, err)
	}
	return len(messages), nil
}

// SendRequest describes one send-and-await exchange. Baseline is the
// channel's message count before the send; a reply is recognized when
// the list grows past it and ends in an agent-authored message.
type SendRequest struct {
	ChannelID  string
	AuthorID   string
	AuthorName string
	Text       string
	Baseline   int
}

// AwaitResult carries the channel's messages after the exchange.
// TimedOut set means the send succeeded but no reply appeared within
// the attempt budget - the messages still show what exists.
type AwaitResult struct {
	Messages []runtime.Message
	TimedOut bool
}

// SendAndAwait sends a message and polls the channel until the agent
// replies or the attempt budget runs out. The runtime exposes no push
// channel to this caller, so polling is the synchronization mechanism;
// swap this method's body if that ever changes, the contract holds.
//
// Fetch failures inside the loop are transient: logged, attempt
// consumed, loop continues. Exhaustion is a soft outcome, not an error.
func (s *Service) SendAndAwait(ctx context.Context, req SendRequest) (*AwaitResult, error) {
	err := s.runtime.SendMessage(ctx, runtime.SendRequest{
		ChannelID:  req.ChannelID,
		AuthorID:   req.AuthorID,
		AuthorName: req.AuthorName,
		Text:       req.Text,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	var last []runtime.Message
	for attempt := 1; attempt <= s.attempts; attempt++ {
		if attempt > 1 {
			if err := s.delay(ctx, s.interval); err != nil {
				return nil, err
			}
		}

		messages, err := s.runtime.ListMessages(ctx, req.ChannelID, fetchLimit)
		if err != nil {
			s.logger.Debug("poll fetch failed",
				"channel_id", req.ChannelID,
				"attempt", attempt,
				"error", err)
			continue
		}
		last = messages

		if len(messages) > req.Baseline && messages[len(messages)-1].FromAgent() {
			return &AwaitResult{Messages: messages}, nil
		}
	}

	s.logger.Info("no agent reply within attempt budget",
		"channel_id", req.ChannelID,
		"attempts", s.attempts,
		"baseline", req.Baseline)
	return &AwaitResult{Messages: last, TimedOut: true}, nil
}

// defaultRoomName builds "{agentName} - {truncated address}".
func defaultRoomName(agentName, address string) string {
	short := address
	if len(short) > addressPrefixLen {
		short = short[:addressPrefixLen]
	}
	return agentName + " - " + short
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
