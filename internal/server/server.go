// ABOUTME: HTTP API surface the builder UI calls for deploy and chat
// ABOUTME: Maps the pipeline's error taxonomy onto status codes and machine codes

package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/2389/grimoire/internal/chat"
	"github.com/2389/grimoire/internal/compile"
	"github.com/2389/grimoire/internal/deploy"
	"github.com/2389/grimoire/internal/runtime"
	"github.com/2389/grimoire/internal/store"
)

// Deployer is what the server needs from the deploy orchestrator.
type Deployer interface {
	Deploy(ctx context.Context, req deploy.Request) (*deploy.Result, error)
	Delete(ctx context.Context, address, agentID string) error
}

// Chatter is what the server needs from the chat service.
type Chatter interface {
	EnsureChannel(ctx context.Context, address, agentID, roomName string) (*chat.Channel, error)
	MessageCount(ctx context.Context, channelID string) (int, error)
	SendAndAwait(ctx context.Context, req chat.SendRequest) (*chat.AwaitResult, error)
}

// StatusProvider is what the server needs for agent status lookups.
type StatusProvider interface {
	GetAgent(ctx context.Context, agentID string) (*runtime.AgentStatus, error)
}

// Server exposes the deploy pipeline over HTTP.
type Server struct {
	deployer Deployer
	chat     Chatter
	status   StatusProvider
	logger   *slog.Logger
}

// New creates a Server.
func New(deployer Deployer, chatter Chatter, status StatusProvider, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		deployer: deployer,
		chat:     chatter,
		status:   status,
		logger:   logger.With("component", "server"),
	}
}

// RegisterRoutes attaches all API routes to the mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/deploy", s.handleDeploy)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/agents/{id}", s.handleAgentStatus)
	mux.HandleFunc("DELETE /api/agents/{id}", s.handleAgentDelete)
	mux.HandleFunc("GET /health", s.handleHealth)

	s.logger.Info("api routes registered")
}

type deployRequest struct {
	Address string        `json:"address"`
	AgentID string        `json:"agentId,omitempty"`
	Nodes   compile.Graph `json:"nodes"`
}

type deployResponse struct {
	AgentID string `json:"agentId"`
	Name    string `json:"name"`
	Created bool   `json:"created"`
}

func (s *Server) handleDeploy(w http.ResponseWriter, r *http.Request) {
	var req deployRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	result, err := s.deployer.Deploy(r.Context(), deploy.Request{
		Address: req.Address,
		Graph:   req.Nodes,
		AgentID: req.AgentID,
	})
	if err != nil {
		s.writeDeployError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, deployResponse{
		AgentID: result.AgentID,
		Name:    result.Name,
		Created: result.Created,
	})
}

type chatRequest struct {
	Address  string `json:"address"`
	AgentID  string `json:"agentId"`
	Text     string `json:"text"`
	RoomName string `json:"roomName,omitempty"`
}

type chatResponse struct {
	Status   string            `json:"status"` // "ok" or "timeout"
	RoomID   string            `json:"roomId"`
	Messages []runtime.Message `json:"messages"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if req.Address == "" || req.AgentID == "" || req.Text == "" {
		s.writeError(w, http.StatusBadRequest, "validation_error", "address, agentId and text are required")
		return
	}

	channel, err := s.chat.EnsureChannel(r.Context(), req.Address, req.AgentID, req.RoomName)
	if err != nil {
		s.writeChatError(w, err)
		return
	}

	// A fresh channel has nothing in it; skip the baseline fetch.
	baseline := 0
	if !channel.IsNew {
		baseline, err = s.chat.MessageCount(r.Context(), channel.RoomID)
		if err != nil {
			s.writeChatError(w, err)
			return
		}
	}

	result, err := s.chat.SendAndAwait(r.Context(), chat.SendRequest{
		ChannelID:  channel.RoomID,
		AuthorID:   runtime.AuthorID(req.Address),
		AuthorName: "User",
		Text:       req.Text,
		Baseline:   baseline,
	})
	if err != nil {
		s.writeChatError(w, err)
		return
	}

	status := "ok"
	if result.TimedOut {
		// The send went through; the agent just hasn't replied yet.
		// The UI must be able to tell this apart from a failed send.
		status = "timeout"
	}
	s.writeJSON(w, http.StatusOK, chatResponse{
		Status:   status,
		RoomID:   channel.RoomID,
		Messages: result.Messages,
	})
}

func (s *Server) handleAgentStatus(w http.ResponseWriter, r *http.Request) {
	agentID := r.PathValue("id")
	status, err := s.status.GetAgent(r.Context(), agentID)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, "runtime_unavailable", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleAgentDelete(w http.ResponseWriter, r *http.Request) {
	agentID := r.PathValue("id")
	address := r.URL.Query().Get("address")

	if err := s.deployer.Delete(r.Context(), address, agentID); err != nil {
		s.writeDeployError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeDeployError maps deploy taxonomy onto HTTP. local_persist_failed
// and remote_deploy_failed must stay distinguishable: the former means
// "deployed but not linked to your account", the latter "never deployed,
// just retry".
func (s *Server) writeDeployError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, deploy.ErrValidation):
		s.writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, deploy.ErrUserNotFound):
		s.writeError(w, http.StatusNotFound, "user_not_found", err.Error())
	case errors.Is(err, deploy.ErrRemoteDeploy):
		s.writeError(w, http.StatusBadGateway, "remote_deploy_failed", err.Error())
	case errors.Is(err, deploy.ErrLocalPersist):
		s.writeError(w, http.StatusInternalServerError, "local_persist_failed", err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func (s *Server) writeChatError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, chat.ErrChannelCreate):
		s.writeError(w, http.StatusBadGateway, "channel_create_failed", err.Error())
	case errors.Is(err, chat.ErrSendFailed):
		s.writeError(w, http.StatusBadGateway, "send_failed", err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, msg string) {
	s.logger.Debug("request failed", "status", status, "code", code, "error", msg)
	s.writeJSON(w, status, errorResponse{Code: code, Error: msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response failed", "error", err)
	}
}
