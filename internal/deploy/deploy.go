// ABOUTME: Deployment orchestrator - decides create vs update and reconciles
// ABOUTME: Remote failures never touch the store; local failures stay distinct

package deploy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/2389/grimoire/internal/compile"
	"github.com/2389/grimoire/internal/store"
)

// Deploy error taxonomy. ErrRemoteDeploy means the agent never reached
// the runtime (safe to just retry). ErrLocalPersist means the runtime
// has the agent but the user's record wasn't written - the caller must
// surface that distinctly so the user can reconcile instead of
// redeploying a duplicate.
var (
	ErrValidation   = errors.New("invalid deploy request")
	ErrUserNotFound = errors.New("user not found")
	ErrRemoteDeploy = errors.New("remote deploy failed")
	ErrLocalPersist = errors.New("agent deployed but not linked to user")
)

// Store is what the orchestrator needs from persistence.
type Store interface {
	FindUserByAddress(ctx context.Context, address string) (*store.User, error)
	AppendAgent(ctx context.Context, address string, agent *store.AgentRecord) error
	UpdateAgent(ctx context.Context, address, agentID string, update store.AgentUpdate) error
	RemoveAgent(ctx context.Context, address, agentID string) error
}

// Runtime is what the orchestrator needs from the agent runtime.
type Runtime interface {
	CreateAgent(ctx context.Context, def *compile.AgentDefinition) (string, error)
	UpdateAgent(ctx context.Context, agentID string, def *compile.AgentDefinition) error
	StopAgent(ctx context.Context, agentID string) error
	DeleteAgent(ctx context.Context, agentID string) error
}

// Deployer compiles graphs and drives them through the runtime and the
// store.
type Deployer struct {
	store   Store
	runtime Runtime
	creds   compile.CredentialResolver
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a Deployer.
func New(s Store, rt Runtime, creds compile.CredentialResolver, logger *slog.Logger) *Deployer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Deployer{
		store:   s,
		runtime: rt,
		creds:   creds,
		logger:  logger.With("component", "deploy"),
		now:     time.Now,
	}
}

// Request describes one deploy. AgentID empty means first deploy
// (create); set means redeploy (update in place).
type Request struct {
	Address string
	Graph   compile.Graph
	AgentID string
}

// Result reports the deployed agent.
type Result struct {
	AgentID string
	Name    string
	Created bool
}

// Deploy compiles the graph and creates or updates the remote agent,
// then reconciles the user's stored record. Steps are strictly
// sequential; the store is never touched before the remote call
// succeeds, and a freshly created remote agent is never rolled back on
// a local write failure - the user can still recover it by retrying.
func (d *Deployer) Deploy(ctx context.Context, req Request) (*Result, error) {
	if req.Address == "" {
		return nil, fmt.Errorf("%w: address is required", ErrValidation)
	}
	if len(req.Graph) == 0 {
		return nil, fmt.Errorf("%w: configuration graph is empty", ErrValidation)
	}

	if _, err := d.store.FindUserByAddress(ctx, req.Address); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, req.Address)
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	def := compile.Transform(req.Graph, d.creds)

	if req.AgentID != "" {
		return d.redeploy(ctx, req, &def)
	}
	return d.firstDeploy(ctx, req, &def)
}

func (d *Deployer) firstDeploy(ctx context.Context, req Request, def *compile.AgentDefinition) (*Result, error) {
	agentID, err := d.runtime.CreateAgent(ctx, def)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteDeploy, err)
	}
	if agentID == "" {
		return nil, fmt.Errorf("%w: runtime response carried no agent id", ErrRemoteDeploy)
	}

	now := d.now()
	record := &store.AgentRecord{
		ID:        agentID,
		Name:      def.Name,
		Nodes:     req.Graph,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := d.store.AppendAgent(ctx, req.Address, record); err != nil {
		// The remote agent exists but isn't on the user's record.
		d.logger.Error("agent created remotely but not persisted",
			"agent_id", agentID,
			"address", req.Address,
			"error", err)
		return nil, fmt.Errorf("%w: %v", ErrLocalPersist, err)
	}

	d.logger.Info("agent deployed", "agent_id", agentID, "name", def.Name, "address", req.Address)
	return &Result{AgentID: agentID, Name: def.Name, Created: true}, nil
}

func (d *Deployer) redeploy(ctx context.Context, req Request, def *compile.AgentDefinition) (*Result, error) {
	if err := d.runtime.UpdateAgent(ctx, req.AgentID, def); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteDeploy, err)
	}

	err := d.store.UpdateAgent(ctx, req.Address, req.AgentID, store.AgentUpdate{
		Name:      def.Name,
		Nodes:     req.Graph,
		UpdatedAt: d.now(),
	})
	if err != nil {
		d.logger.Error("agent updated remotely but not persisted",
			"agent_id", req.AgentID,
			"address", req.Address,
			"error", err)
		return nil, fmt.Errorf("%w: %v", ErrLocalPersist, err)
	}

	d.logger.Info("agent redeployed", "agent_id", req.AgentID, "name", def.Name, "address", req.Address)
	return &Result{AgentID: req.AgentID, Name: def.Name, Created: false}, nil
}

// Delete stops and deletes the remote agent, then removes the stored
// record. The record is only pulled after the runtime confirms the
// delete, so a failed remote delete leaves the user's list intact.
func (d *Deployer) Delete(ctx context.Context, address, agentID string) error {
	if address == "" || agentID == "" {
		return fmt.Errorf("%w: address and agent id are required", ErrValidation)
	}

	// Stop is best-effort; a stopped or never-started agent can still be
	// deleted.
	if err := d.runtime.StopAgent(ctx, agentID); err != nil {
		d.logger.Warn("stop before delete failed", "agent_id", agentID, "error", err)
	}

	if err := d.runtime.DeleteAgent(ctx, agentID); err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteDeploy, err)
	}

	if err := d.store.RemoveAgent(ctx, address, agentID); err != nil {
		d.logger.Error("agent deleted remotely but record not removed",
			"agent_id", agentID,
			"address", address,
			"error", err)
		return fmt.Errorf("%w: %v", ErrLocalPersist, err)
	}

	d.logger.Info("agent deleted", "agent_id", agentID, "address", address)
	return nil
}
