// ABOUTME: UserStore operation surface shared by Mongo and memory stores
// ABOUTME: All mutations report ErrNoMatch when they modify nothing

package store

import "context"

// UserStore is the document-store surface the deploy pipeline consumes.
// MongoStore implements it for production, MemoryStore for tests.
type UserStore interface {
	// FindUserByAddress returns the user document, or ErrNotFound.
	FindUserByAddress(ctx context.Context, address string) (*User, error)

	// InsertUser creates a new user document.
	InsertUser(ctx context.Context, user *User) error

	// AppendAgent pushes a new agent record onto the user's agent list.
	// Returns ErrNoMatch if the user does not exist.
	AppendAgent(ctx context.Context, address string, agent *AgentRecord) error

	// UpdateAgent rewrites the matched agent's name/nodes/updatedAt in
	// place. Returns ErrNoMatch when no document was modified.
	UpdateAgent(ctx context.Context, address, agentID string, update AgentUpdate) error

	// SetAgentRoom caches the provisioned room id on the agent record.
	SetAgentRoom(ctx context.Context, address, agentID, roomID string) error

	// RemoveAgent pulls the agent record from the user's list. Callers
	// must only do this after the remote agent is confirmed deleted.
	RemoveAgent(ctx context.Context, address, agentID string) error
}
