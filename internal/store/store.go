// ABOUTME: UserStore interface and record types for deploy persistence
// ABOUTME: Users own their agent records; agents are matched positionally by id

package store

import (
	"errors"
	"time"

	"github.com/2389/grimoire/internal/compile"
)

// ErrNotFound is returned when a requested user does not exist.
var ErrNotFound = errors.New("not found")

// ErrNoMatch is returned when an update matched or modified zero
// documents. Callers treat it as "the write didn't land", which for a
// deploy means the remote agent exists but isn't linked to the user.
var ErrNoMatch = errors.New("no matching document")

// User is the persisted owner of agent records, keyed by wallet address.
type User struct {
	Address   string        `bson:"address" json:"address"`
	Agents    []AgentRecord `bson:"agents" json:"agents"`
	CreatedAt time.Time     `bson:"createdAt" json:"createdAt"`
}

// AgentRecord is one deployed agent as stored on its owning user.
// ID is assigned by the agent runtime on first successful deploy.
// RoomID is empty until a channel is provisioned.
type AgentRecord struct {
	ID        string        `bson:"id" json:"id"`
	Name      string        `bson:"name" json:"name"`
	Nodes     compile.Graph `bson:"nodes" json:"nodes"`
	RoomID    string        `bson:"roomId,omitempty" json:"roomId,omitempty"`
	CreatedAt time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// Agent looks up an agent record by id. Returns nil when absent.
func (u *User) Agent(agentID string) *AgentRecord {
	for i := range u.Agents {
		if u.Agents[i].ID == agentID {
			return &u.Agents[i]
		}
	}
	return nil
}

// AgentUpdate is the set of fields rewritten on redeploy.
type AgentUpdate struct {
	Name      string
	Nodes     compile.Graph
	UpdatedAt time.Time
}
