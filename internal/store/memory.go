// ABOUTME: In-memory UserStore implementation for testing
// ABOUTME: Allows tests to run without MongoDB

package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory UserStore implementation for testing.
// Semantics mirror MongoStore: mutations that match nothing return
// ErrNoMatch, and documents are copied on the way in and out so tests
// can't accidentally share state with the store.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]*User // keyed by address
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]*User),
	}
}

func (m *MemoryStore) FindUserByAddress(ctx context.Context, address string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[address]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(user), nil
}

func (m *MemoryStore) InsertUser(ctx context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.users[user.Address] = copyUser(user)
	return nil
}

func (m *MemoryStore) AppendAgent(ctx context.Context, address string, agent *AgentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[address]
	if !ok {
		return ErrNoMatch
	}
	user.Agents = append(user.Agents, *agent)
	return nil
}

func (m *MemoryStore) UpdateAgent(ctx context.Context, address, agentID string, update AgentUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := m.findAgent(address, agentID)
	if rec == nil {
		return ErrNoMatch
	}
	rec.Name = update.Name
	rec.Nodes = update.Nodes
	rec.UpdatedAt = update.UpdatedAt
	return nil
}

func (m *MemoryStore) SetAgentRoom(ctx context.Context, address, agentID, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := m.findAgent(address, agentID)
	if rec == nil {
		return ErrNoMatch
	}
	rec.RoomID = roomID
	return nil
}

func (m *MemoryStore) RemoveAgent(ctx context.Context, address, agentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[address]
	if !ok {
		return ErrNoMatch
	}
	for i := range user.Agents {
		if user.Agents[i].ID == agentID {
			user.Agents = append(user.Agents[:i], user.Agents[i+1:]...)
			return nil
		}
	}
	return ErrNoMatch
}

// findAgent returns the live record for mutation. Caller holds the lock.
func (m *MemoryStore) findAgent(address, agentID string) *AgentRecord {
	user, ok := m.users[address]
	if !ok {
		return nil
	}
	return user.Agent(agentID)
}

func copyUser(u *User) *User {
	out := *u
	out.Agents = make([]AgentRecord, len(u.Agents))
	copy(out.Agents, u.Agents)
	return &out
}
