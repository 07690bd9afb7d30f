// ABOUTME: Tests for the deployment orchestrator
// ABOUTME: Verifies the error taxonomy and that partial failures stay partial

package deploy

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/grimoire/internal/compile"
	"github.com/2389/grimoire/internal/store"
)

// mockRuntime implements Runtime for testing.
type mockRuntime struct {
	createID  string
	createErr error
	updateErr error
	stopErr   error
	deleteErr error

	createCalls int
	updateCalls int
	stopCalls   int
	deleteCalls int
	lastDef     *compile.AgentDefinition
}

func (m *mockRuntime) CreateAgent(ctx context.Context, def *compile.AgentDefinition) (string, error) {
	m.createCalls++
	m.lastDef = def
	return m.createID, m.createErr
}

func (m *mockRuntime) UpdateAgent(ctx context.Context, agentID string, def *compile.AgentDefinition) error {
	m.updateCalls++
	m.lastDef = def
	return m.updateErr
}

func (m *mockRuntime) StopAgent(ctx context.Context, agentID string) error {
	m.stopCalls++
	return m.stopErr
}

func (m *mockRuntime) DeleteAgent(ctx context.Context, agentID string) error {
	m.deleteCalls++
	return m.deleteErr
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testCreds = compile.StaticResolver{
	compile.ProviderOpenAI: "sk-test",
}

func testGraph() compile.Graph {
	return compile.Graph{
		{Kind: compile.NodeCharacter, Data: map[string]any{"name": "Mira"}},
	}
}

func newDeployer(t *testing.T, rt *mockRuntime) (*Deployer, *store.MemoryStore) {
	t.Helper()
	s := store.NewMemoryStore()
	require.NoError(t, s.InsertUser(context.Background(), &store.User{Address: "0xabc"}))
	return New(s, rt, testCreds, testLogger()), s
}

func TestDeploy_Validation(t *testing.T) {
	d, _ := newDeployer(t, &mockRuntime{})

	_, err := d.Deploy(context.Background(), Request{Address: "", Graph: testGraph()})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = d.Deploy(context.Background(), Request{Address: "0xabc", Graph: nil})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeploy_UserNotFound(t *testing.T) {
	rt := &mockRuntime{createID: "a1"}
	d, _ := newDeployer(t, rt)

	_, err := d.Deploy(context.Background(), Request{Address: "0xother", Graph: testGraph()})
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Zero(t, rt.createCalls, "no remote call before the user is verified")
}

func TestDeploy_Create(t *testing.T) {
	rt := &mockRuntime{createID: "agent-1"}
	d, s := newDeployer(t, rt)

	res, err := d.Deploy(context.Background(), Request{Address: "0xabc", Graph: testGraph()})
	require.NoError(t, err)
	assert.Equal(t, "agent-1", res.AgentID)
	assert.Equal(t, "Mira", res.Name)
	assert.True(t, res.Created)

	user, err := s.FindUserByAddress(context.Background(), "0xabc")
	require.NoError(t, err)
	require.Len(t, user.Agents, 1)
	assert.Equal(t, "agent-1", user.Agents[0].ID)
	assert.Equal(t, testGraph(), user.Agents[0].Nodes, "graph stored verbatim for later editing")
}

func TestDeploy_RemoteFailureLeavesStoreUntouched(t *testing.T) {
	rt := &mockRuntime{createErr: errors.New("boom")}
	d, s := newDeployer(t, rt)

	_, err := d.Deploy(context.Background(), Request{Address: "0xabc", Graph: testGraph()})
	assert.ErrorIs(t, err, ErrRemoteDeploy)

	user, err := s.FindUserByAddress(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.Empty(t, user.Agents)
}

func TestDeploy_MissingRemoteIDIsRemoteFailure(t *testing.T) {
	rt := &mockRuntime{createID: ""}
	d, s := newDeployer(t, rt)

	_, err := d.Deploy(context.Background(), Request{Address: "0xabc", Graph: testGraph()})
	assert.ErrorIs(t, err, ErrRemoteDeploy)

	user, err := s.FindUserByAddress(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.Empty(t, user.Agents)
}

func TestDeploy_Update(t *testing.T) {
	rt := &mockRuntime{}
	d, s := newDeployer(t, rt)
	require.NoError(t, s.AppendAgent(context.Background(), "0xabc", &store.AgentRecord{
		ID:   "agent-1",
		Name: "Old",
	}))

	res, err := d.Deploy(context.Background(), Request{
		Address: "0xabc",
		Graph:   testGraph(),
		AgentID: "agent-1",
	})
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, 1, rt.updateCalls)
	assert.Zero(t, rt.createCalls)

	user, err := s.FindUserByAddress(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.Equal(t, "Mira", user.Agents[0].Name)
}

func TestDeploy_UpdateLocalPersistFailure(t *testing.T) {
	rt := &mockRuntime{}
	d, s := newDeployer(t, rt)
	before := store.AgentRecord{
		ID:    "agent-1",
		Name:  "Old",
		Nodes: compile.Graph{{Kind: compile.NodeModel, Data: map[string]any{"provider": "openai"}}},
	}
	require.NoError(t, s.AppendAgent(context.Background(), "0xabc", &before))

	// The store knows no agent under this id, so the positional update
	// modifies zero documents.
	_, err := d.Deploy(context.Background(), Request{
		Address: "0xabc",
		Graph:   testGraph(),
		AgentID: "agent-unknown",
	})
	assert.ErrorIs(t, err, ErrLocalPersist)
	assert.NotErrorIs(t, err, ErrRemoteDeploy, "the two failure modes must stay distinct")

	// The pre-deploy record is untouched - no partial mutation.
	user, lookupErr := s.FindUserByAddress(context.Background(), "0xabc")
	require.NoError(t, lookupErr)
	require.Len(t, user.Agents, 1)
	assert.Equal(t, before.Name, user.Agents[0].Name)
	assert.Equal(t, before.Nodes, user.Agents[0].Nodes)
}

func TestDeploy_CompiledDefinitionReachesRuntime(t *testing.T) {
	rt := &mockRuntime{createID: "agent-1"}
	d, _ := newDeployer(t, rt)

	_, err := d.Deploy(context.Background(), Request{Address: "0xabc", Graph: testGraph()})
	require.NoError(t, err)
	require.NotNil(t, rt.lastDef)
	assert.Equal(t, "Mira", rt.lastDef.Name)
	assert.Equal(t, "sk-test", rt.lastDef.Settings.Secrets[compile.SecretOpenAIKey])
}

func TestDelete_RemovesRecordOnlyAfterRemoteConfirm(t *testing.T) {
	rt := &mockRuntime{deleteErr: errors.New("unreachable")}
	d, s := newDeployer(t, rt)
	require.NoError(t, s.AppendAgent(context.Background(), "0xabc", &store.AgentRecord{ID: "agent-1"}))

	err := d.Delete(context.Background(), "0xabc", "agent-1")
	assert.ErrorIs(t, err, ErrRemoteDeploy)

	user, lookupErr := s.FindUserByAddress(context.Background(), "0xabc")
	require.NoError(t, lookupErr)
	assert.Len(t, user.Agents, 1, "record survives a failed remote delete")
}

func TestDelete_StopFailureDoesNotAbort(t *testing.T) {
	rt := &mockRuntime{stopErr: errors.New("already stopped")}
	d, s := newDeployer(t, rt)
	require.NoError(t, s.AppendAgent(context.Background(), "0xabc", &store.AgentRecord{ID: "agent-1"}))

	err := d.Delete(context.Background(), "0xabc", "agent-1")
	require.NoError(t, err)
	assert.Equal(t, 1, rt.stopCalls)
	assert.Equal(t, 1, rt.deleteCalls)

	user, lookupErr := s.FindUserByAddress(context.Background(), "0xabc")
	require.NoError(t, lookupErr)
	assert.Empty(t, user.Agents)
}

func TestDeploy_TimestampsSet(t *testing.T) {
	rt := &mockRuntime{createID: "agent-1"}
	d, s := newDeployer(t, rt)
	fixed := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return fixed }

	_, err := d.Deploy(context.Background(), Request{Address: "0xabc", Graph: testGraph()})
	require.NoError(t, err)

	user, err := s.FindUserByAddress(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.Equal(t, fixed, user.Agents[0].CreatedAt)
	assert.Equal(t, fixed, user.Agents[0].UpdatedAt)
}
