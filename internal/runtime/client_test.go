// ABOUTME: Tests for the agent-runtime REST client
// ABOUTME: Verifies paths, request bodies, envelope decoding and list reversal

package runtime

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/grimoire/internal/compile"
	"github.com/2389/grimoire/internal/transport"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRuntime(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return New(transport.New(srv.URL, testLogger()), testLogger()), srv
}

func TestCreateAgent(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	c, srv := newTestRuntime(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"data":{"id":"agent-1"}}`))
	})
	defer srv.Close()

	def := compile.Transform(compile.Graph{}, compile.StaticResolver{})
	id, err := c.CreateAgent(context.Background(), &def)
	require.NoError(t, err)
	assert.Equal(t, "agent-1", id)
	assert.Equal(t, "POST /agents", gotPath)
	require.Contains(t, gotBody, "characterJson")
}

func TestUpdateAgent(t *testing.T) {
	var gotPath string
	c, srv := newTestRuntime(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		w.Write([]byte(`{}`))
	})
	defer srv.Close()

	def := compile.Transform(compile.Graph{}, compile.StaticResolver{})
	require.NoError(t, c.UpdateAgent(context.Background(), "agent-1", &def))
	assert.Equal(t, "PATCH /agents/agent-1", gotPath)
}

func TestLifecycleEndpoints(t *testing.T) {
	var paths []string
	c, srv := newTestRuntime(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		w.Write([]byte(`{}`))
	})
	defer srv.Close()

	ctx := context.Background()
	require.NoError(t, c.StartAgent(ctx, "a1"))
	require.NoError(t, c.StopAgent(ctx, "a1"))
	require.NoError(t, c.DeleteAgent(ctx, "a1"))

	assert.Equal(t, []string{
		"POST /agents/a1/start",
		"POST /agents/a1/stop",
		"DELETE /agents/a1",
	}, paths)
}

func TestGetAgent(t *testing.T) {
	c, srv := newTestRuntime(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET /agents/a1", r.Method+" "+r.URL.Path)
		w.Write([]byte(`{"data":{"id":"a1","name":"Mira","status":"active"}}`))
	})
	defer srv.Close()

	status, err := c.GetAgent(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "Mira", status.Name)
	assert.Equal(t, "active", status.Status)
}

func TestCreateChannel(t *testing.T) {
	var gotBody map[string]any
	c, srv := newTestRuntime(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST /messaging/channels", r.Method+" "+r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"data":{"channel":{"id":"room-1"}}}`))
	})
	defer srv.Close()

	id, err := c.CreateChannel(context.Background(), "Mira - 0xabc123")
	require.NoError(t, err)
	assert.Equal(t, "room-1", id)
	assert.Equal(t, "Mira - 0xabc123", gotBody["name"])
	assert.Equal(t, uuid.Nil.String(), gotBody["serverId"])
	assert.Equal(t, "group", gotBody["type"])
}

func TestSendMessage(t *testing.T) {
	var gotBody map[string]any
	c, srv := newTestRuntime(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST /messaging/central-channels/room-1/messages", r.Method+" "+r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{}`))
	})
	defer srv.Close()

	err := c.SendMessage(context.Background(), SendRequest{
		ChannelID:  "room-1",
		AuthorID:   AuthorID("0xabc"),
		AuthorName: "User",
		Text:       "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", gotBody["content"])
	assert.Equal(t, SourceUserMessage, gotBody["source_type"])
	assert.Equal(t, uuid.Nil.String(), gotBody["server_id"])
}

func TestListMessages_ReversesToChronological(t *testing.T) {
	c, srv := newTestRuntime(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messaging/central-channels/room-1/messages", r.URL.Path)
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"data":{"messages":[
			{"id":"m3","content":"newest","sourceType":"agent_response"},
			{"id":"m2","content":"middle","sourceType":"user_message"},
			{"id":"m1","content":"oldest","sourceType":"user_message"}
		]}}`))
	})
	defer srv.Close()

	messages, err := c.ListMessages(context.Background(), "room-1", 20)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "m1", messages[0].ID)
	assert.Equal(t, "m3", messages[2].ID)
	assert.True(t, messages[2].FromAgent())
	assert.False(t, messages[1].FromAgent())
}

func TestAuthorID_Deterministic(t *testing.T) {
	a := AuthorID("0xabc")
	b := AuthorID("0xabc")
	c := AuthorID("0xdef")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	_, err := uuid.Parse(a)
	assert.NoError(t, err)
}
