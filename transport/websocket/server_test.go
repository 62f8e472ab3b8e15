package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	name         string
	roomID       string
	connectionID string
	cell         int
	text         string
}

type fakeCoordinator struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (that *fakeCoordinator) record(call recordedCall) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.calls = append(that.calls, call)
}

func (that *fakeCoordinator) byName(name string) []recordedCall {
	that.mu.Lock()
	defer that.mu.Unlock()

	var out []recordedCall
	for _, call := range that.calls {
		if call.name == name {
			out = append(out, call)
		}
	}
	return out
}

func (that *fakeCoordinator) HandleJoin(_ context.Context, roomID, nickname, connectionID string) {
	that.record(recordedCall{name: "join", roomID: roomID, text: nickname, connectionID: connectionID})
}

func (that *fakeCoordinator) HandleMove(_ context.Context, roomID string, cell int, connectionID string) {
	that.record(recordedCall{name: "move", roomID: roomID, cell: cell, connectionID: connectionID})
}

func (that *fakeCoordinator) HandleChat(_ context.Context, roomID, text, connectionID string) {
	that.record(recordedCall{name: "chat", roomID: roomID, text: text, connectionID: connectionID})
}

func (that *fakeCoordinator) HandleRematch(_ context.Context, roomID string) {
	that.record(recordedCall{name: "rematch", roomID: roomID})
}

func (that *fakeCoordinator) HandleReconnect(_ context.Context, roomID, connectionID string) {
	that.record(recordedCall{name: "reconnect", roomID: roomID, connectionID: connectionID})
}

func (that *fakeCoordinator) HandleDisconnect(_ context.Context, connectionID string) {
	that.record(recordedCall{name: "disconnect", connectionID: connectionID})
}

func newTestServer(t *testing.T) (string, *Hub, *fakeCoordinator) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	hub := NewHub(logger)
	coordinator := &fakeCoordinator{}
	server := New(logger, coordinator, hub)

	ctx, cancel := context.WithCancel(context.Background())
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		server.serveConnection(ctx, w, r)
	}))
	t.Cleanup(func() {
		cancel()
		ts.Close()
	})

	return "ws" + strings.TrimPrefix(ts.URL, "http"), hub, coordinator
}

func dial(t *testing.T, wsURL, sessionID string) *websocket.Conn {
	t.Helper()

	var header http.Header
	if sessionID != "" {
		header = http.Header{"Cookie": {"user_session=" + sessionID}}
	}

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	if resp != nil {
		defer resp.Body.Close()
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})

	return conn
}

func newTestConn(t *testing.T) (*websocket.Conn, *Hub, *fakeCoordinator) {
	t.Helper()

	wsURL, hub, coordinator := newTestServer(t)
	return dial(t, wsURL, ""), hub, coordinator
}

func send(t *testing.T, conn *websocket.Conn, action string, payload any) {
	t.Helper()

	frame, err := encodeMessage(action, payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))
}

func TestServer_DispatchesInboundEvents(t *testing.T) {
	conn, _, coordinator := newTestConn(t)

	// When: a client joins, moves, chats, and asks for a rematch
	send(t, conn, ActionJoin, JoinPayload{RoomID: "r1", Nickname: "alice"})
	send(t, conn, ActionMakeMove, MovePayload{RoomID: "r1", Move: 4})
	send(t, conn, ActionChat, ChatPayload{RoomID: "r1", Message: "hi"})
	send(t, conn, ActionRematch, RoomPayload{RoomID: "r1"})

	// Then: every event reaches the coordinator with the session id
	require.Eventually(t, func() bool {
		return len(coordinator.byName("rematch")) == 1
	}, time.Second, 5*time.Millisecond)

	joins := coordinator.byName("join")
	require.Len(t, joins, 1)
	assert.Equal(t, "r1", joins[0].roomID)
	assert.Equal(t, "alice", joins[0].text)
	assert.NotEmpty(t, joins[0].connectionID)

	moves := coordinator.byName("move")
	require.Len(t, moves, 1)
	assert.Equal(t, 4, moves[0].cell)
	assert.Equal(t, joins[0].connectionID, moves[0].connectionID)

	chats := coordinator.byName("chat")
	require.Len(t, chats, 1)
	assert.Equal(t, "hi", chats[0].text)
}

func TestServer_RoomBroadcastReachesSubscriber(t *testing.T) {
	conn, hub, coordinator := newTestConn(t)

	// Given: the client joined a room (join subscribes it to the hub)
	send(t, conn, ActionJoin, JoinPayload{RoomID: "r1", Nickname: "alice"})
	require.Eventually(t, func() bool {
		return len(coordinator.byName("join")) == 1
	}, time.Second, 5*time.Millisecond)

	// When: the room is broadcast to
	hub.ToRoom("r1", "update_names", map[int]string{1: "alice", 2: "Waiting..."})

	// Then: the client receives the enveloped event
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var message Message
	require.NoError(t, json.Unmarshal(data, &message))
	assert.Equal(t, "update_names", message.Action)

	var names map[string]string
	require.NoError(t, json.Unmarshal(message.Payload, &names))
	assert.Equal(t, "alice", names["1"])
}

func TestServer_UnicastTargetsOneConnection(t *testing.T) {
	conn, hub, coordinator := newTestConn(t)

	send(t, conn, ActionJoin, JoinPayload{RoomID: "r1", Nickname: "alice"})
	require.Eventually(t, func() bool {
		return len(coordinator.byName("join")) == 1
	}, time.Second, 5*time.Millisecond)

	connectionID := coordinator.byName("join")[0].connectionID

	// When: the connection is unicast its seat
	hub.ToConnection(connectionID, "set_player", 1)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var message Message
	require.NoError(t, json.Unmarshal(data, &message))
	assert.Equal(t, "set_player", message.Action)
	assert.Equal(t, "1", string(message.Payload))
}

func TestServer_ReplacedSocketKeepsSessionAlive(t *testing.T) {
	wsURL, _, coordinator := newTestServer(t)

	// Given: a session with a live connection in a room
	first := dial(t, wsURL, "s1")
	send(t, first, ActionJoin, JoinPayload{RoomID: "r1", Nickname: "alice"})
	require.Eventually(t, func() bool {
		return len(coordinator.byName("join")) == 1
	}, time.Second, 5*time.Millisecond)

	// When: the same session dials again and resumes
	second := dial(t, wsURL, "s1")
	send(t, second, ActionReconnect, RoomPayload{RoomID: "r1"})
	require.Eventually(t, func() bool {
		return len(coordinator.byName("reconnect")) == 1
	}, time.Second, 5*time.Millisecond)

	// Then: the replaced socket's teardown never fires a disconnect for
	// the live session
	assert.Empty(t, coordinator.byName("disconnect"))

	// Then: the new socket still dispatches
	send(t, second, ActionMakeMove, MovePayload{RoomID: "r1", Move: 4})
	require.Eventually(t, func() bool {
		return len(coordinator.byName("move")) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Empty(t, coordinator.byName("disconnect"))

	// When: the current socket closes for real
	require.NoError(t, second.Close())

	// Then: exactly one disconnect fires, for the session id
	require.Eventually(t, func() bool {
		return len(coordinator.byName("disconnect")) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "s1", coordinator.byName("disconnect")[0].connectionID)
}

func TestServer_CloseFiresDisconnect(t *testing.T) {
	conn, _, coordinator := newTestConn(t)

	send(t, conn, ActionJoin, JoinPayload{RoomID: "r1", Nickname: "alice"})
	require.Eventually(t, func() bool {
		return len(coordinator.byName("join")) == 1
	}, time.Second, 5*time.Millisecond)

	// When: the channel closes
	require.NoError(t, conn.Close())

	// Then: the transport fires the implicit disconnect event
	require.Eventually(t, func() bool {
		return len(coordinator.byName("disconnect")) == 1
	}, time.Second, 5*time.Millisecond)
}
