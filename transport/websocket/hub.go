package websocket

import (
	"log/slog"
	"sync"
)

// Hub is the connection multiplexer: it maps live connections to rooms and
// gives the coordinator its two delivery primitives, send-to-connection
// and send-to-room. Delivery is fire-and-forget; a client whose send
// buffer is full is dropped rather than allowed to stall the room.
type Hub struct {
	logger *slog.Logger

	mu          sync.RWMutex
	connections map[string]*Client
	rooms       map[string]map[string]*Client
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger,

		connections: make(map[string]*Client),
		rooms:       make(map[string]map[string]*Client),
	}
}

// Register adds a connection. A second connection reusing a session id
// replaces the first.
func (that *Hub) Register(client *Client) {
	that.mu.Lock()
	previous := that.connections[client.id]
	that.connections[client.id] = client
	total := len(that.connections)
	that.mu.Unlock()

	if previous != nil {
		previous.close()
	}

	that.logger.Info("client registered", "connection", client.id, "total", total)
}

// Unregister drops a connection from the hub and from every room it was
// subscribed to, and closes its send channel. It reports whether the
// client was still the session's current connection; a socket replaced
// by Register gets false.
func (that *Hub) Unregister(client *Client) bool {
	that.mu.Lock()
	current, ok := that.connections[client.id]
	active := ok && current == client
	if active {
		delete(that.connections, client.id)
	}
	for roomID, members := range that.rooms {
		if members[client.id] == client {
			delete(members, client.id)
			if len(members) == 0 {
				delete(that.rooms, roomID)
			}
		}
	}
	that.mu.Unlock()

	client.close()

	that.logger.Info("client unregistered", "connection", client.id, "active", active)

	return active
}

// Subscribe adds a connection to a room's broadcast set. Spectators
// subscribe too; a seat is not required to watch.
func (that *Hub) Subscribe(roomID string, client *Client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	members, ok := that.rooms[roomID]
	if !ok {
		members = make(map[string]*Client)
		that.rooms[roomID] = members
	}
	members[client.id] = client
}

// ToConnection implements the coordinator's unicast primitive.
func (that *Hub) ToConnection(connectionID, event string, payload any) {
	frame, err := encodeMessage(event, payload)
	if err != nil {
		that.logger.Error("failed to encode message", "event", event, "error", err)
		return
	}

	that.mu.RLock()
	client := that.connections[connectionID]
	that.mu.RUnlock()

	if client == nil {
		return
	}

	if !client.trySend(frame) {
		// closing makes the read loop exit and run the usual teardown
		that.logger.Warn("dropping slow client", "connection", connectionID)
		client.close()
	}
}

// ToRoom implements the coordinator's broadcast primitive.
func (that *Hub) ToRoom(roomID, event string, payload any) {
	frame, err := encodeMessage(event, payload)
	if err != nil {
		that.logger.Error("failed to encode message", "event", event, "error", err)
		return
	}

	that.mu.RLock()
	members := make([]*Client, 0, len(that.rooms[roomID]))
	for _, client := range that.rooms[roomID] {
		members = append(members, client)
	}
	that.mu.RUnlock()

	for _, client := range members {
		if !client.trySend(frame) {
			that.logger.Warn("dropping slow client", "connection", client.id)
			client.close()
		}
	}
}

// Shutdown closes every connection; used on process exit.
func (that *Hub) Shutdown() {
	that.mu.Lock()
	clients := make([]*Client, 0, len(that.connections))
	for _, client := range that.connections {
		clients = append(clients, client)
	}
	that.connections = make(map[string]*Client)
	that.rooms = make(map[string]map[string]*Client)
	that.mu.Unlock()

	for _, client := range clients {
		client.close()
	}

	that.logger.Info("hub shut down", "closed", len(clients))
}
