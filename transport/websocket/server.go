package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

type coordinator interface {
	HandleJoin(ctx context.Context, roomID, nickname, connectionID string)
	HandleMove(ctx context.Context, roomID string, cell int, connectionID string)
	HandleChat(ctx context.Context, roomID, text, connectionID string)
	HandleRematch(ctx context.Context, roomID string)
	HandleReconnect(ctx context.Context, roomID, connectionID string)
	HandleDisconnect(ctx context.Context, connectionID string)
}

type Server struct {
	logger      *slog.Logger
	coordinator coordinator
	hub         *Hub
	upgrader    websocket.Upgrader
}

func New(logger *slog.Logger, coordinator coordinator, hub *Hub) *Server {
	return &Server{
		logger:      logger,
		coordinator: coordinator,
		hub:         hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
	}
}

// Start - starts the WebSocket server and blocks until the context is
// canceled or the listener fails.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.serveConnection(ctx, w, r)
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		that.hub.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// serveConnection upgrades the request and runs the connection's read
// loop until the channel closes.
func (that *Server) serveConnection(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "serveConnection")

	connectionID := that.sessionID(writer, req, log)

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	client := newClient(connectionID, conn)
	that.hub.Register(client)
	go client.writePump()

	log.Info("WebSocket connection established", "connection", connectionID)

	that.readMessages(ctx, client)

	// transport-level close doubles as the implicit disconnect event, but
	// only for the session's current socket: a socket replaced by a
	// reconnect must not tear down the live session's state
	if that.hub.Unregister(client) {
		that.coordinator.HandleDisconnect(ctx, connectionID)
	}
}

// readMessages - processes messages from the client.
func (that *Server) readMessages(ctx context.Context, client *Client) {
	log := that.logger.With("method", "readMessages", "connection", client.id)

	client.conn.SetReadLimit(maxMessageSize)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error("error reading message", "error", err)
			}
			return
		}

		var message Message
		if err = json.Unmarshal(data, &message); err != nil {
			log.Error("failed to unmarshal message", "error", err)
			continue
		}

		if err = that.dispatch(ctx, client, &message); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

// dispatch routes one inbound message to the coordinator. Malformed
// payloads are reported to the log only; the connection stays up.
func (that *Server) dispatch(ctx context.Context, client *Client, message *Message) error {
	switch message.Action {
	case ActionJoin:
		var payload JoinPayload
		if err := json.Unmarshal(message.Payload, &payload); err != nil {
			return fmt.Errorf("failed to unmarshal join payload: %w", err)
		}
		that.hub.Subscribe(payload.RoomID, client)
		that.coordinator.HandleJoin(ctx, payload.RoomID, payload.Nickname, client.id)

	case ActionMakeMove:
		var payload MovePayload
		if err := json.Unmarshal(message.Payload, &payload); err != nil {
			return fmt.Errorf("failed to unmarshal move payload: %w", err)
		}
		that.coordinator.HandleMove(ctx, payload.RoomID, payload.Move, client.id)

	case ActionChat:
		var payload ChatPayload
		if err := json.Unmarshal(message.Payload, &payload); err != nil {
			return fmt.Errorf("failed to unmarshal chat payload: %w", err)
		}
		that.coordinator.HandleChat(ctx, payload.RoomID, payload.Message, client.id)

	case ActionRematch:
		var payload RoomPayload
		if err := json.Unmarshal(message.Payload, &payload); err != nil {
			return fmt.Errorf("failed to unmarshal rematch payload: %w", err)
		}
		that.coordinator.HandleRematch(ctx, payload.RoomID)

	case ActionReconnect:
		var payload RoomPayload
		if err := json.Unmarshal(message.Payload, &payload); err != nil {
			return fmt.Errorf("failed to unmarshal reconnect payload: %w", err)
		}
		that.hub.Subscribe(payload.RoomID, client)
		that.coordinator.HandleReconnect(ctx, payload.RoomID, client.id)

	default:
		return fmt.Errorf("%w: %s", ErrUnknownAction, message.Action)
	}

	return nil
}

// sessionID - reads the session cookie, minting one for new visitors. The
// cookie value is the connection id the coordinator keys players by.
func (that *Server) sessionID(writer http.ResponseWriter, req *http.Request, log *slog.Logger) string {
	cookie, err := req.Cookie("user_session")
	if err != nil {
		cookie = &http.Cookie{
			Name:    "user_session",
			Value:   GenerateNewSessionID(),
			Expires: time.Now().Add(24 * time.Hour),
			Path:    "/",
		}
		http.SetCookie(writer, cookie)
		log.Info("session cookie not found, new one created", "cookie", cookie.Value)
		return cookie.Value
	}

	log.Info("session cookie found", "cookie", cookie.Value)
	return cookie.Value
}
