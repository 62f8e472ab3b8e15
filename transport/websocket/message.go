package websocket

import (
	"encoding/json"
	"fmt"
)

// Inbound actions a client can send over the socket.
const (
	ActionJoin      = "join"
	ActionMakeMove  = "make_move"
	ActionChat      = "chat_message"
	ActionRematch   = "rematch"
	ActionReconnect = "reconnect"
)

// Message is the envelope for every frame in both directions.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type JoinPayload struct {
	RoomID   string `json:"room_id"`
	Nickname string `json:"nickname,omitempty"`
}

type MovePayload struct {
	RoomID string `json:"room_id"`
	Move   int    `json:"move"`
}

type ChatPayload struct {
	RoomID  string `json:"room_id"`
	Message string `json:"message"`
}

type RoomPayload struct {
	RoomID string `json:"room_id"`
}

// encodeMessage wraps an outbound payload into the envelope and marshals
// the whole frame.
func encodeMessage(action string, payload any) ([]byte, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	frame, err := json.Marshal(Message{Action: action, Payload: payloadBytes})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	return frame, nil
}
