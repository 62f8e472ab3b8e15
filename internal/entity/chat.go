package entity

import "time"

// ChatMessage is one append-only chat line; rows are only ever removed
// together with their room.
type ChatMessage struct {
	ID        int64     `json:"id"`
	RoomID    string    `json:"room_id"`
	Seat      int       `json:"seat"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
