package entity

const DefaultNickname = "Unknown"

// Player is the ephemeral record of one live connection seated in a room.
type Player struct {
	ConnectionID string `json:"connection_id"`
	RoomID       string `json:"room_id"`
	Seat         int    `json:"seat"`
	Nickname     string `json:"nickname"`
}

func NewPlayer(connectionID, roomID string, seat int, nickname string) *Player {
	if nickname == "" {
		nickname = DefaultNickname
	}

	return &Player{
		ConnectionID: connectionID,
		RoomID:       roomID,
		Seat:         seat,
		Nickname:     nickname,
	}
}
