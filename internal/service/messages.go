package service

// Outbound event names. The transport layer delivers them verbatim as the
// message action.
const (
	EventSetPlayer          = "set_player"
	EventSpectator          = "spectator"
	EventUpdateNames        = "update_names"
	EventRoomJoined         = "room_joined"
	EventMoveMade           = "move_made"
	EventGameOver           = "game_over"
	EventStartRematch       = "start_rematch"
	EventReceiveMessage     = "receive_message"
	EventPlayerDisconnected = "player_disconnected"
)

// WinnerDraw is the winner value broadcast when a game ends without a
// winning line.
const WinnerDraw = 0

// Broadcaster is the only thing the coordinator needs from the transport
// layer: unicast to one connection and broadcast to a room. Delivery is
// fire-and-forget.
type Broadcaster interface {
	ToConnection(connectionID, event string, payload any)
	ToRoom(roomID, event string, payload any)
}

type SpectatorPayload struct {
	Size        int            `json:"size"`
	PlayerNames map[int]string `json:"player_names"`
}

type RoomJoinedPayload struct {
	RoomID      string         `json:"room_id"`
	Board       []string       `json:"board"`
	Size        int            `json:"size"`
	Turn        int            `json:"turn"`
	PlayerNames map[int]string `json:"player_names"`
}

type MoveMadePayload struct {
	Move   int `json:"move"`
	Player int `json:"player"`
}

type GameOverPayload struct {
	Winner int `json:"winner"`
}

type StartRematchPayload struct {
	Size int `json:"size"`
}

type ReceiveMessagePayload struct {
	Player  int    `json:"player"`
	Message string `json:"message"`
}

type PlayerDisconnectedPayload struct {
	PlayerNumber int `json:"player_number"`
}
