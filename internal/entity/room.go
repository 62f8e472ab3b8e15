package entity

const (
	MarkX = "X"
	MarkO = "O"

	EmptyCell = ""

	Seat1 = 1
	Seat2 = 2

	// BotOccupant is the sentinel connection id holding a seat that is
	// played by the automated opponent.
	BotOccupant = "bot"

	WaitingName = "Waiting..."
	BotName     = "Bot"
)

type Room struct {
	ID       string   `json:"id"`
	Size     int      `json:"size"`
	Board    []string `json:"board"`
	Turn     int      `json:"turn"`
	Seat1    string   `json:"seat1,omitempty"`
	Seat2    string   `json:"seat2,omitempty"`
	Score1   int      `json:"score1"`
	Score2   int      `json:"score2"`
	Password string   `json:"password,omitempty"`
}

// NewRoom creates a room with an all-empty size×size board and seat 1 to
// move. A bot room gets its second seat pre-claimed by the bot sentinel.
func NewRoom(id string, size int, password string, withBot bool) *Room {
	room := &Room{
		ID:       id,
		Size:     size,
		Board:    make([]string, size*size),
		Turn:     Seat1,
		Password: password,
	}

	if withBot {
		room.Seat2 = BotOccupant
	}

	return room
}

// ResetBoard clears the board and gives the turn back to seat 1. Scores
// are kept, this is the rematch path.
func (that *Room) ResetBoard() {
	that.Board = make([]string, that.Size*that.Size)
	that.Turn = Seat1
}

// SeatOf returns the seat held by the given connection, or 0.
func (that *Room) SeatOf(connectionID string) int {
	switch connectionID {
	case "":
		return 0
	case that.Seat1:
		return Seat1
	case that.Seat2:
		return Seat2
	}
	return 0
}

// Occupant returns the connection id holding the given seat.
func (that *Room) Occupant(seat int) string {
	if seat == Seat1 {
		return that.Seat1
	}
	return that.Seat2
}

func (that *Room) SetOccupant(seat int, connectionID string) {
	if seat == Seat1 {
		that.Seat1 = connectionID
	} else {
		that.Seat2 = connectionID
	}
}

// FreeSeat returns the first unoccupied seat, or 0 if both are taken.
func (that *Room) FreeSeat() int {
	if that.Seat1 == "" {
		return Seat1
	}
	if that.Seat2 == "" {
		return Seat2
	}
	return 0
}

func (that *Room) IsWithBot() bool {
	return that.Seat1 == BotOccupant || that.Seat2 == BotOccupant
}

// HasHumanOccupant reports whether any seat is held by a real connection.
// The bot sentinel does not keep a room alive on its own.
func (that *Room) HasHumanOccupant() bool {
	if that.Seat1 != "" && that.Seat1 != BotOccupant {
		return true
	}
	return that.Seat2 != "" && that.Seat2 != BotOccupant
}

func (that *Room) IncrementScore(seat int) {
	if seat == Seat1 {
		that.Score1++
	} else {
		that.Score2++
	}
}

// MarkFor maps a seat to its mark: seat 1 plays X, seat 2 plays O.
func MarkFor(seat int) string {
	if seat == Seat1 {
		return MarkX
	}
	return MarkO
}

// OtherSeat returns the opposing seat.
func OtherSeat(seat int) int {
	if seat == Seat1 {
		return Seat2
	}
	return Seat1
}
