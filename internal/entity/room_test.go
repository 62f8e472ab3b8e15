package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRoom(t *testing.T) {
	t.Run("plain room", func(t *testing.T) {
		// When: create a new 4x4 room
		room := NewRoom("r1", 4, "pw", false)

		// Then: the board is all empty and seat 1 moves first
		require.NotNil(t, room)
		assert.Len(t, room.Board, 16)
		for _, cell := range room.Board {
			assert.Equal(t, EmptyCell, cell)
		}
		assert.Equal(t, Seat1, room.Turn)
		assert.Equal(t, "pw", room.Password)
		assert.Zero(t, room.Score1)
		assert.Zero(t, room.Score2)
		assert.False(t, room.IsWithBot())
	})

	t.Run("bot room pre-claims seat 2", func(t *testing.T) {
		room := NewRoom("r1-bot", 3, "", true)

		assert.Equal(t, BotOccupant, room.Seat2)
		assert.True(t, room.IsWithBot())
		assert.Equal(t, Seat1, room.FreeSeat())
	})
}

func TestRoom_Seats(t *testing.T) {
	room := NewRoom("r1", 3, "", false)

	// When: both seats fill up
	assert.Equal(t, Seat1, room.FreeSeat())
	room.SetOccupant(Seat1, "c1")
	assert.Equal(t, Seat2, room.FreeSeat())
	room.SetOccupant(Seat2, "c2")

	// Then: no free seat remains and occupants resolve both ways
	assert.Zero(t, room.FreeSeat())
	assert.Equal(t, Seat1, room.SeatOf("c1"))
	assert.Equal(t, Seat2, room.SeatOf("c2"))
	assert.Zero(t, room.SeatOf("c3"))
	assert.Equal(t, "c1", room.Occupant(Seat1))

	// When: seat 1 is vacated
	room.SetOccupant(Seat1, "")

	// Then: an empty seat never matches a connection
	assert.Zero(t, room.SeatOf(""))
	assert.True(t, room.HasHumanOccupant())

	room.SetOccupant(Seat2, "")
	assert.False(t, room.HasHumanOccupant())
}

func TestRoom_HasHumanOccupant_BotOnly(t *testing.T) {
	room := NewRoom("r1-bot", 3, "", true)

	// the bot sentinel alone does not keep a room alive
	assert.False(t, room.HasHumanOccupant())

	room.SetOccupant(Seat1, "c1")
	assert.True(t, room.HasHumanOccupant())
}

func TestRoom_ResetBoard(t *testing.T) {
	room := NewRoom("r1", 3, "", false)
	room.Board[0] = MarkX
	room.Board[4] = MarkO
	room.Turn = Seat2
	room.Score1 = 3

	room.ResetBoard()

	for _, cell := range room.Board {
		assert.Equal(t, EmptyCell, cell)
	}
	assert.Equal(t, Seat1, room.Turn)
	assert.Equal(t, 3, room.Score1, "scores survive a board reset")
}

func TestMarkFor(t *testing.T) {
	assert.Equal(t, MarkX, MarkFor(Seat1))
	assert.Equal(t, MarkO, MarkFor(Seat2))
	assert.Equal(t, Seat2, OtherSeat(Seat1))
	assert.Equal(t, Seat1, OtherSeat(Seat2))
}
