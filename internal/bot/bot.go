package bot

import (
	"errors"
	"math/rand"

	"github.com/playgrid/tictactoe-rooms/internal/entity"
)

var ErrNoAvailableMoves = errors.New("no available moves")

// Strategy picks a cell for the automated opponent. Implementations must
// return a legal (empty) cell index.
type Strategy interface {
	ChooseMove(board []string, size, seat int) (int, error)
}

type randomStrategy struct{}

// NewRandomStrategy returns a policy that plays a uniformly random empty
// cell. A minimax or heuristic strategy can be dropped in behind the same
// interface.
func NewRandomStrategy() Strategy {
	return &randomStrategy{}
}

func (that *randomStrategy) ChooseMove(board []string, _, _ int) (int, error) {
	availableCells := make([]int, 0, len(board))
	for i, cell := range board {
		if cell == entity.EmptyCell {
			availableCells = append(availableCells, i)
		}
	}

	if len(availableCells) == 0 {
		return 0, ErrNoAvailableMoves
	}

	return availableCells[rand.Intn(len(availableCells))], nil //nolint: gosec // it's ok
}
