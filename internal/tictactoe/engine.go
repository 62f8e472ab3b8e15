// Package tictactoe holds the pure board rules: win and draw detection and
// move legality over a flat size×size board. It keeps no state, so a
// smarter incremental tracker can replace it without touching callers.
package tictactoe

import "github.com/playgrid/tictactoe-rooms/internal/entity"

// IsWinningBoard reports whether any row, column, or either diagonal is
// filled with a single non-empty mark. Every line is checked; a full board
// can still be a winning board.
func IsWinningBoard(board []string, size int) bool {
	for i := 0; i < size; i++ {
		if lineWins(board, i*size, 1, size) { // row i
			return true
		}
		if lineWins(board, i, size, size) { // column i
			return true
		}
	}

	if lineWins(board, 0, size+1, size) { // main diagonal
		return true
	}

	return lineWins(board, size-1, size-1, size) // anti-diagonal
}

// IsDraw reports whether the board is full without a winning line. Win
// must be ruled out first, a full board can also be a winning one.
func IsDraw(board []string, size int) bool {
	for _, cell := range board {
		if cell == entity.EmptyCell {
			return false
		}
	}

	return !IsWinningBoard(board, size)
}

// IsLegalMove reports whether the cell index is on the board and empty.
func IsLegalMove(board []string, cell int) bool {
	if cell < 0 || cell >= len(board) {
		return false
	}

	return board[cell] == entity.EmptyCell
}

// lineWins walks size cells from start with the given stride and reports
// whether they all carry the same non-empty mark.
func lineWins(board []string, start, stride, size int) bool {
	first := board[start]
	if first == entity.EmptyCell {
		return false
	}

	for i := 1; i < size; i++ {
		if board[start+i*stride] != first {
			return false
		}
	}

	return true
}
