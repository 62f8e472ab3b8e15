package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/playgrid/tictactoe-rooms/internal/entity"
)

type ChatRepository interface {
	Append(ctx context.Context, message *entity.ChatMessage) error
	ListByRoom(ctx context.Context, roomID string) ([]*entity.ChatMessage, error)
	PurgeRoom(ctx context.Context, roomID string) error
}

type dbChat struct {
	conn *sql.DB
}

func NewChatRepository(conn *sql.DB) ChatRepository {
	return &dbChat{
		conn: conn,
	}
}

func (that *dbChat) Append(ctx context.Context, message *entity.ChatMessage) error {
	query := `INSERT INTO chat_messages (room_id, seat, message, created_at) VALUES (?, ?, ?, ?)`

	result, err := that.conn.ExecContext(ctx, query, message.RoomID, message.Seat, message.Message, message.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append chat message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get chat message id: %w", err)
	}
	message.ID = id

	return nil
}

func (that *dbChat) ListByRoom(ctx context.Context, roomID string) ([]*entity.ChatMessage, error) {
	query := `SELECT id, room_id, seat, message, created_at FROM chat_messages WHERE room_id = ? ORDER BY id`

	rows, err := that.conn.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	defer rows.Close()

	var messages []*entity.ChatMessage
	for rows.Next() {
		var message entity.ChatMessage
		if err = rows.Scan(&message.ID, &message.RoomID, &message.Seat, &message.Message, &message.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		messages = append(messages, &message)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chat messages: %w", err)
	}

	return messages, nil
}

// PurgeRoom drops a room's whole chat history; called when the room itself
// is deleted.
func (that *dbChat) PurgeRoom(ctx context.Context, roomID string) error {
	query := `DELETE FROM chat_messages WHERE room_id = ?`

	if _, err := that.conn.ExecContext(ctx, query, roomID); err != nil {
		return fmt.Errorf("failed to purge chat messages: %w", err)
	}

	return nil
}
