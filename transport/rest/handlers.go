package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/playgrid/tictactoe-rooms/internal/apperror"
	"github.com/playgrid/tictactoe-rooms/internal/entity"
)

type roomService interface {
	CreateRoom(ctx context.Context, id string, size int, password string) (*entity.Room, error)
	LookupRoom(ctx context.Context, id, password string) (*entity.Room, error)
}

type chatHistory interface {
	ListByRoom(ctx context.Context, roomID string) ([]*entity.ChatMessage, error)
}

type handlers struct {
	logger *slog.Logger
	rooms  roomService
	chat   chatHistory
}

func newHandlers(logger *slog.Logger, rooms roomService, chat chatHistory) *handlers {
	return &handlers{
		logger: logger,
		rooms:  rooms,
		chat:   chat,
	}
}

type createRoomRequest struct {
	RoomID   string `json:"room_id"`
	Size     int    `json:"size"`
	Password string `json:"password,omitempty"`
}

// roomDescriptor is what the HTTP surface reveals about a room; the
// password never leaves the server.
type roomDescriptor struct {
	RoomID    string `json:"room_id"`
	Size      int    `json:"size"`
	Protected bool   `json:"protected"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func describe(room *entity.Room) roomDescriptor {
	return roomDescriptor{
		RoomID:    room.ID,
		Size:      room.Size,
		Protected: room.Password != "",
	}
}

func (that *handlers) ping(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// createRoom makes a new room or returns the existing one when id,
// password, and size all agree.
func (that *handlers) createRoom(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "createRoom")

	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if req.RoomID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "room_id is required"})
		return
	}

	room, err := that.rooms.CreateRoom(r.Context(), req.RoomID, req.Size, req.Password)
	switch {
	case errors.Is(err, apperror.ErrWrongPassword):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "wrong password"})
		return
	case errors.Is(err, apperror.ErrRoomAlreadyExists):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "room already exists"})
		return
	case err != nil:
		log.Error("failed to create room", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	writeJSON(w, http.StatusCreated, describe(room))
}

// joinRoom resolves a room by id for a client about to open a socket.
func (that *handlers) joinRoom(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "joinRoom")

	roomID := mux.Vars(r)["id"]
	password := r.URL.Query().Get("password")

	room, err := that.rooms.LookupRoom(r.Context(), roomID, password)
	switch {
	case errors.Is(err, apperror.ErrRoomNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "room not found"})
		return
	case errors.Is(err, apperror.ErrWrongPassword):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "wrong password"})
		return
	case err != nil:
		log.Error("failed to look up room", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, describe(room))
}

type chatMessageResponse struct {
	Seat      int       `json:"seat"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// roomMessages returns a room's chat history. The room's password gates
// the history the same way it gates the join.
func (that *handlers) roomMessages(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "roomMessages")

	roomID := mux.Vars(r)["id"]
	password := r.URL.Query().Get("password")

	if _, err := that.rooms.LookupRoom(r.Context(), roomID, password); err != nil {
		switch {
		case errors.Is(err, apperror.ErrRoomNotFound):
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "room not found"})
		case errors.Is(err, apperror.ErrWrongPassword):
			writeJSON(w, http.StatusForbidden, errorResponse{Error: "wrong password"})
		default:
			log.Error("failed to look up room", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		}
		return
	}

	messages, err := that.chat.ListByRoom(r.Context(), roomID)
	if err != nil {
		log.Error("failed to list chat messages", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	history := make([]chatMessageResponse, 0, len(messages))
	for _, message := range messages {
		history = append(history, chatMessageResponse{
			Seat:      message.Seat,
			Message:   message.Message,
			CreatedAt: message.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, history)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
