package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/playgrid/tictactoe-rooms/internal/apperror"
	"github.com/playgrid/tictactoe-rooms/internal/bot"
	"github.com/playgrid/tictactoe-rooms/internal/entity"
	"github.com/playgrid/tictactoe-rooms/internal/tictactoe"
)

const defaultBoardSize = 3

type roomRepo interface {
	Create(ctx context.Context, room *entity.Room) error
	Update(ctx context.Context, room *entity.Room) error
	GetByID(ctx context.Context, id string) (*entity.Room, error)
	DeleteByID(ctx context.Context, id string) error
}

type playerRepo interface {
	CreateOrUpdate(ctx context.Context, player *entity.Player) error
	GetByConnectionID(ctx context.Context, connectionID string) (*entity.Player, error)
	DeleteByConnectionID(ctx context.Context, connectionID string) error
}

type chatRepo interface {
	Append(ctx context.Context, message *entity.ChatMessage) error
	PurgeRoom(ctx context.Context, roomID string) error
}

// Coordinator is the authoritative state machine over rooms: it seats
// players, arbitrates turns, applies moves, runs the automated opponent,
// and emits notifications through the Broadcaster. All room mutations run
// under that room's lock.
type Coordinator struct {
	logger *slog.Logger

	roomRepo   roomRepo
	playerRepo playerRepo
	chatRepo   chatRepo

	strategy    bot.Strategy
	broadcaster Broadcaster

	locks *roomLocks

	botSuffix string
	botDelay  time.Duration
}

func NewCoordinator(
	logger *slog.Logger,
	roomRepo roomRepo,
	playerRepo playerRepo,
	chatRepo chatRepo,
	strategy bot.Strategy,
	broadcaster Broadcaster,
	botSuffix string,
	botDelay time.Duration,
) *Coordinator {
	return &Coordinator{
		logger: logger,

		roomRepo:   roomRepo,
		playerRepo: playerRepo,
		chatRepo:   chatRepo,

		strategy:    strategy,
		broadcaster: broadcaster,

		locks: newRoomLocks(),

		botSuffix: botSuffix,
		botDelay:  botDelay,
	}
}

// CreateRoom makes a new room, or returns the existing one when the id is
// taken, the password matches, and the size agrees. A room id carrying the
// bot suffix gets its second seat pre-claimed by the automated opponent.
func (that *Coordinator) CreateRoom(ctx context.Context, id string, size int, password string) (*entity.Room, error) {
	if size <= 0 {
		size = defaultBoardSize
	}

	unlock := that.locks.lock(id)
	defer unlock()

	withBot := that.botSuffix != "" && strings.HasSuffix(id, that.botSuffix)

	room := entity.NewRoom(id, size, password, withBot)
	err := that.roomRepo.Create(ctx, room)
	if err == nil {
		return room, nil
	}

	if !errors.Is(err, apperror.ErrRoomAlreadyExists) {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	existing, err := that.roomRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get existing room: %w", err)
	}

	if existing.Password != password {
		return nil, apperror.ErrWrongPassword
	}

	if existing.Size != size {
		return nil, fmt.Errorf("%w: id %s", apperror.ErrRoomAlreadyExists, id)
	}

	return existing, nil
}

// LookupRoom resolves a room for the join-by-id HTTP path, validating the
// password when the room has one.
func (that *Coordinator) LookupRoom(ctx context.Context, id, password string) (*entity.Room, error) {
	room, err := that.roomRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	if room.Password != "" && room.Password != password {
		return nil, apperror.ErrWrongPassword
	}

	return room, nil
}

// HandleJoin seats the connection into the room, or re-synchronizes it if
// it is already seated there, or tells it that it is a spectator when the
// room is full.
func (that *Coordinator) HandleJoin(ctx context.Context, roomID, nickname, connectionID string) {
	log := that.logger.With("method", "HandleJoin", "room", roomID)

	unlock := that.locks.lock(roomID)
	defer unlock()

	room, err := that.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		log.Debug("join dropped", "error", err)
		return
	}

	player, err := that.playerRepo.GetByConnectionID(ctx, connectionID)
	if err == nil {
		if player.RoomID != roomID {
			log.Debug("join dropped: connection already seated elsewhere", "other_room", player.RoomID)
			return
		}
		// reconnect: no seat assignment, just repair this client's view
		that.syncToConnection(ctx, room, player)
		return
	}

	if !errors.Is(err, apperror.ErrPlayerNotFound) {
		log.Error("failed to resolve player", "error", err)
		return
	}

	seat := room.FreeSeat()
	if seat == 0 {
		that.broadcaster.ToConnection(connectionID, EventSpectator, SpectatorPayload{
			Size:        room.Size,
			PlayerNames: that.roster(ctx, room),
		})
		return
	}

	player = entity.NewPlayer(connectionID, roomID, seat, nickname)
	if err = that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
		log.Error("failed to create player", "error", err)
		return
	}

	room.SetOccupant(seat, connectionID)
	if err = that.roomRepo.Update(ctx, room); err != nil {
		log.Error("failed to update room", "error", err)
		return
	}

	that.broadcaster.ToConnection(connectionID, EventSetPlayer, seat)
	that.broadcaster.ToRoom(roomID, EventUpdateNames, that.roster(ctx, room))
	that.broadcaster.ToConnection(connectionID, EventRoomJoined, that.snapshot(ctx, room))
}

// HandleMove applies one move for the seated connection. Unknown players,
// out-of-turn moves, and occupied cells are dropped without a broadcast;
// those are expected races with stale client state, not errors.
func (that *Coordinator) HandleMove(ctx context.Context, roomID string, cell int, connectionID string) {
	log := that.logger.With("method", "HandleMove", "room", roomID)

	unlock := that.locks.lock(roomID)
	defer unlock()

	player, err := that.playerRepo.GetByConnectionID(ctx, connectionID)
	if err != nil || player.RoomID != roomID {
		log.Debug("move dropped: no seated player", "error", err)
		return
	}

	room, err := that.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		log.Debug("move dropped", "error", err)
		return
	}

	if room.Turn != player.Seat {
		log.Debug("move dropped: not this seat's turn", "seat", player.Seat)
		return
	}

	if !tictactoe.IsLegalMove(room.Board, cell) {
		log.Debug("move dropped: illegal cell", "cell", cell)
		return
	}

	finished, err := that.commitMove(ctx, room, player.Seat, cell)
	if err != nil {
		log.Error("failed to commit move", "error", err)
		return
	}

	if !finished && room.Occupant(room.Turn) == entity.BotOccupant {
		go that.botMoveAfterDelay(ctx, roomID)
	}
}

// HandleChat relays one chat line to the room and appends it to the
// room's durable history. Connections without a seat are dropped.
func (that *Coordinator) HandleChat(ctx context.Context, roomID, text, connectionID string) {
	log := that.logger.With("method", "HandleChat", "room", roomID)

	player, err := that.playerRepo.GetByConnectionID(ctx, connectionID)
	if err != nil || player.RoomID != roomID {
		log.Debug("chat dropped: no seated player", "error", err)
		return
	}

	message := &entity.ChatMessage{
		RoomID:    roomID,
		Seat:      player.Seat,
		Message:   text,
		CreatedAt: time.Now().UTC(),
	}
	if err = that.chatRepo.Append(ctx, message); err != nil {
		// history is best-effort, the live message still goes out
		log.Error("failed to append chat message", "error", err)
	}

	that.broadcaster.ToRoom(roomID, EventReceiveMessage, ReceiveMessagePayload{
		Player:  player.Seat,
		Message: text,
	})
}

// HandleRematch resets the board and turn, keeping the scores, and tells
// the whole room to start over.
func (that *Coordinator) HandleRematch(ctx context.Context, roomID string) {
	log := that.logger.With("method", "HandleRematch", "room", roomID)

	unlock := that.locks.lock(roomID)
	defer unlock()

	room, err := that.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		log.Debug("rematch dropped", "error", err)
		return
	}

	room.ResetBoard()
	if err = that.roomRepo.Update(ctx, room); err != nil {
		log.Error("failed to update room", "error", err)
		return
	}

	that.broadcaster.ToRoom(roomID, EventStartRematch, StartRematchPayload{Size: room.Size})
}

// HandleReconnect re-sends the full snapshot and seat assignment to a
// connection that already has a player record in the room, and repairs the
// roster for everyone. It mutates nothing, so repeating it is idempotent.
func (that *Coordinator) HandleReconnect(ctx context.Context, roomID, connectionID string) {
	log := that.logger.With("method", "HandleReconnect", "room", roomID)

	unlock := that.locks.lock(roomID)
	defer unlock()

	player, err := that.playerRepo.GetByConnectionID(ctx, connectionID)
	if err != nil || player.RoomID != roomID {
		log.Debug("reconnect dropped: no seated player", "error", err)
		return
	}

	room, err := that.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		log.Debug("reconnect dropped", "error", err)
		return
	}

	that.syncToConnection(ctx, room, player)
}

// HandleDisconnect vacates the connection's seat. The room survives while
// a human seat remains; otherwise the room, its players, and its chat
// history are deleted.
func (that *Coordinator) HandleDisconnect(ctx context.Context, connectionID string) {
	log := that.logger.With("method", "HandleDisconnect")

	player, err := that.playerRepo.GetByConnectionID(ctx, connectionID)
	if err != nil {
		return
	}

	log = log.With("room", player.RoomID, "seat", player.Seat)

	unlock := that.locks.lock(player.RoomID)
	defer unlock()

	if err = that.playerRepo.DeleteByConnectionID(ctx, connectionID); err != nil {
		log.Error("failed to delete player", "error", err)
	}

	room, err := that.roomRepo.GetByID(ctx, player.RoomID)
	if err != nil {
		return
	}

	if room.SeatOf(connectionID) == player.Seat {
		room.SetOccupant(player.Seat, "")
	}

	if !room.HasHumanOccupant() {
		if err = that.roomRepo.DeleteByID(ctx, room.ID); err != nil {
			log.Error("failed to delete room", "error", err)
			return
		}
		if err = that.chatRepo.PurgeRoom(ctx, room.ID); err != nil {
			log.Error("failed to purge chat history", "error", err)
		}
		// late waiters on the old mutex find the room gone and no-op
		log.Info("room deleted")
		return
	}

	if err = that.roomRepo.Update(ctx, room); err != nil {
		log.Error("failed to update room", "error", err)
		return
	}

	that.broadcaster.ToRoom(room.ID, EventPlayerDisconnected, PlayerDisconnectedPayload{PlayerNumber: player.Seat})
	that.broadcaster.ToRoom(room.ID, EventUpdateNames, that.roster(ctx, room))
}

// commitMove writes the mark, evaluates win before draw, persists the
// whole mutation, and only then broadcasts: move_made always precedes
// game_over. Callers hold the room lock and have validated the move.
func (that *Coordinator) commitMove(ctx context.Context, room *entity.Room, seat, cell int) (bool, error) {
	room.Board[cell] = entity.MarkFor(seat)

	finished := false
	winner := WinnerDraw

	switch {
	case tictactoe.IsWinningBoard(room.Board, room.Size):
		winner = seat
		room.IncrementScore(seat)
		finished = true
	case tictactoe.IsDraw(room.Board, room.Size):
		finished = true
	default:
		room.Turn = entity.OtherSeat(seat)
	}

	if err := that.roomRepo.Update(ctx, room); err != nil {
		return false, fmt.Errorf("failed to persist move: %w", err)
	}

	that.broadcaster.ToRoom(room.ID, EventMoveMade, MoveMadePayload{Move: cell, Player: seat})

	if finished {
		that.broadcaster.ToRoom(room.ID, EventGameOver, GameOverPayload{Winner: winner})
	}

	return finished, nil
}

// botMoveAfterDelay plays the automated opponent's turn after the thinking
// delay. The room is re-validated under its lock when the delay elapses;
// if the room is gone, was reset, or the turn moved on, the move is
// discarded.
func (that *Coordinator) botMoveAfterDelay(ctx context.Context, roomID string) {
	log := that.logger.With("method", "botMoveAfterDelay", "room", roomID)

	timer := time.NewTimer(that.botDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	unlock := that.locks.lock(roomID)
	defer unlock()

	room, err := that.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		log.Debug("bot move discarded", "error", err)
		return
	}

	botSeat := room.SeatOf(entity.BotOccupant)
	if botSeat == 0 || room.Turn != botSeat {
		log.Debug("bot move discarded: stale turn")
		return
	}

	cell, err := that.strategy.ChooseMove(room.Board, room.Size, botSeat)
	if err != nil {
		log.Debug("bot move discarded", "error", err)
		return
	}

	if _, err = that.commitMove(ctx, room, botSeat, cell); err != nil {
		log.Error("failed to commit bot move", "error", err)
	}
}

// syncToConnection replays seat, roster, and the full snapshot to one
// connection, and re-broadcasts the roster to heal divergent views.
func (that *Coordinator) syncToConnection(ctx context.Context, room *entity.Room, player *entity.Player) {
	that.broadcaster.ToConnection(player.ConnectionID, EventSetPlayer, player.Seat)
	that.broadcaster.ToRoom(room.ID, EventUpdateNames, that.roster(ctx, room))
	that.broadcaster.ToConnection(player.ConnectionID, EventRoomJoined, that.snapshot(ctx, room))
}

func (that *Coordinator) snapshot(ctx context.Context, room *entity.Room) RoomJoinedPayload {
	return RoomJoinedPayload{
		RoomID:      room.ID,
		Board:       room.Board,
		Size:        room.Size,
		Turn:        room.Turn,
		PlayerNames: that.roster(ctx, room),
	}
}

// roster maps both seats to display names: the occupant's nickname, the
// bot's name, or a waiting placeholder.
func (that *Coordinator) roster(ctx context.Context, room *entity.Room) map[int]string {
	names := make(map[int]string, 2)

	for _, seat := range []int{entity.Seat1, entity.Seat2} {
		occupant := room.Occupant(seat)

		switch occupant {
		case "":
			names[seat] = entity.WaitingName
			continue
		case entity.BotOccupant:
			names[seat] = entity.BotName
			continue
		}

		player, err := that.playerRepo.GetByConnectionID(ctx, occupant)
		if err != nil {
			names[seat] = entity.WaitingName
			continue
		}
		names[seat] = player.Nickname
	}

	return names
}
