package inmemory

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/sharetube/cowatch/internal/domain"
	"github.com/sharetube/cowatch/internal/repository/room"
)

// repo maps room ids to live rooms. A room is present only while it has members:
// it is stored by the join that creates it and dropped by the leave that empties it,
// both under mu.
type repo struct {
	rooms      map[string]*domain.Room
	roomConfig *domain.RoomConfig
	logger     *slog.Logger
	mu         sync.RWMutex
}

func NewRepo(roomConfig *domain.RoomConfig, logger *slog.Logger) *repo {
	return &repo{
		rooms:      make(map[string]*domain.Room),
		roomConfig: roomConfig,
		logger:     logger,
	}
}

// Join adds the connection to the room, creating the room with params.Username as its
// owner when the id has not been seen. A refused join never leaves an empty room behind.
func (r *repo) Join(ctx context.Context, params *room.JoinParams) (room.JoinResponse, error) {
	r.logger.DebugContext(ctx, "called", "room_id", params.RoomId, "username", params.Username)
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[params.RoomId]
	if !ok {
		rm = domain.NewRoom(params.RoomId, params.Username, r.roomConfig, r.logger)
	}

	// rm.Join notifies members with mu held. Sender.Send must only enqueue, so joins and
	// leaves of other rooms wait for the enqueue and never for a peer.
	res, err := rm.Join(params.Conn, params.Username)
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return room.JoinResponse{}, err
	}

	if !ok {
		r.rooms[params.RoomId] = rm
		r.logger.InfoContext(ctx, "room created", "room_id", params.RoomId, "owner", params.Username)
	}

	return room.JoinResponse{
		Room:     rm,
		Member:   res.Member,
		Snapshot: res.Snapshot,
		Created:  !ok,
	}, nil
}

// Leave removes the connection from its room and deletes the room once it is empty.
func (r *repo) Leave(ctx context.Context, params *room.LeaveParams) (room.LeaveResponse, error) {
	r.logger.DebugContext(ctx, "called", "room_id", params.RoomId, "conn_id", params.ConnId)
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[params.RoomId]
	if !ok {
		r.logger.DebugContext(ctx, "returned", "error", room.ErrRoomNotFound)
		return room.LeaveResponse{}, room.ErrRoomNotFound
	}

	member, remaining, err := rm.Leave(params.ConnId)
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return room.LeaveResponse{}, err
	}

	removed := remaining == 0
	if removed {
		delete(r.rooms, params.RoomId)
		r.logger.InfoContext(ctx, "room removed", "room_id", params.RoomId)
	}

	return room.LeaveResponse{
		Member:    member,
		Remaining: remaining,
		Removed:   removed,
	}, nil
}

// Remove drops the room regardless of its members. Removing a missing room is a no-op.
func (r *repo) Remove(ctx context.Context, roomId string) {
	r.logger.DebugContext(ctx, "called", "room_id", roomId)
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.rooms, roomId)
}

func (r *repo) Get(ctx context.Context, roomId string) (*domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[roomId]
	if !ok {
		return nil, room.ErrRoomNotFound
	}

	return rm, nil
}

// ListActive returns a summary of every room that has a video set, ordered by id.
func (r *repo) ListActive(ctx context.Context) []domain.RoomSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summaries := make([]domain.RoomSummary, 0, len(r.rooms))
	for _, rm := range r.rooms {
		summary := rm.Summary()
		if summary.MediaRef == "" {
			continue
		}

		summaries = append(summaries, summary)
	}

	slices.SortFunc(summaries, func(a, b domain.RoomSummary) int {
		return strings.Compare(a.Id, b.Id)
	})

	return summaries
}

func (r *repo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms)
}
