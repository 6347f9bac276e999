package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sharetube/cowatch/internal/domain"
	"github.com/sharetube/cowatch/internal/repository/connection"
	"github.com/sharetube/cowatch/internal/repository/room"
)

type JoinRoomParams struct {
	RoomId   string
	Username string
	Conn     Conn
}

type JoinRoomResponse struct {
	Member   domain.Member
	Snapshot domain.InitEvent
	Created  bool
}

// JoinRoom admits the connection into the room, creating the room on first join. The
// joiner gets the init snapshot and everyone hears about the arrival before it returns.
func (s *service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	joinResp, err := s.roomRepo.Join(ctx, &room.JoinParams{
		RoomId:   params.RoomId,
		Username: params.Username,
		Conn:     params.Conn,
	})
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to join room: %w", err)
	}

	if err := s.connRepo.Add(params.Conn); err != nil {
		s.logger.WarnContext(ctx, "failed to track connection", "error", err)
	}
	s.updateGauges()

	s.logger.InfoContext(ctx, "member joined",
		"is_owner", joinResp.Member.IsOwner,
		"room_created", joinResp.Created,
	)

	return JoinRoomResponse{
		Member:   joinResp.Member,
		Snapshot: joinResp.Snapshot,
		Created:  joinResp.Created,
	}, nil
}

type LeaveRoomParams struct {
	RoomId string
	ConnId domain.ConnId
}

type LeaveRoomResponse struct {
	Remaining   int
	RoomRemoved bool
}

// LeaveRoom removes the connection from its room. The room is deleted when it becomes
// empty; otherwise the remaining members are told about the departure.
func (s *service) LeaveRoom(ctx context.Context, params *LeaveRoomParams) (LeaveRoomResponse, error) {
	if err := s.connRepo.Remove(params.ConnId); err != nil && !errors.Is(err, connection.ErrNotFound) {
		s.logger.WarnContext(ctx, "failed to untrack connection", "error", err)
	}
	defer s.updateGauges()

	leaveResp, err := s.roomRepo.Leave(ctx, &room.LeaveParams{
		RoomId: params.RoomId,
		ConnId: params.ConnId,
	})
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			return LeaveRoomResponse{}, ErrRoomNotFound
		}

		return LeaveRoomResponse{}, fmt.Errorf("failed to leave room: %w", err)
	}

	s.logger.InfoContext(ctx, "member left",
		"remaining", leaveResp.Remaining,
		"room_removed", leaveResp.Removed,
	)

	return LeaveRoomResponse{
		Remaining:   leaveResp.Remaining,
		RoomRemoved: leaveResp.Removed,
	}, nil
}

type SendChatParams struct {
	RoomId   string
	SenderId domain.ConnId
	Text     string
}

func (s *service) SendChat(ctx context.Context, params *SendChatParams) error {
	r, err := s.getRoom(ctx, params.RoomId)
	if err != nil {
		return err
	}

	if err := r.Chat(params.SenderId, params.Text); err != nil {
		return fmt.Errorf("failed to send chat: %w", err)
	}

	return nil
}

type SendEmotionParams struct {
	RoomId   string
	SenderId domain.ConnId
	Emoji    string
}

func (s *service) SendEmotion(ctx context.Context, params *SendEmotionParams) error {
	r, err := s.getRoom(ctx, params.RoomId)
	if err != nil {
		return err
	}

	if err := r.Emotion(params.SenderId, params.Emoji); err != nil {
		return fmt.Errorf("failed to send emotion: %w", err)
	}

	return nil
}
