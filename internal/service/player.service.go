package service

import (
	"context"
	"fmt"

	"github.com/sharetube/cowatch/internal/domain"
	"github.com/sharetube/cowatch/pkg/videosource"
)

type ChangeVideoParams struct {
	RoomId   string
	SenderId domain.ConnId
	Url      string
}

type ChangeVideoResponse struct {
	Source videosource.Source
	Ref    string
}

func (s *service) ChangeVideo(ctx context.Context, params *ChangeVideoParams) (ChangeVideoResponse, error) {
	r, err := s.getRoom(ctx, params.RoomId)
	if err != nil {
		return ChangeVideoResponse{}, err
	}

	source, ref := videosource.Resolve(params.Url)
	if err := r.ChangeVideo(params.SenderId, source, ref); err != nil {
		return ChangeVideoResponse{}, fmt.Errorf("failed to change video: %w", err)
	}

	s.logger.InfoContext(ctx, "video changed", "source", source, "ref", ref)

	return ChangeVideoResponse{
		Source: source,
		Ref:    ref,
	}, nil
}

type SyncPlayerParams struct {
	RoomId   string
	SenderId domain.ConnId
	Action   string
	Time     float64
}

type SyncPlayerResponse struct {
	Delta       float64
	Broadcasted bool
}

func (s *service) SyncPlayer(ctx context.Context, params *SyncPlayerParams) (SyncPlayerResponse, error) {
	r, err := s.getRoom(ctx, params.RoomId)
	if err != nil {
		return SyncPlayerResponse{}, err
	}

	syncResult, err := r.Sync(params.SenderId, params.Action, params.Time)
	if err != nil {
		return SyncPlayerResponse{}, fmt.Errorf("failed to sync player: %w", err)
	}

	s.logger.DebugContext(ctx, "player synced",
		"action", params.Action,
		"delta", syncResult.Delta,
		"broadcasted", syncResult.Broadcasted,
	)

	return SyncPlayerResponse{
		Delta:       syncResult.Delta,
		Broadcasted: syncResult.Broadcasted,
	}, nil
}
