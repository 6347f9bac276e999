package service

import (
	"context"
	"fmt"

	"github.com/sharetube/cowatch/internal/domain"
)

type AddToPlaylistParams struct {
	RoomId   string
	SenderId domain.ConnId
	Url      string
}

type AddToPlaylistResponse struct {
	Playlist []domain.PlaylistItem
}

func (s *service) AddToPlaylist(ctx context.Context, params *AddToPlaylistParams) (AddToPlaylistResponse, error) {
	r, err := s.getRoom(ctx, params.RoomId)
	if err != nil {
		return AddToPlaylistResponse{}, err
	}

	playlist, err := r.AddToPlaylist(params.SenderId, params.Url)
	if err != nil {
		return AddToPlaylistResponse{}, fmt.Errorf("failed to add to playlist: %w", err)
	}

	return AddToPlaylistResponse{
		Playlist: playlist,
	}, nil
}
