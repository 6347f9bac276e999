package domain

import (
	"errors"
)

var (
	ErrPlaylistLimitReached = errors.New("playlist limit reached")
)

type PlaylistItem struct {
	Url         string `json:"url"`
	SubmittedBy string `json:"user"`
}

// Playlist is append-only for the lifetime of a room.
type Playlist struct {
	list  []PlaylistItem
	limit int
}

// NewPlaylist creates an empty playlist. A limit below 1 means unlimited.
func NewPlaylist(limit int) *Playlist {
	return &Playlist{
		list:  []PlaylistItem{},
		limit: limit,
	}
}

func (p Playlist) AsList() []PlaylistItem {
	list := make([]PlaylistItem, len(p.list))
	copy(list, p.list)
	return list
}

func (p Playlist) Length() int {
	return len(p.list)
}

func (p *Playlist) Add(submittedBy, url string) (PlaylistItem, error) {
	if p.limit > 0 && p.Length() >= p.limit {
		return PlaylistItem{}, ErrPlaylistLimitReached
	}

	item := PlaylistItem{
		Url:         url,
		SubmittedBy: submittedBy,
	}
	p.list = append(p.list, item)

	return item, nil
}
