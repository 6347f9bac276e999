package domain

import "github.com/sharetube/cowatch/pkg/videosource"

const (
	EventInit           = "init"
	EventChat           = "chat"
	EventChangeVideo    = "change_video"
	EventSyncAction     = "sync_action"
	EventEmotion        = "emotion"
	EventPlaylistUpdate = "playlist_update"
	EventViewersUpdate  = "viewers_update"
	EventError          = "error"
)

// MessageAddToPlaylist is sent by clients to queue a video.
const MessageAddToPlaylist = "add_to_playlist"

// SystemUsername is the sender of arrival and departure notices.
const SystemUsername = "System"

type InitEvent struct {
	Type      string             `json:"type"`
	Url       string             `json:"url"`
	Time      float64            `json:"time"`
	IsPlaying bool               `json:"is_playing"`
	Source    videosource.Source `json:"source"`
	IsOwner   bool               `json:"is_owner"`
	Viewers   int                `json:"viewers"`
	Owner     string             `json:"owner"`
	Playlist  []PlaylistItem     `json:"playlist"`
}

type ChatEvent struct {
	Type    string `json:"type"`
	User    string `json:"user"`
	Text    string `json:"text"`
	IsOwner *bool  `json:"is_owner,omitempty"`
}

type ChangeVideoEvent struct {
	Type   string             `json:"type"`
	Url    string             `json:"url"`
	Source videosource.Source `json:"source"`
}

type SyncActionEvent struct {
	Type   string  `json:"type"`
	Action string  `json:"action"`
	Time   float64 `json:"time"`
}

type EmotionEvent struct {
	Type  string `json:"type"`
	User  string `json:"user"`
	Emoji string `json:"emoji"`
}

type PlaylistUpdateEvent struct {
	Type     string         `json:"type"`
	Playlist []PlaylistItem `json:"playlist"`
}

type ViewersUpdateEvent struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewErrorEvent(message string) *ErrorEvent {
	return &ErrorEvent{
		Type:    EventError,
		Message: message,
	}
}
