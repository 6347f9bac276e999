package domain

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/sharetube/cowatch/pkg/videosource"
)

var (
	ErrPermissionDenied  = errors.New("permission denied")
	ErrUnsupportedSource = errors.New("unsupported video source")
)

// DefaultSyncThreshold is the position jump in seconds above which a non play/pause
// sync action is forwarded to the other members.
const DefaultSyncThreshold = 2.0

type RoomConfig struct {
	MembersLimit  int
	PlaylistLimit int
	SyncThreshold float64
	// OnSendFailed is called for every event a member could not receive.
	OnSendFailed func()
}

// Room owns the playback state, membership and playlist of one session. Every mutation
// and every broadcast happens under mu, so members always observe a consistent state.
type Room struct {
	id            string
	ownerName     string
	joinedCount   int
	members       *Members
	player        *Player
	playlist      *Playlist
	syncThreshold float64
	onSendFailed  func()
	logger        *slog.Logger
	mu            sync.Mutex
}

func NewRoom(id, ownerName string, cfg *RoomConfig, logger *slog.Logger) *Room {
	threshold := cfg.SyncThreshold
	if threshold <= 0 {
		threshold = DefaultSyncThreshold
	}

	return &Room{
		id:            id,
		ownerName:     ownerName,
		members:       NewMembers(cfg.MembersLimit),
		player:        NewPlayer(),
		playlist:      NewPlaylist(cfg.PlaylistLimit),
		syncThreshold: threshold,
		onSendFailed:  cfg.OnSendFailed,
		logger:        logger.With("room_id", id),
	}
}

func (r *Room) Id() string {
	return r.id
}

func (r *Room) OwnerName() string {
	return r.ownerName
}

type JoinResult struct {
	Member   Member
	Snapshot InitEvent
}

// Join registers conn, sends it the init snapshot and announces it to everyone in the room,
// the joiner included. The first member ever and anyone using the owner's name are owners.
func (r *Room) Join(conn Sender, username string) (JoinResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	member := Member{
		Id:       conn.Id(),
		Username: username,
		IsOwner:  r.joinedCount == 0 || username == r.ownerName,
		Conn:     conn,
	}
	if err := r.members.Add(&member); err != nil {
		return JoinResult{}, err
	}
	r.joinedCount++

	snapshot := r.snapshotLocked(member.IsOwner)
	r.sendLocked(&member, &snapshot)
	r.sendMemberJoined(&member)
	r.sendViewersUpdated()

	return JoinResult{
		Member:   member,
		Snapshot: snapshot,
	}, nil
}

// Leave removes the member and returns how many are left. Remaining members are told
// about the departure; an empty room sends nothing.
func (r *Room) Leave(id ConnId) (Member, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	member, err := r.members.RemoveById(id)
	if err != nil {
		return Member{}, r.members.Length(), err
	}

	remaining := r.members.Length()
	if remaining > 0 {
		r.sendMemberLeft(&member)
		r.sendViewersUpdated()
	}

	return member, remaining, nil
}

func (r *Room) IsOwner(id ConnId) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	member, _, err := r.members.GetById(id)
	if err != nil {
		return false
	}

	return member.IsOwner
}

func (r *Room) ViewerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.members.Length()
}

func (r *Room) Chat(id ConnId, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	member, _, err := r.members.GetById(id)
	if err != nil {
		return err
	}

	r.broadcastLocked(&ChatEvent{
		Type: EventChat,
		User: member.Username,
		Text: text,
	}, "")

	return nil
}

// ChangeVideo swaps the current video for an already resolved source. Permission is checked
// before the source so a viewer never learns whether a URL would have been accepted.
func (r *Room) ChangeVideo(id ConnId, source videosource.Source, ref string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkOwnerLocked(id); err != nil {
		return err
	}

	if source == videosource.Unknown {
		return ErrUnsupportedSource
	}

	r.player.SetVideo(source, ref)
	r.broadcastLocked(&ChangeVideoEvent{
		Type:   EventChangeVideo,
		Url:    ref,
		Source: source,
	}, "")

	return nil
}

type SyncResult struct {
	Delta       float64
	Broadcasted bool
}

// Sync records the owner's playback position and forwards it to everyone else when the
// change is worth a client-side seek.
func (r *Room) Sync(id ConnId, action string, time float64) (SyncResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkOwnerLocked(id); err != nil {
		return SyncResult{}, err
	}

	delta, propagate := r.player.Sync(action, time, r.syncThreshold)
	if propagate {
		r.broadcastLocked(&SyncActionEvent{
			Type:   EventSyncAction,
			Action: action,
			Time:   time,
		}, id)
	}

	return SyncResult{
		Delta:       delta,
		Broadcasted: propagate,
	}, nil
}

func (r *Room) Emotion(id ConnId, emoji string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	member, _, err := r.members.GetById(id)
	if err != nil {
		return err
	}

	r.broadcastLocked(&EmotionEvent{
		Type:  EventEmotion,
		User:  member.Username,
		Emoji: emoji,
	}, "")

	return nil
}

// AddToPlaylist appends url and sends the whole playlist to every member.
func (r *Room) AddToPlaylist(id ConnId, url string) ([]PlaylistItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	member, _, err := r.members.GetById(id)
	if err != nil {
		return nil, err
	}

	if _, err := r.playlist.Add(member.Username, url); err != nil {
		return nil, err
	}

	playlist := r.playlist.AsList()
	r.broadcastLocked(&PlaylistUpdateEvent{
		Type:     EventPlaylistUpdate,
		Playlist: playlist,
	}, "")

	return playlist, nil
}

type RoomSummary struct {
	Id       string             `json:"id"`
	Viewers  int                `json:"viewers"`
	MediaRef string             `json:"url"`
	Source   videosource.Source `json:"source"`
}

func (r *Room) Summary() RoomSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	return RoomSummary{
		Id:       r.id,
		Viewers:  r.members.Length(),
		MediaRef: r.player.MediaRef,
		Source:   r.player.Source,
	}
}

type RoomState struct {
	Id       string         `json:"id"`
	Owner    string         `json:"owner"`
	Player   Player         `json:"player"`
	Playlist []PlaylistItem `json:"playlist"`
	Members  []Member       `json:"members"`
}

func (r *Room) State() RoomState {
	r.mu.Lock()
	defer r.mu.Unlock()

	return RoomState{
		Id:       r.id,
		Owner:    r.ownerName,
		Player:   *r.player,
		Playlist: r.playlist.AsList(),
		Members:  r.members.AsList(),
	}
}

func (r *Room) checkOwnerLocked(id ConnId) error {
	member, _, err := r.members.GetById(id)
	if err != nil {
		return err
	}

	if !member.IsOwner {
		return ErrPermissionDenied
	}

	return nil
}

func (r *Room) snapshotLocked(isOwner bool) InitEvent {
	return InitEvent{
		Type:      EventInit,
		Url:       r.player.MediaRef,
		Time:      r.player.CurrentTime,
		IsPlaying: r.player.IsPlaying,
		Source:    r.player.Source,
		IsOwner:   isOwner,
		Viewers:   r.members.Length(),
		Owner:     r.ownerName,
		Playlist:  r.playlist.AsList(),
	}
}
