package domain

import (
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/sharetube/cowatch/pkg/videosource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	id     ConnId
	err    error
	mu     sync.Mutex
	events []any
}

func newFakeSender(id string) *fakeSender {
	return &fakeSender{id: ConnId(id)}
}

func (s *fakeSender) Id() ConnId {
	return s.id
}

func (s *fakeSender) Send(event any) error {
	if s.err != nil {
		return s.err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *fakeSender) Events() []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]any(nil), s.events...)
}

func (s *fakeSender) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}

func newTestRoom(t *testing.T, cfg *RoomConfig) *Room {
	t.Helper()
	if cfg == nil {
		cfg = &RoomConfig{}
	}

	return NewRoom("movie-night", "alice", cfg, slog.Default())
}

func joinMember(t *testing.T, r *Room, id, username string) *fakeSender {
	t.Helper()
	s := newFakeSender(id)
	_, err := r.Join(s, username)
	require.NoError(t, err)
	return s
}

func TestJoinOwnership(t *testing.T) {
	r := newTestRoom(t, nil)

	alice := joinMember(t, r, "c1", "alice")
	bob := joinMember(t, r, "c2", "bob")
	aliceAgain := joinMember(t, r, "c3", "alice")

	assert.True(t, r.IsOwner(alice.Id()), "first member must be owner")
	assert.False(t, r.IsOwner(bob.Id()), "bob must not be owner")
	assert.True(t, r.IsOwner(aliceAgain.Id()), "owner name must be re-admitted as owner")
	assert.False(t, r.IsOwner("missing"), "non member is never owner")
	assert.Equal(t, 3, r.ViewerCount())
}

func TestJoinSendsInitThenAnnouncements(t *testing.T) {
	r := newTestRoom(t, nil)
	alice := joinMember(t, r, "c1", "alice")

	events := alice.Events()
	require.Len(t, events, 3)

	init, ok := events[0].(*InitEvent)
	require.True(t, ok, "first event must be init")
	assert.Equal(t, EventInit, init.Type)
	assert.True(t, init.IsOwner)
	assert.Equal(t, 1, init.Viewers)
	assert.Equal(t, "", init.Url)
	assert.Equal(t, videosource.YouTube, init.Source)
	assert.Equal(t, "alice", init.Owner)

	arrival, ok := events[1].(*ChatEvent)
	require.True(t, ok)
	assert.Equal(t, SystemUsername, arrival.User)
	assert.Equal(t, "alice (owner) joined", arrival.Text)
	require.NotNil(t, arrival.IsOwner)
	assert.True(t, *arrival.IsOwner)

	viewers, ok := events[2].(*ViewersUpdateEvent)
	require.True(t, ok)
	assert.Equal(t, 1, viewers.Count)

	alice.Reset()
	bob := joinMember(t, r, "c2", "bob")

	aliceEvents := alice.Events()
	require.Len(t, aliceEvents, 2)
	assert.Equal(t, "bob (viewer) joined", aliceEvents[0].(*ChatEvent).Text)
	assert.Equal(t, 2, aliceEvents[1].(*ViewersUpdateEvent).Count)

	bobInit := bob.Events()[0].(*InitEvent)
	assert.False(t, bobInit.IsOwner)
	assert.Equal(t, 2, bobInit.Viewers)
}

func TestInitCarriesCurrentState(t *testing.T) {
	r := newTestRoom(t, nil)
	alice := joinMember(t, r, "c1", "alice")

	require.NoError(t, r.ChangeVideo(alice.Id(), videosource.MP4, "https://example.com/clip.mp4"))
	_, err := r.Sync(alice.Id(), ActionPlay, 42.5)
	require.NoError(t, err)
	_, err = r.AddToPlaylist(alice.Id(), "https://youtu.be/dQw4w9WgXcQ")
	require.NoError(t, err)

	bob := joinMember(t, r, "c2", "bob")
	init := bob.Events()[0].(*InitEvent)
	assert.Equal(t, "https://example.com/clip.mp4", init.Url)
	assert.Equal(t, videosource.MP4, init.Source)
	assert.Equal(t, 42.5, init.Time)
	assert.True(t, init.IsPlaying)
	assert.Equal(t, []PlaylistItem{{Url: "https://youtu.be/dQw4w9WgXcQ", SubmittedBy: "alice"}}, init.Playlist)
}

func TestLeave(t *testing.T) {
	r := newTestRoom(t, nil)
	alice := joinMember(t, r, "c1", "alice")
	bob := joinMember(t, r, "c2", "bob")
	alice.Reset()

	member, remaining, err := r.Leave(bob.Id())
	require.NoError(t, err)
	assert.Equal(t, "bob", member.Username)
	assert.Equal(t, 1, remaining)

	events := alice.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "bob left", events[0].(*ChatEvent).Text)
	assert.Equal(t, 1, events[1].(*ViewersUpdateEvent).Count)

	bob.Reset()
	alice.Reset()
	_, remaining, err = r.Leave(alice.Id())
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
	assert.Empty(t, alice.Events(), "nobody is left to notify")

	_, _, err = r.Leave(alice.Id())
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestNonOwnerCannotChangePlayback(t *testing.T) {
	r := newTestRoom(t, nil)
	alice := joinMember(t, r, "c1", "alice")
	bob := joinMember(t, r, "c2", "bob")

	require.NoError(t, r.ChangeVideo(alice.Id(), videosource.YouTube, "dQw4w9WgXcQ"))
	_, err := r.Sync(alice.Id(), ActionPause, 12)
	require.NoError(t, err)
	before := r.State().Player
	alice.Reset()

	err = r.ChangeVideo(bob.Id(), videosource.MP4, "https://example.com/clip.mp4")
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = r.Sync(bob.Id(), ActionPlay, 99)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	err = r.ChangeVideo(bob.Id(), videosource.Unknown, "https://example.com/page")
	assert.ErrorIs(t, err, ErrPermissionDenied, "permission is checked before the source")

	assert.Equal(t, before, r.State().Player)
	assert.Empty(t, alice.Events(), "rejected actions must not broadcast")
}

func TestChangeVideo(t *testing.T) {
	r := newTestRoom(t, nil)
	alice := joinMember(t, r, "c1", "alice")
	bob := joinMember(t, r, "c2", "bob")
	_, err := r.Sync(alice.Id(), ActionPause, 30)
	require.NoError(t, err)
	alice.Reset()
	bob.Reset()

	require.NoError(t, r.ChangeVideo(alice.Id(), videosource.YouTube, "dQw4w9WgXcQ"))

	player := r.State().Player
	assert.Equal(t, "dQw4w9WgXcQ", player.MediaRef)
	assert.Equal(t, videosource.YouTube, player.Source)
	assert.Equal(t, 0.0, player.CurrentTime)
	assert.True(t, player.IsPlaying)

	for _, s := range []*fakeSender{alice, bob} {
		events := s.Events()
		require.Len(t, events, 1)
		assert.Equal(t, &ChangeVideoEvent{Type: EventChangeVideo, Url: "dQw4w9WgXcQ", Source: videosource.YouTube}, events[0])
	}
}

func TestChangeVideoUnknownSource(t *testing.T) {
	r := newTestRoom(t, nil)
	alice := joinMember(t, r, "c1", "alice")
	require.NoError(t, r.ChangeVideo(alice.Id(), videosource.YouTube, "dQw4w9WgXcQ"))
	alice.Reset()

	err := r.ChangeVideo(alice.Id(), videosource.Unknown, "https://example.com/page")
	assert.ErrorIs(t, err, ErrUnsupportedSource)

	player := r.State().Player
	assert.Equal(t, "dQw4w9WgXcQ", player.MediaRef)
	assert.Equal(t, videosource.YouTube, player.Source)
	assert.Empty(t, alice.Events())
}

func TestSyncSeekCoalescing(t *testing.T) {
	r := newTestRoom(t, nil)
	alice := joinMember(t, r, "c1", "alice")
	bob := joinMember(t, r, "c2", "bob")

	_, err := r.Sync(alice.Id(), ActionPause, 10.0)
	require.NoError(t, err)
	alice.Reset()
	bob.Reset()

	res, err := r.Sync(alice.Id(), ActionSeek, 10.5)
	require.NoError(t, err)
	assert.False(t, res.Broadcasted)
	assert.InDelta(t, 0.5, res.Delta, 1e-9)
	assert.Equal(t, 10.5, r.State().Player.CurrentTime)
	assert.Empty(t, bob.Events())

	res, err = r.Sync(alice.Id(), ActionSeek, 15.0)
	require.NoError(t, err)
	assert.True(t, res.Broadcasted)
	assert.InDelta(t, 4.5, res.Delta, 1e-9)

	events := bob.Events()
	require.Len(t, events, 1)
	assert.Equal(t, &SyncActionEvent{Type: EventSyncAction, Action: ActionSeek, Time: 15.0}, events[0])
	assert.Empty(t, alice.Events(), "sender is excluded")
}

func TestSyncExactThresholdDoesNotBroadcast(t *testing.T) {
	r := newTestRoom(t, nil)
	alice := joinMember(t, r, "c1", "alice")
	bob := joinMember(t, r, "c2", "bob")
	bob.Reset()

	res, err := r.Sync(alice.Id(), ActionSeek, 2.0)
	require.NoError(t, err)
	assert.False(t, res.Broadcasted)
	assert.Empty(t, bob.Events())
}

func TestSyncPlayPauseAlwaysBroadcast(t *testing.T) {
	r := newTestRoom(t, nil)
	alice := joinMember(t, r, "c1", "alice")
	bob := joinMember(t, r, "c2", "bob")
	bob.Reset()

	res, err := r.Sync(alice.Id(), ActionPlay, 0.1)
	require.NoError(t, err)
	assert.True(t, res.Broadcasted)
	assert.True(t, r.State().Player.IsPlaying)

	res, err = r.Sync(alice.Id(), ActionPause, 0.2)
	require.NoError(t, err)
	assert.True(t, res.Broadcasted)
	assert.False(t, r.State().Player.IsPlaying)

	events := bob.Events()
	require.Len(t, events, 2)
	assert.Equal(t, ActionPlay, events[0].(*SyncActionEvent).Action)
	assert.Equal(t, ActionPause, events[1].(*SyncActionEvent).Action)
}

func TestChatAndEmotion(t *testing.T) {
	r := newTestRoom(t, nil)
	alice := joinMember(t, r, "c1", "alice")
	bob := joinMember(t, r, "c2", "bob")
	alice.Reset()
	bob.Reset()

	require.NoError(t, r.Chat(bob.Id(), "hi"))
	require.NoError(t, r.Emotion(bob.Id(), "🔥"))

	for _, s := range []*fakeSender{alice, bob} {
		events := s.Events()
		require.Len(t, events, 2)
		assert.Equal(t, &ChatEvent{Type: EventChat, User: "bob", Text: "hi"}, events[0])
		assert.Equal(t, &EmotionEvent{Type: EventEmotion, User: "bob", Emoji: "🔥"}, events[1])
	}

	assert.ErrorIs(t, r.Chat("ghost", "boo"), ErrMemberNotFound)
}

func TestAddToPlaylist(t *testing.T) {
	r := newTestRoom(t, &RoomConfig{PlaylistLimit: 2})
	alice := joinMember(t, r, "c1", "alice")
	bob := joinMember(t, r, "c2", "bob")
	alice.Reset()

	_, err := r.AddToPlaylist(bob.Id(), "https://youtu.be/aaaaaaaaaaa")
	require.NoError(t, err)
	playlist, err := r.AddToPlaylist(alice.Id(), "https://example.com/b.mp4")
	require.NoError(t, err)

	want := []PlaylistItem{
		{Url: "https://youtu.be/aaaaaaaaaaa", SubmittedBy: "bob"},
		{Url: "https://example.com/b.mp4", SubmittedBy: "alice"},
	}
	assert.Equal(t, want, playlist)

	events := alice.Events()
	require.Len(t, events, 2)
	assert.Len(t, events[0].(*PlaylistUpdateEvent).Playlist, 1)
	assert.Equal(t, want, events[1].(*PlaylistUpdateEvent).Playlist, "update carries the full playlist")

	_, err = r.AddToPlaylist(bob.Id(), "https://example.com/c.mp4")
	assert.ErrorIs(t, err, ErrPlaylistLimitReached)
	assert.Len(t, alice.Events(), 2)
}

func TestBroadcastSkipsFailingRecipient(t *testing.T) {
	failures := 0
	r := newTestRoom(t, &RoomConfig{OnSendFailed: func() { failures++ }})
	alice := joinMember(t, r, "c1", "alice")
	broken := joinMember(t, r, "c2", "broken")
	carol := joinMember(t, r, "c3", "carol")
	alice.Reset()
	carol.Reset()

	broken.err = errors.New("connection reset")
	r.Broadcast(&ChatEvent{Type: EventChat, User: "alice", Text: "still here?"}, "")

	assert.Len(t, alice.Events(), 1)
	assert.Len(t, carol.Events(), 1)
	assert.Equal(t, 1, failures)
	assert.Equal(t, 3, r.ViewerCount(), "a failed send does not remove the member")
}

func TestBroadcastExclude(t *testing.T) {
	r := newTestRoom(t, nil)
	alice := joinMember(t, r, "c1", "alice")
	bob := joinMember(t, r, "c2", "bob")
	alice.Reset()
	bob.Reset()

	r.Broadcast(&ViewersUpdateEvent{Type: EventViewersUpdate, Count: 2}, alice.Id())
	assert.Empty(t, alice.Events())
	assert.Len(t, bob.Events(), 1)
}

func TestMembersLimit(t *testing.T) {
	r := newTestRoom(t, &RoomConfig{MembersLimit: 1})
	joinMember(t, r, "c1", "alice")

	_, err := r.Join(newFakeSender("c2"), "bob")
	assert.ErrorIs(t, err, ErrMembersLimitReached)
	assert.Equal(t, 1, r.ViewerCount())
}

func TestConcurrentPlaylistAppends(t *testing.T) {
	r := newTestRoom(t, nil)
	alice := joinMember(t, r, "c1", "alice")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.AddToPlaylist(alice.Id(), "https://example.com/a.mp4")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, r.State().Playlist, 50)
	last := alice.Events()[len(alice.Events())-1].(*PlaylistUpdateEvent)
	assert.Len(t, last.Playlist, 50, "the last broadcast reflects every append")
}
