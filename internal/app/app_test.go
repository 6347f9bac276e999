package app

import (
	"context"
	"log/slog"
	"net"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *AppConfig {
	return &AppConfig{
		Host:              "127.0.0.1",
		Port:              0,
		LogLevel:          "DEBUG",
		MembersLimit:      50,
		PlaylistLimit:     100,
		SyncThreshold:     2.0,
		SendBuffer:        64,
		WriteWait:         time.Second,
		PingInterval:      time.Minute,
		MaxMessageSize:    32768,
		Directory:         DirectoryMemory,
		DirectoryInterval: 5 * time.Second,
		VideoMetadata:     false,
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, testConfig().Validate())

	tests := []struct {
		name   string
		modify func(cfg *AppConfig)
	}{
		{name: "members limit", modify: func(cfg *AppConfig) { cfg.MembersLimit = 0 }},
		{name: "playlist limit", modify: func(cfg *AppConfig) { cfg.PlaylistLimit = -1 }},
		{name: "sync threshold", modify: func(cfg *AppConfig) { cfg.SyncThreshold = 0 }},
		{name: "send buffer", modify: func(cfg *AppConfig) { cfg.SendBuffer = 0 }},
		{name: "max message size", modify: func(cfg *AppConfig) { cfg.MaxMessageSize = 0 }},
		{name: "max message size below longest message", modify: func(cfg *AppConfig) { cfg.MaxMessageSize = 4096 }},
		{name: "write wait", modify: func(cfg *AppConfig) { cfg.WriteWait = 0 }},
		{name: "directory interval", modify: func(cfg *AppConfig) { cfg.DirectoryInterval = 0 }},
		{name: "directory backend", modify: func(cfg *AppConfig) { cfg.Directory = "etcd" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestNewLogger(t *testing.T) {
	_, err := NewLogger("debug")
	require.NoError(t, err)

	_, err = NewLogger("loud")
	assert.Error(t, err)
}

func TestNewFailsWithoutRedis(t *testing.T) {
	cfg := testConfig()
	cfg.Directory = DirectoryRedis
	cfg.RedisHost = "127.0.0.1"
	cfg.RedisPort = 1

	_, err := New(context.Background(), cfg, slog.Default())
	assert.Error(t, err)
}

func readType(t *testing.T, ws *websocket.Conn) string {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))

	var e map[string]any
	require.NoError(t, ws.ReadJSON(&e))
	return e["type"].(string)
}

func TestAppWithRedisDirectory(t *testing.T) {
	s := miniredis.RunT(t)
	host, port, err := net.SplitHostPort(s.Addr())
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port)
	require.NoError(t, err)

	cfg := testConfig()
	cfg.Directory = DirectoryRedis
	cfg.RedisHost = host
	cfg.RedisPort = portNum

	ctx := context.Background()
	a, err := New(ctx, cfg, slog.Default())
	require.NoError(t, err)
	defer a.Close()

	server := httptest.NewServer(a.Handler())
	defer server.Close()

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws/movie/alice", nil)
	require.NoError(t, err)
	defer ws.Close()

	assert.Equal(t, "init", readType(t, ws))
	assert.Equal(t, "chat", readType(t, ws))
	assert.Equal(t, "viewers_update", readType(t, ws))

	require.NoError(t, ws.WriteJSON(map[string]any{"type": "change_video", "url": "https://youtu.be/dQw4w9WgXcQ"}))
	assert.Equal(t, "change_video", readType(t, ws))

	require.NoError(t, a.roomService.PublishDirectory(ctx))
	members, err := s.SMembers("directory:rooms")
	require.NoError(t, err)
	assert.Equal(t, []string{"movie"}, members)
	assert.Equal(t, "dQw4w9WgXcQ", s.HGet("directory:room:movie", "url"))
	assert.Equal(t, "youtube", s.HGet("directory:room:movie", "source"))

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, a.Shutdown(shutdownCtx))

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = ws.ReadMessage()
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, websocket.CloseGoingAway, closeErr.Code)

	assert.False(t, s.Exists("directory:rooms"))
	assert.False(t, s.Exists("directory:room:movie"))
}

func TestDirectoryPublishedOnlyWithRedis(t *testing.T) {
	a, err := New(context.Background(), testConfig(), slog.Default())
	require.NoError(t, err)
	defer a.Close()

	assert.False(t, a.publishesDirectory())
	assert.NoError(t, a.roomService.PublishDirectory(context.Background()))

	s := miniredis.RunT(t)
	host, port, err := net.SplitHostPort(s.Addr())
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port)
	require.NoError(t, err)

	cfg := testConfig()
	cfg.Directory = DirectoryRedis
	cfg.RedisHost = host
	cfg.RedisPort = portNum

	a, err = New(context.Background(), cfg, slog.Default())
	require.NoError(t, err)
	defer a.Close()

	assert.True(t, a.publishesDirectory())
}

func TestDirectoryPublisherStopsWithContext(t *testing.T) {
	cfg := testConfig()
	cfg.DirectoryInterval = 10 * time.Millisecond

	a, err := New(context.Background(), cfg, slog.Default())
	require.NoError(t, err)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- a.runDirectoryPublisher(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("publisher did not stop")
	}
}
