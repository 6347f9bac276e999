package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sharetube/cowatch/internal/connection"
	"github.com/sharetube/cowatch/internal/domain"
	"github.com/sharetube/cowatch/internal/repository/directory"
	"github.com/sharetube/cowatch/internal/service"
	"github.com/sharetube/cowatch/pkg/metrics"
	"github.com/sharetube/cowatch/pkg/validator"
	"github.com/sharetube/cowatch/pkg/wsrouter"
)

type iRoomService interface {
	JoinRoom(context.Context, *service.JoinRoomParams) (service.JoinRoomResponse, error)
	LeaveRoom(context.Context, *service.LeaveRoomParams) (service.LeaveRoomResponse, error)
	SendChat(context.Context, *service.SendChatParams) error
	ChangeVideo(context.Context, *service.ChangeVideoParams) (service.ChangeVideoResponse, error)
	SyncPlayer(context.Context, *service.SyncPlayerParams) (service.SyncPlayerResponse, error)
	SendEmotion(context.Context, *service.SendEmotionParams) error
	AddToPlaylist(context.Context, *service.AddToPlaylistParams) (service.AddToPlaylistResponse, error)
	GetRoomState(context.Context, string) (domain.RoomState, error)
	ListActiveRooms(context.Context) []directory.Entry
}

type controller struct {
	roomService iRoomService
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	metrics     *metrics.Metrics
	connConfig  *connection.Config
	wsRouter    *wsrouter.WSRouter[*connection.Conn]
	logger      *slog.Logger
}

func NewController(roomService iRoomService, m *metrics.Metrics, connConfig *connection.Config, logger *slog.Logger) *controller {
	if connConfig.MaxMessageSize < MinMessageSize {
		logger.Warn("raising max message size to fit the longest valid message",
			"configured", connConfig.MaxMessageSize, "min", MinMessageSize)
		cfg := *connConfig
		cfg.MaxMessageSize = MinMessageSize
		connConfig = &cfg
	}

	c := &controller{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		roomService: roomService,
		validate:    validator.NewValidator(),
		metrics:     m,
		connConfig:  connConfig,
		logger:      logger,
	}
	c.wsRouter = c.getWSRouter()

	return c
}
