package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sharetube/cowatch/internal/domain"
	"github.com/sharetube/cowatch/internal/repository/connection"
	"github.com/sharetube/cowatch/internal/repository/directory"
	"github.com/sharetube/cowatch/internal/repository/room"
	"github.com/sharetube/cowatch/pkg/metrics"
	"github.com/sharetube/cowatch/pkg/ytvideodata"
)

var (
	ErrRoomNotFound = errors.New("room not found")
)

type iRoomRepo interface {
	Join(context.Context, *room.JoinParams) (room.JoinResponse, error)
	Leave(context.Context, *room.LeaveParams) (room.LeaveResponse, error)
	Get(context.Context, string) (*domain.Room, error)
	ListActive(context.Context) []domain.RoomSummary
	Count() int
}

type iConnRepo interface {
	Add(connection.Conn) error
	Remove(domain.ConnId) error
	List() []connection.Conn
	Count() int
}

type iDirectoryRepo interface {
	Publish(context.Context, []directory.Entry) error
	Clear(context.Context) error
}

type iVideoDataProvider interface {
	Get(ctx context.Context, videoId string) (*ytvideodata.VideoData, error)
}

// Conn is what a member talks through: the room sends it events and the service can
// close it on shutdown.
type Conn interface {
	domain.Sender
	CloseWithCode(code int, text string) error
}

type service struct {
	roomRepo      iRoomRepo
	connRepo      iConnRepo
	directoryRepo iDirectoryRepo
	videoData     iVideoDataProvider
	metrics       *metrics.Metrics
	logger        *slog.Logger

	videoDataCache map[string]videoDataCacheEntry
	videoDataMu    sync.Mutex
	now            func() time.Time
}

// New builds the room service. directoryRepo may be nil when the gallery is not
// mirrored. videoData may be nil, in which case gallery entries carry no video metadata.
func New(
	roomRepo iRoomRepo,
	connRepo iConnRepo,
	directoryRepo iDirectoryRepo,
	videoData iVideoDataProvider,
	m *metrics.Metrics,
	logger *slog.Logger,
) *service {
	return &service{
		roomRepo:       roomRepo,
		connRepo:       connRepo,
		directoryRepo:  directoryRepo,
		videoData:      videoData,
		metrics:        m,
		logger:         logger,
		videoDataCache: make(map[string]videoDataCacheEntry),
		now:            time.Now,
	}
}

func (s *service) getRoom(ctx context.Context, roomId string) (*domain.Room, error) {
	r, err := s.roomRepo.Get(ctx, roomId)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}

		return nil, err
	}

	return r, nil
}

func (s *service) updateGauges() {
	s.metrics.RoomsActive.Set(float64(s.roomRepo.Count()))
	s.metrics.ConnectionsActive.Set(float64(s.connRepo.Count()))
}
