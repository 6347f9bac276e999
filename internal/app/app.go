package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sharetube/cowatch/internal/connection"
	"github.com/sharetube/cowatch/internal/controller"
	"github.com/sharetube/cowatch/internal/domain"
	connInmemory "github.com/sharetube/cowatch/internal/repository/connection/inmemory"
	"github.com/sharetube/cowatch/internal/repository/directory"
	directoryRedis "github.com/sharetube/cowatch/internal/repository/directory/redis"
	roomInmemory "github.com/sharetube/cowatch/internal/repository/room/inmemory"
	"github.com/sharetube/cowatch/internal/service"
	"github.com/sharetube/cowatch/pkg/ctxlogger"
	"github.com/sharetube/cowatch/pkg/metrics"
	"github.com/sharetube/cowatch/pkg/redisclient"
	"github.com/sharetube/cowatch/pkg/ytvideodata"
	"golang.org/x/sync/errgroup"
)

const (
	// DirectoryMemory serves the gallery from process memory only.
	DirectoryMemory = "memory"
	// DirectoryRedis also mirrors the gallery into Redis every directory interval.
	DirectoryRedis = "redis"

	shutdownTimeout = 30 * time.Second
)

type AppConfig struct {
	Host              string        `json:"host"`
	Port              int           `json:"port"`
	LogLevel          string        `json:"log_level"`
	MembersLimit      int           `json:"members_limit"`
	PlaylistLimit     int           `json:"playlist_limit"`
	SyncThreshold     float64       `json:"sync_threshold"`
	SendBuffer        int           `json:"send_buffer"`
	WriteWait         time.Duration `json:"write_wait"`
	PingInterval      time.Duration `json:"ping_interval"`
	MaxMessageSize    int64         `json:"max_message_size"`
	Directory         string        `json:"directory"`
	DirectoryInterval time.Duration `json:"directory_interval"`
	RedisHost         string        `json:"redis_host"`
	RedisPort         int           `json:"redis_port"`
	RedisPassword     string        `json:"-"`
	VideoMetadata     bool          `json:"video_metadata"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.MembersLimit < 1 {
		return fmt.Errorf("members limit must be greater than 0")
	}
	if cfg.PlaylistLimit < 1 {
		return fmt.Errorf("playlist limit must be greater than 0")
	}
	if cfg.SyncThreshold <= 0 {
		return fmt.Errorf("sync threshold must be greater than 0")
	}
	if cfg.SendBuffer < 1 {
		return fmt.Errorf("send buffer must be greater than 0")
	}
	if cfg.MaxMessageSize < controller.MinMessageSize {
		return fmt.Errorf("max message size must be at least %d", controller.MinMessageSize)
	}
	if cfg.WriteWait <= 0 {
		return fmt.Errorf("write wait must be greater than 0")
	}
	if cfg.DirectoryInterval <= 0 {
		return fmt.Errorf("directory interval must be greater than 0")
	}
	if cfg.Directory != DirectoryMemory && cfg.Directory != DirectoryRedis {
		return fmt.Errorf("directory must be %q or %q, got %q", DirectoryMemory, DirectoryRedis, cfg.Directory)
	}
	return nil
}

func NewLogger(level string) (*slog.Logger, error) {
	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	return slog.New(&h), nil
}

type iDirectoryRepo interface {
	Publish(context.Context, []directory.Entry) error
	Clear(context.Context) error
}

type iVideoDataProvider interface {
	Get(ctx context.Context, videoId string) (*ytvideodata.VideoData, error)
}

type iRoomService interface {
	PublishDirectory(context.Context) error
	ClearDirectory(context.Context) error
	Shutdown(context.Context) error
}

type App struct {
	cfg         *AppConfig
	logger      *slog.Logger
	handler     http.Handler
	roomService iRoomService
	closers     []func() error
}

// New wires every component. Close releases what New opened.
func New(ctx context.Context, cfg *AppConfig, logger *slog.Logger) (*App, error) {
	a := &App{
		cfg:    cfg,
		logger: logger,
	}

	m := metrics.New()

	roomRepo := roomInmemory.NewRepo(&domain.RoomConfig{
		MembersLimit:  cfg.MembersLimit,
		PlaylistLimit: cfg.PlaylistLimit,
		SyncThreshold: cfg.SyncThreshold,
		OnSendFailed:  m.EventsDropped.Inc,
	}, logger)
	connRepo := connInmemory.NewRepo(logger)

	var directoryRepo iDirectoryRepo
	if cfg.Directory == DirectoryRedis {
		rc, err := redisclient.NewRedisClient(ctx, &redisclient.Config{
			Port:     cfg.RedisPort,
			Host:     cfg.RedisHost,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create redis client: %w", err)
		}
		a.closers = append(a.closers, rc.Close)

		directoryRepo = directoryRedis.NewRepo(rc, 3*cfg.DirectoryInterval, logger)
	}

	var videoData iVideoDataProvider
	if cfg.VideoMetadata {
		videoData = ytvideodata.NewClient(nil)
	}

	roomService := service.New(roomRepo, connRepo, directoryRepo, videoData, m, logger)
	a.roomService = roomService

	ctrl := controller.NewController(roomService, m, &connection.Config{
		SendBuffer:     cfg.SendBuffer,
		WriteWait:      cfg.WriteWait,
		PingInterval:   cfg.PingInterval,
		MaxMessageSize: cfg.MaxMessageSize,
	}, logger)
	a.handler = ctrl.GetMux()

	return a, nil
}

func (a *App) Handler() http.Handler {
	return a.handler
}

func (a *App) Close() error {
	var errs []error
	for _, closer := range a.closers {
		errs = append(errs, closer())
	}

	return errors.Join(errs...)
}

func (a *App) publishesDirectory() bool {
	return a.cfg.Directory == DirectoryRedis
}

// runDirectoryPublisher publishes the gallery every interval until ctx is done.
func (a *App) runDirectoryPublisher(ctx context.Context) error {
	ticker := time.NewTicker(a.cfg.DirectoryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := a.roomService.PublishDirectory(ctx); err != nil {
				a.logger.WarnContext(ctx, "failed to publish directory", "error", err)
			}
		}
	}
}

// Shutdown disconnects every participant and clears the published directory.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if err := a.roomService.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}

	if err := a.roomService.ClearDirectory(ctx); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	a, err := New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: a.Handler()}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.InfoContext(gCtx, "starting server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	})

	if a.publishesDirectory() {
		g.Go(func() error {
			return a.runDirectoryPublisher(gCtx)
		})
	}

	// graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}

		if err := a.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shutdown app: %w", err)
		}

		return nil
	})

	return g.Wait()
}
