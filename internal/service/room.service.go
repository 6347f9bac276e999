package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sharetube/cowatch/internal/domain"
	"github.com/sharetube/cowatch/internal/repository/directory"
	"github.com/sharetube/cowatch/pkg/videosource"
	"github.com/sharetube/cowatch/pkg/ytvideodata"
)

const (
	videoDataTimeout    = 3 * time.Second
	videoDataRetryAfter = time.Minute
	shutdownPollPeriod  = 20 * time.Millisecond
)

func (s *service) GetRoomState(ctx context.Context, roomId string) (domain.RoomState, error) {
	r, err := s.getRoom(ctx, roomId)
	if err != nil {
		return domain.RoomState{}, err
	}

	return r.State(), nil
}

// ListActiveRooms returns the gallery: every room with a video set, YouTube entries
// enriched with cached video metadata.
func (s *service) ListActiveRooms(ctx context.Context) []directory.Entry {
	summaries := s.roomRepo.ListActive(ctx)

	entries := make([]directory.Entry, 0, len(summaries))
	for _, summary := range summaries {
		entry := directory.Entry{
			Id:      summary.Id,
			Viewers: summary.Viewers,
			Url:     summary.MediaRef,
			Source:  string(summary.Source),
		}

		if summary.Source == videosource.YouTube {
			if videoData, ok := s.getVideoData(ctx, summary.MediaRef); ok {
				entry.Title = videoData.Title
				entry.AuthorName = videoData.AuthorName
				entry.ThumbnailUrl = videoData.ThumbnailUrl
			}
		}

		entries = append(entries, entry)
	}

	return entries
}

type videoDataCacheEntry struct {
	videoData ytvideodata.VideoData
	// zero for successful lookups, which never expire
	retryAt time.Time
}

func (s *service) getVideoData(ctx context.Context, videoId string) (ytvideodata.VideoData, bool) {
	if s.videoData == nil {
		return ytvideodata.VideoData{}, false
	}

	s.videoDataMu.Lock()
	cached, ok := s.videoDataCache[videoId]
	s.videoDataMu.Unlock()
	if ok {
		if cached.retryAt.IsZero() {
			return cached.videoData, true
		}
		if s.now().Before(cached.retryAt) {
			return ytvideodata.VideoData{}, false
		}
	}

	ctx, cancel := context.WithTimeout(ctx, videoDataTimeout)
	defer cancel()

	fetched, err := s.videoData.Get(ctx, videoId)
	if err != nil {
		s.logger.DebugContext(ctx, "failed to get video data", "video_id", videoId, "error", err)
		s.videoDataMu.Lock()
		s.videoDataCache[videoId] = videoDataCacheEntry{retryAt: s.now().Add(videoDataRetryAfter)}
		s.videoDataMu.Unlock()
		return ytvideodata.VideoData{}, false
	}

	s.videoDataMu.Lock()
	s.videoDataCache[videoId] = videoDataCacheEntry{videoData: *fetched}
	s.videoDataMu.Unlock()

	return *fetched, true
}

// PublishDirectory pushes the current gallery to the directory backend, if any.
func (s *service) PublishDirectory(ctx context.Context) error {
	if s.directoryRepo == nil {
		return nil
	}

	if err := s.directoryRepo.Publish(ctx, s.ListActiveRooms(ctx)); err != nil {
		return fmt.Errorf("failed to publish directory: %w", err)
	}

	return nil
}

func (s *service) ClearDirectory(ctx context.Context) error {
	if s.directoryRepo == nil {
		return nil
	}

	if err := s.directoryRepo.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear directory: %w", err)
	}

	return nil
}

// Shutdown asks every live connection to go away and waits until their receive loops
// have left their rooms, or until ctx is done.
func (s *service) Shutdown(ctx context.Context) error {
	conns := s.connRepo.List()
	s.logger.InfoContext(ctx, "closing connections", "count", len(conns))
	for _, conn := range conns {
		if err := conn.CloseWithCode(websocket.CloseGoingAway, "server shutting down"); err != nil {
			s.logger.DebugContext(ctx, "failed to close connection", "conn_id", conn.Id(), "error", err)
		}
	}

	ticker := time.NewTicker(shutdownPollPeriod)
	defer ticker.Stop()

	for s.connRepo.Count() > 0 {
		select {
		case <-ctx.Done():
			return fmt.Errorf("failed to drain connections: %w", ctx.Err())
		case <-ticker.C:
		}
	}

	return nil
}
