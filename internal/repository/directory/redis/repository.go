package redis

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sharetube/cowatch/internal/repository/directory"
)

const roomsKey = "directory:rooms"

// repo mirrors the gallery into Redis for renderers running in another process. Every
// key expires after ttl.
type repo struct {
	rc     *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRepo(rc *redis.Client, ttl time.Duration, logger *slog.Logger) *repo {
	return &repo{
		rc:     rc,
		ttl:    ttl,
		logger: logger,
	}
}

func (r repo) getEntryKey(roomId string) string {
	return "directory:room:" + roomId
}

// Publish replaces the mirrored directory with entries.
func (r repo) Publish(ctx context.Context, entries []directory.Entry) error {
	r.logger.DebugContext(ctx, "called", "entries", len(entries))
	previous, err := r.rc.SMembers(ctx, roomsKey).Result()
	if err != nil {
		return fmt.Errorf("failed to get directory rooms: %w", err)
	}

	pipe := r.rc.TxPipeline()
	ids := make([]any, 0, len(entries))
	current := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		entryKey := r.getEntryKey(entry.Id)
		pipe.Del(ctx, entryKey)
		pipe.HSet(ctx, entryKey, entry)
		pipe.Expire(ctx, entryKey, r.ttl)

		ids = append(ids, entry.Id)
		current[entry.Id] = struct{}{}
	}

	for _, roomId := range previous {
		if _, ok := current[roomId]; !ok {
			pipe.Del(ctx, r.getEntryKey(roomId))
		}
	}

	pipe.Del(ctx, roomsKey)
	if len(ids) > 0 {
		pipe.SAdd(ctx, roomsKey, ids...)
		pipe.Expire(ctx, roomsKey, r.ttl)
	}

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return fmt.Errorf("failed to publish directory: %w", err)
	}

	return nil
}

// List returns the mirrored entries ordered by room id. Entries whose hash already
// expired are skipped.
func (r repo) List(ctx context.Context) ([]directory.Entry, error) {
	roomIds, err := r.rc.SMembers(ctx, roomsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get directory rooms: %w", err)
	}
	slices.Sort(roomIds)

	pipe := r.rc.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, 0, len(roomIds))
	for _, roomId := range roomIds {
		cmds = append(cmds, pipe.HGetAll(ctx, r.getEntryKey(roomId)))
	}

	if len(cmds) > 0 {
		if err := r.executePipe(ctx, pipe); err != nil {
			return nil, fmt.Errorf("failed to get directory entries: %w", err)
		}
	}

	entries := make([]directory.Entry, 0, len(cmds))
	for _, cmd := range cmds {
		if len(cmd.Val()) == 0 {
			continue
		}

		var entry directory.Entry
		if err := cmd.Scan(&entry); err != nil {
			return nil, fmt.Errorf("failed to scan directory entry: %w", err)
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

func (r repo) Clear(ctx context.Context) error {
	roomIds, err := r.rc.SMembers(ctx, roomsKey).Result()
	if err != nil {
		return fmt.Errorf("failed to get directory rooms: %w", err)
	}

	keys := make([]string, 0, len(roomIds)+1)
	for _, roomId := range roomIds {
		keys = append(keys, r.getEntryKey(roomId))
	}
	keys = append(keys, roomsKey)

	if err := r.rc.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to clear directory: %w", err)
	}

	return nil
}

func (r repo) executePipe(ctx context.Context, pipe redis.Pipeliner) error {
	cmds, err := pipe.Exec(ctx)
	if err != nil {
		for _, cmd := range cmds {
			if err := cmd.Err(); err != nil {
				return err
			}
		}

		return err
	}

	return nil
}
