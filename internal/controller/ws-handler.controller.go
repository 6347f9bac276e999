package controller

import (
	"context"
	"fmt"

	"github.com/sharetube/cowatch/internal/connection"
	"github.com/sharetube/cowatch/internal/service"
)

// Field limits are counted in runes. A rune may arrive JSON-escaped as a surrogate
// pair (\ud83d\ude00), so MinMessageSize fits the longest valid field at 12 bytes per
// rune plus the envelope. Keep the validate tags below in line with these.
const (
	maxTextLength      = 2000
	maxUrlLength       = 2048
	maxEncodedRuneSize = 12
	messageOverhead    = 256

	MinMessageSize = maxUrlLength*maxEncodedRuneSize + messageOverhead
)

type ChatInput struct {
	Text string `json:"text" validate:"max=2000"`
}

func (c controller) handleChat(ctx context.Context, _ *connection.Conn, input ChatInput) error {
	if err := c.roomService.SendChat(ctx, &service.SendChatParams{
		RoomId:   c.getRoomIdFromCtx(ctx),
		SenderId: c.getConnIdFromCtx(ctx),
		Text:     input.Text,
	}); err != nil {
		return fmt.Errorf("failed to send chat: %w", err)
	}

	return nil
}

type ChangeVideoInput struct {
	Url string `json:"url" validate:"required,max=2048"`
}

func (c controller) handleChangeVideo(ctx context.Context, _ *connection.Conn, input ChangeVideoInput) error {
	if _, err := c.roomService.ChangeVideo(ctx, &service.ChangeVideoParams{
		RoomId:   c.getRoomIdFromCtx(ctx),
		SenderId: c.getConnIdFromCtx(ctx),
		Url:      input.Url,
	}); err != nil {
		return fmt.Errorf("failed to change video: %w", err)
	}

	return nil
}

type SyncActionInput struct {
	Action string   `json:"action" validate:"required,max=32"`
	Time   *float64 `json:"time" validate:"required,gte=0"`
}

func (c controller) handleSyncAction(ctx context.Context, _ *connection.Conn, input SyncActionInput) error {
	if _, err := c.roomService.SyncPlayer(ctx, &service.SyncPlayerParams{
		RoomId:   c.getRoomIdFromCtx(ctx),
		SenderId: c.getConnIdFromCtx(ctx),
		Action:   input.Action,
		Time:     *input.Time,
	}); err != nil {
		return fmt.Errorf("failed to sync player: %w", err)
	}

	return nil
}

type EmotionInput struct {
	Emoji string `json:"emoji" validate:"required,max=32"`
}

func (c controller) handleEmotion(ctx context.Context, _ *connection.Conn, input EmotionInput) error {
	if err := c.roomService.SendEmotion(ctx, &service.SendEmotionParams{
		RoomId:   c.getRoomIdFromCtx(ctx),
		SenderId: c.getConnIdFromCtx(ctx),
		Emoji:    input.Emoji,
	}); err != nil {
		return fmt.Errorf("failed to send emotion: %w", err)
	}

	return nil
}

type AddToPlaylistInput struct {
	Url string `json:"url" validate:"required,max=2048"`
}

func (c controller) handleAddToPlaylist(ctx context.Context, _ *connection.Conn, input AddToPlaylistInput) error {
	if _, err := c.roomService.AddToPlaylist(ctx, &service.AddToPlaylistParams{
		RoomId:   c.getRoomIdFromCtx(ctx),
		SenderId: c.getConnIdFromCtx(ctx),
		Url:      input.Url,
	}); err != nil {
		return fmt.Errorf("failed to add to playlist: %w", err)
	}

	return nil
}
