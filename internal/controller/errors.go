package controller

import (
	"context"
	"errors"

	"github.com/sharetube/cowatch/internal/domain"
	"github.com/sharetube/cowatch/internal/service"
	"github.com/sharetube/cowatch/pkg/validator"
	"github.com/sharetube/cowatch/pkg/wsrouter"
)

// errorMessage turns a handler error into the text of the error event sent back to the client.
func (c controller) errorMessage(ctx context.Context, err error) string {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrs):
		return validationErrs.Error()
	case errors.Is(err, domain.ErrPermissionDenied):
		if wsrouter.GetMessageTypeFromCtx(ctx) == domain.EventChangeVideo {
			return "Only the owner can change the video"
		}
		return "Only the owner can control playback"
	case errors.Is(err, domain.ErrUnsupportedSource):
		return "Unsupported video format"
	case errors.Is(err, domain.ErrPlaylistLimitReached):
		return "Playlist is full"
	case errors.Is(err, domain.ErrMembersLimitReached):
		return "Room is full"
	case errors.Is(err, wsrouter.ErrUnknownMessageType):
		return "Unknown message type"
	case errors.Is(err, wsrouter.ErrInvalidMessage), errors.Is(err, wsrouter.ErrInvalidPayload):
		return "Malformed message"
	case errors.Is(err, service.ErrRoomNotFound), errors.Is(err, domain.ErrMemberNotFound):
		return "Not a member of this room"
	default:
		return "Internal error"
	}
}
