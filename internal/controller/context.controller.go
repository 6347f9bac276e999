package controller

import (
	"context"

	"github.com/sharetube/cowatch/internal/domain"
)

type contextKey int

const (
	roomIdCtxKey contextKey = iota
	connIdCtxKey
)

func (c controller) getRoomIdFromCtx(ctx context.Context) string {
	roomId, ok := ctx.Value(roomIdCtxKey).(string)
	if !ok {
		return ""
	}

	return roomId
}

func (c controller) getConnIdFromCtx(ctx context.Context) domain.ConnId {
	connId, ok := ctx.Value(connIdCtxKey).(domain.ConnId)
	if !ok {
		return ""
	}

	return connId
}
