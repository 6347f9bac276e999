package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/sharetube/cowatch/internal/connection"
	"github.com/sharetube/cowatch/internal/domain"
	"github.com/sharetube/cowatch/internal/service"
	"github.com/sharetube/cowatch/pkg/ctxlogger"
)

// handleConnect runs one participant session: upgrade, join, dispatch every inbound
// message, leave on disconnect.
func (c controller) handleConnect(w http.ResponseWriter, r *http.Request) {
	roomId := chi.URLParam(r, "room-id")
	username := chi.URLParam(r, "username")

	if err := c.validate.Var("room id", roomId, "required,max=64"); err != nil {
		c.writeJSON(w, r, http.StatusBadRequest, &errorResponse{Error: err.Error()})
		return
	}
	if err := c.validate.Var("username", username, "required,max=32"); err != nil {
		c.writeJSON(w, r, http.StatusBadRequest, &errorResponse{Error: err.Error()})
		return
	}

	ws, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}

	conn := connection.New(ws, c.connConfig, c.logger)
	go conn.WritePump()

	ctx := ctxlogger.AppendCtx(r.Context(), slog.String("room_id", roomId))
	ctx = ctxlogger.AppendCtx(ctx, slog.String("username", username))
	ctx = ctxlogger.AppendCtx(ctx, slog.String("conn_id", string(conn.Id())))

	if _, err := c.roomService.JoinRoom(ctx, &service.JoinRoomParams{
		RoomId:   roomId,
		Username: username,
		Conn:     conn,
	}); err != nil {
		c.logger.InfoContext(ctx, "failed to join room", "error", err)
		message := c.errorMessage(ctx, err)
		if err := conn.Send(domain.NewErrorEvent(message)); err != nil {
			c.logger.DebugContext(ctx, "failed to send error", "error", err)
		}
		conn.CloseWithCode(websocket.ClosePolicyViolation, message)
		return
	}
	defer conn.Close()
	defer c.disconnect(ctx, roomId, conn.Id())

	ctx = context.WithValue(ctx, roomIdCtxKey, roomId)
	ctx = context.WithValue(ctx, connIdCtxKey, conn.Id())

	if err := conn.ReadPump(func(data []byte) {
		if err := c.wsRouter.Dispatch(ctx, conn, data); err != nil {
			c.handleWSError(ctx, conn, err)
		}
	}); err != nil {
		c.logger.InfoContext(ctx, "connection closed with error", "error", err)
	}
}

func (c controller) disconnect(ctx context.Context, roomId string, connId domain.ConnId) {
	if _, err := c.roomService.LeaveRoom(ctx, &service.LeaveRoomParams{
		RoomId: roomId,
		ConnId: connId,
	}); err != nil {
		c.logger.WarnContext(ctx, "failed to leave room", "error", err)
	}
}

func (c controller) handleWSError(ctx context.Context, conn *connection.Conn, err error) {
	c.logger.InfoContext(ctx, "failed to handle message", "error", err)
	if err := conn.Send(domain.NewErrorEvent(c.errorMessage(ctx, err))); err != nil {
		c.logger.DebugContext(ctx, "failed to send error", "error", err)
	}
}
