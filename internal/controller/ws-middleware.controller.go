package controller

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/sharetube/cowatch/internal/connection"
	"github.com/sharetube/cowatch/pkg/ctxlogger"
	"github.com/sharetube/cowatch/pkg/wsrouter"
)

type wsHandlerFunc = wsrouter.HandlerFunc[*connection.Conn, json.RawMessage]

func (c controller) wsRequestIdWSMw() wsrouter.Middleware[*connection.Conn] {
	return func(next wsHandlerFunc) wsHandlerFunc {
		return func(ctx context.Context, conn *connection.Conn, payload json.RawMessage) error {
			ctx = ctxlogger.AppendCtx(ctx, slog.String("ws_request_id", c.generateTimeBasedId()))
			return next(ctx, conn, payload)
		}
	}
}

func (c controller) loggerWSMw() wsrouter.Middleware[*connection.Conn] {
	return func(next wsHandlerFunc) wsHandlerFunc {
		return func(ctx context.Context, conn *connection.Conn, payload json.RawMessage) error {
			ctx = ctxlogger.AppendCtx(ctx, slog.String("message_type", wsrouter.GetMessageTypeFromCtx(ctx)))
			c.logger.DebugContext(ctx, "websocket message received", "payload", string(payload))

			start := time.Now()

			err := next(ctx, conn, payload)

			c.logger.InfoContext(ctx, "websocket message handled",
				"processing_time_us", time.Since(start).Microseconds(),
			)

			return err
		}
	}
}

func (c controller) metricsWSMw() wsrouter.Middleware[*connection.Conn] {
	return func(next wsHandlerFunc) wsHandlerFunc {
		return func(ctx context.Context, conn *connection.Conn, payload json.RawMessage) error {
			c.metrics.EventsReceived.WithLabelValues(wsrouter.GetMessageTypeFromCtx(ctx)).Inc()
			return next(ctx, conn, payload)
		}
	}
}

// errorWSMw reports handler errors to the sender as error events. The session goes on.
func (c controller) errorWSMw() wsrouter.Middleware[*connection.Conn] {
	return func(next wsHandlerFunc) wsHandlerFunc {
		return func(ctx context.Context, conn *connection.Conn, payload json.RawMessage) error {
			if err := next(ctx, conn, payload); err != nil {
				c.handleWSError(ctx, conn, err)
			}

			return nil
		}
	}
}
