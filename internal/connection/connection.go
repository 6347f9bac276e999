package connection

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sharetube/cowatch/internal/domain"
)

var (
	ErrSendBufferFull = errors.New("send buffer full")
	ErrConnClosed     = errors.New("connection closed")
)

type Config struct {
	SendBuffer     int
	WriteWait      time.Duration
	PingInterval   time.Duration
	MaxMessageSize int64
}

// Conn is a WebSocket connection whose writes go through a bounded queue drained by
// WritePump. Send never blocks: a slow peer loses events instead of stalling the room.
type Conn struct {
	id     domain.ConnId
	ws     *websocket.Conn
	send   chan []byte
	done   chan struct{}
	config *Config
	logger *slog.Logger

	closeOnce  sync.Once
	closeFrame []byte
}

func New(ws *websocket.Conn, config *Config, logger *slog.Logger) *Conn {
	id := domain.ConnId(uuid.NewString())

	return &Conn{
		id:     id,
		ws:     ws,
		send:   make(chan []byte, config.SendBuffer),
		done:   make(chan struct{}),
		config: config,
		logger: logger.With("conn_id", id),
	}
}

func (c *Conn) Id() domain.ConnId {
	return c.id
}

func (c *Conn) Send(event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if c.isClosed() {
		return ErrConnClosed
	}

	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return ErrConnClosed
	default:
		return ErrSendBufferFull
	}
}

func (c *Conn) Close() error {
	return c.CloseWithCode(websocket.CloseNormalClosure, "")
}

// CloseWithCode stops accepting events. WritePump flushes what is already queued, sends a
// close frame with code and text and closes the socket. Only the first call has effect.
func (c *Conn) CloseWithCode(code int, text string) error {
	closed := false
	c.closeOnce.Do(func() {
		c.closeFrame = websocket.FormatCloseMessage(code, text)
		close(c.done)
		closed = true
	})

	if !closed {
		return ErrConnClosed
	}

	return nil
}

// Done is closed once the connection stops accepting events.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

func (c *Conn) isClosed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// ReadPump reads messages until the peer goes away or the socket is closed, passing each
// one to handle. A close frame from the peer or a close started on this side returns nil.
func (c *Conn) ReadPump(handle func(data []byte)) error {
	defer c.ws.Close()

	if c.config.MaxMessageSize > 0 {
		c.ws.SetReadLimit(c.config.MaxMessageSize)
	}

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if c.isClosed() || websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				return nil
			}

			return fmt.Errorf("failed to read message: %w", err)
		}

		handle(data)
	}
}

// WritePump owns every write to the socket. It returns when the connection is closed
// or a write fails.
func (c *Conn) WritePump() {
	var tick <-chan time.Time
	if c.config.PingInterval > 0 {
		ticker := time.NewTicker(c.config.PingInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	defer func() {
		c.closeOnce.Do(func() {
			close(c.done)
		})
		c.ws.Close()
	}()

	for {
		select {
		case data := <-c.send:
			if err := c.write(websocket.TextMessage, data); err != nil {
				c.logger.Debug("failed to write message", "error", err)
				return
			}

		case <-tick:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("failed to write ping", "error", err)
				return
			}

		case <-c.done:
			c.flush()
			if c.closeFrame != nil {
				c.write(websocket.CloseMessage, c.closeFrame)
			}
			return
		}
	}
}

func (c *Conn) flush() {
	for {
		select {
		case data := <-c.send:
			if err := c.write(websocket.TextMessage, data); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *Conn) write(messageType int, data []byte) error {
	if c.config.WriteWait > 0 {
		c.ws.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
	}

	return c.ws.WriteMessage(messageType, data)
}
