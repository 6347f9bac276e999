package wsrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrInvalidMessage     = errors.New("invalid message")
	ErrInvalidPayload     = errors.New("invalid payload")
	ErrUnknownMessageType = errors.New("unknown message type")
)

// Messages are flat JSON objects carrying their kind in "type"; the remaining fields
// are decoded into the input of the matching handler.
type message struct {
	Type string `json:"type"`
}

type HandlerFunc[C any, T any] func(ctx context.Context, conn C, input T) error

type Middleware[C any] func(next HandlerFunc[C, json.RawMessage]) HandlerFunc[C, json.RawMessage]

type WSRouter[C any] struct {
	routes      map[string]HandlerFunc[C, json.RawMessage]
	middlewares []Middleware[C]
	validate    func(any) error
}

func New[C any]() *WSRouter[C] {
	return &WSRouter[C]{
		routes: make(map[string]HandlerFunc[C, json.RawMessage]),
	}
}

// Use appends middlewares. The first one added is the outermost.
func (r *WSRouter[C]) Use(middlewares ...Middleware[C]) {
	r.middlewares = append(r.middlewares, middlewares...)
}

// SetValidator sets the function every decoded input goes through before its handler runs.
func (r *WSRouter[C]) SetValidator(validate func(any) error) {
	r.validate = validate
}

// Handle registers handler for messageType. It is a function rather than a method
// because methods cannot declare type parameters.
func Handle[C any, T any](r *WSRouter[C], messageType string, handler HandlerFunc[C, T]) {
	r.routes[messageType] = func(ctx context.Context, conn C, payload json.RawMessage) error {
		var input T
		if err := json.Unmarshal(payload, &input); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
		}

		if r.validate != nil {
			if err := r.validate(&input); err != nil {
				return err
			}
		}

		return handler(ctx, conn, input)
	}
}

// Dispatch decodes one message and runs the handler registered for its type.
func (r *WSRouter[C]) Dispatch(ctx context.Context, conn C, data []byte) error {
	var msg message
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}

	handler, ok := r.routes[msg.Type]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMessageType, msg.Type)
	}

	for i := len(r.middlewares) - 1; i >= 0; i-- {
		handler = r.middlewares[i](handler)
	}

	ctx = context.WithValue(ctx, messageTypeKey, msg.Type)
	return handler(ctx, conn, data)
}
