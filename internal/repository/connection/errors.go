package connection

import (
	"errors"

	"github.com/sharetube/cowatch/internal/domain"
)

var (
	ErrNotFound      = errors.New("connection not found")
	ErrAlreadyExists = errors.New("connection already exists")
)

// Conn is a live connection that can be told to go away.
type Conn interface {
	Id() domain.ConnId
	CloseWithCode(code int, text string) error
}
