package inmemory

import (
	"log/slog"
	"sync"

	"github.com/sharetube/cowatch/internal/domain"
	"github.com/sharetube/cowatch/internal/repository/connection"
)

type repo struct {
	conns  map[domain.ConnId]connection.Conn
	logger *slog.Logger
	mu     sync.RWMutex
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		conns:  make(map[domain.ConnId]connection.Conn),
		logger: logger,
	}
}

func (r *repo) Add(conn connection.Conn) error {
	funcName := "connection.inmemory.Add"
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Debug(funcName, "conn_id", conn.Id())
	if _, ok := r.conns[conn.Id()]; ok {
		r.logger.Info(funcName, "error", connection.ErrAlreadyExists)
		return connection.ErrAlreadyExists
	}

	r.conns[conn.Id()] = conn
	return nil
}

func (r *repo) Remove(connId domain.ConnId) error {
	funcName := "connection.inmemory.Remove"
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Debug(funcName, "conn_id", connId)
	if _, ok := r.conns[connId]; !ok {
		r.logger.Info(funcName, "error", connection.ErrNotFound)
		return connection.ErrNotFound
	}

	delete(r.conns, connId)
	return nil
}

func (r *repo) List() []connection.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]connection.Conn, 0, len(r.conns))
	for _, conn := range r.conns {
		conns = append(conns, conn)
	}

	return conns
}

func (r *repo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.conns)
}
