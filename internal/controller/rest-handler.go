package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sharetube/cowatch/internal/repository/directory"
	"github.com/sharetube/cowatch/internal/service"
)

type listRoomsResponse struct {
	Rooms []directory.Entry `json:"rooms"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (c controller) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		c.logger.WarnContext(r.Context(), "failed to write json", "error", err)
	}
}

func (c controller) listRooms(w http.ResponseWriter, r *http.Request) {
	c.writeJSON(w, r, http.StatusOK, &listRoomsResponse{
		Rooms: c.roomService.ListActiveRooms(r.Context()),
	})
}

func (c controller) getRoom(w http.ResponseWriter, r *http.Request) {
	roomId := chi.URLParam(r, "room-id")

	state, err := c.roomService.GetRoomState(r.Context(), roomId)
	if err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			c.writeJSON(w, r, http.StatusNotFound, &errorResponse{Error: "room not found"})
			return
		}

		c.logger.WarnContext(r.Context(), "failed to get room state", "error", err)
		c.writeJSON(w, r, http.StatusInternalServerError, &errorResponse{Error: "internal error"})
		return
	}

	c.writeJSON(w, r, http.StatusOK, &state)
}
