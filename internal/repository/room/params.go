package room

import "github.com/sharetube/cowatch/internal/domain"

type JoinParams struct {
	RoomId   string
	Username string
	Conn     domain.Sender
}

type JoinResponse struct {
	Room     *domain.Room
	Member   domain.Member
	Snapshot domain.InitEvent
	// Created is set when this join brought the room into existence.
	Created bool
}

type LeaveParams struct {
	RoomId string
	ConnId domain.ConnId
}

type LeaveResponse struct {
	Member    domain.Member
	Remaining int
	Removed   bool
}
