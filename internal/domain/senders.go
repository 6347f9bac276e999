package domain

import (
	"fmt"
)

// Broadcast delivers event to every member except exclude (pass "" to reach everyone).
func (r *Room) Broadcast(event any, exclude ConnId) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.broadcastLocked(event, exclude)
}

// broadcastLocked is best effort: a member that cannot take the event is logged and skipped.
func (r *Room) broadcastLocked(event any, exclude ConnId) {
	for _, member := range r.members.AsList() {
		if member.Id == exclude {
			continue
		}

		r.sendLocked(&member, event)
	}
}

func (r *Room) sendLocked(member *Member, event any) {
	if err := member.Conn.Send(event); err != nil {
		r.logger.Info("failed to send event",
			"conn_id", member.Id,
			"username", member.Username,
			"error", err,
		)
		if r.onSendFailed != nil {
			r.onSendFailed()
		}
	}
}

func (r *Room) sendMemberJoined(member *Member) {
	role := "viewer"
	if member.IsOwner {
		role = "owner"
	}

	isOwner := member.IsOwner
	r.broadcastLocked(&ChatEvent{
		Type:    EventChat,
		User:    SystemUsername,
		Text:    fmt.Sprintf("%s (%s) joined", member.Username, role),
		IsOwner: &isOwner,
	}, "")
}

func (r *Room) sendMemberLeft(member *Member) {
	r.broadcastLocked(&ChatEvent{
		Type: EventChat,
		User: SystemUsername,
		Text: fmt.Sprintf("%s left", member.Username),
	}, "")
}

func (r *Room) sendViewersUpdated() {
	r.broadcastLocked(&ViewersUpdateEvent{
		Type:  EventViewersUpdate,
		Count: r.members.Length(),
	}, "")
}
