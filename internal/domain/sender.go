package domain

// ConnId identifies one physical connection. A reconnect gets a new id even under the same name.
type ConnId string

// Sender delivers events to a single connection. Send is called with room locks held
// and must not block on the peer.
type Sender interface {
	Id() ConnId
	Send(event any) error
}
