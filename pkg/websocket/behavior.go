package websocket

// Behavior receives the session events of one endpoint. A single Behavior
// value is shared by every session of its host, so implementations that keep
// state must be safe for concurrent use.
type Behavior interface {
	// OnOpen is called after a session has been accepted and registered.
	OnOpen(s *Session)
	// OnMessage is called for every message the session receives.
	OnMessage(s *Session, msgType MessageType, data []byte)
	// OnClose is called after the session has been removed from the host.
	OnClose(s *Session)
}

// EchoBehavior sends every received message back to its sender.
type EchoBehavior struct{}

// OnOpen implements Behavior.
func (EchoBehavior) OnOpen(*Session) {}

// OnMessage implements Behavior.
func (EchoBehavior) OnMessage(s *Session, msgType MessageType, data []byte) {
	_ = s.Send(msgType, data)
}

// OnClose implements Behavior.
func (EchoBehavior) OnClose(*Session) {}
