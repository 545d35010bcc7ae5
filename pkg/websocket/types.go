package websocket

import ws "github.com/coder/websocket"

// MessageType represents the type of WebSocket message.
type MessageType int

const (
	// MessageText indicates a UTF-8 encoded text message.
	MessageText MessageType = 1
	// MessageBinary indicates a binary message.
	MessageBinary MessageType = 2
)

// String returns the string representation of the message type.
func (t MessageType) String() string {
	switch t {
	case MessageText:
		return "text"
	case MessageBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// toWireType converts a MessageType to the transport's message type.
// Unknown values fall back to text.
func toWireType(t MessageType) ws.MessageType {
	if t == MessageBinary {
		return ws.MessageBinary
	}
	return ws.MessageText
}

// fromWireType converts the transport's message type to a MessageType.
func fromWireType(t ws.MessageType) MessageType {
	if t == ws.MessageBinary {
		return MessageBinary
	}
	return MessageText
}
