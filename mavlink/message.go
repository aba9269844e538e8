package mavlink

import (
	"github.com/bluenviron/gomavlib/v3/pkg/message"
)

// Message is one fully decoded MAVLink frame. It is produced by the parser,
// immutable once constructed, and handed to the endpoint callback.
type Message struct {
	// SystemID is the source system id from the frame header.
	SystemID byte
	// ComponentID is the source component id from the frame header.
	ComponentID byte
	// Payload is the decoded message body. Messages known to the common
	// dialect decode to their typed struct (for example
	// *common.MessageHeartbeat); unknown ids stay *message.MessageRaw.
	Payload message.Message
}

// ID returns the MAVLink message id of the payload.
func (m *Message) ID() uint32 {
	return m.Payload.GetID()
}

// MessageCallback is invoked synchronously for every decoded frame.
// Callbacks must return promptly and must not block; a slow callback stalls
// decoding on the delivering channel.
type MessageCallback func(*Message)
