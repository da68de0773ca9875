package room

import "encoding/json"

// Inbound event names.
const (
	EventUserJoin    = "user:join"
	EventMessageSend = "message:send"
	EventTypingStart = "typing:start"
	EventTypingStop  = "typing:stop"
)

// Outbound event names.
const (
	EventUsersList       = "users:list"
	EventUserJoined      = "user:joined"
	EventSystemMessage   = "system:message"
	EventMessagesHistory = "messages:history"
	EventMessageReceive  = "message:receive"
	EventTypingUpdate    = "typing:update"
	EventUserLeft        = "user:left"
)

// SystemKind classifies a system message.
type SystemKind string

const (
	SystemWelcome SystemKind = "welcome"
	SystemInfo    SystemKind = "info"
)

// SystemMessage is the payload of system:message.
type SystemMessage struct {
	Text string     `json:"text"`
	Type SystemKind `json:"type"`
}

// TypingUpdate is the payload of typing:update. Name is only set when typing
// starts.
type TypingUpdate struct {
	UserID string `json:"userId"`
	Name   string `json:"name,omitempty"`
	Typing bool   `json:"typing"`
}

// SendRequest is the payload of message:send.
type SendRequest struct {
	Text string `json:"text"`
}

// Envelope is the frame format in both directions: an event name plus its
// JSON payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode marshals an outbound event into an envelope.
func Encode(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}
