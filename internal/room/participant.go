package room

import "time"

// Profile is the client-supplied part of a join request. Neither field is
// validated.
type Profile struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// Participant is one joined connection.
type Participant struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Avatar   string    `json:"avatar,omitempty"`
	JoinedAt time.Time `json:"joinedAt"`
	Online   bool      `json:"online"`
}

// Message is an immutable chat message with a snapshot of its sender.
type Message struct {
	ID           int64     `json:"id"`
	SenderID     string    `json:"senderId"`
	SenderName   string    `json:"senderName"`
	SenderAvatar string    `json:"senderAvatar,omitempty"`
	Text         string    `json:"text"`
	Timestamp    time.Time `json:"timestamp"`
}
