package room

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Tyrowin/livechat/internal/logging"
)

// DefaultJoinHistory is how many messages a joining connection is sent.
const DefaultJoinHistory = 50

// ErrUnknownEvent is returned by Dispatch for unrecognized event names.
var ErrUnknownEvent = errors.New("unknown event")

// Stats summarizes the room for the query endpoints.
type Stats struct {
	Total    int `json:"total"`
	Online   int `json:"online"`
	Messages int `json:"messages"`
}

// Engine is the room state machine. It is safe for concurrent use; each call
// runs to completion, fan-out included, before the next one starts.
type Engine struct {
	mu          sync.Mutex
	roster      *Roster
	history     *History
	lastID      int64
	name        string
	joinHistory int
	now         func() time.Time
	logger      zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithHistoryLimit bounds the message history.
func WithHistoryLimit(n int) Option {
	return func(e *Engine) { e.history = NewHistory(n) }
}

// WithJoinHistory sets how many past messages a joining connection receives.
func WithJoinHistory(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.joinHistory = n
		}
	}
}

// WithRoomName sets the name used in the welcome message.
func WithRoomName(name string) Option {
	return func(e *Engine) {
		if name != "" {
			e.name = name
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine builds an empty room.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		roster:      NewRoster(),
		history:     NewHistory(DefaultHistoryLimit),
		name:        "LiveChat",
		joinHistory: DefaultJoinHistory,
		now:         time.Now,
		logger:      logging.L(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Dispatch decodes the payload of an inbound event and applies it. Errors only
// describe why the event was dropped; nothing is reported to the client.
func (e *Engine) Dispatch(c Conn, event string, data json.RawMessage) error {
	switch event {
	case EventUserJoin:
		var profile Profile
		if err := decodePayload(data, &profile); err != nil {
			return fmt.Errorf("decode %s payload: %w", event, err)
		}
		e.Join(c, profile)
	case EventMessageSend:
		var req SendRequest
		if err := decodePayload(data, &req); err != nil {
			return fmt.Errorf("decode %s payload: %w", event, err)
		}
		e.SendMessage(c, req.Text)
	case EventTypingStart:
		e.TypingStart(c)
	case EventTypingStop:
		e.TypingStop(c)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, event)
	}
	return nil
}

// decodePayload leaves v untouched for an absent or null payload.
func decodePayload(data json.RawMessage, v any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, v)
}

// Join adds (or re-adds) the connection to the roster. The joiner receives the
// roster, a welcome message and recent history; everyone else is told about
// the newcomer. Closed connections cannot join.
func (e *Engine) Join(c Conn, profile Profile) (Participant, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed(c, EventUserJoin) {
		return Participant{}, false
	}
	p := e.roster.Join(c.ID(), profile, e.now())

	c.Emit(EventUsersList, e.roster.Snapshot())
	c.Emit(EventSystemMessage, SystemMessage{
		Text: fmt.Sprintf("Welcome to %s, %s!", e.name, p.Name),
		Type: SystemWelcome,
	})
	c.Emit(EventMessagesHistory, e.history.Recent(e.joinHistory))

	c.BroadcastOthers(EventUserJoined, p)
	c.BroadcastOthers(EventSystemMessage, SystemMessage{
		Text: p.Name + " joined the chat!",
		Type: SystemInfo,
	})

	e.logger.Info().
		Str(logging.FieldConnID, p.ID).
		Str(logging.FieldName, p.Name).
		Int(logging.FieldOnline, e.roster.Len()).
		Msg("participant joined")
	return p, true
}

// closed must be called with e.mu held. Events from a connection the transport
// has dropped are ignored, so a departed participant cannot come back.
func (e *Engine) closed(c Conn, event string) bool {
	if !c.Closed() {
		return false
	}
	e.logger.Debug().
		Str(logging.FieldConnID, c.ID()).
		Str(logging.FieldEvent, event).
		Msg("dropping event from closed connection")
	return true
}

// SendMessage records a message from a joined connection and broadcasts it to
// everyone, sender included. Sends from unjoined connections are dropped.
func (e *Engine) SendMessage(c Conn, text string) (Message, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed(c, EventMessageSend) {
		return Message{}, false
	}
	sender, ok := e.roster.Get(c.ID())
	if !ok {
		e.logger.Debug().Str(logging.FieldConnID, c.ID()).Msg("dropping message from unjoined connection")
		return Message{}, false
	}

	now := e.now()
	msg := Message{
		ID:           e.nextID(now),
		SenderID:     sender.ID,
		SenderName:   sender.Name,
		SenderAvatar: sender.Avatar,
		Text:         text,
		Timestamp:    now,
	}
	e.history.Append(msg)

	c.BroadcastAll(EventMessageReceive, msg)
	return msg, true
}

// nextID derives ids from the clock but never repeats or goes backwards.
func (e *Engine) nextID(now time.Time) int64 {
	id := now.UnixMilli()
	if id <= e.lastID {
		id = e.lastID + 1
	}
	e.lastID = id
	return id
}

// TypingStart tells everyone else that a joined connection is typing. It is a
// no-op for unjoined connections.
func (e *Engine) TypingStart(c Conn) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed(c, EventTypingStart) {
		return false
	}
	p, ok := e.roster.Get(c.ID())
	if !ok {
		return false
	}
	c.BroadcastOthers(EventTypingUpdate, TypingUpdate{UserID: p.ID, Name: p.Name, Typing: true})
	return true
}

// TypingStop tells everyone else that the connection stopped typing. Unlike
// TypingStart it does not require a prior join, but a closed connection is
// ignored.
func (e *Engine) TypingStop(c Conn) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed(c, EventTypingStop) {
		return false
	}
	c.BroadcastOthers(EventTypingUpdate, TypingUpdate{UserID: c.ID(), Typing: false})
	return true
}

// Disconnect handles the close notification. A joined participant is removed
// and everyone remaining is told; an unjoined connection produces no events.
// The transport reports c as closed before calling it, so nothing the
// connection sends afterwards reaches the room.
func (e *Engine) Disconnect(c Conn) (Participant, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.roster.Remove(c.ID())
	if !ok {
		return Participant{}, false
	}

	c.BroadcastAll(EventUserLeft, p.ID)
	c.BroadcastAll(EventSystemMessage, SystemMessage{
		Text: p.Name + " left the chat",
		Type: SystemInfo,
	})

	e.logger.Info().
		Str(logging.FieldConnID, p.ID).
		Str(logging.FieldName, p.Name).
		Int(logging.FieldOnline, e.roster.Len()).
		Msg("participant left")
	return p, true
}

// Participants returns a consistent snapshot of the roster.
func (e *Engine) Participants() []Participant {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.roster.Snapshot()
}

// Participant looks up one joined connection.
func (e *Engine) Participant(connID string) (Participant, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.roster.Get(connID)
}

// RecentMessages returns up to n of the newest messages, oldest first.
func (e *Engine) RecentMessages(n int) []Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.Recent(n)
}

// Stats reports participant and message counts.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	online := 0
	for _, p := range e.roster.Snapshot() {
		if p.Online {
			online++
		}
	}
	return Stats{
		Total:    e.roster.Len(),
		Online:   online,
		Messages: e.history.Len(),
	}
}
