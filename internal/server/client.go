package server

import (
	"encoding/json"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Tyrowin/livechat/internal/config"
	"github.com/Tyrowin/livechat/internal/logging"
	"github.com/Tyrowin/livechat/internal/room"
)

// Client is one WebSocket connection. It implements room.Conn: unicast events
// go to its own queue, broadcasts go through the hub.
type Client struct {
	id             string
	conn           *websocket.Conn
	send           chan []byte
	hub            *Hub
	addr           string
	ws             config.WebSocketConfig
	maxMessageSize int64
	rateLimiter    *rateLimiter
	rateLimit      config.RateLimitConfig
	evictOnce      sync.Once
	closed         atomic.Bool
	logger         zerolog.Logger
}

var _ room.Conn = (*Client)(nil)

// NewClient wraps conn with a fresh connection id. conn may be nil in tests;
// such a client is never pumped and only collects outbound frames.
func NewClient(conn *websocket.Conn, hub *Hub, addr string, cfg config.Config) *Client {
	if conn != nil {
		conn.SetReadLimit(cfg.MaxMessageSize)
	}
	id := uuid.NewString()

	return &Client{
		id:             id,
		conn:           conn,
		send:           make(chan []byte, cfg.WebSocket.SendBuffer),
		hub:            hub,
		addr:           addr,
		ws:             cfg.WebSocket,
		maxMessageSize: cfg.MaxMessageSize,
		rateLimiter:    newRateLimiter(cfg.RateLimit),
		rateLimit:      cfg.RateLimit,
		logger:         hub.logger.With().Str(logging.FieldConnID, id).Str(logging.FieldAddr, addr).Logger(),
	}
}

// ID returns the connection id.
func (c *Client) ID() string {
	return c.id
}

// Closed reports whether the hub has dropped the client.
func (c *Client) Closed() bool {
	return c.closed.Load()
}

// GetSendChan returns the client's outbound queue.
func (c *Client) GetSendChan() <-chan []byte {
	return c.send
}

// Emit queues an event for this client only.
func (c *Client) Emit(event string, payload any) {
	data, err := room.Encode(event, payload)
	if err != nil {
		c.logger.Error().Err(err).Str(logging.FieldEvent, event).Msg("failed to encode event")
		return
	}
	c.hub.deliver(c, data)
}

// BroadcastOthers queues an event for every other client.
func (c *Client) BroadcastOthers(event string, payload any) {
	c.hub.broadcast(c, event, payload)
}

// BroadcastAll queues an event for every client including this one.
func (c *Client) BroadcastAll(event string, payload any) {
	c.hub.broadcast(nil, event, payload)
}

func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.ws.PongWait)); err != nil {
		c.logger.Warn().Err(err).Msg("error setting initial read deadline")
	}
	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.ws.PongWait)); err != nil {
			c.logger.Warn().Err(err).Msg("error setting read deadline in pong handler")
		}
		return nil
	})
}

// logReadError classifies the error that ended the read loop.
func (c *Client) logReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		c.logger.Warn().Int64("max_message_size", c.maxMessageSize).Msg("message exceeded maximum size")
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure):
		c.logger.Info().Err(err).Msg("client disconnected")
	case errors.Is(err, io.EOF) || isExpectedCloseError(err):
		c.logger.Info().Err(err).Msg("client connection closed")
	case websocket.IsUnexpectedCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
		websocket.CloseMessageTooBig):
		c.logger.Warn().Err(err).Msg("unexpected WebSocket close")
	default:
		c.logger.Warn().Err(err).Msg("WebSocket read error")
	}
}

func (c *Client) checkRateLimit() bool {
	if c.rateLimiter != nil && !c.rateLimiter.allow() {
		c.logger.Warn().
			Int("burst", c.rateLimit.Burst).
			Dur("refill_interval", c.rateLimit.RefillInterval).
			Msg("rate limit exceeded; discarding message")
		return false
	}
	return true
}

// processMessage decodes one frame and hands it to the room. Bad frames are
// logged and dropped.
func (c *Client) processMessage(raw []byte) bool {
	var env room.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.logger.Warn().Err(err).Msg("invalid frame")
		return false
	}

	if err := c.hub.engine.Dispatch(c, env.Event, env.Data); err != nil {
		c.logger.Warn().Err(err).Str(logging.FieldEvent, env.Event).Msg("dropping event")
		return false
	}
	c.logger.Debug().Str(logging.FieldEvent, env.Event).Msg("event processed")
	return true
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.closeConnection()
	}()

	c.setupReadConnection()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return
		}

		if !c.checkRateLimit() {
			continue
		}

		c.processMessage(raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.ws.PingInterval)
	defer func() {
		ticker.Stop()
		c.closeConnection()
	}()

	for c.processWriteEvent(ticker) {
	}
}

func (c *Client) processWriteEvent(ticker *time.Ticker) bool {
	select {
	case message, ok := <-c.send:
		return c.handleMessage(message, ok)
	case <-ticker.C:
		return c.handlePing()
	}
}

func (c *Client) closeConnection() {
	if c.conn == nil {
		return
	}
	if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
		c.logger.Warn().Err(err).Msg("error closing connection")
	}
}

func (c *Client) handleMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.ws.WriteWait)); err != nil {
		c.logger.Warn().Err(err).Msg("error setting write deadline")
		return false
	}

	if !ok {
		return c.writeCloseMessage()
	}
	return c.writeTextMessage(message)
}

func (c *Client) writeCloseMessage() bool {
	if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil && !isExpectedCloseError(err) {
		c.logger.Warn().Err(err).Msg("error writing close message")
	}
	return false
}

// writeTextMessage writes message plus anything already queued into a single
// frame, one envelope per line.
func (c *Client) writeTextMessage(message []byte) bool {
	w, err := c.conn.NextWriter(websocket.TextMessage)
	if err != nil {
		c.logger.Warn().Err(err).Msg("error creating writer")
		return false
	}

	if _, err := w.Write(message); err != nil {
		c.logger.Warn().Err(err).Msg("error writing message")
		return false
	}

	if !c.writeQueuedMessages(w) {
		return false
	}

	if err := w.Close(); err != nil {
		c.logger.Warn().Err(err).Msg("error closing writer")
		return false
	}
	return true
}

func (c *Client) writeQueuedMessages(w io.Writer) bool {
	n := len(c.send)
	for i := 0; i < n; i++ {
		queued, ok := <-c.send
		if !ok {
			return true
		}
		if _, err := w.Write([]byte{'\n'}); err != nil {
			c.logger.Warn().Err(err).Msg("error writing newline")
			return false
		}
		if _, err := w.Write(queued); err != nil {
			c.logger.Warn().Err(err).Msg("error writing queued message")
			return false
		}
	}
	return true
}

func (c *Client) handlePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.ws.WriteWait)); err != nil {
		c.logger.Warn().Err(err).Msg("error setting write deadline for ping")
		return false
	}
	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Warn().Err(err).Msg("error writing ping message")
		return false
	}
	return true
}
