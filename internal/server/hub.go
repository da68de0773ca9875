package server

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Tyrowin/livechat/internal/logging"
	"github.com/Tyrowin/livechat/internal/room"
)

// Hub owns every live WebSocket client and performs the fan-out requested by
// the room engine. Registration and unregistration go through Run; delivery
// happens synchronously on the caller's goroutine.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	engine     *room.Engine
	logger     zerolog.Logger
	mutex      sync.RWMutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewHub creates a hub that reports disconnects to engine.
func NewHub(engine *room.Engine, logger zerolog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		engine:     engine,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Engine returns the room engine fed by this hub.
func (h *Hub) Engine() *room.Engine {
	return h.engine
}

// Register hands a new client to the hub. It returns false once the hub is
// shutting down.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.ctx.Done():
		return false
	}
}

// Unregister removes a client; the room is notified of the disconnect.
// Unregistering an unknown client is a no-op.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// ClientCount returns the number of live connections, joined or not.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Run processes registrations until Shutdown is called.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			if client == nil {
				h.logger.Warn().Msg("received nil client registration; skipping")
				continue
			}
			h.add(client)

		case client := <-h.unregister:
			if client == nil {
				continue
			}
			h.remove(client)
		}
	}
}

func (h *Hub) add(client *Client) {
	h.mutex.Lock()
	h.clients[client.id] = client
	clientCount := len(h.clients)
	h.mutex.Unlock()

	h.logger.Info().
		Str(logging.FieldConnID, client.id).
		Str(logging.FieldAddr, client.addr).
		Int(logging.FieldClients, clientCount).
		Msg("client registered")

	if client.conn == nil {
		return
	}
	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()
}

func (h *Hub) remove(client *Client) {
	h.mutex.Lock()
	current, ok := h.clients[client.id]
	if !ok || current != client {
		h.mutex.Unlock()
		return
	}
	delete(h.clients, client.id)
	close(client.send)
	client.closed.Store(true)
	clientCount := len(h.clients)
	h.mutex.Unlock()

	h.logger.Info().
		Str(logging.FieldConnID, client.id).
		Str(logging.FieldAddr, client.addr).
		Int(logging.FieldClients, clientCount).
		Msg("client unregistered")

	h.engine.Disconnect(client)
}

// deliver queues data for one client.
func (h *Hub) deliver(client *Client, data []byte) {
	h.mutex.RLock()
	ok := h.trySend(client, data)
	h.mutex.RUnlock()

	if !ok {
		h.evict(client)
	}
}

// broadcast queues an event for every client except the excluded one. The
// payload is encoded once.
func (h *Hub) broadcast(except *Client, event string, payload any) {
	data, err := room.Encode(event, payload)
	if err != nil {
		h.logger.Error().Err(err).Str(logging.FieldEvent, event).Msg("failed to encode broadcast")
		return
	}

	var slow []*Client
	h.mutex.RLock()
	for _, client := range h.clients {
		if client == except {
			continue
		}
		if !h.trySend(client, data) {
			slow = append(slow, client)
		}
	}
	h.mutex.RUnlock()

	for _, client := range slow {
		h.evict(client)
	}
}

// trySend must be called with the read lock held so the send channel cannot
// be closed underneath it.
func (h *Hub) trySend(client *Client, data []byte) bool {
	if current, exists := h.clients[client.id]; !exists || current != client {
		return true
	}
	select {
	case client.send <- data:
		return true
	default:
		return false
	}
}

// evict drops a client whose outbound queue is full. The connection is closed
// and the removal runs through Run like any other disconnect.
func (h *Hub) evict(client *Client) {
	client.evictOnce.Do(func() {
		h.logger.Warn().
			Str(logging.FieldConnID, client.id).
			Str(logging.FieldAddr, client.addr).
			Msg("client removed due to full send buffer")
		client.closeConnection()
		go h.Unregister(client)
	})
}

// shutdownClients drops every client, closes its connection so both pumps
// return, and tells the room each one has left.
func (h *Hub) shutdownClients() {
	h.logger.Info().Msg("shutting down all client connections")

	h.mutex.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for id, client := range h.clients {
		clients = append(clients, client)
		delete(h.clients, id)
		close(client.send)
		client.closed.Store(true)
	}
	h.mutex.Unlock()

	for _, client := range clients {
		client.closeConnection()
		h.engine.Disconnect(client)
	}

	h.logger.Info().Int(logging.FieldClients, len(clients)).Msg("closed client connections")
}

// Shutdown stops Run, closes every connection and waits for the client
// goroutines until ctx expires.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.logger.Info().Msg("initiating hub shutdown")
	h.cancel()

	select {
	case <-h.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	finished := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		h.logger.Info().Msg("hub shutdown completed")
		return nil
	case <-ctx.Done():
		h.logger.Warn().Msg("hub shutdown timeout reached, some goroutines may still be running")
		return ctx.Err()
	}
}
