package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/yigit/admissions/internal/app/models"
)

// broadcastBuffer bounds events queued between Publish and the hub loop
const broadcastBuffer = 256

// Hub fans committed transition events out to connected staff clients
type Hub struct {
	// Registered clients; a client's filter narrows it to one application
	clients map[*Client]struct{}

	broadcast  chan models.TransitionEvent
	register   chan *Client
	unregister chan *Client
	// done is closed when Run returns
	done chan struct{}

	// Guards count for ClientCount; the clients map is owned by Run
	mu    sync.RWMutex
	count int

	logger zerolog.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan models.TransitionEvent, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run handles registrations and broadcasts until ctx is done, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.setCount(len(h.clients))
			h.logger.Debug().
				Str("applicationId", client.applicationID).
				Str("addr", client.conn.RemoteAddr().String()).
				Msg("Event feed client registered")

		case client := <-h.unregister:
			h.drop(client)

		case event := <-h.broadcast:
			h.deliver(event)

		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			close(h.done)
			return
		}
	}
}

func (h *Hub) drop(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)
	h.setCount(len(h.clients))
}

// deliver sends the event to every matching client. A client whose buffer is
// full is disconnected rather than allowed to stall the others.
func (h *Hub) deliver(event models.TransitionEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Str("applicationId", event.ApplicationID).Msg("Failed to marshal event for broadcast")
		return
	}

	for client := range h.clients {
		if !client.wants(event) {
			continue
		}
		select {
		case client.send <- data:
		default:
			h.logger.Warn().Str("addr", client.conn.RemoteAddr().String()).Msg("Slow event feed client dropped")
			h.drop(client)
		}
	}
}

// Publish queues an event for broadcast. It never blocks the caller; when the
// queue is full the event is dropped and logged.
func (h *Hub) Publish(event models.TransitionEvent) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn().
			Str("applicationId", event.ApplicationID).
			Str("toStatus", event.ToStatus.String()).
			Msg("Event feed queue full, event dropped")
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

func (h *Hub) setCount(n int) {
	h.mu.Lock()
	h.count = n
	h.mu.Unlock()
}
