package handler

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WSEvent is the envelope for all WebSocket messages. TerritoryID is
// zero for world-feed events.
type WSEvent struct {
	Type        string `json:"type"`
	TerritoryID int    `json:"territory_id,omitempty"`
	Data        any    `json:"data"`
}

// ClientMessage is the envelope for messages sent from the client.
type ClientMessage struct {
	Action      string  `json:"action"` // subscribe, unsubscribe, subscribe_world, unsubscribe_world, submit
	TerritoryID int     `json:"territory_id,omitempty"`
	FactionID   string  `json:"faction_id,omitempty"`
	Kind        string  `json:"kind,omitempty"`
	Magnitude   float64 `json:"magnitude,omitempty"`
}

// WSConn wraps a WebSocket connection with its session and subscriptions.
type WSConn struct {
	conn      *websocket.Conn
	sessionID string
	send      chan []byte
}

// Hub manages WebSocket connections, per-territory channel
// subscriptions, and the world feed.
type Hub struct {
	mu          sync.RWMutex
	connections map[*WSConn]bool
	territories map[int]map[*WSConn]bool // territory ID -> set of connections
	world       map[*WSConn]bool         // world feed subscribers
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		connections: make(map[*WSConn]bool),
		territories: make(map[int]map[*WSConn]bool),
		world:       make(map[*WSConn]bool),
	}
}

// Register adds a connection to the hub.
func (h *Hub) Register(c *WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c] = true
}

// Unregister removes a connection from the hub and all its subscriptions.
func (h *Hub) Unregister(c *WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.connections, c)
	delete(h.world, c)
	for id, conns := range h.territories {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.territories, id)
		}
	}
	close(c.send)
}

// Subscribe adds a connection to a territory channel.
func (h *Hub) Subscribe(c *WSConn, territoryID int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.territories[territoryID] == nil {
		h.territories[territoryID] = make(map[*WSConn]bool)
	}
	h.territories[territoryID][c] = true
}

// Unsubscribe removes a connection from a territory channel.
func (h *Hub) Unsubscribe(c *WSConn, territoryID int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.territories[territoryID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.territories, territoryID)
		}
	}
}

// SubscribeWorld adds a connection to the world feed.
func (h *Hub) SubscribeWorld(c *WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.world[c] = true
}

// UnsubscribeWorld removes a connection from the world feed.
func (h *Hub) UnsubscribeWorld(c *WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.world, c)
}

// BroadcastTerritory sends an event to all connections subscribed to a
// territory. A full send buffer drops the message for that client;
// clients detect the gap from the sequence number and resync.
func (h *Hub) BroadcastTerritory(territoryID int, event WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Int("territoryId", territoryID).Msg("Failed to marshal WebSocket event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.territories[territoryID] {
		select {
		case c.send <- data:
		default:
			log.Warn().Str("sessionId", c.sessionID).Int("territoryId", territoryID).Msg("Dropping WebSocket message, buffer full")
		}
	}
}

// BroadcastWorld sends an event to every world feed subscriber.
func (h *Hub) BroadcastWorld(event WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal WebSocket event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.world {
		select {
		case c.send <- data:
		default:
			log.Warn().Str("sessionId", c.sessionID).Msg("Dropping world feed message, buffer full")
		}
	}
}

// ConnectionCount returns the total number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// TerritorySubscriberCount returns the number of connections subscribed
// to a territory.
func (h *Hub) TerritorySubscriberCount(territoryID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.territories[territoryID])
}
