package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/feralgames/frontline/internal/auth"
	"github.com/feralgames/frontline/internal/model"
	"github.com/feralgames/frontline/internal/service"
	"github.com/feralgames/frontline/internal/store"
)

const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = 54 * time.Second // Must be less than pongWait
	maxMsgSize  = 4096
	sendBufSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS handled by middleware; tighten in production
	},
}

// WSHandler handles WebSocket connections.
type WSHandler struct {
	hub     *Hub
	jwtMgr  *auth.JWTManager
	store   *store.Store
	actions *service.ActionService
}

// NewWSHandler creates a WSHandler.
func NewWSHandler(hub *Hub, jwtMgr *auth.JWTManager, st *store.Store, actions *service.ActionService) *WSHandler {
	return &WSHandler{hub: hub, jwtMgr: jwtMgr, store: st, actions: actions}
}

// ServeWS handles GET /api/v1/ws and upgrades to WebSocket.
// Auth via ?token= query parameter (WebSocket can't send headers).
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, `{"error":"missing token parameter"}`, http.StatusUnauthorized)
		return
	}

	claims, err := h.jwtMgr.ValidateToken(tokenStr)
	if err != nil {
		http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := &WSConn{
		conn:      conn,
		sessionID: claims.UserID,
		send:      make(chan []byte, sendBufSize),
	}
	h.hub.Register(client)

	// Send a welcome message so the client can confirm the connection is live.
	welcome, _ := json.Marshal(WSEvent{Type: "connected", Data: map[string]any{}})
	client.send <- welcome

	go h.writePump(client)
	go h.readPump(client)

	log.Info().Str("sessionId", claims.UserID).Int("total", h.hub.ConnectionCount()).Msg("WebSocket client connected")
}

// readPump reads messages from the WebSocket connection.
func (h *WSHandler) readPump(c *WSConn) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
		log.Info().Str("sessionId", c.sessionID).Msg("WebSocket client disconnected")
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("sessionId", c.sessionID).Msg("WebSocket unexpected close")
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		switch msg.Action {
		case "subscribe":
			if msg.TerritoryID != 0 {
				h.hub.Subscribe(c, msg.TerritoryID)
				h.sendTerritoryState(c, msg.TerritoryID)
			}
		case "unsubscribe":
			if msg.TerritoryID != 0 {
				h.hub.Unsubscribe(c, msg.TerritoryID)
			}
		case "subscribe_world":
			h.hub.SubscribeWorld(c)
		case "unsubscribe_world":
			h.hub.UnsubscribeWorld(c)
		case "submit":
			h.submitAction(c, msg)
		}
	}
}

// sendTerritoryState pushes the current standing of a freshly
// subscribed territory so the client has a baseline sequence number.
func (h *WSHandler) sendTerritoryState(c *WSConn, territoryID int) {
	state, err := h.store.State(territoryID)
	if err != nil {
		return
	}
	controller, _, _ := h.store.GetControllingFaction(territoryID)
	contested, _ := h.store.IsContested(territoryID)
	seq, _ := h.store.Seq(territoryID)

	data, err := json.Marshal(WSEvent{
		Type:        "territory_state",
		TerritoryID: territoryID,
		Data: map[string]any{
			"influence":  state.Influence,
			"controller": controller,
			"contested":  contested,
			"seq":        seq,
		},
	})
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// submitAction applies an action received over the socket. Errors go
// back to the submitting client only.
func (h *WSHandler) submitAction(c *WSConn, msg ClientMessage) {
	res, err := h.actions.Submit(context.Background(), model.ActionSubmission{
		TerritoryID: msg.TerritoryID,
		FactionID:   msg.FactionID,
		Kind:        msg.Kind,
		Magnitude:   msg.Magnitude,
		ActorID:     c.sessionID,
	})
	if err != nil {
		data, _ := json.Marshal(WSEvent{
			Type:        "action_rejected",
			TerritoryID: msg.TerritoryID,
			Data:        map[string]string{"error": err.Error()},
		})
		select {
		case c.send <- data:
		default:
		}
		return
	}

	data, _ := json.Marshal(WSEvent{
		Type:        "action_accepted",
		TerritoryID: msg.TerritoryID,
		Data:        res, // nil when no control change resulted
	})
	select {
	case c.send <- data:
	default:
	}
}

// writePump writes messages to the WebSocket connection.
func (h *WSHandler) writePump(c *WSConn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Drain queued messages into the same write
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte("\n"))
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
