package handler

// BroadcastToTerritory implements service.Broadcaster using the WebSocket hub.
func (h *Hub) BroadcastToTerritory(territoryID int, eventType string, data any) {
	h.BroadcastTerritory(territoryID, WSEvent{
		Type:        eventType,
		TerritoryID: territoryID,
		Data:        data,
	})
}

// BroadcastToWorld implements the world feed side of service.Broadcaster.
func (h *Hub) BroadcastToWorld(eventType string, data any) {
	h.BroadcastWorld(WSEvent{
		Type: eventType,
		Data: data,
	})
}
