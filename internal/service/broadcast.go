package service

// Broadcaster sends real-time events to connected clients.
// Implemented by the WebSocket hub.
type Broadcaster interface {
	BroadcastToTerritory(territoryID int, eventType string, data any)
	BroadcastToWorld(eventType string, data any)
}

// NoopBroadcaster is a no-op implementation for testing or when WS is disabled.
type NoopBroadcaster struct{}

func (NoopBroadcaster) BroadcastToTerritory(int, string, any) {}
func (NoopBroadcaster) BroadcastToWorld(string, any)          {}
