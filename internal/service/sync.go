package service

import (
	"github.com/rs/zerolog/log"

	"github.com/feralgames/frontline/internal/model"
)

// SyncService fans engine notifications out to connected observers.
// Every notification goes to the affected territory's channel and to
// the world feed, where map-level observers live. Delivery is
// at-least-once; clients dedupe on the per-territory sequence number.
type SyncService struct {
	broadcaster Broadcaster
}

// NewSyncService creates a SyncService.
func NewSyncService(b Broadcaster) *SyncService {
	return &SyncService{broadcaster: b}
}

// Notify implements the engine notifier.
func (s *SyncService) Notify(n model.Notification) {
	s.broadcaster.BroadcastToTerritory(n.TerritoryID, n.Kind, n)
	s.broadcaster.BroadcastToWorld(n.Kind, n)

	log.Debug().
		Str("kind", n.Kind).
		Int("territoryId", n.TerritoryID).
		Int64("seq", n.Seq).
		Str("newController", n.NewControllerID).
		Msg("Notification dispatched")
}
