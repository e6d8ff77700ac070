package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/feralgames/frontline/internal/engine"
	"github.com/feralgames/frontline/internal/model"
	"github.com/feralgames/frontline/internal/repository"
	"github.com/feralgames/frontline/pkg/territory"
)

// WorldService handles administrative operations on the territory
// graph and direct state overrides. These bypass the action boundary
// but still flow through the engine so every change is journaled.
type WorldService struct {
	eng    *engine.Engine
	worlds repository.WorldRepository
	cache  repository.LiveCache
}

// NewWorldService creates a WorldService.
func NewWorldService(eng *engine.Engine, worlds repository.WorldRepository, cache repository.LiveCache) *WorldService {
	return &WorldService{eng: eng, worlds: worlds, cache: cache}
}

// ReplaceWorld validates and installs a new territory graph and
// faction roster. All live influence, the event journal, and the Redis
// mirror are cleared; a world replacement starts a fresh campaign.
func (s *WorldService) ReplaceWorld(ctx context.Context, territories []territory.Territory, factions []territory.Faction) error {
	world, err := territory.NewWorldMap(territories)
	if err != nil {
		return fmt.Errorf("invalid world: %w", err)
	}
	if len(factions) == 0 {
		return fmt.Errorf("invalid world: at least one faction required")
	}

	if err := s.worlds.ReplaceWorld(ctx, territories, factions); err != nil {
		return err
	}
	s.eng.Store().ReplaceWorld(world, factions)

	if s.cache != nil {
		if err := s.cache.Flush(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to flush live cache after world replacement")
		}
	}

	log.Info().Int("territories", len(territories)).Int("factions", len(factions)).Msg("World replaced")
	return nil
}

// ForceInfluence overrides one influence value. Expressed as a delta
// from the current value so the change goes through the normal engine
// pipeline and lands in the journal with an admin cause.
func (s *WorldService) ForceInfluence(ctx context.Context, territoryID int, factionID string, value float64, actorID string) (*engine.ControlChangeResult, error) {
	current, err := s.eng.Store().GetInfluence(territoryID, factionID)
	if err != nil {
		return nil, err
	}
	target := territory.Clamp(value)
	return s.eng.ApplyAction(territoryID, factionID, target-current, model.CauseAdmin, actorID)
}

// TriggerDecay runs one decay sweep immediately.
func (s *WorldService) TriggerDecay() int {
	return s.eng.DecaySweep(time.Now().UTC())
}
