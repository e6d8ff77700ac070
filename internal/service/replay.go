package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/feralgames/frontline/internal/repository"
	"github.com/feralgames/frontline/internal/store"
)

// RecoverState rebuilds the live store after a restart. The last
// Postgres snapshot is the floor; Redis holds anything written since
// that snapshot and is overlaid on top. Sequence floors come from
// Redis so reconnecting clients never observe a sequence moving
// backwards. Redis being unreachable degrades to snapshot-only
// recovery rather than failing the boot.
func RecoverState(ctx context.Context, st *store.Store, influence repository.InfluenceRepository, cache repository.LiveCache) error {
	rows, err := influence.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load influence snapshot: %w", err)
	}
	for _, row := range rows {
		if err := st.LoadInfluence(row.TerritoryID, row.FactionID, row.Value, 0); err != nil {
			log.Warn().Err(err).Int("territoryId", row.TerritoryID).Str("factionId", row.FactionID).
				Msg("Skipping stale influence row")
		}
	}
	loaded := len(rows)

	if cache == nil {
		log.Info().Int("rows", loaded).Msg("State recovered from snapshot only")
		return nil
	}

	overlay, err := cache.AllInfluence(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Redis overlay unavailable, continuing with snapshot state")
		return nil
	}
	for _, row := range overlay {
		if err := st.LoadInfluence(row.TerritoryID, row.FactionID, row.Value, 0); err != nil {
			log.Warn().Err(err).Int("territoryId", row.TerritoryID).Str("factionId", row.FactionID).
				Msg("Skipping stale overlay row")
		}
	}

	seqs, err := cache.AllSeqs(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Redis sequence floors unavailable")
		seqs = nil
	}
	for id, seq := range seqs {
		if err := st.SetSeqFloor(id, seq); err != nil {
			log.Warn().Err(err).Int("territoryId", id).Msg("Skipping sequence floor for unknown territory")
		}
	}

	log.Info().Int("snapshotRows", loaded).Int("overlayRows", len(overlay)).Int("seqFloors", len(seqs)).
		Msg("State recovered")
	return nil
}

// ReplayEvents reconstructs territorial state from the event journal
// alone. Each event carries the post-application value, so replay is a
// pure sequence of load operations; no cascade or decay logic reruns.
// Used by audit tooling against a fresh store.
func ReplayEvents(ctx context.Context, st *store.Store, events repository.EventRepository) (int, error) {
	evs, err := events.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("replay list events: %w", err)
	}

	applied := 0
	for _, ev := range evs {
		if err := st.LoadInfluence(ev.TerritoryID, ev.FactionID, ev.Value, ev.Seq); err != nil {
			log.Warn().Err(err).Int("territoryId", ev.TerritoryID).Int64("eventId", ev.ID).
				Msg("Replay skipped event for unknown territory or faction")
			continue
		}
		applied++
	}
	return applied, nil
}
