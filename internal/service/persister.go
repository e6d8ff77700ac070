package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/feralgames/frontline/internal/model"
	"github.com/feralgames/frontline/internal/repository"
	"github.com/feralgames/frontline/internal/store"
)

// Persister flushes periodic influence snapshots to Postgres and prunes
// the event journal past its retention window. A failed flush is logged
// and retried on the next cycle; the live store never waits on it.
type Persister struct {
	store     *store.Store
	influence repository.InfluenceRepository
	events    repository.EventRepository

	flushInterval time.Duration
	pruneInterval time.Duration
	retention     time.Duration
}

// NewPersister creates a Persister. retention bounds how far back the
// journal reaches; zero disables pruning.
func NewPersister(st *store.Store, influence repository.InfluenceRepository, events repository.EventRepository, flushInterval, retention time.Duration) *Persister {
	return &Persister{
		store:         st,
		influence:     influence,
		events:        events,
		flushInterval: flushInterval,
		pruneInterval: time.Hour,
		retention:     retention,
	}
}

// Start runs the flush and prune loops until ctx is cancelled. A final
// flush runs on the way out so shutdown loses at most nothing.
func (p *Persister) Start(ctx context.Context) {
	log.Info().Dur("flushInterval", p.flushInterval).Dur("retention", p.retention).Msg("Persister started")

	flush := time.NewTicker(p.flushInterval)
	defer flush.Stop()
	prune := time.NewTicker(p.pruneInterval)
	defer prune.Stop()

	for {
		select {
		case <-ctx.Done():
			p.Flush(context.Background())
			log.Info().Msg("Persister stopped")
			return
		case <-flush.C:
			p.Flush(ctx)
		case <-prune.C:
			p.pruneEvents(ctx)
		}
	}
}

// Flush writes one coherent snapshot of all influence rows.
func (p *Persister) Flush(ctx context.Context) {
	snap := p.store.Snapshot()

	var rows []model.InfluenceRow
	for id, state := range snap.States {
		for factionID, value := range state.Influence {
			rows = append(rows, model.InfluenceRow{
				TerritoryID: id,
				FactionID:   factionID,
				Value:       value,
				LastUpdated: snap.TakenAt,
			})
		}
	}
	if len(rows) == 0 {
		return
	}

	if err := p.influence.UpsertBatch(ctx, rows); err != nil {
		log.Error().Err(err).Int("rows", len(rows)).Msg("Influence snapshot flush failed, will retry next cycle")
		return
	}
	log.Debug().Int("rows", len(rows)).Msg("Influence snapshot flushed")
}

func (p *Persister) pruneEvents(ctx context.Context) {
	if p.retention <= 0 {
		return
	}
	cutoff := time.Now().UTC().Add(-p.retention)
	n, err := p.events.PruneBefore(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Time("cutoff", cutoff).Msg("Event prune failed")
		return
	}
	if n > 0 {
		log.Info().Int64("pruned", n).Time("cutoff", cutoff).Msg("Event journal pruned")
	}
}
