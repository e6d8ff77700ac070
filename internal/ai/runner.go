package ai

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/feralgames/frontline/internal/store"
	"github.com/feralgames/frontline/internal/tuning"
)

// ActionSubmitter is the single emission point of the decision loops.
// Implemented by the action service; strategic decisions enter the
// influence update engine through the same path as player actions.
type ActionSubmitter interface {
	SubmitStrategic(ctx context.Context, factionID string, d Decision) error
}

// Runner drives one decision loop per faction on a fixed cadence.
type Runner struct {
	store     *store.Store
	tun       *tuning.Tuning
	submitter ActionSubmitter
}

// NewRunner creates a Runner over the shared store.
func NewRunner(st *store.Store, tun *tuning.Tuning, submitter ActionSubmitter) *Runner {
	return &Runner{store: st, tun: tun, submitter: submitter}
}

// Start launches one goroutine per faction and blocks until ctx is
// cancelled. Ticks are staggered so factions do not all observe and
// act on the same instant.
func (r *Runner) Start(ctx context.Context) {
	factions := r.store.Factions()
	cadence := time.Duration(r.tun.Decision.CadenceSec) * time.Second

	for _, f := range factions {
		stagger := time.Duration(aiFloat64() * float64(cadence))
		go r.loop(ctx, f.ID, cadence, stagger)
	}
	<-ctx.Done()
}

func (r *Runner) loop(ctx context.Context, factionID string, cadence, stagger time.Duration) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(stagger):
	}

	log.Info().Str("factionId", factionID).Dur("cadence", cadence).Msg("Faction decision loop started")
	ticker := time.NewTicker(cadence)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("factionId", factionID).Msg("Faction decision loop stopped")
			return
		case <-ticker.C:
			r.tick(ctx, factionID)
		}
	}
}

// tick runs one Observe -> Score -> Select -> Emit cycle. A tick that
// overruns its budget is skipped with a warning, not retried.
func (r *Runner) tick(ctx context.Context, factionID string) {
	f, ok := r.store.Faction(factionID)
	if !ok {
		return
	}

	start := time.Now()
	snap := r.store.Snapshot()
	d, ok := Decide(snap, r.store.World(), f, r.tun)

	if elapsed := time.Since(start); elapsed > r.tun.DecisionBudget() {
		log.Warn().
			Str("factionId", factionID).
			Dur("elapsed", elapsed).
			Dur("budget", r.tun.DecisionBudget()).
			Msg("Faction tick over budget, skipping")
		return
	}
	if !ok {
		return
	}

	if err := r.submitter.SubmitStrategic(ctx, factionID, d); err != nil {
		log.Error().Err(err).
			Str("factionId", factionID).
			Str("kind", string(d.Kind)).
			Int("territoryId", d.TerritoryID).
			Msg("Faction action rejected")
		return
	}
	log.Debug().
		Str("factionId", factionID).
		Str("kind", string(d.Kind)).
		Int("territoryId", d.TerritoryID).
		Float64("score", d.Score).
		Msg("Faction action emitted")
}
