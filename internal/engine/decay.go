package engine

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/feralgames/frontline/internal/model"
)

// DecaySweep applies time-based influence decay across every
// territory. Decay-caused control flips are recorded and broadcast as
// low-priority events and never start a cascade; passive loss does not
// spawn the chain reactions an active assault does.
//
// Returns the number of territories whose influence actually changed.
func (e *Engine) DecaySweep(now time.Time) int {
	world := e.store.World()
	grace := time.Duration(e.tun.Decay.GraceSec) * time.Second

	changed := 0
	for _, id := range world.IDs() {
		t := world.Territory(id)
		rate := t.DecayRate
		if rate <= 0 {
			rate = e.tun.Decay.Rate
		}

		res, err := e.store.ApplyDecay(id, rate, grace, now)
		if err != nil {
			log.Error().Err(err).Int("territoryId", id).Msg("Decay sweep failed for territory")
			continue
		}
		if len(res.Changes) == 0 {
			continue
		}
		changed++

		for _, ch := range res.Changes {
			e.sink.Append(model.TerritorialEvent{
				TerritoryID: id,
				Seq:         ch.Seq,
				FactionID:   ch.FactionID,
				Delta:       ch.AppliedDelta,
				Value:       ch.Value,
				Cause:       model.CauseDecay,
				Priority:    model.PriorityLow,
				CreatedAt:   now,
			})
		}

		if res.Flipped() {
			tt := world.Territory(id)
			e.notifier.Notify(model.Notification{
				Kind:                  model.NotifyControlChanged,
				TerritoryID:           id,
				TerritoryName:         tt.Name,
				PreviousControllerID:  res.OldController,
				NewControllerID:       res.NewController,
				StrategicValue:        tt.StrategicValue,
				Contested:             res.IsContested,
				ConnectedTerritoryIDs: world.Neighborhood(id),
				Seq:                   res.Seq,
				Cause:                 model.CauseDecay,
				Priority:              model.PriorityLow,
			})
		}
	}

	if changed > 0 {
		log.Debug().Int("territories", changed).Msg("Decay sweep applied")
	}
	return changed
}
