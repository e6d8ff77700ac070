package engine

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/feralgames/frontline/internal/model"
)

// cascadeRunner walks the territory graph after a control flip and
// applies probability-weighted secondary influence effects. One pass
// runs synchronously inside the triggering ApplyAction and must fit
// the configured latency budget; over-budget passes are truncated by
// dropping the remaining waves, never aborted mid-wave.
type cascadeRunner struct {
	engine *Engine

	rngMu sync.Mutex
	rng   *rand.Rand
}

func newCascadeRunner(e *Engine, seed int64) *cascadeRunner {
	return &cascadeRunner{
		engine: e,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Seed resets the propagation RNG. Test hook for reproducible rolls.
func (e *Engine) SeedCascade(seed int64) {
	e.cascade.rngMu.Lock()
	defer e.cascade.rngMu.Unlock()
	e.cascade.rng = rand.New(rand.NewSource(seed))
}

func (c *cascadeRunner) roll() float64 {
	c.rngMu.Lock()
	defer c.rngMu.Unlock()
	return c.rng.Float64()
}

// propagate runs one full cascade pass for an origin flip, then
// evaluates dominance and strategic-loss outcomes for all flips of the
// pass. Returns every flip including the origin.
func (c *cascadeRunner) propagate(origin ControlChangeResult) []ControlChangeResult {
	e := c.engine
	start := time.Now()
	budget := e.tun.CascadeBudget()
	maxDepth := e.tun.Cascade.MaxDepth

	// A territory receives at most one secondary delta per pass, and
	// the origin never reinforces itself.
	affected := map[int]bool{origin.TerritoryID: true}
	flips := []ControlChangeResult{origin}
	wave := []ControlChangeResult{origin}
	maxDeg := c.maxDegree()

	for depth := 1; depth <= maxDepth; depth++ {
		if budget > 0 && time.Since(start) > budget {
			log.Warn().
				Int("territoryId", origin.TerritoryID).
				Int("depth", depth).
				Dur("elapsed", time.Since(start)).
				Msg("Cascade budget exceeded, truncating remaining waves")
			break
		}

		var next []ControlChangeResult
		for _, f := range wave {
			next = append(next, c.spreadFrom(f, depth, maxDeg, affected)...)
		}
		if len(next) == 0 {
			// No flips this wave; deeper waves have no new sources.
			break
		}
		flips = append(flips, next...)
		wave = next
	}

	c.evaluateOutcomes(flips)
	return flips
}

// maxDegree returns the highest neighborhood size in the graph, the
// normalization base for the centrality factor.
func (c *cascadeRunner) maxDegree() int {
	world := c.engine.store.World()
	maxDeg := 1
	for _, id := range world.IDs() {
		if d := world.Degree(id); d > maxDeg {
			maxDeg = d
		}
	}
	return maxDeg
}

// spreadFrom applies secondary deltas from one flipped territory to its
// unvisited neighbors, returning any follow-up flips.
func (c *cascadeRunner) spreadFrom(f ControlChangeResult, depth, maxDeg int, affected map[int]bool) []ControlChangeResult {
	e := c.engine
	world := e.store.World()
	origin := world.Territory(f.TerritoryID)
	if origin == nil || f.NewControllerID == "" {
		return nil
	}

	var flips []ControlChangeResult
	for _, nb := range world.Neighborhood(f.TerritoryID) {
		if affected[nb] {
			continue
		}

		p := c.probability(origin.StrategicValue, nb, f.NewControllerID, depth, maxDeg)
		if c.roll() >= p {
			continue
		}

		delta := e.tun.Cascade.DeltaScale * float64(origin.StrategicValue) * p
		now := e.now()
		ch, err := e.store.ApplyDelta(nb, f.NewControllerID, delta, now, false)
		if err != nil {
			log.Error().Err(err).Int("territoryId", nb).Msg("Cascade delta failed")
			continue
		}
		affected[nb] = true

		e.sink.Append(model.TerritorialEvent{
			TerritoryID: nb,
			Seq:         ch.Seq,
			FactionID:   f.NewControllerID,
			ActorID:     f.NewControllerID,
			Delta:       ch.AppliedDelta,
			Value:       ch.Value,
			Cause:       model.CauseCascade,
			Priority:    model.PriorityHigh,
			CreatedAt:   now,
		})
		e.notifyTransitions(ch, model.CauseCascade, model.PriorityHigh, depth)

		if ch.Flipped() && ch.NewController != "" {
			flips = append(flips, ControlChangeResult{
				TerritoryID:     nb,
				OldControllerID: ch.OldController,
				NewControllerID: ch.NewController,
				WasContested:    ch.WasContested,
				IsContested:     ch.IsContested,
				Seq:             ch.Seq,
				Cause:           model.CauseCascade,
			})
		}
	}
	return flips
}

// probability computes the chance a neighbor is affected: stronger for
// high-value origins and well-connected neighbors, boosted when the
// new controller already holds influence there, dampened per wave to
// keep chains finite in expectation.
func (c *cascadeRunner) probability(strategicValue, neighborID int, factionID string, depth, maxDeg int) float64 {
	e := c.engine
	world := e.store.World()
	cfg := e.tun.Cascade

	p := cfg.BaseProbability * float64(strategicValue) / 10.0
	p /= float64(depth)
	p *= math.Pow(cfg.Dampening, float64(depth))

	// Centrality: neighbors with more connections carry the shock
	// further. Normalized against the densest node in the graph.
	centrality := float64(world.Degree(neighborID)) / float64(maxDeg)
	p *= 1 + cfg.CentralityWeight*(centrality-0.5)

	if inf, err := e.store.GetInfluence(neighborID, factionID); err == nil && inf > 0 {
		p += cfg.ReinforcementBonus
	}

	if p < 0 {
		return 0
	}
	if p > 0.95 {
		return 0.95
	}
	return p
}

// evaluateOutcomes emits Dominance and StrategicLoss notifications for
// the flips of one cascade pass. These are distinct from raw control
// changes; narrative and analytics collaborators subscribe to them
// separately.
func (c *cascadeRunner) evaluateOutcomes(flips []ControlChangeResult) {
	e := c.engine
	world := e.store.World()
	cfg := e.tun.Cascade

	type domKey struct {
		faction string
		region  int
	}
	notifiedDominance := make(map[domKey]bool)

	for _, f := range flips {
		t := world.Territory(f.TerritoryID)
		if t == nil {
			continue
		}

		// Strategic loss: the previous controller lost a high-value holding.
		if f.OldControllerID != "" && t.StrategicValue >= cfg.StrategicLossValue {
			e.notifier.Notify(model.Notification{
				Kind:                 model.NotifyStrategicLoss,
				TerritoryID:          f.TerritoryID,
				TerritoryName:        t.Name,
				PreviousControllerID: f.OldControllerID,
				NewControllerID:      f.NewControllerID,
				StrategicValue:       t.StrategicValue,
				FactionID:            f.OldControllerID,
				Seq:                  f.Seq,
				Cause:                f.Cause,
				Priority:             model.PriorityHigh,
			})
		}

		if f.NewControllerID == "" {
			continue
		}
		region := world.RegionOf(f.TerritoryID)
		if region == nil {
			continue
		}
		key := domKey{faction: f.NewControllerID, region: region.ID}
		if notifiedDominance[key] {
			continue
		}
		if c.isDominant(f.NewControllerID, region.ID) {
			notifiedDominance[key] = true
			e.notifier.Notify(model.Notification{
				Kind:            model.NotifyDominance,
				TerritoryID:     f.TerritoryID,
				TerritoryName:   t.Name,
				NewControllerID: f.NewControllerID,
				StrategicValue:  t.StrategicValue,
				FactionID:       f.NewControllerID,
				RegionID:        region.ID,
				Seq:             f.Seq,
				Cause:           f.Cause,
				Priority:        model.PriorityHigh,
			})
		}
	}
}

// isDominant reports whether a faction dominates a region: controlling
// more than half of the region's immediate children, or holding two or
// more territories at or above the dominance strategic value.
func (c *cascadeRunner) isDominant(factionID string, regionID int) bool {
	e := c.engine
	world := e.store.World()
	cfg := e.tun.Cascade

	children := world.Children(regionID)
	if len(children) > 0 {
		held := 0
		for _, id := range children {
			if ctrl, ok, err := e.store.GetControllingFaction(id); err == nil && ok && ctrl == factionID {
				held++
			}
		}
		if held*2 > len(children) {
			return true
		}
	}

	controlled := e.store.ListByController(factionID)
	highValue := 0
	for _, id := range controlled {
		if t := world.Territory(id); t != nil && t.StrategicValue >= cfg.DominanceStrategicValue {
			highValue++
			if highValue >= 2 {
				return true
			}
		}
	}
	return false
}
