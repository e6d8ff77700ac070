// Package ai implements the per-faction strategic decision loops.
// Decide is a pure function of a territorial snapshot and a behavioral
// profile, so a fixed snapshot always yields the same action.
package ai

import (
	"sort"

	"github.com/feralgames/frontline/internal/store"
	"github.com/feralgames/frontline/internal/tuning"
	"github.com/feralgames/frontline/pkg/territory"
)

// ActionKind is a strategic posture chosen by a faction tick. The
// runner maps these onto boundary actions when emitting.
type ActionKind string

const (
	Expand    ActionKind = "expand"
	Defend    ActionKind = "defend"
	Attack    ActionKind = "attack"
	Fortify   ActionKind = "fortify"
	Patrol    ActionKind = "patrol"
	Retreat   ActionKind = "retreat"
	Negotiate ActionKind = "negotiate"
)

// Decision is the single selected action of one faction tick.
type Decision struct {
	Kind        ActionKind
	TerritoryID int
	Magnitude   float64
	Score       float64
}

type candidate struct {
	kind           ActionKind
	territoryID    int
	score          float64
	strategicValue int
}

// kindRank fixes an arbitrary but stable order among action kinds for
// the final tie-break level.
var kindRank = map[ActionKind]int{
	Expand: 0, Attack: 1, Defend: 2, Fortify: 3, Retreat: 4, Negotiate: 5, Patrol: 6,
}

// Decide observes a snapshot, scores candidate actions against the
// faction's profile, and selects the best. Ties break by candidate
// strategic value, then territory ID, then kind, so results are fully
// deterministic. Returns ok=false when no candidate scores above zero.
func Decide(snap store.WorldSnapshot, world *territory.WorldMap, f territory.Faction, tun *tuning.Tuning) (Decision, bool) {
	p := f.Profile
	var cands []candidate

	controlled := snap.ControlledBy(f.ID)
	controlledSet := make(map[int]bool, len(controlled))
	for _, id := range controlled {
		controlledSet[id] = true
	}

	// Own holdings: defend, fortify, retreat, patrol. The snapshot and
	// the world map are read separately, so a concurrent world
	// replacement can leave snapshot IDs with no territory; those are
	// skipped rather than acted on.
	for _, id := range controlled {
		t := world.Territory(id)
		if t == nil {
			continue
		}
		st := snap.States[id]
		own := st.Of(f.ID)
		rival := strongestRival(st, f.ID)

		if snap.Contested[id] {
			cands = append(cands, candidate{
				kind:           Defend,
				territoryID:    id,
				score:          (rival / 100) * (0.5 + 0.5*(1-p.RiskTolerance)),
				strategicValue: t.StrategicValue,
			})
		}

		if own < territory.InfluenceMax {
			cands = append(cands, candidate{
				kind:           Fortify,
				territoryID:    id,
				score:          0.5 * p.ResourceFocus * t.ResourceMultiplier * (1 - own/100),
				strategicValue: t.StrategicValue,
			})
		}

		cands = append(cands, candidate{
			kind:           Patrol,
			territoryID:    id,
			score:          0.05 + 0.03*p.RiskTolerance,
			strategicValue: t.StrategicValue,
		})
	}

	// Collapsing positions anywhere we still hold residual influence:
	// retreat cuts losses when the risk appetite is low.
	for id, st := range snap.States {
		own := st.Of(f.ID)
		if own <= 0 || controlledSet[id] {
			continue
		}
		rival := strongestRival(st, f.ID)
		if own < tun.ContestThreshold && rival > own {
			t := world.Territory(id)
			if t == nil {
				continue
			}
			cands = append(cands, candidate{
				kind:           Retreat,
				territoryID:    id,
				score:          (1 - p.RiskTolerance) * (rival - own) / 100,
				strategicValue: t.StrategicValue,
			})
		}
	}

	// The frontier: neighbors of holdings, or the whole map when the
	// faction holds nothing yet.
	frontier := frontierOf(world, controlled)
	for _, id := range frontier {
		if controlledSet[id] {
			continue
		}
		t := world.Territory(id)
		if t == nil {
			continue
		}
		st := snap.States[id]
		controller := snap.Controllers[id]
		leaderVal := strongestAny(st)

		if controller == "" {
			cands = append(cands, candidate{
				kind:           Expand,
				territoryID:    id,
				score:          p.ExpansionPriority * (1 - leaderVal/100) * (0.5 + float64(t.StrategicValue)/20),
				strategicValue: t.StrategicValue,
			})
		} else if controller != f.ID {
			weakness := 1 - st.Of(controller)/100
			bonus := 0.0
			if snap.Contested[id] {
				bonus = 0.2
			}
			cands = append(cands, candidate{
				kind:           Attack,
				territoryID:    id,
				score:          p.Aggression * (weakness + bonus),
				strategicValue: t.StrategicValue,
			})
			if snap.Contested[id] {
				cands = append(cands, candidate{
					kind:           Negotiate,
					territoryID:    id,
					score:          0.3 * p.DiplomaticTendency,
					strategicValue: t.StrategicValue,
				})
			}
		}
	}

	best, ok := pick(cands)
	if !ok {
		return Decision{}, false
	}
	return Decision{
		Kind:        best.kind,
		TerritoryID: best.territoryID,
		Magnitude:   magnitude(best.kind, p, tun),
		Score:       best.score,
	}, true
}

// pick selects the highest-scoring candidate with deterministic
// tie-breaking.
func pick(cands []candidate) (candidate, bool) {
	var usable []candidate
	for _, c := range cands {
		if c.score > 0 {
			usable = append(usable, c)
		}
	}
	if len(usable) == 0 {
		return candidate{}, false
	}
	sort.Slice(usable, func(i, j int) bool {
		a, b := usable[i], usable[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.strategicValue != b.strategicValue {
			return a.strategicValue > b.strategicValue
		}
		if a.territoryID != b.territoryID {
			return a.territoryID < b.territoryID
		}
		return kindRank[a.kind] < kindRank[b.kind]
	})
	return usable[0], true
}

// magnitude converts the profile and base delta into the emitted
// action magnitude. Offensive postures scale with aggression,
// consolidating ones with resource focus.
func magnitude(kind ActionKind, p territory.Profile, tun *tuning.Tuning) float64 {
	base := tun.Decision.BaseDelta
	switch kind {
	case Expand, Attack:
		return base * (0.8 + 0.4*p.Aggression)
	case Defend, Fortify:
		return base * (0.8 + 0.4*p.ResourceFocus)
	case Retreat:
		return base
	case Negotiate, Patrol:
		return base * 0.4
	}
	return base
}

// frontierOf returns the union of neighborhoods of the given
// territories, sorted. With no holdings the whole map is in play.
func frontierOf(world *territory.WorldMap, controlled []int) []int {
	if len(controlled) == 0 {
		return world.IDs()
	}
	seen := make(map[int]bool)
	var out []int
	for _, id := range controlled {
		for _, nb := range world.Neighborhood(id) {
			if !seen[nb] {
				seen[nb] = true
				out = append(out, nb)
			}
		}
	}
	sort.Ints(out)
	return out
}

// strongestRival returns the highest influence held by any faction
// other than the given one.
func strongestRival(st territory.InfluenceState, factionID string) float64 {
	var best float64
	for id, v := range st.Influence {
		if id != factionID && v > best {
			best = v
		}
	}
	return best
}

func strongestAny(st territory.InfluenceState) float64 {
	var best float64
	for _, v := range st.Influence {
		if v > best {
			best = v
		}
	}
	return best
}
