package territory

import "sort"

// Thresholds holds the influence levels at which control and contest
// are recognized. These are tunable; see the server tuning file.
type Thresholds struct {
	Control float64 // sole controller at or above this
	Contest float64 // contested when 2+ factions at or above this
}

// DefaultThresholds match the standard ruleset.
var DefaultThresholds = Thresholds{Control: 60, Contest: 40}

// InfluenceState is an immutable snapshot of one territory's influence
// standings at a point in time.
type InfluenceState struct {
	TerritoryID int                `json:"territory_id"`
	Influence   map[string]float64 `json:"influence"` // faction ID -> 0..100
	Thresholds  Thresholds         `json:"-"`
}

// Clamp forces a value into the valid influence range.
func Clamp(v float64) float64 {
	if v < InfluenceMin {
		return InfluenceMin
	}
	if v > InfluenceMax {
		return InfluenceMax
	}
	return v
}

// Leader returns the faction with the highest influence and its value.
// Ties break to the lexicographically smallest faction ID so the result
// is deterministic. Returns ("", 0) when no faction holds influence.
func (s InfluenceState) Leader() (string, float64) {
	var best string
	var bestVal float64
	// Ascending ID order: a later faction must strictly exceed the
	// current best, so equal values resolve to the smaller ID.
	for _, id := range s.sortedFactions() {
		if v := s.Influence[id]; v > bestVal {
			best = id
			bestVal = v
		}
	}
	return best, bestVal
}

// Controller returns the controlling faction, if any: the leader once
// its influence reaches the control threshold. At most one faction is
// ever reported; ties break by faction ID.
func (s InfluenceState) Controller() (string, bool) {
	leader, v := s.Leader()
	if leader == "" || v < s.Thresholds.Control {
		return "", false
	}
	return leader, true
}

// Contested reports whether two or more factions sit at or above the
// contest threshold simultaneously.
func (s InfluenceState) Contested() bool {
	n := 0
	for _, v := range s.Influence {
		if v >= s.Thresholds.Contest {
			n++
			if n >= 2 {
				return true
			}
		}
	}
	return false
}

// Of returns the influence held by a faction (0 if absent).
func (s InfluenceState) Of(factionID string) float64 {
	return s.Influence[factionID]
}

// Clone returns a deep copy. Speculative callers mutate the clone.
func (s InfluenceState) Clone() InfluenceState {
	c := InfluenceState{TerritoryID: s.TerritoryID, Thresholds: s.Thresholds}
	c.Influence = make(map[string]float64, len(s.Influence))
	for k, v := range s.Influence {
		c.Influence[k] = v
	}
	return c
}

func (s InfluenceState) sortedFactions() []string {
	ids := make([]string, 0, len(s.Influence))
	for id := range s.Influence {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
