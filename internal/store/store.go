// Package store holds the live, authoritative territorial state.
// Mutation of a single territory's influence set is serialized by a
// per-territory mutex; territories mutate independently of each other.
// Components receive the store by injection, never ambiently.
package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/feralgames/frontline/pkg/territory"
)

var (
	ErrUnknownTerritory = errors.New("unknown territory")
	ErrUnknownFaction   = errors.New("unknown faction")
)

// Change describes one applied influence mutation, with enough context
// for the caller to detect control flips and contest transitions.
type Change struct {
	TerritoryID    int
	FactionID      string
	RequestedDelta float64
	AppliedDelta   float64 // post-clamp
	Value          float64 // influence after applying
	Seq            int64
	OldController  string
	NewController  string
	WasContested   bool
	IsContested    bool
}

// Flipped reports whether the controlling faction changed, including
// gaining a first controller or losing control entirely.
func (c Change) Flipped() bool { return c.OldController != c.NewController }

// DecayResult summarizes one territory's decay sweep.
type DecayResult struct {
	TerritoryID   int
	Changes       []Change
	Seq           int64
	OldController string
	NewController string
	WasContested  bool
	IsContested   bool
}

// Flipped reports whether decay changed the controller.
func (r DecayResult) Flipped() bool { return r.OldController != r.NewController }

// WorldSnapshot is a coherent point-in-time view of all territories,
// used by the persister and the faction decision loops.
type WorldSnapshot struct {
	TakenAt     time.Time
	States      map[int]territory.InfluenceState
	Controllers map[int]string
	Contested   map[int]bool
	Seqs        map[int]int64
}

// ControlledBy returns the territory IDs controlled by a faction, sorted.
func (s WorldSnapshot) ControlledBy(factionID string) []int {
	var out []int
	for id, c := range s.Controllers {
		if c == factionID && c != "" {
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out
}

type entry struct {
	mu          sync.Mutex
	influence   map[string]float64
	controller  string
	contested   bool
	seq         int64
	lastRefresh map[string]time.Time
}

// Store is the single shared mutable resource of the simulation.
type Store struct {
	mu         sync.RWMutex // guards world/factions/entries structure
	world      *territory.WorldMap
	factions   map[string]territory.Faction
	entries    map[int]*entry
	thresholds territory.Thresholds
}

// New builds a store over a validated world map and faction roster.
func New(world *territory.WorldMap, factions []territory.Faction, thresholds territory.Thresholds) *Store {
	s := &Store{thresholds: thresholds}
	s.install(world, factions)
	return s
}

func (s *Store) install(world *territory.WorldMap, factions []territory.Faction) {
	s.world = world
	s.factions = make(map[string]territory.Faction, len(factions))
	for _, f := range factions {
		s.factions[f.ID] = f
	}
	s.entries = make(map[int]*entry, world.Len())
	for _, id := range world.IDs() {
		s.entries[id] = &entry{
			influence:   make(map[string]float64),
			lastRefresh: make(map[string]time.Time),
		}
	}
}

// ReplaceWorld swaps in a new territory graph and faction roster.
// Administrative operation, outside the real-time path; all live
// influence is discarded.
func (s *Store) ReplaceWorld(world *territory.WorldMap, factions []territory.Faction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.install(world, factions)
}

// World returns the current territory graph.
func (s *Store) World() *territory.WorldMap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.world
}

// Thresholds returns the control/contest thresholds in effect.
func (s *Store) Thresholds() territory.Thresholds { return s.thresholds }

// GetTerritory returns static territory data, or nil if unknown.
func (s *Store) GetTerritory(id int) *territory.Territory {
	return s.World().Territory(id)
}

// Faction returns a faction by ID.
func (s *Store) Faction(id string) (territory.Faction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.factions[id]
	return f, ok
}

// Factions returns the roster sorted by ID.
func (s *Store) Factions() []territory.Faction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]territory.Faction, 0, len(s.factions))
	for _, f := range s.factions {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) entryFor(territoryID int) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[territoryID]
	if !ok {
		return nil, ErrUnknownTerritory
	}
	return e, nil
}

// GetInfluence returns a faction's influence in a territory.
func (s *Store) GetInfluence(territoryID int, factionID string) (float64, error) {
	e, err := s.entryFor(territoryID)
	if err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.influence[factionID], nil
}

// State returns a snapshot of one territory's influence standings.
func (s *Store) State(territoryID int) (territory.InfluenceState, error) {
	e, err := s.entryFor(territoryID)
	if err != nil {
		return territory.InfluenceState{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return s.stateLocked(territoryID, e), nil
}

// stateLocked copies an entry's influence map. Caller holds e.mu.
func (s *Store) stateLocked(territoryID int, e *entry) territory.InfluenceState {
	st := territory.InfluenceState{
		TerritoryID: territoryID,
		Influence:   make(map[string]float64, len(e.influence)),
		Thresholds:  s.thresholds,
	}
	for k, v := range e.influence {
		st.Influence[k] = v
	}
	return st
}

// recomputeLocked refreshes the cached controller/contested flags after
// a mutation and bumps the territory sequence. Caller holds e.mu.
func (s *Store) recomputeLocked(territoryID int, e *entry) (oldController string, wasContested bool) {
	oldController = e.controller
	wasContested = e.contested
	st := territory.InfluenceState{TerritoryID: territoryID, Influence: e.influence, Thresholds: s.thresholds}
	ctrl, _ := st.Controller()
	e.controller = ctrl
	e.contested = st.Contested()
	e.seq++
	return oldController, wasContested
}

// SetInfluence force-sets a faction's influence. Out-of-range input is
// silently clamped; the applied value is returned. Gameplay callers are
// never rejected for range.
func (s *Store) SetInfluence(territoryID int, factionID string, value float64) (float64, error) {
	if _, ok := s.Faction(factionID); !ok {
		return 0, ErrUnknownFaction
	}
	e, err := s.entryFor(territoryID)
	if err != nil {
		return 0, err
	}
	v := territory.Clamp(value)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.influence[factionID] = v
	s.recomputeLocked(territoryID, e)
	return v, nil
}

// ApplyDelta adds a (possibly negative) delta to a faction's influence,
// clamping into range, and reports the resulting control situation.
// refresh marks the faction as recently active for decay grace.
func (s *Store) ApplyDelta(territoryID int, factionID string, delta float64, now time.Time, refresh bool) (Change, error) {
	if _, ok := s.Faction(factionID); !ok {
		return Change{}, ErrUnknownFaction
	}
	e, err := s.entryFor(territoryID)
	if err != nil {
		return Change{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	before := e.influence[factionID]
	after := territory.Clamp(before + delta)
	e.influence[factionID] = after
	if refresh {
		e.lastRefresh[factionID] = now
	}
	oldCtrl, wasContested := s.recomputeLocked(territoryID, e)

	return Change{
		TerritoryID:    territoryID,
		FactionID:      factionID,
		RequestedDelta: delta,
		AppliedDelta:   after - before,
		Value:          after,
		Seq:            e.seq,
		OldController:  oldCtrl,
		NewController:  e.controller,
		WasContested:   wasContested,
		IsContested:    e.contested,
	}, nil
}

// ApplyDecay decays every faction's influence in a territory toward
// zero by rate, skipping factions refreshed within the grace window.
// One sequence bump covers the whole sweep of the territory.
func (s *Store) ApplyDecay(territoryID int, rate float64, grace time.Duration, now time.Time) (DecayResult, error) {
	e, err := s.entryFor(territoryID)
	if err != nil {
		return DecayResult{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	res := DecayResult{TerritoryID: territoryID}
	var decayed bool
	factions := make([]string, 0, len(e.influence))
	for f := range e.influence {
		factions = append(factions, f)
	}
	sort.Strings(factions)

	for _, f := range factions {
		v := e.influence[f]
		if v <= 0 {
			continue
		}
		if last, ok := e.lastRefresh[f]; ok && now.Sub(last) < grace {
			continue
		}
		after := territory.Clamp(v - rate)
		e.influence[f] = after
		decayed = true
		res.Changes = append(res.Changes, Change{
			TerritoryID:    territoryID,
			FactionID:      f,
			RequestedDelta: -rate,
			AppliedDelta:   after - v,
			Value:          after,
		})
	}

	if !decayed {
		res.OldController = e.controller
		res.NewController = e.controller
		res.WasContested = e.contested
		res.IsContested = e.contested
		res.Seq = e.seq
		return res, nil
	}

	oldCtrl, wasContested := s.recomputeLocked(territoryID, e)
	res.Seq = e.seq
	res.OldController = oldCtrl
	res.NewController = e.controller
	res.WasContested = wasContested
	res.IsContested = e.contested
	for i := range res.Changes {
		res.Changes[i].Seq = e.seq
		res.Changes[i].OldController = oldCtrl
		res.Changes[i].NewController = e.controller
		res.Changes[i].WasContested = wasContested
		res.Changes[i].IsContested = e.contested
	}
	return res, nil
}

// GetControllingFaction returns the current controller, or ok=false
// when no faction holds the territory.
func (s *Store) GetControllingFaction(territoryID int) (string, bool, error) {
	e, err := s.entryFor(territoryID)
	if err != nil {
		return "", false, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.controller, e.controller != "", nil
}

// IsContested reports the derived contested flag for a territory.
func (s *Store) IsContested(territoryID int) (bool, error) {
	e, err := s.entryFor(territoryID)
	if err != nil {
		return false, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.contested, nil
}

// GetConnected returns the cascade neighborhood of a territory.
func (s *Store) GetConnected(territoryID int) []int {
	return s.World().Neighborhood(territoryID)
}

// Seq returns the current per-territory sequence number.
func (s *Store) Seq(territoryID int) (int64, error) {
	e, err := s.entryFor(territoryID)
	if err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seq, nil
}

// ListByController returns all territory IDs controlled by a faction.
func (s *Store) ListByController(factionID string) []int {
	s.mu.RLock()
	ids := s.world.IDs()
	entries := make([]*entry, len(ids))
	for i, id := range ids {
		entries[i] = s.entries[id]
	}
	s.mu.RUnlock()

	var out []int
	for i, e := range entries {
		e.mu.Lock()
		if e.controller == factionID && factionID != "" {
			out = append(out, ids[i])
		}
		e.mu.Unlock()
	}
	return out
}

// Snapshot returns a coherent view of every territory. Entry locks are
// taken in ascending ID order and held together so the result is a
// single point in time even with concurrent writers.
func (s *Store) Snapshot() WorldSnapshot {
	s.mu.RLock()
	ids := s.world.IDs()
	entries := make([]*entry, len(ids))
	for i, id := range ids {
		entries[i] = s.entries[id]
	}
	s.mu.RUnlock()

	for _, e := range entries {
		e.mu.Lock()
	}
	snap := WorldSnapshot{
		TakenAt:     time.Now().UTC(),
		States:      make(map[int]territory.InfluenceState, len(ids)),
		Controllers: make(map[int]string, len(ids)),
		Contested:   make(map[int]bool, len(ids)),
		Seqs:        make(map[int]int64, len(ids)),
	}
	for i, id := range ids {
		e := entries[i]
		snap.States[id] = s.stateLocked(id, e)
		snap.Controllers[id] = e.controller
		snap.Contested[id] = e.contested
		snap.Seqs[id] = e.seq
	}
	for i := len(entries) - 1; i >= 0; i-- {
		entries[i].mu.Unlock()
	}
	return snap
}

// SetSeqFloor raises a territory's sequence number to at least seq.
// Boot-time restore; reconnecting observers must never see sequence
// numbers move backwards across a restart.
func (s *Store) SetSeqFloor(territoryID int, seq int64) error {
	e, err := s.entryFor(territoryID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if seq > e.seq {
		e.seq = seq
	}
	return nil
}

// LoadInfluence seeds influence values and sequence floors from
// persisted state at boot, without emitting events.
func (s *Store) LoadInfluence(territoryID int, factionID string, value float64, seq int64) error {
	if _, ok := s.Faction(factionID); !ok {
		return ErrUnknownFaction
	}
	e, err := s.entryFor(territoryID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.influence[factionID] = territory.Clamp(value)
	st := territory.InfluenceState{TerritoryID: territoryID, Influence: e.influence, Thresholds: s.thresholds}
	e.controller, _ = st.Controller()
	e.contested = st.Contested()
	if seq > e.seq {
		e.seq = seq
	}
	return nil
}
