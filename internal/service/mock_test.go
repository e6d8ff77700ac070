package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/feralgames/frontline/internal/model"
	"github.com/feralgames/frontline/pkg/territory"
)

type mockEventRepo struct {
	mu     sync.Mutex
	events []model.TerritorialEvent
	nextID int64
}

func newMockEventRepo() *mockEventRepo {
	return &mockEventRepo{}
}

func (m *mockEventRepo) Append(_ context.Context, ev model.TerritorialEvent) (model.TerritorialEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	ev.ID = m.nextID
	m.events = append(m.events, ev)
	return ev, nil
}

func (m *mockEventRepo) ListByTerritorySince(_ context.Context, territoryID int, sinceSeq int64, limit int) ([]model.TerritorialEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.TerritorialEvent
	for _, ev := range m.events {
		if ev.TerritoryID == territoryID && ev.Seq > sinceSeq {
			out = append(out, ev)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (m *mockEventRepo) ListAll(_ context.Context) ([]model.TerritorialEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.TerritorialEvent, len(m.events))
	copy(out, m.events)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TerritoryID != out[j].TerritoryID {
			return out[i].TerritoryID < out[j].TerritoryID
		}
		if out[i].Seq != out[j].Seq {
			return out[i].Seq < out[j].Seq
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *mockEventRepo) PruneBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []model.TerritorialEvent
	var pruned int64
	for _, ev := range m.events {
		if ev.CreatedAt.Before(cutoff) {
			pruned++
			continue
		}
		kept = append(kept, ev)
	}
	m.events = kept
	return pruned, nil
}

func (m *mockEventRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

type infKey struct {
	territory int
	faction   string
}

type mockInfluenceRepo struct {
	mu   sync.Mutex
	rows map[infKey]model.InfluenceRow
}

func newMockInfluenceRepo() *mockInfluenceRepo {
	return &mockInfluenceRepo{rows: make(map[infKey]model.InfluenceRow)}
}

func influenceKey(row model.InfluenceRow) infKey {
	return infKey{territory: row.TerritoryID, faction: row.FactionID}
}

func (m *mockInfluenceRepo) UpsertBatch(_ context.Context, rows []model.InfluenceRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range rows {
		m.rows[influenceKey(row)] = row
	}
	return nil
}

func (m *mockInfluenceRepo) LoadAll(_ context.Context) ([]model.InfluenceRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.InfluenceRow
	for _, row := range m.rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TerritoryID != out[j].TerritoryID {
			return out[i].TerritoryID < out[j].TerritoryID
		}
		return out[i].FactionID < out[j].FactionID
	})
	return out, nil
}

type mockWorldRepo struct {
	mu          sync.Mutex
	territories []territory.Territory
	factions    []territory.Faction
	replaced    int
}

func (m *mockWorldRepo) LoadWorld(_ context.Context) ([]territory.Territory, []territory.Faction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.territories, m.factions, nil
}

func (m *mockWorldRepo) ReplaceWorld(_ context.Context, territories []territory.Territory, factions []territory.Faction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.territories = territories
	m.factions = factions
	m.replaced++
	return nil
}

type mockLiveCache struct {
	mu        sync.Mutex
	influence map[int]map[string]float64
	seqs      map[int]int64
	flushed   int
	armed     int
}

func newMockLiveCache() *mockLiveCache {
	return &mockLiveCache{
		influence: make(map[int]map[string]float64),
		seqs:      make(map[int]int64),
	}
}

func (m *mockLiveCache) SetInfluence(_ context.Context, row model.InfluenceRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.influence[row.TerritoryID] == nil {
		m.influence[row.TerritoryID] = make(map[string]float64)
	}
	m.influence[row.TerritoryID][row.FactionID] = row.Value
	return nil
}

func (m *mockLiveCache) AllInfluence(_ context.Context) ([]model.InfluenceRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.InfluenceRow
	for id, factions := range m.influence {
		for factionID, value := range factions {
			out = append(out, model.InfluenceRow{TerritoryID: id, FactionID: factionID, Value: value})
		}
	}
	return out, nil
}

func (m *mockLiveCache) SetSeq(_ context.Context, territoryID int, seq int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seqs[territoryID] = seq
	return nil
}

func (m *mockLiveCache) AllSeqs(_ context.Context) (map[int]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int]int64, len(m.seqs))
	for k, v := range m.seqs {
		out[k] = v
	}
	return out, nil
}

func (m *mockLiveCache) ArmDecayTimer(_ context.Context, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.armed++
	return nil
}

func (m *mockLiveCache) Flush(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.influence = make(map[int]map[string]float64)
	m.seqs = make(map[int]int64)
	m.flushed++
	return nil
}

type mockBroadcaster struct {
	mu        sync.Mutex
	territory []model.Notification
	world     []model.Notification
}

func (m *mockBroadcaster) BroadcastToTerritory(_ int, _ string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := data.(model.Notification); ok {
		m.territory = append(m.territory, n)
	}
}

func (m *mockBroadcaster) BroadcastToWorld(_ string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := data.(model.Notification); ok {
		m.world = append(m.world, n)
	}
}
