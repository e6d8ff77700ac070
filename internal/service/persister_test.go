package service

import (
	"context"
	"testing"
	"time"

	"github.com/feralgames/frontline/internal/model"
)

func TestPersister_FlushWritesSnapshot(t *testing.T) {
	st := newFixtureStore(t)
	st.SetInfluence(11, "crimson", 65)
	st.SetInfluence(21, "azure", 30)

	influence := newMockInfluenceRepo()
	events := newMockEventRepo()
	p := NewPersister(st, influence, events, time.Minute, 0)

	p.Flush(context.Background())

	rows, _ := influence.LoadAll(context.Background())
	byKey := make(map[infKey]float64)
	for _, row := range rows {
		byKey[influenceKey(row)] = row.Value
	}
	if byKey[infKey{11, "crimson"}] != 65 {
		t.Errorf("crimson row = %.1f, want 65", byKey[infKey{11, "crimson"}])
	}
	if byKey[infKey{21, "azure"}] != 30 {
		t.Errorf("azure row = %.1f, want 30", byKey[infKey{21, "azure"}])
	}
}

func TestPersister_FlushEmptyStoreWritesNothing(t *testing.T) {
	st := newFixtureStore(t)
	influence := newMockInfluenceRepo()
	p := NewPersister(st, influence, newMockEventRepo(), time.Minute, 0)

	p.Flush(context.Background())
	if rows, _ := influence.LoadAll(context.Background()); len(rows) != 0 {
		t.Errorf("expected no rows, got %d", len(rows))
	}
}

func TestPersister_PruneRespectsRetention(t *testing.T) {
	events := newMockEventRepo()
	old := time.Now().UTC().Add(-48 * time.Hour)
	recent := time.Now().UTC()
	events.Append(context.Background(), model.TerritorialEvent{TerritoryID: 11, Seq: 1, FactionID: "crimson", CreatedAt: old})
	events.Append(context.Background(), model.TerritorialEvent{TerritoryID: 11, Seq: 2, FactionID: "crimson", CreatedAt: recent})

	p := NewPersister(newFixtureStore(t), newMockInfluenceRepo(), events, time.Minute, 24*time.Hour)
	p.pruneEvents(context.Background())

	if n := events.count(); n != 1 {
		t.Errorf("after prune: %d events, want 1", n)
	}

	// Zero retention disables pruning entirely.
	p2 := NewPersister(newFixtureStore(t), newMockInfluenceRepo(), events, time.Minute, 0)
	p2.pruneEvents(context.Background())
	if n := events.count(); n != 1 {
		t.Errorf("zero retention pruned events: %d left", n)
	}
}
