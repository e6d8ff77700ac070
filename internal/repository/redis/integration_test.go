//go:build integration

package redis

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/feralgames/frontline/internal/model"
	"github.com/feralgames/frontline/internal/testutil"
)

var testRDB *goredis.Client

func setup(t *testing.T) *Client {
	t.Helper()
	if testRDB == nil {
		testRDB = testutil.SetupRedis(t)
	}
	testutil.CleanupRedis(t, testRDB)
	return NewClientFromPool(testRDB)
}

func TestInfluenceMirrorRoundTrip(t *testing.T) {
	c := setup(t)
	ctx := context.Background()

	rows := []model.InfluenceRow{
		{TerritoryID: 11, FactionID: "crimson", Value: 72.5},
		{TerritoryID: 11, FactionID: "azure", Value: 12},
		{TerritoryID: 21, FactionID: "azure", Value: 64},
	}
	for _, row := range rows {
		if err := c.SetInfluence(ctx, row); err != nil {
			t.Fatalf("set influence %d/%s: %v", row.TerritoryID, row.FactionID, err)
		}
	}

	got, err := c.AllInfluence(ctx)
	if err != nil {
		t.Fatalf("all influence: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(got))
	}

	byKey := make(map[int]map[string]float64)
	for _, row := range got {
		if byKey[row.TerritoryID] == nil {
			byKey[row.TerritoryID] = make(map[string]float64)
		}
		byKey[row.TerritoryID][row.FactionID] = row.Value
	}
	if byKey[11]["crimson"] != 72.5 {
		t.Fatalf("expected 72.5, got %v", byKey[11]["crimson"])
	}
	if byKey[21]["azure"] != 64 {
		t.Fatalf("expected 64, got %v", byKey[21]["azure"])
	}
}

func TestInfluenceOverwriteKeepsLatest(t *testing.T) {
	c := setup(t)
	ctx := context.Background()

	c.SetInfluence(ctx, model.InfluenceRow{TerritoryID: 11, FactionID: "crimson", Value: 40})
	c.SetInfluence(ctx, model.InfluenceRow{TerritoryID: 11, FactionID: "crimson", Value: 55})

	got, err := c.AllInfluence(ctx)
	if err != nil {
		t.Fatalf("all influence: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 row, got %d", len(got))
	}
	if got[0].Value != 55 {
		t.Fatalf("expected latest value 55, got %v", got[0].Value)
	}
}

func TestSeqFloors(t *testing.T) {
	c := setup(t)
	ctx := context.Background()

	c.SetSeq(ctx, 11, 42)
	c.SetSeq(ctx, 21, 7)
	c.SetSeq(ctx, 11, 43)

	seqs, err := c.AllSeqs(ctx)
	if err != nil {
		t.Fatalf("all seqs: %v", err)
	}
	if len(seqs) != 2 {
		t.Fatalf("expected 2 territories, got %d", len(seqs))
	}
	if seqs[11] != 43 {
		t.Fatalf("expected seq 43 for territory 11, got %d", seqs[11])
	}
	if seqs[21] != 7 {
		t.Fatalf("expected seq 7 for territory 21, got %d", seqs[21])
	}
}

func TestAllSeqsEmptyWorld(t *testing.T) {
	c := setup(t)

	seqs, err := c.AllSeqs(context.Background())
	if err != nil {
		t.Fatalf("all seqs: %v", err)
	}
	if len(seqs) != 0 {
		t.Fatalf("expected empty map, got %v", seqs)
	}
}

func TestArmDecayTimerTTL(t *testing.T) {
	c := setup(t)
	ctx := context.Background()

	if err := c.ArmDecayTimer(ctx, 10*time.Second); err != nil {
		t.Fatalf("arm decay timer: %v", err)
	}

	ttl := testRDB.TTL(ctx, decayTimerKey).Val()
	if ttl <= 0 || ttl > 11*time.Second {
		t.Fatalf("expected TTL ~10s, got %v", ttl)
	}

	// Non-positive intervals clamp to a short TTL instead of never firing.
	if err := c.ArmDecayTimer(ctx, 0); err != nil {
		t.Fatalf("arm with zero interval: %v", err)
	}
	ttl = testRDB.TTL(ctx, decayTimerKey).Val()
	if ttl <= 0 || ttl > 2*time.Second {
		t.Fatalf("expected TTL ~1s for zero interval, got %v", ttl)
	}
}

func TestFlushClearsLiveState(t *testing.T) {
	c := setup(t)
	ctx := context.Background()

	c.SetInfluence(ctx, model.InfluenceRow{TerritoryID: 11, FactionID: "crimson", Value: 40})
	c.SetSeq(ctx, 11, 9)
	c.ArmDecayTimer(ctx, time.Minute)

	if err := c.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	rows, _ := c.AllInfluence(ctx)
	if len(rows) != 0 {
		t.Fatalf("expected influence cleared, got %d rows", len(rows))
	}
	seqs, _ := c.AllSeqs(ctx)
	if len(seqs) != 0 {
		t.Fatalf("expected seqs cleared, got %v", seqs)
	}
	if exists := testRDB.Exists(ctx, decayTimerKey).Val(); exists != 0 {
		t.Fatal("expected decay timer key deleted")
	}
}
