package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/feralgames/frontline/internal/model"
)

// Key patterns for live territorial state.
//
// Influence lives in one hash per territory so a crash between
// snapshot flushes loses nothing: boot overlays these values on top of
// the last Postgres snapshot. Sequence floors live in plain keys so
// clients reconnecting after a restart never see sequence numbers move
// backwards.
func influenceKey(territoryID int) string { return "territory:" + strconv.Itoa(territoryID) + ":influence" }
func seqKey(territoryID int) string       { return "territory:" + strconv.Itoa(territoryID) + ":seq" }

const (
	decayTimerKey = "world:decay_timer"
	seqKeyPrefix  = "territory:"
	seqKeySuffix  = ":seq"
)

// SetInfluence mirrors one influence value into the territory's hash.
func (c *Client) SetInfluence(ctx context.Context, row model.InfluenceRow) error {
	return c.rdb.HSet(ctx, influenceKey(row.TerritoryID), row.FactionID,
		strconv.FormatFloat(row.Value, 'f', -1, 64)).Err()
}

// AllInfluence scans every territory influence hash. Used once at boot
// to overlay Redis state on the last Postgres snapshot.
func (c *Client) AllInfluence(ctx context.Context) ([]model.InfluenceRow, error) {
	var rows []model.InfluenceRow
	iter := c.rdb.Scan(ctx, 0, seqKeyPrefix+"*:influence", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		id, err := territoryIDFromKey(key, ":influence")
		if err != nil {
			continue
		}
		fields, err := c.rdb.HGetAll(ctx, key).Result()
		if err != nil {
			return nil, fmt.Errorf("read influence hash %s: %w", key, err)
		}
		for factionID, raw := range fields {
			value, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("parse influence %s/%s: %w", key, factionID, err)
			}
			rows = append(rows, model.InfluenceRow{TerritoryID: id, FactionID: factionID, Value: value})
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan influence keys: %w", err)
	}
	return rows, nil
}

// SetSeq records the latest sequence number for a territory.
func (c *Client) SetSeq(ctx context.Context, territoryID int, seq int64) error {
	return c.rdb.Set(ctx, seqKey(territoryID), seq, 0).Err()
}

// AllSeqs returns the persisted sequence floor for every territory.
func (c *Client) AllSeqs(ctx context.Context) (map[int]int64, error) {
	out := make(map[int]int64)
	iter := c.rdb.Scan(ctx, 0, seqKeyPrefix+"*"+seqKeySuffix, 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		id, err := territoryIDFromKey(key, seqKeySuffix)
		if err != nil {
			continue
		}
		raw, err := c.rdb.Get(ctx, key).Result()
		if err != nil {
			return nil, fmt.Errorf("read seq %s: %w", key, err)
		}
		seq, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse seq %s: %w", key, err)
		}
		out[id] = seq
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan seq keys: %w", err)
	}
	return out, nil
}

// ArmDecayTimer sets the decay timer key with a TTL. When the key
// expires, Redis keyspace notifications trigger the next decay sweep,
// which re-arms the timer.
func (c *Client) ArmDecayTimer(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Second
	}
	return c.rdb.Set(ctx, decayTimerKey, time.Now().Add(interval).Unix(), interval).Err()
}

// Flush removes all live territorial state. Called on world replacement.
func (c *Client) Flush(ctx context.Context) error {
	var keys []string
	iter := c.rdb.Scan(ctx, 0, seqKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan live keys: %w", err)
	}
	keys = append(keys, decayTimerKey)
	return c.rdb.Del(ctx, keys...).Err()
}

func territoryIDFromKey(key, suffix string) (int, error) {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(key, seqKeyPrefix), suffix)
	return strconv.Atoi(trimmed)
}
