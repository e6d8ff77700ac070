package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/feralgames/frontline/internal/model"
)

// EventRepo handles the append-only territorial event journal.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo creates an EventRepo.
func NewEventRepo(db *sql.DB) *EventRepo {
	return &EventRepo{db: db}
}

// Append inserts one event and returns it with the journal ID set.
// Events are never updated or reordered after insertion.
func (r *EventRepo) Append(ctx context.Context, ev model.TerritorialEvent) (model.TerritorialEvent, error) {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO events (territory_id, seq, faction_id, actor_id, delta, value, cause, priority, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		ev.TerritoryID, ev.Seq, ev.FactionID, nullStr(ev.ActorID), ev.Delta, ev.Value, ev.Cause, ev.Priority, ev.CreatedAt,
	).Scan(&ev.ID)
	if err != nil {
		return ev, fmt.Errorf("append event: %w", err)
	}
	return ev, nil
}

// ListByTerritorySince returns events for one territory with a sequence
// strictly greater than sinceSeq, oldest first, capped at limit.
func (r *EventRepo) ListByTerritorySince(ctx context.Context, territoryID int, sinceSeq int64, limit int) ([]model.TerritorialEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, territory_id, seq, faction_id, COALESCE(actor_id, ''), delta, value, cause, priority, created_at
		 FROM events
		 WHERE territory_id = $1 AND seq > $2
		 ORDER BY seq, id
		 LIMIT $3`,
		territoryID, sinceSeq, limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListAll returns the entire journal in replay order: ascending
// territory, then ascending sequence.
func (r *EventRepo) ListAll(ctx context.Context) ([]model.TerritorialEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, territory_id, seq, faction_id, COALESCE(actor_id, ''), delta, value, cause, priority, created_at
		 FROM events
		 ORDER BY territory_id, seq, id`)
	if err != nil {
		return nil, fmt.Errorf("list all events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// PruneBefore deletes events created before the cutoff and returns the
// number removed. The live store keeps the authoritative values, so
// pruned history only limits how far back a replay can reconstruct.
func (r *EventRepo) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune events rows: %w", err)
	}
	return n, nil
}

func scanEvents(rows *sql.Rows) ([]model.TerritorialEvent, error) {
	var events []model.TerritorialEvent
	for rows.Next() {
		var ev model.TerritorialEvent
		if err := rows.Scan(&ev.ID, &ev.TerritoryID, &ev.Seq, &ev.FactionID, &ev.ActorID,
			&ev.Delta, &ev.Value, &ev.Cause, &ev.Priority, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
