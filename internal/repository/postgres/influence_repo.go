package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/feralgames/frontline/internal/model"
)

// InfluenceRepo handles influence snapshot database operations.
type InfluenceRepo struct {
	db *sql.DB
}

// NewInfluenceRepo creates an InfluenceRepo.
func NewInfluenceRepo(db *sql.DB) *InfluenceRepo {
	return &InfluenceRepo{db: db}
}

// UpsertBatch writes one snapshot of influence rows in a single
// transaction. Rows missing from the batch are left untouched.
func (r *InfluenceRepo) UpsertBatch(ctx context.Context, rows []model.InfluenceRow) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("influence batch begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO influence (territory_id, faction_id, value, last_updated)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (territory_id, faction_id)
		 DO UPDATE SET value = EXCLUDED.value, last_updated = EXCLUDED.last_updated`)
	if err != nil {
		return fmt.Errorf("influence batch prepare: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row.TerritoryID, row.FactionID, row.Value, row.LastUpdated); err != nil {
			return fmt.Errorf("upsert influence %d/%s: %w", row.TerritoryID, row.FactionID, err)
		}
	}
	return tx.Commit()
}

// LoadAll returns every persisted influence row.
func (r *InfluenceRepo) LoadAll(ctx context.Context) ([]model.InfluenceRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT territory_id, faction_id, value, last_updated
		 FROM influence ORDER BY territory_id, faction_id`)
	if err != nil {
		return nil, fmt.Errorf("load influence: %w", err)
	}
	defer rows.Close()

	var out []model.InfluenceRow
	for rows.Next() {
		var row model.InfluenceRow
		if err := rows.Scan(&row.TerritoryID, &row.FactionID, &row.Value, &row.LastUpdated); err != nil {
			return nil, fmt.Errorf("scan influence: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
