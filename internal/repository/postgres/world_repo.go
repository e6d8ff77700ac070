package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/feralgames/frontline/pkg/territory"
)

// WorldRepo persists the authored territory graph and faction roster.
type WorldRepo struct {
	db *sql.DB
}

// NewWorldRepo creates a WorldRepo.
func NewWorldRepo(db *sql.DB) *WorldRepo {
	return &WorldRepo{db: db}
}

// LoadWorld reads the full territory graph and faction roster.
func (r *WorldRepo) LoadWorld(ctx context.Context) ([]territory.Territory, []territory.Faction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, level, COALESCE(parent_id, 0), links, strategic_value, resource_multiplier, decay_rate
		 FROM territories ORDER BY id`)
	if err != nil {
		return nil, nil, fmt.Errorf("load territories: %w", err)
	}
	defer rows.Close()

	var territories []territory.Territory
	for rows.Next() {
		var t territory.Territory
		var level string
		var links pq.Int64Array
		if err := rows.Scan(&t.ID, &t.Name, &level, &t.ParentID, &links, &t.StrategicValue, &t.ResourceMultiplier, &t.DecayRate); err != nil {
			return nil, nil, fmt.Errorf("scan territory: %w", err)
		}
		t.Level = territory.ParseLevel(level)
		for _, l := range links {
			t.Links = append(t.Links, int(l))
		}
		territories = append(territories, t)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	frows, err := r.db.QueryContext(ctx,
		`SELECT id, name, aggression, risk_tolerance, expansion_priority, resource_focus, diplomatic_tendency
		 FROM factions ORDER BY id`)
	if err != nil {
		return nil, nil, fmt.Errorf("load factions: %w", err)
	}
	defer frows.Close()

	var factions []territory.Faction
	for frows.Next() {
		var f territory.Faction
		if err := frows.Scan(&f.ID, &f.Name, &f.Profile.Aggression, &f.Profile.RiskTolerance,
			&f.Profile.ExpansionPriority, &f.Profile.ResourceFocus, &f.Profile.DiplomaticTendency); err != nil {
			return nil, nil, fmt.Errorf("scan faction: %w", err)
		}
		factions = append(factions, f)
	}
	return territories, factions, frows.Err()
}

// ReplaceWorld swaps the persisted graph and roster inside one
// transaction. Existing influence and events are cleared with it;
// a world replacement is a fresh campaign.
func (r *WorldRepo) ReplaceWorld(ctx context.Context, territories []territory.Territory, factions []territory.Faction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace world begin: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"events", "influence", "territories", "factions"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, f := range factions {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO factions (id, name, aggression, risk_tolerance, expansion_priority, resource_focus, diplomatic_tendency)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			f.ID, f.Name, f.Profile.Aggression, f.Profile.RiskTolerance,
			f.Profile.ExpansionPriority, f.Profile.ResourceFocus, f.Profile.DiplomaticTendency); err != nil {
			return fmt.Errorf("insert faction %s: %w", f.ID, err)
		}
	}

	for _, t := range territories {
		var parent sql.NullInt64
		if t.ParentID != 0 {
			parent = sql.NullInt64{Int64: int64(t.ParentID), Valid: true}
		}
		links := make(pq.Int64Array, 0, len(t.Links))
		for _, l := range t.Links {
			links = append(links, int64(l))
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO territories (id, name, level, parent_id, links, strategic_value, resource_multiplier, decay_rate)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			t.ID, t.Name, t.Level.String(), parent, links, t.StrategicValue, t.ResourceMultiplier, t.DecayRate); err != nil {
			return fmt.Errorf("insert territory %d: %w", t.ID, err)
		}
	}

	return tx.Commit()
}
