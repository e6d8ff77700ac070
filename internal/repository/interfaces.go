package repository

import (
	"context"
	"time"

	"github.com/feralgames/frontline/internal/model"
	"github.com/feralgames/frontline/pkg/territory"
)

// WorldRepository persists the authored territory graph and faction
// roster. Replacement is administrative and happens out-of-band.
type WorldRepository interface {
	LoadWorld(ctx context.Context) ([]territory.Territory, []territory.Faction, error)
	ReplaceWorld(ctx context.Context, territories []territory.Territory, factions []territory.Faction) error
}

// InfluenceRepository persists the live influence state as periodic
// snapshots. One row per (territory, faction) pair.
type InfluenceRepository interface {
	UpsertBatch(ctx context.Context, rows []model.InfluenceRow) error
	LoadAll(ctx context.Context) ([]model.InfluenceRow, error)
}

// EventRepository is the append-only territorial event journal.
type EventRepository interface {
	Append(ctx context.Context, ev model.TerritorialEvent) (model.TerritorialEvent, error)
	ListByTerritorySince(ctx context.Context, territoryID int, sinceSeq int64, limit int) ([]model.TerritorialEvent, error)
	ListAll(ctx context.Context) ([]model.TerritorialEvent, error)
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// SessionRepository persists authenticated player sessions.
type SessionRepository interface {
	FindByID(ctx context.Context, id string) (*model.Session, error)
	Upsert(ctx context.Context, provider, providerID, displayName string) (*model.Session, error)
}

// LiveCache mirrors hot state in Redis: influence values fresher than
// the last Postgres snapshot, per-territory sequence floors, and the
// decay sweep timer key. All operations are best-effort from the
// simulation's point of view; failures degrade, never block.
type LiveCache interface {
	SetInfluence(ctx context.Context, row model.InfluenceRow) error
	AllInfluence(ctx context.Context) ([]model.InfluenceRow, error)
	SetSeq(ctx context.Context, territoryID int, seq int64) error
	AllSeqs(ctx context.Context) (map[int]int64, error)
	ArmDecayTimer(ctx context.Context, interval time.Duration) error
	Flush(ctx context.Context) error
}
