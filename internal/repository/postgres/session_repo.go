package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/feralgames/frontline/internal/model"
)

// SessionRepo handles player session database operations.
type SessionRepo struct {
	db *sql.DB
}

// NewSessionRepo creates a SessionRepo.
func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// FindByID looks up a session by its UUID. Returns nil when no session
// exists.
func (r *SessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	var s model.Session
	err := r.db.QueryRowContext(ctx,
		`SELECT id, provider, provider_id, display_name, created_at, updated_at
		 FROM sessions WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.Provider, &s.ProviderID, &s.DisplayName, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find session by id: %w", err)
	}
	return &s, nil
}

// Upsert creates a session for a provider identity or refreshes the
// display name if one already exists. Returns the session with ID populated.
func (r *SessionRepo) Upsert(ctx context.Context, provider, providerID, displayName string) (*model.Session, error) {
	var s model.Session
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO sessions (provider, provider_id, display_name)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (provider, provider_id)
		 DO UPDATE SET display_name = EXCLUDED.display_name, updated_at = now()
		 RETURNING id, provider, provider_id, display_name, created_at, updated_at`,
		provider, providerID, displayName,
	).Scan(&s.ID, &s.Provider, &s.ProviderID, &s.DisplayName, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert session: %w", err)
	}
	return &s, nil
}
