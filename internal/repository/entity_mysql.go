package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"garagewatch/internal/model"
)

// MySQLGameEntityRepository implements GameEntityRepository against the
// game server's MySQL database. Every query is a bounded point lookup; the
// authoritative store may be slow or unreachable and must never stall a
// reconciliation tick.
type MySQLGameEntityRepository struct {
	db           *sql.DB
	queryTimeout time.Duration
}

// NewMySQLGameEntityRepository creates a new game entity repository.
func NewMySQLGameEntityRepository(db *sql.DB, queryTimeout time.Duration) *MySQLGameEntityRepository {
	if queryTimeout <= 0 {
		queryTimeout = 5 * time.Second
	}
	return &MySQLGameEntityRepository{db: db, queryTimeout: queryTimeout}
}

// LookupEntity fetches the entity row joined with its parent entity (one
// hop) and the spawner asset covering whichever of the two is the
// trackable unit.
func (r *MySQLGameEntityRepository) LookupEntity(ctx context.Context, entityID int64) (*model.EntityRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	query := `
		SELECT
			e.id,
			e.class,
			COALESCE(p.id, 0) AS parent_id,
			COALESCE(p.class, '') AS parent_class,
			COALESCE(s.asset, '') AS asset
		FROM entity e
		LEFT JOIN entity p ON e.parent_entity_id = p.id
		LEFT JOIN entity_spawner s ON s.entity_id = COALESCE(p.id, e.id)
		WHERE e.id = ?
		LIMIT 1`

	var rec model.EntityRecord
	err := r.db.QueryRowContext(ctx, query, entityID).Scan(
		&rec.ID,
		&rec.Class,
		&rec.ParentID,
		&rec.ParentClass,
		&rec.Asset,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up entity %d: %w", entityID, err)
	}

	return &rec, nil
}

// SquadNameForOwner returns the name of the squad the platform id belongs
// to, or "" when none.
func (r *MySQLGameEntityRepository) SquadNameForOwner(ctx context.Context, platformID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	query := `
		SELECT s.name
		FROM squad s
		JOIN squad_member m ON m.squad_id = s.id
		JOIN user_profile u ON u.id = m.user_profile_id
		WHERE u.user_id = ?
		LIMIT 1`

	var name string
	err := r.db.QueryRowContext(ctx, query, platformID).Scan(&name)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("failed to look up squad for %s: %w", platformID, err)
	}

	return name, nil
}

// Ensure MySQLGameEntityRepository implements GameEntityRepository
var _ GameEntityRepository = (*MySQLGameEntityRepository)(nil)
