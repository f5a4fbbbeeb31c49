package repository

import (
	"context"

	"garagewatch/internal/model"
)

// GameEntityRepository defines read-only access to the authoritative
// game-state store. The engine never writes through it.
type GameEntityRepository interface {
	// LookupEntity fetches an entity joined with its parent and spawner
	// asset. Returns nil with no error when the row does not exist.
	LookupEntity(ctx context.Context, entityID int64) (*model.EntityRecord, error)

	// SquadNameForOwner returns the squad a platform id belongs to, or ""
	// when the player is unaffiliated.
	SquadNameForOwner(ctx context.Context, platformID string) (string, error)
}
