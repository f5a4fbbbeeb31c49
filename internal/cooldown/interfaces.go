package cooldown

import "context"

// Guard rate-limits automatic registration attempts per platform id. This
// abstraction allows swapping between the in-memory guard (development, or
// when Redis is down) and the Redis guard (production) without changing
// the reconciler.
type Guard interface {
	// Allow reports whether the platform id may trigger an automatic
	// registration now, and if so starts its cooldown window. Attempts
	// inside the window are dropped, not queued.
	Allow(ctx context.Context, platformID string) bool
}
