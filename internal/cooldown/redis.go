package cooldown

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// redisKeyPrefix namespaces cooldown keys in a shared Redis instance.
	redisKeyPrefix = "garagewatch:cooldown:"
)

// RedisGuard implements Guard on Redis via SET NX with TTL, so the window
// survives process restarts and is shared if the worker is ever moved.
type RedisGuard struct {
	redis  *redis.Client
	window time.Duration
}

// NewRedisGuard creates a new Redis-backed guard.
func NewRedisGuard(redisClient *redis.Client, window time.Duration) *RedisGuard {
	return &RedisGuard{redis: redisClient, window: window}
}

// Allow checks and starts the cooldown window for a platform id. A Redis
// failure fails open with a log entry: dropping a legitimate registration
// is worse than letting one duplicate attempt through.
func (g *RedisGuard) Allow(ctx context.Context, platformID string) bool {
	key := redisKeyPrefix + platformID

	ok, err := g.redis.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), g.window).Result()
	if err != nil {
		log.Printf("[CooldownGuard] Redis SetNX failed for %s, allowing: %v", platformID, err)
		return true
	}
	return ok
}

// Ensure RedisGuard implements Guard
var _ Guard = (*RedisGuard)(nil)
