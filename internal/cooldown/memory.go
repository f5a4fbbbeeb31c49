package cooldown

import (
	"context"
	"sync"
	"time"
)

// MemoryGuard is an in-memory implementation of Guard. Use this for
// development/testing or single-instance deployments.
type MemoryGuard struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[string]time.Time

	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
}

// NewMemoryGuard creates a new in-memory guard with automatic cleanup of
// expired windows.
func NewMemoryGuard(window time.Duration) *MemoryGuard {
	g := &MemoryGuard{
		window:          window,
		entries:         make(map[string]time.Time),
		cleanupInterval: time.Minute,
		stopCleanup:     make(chan struct{}),
	}

	go g.cleanup()

	return g
}

// Allow checks and starts the cooldown window for a platform id.
func (g *MemoryGuard) Allow(ctx context.Context, platformID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	if until, ok := g.entries[platformID]; ok && now.Before(until) {
		return false
	}
	g.entries[platformID] = now.Add(g.window)
	return true
}

// Close stops the background cleanup goroutine.
func (g *MemoryGuard) Close() error {
	g.stopOnce.Do(func() { close(g.stopCleanup) })
	return nil
}

// cleanup periodically removes expired windows.
func (g *MemoryGuard) cleanup() {
	ticker := time.NewTicker(g.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.removeExpired()
		case <-g.stopCleanup:
			return
		}
	}
}

// removeExpired removes all expired windows.
func (g *MemoryGuard) removeExpired() {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	for platformID, until := range g.entries {
		if now.After(until) {
			delete(g.entries, platformID)
		}
	}
}

// Ensure MemoryGuard implements Guard
var _ Guard = (*MemoryGuard)(nil)
