// Package scheduler drives the engine on a recurring timer. It is a thin
// dispatcher: the skip-if-busy policy lives in the engine itself.
package scheduler

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"garagewatch/internal/engine"
)

// Scheduler runs periodic reconciliation ticks.
type Scheduler struct {
	engine    *engine.Engine
	interval  time.Duration
	ticker    *time.Ticker
	stopCh    chan struct{}
	stopOnce  sync.Once
	isRunning bool
	mu        sync.Mutex
}

// New creates a scheduler ticking at the given interval.
func New(eng *engine.Engine, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Scheduler{
		engine:   eng,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the tick loop. The first tick runs shortly after startup
// rather than waiting a full interval.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.ticker = time.NewTicker(s.interval)
	s.mu.Unlock()

	log.Printf("[Scheduler] Started - Interval: %v", s.interval)

	go func() {
		time.Sleep(2 * time.Second)
		s.runTick()
	}()

	go s.run()
}

// run is the main tick loop.
func (s *Scheduler) run() {
	for {
		select {
		case <-s.ticker.C:
			s.runTick()
		case <-s.stopCh:
			log.Printf("[Scheduler] Stopped")
			return
		}
	}
}

// runTick performs one tick. An overlapping tick is skipped, never queued,
// so a slow downstream call cannot grow a backlog.
func (s *Scheduler) runTick() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := s.engine.RunTick(ctx)
	if err != nil {
		if errors.Is(err, engine.ErrBusy) {
			log.Printf("[Scheduler] Previous tick still in flight, skipping")
			return
		}
		log.Printf("[Scheduler] Tick failed: %v", err)
		return
	}

	if result.EventsProcessed > 0 || result.OwnersSynced > 0 {
		log.Printf("[Scheduler] Tick done - extracted=%d processed=%d synced=%d",
			result.EventsExtracted, result.EventsProcessed, result.OwnersSynced)
	}
}

// Stop stops the tick loop. An in-flight tick finishes on its own.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.stopCh)
		s.isRunning = false
	})
}

// RunNow triggers an immediate tick outside the timer.
func (s *Scheduler) RunNow(ctx context.Context) (engine.TickResult, error) {
	return s.engine.RunTick(ctx)
}
