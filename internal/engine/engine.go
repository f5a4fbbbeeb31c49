// Package engine drives one reconciliation tick: read the newest log
// snapshot, extract events, filter through the dedup ledger, resolve
// entities, reconcile the registry, and synchronize touched owners.
package engine

import (
	"context"
	"errors"
	"log"
	"sync"

	"garagewatch/internal/gamelog"
	"garagewatch/internal/ledger"
	"garagewatch/internal/model"
	"garagewatch/internal/notify"
	"garagewatch/internal/reconciler"
	"garagewatch/internal/registry"
	"garagewatch/internal/repository"
	"garagewatch/internal/resolver"
)

// ErrBusy is returned when a tick would overlap a batch still in flight.
// The overlapping tick is skipped, not queued.
var ErrBusy = errors.New("tick already in flight")

// TickResult summarizes one completed tick.
type TickResult struct {
	LogFile         string `json:"log_file,omitempty"`
	EventsExtracted int    `json:"events_extracted"`
	EventsProcessed int    `json:"events_processed"`
	OwnersSynced    int    `json:"owners_synced"`
}

// Engine owns the full reconciliation pipeline. All state mutation runs
// under one mutex: ticks skip when the lock is held, command and link
// calls wait their turn.
type Engine struct {
	mu sync.Mutex

	reader       *gamelog.Reader
	resolver     *resolver.Resolver
	ledger       *ledger.Ledger
	reconciler   *reconciler.Reconciler
	registry     *registry.Registry
	synchronizer *notify.Synchronizer
	repo         repository.GameEntityRepository
}

// Config bundles the engine's collaborators.
type Config struct {
	Reader       *gamelog.Reader
	Resolver     *resolver.Resolver
	Ledger       *ledger.Ledger
	Reconciler   *reconciler.Reconciler
	Registry     *registry.Registry
	Synchronizer *notify.Synchronizer
	Repo         repository.GameEntityRepository
}

// New creates an engine from its collaborators.
func New(cfg Config) *Engine {
	return &Engine{
		reader:       cfg.Reader,
		resolver:     cfg.Resolver,
		ledger:       cfg.Ledger,
		reconciler:   cfg.Reconciler,
		registry:     cfg.Registry,
		synchronizer: cfg.Synchronizer,
		repo:         cfg.Repo,
	}
}

// RunTick executes one full batch. Returns ErrBusy without doing anything
// when a previous batch has not finished. All other failures degrade to a
// partial tick; nothing here may take the process down.
func (e *Engine) RunTick(ctx context.Context) (TickResult, error) {
	if !e.mu.TryLock() {
		return TickResult{}, ErrBusy
	}
	defer e.mu.Unlock()

	var result TickResult

	e.reconciler.SweepExpired()

	events, logFile := e.readEvents()
	result.LogFile = logFile
	result.EventsExtracted = len(events)

	touched := make(map[string]struct{})
	for _, ev := range events {
		fp := ev.Fingerprint()
		if e.ledger.Seen(fp) {
			continue
		}

		res := e.resolver.Resolve(ctx, ev.EntityID)
		outcome := e.reconciler.HandleEvent(ctx, ev, res)

		e.ledger.Mark(fp, outcome.Code, res.VehicleID)
		result.EventsProcessed++
		if outcome.OwnerID != "" {
			touched[outcome.OwnerID] = struct{}{}
		}
	}

	e.flush(ctx)
	result.OwnersSynced = e.syncOwners(ctx, touched)
	return result, nil
}

// readEvents snapshots the newest log file and extracts events. Transient
// log source failures degrade to an empty event set.
func (e *Engine) readEvents() ([]model.Event, string) {
	path, ok, err := e.reader.Latest()
	if err != nil {
		log.Printf("[Engine] Log source unavailable, skipping extraction: %v", err)
		return nil, ""
	}
	if !ok {
		return nil, ""
	}

	text, err := e.reader.Snapshot(path)
	if err != nil {
		log.Printf("[Engine] Snapshot failed for %s, skipping extraction: %v", path, err)
		return nil, path
	}
	return gamelog.Extract(text), path
}

// syncOwners refreshes squad affiliation and pushes the summary for every
// touched owner. A failed sync skips that owner only.
func (e *Engine) syncOwners(ctx context.Context, touched map[string]struct{}) int {
	synced := 0
	for platformID := range touched {
		owner, ok := e.registry.Get(platformID)
		if !ok {
			continue
		}

		if e.repo != nil {
			squad, err := e.repo.SquadNameForOwner(ctx, platformID)
			if err != nil {
				log.Printf("[Engine] Squad lookup failed for %s: %v", platformID, err)
			} else {
				e.registry.SetSquad(platformID, squad)
			}
		}

		if err := e.synchronizer.Sync(ctx, owner); err != nil {
			log.Printf("[Engine] Sync failed for %s: %v", platformID, err)
			continue
		}
		synced++
	}
	if synced > 0 {
		e.synchronizer.Flush(ctx)
		e.registry.Flush(ctx)
	}
	return synced
}

// HandleCommand applies one chat command and synchronizes the affected
// owner. Blocks until any in-flight tick completes.
func (e *Engine) HandleCommand(ctx context.Context, cmd model.Command) model.Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	outcome := e.reconciler.HandleCommand(ctx, cmd)
	e.flush(ctx)
	if outcome.OwnerID != "" {
		e.syncOwners(ctx, map[string]struct{}{outcome.OwnerID: {}})
	}
	return outcome
}

// OnLinked promotes pending registrations for a newly linked platform id
// and synchronizes the owner.
func (e *Engine) OnLinked(ctx context.Context, platformID, accountID string) []model.Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	outcomes := e.reconciler.OnLinked(ctx, platformID, accountID)
	e.flush(ctx)
	e.syncOwners(ctx, map[string]struct{}{platformID: {}})
	return outcomes
}

// Owner returns a point-in-time copy of an owner record.
func (e *Engine) Owner(platformID string) (model.Owner, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	owner, ok := e.registry.Get(platformID)
	if !ok {
		return model.Owner{}, false
	}
	copied := *owner
	copied.Vehicles = append([]model.Vehicle(nil), owner.Vehicles...)
	return copied, true
}

// SyncOwner forces a notification sync for one owner.
func (e *Engine) SyncOwner(ctx context.Context, platformID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	owner, ok := e.registry.Get(platformID)
	if !ok {
		return errors.New("unknown owner")
	}
	if err := e.synchronizer.Sync(ctx, owner); err != nil {
		return err
	}
	e.synchronizer.Flush(ctx)
	return nil
}

// flush persists all dirty state. Each store logs and swallows its own
// failures; partial progress is safe because writes are idempotent on
// retry.
func (e *Engine) flush(ctx context.Context) {
	e.ledger.Flush(ctx)
	e.registry.Flush(ctx)
	e.reconciler.Flush(ctx)
	e.synchronizer.Flush(ctx)
}
