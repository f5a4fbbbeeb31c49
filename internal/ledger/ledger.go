// Package ledger provides a durable set of processed event fingerprints,
// ensuring each extracted log event is handled at most once across polling
// ticks and process restarts.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"garagewatch/internal/model"
	"garagewatch/internal/store"
)

// Record is the processing outcome stored per fingerprint. Resolved vehicle
// id is kept so old events can be audited after the registry moved on.
type Record struct {
	Outcome     model.OutcomeCode `json:"outcome"`
	VehicleID   int64             `json:"vehicle_id,omitempty"`
	ProcessedAt time.Time         `json:"processed_at"`
}

// Ledger is the dedup ledger. The in-memory map is authoritative for the
// process lifetime; flush failures are logged and swallowed, accepting a
// bounded risk of reprocessing after a crash. Downstream effects are
// idempotent, so a replayed fingerprint is safe.
type Ledger struct {
	store store.Store
	seen  map[string]Record
	dirty bool
}

// Load reads the durable fingerprint set and returns a ready ledger.
func Load(ctx context.Context, st store.Store) (*Ledger, error) {
	records, err := st.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load dedup ledger: %w", err)
	}

	seen := make(map[string]Record, len(records))
	for key, raw := range records {
		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			log.Printf("[Ledger] Skipping corrupt record %q: %v", key, err)
			continue
		}
		seen[key] = rec
	}

	log.Printf("[Ledger] Loaded %d processed fingerprints", len(seen))
	return &Ledger{store: st, seen: seen}, nil
}

// Seen reports whether the fingerprint was already processed.
func (l *Ledger) Seen(fp model.Fingerprint) bool {
	_, ok := l.seen[fp.Key()]
	return ok
}

// Mark records a fingerprint as processed with its outcome. "Resolved to no
// vehicle" is marked too; re-encountering the line on a later poll must be
// a no-op either way.
func (l *Ledger) Mark(fp model.Fingerprint, outcome model.OutcomeCode, vehicleID int64) {
	l.seen[fp.Key()] = Record{
		Outcome:     outcome,
		VehicleID:   vehicleID,
		ProcessedAt: time.Now().UTC(),
	}
	l.dirty = true
}

// Len returns the number of recorded fingerprints.
func (l *Ledger) Len() int {
	return len(l.seen)
}

// Flush writes the ledger back to its durable store. A write failure is
// logged and swallowed; the in-memory view stays authoritative.
func (l *Ledger) Flush(ctx context.Context) {
	if !l.dirty {
		return
	}

	records := make(map[string]json.RawMessage, len(l.seen))
	for key, rec := range l.seen {
		b, err := json.Marshal(rec)
		if err != nil {
			log.Printf("[Ledger] Failed to marshal record %q: %v", key, err)
			continue
		}
		records[key] = b
	}

	if err := l.store.Save(ctx, records); err != nil {
		log.Printf("[Ledger] Flush failed, keeping in-memory view: %v", err)
		return
	}
	l.dirty = false
}
