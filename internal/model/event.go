package model

import (
	"fmt"
	"time"
)

// EventKind is the closed set of facts the extractor produces. The
// reconciler switches exhaustively on this type; adding a kind requires
// touching that switch.
type EventKind string

const (
	EventOwnershipClaimed  EventKind = "ownership_claimed"
	EventDestroyed         EventKind = "destroyed"
	EventDisappeared       EventKind = "disappeared"
	EventInactivityExpired EventKind = "inactivity_expired"
)

// IsLoss reports whether the event removes a vehicle from its holder.
func (k EventKind) IsLoss() bool {
	switch k {
	case EventDestroyed, EventDisappeared, EventInactivityExpired:
		return true
	}
	return false
}

// Event is an immutable fact extracted from the game log. Timestamp is the
// source-reported time, not wall clock; line order in the file is the only
// ordering guarantee consumers get.
type Event struct {
	Kind         EventKind
	Timestamp    time.Time
	RawTimestamp string
	EntityID     int64
	ClaimantID   string
	ClaimantName string
}

// Fingerprint returns the dedup key for the event. Two events with the same
// source timestamp and entity id are the same fact regardless of which log
// snapshot they were read from.
func (e Event) Fingerprint() Fingerprint {
	return Fingerprint{Timestamp: e.RawTimestamp, EntityID: e.EntityID}
}

// Fingerprint identifies an event for at-most-once processing.
type Fingerprint struct {
	Timestamp string `json:"timestamp"`
	EntityID  int64  `json:"entity_id"`
}

// Key returns the stable string form used by the dedup ledger.
func (f Fingerprint) Key() string {
	return fmt.Sprintf("%s|%d", f.Timestamp, f.EntityID)
}
