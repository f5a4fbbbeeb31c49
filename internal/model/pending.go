package model

import "time"

// PendingRegistration parks a command-based registration whose claimant has
// no linked account yet. Entries are promoted when the claimant links and
// silently discarded once expired.
type PendingRegistration struct {
	ClaimantID      string    `json:"claimant_id"`
	ClaimantName    string    `json:"claimant_name"`
	VehicleID       int64     `json:"vehicle_id"`
	VehicleClass    string    `json:"vehicle_class"`
	CreatedAt       time.Time `json:"created_at"`
	PromptMessageID string    `json:"prompt_message_id,omitempty"`
}

// Expired reports whether the entry is older than ttl at time now.
func (p PendingRegistration) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(p.CreatedAt) > ttl
}

// Binding maps an owner to their published summary message. At most one
// binding exists per owner; a stale binding is replaced on the next sync.
type Binding struct {
	OwnerID   string    `json:"owner_id"`
	MessageID string    `json:"message_id"`
	UpdatedAt time.Time `json:"updated_at"`
}
