// Package registry maintains the canonical per-owner active-vehicle view.
// It is a materialized view over the event log: replaying events in
// timestamp order through the dedup ledger must always reproduce it.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	"garagewatch/internal/model"
	"garagewatch/internal/store"
)

// Registry holds every known owner and their active vehicle sets. It is
// owned by the single engine worker; no internal locking.
type Registry struct {
	store  store.Store
	owners map[string]*model.Owner
	dirty  bool
}

// Load reads the durable owner map and returns a ready registry.
func Load(ctx context.Context, st store.Store) (*Registry, error) {
	records, err := st.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}

	owners := make(map[string]*model.Owner, len(records))
	for key, raw := range records {
		var owner model.Owner
		if err := json.Unmarshal(raw, &owner); err != nil {
			log.Printf("[Registry] Skipping corrupt owner record %q: %v", key, err)
			continue
		}
		owners[key] = &owner
	}

	log.Printf("[Registry] Loaded %d owners", len(owners))
	return &Registry{store: st, owners: owners}, nil
}

// Get returns the owner for a platform id.
func (r *Registry) Get(platformID string) (*model.Owner, bool) {
	owner, ok := r.owners[platformID]
	return owner, ok
}

// Ensure returns the owner for a platform id, creating an empty one on
// first sight. An existing owner's display name is refreshed when the
// event carried one.
func (r *Registry) Ensure(platformID, displayName string) *model.Owner {
	owner, ok := r.owners[platformID]
	if !ok {
		owner = &model.Owner{
			PlatformID:  platformID,
			DisplayName: displayName,
			UpdatedAt:   time.Now().UTC(),
		}
		r.owners[platformID] = owner
		r.dirty = true
		return owner
	}
	if displayName != "" && owner.DisplayName != displayName {
		owner.DisplayName = displayName
		r.touch(owner)
	}
	return owner
}

// HolderOf returns the platform id of the owner whose active set contains
// vehicleID. Vehicle ids are unique among active vehicles, never across
// time.
func (r *Registry) HolderOf(vehicleID int64) (string, bool) {
	for platformID, owner := range r.owners {
		if owner.HasVehicle(vehicleID) {
			return platformID, true
		}
	}
	return "", false
}

// AddVehicle appends a vehicle to the owner's active set.
func (r *Registry) AddVehicle(platformID string, v model.Vehicle) {
	owner := r.Ensure(platformID, "")
	owner.Vehicles = append(owner.Vehicles, v)
	r.touch(owner)
}

// RemoveVehicle removes vehicleID from whichever owner holds it, returning
// that owner's platform id. The owner record itself is never deleted.
func (r *Registry) RemoveVehicle(vehicleID int64) (string, bool) {
	for platformID, owner := range r.owners {
		for i, v := range owner.Vehicles {
			if v.ID == vehicleID {
				owner.Vehicles = append(owner.Vehicles[:i], owner.Vehicles[i+1:]...)
				r.touch(owner)
				return platformID, true
			}
		}
	}
	return "", false
}

// SetLinked records the owner's linked external account id.
func (r *Registry) SetLinked(platformID, accountID string) {
	owner := r.Ensure(platformID, "")
	if owner.LinkedAccountID != accountID {
		owner.LinkedAccountID = accountID
		r.touch(owner)
	}
}

// SetSquad records the owner's squad affiliation.
func (r *Registry) SetSquad(platformID, squadName string) {
	owner, ok := r.owners[platformID]
	if !ok || owner.SquadName == squadName {
		return
	}
	owner.SquadName = squadName
	r.touch(owner)
}

// Owners returns all owners ordered by platform id.
func (r *Registry) Owners() []*model.Owner {
	out := make([]*model.Owner, 0, len(r.owners))
	for _, owner := range r.owners {
		out = append(out, owner)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlatformID < out[j].PlatformID })
	return out
}

func (r *Registry) touch(owner *model.Owner) {
	owner.UpdatedAt = time.Now().UTC()
	r.dirty = true
}

// Flush writes the owner map back to the durable store. Failures are
// logged and swallowed; the in-memory view stays authoritative and the
// next successful flush is latest-wins.
func (r *Registry) Flush(ctx context.Context) {
	if !r.dirty {
		return
	}

	records := make(map[string]json.RawMessage, len(r.owners))
	for platformID, owner := range r.owners {
		b, err := json.Marshal(owner)
		if err != nil {
			log.Printf("[Registry] Failed to marshal owner %s: %v", platformID, err)
			continue
		}
		records[platformID] = b
	}

	if err := r.store.Save(ctx, records); err != nil {
		log.Printf("[Registry] Flush failed, keeping in-memory view: %v", err)
		return
	}
	r.dirty = false
}
