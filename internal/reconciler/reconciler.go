// Package reconciler merges command-driven registrations, automatic
// ownership-claim detections, and loss events into the canonical per-owner
// vehicle registry.
package reconciler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"garagewatch/internal/cooldown"
	"garagewatch/internal/model"
	"garagewatch/internal/notify"
	"garagewatch/internal/registry"
	"garagewatch/internal/resolver"
	"garagewatch/internal/store"
)

// Reconciler is the central state machine. Per (owner, vehicle) pair the
// states are unregistered → active → destroyed, with destroyed → active
// permitted because the game reuses vehicle ids.
type Reconciler struct {
	registry     *registry.Registry
	pendingStore store.Store
	pending      map[string][]model.PendingRegistration
	guard        cooldown.Guard
	channel      notify.Channel
	pendingTTL   time.Duration
	dirty        bool
}

// Load restores parked pending registrations and returns a ready
// reconciler. channel may be nil, in which case pending prompts are only
// logged.
func Load(ctx context.Context, reg *registry.Registry, pendingStore store.Store,
	guard cooldown.Guard, channel notify.Channel, pendingTTL time.Duration) (*Reconciler, error) {

	records, err := pendingStore.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending registrations: %w", err)
	}

	pending := make(map[string][]model.PendingRegistration, len(records))
	for claimantID, raw := range records {
		var entries []model.PendingRegistration
		if err := json.Unmarshal(raw, &entries); err != nil {
			log.Printf("[Reconciler] Skipping corrupt pending entries for %s: %v", claimantID, err)
			continue
		}
		pending[claimantID] = entries
	}

	return &Reconciler{
		registry:     reg,
		pendingStore: pendingStore,
		pending:      pending,
		guard:        guard,
		channel:      channel,
		pendingTTL:   pendingTTL,
	}, nil
}

// HandleEvent applies one extracted event, already resolved to its
// trackable vehicle. A conflicting event yields a structured outcome, not
// an error: one bad event must not block the rest of the batch.
func (r *Reconciler) HandleEvent(ctx context.Context, ev model.Event, res resolver.Resolution) model.Outcome {
	switch ev.Kind {
	case model.EventOwnershipClaimed:
		return r.handleClaim(ctx, ev, res)
	case model.EventDestroyed, model.EventDisappeared, model.EventInactivityExpired:
		return r.handleLoss(ev, res)
	default:
		log.Printf("[Reconciler] Ignoring event with unknown kind %q", ev.Kind)
		return model.Outcome{Code: model.OutcomeIgnored, Detail: string(ev.Kind)}
	}
}

// handleClaim is the automatic unregistered → active transition. It only
// fires when the vehicle is not active for anyone, and at most once per
// claimant per cooldown window.
func (r *Reconciler) handleClaim(ctx context.Context, ev model.Event, res resolver.Resolution) model.Outcome {
	if holder, ok := r.registry.HolderOf(res.VehicleID); ok {
		if holder == ev.ClaimantID {
			return model.Outcome{
				Code: model.OutcomeIgnored, OwnerID: holder, VehicleID: res.VehicleID,
				Detail: "already active for claimant",
			}
		}
		log.Printf("[Reconciler] Vehicle %d claimed by %s but active for %s", res.VehicleID, ev.ClaimantID, holder)
		return model.Outcome{Code: model.OutcomeAlreadyRegistered, OwnerID: holder, VehicleID: res.VehicleID}
	}

	if !r.guard.Allow(ctx, ev.ClaimantID) {
		// dropped without acknowledgment, not queued
		return model.Outcome{Code: model.OutcomeCooldown, OwnerID: ev.ClaimantID, VehicleID: res.VehicleID}
	}

	r.registry.Ensure(ev.ClaimantID, ev.ClaimantName)
	r.registry.AddVehicle(ev.ClaimantID, model.Vehicle{
		ID:           res.VehicleID,
		Class:        res.Class,
		Source:       model.SourceClaim,
		RegisteredAt: ev.Timestamp,
	})
	log.Printf("[Reconciler] Registered vehicle %d (%s) to %s via claim", res.VehicleID, res.Class, ev.ClaimantID)
	return model.Outcome{Code: model.OutcomeRegistered, OwnerID: ev.ClaimantID, VehicleID: res.VehicleID, Class: res.Class}
}

// handleLoss is the active → destroyed transition. Loss events always win:
// whichever owner holds the vehicle releases it, regardless of which
// source registered it.
func (r *Reconciler) handleLoss(ev model.Event, res resolver.Resolution) model.Outcome {
	holder, removed := r.registry.RemoveVehicle(res.VehicleID)
	if !removed {
		return model.Outcome{Code: model.OutcomeNotFound, VehicleID: res.VehicleID, Detail: string(ev.Kind)}
	}
	log.Printf("[Reconciler] Vehicle %d removed from %s (%s)", res.VehicleID, holder, ev.Kind)
	return model.Outcome{Code: model.OutcomeRemoved, OwnerID: holder, VehicleID: res.VehicleID, Detail: string(ev.Kind)}
}

// HandleCommand applies one registration command from the chat channel.
func (r *Reconciler) HandleCommand(ctx context.Context, cmd model.Command) model.Outcome {
	switch cmd.Action {
	case model.ActionRegister:
		return r.handleRegister(ctx, cmd)
	case model.ActionDeregister:
		return r.handleDeregister(cmd)
	case model.ActionDenounce:
		return r.handleDenounce(cmd)
	default:
		return model.Outcome{Code: model.OutcomeIgnored, Detail: fmt.Sprintf("unknown action %q", cmd.Action)}
	}
}

func (r *Reconciler) handleRegister(ctx context.Context, cmd model.Command) model.Outcome {
	if holder, ok := r.registry.HolderOf(cmd.VehicleID); ok {
		// never overwrite an active registration
		return model.Outcome{Code: model.OutcomeAlreadyRegistered, OwnerID: holder, VehicleID: cmd.VehicleID}
	}

	class := resolver.NormalizeClass(cmd.VehicleType)
	if class == "" {
		class = "Vehicle"
	}

	owner := r.registry.Ensure(cmd.ClaimantID, cmd.ClaimantName)
	if !owner.IsLinked() {
		return r.parkPending(ctx, cmd, class)
	}

	r.registry.AddVehicle(cmd.ClaimantID, model.Vehicle{
		ID:           cmd.VehicleID,
		Class:        class,
		Source:       model.SourceCommand,
		RegisteredAt: time.Now().UTC(),
	})
	log.Printf("[Reconciler] Registered vehicle %d (%s) to %s via command", cmd.VehicleID, class, cmd.ClaimantID)
	return model.Outcome{Code: model.OutcomeRegistered, OwnerID: cmd.ClaimantID, VehicleID: cmd.VehicleID, Class: class}
}

// parkPending stores a registration attempt from an unlinked claimant and
// raises the link prompt.
func (r *Reconciler) parkPending(ctx context.Context, cmd model.Command, class string) model.Outcome {
	entry := model.PendingRegistration{
		ClaimantID:   cmd.ClaimantID,
		ClaimantName: cmd.ClaimantName,
		VehicleID:    cmd.VehicleID,
		VehicleClass: class,
		CreatedAt:    time.Now().UTC(),
	}

	if r.channel != nil {
		messageID, err := r.channel.Publish(ctx, notify.RenderPendingPrompt(entry))
		if err != nil {
			log.Printf("[Reconciler] Failed to publish link prompt for %s: %v", cmd.ClaimantID, err)
		} else {
			entry.PromptMessageID = messageID
		}
	}

	r.pending[cmd.ClaimantID] = append(r.pending[cmd.ClaimantID], entry)
	r.dirty = true
	log.Printf("[Reconciler] Parked registration of vehicle %d for unlinked claimant %s", cmd.VehicleID, cmd.ClaimantID)
	return model.Outcome{Code: model.OutcomePendingLink, OwnerID: cmd.ClaimantID, VehicleID: cmd.VehicleID, Class: class}
}

func (r *Reconciler) handleDeregister(cmd model.Command) model.Outcome {
	holder, ok := r.registry.HolderOf(cmd.VehicleID)
	if !ok || holder != cmd.ClaimantID {
		return model.Outcome{Code: model.OutcomeNotFound, OwnerID: cmd.ClaimantID, VehicleID: cmd.VehicleID}
	}
	r.registry.RemoveVehicle(cmd.VehicleID)
	log.Printf("[Reconciler] Deregistered vehicle %d from %s", cmd.VehicleID, cmd.ClaimantID)
	return model.Outcome{Code: model.OutcomeDeregistered, OwnerID: cmd.ClaimantID, VehicleID: cmd.VehicleID}
}

// handleDenounce removes a vehicle from whichever owner currently holds
// it. Treated as a loss-equivalent report; the outcome names the previous
// holder so the caller can notify.
func (r *Reconciler) handleDenounce(cmd model.Command) model.Outcome {
	holder, removed := r.registry.RemoveVehicle(cmd.VehicleID)
	if !removed {
		return model.Outcome{Code: model.OutcomeNotFound, VehicleID: cmd.VehicleID}
	}
	log.Printf("[Reconciler] Vehicle %d denounced by %s, removed from %s", cmd.VehicleID, cmd.ClaimantID, holder)
	return model.Outcome{Code: model.OutcomeDenounced, OwnerID: holder, VehicleID: cmd.VehicleID}
}

// OnLinked promotes all pending registrations for a newly linked platform
// id. Expired entries are discarded silently; prompts of promoted entries
// are edited to drop the call-to-action rather than deleted.
func (r *Reconciler) OnLinked(ctx context.Context, platformID, accountID string) []model.Outcome {
	r.registry.SetLinked(platformID, accountID)

	entries, ok := r.pending[platformID]
	if !ok {
		return nil
	}
	delete(r.pending, platformID)
	r.dirty = true

	now := time.Now().UTC()
	var outcomes []model.Outcome
	for _, entry := range entries {
		if entry.Expired(now, r.pendingTTL) {
			continue
		}

		var outcome model.Outcome
		if holder, held := r.registry.HolderOf(entry.VehicleID); held {
			outcome = model.Outcome{Code: model.OutcomeAlreadyRegistered, OwnerID: holder, VehicleID: entry.VehicleID}
		} else {
			r.registry.AddVehicle(platformID, model.Vehicle{
				ID:           entry.VehicleID,
				Class:        entry.VehicleClass,
				Source:       model.SourceCommand,
				RegisteredAt: now,
			})
			outcome = model.Outcome{Code: model.OutcomeRegistered, OwnerID: platformID, VehicleID: entry.VehicleID, Class: entry.VehicleClass}
			log.Printf("[Reconciler] Promoted pending vehicle %d for %s", entry.VehicleID, platformID)
		}
		outcomes = append(outcomes, outcome)

		if r.channel != nil && entry.PromptMessageID != "" {
			if err := r.channel.Edit(ctx, entry.PromptMessageID, notify.RenderPendingResolved(entry)); err != nil {
				log.Printf("[Reconciler] Failed to edit link prompt %s: %v", entry.PromptMessageID, err)
			}
		}
	}
	return outcomes
}

// SweepExpired drops expired pending entries. No event is emitted for
// them.
func (r *Reconciler) SweepExpired() {
	now := time.Now().UTC()
	for claimantID, entries := range r.pending {
		kept := entries[:0]
		for _, entry := range entries {
			if !entry.Expired(now, r.pendingTTL) {
				kept = append(kept, entry)
			}
		}
		switch {
		case len(kept) == 0:
			delete(r.pending, claimantID)
			r.dirty = true
		case len(kept) != len(entries):
			r.pending[claimantID] = kept
			r.dirty = true
		}
	}
}

// PendingFor returns the parked registrations for a claimant.
func (r *Reconciler) PendingFor(claimantID string) []model.PendingRegistration {
	return r.pending[claimantID]
}

// Flush writes pending registrations back to their durable store.
// Failures are logged and swallowed.
func (r *Reconciler) Flush(ctx context.Context) {
	if !r.dirty {
		return
	}

	records := make(map[string]json.RawMessage, len(r.pending))
	for claimantID, entries := range r.pending {
		b, err := json.Marshal(entries)
		if err != nil {
			log.Printf("[Reconciler] Failed to marshal pending entries for %s: %v", claimantID, err)
			continue
		}
		records[claimantID] = b
	}

	if err := r.pendingStore.Save(ctx, records); err != nil {
		log.Printf("[Reconciler] Pending flush failed, keeping in-memory view: %v", err)
		return
	}
	r.dirty = false
}
