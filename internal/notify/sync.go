package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"garagewatch/internal/model"
	"garagewatch/internal/store"
)

// Synchronizer keeps one published summary message per owner, editing in
// place and replacing stale bindings. It is the only component that talks
// to the notification channel for owner summaries.
type Synchronizer struct {
	channel  Channel
	store    store.Store
	bindings map[string]model.Binding
	dirty    bool
}

// LoadSynchronizer reads the durable binding table and returns a ready
// synchronizer.
func LoadSynchronizer(ctx context.Context, channel Channel, st store.Store) (*Synchronizer, error) {
	records, err := st.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load notification bindings: %w", err)
	}

	bindings := make(map[string]model.Binding, len(records))
	for key, raw := range records {
		var binding model.Binding
		if err := json.Unmarshal(raw, &binding); err != nil {
			log.Printf("[Synchronizer] Skipping corrupt binding %q: %v", key, err)
			continue
		}
		bindings[key] = binding
	}

	log.Printf("[Synchronizer] Loaded %d bindings", len(bindings))
	return &Synchronizer{channel: channel, store: st, bindings: bindings}, nil
}

// Sync renders the owner's summary and publishes or edits their message.
// A bound message that cannot be edited is replaced and the binding
// updated, which makes Sync idempotent: running it twice on identical
// state produces at most one externally visible change.
func (s *Synchronizer) Sync(ctx context.Context, owner *model.Owner) error {
	text := Render(owner)

	if binding, ok := s.bindings[owner.PlatformID]; ok {
		err := s.channel.Edit(ctx, binding.MessageID, text)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("failed to edit summary for %s: %w", owner.PlatformID, err)
		}
		log.Printf("[Synchronizer] Binding for %s is stale, republishing", owner.PlatformID)
		delete(s.bindings, owner.PlatformID)
		s.dirty = true
	}

	messageID, err := s.channel.Publish(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to publish summary for %s: %w", owner.PlatformID, err)
	}

	s.bindings[owner.PlatformID] = model.Binding{
		OwnerID:   owner.PlatformID,
		MessageID: messageID,
		UpdatedAt: time.Now().UTC(),
	}
	s.dirty = true
	return nil
}

// Flush writes the binding table back to its durable store. Failures are
// logged and swallowed.
func (s *Synchronizer) Flush(ctx context.Context) {
	if !s.dirty {
		return
	}

	records := make(map[string]json.RawMessage, len(s.bindings))
	for platformID, binding := range s.bindings {
		b, err := json.Marshal(binding)
		if err != nil {
			log.Printf("[Synchronizer] Failed to marshal binding %s: %v", platformID, err)
			continue
		}
		records[platformID] = b
	}

	if err := s.store.Save(ctx, records); err != nil {
		log.Printf("[Synchronizer] Flush failed, keeping in-memory bindings: %v", err)
		return
	}
	s.dirty = false
}
