package store

import (
	"context"
	"encoding/json"
)

// Store is a durable key→record mapping with whole-map semantics: the
// engine loads once at startup and writes the full map back after each
// tick's changes (write-behind, latest-wins). A store instance has exactly
// one writer, the engine worker; no external writer is assumed.
type Store interface {
	// Load reads the full map. A missing or corrupt backing record yields
	// an empty map, not an error: data loss is preferred over crash-looping.
	Load(ctx context.Context) (map[string]json.RawMessage, error)

	// Save replaces the full map.
	Save(ctx context.Context, records map[string]json.RawMessage) error

	// Close releases backing resources.
	Close() error
}

// Factory creates named stores sharing one backend. Each logical store
// (dedup ledger, registry, pending, bindings) gets its own name.
type Factory interface {
	Open(name string) (Store, error)
	Close() error
}
