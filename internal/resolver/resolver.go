// Package resolver maps raw container entity ids from the game log to the
// vehicle a player actually controls.
package resolver

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode"

	"garagewatch/internal/repository"
)

// Resolution is the outcome of resolving a raw entity id. Linked means the
// container is embedded in a vehicle and VehicleID names that vehicle;
// otherwise the container itself is the trackable unit.
type Resolution struct {
	Linked    bool
	VehicleID int64
	Class     string
}

// Resolver resolves container entity ids against the game-state store.
// Results are not cached across ticks: ownership chains in the live game
// data can change at any time.
type Resolver struct {
	repo repository.GameEntityRepository
}

// New creates a resolver over the given repository.
func New(repo repository.GameEntityRepository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve determines the trackable unit behind containerID. Only one hop
// is traversed: a container whose parent is itself embedded deeper is
// attributed to the first parent (known limitation). Errors and missing
// rows degrade to a Standalone result on the raw id; resolution never
// blocks reconciliation.
func (r *Resolver) Resolve(ctx context.Context, containerID int64) Resolution {
	if r.repo == nil {
		return Resolution{VehicleID: containerID, Class: fallbackClass(containerID)}
	}

	rec, err := r.repo.LookupEntity(ctx, containerID)
	if err != nil {
		log.Printf("[Resolver] Lookup failed for entity %d, treating as standalone: %v", containerID, err)
		return Resolution{VehicleID: containerID, Class: fallbackClass(containerID)}
	}
	if rec == nil {
		log.Printf("[Resolver] Entity %d not found in game-state store, treating as standalone", containerID)
		return Resolution{VehicleID: containerID, Class: fallbackClass(containerID)}
	}

	if rec.ParentID != 0 {
		return Resolution{
			Linked:    true,
			VehicleID: rec.ParentID,
			Class:     NormalizeClass(pickClass(rec.ParentClass, rec.Asset)),
		}
	}

	return Resolution{
		VehicleID: rec.ID,
		Class:     NormalizeClass(pickClass(rec.Class, rec.Asset)),
	}
}

// pickClass prefers the live class field, falling back to the spawner
// asset name when the class is too generic to show a player.
func pickClass(class, asset string) string {
	if isGenericClass(class) && asset != "" {
		return asset
	}
	if class == "" {
		return asset
	}
	return class
}

// isGenericClass reports whether the live class field carries no usable
// type information.
func isGenericClass(class string) bool {
	switch class {
	case "", "Vehicle", "Container", "Chest", "Item":
		return true
	}
	return false
}

// fallbackClass is the display class used when the store could not be
// consulted at all.
func fallbackClass(containerID int64) string {
	return fmt.Sprintf("Entity %d", containerID)
}

// NormalizeClass turns a blueprint class name into the short form players
// recognize: BPC_Rager_ES becomes Rager. Blueprint prefixes and short
// all-caps variant suffixes are stripped.
func NormalizeClass(class string) string {
	if class == "" {
		return class
	}

	parts := strings.Split(class, "_")

	// leading blueprint prefixes
	for len(parts) > 1 {
		switch parts[0] {
		case "BPC", "BP", "SM":
			parts = parts[1:]
			continue
		}
		break
	}

	// trailing variant suffixes: short tokens with no lowercase letters
	for len(parts) > 1 {
		last := parts[len(parts)-1]
		if len(last) <= 3 && !containsLower(last) {
			parts = parts[:len(parts)-1]
			continue
		}
		break
	}

	return strings.Join(parts, " ")
}

func containsLower(s string) bool {
	for _, r := range s {
		if unicode.IsLower(r) {
			return true
		}
	}
	return false
}
