package model

import "time"

// VehicleStatus tracks the lifecycle of a registered vehicle.
type VehicleStatus string

const (
	VehicleActive    VehicleStatus = "active"
	VehicleDestroyed VehicleStatus = "destroyed"
)

// VehicleSource records how a vehicle entered an owner's registry.
type VehicleSource string

const (
	SourceCommand VehicleSource = "command"
	SourceClaim   VehicleSource = "claim"
)

// Vehicle is a single tracked asset. Vehicle ids are scoped to the game
// world and may be reused after destruction, so an id is only unique among
// currently active vehicles.
type Vehicle struct {
	ID           int64         `json:"id"`
	Class        string        `json:"class"`
	Source       VehicleSource `json:"source"`
	RegisteredAt time.Time     `json:"registered_at"`
}

// Owner is a player identity tracked by the registry. Owners are created on
// first observed vehicle event or explicit registration and never deleted,
// only emptied of vehicles.
type Owner struct {
	PlatformID      string    `json:"platform_id"`
	LinkedAccountID string    `json:"linked_account_id,omitempty"`
	DisplayName     string    `json:"display_name"`
	SquadName       string    `json:"squad_name,omitempty"`
	Vehicles        []Vehicle `json:"vehicles"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// HasVehicle reports whether the owner's active set contains id.
func (o *Owner) HasVehicle(id int64) bool {
	for _, v := range o.Vehicles {
		if v.ID == id {
			return true
		}
	}
	return false
}

// IsLinked reports whether the owner has a linked external account.
func (o *Owner) IsLinked() bool {
	return o.LinkedAccountID != ""
}
