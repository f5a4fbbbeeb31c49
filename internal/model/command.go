package model

// CommandAction is the set of registration commands relayed from the
// in-game chat channel.
type CommandAction string

const (
	ActionRegister   CommandAction = "register"
	ActionDeregister CommandAction = "deregister"
	ActionDenounce   CommandAction = "denounce"
)

// Command is a pre-parsed registration command tuple. The chat transport
// does the parsing; by the time a command reaches the reconciler it is
// already structured.
type Command struct {
	Action       CommandAction `json:"action"`
	ClaimantID   string        `json:"claimant_id"`
	ClaimantName string        `json:"claimant_name"`
	VehicleID    int64         `json:"vehicle_id"`
	VehicleType  string        `json:"vehicle_type,omitempty"`
	Location     string        `json:"location,omitempty"`
}

// OutcomeCode classifies the result of a reconciler transition attempt.
// Conflicts are outcomes, not errors: a rejected registration must not fail
// the batch it arrived in.
type OutcomeCode string

const (
	OutcomeRegistered        OutcomeCode = "registered"
	OutcomeAlreadyRegistered OutcomeCode = "already_registered"
	OutcomePendingLink       OutcomeCode = "pending_link"
	OutcomeCooldown          OutcomeCode = "cooldown"
	OutcomeDeregistered      OutcomeCode = "deregistered"
	OutcomeDenounced         OutcomeCode = "denounced"
	OutcomeRemoved           OutcomeCode = "removed"
	OutcomeNotFound          OutcomeCode = "not_found"
	OutcomeIgnored           OutcomeCode = "ignored"
)

// Outcome is the structured result of handling one event or command.
type Outcome struct {
	Code      OutcomeCode `json:"code"`
	OwnerID   string      `json:"owner_id,omitempty"`
	VehicleID int64       `json:"vehicle_id,omitempty"`
	Class     string      `json:"class,omitempty"`
	Detail    string      `json:"detail,omitempty"`
}
