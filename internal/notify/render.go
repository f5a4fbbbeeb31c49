package notify

import (
	"fmt"
	"strings"

	"garagewatch/internal/model"
)

// Render produces the per-owner summary text. It is a pure function of the
// owner record: identical registry state must render to identical text so
// that re-syncing unchanged owners is a server-side no-op.
func Render(owner *model.Owner) string {
	var b strings.Builder

	name := owner.DisplayName
	if name == "" {
		name = owner.PlatformID
	}
	fmt.Fprintf(&b, "%s (%s)\n", name, owner.PlatformID)

	if owner.IsLinked() {
		b.WriteString("Account: linked\n")
	} else {
		b.WriteString("Account: not linked\n")
	}
	if owner.SquadName != "" {
		fmt.Fprintf(&b, "Squad: %s\n", owner.SquadName)
	}

	if len(owner.Vehicles) == 0 {
		b.WriteString("No registered vehicles.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "Registered vehicles (%d):\n", len(owner.Vehicles))
	for _, v := range owner.Vehicles {
		fmt.Fprintf(&b, "- #%d %s\n", v.ID, v.Class)
	}
	return b.String()
}

// RenderPendingPrompt produces the call-to-action shown when a claimant
// without a linked account registers a vehicle.
func RenderPendingPrompt(p model.PendingRegistration) string {
	return fmt.Sprintf(
		"%s tried to register vehicle #%d (%s) but has no linked account yet. Link your account to complete the registration.",
		p.ClaimantName, p.VehicleID, p.VehicleClass)
}

// RenderPendingResolved replaces a prompt once the pending entry is
// promoted, removing the call-to-action without deleting the message.
func RenderPendingResolved(p model.PendingRegistration) string {
	return fmt.Sprintf("Registration of vehicle #%d (%s) by %s completed.",
		p.VehicleID, p.VehicleClass, p.ClaimantName)
}
