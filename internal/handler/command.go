package handler

import (
	"encoding/json"
	"net/http"

	"garagewatch/internal/engine"
	"garagewatch/internal/model"
	"garagewatch/pkg/apierror"
	"garagewatch/pkg/response"
)

// CommandHandler receives pre-parsed registration commands relayed from
// the in-game chat channel.
type CommandHandler struct {
	engine *engine.Engine
}

// NewCommandHandler creates a new command handler.
func NewCommandHandler(eng *engine.Engine) *CommandHandler {
	return &CommandHandler{engine: eng}
}

// Handle handles POST /api/v1/commands
func (h *CommandHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var cmd model.Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		response.Error(w, apierror.BadRequest("invalid command payload"))
		return
	}
	defer r.Body.Close()

	var details []apierror.FieldError
	switch cmd.Action {
	case model.ActionRegister, model.ActionDeregister, model.ActionDenounce:
	default:
		details = append(details, apierror.FieldError{Field: "action", Message: "unknown command action"})
	}
	if cmd.ClaimantID == "" {
		details = append(details, apierror.FieldError{Field: "claimant_id", Message: "claimant_id is required"})
	}
	if cmd.VehicleID <= 0 {
		details = append(details, apierror.FieldError{Field: "vehicle_id", Message: "vehicle_id is required"})
	}
	if len(details) > 0 {
		response.Error(w, apierror.ValidationError("invalid command", details...))
		return
	}

	outcome := h.engine.HandleCommand(r.Context(), cmd)
	response.OK(w, outcome)
}
