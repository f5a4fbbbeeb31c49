package handler

import (
	"encoding/json"
	"net/http"

	"garagewatch/internal/engine"
	"garagewatch/pkg/apierror"
	"garagewatch/pkg/response"
)

// LinkHandler receives account-link callbacks from the linking
// collaborator, promoting any parked registrations for the platform id.
type LinkHandler struct {
	engine *engine.Engine
}

// NewLinkHandler creates a new link handler.
func NewLinkHandler(eng *engine.Engine) *LinkHandler {
	return &LinkHandler{engine: eng}
}

// LinkRequest is the callback payload.
type LinkRequest struct {
	PlatformID string `json:"platform_id"`
	AccountID  string `json:"account_id"`
}

// Linked handles POST /api/v1/links
func (h *LinkHandler) Linked(w http.ResponseWriter, r *http.Request) {
	var req LinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid link payload"))
		return
	}
	defer r.Body.Close()

	if req.PlatformID == "" || req.AccountID == "" {
		response.Error(w, apierror.BadRequest("platform_id and account_id are required"))
		return
	}

	outcomes := h.engine.OnLinked(r.Context(), req.PlatformID, req.AccountID)
	response.OK(w, map[string]interface{}{
		"platform_id": req.PlatformID,
		"promoted":    outcomes,
	})
}
