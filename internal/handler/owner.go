package handler

import (
	"net/http"

	"garagewatch/internal/engine"
	"garagewatch/pkg/apierror"
	"garagewatch/pkg/response"

	"github.com/go-chi/chi/v5"
)

// OwnerHandler exposes read access to the registry and a forced sync.
type OwnerHandler struct {
	engine *engine.Engine
}

// NewOwnerHandler creates a new owner handler.
func NewOwnerHandler(eng *engine.Engine) *OwnerHandler {
	return &OwnerHandler{engine: eng}
}

// Get handles GET /api/v1/owners/{platform_id}
func (h *OwnerHandler) Get(w http.ResponseWriter, r *http.Request) {
	platformID := chi.URLParam(r, "platform_id")
	if platformID == "" {
		response.Error(w, apierror.BadRequest("platform_id is required"))
		return
	}

	owner, ok := h.engine.Owner(platformID)
	if !ok {
		response.Error(w, apierror.NotFound("owner not found"))
		return
	}
	response.OK(w, owner)
}

// Sync handles POST /api/v1/owners/{platform_id}/sync
func (h *OwnerHandler) Sync(w http.ResponseWriter, r *http.Request) {
	platformID := chi.URLParam(r, "platform_id")
	if platformID == "" {
		response.Error(w, apierror.BadRequest("platform_id is required"))
		return
	}

	if err := h.engine.SyncOwner(r.Context(), platformID); err != nil {
		response.Error(w, apierror.NotFound(err.Error()))
		return
	}
	response.OK(w, map[string]interface{}{
		"status":      "synced",
		"platform_id": platformID,
	})
}
