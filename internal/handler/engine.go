package handler

import (
	"errors"
	"net/http"

	"garagewatch/internal/engine"
	"garagewatch/pkg/apierror"
	"garagewatch/pkg/response"
)

// EngineHandler exposes the manual tick trigger used by the external
// scheduler and operators.
type EngineHandler struct {
	engine *engine.Engine
}

// NewEngineHandler creates a new engine handler.
func NewEngineHandler(eng *engine.Engine) *EngineHandler {
	return &EngineHandler{engine: eng}
}

// Tick handles POST /api/v1/engine/tick
func (h *EngineHandler) Tick(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.RunTick(r.Context())
	if err != nil {
		if errors.Is(err, engine.ErrBusy) {
			response.Error(w, apierror.Conflict("a tick is already in flight"))
			return
		}
		response.Error(w, apierror.InternalError(err.Error()))
		return
	}
	response.OK(w, result)
}
