package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/door-production-api/services"
	"go.uber.org/zap"
)

// PhaseController serves production phases.
type PhaseController struct {
	phases *services.PhaseService
	logger *zap.Logger
}

func NewPhaseController(phases *services.PhaseService, logger *zap.Logger) *PhaseController {
	return &PhaseController{phases: phases, logger: logger}
}

// ListForOrder handles GET /api/v1/orders/:id/phases
func (ctl *PhaseController) ListForOrder(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	phases, err := ctl.phases.ListForOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}
	respond(c, http.StatusOK, phases)
}

// ListMine handles GET /api/v1/phases/mine?completed=true|false (operators)
func (ctl *PhaseController) ListMine(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	completed := false
	if v := c.Query("completed"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			respondFailure(c, http.StatusBadRequest, "VALIDATION_ERROR", "completed must be true or false")
			return
		}
		completed = parsed
	}

	phases, err := ctl.phases.ListMine(c.Request.Context(), actor, completed)
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}
	respond(c, http.StatusOK, phases)
}

// Complete handles POST /api/v1/phases/:id/complete (operators)
func (ctl *PhaseController) Complete(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req services.CompletePhaseInput
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
	}

	phase, err := ctl.phases.Complete(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}
	respond(c, http.StatusOK, phase)
}
