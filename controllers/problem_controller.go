package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/door-production-api/services"
	"go.uber.org/zap"
)

// ProblemController serves problem reports.
type ProblemController struct {
	problems *services.ProblemService
	logger   *zap.Logger
}

func NewProblemController(problems *services.ProblemService, logger *zap.Logger) *ProblemController {
	return &ProblemController{problems: problems, logger: logger}
}

// List handles GET /api/v1/problems?resolved=&severity=&order_id=&page=&limit=
func (ctl *ProblemController) List(c *gin.Context) {
	var filter services.ProblemFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondBindError(c, err)
		return
	}

	problems, meta, err := ctl.problems.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}
	respondPage(c, problems, meta)
}

// Get handles GET /api/v1/problems/:id
func (ctl *ProblemController) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	problem, err := ctl.problems.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}
	respond(c, http.StatusOK, problem)
}

// Report handles POST /api/v1/problems
func (ctl *ProblemController) Report(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req services.ReportProblemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	problem, err := ctl.problems.Report(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}
	respond(c, http.StatusCreated, problem)
}

// Resolve handles POST /api/v1/problems/:id/resolve (office or the reporter)
func (ctl *ProblemController) Resolve(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req services.ResolveProblemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	problem, err := ctl.problems.Resolve(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}
	respond(c, http.StatusOK, problem)
}
