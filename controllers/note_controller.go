package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/door-production-api/services"
	"github.com/kendall-kelly/door-production-api/utils"
	"go.uber.org/zap"
)

// NoteController serves the comment thread of an order.
type NoteController struct {
	notes  *services.NoteService
	logger *zap.Logger
}

func NewNoteController(notes *services.NoteService, logger *zap.Logger) *NoteController {
	return &NoteController{notes: notes, logger: logger}
}

// List handles GET /api/v1/orders/:id/notes?page=&limit=
func (ctl *NoteController) List(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var page utils.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		respondBindError(c, err)
		return
	}

	notes, meta, err := ctl.notes.List(c.Request.Context(), id, page)
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}
	respondPage(c, notes, meta)
}

// Add handles POST /api/v1/orders/:id/notes
func (ctl *NoteController) Add(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req services.AddNoteInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	note, err := ctl.notes.Add(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}
	respond(c, http.StatusCreated, note)
}
