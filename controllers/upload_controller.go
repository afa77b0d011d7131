package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/door-production-api/services"
	"github.com/kendall-kelly/door-production-api/utils"
	"go.uber.org/zap"
)

// UploadController stores photos and order documents.
type UploadController struct {
	uploads *services.UploadService
	logger  *zap.Logger
}

func NewUploadController(uploads *services.UploadService, logger *zap.Logger) *UploadController {
	return &UploadController{uploads: uploads, logger: logger}
}

// Upload handles POST /api/v1/uploads (multipart "file", optional "kind")
func (ctl *UploadController) Upload(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	kind, err := utils.ParseUploadKind(c.PostForm("kind"))
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondFailure(c, http.StatusBadRequest, "MISSING_FILE", "A file is required in the \"file\" field")
		return
	}

	stored, err := ctl.uploads.Upload(c.Request.Context(), actor, fileHeader, kind)
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}
	respond(c, http.StatusCreated, stored)
}

// URL handles GET /api/v1/uploads/url?key=photos/2026/10/<uuid>.jpg
func (ctl *UploadController) URL(c *gin.Context) {
	url, err := ctl.uploads.URL(c.Request.Context(), c.Query("key"))
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"url": url})
}

// AttachDocument handles POST /api/v1/orders/:id/document (office only)
func (ctl *UploadController) AttachDocument(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondFailure(c, http.StatusBadRequest, "MISSING_FILE", "A file is required in the \"file\" field")
		return
	}

	stored, err := ctl.uploads.AttachOrderDocument(c.Request.Context(), actor, id, fileHeader)
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}
	respond(c, http.StatusCreated, stored)
}
