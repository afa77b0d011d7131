package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/door-production-api/apperrors"
	"github.com/kendall-kelly/door-production-api/middleware"
	"github.com/kendall-kelly/door-production-api/models"
	"github.com/kendall-kelly/door-production-api/utils"
	"go.uber.org/zap"
)

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
	})
}

func respondPage(c *gin.Context, data interface{}, meta utils.PaginationMeta) {
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       data,
		"pagination": meta,
	})
}

func respondFailure(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// respondError maps service errors onto the envelope. Internal failures are
// logged and their cause is not sent to the client.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var uploadErr *utils.FileUploadError
	if errors.As(err, &uploadErr) {
		respondFailure(c, http.StatusBadRequest, uploadErr.Code, uploadErr.Message)
		return
	}

	appErr := apperrors.From(err)
	if appErr.Kind == apperrors.KindInternal {
		logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		respondFailure(c, http.StatusInternalServerError, appErr.Code, "Internal server error")
		return
	}
	respondFailure(c, appErr.HTTPStatus(), appErr.Code, appErr.Message)
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    apperrors.CodeValidation,
			"message": "Invalid request data",
			"details": err.Error(),
		},
	})
}

// actorOrAbort returns the acting user, answering 401 when the request
// never went through LoadActor.
func actorOrAbort(c *gin.Context) (models.Actor, bool) {
	actor, err := middleware.GetActor(c)
	if err != nil {
		respondFailure(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return models.Actor{}, false
	}
	return actor, true
}

// idParam parses a positive numeric path parameter.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondFailure(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}
