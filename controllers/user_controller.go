package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/door-production-api/middleware"
	"github.com/kendall-kelly/door-production-api/services"
	"go.uber.org/zap"
)

// UserController serves profiles and office user administration.
type UserController struct {
	users  *services.UserService
	logger *zap.Logger
}

func NewUserController(users *services.UserService, logger *zap.Logger) *UserController {
	return &UserController{users: users, logger: logger}
}

// Register handles POST /api/v1/users - creates the caller's profile from
// Auth0 userinfo. It runs before a profile exists, so there is no actor.
func (ctl *UserController) Register(c *gin.Context) {
	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		respondFailure(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user ID from token")
		return
	}

	accessToken, err := middleware.GetAccessToken(c)
	if err != nil {
		respondFailure(c, http.StatusUnauthorized, "MISSING_TOKEN", "Access token not found")
		return
	}

	user, err := ctl.users.Register(c.Request.Context(), auth0ID, accessToken, middleware.GetRoleClaim(c))
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}
	respond(c, http.StatusCreated, user)
}

// Me handles GET /api/v1/users/me
func (ctl *UserController) Me(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	user, err := ctl.users.Get(c.Request.Context(), actor.UserID)
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}
	respond(c, http.StatusOK, user)
}

// UpdateMe handles PUT /api/v1/users/me
func (ctl *UserController) UpdateMe(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req services.UpdateProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := ctl.users.UpdateProfile(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}
	respond(c, http.StatusOK, user)
}

// List handles GET /api/v1/users (office only)
func (ctl *UserController) List(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	users, err := ctl.users.List(c.Request.Context(), actor)
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}
	respond(c, http.StatusOK, users)
}

// Update handles PATCH /api/v1/users/:id (office only)
func (ctl *UserController) Update(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateUserInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := ctl.users.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}
	respond(c, http.StatusOK, user)
}
