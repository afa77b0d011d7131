package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/door-production-api/apperrors"
	"github.com/kendall-kelly/door-production-api/models"
	"go.uber.org/zap"
)

const actorKey = "actor"

// UserLookup resolves the profile behind a token subject.
type UserLookup interface {
	GetByAuth0ID(ctx context.Context, auth0ID string) (*models.User, error)
}

// LoadActor turns the token subject into the acting user. Requests from
// users without a profile or with a deactivated profile stop here.
func LoadActor(users UserLookup, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth0ID, err := GetUserID(c)
		if err != nil {
			abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
			return
		}

		user, err := users.GetByAuth0ID(c.Request.Context(), auth0ID)
		if err != nil {
			if apperrors.Is(err, apperrors.KindNotFound) {
				abort(c, http.StatusNotFound, "USER_NOT_FOUND", "User profile not found. Please create a profile first.")
				return
			}
			logger.Error("Failed to load user", zap.String("auth0_id", auth0ID), zap.Error(err))
			abort(c, http.StatusInternalServerError, apperrors.CodeInternal, "Failed to load user profile")
			return
		}
		if !user.Active {
			abort(c, http.StatusForbidden, "USER_INACTIVE", "User account is deactivated")
			return
		}

		c.Set(actorKey, user.Actor())
		c.Next()
	}
}

// GetActor returns the actor stored by LoadActor.
func GetActor(c *gin.Context) (models.Actor, error) {
	value, exists := c.Get(actorKey)
	if !exists {
		return models.Actor{}, &AuthError{Code: "MISSING_ACTOR", Message: "Actor not found in context"}
	}
	actor, ok := value.(models.Actor)
	if !ok {
		return models.Actor{}, &AuthError{Code: "INVALID_ACTOR", Message: "Actor is not in the expected format"}
	}
	return actor, nil
}

// SetActor stores actor for the rest of the request.
func SetActor(c *gin.Context, actor models.Actor) {
	c.Set(actorKey, actor)
}

// RequireRole lets the request through only for the given roles.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := GetActor(c)
		if err != nil {
			abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
			return
		}
		for _, r := range roles {
			if actor.Role == r {
				c.Next()
				return
			}
		}
		abort(c, http.StatusForbidden, apperrors.CodeAuthorization, "Insufficient permissions to access this resource")
	}
}

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}
