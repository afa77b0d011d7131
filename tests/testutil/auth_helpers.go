package testutil

import (
	"net/http"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/door-production-api/middleware"
	"github.com/kendall-kelly/door-production-api/models"
)

// AuthHeader is the request header MockAuth reads the token subject from.
const AuthHeader = "X-Test-Subject"

// MockValidatedClaims creates a mock ValidatedClaims for testing
func MockValidatedClaims(subject, issuer string, role models.Role) *validator.ValidatedClaims {
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Issuer:  issuer,
			Subject: subject,
		},
		CustomClaims: &middleware.CustomClaims{
			Role: string(role),
		},
	}
}

// SetMockAuthContext sets up a mock authenticated context for testing
func SetMockAuthContext(c *gin.Context, userID, accessToken string, role models.Role) {
	c.Set("user_id", userID)
	c.Set("access_token", accessToken)
	c.Set("validated_claims", MockValidatedClaims(userID, "https://test.auth0.com/", role))
}

// MockAuth stands in for EnsureValidToken. The token subject comes from the
// AuthHeader header and the access token is "token-<subject>". Requests
// without the header are rejected the way an invalid JWT would be.
func MockAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := c.GetHeader(AuthHeader)
		if subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "INVALID_TOKEN", "message": "Failed to validate JWT."},
			})
			return
		}
		SetMockAuthContext(c, subject, "token-"+subject, models.Role(c.GetHeader("X-Test-Role")))
		c.Next()
	}
}
