package controllers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/door-production-api/apperrors"
	"github.com/kendall-kelly/door-production-api/utils"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name            string
		err             error
		expectedStatus  int
		expectedCode    string
		expectedMessage string
		logged          bool
	}{
		{
			name:            "validation",
			err:             apperrors.Validation("door quantity must be positive"),
			expectedStatus:  http.StatusBadRequest,
			expectedCode:    apperrors.CodeValidation,
			expectedMessage: "door quantity must be positive",
		},
		{
			name:           "not found",
			err:            apperrors.NotFound("order"),
			expectedStatus: http.StatusNotFound,
			expectedCode:   apperrors.CodeNotFound,
		},
		{
			name:           "authorization",
			err:            apperrors.Unauthorized("only office staff can create orders"),
			expectedStatus: http.StatusForbidden,
			expectedCode:   apperrors.CodeAuthorization,
		},
		{
			name:            "upload error keeps its code",
			err:             &utils.FileUploadError{Code: "FILE_TOO_LARGE", Message: "too big"},
			expectedStatus:  http.StatusBadRequest,
			expectedCode:    "FILE_TOO_LARGE",
			expectedMessage: "too big",
		},
		{
			name:            "plain errors are internal and hidden",
			err:             errors.New("connection reset by peer"),
			expectedStatus:  http.StatusInternalServerError,
			expectedCode:    apperrors.CodeInternal,
			expectedMessage: "Internal server error",
			logged:          true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.ErrorLevel)
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)

			respondError(c, zap.New(core), tt.err)

			assert.Equal(t, tt.expectedStatus, w.Code)
			response := decode(t, w)
			assert.Equal(t, false, response["success"])
			errObj := response["error"].(map[string]interface{})
			assert.Equal(t, tt.expectedCode, errObj["code"])
			if tt.expectedMessage != "" {
				assert.Equal(t, tt.expectedMessage, errObj["message"])
			}
			assert.NotContains(t, w.Body.String(), "connection reset")
			assert.Equal(t, tt.logged, logs.Len() == 1)
		})
	}
}

func TestIDParam(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for _, raw := range []string{"0", "-1", "abc", ""} {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "id", Value: raw}}

		_, ok := idParam(c, "id")
		assert.False(t, ok, raw)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "42"}}
	id, ok := idParam(c, "id")
	assert.True(t, ok)
	assert.Equal(t, uint(42), id)
}

func TestActorOrAbort(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	_, ok := actorOrAbort(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
