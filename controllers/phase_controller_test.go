package controllers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/kendall-kelly/door-production-api/events"
	"github.com/kendall-kelly/door-production-api/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletePhaseEndpoint(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(orderBody("PC-1"))
	punch := phaseID(t, order, workflow.PhaseSubframePunch)
	path := fmt.Sprintf("/api/v1/phases/%d/complete", punch)

	w := env.request(http.MethodPost, path, nil, &env.office)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.request(http.MethodPost, path, nil, &env.operator)
	assert.Equal(t, http.StatusBadRequest, w.Code, "operator outside the department")

	w = env.request(http.MethodPost, path, map[string]interface{}{
		"photos": []string{"1", "2", "3", "4", "5", "6"},
	}, &env.puncher)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))

	w = env.request(http.MethodPost, path, map[string]interface{}{
		"notes":  "Punched",
		"photos": []string{"photos/2026/02/a.jpg"},
	}, &env.puncher)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := dataOf(t, w)
	assert.Equal(t, "completed", data["status"])
	assert.Equal(t, "Punched", data["notes"])
	assert.Equal(t, []string{events.NamePhaseCompleted}, env.recorder.Names())

	w = env.request(http.MethodPost, path, nil, &env.puncher)
	assert.Equal(t, http.StatusBadRequest, w.Code, "already completed")
}

func TestCompletePhaseWithoutBody(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(orderBody("PC-2"))
	punch := phaseID(t, order, workflow.PhaseSubframePunch)

	w := env.request(http.MethodPost, fmt.Sprintf("/api/v1/phases/%d/complete", punch), nil, &env.puncher)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestListPhases(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(orderBody("LP-1"))

	w := env.request(http.MethodGet, fmt.Sprintf("/api/v1/orders/%d/phases", idOf(order)), nil, &env.office)
	require.Equal(t, http.StatusOK, w.Code)
	phases := listOf(t, w)
	require.NotEmpty(t, phases)
	assert.Equal(t, workflow.PhaseSubframePunch, phases[0].(map[string]interface{})["name"])

	w = env.request(http.MethodGet, "/api/v1/orders/99999/phases", nil, &env.office)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListMyPhases(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(orderBody("MP-1"))

	w := env.request(http.MethodGet, "/api/v1/phases/mine", nil, &env.puncher)
	require.Equal(t, http.StatusOK, w.Code)
	todo := listOf(t, w)
	require.NotEmpty(t, todo)
	for _, p := range todo {
		assert.Equal(t, "to_do", p.(map[string]interface{})["status"])
	}

	punch := phaseID(t, order, workflow.PhaseSubframePunch)
	w = env.request(http.MethodPost, fmt.Sprintf("/api/v1/phases/%d/complete", punch), nil, &env.puncher)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.request(http.MethodGet, "/api/v1/phases/mine?completed=true", nil, &env.puncher)
	require.Equal(t, http.StatusOK, w.Code)
	done := listOf(t, w)
	require.Len(t, done, 1)
	assert.Equal(t, float64(punch), done[0].(map[string]interface{})["id"])

	w = env.request(http.MethodGet, "/api/v1/phases/mine?completed=perhaps", nil, &env.puncher)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.request(http.MethodGet, "/api/v1/phases/mine", nil, &env.office)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
