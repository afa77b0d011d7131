package controllers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardStatsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.createOrder(orderBody("DS-1"))
	orderWithGlass(env, "DS-2")

	w := env.request(http.MethodGet, "/api/v1/dashboard/stats?period=week", nil, &env.office)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := dataOf(t, w)
	assert.Equal(t, "week", data["period"])
	kpi := data["kpi"].(map[string]interface{})
	assert.Equal(t, float64(2), kpi["in_production"])
	materials := data["details"].(map[string]interface{})["materials"].(map[string]interface{})
	assert.Equal(t, float64(1), materials["to_order"])

	w = env.request(http.MethodGet, "/api/v1/dashboard/stats", nil, &env.office)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "month", dataOf(t, w)["period"])

	w = env.request(http.MethodGet, "/api/v1/dashboard/stats?period=decade", nil, &env.office)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.request(http.MethodGet, "/api/v1/dashboard/stats", nil, &env.operator)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDashboardAlertsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(http.MethodGet, "/api/v1/dashboard/alerts", nil, &env.office)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, dataOf(t, w)["has_alert"])

	orderWithGlass(env, "DA-1")
	w = env.request(http.MethodGet, "/api/v1/dashboard/alerts", nil, &env.office)
	require.Equal(t, http.StatusOK, w.Code)
	data := dataOf(t, w)
	assert.Equal(t, true, data["has_alert"])
	assert.Len(t, data["materials_to_order"], 1)

	w = env.request(http.MethodGet, "/api/v1/dashboard/alerts", nil, &env.puncher)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
