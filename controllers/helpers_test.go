package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/door-production-api/events"
	"github.com/kendall-kelly/door-production-api/middleware"
	"github.com/kendall-kelly/door-production-api/models"
	"github.com/kendall-kelly/door-production-api/services"
	"github.com/kendall-kelly/door-production-api/tests/testutil"
	"github.com/kendall-kelly/door-production-api/utils"
	"github.com/kendall-kelly/door-production-api/workflow"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

// testEnv is a router wired the way the server wires it, minus JWT
// validation, on a private sqlite database.
type testEnv struct {
	t        *testing.T
	db       *gorm.DB
	router   *gin.Engine
	recorder *events.Recorder
	store    *services.MockFileStore

	office   models.User
	puncher  models.User
	operator models.User

	orders *services.OrderService
	users  *services.UserService
}

type stubUserInfo struct {
	info *services.Auth0UserInfo
	err  error
}

func (s stubUserInfo) GetUserInfo(_ context.Context, _ string) (*services.Auth0UserInfo, error) {
	return s.info, s.err
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.RegisterBindingValidators()

	db := testutil.NewTestDB(t)
	logger := zaptest.NewLogger(t)
	recorder := &events.Recorder{}
	store := services.NewMockFileStore()

	env := &testEnv{
		t:        t,
		db:       db,
		recorder: recorder,
		store:    store,
		office:   testutil.CreateOffice(t, db, "Olga Office"),
		puncher:  testutil.CreateOperator(t, db, "Paolo Punch", workflow.DeptPunchDalcos),
		operator: testutil.CreateOperator(t, db, "Nico Nodept"),
		orders:   services.NewOrderService(db, recorder, logger),
		users: services.NewUserService(db, stubUserInfo{info: &services.Auth0UserInfo{
			Sub:   "auth0|new.user",
			Name:  "New User",
			Email: "New.User@Example.com",
		}}, logger),
	}

	orders := NewOrderController(env.orders, logger)
	phases := NewPhaseController(services.NewPhaseService(db, recorder, logger), logger)
	materials := NewMaterialController(services.NewMaterialService(db, recorder, logger), logger)
	problems := NewProblemController(services.NewProblemService(db, recorder, logger), logger)
	notes := NewNoteController(services.NewNoteService(db, recorder, logger), logger)
	dashboard := NewDashboardController(services.NewDashboardService(db, logger), logger)
	uploads := NewUploadController(services.NewUploadService(db, store, logger), logger)
	users := NewUserController(env.users, logger)

	office := middleware.RequireRole(models.RoleOffice)
	operator := middleware.RequireRole(models.RoleOperator)

	router := gin.New()
	v1 := router.Group("/api/v1")
	v1.POST("/users", testutil.MockAuth(), users.Register)

	api := v1.Group("", testutil.MockAuth(), middleware.LoadActor(env.users, logger))
	api.GET("/users/me", users.Me)
	api.PUT("/users/me", users.UpdateMe)
	api.GET("/users", office, users.List)
	api.PATCH("/users/:id", office, users.Update)

	api.GET("/orders", orders.List)
	api.GET("/orders/export", office, orders.Export)
	api.GET("/orders/:id", orders.Get)
	api.POST("/orders", office, orders.Create)
	api.PATCH("/orders/:id", office, orders.Update)
	api.DELETE("/orders/:id", office, orders.Delete)
	api.POST("/orders/:id/subframe/prepared", operator, orders.MarkSubframePrepared)
	api.POST("/orders/:id/subframe/delivered", office, orders.MarkSubframeDelivered)
	api.POST("/orders/:id/document", office, uploads.AttachDocument)
	api.GET("/orders/:id/phases", phases.ListForOrder)
	api.GET("/orders/:id/materials", materials.ListForOrder)
	api.GET("/orders/:id/notes", notes.List)
	api.POST("/orders/:id/notes", notes.Add)

	api.GET("/phases/mine", operator, phases.ListMine)
	api.POST("/phases/:id/complete", operator, phases.Complete)

	api.GET("/materials/to-order", office, materials.ListToOrder)
	api.GET("/materials/:id", materials.Get)
	api.GET("/materials/:id/delivery-suggestion", materials.SuggestDelivery)
	api.PATCH("/materials/:id", office, materials.Update)
	api.POST("/materials/:id/order", office, materials.Order)
	api.POST("/materials/:id/arrived", materials.Receive)

	api.GET("/problems", problems.List)
	api.GET("/problems/:id", problems.Get)
	api.POST("/problems", problems.Report)
	api.POST("/problems/:id/resolve", problems.Resolve)

	api.GET("/dashboard/stats", office, dashboard.Stats)
	api.GET("/dashboard/alerts", office, dashboard.Alerts)

	api.POST("/uploads", uploads.Upload)
	api.GET("/uploads/url", uploads.URL)

	env.router = router
	return env
}

// request sends body (JSON-encoded unless it is an io.Reader) as user.
func (e *testEnv) request(method, path string, body interface{}, user *models.User) *httptest.ResponseRecorder {
	e.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case io.Reader:
		reader = b
	default:
		payload, err := json.Marshal(b)
		require.NoError(e.t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if _, isReader := body.(io.Reader); body != nil && !isReader {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		req.Header.Set(testutil.AuthHeader, user.Auth0ID)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// decode parses an envelope body.
func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), "body: %s", w.Body.String())
	return response
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	response := decode(t, w)
	errObj, ok := response["error"].(map[string]interface{})
	require.True(t, ok, "expected an error envelope, got %s", w.Body.String())
	return errObj["code"].(string)
}

func dataOf(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	data, ok := decode(t, w)["data"].(map[string]interface{})
	require.True(t, ok, "expected an object in data, got %s", w.Body.String())
	return data
}

func listOf(t *testing.T, w *httptest.ResponseRecorder) []interface{} {
	t.Helper()
	data, ok := decode(t, w)["data"].([]interface{})
	require.True(t, ok, "expected a list in data, got %s", w.Body.String())
	return data
}

func orderBody(confirmation string) map[string]interface{} {
	return map[string]interface{}{
		"confirmation_number": confirmation,
		"client_name":         "Rossi Serramenti",
		"order_date":          "2026-02-18",
		"frame_type":          "standard_with_subframe",
		"exterior_colour":     "brown",
		"interior_colour":     "white",
	}
}

// createOrder creates an order through the API as the office user.
func (e *testEnv) createOrder(body map[string]interface{}) map[string]interface{} {
	e.t.Helper()
	w := e.request(http.MethodPost, "/api/v1/orders", body, &e.office)
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	return dataOf(e.t, w)
}

func idOf(v map[string]interface{}) uint {
	return uint(v["id"].(float64))
}

// phaseID finds a phase of an order payload by name.
func phaseID(t *testing.T, order map[string]interface{}, name string) uint {
	t.Helper()
	for _, p := range order["phases"].([]interface{}) {
		phase := p.(map[string]interface{})
		if phase["name"] == name {
			return idOf(phase)
		}
	}
	t.Fatalf("order has no phase %s", name)
	return 0
}
