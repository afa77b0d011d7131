package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/door-production-api/events"
	"github.com/kendall-kelly/door-production-api/models"
	"github.com/kendall-kelly/door-production-api/routes"
	"github.com/kendall-kelly/door-production-api/services"
	"github.com/kendall-kelly/door-production-api/tests/testutil"
	"github.com/kendall-kelly/door-production-api/workflow"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

// apiSuite runs requests against the full router: real services, the event
// bus, an in-memory file store and a fake Auth0 /userinfo server. Only JWT
// validation is replaced, by testutil.MockAuth.
type apiSuite struct {
	suite.Suite
	router   *gin.Engine
	db       *gorm.DB
	bus      *events.Bus
	recorder *events.Recorder
	store    *services.MockFileStore
	auth0    *httptest.Server

	office  models.User
	workers map[workflow.Department]models.User
	generic models.User
}

func (s *apiSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	t := s.T()
	testutil.MustSetTestEnvironment(t)

	logger := zaptest.NewLogger(t)
	s.db = testutil.NewTestDB(t)
	s.recorder = &events.Recorder{}
	s.bus = events.NewBus(logger)
	s.bus.Subscribe(events.Wildcard, func(ctx context.Context, e events.Event) error {
		s.recorder.Publish(ctx, e)
		return nil
	})
	s.store = services.NewMockFileStore()

	// The fake Auth0 answers for tokens "token-auth0|<slug>".
	s.auth0 = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer token-")
		slug := strings.TrimPrefix(subject, "auth0|")
		if slug == "" || slug == subject {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(services.Auth0UserInfo{
			Sub:   subject,
			Name:  "User " + slug,
			Email: slug + "@factory.example.com",
		})
	}))
	t.Cleanup(s.auth0.Close)

	deps := routes.NewDeps(s.db, s.bus, s.store, services.NewAuth0Service(s.auth0.URL), events.NewHub(logger), logger)
	s.router = gin.New()
	routes.Setup(s.router, deps, testutil.MockAuth())

	s.office = testutil.CreateOffice(t, s.db, "Olga Office")
	s.generic = testutil.CreateOperator(t, s.db, "Nico Nodept")
	s.workers = map[workflow.Department]models.User{}
	for _, d := range workflow.Departments {
		s.workers[d] = testutil.CreateOperator(t, s.db, "Worker "+string(d), d)
	}
}

func (s *apiSuite) do(method, path string, body interface{}, user *models.User) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		req.Header.Set(testutil.AuthHeader, user.Auth0ID)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// data decodes the envelope and returns its data member.
func (s *apiSuite) data(w *httptest.ResponseRecorder) map[string]interface{} {
	var response struct {
		Success bool                   `json:"success"`
		Data    map[string]interface{} `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response), w.Body.String())
	s.Require().True(response.Success, w.Body.String())
	return response.Data
}

func (s *apiSuite) list(w *httptest.ResponseRecorder) []map[string]interface{} {
	var response struct {
		Data []map[string]interface{} `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response), w.Body.String())
	return response.Data
}

func (s *apiSuite) errorCode(w *httptest.ResponseRecorder) string {
	var response struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response), w.Body.String())
	return response.Error.Code
}

// eventNames waits for in-flight listeners and returns what was published.
func (s *apiSuite) eventNames() []string {
	s.bus.Wait()
	return s.recorder.Names()
}

func id(v map[string]interface{}) uint {
	return uint(v["id"].(float64))
}
