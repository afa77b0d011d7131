package services

import (
	"context"
	"testing"
	"time"

	"github.com/kendall-kelly/door-production-api/apperrors"
	"github.com/kendall-kelly/door-production-api/events"
	"github.com/kendall-kelly/door-production-api/models"
	"github.com/kendall-kelly/door-production-api/tests/testutil"
	"github.com/kendall-kelly/door-production-api/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

// testNow is the frozen clock used by every service under test.
var testNow = time.Date(2026, 2, 20, 9, 30, 0, 0, time.UTC)

type fixture struct {
	ctx      context.Context
	db       *gorm.DB
	recorder *events.Recorder

	office    models.User
	puncher   models.User // punch_dalcos
	welder    models.User // welding_assembly
	packer    models.User // packing
	unskilled models.User

	orders    *OrderService
	phases    *PhaseService
	materials *MaterialService
	problems  *ProblemService
	notes     *NoteService
	dashboard *DashboardService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewTestDB(t)
	recorder := &events.Recorder{}
	logger := zaptest.NewLogger(t)
	clock := testutil.FixedClock(testNow)

	f := &fixture{
		ctx:       context.Background(),
		db:        db,
		recorder:  recorder,
		office:    testutil.CreateOffice(t, db, "Olga Office"),
		puncher:   testutil.CreateOperator(t, db, "Paolo Punch", workflow.DeptPunchDalcos),
		welder:    testutil.CreateOperator(t, db, "Walter Weld", workflow.DeptWeldingAssembly, workflow.DeptBending),
		packer:    testutil.CreateOperator(t, db, "Pia Pack", workflow.DeptPacking),
		unskilled: testutil.CreateOperator(t, db, "Nico Nodept"),
		orders:    NewOrderService(db, recorder, logger),
		phases:    NewPhaseService(db, recorder, logger),
		materials: NewMaterialService(db, recorder, logger),
		problems:  NewProblemService(db, recorder, logger),
		notes:     NewNoteService(db, recorder, logger),
		dashboard: NewDashboardService(db, logger),
	}
	for _, s := range []interface{ SetClock(func() time.Time) }{f.orders, f.phases, f.materials, f.problems, f.notes, f.dashboard} {
		s.SetClock(clock)
	}
	return f
}

func actorOf(t *testing.T, db *gorm.DB, u models.User) models.Actor {
	t.Helper()
	var loaded models.User
	require.NoError(t, db.Preload("Departments").First(&loaded, u.ID).Error)
	return loaded.Actor()
}

func (f *fixture) as(t *testing.T, u models.User) models.Actor {
	return actorOf(t, f.db, u)
}

func baseOrderInput(confirmation string) CreateOrderInput {
	return CreateOrderInput{
		ConfirmationNumber: confirmation,
		ClientName:         "Rossi Serramenti",
		OrderDate:          "2026-02-18",
		FrameType:          workflow.FrameStandardWithSubframe,
		ExteriorColour:     testutil.Ptr("brown"),
		InteriorColour:     testutil.Ptr("white"),
	}
}

func (f *fixture) createOrder(t *testing.T, in CreateOrderInput) *models.Order {
	t.Helper()
	order, err := f.orders.Create(f.ctx, f.as(t, f.office), in)
	require.NoError(t, err)
	return order
}

func (f *fixture) phaseNamed(t *testing.T, order *models.Order, name string) models.Phase {
	t.Helper()
	for _, p := range order.Phases {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("order %d has no phase %s", order.ID, name)
	return models.Phase{}
}

func (f *fixture) reload(t *testing.T, id uint) *models.Order {
	t.Helper()
	order, err := f.orders.Get(f.ctx, id)
	require.NoError(t, err)
	return order
}

func assertKind(t *testing.T, err error, kind apperrors.Kind) {
	t.Helper()
	require.Error(t, err)
	appErr := apperrors.From(err)
	require.NotNil(t, appErr, "expected an AppError, got %T: %v", err, err)
	assert.Equal(t, kind, appErr.Kind, "unexpected error: %v", err)
}
