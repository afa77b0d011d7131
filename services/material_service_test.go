package services

import (
	"testing"

	"github.com/kendall-kelly/door-production-api/apperrors"
	"github.com/kendall-kelly/door-production-api/events"
	"github.com/kendall-kelly/door-production-api/models"
	"github.com/kendall-kelly/door-production-api/tests/testutil"
	"github.com/kendall-kelly/door-production-api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderWithMaterials(t *testing.T, f *fixture, confirmation string, urgent bool, materials ...MaterialInput) *models.Order {
	t.Helper()
	in := baseOrderInput(confirmation)
	in.Materials = materials
	if urgent {
		in.Urgent = true
		in.Deadline = testutil.Ptr("2026-03-15")
	}
	return f.createOrder(t, in)
}

func TestMaterialLifecycle(t *testing.T) {
	f := newFixture(t)
	office := f.as(t, f.office)
	order := orderWithMaterials(t, f, "MAT-1", false,
		MaterialInput{Type: "exterior_panel", Subtype: testutil.Ptr("okoume")},
	)
	require.Len(t, order.Materials, 1)
	id := order.Materials[0].ID

	_, err := f.materials.Receive(f.ctx, f.as(t, f.packer), id, ReceiveMaterialInput{ArrivalDate: "2026-03-01"})
	assertKind(t, err, apperrors.KindValidation)

	ordered, err := f.materials.Order(f.ctx, office, id, OrderMaterialInput{
		OrderDate:        "2026-02-20",
		ExpectedDelivery: testutil.Ptr("2026-03-20"),
	})
	require.NoError(t, err)
	assert.True(t, ordered.Ordered)
	assert.False(t, ordered.Arrived)
	assert.Equal(t, "2026-02-20", utils.FormatDate(*ordered.OrderedOn))
	assert.Equal(t, "2026-03-20", utils.FormatDate(*ordered.ExpectedDelivery))

	_, err = f.materials.Order(f.ctx, office, id, OrderMaterialInput{OrderDate: "2026-02-21"})
	assertKind(t, err, apperrors.KindValidation)

	arrived, err := f.materials.Receive(f.ctx, f.as(t, f.packer), id, ReceiveMaterialInput{
		ArrivalDate: "2026-03-18",
		Notes:       testutil.Ptr("Two days early"),
	})
	require.NoError(t, err)
	assert.True(t, arrived.Arrived)
	assert.Equal(t, "2026-03-18", utils.FormatDate(*arrived.ArrivedOn))
	require.NotNil(t, arrived.Notes)
	assert.Equal(t, "Two days early", *arrived.Notes)

	_, err = f.materials.Receive(f.ctx, f.as(t, f.packer), id, ReceiveMaterialInput{ArrivalDate: "2026-03-19"})
	assertKind(t, err, apperrors.KindValidation)
	_, err = f.materials.Order(f.ctx, office, id, OrderMaterialInput{OrderDate: "2026-02-21"})
	assertKind(t, err, apperrors.KindValidation)

	require.Equal(t, []string{events.NameMaterialArrived}, f.recorder.Names())
	ev := f.recorder.Events()[0].(events.MaterialArrived)
	assert.Equal(t, "MAT-1", ev.ConfirmationNumber)
	assert.Equal(t, "exterior_panel", ev.Type)

	var actions []string
	f.db.Model(&models.ActivityLog{}).Where("order_id = ?", order.ID).Order("id ASC").Pluck("action", &actions)
	assert.Contains(t, actions, models.ActionMaterialOrdered)
	assert.Contains(t, actions, models.ActionMaterialArrived)
}

func TestOrderMaterialGuards(t *testing.T) {
	f := newFixture(t)
	order := orderWithMaterials(t, f, "MAT-2", false,
		MaterialInput{Type: "glass"},
		MaterialInput{Type: "exterior_panel", Subtype: testutil.Ptr("pvc")},
	)
	glass, panel := order.Materials[0].ID, order.Materials[1].ID

	t.Run("operators cannot order", func(t *testing.T) {
		_, err := f.materials.Order(f.ctx, f.as(t, f.welder), glass, OrderMaterialInput{OrderDate: "2026-02-20"})
		assertKind(t, err, apperrors.KindAuthorization)
	})

	t.Run("expected before order date", func(t *testing.T) {
		_, err := f.materials.Order(f.ctx, f.as(t, f.office), glass, OrderMaterialInput{
			OrderDate:        "2026-02-20",
			ExpectedDelivery: testutil.Ptr("2026-02-19"),
		})
		assertKind(t, err, apperrors.KindValidation)
	})

	t.Run("missing material", func(t *testing.T) {
		_, err := f.materials.Order(f.ctx, f.as(t, f.office), 7777, OrderMaterialInput{OrderDate: "2026-02-20"})
		assertKind(t, err, apperrors.KindNotFound)
	})

	t.Run("lead time fills expected delivery", func(t *testing.T) {
		m, err := f.materials.Order(f.ctx, f.as(t, f.office), panel, OrderMaterialInput{OrderDate: "2026-02-20"})
		require.NoError(t, err)
		assert.Equal(t, "2026-04-01", utils.FormatDate(*m.ExpectedDelivery))
	})
}

func TestSuggestDelivery(t *testing.T) {
	f := newFixture(t)
	order := orderWithMaterials(t, f, "MAT-3", false,
		MaterialInput{Type: "trim", Subtype: testutil.Ptr("MDF")},
	)
	id := order.Materials[0].ID

	s, err := f.materials.SuggestDelivery(f.ctx, id, "2026-02-20")
	require.NoError(t, err)
	assert.Equal(t, 20, s.LeadTimeDays)
	assert.Equal(t, "2026-03-12", s.ExpectedDelivery)

	today, err := f.materials.SuggestDelivery(f.ctx, id, "")
	require.NoError(t, err)
	assert.Equal(t, "2026-02-20", today.OrderDate)

	_, err = f.materials.SuggestDelivery(f.ctx, id, "20/02/2026")
	assertKind(t, err, apperrors.KindValidation)
}

func TestListMaterialsToOrder(t *testing.T) {
	f := newFixture(t)
	office := f.as(t, f.office)

	normal := orderWithMaterials(t, f, "MAT-4", false,
		MaterialInput{Type: "glass"},
		MaterialInput{Type: "push_bar"},
	)
	urgent := orderWithMaterials(t, f, "MAT-5", true,
		MaterialInput{Type: "jamb_kit"},
	)
	orderWithMaterials(t, f, "MAT-6", false)

	_, err := f.materials.Order(f.ctx, office, normal.Materials[1].ID, OrderMaterialInput{OrderDate: "2026-02-20"})
	require.NoError(t, err)
	_, err = f.materials.Update(f.ctx, office, urgent.Materials[0].ID, UpdateMaterialInput{Required: utils.Some(false)})
	require.NoError(t, err)
	urgentExtra := orderWithMaterials(t, f, "MAT-7", true, MaterialInput{Type: "trim", Subtype: testutil.Ptr("okoume")})

	list, err := f.materials.ListToOrder(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, list.Total)
	require.Len(t, list.Orders, 2)
	assert.Equal(t, urgentExtra.ID, list.Orders[0].OrderID)
	assert.True(t, list.Orders[0].Urgent)
	assert.Equal(t, "MAT-4", list.Orders[1].ConfirmationNumber)
	require.Len(t, list.Orders[1].Materials, 1)
	assert.Equal(t, "glass", list.Orders[1].Materials[0].Type)
	assert.Nil(t, list.Orders[1].Materials[0].Order)
}

func TestUpdateMaterial(t *testing.T) {
	f := newFixture(t)
	office := f.as(t, f.office)
	order := orderWithMaterials(t, f, "MAT-8", false, MaterialInput{Type: "glass", Notes: testutil.Ptr("frosted")})
	id := order.Materials[0].ID

	m, err := f.materials.Update(f.ctx, office, id, UpdateMaterialInput{
		Notes:            utils.Null[string](),
		Dimensions:       utils.Some("800x2100"),
		ExpectedDelivery: utils.Some("2026-03-05"),
	})
	require.NoError(t, err)
	assert.Nil(t, m.Notes)
	require.NotNil(t, m.Dimensions)
	assert.Equal(t, "800x2100", *m.Dimensions)
	assert.Equal(t, "2026-03-05", utils.FormatDate(*m.ExpectedDelivery))

	_, err = f.materials.Update(f.ctx, office, id, UpdateMaterialInput{})
	assertKind(t, err, apperrors.KindValidation)

	_, err = f.materials.Update(f.ctx, office, id, UpdateMaterialInput{Required: utils.Null[bool]()})
	assertKind(t, err, apperrors.KindValidation)

	_, err = f.materials.Update(f.ctx, f.as(t, f.welder), id, UpdateMaterialInput{Dimensions: utils.Some("1x1")})
	assertKind(t, err, apperrors.KindAuthorization)

	_, err = f.materials.Update(f.ctx, office, 5555, UpdateMaterialInput{Dimensions: utils.Some("1x1")})
	assertKind(t, err, apperrors.KindNotFound)
}

func TestListMaterialsForOrder(t *testing.T) {
	f := newFixture(t)
	order := orderWithMaterials(t, f, "MAT-9", false,
		MaterialInput{Type: "glass"},
		MaterialInput{Type: "exterior_panel", Subtype: testutil.Ptr("laminate")},
	)

	materials, err := f.materials.ListForOrder(f.ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, materials, 1, "stock items are not tracked")

	_, err = f.materials.ListForOrder(f.ctx, 404)
	assertKind(t, err, apperrors.KindNotFound)
}
