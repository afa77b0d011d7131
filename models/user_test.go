package models

import (
	"testing"

	"github.com/kendall-kelly/door-production-api/workflow"
	"github.com/stretchr/testify/assert"
)

func TestTableNames(t *testing.T) {
	assert.Equal(t, "users", User{}.TableName())
	assert.Equal(t, "user_departments", UserDepartment{}.TableName())
	assert.Equal(t, "orders", Order{}.TableName())
	assert.Equal(t, "phases", Phase{}.TableName())
	assert.Equal(t, "materials", Material{}.TableName())
	assert.Equal(t, "problems", Problem{}.TableName())
	assert.Equal(t, "notes", Note{}.TableName())
	assert.Equal(t, "activity_logs", ActivityLog{}.TableName())
}

func TestUserActor(t *testing.T) {
	user := User{
		ID:   7,
		Name: "Mario",
		Role: RoleOperator,
		Departments: []UserDepartment{
			{UserID: 7, Department: workflow.DeptWeldingAssembly},
			{UserID: 7, Department: workflow.DeptPunchDalcos},
		},
	}

	actor := user.Actor()
	assert.Equal(t, uint(7), actor.UserID)
	assert.True(t, actor.IsOperator())
	assert.False(t, actor.IsOffice())
	assert.True(t, actor.InDepartment(workflow.DeptWeldingAssembly))
	assert.False(t, actor.InDepartment(workflow.DeptPaint))
	assert.Equal(t, []workflow.Department{workflow.DeptPunchDalcos, workflow.DeptWeldingAssembly}, user.DepartmentList())
}

func TestUserActorWithoutDepartments(t *testing.T) {
	user := User{ID: 1, Role: RoleOffice}
	actor := user.Actor()
	assert.True(t, actor.IsOffice())
	assert.Empty(t, actor.DepartmentList())
}

func TestRoleValues(t *testing.T) {
	tests := []struct {
		name  string
		role  Role
		valid bool
	}{
		{"office role", RoleOffice, true},
		{"operator role", RoleOperator, true},
		{"legacy customer role", Role("customer"), false},
		{"empty role", Role(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.role.Valid())
		})
	}
}

func TestSeverityRank(t *testing.T) {
	assert.Less(t, SeverityLow.Rank(), SeverityMedium.Rank())
	assert.Less(t, SeverityMedium.Rank(), SeverityHighBlocking.Rank())
	assert.Equal(t, 0, Severity("critical").Rank())
	assert.False(t, Severity("critical").Valid())
	assert.True(t, SeverityHighBlocking.Blocking())
	assert.False(t, SeverityMedium.Blocking())
}

func TestOrderStatusActive(t *testing.T) {
	assert.True(t, StatusInProduction.Active())
	assert.True(t, StatusBlocked.Active())
	assert.False(t, StatusReadyToShip.Active())
	assert.False(t, StatusShipped.Active())
	assert.False(t, OrderStatus("archived").Valid())
}

func TestProblemTypeValid(t *testing.T) {
	for _, pt := range ProblemTypes {
		assert.True(t, pt.Valid(), pt)
	}
	assert.False(t, ProblemType("paint_drip").Valid())
}

func TestOrderHelpers(t *testing.T) {
	ext := "RAL 7016"
	order := Order{
		ExteriorColour: &ext,
		Phases: []Phase{
			{Name: workflow.PhaseSubframePunch, Status: PhaseToDo},
		},
	}
	gotExt, gotInt := order.Colours()
	assert.Equal(t, "RAL 7016", gotExt)
	assert.Equal(t, "", gotInt)
	assert.False(t, order.HasCompletedPhase())

	order.Phases[0].Status = PhaseCompleted
	assert.True(t, order.HasCompletedPhase())
}

func TestMaterialSubtypeValue(t *testing.T) {
	m := Material{}
	assert.Equal(t, "", m.SubtypeValue())
	sub := "mdf"
	m.Subtype = &sub
	assert.Equal(t, "mdf", m.SubtypeValue())
}
