package models

import (
	"time"

	"github.com/kendall-kelly/door-production-api/workflow"
	"gorm.io/gorm"
)

// User represents a user in the system (office staff or floor operator)
type User struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	Auth0ID     string           `gorm:"uniqueIndex;not null" json:"auth0_id"` // Auth0 user ID (from 'sub' claim)
	Name        string           `gorm:"not null" json:"name"`
	Email       string           `gorm:"uniqueIndex;not null" json:"email"`
	Role        Role             `gorm:"size:20;not null" json:"role"`
	Active      bool             `gorm:"not null" json:"active"`
	Departments []UserDepartment `gorm:"constraint:OnDelete:CASCADE" json:"departments"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	DeletedAt   gorm.DeletedAt   `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// UserDepartment assigns an operator to one department. The composite key
// makes the assignment a set.
type UserDepartment struct {
	UserID     uint                `gorm:"primaryKey" json:"-"`
	Department workflow.Department `gorm:"primaryKey;size:40" json:"department"`
}

// TableName specifies the table name for the UserDepartment model
func (UserDepartment) TableName() string {
	return "user_departments"
}

// Actor is the authenticated identity a mutation runs on behalf of.
type Actor struct {
	UserID      uint
	Name        string
	Role        Role
	Departments map[workflow.Department]bool
}

// Actor builds the identity context for u. Departments must be preloaded.
func (u *User) Actor() Actor {
	depts := make(map[workflow.Department]bool, len(u.Departments))
	for _, d := range u.Departments {
		depts[d.Department] = true
	}
	return Actor{UserID: u.ID, Name: u.Name, Role: u.Role, Departments: depts}
}

// DepartmentList returns the assigned departments in a stable order.
func (u *User) DepartmentList() []workflow.Department {
	return u.Actor().DepartmentList()
}

func (a Actor) IsOffice() bool {
	return a.Role == RoleOffice
}

func (a Actor) IsOperator() bool {
	return a.Role == RoleOperator
}

// InDepartment reports whether the actor is assigned to d.
func (a Actor) InDepartment(d workflow.Department) bool {
	return a.Departments[d]
}

// DepartmentList returns the actor's departments in a stable order.
func (a Actor) DepartmentList() []workflow.Department {
	var out []workflow.Department
	for _, d := range workflow.Departments {
		if a.Departments[d] {
			out = append(out, d)
		}
	}
	return out
}
