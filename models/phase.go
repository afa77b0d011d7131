package models

import (
	"time"

	"gorm.io/datatypes"
)

// Phase is one production step of an order.
type Phase struct {
	ID              uint                        `gorm:"primaryKey" json:"id"`
	OrderID         uint                        `gorm:"not null;index" json:"order_id"`
	Order           *Order                      `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	Name            string                      `gorm:"size:100;not null;index" json:"name"`
	Position        int                         `gorm:"not null" json:"position"` // production sequence, 0-based
	Status          PhaseStatus                 `gorm:"size:20;not null;index" json:"status"`
	CompletedBy     *uint                       `json:"completed_by"`
	CompletedByUser *User                       `gorm:"foreignKey:CompletedBy" json:"completed_by_user,omitempty"`
	CompletedAt     *time.Time                  `json:"completed_at"`
	Notes           *string                     `gorm:"type:text" json:"notes"`
	Photos          datatypes.JSONSlice[string] `json:"photos"`
	CreatedAt       time.Time                   `json:"created_at"`
	UpdatedAt       time.Time                   `json:"updated_at"`
}

// TableName specifies the table name for the Phase model
func (Phase) TableName() string {
	return "phases"
}
