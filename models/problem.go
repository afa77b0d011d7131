package models

import (
	"time"

	"gorm.io/datatypes"
)

// Problem is a quality or process issue raised against an order.
type Problem struct {
	ID               uint                        `gorm:"primaryKey" json:"id"`
	OrderID          uint                        `gorm:"not null;index" json:"order_id"`
	Order            *Order                      `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	Phase            *string                     `gorm:"size:100" json:"phase"`
	Type             ProblemType                 `gorm:"size:40;not null" json:"type"`
	Description      string                      `gorm:"type:text;not null" json:"description"`
	Severity         Severity                    `gorm:"size:20;not null;index" json:"severity"`
	ReportedBy       uint                        `gorm:"not null;index" json:"reported_by"`
	Reporter         *User                       `gorm:"foreignKey:ReportedBy" json:"reporter,omitempty"`
	ReportedAt       time.Time                   `gorm:"not null" json:"reported_at"`
	Photos           datatypes.JSONSlice[string] `json:"photos"`
	Resolved         bool                        `gorm:"not null;index" json:"resolved"`
	ResolvedBy       *uint                       `json:"resolved_by"`
	Resolver         *User                       `gorm:"foreignKey:ResolvedBy" json:"resolver,omitempty"`
	ResolvedAt       *time.Time                  `json:"resolved_at"`
	Resolution       *string                     `gorm:"type:text" json:"resolution"`
	ResolutionPhotos datatypes.JSONSlice[string] `json:"resolution_photos"`
	CreatedAt        time.Time                   `json:"created_at"`
	UpdatedAt        time.Time                   `json:"updated_at"`
}

// TableName specifies the table name for the Problem model
func (Problem) TableName() string {
	return "problems"
}
