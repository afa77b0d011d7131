package models

import "time"

// Material is a supply item an order depends on. It moves from not ordered
// to ordered to arrived, never backwards.
type Material struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	OrderID          uint       `gorm:"not null;index" json:"order_id"`
	Order            *Order     `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	Type             string     `gorm:"size:50;not null" json:"type"`
	Subtype          *string    `gorm:"size:50" json:"subtype"`
	Required         bool       `gorm:"not null;index" json:"required"` // non-required items are informational only
	Ordered          bool       `gorm:"not null;index" json:"ordered"`
	Arrived          bool       `gorm:"not null;index" json:"arrived"`
	OrderedOn        *time.Time `gorm:"type:date" json:"ordered_on"`
	ExpectedDelivery *time.Time `gorm:"type:date" json:"expected_delivery"`
	ArrivedOn        *time.Time `gorm:"type:date" json:"arrived_on"`
	Notes            *string    `gorm:"type:text" json:"notes"`
	Dimensions       *string    `gorm:"size:100" json:"dimensions"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// TableName specifies the table name for the Material model
func (Material) TableName() string {
	return "materials"
}

// SubtypeValue returns the subtype or an empty string.
func (m *Material) SubtypeValue() string {
	if m.Subtype == nil {
		return ""
	}
	return *m.Subtype
}
