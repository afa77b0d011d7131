package models

import (
	"time"

	"gorm.io/datatypes"
)

// Note is an append-only comment on an order
type Note struct {
	ID        uint                        `gorm:"primaryKey" json:"id"`
	OrderID   uint                        `gorm:"not null;index" json:"order_id"`
	AuthorID  uint                        `gorm:"not null;index" json:"author_id"`
	Author    *User                       `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Text      string                      `gorm:"type:text;not null" json:"text"`
	Photos    datatypes.JSONSlice[string] `json:"photos"`
	CreatedAt time.Time                   `json:"created_at"`
}

// TableName specifies the table name for the Note model
func (Note) TableName() string {
	return "notes"
}
