package models

import (
	"time"

	"github.com/kendall-kelly/door-production-api/workflow"
)

// Order is a customer production order for one or more doors. It owns its
// phases, materials, problems and notes.
type Order struct {
	ID                 uint               `gorm:"primaryKey" json:"id"`
	ConfirmationNumber string             `gorm:"size:20;uniqueIndex;not null" json:"confirmation_number"`
	ClientName         string             `gorm:"size:255;not null;index" json:"client_name"`
	Reference          *string            `gorm:"size:255" json:"reference"`
	OrderDate          time.Time          `gorm:"type:date;not null" json:"order_date"`
	DoorQuantity       int                `gorm:"not null;check:door_quantity > 0" json:"door_quantity"`
	FrameType          workflow.FrameType `gorm:"size:40;not null" json:"frame_type"`
	InteriorColour     *string            `gorm:"size:50" json:"interior_colour"`
	ExteriorColour     *string            `gorm:"size:50" json:"exterior_colour"`
	PaintRequired      bool               `gorm:"not null" json:"paint_required"`
	Urgent             bool               `gorm:"not null;index" json:"urgent"`
	Deadline           *time.Time         `gorm:"type:date" json:"deadline"` // required when urgent
	PDFPath            *string            `json:"pdf_path"`
	GeneralNotes       *string            `gorm:"type:text" json:"general_notes"`
	Status             OrderStatus        `gorm:"size:20;not null;index" json:"status"`

	// Early subframe delivery
	EarlySubframe        bool                  `gorm:"not null" json:"early_subframe"`
	SubframeDeliveryType *SubframeDeliveryType `gorm:"size:20" json:"subframe_delivery_type"`
	SubframeTargetDate   *time.Time            `gorm:"type:date" json:"subframe_target_date"`
	SubframePrepared     bool                  `gorm:"not null" json:"subframe_prepared"`
	SubframePreparedBy   *uint                 `json:"subframe_prepared_by"`
	SubframePreparedAt   *time.Time            `json:"subframe_prepared_at"`
	SubframeDelivered    bool                  `gorm:"not null" json:"subframe_delivered"`
	SubframeDeliveredBy  *uint                 `json:"subframe_delivered_by"`
	SubframeDeliveredAt  *time.Time            `json:"subframe_delivered_at"`
	SubframePreparer     *User                 `gorm:"foreignKey:SubframePreparedBy" json:"subframe_preparer,omitempty"`
	SubframeDeliverer    *User                 `gorm:"foreignKey:SubframeDeliveredBy" json:"subframe_deliverer,omitempty"`

	Phases    []Phase    `gorm:"constraint:OnDelete:CASCADE" json:"phases,omitempty"`
	Materials []Material `gorm:"constraint:OnDelete:CASCADE" json:"materials,omitempty"`
	Problems  []Problem  `gorm:"constraint:OnDelete:CASCADE" json:"problems,omitempty"`
	Notes     []Note     `gorm:"constraint:OnDelete:CASCADE" json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// HasCompletedPhase reports whether any loaded phase is completed.
func (o *Order) HasCompletedPhase() bool {
	for _, p := range o.Phases {
		if p.Status == PhaseCompleted {
			return true
		}
	}
	return false
}

// Colours returns the frame colours with nil treated as empty.
func (o *Order) Colours() (exterior, interior string) {
	if o.ExteriorColour != nil {
		exterior = *o.ExteriorColour
	}
	if o.InteriorColour != nil {
		interior = *o.InteriorColour
	}
	return exterior, interior
}
