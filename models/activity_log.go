package models

import (
	"time"

	"gorm.io/datatypes"
)

// Audit actions.
const (
	ActionOrderCreated      = "order_created"
	ActionOrderUpdated      = "order_updated"
	ActionOrderDeleted      = "order_deleted"
	ActionPhaseCompleted    = "phase_completed"
	ActionMaterialUpdated   = "material_updated"
	ActionMaterialOrdered   = "material_ordered"
	ActionMaterialArrived   = "material_arrived"
	ActionProblemReported   = "problem_reported"
	ActionProblemResolved   = "problem_resolved"
	ActionNoteAdded         = "note_added"
	ActionSubframePrepared  = "subframe_prepared"
	ActionSubframeDelivered = "subframe_delivered"
	ActionUserRegistered    = "user_registered"
	ActionUserUpdated       = "user_updated"
)

// ActivityLog is an audit row written in the same transaction as the change
// it records.
type ActivityLog struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	UserID    uint              `gorm:"not null;index" json:"user_id"`
	OrderID   *uint             `gorm:"index" json:"order_id"`
	Order     *Order            `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"-"`
	Action    string            `gorm:"size:50;not null;index" json:"action"`
	Details   datatypes.JSONMap `json:"details"`
	CreatedAt time.Time         `json:"created_at"`
}

// TableName specifies the table name for the ActivityLog model
func (ActivityLog) TableName() string {
	return "activity_logs"
}
