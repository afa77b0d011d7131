// Package events carries domain events from the services to their
// listeners: connected WebSocket clients and a Redis pub/sub channel.
package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/kendall-kelly/door-production-api/models"
)

// Event names.
const (
	NamePhaseCompleted    = "phase_completed"
	NameMaterialArrived   = "material_arrived"
	NameProblemReported   = "problem_reported"
	NameProblemResolved   = "problem_resolved"
	NameSubframePrepared  = "subframe_prepared"
	NameSubframeDelivered = "subframe_delivered"
)

// Event is anything published on the bus.
type Event interface {
	Name() string
}

// OrderRef identifies the order an event belongs to.
type OrderRef struct {
	OrderID            uint   `json:"order_id"`
	ConfirmationNumber string `json:"confirmation_number"`
	ClientName         string `json:"client_name"`
}

// RefFor builds the reference for order.
func RefFor(order *models.Order) OrderRef {
	return OrderRef{
		OrderID:            order.ID,
		ConfirmationNumber: order.ConfirmationNumber,
		ClientName:         order.ClientName,
	}
}

type PhaseCompleted struct {
	OrderRef
	PhaseID     uint      `json:"phase_id"`
	Phase       string    `json:"phase"`
	CompletedBy uint      `json:"completed_by"`
	CompletedAt time.Time `json:"completed_at"`
}

func (PhaseCompleted) Name() string { return NamePhaseCompleted }

type MaterialArrived struct {
	OrderRef
	MaterialID uint      `json:"material_id"`
	Type       string    `json:"type"`
	Subtype    *string   `json:"subtype"`
	ArrivedOn  time.Time `json:"arrived_on"`
	ReceivedBy uint      `json:"received_by"`
}

func (MaterialArrived) Name() string { return NameMaterialArrived }

type ProblemReported struct {
	OrderRef
	ProblemID    uint               `json:"problem_id"`
	Type         models.ProblemType `json:"type"`
	Severity     models.Severity    `json:"severity"`
	Phase        *string            `json:"phase"`
	ReportedBy   uint               `json:"reported_by"`
	ReportedAt   time.Time          `json:"reported_at"`
	OrderBlocked bool               `json:"order_blocked"`
}

func (ProblemReported) Name() string { return NameProblemReported }

type ProblemResolved struct {
	OrderRef
	ProblemID      uint            `json:"problem_id"`
	Severity       models.Severity `json:"severity"`
	ReportedBy     uint            `json:"reported_by"`
	ResolvedBy     uint            `json:"resolved_by"`
	ResolvedAt     time.Time       `json:"resolved_at"`
	OrderUnblocked bool            `json:"order_unblocked"`
}

func (ProblemResolved) Name() string { return NameProblemResolved }

type SubframePrepared struct {
	OrderRef
	PreparedBy uint      `json:"prepared_by"`
	PreparedAt time.Time `json:"prepared_at"`
}

func (SubframePrepared) Name() string { return NameSubframePrepared }

type SubframeDelivered struct {
	OrderRef
	DeliveredBy uint      `json:"delivered_by"`
	DeliveredAt time.Time `json:"delivered_at"`
}

func (SubframeDelivered) Name() string { return NameSubframeDelivered }

// Envelope is the wire form of an event sent to WebSocket clients and Redis.
type Envelope struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Payload   Event     `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEnvelope wraps e with a fresh id and timestamp.
func NewEnvelope(e Event) Envelope {
	return Envelope{
		ID:        uuid.NewString(),
		Type:      e.Name(),
		Payload:   e,
		Timestamp: time.Now().UTC(),
	}
}
