package services

import (
	"context"

	"github.com/kendall-kelly/door-production-api/apperrors"
	"github.com/kendall-kelly/door-production-api/events"
	"github.com/kendall-kelly/door-production-api/models"
	"github.com/kendall-kelly/door-production-api/workflow"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MaxPhasePhotos limits the photos attached when completing a phase.
const MaxPhasePhotos = 5

// CompletePhaseInput carries the optional completion details.
type CompletePhaseInput struct {
	Notes  *string  `json:"notes" binding:"omitempty,max=1000"`
	Photos []string `json:"photos" binding:"omitempty,max=5,dive,required"`
}

// PhaseService completes phases and answers phase queries.
type PhaseService struct {
	base
}

// NewPhaseService creates a PhaseService.
func NewPhaseService(db *gorm.DB, publisher events.Publisher, logger *zap.Logger) *PhaseService {
	return &PhaseService{base: newBase(db, publisher, logger)}
}

// Complete marks a to-do phase completed on behalf of an operator assigned
// to the phase's department. Phases without a department only need the
// operator role.
func (s *PhaseService) Complete(ctx context.Context, actor models.Actor, phaseID uint, in CompletePhaseInput) (*models.Phase, error) {
	if err := requireOperator(actor, "complete phases"); err != nil {
		return nil, err
	}
	if in.Notes != nil && len(*in.Notes) > 1000 {
		return nil, apperrors.Validation("notes must be at most 1000 characters")
	}
	if err := checkPhotos(in.Photos, MaxPhasePhotos); err != nil {
		return nil, err
	}

	now := s.now()
	var phase models.Phase
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Order").First(&phase, phaseID).Error; err != nil {
			return dbError(err, "phase")
		}
		if phase.Status == models.PhaseCompleted {
			return apperrors.Validation("phase already completed")
		}
		if dept, gated := workflow.DepartmentFor(phase.Name); gated && !actor.InDepartment(dept) {
			return apperrors.Validation("you are not assigned to department %q required for this phase", dept)
		}

		updates := map[string]interface{}{
			"status":       models.PhaseCompleted,
			"completed_by": actor.UserID,
			"completed_at": now,
		}
		if in.Notes != nil {
			updates["notes"] = *in.Notes
		}
		if in.Photos != nil {
			updates["photos"] = photoList(in.Photos)
		}

		res := tx.Model(&models.Phase{}).
			Where("id = ? AND status = ?", phase.ID, models.PhaseToDo).
			Updates(updates)
		if res.Error != nil {
			return dbError(res.Error, "phase")
		}
		if res.RowsAffected == 0 {
			return apperrors.Validation("phase already completed")
		}

		return logActivity(tx, actor, &phase.OrderID, models.ActionPhaseCompleted, map[string]interface{}{
			"phase_id": phase.ID,
			"phase":    phase.Name,
		})
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, events.PhaseCompleted{
		OrderRef:    events.RefFor(phase.Order),
		PhaseID:     phase.ID,
		Phase:       phase.Name,
		CompletedBy: actor.UserID,
		CompletedAt: now,
	})
	s.logger.Info("Phase completed",
		zap.Uint("phase_id", phase.ID),
		zap.String("phase", phase.Name),
		zap.Uint("order_id", phase.OrderID),
		zap.Uint("user_id", actor.UserID),
	)

	var completed models.Phase
	if err := s.db.WithContext(ctx).Preload("CompletedByUser").First(&completed, phase.ID).Error; err != nil {
		return nil, dbError(err, "phase")
	}
	return &completed, nil
}

// ListForOrder returns an order's phases in production sequence.
func (s *PhaseService) ListForOrder(ctx context.Context, orderID uint) ([]models.Phase, error) {
	if err := ensureOrderExists(s.db.WithContext(ctx), orderID); err != nil {
		return nil, err
	}

	var phases []models.Phase
	if err := s.db.WithContext(ctx).
		Preload("CompletedByUser").
		Where("order_id = ?", orderID).
		Order("position ASC, id ASC").
		Find(&phases).Error; err != nil {
		return nil, dbError(err, "phase")
	}
	return phases, nil
}

// ListMine returns the phases an operator may work on: those routed to one
// of their departments plus those with no department, on active orders
// only. Urgent orders come first, then the earliest deadline, then the
// oldest order.
func (s *PhaseService) ListMine(ctx context.Context, actor models.Actor, completed bool) ([]models.Phase, error) {
	if err := requireOperator(actor, "list their phases"); err != nil {
		return nil, err
	}

	names := append(workflow.PhasesForDepartments(actor.DepartmentList()), workflow.UngatedPhases()...)
	status := models.PhaseToDo
	if completed {
		status = models.PhaseCompleted
	}

	var phases []models.Phase
	err := s.db.WithContext(ctx).
		Select("phases.*").
		Joins("JOIN orders ON orders.id = phases.order_id").
		Where("phases.name IN ? AND phases.status = ? AND orders.status IN ?", names, status, models.ActiveStatuses).
		Order("orders.urgent DESC").
		Order("CASE WHEN orders.deadline IS NULL THEN 1 ELSE 0 END").
		Order("orders.deadline ASC").
		Order("orders.created_at ASC").
		Order("phases.position ASC").
		Preload("Order").
		Preload("CompletedByUser").
		Find(&phases).Error
	if err != nil {
		return nil, dbError(err, "phase")
	}
	return phases, nil
}

func ensureOrderExists(db *gorm.DB, orderID uint) error {
	var count int64
	if err := db.Model(&models.Order{}).Where("id = ?", orderID).Count(&count).Error; err != nil {
		return dbError(err, "order")
	}
	if count == 0 {
		return apperrors.NotFound("order not found")
	}
	return nil
}
