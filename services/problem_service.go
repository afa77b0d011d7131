package services

import (
	"context"
	"strings"

	"github.com/kendall-kelly/door-production-api/apperrors"
	"github.com/kendall-kelly/door-production-api/events"
	"github.com/kendall-kelly/door-production-api/models"
	"github.com/kendall-kelly/door-production-api/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	MaxProblemPhotos     = 10
	minProblemTextLength = 10
	maxProblemTextLength = 2000
)

// ReportProblemInput describes a newly found problem.
type ReportProblemInput struct {
	OrderID     uint               `json:"order_id" binding:"required"`
	Type        models.ProblemType `json:"type" binding:"required"`
	Description string             `json:"description" binding:"required,min=10,max=2000"`
	Severity    models.Severity    `json:"severity" binding:"required"`
	Phase       *string            `json:"phase" binding:"omitempty,max=100"`
	Photos      []string           `json:"photos" binding:"omitempty,max=10,dive,required"`
}

// ResolveProblemInput closes a problem.
type ResolveProblemInput struct {
	Resolution string   `json:"resolution" binding:"required,min=10,max=2000"`
	Photos     []string `json:"photos" binding:"omitempty,max=10,dive,required"`
}

// ProblemFilter narrows ListProblems. Resolved is "true", "false" or "all".
type ProblemFilter struct {
	Resolved string `form:"resolved"`
	Severity string `form:"severity"`
	OrderID  uint   `form:"order_id"`
	utils.Pagination
}

// ProblemService reports and resolves problems, blocking and unblocking
// their orders.
type ProblemService struct {
	base
}

// NewProblemService creates a ProblemService.
func NewProblemService(db *gorm.DB, publisher events.Publisher, logger *zap.Logger) *ProblemService {
	return &ProblemService{base: newBase(db, publisher, logger)}
}

// severityRank orders severities by impact in SQL.
const severityRank = "CASE problems.severity WHEN 'high_blocking' THEN 3 WHEN 'medium' THEN 2 ELSE 1 END"

// List returns problems, unresolved first, then the most severe, then the
// newest.
func (s *ProblemService) List(ctx context.Context, filter ProblemFilter) ([]models.Problem, utils.PaginationMeta, error) {
	page := filter.Pagination.Normalize(20, 100)

	query := s.db.WithContext(ctx).Model(&models.Problem{})
	switch filter.Resolved {
	case "", "all":
	case "true":
		query = query.Where("problems.resolved = ?", true)
	case "false":
		query = query.Where("problems.resolved = ?", false)
	default:
		return nil, utils.PaginationMeta{}, apperrors.Validation("resolved must be true, false or all")
	}
	if filter.Severity != "" {
		if !models.Severity(filter.Severity).Valid() {
			return nil, utils.PaginationMeta{}, apperrors.Validation("invalid severity %q", filter.Severity)
		}
		query = query.Where("problems.severity = ?", filter.Severity)
	}
	if filter.OrderID != 0 {
		query = query.Where("problems.order_id = ?", filter.OrderID)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, utils.PaginationMeta{}, dbError(err, "problem")
	}

	var problems []models.Problem
	err := page.Scope(query).
		Preload("Order").
		Preload("Reporter").
		Preload("Resolver").
		Order("problems.resolved ASC").
		Order(severityRank + " DESC").
		Order("problems.reported_at DESC").
		Order("problems.id DESC").
		Find(&problems).Error
	if err != nil {
		return nil, utils.PaginationMeta{}, dbError(err, "problem")
	}
	return problems, page.Meta(total), nil
}

// Get returns one problem with its order and the people involved.
func (s *ProblemService) Get(ctx context.Context, id uint) (*models.Problem, error) {
	var problem models.Problem
	err := s.db.WithContext(ctx).
		Preload("Order").
		Preload("Reporter").
		Preload("Resolver").
		First(&problem, id).Error
	if err != nil {
		return nil, dbError(err, "problem")
	}
	return &problem, nil
}

// Report records a problem. A high_blocking problem always leaves its order
// blocked, whatever the order's status was.
func (s *ProblemService) Report(ctx context.Context, actor models.Actor, in ReportProblemInput) (*models.Problem, error) {
	if !in.Type.Valid() {
		return nil, apperrors.Validation("invalid problem type %q", in.Type)
	}
	if !in.Severity.Valid() {
		return nil, apperrors.Validation("invalid severity %q", in.Severity)
	}
	description := strings.TrimSpace(in.Description)
	if err := checkProblemText("description", description); err != nil {
		return nil, err
	}
	if err := checkPhotos(in.Photos, MaxProblemPhotos); err != nil {
		return nil, err
	}

	now := s.now()
	var order models.Order
	problem := models.Problem{
		OrderID:          in.OrderID,
		Phase:            in.Phase,
		Type:             in.Type,
		Description:      description,
		Severity:         in.Severity,
		ReportedBy:       actor.UserID,
		ReportedAt:       now,
		Photos:           photoList(in.Photos),
		Resolved:         false,
		ResolutionPhotos: photoList(nil),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, in.OrderID).Error; err != nil {
			return dbError(err, "order")
		}
		if err := tx.Create(&problem).Error; err != nil {
			return dbError(err, "problem")
		}
		if in.Severity.Blocking() {
			if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).
				Update("status", models.StatusBlocked).Error; err != nil {
				return dbError(err, "order")
			}
		}
		return logActivity(tx, actor, &order.ID, models.ActionProblemReported, map[string]interface{}{
			"problem_id": problem.ID,
			"type":       problem.Type,
			"severity":   problem.Severity,
		})
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, events.ProblemReported{
		OrderRef:     events.RefFor(&order),
		ProblemID:    problem.ID,
		Type:         problem.Type,
		Severity:     problem.Severity,
		Phase:        problem.Phase,
		ReportedBy:   actor.UserID,
		ReportedAt:   now,
		OrderBlocked: problem.Severity.Blocking(),
	})
	s.logger.Info("Problem reported",
		zap.Uint("problem_id", problem.ID),
		zap.Uint("order_id", order.ID),
		zap.String("severity", string(problem.Severity)),
		zap.Uint("user_id", actor.UserID),
	)
	return s.Get(ctx, problem.ID)
}

// Resolve closes a problem. Only office staff or the reporter may do so.
// Resolving a high_blocking problem returns a blocked order to production
// without looking at other open blocking problems on the same order.
func (s *ProblemService) Resolve(ctx context.Context, actor models.Actor, id uint, in ResolveProblemInput) (*models.Problem, error) {
	resolution := strings.TrimSpace(in.Resolution)
	if err := checkProblemText("resolution", resolution); err != nil {
		return nil, err
	}
	if err := checkPhotos(in.Photos, MaxProblemPhotos); err != nil {
		return nil, err
	}

	now := s.now()
	var problem models.Problem
	unblocked := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Order").First(&problem, id).Error; err != nil {
			return dbError(err, "problem")
		}
		if problem.Resolved {
			return apperrors.Validation("problem already resolved")
		}
		if !actor.IsOffice() && actor.UserID != problem.ReportedBy {
			return apperrors.Unauthorized("only office staff or the reporter can resolve this problem")
		}

		res := tx.Model(&models.Problem{}).
			Where("id = ? AND resolved = ?", id, false).
			Updates(map[string]interface{}{
				"resolved":          true,
				"resolved_by":       actor.UserID,
				"resolved_at":       now,
				"resolution":        resolution,
				"resolution_photos": photoList(in.Photos),
			})
		if res.Error != nil {
			return dbError(res.Error, "problem")
		}
		if res.RowsAffected == 0 {
			return apperrors.Validation("problem already resolved")
		}

		if problem.Severity.Blocking() {
			res := tx.Model(&models.Order{}).
				Where("id = ? AND status = ?", problem.OrderID, models.StatusBlocked).
				Update("status", models.StatusInProduction)
			if res.Error != nil {
				return dbError(res.Error, "order")
			}
			unblocked = res.RowsAffected > 0
		}

		return logActivity(tx, actor, &problem.OrderID, models.ActionProblemResolved, map[string]interface{}{
			"problem_id":      problem.ID,
			"severity":        problem.Severity,
			"order_unblocked": unblocked,
		})
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, events.ProblemResolved{
		OrderRef:       events.RefFor(problem.Order),
		ProblemID:      problem.ID,
		Severity:       problem.Severity,
		ReportedBy:     problem.ReportedBy,
		ResolvedBy:     actor.UserID,
		ResolvedAt:     now,
		OrderUnblocked: unblocked,
	})
	s.logger.Info("Problem resolved",
		zap.Uint("problem_id", problem.ID),
		zap.Uint("order_id", problem.OrderID),
		zap.Bool("order_unblocked", unblocked),
		zap.Uint("user_id", actor.UserID),
	)
	return s.Get(ctx, problem.ID)
}

func checkProblemText(field, text string) error {
	if n := len([]rune(text)); n < minProblemTextLength || n > maxProblemTextLength {
		return apperrors.Validation("%s must be between %d and %d characters", field, minProblemTextLength, maxProblemTextLength)
	}
	return nil
}
