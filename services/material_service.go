package services

import (
	"context"
	"time"

	"github.com/kendall-kelly/door-production-api/apperrors"
	"github.com/kendall-kelly/door-production-api/events"
	"github.com/kendall-kelly/door-production-api/models"
	"github.com/kendall-kelly/door-production-api/utils"
	"github.com/kendall-kelly/door-production-api/workflow"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UpdateMaterialInput edits the descriptive fields of a material.
type UpdateMaterialInput struct {
	Notes            utils.Optional[string] `json:"notes"`
	Dimensions       utils.Optional[string] `json:"dimensions"`
	ExpectedDelivery utils.Optional[string] `json:"expected_delivery"`
	Required         utils.Optional[bool]   `json:"required"`
}

// OrderMaterialInput marks a material as ordered from the supplier. When
// ExpectedDelivery is omitted the lead-time suggestion is used.
type OrderMaterialInput struct {
	OrderDate        string  `json:"order_date" binding:"required,dateonly"`
	ExpectedDelivery *string `json:"expected_delivery" binding:"omitempty,dateonly"`
	Notes            *string `json:"notes" binding:"omitempty,max=500"`
}

// ReceiveMaterialInput records a material's arrival.
type ReceiveMaterialInput struct {
	ArrivalDate string  `json:"arrival_date" binding:"required,dateonly"`
	Notes       *string `json:"notes" binding:"omitempty,max=500"`
}

// MaterialGroup is the materials still to order for one order.
type MaterialGroup struct {
	OrderID            uint              `json:"order_id"`
	ConfirmationNumber string            `json:"confirmation_number"`
	ClientName         string            `json:"client_name"`
	Reference          *string           `json:"reference,omitempty"`
	Urgent             bool              `json:"urgent"`
	Deadline           *time.Time        `json:"deadline"`
	Materials          []models.Material `json:"materials"`
}

// MaterialsToOrder is the office's purchasing list.
type MaterialsToOrder struct {
	Total  int             `json:"total"`
	Orders []MaterialGroup `json:"orders"`
}

// DeliverySuggestion is the lead-time based expected delivery for a material.
type DeliverySuggestion struct {
	MaterialID       uint   `json:"material_id"`
	LeadTimeDays     int    `json:"lead_time_days"`
	OrderDate        string `json:"order_date"`
	ExpectedDelivery string `json:"expected_delivery"`
}

// MaterialService drives materials through not ordered, ordered, arrived.
type MaterialService struct {
	base
}

// NewMaterialService creates a MaterialService.
func NewMaterialService(db *gorm.DB, publisher events.Publisher, logger *zap.Logger) *MaterialService {
	return &MaterialService{base: newBase(db, publisher, logger)}
}

// Get returns one material.
func (s *MaterialService) Get(ctx context.Context, id uint) (*models.Material, error) {
	var material models.Material
	if err := s.db.WithContext(ctx).First(&material, id).Error; err != nil {
		return nil, dbError(err, "material")
	}
	return &material, nil
}

// ListForOrder returns an order's materials.
func (s *MaterialService) ListForOrder(ctx context.Context, orderID uint) ([]models.Material, error) {
	if err := ensureOrderExists(s.db.WithContext(ctx), orderID); err != nil {
		return nil, err
	}

	var materials []models.Material
	if err := s.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id ASC").Find(&materials).Error; err != nil {
		return nil, dbError(err, "material")
	}
	return materials, nil
}

// ListToOrder groups required, not yet ordered materials by order, urgent
// orders first and then newest first.
func (s *MaterialService) ListToOrder(ctx context.Context) (*MaterialsToOrder, error) {
	var materials []models.Material
	err := s.db.WithContext(ctx).
		Select("materials.*").
		Joins("JOIN orders ON orders.id = materials.order_id").
		Where("materials.required = ? AND materials.ordered = ?", true, false).
		Order("orders.urgent DESC").
		Order("orders.created_at DESC").
		Order("materials.id ASC").
		Preload("Order").
		Find(&materials).Error
	if err != nil {
		return nil, dbError(err, "material")
	}

	return &MaterialsToOrder{Total: len(materials), Orders: groupByOrder(materials)}, nil
}

// groupByOrder keeps the first-seen order of groups.
func groupByOrder(materials []models.Material) []MaterialGroup {
	groups := []MaterialGroup{}
	index := map[uint]int{}
	for _, m := range materials {
		i, ok := index[m.OrderID]
		if !ok {
			g := MaterialGroup{OrderID: m.OrderID}
			if m.Order != nil {
				g.ConfirmationNumber = m.Order.ConfirmationNumber
				g.ClientName = m.Order.ClientName
				g.Reference = m.Order.Reference
				g.Urgent = m.Order.Urgent
				g.Deadline = m.Order.Deadline
			}
			groups = append(groups, g)
			i = len(groups) - 1
			index[m.OrderID] = i
		}
		m.Order = nil
		groups[i].Materials = append(groups[i].Materials, m)
	}
	return groups
}

// Update edits notes, dimensions, expected delivery or the required flag.
func (s *MaterialService) Update(ctx context.Context, actor models.Actor, id uint, in UpdateMaterialInput) (*models.Material, error) {
	if err := requireOffice(actor, "edit materials"); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Notes.Set {
		if len(in.Notes.Or("")) > 500 {
			return nil, apperrors.Validation("notes must be at most 500 characters")
		}
		updates["notes"] = in.Notes.Value
	}
	if in.Dimensions.Set {
		if len(in.Dimensions.Or("")) > 100 {
			return nil, apperrors.Validation("dimensions must be at most 100 characters")
		}
		updates["dimensions"] = in.Dimensions.Value
	}
	if in.ExpectedDelivery.Set {
		d, err := utils.ParseDatePtr(in.ExpectedDelivery.Value)
		if err != nil {
			return nil, apperrors.Validation("expected_delivery: %s", err.Error())
		}
		updates["expected_delivery"] = d
	}
	if in.Required.Set {
		if in.Required.IsNull() {
			return nil, apperrors.Validation("required cannot be null")
		}
		updates["required"] = *in.Required.Value
	}
	if len(updates) == 0 {
		return nil, apperrors.Validation("no fields to update")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var material models.Material
		if err := tx.First(&material, id).Error; err != nil {
			return dbError(err, "material")
		}
		if err := tx.Model(&material).Updates(updates).Error; err != nil {
			return dbError(err, "material")
		}
		return logActivity(tx, actor, &material.OrderID, models.ActionMaterialUpdated, map[string]interface{}{
			"material_id": material.ID,
			"fields":      sortedKeys(updates),
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Material updated", zap.Uint("material_id", id), zap.Uint("user_id", actor.UserID))
	return s.Get(ctx, id)
}

// Order marks a material as ordered. It fails once the material is ordered
// or arrived.
func (s *MaterialService) Order(ctx context.Context, actor models.Actor, id uint, in OrderMaterialInput) (*models.Material, error) {
	if err := requireOffice(actor, "order materials"); err != nil {
		return nil, err
	}

	orderDate, err := utils.ParseDate(in.OrderDate)
	if err != nil {
		return nil, apperrors.Validation("order_date: %s", err.Error())
	}
	expected, err := utils.ParseDatePtr(in.ExpectedDelivery)
	if err != nil {
		return nil, apperrors.Validation("expected_delivery: %s", err.Error())
	}
	if expected != nil && expected.Before(orderDate) {
		return nil, apperrors.Validation("expected delivery must be on or after the order date")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var material models.Material
		if err := tx.First(&material, id).Error; err != nil {
			return dbError(err, "material")
		}
		if material.Arrived {
			return apperrors.Validation("material already arrived")
		}
		if material.Ordered {
			return apperrors.Validation("material already ordered")
		}

		if expected == nil {
			suggested, tracked := workflow.SuggestDelivery(material.Type, material.SubtypeValue(), orderDate)
			if !tracked {
				return apperrors.Validation("stock items are not ordered")
			}
			expected = &suggested
		}

		updates := map[string]interface{}{
			"ordered":           true,
			"ordered_on":        orderDate,
			"expected_delivery": *expected,
		}
		if in.Notes != nil {
			updates["notes"] = *in.Notes
		}

		res := tx.Model(&models.Material{}).
			Where("id = ? AND ordered = ? AND arrived = ?", id, false, false).
			Updates(updates)
		if res.Error != nil {
			return dbError(res.Error, "material")
		}
		if res.RowsAffected == 0 {
			return apperrors.Validation("material already ordered")
		}

		return logActivity(tx, actor, &material.OrderID, models.ActionMaterialOrdered, map[string]interface{}{
			"material_id":       material.ID,
			"type":              material.Type,
			"expected_delivery": utils.FormatDate(*expected),
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Material ordered", zap.Uint("material_id", id), zap.Uint("user_id", actor.UserID))
	return s.Get(ctx, id)
}

// Receive records that an ordered material has arrived.
func (s *MaterialService) Receive(ctx context.Context, actor models.Actor, id uint, in ReceiveMaterialInput) (*models.Material, error) {
	arrival, err := utils.ParseDate(in.ArrivalDate)
	if err != nil {
		return nil, apperrors.Validation("arrival_date: %s", err.Error())
	}

	var material models.Material
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Order").First(&material, id).Error; err != nil {
			return dbError(err, "material")
		}
		if material.Arrived {
			return apperrors.Validation("material already arrived")
		}
		if !material.Ordered {
			return apperrors.Validation("material must be ordered before it can arrive")
		}

		updates := map[string]interface{}{
			"arrived":    true,
			"arrived_on": arrival,
		}
		if in.Notes != nil {
			updates["notes"] = *in.Notes
		}

		res := tx.Model(&models.Material{}).
			Where("id = ? AND ordered = ? AND arrived = ?", id, true, false).
			Updates(updates)
		if res.Error != nil {
			return dbError(res.Error, "material")
		}
		if res.RowsAffected == 0 {
			return apperrors.Validation("material already arrived")
		}

		return logActivity(tx, actor, &material.OrderID, models.ActionMaterialArrived, map[string]interface{}{
			"material_id": material.ID,
			"type":        material.Type,
			"arrived_on":  utils.FormatDate(arrival),
		})
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, events.MaterialArrived{
		OrderRef:   events.RefFor(material.Order),
		MaterialID: material.ID,
		Type:       material.Type,
		Subtype:    material.Subtype,
		ArrivedOn:  arrival,
		ReceivedBy: actor.UserID,
	})
	s.logger.Info("Material arrived", zap.Uint("material_id", id), zap.Uint("user_id", actor.UserID))
	return s.Get(ctx, id)
}

// SuggestDelivery returns the lead-time based expected delivery for a
// material ordered on orderDate, today when empty.
func (s *MaterialService) SuggestDelivery(ctx context.Context, id uint, orderDate string) (*DeliverySuggestion, error) {
	material, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	date := utils.DateOnly(s.now())
	if orderDate != "" {
		if date, err = utils.ParseDate(orderDate); err != nil {
			return nil, apperrors.Validation("order_date: %s", err.Error())
		}
	}

	days, tracked := workflow.LeadTimeDays(material.Type, material.SubtypeValue())
	if !tracked {
		return nil, apperrors.Validation("stock items have no lead time")
	}

	return &DeliverySuggestion{
		MaterialID:       material.ID,
		LeadTimeDays:     days,
		OrderDate:        utils.FormatDate(date),
		ExpectedDelivery: utils.FormatDate(date.AddDate(0, 0, days)),
	}, nil
}
