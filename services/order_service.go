package services

import (
	"context"
	"strings"

	"github.com/kendall-kelly/door-production-api/apperrors"
	"github.com/kendall-kelly/door-production-api/events"
	"github.com/kendall-kelly/door-production-api/models"
	"github.com/kendall-kelly/door-production-api/utils"
	"github.com/kendall-kelly/door-production-api/workflow"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MaterialInput seeds a tracked material when an order is created.
type MaterialInput struct {
	Type       string  `json:"type" binding:"required,max=50"`
	Subtype    *string `json:"subtype" binding:"omitempty,max=50"`
	Notes      *string `json:"notes" binding:"omitempty,max=500"`
	Dimensions *string `json:"dimensions" binding:"omitempty,max=100"`
}

// CreateOrderInput is the body of an order creation request. It may come
// from a person or from a pre-filled document extraction; both are treated
// alike.
type CreateOrderInput struct {
	ConfirmationNumber   string                       `json:"confirmation_number" binding:"required,max=20"`
	ClientName           string                       `json:"client_name" binding:"required,max=255"`
	Reference            *string                      `json:"reference" binding:"omitempty,max=255"`
	OrderDate            string                       `json:"order_date" binding:"required,dateonly"`
	DoorQuantity         int                          `json:"door_quantity" binding:"omitempty,gt=0"`
	FrameType            workflow.FrameType           `json:"frame_type" binding:"required"`
	InteriorColour       *string                      `json:"interior_colour" binding:"omitempty,max=50"`
	ExteriorColour       *string                      `json:"exterior_colour" binding:"omitempty,max=50"`
	PaintRequired        *bool                        `json:"paint_required"`
	Urgent               bool                         `json:"urgent"`
	Deadline             *string                      `json:"deadline" binding:"omitempty,dateonly"`
	EarlySubframe        bool                         `json:"early_subframe"`
	SubframeDeliveryType *models.SubframeDeliveryType `json:"subframe_delivery_type"`
	SubframeTargetDate   *string                      `json:"subframe_target_date" binding:"omitempty,dateonly"`
	PDFPath              *string                      `json:"pdf_path"`
	GeneralNotes         *string                      `json:"general_notes"`
	Materials            []MaterialInput              `json:"materials" binding:"omitempty,dive"`
}

// UpdateOrderInput is a partial update. Absent keys are left alone; null
// clears nullable fields.
type UpdateOrderInput struct {
	ClientName           utils.Optional[string]                      `json:"client_name"`
	Reference            utils.Optional[string]                      `json:"reference"`
	OrderDate            utils.Optional[string]                      `json:"order_date"`
	DoorQuantity         utils.Optional[int]                         `json:"door_quantity"`
	FrameType            utils.Optional[workflow.FrameType]          `json:"frame_type"`
	InteriorColour       utils.Optional[string]                      `json:"interior_colour"`
	ExteriorColour       utils.Optional[string]                      `json:"exterior_colour"`
	PaintRequired        utils.Optional[bool]                        `json:"paint_required"`
	Urgent               utils.Optional[bool]                        `json:"urgent"`
	Deadline             utils.Optional[string]                      `json:"deadline"`
	EarlySubframe        utils.Optional[bool]                        `json:"early_subframe"`
	SubframeDeliveryType utils.Optional[models.SubframeDeliveryType] `json:"subframe_delivery_type"`
	SubframeTargetDate   utils.Optional[string]                      `json:"subframe_target_date"`
	PDFPath              utils.Optional[string]                      `json:"pdf_path"`
	GeneralNotes         utils.Optional[string]                      `json:"general_notes"`
	Status               utils.Optional[models.OrderStatus]          `json:"status"`
}

// OrderFilter selects orders for listing and export.
type OrderFilter struct {
	Status models.OrderStatus
	Urgent *bool
	Search string
	utils.Pagination
}

// OrderService owns the order lifecycle: creation with its phase plan,
// edits, deletion and the early subframe sub-workflow.
type OrderService struct {
	base
}

// NewOrderService creates an OrderService.
func NewOrderService(db *gorm.DB, publisher events.Publisher, logger *zap.Logger) *OrderService {
	return &OrderService{base: newBase(db, publisher, logger)}
}

// Create validates in, generates the phase plan and persists the order with
// its phases and materials in one transaction.
func (s *OrderService) Create(ctx context.Context, actor models.Actor, in CreateOrderInput) (*models.Order, error) {
	if err := requireOffice(actor, "create orders"); err != nil {
		return nil, err
	}

	order, err := in.toOrder()
	if err != nil {
		return nil, err
	}

	names, err := workflow.PlanPhases(order.FrameType, order.PaintRequired)
	if err != nil {
		return nil, apperrors.Validation("%s", err.Error())
	}

	materials, err := buildMaterials(in.Materials)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Order{}).Where("confirmation_number = ?", order.ConfirmationNumber).Count(&existing).Error; err != nil {
			return dbError(err, "order")
		}
		if existing > 0 {
			return apperrors.Conflict("confirmation number %q already exists", order.ConfirmationNumber)
		}

		if err := tx.Create(order).Error; err != nil {
			return dbError(err, "order")
		}

		phases := buildPhases(order.ID, names)
		if err := tx.Create(&phases).Error; err != nil {
			return dbError(err, "phase")
		}

		if len(materials) > 0 {
			for i := range materials {
				materials[i].OrderID = order.ID
			}
			if err := tx.Create(&materials).Error; err != nil {
				return dbError(err, "material")
			}
		}

		return logActivity(tx, actor, &order.ID, models.ActionOrderCreated, map[string]interface{}{
			"confirmation_number": order.ConfirmationNumber,
			"client_name":         order.ClientName,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order created",
		zap.Uint("order_id", order.ID),
		zap.String("confirmation_number", order.ConfirmationNumber),
		zap.Uint("user_id", actor.UserID),
	)
	return s.Get(ctx, order.ID)
}

// Update applies a partial edit. Changing the frame type regenerates the
// phase plan, which is only allowed while no phase is completed.
func (s *OrderService) Update(ctx context.Context, actor models.Actor, id uint, in UpdateOrderInput) (*models.Order, error) {
	if err := requireOffice(actor, "edit orders"); err != nil {
		return nil, err
	}

	var changed []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, id).Error; err != nil {
			return dbError(err, "order")
		}

		updates, regenerate, err := in.changes(&order)
		if err != nil {
			return err
		}
		if len(updates) == 0 {
			return apperrors.Validation("no fields to update")
		}

		if regenerate {
			var completed int64
			if err := tx.Model(&models.Phase{}).
				Where("order_id = ? AND status = ?", order.ID, models.PhaseCompleted).
				Count(&completed).Error; err != nil {
				return dbError(err, "phase")
			}
			if completed > 0 {
				return apperrors.Validation("cannot change frame type: some phases are already completed")
			}

			frame := updates["frame_type"].(workflow.FrameType)
			paint := order.PaintRequired
			if p, ok := updates["paint_required"].(bool); ok {
				paint = p
			}
			names, err := workflow.PlanPhases(frame, paint)
			if err != nil {
				return apperrors.Validation("%s", err.Error())
			}
			if err := tx.Where("order_id = ?", order.ID).Delete(&models.Phase{}).Error; err != nil {
				return dbError(err, "phase")
			}
			phases := buildPhases(order.ID, names)
			if err := tx.Create(&phases).Error; err != nil {
				return dbError(err, "phase")
			}
		}

		// Scoped by id so no loaded association is saved back.
		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(updates).Error; err != nil {
			return dbError(err, "order")
		}

		changed = sortedKeys(updates)

		return logActivity(tx, actor, &order.ID, models.ActionOrderUpdated, map[string]interface{}{
			"fields": changed,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order updated",
		zap.Uint("order_id", id),
		zap.Strings("fields", changed),
		zap.Uint("user_id", actor.UserID),
	)
	return s.Get(ctx, id)
}

// Delete removes an order and everything it owns. Shipped orders are kept.
func (s *OrderService) Delete(ctx context.Context, actor models.Actor, id uint) error {
	if err := requireOffice(actor, "delete orders"); err != nil {
		return err
	}

	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, id).Error; err != nil {
			return dbError(err, "order")
		}
		if order.Status == models.StatusShipped {
			return apperrors.Validation("shipped orders cannot be deleted")
		}

		// Logged without order id so the cascade below keeps the entry.
		if err := logActivity(tx, actor, nil, models.ActionOrderDeleted, map[string]interface{}{
			"order_id":            order.ID,
			"confirmation_number": order.ConfirmationNumber,
			"client_name":         order.ClientName,
		}); err != nil {
			return err
		}

		for _, owned := range []interface{}{&models.Note{}, &models.Problem{}, &models.Material{}, &models.Phase{}, &models.ActivityLog{}} {
			if err := tx.Where("order_id = ?", order.ID).Delete(owned).Error; err != nil {
				return dbError(err, "order")
			}
		}

		res := tx.Where("id = ? AND status <> ?", order.ID, models.StatusShipped).Delete(&models.Order{})
		if res.Error != nil {
			return dbError(res.Error, "order")
		}
		if res.RowsAffected == 0 {
			return apperrors.Validation("shipped orders cannot be deleted")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Order deleted",
		zap.Uint("order_id", id),
		zap.String("confirmation_number", order.ConfirmationNumber),
		zap.Uint("user_id", actor.UserID),
	)
	return nil
}

// Get returns an order with phases in production sequence, materials, and
// problems and notes newest first.
func (s *OrderService) Get(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Phases", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC, id ASC") }).
		Preload("Phases.CompletedByUser").
		Preload("Materials", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Problems", func(db *gorm.DB) *gorm.DB { return db.Order("reported_at DESC, id DESC") }).
		Preload("Problems.Reporter").
		Preload("Problems.Resolver").
		Preload("Notes", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC, id DESC") }).
		Preload("Notes.Author").
		Preload("SubframePreparer").
		Preload("SubframeDeliverer").
		First(&order, id).Error
	if err != nil {
		return nil, dbError(err, "order")
	}
	return &order, nil
}

// List returns a page of orders, urgent first and then newest first.
func (s *OrderService) List(ctx context.Context, filter OrderFilter) ([]models.Order, utils.PaginationMeta, error) {
	page := filter.Pagination.Normalize(20, 100)

	query, err := s.filtered(ctx, filter)
	if err != nil {
		return nil, utils.PaginationMeta{}, err
	}

	var total int64
	if err := query.Model(&models.Order{}).Count(&total).Error; err != nil {
		return nil, utils.PaginationMeta{}, dbError(err, "order")
	}

	var orders []models.Order
	if err := query.Scopes(page.Scope).
		Order("urgent DESC").Order("created_at DESC").Order("id DESC").
		Find(&orders).Error; err != nil {
		return nil, utils.PaginationMeta{}, dbError(err, "order")
	}

	return orders, page.Meta(total), nil
}

func (s *OrderService) filtered(ctx context.Context, filter OrderFilter) (*gorm.DB, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{})
	if filter.Status != "" {
		if !filter.Status.Valid() {
			return nil, apperrors.Validation("unknown order status %q", filter.Status)
		}
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Urgent != nil {
		query = query.Where("urgent = ?", *filter.Urgent)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(confirmation_number) LIKE ? OR LOWER(client_name) LIKE ?", like, like)
	}
	// A fresh session lets callers count and then fetch from the same query.
	return query.Session(&gorm.Session{}), nil
}

// MarkSubframePrepared records that an operator has prepared the early
// subframe.
func (s *OrderService) MarkSubframePrepared(ctx context.Context, actor models.Actor, id uint) (*models.Order, error) {
	if err := requireOperator(actor, "mark a subframe as prepared"); err != nil {
		return nil, err
	}

	now := s.now()
	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, id).Error; err != nil {
			return dbError(err, "order")
		}
		if !order.EarlySubframe {
			return apperrors.Validation("this order has no early subframe delivery")
		}
		if order.SubframePrepared {
			return apperrors.Validation("subframe already marked as prepared")
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND early_subframe = ? AND subframe_prepared = ?", id, true, false).
			Updates(map[string]interface{}{
				"subframe_prepared":    true,
				"subframe_prepared_by": actor.UserID,
				"subframe_prepared_at": now,
			})
		if res.Error != nil {
			return dbError(res.Error, "order")
		}
		if res.RowsAffected == 0 {
			return apperrors.Validation("subframe already marked as prepared")
		}

		return logActivity(tx, actor, &order.ID, models.ActionSubframePrepared, map[string]interface{}{
			"confirmation_number": order.ConfirmationNumber,
			"client_name":         order.ClientName,
		})
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, events.SubframePrepared{
		OrderRef:   events.RefFor(&order),
		PreparedBy: actor.UserID,
		PreparedAt: now,
	})
	s.logger.Info("Subframe prepared", zap.Uint("order_id", id), zap.Uint("user_id", actor.UserID))
	return s.Get(ctx, id)
}

// MarkSubframeDelivered records that the office has shipped the prepared
// subframe.
func (s *OrderService) MarkSubframeDelivered(ctx context.Context, actor models.Actor, id uint) (*models.Order, error) {
	if err := requireOffice(actor, "mark a subframe as delivered"); err != nil {
		return nil, err
	}

	now := s.now()
	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, id).Error; err != nil {
			return dbError(err, "order")
		}
		if !order.EarlySubframe {
			return apperrors.Validation("this order has no early subframe delivery")
		}
		if !order.SubframePrepared {
			return apperrors.Validation("the subframe has not been prepared yet")
		}
		if order.SubframeDelivered {
			return apperrors.Validation("subframe already delivered")
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND subframe_prepared = ? AND subframe_delivered = ?", id, true, false).
			Updates(map[string]interface{}{
				"subframe_delivered":    true,
				"subframe_delivered_by": actor.UserID,
				"subframe_delivered_at": now,
			})
		if res.Error != nil {
			return dbError(res.Error, "order")
		}
		if res.RowsAffected == 0 {
			return apperrors.Validation("subframe already delivered")
		}

		return logActivity(tx, actor, &order.ID, models.ActionSubframeDelivered, map[string]interface{}{
			"confirmation_number": order.ConfirmationNumber,
			"client_name":         order.ClientName,
		})
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, events.SubframeDelivered{
		OrderRef:    events.RefFor(&order),
		DeliveredBy: actor.UserID,
		DeliveredAt: now,
	})
	s.logger.Info("Subframe delivered", zap.Uint("order_id", id), zap.Uint("user_id", actor.UserID))
	return s.Get(ctx, id)
}

func buildPhases(orderID uint, names []string) []models.Phase {
	phases := make([]models.Phase, len(names))
	for i, name := range names {
		phases[i] = models.Phase{
			OrderID:  orderID,
			Name:     name,
			Position: i,
			Status:   models.PhaseToDo,
			Photos:   photoList(nil),
		}
	}
	return phases
}

// buildMaterials validates the seed list and drops stock items.
func buildMaterials(inputs []MaterialInput) ([]models.Material, error) {
	var materials []models.Material
	for _, in := range inputs {
		materialType := workflow.MaterialType(strings.TrimSpace(in.Type))
		if !materialType.Valid() {
			return nil, apperrors.Validation("unknown material type %q", in.Type)
		}
		if in.Subtype != nil && workflow.IsStockItem(*in.Subtype) {
			continue
		}
		materials = append(materials, models.Material{
			Type:       string(materialType),
			Subtype:    normalizeSubtype(in.Subtype),
			Required:   true,
			Notes:      in.Notes,
			Dimensions: in.Dimensions,
		})
	}
	return materials, nil
}

func normalizeSubtype(subtype *string) *string {
	if subtype == nil {
		return nil
	}
	v := strings.ToLower(strings.TrimSpace(*subtype))
	if v == "" {
		return nil
	}
	return &v
}

// toOrder validates a creation request and builds the order row.
func (in CreateOrderInput) toOrder() (*models.Order, error) {
	confirmation := strings.TrimSpace(in.ConfirmationNumber)
	if confirmation == "" || len(confirmation) > 20 {
		return nil, apperrors.Validation("confirmation number is required (max 20 characters)")
	}
	client := strings.TrimSpace(in.ClientName)
	if client == "" {
		return nil, apperrors.Validation("client name is required")
	}
	if !in.FrameType.Valid() {
		return nil, apperrors.Validation("unknown frame type %q", in.FrameType)
	}

	orderDate, err := utils.ParseDate(in.OrderDate)
	if err != nil {
		return nil, apperrors.Validation("order_date: %s", err.Error())
	}
	deadline, err := utils.ParseDatePtr(in.Deadline)
	if err != nil {
		return nil, apperrors.Validation("deadline: %s", err.Error())
	}
	if in.Urgent && deadline == nil {
		return nil, apperrors.Validation("urgent orders require a deadline")
	}
	target, err := utils.ParseDatePtr(in.SubframeTargetDate)
	if err != nil {
		return nil, apperrors.Validation("subframe_target_date: %s", err.Error())
	}

	quantity := in.DoorQuantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return nil, apperrors.Validation("door quantity must be positive")
	}

	order := &models.Order{
		ConfirmationNumber: confirmation,
		ClientName:         client,
		Reference:          in.Reference,
		OrderDate:          orderDate,
		DoorQuantity:       quantity,
		FrameType:          in.FrameType,
		InteriorColour:     in.InteriorColour,
		ExteriorColour:     in.ExteriorColour,
		Urgent:             in.Urgent,
		Deadline:           deadline,
		EarlySubframe:      in.EarlySubframe,
		SubframeTargetDate: target,
		PDFPath:            in.PDFPath,
		GeneralNotes:       in.GeneralNotes,
		Status:             models.StatusInProduction,
	}

	if in.PaintRequired != nil {
		order.PaintRequired = *in.PaintRequired
	} else {
		ext, inner := order.Colours()
		order.PaintRequired = workflow.RequiresPaint(ext, inner)
	}

	if in.EarlySubframe && in.SubframeDeliveryType != nil {
		if !in.SubframeDeliveryType.Valid() {
			return nil, apperrors.Validation("unknown subframe delivery type %q", *in.SubframeDeliveryType)
		}
		order.SubframeDeliveryType = in.SubframeDeliveryType
	}

	return order, nil
}

// changes merges in with the stored order and returns the column updates.
// regenerate is true when the frame type changes.
func (in UpdateOrderInput) changes(order *models.Order) (updates map[string]interface{}, regenerate bool, err error) {
	updates = map[string]interface{}{}

	if in.ClientName.Set {
		client := strings.TrimSpace(in.ClientName.Or(""))
		if client == "" || len(client) > 255 {
			return nil, false, apperrors.Validation("client name is required (max 255 characters)")
		}
		updates["client_name"] = client
	}
	if in.Reference.Set {
		updates["reference"] = in.Reference.Value
	}
	if in.OrderDate.Set {
		d, err := utils.ParseDate(in.OrderDate.Or(""))
		if err != nil {
			return nil, false, apperrors.Validation("order_date: %s", err.Error())
		}
		updates["order_date"] = d
	}
	if in.DoorQuantity.Set {
		if in.DoorQuantity.Or(0) <= 0 {
			return nil, false, apperrors.Validation("door quantity must be positive")
		}
		updates["door_quantity"] = *in.DoorQuantity.Value
	}
	if in.GeneralNotes.Set {
		updates["general_notes"] = in.GeneralNotes.Value
	}
	if in.PDFPath.Set {
		updates["pdf_path"] = in.PDFPath.Value
	}
	if in.Status.Set {
		status := in.Status.Or("")
		if !status.Valid() {
			return nil, false, apperrors.Validation("unknown order status %q", status)
		}
		updates["status"] = status
	}

	if in.FrameType.Set {
		frame := in.FrameType.Or("")
		if !frame.Valid() {
			return nil, false, apperrors.Validation("unknown frame type %q", frame)
		}
		if frame != order.FrameType {
			if order.HasCompletedPhase() {
				return nil, false, apperrors.Validation("cannot change frame type: some phases are already completed")
			}
			updates["frame_type"] = frame
			regenerate = true
		}
	}

	// Paint: explicit override wins, otherwise re-derive when a colour changes.
	exterior, interior := order.ExteriorColour, order.InteriorColour
	if in.ExteriorColour.Set {
		exterior = in.ExteriorColour.Value
		updates["exterior_colour"] = exterior
	}
	if in.InteriorColour.Set {
		interior = in.InteriorColour.Value
		updates["interior_colour"] = interior
	}
	switch {
	case in.PaintRequired.Set:
		if in.PaintRequired.IsNull() {
			return nil, false, apperrors.Validation("paint_required cannot be null")
		}
		updates["paint_required"] = *in.PaintRequired.Value
	case in.ExteriorColour.Set || in.InteriorColour.Set:
		merged := models.Order{ExteriorColour: exterior, InteriorColour: interior}
		updates["paint_required"] = workflow.RequiresPaint(merged.Colours())
	}

	urgent := order.Urgent
	if in.Urgent.Set {
		if in.Urgent.IsNull() {
			return nil, false, apperrors.Validation("urgent cannot be null")
		}
		urgent = *in.Urgent.Value
		updates["urgent"] = urgent
	}
	deadline := order.Deadline
	if in.Deadline.Set {
		deadline, err = utils.ParseDatePtr(in.Deadline.Value)
		if err != nil {
			return nil, false, apperrors.Validation("deadline: %s", err.Error())
		}
		updates["deadline"] = deadline
	}
	if urgent && deadline == nil {
		return nil, false, apperrors.Validation("urgent orders require a deadline")
	}

	if in.EarlySubframe.Set {
		if in.EarlySubframe.IsNull() {
			return nil, false, apperrors.Validation("early_subframe cannot be null")
		}
		updates["early_subframe"] = *in.EarlySubframe.Value
		if !*in.EarlySubframe.Value {
			updates["subframe_target_date"] = nil
			updates["subframe_delivery_type"] = nil
			updates["subframe_prepared"] = false
			updates["subframe_prepared_by"] = nil
			updates["subframe_prepared_at"] = nil
			updates["subframe_delivered"] = false
			updates["subframe_delivered_by"] = nil
			updates["subframe_delivered_at"] = nil
		}
	}
	if in.SubframeTargetDate.Set {
		target, err := utils.ParseDatePtr(in.SubframeTargetDate.Value)
		if err != nil {
			return nil, false, apperrors.Validation("subframe_target_date: %s", err.Error())
		}
		updates["subframe_target_date"] = target
	}
	if in.SubframeDeliveryType.Set {
		if t := in.SubframeDeliveryType.Value; t != nil && !t.Valid() {
			return nil, false, apperrors.Validation("unknown subframe delivery type %q", *t)
		}
		updates["subframe_delivery_type"] = in.SubframeDeliveryType.Value
	}

	return updates, regenerate, nil
}
