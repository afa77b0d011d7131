package controllers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/door-production-api/models"
	"github.com/kendall-kelly/door-production-api/services"
	"github.com/kendall-kelly/door-production-api/utils"
	"go.uber.org/zap"
)

// OrderController serves /orders.
type OrderController struct {
	orders *services.OrderService
	logger *zap.Logger
}

func NewOrderController(orders *services.OrderService, logger *zap.Logger) *OrderController {
	return &OrderController{orders: orders, logger: logger}
}

// listOrdersQuery is the query string of GET /orders.
type listOrdersQuery struct {
	Status string `form:"status"`
	Urgent string `form:"urgent"`
	Search string `form:"search"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}

func (q listOrdersQuery) filter() (services.OrderFilter, error) {
	filter := services.OrderFilter{
		Status:     models.OrderStatus(q.Status),
		Search:     q.Search,
		Pagination: utils.Pagination{Page: q.Page, Limit: q.Limit},
	}
	if q.Urgent != "" {
		urgent, err := strconv.ParseBool(q.Urgent)
		if err != nil {
			return filter, fmt.Errorf("urgent must be true or false")
		}
		filter.Urgent = &urgent
	}
	return filter, nil
}

// List handles GET /api/v1/orders
func (ctl *OrderController) List(c *gin.Context) {
	var q listOrdersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	filter, err := q.filter()
	if err != nil {
		respondBindError(c, err)
		return
	}

	orders, meta, err := ctl.orders.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}
	respondPage(c, orders, meta)
}

// Get handles GET /api/v1/orders/:id
func (ctl *OrderController) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	order, err := ctl.orders.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}
	respond(c, http.StatusOK, order)
}

// Create handles POST /api/v1/orders (office only)
func (ctl *OrderController) Create(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req services.CreateOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := ctl.orders.Create(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}
	respond(c, http.StatusCreated, order)
}

// Update handles PATCH /api/v1/orders/:id (office only)
func (ctl *OrderController) Update(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := ctl.orders.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}
	respond(c, http.StatusOK, order)
}

// Delete handles DELETE /api/v1/orders/:id (office only)
func (ctl *OrderController) Delete(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := ctl.orders.Delete(c.Request.Context(), actor, id); err != nil {
		respondError(c, ctl.logger, err)
		return
	}
	respondMessage(c, "Order deleted")
}

// Export handles GET /api/v1/orders/export (office only). The filters are
// the same as List; pagination is ignored.
func (ctl *OrderController) Export(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var q listOrdersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	filter, err := q.filter()
	if err != nil {
		respondBindError(c, err)
		return
	}

	// Build the workbook first so a failure can still be answered as JSON.
	var buf bytes.Buffer
	if err := ctl.orders.ExportOrders(c.Request.Context(), actor, filter, &buf); err != nil {
		respondError(c, ctl.logger, err)
		return
	}

	filename := fmt.Sprintf("orders-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, services.XLSXContentType, buf.Bytes())
}

// MarkSubframePrepared handles POST /api/v1/orders/:id/subframe/prepared (operators)
func (ctl *OrderController) MarkSubframePrepared(c *gin.Context) {
	ctl.subframeStep(c, ctl.orders.MarkSubframePrepared)
}

// MarkSubframeDelivered handles POST /api/v1/orders/:id/subframe/delivered (office only)
func (ctl *OrderController) MarkSubframeDelivered(c *gin.Context) {
	ctl.subframeStep(c, ctl.orders.MarkSubframeDelivered)
}

func (ctl *OrderController) subframeStep(c *gin.Context, step func(ctx context.Context, actor models.Actor, id uint) (*models.Order, error)) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	order, err := step(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}
	respond(c, http.StatusOK, order)
}
