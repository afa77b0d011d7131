package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/door-production-api/services"
	"go.uber.org/zap"
)

// MaterialController serves order materials and the purchasing list.
type MaterialController struct {
	materials *services.MaterialService
	logger    *zap.Logger
}

func NewMaterialController(materials *services.MaterialService, logger *zap.Logger) *MaterialController {
	return &MaterialController{materials: materials, logger: logger}
}

// ListForOrder handles GET /api/v1/orders/:id/materials
func (ctl *MaterialController) ListForOrder(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	materials, err := ctl.materials.ListForOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}
	respond(c, http.StatusOK, materials)
}

// ListToOrder handles GET /api/v1/materials/to-order (office only)
func (ctl *MaterialController) ListToOrder(c *gin.Context) {
	list, err := ctl.materials.ListToOrder(c.Request.Context())
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}
	respond(c, http.StatusOK, list)
}

// Get handles GET /api/v1/materials/:id
func (ctl *MaterialController) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	material, err := ctl.materials.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}
	respond(c, http.StatusOK, material)
}

// Update handles PATCH /api/v1/materials/:id (office only)
func (ctl *MaterialController) Update(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateMaterialInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	material, err := ctl.materials.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}
	respond(c, http.StatusOK, material)
}

// Order handles POST /api/v1/materials/:id/order (office only)
func (ctl *MaterialController) Order(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req services.OrderMaterialInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	material, err := ctl.materials.Order(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}
	respond(c, http.StatusOK, material)
}

// Receive handles POST /api/v1/materials/:id/arrived
func (ctl *MaterialController) Receive(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req services.ReceiveMaterialInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	material, err := ctl.materials.Receive(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}
	respond(c, http.StatusOK, material)
}

// SuggestDelivery handles GET /api/v1/materials/:id/delivery-suggestion?order_date=YYYY-MM-DD
func (ctl *MaterialController) SuggestDelivery(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	suggestion, err := ctl.materials.SuggestDelivery(c.Request.Context(), id, c.Query("order_date"))
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}
	respond(c, http.StatusOK, suggestion)
}
