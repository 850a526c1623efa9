package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appproc "github.com/mayavriksh/backend/internal/application/procurement"
	"github.com/mayavriksh/backend/internal/domain/shared"
)

// InventoryHandler handles warehouse stock endpoints
type InventoryHandler struct {
	BaseHandler
	inventoryService *appproc.InventoryService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(inventoryService *appproc.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

type inventoryQuery struct {
	WarehouseID string `form:"warehouse_id"`
	ProductType string `form:"product_type"`
	Page        int    `form:"page"`
	Limit       int    `form:"limit"`
}

// List godoc
// @ID           listInventory
// @Summary      List warehouse stock
// @Description  Lists plant or pot inventory records of one warehouse, most recently updated first
// @Tags         inventory
// @Produce      json
// @Param        warehouse_id query string true "Warehouse ID" format(uuid)
// @Param        product_type query string true "Product type" Enums(PLANT, POT)
// @Param        page query int false "Page number" default(1)
// @Param        limit query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]appproc.InventoryRecordResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inventory [get]
func (h *InventoryHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var raw inventoryQuery
	if err := c.ShouldBindQuery(&raw); err != nil {
		h.Error(c, shared.CodeValidation, "Invalid query parameters: "+err.Error())
		return
	}
	warehouseID, err := uuid.Parse(raw.WarehouseID)
	if err != nil {
		h.Error(c, shared.CodeValidation, "warehouse_id must be a valid UUID")
		return
	}

	page, err := h.inventoryService.ListInventory(c.Request.Context(), actor, appproc.ListInventoryQuery{
		WarehouseID: warehouseID,
		ProductType: raw.ProductType,
		Page:        raw.Page,
		Limit:       raw.Limit,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, "Inventory", page)
}
