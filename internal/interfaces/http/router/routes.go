package router

import (
	"github.com/mayavriksh/backend/internal/domain/identity"
	"github.com/mayavriksh/backend/internal/interfaces/http/handler"
	"github.com/mayavriksh/backend/internal/interfaces/http/middleware"
)

// Handlers are the API controllers mounted under /api/<version>
type Handlers struct {
	PurchaseOrders *handler.PurchaseOrderHandler
	Media          *handler.MediaHandler
	Inventory      *handler.InventoryHandler
	System         *handler.SystemHandler
}

// ProcurementGroups builds the route groups of the procurement API. Routes
// without a role guard are open to every authenticated caller; the services
// narrow those to the caller's own orders.
func ProcurementGroups(h Handlers) []RouteRegistrar {
	staff := middleware.RequireRoles(identity.RoleAdmin, identity.RoleWarehouseManager)
	supplier := middleware.RequireRoles(identity.RoleSupplier)
	admin := middleware.RequireRoles(identity.RoleAdmin)

	orders := NewDomainGroup("purchase-orders", "/purchase-orders").
		POST("", staff, h.PurchaseOrders.Create).
		GET("/active", h.PurchaseOrders.ListActive).
		GET("/history", h.PurchaseOrders.ListHistory).
		GET("/:id", h.PurchaseOrders.GetByID).
		POST("/:id/review", supplier, h.PurchaseOrders.Review).
		POST("/:id/payments", staff, h.PurchaseOrders.RecordPayment).
		GET("/:id/payments", h.PurchaseOrders.ListPayments).
		POST("/:id/qc-media", h.PurchaseOrders.AttachMedia).
		POST("/:id/deliver", staff, h.PurchaseOrders.ConfirmDelivery).
		POST("/:id/restock", staff, h.PurchaseOrders.Restock).
		POST("/:id/cancel", admin, h.PurchaseOrders.Cancel).
		GET("/:id/damage-logs", h.PurchaseOrders.ListDamageLogs).
		GET("/:id/restock-logs", h.PurchaseOrders.ListRestockLogs)

	media := NewDomainGroup("media", "/media").
		POST("/evidence", staff, h.Media.UploadEvidence)

	inventory := NewDomainGroup("inventory", "/inventory").
		GET("", staff, h.Inventory.List)

	system := NewDomainGroup("system", "/system").
		GET("/info", admin, h.System.GetSystemInfo)

	return []RouteRegistrar{orders, media, inventory, system}
}
