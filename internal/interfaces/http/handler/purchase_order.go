package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	appproc "github.com/mayavriksh/backend/internal/application/procurement"
	"github.com/mayavriksh/backend/internal/domain/identity"
	"github.com/mayavriksh/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PurchaseOrderHandler handles purchase order lifecycle endpoints
type PurchaseOrderHandler struct {
	BaseHandler
	orderService   *appproc.OrderService
	paymentService *appproc.PaymentService
	mediaService   *appproc.MediaService
	restockService *appproc.RestockService
	uploads        UploadReader
}

// NewPurchaseOrderHandler creates a new PurchaseOrderHandler
func NewPurchaseOrderHandler(
	orderService *appproc.OrderService,
	paymentService *appproc.PaymentService,
	mediaService *appproc.MediaService,
	restockService *appproc.RestockService,
	uploads UploadReader,
) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{
		orderService:   orderService,
		paymentService: paymentService,
		mediaService:   mediaService,
		restockService: restockService,
		uploads:        uploads,
	}
}

// Create godoc
// @ID           createPurchaseOrder
// @Summary      Create a purchase order
// @Description  Raises a purchase order from a warehouse to a supplier. Totals are computed server-side.
// @Tags         purchase-orders
// @Accept       json
// @Produce      json
// @Param        request body appproc.CreateOrderCommand true "Order lines and delivery charges"
// @Success      201 {object} APIResponse[appproc.OrderResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /purchase-orders [post]
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var cmd appproc.CreateOrderCommand
	if !h.bindJSON(c, &cmd) {
		return
	}

	order, err := h.orderService.Create(c.Request.Context(), actor, cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, "Purchase order created", order)
}

// ListActive godoc
// @ID           listActivePurchaseOrders
// @Summary      List active purchase orders
// @Description  Orders still in flight: not rejected, not cancelled, and not both delivered and fully paid
// @Tags         purchase-orders
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        limit query int false "Page size" default(20)
// @Param        search query string false "Order ID fragment"
// @Param        sortBy query string false "Sort field" Enums(requestedAt, totalCost, status)
// @Param        sortOrder query string false "Sort order" Enums(asc, desc)
// @Success      200 {object} APIResponse[[]appproc.OrderResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /purchase-orders/active [get]
func (h *PurchaseOrderHandler) ListActive(c *gin.Context) {
	h.list(c, "Active purchase orders", h.orderService.ListActive)
}

// ListHistory godoc
// @ID           listPurchaseOrderHistory
// @Summary      List historical purchase orders
// @Description  Rejected or cancelled orders, and delivered orders that are fully paid
// @Tags         purchase-orders
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        limit query int false "Page size" default(20)
// @Param        search query string false "Order ID fragment"
// @Param        sortBy query string false "Sort field" Enums(requestedAt, totalCost, status)
// @Param        sortOrder query string false "Sort order" Enums(asc, desc)
// @Success      200 {object} APIResponse[[]appproc.OrderResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /purchase-orders/history [get]
func (h *PurchaseOrderHandler) ListHistory(c *gin.Context) {
	h.list(c, "Purchase order history", h.orderService.ListHistory)
}

type listOrdersFunc func(ctx context.Context, actor identity.Actor, q appproc.ListOrdersQuery) (*shared.Paginated[appproc.OrderResponse], error)

func (h *PurchaseOrderHandler) list(c *gin.Context, message string, fetch listOrdersFunc) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var q appproc.ListOrdersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.Error(c, shared.CodeValidation, "Invalid query parameters: "+err.Error())
		return
	}

	page, err := fetch(c.Request.Context(), actor, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, message, page)
}

// GetByID godoc
// @ID           getPurchaseOrder
// @Summary      Get a purchase order
// @Description  Returns the order with its items, payments and QC media
// @Tags         purchase-orders
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Success      200 {object} APIResponse[appproc.OrderResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /purchase-orders/{id} [get]
func (h *PurchaseOrderHandler) GetByID(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	order, err := h.orderService.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "", order)
}

// Review godoc
// @ID           reviewPurchaseOrder
// @Summary      Review a purchase order
// @Description  The supplier accepts some lines (rejecting the listed items) or rejects the whole order
// @Tags         purchase-orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Param        request body appproc.ReviewOrderCommand true "Review decision"
// @Success      200 {object} APIResponse[appproc.OrderResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /purchase-orders/{id}/review [post]
func (h *PurchaseOrderHandler) Review(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var cmd appproc.ReviewOrderCommand
	if !h.bindJSON(c, &cmd) {
		return
	}

	order, err := h.orderService.Review(c.Request.Context(), actor, id, cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Purchase order reviewed", order)
}

// paymentForm is the multipart rendition of RecordPaymentCommand
type paymentForm struct {
	Amount        string `form:"amount"`
	PaymentMethod string `form:"payment_method"`
	TransactionID string `form:"transaction_id"`
	Remarks       string `form:"remarks"`
}

// RecordPayment godoc
// @ID           recordPurchaseOrderPayment
// @Summary      Record a payment
// @Description  Posts a payment against an accepted order. Accepts multipart with an optional receipt file, or JSON without one.
// @Tags         purchase-orders
// @Accept       multipart/form-data
// @Accept       json
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Param        amount formData string true "Amount paid"
// @Param        payment_method formData string true "Payment method" Enums(CASH, BANK_TRANSFER, UPI, CHEQUE, CARD, OTHER)
// @Param        transaction_id formData string false "Bank or gateway reference"
// @Param        remarks formData string false "Remarks"
// @Param        receipt formData file false "Receipt image or PDF"
// @Success      201 {object} APIResponse[appproc.PaymentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /purchase-orders/{id}/payments [post]
func (h *PurchaseOrderHandler) RecordPayment(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var cmd appproc.RecordPaymentCommand
	if c.ContentType() == binding.MIMEJSON {
		if !h.bindJSON(c, &cmd) {
			return
		}
	} else {
		var err error
		if cmd, err = h.paymentFromForm(c); err != nil {
			h.HandleError(c, err)
			return
		}
	}

	payment, err := h.paymentService.RecordPayment(c.Request.Context(), actor, id, cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, "Payment recorded", payment)
}

func (h *PurchaseOrderHandler) paymentFromForm(c *gin.Context) (appproc.RecordPaymentCommand, error) {
	var form paymentForm
	if err := c.ShouldBindWith(&form, binding.FormMultipart); err != nil {
		return appproc.RecordPaymentCommand{}, multipartError(err)
	}
	amount, err := decimal.NewFromString(form.Amount)
	if err != nil {
		return appproc.RecordPaymentCommand{}, shared.NewDomainError(shared.CodeValidation, "amount must be a decimal number")
	}
	cmd := appproc.RecordPaymentCommand{
		Amount:        amount,
		PaymentMethod: form.PaymentMethod,
		TransactionID: form.TransactionID,
		Remarks:       form.Remarks,
	}

	receipt, err := h.uploads.File(c, "receipt")
	switch {
	case errors.Is(err, errNoFile):
	case err != nil:
		return appproc.RecordPaymentCommand{}, err
	default:
		cmd.Receipt = &receipt
	}
	return cmd, nil
}

// ListPayments godoc
// @ID           listPurchaseOrderPayments
// @Summary      List payments of an order
// @Tags         purchase-orders
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Success      200 {object} APIResponse[[]appproc.PaymentResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /purchase-orders/{id}/payments [get]
func (h *PurchaseOrderHandler) ListPayments(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	payments, err := h.orderService.ListPayments(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "", payments)
}

// AttachMedia godoc
// @ID           attachPurchaseOrderMedia
// @Summary      Attach QC media
// @Description  Uploads quality-check images or videos and attaches them to the order
// @Tags         purchase-orders
// @Accept       multipart/form-data
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Param        files formData file true "Images or videos"
// @Success      201 {object} APIResponse[[]appproc.MediaResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /purchase-orders/{id}/qc-media [post]
func (h *PurchaseOrderHandler) AttachMedia(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	files, err := h.uploads.Files(c, "files")
	if err != nil {
		h.HandleError(c, err)
		return
	}

	media, err := h.mediaService.AttachMedia(c.Request.Context(), actor, id, files)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, "QC media attached", media)
}

// ConfirmDelivery godoc
// @ID           deliverPurchaseOrder
// @Summary      Confirm delivery
// @Description  Marks a shipping or shipped order as delivered
// @Tags         purchase-orders
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Success      200 {object} APIResponse[appproc.OrderResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /purchase-orders/{id}/deliver [post]
func (h *PurchaseOrderHandler) ConfirmDelivery(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	order, err := h.orderService.ConfirmDelivery(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Delivery confirmed", order)
}

// Restock godoc
// @ID           restockPurchaseOrder
// @Summary      Reconcile a delivered order into stock
// @Description  Records received and damaged units per accepted line, updates the warehouse inventory and writes damage and restock logs
// @Tags         purchase-orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Param        request body appproc.RestockCommand true "Received units per line"
// @Success      200 {object} APIResponse[appproc.RestockResultResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /purchase-orders/{id}/restock [post]
func (h *PurchaseOrderHandler) Restock(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var cmd appproc.RestockCommand
	if !h.bindJSON(c, &cmd) {
		return
	}

	result, err := h.restockService.ReconcileRestock(c.Request.Context(), actor, id, cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Inventory restocked", result)
}

// Cancel godoc
// @ID           cancelPurchaseOrder
// @Summary      Cancel a purchase order
// @Tags         purchase-orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Param        request body appproc.CancelOrderCommand true "Cancellation reason"
// @Success      200 {object} APIResponse[appproc.OrderResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /purchase-orders/{id}/cancel [post]
func (h *PurchaseOrderHandler) Cancel(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var cmd appproc.CancelOrderCommand
	if !h.bindJSON(c, &cmd) {
		return
	}

	order, err := h.orderService.Cancel(c.Request.Context(), actor, id, cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Purchase order cancelled", order)
}

// ListDamageLogs godoc
// @ID           listPurchaseOrderDamageLogs
// @Summary      List damage logs of an order
// @Tags         purchase-orders
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Success      200 {object} APIResponse[[]appproc.DamageLogResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /purchase-orders/{id}/damage-logs [get]
func (h *PurchaseOrderHandler) ListDamageLogs(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	logs, err := h.restockService.ListDamageLogs(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "", logs)
}

// ListRestockLogs godoc
// @ID           listPurchaseOrderRestockLogs
// @Summary      List restock logs of an order
// @Tags         purchase-orders
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Success      200 {object} APIResponse[[]appproc.RestockLogResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /purchase-orders/{id}/restock-logs [get]
func (h *PurchaseOrderHandler) ListRestockLogs(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	logs, err := h.restockService.ListRestockLogs(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "", logs)
}
