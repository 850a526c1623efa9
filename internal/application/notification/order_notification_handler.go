package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mayavriksh/backend/internal/domain/identity"
	"github.com/mayavriksh/backend/internal/domain/partner"
	"github.com/mayavriksh/backend/internal/domain/procurement"
	"github.com/mayavriksh/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// OrderNotificationHandler emails the other party of a purchase order when
// its lifecycle moves on. Suppliers hear about new orders, payments, delivery
// and restock; warehouse managers hear about the supplier's review.
type OrderNotificationHandler struct {
	users      identity.UserRepository
	warehouses partner.WarehouseRepository
	notifier   Notifier
	money      MoneyFormatter
	logger     *zap.Logger
}

// NewOrderNotificationHandler creates a new OrderNotificationHandler
func NewOrderNotificationHandler(
	users identity.UserRepository,
	warehouses partner.WarehouseRepository,
	notifier Notifier,
	money MoneyFormatter,
	logger *zap.Logger,
) *OrderNotificationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderNotificationHandler{
		users:      users,
		warehouses: warehouses,
		notifier:   notifier,
		money:      money,
		logger:     logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *OrderNotificationHandler) EventTypes() []string {
	return []string{
		procurement.EventTypePurchaseOrderCreated,
		procurement.EventTypePurchaseOrderReviewed,
		procurement.EventTypePaymentRecorded,
		procurement.EventTypePurchaseOrderDelivered,
		procurement.EventTypeOrderRestocked,
	}
}

// Handle renders and sends the email for one event
func (h *OrderNotificationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *procurement.PurchaseOrderCreatedEvent:
		return h.notify(ctx, e.OrderID, e.WarehouseID, e.SupplierID, "order_created",
			"New purchase order %s", map[string]any{
				"ItemCount":       e.ItemCount,
				"TotalCost":       h.money.Format(e.TotalCost),
				"ExpectedArrival": formatDate(e.ExpectedDateOfArrival),
			})

	case *procurement.PurchaseOrderReviewedEvent:
		warehouse, err := h.warehouses.FindByID(ctx, e.WarehouseID)
		if err != nil {
			return fmt.Errorf("load warehouse %s: %w", e.WarehouseID, err)
		}
		if warehouse.ManagerID == nil {
			h.logger.Debug("Warehouse has no manager, skipping review notification",
				zap.String("warehouse_id", e.WarehouseID.String()))
			return nil
		}
		rejected := e.Decision == procurement.DecisionRejectAll
		subject := "Purchase order %s accepted"
		if rejected {
			subject = "Purchase order %s rejected"
		}
		return h.send(ctx, warehouse, *warehouse.ManagerID, e.OrderID, "order_reviewed", subject, map[string]any{
			"Rejected":      rejected,
			"RejectedItems": e.RejectedItems,
			"TotalCost":     h.money.Format(e.TotalCost),
		})

	case *procurement.PaymentRecordedEvent:
		return h.notify(ctx, e.OrderID, e.WarehouseID, e.SupplierID, "payment_recorded",
			"Payment recorded for purchase order %s", map[string]any{
				"Amount":            h.money.Format(e.Amount),
				"PendingAmount":     h.money.Format(e.PendingAmount),
				"PaymentPercentage": e.PaymentPercentage,
				"Remarks":           e.Remarks,
			})

	case *procurement.PurchaseOrderDeliveredEvent:
		return h.notify(ctx, e.OrderID, e.WarehouseID, e.SupplierID, "order_delivered",
			"Purchase order %s delivered", map[string]any{
				"DeliveredAt": formatDate(&e.DeliveredAt),
			})

	case *procurement.OrderRestockedEvent:
		return h.notify(ctx, e.OrderID, e.WarehouseID, e.SupplierID, "order_restocked",
			"Purchase order %s restocked", map[string]any{
				"UnitsReceived": e.UnitsReceived,
				"UnitsDamaged":  e.UnitsDamaged,
				"UnitsAdded":    e.UnitsAdded,
				"DamagedValue":  h.money.Format(e.DamagedValue),
			})
	}

	h.logger.Warn("Unexpected event type", zap.String("event_type", event.EventType()))
	return nil
}

// notify sends to recipientID with the warehouse as context
func (h *OrderNotificationHandler) notify(ctx context.Context, orderID, warehouseID, recipientID uuid.UUID, tmpl, subject string, fields map[string]any) error {
	warehouse, err := h.warehouses.FindByID(ctx, warehouseID)
	if err != nil {
		return fmt.Errorf("load warehouse %s: %w", warehouseID, err)
	}
	return h.send(ctx, warehouse, recipientID, orderID, tmpl, subject, fields)
}

func (h *OrderNotificationHandler) send(ctx context.Context, warehouse *partner.Warehouse, recipientID, orderID uuid.UUID, tmpl, subject string, fields map[string]any) error {
	recipient, err := h.users.FindByID(ctx, recipientID)
	if err != nil {
		return fmt.Errorf("load recipient %s: %w", recipientID, err)
	}
	if !recipient.IsActive || recipient.Email == "" {
		h.logger.Debug("Recipient cannot be notified",
			zap.String("user_id", recipientID.String()),
			zap.Bool("active", recipient.IsActive))
		return nil
	}

	ref := orderRef(orderID)
	fields["RecipientName"] = recipient.Name
	fields["OrderRef"] = ref
	fields["WarehouseName"] = warehouse.Name
	fields["WarehouseCity"] = warehouse.City

	body, err := render(tmpl, fields)
	if err != nil {
		return fmt.Errorf("render %s: %w", tmpl, err)
	}
	return h.notifier.Send(ctx, Message{
		To:       recipient.Email,
		Subject:  fmt.Sprintf(subject, ref),
		HTMLBody: body,
	})
}

// Ensure OrderNotificationHandler implements EventHandler
var _ shared.EventHandler = (*OrderNotificationHandler)(nil)
