package procurement

import (
	"time"

	"github.com/google/uuid"
	"github.com/mayavriksh/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypePurchaseOrder = "PurchaseOrder"

// Event type constants
const (
	EventTypePurchaseOrderCreated   = "PurchaseOrderCreated"
	EventTypePurchaseOrderReviewed  = "PurchaseOrderReviewed"
	EventTypePaymentRecorded        = "PurchaseOrderPaymentRecorded"
	EventTypeQCMediaAttached        = "PurchaseOrderQCMediaAttached"
	EventTypePurchaseOrderDelivered = "PurchaseOrderDelivered"
	EventTypePurchaseOrderCancelled = "PurchaseOrderCancelled"
	EventTypeOrderRestocked         = "PurchaseOrderRestocked"
)

// orderRef is carried by every order event so that handlers can address the
// parties without reloading the order
type orderRef struct {
	OrderID     uuid.UUID `json:"order_id"`
	WarehouseID uuid.UUID `json:"warehouse_id"`
	SupplierID  uuid.UUID `json:"supplier_id"`
}

func refOf(o *PurchaseOrder) orderRef {
	return orderRef{OrderID: o.ID, WarehouseID: o.WarehouseID, SupplierID: o.SupplierID}
}

// PurchaseOrderCreatedEvent is raised when a warehouse raises an order
type PurchaseOrderCreatedEvent struct {
	shared.BaseDomainEvent
	orderRef
	TotalCost             decimal.Decimal `json:"total_cost"`
	ItemCount             int             `json:"item_count"`
	ExpectedDateOfArrival *time.Time      `json:"expected_date_of_arrival,omitempty"`
}

// NewPurchaseOrderCreatedEvent creates a new PurchaseOrderCreatedEvent
func NewPurchaseOrderCreatedEvent(o *PurchaseOrder) *PurchaseOrderCreatedEvent {
	return &PurchaseOrderCreatedEvent{
		BaseDomainEvent:       shared.NewBaseDomainEvent(EventTypePurchaseOrderCreated, AggregateTypePurchaseOrder, o.ID),
		orderRef:              refOf(o),
		TotalCost:             o.TotalCost,
		ItemCount:             len(o.Items),
		ExpectedDateOfArrival: o.ExpectedDateOfArrival,
	}
}

// PurchaseOrderReviewedEvent is raised when the supplier reviews an order
type PurchaseOrderReviewedEvent struct {
	shared.BaseDomainEvent
	orderRef
	Decision      ReviewDecision  `json:"decision"`
	Status        OrderStatus     `json:"status"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	RejectedItems int             `json:"rejected_items"`
}

// NewPurchaseOrderReviewedEvent creates a new PurchaseOrderReviewedEvent
func NewPurchaseOrderReviewedEvent(o *PurchaseOrder, decision ReviewDecision, rejected int) *PurchaseOrderReviewedEvent {
	if decision == DecisionRejectAll {
		rejected = len(o.Items)
	}
	return &PurchaseOrderReviewedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderReviewed, AggregateTypePurchaseOrder, o.ID),
		orderRef:        refOf(o),
		Decision:        decision,
		Status:          o.Status,
		TotalCost:       o.TotalCost,
		RejectedItems:   rejected,
	}
}

// PaymentRecordedEvent is raised for every payment
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	orderRef
	PaymentID         uuid.UUID       `json:"payment_id"`
	Amount            decimal.Decimal `json:"amount"`
	PendingAmount     decimal.Decimal `json:"pending_amount"`
	PaymentPercentage int             `json:"payment_percentage"`
	PaymentStatus     PaymentStatus   `json:"payment_status"`
	Remarks           string          `json:"remarks"`
}

// NewPaymentRecordedEvent creates a new PaymentRecordedEvent
func NewPaymentRecordedEvent(o *PurchaseOrder, p *Payment) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypePaymentRecorded, AggregateTypePurchaseOrder, o.ID),
		orderRef:          refOf(o),
		PaymentID:         p.ID,
		Amount:            p.Amount,
		PendingAmount:     o.PendingAmount,
		PaymentPercentage: o.PaymentPercentage,
		PaymentStatus:     p.Status,
		Remarks:           p.Remarks,
	}
}

// QCMediaAttachedEvent is raised when QC media is attached
type QCMediaAttachedEvent struct {
	shared.BaseDomainEvent
	orderRef
	MediaCount int `json:"media_count"`
}

// NewQCMediaAttachedEvent creates a new QCMediaAttachedEvent
func NewQCMediaAttachedEvent(o *PurchaseOrder, count int) *QCMediaAttachedEvent {
	return &QCMediaAttachedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeQCMediaAttached, AggregateTypePurchaseOrder, o.ID),
		orderRef:        refOf(o),
		MediaCount:      count,
	}
}

// PurchaseOrderDeliveredEvent is raised when delivery is confirmed
type PurchaseOrderDeliveredEvent struct {
	shared.BaseDomainEvent
	orderRef
	DeliveredAt time.Time `json:"delivered_at"`
}

// NewPurchaseOrderDeliveredEvent creates a new PurchaseOrderDeliveredEvent
func NewPurchaseOrderDeliveredEvent(o *PurchaseOrder) *PurchaseOrderDeliveredEvent {
	e := &PurchaseOrderDeliveredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderDelivered, AggregateTypePurchaseOrder, o.ID),
		orderRef:        refOf(o),
	}
	if o.DeliveredAt != nil {
		e.DeliveredAt = *o.DeliveredAt
	}
	return e
}

// PurchaseOrderCancelledEvent is raised when an admin cancels an order
type PurchaseOrderCancelledEvent struct {
	shared.BaseDomainEvent
	orderRef
	Reason string `json:"reason"`
}

// NewPurchaseOrderCancelledEvent creates a new PurchaseOrderCancelledEvent
func NewPurchaseOrderCancelledEvent(o *PurchaseOrder) *PurchaseOrderCancelledEvent {
	return &PurchaseOrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderCancelled, AggregateTypePurchaseOrder, o.ID),
		orderRef:        refOf(o),
		Reason:          o.CancelReason,
	}
}

// RestockSummary totals one reconciliation batch
type RestockSummary struct {
	ItemsRestocked int             `json:"items_restocked"`
	UnitsReceived  int             `json:"units_received"`
	UnitsDamaged   int             `json:"units_damaged"`
	UnitsAdded     int             `json:"units_added"`
	DamagedValue   decimal.Decimal `json:"damaged_value"`
}

// OrderRestockedEvent is raised once a delivered order is reconciled into stock
type OrderRestockedEvent struct {
	shared.BaseDomainEvent
	orderRef
	RestockSummary
}

// NewOrderRestockedEvent creates a new OrderRestockedEvent
func NewOrderRestockedEvent(o *PurchaseOrder, summary RestockSummary) *OrderRestockedEvent {
	return &OrderRestockedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderRestocked, AggregateTypePurchaseOrder, o.ID),
		orderRef:        refOf(o),
		RestockSummary:  summary,
	}
}
