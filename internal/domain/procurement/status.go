package procurement

import (
	"fmt"

	"github.com/mayavriksh/backend/internal/domain/shared"
)

// OrderStatus is the lifecycle status of a purchase order
type OrderStatus string

const (
	StatusPending    OrderStatus = "PENDING"
	StatusProcessing OrderStatus = "PROCESSING"
	StatusShipping   OrderStatus = "SHIPPING"
	StatusShipped    OrderStatus = "SHIPPED"
	StatusDelivered  OrderStatus = "DELIVERED"
	StatusRejected   OrderStatus = "REJECTED"
	StatusCancelled  OrderStatus = "CANCELLED"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipping, StatusShipped,
		StatusDelivered, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsTerminal reports statuses no event can leave
func (s OrderStatus) IsTerminal() bool {
	return s == StatusRejected || s == StatusCancelled
}

// LifecycleEvent is something that happened to an order and may move its
// status
type LifecycleEvent string

const (
	EventSupplierAccepted  LifecycleEvent = "SUPPLIER_ACCEPTED"
	EventSupplierRejected  LifecycleEvent = "SUPPLIER_REJECTED"
	EventPaymentRecorded   LifecycleEvent = "PAYMENT_RECORDED"
	EventQCMediaAttached   LifecycleEvent = "QC_MEDIA_ATTACHED"
	EventDeliveryConfirmed LifecycleEvent = "DELIVERY_CONFIRMED"
	EventCancelled         LifecycleEvent = "CANCELLED"
)

type transitionKey struct {
	from OrderStatus
	on   LifecycleEvent
}

// transitions lists every allowed (status, event) pair. A payment posted
// while PROCESSING starts shipping; QC media marks the order shipped.
var transitions = map[transitionKey]OrderStatus{
	{StatusPending, EventSupplierAccepted}: StatusProcessing,
	{StatusPending, EventSupplierRejected}: StatusRejected,

	{StatusProcessing, EventPaymentRecorded}: StatusShipping,
	{StatusShipping, EventPaymentRecorded}:   StatusShipping,
	{StatusShipped, EventPaymentRecorded}:    StatusShipped,
	{StatusDelivered, EventPaymentRecorded}:  StatusDelivered,

	{StatusProcessing, EventQCMediaAttached}: StatusShipped,
	{StatusShipping, EventQCMediaAttached}:   StatusShipped,
	{StatusShipped, EventQCMediaAttached}:    StatusShipped,

	{StatusShipping, EventDeliveryConfirmed}: StatusDelivered,
	{StatusShipped, EventDeliveryConfirmed}:  StatusDelivered,

	{StatusPending, EventCancelled}:    StatusCancelled,
	{StatusProcessing, EventCancelled}: StatusCancelled,
	{StatusShipping, EventCancelled}:   StatusCancelled,
	{StatusShipped, EventCancelled}:    StatusCancelled,
}

// NextStatus resolves the status reached from `from` when `on` happens
func NextStatus(from OrderStatus, on LifecycleEvent) (OrderStatus, error) {
	to, ok := transitions[transitionKey{from, on}]
	if !ok {
		return from, shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Order in %s status does not accept %s", from, on))
	}
	return to, nil
}

// CanHandle reports whether `on` is allowed from `from`
func CanHandle(from OrderStatus, on LifecycleEvent) bool {
	_, ok := transitions[transitionKey{from, on}]
	return ok
}

// Acceptance is the supplier's decision on the order as a whole
type Acceptance string

const (
	AcceptancePendingReview Acceptance = "PENDING_REVIEW"
	AcceptanceAccepted      Acceptance = "ACCEPTED"
	AcceptanceRejected      Acceptance = "REJECTED"
)

// ItemReviewStatus is the supplier's decision on one line item
type ItemReviewStatus string

const (
	ItemPending  ItemReviewStatus = "PENDING"
	ItemAccepted ItemReviewStatus = "ACCEPTED"
	ItemRejected ItemReviewStatus = "REJECTED"
)

// ReviewDecision is the supplier's review verdict
type ReviewDecision string

const (
	DecisionAcceptPartial ReviewDecision = "ACCEPT_PARTIAL"
	DecisionRejectAll     ReviewDecision = "REJECT_ALL"
)

// IsValid checks if the decision is known
func (d ReviewDecision) IsValid() bool {
	return d == DecisionAcceptPartial || d == DecisionRejectAll
}
