package procurement

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mayavriksh/backend/internal/domain/catalog"
	"github.com/mayavriksh/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// PurchaseOrderItem is one requested product line
type PurchaseOrderItem struct {
	ID              uuid.UUID
	PurchaseOrderID uuid.UUID
	Product         catalog.Product
	UnitsRequested  int
	UnitCostPrice   decimal.Decimal
	ReviewStatus    ItemReviewStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ItemSpec describes a line when an order is raised
type ItemSpec struct {
	Product        catalog.Product
	UnitsRequested int
	UnitCostPrice  decimal.Decimal
}

func newPurchaseOrderItem(orderID uuid.UUID, spec ItemSpec) (*PurchaseOrderItem, error) {
	if spec.Product == nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Item product is required")
	}
	if spec.UnitsRequested <= 0 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Units requested must be positive")
	}
	if spec.UnitCostPrice.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Unit cost price cannot be negative")
	}
	now := time.Now()
	return &PurchaseOrderItem{
		ID:              uuid.New(),
		PurchaseOrderID: orderID,
		Product:         spec.Product,
		UnitsRequested:  spec.UnitsRequested,
		UnitCostPrice:   spec.UnitCostPrice,
		ReviewStatus:    ItemPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// LineTotal is units requested times unit cost
func (i *PurchaseOrderItem) LineTotal() decimal.Decimal {
	return i.UnitCostPrice.Mul(decimal.NewFromInt(int64(i.UnitsRequested)))
}

// IsAccepted reports whether the supplier accepted this line
func (i *PurchaseOrderItem) IsAccepted() bool {
	return i.ReviewStatus == ItemAccepted
}

// countsTowardTotal is true for every line the supplier has not rejected
func (i *PurchaseOrderItem) countsTowardTotal() bool {
	return i.ReviewStatus != ItemRejected
}

// Media is a QC photo or video attached to an order
type Media struct {
	ID              uuid.UUID
	PurchaseOrderID uuid.UUID
	shared.MediaRef
	UploadedBy uuid.UUID
	UploadedAt time.Time
}

// PurchaseOrder is a procurement request from a warehouse to a supplier.
// It owns its items, payments and QC media.
type PurchaseOrder struct {
	shared.BaseAggregateRoot
	WarehouseID                 uuid.UUID
	SupplierID                  uuid.UUID
	RequestedByID               uuid.UUID
	DeliveryCharges             decimal.Decimal
	TotalCost                   decimal.Decimal
	PendingAmount               decimal.Decimal
	PaymentPercentage           int
	Status                      OrderStatus
	Acceptance                  Acceptance
	ExpectedDateOfArrival       *time.Time
	RequestedAt                 time.Time
	AcceptedAt                  *time.Time
	DeliveredAt                 *time.Time
	RestockedAt                 *time.Time
	CancelledAt                 *time.Time
	ReviewNotes                 string
	WarehouseManagerReviewNotes string
	CancelReason                string
	Items                       []PurchaseOrderItem
	Payments                    []Payment
	Media                       []Media
}

// NewPurchaseOrder raises an order in PENDING status. TotalCost is the sum of
// line totals plus delivery charges, all of it pending.
func NewPurchaseOrder(warehouseID, supplierID, requestedBy uuid.UUID, specs []ItemSpec, deliveryCharges decimal.Decimal, expectedDOA *time.Time) (*PurchaseOrder, error) {
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Warehouse ID cannot be empty")
	}
	if supplierID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Supplier ID cannot be empty")
	}
	if len(specs) == 0 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Order must contain at least one item")
	}
	if deliveryCharges.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Delivery charges cannot be negative")
	}

	order := &PurchaseOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		WarehouseID:       warehouseID,
		SupplierID:        supplierID,
		RequestedByID:     requestedBy,
		DeliveryCharges:   deliveryCharges,
		Status:            StatusPending,
		Acceptance:        AcceptancePendingReview,
		Items:             make([]PurchaseOrderItem, 0, len(specs)),
		Payments:          make([]Payment, 0),
		Media:             make([]Media, 0),
	}
	order.RequestedAt = order.CreatedAt
	if expectedDOA != nil {
		eta := *expectedDOA
		order.ExpectedDateOfArrival = &eta
	}

	for _, spec := range specs {
		item, err := newPurchaseOrderItem(order.ID, spec)
		if err != nil {
			return nil, err
		}
		order.Items = append(order.Items, *item)
	}
	order.recalculateTotals()

	order.AddDomainEvent(NewPurchaseOrderCreatedEvent(order))
	return order, nil
}

// Review applies the supplier's decision. Only the order's supplier may
// review, and only while the order is PENDING.
func (o *PurchaseOrder) Review(supplierID uuid.UUID, decision ReviewDecision, rejectedItemIDs []uuid.UUID, notes string) error {
	if supplierID != o.SupplierID {
		return shared.NewDomainError(shared.CodeForbidden, "Order belongs to another supplier")
	}
	if !decision.IsValid() {
		return shared.NewDomainError(shared.CodeValidation, "Unknown review decision: "+string(decision))
	}

	event := EventSupplierAccepted
	if decision == DecisionRejectAll {
		event = EventSupplierRejected
	}
	next, err := NextStatus(o.Status, event)
	if err != nil {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Only PENDING orders can be reviewed, order is %s", o.Status))
	}

	rejected := make(map[uuid.UUID]bool, len(rejectedItemIDs))
	for _, id := range rejectedItemIDs {
		if o.GetItem(id) == nil {
			return shared.NewDomainError(shared.CodeValidation, fmt.Sprintf("Item %s is not part of this order", id))
		}
		rejected[id] = true
	}

	now := time.Now()
	switch decision {
	case DecisionAcceptPartial:
		if len(rejected) == len(o.Items) {
			return shared.NewDomainError(shared.CodeValidation, "Cannot accept an order while rejecting every item, use REJECT_ALL")
		}
		for i := range o.Items {
			if rejected[o.Items[i].ID] {
				o.Items[i].ReviewStatus = ItemRejected
			} else {
				o.Items[i].ReviewStatus = ItemAccepted
			}
			o.Items[i].UpdatedAt = now
		}
		o.recalculateTotals()
		o.Acceptance = AcceptanceAccepted
		o.AcceptedAt = &now
	case DecisionRejectAll:
		for i := range o.Items {
			o.Items[i].ReviewStatus = ItemRejected
			o.Items[i].UpdatedAt = now
		}
		o.Acceptance = AcceptanceRejected
	}

	o.Status = next
	o.ReviewNotes = strings.TrimSpace(notes)
	o.UpdatedAt = now

	o.AddDomainEvent(NewPurchaseOrderReviewedEvent(o, decision, len(rejected)))
	return nil
}

// RecordPayment appends a payment and rolls the running totals forward.
// A payment on a PROCESSING order starts shipping.
func (o *PurchaseOrder) RecordPayment(in PaymentInput) (*Payment, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if !o.PendingAmount.IsPositive() {
		return nil, shared.ErrAlreadyPaid
	}
	if o.Status == StatusPending {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "Order is not yet accepted by the supplier")
	}
	if o.Acceptance != AcceptanceAccepted {
		return nil, shared.ErrOrderNotAccepted
	}
	next, err := NextStatus(o.Status, EventPaymentRecorded)
	if err != nil {
		return nil, err
	}
	if in.Amount.GreaterThan(o.PendingAmount) {
		return nil, shared.NewDomainError(shared.CodeValidation,
			fmt.Sprintf("Payment of %s exceeds pending amount %s", in.Amount.StringFixed(2), o.PendingAmount.StringFixed(2)))
	}

	newTotalPaid := o.TotalCost.Sub(o.PendingAmount).Add(in.Amount)
	newPending := o.TotalCost.Sub(newTotalPaid)

	status := PaymentPartiallyPaid
	remarks := InstallmentRemark(o.countPayments(PaymentPartiallyPaid) + 1)
	if !newPending.IsPositive() {
		status = PaymentPaid
		remarks = RemarkCompleted
	}

	payment := Payment{
		ID:              uuid.New(),
		PurchaseOrderID: o.ID,
		PaidBy:          in.PaidBy,
		Amount:          in.Amount,
		Method:          in.Method,
		TransactionID:   strings.TrimSpace(in.TransactionID),
		Remarks:         remarks,
		Notes:           strings.TrimSpace(in.Notes),
		Receipt:         in.Receipt,
		Status:          status,
		PaidAt:          time.Now(),
	}

	o.Payments = append(o.Payments, payment)
	o.PendingAmount = newPending
	o.PaymentPercentage = PaymentPercentage(newTotalPaid, o.TotalCost)
	o.Status = next
	o.UpdatedAt = payment.PaidAt

	o.AddDomainEvent(NewPaymentRecordedEvent(o, &payment))
	return &payment, nil
}

// PaymentPercentage is round(100 x paid / total), halves away from zero,
// capped at 100. A zero total counts as fully paid.
func PaymentPercentage(paid, total decimal.Decimal) int {
	if !total.IsPositive() {
		return 100
	}
	pct := paid.Mul(hundred).Div(total).Round(0).IntPart()
	return int(min(100, max(0, pct)))
}

// AttachMedia records QC media and marks the order SHIPPED
func (o *PurchaseOrder) AttachMedia(uploadedBy uuid.UUID, refs []shared.MediaRef) ([]Media, error) {
	if len(refs) == 0 {
		return nil, shared.NewDomainError(shared.CodeValidation, "At least one media file is required")
	}
	for _, ref := range refs {
		if !ref.IsImage() && !ref.IsVideo() {
			return nil, shared.NewDomainError(shared.CodeValidation, "QC media must be an image or a video, got "+ref.MediaType)
		}
	}
	next, err := NextStatus(o.Status, EventQCMediaAttached)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	added := make([]Media, 0, len(refs))
	for _, ref := range refs {
		added = append(added, Media{
			ID:              uuid.New(),
			PurchaseOrderID: o.ID,
			MediaRef:        ref,
			UploadedBy:      uploadedBy,
			UploadedAt:      now,
		})
	}
	o.Media = append(o.Media, added...)
	o.Status = next
	o.UpdatedAt = now

	o.AddDomainEvent(NewQCMediaAttachedEvent(o, len(added)))
	return added, nil
}

// ConfirmDelivery marks a shipping or shipped order as delivered
func (o *PurchaseOrder) ConfirmDelivery() error {
	next, err := NextStatus(o.Status, EventDeliveryConfirmed)
	if err != nil {
		return err
	}
	now := time.Now()
	o.Status = next
	o.DeliveredAt = &now
	o.UpdatedAt = now

	o.AddDomainEvent(NewPurchaseOrderDeliveredEvent(o))
	return nil
}

// Cancel moves a non-terminal, undelivered order to CANCELLED
func (o *PurchaseOrder) Cancel(reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError(shared.CodeValidation, "Cancel reason is required")
	}
	next, err := NextStatus(o.Status, EventCancelled)
	if err != nil {
		return err
	}
	now := time.Now()
	o.Status = next
	o.CancelledAt = &now
	o.CancelReason = reason
	o.UpdatedAt = now

	o.AddDomainEvent(NewPurchaseOrderCancelledEvent(o))
	return nil
}

// EnsureRestockable checks that a delivered order has not been restocked yet
func (o *PurchaseOrder) EnsureRestockable() error {
	if o.Status != StatusDelivered {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Only DELIVERED orders can be restocked, order is %s", o.Status))
	}
	if o.RestockedAt != nil {
		return shared.NewDomainError(shared.CodeInvalidState, "Order has already been restocked")
	}
	return nil
}

// MarkRestocked closes intake for the order
func (o *PurchaseOrder) MarkRestocked(notes string, summary RestockSummary) error {
	if err := o.EnsureRestockable(); err != nil {
		return err
	}
	now := time.Now()
	o.RestockedAt = &now
	o.WarehouseManagerReviewNotes = strings.TrimSpace(notes)
	o.UpdatedAt = now

	o.AddDomainEvent(NewOrderRestockedEvent(o, summary))
	return nil
}

// IsHistorical reports whether the order belongs to history rather than the
// active list: rejected, cancelled, or delivered and fully paid.
func (o *PurchaseOrder) IsHistorical() bool {
	switch o.Status {
	case StatusRejected, StatusCancelled:
		return true
	case StatusDelivered:
		return o.PaymentPercentage == 100 && o.PendingAmount.IsZero()
	}
	return false
}

// IsAccepted reports the supplier's order-level acceptance
func (o *PurchaseOrder) IsAccepted() bool {
	return o.Acceptance == AcceptanceAccepted
}

// TotalPaid is the amount paid so far
func (o *PurchaseOrder) TotalPaid() decimal.Decimal {
	return o.TotalCost.Sub(o.PendingAmount)
}

// GetItem returns the item with id, or nil
func (o *PurchaseOrder) GetItem(id uuid.UUID) *PurchaseOrderItem {
	for i := range o.Items {
		if o.Items[i].ID == id {
			return &o.Items[i]
		}
	}
	return nil
}

// GetAcceptedItem returns the accepted item with id, or nil
func (o *PurchaseOrder) GetAcceptedItem(id uuid.UUID) *PurchaseOrderItem {
	item := o.GetItem(id)
	if item == nil || !item.IsAccepted() {
		return nil
	}
	return item
}

// AcceptedItems returns the lines the supplier accepted
func (o *PurchaseOrder) AcceptedItems() []PurchaseOrderItem {
	accepted := make([]PurchaseOrderItem, 0, len(o.Items))
	for _, item := range o.Items {
		if item.IsAccepted() {
			accepted = append(accepted, item)
		}
	}
	return accepted
}

// recalculateTotals prices every non-rejected line plus delivery and resets
// the pending amount. Only valid before any payment is taken.
func (o *PurchaseOrder) recalculateTotals() {
	total := o.DeliveryCharges
	for i := range o.Items {
		if o.Items[i].countsTowardTotal() {
			total = total.Add(o.Items[i].LineTotal())
		}
	}
	o.TotalCost = total
	o.PendingAmount = total
	o.PaymentPercentage = 0
}

func (o *PurchaseOrder) countPayments(status PaymentStatus) int {
	n := 0
	for _, p := range o.Payments {
		if p.Status == status {
			n++
		}
	}
	return n
}
