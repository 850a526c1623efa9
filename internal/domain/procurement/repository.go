package procurement

import (
	"context"

	"github.com/google/uuid"
	"github.com/mayavriksh/backend/internal/domain/shared"
)

// Partition splits orders into the active list and history
type Partition string

const (
	PartitionActive  Partition = "ACTIVE"
	PartitionHistory Partition = "HISTORY"
)

// OrderScope restricts which orders a listing may return. An empty scope
// that is not All matches nothing.
type OrderScope struct {
	All          bool
	SupplierID   uuid.UUID
	WarehouseIDs []uuid.UUID
}

// ListQuery selects one page of orders
type ListQuery struct {
	Partition Partition
	Scope     OrderScope
	// Filter.Search matches the order id; Filter.OrderBy accepts
	// requestedAt, totalCost or status
	Filter shared.Filter
}

// PurchaseOrderRepository defines the interface for purchase order persistence
type PurchaseOrderRepository interface {
	// FindByID loads an order with items, payments and media
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)

	// FindByIDForUpdate loads an order like FindByID and locks the order row
	// until the surrounding transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)

	// Create inserts a new order with its items
	Create(ctx context.Context, order *PurchaseOrder) error

	// SaveWithLock updates the header under a version check, updates items,
	// and inserts payments and media not stored yet. Fails with
	// shared.ErrConcurrencyConflict when the version moved.
	SaveWithLock(ctx context.Context, order *PurchaseOrder) error

	// FindPage lists order headers (with items) for a query
	FindPage(ctx context.Context, q ListQuery) ([]PurchaseOrder, int64, error)

	// FindPayments lists an order's payments by payment time
	FindPayments(ctx context.Context, orderID uuid.UUID) ([]Payment, error)
}
