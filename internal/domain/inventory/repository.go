package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/mayavriksh/backend/internal/domain/catalog"
	"github.com/mayavriksh/backend/internal/domain/shared"
)

// InventoryRecordRepository defines the interface for inventory record persistence.
// Plant and pot records are stored apart; the product's type selects the store.
type InventoryRecordRepository interface {
	// FindForUpdate loads the record for (warehouse, variant) and locks the row
	// for the rest of the transaction. Returns shared.ErrNotFound if absent.
	FindForUpdate(ctx context.Context, warehouseID uuid.UUID, product catalog.Product) (*InventoryRecord, error)

	// Create inserts a new record
	Create(ctx context.Context, record *InventoryRecord) error

	// SaveWithLock updates a record, failing with shared.ErrConcurrencyConflict
	// when the stored version moved
	SaveWithLock(ctx context.Context, record *InventoryRecord) error

	// FindByWarehouse lists records of one product type in a warehouse
	FindByWarehouse(ctx context.Context, warehouseID uuid.UUID, productType catalog.ProductType, filter shared.Filter) ([]InventoryRecord, int64, error)
}

// DamageLogRepository is append-only storage for damage logs
type DamageLogRepository interface {
	Create(ctx context.Context, log *DamageLog) error
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]DamageLog, error)
}

// RestockLogRepository is append-only storage for restock logs
type RestockLogRepository interface {
	Create(ctx context.Context, log *RestockLog) error
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]RestockLog, error)
}
