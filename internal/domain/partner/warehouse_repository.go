package partner

import (
	"context"

	"github.com/google/uuid"
)

// WarehouseRepository defines the interface for warehouse persistence
type WarehouseRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Warehouse, error)
	// FindIDsByManager returns the ids of warehouses managed by userID
	FindIDsByManager(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	Save(ctx context.Context, warehouse *Warehouse) error
}
