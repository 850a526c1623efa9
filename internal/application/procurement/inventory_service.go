package procurement

import (
	"context"

	"github.com/mayavriksh/backend/internal/domain/catalog"
	"github.com/mayavriksh/backend/internal/domain/identity"
	"github.com/mayavriksh/backend/internal/domain/inventory"
	"github.com/mayavriksh/backend/internal/domain/partner"
	"github.com/mayavriksh/backend/internal/domain/shared"
)

// InventoryService reads warehouse stock
type InventoryService struct {
	recordRepo  inventory.InventoryRecordRepository
	access      accessPolicy
	maxPageSize int
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(recordRepo inventory.InventoryRecordRepository, warehouseRepo partner.WarehouseRepository) *InventoryService {
	return &InventoryService{
		recordRepo:  recordRepo,
		access:      accessPolicy{warehouses: warehouseRepo},
		maxPageSize: defaultMaxPageSize,
	}
}

// SetMaxPageSize caps list page sizes
func (s *InventoryService) SetMaxPageSize(n int) {
	if n > 0 {
		s.maxPageSize = n
	}
}

// ListInventory lists one product type's stock in a warehouse
func (s *InventoryService) ListInventory(ctx context.Context, actor identity.Actor, q ListInventoryQuery) (*shared.Paginated[InventoryRecordResponse], error) {
	if err := validateCommand(q); err != nil {
		return nil, err
	}
	if err := s.access.requireWarehouse(ctx, actor, q.WarehouseID); err != nil {
		return nil, err
	}

	filter := shared.Filter{
		Page:     q.Page,
		PageSize: q.Limit,
		OrderBy:  "updated_at",
		OrderDir: "desc",
	}.Normalize(s.maxPageSize)

	records, total, err := s.recordRepo.FindByWarehouse(ctx, q.WarehouseID, catalog.ProductType(q.ProductType), filter)
	if err != nil {
		return nil, err
	}
	items := make([]InventoryRecordResponse, len(records))
	for i := range records {
		items[i] = ToInventoryRecordResponse(&records[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}
