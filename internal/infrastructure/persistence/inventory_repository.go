package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mayavriksh/backend/internal/domain/catalog"
	"github.com/mayavriksh/backend/internal/domain/inventory"
	"github.com/mayavriksh/backend/internal/domain/shared"
	"github.com/mayavriksh/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// inventoryRow is satisfied by the plant and pot ledger models
type inventoryRow[T any] interface {
	*T
	ToDomain() (*inventory.InventoryRecord, error)
}

// GormInventoryRecordRepository implements InventoryRecordRepository using
// GORM. Plant records live in plant_inventory, pot records in pot_inventory.
type GormInventoryRecordRepository struct {
	db *gorm.DB
}

// NewGormInventoryRecordRepository creates a new GormInventoryRecordRepository
func NewGormInventoryRecordRepository(db *gorm.DB) *GormInventoryRecordRepository {
	return &GormInventoryRecordRepository{db: db}
}

// FindForUpdate loads the record for a warehouse and variant, locking the row
func (r *GormInventoryRecordRepository) FindForUpdate(ctx context.Context, warehouseID uuid.UUID, product catalog.Product) (*inventory.InventoryRecord, error) {
	q := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"})
	switch p := product.(type) {
	case catalog.PlantProduct:
		return findInventory[models.PlantInventoryModel](q.Where("warehouse_id = ? AND plant_variant_id = ?", warehouseID, p.PlantVariantID))
	case catalog.PotProduct:
		return findInventory[models.PotInventoryModel](q.Where("warehouse_id = ? AND pot_variant_id = ?", warehouseID, p.PotVariantID))
	}
	return nil, fmt.Errorf("unsupported product %T", product)
}

func findInventory[T any, PT inventoryRow[T]](q *gorm.DB) (*inventory.InventoryRecord, error) {
	var model T
	if err := q.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return PT(&model).ToDomain()
}

// Create inserts a new record. A concurrent insert for the same variant
// surfaces as shared.ErrConcurrencyConflict.
func (r *GormInventoryRecordRepository) Create(ctx context.Context, record *inventory.InventoryRecord) error {
	model, err := models.InventoryModelFromDomain(record)
	if err != nil {
		return err
	}
	return translateWriteError(r.db.WithContext(ctx).Create(model).Error)
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormInventoryRecordRepository) SaveWithLock(ctx context.Context, record *inventory.InventoryRecord) error {
	model, err := models.InventoryModelFromDomain(record)
	if err != nil {
		return err
	}

	nextVersion := record.Version + 1
	updatedAt := time.Now()
	cols := models.StockColumnsFromDomain(record)
	updates := cols.Updates()
	updates["version"] = nextVersion
	updates["updated_at"] = updatedAt

	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", record.ID, record.Version).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}

	record.Version = nextVersion
	record.UpdatedAt = updatedAt
	return nil
}

// FindByWarehouse lists records of one product type in a warehouse
func (r *GormInventoryRecordRepository) FindByWarehouse(ctx context.Context, warehouseID uuid.UUID, productType catalog.ProductType, filter shared.Filter) ([]inventory.InventoryRecord, int64, error) {
	switch productType {
	case catalog.ProductTypePlant:
		return listInventory[models.PlantInventoryModel](r.db.WithContext(ctx), warehouseID, filter)
	case catalog.ProductTypePot:
		return listInventory[models.PotInventoryModel](r.db.WithContext(ctx), warehouseID, filter)
	}
	return nil, 0, shared.NewDomainError(shared.CodeValidation, "Unknown product type: "+string(productType))
}

func listInventory[T any, PT inventoryRow[T]](db *gorm.DB, warehouseID uuid.UUID, filter shared.Filter) ([]inventory.InventoryRecord, int64, error) {
	query := db.Model(PT(new(T))).Where("warehouse_id = ?", warehouseID)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []T
	if err := query.
		Scopes(paginate(filter, inventorySort)).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	records := make([]inventory.InventoryRecord, 0, len(rows))
	for i := range rows {
		record, err := PT(&rows[i]).ToDomain()
		if err != nil {
			return nil, 0, err
		}
		records = append(records, *record)
	}
	return records, total, nil
}

// Ensure GormInventoryRecordRepository implements InventoryRecordRepository
var _ inventory.InventoryRecordRepository = (*GormInventoryRecordRepository)(nil)
