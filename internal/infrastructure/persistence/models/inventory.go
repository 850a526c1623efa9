package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mayavriksh/backend/internal/domain/catalog"
	"github.com/mayavriksh/backend/internal/domain/identity"
	"github.com/mayavriksh/backend/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// StockColumns are the ledger columns shared by the plant and pot inventory
// tables.
type StockColumns struct {
	StockIn             int             `gorm:"not null;default:0"`
	StockOut            int             `gorm:"not null;default:0"`
	StockLossCount      int             `gorm:"not null;default:0"`
	CurrentStock        int             `gorm:"not null;default:0"`
	LatestQuantityAdded int             `gorm:"not null;default:0"`
	TotalCost           decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	TrueCostPrice       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	LastRestockedAt     *time.Time
}

func (c *StockColumns) fromDomain(r *inventory.InventoryRecord) {
	c.StockIn = r.StockIn
	c.StockOut = r.StockOut
	c.StockLossCount = r.StockLossCount
	c.CurrentStock = r.CurrentStock
	c.LatestQuantityAdded = r.LatestQuantityAdded
	c.TotalCost = r.TotalCost
	c.TrueCostPrice = r.TrueCostPrice
	c.LastRestockedAt = r.LastRestockedAt
}

func (c *StockColumns) toDomain(r *inventory.InventoryRecord) {
	r.StockIn = c.StockIn
	r.StockOut = c.StockOut
	r.StockLossCount = c.StockLossCount
	r.CurrentStock = c.CurrentStock
	r.LatestQuantityAdded = c.LatestQuantityAdded
	r.TotalCost = c.TotalCost
	r.TrueCostPrice = c.TrueCostPrice
	r.LastRestockedAt = c.LastRestockedAt
}

// Updates returns the column map written by a version-checked update.
func (c *StockColumns) Updates() map[string]any {
	return map[string]any{
		"stock_in":              c.StockIn,
		"stock_out":             c.StockOut,
		"stock_loss_count":      c.StockLossCount,
		"current_stock":         c.CurrentStock,
		"latest_quantity_added": c.LatestQuantityAdded,
		"total_cost":            c.TotalCost,
		"true_cost_price":       c.TrueCostPrice,
		"last_restocked_at":     c.LastRestockedAt,
	}
}

// PlantInventoryModel is the inventory ledger row for a plant variant in a
// warehouse.
type PlantInventoryModel struct {
	AggregateModel
	WarehouseID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_plant_inventory_wh_variant,priority:1"`
	PlantID        uuid.UUID `gorm:"type:uuid;not null"`
	PlantVariantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_plant_inventory_wh_variant,priority:2"`
	StockColumns
}

// TableName returns the table name for GORM
func (PlantInventoryModel) TableName() string {
	return "plant_inventory"
}

// ToDomain converts the persistence model to a domain InventoryRecord.
func (m *PlantInventoryModel) ToDomain() (*inventory.InventoryRecord, error) {
	r := &inventory.InventoryRecord{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		WarehouseID:       m.WarehouseID,
		Product:           catalog.PlantProduct{PlantID: m.PlantID, PlantVariantID: m.PlantVariantID},
	}
	m.toDomain(r)
	return r, nil
}

// PotInventoryModel is the inventory ledger row for a pot variant in a
// warehouse.
type PotInventoryModel struct {
	AggregateModel
	WarehouseID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_pot_inventory_wh_variant,priority:1"`
	PotCategoryID uuid.UUID `gorm:"type:uuid;not null"`
	PotVariantID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_pot_inventory_wh_variant,priority:2"`
	StockColumns
}

// TableName returns the table name for GORM
func (PotInventoryModel) TableName() string {
	return "pot_inventory"
}

// ToDomain converts the persistence model to a domain InventoryRecord.
func (m *PotInventoryModel) ToDomain() (*inventory.InventoryRecord, error) {
	r := &inventory.InventoryRecord{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		WarehouseID:       m.WarehouseID,
		Product:           catalog.PotProduct{PotCategoryID: m.PotCategoryID, PotVariantID: m.PotVariantID},
	}
	m.toDomain(r)
	return r, nil
}

// InventoryModelFromDomain returns the plant or pot row for a record,
// selected by the record's product.
func InventoryModelFromDomain(r *inventory.InventoryRecord) (any, error) {
	switch p := r.Product.(type) {
	case catalog.PlantProduct:
		m := &PlantInventoryModel{WarehouseID: r.WarehouseID, PlantID: p.PlantID, PlantVariantID: p.PlantVariantID}
		m.FromDomainAggregateRoot(r.BaseAggregateRoot)
		m.fromDomain(r)
		return m, nil
	case catalog.PotProduct:
		m := &PotInventoryModel{WarehouseID: r.WarehouseID, PotCategoryID: p.PotCategoryID, PotVariantID: p.PotVariantID}
		m.FromDomainAggregateRoot(r.BaseAggregateRoot)
		m.fromDomain(r)
		return m, nil
	}
	return nil, fmt.Errorf("inventory record %s has no product", r.ID)
}

// StockColumnsFromDomain extracts the ledger columns of a record.
func StockColumnsFromDomain(r *inventory.InventoryRecord) StockColumns {
	var c StockColumns
	c.fromDomain(r)
	return c
}

// DamageLogModel is the persistence model for a damage log. Rows are
// insert-only.
type DamageLogModel struct {
	ID                  uuid.UUID `gorm:"type:uuid;primary_key"`
	PurchaseOrderID     uuid.UUID `gorm:"type:uuid;not null;index"`
	PurchaseOrderItemID uuid.UUID `gorm:"type:uuid;not null"`
	WarehouseID         uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductModel
	HandledByID       uuid.UUID            `gorm:"type:uuid;not null"`
	HandledBy         identity.Role        `gorm:"type:varchar(30);not null"`
	DamageType        inventory.DamageType `gorm:"type:varchar(30);not null"`
	UnitsReceived     int                  `gorm:"not null"`
	UnitsDamaged      int                  `gorm:"not null"`
	UnitsDamagedPrice decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	TotalAmount       decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	Reason            string               `gorm:"type:varchar(500)"`
	Notes             string               `gorm:"type:varchar(1000)"`
	Evidence          MediaModel           `gorm:"embedded;embeddedPrefix:evidence_"`
	CreatedAt         time.Time            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DamageLogModel) TableName() string {
	return "damage_logs"
}

// ToDomain converts the persistence model to a domain DamageLog.
func (m *DamageLogModel) ToDomain() (*inventory.DamageLog, error) {
	product, err := m.ToDomainProduct()
	if err != nil {
		return nil, fmt.Errorf("damage log %s: %w", m.ID, err)
	}
	return &inventory.DamageLog{
		ID:                  m.ID,
		PurchaseOrderID:     m.PurchaseOrderID,
		PurchaseOrderItemID: m.PurchaseOrderItemID,
		WarehouseID:         m.WarehouseID,
		Product:             product,
		HandledByID:         m.HandledByID,
		HandledBy:           m.HandledBy,
		DamageType:          m.DamageType,
		UnitsReceived:       m.UnitsReceived,
		UnitsDamaged:        m.UnitsDamaged,
		UnitsDamagedPrice:   m.UnitsDamagedPrice,
		TotalAmount:         m.TotalAmount,
		Reason:              m.Reason,
		Notes:               m.Notes,
		Evidence:            m.Evidence.ToDomainRef(),
		CreatedAt:           m.CreatedAt,
	}, nil
}

// DamageLogModelFromDomain creates a persistence model from a domain DamageLog.
func DamageLogModelFromDomain(l *inventory.DamageLog) *DamageLogModel {
	m := &DamageLogModel{
		ID:                  l.ID,
		PurchaseOrderID:     l.PurchaseOrderID,
		PurchaseOrderItemID: l.PurchaseOrderItemID,
		WarehouseID:         l.WarehouseID,
		HandledByID:         l.HandledByID,
		HandledBy:           l.HandledBy,
		DamageType:          l.DamageType,
		UnitsReceived:       l.UnitsReceived,
		UnitsDamaged:        l.UnitsDamaged,
		UnitsDamagedPrice:   l.UnitsDamagedPrice,
		TotalAmount:         l.TotalAmount,
		Reason:              l.Reason,
		Notes:               l.Notes,
		Evidence:            MediaModelFromRef(l.Evidence),
		CreatedAt:           l.CreatedAt,
	}
	m.FromDomainProduct(l.Product)
	return m
}

// RestockLogModel is the persistence model for a restock audit row.
type RestockLogModel struct {
	ID                  uuid.UUID `gorm:"type:uuid;primary_key"`
	SupplierID          uuid.UUID `gorm:"type:uuid;not null;index"`
	WarehouseID         uuid.UUID `gorm:"type:uuid;not null;index"`
	PurchaseOrderID     uuid.UUID `gorm:"type:uuid;not null;index"`
	PurchaseOrderItemID uuid.UUID `gorm:"type:uuid;not null"`
	ProductModel
	Units         int             `gorm:"not null"`
	UnitCostPrice decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TotalCost     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CreatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (RestockLogModel) TableName() string {
	return "restock_logs"
}

// ToDomain converts the persistence model to a domain RestockLog.
func (m *RestockLogModel) ToDomain() (*inventory.RestockLog, error) {
	product, err := m.ToDomainProduct()
	if err != nil {
		return nil, fmt.Errorf("restock log %s: %w", m.ID, err)
	}
	return &inventory.RestockLog{
		ID:                  m.ID,
		SupplierID:          m.SupplierID,
		WarehouseID:         m.WarehouseID,
		PurchaseOrderID:     m.PurchaseOrderID,
		PurchaseOrderItemID: m.PurchaseOrderItemID,
		Product:             product,
		Units:               m.Units,
		UnitCostPrice:       m.UnitCostPrice,
		TotalCost:           m.TotalCost,
		CreatedAt:           m.CreatedAt,
	}, nil
}

// RestockLogModelFromDomain creates a persistence model from a domain RestockLog.
func RestockLogModelFromDomain(l *inventory.RestockLog) *RestockLogModel {
	m := &RestockLogModel{
		ID:                  l.ID,
		SupplierID:          l.SupplierID,
		WarehouseID:         l.WarehouseID,
		PurchaseOrderID:     l.PurchaseOrderID,
		PurchaseOrderItemID: l.PurchaseOrderItemID,
		Units:               l.Units,
		UnitCostPrice:       l.UnitCostPrice,
		TotalCost:           l.TotalCost,
		CreatedAt:           l.CreatedAt,
	}
	m.FromDomainProduct(l.Product)
	return m
}
