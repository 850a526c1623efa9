package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/mayavriksh/backend/internal/domain/catalog"
	"github.com/mayavriksh/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// costPricePlaces is the scale kept for weighted-average unit costs
const costPricePlaces = 4

// Intake is one line of goods arriving at a warehouse
type Intake struct {
	UnitsReceived int
	UnitsDamaged  int
	UnitCostPrice decimal.Decimal
}

// Validate checks the intake quantities
func (in Intake) Validate() error {
	if in.UnitsReceived < 0 || in.UnitsDamaged < 0 {
		return shared.NewDomainError(shared.CodeValidation, "Units cannot be negative")
	}
	if in.UnitCostPrice.IsNegative() {
		return shared.NewDomainError(shared.CodeValidation, "Unit cost price cannot be negative")
	}
	return nil
}

// UsableUnits is received minus damaged, floored at zero
func (in Intake) UsableUnits() int {
	return max(0, in.UnitsReceived-in.UnitsDamaged)
}

// ReceivedCost is the cost of every received unit, damaged ones included
func (in Intake) ReceivedCost() decimal.Decimal {
	return in.UnitCostPrice.Mul(decimal.NewFromInt(int64(in.UnitsReceived)))
}

// InventoryRecord is the stock held for one product variant in one warehouse.
// TrueCostPrice is the running weighted average of every unit received.
type InventoryRecord struct {
	shared.BaseAggregateRoot
	WarehouseID         uuid.UUID
	Product             catalog.Product
	StockIn             int
	StockOut            int
	StockLossCount      int
	CurrentStock        int
	LatestQuantityAdded int
	TotalCost           decimal.Decimal
	TrueCostPrice       decimal.Decimal
	LastRestockedAt     *time.Time
}

// NewInventoryRecord seeds a record from its first intake. The first unit
// cost becomes the true cost price.
func NewInventoryRecord(warehouseID uuid.UUID, product catalog.Product, in Intake) (*InventoryRecord, error) {
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Warehouse ID cannot be empty")
	}
	if product == nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Product cannot be empty")
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	return &InventoryRecord{
		BaseAggregateRoot:   shared.NewBaseAggregateRoot(),
		WarehouseID:         warehouseID,
		Product:             product,
		StockIn:             in.UnitsReceived,
		StockLossCount:      in.UnitsDamaged,
		CurrentStock:        in.UsableUnits(),
		LatestQuantityAdded: in.UsableUnits(),
		TotalCost:           in.ReceivedCost(),
		TrueCostPrice:       in.UnitCostPrice,
		LastRestockedAt:     &now,
	}, nil
}

// Restock merges an intake into the record and recomputes the weighted
// average cost over all units ever received.
func (r *InventoryRecord) Restock(in Intake) error {
	if err := in.Validate(); err != nil {
		return err
	}

	r.StockIn += in.UnitsReceived
	r.StockLossCount += in.UnitsDamaged
	r.CurrentStock += in.UsableUnits()
	r.LatestQuantityAdded = in.UsableUnits()
	r.TotalCost = r.TotalCost.Add(in.ReceivedCost())
	if r.StockIn > 0 {
		r.TrueCostPrice = r.TotalCost.Div(decimal.NewFromInt(int64(r.StockIn))).Round(costPricePlaces)
	}

	now := time.Now()
	r.LastRestockedAt = &now
	r.UpdatedAt = now
	return nil
}

// StockValue is current stock valued at the true cost price
func (r *InventoryRecord) StockValue() decimal.Decimal {
	return r.TrueCostPrice.Mul(decimal.NewFromInt(int64(r.CurrentStock)))
}
