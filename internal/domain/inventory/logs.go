package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/mayavriksh/backend/internal/domain/catalog"
	"github.com/mayavriksh/backend/internal/domain/identity"
	"github.com/mayavriksh/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DamageType classifies damage found at intake
type DamageType string

const (
	DamageTypeTransit       DamageType = "TRANSIT"
	DamageTypeDeadOnArrival DamageType = "DEAD_ON_ARRIVAL"
	DamageTypeBroken        DamageType = "BROKEN"
	DamageTypePest          DamageType = "PEST_INFESTATION"
	DamageTypeOther         DamageType = "OTHER"
)

// IsValid checks if the damage type is known
func (t DamageType) IsValid() bool {
	switch t {
	case DamageTypeTransit, DamageTypeDeadOnArrival, DamageTypeBroken, DamageTypePest, DamageTypeOther:
		return true
	}
	return false
}

// DamageLog records damaged units found on one order item. Rows are never
// updated.
type DamageLog struct {
	ID                  uuid.UUID
	PurchaseOrderID     uuid.UUID
	PurchaseOrderItemID uuid.UUID
	WarehouseID         uuid.UUID
	Product             catalog.Product
	HandledByID         uuid.UUID
	HandledBy           identity.Role
	DamageType          DamageType
	UnitsReceived       int
	UnitsDamaged        int
	UnitsDamagedPrice   decimal.Decimal
	TotalAmount         decimal.Decimal
	Reason              string
	Notes               string
	Evidence            *shared.MediaRef
	CreatedAt           time.Time
}

// DamageDetails carries the descriptive part of a damage report
type DamageDetails struct {
	Type     DamageType
	Reason   string
	Notes    string
	Evidence *shared.MediaRef
}

// NewDamageLog builds a damage row for an intake with damaged units.
// TotalAmount is damaged units times unit cost.
func NewDamageLog(orderID, itemID, warehouseID uuid.UUID, product catalog.Product, handler identity.Actor, in Intake, d DamageDetails) (*DamageLog, error) {
	if in.UnitsDamaged <= 0 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Damage log requires damaged units")
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if d.Type == "" {
		d.Type = DamageTypeOther
	}
	if !d.Type.IsValid() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Unknown damage type: "+string(d.Type))
	}

	return &DamageLog{
		ID:                  uuid.New(),
		PurchaseOrderID:     orderID,
		PurchaseOrderItemID: itemID,
		WarehouseID:         warehouseID,
		Product:             product,
		HandledByID:         handler.UserID,
		HandledBy:           handler.Role,
		DamageType:          d.Type,
		UnitsReceived:       in.UnitsReceived,
		UnitsDamaged:        in.UnitsDamaged,
		UnitsDamagedPrice:   in.UnitCostPrice,
		TotalAmount:         in.UnitCostPrice.Mul(decimal.NewFromInt(int64(in.UnitsDamaged))),
		Reason:              d.Reason,
		Notes:               d.Notes,
		Evidence:            d.Evidence,
		CreatedAt:           time.Now(),
	}, nil
}

// RestockLog is the audit row for one stock addition
type RestockLog struct {
	ID                  uuid.UUID
	SupplierID          uuid.UUID
	WarehouseID         uuid.UUID
	PurchaseOrderID     uuid.UUID
	PurchaseOrderItemID uuid.UUID
	Product             catalog.Product
	Units               int
	UnitCostPrice       decimal.Decimal
	TotalCost           decimal.Decimal
	CreatedAt           time.Time
}

// NewRestockLog builds an audit row for received units
func NewRestockLog(supplierID, warehouseID, orderID, itemID uuid.UUID, product catalog.Product, units int, unitCost decimal.Decimal) (*RestockLog, error) {
	if units <= 0 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Restock log requires received units")
	}
	return &RestockLog{
		ID:                  uuid.New(),
		SupplierID:          supplierID,
		WarehouseID:         warehouseID,
		PurchaseOrderID:     orderID,
		PurchaseOrderItemID: itemID,
		Product:             product,
		Units:               units,
		UnitCostPrice:       unitCost,
		TotalCost:           unitCost.Mul(decimal.NewFromInt(int64(units))),
		CreatedAt:           time.Now(),
	}, nil
}
