// Package catalog holds the product references shared by procurement and
// inventory. Catalog browsing itself lives outside this service.
package catalog

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/mayavriksh/backend/internal/domain/shared"
)

// ProductType discriminates the product union
type ProductType string

const (
	ProductTypePlant ProductType = "PLANT"
	ProductTypePot   ProductType = "POT"
)

// IsValid checks if the product type is known
func (t ProductType) IsValid() bool {
	return t == ProductTypePlant || t == ProductTypePot
}

// String returns the string representation of ProductType
func (t ProductType) String() string {
	return string(t)
}

// Product references a sellable variant. It is either a PlantProduct or a
// PotProduct; callers switch on the concrete type.
type Product interface {
	Type() ProductType
	// VariantID is the stock-keeping key used by the inventory ledger
	VariantID() uuid.UUID
	isProduct()
}

// PlantProduct references a plant variant
type PlantProduct struct {
	PlantID        uuid.UUID `json:"plant_id"`
	PlantVariantID uuid.UUID `json:"plant_variant_id"`
}

func (PlantProduct) Type() ProductType      { return ProductTypePlant }
func (p PlantProduct) VariantID() uuid.UUID { return p.PlantVariantID }
func (PlantProduct) isProduct()             {}

// PotProduct references a pot variant
type PotProduct struct {
	PotCategoryID uuid.UUID `json:"pot_category_id"`
	PotVariantID  uuid.UUID `json:"pot_variant_id"`
}

func (PotProduct) Type() ProductType      { return ProductTypePot }
func (p PotProduct) VariantID() uuid.UUID { return p.PotVariantID }
func (PotProduct) isProduct()             {}

// NewProduct builds the union member for productType. parentID is the plant
// or pot category id.
func NewProduct(productType ProductType, parentID, variantID uuid.UUID) (Product, error) {
	if parentID == uuid.Nil || variantID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Product and variant ids are required")
	}
	switch productType {
	case ProductTypePlant:
		return PlantProduct{PlantID: parentID, PlantVariantID: variantID}, nil
	case ProductTypePot:
		return PotProduct{PotCategoryID: parentID, PotVariantID: variantID}, nil
	}
	return nil, shared.NewDomainError(shared.CodeValidation, fmt.Sprintf("Unknown product type: %s", productType))
}

// ProductColumns is the flattened form of a Product used by row-oriented
// storage. Exactly one pair of ids is set, according to ProductType.
type ProductColumns struct {
	ProductType    ProductType
	PlantID        *uuid.UUID
	PlantVariantID *uuid.UUID
	PotCategoryID  *uuid.UUID
	PotVariantID   *uuid.UUID
}

// Flatten converts a Product into columns
func Flatten(p Product) ProductColumns {
	switch v := p.(type) {
	case PlantProduct:
		return ProductColumns{ProductType: ProductTypePlant, PlantID: ptr(v.PlantID), PlantVariantID: ptr(v.PlantVariantID)}
	case PotProduct:
		return ProductColumns{ProductType: ProductTypePot, PotCategoryID: ptr(v.PotCategoryID), PotVariantID: ptr(v.PotVariantID)}
	}
	return ProductColumns{}
}

// Product rebuilds the union from columns. It fails when the populated ids do
// not match ProductType.
func (c ProductColumns) Product() (Product, error) {
	switch c.ProductType {
	case ProductTypePlant:
		if c.PlantID == nil || c.PlantVariantID == nil || c.PotCategoryID != nil || c.PotVariantID != nil {
			return nil, fmt.Errorf("plant product row has inconsistent references")
		}
		return PlantProduct{PlantID: *c.PlantID, PlantVariantID: *c.PlantVariantID}, nil
	case ProductTypePot:
		if c.PotCategoryID == nil || c.PotVariantID == nil || c.PlantID != nil || c.PlantVariantID != nil {
			return nil, fmt.Errorf("pot product row has inconsistent references")
		}
		return PotProduct{PotCategoryID: *c.PotCategoryID, PotVariantID: *c.PotVariantID}, nil
	}
	return nil, fmt.Errorf("unknown product type %q", c.ProductType)
}

func ptr(id uuid.UUID) *uuid.UUID {
	return &id
}
