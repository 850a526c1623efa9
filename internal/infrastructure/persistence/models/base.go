package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/mayavriksh/backend/internal/domain/catalog"
	"github.com/mayavriksh/backend/internal/domain/shared"
)

// BaseModel provides common persistence fields for all models.
// It maps to the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// AggregateModel provides common persistence fields for aggregate roots.
// It extends BaseModel with version for optimistic locking.
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

// FromDomainAggregateRoot populates AggregateModel from domain BaseAggregateRoot
func (m *AggregateModel) FromDomainAggregateRoot(a shared.BaseAggregateRoot) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.Version = a.Version
}

// ToDomainAggregateRoot builds the domain BaseAggregateRoot
func (m *AggregateModel) ToDomainAggregateRoot() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{
		BaseEntity: m.BaseModel.ToDomain(),
		Version:    m.Version,
	}
}

// ProductModel holds the flattened product reference. Exactly one pair of
// ids is set; a CHECK constraint in the migration enforces it.
type ProductModel struct {
	ProductType    catalog.ProductType `gorm:"type:varchar(10);not null"`
	PlantID        *uuid.UUID          `gorm:"type:uuid"`
	PlantVariantID *uuid.UUID          `gorm:"type:uuid;index"`
	PotCategoryID  *uuid.UUID          `gorm:"type:uuid"`
	PotVariantID   *uuid.UUID          `gorm:"type:uuid;index"`
}

// FromDomainProduct populates the columns from a product
func (m *ProductModel) FromDomainProduct(p catalog.Product) {
	cols := catalog.Flatten(p)
	m.ProductType = cols.ProductType
	m.PlantID = cols.PlantID
	m.PlantVariantID = cols.PlantVariantID
	m.PotCategoryID = cols.PotCategoryID
	m.PotVariantID = cols.PotVariantID
}

// ToDomainProduct rebuilds the product union
func (m *ProductModel) ToDomainProduct() (catalog.Product, error) {
	return catalog.ProductColumns{
		ProductType:    m.ProductType,
		PlantID:        m.PlantID,
		PlantVariantID: m.PlantVariantID,
		PotCategoryID:  m.PotCategoryID,
		PotVariantID:   m.PotVariantID,
	}.Product()
}

// MediaModel holds a blob reference
type MediaModel struct {
	URL       string `gorm:"column:url;type:varchar(1024)"`
	PublicID  string `gorm:"column:public_id;type:varchar(512)"`
	MediaType string `gorm:"column:media_type;type:varchar(100)"`
}

// ToDomainRef returns the reference, or nil when no blob is stored
func (m MediaModel) ToDomainRef() *shared.MediaRef {
	if m.PublicID == "" && m.URL == "" {
		return nil
	}
	return &shared.MediaRef{URL: m.URL, PublicID: m.PublicID, MediaType: m.MediaType}
}

// MediaModelFromRef flattens an optional reference
func MediaModelFromRef(ref *shared.MediaRef) MediaModel {
	if ref == nil {
		return MediaModel{}
	}
	return MediaModel{URL: ref.URL, PublicID: ref.PublicID, MediaType: ref.MediaType}
}
