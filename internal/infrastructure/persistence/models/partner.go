package models

import (
	"github.com/google/uuid"
	"github.com/mayavriksh/backend/internal/domain/partner"
)

// WarehouseModel is the persistence model for the Warehouse domain entity.
type WarehouseModel struct {
	BaseModel
	Name      string     `gorm:"type:varchar(200);not null"`
	City      string     `gorm:"type:varchar(100)"`
	ManagerID *uuid.UUID `gorm:"type:uuid;index"`
	IsActive  bool       `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (WarehouseModel) TableName() string {
	return "warehouses"
}

// ToDomain converts the persistence model to a domain Warehouse entity.
func (m *WarehouseModel) ToDomain() *partner.Warehouse {
	return &partner.Warehouse{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		City:       m.City,
		ManagerID:  m.ManagerID,
		IsActive:   m.IsActive,
	}
}

// FromDomain populates the persistence model from a domain Warehouse entity.
func (m *WarehouseModel) FromDomain(w *partner.Warehouse) {
	m.FromDomainBaseEntity(w.BaseEntity)
	m.Name = w.Name
	m.City = w.City
	m.ManagerID = w.ManagerID
	m.IsActive = w.IsActive
}

// WarehouseModelFromDomain creates a new persistence model from a domain Warehouse entity.
func WarehouseModelFromDomain(w *partner.Warehouse) *WarehouseModel {
	m := &WarehouseModel{}
	m.FromDomain(w)
	return m
}
