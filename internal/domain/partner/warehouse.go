package partner

import (
	"strings"

	"github.com/google/uuid"
	"github.com/mayavriksh/backend/internal/domain/shared"
)

// Warehouse is a stocking location. Purchase orders are raised for a
// warehouse and restocked into it.
type Warehouse struct {
	shared.BaseEntity
	Name      string
	City      string
	ManagerID *uuid.UUID
	IsActive  bool
}

// NewWarehouse creates an active warehouse
func NewWarehouse(name, city string) (*Warehouse, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Warehouse name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Warehouse name cannot exceed 200 characters")
	}
	return &Warehouse{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		City:       strings.TrimSpace(city),
		IsActive:   true,
	}, nil
}

// AssignManager sets the warehouse manager
func (w *Warehouse) AssignManager(userID uuid.UUID) {
	w.ManagerID = &userID
}

// IsManagedBy reports whether userID manages this warehouse
func (w *Warehouse) IsManagedBy(userID uuid.UUID) bool {
	return w.ManagerID != nil && *w.ManagerID == userID
}
