package procurement

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/mayavriksh/backend/internal/domain/identity"
	"github.com/mayavriksh/backend/internal/domain/partner"
	"github.com/mayavriksh/backend/internal/domain/procurement"
	"github.com/mayavriksh/backend/internal/domain/shared"
)

// accessPolicy decides which orders and warehouses an actor may touch.
// Admins pass every check.
type accessPolicy struct {
	warehouses partner.WarehouseRepository
}

// listScope restricts order listings to what the actor may see
func (p accessPolicy) listScope(ctx context.Context, actor identity.Actor) (procurement.OrderScope, error) {
	switch actor.Role {
	case identity.RoleAdmin:
		return procurement.OrderScope{All: true}, nil
	case identity.RoleSupplier:
		return procurement.OrderScope{SupplierID: actor.UserID}, nil
	case identity.RoleWarehouseManager:
		ids, err := p.warehouses.FindIDsByManager(ctx, actor.UserID)
		if err != nil {
			return procurement.OrderScope{}, err
		}
		return procurement.OrderScope{WarehouseIDs: ids}, nil
	}
	return procurement.OrderScope{}, shared.ErrForbidden
}

// requireWarehouse lets admins and the warehouse's manager through. A missing
// warehouse is NotFound.
func (p accessPolicy) requireWarehouse(ctx context.Context, actor identity.Actor, warehouseID uuid.UUID) error {
	warehouse, err := p.warehouses.FindByID(ctx, warehouseID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError(shared.CodeNotFound, "Warehouse not found")
		}
		return err
	}
	if actor.IsAdmin() {
		return nil
	}
	if actor.Role == identity.RoleWarehouseManager && warehouse.IsManagedBy(actor.UserID) {
		return nil
	}
	return shared.NewDomainError(shared.CodeForbidden, "You do not manage this warehouse")
}

// requireOrderView lets admins, the order's supplier and the manager of the
// order's warehouse through
func (p accessPolicy) requireOrderView(ctx context.Context, actor identity.Actor, order *procurement.PurchaseOrder) error {
	switch actor.Role {
	case identity.RoleAdmin:
		return nil
	case identity.RoleSupplier:
		if order.SupplierID == actor.UserID {
			return nil
		}
	case identity.RoleWarehouseManager:
		return p.requireWarehouse(ctx, actor, order.WarehouseID)
	}
	return shared.NewDomainError(shared.CodeForbidden, "Order is outside your scope")
}

// requireOrderManage lets admins and the manager of the order's warehouse
// through
func (p accessPolicy) requireOrderManage(ctx context.Context, actor identity.Actor, order *procurement.PurchaseOrder) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.Role != identity.RoleWarehouseManager {
		return shared.NewDomainError(shared.CodeForbidden, "Only admins and warehouse managers can do this")
	}
	return p.requireWarehouse(ctx, actor, order.WarehouseID)
}

// loadOrder fetches an order for a pre-transaction access check
func loadOrder(ctx context.Context, orders procurement.PurchaseOrderRepository, id uuid.UUID) (*procurement.PurchaseOrder, error) {
	order, err := orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, "Purchase order not found")
		}
		return nil, err
	}
	return order, nil
}
