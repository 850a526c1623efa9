package procurement

import (
	"context"

	"github.com/mayavriksh/backend/internal/domain/identity"
	"github.com/mayavriksh/backend/internal/domain/inventory"
	"github.com/mayavriksh/backend/internal/domain/procurement"
)

// NoOpTransactionScope runs the function directly on the given repositories.
// Used by tests and by stores without transaction support.
type NoOpTransactionScope struct {
	orderRepo      procurement.PurchaseOrderRepository
	inventoryRepo  inventory.InventoryRecordRepository
	damageLogRepo  inventory.DamageLogRepository
	restockLogRepo inventory.RestockLogRepository
	userRepo       identity.UserRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	orderRepo procurement.PurchaseOrderRepository,
	inventoryRepo inventory.InventoryRecordRepository,
	damageLogRepo inventory.DamageLogRepository,
	restockLogRepo inventory.RestockLogRepository,
	userRepo identity.UserRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		orderRepo:      orderRepo,
		inventoryRepo:  inventoryRepo,
		damageLogRepo:  damageLogRepo,
		restockLogRepo: restockLogRepo,
		userRepo:       userRepo,
	}
}

// Execute runs fn without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) OrderRepo() procurement.PurchaseOrderRepository     { return s.orderRepo }
func (s *NoOpTransactionScope) InventoryRepo() inventory.InventoryRecordRepository { return s.inventoryRepo }
func (s *NoOpTransactionScope) DamageLogRepo() inventory.DamageLogRepository       { return s.damageLogRepo }
func (s *NoOpTransactionScope) RestockLogRepo() inventory.RestockLogRepository     { return s.restockLogRepo }
func (s *NoOpTransactionScope) UserRepo() identity.UserRepository                  { return s.userRepo }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
