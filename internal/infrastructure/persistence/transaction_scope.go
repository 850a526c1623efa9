package persistence

import (
	"context"

	appproc "github.com/mayavriksh/backend/internal/application/procurement"
	"github.com/mayavriksh/backend/internal/domain/identity"
	"github.com/mayavriksh/backend/internal/domain/inventory"
	"github.com/mayavriksh/backend/internal/domain/procurement"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appproc.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// OrderRepo returns the purchase order repository scoped to the current transaction.
func (r *gormTransactionalRepositories) OrderRepo() procurement.PurchaseOrderRepository {
	return NewGormPurchaseOrderRepository(r.tx)
}

// InventoryRepo returns the inventory record repository scoped to the current transaction.
func (r *gormTransactionalRepositories) InventoryRepo() inventory.InventoryRecordRepository {
	return NewGormInventoryRecordRepository(r.tx)
}

// DamageLogRepo returns the damage log repository scoped to the current transaction.
func (r *gormTransactionalRepositories) DamageLogRepo() inventory.DamageLogRepository {
	return NewGormDamageLogRepository(r.tx)
}

// RestockLogRepo returns the restock log repository scoped to the current transaction.
func (r *gormTransactionalRepositories) RestockLogRepo() inventory.RestockLogRepository {
	return NewGormRestockLogRepository(r.tx)
}

// UserRepo returns the user repository scoped to the current transaction.
func (r *gormTransactionalRepositories) UserRepo() identity.UserRepository {
	return NewGormUserRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appproc.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appproc.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
