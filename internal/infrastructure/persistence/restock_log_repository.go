package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/mayavriksh/backend/internal/domain/inventory"
	"github.com/mayavriksh/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormRestockLogRepository implements RestockLogRepository using GORM
type GormRestockLogRepository struct {
	db *gorm.DB
}

// NewGormRestockLogRepository creates a new GormRestockLogRepository
func NewGormRestockLogRepository(db *gorm.DB) *GormRestockLogRepository {
	return &GormRestockLogRepository{db: db}
}

// Create inserts a restock log
func (r *GormRestockLogRepository) Create(ctx context.Context, log *inventory.RestockLog) error {
	return r.db.WithContext(ctx).Create(models.RestockLogModelFromDomain(log)).Error
}

// FindByOrder lists the restock logs of an order, oldest first
func (r *GormRestockLogRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]inventory.RestockLog, error) {
	var rows []models.RestockLogModel
	if err := r.db.WithContext(ctx).
		Where("purchase_order_id = ?", orderID).
		Order("created_at, id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	logs := make([]inventory.RestockLog, 0, len(rows))
	for i := range rows {
		log, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		logs = append(logs, *log)
	}
	return logs, nil
}

// Ensure GormRestockLogRepository implements RestockLogRepository
var _ inventory.RestockLogRepository = (*GormRestockLogRepository)(nil)
