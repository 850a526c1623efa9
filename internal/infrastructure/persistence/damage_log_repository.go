package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/mayavriksh/backend/internal/domain/inventory"
	"github.com/mayavriksh/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormDamageLogRepository implements DamageLogRepository using GORM
type GormDamageLogRepository struct {
	db *gorm.DB
}

// NewGormDamageLogRepository creates a new GormDamageLogRepository
func NewGormDamageLogRepository(db *gorm.DB) *GormDamageLogRepository {
	return &GormDamageLogRepository{db: db}
}

// Create inserts a damage log
func (r *GormDamageLogRepository) Create(ctx context.Context, log *inventory.DamageLog) error {
	return r.db.WithContext(ctx).Create(models.DamageLogModelFromDomain(log)).Error
}

// FindByOrder lists the damage logs of an order, oldest first
func (r *GormDamageLogRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]inventory.DamageLog, error) {
	var rows []models.DamageLogModel
	if err := r.db.WithContext(ctx).
		Where("purchase_order_id = ?", orderID).
		Order("created_at, id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	logs := make([]inventory.DamageLog, 0, len(rows))
	for i := range rows {
		log, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		logs = append(logs, *log)
	}
	return logs, nil
}

// Ensure GormDamageLogRepository implements DamageLogRepository
var _ inventory.DamageLogRepository = (*GormDamageLogRepository)(nil)
