package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mayavriksh/backend/internal/domain/procurement"
	"github.com/mayavriksh/backend/internal/domain/shared"
	"github.com/mayavriksh/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// historyCondition matches orders that left the active list: rejected,
// cancelled, or delivered and fully paid.
const historyCondition = "(status IN ? OR (status = ? AND payment_percentage = 100 AND pending_amount = 0))"

var historyArgs = []any{
	[]procurement.OrderStatus{procurement.StatusRejected, procurement.StatusCancelled},
	procurement.StatusDelivered,
}

// GormPurchaseOrderRepository implements PurchaseOrderRepository using GORM
type GormPurchaseOrderRepository struct {
	db *gorm.DB
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

func (r *GormPurchaseOrderRepository) withChildren(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at, id") }).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("paid_at, id") }).
		Preload("Media", func(db *gorm.DB) *gorm.DB { return db.Order("uploaded_at, id") })
}

// FindByID finds a purchase order by its ID
func (r *GormPurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*procurement.PurchaseOrder, error) {
	return r.find(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds a purchase order and holds a row lock on its
// header until the surrounding transaction ends
func (r *GormPurchaseOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*procurement.PurchaseOrder, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormPurchaseOrderRepository) find(q *gorm.DB, id uuid.UUID) (*procurement.PurchaseOrder, error) {
	var model models.PurchaseOrderModel
	if err := r.withChildren(q).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// Create inserts a new order with its items
func (r *GormPurchaseOrderRepository) Create(ctx context.Context, order *procurement.PurchaseOrder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.PurchaseOrderModelFromDomain(order)
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			return translateWriteError(err)
		}

		items := make([]*models.PurchaseOrderItemModel, len(order.Items))
		for i := range order.Items {
			order.Items[i].PurchaseOrderID = order.ID
			items[i] = models.PurchaseOrderItemModelFromDomain(&order.Items[i])
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return translateWriteError(err)
			}
		}
		return nil
	})
}

// SaveWithLock saves with optimistic locking (version check). Items are
// updated in place; payments and media are append-only, so rows already
// stored are left untouched.
func (r *GormPurchaseOrderRepository) SaveWithLock(ctx context.Context, order *procurement.PurchaseOrder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Get current version from database
		var currentVersion int
		res := tx.Model(&models.PurchaseOrderModel{}).
			Where("id = ?", order.ID).
			Select("version").
			Scan(&currentVersion)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return shared.ErrNotFound
		}

		// Check version matches
		if currentVersion != order.Version {
			return shared.ErrConcurrencyConflict
		}

		nextVersion := order.Version + 1
		updatedAt := time.Now()

		// Update order with version check
		result := tx.Model(&models.PurchaseOrderModel{}).
			Where("id = ? AND version = ?", order.ID, currentVersion).
			Updates(map[string]any{
				"delivery_charges":               order.DeliveryCharges,
				"total_cost":                     order.TotalCost,
				"pending_amount":                 order.PendingAmount,
				"payment_percentage":             order.PaymentPercentage,
				"status":                         order.Status,
				"acceptance":                     order.Acceptance,
				"expected_date_of_arrival":       order.ExpectedDateOfArrival,
				"accepted_at":                    order.AcceptedAt,
				"delivered_at":                   order.DeliveredAt,
				"restocked_at":                   order.RestockedAt,
				"cancelled_at":                   order.CancelledAt,
				"review_notes":                   order.ReviewNotes,
				"warehouse_manager_review_notes": order.WarehouseManagerReviewNotes,
				"cancel_reason":                  order.CancelReason,
				"version":                        nextVersion,
				"updated_at":                     updatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		for i := range order.Items {
			item := &order.Items[i]
			if err := tx.Model(&models.PurchaseOrderItemModel{}).
				Where("id = ? AND purchase_order_id = ?", item.ID, order.ID).
				Updates(map[string]any{
					"review_status": item.ReviewStatus,
					"updated_at":    item.UpdatedAt,
				}).Error; err != nil {
				return err
			}
		}

		if len(order.Payments) > 0 {
			payments := make([]*models.PaymentModel, len(order.Payments))
			for i := range order.Payments {
				payments[i] = models.PaymentModelFromDomain(&order.Payments[i])
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&payments).Error; err != nil {
				return err
			}
		}

		if len(order.Media) > 0 {
			media := make([]*models.OrderMediaModel, len(order.Media))
			for i := range order.Media {
				media[i] = models.OrderMediaModelFromDomain(&order.Media[i])
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&media).Error; err != nil {
				return err
			}
		}

		order.Version = nextVersion
		order.UpdatedAt = updatedAt
		return nil
	})
}

// FindPage lists one page of order headers with their items
func (r *GormPurchaseOrderRepository) FindPage(ctx context.Context, q procurement.ListQuery) ([]procurement.PurchaseOrder, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.PurchaseOrderModel{})
	query = applyOrderScope(query, q.Scope)

	switch q.Partition {
	case procurement.PartitionHistory:
		query = query.Where(historyCondition, historyArgs...)
	case procurement.PartitionActive:
		query = query.Where("NOT "+historyCondition, historyArgs...)
	}

	if search := strings.TrimSpace(q.Filter.Search); search != "" {
		query = query.Where("LOWER(CAST(id AS TEXT)) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orderModels []models.PurchaseOrderModel
	if err := query.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at, id") }).
		Scopes(paginate(q.Filter, purchaseOrderSort)).
		Find(&orderModels).Error; err != nil {
		return nil, 0, err
	}

	orders := make([]procurement.PurchaseOrder, 0, len(orderModels))
	for i := range orderModels {
		order, err := orderModels[i].ToDomain()
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *order)
	}
	return orders, total, nil
}

// FindPayments lists an order's payments by payment time
func (r *GormPurchaseOrderRepository) FindPayments(ctx context.Context, orderID uuid.UUID) ([]procurement.Payment, error) {
	var paymentModels []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("purchase_order_id = ?", orderID).
		Order("paid_at, id").
		Find(&paymentModels).Error; err != nil {
		return nil, err
	}
	payments := make([]procurement.Payment, len(paymentModels))
	for i := range paymentModels {
		payments[i] = *paymentModels[i].ToDomain()
	}
	return payments, nil
}

// applyOrderScope narrows a query to the orders a caller may see. A scope
// with nothing set matches no rows.
func applyOrderScope(query *gorm.DB, scope procurement.OrderScope) *gorm.DB {
	if scope.All {
		return query
	}
	switch {
	case scope.SupplierID != uuid.Nil:
		return query.Where("supplier_id = ?", scope.SupplierID)
	case len(scope.WarehouseIDs) > 0:
		return query.Where("warehouse_id IN ?", scope.WarehouseIDs)
	}
	return query.Where("1 = 0")
}

// translateWriteError maps unique-key violations to a concurrency conflict.
// It needs gorm.Config.TranslateError.
func translateWriteError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.ErrConcurrencyConflict
	}
	return err
}

// Ensure GormPurchaseOrderRepository implements PurchaseOrderRepository
var _ procurement.PurchaseOrderRepository = (*GormPurchaseOrderRepository)(nil)
