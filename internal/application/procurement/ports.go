package procurement

import (
	"context"

	"github.com/google/uuid"
	"github.com/mayavriksh/backend/internal/domain/identity"
	"github.com/mayavriksh/backend/internal/domain/inventory"
	"github.com/mayavriksh/backend/internal/domain/procurement"
	"github.com/mayavriksh/backend/internal/domain/shared"
	"github.com/mayavriksh/backend/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TransactionScope runs a unit of work in one database transaction. Every
// repository handed to fn shares that transaction; returning an error rolls
// it back.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes the repositories bound to the current
// transaction.
type TransactionalRepositories interface {
	OrderRepo() procurement.PurchaseOrderRepository
	InventoryRepo() inventory.InventoryRecordRepository
	DamageLogRepo() inventory.DamageLogRepository
	RestockLogRepo() inventory.RestockLogRepository
	UserRepo() identity.UserRepository
}

// Upload is a file received from a client
type Upload struct {
	Filename    string
	ContentType string // sniffed from Data when empty
	Data        []byte
}

// BlobUploader stores media outside the database
type BlobUploader interface {
	// Upload stores the file under folder with a key starting with idPrefix
	Upload(ctx context.Context, file Upload, folder, idPrefix string) (shared.MediaRef, error)
	Delete(ctx context.Context, publicID string) error
}

// MediaCompensator deletes blobs whose database write failed. It never
// fails: deletes that cannot be done now are queued for later.
type MediaCompensator interface {
	Compensate(ctx context.Context, publicIDs ...string)
}

// OrderLocker serializes writers of one order across service instances
type OrderLocker interface {
	Lock(ctx context.Context, orderID uuid.UUID) (unlock func(), err error)
}

// Metrics receives workflow counters
type Metrics interface {
	OrderCreated(ctx context.Context)
	StatusChanged(ctx context.Context, from, to string)
	PaymentRecorded(ctx context.Context, method string, amount decimal.Decimal)
	Restocked(ctx context.Context, unitsAdded, unitsDamaged int)
}

// Blob folders
const (
	FolderReceipts = "purchase-orders/receipts"
	FolderQC       = "purchase-orders/qc"
	FolderDamage   = "purchase-orders/damage"
)

type noopLocker struct{}

func (noopLocker) Lock(context.Context, uuid.UUID) (func(), error) { return func() {}, nil }

type noopMetrics struct{}

func (noopMetrics) OrderCreated(context.Context)                             {}
func (noopMetrics) StatusChanged(context.Context, string, string)            {}
func (noopMetrics) PaymentRecorded(context.Context, string, decimal.Decimal) {}
func (noopMetrics) Restocked(context.Context, int, int)                      {}

// directCompensator deletes once and logs failures. Used when no retrying
// compensator is configured.
type directCompensator struct {
	uploader BlobUploader
}

func (c directCompensator) Compensate(ctx context.Context, publicIDs ...string) {
	for _, id := range publicIDs {
		if err := c.uploader.Delete(ctx, id); err != nil {
			logger.L(ctx).Error("Failed to delete orphaned media",
				zap.String("public_id", id),
				zap.Error(err),
			)
		}
	}
}

// publishEvents publishes the aggregate's pending events after commit.
// Delivery problems are logged; the write has already happened.
func publishEvents(ctx context.Context, publisher shared.EventPublisher, order *procurement.PurchaseOrder) {
	events := order.PullDomainEvents()
	if publisher == nil || len(events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil {
		logger.L(ctx).Warn("Failed to publish purchase order events",
			zap.String("order_id", order.ID.String()),
			zap.Int("event_count", len(events)),
			zap.Error(err),
		)
	}
}
