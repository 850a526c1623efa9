package procurement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mayavriksh/backend/internal/domain/identity"
	"github.com/mayavriksh/backend/internal/domain/inventory"
	"github.com/mayavriksh/backend/internal/domain/partner"
	"github.com/mayavriksh/backend/internal/domain/procurement"
	"github.com/mayavriksh/backend/internal/domain/shared"
	"github.com/mayavriksh/backend/internal/infrastructure/logger"
	"github.com/mayavriksh/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const defaultRestockTimeout = 30 * time.Second

// RestockService reconciles delivered orders into warehouse stock. A batch
// is all-or-nothing: one bad item rolls back every row of the call.
type RestockService struct {
	orderRepo      procurement.PurchaseOrderRepository
	damageLogRepo  inventory.DamageLogRepository
	restockLogRepo inventory.RestockLogRepository
	access         accessPolicy
	txScope        TransactionScope
	locker         OrderLocker
	eventPublisher shared.EventPublisher
	metrics        Metrics
	timeout        time.Duration
}

// NewRestockService creates a new RestockService
func NewRestockService(
	orderRepo procurement.PurchaseOrderRepository,
	damageLogRepo inventory.DamageLogRepository,
	restockLogRepo inventory.RestockLogRepository,
	warehouseRepo partner.WarehouseRepository,
	txScope TransactionScope,
) *RestockService {
	return &RestockService{
		orderRepo:      orderRepo,
		damageLogRepo:  damageLogRepo,
		restockLogRepo: restockLogRepo,
		access:         accessPolicy{warehouses: warehouseRepo},
		txScope:        txScope,
		locker:         noopLocker{},
		metrics:        noopMetrics{},
		timeout:        defaultRestockTimeout,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *RestockService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetOrderLocker sets the cross-instance order lock
func (s *RestockService) SetOrderLocker(l OrderLocker) {
	if l != nil {
		s.locker = l
	}
}

// SetMetrics sets the workflow metrics collector
func (s *RestockService) SetMetrics(m Metrics) {
	if m != nil {
		s.metrics = m
	}
}

// SetTimeout bounds the reconciliation transaction
func (s *RestockService) SetTimeout(d time.Duration) {
	if d > 0 {
		s.timeout = d
	}
}

// ReconcileRestock books what physically arrived for a delivered order.
// For each item: damaged units get a damage log, usable units are merged
// into the warehouse's inventory record, and received units get a restock
// log.
func (s *RestockService) ReconcileRestock(ctx context.Context, actor identity.Actor, orderID uuid.UUID, cmd RestockCommand) (*RestockResultResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "purchase_order", "reconcile_restock",
		telemetry.AttrOrderID, orderID.String(),
		telemetry.AttrItemCount, len(cmd.Items),
	)
	defer span.End()

	if err := validateRestock(cmd); err != nil {
		return nil, err
	}

	current, err := loadOrder(ctx, s.orderRepo, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.access.requireOrderManage(ctx, actor, current); err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	txCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		order   *procurement.PurchaseOrder
		summary procurement.RestockSummary
	)
	err = s.txScope.Execute(txCtx, func(repos TransactionalRepositories) error {
		var err error
		order, err = lockOrder(txCtx, repos, orderID)
		if err != nil {
			return err
		}
		if err := order.EnsureRestockable(); err != nil {
			return err
		}

		summary = procurement.RestockSummary{DamagedValue: decimal.Zero}
		for _, in := range cmd.Items {
			if err := s.reconcileItem(txCtx, repos, actor, order, in, &summary); err != nil {
				return err
			}
		}

		if err := order.MarkRestocked(cmd.WarehouseManagerReviewNotes, summary); err != nil {
			return err
		}
		return repos.OrderRepo().SaveWithLock(txCtx, order)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.metrics.Restocked(ctx, summary.UnitsAdded, summary.UnitsDamaged)
	publishEvents(ctx, s.eventPublisher, order)
	logger.L(ctx).Info("Purchase order restocked",
		zap.String("order_id", order.ID.String()),
		zap.Int("items", summary.ItemsRestocked),
		zap.Int("units_added", summary.UnitsAdded),
		zap.Int("units_damaged", summary.UnitsDamaged),
	)

	return &RestockResultResponse{
		OrderID:        order.ID,
		RestockedAt:    *order.RestockedAt,
		ItemsRestocked: summary.ItemsRestocked,
		UnitsReceived:  summary.UnitsReceived,
		UnitsDamaged:   summary.UnitsDamaged,
		UnitsAdded:     summary.UnitsAdded,
		DamagedValue:   summary.DamagedValue,
	}, nil
}

func (s *RestockService) reconcileItem(
	ctx context.Context,
	repos TransactionalRepositories,
	actor identity.Actor,
	order *procurement.PurchaseOrder,
	in RestockItemInput,
	summary *procurement.RestockSummary,
) error {
	item := order.GetAcceptedItem(in.PurchaseOrderItemID)
	if item == nil {
		return shared.NewDomainError(shared.CodeItemNotFound,
			fmt.Sprintf("Item %s is not an accepted item of this order", in.PurchaseOrderItemID))
	}

	intake := inventory.Intake{
		UnitsReceived: in.UnitsReceived,
		UnitsDamaged:  in.UnitsDamaged,
		UnitCostPrice: item.UnitCostPrice,
	}
	usable := intake.UsableUnits()

	if in.UnitsDamaged > 0 {
		damage, err := inventory.NewDamageLog(order.ID, item.ID, order.WarehouseID, item.Product, actor, intake, inventory.DamageDetails{
			Type:     inventory.DamageType(in.DamageType),
			Reason:   in.DamageReason,
			Notes:    in.Notes,
			Evidence: in.Evidence,
		})
		if err != nil {
			return err
		}
		if err := repos.DamageLogRepo().Create(ctx, damage); err != nil {
			return err
		}
		summary.DamagedValue = summary.DamagedValue.Add(damage.TotalAmount)
	}

	if usable > 0 {
		if err := upsertInventory(ctx, repos.InventoryRepo(), order.WarehouseID, item, intake); err != nil {
			return err
		}
	}

	if in.UnitsReceived > 0 {
		restock, err := inventory.NewRestockLog(order.SupplierID, order.WarehouseID, order.ID, item.ID, item.Product, in.UnitsReceived, item.UnitCostPrice)
		if err != nil {
			return err
		}
		if err := repos.RestockLogRepo().Create(ctx, restock); err != nil {
			return err
		}
		summary.ItemsRestocked++
	}

	summary.UnitsReceived += in.UnitsReceived
	summary.UnitsDamaged += in.UnitsDamaged
	summary.UnitsAdded += usable
	return nil
}

// upsertInventory merges the intake into the (warehouse, variant) record,
// creating it on first receipt
func upsertInventory(ctx context.Context, repo inventory.InventoryRecordRepository, warehouseID uuid.UUID, item *procurement.PurchaseOrderItem, intake inventory.Intake) error {
	record, err := repo.FindForUpdate(ctx, warehouseID, item.Product)
	if errors.Is(err, shared.ErrNotFound) {
		record, err = inventory.NewInventoryRecord(warehouseID, item.Product, intake)
		if err != nil {
			return err
		}
		return repo.Create(ctx, record)
	}
	if err != nil {
		return err
	}
	if err := record.Restock(intake); err != nil {
		return err
	}
	return repo.SaveWithLock(ctx, record)
}

// validateRestock checks the batch before any transaction starts
func validateRestock(cmd RestockCommand) error {
	if err := validateCommand(cmd); err != nil {
		return err
	}
	seen := make(map[uuid.UUID]bool, len(cmd.Items))
	for _, in := range cmd.Items {
		if seen[in.PurchaseOrderItemID] {
			return shared.NewDomainError(shared.CodeValidation,
				fmt.Sprintf("Item %s appears more than once", in.PurchaseOrderItemID))
		}
		seen[in.PurchaseOrderItemID] = true
	}
	return nil
}

// ListDamageLogs returns the damage found on an order's intake
func (s *RestockService) ListDamageLogs(ctx context.Context, actor identity.Actor, orderID uuid.UUID) ([]DamageLogResponse, error) {
	order, err := loadOrder(ctx, s.orderRepo, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.access.requireOrderView(ctx, actor, order); err != nil {
		return nil, err
	}
	logs, err := s.damageLogRepo.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return ToDamageLogResponses(logs), nil
}

// ListRestockLogs returns the stock additions made for an order
func (s *RestockService) ListRestockLogs(ctx context.Context, actor identity.Actor, orderID uuid.UUID) ([]RestockLogResponse, error) {
	order, err := loadOrder(ctx, s.orderRepo, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.access.requireOrderView(ctx, actor, order); err != nil {
		return nil, err
	}
	logs, err := s.restockLogRepo.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return ToRestockLogResponses(logs), nil
}
