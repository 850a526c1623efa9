package procurement

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/mayavriksh/backend/internal/domain/identity"
	"github.com/mayavriksh/backend/internal/domain/partner"
	"github.com/mayavriksh/backend/internal/domain/procurement"
	"github.com/mayavriksh/backend/internal/domain/shared"
	"github.com/mayavriksh/backend/internal/infrastructure/logger"
	"github.com/mayavriksh/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const defaultMaxPageSize = 100

// sortFields maps API sort keys to the repository's order fields
var sortFields = map[string]string{
	"requestedAt": "requested_at",
	"totalCost":   "total_cost",
	"status":      "status",
}

// OrderService handles the purchase order lifecycle apart from payments,
// media and restock
type OrderService struct {
	orderRepo      procurement.PurchaseOrderRepository
	userRepo       identity.UserRepository
	access         accessPolicy
	txScope        TransactionScope
	eventPublisher shared.EventPublisher
	metrics        Metrics
	maxPageSize    int
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orderRepo procurement.PurchaseOrderRepository,
	userRepo identity.UserRepository,
	warehouseRepo partner.WarehouseRepository,
	txScope TransactionScope,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		userRepo:    userRepo,
		access:      accessPolicy{warehouses: warehouseRepo},
		txScope:     txScope,
		metrics:     noopMetrics{},
		maxPageSize: defaultMaxPageSize,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *OrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the workflow metrics collector
func (s *OrderService) SetMetrics(m Metrics) {
	if m != nil {
		s.metrics = m
	}
}

// SetMaxPageSize caps list page sizes
func (s *OrderService) SetMaxPageSize(n int) {
	if n > 0 {
		s.maxPageSize = n
	}
}

// Create raises a purchase order for a warehouse
func (s *OrderService) Create(ctx context.Context, actor identity.Actor, cmd CreateOrderCommand) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "purchase_order", "create",
		telemetry.AttrWarehouseID, cmd.WarehouseID.String(),
		telemetry.AttrSupplierID, cmd.SupplierID.String(),
		telemetry.AttrItemCount, len(cmd.Items),
	)
	defer span.End()

	if err := validateCommand(cmd); err != nil {
		return nil, err
	}
	if err := s.access.requireWarehouse(ctx, actor, cmd.WarehouseID); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.ensureSupplier(ctx, cmd.SupplierID); err != nil {
		return nil, err
	}

	specs := make([]procurement.ItemSpec, 0, len(cmd.Items))
	for _, in := range cmd.Items {
		product, err := in.product()
		if err != nil {
			return nil, err
		}
		specs = append(specs, procurement.ItemSpec{
			Product:        product,
			UnitsRequested: in.UnitsRequested,
			UnitCostPrice:  in.UnitCostPrice,
		})
	}

	order, err := procurement.NewPurchaseOrder(cmd.WarehouseID, cmd.SupplierID, actor.UserID, specs, cmd.DeliveryCharges, cmd.ExpectedDateOfArrival)
	if err != nil {
		return nil, err
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.metrics.OrderCreated(ctx)
	publishEvents(ctx, s.eventPublisher, order)
	telemetry.SetAttributes(span, telemetry.AttrOrderID, order.ID.String())
	logger.L(ctx).Info("Purchase order created",
		zap.String("order_id", order.ID.String()),
		zap.String("total_cost", order.TotalCost.StringFixed(2)),
	)

	response := ToOrderResponse(order)
	return &response, nil
}

func (s *OrderService) ensureSupplier(ctx context.Context, supplierID uuid.UUID) error {
	supplier, err := s.userRepo.FindByID(ctx, supplierID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError(shared.CodeValidation, "Supplier not found")
		}
		return err
	}
	if !supplier.IsSupplier() {
		return shared.NewDomainError(shared.CodeValidation, "User is not an active supplier")
	}
	return nil
}

// Get returns one order with items, payments and media
func (s *OrderService) Get(ctx context.Context, actor identity.Actor, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := loadOrder(ctx, s.orderRepo, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.access.requireOrderView(ctx, actor, order); err != nil {
		return nil, err
	}
	response := ToOrderResponse(order)
	return &response, nil
}

// ListActive lists orders still in progress
func (s *OrderService) ListActive(ctx context.Context, actor identity.Actor, q ListOrdersQuery) (*shared.Paginated[OrderResponse], error) {
	return s.list(ctx, actor, procurement.PartitionActive, q)
}

// ListHistory lists rejected, cancelled and settled orders
func (s *OrderService) ListHistory(ctx context.Context, actor identity.Actor, q ListOrdersQuery) (*shared.Paginated[OrderResponse], error) {
	return s.list(ctx, actor, procurement.PartitionHistory, q)
}

func (s *OrderService) list(ctx context.Context, actor identity.Actor, partition procurement.Partition, q ListOrdersQuery) (*shared.Paginated[OrderResponse], error) {
	if err := validateCommand(q); err != nil {
		return nil, err
	}
	scope, err := s.access.listScope(ctx, actor)
	if err != nil {
		return nil, err
	}

	filter := shared.Filter{
		Page:     q.Page,
		PageSize: q.Limit,
		OrderBy:  "requested_at",
		OrderDir: "desc",
		Search:   q.Search,
	}
	if q.SortBy != "" {
		filter.OrderBy = sortFields[q.SortBy]
	}
	if q.SortOrder != "" {
		filter.OrderDir = q.SortOrder
	}
	filter = filter.Normalize(s.maxPageSize)

	orders, total, err := s.orderRepo.FindPage(ctx, procurement.ListQuery{
		Partition: partition,
		Scope:     scope,
		Filter:    filter,
	})
	if err != nil {
		return nil, err
	}

	items := make([]OrderResponse, len(orders))
	for i := range orders {
		items[i] = ToOrderResponse(&orders[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Review applies the supplier's decision to a pending order
func (s *OrderService) Review(ctx context.Context, actor identity.Actor, orderID uuid.UUID, cmd ReviewOrderCommand) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "purchase_order", "review",
		telemetry.AttrOrderID, orderID.String(),
		telemetry.AttrActorRole, string(actor.Role),
	)
	defer span.End()

	if err := validateCommand(cmd); err != nil {
		return nil, err
	}
	if actor.Role != identity.RoleSupplier {
		return nil, shared.NewDomainError(shared.CodeForbidden, "Only the order's supplier can review it")
	}

	var (
		order *procurement.PurchaseOrder
		from  procurement.OrderStatus
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		order, err = lockOrder(ctx, repos, orderID)
		if err != nil {
			return err
		}
		from = order.Status
		if err := order.Review(actor.UserID, procurement.ReviewDecision(cmd.Decision), cmd.RejectedItemIDs, cmd.ReviewNotes); err != nil {
			return err
		}
		return repos.OrderRepo().SaveWithLock(ctx, order)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.metrics.StatusChanged(ctx, string(from), string(order.Status))
	publishEvents(ctx, s.eventPublisher, order)
	telemetry.SetAttributes(span, telemetry.AttrOrderStatus, string(order.Status))
	logger.L(ctx).Info("Purchase order reviewed",
		zap.String("order_id", order.ID.String()),
		zap.String("decision", cmd.Decision),
		zap.Int("rejected_items", len(cmd.RejectedItemIDs)),
	)

	response := ToOrderResponse(order)
	return &response, nil
}

// ConfirmDelivery marks a shipping or shipped order as delivered
func (s *OrderService) ConfirmDelivery(ctx context.Context, actor identity.Actor, orderID uuid.UUID) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "purchase_order", "confirm_delivery",
		telemetry.AttrOrderID, orderID.String(),
	)
	defer span.End()

	current, err := loadOrder(ctx, s.orderRepo, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.access.requireOrderManage(ctx, actor, current); err != nil {
		return nil, err
	}

	order, err := s.transition(ctx, orderID, func(o *procurement.PurchaseOrder) error {
		return o.ConfirmDelivery()
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	logger.L(ctx).Info("Purchase order delivered", zap.String("order_id", order.ID.String()))

	response := ToOrderResponse(order)
	return &response, nil
}

// Cancel cancels an undelivered order. Admin only.
func (s *OrderService) Cancel(ctx context.Context, actor identity.Actor, orderID uuid.UUID, cmd CancelOrderCommand) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "purchase_order", "cancel",
		telemetry.AttrOrderID, orderID.String(),
	)
	defer span.End()

	if err := validateCommand(cmd); err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, shared.NewDomainError(shared.CodeForbidden, "Only admins can cancel orders")
	}

	order, err := s.transition(ctx, orderID, func(o *procurement.PurchaseOrder) error {
		return o.Cancel(cmd.Reason)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	logger.L(ctx).Info("Purchase order cancelled",
		zap.String("order_id", order.ID.String()),
		zap.String("reason", order.CancelReason),
	)

	response := ToOrderResponse(order)
	return &response, nil
}

// transition loads the order under lock, applies change and saves it
func (s *OrderService) transition(ctx context.Context, orderID uuid.UUID, change func(*procurement.PurchaseOrder) error) (*procurement.PurchaseOrder, error) {
	var (
		order *procurement.PurchaseOrder
		from  procurement.OrderStatus
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		order, err = lockOrder(ctx, repos, orderID)
		if err != nil {
			return err
		}
		from = order.Status
		if err := change(order); err != nil {
			return err
		}
		return repos.OrderRepo().SaveWithLock(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.StatusChanged(ctx, string(from), string(order.Status))
	publishEvents(ctx, s.eventPublisher, order)
	return order, nil
}

// ListPayments returns an order's payments by payment time
func (s *OrderService) ListPayments(ctx context.Context, actor identity.Actor, orderID uuid.UUID) ([]PaymentResponse, error) {
	order, err := loadOrder(ctx, s.orderRepo, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.access.requireOrderView(ctx, actor, order); err != nil {
		return nil, err
	}
	payments, err := s.orderRepo.FindPayments(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return ToPaymentResponses(payments), nil
}

// lockOrder loads an order FOR UPDATE inside a transaction
func lockOrder(ctx context.Context, repos TransactionalRepositories, orderID uuid.UUID) (*procurement.PurchaseOrder, error) {
	order, err := repos.OrderRepo().FindByIDForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, "Purchase order not found")
		}
		return nil, err
	}
	return order, nil
}
