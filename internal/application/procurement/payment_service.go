package procurement

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mayavriksh/backend/internal/domain/identity"
	"github.com/mayavriksh/backend/internal/domain/partner"
	"github.com/mayavriksh/backend/internal/domain/procurement"
	"github.com/mayavriksh/backend/internal/domain/shared"
	"github.com/mayavriksh/backend/internal/infrastructure/logger"
	"github.com/mayavriksh/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// PaymentService records installment payments against purchase orders.
// The receipt is uploaded before the transaction and deleted again when the
// transaction fails.
type PaymentService struct {
	orderRepo      procurement.PurchaseOrderRepository
	access         accessPolicy
	txScope        TransactionScope
	uploader       BlobUploader
	compensator    MediaCompensator
	locker         OrderLocker
	eventPublisher shared.EventPublisher
	metrics        Metrics
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	orderRepo procurement.PurchaseOrderRepository,
	warehouseRepo partner.WarehouseRepository,
	txScope TransactionScope,
	uploader BlobUploader,
) *PaymentService {
	return &PaymentService{
		orderRepo:   orderRepo,
		access:      accessPolicy{warehouses: warehouseRepo},
		txScope:     txScope,
		uploader:    uploader,
		compensator: directCompensator{uploader: uploader},
		locker:      noopLocker{},
		metrics:     noopMetrics{},
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *PaymentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetCompensator replaces the default single-attempt compensator
func (s *PaymentService) SetCompensator(c MediaCompensator) {
	if c != nil {
		s.compensator = c
	}
}

// SetOrderLocker sets the cross-instance order lock
func (s *PaymentService) SetOrderLocker(l OrderLocker) {
	if l != nil {
		s.locker = l
	}
}

// SetMetrics sets the workflow metrics collector
func (s *PaymentService) SetMetrics(m Metrics) {
	if m != nil {
		s.metrics = m
	}
}

// RecordPayment posts a payment against an accepted order
func (s *PaymentService) RecordPayment(ctx context.Context, actor identity.Actor, orderID uuid.UUID, cmd RecordPaymentCommand) (*PaymentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "purchase_order", "record_payment",
		telemetry.AttrOrderID, orderID.String(),
		telemetry.AttrAmount, cmd.Amount.String(),
	)
	defer span.End()

	if err := validateCommand(cmd); err != nil {
		return nil, err
	}
	input := procurement.PaymentInput{
		PaidBy:        actor.UserID,
		Amount:        cmd.Amount,
		Method:        procurement.PaymentMethod(cmd.PaymentMethod),
		TransactionID: cmd.TransactionID,
		Notes:         cmd.Remarks,
	}
	if err := input.Validate(); err != nil {
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

	if cmd.Receipt != nil {
		file := *cmd.Receipt
		file.ContentType = detectMediaType(file)
		ref, err := s.uploader.Upload(ctx, file, FolderReceipts, "receipt-"+orderID.String())
		if err != nil {
			logger.L(ctx).Error("Receipt upload failed", zap.String("order_id", orderID.String()), zap.Error(err))
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("%w: %v", shared.ErrUploadFailed, err)
		}
		input.Receipt = &ref
	}

	var (
		order   *procurement.PurchaseOrder
		payment *procurement.Payment
		from    procurement.OrderStatus
	)
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		order, err = lockOrder(ctx, repos, orderID)
		if err != nil {
			return err
		}
		if err := ensureActivePayer(ctx, repos.UserRepo(), actor.UserID); err != nil {
			return err
		}
		from = order.Status
		payment, err = order.RecordPayment(input)
		if err != nil {
			return err
		}
		return repos.OrderRepo().SaveWithLock(ctx, order)
	})
	if err != nil {
		if input.Receipt != nil {
			s.compensator.Compensate(context.WithoutCancel(ctx), input.Receipt.PublicID)
		}
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.metrics.PaymentRecorded(ctx, string(payment.Method), payment.Amount)
	if from != order.Status {
		s.metrics.StatusChanged(ctx, string(from), string(order.Status))
	}
	publishEvents(ctx, s.eventPublisher, order)
	telemetry.SetAttributes(span, telemetry.AttrOrderStatus, string(order.Status))
	logger.L(ctx).Info("Payment recorded",
		zap.String("order_id", order.ID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.String("amount", payment.Amount.StringFixed(2)),
		zap.String("remarks", payment.Remarks),
		zap.Int("payment_percentage", order.PaymentPercentage),
	)

	response := ToPaymentResponse(payment)
	return &response, nil
}

func ensureActivePayer(ctx context.Context, users identity.UserRepository, userID uuid.UUID) error {
	payer, err := users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError(shared.CodeForbidden, "Payer account not found")
		}
		return err
	}
	if !payer.IsActive {
		return shared.NewDomainError(shared.CodeForbidden, "Payer account is inactive")
	}
	return nil
}
