package procurement

import (
	"context"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/mayavriksh/backend/internal/domain/identity"
	"github.com/mayavriksh/backend/internal/domain/partner"
	"github.com/mayavriksh/backend/internal/domain/procurement"
	"github.com/mayavriksh/backend/internal/domain/shared"
	"github.com/mayavriksh/backend/internal/infrastructure/logger"
	"github.com/mayavriksh/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// detectMediaType sniffs the content type from the file bytes. The
// client-declared type is ignored.
func detectMediaType(file Upload) string {
	mt := mimetype.Detect(file.Data).String()
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	return mt
}

func isImageOrVideo(mediaType string) bool {
	return strings.HasPrefix(mediaType, "image/") || strings.HasPrefix(mediaType, "video/")
}

// MediaService attaches QC media to orders and stores damage evidence
type MediaService struct {
	orderRepo      procurement.PurchaseOrderRepository
	access         accessPolicy
	txScope        TransactionScope
	uploader       BlobUploader
	compensator    MediaCompensator
	eventPublisher shared.EventPublisher
	metrics        Metrics
}

// NewMediaService creates a new MediaService
func NewMediaService(
	orderRepo procurement.PurchaseOrderRepository,
	warehouseRepo partner.WarehouseRepository,
	txScope TransactionScope,
	uploader BlobUploader,
) *MediaService {
	return &MediaService{
		orderRepo:   orderRepo,
		access:      accessPolicy{warehouses: warehouseRepo},
		txScope:     txScope,
		uploader:    uploader,
		compensator: directCompensator{uploader: uploader},
		metrics:     noopMetrics{},
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *MediaService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetCompensator replaces the default single-attempt compensator
func (s *MediaService) SetCompensator(c MediaCompensator) {
	if c != nil {
		s.compensator = c
	}
}

// SetMetrics sets the workflow metrics collector
func (s *MediaService) SetMetrics(m Metrics) {
	if m != nil {
		s.metrics = m
	}
}

// AttachMedia uploads QC photos or videos and marks the order shipped.
// Any failure deletes every file uploaded by the call.
func (s *MediaService) AttachMedia(ctx context.Context, actor identity.Actor, orderID uuid.UUID, files []Upload) ([]MediaResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "purchase_order", "attach_media",
		telemetry.AttrOrderID, orderID.String(),
		telemetry.AttrMediaCount, len(files),
	)
	defer span.End()

	if len(files) == 0 {
		return nil, shared.NewDomainError(shared.CodeValidation, "At least one media file is required")
	}
	for i := range files {
		files[i].ContentType = detectMediaType(files[i])
		if !isImageOrVideo(files[i].ContentType) {
			return nil, shared.NewDomainError(shared.CodeValidation,
				fmt.Sprintf("File %q is %s, only images and videos are accepted", files[i].Filename, files[i].ContentType))
		}
	}

	current, err := loadOrder(ctx, s.orderRepo, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.access.requireOrderView(ctx, actor, current); err != nil {
		return nil, err
	}
	if !procurement.CanHandle(current.Status, procurement.EventQCMediaAttached) {
		return nil, shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Order in %s status does not accept QC media", current.Status))
	}

	refs := make([]shared.MediaRef, 0, len(files))
	uploaded := make([]string, 0, len(files))
	compensate := func() {
		if len(uploaded) > 0 {
			s.compensator.Compensate(context.WithoutCancel(ctx), uploaded...)
		}
	}
	for _, file := range files {
		ref, err := s.uploader.Upload(ctx, file, FolderQC, "qc-"+orderID.String())
		if err != nil {
			logger.L(ctx).Error("QC media upload failed",
				zap.String("order_id", orderID.String()),
				zap.String("filename", file.Filename),
				zap.Error(err),
			)
			compensate()
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("%w: %v", shared.ErrUploadFailed, err)
		}
		refs = append(refs, ref)
		uploaded = append(uploaded, ref.PublicID)
	}

	var (
		order *procurement.PurchaseOrder
		added []procurement.Media
		from  procurement.OrderStatus
	)
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		order, err = lockOrder(ctx, repos, orderID)
		if err != nil {
			return err
		}
		from = order.Status
		added, err = order.AttachMedia(actor.UserID, refs)
		if err != nil {
			return err
		}
		return repos.OrderRepo().SaveWithLock(ctx, order)
	})
	if err != nil {
		compensate()
		telemetry.RecordError(span, err)
		return nil, err
	}

	if from != order.Status {
		s.metrics.StatusChanged(ctx, string(from), string(order.Status))
	}
	publishEvents(ctx, s.eventPublisher, order)
	logger.L(ctx).Info("QC media attached",
		zap.String("order_id", order.ID.String()),
		zap.Int("media_count", len(added)),
		zap.String("status", string(order.Status)),
	)
	return ToMediaResponses(added), nil
}

// UploadEvidence stores a damage photo or video for a later restock call
func (s *MediaService) UploadEvidence(ctx context.Context, actor identity.Actor, file Upload) (*shared.MediaRef, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "media", "upload_evidence",
		telemetry.AttrActorRole, string(actor.Role),
	)
	defer span.End()

	if actor.Role != identity.RoleAdmin && actor.Role != identity.RoleWarehouseManager {
		return nil, shared.NewDomainError(shared.CodeForbidden, "Only admins and warehouse managers can upload damage evidence")
	}
	if len(file.Data) == 0 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Evidence file is empty")
	}
	file.ContentType = detectMediaType(file)
	if !isImageOrVideo(file.ContentType) {
		return nil, shared.NewDomainError(shared.CodeValidation,
			fmt.Sprintf("Evidence is %s, only images and videos are accepted", file.ContentType))
	}

	ref, err := s.uploader.Upload(ctx, file, FolderDamage, "damage-"+actor.UserID.String())
	if err != nil {
		logger.L(ctx).Error("Damage evidence upload failed", zap.Error(err))
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("%w: %v", shared.ErrUploadFailed, err)
	}
	return &ref, nil
}
