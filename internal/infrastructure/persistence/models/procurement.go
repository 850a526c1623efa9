package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mayavriksh/backend/internal/domain/procurement"
	"github.com/shopspring/decimal"
)

// PurchaseOrderModel is the persistence model for the PurchaseOrder aggregate root.
type PurchaseOrderModel struct {
	AggregateModel
	WarehouseID                 uuid.UUID                `gorm:"type:uuid;not null;index"`
	SupplierID                  uuid.UUID                `gorm:"type:uuid;not null;index"`
	RequestedByID               uuid.UUID                `gorm:"type:uuid;not null"`
	DeliveryCharges             decimal.Decimal          `gorm:"type:decimal(18,2);not null;default:0"`
	TotalCost                   decimal.Decimal          `gorm:"type:decimal(18,2);not null;default:0"`
	PendingAmount               decimal.Decimal          `gorm:"type:decimal(18,2);not null;default:0"`
	PaymentPercentage           int                      `gorm:"not null;default:0"`
	Status                      procurement.OrderStatus  `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Acceptance                  procurement.Acceptance   `gorm:"type:varchar(20);not null;default:'PENDING_REVIEW'"`
	ExpectedDateOfArrival       *time.Time               `gorm:"column:expected_date_of_arrival"`
	RequestedAt                 time.Time                `gorm:"not null;index"`
	AcceptedAt                  *time.Time
	DeliveredAt                 *time.Time
	RestockedAt                 *time.Time
	CancelledAt                 *time.Time
	ReviewNotes                 string                   `gorm:"type:text"`
	WarehouseManagerReviewNotes string                   `gorm:"type:text"`
	CancelReason                string                   `gorm:"type:varchar(500)"`
	Items                       []PurchaseOrderItemModel `gorm:"foreignKey:PurchaseOrderID;references:ID"`
	Payments                    []PaymentModel           `gorm:"foreignKey:PurchaseOrderID;references:ID"`
	Media                       []OrderMediaModel        `gorm:"foreignKey:PurchaseOrderID;references:ID"`
}

// TableName returns the table name for GORM
func (PurchaseOrderModel) TableName() string {
	return "purchase_orders"
}

// ToDomain converts the persistence model to a domain PurchaseOrder.
// Associations that were not preloaded come back empty.
func (m *PurchaseOrderModel) ToDomain() (*procurement.PurchaseOrder, error) {
	order := &procurement.PurchaseOrder{
		BaseAggregateRoot:           m.ToDomainAggregateRoot(),
		WarehouseID:                 m.WarehouseID,
		SupplierID:                  m.SupplierID,
		RequestedByID:               m.RequestedByID,
		DeliveryCharges:             m.DeliveryCharges,
		TotalCost:                   m.TotalCost,
		PendingAmount:               m.PendingAmount,
		PaymentPercentage:           m.PaymentPercentage,
		Status:                      m.Status,
		Acceptance:                  m.Acceptance,
		ExpectedDateOfArrival:       m.ExpectedDateOfArrival,
		RequestedAt:                 m.RequestedAt,
		AcceptedAt:                  m.AcceptedAt,
		DeliveredAt:                 m.DeliveredAt,
		RestockedAt:                 m.RestockedAt,
		CancelledAt:                 m.CancelledAt,
		ReviewNotes:                 m.ReviewNotes,
		WarehouseManagerReviewNotes: m.WarehouseManagerReviewNotes,
		CancelReason:                m.CancelReason,
		Items:                       make([]procurement.PurchaseOrderItem, 0, len(m.Items)),
		Payments:                    make([]procurement.Payment, 0, len(m.Payments)),
		Media:                       make([]procurement.Media, 0, len(m.Media)),
	}
	for i := range m.Items {
		item, err := m.Items[i].ToDomain()
		if err != nil {
			return nil, fmt.Errorf("purchase order %s: %w", m.ID, err)
		}
		order.Items = append(order.Items, *item)
	}
	for i := range m.Payments {
		order.Payments = append(order.Payments, *m.Payments[i].ToDomain())
	}
	for i := range m.Media {
		order.Media = append(order.Media, *m.Media[i].ToDomain())
	}
	return order, nil
}

// FromDomain populates the header columns. Items, payments and media are
// converted separately by the repository.
func (m *PurchaseOrderModel) FromDomain(o *procurement.PurchaseOrder) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.WarehouseID = o.WarehouseID
	m.SupplierID = o.SupplierID
	m.RequestedByID = o.RequestedByID
	m.DeliveryCharges = o.DeliveryCharges
	m.TotalCost = o.TotalCost
	m.PendingAmount = o.PendingAmount
	m.PaymentPercentage = o.PaymentPercentage
	m.Status = o.Status
	m.Acceptance = o.Acceptance
	m.ExpectedDateOfArrival = o.ExpectedDateOfArrival
	m.RequestedAt = o.RequestedAt
	m.AcceptedAt = o.AcceptedAt
	m.DeliveredAt = o.DeliveredAt
	m.RestockedAt = o.RestockedAt
	m.CancelledAt = o.CancelledAt
	m.ReviewNotes = o.ReviewNotes
	m.WarehouseManagerReviewNotes = o.WarehouseManagerReviewNotes
	m.CancelReason = o.CancelReason
}

// PurchaseOrderModelFromDomain creates a header model from a domain PurchaseOrder.
func PurchaseOrderModelFromDomain(o *procurement.PurchaseOrder) *PurchaseOrderModel {
	m := &PurchaseOrderModel{}
	m.FromDomain(o)
	return m
}

// PurchaseOrderItemModel is the persistence model for a purchase order line.
type PurchaseOrderItemModel struct {
	BaseModel
	PurchaseOrderID uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductModel
	UnitsRequested int                          `gorm:"not null"`
	UnitCostPrice  decimal.Decimal              `gorm:"type:decimal(18,2);not null"`
	ReviewStatus   procurement.ItemReviewStatus `gorm:"type:varchar(20);not null;default:'PENDING'"`
}

// TableName returns the table name for GORM
func (PurchaseOrderItemModel) TableName() string {
	return "purchase_order_items"
}

// ToDomain converts the persistence model to a domain PurchaseOrderItem.
func (m *PurchaseOrderItemModel) ToDomain() (*procurement.PurchaseOrderItem, error) {
	product, err := m.ToDomainProduct()
	if err != nil {
		return nil, fmt.Errorf("item %s: %w", m.ID, err)
	}
	return &procurement.PurchaseOrderItem{
		ID:              m.ID,
		PurchaseOrderID: m.PurchaseOrderID,
		Product:         product,
		UnitsRequested:  m.UnitsRequested,
		UnitCostPrice:   m.UnitCostPrice,
		ReviewStatus:    m.ReviewStatus,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}, nil
}

// PurchaseOrderItemModelFromDomain creates a persistence model from a domain item.
func PurchaseOrderItemModelFromDomain(i *procurement.PurchaseOrderItem) *PurchaseOrderItemModel {
	m := &PurchaseOrderItemModel{
		BaseModel: BaseModel{
			ID:        i.ID,
			CreatedAt: i.CreatedAt,
			UpdatedAt: i.UpdatedAt,
		},
		PurchaseOrderID: i.PurchaseOrderID,
		UnitsRequested:  i.UnitsRequested,
		UnitCostPrice:   i.UnitCostPrice,
		ReviewStatus:    i.ReviewStatus,
	}
	m.FromDomainProduct(i.Product)
	return m
}

// PaymentModel is the persistence model for an order payment. Rows are
// insert-only.
type PaymentModel struct {
	ID              uuid.UUID                 `gorm:"type:uuid;primary_key"`
	PurchaseOrderID uuid.UUID                 `gorm:"type:uuid;not null;index"`
	PaidBy          uuid.UUID                 `gorm:"type:uuid;not null"`
	Amount          decimal.Decimal           `gorm:"type:decimal(18,2);not null"`
	PaymentMethod   procurement.PaymentMethod `gorm:"type:varchar(20);not null"`
	TransactionID   string                    `gorm:"type:varchar(128)"`
	Remarks         string                    `gorm:"type:varchar(50);not null"`
	Notes           string                    `gorm:"type:varchar(500)"`
	Receipt         MediaModel                `gorm:"embedded;embeddedPrefix:receipt_"`
	PaymentStatus   procurement.PaymentStatus `gorm:"type:varchar(20);not null"`
	PaidAt          time.Time                 `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "purchase_order_payments"
}

// ToDomain converts the persistence model to a domain Payment.
func (m *PaymentModel) ToDomain() *procurement.Payment {
	return &procurement.Payment{
		ID:              m.ID,
		PurchaseOrderID: m.PurchaseOrderID,
		PaidBy:          m.PaidBy,
		Amount:          m.Amount,
		Method:          m.PaymentMethod,
		TransactionID:   m.TransactionID,
		Remarks:         m.Remarks,
		Notes:           m.Notes,
		Receipt:         m.Receipt.ToDomainRef(),
		Status:          m.PaymentStatus,
		PaidAt:          m.PaidAt,
	}
}

// PaymentModelFromDomain creates a persistence model from a domain Payment.
func PaymentModelFromDomain(p *procurement.Payment) *PaymentModel {
	return &PaymentModel{
		ID:              p.ID,
		PurchaseOrderID: p.PurchaseOrderID,
		PaidBy:          p.PaidBy,
		Amount:          p.Amount,
		PaymentMethod:   p.Method,
		TransactionID:   p.TransactionID,
		Remarks:         p.Remarks,
		Notes:           p.Notes,
		Receipt:         MediaModelFromRef(p.Receipt),
		PaymentStatus:   p.Status,
		PaidAt:          p.PaidAt,
	}
}

// OrderMediaModel is the persistence model for QC media on an order.
type OrderMediaModel struct {
	ID              uuid.UUID  `gorm:"type:uuid;primary_key"`
	PurchaseOrderID uuid.UUID  `gorm:"type:uuid;not null;index"`
	Media           MediaModel `gorm:"embedded"`
	UploadedBy      uuid.UUID  `gorm:"type:uuid;not null"`
	UploadedAt      time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderMediaModel) TableName() string {
	return "purchase_order_media"
}

// ToDomain converts the persistence model to domain Media.
func (m *OrderMediaModel) ToDomain() *procurement.Media {
	media := &procurement.Media{
		ID:              m.ID,
		PurchaseOrderID: m.PurchaseOrderID,
		UploadedBy:      m.UploadedBy,
		UploadedAt:      m.UploadedAt,
	}
	if ref := m.Media.ToDomainRef(); ref != nil {
		media.MediaRef = *ref
	}
	return media
}

// OrderMediaModelFromDomain creates a persistence model from domain Media.
func OrderMediaModelFromDomain(md *procurement.Media) *OrderMediaModel {
	ref := md.MediaRef
	return &OrderMediaModel{
		ID:              md.ID,
		PurchaseOrderID: md.PurchaseOrderID,
		Media:           MediaModelFromRef(&ref),
		UploadedBy:      md.UploadedBy,
		UploadedAt:      md.UploadedAt,
	}
}
