package procurement

import (
	"time"

	"github.com/google/uuid"
	"github.com/mayavriksh/backend/internal/domain/catalog"
	"github.com/mayavriksh/backend/internal/domain/inventory"
	"github.com/mayavriksh/backend/internal/domain/procurement"
	"github.com/mayavriksh/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ============================================================================
// Commands
// ============================================================================

// OrderItemInput is one requested line. Plant lines carry plant ids, pot
// lines carry pot ids.
type OrderItemInput struct {
	ProductType    string          `json:"product_type" validate:"required,oneof=PLANT POT"`
	PlantID        uuid.UUID       `json:"plant_id" validate:"required_if=ProductType PLANT"`
	PlantVariantID uuid.UUID       `json:"plant_variant_id" validate:"required_if=ProductType PLANT"`
	PotCategoryID  uuid.UUID       `json:"pot_category_id" validate:"required_if=ProductType POT"`
	PotVariantID   uuid.UUID       `json:"pot_variant_id" validate:"required_if=ProductType POT"`
	UnitsRequested int             `json:"units_requested" validate:"gt=0"`
	UnitCostPrice  decimal.Decimal `json:"unit_cost_price" validate:"gte=0"`
}

func (in OrderItemInput) product() (catalog.Product, error) {
	pt := catalog.ProductType(in.ProductType)
	if pt == catalog.ProductTypePot {
		return catalog.NewProduct(pt, in.PotCategoryID, in.PotVariantID)
	}
	return catalog.NewProduct(pt, in.PlantID, in.PlantVariantID)
}

// CreateOrderCommand raises a purchase order
type CreateOrderCommand struct {
	WarehouseID           uuid.UUID        `json:"warehouse_id" validate:"required"`
	SupplierID            uuid.UUID        `json:"supplier_id" validate:"required"`
	Items                 []OrderItemInput `json:"items" validate:"required,min=1,dive"`
	DeliveryCharges       decimal.Decimal  `json:"delivery_charges" validate:"gte=0"`
	ExpectedDateOfArrival *time.Time       `json:"expected_date_of_arrival,omitempty"`
}

// ReviewOrderCommand is the supplier's decision on an order
type ReviewOrderCommand struct {
	Decision        string      `json:"decision" validate:"required,oneof=ACCEPT_PARTIAL REJECT_ALL"`
	RejectedItemIDs []uuid.UUID `json:"rejected_item_ids"`
	ReviewNotes     string      `json:"review_notes" validate:"max=2000"`
}

// RecordPaymentCommand posts one payment. Receipt is optional.
type RecordPaymentCommand struct {
	Amount        decimal.Decimal `json:"amount" validate:"gt=0"`
	PaymentMethod string          `json:"payment_method" validate:"required,oneof=CASH BANK_TRANSFER UPI CHEQUE CARD OTHER"`
	TransactionID string          `json:"transaction_id" validate:"max=128"`
	Remarks       string          `json:"remarks" validate:"max=500"`
	Receipt       *Upload         `json:"-"`
}

// CancelOrderCommand cancels an order
type CancelOrderCommand struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// RestockItemInput reports what arrived for one accepted line
type RestockItemInput struct {
	PurchaseOrderItemID uuid.UUID        `json:"purchase_order_item_id" validate:"required"`
	UnitsReceived       int              `json:"units_received" validate:"gte=0"`
	UnitsDamaged        int              `json:"units_damaged" validate:"gte=0"`
	DamageReason        string           `json:"damage_reason" validate:"max=500"`
	DamageType          string           `json:"damage_type" validate:"omitempty,oneof=TRANSIT DEAD_ON_ARRIVAL BROKEN PEST_INFESTATION OTHER"`
	Notes               string           `json:"notes" validate:"max=1000"`
	Evidence            *shared.MediaRef `json:"evidence,omitempty"`
}

// RestockCommand reconciles a delivered order into stock
type RestockCommand struct {
	Items                       []RestockItemInput `json:"items" validate:"required,min=1,dive"`
	WarehouseManagerReviewNotes string             `json:"warehouse_manager_review_notes" validate:"max=2000"`
}

// ListOrdersQuery selects a page of active or historical orders
type ListOrdersQuery struct {
	Page      int    `form:"page" json:"page" validate:"gte=0"`
	Limit     int    `form:"limit" json:"limit" validate:"gte=0"`
	Search    string `form:"search" json:"search" validate:"max=64"`
	SortBy    string `form:"sortBy" json:"sort_by" validate:"omitempty,oneof=requestedAt totalCost status"`
	SortOrder string `form:"sortOrder" json:"sort_order" validate:"omitempty,oneof=asc desc"`
}

// ListInventoryQuery selects a page of one warehouse's stock
type ListInventoryQuery struct {
	WarehouseID uuid.UUID `form:"warehouse_id" json:"warehouse_id" validate:"required"`
	ProductType string    `form:"product_type" json:"product_type" validate:"required,oneof=PLANT POT"`
	Page        int       `form:"page" json:"page" validate:"gte=0"`
	Limit       int       `form:"limit" json:"limit" validate:"gte=0"`
}

// ============================================================================
// Responses
// ============================================================================

// ProductResponse is the flattened product reference
type ProductResponse struct {
	ProductType    string     `json:"product_type"`
	PlantID        *uuid.UUID `json:"plant_id,omitempty"`
	PlantVariantID *uuid.UUID `json:"plant_variant_id,omitempty"`
	PotCategoryID  *uuid.UUID `json:"pot_category_id,omitempty"`
	PotVariantID   *uuid.UUID `json:"pot_variant_id,omitempty"`
}

// OrderItemResponse is one order line
type OrderItemResponse struct {
	ID             uuid.UUID       `json:"id"`
	Product        ProductResponse `json:"product"`
	UnitsRequested int             `json:"units_requested"`
	UnitCostPrice  decimal.Decimal `json:"unit_cost_price"`
	LineTotal      decimal.Decimal `json:"line_total"`
	ReviewStatus   string          `json:"review_status"`
}

// PaymentResponse is one recorded payment
type PaymentResponse struct {
	ID            uuid.UUID        `json:"id"`
	OrderID       uuid.UUID        `json:"purchase_order_id"`
	PaidBy        uuid.UUID        `json:"paid_by"`
	Amount        decimal.Decimal  `json:"amount"`
	PaymentMethod string           `json:"payment_method"`
	TransactionID string           `json:"transaction_id,omitempty"`
	Remarks       string           `json:"remarks"`
	Notes         string           `json:"notes,omitempty"`
	Receipt       *shared.MediaRef `json:"receipt,omitempty"`
	PaymentStatus string           `json:"payment_status"`
	PaidAt        time.Time        `json:"paid_at"`
}

// MediaResponse is one QC media file
type MediaResponse struct {
	ID         uuid.UUID `json:"id"`
	URL        string    `json:"url"`
	PublicID   string    `json:"public_id"`
	MediaType  string    `json:"media_type"`
	UploadedBy uuid.UUID `json:"uploaded_by"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// OrderResponse is a purchase order with its children
type OrderResponse struct {
	ID                          uuid.UUID           `json:"id"`
	WarehouseID                 uuid.UUID           `json:"warehouse_id"`
	SupplierID                  uuid.UUID           `json:"supplier_id"`
	RequestedBy                 uuid.UUID           `json:"requested_by"`
	Status                      string              `json:"status"`
	Acceptance                  string              `json:"acceptance"`
	DeliveryCharges             decimal.Decimal     `json:"delivery_charges"`
	TotalCost                   decimal.Decimal     `json:"total_cost"`
	PendingAmount               decimal.Decimal     `json:"pending_amount"`
	PaymentPercentage           int                 `json:"payment_percentage"`
	ExpectedDateOfArrival       *time.Time          `json:"expected_date_of_arrival,omitempty"`
	RequestedAt                 time.Time           `json:"requested_at"`
	AcceptedAt                  *time.Time          `json:"accepted_at,omitempty"`
	DeliveredAt                 *time.Time          `json:"delivered_at,omitempty"`
	RestockedAt                 *time.Time          `json:"restocked_at,omitempty"`
	CancelledAt                 *time.Time          `json:"cancelled_at,omitempty"`
	ReviewNotes                 string              `json:"review_notes,omitempty"`
	WarehouseManagerReviewNotes string              `json:"warehouse_manager_review_notes,omitempty"`
	CancelReason                string              `json:"cancel_reason,omitempty"`
	Items                       []OrderItemResponse `json:"items"`
	Payments                    []PaymentResponse   `json:"payments"`
	Media                       []MediaResponse     `json:"media"`
	Version                     int                 `json:"version"`
	UpdatedAt                   time.Time           `json:"updated_at"`
}

// DamageLogResponse is one damage audit row
type DamageLogResponse struct {
	ID                  uuid.UUID        `json:"id"`
	PurchaseOrderID     uuid.UUID        `json:"purchase_order_id"`
	PurchaseOrderItemID uuid.UUID        `json:"purchase_order_item_id"`
	WarehouseID         uuid.UUID        `json:"warehouse_id"`
	Product             ProductResponse  `json:"product"`
	HandledByID         uuid.UUID        `json:"handled_by_id"`
	HandledBy           string           `json:"handled_by"`
	DamageType          string           `json:"damage_type"`
	UnitsReceived       int              `json:"units_received"`
	UnitsDamaged        int              `json:"units_damaged"`
	UnitsDamagedPrice   decimal.Decimal  `json:"units_damaged_price"`
	TotalAmount         decimal.Decimal  `json:"total_amount"`
	Reason              string           `json:"reason,omitempty"`
	Notes               string           `json:"notes,omitempty"`
	Evidence            *shared.MediaRef `json:"evidence,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
}

// RestockLogResponse is one restock audit row
type RestockLogResponse struct {
	ID                  uuid.UUID       `json:"id"`
	SupplierID          uuid.UUID       `json:"supplier_id"`
	WarehouseID         uuid.UUID       `json:"warehouse_id"`
	PurchaseOrderID     uuid.UUID       `json:"purchase_order_id"`
	PurchaseOrderItemID uuid.UUID       `json:"purchase_order_item_id"`
	Product             ProductResponse `json:"product"`
	Units               int             `json:"units"`
	UnitCostPrice       decimal.Decimal `json:"unit_cost_price"`
	TotalCost           decimal.Decimal `json:"total_cost"`
	CreatedAt           time.Time       `json:"created_at"`
}

// RestockResultResponse summarizes a reconciliation
type RestockResultResponse struct {
	OrderID        uuid.UUID       `json:"purchase_order_id"`
	RestockedAt    time.Time       `json:"restocked_at"`
	ItemsRestocked int             `json:"items_restocked"`
	UnitsReceived  int             `json:"units_received"`
	UnitsDamaged   int             `json:"units_damaged"`
	UnitsAdded     int             `json:"units_added"`
	DamagedValue   decimal.Decimal `json:"damaged_value"`
}

// InventoryRecordResponse is one stock row
type InventoryRecordResponse struct {
	ID                  uuid.UUID       `json:"id"`
	WarehouseID         uuid.UUID       `json:"warehouse_id"`
	Product             ProductResponse `json:"product"`
	StockIn             int             `json:"stock_in"`
	StockOut            int             `json:"stock_out"`
	StockLossCount      int             `json:"stock_loss_count"`
	CurrentStock        int             `json:"current_stock"`
	LatestQuantityAdded int             `json:"latest_quantity_added"`
	TotalCost           decimal.Decimal `json:"total_cost"`
	TrueCostPrice       decimal.Decimal `json:"true_cost_price"`
	StockValue          decimal.Decimal `json:"stock_value"`
	LastRestockedAt     *time.Time      `json:"last_restocked_at,omitempty"`
}

// ============================================================================
// Mapping
// ============================================================================

// ToProductResponse flattens a product reference
func ToProductResponse(p catalog.Product) ProductResponse {
	cols := catalog.Flatten(p)
	return ProductResponse{
		ProductType:    string(cols.ProductType),
		PlantID:        cols.PlantID,
		PlantVariantID: cols.PlantVariantID,
		PotCategoryID:  cols.PotCategoryID,
		PotVariantID:   cols.PotVariantID,
	}
}

// ToPaymentResponse converts a domain payment
func ToPaymentResponse(p *procurement.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		OrderID:       p.PurchaseOrderID,
		PaidBy:        p.PaidBy,
		Amount:        p.Amount,
		PaymentMethod: string(p.Method),
		TransactionID: p.TransactionID,
		Remarks:       p.Remarks,
		Notes:         p.Notes,
		Receipt:       p.Receipt,
		PaymentStatus: string(p.Status),
		PaidAt:        p.PaidAt,
	}
}

// ToPaymentResponses converts a list of payments
func ToPaymentResponses(payments []procurement.Payment) []PaymentResponse {
	out := make([]PaymentResponse, len(payments))
	for i := range payments {
		out[i] = ToPaymentResponse(&payments[i])
	}
	return out
}

// ToMediaResponses converts QC media
func ToMediaResponses(media []procurement.Media) []MediaResponse {
	out := make([]MediaResponse, len(media))
	for i, m := range media {
		out[i] = MediaResponse{
			ID:         m.ID,
			URL:        m.URL,
			PublicID:   m.PublicID,
			MediaType:  m.MediaType,
			UploadedBy: m.UploadedBy,
			UploadedAt: m.UploadedAt,
		}
	}
	return out
}

// ToOrderResponse converts a domain order
func ToOrderResponse(o *procurement.PurchaseOrder) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i := range o.Items {
		item := &o.Items[i]
		items[i] = OrderItemResponse{
			ID:             item.ID,
			Product:        ToProductResponse(item.Product),
			UnitsRequested: item.UnitsRequested,
			UnitCostPrice:  item.UnitCostPrice,
			LineTotal:      item.LineTotal(),
			ReviewStatus:   string(item.ReviewStatus),
		}
	}
	return OrderResponse{
		ID:                          o.ID,
		WarehouseID:                 o.WarehouseID,
		SupplierID:                  o.SupplierID,
		RequestedBy:                 o.RequestedByID,
		Status:                      string(o.Status),
		Acceptance:                  string(o.Acceptance),
		DeliveryCharges:             o.DeliveryCharges,
		TotalCost:                   o.TotalCost,
		PendingAmount:               o.PendingAmount,
		PaymentPercentage:           o.PaymentPercentage,
		ExpectedDateOfArrival:       o.ExpectedDateOfArrival,
		RequestedAt:                 o.RequestedAt,
		AcceptedAt:                  o.AcceptedAt,
		DeliveredAt:                 o.DeliveredAt,
		RestockedAt:                 o.RestockedAt,
		CancelledAt:                 o.CancelledAt,
		ReviewNotes:                 o.ReviewNotes,
		WarehouseManagerReviewNotes: o.WarehouseManagerReviewNotes,
		CancelReason:                o.CancelReason,
		Items:                       items,
		Payments:                    ToPaymentResponses(o.Payments),
		Media:                       ToMediaResponses(o.Media),
		Version:                     o.Version,
		UpdatedAt:                   o.UpdatedAt,
	}
}

// ToDamageLogResponses converts damage logs
func ToDamageLogResponses(logs []inventory.DamageLog) []DamageLogResponse {
	out := make([]DamageLogResponse, len(logs))
	for i, l := range logs {
		out[i] = DamageLogResponse{
			ID:                  l.ID,
			PurchaseOrderID:     l.PurchaseOrderID,
			PurchaseOrderItemID: l.PurchaseOrderItemID,
			WarehouseID:         l.WarehouseID,
			Product:             ToProductResponse(l.Product),
			HandledByID:         l.HandledByID,
			HandledBy:           string(l.HandledBy),
			DamageType:          string(l.DamageType),
			UnitsReceived:       l.UnitsReceived,
			UnitsDamaged:        l.UnitsDamaged,
			UnitsDamagedPrice:   l.UnitsDamagedPrice,
			TotalAmount:         l.TotalAmount,
			Reason:              l.Reason,
			Notes:               l.Notes,
			Evidence:            l.Evidence,
			CreatedAt:           l.CreatedAt,
		}
	}
	return out
}

// ToRestockLogResponses converts restock logs
func ToRestockLogResponses(logs []inventory.RestockLog) []RestockLogResponse {
	out := make([]RestockLogResponse, len(logs))
	for i, l := range logs {
		out[i] = RestockLogResponse{
			ID:                  l.ID,
			SupplierID:          l.SupplierID,
			WarehouseID:         l.WarehouseID,
			PurchaseOrderID:     l.PurchaseOrderID,
			PurchaseOrderItemID: l.PurchaseOrderItemID,
			Product:             ToProductResponse(l.Product),
			Units:               l.Units,
			UnitCostPrice:       l.UnitCostPrice,
			TotalCost:           l.TotalCost,
			CreatedAt:           l.CreatedAt,
		}
	}
	return out
}

// ToInventoryRecordResponse converts an inventory record
func ToInventoryRecordResponse(r *inventory.InventoryRecord) InventoryRecordResponse {
	return InventoryRecordResponse{
		ID:                  r.ID,
		WarehouseID:         r.WarehouseID,
		Product:             ToProductResponse(r.Product),
		StockIn:             r.StockIn,
		StockOut:            r.StockOut,
		StockLossCount:      r.StockLossCount,
		CurrentStock:        r.CurrentStock,
		LatestQuantityAdded: r.LatestQuantityAdded,
		TotalCost:           r.TotalCost,
		TrueCostPrice:       r.TrueCostPrice,
		StockValue:          r.StockValue(),
		LastRestockedAt:     r.LastRestockedAt,
	}
}
