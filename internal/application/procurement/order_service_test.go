package procurement

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/mayavriksh/backend/internal/domain/identity"
	"github.com/mayavriksh/backend/internal/domain/procurement"
	"github.com/mayavriksh/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrderService(f *fixture) (*OrderService, *recordingPublisher) {
	svc := NewOrderService(f.orders, f.users, f.warehouses, f.tx)
	pub := &recordingPublisher{}
	svc.SetEventPublisher(pub)
	return svc, pub
}

func plantInput(units int, cost string) OrderItemInput {
	return OrderItemInput{
		ProductType:    "PLANT",
		PlantID:        uuid.New(),
		PlantVariantID: uuid.New(),
		UnitsRequested: units,
		UnitCostPrice:  decimal.RequireFromString(cost),
	}
}

func TestOrderService_Create(t *testing.T) {
	f := newFixture(t)
	svc, pub := newOrderService(f)

	pot := OrderItemInput{
		ProductType:    "POT",
		PotCategoryID:  uuid.New(),
		PotVariantID:   uuid.New(),
		UnitsRequested: 4,
		UnitCostPrice:  decimal.RequireFromString("125.50"),
	}
	resp, err := svc.Create(context.Background(), f.manager, CreateOrderCommand{
		WarehouseID:     f.warehouse.ID,
		SupplierID:      f.supplier.UserID,
		Items:           []OrderItemInput{plantInput(10, "40"), pot},
		DeliveryCharges: decimal.RequireFromString("60"),
	})
	require.NoError(t, err)

	// 10*40 + 4*125.50 + 60
	assert.True(t, decimal.RequireFromString("962").Equal(resp.TotalCost), resp.TotalCost.String())
	assert.True(t, resp.TotalCost.Equal(resp.PendingAmount))
	assert.Equal(t, "PENDING", resp.Status)
	assert.Equal(t, "PENDING_REVIEW", resp.Acceptance)
	assert.Equal(t, f.manager.UserID, resp.RequestedBy)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "POT", resp.Items[1].Product.ProductType)
	assert.Nil(t, resp.Items[1].Product.PlantID)
	assert.Equal(t, []string{procurement.EventTypePurchaseOrderCreated}, pub.types())

	stored := f.store.order(t, resp.ID)
	assert.Equal(t, procurement.StatusPending, stored.Status)
}

func TestOrderService_Create_Rejections(t *testing.T) {
	f := newFixture(t)
	svc, _ := newOrderService(f)
	ctx := context.Background()

	valid := func() CreateOrderCommand {
		return CreateOrderCommand{
			WarehouseID: f.warehouse.ID,
			SupplierID:  f.supplier.UserID,
			Items:       []OrderItemInput{plantInput(1, "10")},
		}
	}

	tests := []struct {
		name  string
		actor identity.Actor
		cmd   func() CreateOrderCommand
		code  string
	}{
		{"no items", f.manager, func() CreateOrderCommand { c := valid(); c.Items = nil; return c }, shared.CodeValidation},
		{"zero units", f.manager, func() CreateOrderCommand { c := valid(); c.Items[0].UnitsRequested = 0; return c }, shared.CodeValidation},
		{"negative cost", f.manager, func() CreateOrderCommand {
			c := valid()
			c.Items[0].UnitCostPrice = decimal.RequireFromString("-1")
			return c
		}, shared.CodeValidation},
		{"negative delivery", f.manager, func() CreateOrderCommand {
			c := valid()
			c.DeliveryCharges = decimal.RequireFromString("-5")
			return c
		}, shared.CodeValidation},
		{"plant without variant", f.manager, func() CreateOrderCommand {
			c := valid()
			c.Items[0].PlantVariantID = uuid.Nil
			return c
		}, shared.CodeValidation},
		{"supplier is not a supplier", f.manager, func() CreateOrderCommand {
			c := valid()
			c.SupplierID = f.outsider.UserID
			return c
		}, shared.CodeValidation},
		{"unknown supplier", f.manager, func() CreateOrderCommand { c := valid(); c.SupplierID = uuid.New(); return c }, shared.CodeValidation},
		{"unknown warehouse", f.admin, func() CreateOrderCommand { c := valid(); c.WarehouseID = uuid.New(); return c }, shared.CodeNotFound},
		{"manager of another warehouse", f.outsider, valid, shared.CodeForbidden},
		{"supplier cannot raise orders", f.supplier, valid, shared.CodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.actor, tt.cmd())
			require.Error(t, err)
			assert.Equal(t, tt.code, shared.CodeOf(err), err.Error())
		})
	}
	assert.Empty(t, f.store.orders)
}

func TestOrderService_Review_PartialRecomputesTotals(t *testing.T) {
	f := newFixture(t)
	svc, pub := newOrderService(f)

	order := f.pendingOrder(t, "50",
		line(plant(), 1, "100"),
		line(plant(), 1, "200"),
		line(plant(), 1, "300"),
	)
	rejected := order.Items[1].ID

	resp, err := svc.Review(context.Background(), f.supplier, order.ID, ReviewOrderCommand{
		Decision:        "ACCEPT_PARTIAL",
		RejectedItemIDs: []uuid.UUID{rejected},
		ReviewNotes:     "  out of stock on the fern  ",
	})
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(450).Equal(resp.TotalCost), resp.TotalCost.String())
	assert.True(t, decimal.NewFromInt(450).Equal(resp.PendingAmount))
	assert.Equal(t, "PROCESSING", resp.Status)
	assert.Equal(t, "ACCEPTED", resp.Acceptance)
	assert.Equal(t, "out of stock on the fern", resp.ReviewNotes)
	assert.Equal(t, "REJECTED", resp.Items[1].ReviewStatus)
	assert.Equal(t, "ACCEPTED", resp.Items[0].ReviewStatus)
	assert.Equal(t, []string{procurement.EventTypePurchaseOrderReviewed}, pub.types())

	stored := f.store.order(t, order.ID)
	assert.Equal(t, order.Version+1, stored.Version)
}

func TestOrderService_Review_Errors(t *testing.T) {
	f := newFixture(t)
	svc, _ := newOrderService(f)
	ctx := context.Background()
	other := f.addUser(t, "Another Nursery", "another@mayavriksh.test", identity.RoleSupplier)

	order := f.pendingOrder(t, "0", line(plant(), 2, "10"))
	accept := ReviewOrderCommand{Decision: "ACCEPT_PARTIAL"}

	_, err := svc.Review(ctx, f.supplier, uuid.New(), accept)
	assert.Equal(t, shared.CodeNotFound, shared.CodeOf(err))

	_, err = svc.Review(ctx, other, order.ID, accept)
	assert.Equal(t, shared.CodeForbidden, shared.CodeOf(err))

	_, err = svc.Review(ctx, f.manager, order.ID, accept)
	assert.Equal(t, shared.CodeForbidden, shared.CodeOf(err))

	_, err = svc.Review(ctx, f.supplier, order.ID, ReviewOrderCommand{Decision: "MAYBE"})
	assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))

	_, err = svc.Review(ctx, f.supplier, order.ID, ReviewOrderCommand{
		Decision:        "ACCEPT_PARTIAL",
		RejectedItemIDs: []uuid.UUID{order.Items[0].ID},
	})
	assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))

	_, err = svc.Review(ctx, f.supplier, order.ID, ReviewOrderCommand{Decision: "REJECT_ALL"})
	require.NoError(t, err)
	assert.Equal(t, procurement.StatusRejected, f.store.order(t, order.ID).Status)

	_, err = svc.Review(ctx, f.supplier, order.ID, accept)
	assert.Equal(t, shared.CodeInvalidState, shared.CodeOf(err))
}

func TestOrderService_Get_Scope(t *testing.T) {
	f := newFixture(t)
	svc, _ := newOrderService(f)
	ctx := context.Background()
	other := f.addUser(t, "Another Nursery", "another@mayavriksh.test", identity.RoleSupplier)
	order := f.pendingOrder(t, "0", line(plant(), 1, "10"))

	for _, actor := range []identity.Actor{f.admin, f.manager, f.supplier} {
		resp, err := svc.Get(ctx, actor, order.ID)
		require.NoError(t, err, actor.Role)
		assert.Equal(t, order.ID, resp.ID)
	}
	for _, actor := range []identity.Actor{f.outsider, other} {
		_, err := svc.Get(ctx, actor, order.ID)
		assert.Equal(t, shared.CodeForbidden, shared.CodeOf(err), actor.Role)
	}

	_, err := svc.Get(ctx, f.admin, uuid.New())
	assert.Equal(t, shared.CodeNotFound, shared.CodeOf(err))
}

func TestOrderService_ListPartitions(t *testing.T) {
	f := newFixture(t)
	svc, _ := newOrderService(f)
	ctx := context.Background()

	pending := f.pendingOrder(t, "0", line(plant(), 1, "10"))
	delivered := f.deliveredOrder(t, line(plant(), 1, "10"))

	rejected := f.pendingOrder(t, "0", line(plant(), 1, "10"))
	require.NoError(t, rejected.Review(f.supplier.UserID, procurement.DecisionRejectAll, nil, ""))
	f.store.putOrder(rejected)

	active, err := svc.ListActive(ctx, f.admin, ListOrdersQuery{})
	require.NoError(t, err)
	history, err := svc.ListHistory(ctx, f.admin, ListOrdersQuery{})
	require.NoError(t, err)

	ids := func(p *shared.Paginated[OrderResponse]) []uuid.UUID {
		out := make([]uuid.UUID, len(p.Items))
		for i, o := range p.Items {
			out[i] = o.ID
		}
		return out
	}
	assert.ElementsMatch(t, []uuid.UUID{pending.ID}, ids(active))
	assert.ElementsMatch(t, []uuid.UUID{delivered.ID, rejected.ID}, ids(history))
	assert.Equal(t, int64(3), active.Total+history.Total)

	outside, err := svc.ListActive(ctx, f.outsider, ListOrdersQuery{})
	require.NoError(t, err)
	assert.Empty(t, outside.Items)

	mine, err := svc.ListHistory(ctx, f.supplier, ListOrdersQuery{Limit: 1, SortBy: "totalCost", SortOrder: "asc"})
	require.NoError(t, err)
	assert.Len(t, mine.Items, 1)
	assert.Equal(t, 2, mine.TotalPages)
}

func TestOrderService_List_ValidatesQuery(t *testing.T) {
	f := newFixture(t)
	svc, _ := newOrderService(f)

	_, err := svc.ListActive(context.Background(), f.admin, ListOrdersQuery{SortBy: "supplier"})
	assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
	_, err = svc.ListActive(context.Background(), f.admin, ListOrdersQuery{SortOrder: "sideways"})
	assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
}

func TestOrderService_ConfirmDeliveryAndCancel(t *testing.T) {
	f := newFixture(t)
	svc, pub := newOrderService(f)
	ctx := context.Background()

	order := f.acceptedOrder(t, "0", line(plant(), 1, "100"))

	_, err := svc.ConfirmDelivery(ctx, f.manager, order.ID)
	assert.Equal(t, shared.CodeInvalidState, shared.CodeOf(err), "PROCESSING cannot be delivered")

	_, err = order.RecordPayment(procurement.PaymentInput{PaidBy: f.admin.UserID, Amount: decimal.NewFromInt(40), Method: procurement.MethodCash})
	require.NoError(t, err)
	f.store.putOrder(order)

	_, err = svc.ConfirmDelivery(ctx, f.supplier, order.ID)
	assert.Equal(t, shared.CodeForbidden, shared.CodeOf(err))

	resp, err := svc.ConfirmDelivery(ctx, f.manager, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "DELIVERED", resp.Status)
	assert.NotNil(t, resp.DeliveredAt)
	assert.Contains(t, pub.types(), procurement.EventTypePurchaseOrderDelivered)

	_, err = svc.Cancel(ctx, f.admin, order.ID, CancelOrderCommand{Reason: "duplicate"})
	assert.Equal(t, shared.CodeInvalidState, shared.CodeOf(err), "delivered orders cannot be cancelled")

	pending := f.pendingOrder(t, "0", line(plant(), 1, "10"))
	_, err = svc.Cancel(ctx, f.manager, pending.ID, CancelOrderCommand{Reason: "duplicate"})
	assert.Equal(t, shared.CodeForbidden, shared.CodeOf(err))
	_, err = svc.Cancel(ctx, f.admin, pending.ID, CancelOrderCommand{})
	assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))

	resp, err = svc.Cancel(ctx, f.admin, pending.ID, CancelOrderCommand{Reason: "duplicate"})
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", resp.Status)
	assert.Equal(t, "duplicate", resp.CancelReason)
}

func TestOrderService_ListPayments(t *testing.T) {
	f := newFixture(t)
	svc, _ := newOrderService(f)

	order := f.acceptedOrder(t, "0", line(plant(), 1, "100"))
	_, err := order.RecordPayment(procurement.PaymentInput{PaidBy: f.admin.UserID, Amount: decimal.NewFromInt(30), Method: procurement.MethodUPI})
	require.NoError(t, err)
	f.store.putOrder(order)

	payments, err := svc.ListPayments(context.Background(), f.supplier, order.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, "INSTALLMENT_1", payments[0].Remarks)

	_, err = svc.ListPayments(context.Background(), f.outsider, order.ID)
	assert.Equal(t, shared.CodeForbidden, shared.CodeOf(err))
}
