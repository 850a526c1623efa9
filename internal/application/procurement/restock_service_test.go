package procurement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mayavriksh/backend/internal/domain/catalog"
	"github.com/mayavriksh/backend/internal/domain/identity"
	"github.com/mayavriksh/backend/internal/domain/inventory"
	"github.com/mayavriksh/backend/internal/domain/procurement"
	"github.com/mayavriksh/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRestockService(f *fixture) (*RestockService, *recordingPublisher) {
	svc := NewRestockService(f.orders, memDamageLogs{f.store}, memRestockLogs{f.store}, f.warehouses, f.tx)
	pub := &recordingPublisher{}
	svc.SetEventPublisher(pub)
	return svc, pub
}

func receive(itemID uuid.UUID, received, damaged int) RestockItemInput {
	return RestockItemInput{PurchaseOrderItemID: itemID, UnitsReceived: received, UnitsDamaged: damaged}
}

func TestRestockService_WeightedAverageAcrossOrders(t *testing.T) {
	f := newFixture(t)
	svc, pub := newRestockService(f)
	ctx := context.Background()
	fern := plant()

	first := f.deliveredOrder(t, line(fern, 20, "10"))
	in := receive(first.Items[0].ID, 20, 3)
	in.DamageType = "TRANSIT"
	in.DamageReason = "crushed crate"
	result, err := svc.ReconcileRestock(ctx, f.manager, first.ID, RestockCommand{
		Items:                       []RestockItemInput{in},
		WarehouseManagerReviewNotes: "three pots cracked",
	})
	require.NoError(t, err)
	assert.Equal(t, 17, result.UnitsAdded)
	assert.Equal(t, 3, result.UnitsDamaged)
	assert.True(t, decimal.NewFromInt(30).Equal(result.DamagedValue))

	rec := f.inventory.record(t, f.warehouse.ID, fern)
	assert.Equal(t, 20, rec.StockIn)
	assert.Equal(t, 3, rec.StockLossCount)
	assert.Equal(t, 17, rec.CurrentStock)
	assert.True(t, decimal.NewFromInt(200).Equal(rec.TotalCost))
	assert.True(t, decimal.NewFromInt(10).Equal(rec.TrueCostPrice))

	stored := f.store.order(t, first.ID)
	require.NotNil(t, stored.RestockedAt)
	assert.Equal(t, "three pots cracked", stored.WarehouseManagerReviewNotes)
	assert.Equal(t, []string{procurement.EventTypeOrderRestocked}, pub.types())

	require.Len(t, f.store.damageLogs, 1)
	damage := f.store.damageLogs[0]
	assert.Equal(t, inventory.DamageTypeTransit, damage.DamageType)
	assert.Equal(t, f.manager.UserID, damage.HandledByID)
	assert.Equal(t, identity.RoleWarehouseManager, damage.HandledBy)
	require.Len(t, f.store.restocks, 1)
	assert.Equal(t, 20, f.store.restocks[0].Units)

	second := f.deliveredOrder(t, line(fern, 10, "20"))
	_, err = svc.ReconcileRestock(ctx, f.admin, second.ID, RestockCommand{
		Items: []RestockItemInput{receive(second.Items[0].ID, 10, 0)},
	})
	require.NoError(t, err)

	rec = f.inventory.record(t, f.warehouse.ID, fern)
	assert.Equal(t, 30, rec.StockIn)
	assert.Equal(t, 27, rec.CurrentStock)
	assert.True(t, decimal.NewFromInt(400).Equal(rec.TotalCost))
	assert.Equal(t, "13.3333", rec.TrueCostPrice.String())
	assert.Len(t, f.store.damageLogs, 1)
	assert.Len(t, f.store.restocks, 2)
}

func TestRestockService_FullyDamagedLineSkipsInventory(t *testing.T) {
	f := newFixture(t)
	svc, _ := newRestockService(f)
	order := f.deliveredOrder(t, line(plant(), 5, "12"))

	result, err := svc.ReconcileRestock(context.Background(), f.manager, order.ID, RestockCommand{
		Items: []RestockItemInput{receive(order.Items[0].ID, 5, 5)},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.UnitsAdded)
	assert.Empty(t, f.store.records)
	assert.Len(t, f.store.damageLogs, 1)
	assert.Len(t, f.store.restocks, 1)
}

func TestRestockService_DamageBeyondReceivedKeepsStock(t *testing.T) {
	f := newFixture(t)
	svc, _ := newRestockService(f)
	ctx := context.Background()
	fern := plant()

	first := f.deliveredOrder(t, line(fern, 10, "12"))
	_, err := svc.ReconcileRestock(ctx, f.manager, first.ID, RestockCommand{
		Items: []RestockItemInput{receive(first.Items[0].ID, 10, 0)},
	})
	require.NoError(t, err)

	second := f.deliveredOrder(t, line(fern, 8, "12"))
	result, err := svc.ReconcileRestock(ctx, f.manager, second.ID, RestockCommand{
		Items: []RestockItemInput{receive(second.Items[0].ID, 5, 8)},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.UnitsAdded)
	assert.Equal(t, 8, result.UnitsDamaged)
	assert.Equal(t, 1, result.ItemsRestocked)
	assert.True(t, decimal.NewFromInt(96).Equal(result.DamagedValue))

	rec := f.inventory.record(t, f.warehouse.ID, fern)
	assert.Equal(t, 10, rec.StockIn)
	assert.Equal(t, 0, rec.StockLossCount)
	assert.Equal(t, 10, rec.CurrentStock)
	assert.True(t, decimal.NewFromInt(120).Equal(rec.TotalCost))

	require.Len(t, f.store.damageLogs, 1)
	damage := f.store.damageLogs[0]
	assert.Equal(t, second.ID, damage.PurchaseOrderID)
	assert.Equal(t, 5, damage.UnitsReceived)
	assert.Equal(t, 8, damage.UnitsDamaged)
	assert.True(t, decimal.NewFromInt(96).Equal(damage.TotalAmount))

	require.Len(t, f.store.restocks, 2)
	last := f.store.restocks[1]
	assert.Equal(t, second.ID, last.PurchaseOrderID)
	assert.Equal(t, 5, last.Units)
	assert.True(t, decimal.NewFromInt(60).Equal(last.TotalCost))
}

func TestRestockService_NothingReceivedWritesNoRows(t *testing.T) {
	f := newFixture(t)
	svc, _ := newRestockService(f)
	order := f.deliveredOrder(t, line(plant(), 5, "12"))

	result, err := svc.ReconcileRestock(context.Background(), f.manager, order.ID, RestockCommand{
		Items: []RestockItemInput{receive(order.Items[0].ID, 0, 0)},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.ItemsRestocked)
	assert.Empty(t, f.store.records)
	assert.Empty(t, f.store.damageLogs)
	assert.Empty(t, f.store.restocks)
	assert.NotNil(t, f.store.order(t, order.ID).RestockedAt)
}

func TestRestockService_BatchIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	svc, pub := newRestockService(f)
	ctx := context.Background()

	order := f.deliveredOrder(t, line(plant(), 10, "5"), line(plant(), 4, "8"))

	t.Run("unknown item", func(t *testing.T) {
		_, err := svc.ReconcileRestock(ctx, f.manager, order.ID, RestockCommand{
			Items: []RestockItemInput{
				receive(order.Items[0].ID, 10, 2),
				receive(uuid.New(), 1, 0),
			},
		})
		assert.Equal(t, shared.CodeItemNotFound, shared.CodeOf(err))
	})

	t.Run("restock log write fails", func(t *testing.T) {
		f.store.failRestockLogs = errors.New("disk full")
		defer func() { f.store.failRestockLogs = nil }()

		_, err := svc.ReconcileRestock(ctx, f.manager, order.ID, RestockCommand{
			Items: []RestockItemInput{receive(order.Items[0].ID, 10, 2)},
		})
		require.Error(t, err)
	})

	assert.Empty(t, f.store.records)
	assert.Empty(t, f.store.damageLogs)
	assert.Empty(t, f.store.restocks)
	assert.Nil(t, f.store.order(t, order.ID).RestockedAt)
	assert.Empty(t, pub.events)
}

func TestRestockService_RejectedItemIsNotMatched(t *testing.T) {
	f := newFixture(t)
	svc, _ := newRestockService(f)

	order := f.pendingOrder(t, "0", line(plant(), 1, "10"), line(plant(), 1, "20"))
	rejected := order.Items[1].ID
	require.NoError(t, order.Review(f.supplier.UserID, procurement.DecisionAcceptPartial, []uuid.UUID{rejected}, ""))
	_, err := order.RecordPayment(procurement.PaymentInput{PaidBy: f.admin.UserID, Amount: order.PendingAmount, Method: procurement.MethodCash})
	require.NoError(t, err)
	require.NoError(t, order.ConfirmDelivery())
	f.store.putOrder(order)

	_, err = svc.ReconcileRestock(context.Background(), f.manager, order.ID, RestockCommand{
		Items: []RestockItemInput{receive(rejected, 1, 0)},
	})
	assert.Equal(t, shared.CodeItemNotFound, shared.CodeOf(err))
}

func TestRestockService_Preconditions(t *testing.T) {
	f := newFixture(t)
	svc, _ := newRestockService(f)
	ctx := context.Background()

	delivered := f.deliveredOrder(t, line(plant(), 3, "10"))
	itemID := delivered.Items[0].ID

	tests := []struct {
		name  string
		actor identity.Actor
		cmd   RestockCommand
		code  string
	}{
		{"no items", f.manager, RestockCommand{}, shared.CodeValidation},
		{"negative units", f.manager, RestockCommand{Items: []RestockItemInput{receive(itemID, -1, 0)}}, shared.CodeValidation},
		{"duplicate item", f.manager, RestockCommand{Items: []RestockItemInput{receive(itemID, 1, 0), receive(itemID, 1, 0)}}, shared.CodeValidation},
		{"unknown damage type", f.manager, RestockCommand{Items: []RestockItemInput{{PurchaseOrderItemID: itemID, UnitsReceived: 1, UnitsDamaged: 1, DamageType: "STOLEN"}}}, shared.CodeValidation},
		{"supplier", f.supplier, RestockCommand{Items: []RestockItemInput{receive(itemID, 1, 0)}}, shared.CodeForbidden},
		{"other manager", f.outsider, RestockCommand{Items: []RestockItemInput{receive(itemID, 1, 0)}}, shared.CodeForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := f.store.txCount
			_, err := svc.ReconcileRestock(ctx, tt.actor, delivered.ID, tt.cmd)
			assert.Equal(t, tt.code, shared.CodeOf(err))
			assert.Equal(t, before, f.store.txCount, "no transaction should start")
		})
	}

	shipping := f.acceptedOrder(t, "0", line(plant(), 1, "10"))
	_, err := shipping.RecordPayment(procurement.PaymentInput{PaidBy: f.admin.UserID, Amount: decimal.NewFromInt(5), Method: procurement.MethodCash})
	require.NoError(t, err)
	f.store.putOrder(shipping)
	_, err = svc.ReconcileRestock(ctx, f.manager, shipping.ID, RestockCommand{Items: []RestockItemInput{receive(shipping.Items[0].ID, 1, 0)}})
	assert.Equal(t, shared.CodeInvalidState, shared.CodeOf(err))

	_, err = svc.ReconcileRestock(ctx, f.manager, delivered.ID, RestockCommand{Items: []RestockItemInput{receive(itemID, 3, 0)}})
	require.NoError(t, err)
	_, err = svc.ReconcileRestock(ctx, f.manager, delivered.ID, RestockCommand{Items: []RestockItemInput{receive(itemID, 3, 0)}})
	assert.Equal(t, shared.CodeInvalidState, shared.CodeOf(err), "second restock")
}

func TestRestockService_Timeout(t *testing.T) {
	f := newFixture(t)
	svc, _ := newRestockService(f)
	svc.SetTimeout(10 * time.Millisecond)
	f.store.txDelay = time.Second
	order := f.deliveredOrder(t, line(plant(), 1, "10"))

	_, err := svc.ReconcileRestock(context.Background(), f.manager, order.ID, RestockCommand{
		Items: []RestockItemInput{receive(order.Items[0].ID, 1, 0)},
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, f.store.records)
}

func TestRestockService_Logs(t *testing.T) {
	f := newFixture(t)
	svc, _ := newRestockService(f)
	ctx := context.Background()
	pot := catalog.PotProduct{PotCategoryID: uuid.New(), PotVariantID: uuid.New()}
	order := f.deliveredOrder(t, line(pot, 6, "45"))

	_, err := svc.ReconcileRestock(ctx, f.admin, order.ID, RestockCommand{
		Items: []RestockItemInput{receive(order.Items[0].ID, 6, 1)},
	})
	require.NoError(t, err)

	damage, err := svc.ListDamageLogs(ctx, f.supplier, order.ID)
	require.NoError(t, err)
	require.Len(t, damage, 1)
	assert.Equal(t, "OTHER", damage[0].DamageType)
	assert.Equal(t, "POT", damage[0].Product.ProductType)
	assert.True(t, decimal.NewFromInt(45).Equal(damage[0].TotalAmount))

	restocks, err := svc.ListRestockLogs(ctx, f.manager, order.ID)
	require.NoError(t, err)
	require.Len(t, restocks, 1)
	assert.True(t, decimal.NewFromInt(270).Equal(restocks[0].TotalCost))

	_, err = svc.ListRestockLogs(ctx, f.outsider, order.ID)
	assert.Equal(t, shared.CodeForbidden, shared.CodeOf(err))
}
