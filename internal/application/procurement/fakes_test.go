package procurement

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mayavriksh/backend/internal/domain/catalog"
	"github.com/mayavriksh/backend/internal/domain/identity"
	"github.com/mayavriksh/backend/internal/domain/inventory"
	"github.com/mayavriksh/backend/internal/domain/partner"
	"github.com/mayavriksh/backend/internal/domain/procurement"
	"github.com/mayavriksh/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// In-memory store
// ============================================================================

// memStore keeps every aggregate as a detached copy so that a failed unit of
// work cannot leak changes through shared pointers.
type memStore struct {
	orders     map[uuid.UUID]*procurement.PurchaseOrder
	records    map[string]*inventory.InventoryRecord
	damageLogs []inventory.DamageLog
	restocks   []inventory.RestockLog
	users      map[uuid.UUID]*identity.User
	warehouses map[uuid.UUID]*partner.Warehouse

	failOrderSave   error
	failRestockLogs error
	txDelay         time.Duration
	txCount         int
}

func newMemStore() *memStore {
	return &memStore{
		orders:     map[uuid.UUID]*procurement.PurchaseOrder{},
		records:    map[string]*inventory.InventoryRecord{},
		users:      map[uuid.UUID]*identity.User{},
		warehouses: map[uuid.UUID]*partner.Warehouse{},
	}
}

func cloneOrder(o *procurement.PurchaseOrder) *procurement.PurchaseOrder {
	c := *o
	c.Items = append([]procurement.PurchaseOrderItem(nil), o.Items...)
	c.Payments = append([]procurement.Payment(nil), o.Payments...)
	c.Media = append([]procurement.Media(nil), o.Media...)
	c.ClearDomainEvents()
	return &c
}

func cloneRecord(r *inventory.InventoryRecord) *inventory.InventoryRecord {
	c := *r
	c.ClearDomainEvents()
	return &c
}

func recordKey(warehouseID uuid.UUID, product catalog.Product) string {
	return warehouseID.String() + "|" + string(product.Type()) + "|" + product.VariantID().String()
}

type snapshot struct {
	orders     map[uuid.UUID]*procurement.PurchaseOrder
	records    map[string]*inventory.InventoryRecord
	damageLogs []inventory.DamageLog
	restocks   []inventory.RestockLog
}

func (s *memStore) snapshot() snapshot {
	snap := snapshot{
		orders:     make(map[uuid.UUID]*procurement.PurchaseOrder, len(s.orders)),
		records:    make(map[string]*inventory.InventoryRecord, len(s.records)),
		damageLogs: append([]inventory.DamageLog(nil), s.damageLogs...),
		restocks:   append([]inventory.RestockLog(nil), s.restocks...),
	}
	for k, v := range s.orders {
		snap.orders[k] = cloneOrder(v)
	}
	for k, v := range s.records {
		snap.records[k] = cloneRecord(v)
	}
	return snap
}

func (s *memStore) restore(snap snapshot) {
	s.orders = snap.orders
	s.records = snap.records
	s.damageLogs = snap.damageLogs
	s.restocks = snap.restocks
}

func (s *memStore) putOrder(o *procurement.PurchaseOrder) {
	s.orders[o.ID] = cloneOrder(o)
}

func (s *memStore) order(t *testing.T, id uuid.UUID) *procurement.PurchaseOrder {
	t.Helper()
	o, ok := s.orders[id]
	require.True(t, ok, "order %s not stored", id)
	return cloneOrder(o)
}

// memTxScope rolls the store back when fn fails
type memTxScope struct {
	store *memStore
}

func (m memTxScope) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	m.store.txCount++
	snap := m.store.snapshot()
	if m.store.txDelay > 0 {
		select {
		case <-time.After(m.store.txDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := fn(memRepos{m.store}); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

type memRepos struct{ s *memStore }

func (r memRepos) OrderRepo() procurement.PurchaseOrderRepository     { return memOrders{r.s} }
func (r memRepos) InventoryRepo() inventory.InventoryRecordRepository { return memInventory{r.s} }
func (r memRepos) DamageLogRepo() inventory.DamageLogRepository       { return memDamageLogs{r.s} }
func (r memRepos) RestockLogRepo() inventory.RestockLogRepository     { return memRestockLogs{r.s} }
func (r memRepos) UserRepo() identity.UserRepository                  { return memUsers{r.s} }

// ============================================================================
// Repositories
// ============================================================================

type memOrders struct{ s *memStore }

func (r memOrders) FindByID(_ context.Context, id uuid.UUID) (*procurement.PurchaseOrder, error) {
	o, ok := r.s.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (r memOrders) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*procurement.PurchaseOrder, error) {
	return r.FindByID(ctx, id)
}

func (r memOrders) Create(_ context.Context, order *procurement.PurchaseOrder) error {
	r.s.orders[order.ID] = cloneOrder(order)
	return nil
}

func (r memOrders) SaveWithLock(_ context.Context, order *procurement.PurchaseOrder) error {
	if r.s.failOrderSave != nil {
		return r.s.failOrderSave
	}
	stored, ok := r.s.orders[order.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != order.Version {
		return shared.ErrConcurrencyConflict
	}
	order.IncrementVersion()
	r.s.orders[order.ID] = cloneOrder(order)
	return nil
}

func (r memOrders) FindPage(_ context.Context, q procurement.ListQuery) ([]procurement.PurchaseOrder, int64, error) {
	var matched []procurement.PurchaseOrder
	for _, o := range r.s.orders {
		if o.IsHistorical() != (q.Partition == procurement.PartitionHistory) {
			continue
		}
		if !inScope(q.Scope, o) {
			continue
		}
		if q.Filter.Search != "" && !strings.Contains(o.ID.String(), strings.ToLower(q.Filter.Search)) {
			continue
		}
		matched = append(matched, *cloneOrder(o))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].RequestedAt.After(matched[j].RequestedAt) })

	total := int64(len(matched))
	start := min(q.Filter.Offset(), len(matched))
	end := min(start+q.Filter.PageSize, len(matched))
	return matched[start:end], total, nil
}

func inScope(scope procurement.OrderScope, o *procurement.PurchaseOrder) bool {
	if scope.All {
		return true
	}
	if scope.SupplierID != uuid.Nil {
		return o.SupplierID == scope.SupplierID
	}
	for _, id := range scope.WarehouseIDs {
		if o.WarehouseID == id {
			return true
		}
	}
	return false
}

func (r memOrders) FindPayments(_ context.Context, orderID uuid.UUID) ([]procurement.Payment, error) {
	o, ok := r.s.orders[orderID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return append([]procurement.Payment(nil), o.Payments...), nil
}

type memInventory struct{ s *memStore }

func (r memInventory) FindForUpdate(_ context.Context, warehouseID uuid.UUID, product catalog.Product) (*inventory.InventoryRecord, error) {
	rec, ok := r.s.records[recordKey(warehouseID, product)]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (r memInventory) Create(_ context.Context, record *inventory.InventoryRecord) error {
	r.s.records[recordKey(record.WarehouseID, record.Product)] = cloneRecord(record)
	return nil
}

func (r memInventory) SaveWithLock(_ context.Context, record *inventory.InventoryRecord) error {
	key := recordKey(record.WarehouseID, record.Product)
	stored, ok := r.s.records[key]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != record.Version {
		return shared.ErrConcurrencyConflict
	}
	record.IncrementVersion()
	r.s.records[key] = cloneRecord(record)
	return nil
}

func (r memInventory) FindByWarehouse(_ context.Context, warehouseID uuid.UUID, productType catalog.ProductType, filter shared.Filter) ([]inventory.InventoryRecord, int64, error) {
	var out []inventory.InventoryRecord
	for _, rec := range r.s.records {
		if rec.WarehouseID == warehouseID && rec.Product.Type() == productType {
			out = append(out, *cloneRecord(rec))
		}
	}
	return out, int64(len(out)), nil
}

func (r memInventory) record(t *testing.T, warehouseID uuid.UUID, product catalog.Product) *inventory.InventoryRecord {
	t.Helper()
	rec, ok := r.s.records[recordKey(warehouseID, product)]
	require.True(t, ok, "no inventory record for %s", product.VariantID())
	return rec
}

type memDamageLogs struct{ s *memStore }

func (r memDamageLogs) Create(_ context.Context, log *inventory.DamageLog) error {
	r.s.damageLogs = append(r.s.damageLogs, *log)
	return nil
}

func (r memDamageLogs) FindByOrder(_ context.Context, orderID uuid.UUID) ([]inventory.DamageLog, error) {
	var out []inventory.DamageLog
	for _, l := range r.s.damageLogs {
		if l.PurchaseOrderID == orderID {
			out = append(out, l)
		}
	}
	return out, nil
}

type memRestockLogs struct{ s *memStore }

func (r memRestockLogs) Create(_ context.Context, log *inventory.RestockLog) error {
	if r.s.failRestockLogs != nil {
		return r.s.failRestockLogs
	}
	r.s.restocks = append(r.s.restocks, *log)
	return nil
}

func (r memRestockLogs) FindByOrder(_ context.Context, orderID uuid.UUID) ([]inventory.RestockLog, error) {
	var out []inventory.RestockLog
	for _, l := range r.s.restocks {
		if l.PurchaseOrderID == orderID {
			out = append(out, l)
		}
	}
	return out, nil
}

type memUsers struct{ s *memStore }

func (r memUsers) FindByID(_ context.Context, id uuid.UUID) (*identity.User, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (r memUsers) FindByIDs(_ context.Context, ids []uuid.UUID) ([]identity.User, error) {
	var out []identity.User
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r memUsers) Save(_ context.Context, user *identity.User) error {
	c := *user
	r.s.users[user.ID] = &c
	return nil
}

type memWarehouses struct{ s *memStore }

func (r memWarehouses) FindByID(_ context.Context, id uuid.UUID) (*partner.Warehouse, error) {
	w, ok := r.s.warehouses[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	c := *w
	return &c, nil
}

func (r memWarehouses) FindIDsByManager(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, w := range r.s.warehouses {
		if w.IsManagedBy(userID) {
			ids = append(ids, w.ID)
		}
	}
	return ids, nil
}

func (r memWarehouses) Save(_ context.Context, w *partner.Warehouse) error {
	c := *w
	r.s.warehouses[w.ID] = &c
	return nil
}

// ============================================================================
// Collaborator doubles
// ============================================================================

// MockBlobUploader is a mock implementation of BlobUploader
type MockBlobUploader struct {
	mock.Mock
}

func (m *MockBlobUploader) Upload(ctx context.Context, file Upload, folder, idPrefix string) (shared.MediaRef, error) {
	args := m.Called(ctx, file, folder, idPrefix)
	return args.Get(0).(shared.MediaRef), args.Error(1)
}

func (m *MockBlobUploader) Delete(ctx context.Context, publicID string) error {
	args := m.Called(ctx, publicID)
	return args.Error(0)
}

type recordingCompensator struct {
	ids []string
}

func (c *recordingCompensator) Compensate(_ context.Context, publicIDs ...string) {
	c.ids = append(c.ids, publicIDs...)
}

type recordingPublisher struct {
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

// ============================================================================
// Fixtures
// ============================================================================

type fixture struct {
	store      *memStore
	tx         memTxScope
	orders     memOrders
	inventory  memInventory
	warehouses memWarehouses
	users      memUsers

	admin     identity.Actor
	manager   identity.Actor
	outsider  identity.Actor // manages another warehouse
	supplier  identity.Actor
	warehouse *partner.Warehouse
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	f := &fixture{
		store:      store,
		tx:         memTxScope{store},
		orders:     memOrders{store},
		inventory:  memInventory{store},
		warehouses: memWarehouses{store},
		users:      memUsers{store},
	}

	f.admin = f.addUser(t, "Asha Admin", "admin@mayavriksh.test", identity.RoleAdmin)
	f.manager = f.addUser(t, "Manu Manager", "manager@mayavriksh.test", identity.RoleWarehouseManager)
	f.outsider = f.addUser(t, "Other Manager", "other@mayavriksh.test", identity.RoleWarehouseManager)
	f.supplier = f.addUser(t, "Green Roots Nursery", "supplier@mayavriksh.test", identity.RoleSupplier)

	wh, err := partner.NewWarehouse("Pune Central", "Pune")
	require.NoError(t, err)
	wh.AssignManager(f.manager.UserID)
	require.NoError(t, f.warehouses.Save(context.Background(), wh))
	f.warehouse = wh

	other, err := partner.NewWarehouse("Nashik North", "Nashik")
	require.NoError(t, err)
	other.AssignManager(f.outsider.UserID)
	require.NoError(t, f.warehouses.Save(context.Background(), other))
	return f
}

func (f *fixture) addUser(t *testing.T, name, email string, role identity.Role) identity.Actor {
	t.Helper()
	u, err := identity.NewUser(name, email, role)
	require.NoError(t, err)
	require.NoError(t, f.users.Save(context.Background(), u))
	return identity.Actor{UserID: u.ID, Role: role}
}

func plant() catalog.Product {
	return catalog.PlantProduct{PlantID: uuid.New(), PlantVariantID: uuid.New()}
}

func line(product catalog.Product, units int, cost string) procurement.ItemSpec {
	return procurement.ItemSpec{Product: product, UnitsRequested: units, UnitCostPrice: decimal.RequireFromString(cost)}
}

// pendingOrder stores a new order for the fixture's warehouse and supplier
func (f *fixture) pendingOrder(t *testing.T, delivery string, specs ...procurement.ItemSpec) *procurement.PurchaseOrder {
	t.Helper()
	o, err := procurement.NewPurchaseOrder(f.warehouse.ID, f.supplier.UserID, f.manager.UserID, specs, decimal.RequireFromString(delivery), nil)
	require.NoError(t, err)
	o.ClearDomainEvents()
	f.store.putOrder(o)
	return o
}

// acceptedOrder stores a PROCESSING order with every item accepted
func (f *fixture) acceptedOrder(t *testing.T, delivery string, specs ...procurement.ItemSpec) *procurement.PurchaseOrder {
	t.Helper()
	o := f.pendingOrder(t, delivery, specs...)
	require.NoError(t, o.Review(f.supplier.UserID, procurement.DecisionAcceptPartial, nil, ""))
	o.ClearDomainEvents()
	f.store.putOrder(o)
	return o
}

// deliveredOrder stores a DELIVERED, fully paid order
func (f *fixture) deliveredOrder(t *testing.T, specs ...procurement.ItemSpec) *procurement.PurchaseOrder {
	t.Helper()
	o := f.acceptedOrder(t, "0", specs...)
	if o.PendingAmount.IsPositive() {
		_, err := o.RecordPayment(procurement.PaymentInput{PaidBy: f.admin.UserID, Amount: o.PendingAmount, Method: procurement.MethodUPI})
		require.NoError(t, err)
	} else {
		_, err := o.AttachMedia(f.supplier.UserID, []shared.MediaRef{{URL: "u", PublicID: "p", MediaType: "image/png"}})
		require.NoError(t, err)
	}
	require.NoError(t, o.ConfirmDelivery())
	o.ClearDomainEvents()
	f.store.putOrder(o)
	return o
}

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)
