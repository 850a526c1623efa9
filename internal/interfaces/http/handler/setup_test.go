package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appproc "github.com/mayavriksh/backend/internal/application/procurement"
	"github.com/mayavriksh/backend/internal/domain/identity"
	"github.com/mayavriksh/backend/internal/domain/partner"
	"github.com/mayavriksh/backend/internal/infrastructure/persistence"
	"github.com/mayavriksh/backend/internal/infrastructure/storage"
	"github.com/mayavriksh/backend/internal/interfaces/http/middleware"
	"github.com/mayavriksh/backend/tests/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)

// testEnv runs the handlers over real services backed by in-memory sqlite and
// an in-memory blob store. The caller identity comes from the X-Test-Actor
// header so one engine serves every role.
type testEnv struct {
	engine    *gin.Engine
	db        *gorm.DB
	blobs     *storage.MemoryBlobStore
	admin     identity.Actor
	manager   identity.Actor
	supplier  identity.Actor
	outsider  identity.Actor
	warehouse *partner.Warehouse
}

const testActorHeader = "X-Test-Actor"

func newTestEnv(t *testing.T, maxUpload int64) *testEnv {
	t.Helper()

	db := testutil.NewSQLiteDB(t, persistence.AllModels()...)

	ctx := context.Background()
	userRepo := persistence.NewGormUserRepository(db)
	warehouseRepo := persistence.NewGormWarehouseRepository(db)

	env := &testEnv{db: db, blobs: storage.NewMemoryBlobStore("https://media.test")}
	actors := map[string]identity.Actor{}
	seed := func(name string, role identity.Role) identity.Actor {
		u, err := identity.NewUser(name, name+"@mayavriksh.test", role)
		require.NoError(t, err)
		require.NoError(t, userRepo.Save(ctx, u))
		a := identity.Actor{UserID: u.ID, Role: role}
		actors[u.ID.String()] = a
		return a
	}
	env.admin = seed("admin", identity.RoleAdmin)
	env.manager = seed("manager", identity.RoleWarehouseManager)
	env.supplier = seed("supplier", identity.RoleSupplier)
	env.outsider = seed("other-supplier", identity.RoleSupplier)

	warehouse, err := partner.NewWarehouse("Nursery North", "Pune")
	require.NoError(t, err)
	env.warehouse = warehouse
	env.warehouse.AssignManager(env.manager.UserID)
	require.NoError(t, warehouseRepo.Save(ctx, env.warehouse))

	orderRepo := persistence.NewGormPurchaseOrderRepository(db)
	txScope := persistence.NewGormTransactionScope(db)
	orders := appproc.NewOrderService(orderRepo, userRepo, warehouseRepo, txScope)
	payments := appproc.NewPaymentService(orderRepo, warehouseRepo, txScope, env.blobs)
	media := appproc.NewMediaService(orderRepo, warehouseRepo, txScope, env.blobs)
	restock := appproc.NewRestockService(orderRepo,
		persistence.NewGormDamageLogRepository(db),
		persistence.NewGormRestockLogRepository(db),
		warehouseRepo, txScope)
	inventory := appproc.NewInventoryService(persistence.NewGormInventoryRecordRepository(db), warehouseRepo)

	uploads := NewUploadReader(maxUpload)
	po := NewPurchaseOrderHandler(orders, payments, media, restock, uploads)
	mh := NewMediaHandler(media, uploads)
	ih := NewInventoryHandler(inventory)

	engine := gin.New()
	engine.Use(middleware.RequestID())
	api := engine.Group("/api/v1", func(c *gin.Context) {
		if a, ok := actors[c.GetHeader(testActorHeader)]; ok {
			c.Set(middleware.ActorKey, a)
		}
		c.Next()
	})
	api.POST("/purchase-orders", po.Create)
	api.GET("/purchase-orders/active", po.ListActive)
	api.GET("/purchase-orders/history", po.ListHistory)
	api.GET("/purchase-orders/:id", po.GetByID)
	api.POST("/purchase-orders/:id/review", po.Review)
	api.POST("/purchase-orders/:id/payments", po.RecordPayment)
	api.GET("/purchase-orders/:id/payments", po.ListPayments)
	api.POST("/purchase-orders/:id/qc-media", po.AttachMedia)
	api.POST("/purchase-orders/:id/deliver", po.ConfirmDelivery)
	api.POST("/purchase-orders/:id/restock", po.Restock)
	api.POST("/purchase-orders/:id/cancel", po.Cancel)
	api.GET("/purchase-orders/:id/damage-logs", po.ListDamageLogs)
	api.GET("/purchase-orders/:id/restock-logs", po.ListRestockLogs)
	api.POST("/media/evidence", mh.UploadEvidence)
	api.GET("/inventory", ih.List)
	env.engine = engine
	return env
}

func (e *testEnv) do(t *testing.T, actor identity.Actor, method, path string, body io.Reader, contentType string) (*httptest.ResponseRecorder, testutil.Envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if actor.UserID != uuid.Nil {
		req.Header.Set(testActorHeader, actor.UserID.String())
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)

	return w, testutil.DecodeEnvelope(t, w)
}

func (e *testEnv) doJSON(t *testing.T, actor identity.Actor, method, path string, payload any) (*httptest.ResponseRecorder, testutil.Envelope) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	return e.do(t, actor, method, path, body, "application/json")
}

type formFile struct {
	field, name string
	data        []byte
}

func multipartBody(t *testing.T, fields map[string]string, files ...formFile) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

// createOrder raises a two-line order as the warehouse manager
func (e *testEnv) createOrder(t *testing.T) appproc.OrderResponse {
	t.Helper()
	w, env := e.doJSON(t, e.manager, http.MethodPost, "/api/v1/purchase-orders", map[string]any{
		"warehouse_id": e.warehouse.ID,
		"supplier_id":  e.supplier.UserID,
		"items": []map[string]any{
			{"product_type": "PLANT", "plant_id": uuid.New(), "plant_variant_id": uuid.New(), "units_requested": 10, "unit_cost_price": "25.50"},
			{"product_type": "POT", "pot_category_id": uuid.New(), "pot_variant_id": uuid.New(), "units_requested": 4, "unit_cost_price": "100"},
		},
		"delivery_charges": "45",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return testutil.DecodeData[appproc.OrderResponse](t, env)
}
