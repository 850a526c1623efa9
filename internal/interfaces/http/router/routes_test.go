package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mayavriksh/backend/internal/domain/identity"
	"github.com/mayavriksh/backend/internal/infrastructure/auth"
	"github.com/mayavriksh/backend/internal/infrastructure/config"
	"github.com/mayavriksh/backend/internal/interfaces/http/handler"
	"github.com/mayavriksh/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newProcurementEngine mounts the procurement routes behind real token
// verification. The order, media and inventory handlers have no services, so
// only requests stopped by a guard can be served.
func newProcurementEngine(t *testing.T) (*gin.Engine, *auth.JWTService) {
	t.Helper()
	jwtService := auth.NewJWTService(config.JWTConfig{Secret: "routes-test-secret", Issuer: "mayavriksh"}, auth.NewInMemoryTokenBlacklist())

	engine := gin.New()
	NewRouter(engine, WithMiddleware(middleware.Authenticate(jwtService))).
		Register(ProcurementGroups(Handlers{
			PurchaseOrders: handler.NewPurchaseOrderHandler(nil, nil, nil, nil, handler.NewUploadReader(0)),
			Media:          handler.NewMediaHandler(nil, handler.NewUploadReader(0)),
			Inventory:      handler.NewInventoryHandler(nil),
			System:         handler.NewSystemHandler("api", "test"),
		})...).
		Setup()
	return engine, jwtService
}

func bearer(t *testing.T, svc *auth.JWTService, role identity.Role) string {
	t.Helper()
	token, _, err := svc.Issue(identity.Actor{UserID: uuid.New(), Role: role})
	require.NoError(t, err)
	return "Bearer " + token
}

func TestProcurementGroups_RouteTable(t *testing.T) {
	engine, _ := newProcurementEngine(t)

	got := map[string]bool{}
	for _, r := range engine.Routes() {
		got[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"POST /api/v1/purchase-orders",
		"GET /api/v1/purchase-orders/active",
		"GET /api/v1/purchase-orders/history",
		"GET /api/v1/purchase-orders/:id",
		"POST /api/v1/purchase-orders/:id/review",
		"POST /api/v1/purchase-orders/:id/payments",
		"GET /api/v1/purchase-orders/:id/payments",
		"POST /api/v1/purchase-orders/:id/qc-media",
		"POST /api/v1/purchase-orders/:id/deliver",
		"POST /api/v1/purchase-orders/:id/restock",
		"POST /api/v1/purchase-orders/:id/cancel",
		"GET /api/v1/purchase-orders/:id/damage-logs",
		"GET /api/v1/purchase-orders/:id/restock-logs",
		"POST /api/v1/media/evidence",
		"GET /api/v1/inventory",
		"GET /api/v1/system/info",
	} {
		assert.True(t, got[want], "missing route %s", want)
	}
}

func TestProcurementGroups_RoleGuards(t *testing.T) {
	engine, svc := newProcurementEngine(t)
	orderPath := "/api/v1/purchase-orders/" + uuid.NewString()

	tests := []struct {
		name       string
		method     string
		path       string
		role       identity.Role
		wantStatus int
	}{
		{"supplier cannot create orders", http.MethodPost, "/api/v1/purchase-orders", identity.RoleSupplier, http.StatusForbidden},
		{"manager cannot review", http.MethodPost, orderPath + "/review", identity.RoleWarehouseManager, http.StatusForbidden},
		{"admin cannot review", http.MethodPost, orderPath + "/review", identity.RoleAdmin, http.StatusForbidden},
		{"supplier cannot record payments", http.MethodPost, orderPath + "/payments", identity.RoleSupplier, http.StatusForbidden},
		{"supplier cannot confirm delivery", http.MethodPost, orderPath + "/deliver", identity.RoleSupplier, http.StatusForbidden},
		{"supplier cannot restock", http.MethodPost, orderPath + "/restock", identity.RoleSupplier, http.StatusForbidden},
		{"manager cannot cancel", http.MethodPost, orderPath + "/cancel", identity.RoleWarehouseManager, http.StatusForbidden},
		{"supplier cannot upload evidence", http.MethodPost, "/api/v1/media/evidence", identity.RoleSupplier, http.StatusForbidden},
		{"supplier cannot read inventory", http.MethodGet, "/api/v1/inventory", identity.RoleSupplier, http.StatusForbidden},
		{"manager cannot read system info", http.MethodGet, "/api/v1/system/info", identity.RoleWarehouseManager, http.StatusForbidden},
		{"admin reads system info", http.MethodGet, "/api/v1/system/info", identity.RoleAdmin, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.Header.Set(middleware.AuthHeaderKey, bearer(t, svc, tt.role))
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}
}

func TestProcurementGroups_RequiresToken(t *testing.T) {
	engine, svc := newProcurementEngine(t)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/purchase-orders/active", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"error":"UNAUTHORIZED"`)

	// a revoked token is refused
	token, _, err := svc.Issue(identity.Actor{UserID: uuid.New(), Role: identity.RoleAdmin})
	require.NoError(t, err)
	_, claims, err := svc.Verify(context.Background(), token)
	require.NoError(t, err)
	require.NoError(t, svc.Revoke(context.Background(), claims))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/system/info", nil)
	req.Header.Set(middleware.AuthHeaderKey, "Bearer "+token)
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"error":"TOKEN_REVOKED"`)
}
