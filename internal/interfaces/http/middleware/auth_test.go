package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mayavriksh/backend/internal/domain/identity"
	"github.com/mayavriksh/backend/internal/infrastructure/auth"
	"github.com/mayavriksh/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type failingVerifier struct{ err error }

func (f failingVerifier) Verify(context.Context, string) (identity.Actor, *auth.Claims, error) {
	return identity.Actor{}, nil, f.err
}

func newAuthEngine(verifier TokenVerifier, guards ...gin.HandlerFunc) *gin.Engine {
	engine := gin.New()
	handlers := append([]gin.HandlerFunc{RequestID(), Authenticate(verifier)}, guards...)
	handlers = append(handlers, func(c *gin.Context) {
		actor, _ := GetActor(c)
		claims := GetJWTClaims(c)
		c.JSON(http.StatusOK, gin.H{"user_id": actor.UserID, "role": actor.Role, "jti": claims.ID})
	})
	engine.GET("/protected", handlers...)
	return engine
}

func call(engine *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set(AuthHeaderKey, authorization)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	svc := auth.NewJWTService(config.JWTConfig{Secret: "middleware-secret", Issuer: "mayavriksh"}, auth.NewInMemoryTokenBlacklist())
	engine := newAuthEngine(svc)
	actor := identity.Actor{UserID: uuid.New(), Role: identity.RoleWarehouseManager}
	token, _, err := svc.Issue(actor)
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		w := call(engine, "Bearer "+token)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), actor.UserID.String())
		assert.Contains(t, w.Body.String(), `"role":"WAREHOUSE_MANAGER"`)
	})

	tests := []struct {
		name          string
		authorization string
		wantCode      string
	}{
		{"missing header", "", `"error":"UNAUTHORIZED"`},
		{"wrong scheme", "Basic " + token, `"error":"UNAUTHORIZED"`},
		{"empty bearer", "Bearer   ", `"error":"UNAUTHORIZED"`},
		{"garbage token", "Bearer not.a.jwt", `"error":"UNAUTHORIZED"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := call(engine, tt.authorization)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantCode)
			assert.Contains(t, w.Body.String(), `"request_id":"`)
		})
	}

	t.Run("token signed with another secret", func(t *testing.T) {
		other := auth.NewJWTService(config.JWTConfig{Secret: "someone-else", Issuer: "mayavriksh"}, nil)
		forged, _, err := other.Issue(actor)
		require.NoError(t, err)
		w := call(engine, "Bearer "+forged)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		short := auth.NewJWTService(config.JWTConfig{Secret: "middleware-secret", Issuer: "mayavriksh", AccessTokenExpiration: time.Nanosecond}, nil)
		expired, _, err := short.Issue(actor)
		require.NoError(t, err)
		time.Sleep(1100 * time.Millisecond)
		w := call(engine, "Bearer "+expired)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), `"error":"TOKEN_EXPIRED"`)
	})

	t.Run("verifier failure is internal", func(t *testing.T) {
		w := call(newAuthEngine(failingVerifier{err: errors.New("redis: connection refused")}), "Bearer x")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), `"error":"INTERNAL_ERROR"`)
		assert.NotContains(t, w.Body.String(), "redis")
	})
}

func TestRequireRoles(t *testing.T) {
	svc := auth.NewJWTService(config.JWTConfig{Secret: "middleware-secret"}, nil)
	engine := newAuthEngine(svc, RequireRoles(identity.RoleAdmin, identity.RoleWarehouseManager))

	for role, want := range map[identity.Role]int{
		identity.RoleAdmin:            http.StatusOK,
		identity.RoleWarehouseManager: http.StatusOK,
		identity.RoleSupplier:         http.StatusForbidden,
	} {
		t.Run(string(role), func(t *testing.T) {
			token, _, err := svc.Issue(identity.Actor{UserID: uuid.New(), Role: role})
			require.NoError(t, err)
			assert.Equal(t, want, call(engine, "Bearer "+token).Code)
		})
	}

	t.Run("without authentication", func(t *testing.T) {
		engine := gin.New()
		engine.GET("/protected", RequireRoles(identity.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })
		assert.Equal(t, http.StatusUnauthorized, call(engine, "").Code)
	})
}
