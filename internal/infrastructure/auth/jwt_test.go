package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mayavriksh/backend/internal/domain/identity"
	"github.com/mayavriksh/backend/internal/infrastructure/auth"
	"github.com/mayavriksh/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-that-is-long-enough"

func newTestService(blacklist auth.TokenBlacklist) *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                testSecret,
		Issuer:                "mayavriksh",
		AccessTokenExpiration: 15 * time.Minute,
	}, blacklist)
}

func signRaw(t *testing.T, method jwt.SigningMethod, key any, claims *auth.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func validClaims(userID string, role string) *auth.Claims {
	now := time.Now()
	return &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    "mayavriksh",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID:    userID,
		Role:      role,
		TokenType: auth.TokenTypeAccess,
	}
}

func TestJWTService_IssueAndVerify(t *testing.T) {
	svc := newTestService(nil)
	actor := identity.Actor{UserID: uuid.New(), Role: identity.RoleWarehouseManager}

	token, expiresAt, err := svc.Issue(actor)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	got, claims, err := svc.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, actor, got)
	assert.Equal(t, actor.UserID.String(), claims.Subject)
	assert.Greater(t, claims.RemainingTTL(), 14*time.Minute)
}

func TestJWTService_VerifyRejects(t *testing.T) {
	svc := newTestService(nil)
	userID := uuid.NewString()

	expired := validClaims(userID, "ADMIN")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	future := validClaims(userID, "ADMIN")
	future.NotBefore = jwt.NewNumericDate(time.Now().Add(time.Hour))

	wrongIssuer := validClaims(userID, "ADMIN")
	wrongIssuer.Issuer = "someone-else"

	refresh := validClaims(userID, "ADMIN")
	refresh.TokenType = "refresh"

	tests := []struct {
		name  string
		token string
		err   error
	}{
		{"garbage", "not-a-jwt", auth.ErrInvalidToken},
		{"wrong secret", signRaw(t, jwt.SigningMethodHS256, []byte("other-secret"), validClaims(userID, "ADMIN")), auth.ErrInvalidToken},
		{"unexpected algorithm", signRaw(t, jwt.SigningMethodHS512, []byte(testSecret), validClaims(userID, "ADMIN")), auth.ErrInvalidToken},
		{"expired", signRaw(t, jwt.SigningMethodHS256, []byte(testSecret), expired), auth.ErrExpiredToken},
		{"not yet valid", signRaw(t, jwt.SigningMethodHS256, []byte(testSecret), future), auth.ErrTokenNotYetValid},
		{"wrong issuer", signRaw(t, jwt.SigningMethodHS256, []byte(testSecret), wrongIssuer), auth.ErrInvalidToken},
		{"refresh token", signRaw(t, jwt.SigningMethodHS256, []byte(testSecret), refresh), auth.ErrInvalidClaims},
		{"bad user id", signRaw(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims("nope", "ADMIN")), auth.ErrInvalidClaims},
		{"unknown role", signRaw(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims(userID, "GARDENER")), auth.ErrInvalidClaims},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Verify(context.Background(), tt.token)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestJWTService_RoleIsCaseInsensitive(t *testing.T) {
	svc := newTestService(nil)
	userID := uuid.New()

	token := signRaw(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims(userID.String(), "supplier"))
	actor, _, err := svc.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, identity.RoleSupplier, actor.Role)
	assert.Equal(t, userID, actor.UserID)
}

func TestJWTService_Revocation(t *testing.T) {
	ctx := context.Background()

	t.Run("revoked token is rejected", func(t *testing.T) {
		svc := newTestService(auth.NewInMemoryTokenBlacklist())
		token, _, err := svc.Issue(identity.Actor{UserID: uuid.New(), Role: identity.RoleAdmin})
		require.NoError(t, err)

		_, claims, err := svc.Verify(ctx, token)
		require.NoError(t, err)
		require.NoError(t, svc.Revoke(ctx, claims))

		_, _, err = svc.Verify(ctx, token)
		assert.ErrorIs(t, err, auth.ErrTokenBlacklisted)
	})

	t.Run("user-wide revocation", func(t *testing.T) {
		blacklist := auth.NewInMemoryTokenBlacklist()
		svc := newTestService(blacklist)
		actor := identity.Actor{UserID: uuid.New(), Role: identity.RoleSupplier}
		token, _, err := svc.Issue(actor)
		require.NoError(t, err)

		require.NoError(t, blacklist.AddUserTokensToBlacklist(ctx, actor.UserID.String(), time.Hour))

		_, _, err = svc.Verify(ctx, token)
		assert.ErrorIs(t, err, auth.ErrTokenBlacklisted)
	})

	t.Run("revoke without blacklist", func(t *testing.T) {
		svc := newTestService(nil)
		assert.Error(t, svc.Revoke(ctx, &auth.Claims{}))
	})
}
