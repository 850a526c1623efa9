package middleware

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mayavriksh/backend/internal/domain/identity"
	"github.com/mayavriksh/backend/internal/domain/shared"
	"github.com/mayavriksh/backend/internal/infrastructure/auth"
	"github.com/mayavriksh/backend/internal/infrastructure/logger"
	"github.com/mayavriksh/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Context keys and header names used by authentication
const (
	ActorKey      = "actor"
	JWTClaimsKey  = "jwt_claims"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// TokenVerifier validates a bearer token and returns the caller
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (identity.Actor, *auth.Claims, error)
}

// Authenticate requires a valid bearer token and stores the caller identity
// on the gin context for handlers.
func Authenticate(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(AuthHeaderKey)
		if header == "" {
			abortWithError(c, shared.CodeUnauthorized, "Missing authorization header")
			return
		}
		token, ok := strings.CutPrefix(header, BearerPrefix)
		if !ok || strings.TrimSpace(token) == "" {
			abortWithError(c, shared.CodeUnauthorized, "Invalid authorization header format")
			return
		}

		ctx := c.Request.Context()
		actor, claims, err := verifier.Verify(ctx, strings.TrimSpace(token))
		if err != nil {
			code, message := authFailure(err)
			if code == dto.CodeInternal {
				logger.L(ctx).Error("Token verification failed", zap.Error(err))
			} else {
				logger.L(ctx).Debug("Token rejected", zap.Error(err))
			}
			abortWithError(c, code, message)
			return
		}

		c.Set(ActorKey, actor)
		c.Set(JWTClaimsKey, claims)

		ctx, _ = logger.WithUserID(ctx, logger.FromContext(ctx), actor.UserID.String())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireRoles lets through only callers holding one of roles. It must run
// after Authenticate.
func RequireRoles(roles ...identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			abortWithError(c, shared.CodeUnauthorized, "Authentication required")
			return
		}
		if !slices.Contains(roles, actor.Role) {
			abortWithError(c, shared.CodeForbidden, "Your role is not allowed to perform this action")
			return
		}
		c.Next()
	}
}

// GetActor returns the authenticated caller
func GetActor(c *gin.Context) (identity.Actor, bool) {
	v, ok := c.Get(ActorKey)
	if !ok {
		return identity.Actor{}, false
	}
	actor, ok := v.(identity.Actor)
	return actor, ok
}

// GetJWTClaims returns the verified token claims
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(JWTClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

func authFailure(err error) (string, string) {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return dto.CodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenBlacklisted):
		return dto.CodeTokenRevoked, "Token has been revoked"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		return shared.CodeUnauthorized, "Token is not yet valid"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidClaims):
		return shared.CodeUnauthorized, "Invalid token"
	}
	return dto.CodeInternal, "An unexpected error occurred"
}

func abortWithError(c *gin.Context, code, message string) {
	resp := dto.NewErrorResponse(code, message, c.GetString(RequestIDKey))
	c.AbortWithStatusJSON(resp.Code, resp)
}
