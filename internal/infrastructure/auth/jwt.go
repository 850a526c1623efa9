// Package auth verifies the bearer tokens presented to the API and turns them
// into an identity.Actor.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mayavriksh/backend/internal/domain/identity"
	"github.com/mayavriksh/backend/internal/infrastructure/config"
)

// TokenTypeAccess marks tokens accepted by the API
const TokenTypeAccess = "access"

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenBlacklisted = errors.New("token has been revoked")
)

// Claims are the JWT claims carried by an access token
type Claims struct {
	jwt.RegisteredClaims
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
}

// Actor converts the claims into the caller identity
func (c *Claims) Actor() (identity.Actor, error) {
	userID, err := uuid.Parse(c.UserID)
	if err != nil || userID == uuid.Nil {
		return identity.Actor{}, fmt.Errorf("%w: user_id", ErrInvalidClaims)
	}
	role, err := identity.ParseRole(c.Role)
	if err != nil {
		return identity.Actor{}, fmt.Errorf("%w: role", ErrInvalidClaims)
	}
	return identity.Actor{UserID: userID, Role: role}, nil
}

// JWTService signs and verifies HS256 access tokens. Tokens are normally
// issued by the identity service; Issue exists for tooling and tests.
type JWTService struct {
	secret     []byte
	issuer     string
	expiration time.Duration
	blacklist  TokenBlacklist
}

// NewJWTService creates a JWT service. blacklist may be nil.
func NewJWTService(cfg config.JWTConfig, blacklist TokenBlacklist) *JWTService {
	expiration := cfg.AccessTokenExpiration
	if expiration <= 0 {
		expiration = time.Hour
	}
	return &JWTService{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		expiration: expiration,
		blacklist:  blacklist,
	}
}

// Issue signs an access token for actor
func (s *JWTService) Issue(actor identity.Actor) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.expiration)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   actor.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID:    actor.UserID.String(),
		Role:      actor.Role.String(),
		TokenType: TokenTypeAccess,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify validates the token signature, lifetime and type, checks the
// blacklist, and returns the caller identity with the raw claims.
func (s *JWTService) Verify(ctx context.Context, tokenString string) (identity.Actor, *Claims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return identity.Actor{}, nil, err
	}
	actor, err := claims.Actor()
	if err != nil {
		return identity.Actor{}, nil, err
	}

	if s.blacklist != nil {
		if claims.ID != "" {
			revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
			if err != nil {
				return identity.Actor{}, nil, err
			}
			if revoked {
				return identity.Actor{}, nil, ErrTokenBlacklisted
			}
		}
		if claims.IssuedAt != nil {
			revoked, err := s.blacklist.IsUserTokenInvalidated(ctx, claims.UserID, claims.IssuedAt.Time)
			if err != nil {
				return identity.Actor{}, nil, err
			}
			if revoked {
				return identity.Actor{}, nil, ErrTokenBlacklisted
			}
		}
	}
	return actor, claims, nil
}

func (s *JWTService) parse(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.TokenType != TokenTypeAccess {
		return nil, fmt.Errorf("%w: token_type", ErrInvalidClaims)
	}
	return claims, nil
}

// RemainingTTL is how long the token stays valid, zero when expired
func (c *Claims) RemainingTTL() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return max(0, time.Until(c.ExpiresAt.Time))
}

// Revoke blacklists the token for the rest of its lifetime
func (s *JWTService) Revoke(ctx context.Context, claims *Claims) error {
	if s.blacklist == nil {
		return errors.New("token blacklist is not configured")
	}
	return s.blacklist.AddToBlacklist(ctx, claims.ID, claims.RemainingTTL())
}
