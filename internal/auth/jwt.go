// Package auth resolves caller identities from bearer tokens minted by the
// external auth provider.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Clark-Hu/barpulse/internal/domain"
	"github.com/Clark-Hu/barpulse/internal/repository"
)

var (
	ErrMissingToken = errors.New("auth: missing token")
	ErrInvalidToken = errors.New("auth: invalid token")
	ErrExpiredToken = errors.New("auth: token has expired")
	ErrUnknownUser  = errors.New("auth: unknown user")
)

// Claims are the provider's access-token claims. The subject is the user id.
type Claims struct {
	Role string `json:"user_role,omitempty"`
	jwt.RegisteredClaims
}

// RoleSource looks up the role of a known user.
type RoleSource interface {
	Role(ctx context.Context, id uuid.UUID) (domain.Role, error)
}

// Authenticator verifies HS256 tokens and resolves them to identities.
type Authenticator struct {
	secret   []byte
	audience string
	roles    RoleSource
}

// NewAuthenticator builds an Authenticator. When roles is nil the role is
// read from the token's user_role claim instead of the users table.
func NewAuthenticator(secret, audience string, roles RoleSource) *Authenticator {
	return &Authenticator{secret: []byte(secret), audience: audience, roles: roles}
}

// Authenticate validates token and returns the caller's identity.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (domain.Identity, error) {
	if token == "" {
		return domain.Identity{}, ErrMissingToken
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.audience != "" {
		opts = append(opts, jwt.WithAudience(a.audience))
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Identity{}, ErrExpiredToken
		}
		return domain.Identity{}, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return domain.Identity{}, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return domain.Identity{}, ErrInvalidToken
	}

	role, err := a.resolveRole(ctx, userID, claims.Role)
	if err != nil {
		return domain.Identity{}, err
	}
	return domain.Identity{UserID: userID, Role: role}, nil
}

func (a *Authenticator) resolveRole(ctx context.Context, id uuid.UUID, claimed string) (domain.Role, error) {
	if a.roles == nil {
		switch r := domain.Role(claimed); r {
		case domain.RoleBarAdmin, domain.RoleSuperuser:
			return r, nil
		default:
			return domain.RoleUser, nil
		}
	}
	role, err := a.roles.Role(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUnknownUser
		}
		return "", fmt.Errorf("resolve role: %w", err)
	}
	return role, nil
}

// Sign mints a token for id. It exists for local tooling and tests; production
// tokens come from the auth provider.
func (a *Authenticator) Sign(id uuid.UUID, role domain.Role, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if a.audience != "" {
		claims.Audience = jwt.ClaimStrings{a.audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}
