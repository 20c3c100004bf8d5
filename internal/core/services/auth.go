package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-widget/internal/core/domain"
	"github.com/custodia-labs/sercha-widget/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-widget/internal/core/ports/driving"
)

// Ensure authService implements AuthService
var _ driving.AuthService = (*authService)(nil)

// DefaultTokenTTL is the lifetime of issued tokens.
const DefaultTokenTTL = 365 * 24 * time.Hour

// authService implements the AuthService interface
type authService struct {
	authAdapter driven.AuthAdapter
	tokenTTL    time.Duration
}

// NewAuthService creates a new AuthService
func NewAuthService(authAdapter driven.AuthAdapter, tokenTTL time.Duration) driving.AuthService {
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	return &authService{
		authAdapter: authAdapter,
		tokenTTL:    tokenTTL,
	}
}

// ValidateToken validates a JWT token and returns the auth context
func (s *authService) ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error) {
	if token == "" {
		return nil, domain.ErrTokenInvalid
	}

	claims, err := s.authAdapter.ParseToken(token)
	if err != nil {
		if errors.Is(err, domain.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}

	if claims.IsExpired() {
		return nil, domain.ErrTokenExpired
	}

	// A tenant token must resolve to exactly one tenant.
	if !claims.Role.Valid() || (claims.Role == domain.RoleTenant && claims.TenantID == "") {
		return nil, domain.ErrTokenInvalid
	}

	return claims.AuthContext(), nil
}

// IssueToken signs a token for a tenant owner or an admin operator.
func (s *authService) IssueToken(ctx context.Context, subject, tenantID string, role domain.Role) (string, error) {
	if !role.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}
	if role == domain.RoleTenant && tenantID == "" {
		return "", fmt.Errorf("%w: tenant id required", domain.ErrInvalidInput)
	}
	if subject == "" {
		subject = tenantID
	}

	now := time.Now()
	claims := &domain.TokenClaims{
		Subject:   subject,
		TenantID:  tenantID,
		Role:      role,
		TokenID:   domain.GenerateID(),
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(s.tokenTTL).Unix(),
	}
	return s.authAdapter.GenerateToken(claims)
}
