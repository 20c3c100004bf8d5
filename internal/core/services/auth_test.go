package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/custodia-labs/sercha-widget/internal/core/domain"
	"github.com/custodia-labs/sercha-widget/internal/core/ports/driven/mocks"
)

func newTestAuthService() (*mocks.MockAuthAdapter, *authService) {
	authAdapter := mocks.NewMockAuthAdapter()
	svc := NewAuthService(authAdapter, time.Hour).(*authService)
	return authAdapter, svc
}

func TestAuthService_IssueAndValidate(t *testing.T) {
	_, svc := newTestAuthService()

	token, err := svc.IssueToken(context.Background(), "owner@shop.example", "site-1", domain.RoleTenant)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	authCtx, err := svc.ValidateToken(context.Background(), token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if authCtx.TenantID != "site-1" {
		t.Errorf("expected tenant site-1, got %s", authCtx.TenantID)
	}
	if authCtx.Subject != "owner@shop.example" {
		t.Errorf("expected subject owner@shop.example, got %s", authCtx.Subject)
	}
	if authCtx.TokenID == "" {
		t.Error("expected token id to be set")
	}
	if !authCtx.CanManage("site-1") || authCtx.CanManage("site-2") {
		t.Error("tenant token should manage only its own tenant")
	}
}

func TestAuthService_IssueToken_Validation(t *testing.T) {
	_, svc := newTestAuthService()

	tests := []struct {
		name     string
		tenantID string
		role     domain.Role
		wantErr  error
	}{
		{"tenant without id", "", domain.RoleTenant, domain.ErrInvalidInput},
		{"unknown role", "site-1", domain.Role("owner"), domain.ErrInvalidInput},
		{"admin without tenant", "", domain.RoleAdmin, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.IssueToken(context.Background(), "ops", tt.tenantID, tt.role)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errorIs(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestAuthService_ValidateToken(t *testing.T) {
	adapter, svc := newTestAuthService()
	now := time.Now()

	expired, _ := adapter.GenerateToken(&domain.TokenClaims{
		TenantID:  "site-1",
		Role:      domain.RoleTenant,
		IssuedAt:  now.Add(-2 * time.Hour).Unix(),
		ExpiresAt: now.Add(-time.Hour).Unix(),
	})
	noTenant, _ := adapter.GenerateToken(&domain.TokenClaims{
		Role:      domain.RoleTenant,
		ExpiresAt: now.Add(time.Hour).Unix(),
	})
	badRole, _ := adapter.GenerateToken(&domain.TokenClaims{
		TenantID:  "site-1",
		Role:      domain.Role("root"),
		ExpiresAt: now.Add(time.Hour).Unix(),
	})

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"empty token", "", domain.ErrTokenInvalid},
		{"garbage", "!!!", domain.ErrTokenInvalid},
		{"expired", expired, domain.ErrTokenExpired},
		{"tenant role without tenant", noTenant, domain.ErrTokenInvalid},
		{"unknown role", badRole, domain.ErrTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateToken(context.Background(), tt.token)
			if err != tt.wantErr {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestAuthService_AdminToken(t *testing.T) {
	_, svc := newTestAuthService()

	token, err := svc.IssueToken(context.Background(), "ops", "", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	authCtx, err := svc.ValidateToken(context.Background(), token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !authCtx.IsAdmin() || !authCtx.CanManage("any-tenant") {
		t.Error("admin token should manage any tenant")
	}
}

func errorIs(err, target error) bool {
	return errors.Is(err, target)
}
