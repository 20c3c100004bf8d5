package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/custodia-labs/sercha-widget/internal/core/domain"
)

func tenantClaims(ttl time.Duration) *domain.TokenClaims {
	now := time.Now()
	return &domain.TokenClaims{
		Subject:   "owner@shop.example",
		TenantID:  "site-1",
		Role:      domain.RoleTenant,
		TokenID:   "tok-1",
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	}
}

func TestNewAdapter(t *testing.T) {
	adapter := NewAdapter("test-secret")
	if adapter == nil {
		t.Fatal("expected non-nil adapter")
	}
	if string(adapter.jwtSecret) != "test-secret" {
		t.Error("expected jwt secret to be set")
	}
}

func TestGenerateAndParseToken(t *testing.T) {
	adapter := NewAdapter("secret")
	claims := tenantClaims(time.Hour)

	token, err := adapter.GenerateToken(claims)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Errorf("expected JWT with three segments, got %q", token)
	}

	parsed, err := adapter.ParseToken(token)
	if err != nil {
		t.Fatalf("failed to parse token: %v", err)
	}
	if parsed.Subject != claims.Subject {
		t.Errorf("expected subject %s, got %s", claims.Subject, parsed.Subject)
	}
	if parsed.TenantID != "site-1" {
		t.Errorf("expected tenant site-1, got %s", parsed.TenantID)
	}
	if parsed.Role != domain.RoleTenant {
		t.Errorf("expected tenant role, got %s", parsed.Role)
	}
	if parsed.TokenID != "tok-1" {
		t.Errorf("expected token id tok-1, got %s", parsed.TokenID)
	}
	if parsed.ExpiresAt != claims.ExpiresAt {
		t.Errorf("expected exp %d, got %d", claims.ExpiresAt, parsed.ExpiresAt)
	}
}

func TestGenerateToken_AdminWithoutTenant(t *testing.T) {
	adapter := NewAdapter("secret")
	claims := tenantClaims(time.Hour)
	claims.Role = domain.RoleAdmin
	claims.TenantID = ""

	token, err := adapter.GenerateToken(claims)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	parsed, err := adapter.ParseToken(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !parsed.AuthContext().IsAdmin() {
		t.Error("expected admin auth context")
	}
}

func TestGenerateToken_RejectsBadClaims(t *testing.T) {
	adapter := NewAdapter("secret")

	noTenant := tenantClaims(time.Hour)
	noTenant.TenantID = ""
	if _, err := adapter.GenerateToken(noTenant); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for tenant token without tenant, got %v", err)
	}

	badRole := tenantClaims(time.Hour)
	badRole.Role = "superuser"
	if _, err := adapter.GenerateToken(badRole); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for unknown role, got %v", err)
	}
}

func TestParseToken_Expired(t *testing.T) {
	adapter := NewAdapter("secret")
	claims := tenantClaims(-time.Hour)
	claims.IssuedAt = time.Now().Add(-2 * time.Hour).Unix()

	token, err := adapter.GenerateToken(claims)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	if _, err := adapter.ParseToken(token); !errors.Is(err, domain.ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := NewAdapter("secret-a").GenerateToken(tenantClaims(time.Hour))
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	if _, err := NewAdapter("secret-b").ParseToken(token); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestParseToken_Garbage(t *testing.T) {
	if _, err := NewAdapter("secret").ParseToken("not-a-token"); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestParseToken_RejectsNoneAlgorithm(t *testing.T) {
	jc := jwtClaims{
		TenantID: "site-1",
		Role:     domain.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "sercha-widget",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jc).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("failed to build unsigned token: %v", err)
	}

	if _, err := NewAdapter("secret").ParseToken(token); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestParseToken_WrongIssuer(t *testing.T) {
	adapter := NewAdapter("secret")
	adapter.issuer = "someone-else"
	token, err := adapter.GenerateToken(tenantClaims(time.Hour))
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	if _, err := NewAdapter("secret").ParseToken(token); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid, got %v", err)
	}
}
