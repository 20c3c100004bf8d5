package domain

import "time"

// Role defines the permission level carried by an API token
type Role string

const (
	RoleAdmin  Role = "admin"  // Operator: teardown, reindex any tenant
	RoleTenant Role = "tenant" // Widget owner: reindex own tenant only
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleTenant
}

// AuthContext contains authenticated caller info for request context
type AuthContext struct {
	Subject  string `json:"subject"`
	TenantID string `json:"tenant_id"`
	Role     Role   `json:"role"`
	TokenID  string `json:"token_id"`
}

// IsAdmin checks if the caller is an operator
func (a *AuthContext) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanManage reports whether the caller may reindex the given tenant.
func (a *AuthContext) CanManage(tenantID string) bool {
	if a.IsAdmin() {
		return true
	}
	return tenantID != "" && a.TenantID == tenantID
}

// TokenClaims represents the JWT token payload
type TokenClaims struct {
	Subject   string `json:"sub"`
	TenantID  string `json:"tenant_id"`
	Role      Role   `json:"role"`
	TokenID   string `json:"jti"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// IsExpired checks if the claims have expired
func (c *TokenClaims) IsExpired() bool {
	return time.Now().Unix() >= c.ExpiresAt
}

// AuthContext converts verified claims into a request auth context.
func (c *TokenClaims) AuthContext() *AuthContext {
	return &AuthContext{
		Subject:  c.Subject,
		TenantID: c.TenantID,
		Role:     c.Role,
		TokenID:  c.TokenID,
	}
}
