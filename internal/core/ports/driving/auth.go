package driving

import (
	"context"

	"github.com/custodia-labs/sercha-widget/internal/core/domain"
)

// AuthService validates bearer tokens and issues operator tokens.
type AuthService interface {
	// ValidateToken validates a JWT token and returns the auth context
	ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error)

	// IssueToken signs a token for a tenant or an admin operator.
	IssueToken(ctx context.Context, subject, tenantID string, role domain.Role) (string, error)
}
