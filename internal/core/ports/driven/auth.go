package driven

import "github.com/custodia-labs/sercha-widget/internal/core/domain"

// AuthAdapter handles bearer token cryptographic operations.
type AuthAdapter interface {
	// GenerateToken signs claims into a bearer token.
	GenerateToken(claims *domain.TokenClaims) (string, error)

	// ParseToken verifies a bearer token and returns its claims.
	// Returns domain.ErrTokenExpired or domain.ErrTokenInvalid on failure.
	ParseToken(token string) (*domain.TokenClaims, error)
}
