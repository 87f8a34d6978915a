package providers

import (
	"context"
	"time"

	"github.com/hvacconnect/marketplace/internal/domain/entities"
)

// VerifiedToken is an access token whose signature and claims were checked
type VerifiedToken struct {
	Account   *entities.Account
	TokenID   string
	ExpiresAt time.Time
}

// TokenVerifier validates access tokens issued by the auth service
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*VerifiedToken, error)
}

// TokenDenylist records tokens revoked by sign-out
type TokenDenylist interface {
	Revoke(ctx context.Context, token *VerifiedToken) error
	IsRevoked(ctx context.Context, token *VerifiedToken) (bool, error)
}
