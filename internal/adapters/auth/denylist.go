package auth

import (
	"context"
	"time"

	"github.com/hvacconnect/marketplace/internal/domain/providers"
)

const revokedKeyPrefix = "auth:revoked:"

// CacheDenylist keeps revoked token ids in the cache until the token would
// have expired anyway
type CacheDenylist struct {
	cache providers.CacheProvider
	now   func() time.Time
}

// NewCacheDenylist creates a denylist backed by cache
func NewCacheDenylist(cache providers.CacheProvider) *CacheDenylist {
	return &CacheDenylist{cache: cache, now: time.Now}
}

var _ providers.TokenDenylist = (*CacheDenylist)(nil)

// Revoke denylists the token for the rest of its lifetime
func (d *CacheDenylist) Revoke(ctx context.Context, token *providers.VerifiedToken) error {
	remaining := token.ExpiresAt.Sub(d.now())
	if remaining <= 0 {
		return nil
	}
	seconds := int(remaining.Seconds()) + 1
	return d.cache.Set(ctx, revokedKeyPrefix+token.TokenID, []byte("1"), seconds)
}

// IsRevoked reports whether the token was signed out
func (d *CacheDenylist) IsRevoked(ctx context.Context, token *providers.VerifiedToken) (bool, error) {
	return d.cache.Exists(ctx, revokedKeyPrefix+token.TokenID)
}
