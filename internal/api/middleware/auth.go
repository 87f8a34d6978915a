package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/hvacconnect/marketplace/internal/domain/entities"
	"github.com/hvacconnect/marketplace/internal/domain/providers"
	"github.com/hvacconnect/marketplace/internal/infrastructure/observability"
)

type ctxKey string

const tokenKey ctxKey = "verified_token"

// AuthMiddleware admits requests carrying a valid, unrevoked bearer token
type AuthMiddleware struct {
	verifier providers.TokenVerifier
	denylist providers.TokenDenylist
}

// NewAuthMiddleware creates a new auth middleware. denylist may be nil.
func NewAuthMiddleware(verifier providers.TokenVerifier, denylist providers.TokenDenylist) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, denylist: denylist}
}

// Middleware rejects the request with 401 unless it is authenticated
func (m *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return m.handle(next, true)
}

// Optional admits anonymous requests. A token that is present must still be valid.
func (m *AuthMiddleware) Optional(next http.Handler) http.Handler {
	return m.handle(next, false)
}

func (m *AuthMiddleware) handle(next http.Handler, required bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			if required {
				unauthorized(w, "missing bearer token")
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		token, err := m.verifier.Verify(r.Context(), raw)
		if err != nil {
			observability.LoggerFromContext(r.Context()).Debug().Err(err).Msg("rejected access token")
			unauthorized(w, "invalid access token")
			return
		}

		if m.denylist != nil {
			revoked, err := m.denylist.IsRevoked(r.Context(), token)
			if err != nil {
				// The denylist is advisory; signature and expiry were checked.
				observability.LoggerFromContext(r.Context()).Warn().Err(err).Msg("token denylist unavailable")
			} else if revoked {
				unauthorized(w, "access token revoked")
				return
			}
		}

		next.ServeHTTP(w, r.WithContext(WithToken(r.Context(), token)))
	})
}

// WithToken returns a new context carrying the verified token
func WithToken(ctx context.Context, token *providers.VerifiedToken) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// TokenFromContext returns the verified token of the request, or nil
func TokenFromContext(ctx context.Context) *providers.VerifiedToken {
	token, _ := ctx.Value(tokenKey).(*providers.VerifiedToken)
	return token
}

// AccountFromContext returns the authenticated account, or nil
func AccountFromContext(ctx context.Context) *entities.Account {
	if token := TokenFromContext(ctx); token != nil {
		return token.Account
	}
	return nil
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
