package handlers

import (
	"net/http"

	"github.com/hvacconnect/marketplace/internal/api/middleware"
	"github.com/hvacconnect/marketplace/internal/domain/providers"
)

// AuthHandler exposes the verified identity of the caller
type AuthHandler struct {
	denylist providers.TokenDenylist
}

// NewAuthHandler creates a new auth handler. Without a denylist sign-out
// only ends the client-side session.
func NewAuthHandler(denylist providers.TokenDenylist) *AuthHandler {
	return &AuthHandler{denylist: denylist}
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	account, ok := requireAccount(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, account)
}

// SignOut handles POST /api/auth/signout
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	token := middleware.TokenFromContext(r.Context())
	if token == nil {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if h.denylist != nil {
		if err := h.denylist.Revoke(r.Context(), token); err != nil {
			respondWithAppError(w, r, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
