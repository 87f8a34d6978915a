package middleware

import (
	"net/http"

	"github.com/hvacconnect/marketplace/internal/application/loaders"
)

// Loaders attaches a fresh set of batching loaders to each request so every
// booking list rendered by the request shares one batch and cache
func Loaders(factory *loaders.Factory) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if factory == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := loaders.WithLoaders(r.Context(), factory.New())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
