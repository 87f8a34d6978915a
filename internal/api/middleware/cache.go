package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/hvacconnect/marketplace/internal/domain/providers"
	"github.com/hvacconnect/marketplace/internal/infrastructure/observability"
)

// CacheRoute caches GET responses for paths starting with Prefix
type CacheRoute struct {
	Prefix string
	TTL    time.Duration
}

// DefaultCacheRoutes covers the public catalog and the technician directory.
// Longer prefixes must come first.
func DefaultCacheRoutes(catalogTTL, technicianTTL time.Duration) []CacheRoute {
	return []CacheRoute{
		{Prefix: "/api/services", TTL: catalogTTL},
		{Prefix: "/api/specialties", TTL: catalogTTL},
		{Prefix: "/api/time-slots", TTL: catalogTTL},
		{Prefix: "/api/technicians", TTL: technicianTTL},
	}
}

// CacheMiddleware provides HTTP response caching for anonymous reads
type CacheMiddleware struct {
	cache   providers.CacheProvider
	metrics *observability.Metrics
	routes  []CacheRoute
}

// NewCacheMiddleware creates a new cache middleware
func NewCacheMiddleware(cache providers.CacheProvider, metrics *observability.Metrics, routes []CacheRoute) *CacheMiddleware {
	return &CacheMiddleware{
		cache:   cache,
		metrics: metrics,
		routes:  routes,
	}
}

// Middleware returns the cache middleware handler
func (m *CacheMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Responses to authenticated callers may be personal
		if r.Method != http.MethodGet || m.cache == nil || r.Header.Get("Authorization") != "" {
			next.ServeHTTP(w, r)
			return
		}

		route, ok := m.routeFor(r.URL.Path)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		logger := observability.LoggerFromContext(r.Context())
		cacheKey := CacheKey(r)

		if cached, err := m.cache.Get(r.Context(), cacheKey); err == nil {
			observability.RecordCacheHit(r.Context(), m.metrics, route.Prefix)
			w.Header().Set("X-Cache", "HIT")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(cached)
			return
		}

		observability.RecordCacheMiss(r.Context(), m.metrics, route.Prefix)
		w.Header().Set("X-Cache", "MISS")

		recorder := &responseRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
			body:           &bytes.Buffer{},
		}
		next.ServeHTTP(recorder, r)

		if recorder.statusCode != http.StatusOK || recorder.body.Len() == 0 {
			return
		}
		if err := m.cache.Set(r.Context(), cacheKey, recorder.body.Bytes(), int(route.TTL.Seconds())); err != nil {
			logger.Warn().Err(err).Str("key", cacheKey).Msg("failed to cache response")
			return
		}
		logger.Debug().Str("key", cacheKey).Dur("ttl", route.TTL).Msg("cached response")
	})
}

func (m *CacheMiddleware) routeFor(path string) (CacheRoute, bool) {
	for _, route := range m.routes {
		if route.TTL > 0 && strings.HasPrefix(path, route.Prefix) {
			return route, true
		}
	}
	return CacheRoute{}, false
}

// CacheKey builds the response cache key for r. The path stays readable so
// providers.HTTPCachePattern can invalidate by prefix; the query is hashed
// after normalizing parameter order.
func CacheKey(r *http.Request) string {
	query := r.URL.Query().Encode()
	hash := sha256.Sum256([]byte(query))
	return providers.HTTPCachePrefix + r.Method + ":" + r.URL.Path + ":" + hex.EncodeToString(hash[:8])
}

// responseRecorder captures the response for caching
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
	written    bool
}

// WriteHeader captures the status code
func (r *responseRecorder) WriteHeader(statusCode int) {
	if !r.written {
		r.statusCode = statusCode
		r.ResponseWriter.WriteHeader(statusCode)
		r.written = true
	}
}

// Write captures the response body and writes to the client
func (r *responseRecorder) Write(data []byte) (int, error) {
	if !r.written {
		r.WriteHeader(http.StatusOK)
	}
	r.body.Write(data)
	return r.ResponseWriter.Write(data)
}
