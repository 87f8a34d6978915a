package routes

import (
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/hvacconnect/marketplace/internal/api/handlers"
	"github.com/hvacconnect/marketplace/internal/api/middleware"
	"github.com/hvacconnect/marketplace/internal/application/loaders"
	"github.com/hvacconnect/marketplace/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	authHandler      *handlers.AuthHandler
	profileHandler   *handlers.ProfileHandler
	catalogHandler   *handlers.CatalogHandler
	bookingHandler   *handlers.BookingHandler
	reviewHandler    *handlers.ReviewHandler
	dashboardHandler *handlers.DashboardHandler
	sseHandler       *handlers.SSEHandler
	graphqlHandler   *handlers.GraphQLHandler

	authMiddleware  *middleware.AuthMiddleware
	cacheMiddleware *middleware.CacheMiddleware
	loaders         func(http.Handler) http.Handler
	allowedOrigins  []string
	metrics         *observability.Metrics
}

// Handlers groups the HTTP handlers served by the router
type Handlers struct {
	Auth      *handlers.AuthHandler
	Profile   *handlers.ProfileHandler
	Catalog   *handlers.CatalogHandler
	Booking   *handlers.BookingHandler
	Review    *handlers.ReviewHandler
	Dashboard *handlers.DashboardHandler
	SSE       *handlers.SSEHandler
	GraphQL   *handlers.GraphQLHandler
}

// NewRouter creates a new router. cacheMiddleware, loaderFactory and the
// SSE and GraphQL handlers may be nil.
func NewRouter(
	h Handlers,
	authMiddleware *middleware.AuthMiddleware,
	cacheMiddleware *middleware.CacheMiddleware,
	loaderFactory *loaders.Factory,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:              http.NewServeMux(),
		authHandler:      h.Auth,
		profileHandler:   h.Profile,
		catalogHandler:   h.Catalog,
		bookingHandler:   h.Booking,
		reviewHandler:    h.Review,
		dashboardHandler: h.Dashboard,
		sseHandler:       h.SSE,
		graphqlHandler:   h.GraphQL,
		authMiddleware:   authMiddleware,
		cacheMiddleware:  cacheMiddleware,
		loaders:          middleware.Loaders(loaderFactory),
		allowedOrigins:   allowedOrigins,
		metrics:          metrics,
	}
}

func (r *Router) protected(pattern string, handler http.HandlerFunc) {
	r.mux.Handle(pattern, r.authMiddleware.Middleware(handler))
}

// protectedBookings serves routes that render bookings with per-request loaders
func (r *Router) protectedBookings(pattern string, handler http.HandlerFunc) {
	r.mux.Handle(pattern, r.authMiddleware.Middleware(r.loaders(handler)))
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Public catalog and technician directory
	r.mux.HandleFunc("GET /api/services", r.catalogHandler.ListServices)
	r.mux.HandleFunc("GET /api/specialties", r.catalogHandler.ListSpecialties)
	r.mux.HandleFunc("GET /api/time-slots", r.catalogHandler.ListTimeSlots)
	r.mux.HandleFunc("GET /api/technicians", r.catalogHandler.SearchTechnicians)
	r.mux.HandleFunc("GET /api/technicians/{id}", r.catalogHandler.GetTechnician)

	// Auth boundary
	r.protected("GET /api/auth/me", r.authHandler.Me)
	r.protected("POST /api/auth/signout", r.authHandler.SignOut)

	// Profile endpoints
	r.protected("GET /api/profile", r.profileHandler.GetProfile)
	r.protected("PUT /api/profile", r.profileHandler.UpdateProfile)
	r.protected("POST /api/profile/technician", r.profileHandler.RegisterTechnician)
	r.protected("PUT /api/profile/specialties", r.profileHandler.SetSpecialties)

	// Booking endpoints
	r.protected("POST /api/bookings", r.bookingHandler.CreateBooking)
	r.protectedBookings("GET /api/bookings", r.bookingHandler.ListBookings)
	r.protectedBookings("GET /api/bookings/{id}", r.bookingHandler.GetBooking)
	r.protected("PATCH /api/bookings/{id}/status", r.bookingHandler.UpdateStatus)
	r.protected("POST /api/bookings/{id}/review", r.reviewHandler.SubmitReview)

	// Dashboards
	r.protectedBookings("GET /api/dashboard/client", r.dashboardHandler.ClientDashboard)
	r.protectedBookings("GET /api/dashboard/technician", r.dashboardHandler.TechnicianDashboard)

	// Read-only GraphQL; myBookings needs a token, the catalog does not
	if r.graphqlHandler != nil {
		r.mux.Handle("POST /graphql", r.authMiddleware.Optional(r.loaders(http.HandlerFunc(r.graphqlHandler.Query))))
	}

	// Live booking updates
	if r.sseHandler != nil {
		r.protected("GET /api/stream/bookings", r.sseHandler.StreamBookings)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps the app so headers are set even on cache HITs
	handler = middleware.CORS(r.allowedOrigins)(handler)

	// Request id must exist before anything logs
	handler = chimiddleware.Recoverer(handler)
	handler = chimiddleware.RealIP(handler)
	handler = chimiddleware.RequestID(handler)

	return handler
}
