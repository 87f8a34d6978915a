package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hvacconnect/marketplace/internal/adapters/auth"
	"github.com/hvacconnect/marketplace/internal/adapters/cache"
	"github.com/hvacconnect/marketplace/internal/adapters/database"
	"github.com/hvacconnect/marketplace/internal/adapters/events"
	"github.com/hvacconnect/marketplace/internal/adapters/search"
	"github.com/hvacconnect/marketplace/internal/api/handlers"
	"github.com/hvacconnect/marketplace/internal/api/middleware"
	"github.com/hvacconnect/marketplace/internal/api/routes"
	"github.com/hvacconnect/marketplace/internal/application/loaders"
	"github.com/hvacconnect/marketplace/internal/application/services"
	"github.com/hvacconnect/marketplace/internal/domain/providers"
	"github.com/hvacconnect/marketplace/internal/graphql"
	"github.com/hvacconnect/marketplace/internal/domain/repositories"
	"github.com/hvacconnect/marketplace/internal/infrastructure/clients/amqp"
	"github.com/hvacconnect/marketplace/internal/infrastructure/clients/postgres"
	"github.com/hvacconnect/marketplace/internal/infrastructure/clients/redis"
	"github.com/hvacconnect/marketplace/internal/infrastructure/clients/typesense"
	"github.com/hvacconnect/marketplace/internal/infrastructure/observability"
	"github.com/hvacconnect/marketplace/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Environment)
	log := observability.GetLogger()

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	location, err := time.LoadLocation(cfg.Booking.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.Booking.Timezone).Msg("invalid booking timezone")
	}

	verifier, err := auth.NewJWTVerifier(&cfg.Auth)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize token verifier")
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	// Redis backs caching, live updates and sign-out; the API runs without it
	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable; caching, live updates and sign-out disabled")
	} else {
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient)
		eventBus = events.NewRedisEventBus(redisClient)
	}

	var searchProvider providers.TechnicianSearchProvider
	if cfg.Typesense.Enabled {
		typesenseClient, err := typesense.NewClient(&cfg.Typesense)
		if err != nil {
			log.Warn().Err(err).Msg("Typesense unavailable; technician search falls back to PostgreSQL")
		} else {
			adapter := search.NewTypesenseAdapter(typesenseClient)
			if err := adapter.InitSchema(ctx); err != nil {
				log.Warn().Err(err).Msg("failed to init Typesense schema")
			}
			searchProvider = adapter
		}
	}

	var brokers []providers.EventPublisher
	if cfg.AMQP.Enabled {
		amqpClient, err := amqp.NewClient(&cfg.AMQP)
		if err != nil {
			log.Warn().Err(err).Msg("AMQP broker unavailable; booking events stay in-process")
		} else {
			defer amqpClient.Close()
			brokers = append(brokers, events.NewAMQPPublisher(amqpClient.Channel(), amqpClient.Exchange()))
		}
	}
	publisher := events.NewDispatcher(eventBus, brokers...)

	// Initialize adapters
	bookingRepo := database.NewBookingAdapter(pgClient)
	clientRepo := database.NewClientAdapter(pgClient)
	reviewRepo := database.NewReviewAdapter(pgClient)
	serviceRepo := database.NewServiceAdapter(pgClient)
	specialtyRepo := database.NewSpecialtyAdapter(pgClient)
	transactor := database.NewTransactor(pgClient)

	var technicianRepo repositories.TechnicianRepository = database.NewTechnicianAdapter(pgClient)
	if cacheProvider != nil {
		technicianRepo = database.NewCachedTechnicianAdapter(technicianRepo, cacheProvider, int(cfg.Cache.TechnicianTTL.Seconds()))
	}

	// Initialize services
	loaderFactory := loaders.NewFactory(clientRepo, technicianRepo, specialtyRepo, serviceRepo)

	profileService := services.NewProfileService(clientRepo, technicianRepo, specialtyRepo, transactor, searchProvider)
	bookingService := services.NewBookingService(
		bookingRepo,
		technicianRepo,
		serviceRepo,
		profileService,
		publisher,
		loaderFactory,
		services.BookingPolicy{
			EnforceTransitions:   cfg.Booking.EnforceTransitions,
			PreventDoubleBooking: cfg.Booking.PreventDoubleBooking,
			Location:             location,
		},
	)
	reviewService := services.NewReviewService(reviewRepo, bookingRepo, technicianRepo, profileService, transactor, publisher)
	catalogService := services.NewCatalogService(serviceRepo, specialtyRepo, technicianRepo, reviewRepo, clientRepo, searchProvider)
	dashboardService := services.NewDashboardService(profileService, bookingService, bookingRepo, reviewRepo, clientRepo, serviceRepo)

	var cacheInvalidationService *services.CacheInvalidationService
	if cacheProvider != nil && eventBus != nil {
		cacheInvalidationService = services.NewCacheInvalidationService(cacheProvider, eventBus)
		profileService.SetInvalidator(cacheInvalidationService)
		if err := cacheInvalidationService.Start(); err != nil {
			log.Warn().Err(err).Msg("failed to start cache invalidation service")
			cacheInvalidationService = nil
		}
	}

	// Initialize handlers
	var denylist providers.TokenDenylist
	if cacheProvider != nil {
		denylist = auth.NewCacheDenylist(cacheProvider)
	}

	h := routes.Handlers{
		Auth:      handlers.NewAuthHandler(denylist),
		Profile:   handlers.NewProfileHandler(profileService),
		Catalog:   handlers.NewCatalogHandler(catalogService),
		Booking:   handlers.NewBookingHandler(bookingService, cacheProvider, cfg.Booking.DedupeWindow),
		Review:    handlers.NewReviewHandler(reviewService),
		Dashboard: handlers.NewDashboardHandler(dashboardService),
	}
	if eventBus != nil {
		h.SSE = handlers.NewSSEHandler(eventBus, profileService)
	}

	executor, err := graphql.NewExecutor(graphql.NewResolver(catalogService, bookingService))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load graphql schema")
	}
	h.GraphQL = handlers.NewGraphQLHandler(executor)

	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider, metrics,
			middleware.DefaultCacheRoutes(cfg.Cache.CatalogTTL, cfg.Cache.TechnicianTTL))
	}

	router := routes.NewRouter(
		h,
		middleware.NewAuthMiddleware(verifier, denylist),
		cacheMiddleware,
		loaderFactory,
		cfg.Server.AllowedOrigins,
		metrics,
	)

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     router.SetupRoutes(),
		ReadTimeout: 15 * time.Second,
		// No write timeout: booking streams stay open
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if h.SSE != nil {
		h.SSE.Close()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	if cacheInvalidationService != nil {
		cacheInvalidationService.Stop()
	}

	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Error().Err(err).Msg("error closing event bus")
		}
	}

	log.Info().Msg("server stopped")
}
