package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/adapters/cache"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/adapters/database"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/adapters/events"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/adapters/reference"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/adapters/search"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/api/handlers"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/api/middleware"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/api/routes"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/application/services"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/providers"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/repositories"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/infrastructure/clients/openai"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/infrastructure/clients/postgres"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/infrastructure/clients/redis"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/infrastructure/clients/typesense"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/infrastructure/notifications"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/infrastructure/observability"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/protocoling"
	"github.com/ethan-saco/radiololgy-ct-protocoling/pkg/config"
	"github.com/ethan-saco/radiololgy-ct-protocoling/pkg/secrets"
)

func main() {

	// Pull secret material from Vault (if enabled) before reading config
	if summary, err := secrets.Apply(context.Background(), secrets.OptionsFromEnv()); err != nil {
		log.Fatalf("Failed to load secrets from Vault: %v", err)
	} else if summary.Enabled {
		log.Printf("Loaded %d secrets from Vault path %s (%d skipped)", summary.Loaded, summary.Path, summary.Skipped)
	}

	// Load configuration

	cfg, err := config.Load()

	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logging
	env := os.Getenv("ENV")
	if env == "" {
		env = "production"
	}
	observability.InitLogger(cfg.OTEL.ServiceName, env)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	var shutdown func(context.Context) error
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err = observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Printf("Warning: Failed to set up OpenTelemetry: %v", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Printf("Error shutting down OpenTelemetry: %v", err)
				}
			}()
			log.Println("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer pgClient.Close()
	log.Println("PostgreSQL client initialized successfully")

	// Initialize Redis client
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to initialize Redis client: %v", err)
		// Continue without Redis - the application can work without caching
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Println("Redis client initialized successfully")
	}

	// Initialize Typesense client
	typesenseClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		log.Printf("Warning: Failed to initialize Typesense client: %v", err)
		typesenseClient = nil
	} else {
		log.Println("Typesense client initialized successfully")
	}

	var cacheProvider providers.CacheProvider
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	// Initialize adapters

	// Protocol reference table: CSV loader, cached when Redis is available
	var protocolRepo repositories.ProtocolRepository = reference.NewCSVLoader(cfg.Reference.Path)
	if cacheProvider != nil {
		protocolRepo = reference.NewCachedProtocolRepository(
			protocolRepo, cacheProvider, cfg.Reference.Path, cfg.Reference.CacheTTLSeconds,
		)
		log.Println("Protocol reference wrapped with caching layer")
	} else {
		log.Println("Protocol reference running without cache (Redis unavailable)")
	}

	recordRepo := database.NewRecommendationAdapter(pgClient)

	var searchRepo repositories.ProtocolSearchRepository

	if typesenseClient != nil {

		adapter := search.NewTypesenseAdapter(typesenseClient)

		// Ensure schema exists

		if err := adapter.InitSchema(context.Background()); err != nil {

			log.Printf("Warning: Failed to init Typesense schema: %v", err)

		}

		searchRepo = adapter

	}

	// Initialize event bus for real-time updates
	var eventBus providers.EventBus
	if redisClient != nil {
		eventBus = events.NewRedisEventBus(redisClient)
		log.Println("Event bus initialized successfully")
	} else {
		log.Println("Event bus disabled (Redis not available)")
	}

	// Draft collaborator
	if cfg.OpenAI.APIKey == "" {
		log.Println("Warning: OPENAI_API_KEY is not set; every request will degrade to the sentinel")
	}
	draftProvider, err := openai.NewClient(&cfg.OpenAI)
	if err != nil {
		log.Fatalf("Failed to initialize OpenAI client: %v", err)
	}

	// Manual review notifier (no-op when no webhook is configured)
	var notifier providers.ReviewNotifier = notifications.NewWebhookReviewNotifier(&cfg.Review)
	if notifier.IsEnabled() {
		log.Println("Review notifier configured")
	}

	// Clinical policy: code-owned enums and terms, env-tunable eGFR threshold
	policy := protocoling.DefaultPolicy()
	if cfg.Policy.EGFRContraindicationThreshold > 0 {
		policy.EGFRContraindicationThreshold = cfg.Policy.EGFRContraindicationThreshold
	}
	engine := protocoling.NewEngine(policy)

	// Initialize services

	recommendationService := services.NewRecommendationService(
		engine,
		protocolRepo,
		recordRepo,
		draftProvider,
		eventBus,
		notifier,
		metrics,
		cfg.OpenAI.MaxRetries,
	)

	protocolService := services.NewProtocolLibraryService(protocolRepo, searchRepo)

	// Initialize handlers

	recommendationHandler := handlers.NewRecommendationHandler(recommendationService)

	protocolHandler := handlers.NewProtocolHandler(protocolService)

	// Initialize cache middleware
	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider)
		log.Println("Cache middleware initialized successfully")
	}

	// Set up router

	router := routes.NewRouter(
		recommendationHandler,
		protocolHandler,
		cacheMiddleware,
		metrics,
		func() error { return pgClient.Ping(context.Background()) },
	)

	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	// Close event bus
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Printf("Error closing event bus: %v", err)
		}
	}

	log.Println("Server stopped")
}
