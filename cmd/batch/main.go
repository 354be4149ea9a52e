package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/adapters/cache"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/adapters/database"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/adapters/reference"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/application/services"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/providers"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/repositories"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/infrastructure/clients/openai"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/infrastructure/clients/postgres"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/infrastructure/clients/redis"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/infrastructure/notifications"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/protocoling"
	"github.com/ethan-saco/radiololgy-ct-protocoling/pkg/config"
	"github.com/ethan-saco/radiololgy-ct-protocoling/pkg/secrets"
)

func main() {
	// Pull secret material from Vault (if enabled) before reading config
	if _, err := secrets.Apply(context.Background(), secrets.OptionsFromEnv()); err != nil {
		log.Fatalf("Failed to load secrets from Vault: %v", err)
	}

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var input string
	var output string
	var workers int

	flag.StringVar(&input, "input", cfg.Batch.InputPath, "Input CSV of patient cases")
	flag.StringVar(&output, "output", cfg.Batch.OutputPath, "Output CSV of recommendations")
	flag.IntVar(&workers, "workers", cfg.Batch.Workers, "Number of concurrent workers")
	flag.Parse()

	// Setup DB
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pgClient.Close()

	// Optional Redis cache for the reference table
	var cacheProvider providers.CacheProvider
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Printf("Warning: Redis unavailable, running without reference cache: %v", err)
	} else {
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	// Setup repos
	var protocolRepo repositories.ProtocolRepository = reference.NewCSVLoader(cfg.Reference.Path)
	if cacheProvider != nil {
		protocolRepo = reference.NewCachedProtocolRepository(
			protocolRepo, cacheProvider, cfg.Reference.Path, cfg.Reference.CacheTTLSeconds,
		)
	}
	recordRepo := database.NewRecommendationAdapter(pgClient)

	// Setup provider
	draftProvider, err := openai.NewClient(&cfg.OpenAI)
	if err != nil {
		log.Fatalf("Failed to create OpenAI client: %v", err)
	}

	notifier := notifications.NewWebhookReviewNotifier(&cfg.Review)

	policy := protocoling.DefaultPolicy()
	if cfg.Policy.EGFRContraindicationThreshold > 0 {
		policy.EGFRContraindicationThreshold = cfg.Policy.EGFRContraindicationThreshold
	}
	engine := protocoling.NewEngine(policy)

	// Setup services: no event bus for batch runs, dashboards follow the API
	pipeline := services.NewRecommendationService(
		engine, protocolRepo, recordRepo, draftProvider, nil, notifier, nil, cfg.OpenAI.MaxRetries,
	)
	svc := services.NewBatchService(pipeline, workers)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	start := time.Now()
	log.Printf("Starting batch run with %d workers: %s -> %s", workers, input, output)

	summary, err := svc.Run(ctx, input, output)
	if err != nil {
		log.Fatalf("Batch run failed: %v", err)
	}

	log.Printf("Batch run complete in %s", time.Since(start))
	log.Printf("Total processed: %d", summary.TotalProcessed)
	log.Printf("Success: %d", summary.SuccessCount)
	log.Printf("Sentinel: %d", summary.SentinelCount)
	log.Printf("Failed: %d", summary.FailureCount)
}
