package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mindreel/backend/internal/adapters/asr"
	"github.com/mindreel/backend/internal/adapters/blob"
	"github.com/mindreel/backend/internal/adapters/cache"
	"github.com/mindreel/backend/internal/adapters/database"
	"github.com/mindreel/backend/internal/adapters/embedding"
	"github.com/mindreel/backend/internal/adapters/search"
	"github.com/mindreel/backend/internal/adapters/sources/bilibili"
	"github.com/mindreel/backend/internal/application/services"
	"github.com/mindreel/backend/internal/domain/providers"
	"github.com/mindreel/backend/internal/domain/repositories"
	"github.com/mindreel/backend/internal/infrastructure/clients/postgres"
	"github.com/mindreel/backend/internal/infrastructure/clients/redis"
	"github.com/mindreel/backend/internal/infrastructure/clients/typesense"
	"github.com/mindreel/backend/internal/infrastructure/observability"
	"github.com/mindreel/backend/pkg/config"
)

func main() {
	var mid string
	var contentID string
	var limit int
	flag.StringVar(&mid, "mid", "", "author external id to ingest")
	flag.StringVar(&contentID, "reprocess", "", "content item id to reprocess instead of a full ingest")
	flag.IntVar(&limit, "limit", 20, "maximum number of recent videos to ingest")
	flag.Parse()

	if mid == "" && contentID == "" {
		log.Fatal("either -mid or -reprocess is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, os.Getenv("APP_ENV"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
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
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer pgClient.Close()

	// Redis is optional: the per-item reprocess lock falls back to an
	// in-process lock when Redis is unreachable.
	var cacheProvider providers.CacheProvider
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to initialize Redis client, using in-memory cache: %v", err)
		cacheProvider = cache.NewMemoryAdapter()
	} else {
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	var searchRepo repositories.SegmentSearchRepository
	if cfg.Typesense.URL != "" {
		tsClient, err := typesense.NewClient(&cfg.Typesense)
		if err != nil {
			log.Printf("Warning: Failed to initialize Typesense client: %v", err)
		} else {
			if err := tsClient.InitSchema(ctx); err != nil {
				log.Printf("Warning: Failed to init Typesense schema: %v", err)
			}
			searchRepo = search.NewTypesenseAdapter(tsClient)
		}
	}

	var recognizer providers.SpeechRecognizer
	if cfg.ASR.APIKey != "" {
		recognizer, err = asr.NewOpenAIAdapter(&cfg.ASR)
		if err != nil {
			log.Printf("Warning: Failed to initialize speech recognizer: %v", err)
		}
	} else {
		log.Println("ASR_API_KEY not set; speech recognition stage disabled")
	}

	var embedder providers.EmbeddingProvider
	if cfg.Embedding.APIKey != "" {
		embedder, err = embedding.NewOpenAIAdapter(&cfg.Embedding)
		if err != nil {
			log.Fatalf("Failed to initialize embedding provider: %v", err)
		}
	} else {
		log.Println("EMBEDDING_API_KEY not set; using deterministic hash embeddings")
		embedder = embedding.NewHashAdapter(cfg.Embedding.Dimension)
	}

	blobStore, err := blob.NewDiskAdapter(&cfg.Blob)
	if err != nil {
		log.Fatalf("Failed to initialize blob store: %v", err)
	}

	acquisition := services.NewAcquisitionService(
		bilibili.NewAdapter(&cfg.Source),
		recognizer,
		blobStore,
		embedder,
		cacheProvider,
		database.NewAuthorAdapter(pgClient),
		database.NewContentAdapter(pgClient),
		database.NewSegmentAdapter(pgClient, metrics),
		searchRepo,
		metrics,
	)

	if contentID != "" {
		if err := acquisition.Reprocess(ctx, contentID); err != nil {
			log.Fatalf("Reprocess failed: %v", err)
		}
		return
	}

	if err := acquisition.IngestAuthor(ctx, mid, limit); err != nil {
		log.Fatalf("Ingest failed: %v", err)
	}
}
