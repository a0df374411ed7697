package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mindreel/backend/internal/adapters/cache"
	"github.com/mindreel/backend/internal/adapters/database"
	"github.com/mindreel/backend/internal/adapters/embedding"
	"github.com/mindreel/backend/internal/adapters/search"
	"github.com/mindreel/backend/internal/application/services"
	"github.com/mindreel/backend/internal/domain/providers"
	"github.com/mindreel/backend/internal/domain/repositories"
	"github.com/mindreel/backend/internal/infrastructure/clients/postgres"
	"github.com/mindreel/backend/internal/infrastructure/clients/redis"
	"github.com/mindreel/backend/internal/infrastructure/clients/typesense"
	"github.com/mindreel/backend/internal/infrastructure/observability"
	"github.com/mindreel/backend/internal/infrastructure/prompts"
	"github.com/mindreel/backend/internal/infrastructure/routing"
	"github.com/mindreel/backend/pkg/config"
)

func main() {
	var query string
	var authorID string
	var topK int
	var asJSON bool
	flag.StringVar(&query, "query", "", "question to answer")
	flag.StringVar(&authorID, "author", "", "restrict retrieval to one author id")
	flag.IntVar(&topK, "topk", services.DefaultTopK, "number of cited segments")
	flag.BoolVar(&asJSON, "json", false, "print the full answer document as JSON")
	flag.Parse()

	if query == "" {
		log.Fatal("-query is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, os.Getenv("APP_ENV"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer pgClient.Close()

	var cacheProvider providers.CacheProvider
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to initialize Redis client, query embeddings uncached: %v", err)
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
			searchRepo = search.NewTypesenseAdapter(tsClient)
		}
	}

	// The same embedder must serve ingestion and query time.
	var embedder providers.EmbeddingProvider
	if cfg.Embedding.APIKey != "" {
		embedder, err = embedding.NewOpenAIAdapter(&cfg.Embedding)
		if err != nil {
			log.Fatalf("Failed to initialize embedding provider: %v", err)
		}
	} else {
		embedder = embedding.NewHashAdapter(cfg.Embedding.Dimension)
	}

	manager, err := prompts.NewManager()
	if err != nil {
		log.Fatalf("Failed to load prompt templates: %v", err)
	}

	gateway := services.NewLLMGateway(
		routing.NewRegistry(cfg.Routing.ConfigPath),
		prompts.NewRegistry(cfg.Prompts.ProfilesPath),
		manager,
		database.NewCallLogAdapter(pgClient),
	)

	segmentRepo := database.NewSegmentAdapter(pgClient, nil)
	rag := services.NewRAGService(
		services.NewRetrievalService(embedder, segmentRepo, searchRepo, cacheProvider, nil),
		services.NewRerankService(gateway),
		gateway,
		nil,
	)

	answer, err := rag.Ask(ctx, query, authorID, topK)
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}

	if asJSON {
		out, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			log.Fatalf("Failed to encode answer: %v", err)
		}
		fmt.Println(string(out))
		return
	}

	fmt.Println(answer.Answer)
	if len(answer.Citations) > 0 {
		fmt.Println()
		fmt.Println("引用：")
		for _, citation := range answer.Citations {
			fmt.Printf("[%d] 《%s》 %s %s\n", citation.Index, citation.Title, citation.Timestamp, citation.URL)
		}
	}
}
