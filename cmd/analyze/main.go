package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mindreel/backend/internal/adapters/database"
	"github.com/mindreel/backend/internal/application/services"
	"github.com/mindreel/backend/internal/infrastructure/clients/postgres"
	"github.com/mindreel/backend/internal/infrastructure/observability"
	"github.com/mindreel/backend/internal/infrastructure/prompts"
	"github.com/mindreel/backend/internal/infrastructure/routing"
	"github.com/mindreel/backend/pkg/config"
)

func main() {
	var authorID string
	var contentID string
	var force bool
	var withReports bool
	flag.StringVar(&authorID, "author", "", "author id to summarize")
	flag.StringVar(&contentID, "content", "", "single content item id to summarize")
	flag.BoolVar(&force, "force", false, "regenerate summaries that already exist")
	flag.BoolVar(&withReports, "report", false, "also generate author reports after summarizing")
	flag.Parse()

	if authorID == "" && contentID == "" {
		log.Fatal("either -author or -content is required")
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

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer pgClient.Close()

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

	analysis := services.NewAnalysisService(
		gateway,
		database.NewAuthorAdapter(pgClient),
		database.NewContentAdapter(pgClient),
		database.NewSegmentAdapter(pgClient, nil),
		database.NewSummaryAdapter(pgClient),
		database.NewReportAdapter(pgClient),
	)

	if contentID != "" {
		if _, err := analysis.GenerateContentSummary(ctx, contentID, force); err != nil {
			log.Fatalf("Summary generation failed: %v", err)
		}
		return
	}

	if err := analysis.SummarizeAuthor(ctx, authorID, force); err != nil {
		log.Fatalf("Author summarization failed: %v", err)
	}

	if withReports {
		reports, err := analysis.GenerateAuthorReports(ctx, authorID)
		if err != nil {
			log.Fatalf("Report generation failed: %v", err)
		}
		log.Printf("Generated %d report(s)", len(reports))
	}
}
