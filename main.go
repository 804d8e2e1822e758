package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/datawisp/metadata-engine/pkg/config"
	"github.com/datawisp/metadata-engine/pkg/database"
	"github.com/datawisp/metadata-engine/pkg/handlers"
	"github.com/datawisp/metadata-engine/pkg/llm"
	"github.com/datawisp/metadata-engine/pkg/middleware"
	"github.com/datawisp/metadata-engine/pkg/models"
	"github.com/datawisp/metadata-engine/pkg/objectstore"
	"github.com/datawisp/metadata-engine/pkg/repositories"
	"github.com/datawisp/metadata-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("database", cfg.Database.Database),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLM.Model))

	ctx := context.Background()

	// Run migrations through database/sql; the pool below uses pgx directly.
	migrationDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(migrationDB, "migrations", logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = migrationDB.Close()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	generator, err := llm.NewGenerator(cfg.LLM.ClientConfig(), logger)
	if err != nil {
		logger.Fatal("Failed to create model client", zap.Error(err))
	}

	warehouseRepo := repositories.NewWarehouseRepository(db)
	aspectRepo := repositories.NewAspectRepository(db)
	lineageRepo := repositories.NewLineageRepository(db)
	scanRepo := repositories.NewScanRepository(db)
	catalogRepo := repositories.NewCatalogRepository(db)
	docSource := objectstore.NewCSVSource(logger)

	aggregator := services.NewContextAggregator(
		warehouseRepo, scanRepo, lineageRepo, aspectRepo, cfg.Generation.SampleRows, logger)
	generation := services.NewGenerationService(aggregator, generator, aspectRepo, warehouseRepo, catalogRepo, nil, logger)
	scheduler := services.NewBatchScheduler(warehouseRepo, docSource, logger)
	metadata := services.NewMetadataService(generation, scheduler, warehouseRepo, aspectRepo, logger)
	review := services.NewReviewService(aspectRepo, warehouseRepo, catalogRepo, logger)
	ingestion := services.NewIngestionService(lineageRepo, scanRepo, logger)

	defaults := models.DefaultGenerationOptions()
	defaults.DescriptionHandling = models.DescriptionHandling(cfg.Generation.DescriptionHandling)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewMetadataHandler(metadata, review, defaults, logger).RegisterRoutes(mux)
	handlers.NewIngestionHandler(ingestion, logger).RegisterRoutes(mux)

	handler := middleware.RequestID()(middleware.RequestLogger(logger)(mux))

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting metadata-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
