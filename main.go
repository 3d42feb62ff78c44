package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/datahub-inc/datahub-engine/pkg/config"
	"github.com/datahub-inc/datahub-engine/pkg/database"
	"github.com/datahub-inc/datahub-engine/pkg/handlers"
	"github.com/datahub-inc/datahub-engine/pkg/logging"
	"github.com/datahub-inc/datahub-engine/pkg/middleware"
	"github.com/datahub-inc/datahub-engine/pkg/repositories"
	"github.com/datahub-inc/datahub-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())),
		zap.String("redis", cfg.Redis.Host),
		zap.String("catalog_seed", cfg.CatalogSeedPath))

	ctx := context.Background()

	// Control-plane schema must be current before anything resolves tenants.
	controlSQL, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open control database", zap.Error(err))
	}
	if err := database.RunMigrations(controlSQL, cfg.Migrations.ControlDir, logger); err != nil {
		logger.Fatal("Failed to migrate control database", zap.Error(err))
	}
	_ = controlSQL.Close()

	control, err := database.NewConnection(ctx, &database.PoolConfig{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to control database", zap.Error(err))
	}
	defer control.Close()

	cache, err := database.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	if cache != nil {
		defer func() { _ = cache.Close() }()
	}

	seedDoc, err := services.LoadCatalogSeed(cfg.CatalogSeedPath)
	if err != nil {
		logger.Fatal("Failed to load catalog seed", zap.Error(err))
	}

	tenantRepo := repositories.NewTenantRepository(control)
	catalogRepo := repositories.NewCatalogRepository()
	entityRepo := repositories.NewEntityRepository()
	deliveryRepo := repositories.NewDeliveryRepository()
	alarmRepo := repositories.NewAlarmRepository()
	flagRepo := repositories.NewFlagRepository()
	seedRepo := repositories.NewSeedRepository()

	seed := services.CatalogSeeder(seedDoc, seedRepo, logger)
	router := database.NewRouter(control, &cfg.Database, tenantRepo, cache, seed, cfg.Migrations.TenantDir, logger)
	defer router.Close()

	if err := router.OpenActive(ctx); err != nil {
		logger.Warn("Failed to open active partitions", zap.Error(err))
	}

	localizer := services.NewLocalizer(catalogRepo, entityRepo)
	schemas := services.NewMetadataEngine(catalogRepo, logger)
	compiler := services.NewFilterCompiler(catalogRepo, entityRepo, logger)
	queries := services.NewQueryService(schemas, compiler, deliveryRepo, alarmRepo, flagRepo, localizer, cfg.DefaultTimezone, logger)
	ingest := services.NewIngestService(deliveryRepo, alarmRepo, flagRepo, entityRepo, catalogRepo, logger)
	provisioner := services.NewProvisioner(router, cfg.DefaultTimezone, logger)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(cfg, router, logger)
	healthHandler.RegisterRoutes(mux)

	metadataHandler := handlers.NewMetadataHandler(router, schemas, logger)
	queryHandler := handlers.NewQueryHandler(router, queries, logger)
	ingestHandler := handlers.NewIngestHandler(router, ingest, logger)
	provisionHandler := handlers.NewProvisionHandler(provisioner, logger)

	mux.HandleFunc("GET /api/v1/{tenant}/tables", metadataHandler.ListTables)
	mux.HandleFunc("GET /api/v1/{tenant}/tables/{table_type}", metadataHandler.GetSchema)
	mux.HandleFunc("GET /api/v1/{tenant}/tables/{table_type}/records", queryHandler.Records)
	mux.HandleFunc("GET /api/v1/{tenant}/deliveries/{delivery_id}/flags", queryHandler.FlagReport)
	mux.HandleFunc("POST /api/v1/{tenant}/ingest/deliveries", ingestHandler.Deliveries)
	mux.HandleFunc("POST /api/v1/{tenant}/ingest/alarms", ingestHandler.Alarms)
	mux.HandleFunc("POST /api/v1/admin/tenants", provisionHandler.Provision)
	mux.Handle("GET /metrics", promhttp.Handler())

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting datahub-engine", zap.String("addr", addr), zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
