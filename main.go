package main

import (
	"context"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/leadvault/leadvault-engine/pkg/auth"
	"github.com/leadvault/leadvault-engine/pkg/clock"
	"github.com/leadvault/leadvault-engine/pkg/config"
	"github.com/leadvault/leadvault-engine/pkg/database"
	"github.com/leadvault/leadvault-engine/pkg/handlers"
	"github.com/leadvault/leadvault-engine/pkg/middleware"
	"github.com/leadvault/leadvault-engine/pkg/repositories"
	"github.com/leadvault/leadvault-engine/pkg/services"
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
		zap.String("database", cfg.Database.Host),
	)

	ctx := context.Background()

	db, err := database.Connect(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Closing the stdlib wrapper does not close the pool itself.
	migrationDB := stdlib.OpenDBFromPool(db.Pool)
	if err := database.RunMigrations(migrationDB, cfg.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	auth.InitSessionStore(cfg.Session.Secret, cfg.Session.MaxAgeSeconds, cfg.Session.SecureCookies)

	admins := repositories.NewAdminRepository(db)
	users := repositories.NewUserRepository(db)
	clients := repositories.NewClientRepository(db)
	niches := repositories.NewNicheRepository(db)
	uploaders := repositories.NewUploaderRepository(db)
	uploads := repositories.NewUploadRepository(db)
	rawData := repositories.NewRawDataRepository(db)
	enriched := repositories.NewEnrichedDataRepository(db)

	ingestService := services.NewIngestService(db, uploads, rawData, enriched,
		clock.NewSystemClock(), cfg.Ingest, logger)
	exportService := services.NewExportService(uploads, rawData, enriched, logger)
	analyticsService := services.NewAnalyticsService(uploads, rawData, enriched)
	purgeService := services.NewPurgeService(db, uploads, rawData, enriched, logger)

	authMiddleware := auth.NewMiddleware(admins, users, logger)

	mux := http.NewServeMux()

	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewAuthHandler(admins, users, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewClientsHandler(clients, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewNichesHandler(niches, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewUploadersHandler(uploaders, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewUsersHandler(users, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewUploadHandler(ingestService, logger).RegisterRoutes(mux)
	handlers.NewDataHandler(uploads, rawData, enriched, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewDownloadHandler(exportService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewAnalyticsHandler(analyticsService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewPurgeHandler(purgeService, logger).RegisterRoutes(mux, authMiddleware)

	// Serve static UI files from ui/dist
	fs := http.FileServer(http.Dir("./ui/dist"))
	mux.Handle("/", fs)

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting leadvault-engine",
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
