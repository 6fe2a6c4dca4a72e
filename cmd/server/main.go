package main

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"album/internal/auth"
	"album/internal/blob"
	"album/internal/config"
	"album/internal/domain/repositories"
	albumRepo "album/internal/domain/repositories/album"
	"album/internal/handler"
	"album/internal/metrics"
	"album/internal/middleware"
	"album/internal/repository/memory"
	"album/internal/repository/postgres"
	postgresAlbum "album/internal/repository/postgres/album"
	albumService "album/internal/service/album"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (ignore error if not exists)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Logger: stdout, mirrored to a log file when LOG_DIR is set
	var out io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, cfg.LogMaxFiles)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer logFile.Close()
		out = io.MultiWriter(os.Stdout, logFile)
	}
	logger := config.NewLogger(cfg.Environment, out)
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
		"memory_store", cfg.UseMemoryStore(),
	)

	ctx := context.Background()
	m := metrics.Init(nil)

	// Persistence
	var (
		folderRepo albumRepo.FolderRepository
		itemRepo   albumRepo.ItemRepository
		txManager  repositories.TransactionManager
	)
	if cfg.UseMemoryStore() {
		store := memory.NewStore(logger)
		folderRepo, itemRepo, txManager = store.Folders(), store.Items(), store.TransactionManager()
		logger.Warn("DATABASE_URL not set: using the in-memory store, data is lost on exit")
	} else {
		settings := postgres.DefaultPoolSettings
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL, settings)
		if err != nil {
			log.Fatalf("Failed to create connection pool: %v", err)
		}
		defer pool.Close()

		logger.Info("database connected",
			"max_conns", settings.MaxConns,
			"min_conns", settings.MinConns,
		)

		tables := postgres.NewTableNames(cfg.TablePrefix)
		if cfg.AutoMigrate {
			if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
				log.Fatalf("Failed to ensure schema: %v", err)
			}
			logger.Info("schema ready", "folders", tables.Folders, "items", tables.Items)
		}

		repoConfig := &postgres.RepositoryConfig{
			Pool:   pool,
			Tables: tables,
			Logger: logger,
		}
		folderRepo = postgresAlbum.NewFolderRepository(repoConfig)
		itemRepo = postgresAlbum.NewItemRepository(repoConfig)
		txManager = postgres.NewTransactionManager(pool, logger)
	}

	// Blob store
	blobs, err := blob.NewLocalCAS(cfg.BlobDir, cfg.PublicBaseURL, logger, m)
	if err != nil {
		log.Fatalf("Failed to create blob store: %v", err)
	}

	// Services
	cascade := albumService.NewCascadeDeleter(folderRepo, itemRepo, blobs, txManager, cfg.BlobDeleteConcurrency, m, logger)
	folderService := albumService.NewFolderService(folderRepo, txManager, cascade, logger)
	itemService := albumService.NewItemService(itemRepo, folderRepo, blobs, txManager, m, logger)

	logger.Info("services initialized")

	// Routes
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, handler.Handlers{
		Folders: handler.NewFolderHandler(folderService, logger),
		Items:   handler.NewItemHandler(itemService, cfg.MaxUploadBytes, logger),
		Blobs:   handler.NewBlobHandler(blobs, logger),
	}, m)

	var h http.Handler = mux

	// Identity: JWKS-verified bearer tokens, or one fixed owner in dev
	if cfg.AuthJWKSURL != "" {
		verifier, err := auth.NewJWTVerifier(cfg.AuthJWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer verifier.Close()
		h = middleware.Auth(verifier, logger)(h)
	} else {
		logger.Warn("AUTH_JWKS_URL not set: every request acts as the dev owner", "owner_id", cfg.DevOwnerID)
		h = middleware.DevAuth(cfg.DevOwnerID)(h)
	}

	h = middleware.Recovery(logger)(h)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  60 * time.Second, // uploads
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}
