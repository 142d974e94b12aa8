// Package main is the entry point for the certificate studio server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"certstudio/internal/cache"
	"certstudio/internal/config"
	"certstudio/internal/database"
	"certstudio/internal/generate"
	"certstudio/internal/handlers"
	"certstudio/internal/imaging"
	"certstudio/internal/middleware"
	"certstudio/internal/router"
	"certstudio/internal/session"
	"certstudio/internal/storage"
	"certstudio/internal/store"
)

func main() {
	// Optional .env for local development; real deployments set env vars.
	_ = godotenv.Load()

	// Structured logger — outputs JSON in production, text in development.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed the admin account and the field catalog (no-op once present).
	if err := database.Seed(db); err != nil {
		slog.Error("failed to seed database", "error", err)
		os.Exit(1)
	}

	// Connect to Valkey (Redis-compatible cache + session store).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// Session store backed by Valkey. In non-development environments,
	// mark session cookies as Secure (HTTPS-only).
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)

	// Data stores.
	userStore := store.NewUserStore(db)
	templateStore := store.NewTemplateStore(db)
	certStore := store.NewCertificateStore(db)
	datasetStore := store.NewDatasetStore(db)
	fieldStore := store.NewFieldStore(db)
	genStore := store.NewGenerationStore(db)

	// Connect to S3-compatible object storage (optional — the app starts
	// without it; uploads and generation respond 503 until configured).
	storageClient, err := storage.New(
		cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
		cfg.S3BucketPublic, cfg.S3BucketPrivate, cfg.S3PublicURL,
	)
	if err != nil {
		slog.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	}
	if storageClient != nil {
		slog.Info("s3 storage connected",
			"endpoint", cfg.S3Endpoint,
			"public_bucket", cfg.S3BucketPublic,
			"private_bucket", cfg.S3BucketPrivate,
		)
	} else {
		slog.Warn("s3 storage not configured — uploads and generation disabled")
	}

	// Valkey-backed caches: the field catalog and generation progress.
	fieldCache := cache.NewFieldCache(valkeyClient, cache.DefaultFieldTTL)
	progressTracker := cache.NewProgressTracker(valkeyClient, cache.DefaultProgressTTL)

	// The generation pipeline with its three format backends.
	pipeline := generate.NewPipeline()

	imgCfg := imaging.DefaultConfig()
	imgCfg.MaxSizeBytes = cfg.MaxUploadBytes

	// Handler groups with their dependencies.
	h := router.Handlers{
		Auth:         handlers.NewAuth(sessionStore, userStore),
		Templates:    handlers.NewTemplates(templateStore),
		Datasets:     handlers.NewDatasets(datasetStore, cfg.MaxUploadBytes),
		Fields:       handlers.NewFields(fieldStore, fieldCache),
		Certificates: handlers.NewCertificates(certStore, templateStore),
		Generate:     handlers.NewGenerate(pipeline, templateStore, datasetStore, genStore, storageClient, progressTracker),
		Uploads:      handlers.NewUploads(storageClient, imgCfg),
		Admin:        handlers.NewAdmin(userStore, templateStore, certStore, genStore),
	}

	// Rate limiters for the credential endpoints and generation starts.
	authLimiter := middleware.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow)
	defer authLimiter.Stop()
	genLimiter := middleware.NewRateLimiter(cfg.GenRateLimit, cfg.GenRateWindow)
	defer genLimiter.Stop()

	// Set up the Chi router with all middleware and routes.
	r := router.New(sessionStore, h, authLimiter, genLimiter)

	// Create the HTTP server with sensible timeouts. WriteTimeout must
	// accommodate dataset uploads and synchronous design saves, not
	// generation runs — those execute in the background.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
