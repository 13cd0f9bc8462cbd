package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/arturoeanton/go-git-history-service/internal/adapter/auth"
	"github.com/arturoeanton/go-git-history-service/internal/adapter/blob"
	"github.com/arturoeanton/go-git-history-service/internal/adapter/store"
	"github.com/arturoeanton/go-git-history-service/internal/adapter/vcs"
	"github.com/arturoeanton/go-git-history-service/internal/handler"
	"github.com/arturoeanton/go-git-history-service/internal/service"
	"github.com/arturoeanton/go-git-history-service/pkg/config"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"

	_ "github.com/lib/pq"
)

func main() {
	// ── Load .env file ───────────────────────────────────────────────────
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	// ── Configuration ────────────────────────────────────────────────────
	cfg := config.Load()

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	slog.Info("🚀 Starting Git History Service",
		"port", cfg.Port,
		"workdir", cfg.WorkdirRoot,
		"bucket", cfg.BlobBucket,
	)

	// ── Database ─────────────────────────────────────────────────────────
	pgStore, err := store.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pgStore.Close()

	if err := pgStore.InitSchema(context.Background()); err != nil {
		slog.Error("failed to initialize schema", "error", err)
		os.Exit(1)
	}

	// ── Blob store ───────────────────────────────────────────────────────
	blobStore, err := blob.NewMinioStore(cfg.BlobEndpoint, cfg.BlobAccessKey, cfg.BlobSecretKey, cfg.BlobBucket, cfg.BlobUseSSL)
	if err != nil {
		slog.Error("failed to connect to blob store", "error", err)
		os.Exit(1)
	}
	if err := blobStore.EnsureBucket(context.Background()); err != nil {
		slog.Error("failed to ensure bucket", "error", err)
		os.Exit(1)
	}

	// ── Adapters ─────────────────────────────────────────────────────────
	gitEngine := vcs.NewGitEngine(cfg.WorkdirRoot)
	creds := auth.NewTokenProvider(cfg.GitToken)

	// ── Services ─────────────────────────────────────────────────────────
	jobTracker := handler.NewJobTracker()

	ingestService := service.NewIngestService(
		pgStore, gitEngine, gitEngine, blobStore, creds, jobTracker,
		service.IngestConfig{
			TicketBaseURL:       cfg.TicketBaseURL,
			ArchiveExcludeGlobs: cfg.ArchiveExcludeGlobs,
			ArchiveMaxFileBytes: cfg.ArchiveMaxFileBytes,
		},
	)

	// ── Fiber App ────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:     cfg.AppName,
		ReadTimeout: 30 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New())

	// Health check
	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Webhook lives at the application root
	webhookHandler := handler.NewWebhookHandler()
	webhookHandler.Register(app)

	// ── API Routes ───────────────────────────────────────────────────────
	api := app.Group("/api/v1")

	analyzeHandler := handler.NewAnalyzeHandler(ingestService)
	analyzeHandler.Register(api)

	jobsHandler := handler.NewJobsHandler(pgStore, jobTracker)
	jobsHandler.Register(api)

	reposHandler := handler.NewReposHandler(pgStore)
	reposHandler.Register(api)

	commitsHandler := handler.NewCommitsHandler(pgStore, blobStore)
	commitsHandler.Register(api)

	// ── Start ────────────────────────────────────────────────────────────
	slog.Info("🌐 Fiber listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
