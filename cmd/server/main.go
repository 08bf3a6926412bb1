// KBK Classifier - Thesis Title Classification Service
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/siakad-labs/kbk-classifier/internal/api"
	"github.com/siakad-labs/kbk-classifier/internal/config"
	"github.com/siakad-labs/kbk-classifier/internal/engine"
	"github.com/siakad-labs/kbk-classifier/internal/history"
	"github.com/siakad-labs/kbk-classifier/internal/middleware"
	"github.com/siakad-labs/kbk-classifier/internal/registry"
	"github.com/siakad-labs/kbk-classifier/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize the artifact store.
	artifacts, err := store.NewSQLite(cfg.DBPath, cfg.ModelsDir)
	if err != nil {
		slog.Error("Failed to initialize artifact store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := artifacts.Close(); closeErr != nil {
			slog.Error("Failed to close artifact store", "error", closeErr)
		}
	}()

	if err := artifacts.Ping(context.Background()); err != nil {
		slog.Error("Artifact store health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Artifact store connected", "db", cfg.DBPath, "models_dir", cfg.ModelsDir)

	// Initialize the registry and adopt any legacy unversioned model.
	reg := registry.New(artifacts, cfg.CacheSize)
	if err := reg.MigrateLegacy(context.Background()); err != nil {
		slog.Error("Legacy model migration failed", "error", err)
		os.Exit(1)
	}
	if latest, ok := reg.Latest(context.Background()); ok {
		slog.Info("Model registry ready", "latest_version", latest.String())
	} else {
		slog.Warn("No trained model available; predictions will fail until one is trained")
	}

	// Initialize the inference engine with the configured lexicon.
	lexicon, boostRules := engine.DefaultLexicon(), engine.DefaultBoostRules()
	if cfg.LexiconPath != "" {
		lexicon, boostRules, err = engine.LoadLexiconFile(cfg.LexiconPath)
		if err != nil {
			slog.Error("Failed to load lexicon file", "path", cfg.LexiconPath, "error", err)
			os.Exit(1)
		}
		slog.Info("Loaded lexicon file", "path", cfg.LexiconPath, "classes", len(lexicon))
	}
	eng := engine.New(lexicon, boostRules, cfg.BoostFactor)

	// Initialize the history store behind a circuit breaker. A dead
	// Redis degrades history endpoints but never the prediction path.
	redisStore := history.NewRedis(context.Background(), history.Options{
		Addr:          cfg.RedisAddr,
		DB:            cfg.RedisDB,
		TTL:           cfg.HistoryTTL,
		MaxPerSession: cfg.HistoryMaxPerSession,
		Timeout:       cfg.RedisTimeout,
	})
	hist := history.NewBreakerStore(redisStore)
	defer func() {
		if closeErr := hist.Close(); closeErr != nil {
			slog.Error("Failed to close history store", "error", closeErr)
		}
	}()

	// Initialize handlers.
	baseHandler := api.NewHandler(reg, eng, hist, cfg)
	modelHandler := api.NewModelHandler(baseHandler)
	historyHandler := api.NewHistoryHandler(baseHandler)
	healthHandler := api.NewHealthHandler(baseHandler)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	healthHandler.RegisterHealth(r)
	modelHandler.RegisterRoutes(r)
	historyHandler.RegisterRoutes(r)
	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
