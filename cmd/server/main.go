// Chat engine server.
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

	"github.com/ashureev/chatengine/internal/api"
	"github.com/ashureev/chatengine/internal/backend"
	"github.com/ashureev/chatengine/internal/cache"
	"github.com/ashureev/chatengine/internal/config"
	"github.com/ashureev/chatengine/internal/engine"
	"github.com/ashureev/chatengine/internal/metrics"
	"github.com/ashureev/chatengine/internal/middleware"
	"github.com/ashureev/chatengine/internal/store"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
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

	slog.Info("Starting server", "port", cfg.Port, "backend", cfg.Backend.Kind, "cache", cfg.Cache.Backend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(ctx); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	if cfg.SeedDemo {
		if err := store.Seed(ctx, repo, time.Now()); err != nil {
			slog.Error("Failed to seed demo tenant", "error", err)
			os.Exit(1)
		}
		slog.Info("Demo tenant seeded", "company_id", store.DemoCompanyID)
	}

	m := metrics.New()

	var cacheStore cache.Store
	switch cfg.Cache.Backend {
	case config.CacheRedis:
		rs := cache.DialRedis(cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
		defer func() {
			if closeErr := rs.Close(); closeErr != nil {
				slog.Error("Failed to close redis client", "error", closeErr)
			}
		}()
		if err := rs.Ping(ctx); err != nil {
			slog.Warn("Redis not reachable at startup", "addr", cfg.Cache.RedisAddr, "error", err)
		}
		cacheStore = rs
	default:
		ms := cache.NewMemoryStore(nil)
		cache.StartJanitor(ctx, ms, cfg.Cache.JanitorInterval)
		cacheStore = ms
	}
	lookup := cache.New(cacheStore, repo, cache.Options{
		TTL:     cfg.Cache.TTL,
		Metrics: m,
		Logger:  logger,
	})

	gen, err := backend.New(backend.Config{
		Kind:     cfg.Backend.Kind,
		URL:      cfg.Backend.URL,
		Model:    cfg.Backend.Model,
		APIKey:   cfg.Backend.APIKey,
		GRPCAddr: cfg.Backend.GRPCAddr,
		Timeout:  cfg.Backend.Timeout,
	}, logger)
	if err != nil {
		slog.Error("Failed to initialize generative backend", "error", err)
		os.Exit(1)
	}
	if closer, ok := gen.(interface{ Close() }); ok {
		defer closer.Close()
	}
	slog.Info("Generative backend ready", "backend", gen.Name())

	eng := engine.New(repo, lookup, gen, engine.Options{
		BackendTimeout: cfg.Backend.Timeout,
		StoreTimeout:   cfg.StoreTimeout,
		HistoryLimit:   cfg.HistoryLimit,
		MaxInteraction: cfg.MaxInteraction,
		Metrics:        m,
		Logger:         logger,
	})

	// Initialize handlers.
	chatHandler := api.NewChatHandler(eng, cfg.CORSOrigins, logger)
	adminHandler := api.NewAdminHandler(lookup, map[string]api.Pinger{
		"store": repo,
		"cache": lookup,
	}, logger)

	// Setup router.
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.Metrics(m))
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(chiMiddleware.RequestSize(cfg.MaxRequestBody))

	adminHandler.RegisterRoutes(r)
	chatHandler.RegisterRoutes(r)
	r.Handle("/metrics", m.Handler())

	// No WriteTimeout: WebSocket chats are long lived.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

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
