package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/huythanhnguyen/ddv/internal/config"
	dbRedis "github.com/huythanhnguyen/ddv/internal/db/redis"
	logpkg "github.com/huythanhnguyen/ddv/internal/logger"
	"github.com/huythanhnguyen/ddv/internal/metrics"
	indexrepo "github.com/huythanhnguyen/ddv/internal/repository/index"
	"github.com/huythanhnguyen/ddv/internal/repository/rescache"
	"github.com/huythanhnguyen/ddv/internal/store"
	chiTransport "github.com/huythanhnguyen/ddv/internal/transport/chi"
	openaiExt "github.com/huythanhnguyen/ddv/internal/transport/openai"
	interpretuc "github.com/huythanhnguyen/ddv/internal/usecase/interpret"
	reindexuc "github.com/huythanhnguyen/ddv/internal/usecase/reindex"
	searchuc "github.com/huythanhnguyen/ddv/internal/usecase/search"
	"github.com/huythanhnguyen/ddv/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting ddv search API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	dbStore, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer dbStore.Close()

	ctx := context.Background()
	if err := dbStore.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	// Repositories
	adapterTimeout := time.Duration(cfg.Search.AdapterTimeoutSec) * time.Second
	indexAdapter := indexrepo.New(dbStore, adapterTimeout, logger)
	if err := indexAdapter.Restore(ctx); err != nil {
		logger.Warn("Failed to restore index generation, search degrades to fallback until reindex",
			zap.Error(err))
	}
	resultCache := rescache.New(dbStore, time.Duration(cfg.Search.CacheTTLSec)*time.Second, logger)
	catalog := store.NewCatalog()

	// Optional AI-assisted extraction pass. Heuristics carry the
	// interpreter on their own when disabled.
	var extractor interpretuc.Extractor
	if cfg.Extractor.Enabled {
		extractor = openaiExt.NewExtractor(&openaiExt.Config{
			APIKey:  cfg.Extractor.APIKey,
			BaseURL: cfg.Extractor.BaseURL,
			Model:   cfg.Extractor.Model,
			Logger:  logger,
		})
		logger.Info("AI extraction enabled", zap.String("model", cfg.Extractor.Model))
	}

	// Use case services
	interpreter := interpretuc.NewService(extractor, time.Duration(cfg.Extractor.TimeoutSec)*time.Second)
	searchSvc := searchuc.NewService(interpreter, indexAdapter, resultCache, catalog)
	reindexSvc := reindexuc.NewService(indexAdapter, catalog)

	// Boot feed: load the catalog so the fallback path has data even before
	// the first operator-triggered reindex.
	if cfg.Catalog.FeedPath != "" {
		if report, err := reindexSvc.ReindexFromFile(ctx, cfg.Catalog.FeedPath); err != nil {
			logger.Warn("Boot feed load failed, starting with an empty catalog",
				zap.String("feed", cfg.Catalog.FeedPath), zap.Error(err))
		} else {
			logger.Info("Boot feed loaded",
				zap.String("job_id", report.JobID),
				zap.Int("indexed", report.Indexed),
				zap.Int("quarantined", report.Quarantined))
		}
	}

	server := chiTransport.NewServer(searchSvc, reindexSvc, catalog, dbStore, cfg.Catalog.FeedPath, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
