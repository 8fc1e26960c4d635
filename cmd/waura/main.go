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

	"github.com/kaurinho-svg/waura-backend/internal/catalog"
	"github.com/kaurinho-svg/waura-backend/internal/catalog/elastic"
	"github.com/kaurinho-svg/waura-backend/internal/catalog/memory"
	"github.com/kaurinho-svg/waura-backend/internal/catalog/redisearch"
	"github.com/kaurinho-svg/waura-backend/internal/config"
	"github.com/kaurinho-svg/waura-backend/internal/event"
	"github.com/kaurinho-svg/waura-backend/internal/filter"
	logpkg "github.com/kaurinho-svg/waura-backend/internal/logger"
	"github.com/kaurinho-svg/waura-backend/internal/metrics"
	"github.com/kaurinho-svg/waura-backend/internal/provider"
	"github.com/kaurinho-svg/waura-backend/internal/provider/duckduckgo"
	"github.com/kaurinho-svg/waura-backend/internal/provider/googlecse"
	chiTransport "github.com/kaurinho-svg/waura-backend/internal/transport/chi"
	catalogsearchuc "github.com/kaurinho-svg/waura-backend/internal/usecase/catalogsearch"
	imagesearchuc "github.com/kaurinho-svg/waura-backend/internal/usecase/imagesearch"
	suggestuc "github.com/kaurinho-svg/waura-backend/internal/usecase/suggest"
	"github.com/kaurinho-svg/waura-backend/internal/version"
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

	logger.Info("Starting waura search API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("catalog_driver", cfg.Catalog.Driver),
	)

	ctx := context.Background()

	engine := buildEngine(cfg, logger)
	if closer, ok := engine.(interface{ Close() }); ok {
		defer closer.Close()
	}
	if err := waitForEngine(ctx, engine, time.Duration(cfg.Catalog.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Catalog engine not ready", zap.Error(err))
	}
	if err := engine.EnsureSchema(ctx); err != nil {
		logger.Fatal("Failed to ensure catalog schema", zap.Error(err))
	}
	logger.Info("Connected to catalog engine")

	// Provider composition root: instrumentation -> retry -> breaker ->
	// rate limit -> client.
	googleClient := googlecse.New(googlecse.Config{
		APIKey:       cfg.Providers.GoogleCSE.APIKey,
		CX:           cfg.Providers.GoogleCSE.CX,
		Language:     cfg.Providers.GoogleCSE.Language,
		Country:      cfg.Providers.GoogleCSE.Country,
		LangRestrict: cfg.Providers.GoogleCSE.LangRestrict,
		SiteAllow:    cfg.Providers.GoogleCSE.SiteAllow,
		Timeout:      time.Duration(cfg.Providers.GoogleCSE.TimeoutSec) * time.Second,
		PageSize:     cfg.Providers.GoogleCSE.MaxPageSize,
		OffsetCap:    cfg.Providers.GoogleCSE.MaxOffset,
	})
	ddgClient := duckduckgo.New(duckduckgo.Config{
		Region:     cfg.Providers.DuckDuckGo.Region,
		SafeSearch: cfg.Providers.DuckDuckGo.SafeSearch,
		Timeout:    time.Duration(cfg.Providers.DuckDuckGo.TimeoutSec) * time.Second,
		PageSize:   cfg.Providers.DuckDuckGo.MaxPageSize,
		OffsetCap:  cfg.Providers.DuckDuckGo.MaxOffset,
	})

	primary := decorate(googleClient, cfg, logger)
	secondary := decorate(ddgClient, cfg, logger)

	policy := filter.Default()
	policy.BannedDomains = append(policy.BannedDomains, cfg.Search.BannedDomains...)
	policy.BannedKeywords = append(policy.BannedKeywords, cfg.Search.BannedKeywords...)
	policy.MinWidth = cfg.Search.MinImageWidth
	policy.MinHeight = cfg.Search.MinImageHeight

	// Use case services
	catalogSvc := catalogsearchuc.New(engine, cfg.Catalog.Driver, logger)
	imageSvc := imagesearchuc.New(primary, secondary, googleClient, policy, imagesearchuc.Config{
		PageAttempts: cfg.Search.PageAttempts,
	}, logger)
	suggestSvc := suggestuc.New(engine)

	server := chiTransport.NewServer(catalogSvc, imageSvc, suggestSvc, engine, chiTransport.PageLimits{
		Default: cfg.Catalog.DefaultPageSize,
		Max:     cfg.Catalog.MaxPageSize,
	}, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	r.Mount("/", server.Routes())

	// Index sync consumer; nil when no brokers are configured.
	consumerCtx, stopConsumer := context.WithCancel(ctx)
	defer stopConsumer()
	if consumer := event.NewConsumer(event.Config{
		Brokers:     cfg.Kafka.Brokers,
		GroupID:     cfg.Kafka.GroupID,
		TopicPrefix: cfg.Kafka.TopicPrefix,
	}, engine, logger); consumer != nil {
		go func() {
			if err := consumer.Run(consumerCtx); err != nil {
				logger.Error("Index sync consumer stopped", zap.Error(err))
			}
		}()
	} else {
		logger.Info("Index sync consumer disabled, no kafka brokers configured")
	}

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
	stopConsumer()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEngine creates the catalog engine selected by the driver setting.
func buildEngine(cfg config.Config, logger *zap.Logger) catalog.Engine {
	switch cfg.Catalog.Driver {
	case "redisearch":
		eng, err := redisearch.New(redisearch.Config{
			Addrs:     cfg.Catalog.Addrs,
			Password:  cfg.Catalog.Password,
			IndexName: cfg.Catalog.IndexName,
			KeyPrefix: cfg.Catalog.KeyPrefix,
		})
		if err != nil {
			logger.Fatal("Failed to create redisearch engine", zap.Error(err))
		}
		return eng
	case "elasticsearch":
		eng, err := elastic.New(cfg.Catalog.URL, cfg.Catalog.IndexName, logger)
		if err != nil {
			logger.Fatal("Failed to create elasticsearch engine", zap.Error(err))
		}
		return eng
	case "memory":
		return memory.New()
	default:
		logger.Fatal("Unknown catalog driver", zap.String("driver", cfg.Catalog.Driver))
		return nil
	}
}

// waitForEngine polls Ping until the engine responds or the timeout expires.
func waitForEngine(ctx context.Context, engine catalog.Engine, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var lastErr error
	for {
		if lastErr = engine.Ping(ctx); lastErr == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("engine not ready after %s: %w", timeout, lastErr)
		case <-time.After(500 * time.Millisecond):
		}
	}
}

// decorate wraps a provider client with the standard decorator chain.
func decorate(base provider.ImageSearcher, cfg config.Config, logger *zap.Logger) provider.ImageSearcher {
	var p provider.ImageSearcher = provider.WithRateLimit(
		base, cfg.Providers.RateLimit.RPS, cfg.Providers.RateLimit.Burst,
	)
	p = provider.WithBreaker(p, provider.BreakerConfig{
		FailureRatio: cfg.Providers.Breaker.FailureRatio,
		MinRequests:  cfg.Providers.Breaker.MinRequests,
		OpenFor:      time.Duration(cfg.Providers.Breaker.OpenSec) * time.Second,
	}, logger)
	p = provider.WithRetry(
		p, cfg.Providers.Retry.MaxAttempts,
		time.Duration(cfg.Providers.Retry.InitialDelayMs)*time.Millisecond, logger,
	)
	return provider.WithInstrumentation(p)
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
