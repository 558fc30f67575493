package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cartscout/backend/config"
	httpDelivery "github.com/cartscout/backend/internal/delivery/http"
	"github.com/cartscout/backend/internal/domain"
	"github.com/cartscout/backend/internal/infrastructure/cache"
	"github.com/cartscout/backend/internal/infrastructure/llm"
	"github.com/cartscout/backend/internal/infrastructure/stores"
	logpkg "github.com/cartscout/backend/internal/logger"
	"github.com/cartscout/backend/internal/usecase"
)

const cacheKeyPrefix = "cartscout:"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logpkg.NewLogger(cfg.Server.Environment, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting CartScout Backend",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("cache", cfg.Cache.Type),
	)

	// Store adapters, in merge order
	bindings, refs, err := buildStores(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to configure stores", zap.Error(err))
	}

	var searcher domain.ProductSearcher = usecase.NewSearchService(bindings, logger)

	closeCache, err := wrapWithCache(cfg, &searcher, logger)
	if err != nil {
		logger.Fatal("Failed to initialize cache", zap.Error(err))
	}
	defer closeCache()

	selector := llm.NewClient(&llm.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
		Logger:      logger,
	})
	logger.Info("Selection model configured",
		zap.String("base_url", cfg.LLM.BaseURL),
		zap.String("model", cfg.LLM.Model),
	)

	optimizer := usecase.NewCartOptimizer(selector, usecase.CartOptimizerConfig{
		SurchargeMin: cfg.Optimizer.SurchargeMin,
		SurchargeMax: cfg.Optimizer.SurchargeMax,
		LenientMatch: cfg.Optimizer.LenientMatch,
		Stores:       refs,
	}, logger)

	handler := httpDelivery.NewHandler(searcher, optimizer, logger)
	router := httpDelivery.SetupRouter(cfg, handler, logger)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildStores creates one adapter per enabled store
func buildStores(cfg *config.Config, logger *zap.Logger) ([]usecase.StoreBinding, []usecase.StoreRef, error) {
	fetcherCfg := stores.FetcherConfig{
		Timeout:       cfg.Scraper.Timeout,
		UserAgent:     cfg.Scraper.UserAgent,
		RatePerSecond: cfg.Scraper.RatePerSecond,
		Burst:         cfg.Scraper.Burst,
		MaxBodyBytes:  cfg.Scraper.MaxBodyBytes,
	}

	var (
		bindings []usecase.StoreBinding
		refs     []usecase.StoreRef
	)
	for _, s := range cfg.EnabledStores() {
		adapter, err := stores.NewAdapter(stores.StoreInfo{
			Key:        domain.StoreKey(s.Key),
			Name:       s.Name,
			Kind:       s.Kind,
			BaseURL:    s.BaseURL,
			SearchPath: s.SearchPath,
		}, fetcherCfg, logger)
		if err != nil {
			return nil, nil, err
		}

		bindings = append(bindings, usecase.StoreBinding{Adapter: adapter, MaxResults: s.MaxResults})
		refs = append(refs, usecase.StoreRef{Key: adapter.Key(), Name: adapter.Name()})
		logger.Info("Store enabled",
			zap.String("store", s.Key),
			zap.String("kind", s.Kind),
			zap.Int("max_results", s.MaxResults),
		)
	}
	return bindings, refs, nil
}

// wrapWithCache puts a response cache in front of searcher unless caching is disabled.
// The returned func releases the cache.
func wrapWithCache(cfg *config.Config, searcher *domain.ProductSearcher, logger *zap.Logger) (func(), error) {
	switch cfg.Cache.Type {
	case "memory":
		memoryCache := cache.NewMemoryCache(time.Minute)
		*searcher = usecase.NewCachedSearcher(*searcher, memoryCache, cfg.Cache.TTL, logger)
		return func() { _ = memoryCache.Close() }, nil

	case "redis":
		redisCache, err := cache.NewRedisCache(cfg.Cache.RedisURL, cacheKeyPrefix)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := redisCache.Ping(ctx); err != nil {
			_ = redisCache.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		*searcher = usecase.NewCachedSearcher(*searcher, redisCache, cfg.Cache.TTL, logger)
		return func() { _ = redisCache.Close() }, nil

	default:
		return func() {}, nil
	}
}
