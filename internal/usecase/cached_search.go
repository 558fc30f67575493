package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/cartscout/backend/internal/domain"
	"github.com/cartscout/backend/internal/logger"
	"github.com/cartscout/backend/internal/metrics"
)

// CachedSearcher serves repeated searches from a cache.
// A cache failure never fails a search; it only costs a fresh fan-out.
type CachedSearcher struct {
	next   domain.ProductSearcher
	cache  domain.CacheRepository
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedSearcher wraps next with a response cache
func NewCachedSearcher(next domain.ProductSearcher, cache domain.CacheRepository, ttl time.Duration, logger *zap.Logger) *CachedSearcher {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedSearcher{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// SearchAll returns a cached result for the folded term or delegates and caches
func (c *CachedSearcher) SearchAll(ctx context.Context, term string) (*domain.SearchResult, error) {
	key := searchCacheKey(term)
	if key == "" {
		return c.next.SearchAll(ctx, term)
	}
	log := logger.FromContext(ctx, c.logger)

	if cached, err := c.get(ctx, key); err == nil {
		metrics.SearchCacheTotal.WithLabelValues("hit").Inc()
		return cached, nil
	} else if !errors.Is(err, domain.ErrCacheMiss) {
		log.Warn("Search cache read failed", zap.String("key", key), zap.Error(err))
	}
	metrics.SearchCacheTotal.WithLabelValues("miss").Inc()

	result, err := c.next.SearchAll(ctx, term)
	if err != nil {
		return nil, err
	}

	// an outage across every store is not worth remembering
	if !anyStoreSucceeded(result) {
		return result, nil
	}
	if err := c.set(ctx, key, result); err != nil {
		log.Warn("Search cache write failed", zap.String("key", key), zap.Error(err))
	}
	return result, nil
}

func (c *CachedSearcher) get(ctx context.Context, key string) (*domain.SearchResult, error) {
	data, err := c.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var result domain.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *CachedSearcher) set(ctx context.Context, key string, result *domain.SearchResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.cache.Set(ctx, key, data, c.ttl)
}

// searchCacheKey creates a normalized cache key from a search term.
// Format: "search:{folded_term}"
func searchCacheKey(term string) string {
	folded := foldText(term)
	if folded == "" {
		return ""
	}
	return "search:" + folded
}

func anyStoreSucceeded(result *domain.SearchResult) bool {
	for _, st := range result.Stores {
		if st.Success {
			return true
		}
	}
	return false
}
