package stores

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cartscout/backend/internal/domain"
	"github.com/cartscout/backend/internal/metrics"
)

// Store kinds.
const (
	KindVTEX   = "vtex"
	KindMarkup = "markup"
)

// StoreInfo identifies a storefront and where its search lives
type StoreInfo struct {
	Key        domain.StoreKey
	Name       string
	Kind       string
	BaseURL    string
	SearchPath string
}

// knownStrategies holds the store-specific extraction plans
var knownStrategies = map[domain.StoreKey]func() Strategies{
	domain.StoreCoto:      CotoStrategies,
	domain.StoreLaAnonima: LaAnonimaStrategies,
}

// NewAdapter builds the adapter for a configured store. Known markup stores
// get their own strategies ahead of the generic ones; unknown markup stores
// run on the generic heuristics alone.
func NewAdapter(info StoreInfo, fetcherCfg FetcherConfig, logger *zap.Logger) (domain.StoreAdapter, error) {
	if info.Key == "" || info.BaseURL == "" {
		return nil, fmt.Errorf("store key and base URL are required")
	}
	if info.Name == "" {
		info.Name = string(info.Key)
	}
	fetcher := NewFetcher(fetcherCfg)

	switch info.Kind {
	case KindVTEX:
		if info.SearchPath == "" {
			info.SearchPath = "/api/catalog_system/pub/products/search/?ft=%s"
		}
		return NewVTEXAdapter(info, fetcher, logger), nil
	case KindMarkup:
		if info.SearchPath == "" {
			return nil, fmt.Errorf("store %s: search path is required for markup stores", info.Key)
		}
		strategies := Strategies{}
		if build, ok := knownStrategies[info.Key]; ok {
			strategies = build()
		}
		return NewMarkupAdapter(info, strategies.WithGenericFallbacks(), fetcher, logger), nil
	default:
		return nil, fmt.Errorf("store %s: unknown kind %q", info.Key, info.Kind)
	}
}

// logSearch records the outcome of one adapter call
func logSearch(logger *zap.Logger, store domain.StoreKey, term string, start time.Time, count int, err error) {
	outcome := outcomeOf(err)
	latency := time.Since(start)

	metrics.StoreSearchTotal.WithLabelValues(string(store), outcome).Inc()
	metrics.StoreSearchDuration.WithLabelValues(string(store)).Observe(latency.Seconds())

	fields := []zap.Field{
		zap.String("term", term),
		zap.String("outcome", outcome),
		zap.Int("count", count),
		zap.Duration("latency", latency),
	}
	if err != nil {
		logger.Warn("Store search failed", append(fields, zap.Error(err))...)
		return
	}
	logger.Info("Store search completed", fields...)
}
