package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cartscout/backend/internal/domain"
	"github.com/cartscout/backend/internal/logger"
)

// StoreBinding pairs an adapter with its per-store result cap
type StoreBinding struct {
	Adapter    domain.StoreAdapter
	MaxResults int // 0 = unlimited
}

// storeOutcome is what one branch of a search settled to
type storeOutcome struct {
	products []domain.Product
	success  bool
}

// SearchService fans a search term out to every configured store and merges the results
type SearchService struct {
	stores []StoreBinding
	logger *zap.Logger
	now    func() time.Time
}

// NewSearchService creates the orchestrator. The order of stores is the merge order.
func NewSearchService(stores []StoreBinding, logger *zap.Logger) *SearchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchService{
		stores: stores,
		logger: logger,
		now:    time.Now,
	}
}

// SearchAll searches every store concurrently and waits for all of them to settle.
// Only an empty term is an error; store failures show up as success:false entries.
func (s *SearchService) SearchAll(ctx context.Context, term string) (*domain.SearchResult, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("%w: search term is required", domain.ErrInvalidInput)
	}

	log := logger.FromContext(ctx, s.logger)
	outcomes := make([]storeOutcome, len(s.stores))

	// branches never return an error, so Wait is a settle-all join
	var g errgroup.Group
	for i, binding := range s.stores {
		g.Go(func() error {
			outcomes[i] = s.searchStore(ctx, log, binding, term)
			return nil
		})
	}
	_ = g.Wait()

	result := &domain.SearchResult{
		Success:    true,
		SearchTerm: term,
		Products:   []domain.Product{},
		Stores:     make(map[domain.StoreKey]domain.StoreStatus, len(s.stores)),
		Timestamp:  s.now().UTC(),
	}
	for i, binding := range s.stores {
		out := outcomes[i]
		result.Products = append(result.Products, out.products...)
		result.Stores[binding.Adapter.Key()] = domain.StoreStatus{
			Count:   len(out.products),
			Success: out.success,
		}
	}
	result.Count = len(result.Products)

	log.Info("Search completed",
		zap.String("term", term),
		zap.Int("count", result.Count),
		zap.Int("stores", len(s.stores)),
	)
	return result, nil
}

// searchStore runs one adapter, converting an error or panic into an empty failed outcome
func (s *SearchService) searchStore(ctx context.Context, log *zap.Logger, binding StoreBinding, term string) (out storeOutcome) {
	key := binding.Adapter.Key()

	defer func() {
		if r := recover(); r != nil {
			log.Error("Store adapter panicked",
				zap.String("store", string(key)),
				zap.Any("panic", r),
			)
			out = storeOutcome{products: []domain.Product{}, success: false}
		}
	}()

	products, err := binding.Adapter.Search(ctx, term)
	if err != nil {
		log.Warn("Store adapter failed",
			zap.String("store", string(key)),
			zap.Error(err),
		)
		return storeOutcome{products: []domain.Product{}, success: false}
	}

	if binding.MaxResults > 0 && len(products) > binding.MaxResults {
		products = products[:binding.MaxResults]
	}

	name := binding.Adapter.Name()
	tagged := make([]domain.Product, len(products))
	for i, p := range products {
		p.Store = key
		p.StoreName = name
		tagged[i] = p
	}
	return storeOutcome{products: tagged, success: true}
}
