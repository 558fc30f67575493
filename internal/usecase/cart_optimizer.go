package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cartscout/backend/internal/domain"
	"github.com/cartscout/backend/internal/logger"
	"github.com/cartscout/backend/internal/metrics"
)

// minSurcharge keeps imputed prices strictly above their base after rounding
const minSurcharge = 0.01

// CartOptimizerConfig holds configuration for the cart optimizer
type CartOptimizerConfig struct {
	// imputed price = cheapest other-store price + a surcharge in [SurchargeMin, SurchargeMax)
	SurchargeMin float64
	SurchargeMax float64

	// LenientMatch enables fuzzy enrichment after the exact name and store match fails
	LenientMatch bool

	// Stores lists the configured stores in comparison order
	Stores []StoreRef

	// Rand returns a value in [0, 1); defaults to math/rand/v2
	Rand func() float64
}

// StoreRef identifies a configured store
type StoreRef struct {
	Key  domain.StoreKey
	Name string
}

// CartOptimizer builds one priced cart per store from per-ingredient candidates
type CartOptimizer struct {
	selector     domain.SelectionClient
	matcher      *ProductMatcher
	surchargeMin float64
	surchargeMax float64
	lenient      bool
	stores       []StoreRef
	rand         func() float64
	logger       *zap.Logger
}

// NewCartOptimizer creates a cart optimizer
func NewCartOptimizer(selector domain.SelectionClient, config CartOptimizerConfig, logger *zap.Logger) *CartOptimizer {
	lo, hi := config.SurchargeMin, config.SurchargeMax
	if lo < minSurcharge {
		lo = minSurcharge
	}
	if hi < lo {
		hi = lo
	}

	rnd := config.Rand
	if rnd == nil {
		rnd = rand.Float64
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CartOptimizer{
		selector:     selector,
		matcher:      NewProductMatcher(MatchConfig{}),
		surchargeMin: lo,
		surchargeMax: hi,
		lenient:      config.LenientMatch,
		stores:       config.Stores,
		rand:         rnd,
		logger:       logger,
	}
}

// Optimize asks the selection model for one cart per store and finalizes the answer.
// An empty candidate list fails before the model is called.
func (o *CartOptimizer) Optimize(ctx context.Context, candidates []domain.CandidateSet) ([]domain.Cart, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: at least one ingredient is required", domain.ErrInvalidInput)
	}
	for i, set := range candidates {
		if strings.TrimSpace(set.Ingredient) == "" {
			return nil, fmt.Errorf("%w: ingredient %d has no name", domain.ErrInvalidInput, i)
		}
	}

	userPrompt, err := buildSelectionPrompt(candidates, o.storeKeys())
	if err != nil {
		return nil, err
	}

	raw, err := o.selector.Complete(ctx, selectionSystemPrompt, userPrompt)
	if err != nil {
		metrics.SelectionRequestsTotal.WithLabelValues("error").Inc()
		if errors.Is(err, domain.ErrSelectionUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrSelectionUnavailable, err)
	}

	skeletons, err := ParseSelection(raw)
	if err != nil {
		metrics.SelectionRequestsTotal.WithLabelValues("parse_error").Inc()
		logger.FromContext(ctx, o.logger).Error("Selection response could not be parsed",
			zap.Int("length", len(raw)),
			zap.Error(err),
		)
		return nil, err
	}
	metrics.SelectionRequestsTotal.WithLabelValues("ok").Inc()

	return o.Finalize(ctx, skeletons, candidates), nil
}

// Finalize enriches cart skeletons with full candidate records, imputes
// missing prices, recomputes totals and ranks the carts cheapest first.
// Running it again on its own output changes nothing but imputed prices.
func (o *CartOptimizer) Finalize(ctx context.Context, skeletons []domain.Cart, candidates []domain.CandidateSet) []domain.Cart {
	log := logger.FromContext(ctx, o.logger)
	byIngredient := indexCandidates(candidates)

	carts := make([]domain.Cart, 0, len(skeletons))
	byStore := make(map[domain.StoreKey]int, len(skeletons))
	covered := make(map[domain.StoreKey]map[string]bool, len(skeletons))
	for _, skel := range skeletons {
		if len(skel.Items) == 0 {
			continue
		}
		store := o.resolveStore(skel.Store)

		// skeletons naming the same store merge into one cart; the first item per ingredient wins
		idx, ok := byStore[store]
		if !ok {
			cart := domain.Cart{
				Store:     store,
				StoreName: skel.StoreName,
				Items:     make([]domain.CartItem, 0, len(skel.Items)),
			}
			if name := o.storeName(store); name != "" {
				cart.StoreName = name
			}
			idx = len(carts)
			byStore[store] = idx
			covered[store] = make(map[string]bool, len(skel.Items))
			carts = append(carts, cart)
		}
		cart := &carts[idx]

		for _, item := range skel.Items {
			key := foldText(item.Ingredient)
			if covered[store][key] {
				log.Debug("Dropping duplicate selection for ingredient",
					zap.String("store", string(store)),
					zap.String("ingredient", item.Ingredient),
				)
				continue
			}
			covered[store][key] = true

			set, found := byIngredient[key]
			if found && item.Quantity == 0 {
				item.Quantity = set.Quantity
				if item.Unit == "" {
					item.Unit = set.Unit
				}
			}
			item.Product = o.enrich(log, store, item, set, found)
			if !item.Product.HasPrice() {
				item.Product = o.impute(log, store, item, set, found)
			}
			cart.Items = append(cart.Items, item)
		}
	}

	for i := range carts {
		if carts[i].StoreName == "" {
			carts[i].StoreName = carts[i].Items[0].Product.StoreName
		}
		carts[i].Total = CartTotal(carts[i].Items)
	}

	o.rank(carts)
	return carts
}

// enrich replaces a selected stub with the full candidate record.
// A miss keeps the stub and is logged.
func (o *CartOptimizer) enrich(log *zap.Logger, store domain.StoreKey, item domain.CartItem, set domain.CandidateSet, found bool) domain.Product {
	stub := item.Product
	stub.Store = store

	if found {
		storeCandidates := set.CandidatesFor(store)
		name := strings.TrimSpace(stub.NameValue())
		for _, p := range storeCandidates {
			if strings.TrimSpace(p.NameValue()) == name {
				return p
			}
		}
		if o.lenient {
			if idx, score := o.matcher.BestMatch(name, storeCandidates); idx >= 0 {
				log.Debug("Enriched by lenient match",
					zap.String("selected", name),
					zap.String("matched", storeCandidates[idx].NameValue()),
					zap.Float64("score", score),
				)
				return storeCandidates[idx]
			}
		}
	}

	metrics.EnrichmentMissesTotal.Inc()
	log.Warn("EnrichmentMiss: selected product not found among candidates",
		zap.String("store", string(store)),
		zap.String("ingredient", item.Ingredient),
		zap.String("product", stub.NameValue()),
	)
	return stub
}

// impute prices an item from the cheapest offer for the same ingredient at
// any other store, plus a random surcharge. Without such an offer the item
// stays unpriced.
func (o *CartOptimizer) impute(log *zap.Logger, store domain.StoreKey, item domain.CartItem, set domain.CandidateSet, found bool) domain.Product {
	p := item.Product
	p.PriceNumeric = nil

	var base *float64
	if found {
		base = cheapestElsewhere(set, store)
	}
	if base == nil {
		metrics.PriceImputationsTotal.WithLabelValues("unavailable").Inc()
		log.Warn("PriceUnavailable: no other store prices this ingredient",
			zap.String("store", string(store)),
			zap.String("ingredient", item.Ingredient),
		)
		return p
	}

	imputed := ImputePrice(*base, o.surcharge())
	p.PriceNumeric = domain.FloatPtr(imputed)
	p.Price = domain.StringPtr(domain.FormatPrice(imputed))
	metrics.PriceImputationsTotal.WithLabelValues("imputed").Inc()
	log.Debug("Imputed price",
		zap.String("store", string(store)),
		zap.String("ingredient", item.Ingredient),
		zap.Float64("base", *base),
		zap.Float64("price", imputed),
	)
	return p
}

func (o *CartOptimizer) surcharge() float64 {
	return o.surchargeMin + o.rand()*(o.surchargeMax-o.surchargeMin)
}

// rank orders carts by configured store order, then stably by total
func (o *CartOptimizer) rank(carts []domain.Cart) {
	order := make(map[domain.StoreKey]int, len(o.stores))
	for i, s := range o.stores {
		order[s.Key] = i
	}
	position := func(k domain.StoreKey) int {
		if i, ok := order[k]; ok {
			return i
		}
		return len(order)
	}

	sort.SliceStable(carts, func(i, j int) bool {
		return position(carts[i].Store) < position(carts[j].Store)
	})
	sort.SliceStable(carts, func(i, j int) bool {
		return carts[i].Total < carts[j].Total
	})
}

// resolveStore maps a store the model named by key or display name back to its key
func (o *CartOptimizer) resolveStore(store domain.StoreKey) domain.StoreKey {
	folded := foldText(string(store))
	for _, s := range o.stores {
		if foldText(string(s.Key)) == folded || foldText(s.Name) == folded {
			return s.Key
		}
	}
	return store
}

func (o *CartOptimizer) storeName(store domain.StoreKey) string {
	for _, s := range o.stores {
		if s.Key == store {
			return s.Name
		}
	}
	return ""
}

func (o *CartOptimizer) storeKeys() []domain.StoreKey {
	keys := make([]domain.StoreKey, len(o.stores))
	for i, s := range o.stores {
		keys[i] = s.Key
	}
	return keys
}

// indexCandidates keys candidate sets by folded ingredient name; the first set wins
func indexCandidates(candidates []domain.CandidateSet) map[string]domain.CandidateSet {
	index := make(map[string]domain.CandidateSet, len(candidates))
	for _, set := range candidates {
		key := foldText(set.Ingredient)
		if _, dup := index[key]; !dup {
			index[key] = set
		}
	}
	return index
}

// cheapestElsewhere returns the lowest usable price for the set outside store
func cheapestElsewhere(set domain.CandidateSet, store domain.StoreKey) *float64 {
	var lowest *float64
	for _, p := range set.Products {
		if p.Store == store || !p.HasPrice() {
			continue
		}
		if lowest == nil || *p.PriceNumeric < *lowest {
			v := *p.PriceNumeric
			lowest = &v
		}
	}
	return lowest
}

// ImputePrice adds surcharge to base and rounds to cents
func ImputePrice(base, surcharge float64) float64 {
	return decimal.NewFromFloat(base).
		Add(decimal.NewFromFloat(surcharge)).
		Round(2).
		InexactFloat64()
}

// CartTotal sums the priced items, rounded to cents; unpriced items are excluded
func CartTotal(items []domain.CartItem) float64 {
	total := decimal.Zero
	for _, it := range items {
		if it.Product.HasPrice() {
			total = total.Add(decimal.NewFromFloat(*it.Product.PriceNumeric))
		}
	}
	return total.Round(2).InexactFloat64()
}
