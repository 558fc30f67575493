package stores

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/cartscout/backend/internal/domain"
)

// MarkupAdapter searches a storefront by scraping its HTML results page
type MarkupAdapter struct {
	key        domain.StoreKey
	name       string
	baseURL    string
	searchPath string
	strategies Strategies
	fetcher    *Fetcher
	logger     *zap.Logger
}

// NewMarkupAdapter creates an adapter for an HTML storefront.
// searchPath is a format string with one %s for the encoded term.
func NewMarkupAdapter(info StoreInfo, strategies Strategies, fetcher *Fetcher, logger *zap.Logger) *MarkupAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarkupAdapter{
		key:        info.Key,
		name:       info.Name,
		baseURL:    strings.TrimRight(info.BaseURL, "/"),
		searchPath: info.SearchPath,
		strategies: strategies,
		fetcher:    fetcher,
		logger:     logger.With(zap.String("store", string(info.Key))),
	}
}

// Key returns the store key
func (a *MarkupAdapter) Key() domain.StoreKey { return a.key }

// Name returns the store display label
func (a *MarkupAdapter) Name() string { return a.name }

// Search fetches and extracts products for term. It never returns an error:
// fetch and parse failures are logged and yield an empty list.
func (a *MarkupAdapter) Search(ctx context.Context, term string) ([]domain.Product, error) {
	start := time.Now()
	reqURL := a.baseURL + fmt.Sprintf(a.searchPath, encodeTerm(term))

	body, err := a.fetcher.Get(ctx, reqURL, "text/html")
	if err != nil {
		logSearch(a.logger, a.key, term, start, 0, err)
		return []domain.Product{}, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		logSearch(a.logger, a.key, term, start, 0, fmt.Errorf("%w: %w", errParse, err))
		return []domain.Product{}, nil
	}

	products, err := a.extractSafely(doc)
	logSearch(a.logger, a.key, term, start, len(products), err)
	return products, nil
}

// extractSafely converts a panic inside a strategy into a parse failure
func (a *MarkupAdapter) extractSafely(doc *goquery.Document) (products []domain.Product, err error) {
	defer func() {
		if r := recover(); r != nil {
			products = []domain.Product{}
			err = fmt.Errorf("%w: extraction panicked: %v", errParse, r)
		}
	}()
	return a.Extract(doc), nil
}

// Extract runs the strategy lists over a parsed results page
func (a *MarkupAdapter) Extract(doc *goquery.Document) []domain.Product {
	products := []domain.Product{}

	containers := FindContainers(doc, a.strategies.Containers)
	if containers == nil {
		return products
	}

	containers.Each(func(_ int, s *goquery.Selection) {
		if p, ok := a.extractProduct(s); ok {
			products = append(products, p)
		}
	})
	return products
}

// extractProduct extracts each field independently; a missing field never aborts the others.
// Containers without a name are skipped.
func (a *MarkupAdapter) extractProduct(s *goquery.Selection) (domain.Product, bool) {
	name := FirstField(s, a.strategies.Name, nil)
	if name == "" {
		return domain.Product{}, false
	}

	p := domain.Product{
		Name:        domain.StringPtr(name),
		Brand:       domain.StringPtr(FirstField(s, a.strategies.Brand, nil)),
		Description: domain.StringPtr(FirstField(s, a.strategies.Description, nil)),
		Store:       a.key,
		StoreName:   a.name,
	}

	if price := FirstField(s, a.strategies.Price, IsPriceText); price != "" {
		p.Price = domain.StringPtr(price)
		if v, ok := ParsePrice(price); ok {
			p.PriceNumeric = domain.FloatPtr(v)
		}
	}

	if img := FirstField(s, a.strategies.Image, nil); img != "" {
		p.ImageURL = domain.StringPtr(AbsoluteURL(a.baseURL, img))
	}
	if link := FirstField(s, a.strategies.Link, nil); link != "" {
		p.Link = domain.StringPtr(AbsoluteURL(a.baseURL, link))
	}
	if available, ok := FirstFlag(s, a.strategies.Availability); ok {
		p.Available = domain.BoolPtr(available)
	}

	return p, true
}
