package stores

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cartscout/backend/internal/domain"
)

// vtexProduct is the subset of the VTEX catalog search payload we read
type vtexProduct struct {
	ProductID   string     `json:"productId"`
	ProductName string     `json:"productName"`
	Brand       string     `json:"brand"`
	Description string     `json:"description"`
	Link        string     `json:"link"`
	LinkText    string     `json:"linkText"`
	Items       []vtexItem `json:"items"`
}

type vtexItem struct {
	Images []struct {
		ImageURL string `json:"imageUrl"`
	} `json:"images"`
	Sellers []struct {
		CommertialOffer struct {
			Price       float64 `json:"Price"`
			ListPrice   float64 `json:"ListPrice"`
			IsAvailable bool    `json:"IsAvailable"`
		} `json:"commertialOffer"`
	} `json:"sellers"`
}

// VTEXAdapter searches a storefront through the public VTEX catalog API
type VTEXAdapter struct {
	key        domain.StoreKey
	name       string
	baseURL    string
	searchPath string
	fetcher    *Fetcher
	logger     *zap.Logger
}

// NewVTEXAdapter creates an API-based store adapter
func NewVTEXAdapter(info StoreInfo, fetcher *Fetcher, logger *zap.Logger) *VTEXAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VTEXAdapter{
		key:        info.Key,
		name:       info.Name,
		baseURL:    strings.TrimRight(info.BaseURL, "/"),
		searchPath: info.SearchPath,
		fetcher:    fetcher,
		logger:     logger.With(zap.String("store", string(info.Key))),
	}
}

// Key returns the store key
func (a *VTEXAdapter) Key() domain.StoreKey { return a.key }

// Name returns the store display label
func (a *VTEXAdapter) Name() string { return a.name }

// Search queries the catalog API. Failures are logged and yield an empty list.
func (a *VTEXAdapter) Search(ctx context.Context, term string) ([]domain.Product, error) {
	start := time.Now()
	reqURL := a.baseURL + fmt.Sprintf(a.searchPath, encodeTerm(term))

	body, err := a.fetcher.Get(ctx, reqURL, "application/json")
	if err != nil {
		logSearch(a.logger, a.key, term, start, 0, err)
		return []domain.Product{}, nil
	}

	products, err := a.ParsePayload(body)
	logSearch(a.logger, a.key, term, start, len(products), err)
	return products, nil
}

// ParsePayload accepts a bare array or an object wrapping it under "products".
// Any other shape yields an empty list.
func (a *VTEXAdapter) ParsePayload(raw []byte) ([]domain.Product, error) {
	products := []domain.Product{}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		var wrapped struct {
			Products []json.RawMessage `json:"products"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil || wrapped.Products == nil {
			return products, fmt.Errorf("%w: expected a product array", errParse)
		}
		items = wrapped.Products
	}

	for _, item := range items {
		var vp vtexProduct
		if err := json.Unmarshal(item, &vp); err != nil {
			a.logger.Debug("Skipping malformed catalog entry", zap.Error(err))
			continue
		}
		if p, ok := a.toProduct(vp); ok {
			products = append(products, p)
		}
	}
	return products, nil
}

// toProduct maps one catalog entry; missing nested data leaves the field nil.
func (a *VTEXAdapter) toProduct(vp vtexProduct) (domain.Product, bool) {
	name := domain.StringPtr(vp.ProductName)
	if name == nil {
		return domain.Product{}, false
	}

	p := domain.Product{
		Name:        name,
		Brand:       domain.StringPtr(vp.Brand),
		Description: domain.StringPtr(vp.Description),
		Store:       a.key,
		StoreName:   a.name,
	}

	link := vp.Link
	if link == "" && vp.LinkText != "" {
		link = "/" + vp.LinkText + "/p"
	}
	if link != "" {
		p.Link = domain.StringPtr(AbsoluteURL(a.baseURL, link))
	}

	if len(vp.Items) == 0 {
		return p, true
	}
	item := vp.Items[0]
	if len(item.Images) > 0 && item.Images[0].ImageURL != "" {
		p.ImageURL = domain.StringPtr(AbsoluteURL(a.baseURL, item.Images[0].ImageURL))
	}
	if len(item.Sellers) > 0 {
		offer := item.Sellers[0].CommertialOffer
		p.Available = domain.BoolPtr(offer.IsAvailable)
		// VTEX reports 0 for offers without a price
		if offer.Price > 0 {
			p.PriceNumeric = domain.FloatPtr(offer.Price)
			p.Price = domain.StringPtr(domain.FormatPrice(offer.Price))
		}
	}
	return p, true
}
