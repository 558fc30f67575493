package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cartscout/backend/internal/domain"
)

// fakeAdapter is a scripted domain.StoreAdapter
type fakeAdapter struct {
	key      domain.StoreKey
	name     string
	products []domain.Product
	err      error
	panics   bool
	delay    time.Duration

	mu    sync.Mutex
	terms []string
}

func (f *fakeAdapter) Key() domain.StoreKey { return f.key }
func (f *fakeAdapter) Name() string         { return f.name }

func (f *fakeAdapter) Search(ctx context.Context, term string) ([]domain.Product, error) {
	f.mu.Lock()
	f.terms = append(f.terms, term)
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.panics {
		panic("adapter exploded")
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.products, nil
}

// fakeSearcher is a scripted domain.ProductSearcher
type fakeSearcher struct {
	result *domain.SearchResult
	err    error
	calls  int
}

func (f *fakeSearcher) SearchAll(ctx context.Context, term string) (*domain.SearchResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// fakeSelector is a scripted domain.SelectionClient
type fakeSelector struct {
	response   string
	err        error
	calls      int
	lastSystem string
	lastUser   string
}

func (f *fakeSelector) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.calls++
	f.lastSystem = systemPrompt
	f.lastUser = userPrompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

// fakeCache is an in-memory domain.CacheRepository with injectable failures
type fakeCache struct {
	data     map[string][]byte
	getError error
	setError error
	setCalls int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (m *fakeCache) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *fakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.setCalls++
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *fakeCache) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *fakeCache) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

// makeProducts builds n named products, optionally priced
func makeProducts(prefix string, n int, price float64) []domain.Product {
	out := make([]domain.Product, n)
	for i := range out {
		out[i] = domain.Product{Name: domain.StringPtr(fmt.Sprintf("%s %d", prefix, i+1))}
		if price > 0 {
			out[i].PriceNumeric = domain.FloatPtr(price)
			out[i].Price = domain.StringPtr(domain.FormatPrice(price))
		}
	}
	return out
}

// product builds a candidate at store; a zero price leaves it unpriced
func product(name string, store domain.StoreKey, price float64) domain.Product {
	p := domain.Product{Name: domain.StringPtr(name), Store: store, StoreName: string(store)}
	if price > 0 {
		p.PriceNumeric = domain.FloatPtr(price)
		p.Price = domain.StringPtr(domain.FormatPrice(price))
	}
	return p
}
