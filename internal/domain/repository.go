package domain

import (
	"context"
	"time"
)

// StoreAdapter turns a search term into normalized products for one storefront.
// Implementations absorb their own failures and return an empty list; a
// returned error or panic is still tolerated by the orchestrator.
type StoreAdapter interface {
	Key() StoreKey
	Name() string
	Search(ctx context.Context, term string) ([]Product, error)
}

// ProductSearcher runs one search across every configured store
type ProductSearcher interface {
	SearchAll(ctx context.Context, term string) (*SearchResult, error)
}

// SelectionClient sends a prompt to the external language model and returns its raw text
type SelectionClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
