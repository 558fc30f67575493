package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartscout/backend/internal/domain"
)

func sampleResult(success bool) *domain.SearchResult {
	return &domain.SearchResult{
		Success:    true,
		SearchTerm: "azúcar",
		Count:      1,
		Products:   []domain.Product{product("Azúcar Ledesma 1 kg", domain.StoreJumbo, 1200)},
		Stores: map[domain.StoreKey]domain.StoreStatus{
			domain.StoreJumbo: {Count: 1, Success: success},
		},
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestCachedSearcher_MissThenHit(t *testing.T) {
	next := &fakeSearcher{result: sampleResult(true)}
	cache := newFakeCache()
	searcher := NewCachedSearcher(next, cache, time.Minute, nil)

	first, err := searcher.SearchAll(context.Background(), "Azúcar")
	require.NoError(t, err)
	assert.Equal(t, 1, next.calls)
	assert.Contains(t, cache.data, "search:azucar")

	second, err := searcher.SearchAll(context.Background(), "  AZUCAR ")
	require.NoError(t, err)
	assert.Equal(t, 1, next.calls, "folded term is served from cache")
	assert.Equal(t, first.Count, second.Count)
	assert.Equal(t, first.Products[0].NameValue(), second.Products[0].NameValue())
	assert.True(t, first.Timestamp.Equal(second.Timestamp))
}

func TestCachedSearcher_DoesNotCacheTotalOutage(t *testing.T) {
	next := &fakeSearcher{result: sampleResult(false)}
	cache := newFakeCache()
	searcher := NewCachedSearcher(next, cache, time.Minute, nil)

	_, err := searcher.SearchAll(context.Background(), "azucar")
	require.NoError(t, err)
	_, err = searcher.SearchAll(context.Background(), "azucar")
	require.NoError(t, err)

	assert.Equal(t, 2, next.calls)
	assert.Equal(t, 0, cache.setCalls)
}

func TestCachedSearcher_CacheFailuresAreIgnored(t *testing.T) {
	next := &fakeSearcher{result: sampleResult(true)}
	cache := newFakeCache()
	cache.getError = errors.New("redis: connection refused")
	cache.setError = errors.New("redis: connection refused")

	result, err := NewCachedSearcher(next, cache, 0, nil).SearchAll(context.Background(), "azucar")

	require.NoError(t, err)
	assert.Equal(t, 1, result.Count)
	assert.Equal(t, 1, next.calls)
}

func TestCachedSearcher_CorruptEntryFallsThrough(t *testing.T) {
	next := &fakeSearcher{result: sampleResult(true)}
	cache := newFakeCache()
	cache.data["search:azucar"] = []byte("{not json")

	result, err := NewCachedSearcher(next, cache, time.Minute, nil).SearchAll(context.Background(), "azucar")

	require.NoError(t, err)
	assert.Equal(t, 1, result.Count)
	assert.Equal(t, 1, next.calls)
}

func TestCachedSearcher_PropagatesErrors(t *testing.T) {
	next := &fakeSearcher{err: domain.ErrInvalidInput}
	searcher := NewCachedSearcher(next, newFakeCache(), time.Minute, nil)

	_, err := searcher.SearchAll(context.Background(), "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 1, next.calls, "blank terms go straight to the wrapped searcher")
}

func TestSearchCacheKey(t *testing.T) {
	assert.Equal(t, "search:dulce de leche", searchCacheKey("  Dulce  de LECHE "))
	assert.Equal(t, "search:cafe", searchCacheKey("Café"))
	assert.Equal(t, "", searchCacheKey("   "))
}
