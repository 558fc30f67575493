package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartscout/backend/config"
	"github.com/cartscout/backend/internal/domain"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type stubSearcher struct {
	result *domain.SearchResult
	err    error
	terms  []string
}

func (s *stubSearcher) SearchAll(_ context.Context, term string) (*domain.SearchResult, error) {
	s.terms = append(s.terms, term)
	return s.result, s.err
}

type stubOptimizer struct {
	carts []domain.Cart
	err   error
	got   []domain.CandidateSet
	calls int
}

func (s *stubOptimizer) Optimize(_ context.Context, candidates []domain.CandidateSet) ([]domain.Cart, error) {
	s.calls++
	s.got = candidates
	return s.carts, s.err
}

// setupTestRouter creates a test router with default configuration
func setupTestRouter(searcher domain.ProductSearcher, optimizer CartOptimizer) *gin.Engine {
	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"http://localhost:*", "https://app.cartscout.com.ar"},
		},
	}

	handler := NewHandler(searcher, optimizer, nil)
	return SetupRouter(cfg, handler, nil)
}

func doRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var response map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), "body: %s", w.Body.String())
	return response
}

func TestHealthCheckEndpoint(t *testing.T) {
	t.Run("returns healthy status", func(t *testing.T) {
		router := setupTestRouter(&stubSearcher{}, &stubOptimizer{})

		w := doRequest(router, "GET", "/health", "")
		require.Equal(t, http.StatusOK, w.Code)

		response := decodeBody(t, w)
		assert.Equal(t, "healthy", response["status"])
		assert.Equal(t, "cartscout-backend", response["service"])
		version, ok := response["version"].(string)
		assert.True(t, ok && strings.TrimSpace(version) != "", "version = %v", response["version"])
	})

	t.Run("accepts GET requests only", func(t *testing.T) {
		router := setupTestRouter(&stubSearcher{}, &stubOptimizer{})

		for _, method := range []string{"POST", "PUT", "DELETE", "PATCH"} {
			w := doRequest(router, method, "/health", "")
			if w.Code != http.StatusNotFound {
				t.Errorf("Method %s: Status = %d, want %d", method, w.Code, http.StatusNotFound)
			}
		}
	})
}

func TestSearchProductsEndpoint(t *testing.T) {
	price := 1234.56
	result := &domain.SearchResult{
		Success:    true,
		SearchTerm: "leche",
		Count:      1,
		Products: []domain.Product{{
			Name:         domain.StringPtr("Leche Entera 1L"),
			Price:        domain.StringPtr("$1.234,56"),
			PriceNumeric: &price,
			Store:        "jumbo",
			StoreName:    "Jumbo",
		}},
		Stores: map[domain.StoreKey]domain.StoreStatus{
			"jumbo": {Count: 1, Success: true},
			"coto":  {Count: 0, Success: false},
		},
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	t.Run("returns aggregated products", func(t *testing.T) {
		searcher := &stubSearcher{result: result}
		router := setupTestRouter(searcher, &stubOptimizer{})

		w := doRequest(router, "GET", "/api/v1/products/search?q=leche", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, searchCacheControl, w.Header().Get("Cache-Control"))
		assert.Equal(t, []string{"leche"}, searcher.terms)

		var got domain.SearchResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.True(t, got.Success)
		assert.Equal(t, "leche", got.SearchTerm)
		assert.Equal(t, 1, got.Count)
		require.Len(t, got.Products, 1)
		assert.Equal(t, domain.StoreKey("jumbo"), got.Products[0].Store)
		assert.False(t, got.Stores["coto"].Success)
	})

	t.Run("accepts term as an alias", func(t *testing.T) {
		searcher := &stubSearcher{result: result}
		router := setupTestRouter(searcher, &stubOptimizer{})

		w := doRequest(router, "GET", "/api/v1/products/search?term=arroz", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"arroz"}, searcher.terms)
	})

	t.Run("missing or blank term is a client error", func(t *testing.T) {
		for _, path := range []string{
			"/api/v1/products/search",
			"/api/v1/products/search?q=",
			"/api/v1/products/search?q=%20%20",
		} {
			searcher := &stubSearcher{result: result}
			router := setupTestRouter(searcher, &stubOptimizer{})

			w := doRequest(router, "GET", path, "")
			assert.Equal(t, http.StatusBadRequest, w.Code, path)
			response := decodeBody(t, w)
			assert.NotEmpty(t, response["error"])
			assert.NotEmpty(t, response["message"])
			assert.Contains(t, response["example"], "q=")
			assert.Empty(t, searcher.terms, "no store may be contacted for %s", path)
		}
	})

	t.Run("invalid input from the searcher is a client error", func(t *testing.T) {
		searcher := &stubSearcher{err: fmt.Errorf("%w: term is empty", domain.ErrInvalidInput)}
		router := setupTestRouter(searcher, &stubOptimizer{})

		w := doRequest(router, "GET", "/api/v1/products/search?q=x", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unexpected failure is a server error", func(t *testing.T) {
		searcher := &stubSearcher{err: errors.New("boom")}
		router := setupTestRouter(searcher, &stubOptimizer{})

		w := doRequest(router, "GET", "/api/v1/products/search?q=leche", "")
		require.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Empty(t, w.Header().Get("Cache-Control"))

		response := decodeBody(t, w)
		assert.Equal(t, false, response["success"])
		assert.NotEmpty(t, response["error"])
		assert.NotEmpty(t, response["message"])
		assert.Equal(t, "boom", response["details"])
	})
}

const optimizeBody = `[
	{"ingredient": "harina", "quantity": 1, "unit": "kg", "products": [
		{"name": "Harina 000", "price": "$500,00", "priceNumeric": 500, "store": "jumbo"}
	]}
]`

func TestOptimizeCartEndpoint(t *testing.T) {
	t.Run("returns ranked carts and the cheapest store", func(t *testing.T) {
		optimizer := &stubOptimizer{carts: []domain.Cart{
			{Store: "coto", StoreName: "Coto Digital", Total: 1430},
			{Store: "jumbo", StoreName: "Jumbo", Total: 1500},
		}}
		router := setupTestRouter(&stubSearcher{}, optimizer)

		w := doRequest(router, "POST", "/api/v1/carts/optimize", optimizeBody)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		require.Len(t, optimizer.got, 1)
		assert.Equal(t, "harina", optimizer.got[0].Ingredient)
		assert.Equal(t, 1.0, optimizer.got[0].Quantity)
		require.Len(t, optimizer.got[0].Products, 1)
		assert.Equal(t, domain.StoreKey("jumbo"), optimizer.got[0].Products[0].Store)

		var got struct {
			Success       bool          `json:"success"`
			Carts         []domain.Cart `json:"carts"`
			CheapestStore string        `json:"cheapestStore"`
			Timestamp     time.Time     `json:"timestamp"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.True(t, got.Success)
		require.Len(t, got.Carts, 2)
		assert.Equal(t, "coto", got.CheapestStore)
		assert.False(t, got.Timestamp.IsZero())
	})

	t.Run("no carts serializes as an empty list", func(t *testing.T) {
		router := setupTestRouter(&stubSearcher{}, &stubOptimizer{})

		w := doRequest(router, "POST", "/api/v1/carts/optimize", optimizeBody)
		require.Equal(t, http.StatusOK, w.Code)
		response := decodeBody(t, w)
		assert.Equal(t, []any{}, response["carts"])
		assert.NotContains(t, response, "cheapestStore")
	})

	t.Run("malformed bodies never reach the optimizer", func(t *testing.T) {
		for name, body := range map[string]string{
			"empty array": `[]`,
			"object":      `{"ingredient": "harina"}`,
			"not json":    `harina`,
		} {
			optimizer := &stubOptimizer{}
			router := setupTestRouter(&stubSearcher{}, optimizer)

			w := doRequest(router, "POST", "/api/v1/carts/optimize", body)
			assert.Equal(t, http.StatusBadRequest, w.Code, name)
			assert.Zero(t, optimizer.calls, name)
		}
	})

	t.Run("optimizer failures map to status codes", func(t *testing.T) {
		tests := []struct {
			name       string
			err        error
			wantStatus int
		}{
			{"invalid input", fmt.Errorf("%w: blank ingredient", domain.ErrInvalidInput), http.StatusBadRequest},
			{"unparseable selection", fmt.Errorf("%w: no JSON object", domain.ErrSelectionParse), http.StatusInternalServerError},
			{"selection unavailable", fmt.Errorf("%w: 503", domain.ErrSelectionUnavailable), http.StatusInternalServerError},
			{"unknown", errors.New("boom"), http.StatusInternalServerError},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				router := setupTestRouter(&stubSearcher{}, &stubOptimizer{err: tt.err})

				w := doRequest(router, "POST", "/api/v1/carts/optimize", optimizeBody)
				assert.Equal(t, tt.wantStatus, w.Code)
				response := decodeBody(t, w)
				assert.NotEmpty(t, response["error"])
				if tt.wantStatus == http.StatusInternalServerError {
					assert.Equal(t, false, response["success"])
					assert.Equal(t, tt.err.Error(), response["details"])
				}
			})
		}
	})

	t.Run("validates HTTP method", func(t *testing.T) {
		router := setupTestRouter(&stubSearcher{}, &stubOptimizer{})

		for _, method := range []string{"GET", "PUT", "DELETE", "PATCH"} {
			w := doRequest(router, method, "/api/v1/carts/optimize", "")
			if w.Code != http.StatusNotFound {
				t.Errorf("Method %s: Status = %d, want %d", method, w.Code, http.StatusNotFound)
			}
		}
	})
}

func TestCORSIntegration(t *testing.T) {
	t.Run("health endpoint has CORS for the dev frontend", func(t *testing.T) {
		router := setupTestRouter(&stubSearcher{}, &stubOptimizer{})

		req := httptest.NewRequest("GET", "/health", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("optimize endpoint preflight", func(t *testing.T) {
		router := setupTestRouter(&stubSearcher{}, &stubOptimizer{})

		req := httptest.NewRequest("OPTIONS", "/api/v1/carts/optimize", nil)
		req.Header.Set("Origin", "https://app.cartscout.com.ar")
		req.Header.Set("Access-Control-Request-Method", "POST")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://app.cartscout.com.ar", w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRequestIDIntegration(t *testing.T) {
	router := setupTestRouter(&stubSearcher{}, &stubOptimizer{})

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Request-ID", "trace-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "trace-42", w.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	router := setupTestRouter(&stubSearcher{}, &stubOptimizer{})

	doRequest(router, "GET", "/health", "")
	w := doRequest(router, "GET", "/metrics", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cartscout_http_requests_total")
}
