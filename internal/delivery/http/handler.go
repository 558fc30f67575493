package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cartscout/backend/internal/domain"
	logpkg "github.com/cartscout/backend/internal/logger"
)

const (
	serviceName    = "cartscout-backend"
	serviceVersion = "1.0.0"

	searchCacheControl = "public, max-age=300, stale-while-revalidate=600"
	searchExample      = "/api/v1/products/search?q=leche"
)

// CartOptimizer turns per-ingredient candidates into ranked per-store carts
type CartOptimizer interface {
	Optimize(ctx context.Context, candidates []domain.CandidateSet) ([]domain.Cart, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	searcher  domain.ProductSearcher
	optimizer CartOptimizer
	logger    *zap.Logger
	now       func() time.Time
}

// NewHandler creates a new HTTP handler
func NewHandler(searcher domain.ProductSearcher, optimizer CartOptimizer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		searcher:  searcher,
		optimizer: optimizer,
		logger:    logger,
		now:       time.Now,
	}
}

// clientError is the body of a 400 response
type clientError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Example string `json:"example,omitempty"`
}

// errorResponse is the body of a 500 response
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// optimizeResponse is the body of a successful optimize call
type optimizeResponse struct {
	Success       bool            `json:"success"`
	Carts         []domain.Cart   `json:"carts"`
	CheapestStore domain.StoreKey `json:"cheapestStore,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
	})
}

// SearchProducts handles GET /api/v1/products/search?q=<term>
func (h *Handler) SearchProducts(c *gin.Context) {
	term := c.Query("q")
	if strings.TrimSpace(term) == "" {
		term = c.Query("term")
	}
	if strings.TrimSpace(term) == "" {
		c.JSON(http.StatusBadRequest, clientError{
			Error:   "Missing search term",
			Message: "Query parameter 'q' is required and must not be empty",
			Example: searchExample,
		})
		return
	}

	result, err := h.searcher.SearchAll(c.Request.Context(), term)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, clientError{
				Error:   "Invalid search term",
				Message: err.Error(),
				Example: searchExample,
			})
			return
		}
		logpkg.FromContext(c.Request.Context(), h.logger).Error("Product search failed",
			zap.String("term", term),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, errorResponse{
			Success: false,
			Error:   "Search failed",
			Message: "An unexpected error occurred while searching products",
			Details: err.Error(),
		})
		return
	}

	c.Header("Cache-Control", searchCacheControl)
	c.JSON(http.StatusOK, result)
}

// OptimizeCart handles POST /api/v1/carts/optimize with a JSON array of
// {ingredient, quantity, unit, products}.
func (h *Handler) OptimizeCart(c *gin.Context) {
	var candidates []domain.CandidateSet
	if err := c.ShouldBindJSON(&candidates); err != nil {
		c.JSON(http.StatusBadRequest, clientError{
			Error:   "Invalid request body",
			Message: "Body must be a JSON array of {ingredient, quantity, unit, products}",
		})
		return
	}
	if len(candidates) == 0 {
		c.JSON(http.StatusBadRequest, clientError{
			Error:   "Empty ingredient list",
			Message: "At least one ingredient with its candidate products is required",
		})
		return
	}

	carts, err := h.optimizer.Optimize(c.Request.Context(), candidates)
	if err != nil {
		h.optimizeError(c, err)
		return
	}
	if carts == nil {
		carts = []domain.Cart{}
	}

	resp := optimizeResponse{
		Success:   true,
		Carts:     carts,
		Timestamp: h.now().UTC(),
	}
	if len(carts) > 0 {
		resp.CheapestStore = carts[0].Store
	}
	c.JSON(http.StatusOK, resp)
}

// optimizeError maps optimizer failures to responses
func (h *Handler) optimizeError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrInvalidInput) {
		c.JSON(http.StatusBadRequest, clientError{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	title := "Cart optimization failed"
	switch {
	case errors.Is(err, domain.ErrSelectionParse):
		title = "Selection response could not be parsed"
	case errors.Is(err, domain.ErrSelectionUnavailable):
		title = "Selection service unavailable"
	}

	logpkg.FromContext(c.Request.Context(), h.logger).Error("Cart optimization failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, errorResponse{
		Success: false,
		Error:   title,
		Message: "Carts could not be built for this request",
		Details: err.Error(),
	})
}
