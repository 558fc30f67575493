package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	logpkg "github.com/cartscout/backend/internal/logger"
)

const requestIDHeader = "X-Request-ID"

// CORSMiddleware allows the configured origins; entries ending in "*" match by prefix
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return isAllowedOrigin(origin, allowedOrigins)
		},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Requested-With", requestIDHeader},
		ExposeHeaders:    []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           time.Hour,
	})
}

// isAllowedOrigin checks if the origin is in the allowed list
func isAllowedOrigin(origin string, allowedOrigins []string) bool {
	for _, allowed := range allowedOrigins {
		if strings.HasSuffix(allowed, "*") {
			if strings.HasPrefix(origin, strings.TrimSuffix(allowed, "*")) {
				return true
			}
		} else if origin == allowed {
			return true
		}
	}
	return false
}

// RequestIDMiddleware echoes the caller's X-Request-ID or generates one, and
// stores a request-scoped logger in the request context.
func RequestIDMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header(requestIDHeader, requestID)

		reqLogger := logger.With(zap.String("request_id", requestID))
		c.Request = c.Request.WithContext(logpkg.ContextWithLogger(c.Request.Context(), reqLogger))

		c.Next()
	}
}

// LoggerMiddleware emits one canonical log line per request
func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		reqLogger := logpkg.FromContext(c.Request.Context(), logger)
		reqLogger.Info("http_request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
			zap.Int("response_bytes", c.Writer.Size()),
		)
	}
}

// RecoveryMiddleware turns a panic into the standard 500 error body
func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logpkg.FromContext(c.Request.Context(), logger).Error("panic recovered",
			zap.Any("panic", recovered),
			zap.Stack("stacktrace"),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{
			Success: false,
			Error:   "Internal server error",
			Message: "An unexpected error occurred",
		})
	})
}
