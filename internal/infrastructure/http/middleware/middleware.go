// Package middleware provides HTTP middleware components
// following the Chain of Responsibility pattern
package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/cookscabinet/cabinet/internal/infrastructure/config"
	"github.com/cookscabinet/cabinet/internal/infrastructure/monitoring"
	apperrors "github.com/cookscabinet/cabinet/pkg/errors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RequestIDHeader carries the correlation id in both directions
const RequestIDHeader = "X-Request-ID"

// clients tracked by the rate limiter before the least recent is dropped
const limiterCacheSize = 4096

// Middleware provides all middleware functions
type Middleware struct {
	config   *config.Config
	logger   *zap.Logger
	limiters *lru.Cache
	tracer   trace.Tracer
}

// New creates a new middleware instance
func New(cfg *config.Config, logger *zap.Logger) *Middleware {
	// lru.New only fails for a non-positive size
	limiters, _ := lru.New(limiterCacheSize)

	return &Middleware{
		config:   cfg,
		logger:   logger.Named("http"),
		limiters: limiters,
		tracer:   otel.Tracer("cookscabinet/http"),
	}
}

// RequestID adds a unique request ID to the context
func (m *Middleware) RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set("request_id", requestID)
		c.Header(RequestIDHeader, requestID)
		c.Request = c.Request.WithContext(monitoring.WithRequestID(c.Request.Context(), requestID))

		c.Next()
	}
}

// Logger provides structured logging for requests
func (m *Middleware) Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		statusCode := c.Writer.Status()
		if raw != "" {
			path = path + "?" + raw
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("ip", c.ClientIP()),
			zap.Int("status", statusCode),
			zap.Int("size", c.Writer.Size()),
			zap.Duration("latency", time.Since(start)),
			zap.String("user_agent", c.Request.UserAgent()),
		}

		logger := monitoring.LoggerWithContext(c.Request.Context(), m.logger)
		errorMessage := c.Errors.String()

		switch {
		case statusCode >= 500:
			logger.Error("Server error", append(fields, zap.String("error", errorMessage))...)
		case statusCode >= 400:
			logger.Warn("Client error", append(fields, zap.String("error", errorMessage))...)
		default:
			logger.Info("Request completed", fields...)
		}
	}
}

// Recovery recovers from panics and returns 500 error
func (m *Middleware) Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				m.logger.Error("Panic recovered",
					zap.String("request_id", c.GetString("request_id")),
					zap.Any("error", rec),
					zap.String("stack", string(debug.Stack())),
				)

				appErr := apperrors.NewInternalError("An unexpected error occurred")
				c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody(appErr, c.GetString("request_id")))
			}
		}()

		c.Next()
	}
}

// CORS handles Cross-Origin Resource Sharing
func (m *Middleware) CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.config.Server.EnableCORS {
			c.Next()
			return
		}

		origin := c.Request.Header.Get("Origin")
		if origin != "" && m.isOriginAllowed(origin) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Headers", "Content-Type, X-Request-ID, If-None-Match")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			c.Header("Access-Control-Expose-Headers", "ETag, X-Request-ID")
			c.Header("Access-Control-Max-Age", "86400")
			c.Header("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// RateLimit applies a token bucket per client IP
func (m *Middleware) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.config.RateLimit.Enable {
			c.Next()
			return
		}

		if !m.limiterFor(c.ClientIP()).Allow() {
			c.Header("Retry-After", "60")
			appErr := apperrors.NewAppError(apperrors.CodeTooManyRequests, "Rate limit exceeded", "")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorBody(appErr, c.GetString("request_id")))
			return
		}

		c.Next()
	}
}

func (m *Middleware) limiterFor(key string) *rate.Limiter {
	if v, ok := m.limiters.Get(key); ok {
		return v.(*rate.Limiter)
	}

	burst := m.config.RateLimit.BurstSize
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(m.config.RateLimit.RequestsPerMin)/60, burst)
	m.limiters.Add(key, limiter)
	return limiter
}

// Tracing adds distributed tracing
func (m *Middleware) Tracing() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		ctx, span := m.tracer.Start(
			c.Request.Context(),
			fmt.Sprintf("%s %s", c.Request.Method, route),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Request.Method),
				attribute.String("http.route", route),
				attribute.String("http.user_agent", c.Request.UserAgent()),
				attribute.String("request.id", c.GetString("request_id")),
			),
		)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(
			attribute.Int("http.status_code", status),
			attribute.Int("http.response_size", c.Writer.Size()),
		)

		if len(c.Errors) > 0 {
			span.RecordError(c.Errors.Last())
		}
		if status >= 500 {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}

// Security adds security headers
func (m *Middleware) Security() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		if m.config.IsProduction() {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}

// BodyLimit caps the request body. Reads past the limit fail with *http.MaxBytesError.
func (m *Middleware) BodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 && c.Request.Body != nil {
			if c.Request.ContentLength > limit {
				appErr := apperrors.NewAppError(apperrors.CodeImageTooLarge, "Request body too large",
					fmt.Sprintf("limit is %d bytes", limit))
				c.AbortWithStatusJSON(appErr.StatusCode(), errorBody(appErr, c.GetString("request_id")))
				return
			}
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}

		c.Next()
	}
}

// Timeout bounds the request context
func (m *Middleware) Timeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// ErrorHandler renders the last error attached with c.Error
func (m *Middleware) ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		appErr, ok := apperrors.As(err)
		if !ok {
			appErr = classify(err)
		}

		logger := monitoring.LoggerWithContext(c.Request.Context(), m.logger)
		if appErr.StatusCode() >= 500 {
			logger.Error("Request failed",
				zap.String("code", string(appErr.Code)),
				zap.String("details", appErr.Details),
				zap.Error(err),
			)
		}

		c.JSON(appErr.StatusCode(), errorBody(appErr, c.GetString("request_id")))
	}
}

// classify maps errors that escaped the application layer
func classify(err error) *apperrors.AppError {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return apperrors.NewAppError(apperrors.CodeImageTooLarge, "Request body too large",
			fmt.Sprintf("limit is %d bytes", maxErr.Limit))
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewTimeoutError("request", err)
	default:
		return apperrors.NewAppError(apperrors.CodeInternal, "An unexpected error occurred", "").WithCause(err)
	}
}

func errorBody(appErr *apperrors.AppError, requestID string) gin.H {
	return gin.H{
		"success": false,
		"error":   apperrors.ToErrorResponse(appErr, requestID).Error,
		"message": appErr.Message,
	}
}

// isOriginAllowed checks if origin is in allowed list
func (m *Middleware) isOriginAllowed(origin string) bool {
	if m.config.IsDevelopment() {
		return true
	}

	for _, allowed := range m.config.Server.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	return false
}
