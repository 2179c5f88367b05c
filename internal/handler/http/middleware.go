package http

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"linkpro-analytics/internal/metrics"
	"linkpro-analytics/internal/ratelimit"
	"linkpro-analytics/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

// Middleware is a function that wraps an http.Handler
// This is the MIDDLEWARE PATTERN in Go
// Middleware can:
// 1. Execute code before the handler
// 2. Execute code after the handler
// 3. Modify the request or response
// 4. Short-circuit the request (e.g., rate limit exceeded)

// LoggingMiddleware logs HTTP requests with structured logging
func LoggingMiddleware(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Create a response writer wrapper to capture status code
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.statusCode,
				"duration_ms", time.Since(start).Milliseconds(),
				"client_ip", clientIP(r),
				"user_agent", r.UserAgent(),
			}
			if spanCtx := trace.SpanContextFromContext(r.Context()); spanCtx.IsValid() {
				attrs = append(attrs, "trace_id", spanCtx.TraceID().String())
			}
			log.WithContext(r.Context()).Info("HTTP request", attrs...)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
// It forwards Hijack so WebSocket upgrades still work behind it
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	rw.statusCode = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// RequestIDMiddleware tags each request with an ID
// A valid X-Request-ID from the caller is kept, anything else is replaced
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.New().String()
		}

		// Add to response headers for client-side tracking
		w.Header().Set("X-Request-ID", requestID)

		ctx := logger.ContextWithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RecoveryMiddleware recovers from panics and returns a 500 error
// This prevents the entire server from crashing due to a panic in a handler
func RecoveryMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("Panic recovered",
						"error", err,
						"path", r.URL.Path,
						"method", r.Method,
					)
					respondError(w, http.StatusInternalServerError, "Internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// CORSMiddleware adds CORS headers so the dashboard can call the API from another origin
func CORSMiddleware(allowedOrigin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

			// Handle preflight requests
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequestTimeoutMiddleware puts a deadline on the request context
// Store queries observe it and abort once it passes
func RequestTimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TracingMiddleware starts a server span per request, named after the route template
// Register it with Router.Use so the matched route is known
func TracingMiddleware(service string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, service,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + routeTemplate(r)
			}),
		)
	}
}

// Chain combines multiple middleware functions
// This is a helper to make middleware composition cleaner
func Chain(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		// Apply middleware in reverse order so they execute in the order specified
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// RateLimiter interface for rate limiting
type RateLimiter interface {
	Allow(ctx context.Context, key string) (ratelimit.Result, error)
	Limit() int
}

// RateLimitMiddleware caps event ingestion per client IP
// Uses a Redis-backed fixed window so every instance shares the count.
// X-Forwarded-For is caller controlled, so it only keys the window when
// trustProxy says a proxy in front of us sets it; otherwise the peer address does
func RateLimitMiddleware(limiter RateLimiter, trustProxy bool, logger *slog.Logger) func(http.Handler) http.Handler {
	key := peerIP
	if trustProxy {
		key = clientIP
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := limiter.Allow(r.Context(), key(r))
			if err != nil {
				// Fail open: a Redis outage must not stop event ingestion
				logger.Warn("rate limit check failed", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			// Set rate limit headers (standard practice)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", res.ResetAt.Unix()))

			if !res.Allowed {
				retryAfter := int(time.Until(res.ResetAt).Seconds())
				if retryAfter < 0 {
					retryAfter = 0
				}

				metrics.RecordRateLimited()

				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				respondError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
				return
			}

			metrics.RecordRateLimitAllowed()
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP returns the first X-Forwarded-For entry, or the peer address without its port
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	return peerIP(r)
}

// peerIP is the connection address without its port
func peerIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// MetricsMiddleware records Prometheus metrics for HTTP requests
// Register it with Router.Use so requests are labelled by route template
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Track in-flight requests
		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(wrapped.statusCode)
		endpoint := routeTemplate(r)

		metrics.HTTPRequestDuration.WithLabelValues(r.Method, endpoint, status).Observe(duration)
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, endpoint, status).Inc()
	})
}

// routeTemplate keeps metric and span cardinality bounded by using the
// matched route pattern instead of the raw path
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}
