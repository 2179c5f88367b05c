package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig carries everything the router needs
type RouterConfig struct {
	Handler        *Handler
	System         *SystemHandler
	Realtime       *RealtimeHandler
	RateLimiter    RateLimiter // nil disables rate limiting on ingestion
	TrustProxy     bool        // key the limiter on X-Forwarded-For instead of the peer address
	EnableMetrics  bool
	EnableTracing  bool
	ServiceName    string
	RequestTimeout time.Duration
}

// NewRouter registers every route
// Route-aware middleware (metrics, tracing) is attached with Use so it sees
// the matched route template; the cross-cutting chain wraps the router in main
func NewRouter(cfg RouterConfig) *mux.Router {
	r := mux.NewRouter()

	if cfg.EnableTracing {
		r.Use(TracingMiddleware(cfg.ServiceName))
	}
	if cfg.EnableMetrics {
		r.Use(MetricsMiddleware)
		r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}

	// System
	r.HandleFunc("/", cfg.System.Root).Methods(http.MethodGet)
	r.HandleFunc("/health", cfg.System.Health).Methods(http.MethodGet)
	r.HandleFunc("/api/system/info", cfg.System.SystemInfo).Methods(http.MethodGet)
	r.HandleFunc("/api/docs/openapi.json", ServeOpenAPISpec).Methods(http.MethodGet)

	// Live updates are long-lived, so they stay outside the request timeout
	r.HandleFunc("/ws/analytics/{profile_id}", cfg.Realtime.Subscribe).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	if cfg.RequestTimeout > 0 {
		api.Use(RequestTimeoutMiddleware(cfg.RequestTimeout))
	}

	// Tracking
	track := api.PathPrefix("/track").Subrouter()
	ingest := http.Handler(http.HandlerFunc(cfg.Handler.TrackClick))
	ingestView := http.Handler(http.HandlerFunc(cfg.Handler.TrackView))
	if cfg.RateLimiter != nil {
		limit := RateLimitMiddleware(cfg.RateLimiter, cfg.TrustProxy, cfg.Handler.logger)
		ingest = limit(ingest)
		ingestView = limit(ingestView)
	}
	track.Handle("/click", ingest).Methods(http.MethodPost)
	track.Handle("/view", ingestView).Methods(http.MethodPost)
	track.HandleFunc("/clicks/{link_id}", cfg.Handler.GetLinkClicks).Methods(http.MethodGet)
	track.HandleFunc("/views/{profile_id}", cfg.Handler.GetProfileViews).Methods(http.MethodGet)

	// Analytics
	analytics := api.PathPrefix("/analytics").Subrouter()
	analytics.HandleFunc("/profile/{profile_id}", cfg.Handler.GetProfileAnalytics).Methods(http.MethodGet)
	analytics.HandleFunc("/traffic/{profile_id}", cfg.Handler.GetTrafficAnalytics).Methods(http.MethodGet)
	analytics.HandleFunc("/time/{profile_id}", cfg.Handler.GetTimeAnalytics).Methods(http.MethodGet)
	analytics.HandleFunc("/quick-stats/{profile_id}", cfg.Handler.GetQuickStats).Methods(http.MethodGet)
	analytics.HandleFunc("/compare/{profile_id}", cfg.Handler.ComparePeriods).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}
