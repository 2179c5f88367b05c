package http

import (
	"context"
	"log/slog"
	"net/http"
	"runtime"
	"time"
)

const serviceName = "LinkPro Analytics API"

// DatabaseProbe checks the store and returns a short description of it
type DatabaseProbe func(ctx context.Context) (string, error)

// RedisProbe pings Redis
type RedisProbe func(ctx context.Context) error

// SystemHandler serves the banner, system info and health endpoints
type SystemHandler struct {
	version     string
	environment string
	probeDB     DatabaseProbe
	probeRedis  RedisProbe // nil when Redis is disabled
	logger      *slog.Logger
}

// NewSystemHandler creates the system endpoints handler
func NewSystemHandler(version, environment string, probeDB DatabaseProbe, probeRedis RedisProbe, logger *slog.Logger) *SystemHandler {
	return &SystemHandler{
		version:     version,
		environment: environment,
		probeDB:     probeDB,
		probeRedis:  probeRedis,
		logger:      logger,
	}
}

type HealthResponse struct {
	Status       string    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
	Service      string    `json:"service"`
	Database     string    `json:"database"`
	DatabaseInfo string    `json:"database_info"`
	Redis        string    `json:"redis,omitempty"`
	GoVersion    string    `json:"go_version"`
}

// Root handles GET /
func (h *SystemHandler) Root(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":    serviceName + " is running",
		"version":    h.version,
		"go_version": runtime.Version(),
		"docs":       "Visit /api/docs/openapi.json for the API description",
		"features": map[string]string{
			"tracking":         "Click and page view tracking",
			"analytics":        "Comprehensive analytics and insights",
			"traffic_analysis": "Traffic source detection and analysis",
			"time_analysis":    "Time-based performance insights",
			"realtime":         "Live event updates over WebSocket",
		},
	})
}

// SystemInfo handles GET /api/system/info
func (h *SystemHandler) SystemInfo(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"go_version":  runtime.Version(),
		"compiler":    runtime.Compiler,
		"platform":    runtime.GOOS + "/" + runtime.GOARCH,
		"num_cpu":     runtime.NumCPU(),
		"api_version": h.version,
		"environment": h.environment,
	})
}

// Health handles GET /health
// 200 when every configured dependency answers, 503 otherwise
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Service:   serviceName,
		Database:  "Connected",
		GoVersion: runtime.Version(),
	}

	info, err := h.probeDB(ctx)
	if err != nil {
		h.logger.Warn("database health check failed", "error", err)
		resp.Status = "unhealthy"
		resp.Database = "Disconnected"
		resp.DatabaseInfo = err.Error()
	} else {
		resp.DatabaseInfo = info
	}

	if h.probeRedis != nil {
		resp.Redis = "Connected"
		if err := h.probeRedis(ctx); err != nil {
			h.logger.Warn("redis health check failed", "error", err)
			resp.Status = "unhealthy"
			resp.Redis = "Disconnected"
		}
	}

	status := http.StatusOK
	if resp.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, resp)
}
