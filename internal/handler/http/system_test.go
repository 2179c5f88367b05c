package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	healthyDB := func(ctx context.Context) (string, error) { return "PostgreSQL 16.2", nil }
	downDB := func(ctx context.Context) (string, error) { return "", errors.New("dial tcp: connection refused") }
	healthyRedis := func(ctx context.Context) error { return nil }
	downRedis := func(ctx context.Context) error { return errors.New("redis: connection pool timeout") }

	tests := []struct {
		name         string
		probeDB      DatabaseProbe
		probeRedis   RedisProbe
		wantStatus   int
		wantHealth   string
		wantDatabase string
		wantRedis    string
	}{
		{
			name:         "all dependencies up",
			probeDB:      healthyDB,
			probeRedis:   healthyRedis,
			wantStatus:   http.StatusOK,
			wantHealth:   "healthy",
			wantDatabase: "Connected",
			wantRedis:    "Connected",
		},
		{
			name:         "redis disabled",
			probeDB:      healthyDB,
			wantStatus:   http.StatusOK,
			wantHealth:   "healthy",
			wantDatabase: "Connected",
		},
		{
			name:         "database down",
			probeDB:      downDB,
			wantStatus:   http.StatusServiceUnavailable,
			wantHealth:   "unhealthy",
			wantDatabase: "Disconnected",
		},
		{
			name:         "redis down",
			probeDB:      healthyDB,
			probeRedis:   downRedis,
			wantStatus:   http.StatusServiceUnavailable,
			wantHealth:   "unhealthy",
			wantDatabase: "Connected",
			wantRedis:    "Disconnected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			h := NewSystemHandler("1.0.0", "test", tt.probeDB, tt.probeRedis, testLogger())
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			w := httptest.NewRecorder()

			// Act
			h.Health(w, req)

			// Assert
			require.Equal(t, tt.wantStatus, w.Code)
			var resp HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantHealth, resp.Status)
			assert.Equal(t, tt.wantDatabase, resp.Database)
			assert.Equal(t, tt.wantRedis, resp.Redis)
			assert.Equal(t, "LinkPro Analytics API", resp.Service)
			assert.Equal(t, runtime.Version(), resp.GoVersion)
		})
	}
}

func TestHealth_ReportsDatabaseInfo(t *testing.T) {
	ts := setupTestRouter()

	w := ts.do(http.MethodGet, "/health")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "PostgreSQL 16.2", decodeBody(t, w)["database_info"])
}

func TestRoot(t *testing.T) {
	ts := setupTestRouter()

	w := ts.do(http.MethodGet, "/")

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "LinkPro Analytics API is running", body["message"])
	assert.Equal(t, "1.0.0", body["version"])
	assert.Contains(t, body["features"], "traffic_analysis")
}

func TestSystemInfo(t *testing.T) {
	ts := setupTestRouter()

	w := ts.do(http.MethodGet, "/api/system/info")

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, body["platform"])
	assert.Equal(t, "test", body["environment"])
}

func TestServeOpenAPISpec(t *testing.T) {
	ts := setupTestRouter()

	w := ts.do(http.MethodGet, "/api/docs/openapi.json")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	body := decodeBody(t, w)
	paths, ok := body["paths"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, paths, "/api/track/click")
	assert.Contains(t, paths, "/api/analytics/compare/{profile_id}")
}

func TestUnknownRoute(t *testing.T) {
	ts := setupTestRouter()

	w := ts.do(http.MethodGet, "/api/does-not-exist")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Not found", decodeBody(t, w)["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	ts := setupTestRouter()
	ts.do(http.MethodGet, "/")

	w := ts.do(http.MethodGet, "/metrics")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "linkpro_http_requests_total")
}
