package http

import (
	"net/http"
	"net/url"
	"time"

	"linkpro-analytics/internal/domain"
	"linkpro-analytics/internal/service"
	"linkpro-analytics/pkg/validator"
)

// GetProfileAnalytics handles GET /api/analytics/profile/{profile_id}?start_date=&end_date=
func (h *Handler) GetProfileAnalytics(w http.ResponseWriter, r *http.Request) {
	profileID, ok := pathID(w, r, "profile_id")
	if !ok {
		return
	}
	window, ok := parseWindow(w, r.URL.Query())
	if !ok {
		return
	}

	result, err := h.analytics.GetProfileAnalytics(r.Context(), profileID, window)
	if err != nil {
		respondServiceError(w, h.logger, "getting analytics", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetTrafficAnalytics handles GET /api/analytics/traffic/{profile_id}?start_date=&end_date=
func (h *Handler) GetTrafficAnalytics(w http.ResponseWriter, r *http.Request) {
	profileID, ok := pathID(w, r, "profile_id")
	if !ok {
		return
	}
	window, ok := parseWindow(w, r.URL.Query())
	if !ok {
		return
	}

	result, err := h.analytics.AnalyzeTrafficSources(r.Context(), profileID, window)
	if err != nil {
		respondServiceError(w, h.logger, "getting traffic analytics", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetTimeAnalytics handles GET /api/analytics/time/{profile_id}?granularity=&start_date=&end_date=
// Granularity defaults to daily
func (h *Handler) GetTimeAnalytics(w http.ResponseWriter, r *http.Request) {
	profileID, ok := pathID(w, r, "profile_id")
	if !ok {
		return
	}

	q := r.URL.Query()
	raw := q.Get("granularity")
	if raw == "" {
		raw = string(domain.GranularityDaily)
	}
	granularity, err := domain.ParseGranularity(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Granularity must be 'hourly' or 'daily'")
		return
	}

	window, ok := parseWindow(w, q)
	if !ok {
		return
	}

	result, err := h.analytics.AnalyzeTimePatterns(r.Context(), profileID, granularity, window)
	if err != nil {
		respondServiceError(w, h.logger, "getting time analytics", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetQuickStats handles GET /api/analytics/quick-stats/{profile_id}?days=7
func (h *Handler) GetQuickStats(w http.ResponseWriter, r *http.Request) {
	profileID, ok := pathID(w, r, "profile_id")
	if !ok {
		return
	}
	days, ok := queryDays(w, r.URL.Query(), "days")
	if !ok {
		return
	}

	result, err := h.analytics.GetQuickStats(r.Context(), profileID, days)
	if err != nil {
		respondServiceError(w, h.logger, "getting quick stats", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// ComparePeriods handles GET /api/analytics/compare/{profile_id}?current_days=7&previous_days=7
func (h *Handler) ComparePeriods(w http.ResponseWriter, r *http.Request) {
	profileID, ok := pathID(w, r, "profile_id")
	if !ok {
		return
	}

	q := r.URL.Query()
	currentDays, ok := queryDays(w, q, "current_days")
	if !ok {
		return
	}
	previousDays, ok := queryDays(w, q, "previous_days")
	if !ok {
		return
	}

	result, err := h.analytics.ComparePeriods(r.Context(), profileID, currentDays, previousDays)
	if err != nil {
		respondServiceError(w, h.logger, "comparing periods", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// parseWindow reads the optional start_date and end_date parameters
func parseWindow(w http.ResponseWriter, q url.Values) (domain.TimeRange, bool) {
	var window domain.TimeRange

	for _, p := range []struct {
		name   string
		target **time.Time
	}{
		{"start_date", &window.Start},
		{"end_date", &window.End},
	} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		t, err := validator.ParseDate(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid date format: "+raw+". Use YYYY-MM-DD or ISO format")
			return domain.TimeRange{}, false
		}
		*p.target = &t
	}

	return window, true
}

// queryDays reads a positive day count, defaulting to service.DefaultPeriodDays
func queryDays(w http.ResponseWriter, q url.Values, name string) (int, bool) {
	raw := q.Get(name)
	if raw == "" {
		return service.DefaultPeriodDays, true
	}
	days, err := validator.ParsePositiveInt(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, name+" must be a positive integer")
		return 0, false
	}
	return days, true
}
