package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"linkpro-analytics/internal/domain"
	"linkpro-analytics/internal/service"

	"github.com/gorilla/mux"
)

// AnalyticsService defines the read-side methods needed by the handler
// Using an interface instead of concrete type allows for easy mocking in tests
type AnalyticsService interface {
	GetProfileAnalytics(ctx context.Context, profileID int64, window domain.TimeRange) (*domain.ProfileAnalytics, error)
	AnalyzeTrafficSources(ctx context.Context, profileID int64, window domain.TimeRange) (*domain.TrafficAnalytics, error)
	AnalyzeTimePatterns(ctx context.Context, profileID int64, granularity domain.Granularity, window domain.TimeRange) (*domain.TimeAnalytics, error)
	GetQuickStats(ctx context.Context, profileID int64, days int) (*domain.QuickStats, error)
	ComparePeriods(ctx context.Context, profileID int64, currentDays, previousDays int) (*domain.PeriodComparison, error)
}

// TrackingService defines the write-side methods needed by the handler
type TrackingService interface {
	TrackClick(ctx context.Context, in service.ClickInput) (*domain.TrackingResult, error)
	TrackView(ctx context.Context, in service.ViewInput) (*domain.TrackingResult, error)
	ListLinkClicks(ctx context.Context, linkID int64) ([]*domain.ClickEvent, error)
	ListProfileViews(ctx context.Context, profileID int64) ([]*domain.PageView, error)
}

// Handler holds dependencies for the API handlers
// This is DEPENDENCY INJECTION - we pass dependencies through the constructor
// instead of using global variables or creating them inside handlers
type Handler struct {
	analytics AnalyticsService
	tracking  TrackingService
	logger    *slog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(analytics AnalyticsService, tracking TrackingService, logger *slog.Logger) *Handler {
	return &Handler{
		analytics: analytics,
		tracking:  tracking,
		logger:    logger,
	}
}

// Response DTOs (Data Transfer Objects)
// Kept apart from the domain events so the listing format stays stable

type ClickEventResponse struct {
	ID        int64     `json:"id"`
	LinkID    int64     `json:"link_id"`
	ProfileID int64     `json:"profile_id"`
	IPAddress *string   `json:"ip_address"`
	UserAgent *string   `json:"user_agent"`
	Referrer  *string   `json:"referrer"`
	ClickedAt time.Time `json:"clicked_at"`
}

type PageViewResponse struct {
	ID        int64     `json:"id"`
	ProfileID int64     `json:"profile_id"`
	IPAddress *string   `json:"ip_address"`
	UserAgent *string   `json:"user_agent"`
	Referrer  *string   `json:"referrer"`
	ViewedAt  time.Time `json:"viewed_at"`
}

type LinkClicksResponse struct {
	LinkID      int64                `json:"link_id"`
	TotalClicks int                  `json:"total_clicks"`
	Clicks      []ClickEventResponse `json:"clicks"`
}

type ProfileViewsResponse struct {
	ProfileID  int64              `json:"profile_id"`
	TotalViews int                `json:"total_views"`
	Views      []PageViewResponse `json:"views"`
}

// TrackClick handles POST /api/track/click?link_id=&profile_id=&referrer=
func (h *Handler) TrackClick(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	linkID, ok := queryID(w, q.Get("link_id"), "link_id")
	if !ok {
		return
	}
	profileID, ok := queryID(w, q.Get("profile_id"), "profile_id")
	if !ok {
		return
	}

	result, err := h.tracking.TrackClick(r.Context(), service.ClickInput{
		LinkID:    linkID,
		ProfileID: profileID,
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
		Referrer:  q.Get("referrer"),
	})
	if err != nil {
		respondServiceError(w, h.logger, "tracking click", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// TrackView handles POST /api/track/view?profile_id=&referrer=
func (h *Handler) TrackView(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	profileID, ok := queryID(w, q.Get("profile_id"), "profile_id")
	if !ok {
		return
	}

	result, err := h.tracking.TrackView(r.Context(), service.ViewInput{
		ProfileID: profileID,
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
		Referrer:  q.Get("referrer"),
	})
	if err != nil {
		respondServiceError(w, h.logger, "tracking page view", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetLinkClicks handles GET /api/track/clicks/{link_id}
func (h *Handler) GetLinkClicks(w http.ResponseWriter, r *http.Request) {
	linkID, ok := pathID(w, r, "link_id")
	if !ok {
		return
	}

	clicks, err := h.tracking.ListLinkClicks(r.Context(), linkID)
	if err != nil {
		respondServiceError(w, h.logger, "listing clicks", err)
		return
	}

	resp := LinkClicksResponse{
		LinkID:      linkID,
		TotalClicks: len(clicks),
		Clicks:      make([]ClickEventResponse, 0, len(clicks)),
	}
	for _, c := range clicks {
		resp.Clicks = append(resp.Clicks, ClickEventResponse{
			ID:        c.ID,
			LinkID:    c.LinkID,
			ProfileID: c.ProfileID,
			IPAddress: c.IPAddress,
			UserAgent: c.UserAgent,
			Referrer:  c.Referrer,
			ClickedAt: c.ClickedAt,
		})
	}

	respondJSON(w, http.StatusOK, resp)
}

// GetProfileViews handles GET /api/track/views/{profile_id}
func (h *Handler) GetProfileViews(w http.ResponseWriter, r *http.Request) {
	profileID, ok := pathID(w, r, "profile_id")
	if !ok {
		return
	}

	views, err := h.tracking.ListProfileViews(r.Context(), profileID)
	if err != nil {
		respondServiceError(w, h.logger, "listing page views", err)
		return
	}

	resp := ProfileViewsResponse{
		ProfileID:  profileID,
		TotalViews: len(views),
		Views:      make([]PageViewResponse, 0, len(views)),
	}
	for _, v := range views {
		resp.Views = append(resp.Views, PageViewResponse{
			ID:        v.ID,
			ProfileID: v.ProfileID,
			IPAddress: v.IPAddress,
			UserAgent: v.UserAgent,
			Referrer:  v.Referrer,
			ViewedAt:  v.ViewedAt,
		})
	}

	respondJSON(w, http.StatusOK, resp)
}

// pathID reads an integer id from the mux route variables
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	return parseID(w, mux.Vars(r)[name], name)
}

// queryID reads a required integer id from the query string
func queryID(w http.ResponseWriter, raw, name string) (int64, bool) {
	if raw == "" {
		respondError(w, http.StatusBadRequest, name+" is required")
		return 0, false
	}
	return parseID(w, raw, name)
}

func parseID(w http.ResponseWriter, raw, name string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, name+" must be an integer")
		return 0, false
	}
	return id, true
}
