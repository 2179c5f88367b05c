package domain

import (
	"math"
	"time"
)

// TimeRange is an optional analytics window
// A nil bound means the window is unbounded on that side. Start is always
// inclusive; End is inclusive unless ExcludeEnd is set
type TimeRange struct {
	Start      *time.Time
	End        *time.Time
	ExcludeEnd bool
}

// NewTimeRange builds a closed window [start, end]
func NewTimeRange(start, end time.Time) TimeRange {
	return TimeRange{Start: &start, End: &end}
}

// NewPeriod builds a half-open window [start, end)
// Adjacent periods built this way never count the same event twice
func NewPeriod(start, end time.Time) TimeRange {
	return TimeRange{Start: &start, End: &end, ExcludeEnd: true}
}

// Granularity is the bucket width used by the time pattern view
type Granularity string

const (
	GranularityHourly Granularity = "hourly"
	GranularityDaily  Granularity = "daily"
)

// ParseGranularity validates a granularity string from a request
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(s); g {
	case GranularityHourly, GranularityDaily:
		return g, nil
	default:
		return "", ErrInvalidGranularity
	}
}

// EventFilter narrows a click or view query
// LinkID only applies to clicks; page views are not tied to a link
type EventFilter struct {
	ProfileID int64
	LinkID    *int64
	Window    TimeRange
}

// EventCounts is the raw result of a COUNT / COUNT(DISTINCT ip) query
type EventCounts struct {
	Total  int64
	Unique int64
}

// ReferrerCount is the number of events sharing one raw referrer value
// An empty Referrer stands for NULL or empty in the store
type ReferrerCount struct {
	Referrer string
	Count    int64
}

// PeriodCount is the number of events inside one truncated time bucket
type PeriodCount struct {
	Period time.Time
	Count  int64
	Unique int64
}

// BasicMetrics are the headline numbers for a profile or a single link
type BasicMetrics struct {
	TotalClicks      int64   `json:"total_clicks"`
	TotalViews       int64   `json:"total_views"`
	UniqueClicks     int64   `json:"unique_clicks"`
	UniqueViews      int64   `json:"unique_views"`
	ClickThroughRate float64 `json:"click_through_rate"`
}

// LinkAnalytics is BasicMetrics scoped to one link plus its catalog data
type LinkAnalytics struct {
	LinkID    int64        `json:"link_id"`
	Title     string       `json:"title"`
	URL       string       `json:"url"`
	Position  int          `json:"position"`
	Metrics   BasicMetrics `json:"metrics"`
	CreatedAt time.Time    `json:"created_at"`
}

// ProfileAnalytics combines profile-wide metrics with the per-link breakdown
type ProfileAnalytics struct {
	ProfileID      int64           `json:"profile_id"`
	Username       string          `json:"username"`
	Title          *string         `json:"title"`
	TotalMetrics   BasicMetrics    `json:"total_metrics"`
	LinksAnalytics []LinkAnalytics `json:"links_analytics"`
	CreatedAt      time.Time       `json:"created_at"`
}

// TrafficSource is one referrer bucket in the traffic breakdown
type TrafficSource struct {
	Source     string  `json:"source"`
	Clicks     int64   `json:"clicks"`
	Views      int64   `json:"views"`
	Percentage float64 `json:"percentage"`
}

type TrafficAnalytics struct {
	ProfileID   int64           `json:"profile_id"`
	Sources     []TrafficSource `json:"sources"`
	TotalClicks int64           `json:"total_clicks"`
	TotalViews  int64           `json:"total_views"`
}

// TimeBasedMetrics is one bucket of the time series
type TimeBasedMetrics struct {
	Period         string `json:"period"`
	Clicks         int64  `json:"clicks"`
	Views          int64  `json:"views"`
	UniqueVisitors int64  `json:"unique_visitors"`
}

// TimeAnalytics is the bucketed series plus peak detection
// Peak fields are nil when there is no data at all
type TimeAnalytics struct {
	ProfileID              int64              `json:"profile_id"`
	Granularity            Granularity        `json:"granularity"`
	Data                   []TimeBasedMetrics `json:"data"`
	PeakHour               *int               `json:"peak_hour"`
	PeakDay                *string            `json:"peak_day"`
	BestTimeRecommendation *string            `json:"best_time_recommendation"`
}

type QuickStatsSummary struct {
	TotalClicks      int64   `json:"total_clicks"`
	TotalViews       int64   `json:"total_views"`
	ClickThroughRate float64 `json:"click_through_rate"`
	UniqueVisitors   int64   `json:"unique_visitors"`
}

type TopLink struct {
	LinkID int64   `json:"link_id"`
	Title  string  `json:"title"`
	Clicks int64   `json:"clicks"`
	CTR    float64 `json:"ctr"`
}

type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// QuickStats is the short dashboard summary for the last N days
type QuickStats struct {
	ProfileID         int64             `json:"profile_id"`
	PeriodDays        int               `json:"period_days"`
	Summary           QuickStatsSummary `json:"summary"`
	TopPerformingLink *TopLink          `json:"top_performing_link"`
	TotalLinks        int               `json:"total_links"`
	Period            Period            `json:"period"`
}

// Change is the difference between two periods for one metric
type Change struct {
	Absolute   float64 `json:"absolute"`
	Percentage float64 `json:"percentage"`
}

type PeriodMetrics struct {
	Days    int          `json:"days"`
	Start   time.Time    `json:"start"`
	End     time.Time    `json:"end"`
	Metrics BasicMetrics `json:"metrics"`
}

type MetricChanges struct {
	Clicks Change `json:"clicks"`
	Views  Change `json:"views"`
	CTR    Change `json:"ctr"`
}

// PeriodComparison compares the current window with the one right before it
type PeriodComparison struct {
	ProfileID      int64         `json:"profile_id"`
	CurrentPeriod  PeriodMetrics `json:"current_period"`
	PreviousPeriod PeriodMetrics `json:"previous_period"`
	Changes        MetricChanges `json:"changes"`
}

// Round2 rounds to two decimal places, the precision of every rate we report
// Exact halves go to the even neighbour, so 0.125 reports as 0.12
func Round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}
