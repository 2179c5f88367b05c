package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"linkpro-analytics/internal/domain"
)

// bucket is one merged period of the time series
type bucket struct {
	at      time.Time
	metrics domain.TimeBasedMetrics
}

// AnalyzeTimePatterns buckets clicks and views by hour or day and finds the peak
// A missing end defaults to now and a missing start to 30 days before the end
func (s *AnalyticsService) AnalyzeTimePatterns(ctx context.Context, profileID int64, granularity domain.Granularity, window domain.TimeRange) (*domain.TimeAnalytics, error) {
	if _, err := domain.ParseGranularity(string(granularity)); err != nil {
		return nil, err
	}

	ctx, done := s.start(ctx, "time", profileID)
	defer done()

	if err := s.requireProfile(ctx, profileID); err != nil {
		return nil, err
	}

	end := s.now()
	if window.End != nil {
		end = *window.End
	}
	start := end.Add(-DefaultTimePatternWindow)
	if window.Start != nil {
		start = *window.Start
	}
	filter := domain.EventFilter{ProfileID: profileID, Window: domain.NewTimeRange(start, end)}

	clicks, err := s.clicks.CountByPeriod(ctx, filter, granularity)
	if err != nil {
		return nil, fmt.Errorf("failed to bucket clicks: %w", err)
	}

	views, err := s.views.CountByPeriod(ctx, filter, granularity)
	if err != nil {
		return nil, fmt.Errorf("failed to bucket views: %w", err)
	}

	series := mergePeriods(clicks, views)

	result := &domain.TimeAnalytics{
		ProfileID:   profileID,
		Granularity: granularity,
		Data:        make([]domain.TimeBasedMetrics, 0, len(series)),
	}
	for _, b := range series {
		result.Data = append(result.Data, b.metrics)
	}

	if len(series) == 0 {
		return result, nil
	}

	switch granularity {
	case domain.GranularityHourly:
		hour := peakHour(series)
		rec := fmt.Sprintf("Best posting time: %d:00", hour)
		result.PeakHour = &hour
		result.BestTimeRecommendation = &rec
	case domain.GranularityDaily:
		day := peakDay(series)
		name := strings.ToLower(day.String())
		rec := "Best posting day: " + day.String()
		result.PeakDay = &name
		result.BestTimeRecommendation = &rec
	}

	return result, nil
}

// mergePeriods joins click and view buckets into one ascending series
// A bucket present on only one side gets zeros for the other
// Unique visitors come from the click side only
func mergePeriods(clicks, views []domain.PeriodCount) []bucket {
	byPeriod := make(map[int64]*bucket, len(clicks)+len(views))

	get := func(t time.Time) *bucket {
		key := t.Unix()
		b, ok := byPeriod[key]
		if !ok {
			at := t.UTC()
			b = &bucket{at: at, metrics: domain.TimeBasedMetrics{Period: at.Format(time.RFC3339)}}
			byPeriod[key] = b
		}
		return b
	}

	for _, c := range clicks {
		b := get(c.Period)
		b.metrics.Clicks += c.Count
		b.metrics.UniqueVisitors += c.Unique
	}
	for _, v := range views {
		get(v.Period).metrics.Views += v.Count
	}

	series := make([]bucket, 0, len(byPeriod))
	for _, b := range byPeriod {
		series = append(series, *b)
	}
	slices.SortFunc(series, func(a, b bucket) int {
		return a.at.Compare(b.at)
	})

	return series
}

// peakHour returns the hour of day with the most clicks
// On a tie the hour seen first in the ascending series wins
func peakHour(series []bucket) int {
	totals := make(map[int]int64)
	order := make([]int, 0, 24)
	for _, b := range series {
		h := b.at.Hour()
		if _, seen := totals[h]; !seen {
			order = append(order, h)
		}
		totals[h] += b.metrics.Clicks
	}
	return firstMax(order, totals)
}

// peakDay returns the weekday with the most clicks, with the same tie rule as peakHour
func peakDay(series []bucket) time.Weekday {
	totals := make(map[time.Weekday]int64)
	order := make([]time.Weekday, 0, 7)
	for _, b := range series {
		d := b.at.Weekday()
		if _, seen := totals[d]; !seen {
			order = append(order, d)
		}
		totals[d] += b.metrics.Clicks
	}
	return firstMax(order, totals)
}

func firstMax[K comparable](order []K, totals map[K]int64) K {
	best := order[0]
	for _, k := range order[1:] {
		if totals[k] > totals[best] {
			best = k
		}
	}
	return best
}
