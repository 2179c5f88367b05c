package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"linkpro-analytics/internal/domain"
	"linkpro-analytics/internal/metrics"
	"linkpro-analytics/internal/repository"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Default windows used when a request doesn't specify one
const (
	DefaultTimePatternWindow = 30 * 24 * time.Hour
	DefaultPeriodDays        = 7

	maxConcurrentLinkQueries = 4
)

// AnalyticsService turns raw click and view counts into the dashboard views
// This is the SERVICE LAYER - it is stateless: every method is a pure function of
// its arguments, the injected repositories and the current time
//
// The repositories are passed in explicitly; there is no package-level pool or
// session factory, so tests can hand in mocks and two services never share state
type AnalyticsService struct {
	profiles repository.ProfileRepository
	links    repository.LinkRepository
	clicks   repository.ClickRepository
	views    repository.ViewRepository
	now      func() time.Time
	tracer   trace.Tracer
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(
	profiles repository.ProfileRepository,
	links repository.LinkRepository,
	clicks repository.ClickRepository,
	views repository.ViewRepository,
) *AnalyticsService {
	return &AnalyticsService{
		profiles: profiles,
		links:    links,
		clicks:   clicks,
		views:    views,
		now:      func() time.Time { return time.Now().UTC() },
		tracer:   otel.Tracer("linkpro-analytics/service"),
	}
}

// WithClock replaces the time source used for default and relative windows
func (s *AnalyticsService) WithClock(now func() time.Time) *AnalyticsService {
	s.now = now
	return s
}

// CalculateBasicMetrics computes totals, uniques and CTR for a profile or one of its links
// Views are never link-scoped, so a link's CTR is its clicks over the profile's views
func (s *AnalyticsService) CalculateBasicMetrics(ctx context.Context, profileID int64, linkID *int64, window domain.TimeRange) (domain.BasicMetrics, error) {
	clicks, err := s.clicks.Count(ctx, domain.EventFilter{ProfileID: profileID, LinkID: linkID, Window: window})
	if err != nil {
		return domain.BasicMetrics{}, fmt.Errorf("failed to count clicks: %w", err)
	}

	views, err := s.views.Count(ctx, domain.EventFilter{ProfileID: profileID, Window: window})
	if err != nil {
		return domain.BasicMetrics{}, fmt.Errorf("failed to count views: %w", err)
	}

	return newBasicMetrics(clicks, views), nil
}

// GetLinkAnalytics returns one metrics record per link of the profile, by position
func (s *AnalyticsService) GetLinkAnalytics(ctx context.Context, profileID int64, window domain.TimeRange) ([]domain.LinkAnalytics, error) {
	links, err := s.links.ListByProfile(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}

	analytics := make([]domain.LinkAnalytics, 0, len(links))
	if len(links) == 0 {
		return analytics, nil
	}

	// The view side is identical for every link, fetch it once
	views, err := s.views.Count(ctx, domain.EventFilter{ProfileID: profileID, Window: window})
	if err != nil {
		return nil, fmt.Errorf("failed to count views: %w", err)
	}

	// One click count per link, a few in flight at a time
	analytics = analytics[:len(links)]
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLinkQueries)

	for i, link := range links {
		g.Go(func() error {
			clicks, err := s.clicks.Count(gctx, domain.EventFilter{ProfileID: profileID, LinkID: &link.ID, Window: window})
			if err != nil {
				return fmt.Errorf("failed to count clicks for link %d: %w", link.ID, err)
			}

			analytics[i] = domain.LinkAnalytics{
				LinkID:    link.ID,
				Title:     link.Title,
				URL:       link.URL,
				Position:  link.Position,
				Metrics:   newBasicMetrics(clicks, views),
				CreatedAt: link.CreatedAt,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.SortStableFunc(analytics, func(a, b domain.LinkAnalytics) int {
		return a.Position - b.Position
	})

	return analytics, nil
}

// GetProfileAnalytics combines profile-wide metrics with the per-link breakdown
func (s *AnalyticsService) GetProfileAnalytics(ctx context.Context, profileID int64, window domain.TimeRange) (*domain.ProfileAnalytics, error) {
	ctx, done := s.start(ctx, "profile", profileID)
	defer done()

	profile, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}

	total, err := s.CalculateBasicMetrics(ctx, profileID, nil, window)
	if err != nil {
		return nil, err
	}

	links, err := s.GetLinkAnalytics(ctx, profileID, window)
	if err != nil {
		return nil, err
	}

	return &domain.ProfileAnalytics{
		ProfileID:      profile.ID,
		Username:       profile.Username,
		Title:          profile.Title,
		TotalMetrics:   total,
		LinksAnalytics: links,
		CreatedAt:      profile.CreatedAt,
	}, nil
}

// GetQuickStats summarizes the last `days` days and picks the top link
func (s *AnalyticsService) GetQuickStats(ctx context.Context, profileID int64, days int) (*domain.QuickStats, error) {
	if days <= 0 {
		return nil, domain.ErrInvalidPeriodDays
	}

	ctx, done := s.start(ctx, "quick_stats", profileID)
	defer done()

	if err := s.requireProfile(ctx, profileID); err != nil {
		return nil, err
	}

	end := s.now()
	start := end.Add(-daysToDuration(days))
	window := domain.NewPeriod(start, end)

	m, err := s.CalculateBasicMetrics(ctx, profileID, nil, window)
	if err != nil {
		return nil, err
	}

	links, err := s.GetLinkAnalytics(ctx, profileID, window)
	if err != nil {
		return nil, err
	}

	return &domain.QuickStats{
		ProfileID:  profileID,
		PeriodDays: days,
		Summary: domain.QuickStatsSummary{
			TotalClicks:      m.TotalClicks,
			TotalViews:       m.TotalViews,
			ClickThroughRate: m.ClickThroughRate,
			UniqueVisitors:   m.UniqueViews,
		},
		TopPerformingLink: topLink(links),
		TotalLinks:        len(links),
		Period:            domain.Period{Start: start, End: end},
	}, nil
}

// ComparePeriods compares the last currentDays with the previousDays right before them
func (s *AnalyticsService) ComparePeriods(ctx context.Context, profileID int64, currentDays, previousDays int) (*domain.PeriodComparison, error) {
	if currentDays <= 0 || previousDays <= 0 {
		return nil, domain.ErrInvalidPeriodDays
	}

	ctx, done := s.start(ctx, "compare", profileID)
	defer done()

	if err := s.requireProfile(ctx, profileID); err != nil {
		return nil, err
	}

	end := s.now()
	currentStart := end.Add(-daysToDuration(currentDays))
	previousStart := currentStart.Add(-daysToDuration(previousDays))

	current, err := s.CalculateBasicMetrics(ctx, profileID, nil, domain.NewPeriod(currentStart, end))
	if err != nil {
		return nil, err
	}

	previous, err := s.CalculateBasicMetrics(ctx, profileID, nil, domain.NewPeriod(previousStart, currentStart))
	if err != nil {
		return nil, err
	}

	return &domain.PeriodComparison{
		ProfileID: profileID,
		CurrentPeriod: domain.PeriodMetrics{
			Days:    currentDays,
			Start:   currentStart,
			End:     end,
			Metrics: current,
		},
		PreviousPeriod: domain.PeriodMetrics{
			Days:    previousDays,
			Start:   previousStart,
			End:     currentStart,
			Metrics: previous,
		},
		Changes: domain.MetricChanges{
			Clicks: countChange(current.TotalClicks, previous.TotalClicks),
			Views:  countChange(current.TotalViews, previous.TotalViews),
			CTR:    rateChange(current.ClickThroughRate, previous.ClickThroughRate),
		},
	}, nil
}

// requireProfile turns a missing profile into domain.ErrProfileNotFound
func (s *AnalyticsService) requireProfile(ctx context.Context, profileID int64) error {
	if _, err := s.profiles.GetByID(ctx, profileID); err != nil {
		return err
	}
	return nil
}

// start opens a span and returns a func that ends it and records the duration
func (s *AnalyticsService) start(ctx context.Context, op string, profileID int64) (context.Context, func()) {
	began := time.Now()
	ctx, span := s.tracer.Start(ctx, "analytics."+op,
		trace.WithAttributes(attribute.Int64("profile.id", profileID)),
	)
	return ctx, func() {
		metrics.AnalyticsQueryDuration.WithLabelValues(op).Observe(time.Since(began).Seconds())
		span.End()
	}
}

func newBasicMetrics(clicks, views domain.EventCounts) domain.BasicMetrics {
	return domain.BasicMetrics{
		TotalClicks:      clicks.Total,
		TotalViews:       views.Total,
		UniqueClicks:     clicks.Unique,
		UniqueViews:      views.Unique,
		ClickThroughRate: clickThroughRate(clicks.Total, views.Total),
	}
}

// clickThroughRate is clicks per 100 views; zero views is a 0% rate, not an error
func clickThroughRate(clicks, views int64) float64 {
	if views == 0 {
		return 0.0
	}
	return domain.Round2(float64(clicks) / float64(views) * 100)
}

// topLink returns the link with the most clicks; the first one wins a tie
func topLink(links []domain.LinkAnalytics) *domain.TopLink {
	if len(links) == 0 {
		return nil
	}

	best := links[0]
	for _, l := range links[1:] {
		if l.Metrics.TotalClicks > best.Metrics.TotalClicks {
			best = l
		}
	}

	return &domain.TopLink{
		LinkID: best.LinkID,
		Title:  best.Title,
		Clicks: best.Metrics.TotalClicks,
		CTR:    best.Metrics.ClickThroughRate,
	}
}

// countChange compares two event counts
// From zero, any growth is reported as +100% and no growth as 0%
func countChange(current, previous int64) domain.Change {
	if previous == 0 {
		pct := 0.0
		if current > 0 {
			pct = 100.0
		}
		return domain.Change{Absolute: float64(current), Percentage: pct}
	}

	diff := current - previous
	return domain.Change{
		Absolute:   float64(diff),
		Percentage: domain.Round2(float64(diff) / float64(previous) * 100),
	}
}

// rateChange compares two CTRs
// Unlike countChange, a zero previous rate always yields a 0% change
func rateChange(current, previous float64) domain.Change {
	diff := current - previous
	pct := 0.0
	if previous > 0 {
		pct = domain.Round2(diff / previous * 100)
	}
	return domain.Change{Absolute: domain.Round2(diff), Percentage: pct}
}

func daysToDuration(days int) time.Duration {
	return time.Duration(days) * 24 * time.Hour
}
