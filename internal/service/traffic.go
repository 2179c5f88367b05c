package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"linkpro-analytics/internal/domain"
)

// Traffic source buckets, in the order they are checked and reported on ties
const (
	SourceDirect    = "direct"
	SourceInstagram = "instagram"
	SourceTikTok    = "tiktok"
	SourceTwitter   = "twitter"
	SourceOther     = "other"
)

var trafficSources = []string{SourceDirect, SourceInstagram, SourceTikTok, SourceTwitter, SourceOther}

// CategorizeReferrer maps a raw referrer to its traffic source bucket
// Matching is a case-insensitive substring test; the first rule that matches wins
func CategorizeReferrer(referrer string) string {
	if referrer == "" {
		return SourceDirect
	}

	ref := strings.ToLower(referrer)
	switch {
	case strings.Contains(ref, "instagram") || strings.Contains(ref, "ig"):
		return SourceInstagram
	case strings.Contains(ref, "tiktok"):
		return SourceTikTok
	case strings.Contains(ref, "twitter") || strings.Contains(ref, "t.co"):
		return SourceTwitter
	default:
		return SourceOther
	}
}

// AnalyzeTrafficSources groups clicks and views by referrer bucket
// Only buckets with at least one click or view are returned, most clicked first
func (s *AnalyticsService) AnalyzeTrafficSources(ctx context.Context, profileID int64, window domain.TimeRange) (*domain.TrafficAnalytics, error) {
	ctx, done := s.start(ctx, "traffic", profileID)
	defer done()

	if err := s.requireProfile(ctx, profileID); err != nil {
		return nil, err
	}

	filter := domain.EventFilter{ProfileID: profileID, Window: window}

	clickRefs, err := s.clicks.CountByReferrer(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to group clicks by referrer: %w", err)
	}

	viewRefs, err := s.views.CountByReferrer(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to group views by referrer: %w", err)
	}

	buckets := make(map[string]*domain.TrafficSource, len(trafficSources))
	for _, name := range trafficSources {
		buckets[name] = &domain.TrafficSource{Source: name}
	}

	var totalClicks, totalViews int64
	for _, rc := range clickRefs {
		buckets[CategorizeReferrer(rc.Referrer)].Clicks += rc.Count
		totalClicks += rc.Count
	}
	for _, rc := range viewRefs {
		buckets[CategorizeReferrer(rc.Referrer)].Views += rc.Count
		totalViews += rc.Count
	}

	sources := make([]domain.TrafficSource, 0, len(trafficSources))
	for _, name := range trafficSources {
		b := buckets[name]
		if b.Clicks == 0 && b.Views == 0 {
			continue
		}
		if totalClicks > 0 {
			b.Percentage = domain.Round2(float64(b.Clicks) / float64(totalClicks) * 100)
		}
		sources = append(sources, *b)
	}

	// Stable, so equal click counts keep the bucket order above
	slices.SortStableFunc(sources, func(a, b domain.TrafficSource) int {
		switch {
		case a.Clicks > b.Clicks:
			return -1
		case a.Clicks < b.Clicks:
			return 1
		default:
			return 0
		}
	})

	return &domain.TrafficAnalytics{
		ProfileID:   profileID,
		Sources:     sources,
		TotalClicks: totalClicks,
		TotalViews:  totalViews,
	}, nil
}
