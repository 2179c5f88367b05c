package service

import (
	"context"
	"fmt"

	"linkpro-analytics/internal/domain"
	"linkpro-analytics/internal/metrics"
	"linkpro-analytics/internal/repository"
	"linkpro-analytics/pkg/validator"
)

const (
	clickTrackedMessage = "Click tracked successfully"
	viewTrackedMessage  = "Page view tracked successfully"
)

// Notifier fans an ingested event out to live subscribers of a profile
// Publish must not block ingestion
type Notifier interface {
	Publish(profileID int64, event domain.EventNotification)
}

// ClickInput is a click as received from a client
type ClickInput struct {
	LinkID    int64
	ProfileID int64
	IPAddress string
	UserAgent string
	Referrer  string
}

// ViewInput is a page view as received from a client
type ViewInput struct {
	ProfileID int64
	IPAddress string
	UserAgent string
	Referrer  string
}

// TrackingService is the write path: it validates and stores raw events
type TrackingService struct {
	profiles repository.ProfileRepository
	links    repository.LinkRepository
	clicks   repository.ClickRepository
	views    repository.ViewRepository
	notifier Notifier // optional, nil disables live updates
}

// NewTrackingService creates a new tracking service
func NewTrackingService(
	profiles repository.ProfileRepository,
	links repository.LinkRepository,
	clicks repository.ClickRepository,
	views repository.ViewRepository,
	notifier Notifier,
) *TrackingService {
	return &TrackingService{
		profiles: profiles,
		links:    links,
		clicks:   clicks,
		views:    views,
		notifier: notifier,
	}
}

// TrackClick records a click on a link
// The link and the profile must exist and the link must belong to the profile
func (s *TrackingService) TrackClick(ctx context.Context, in ClickInput) (*domain.TrackingResult, error) {
	link, err := s.links.GetByID(ctx, in.LinkID)
	if err != nil {
		return nil, err
	}

	if _, err := s.profiles.GetByID(ctx, in.ProfileID); err != nil {
		return nil, err
	}

	if !link.BelongsTo(in.ProfileID) {
		return nil, domain.ErrLinkNotInProfile
	}

	ip, ua, ref, err := sanitize(in.IPAddress, in.UserAgent, in.Referrer)
	if err != nil {
		return nil, err
	}

	click := domain.NewClickEvent(in.LinkID, in.ProfileID, ip, ua, ref)
	if err := s.clicks.Create(ctx, click); err != nil {
		return nil, fmt.Errorf("failed to record click: %w", err)
	}

	metrics.RecordEventTracked(domain.EventTypeClick)
	s.notify(domain.EventNotification{
		Type:      domain.EventTypeClick,
		ProfileID: click.ProfileID,
		LinkID:    &click.LinkID,
		EventID:   click.ID,
		Timestamp: click.ClickedAt,
	})

	return &domain.TrackingResult{
		Status:    "success",
		Message:   clickTrackedMessage,
		Timestamp: click.ClickedAt,
		EventID:   click.ID,
	}, nil
}

// TrackView records a view of a profile page
func (s *TrackingService) TrackView(ctx context.Context, in ViewInput) (*domain.TrackingResult, error) {
	if _, err := s.profiles.GetByID(ctx, in.ProfileID); err != nil {
		return nil, err
	}

	ip, ua, ref, err := sanitize(in.IPAddress, in.UserAgent, in.Referrer)
	if err != nil {
		return nil, err
	}

	view := domain.NewPageView(in.ProfileID, ip, ua, ref)
	if err := s.views.Create(ctx, view); err != nil {
		return nil, fmt.Errorf("failed to record page view: %w", err)
	}

	metrics.RecordEventTracked(domain.EventTypeView)
	s.notify(domain.EventNotification{
		Type:      domain.EventTypeView,
		ProfileID: view.ProfileID,
		EventID:   view.ID,
		Timestamp: view.ViewedAt,
	})

	return &domain.TrackingResult{
		Status:    "success",
		Message:   viewTrackedMessage,
		Timestamp: view.ViewedAt,
		EventID:   view.ID,
	}, nil
}

// ListLinkClicks returns the raw clicks recorded for a link, newest first
// An unknown link simply has no clicks
func (s *TrackingService) ListLinkClicks(ctx context.Context, linkID int64) ([]*domain.ClickEvent, error) {
	clicks, err := s.clicks.ListByLink(ctx, linkID)
	if err != nil {
		return nil, fmt.Errorf("failed to list clicks: %w", err)
	}
	return clicks, nil
}

// ListProfileViews returns the raw page views of a profile, newest first
func (s *TrackingService) ListProfileViews(ctx context.Context, profileID int64) ([]*domain.PageView, error) {
	views, err := s.views.ListByProfile(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to list page views: %w", err)
	}
	return views, nil
}

func (s *TrackingService) notify(event domain.EventNotification) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(event.ProfileID, event)
}

// sanitize validates the client address, cleans free-text fields and clips them
func sanitize(ip, userAgent, referrer string) (string, string, string, error) {
	if err := validator.ValidateIP(ip); err != nil {
		return "", "", "", fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	return ip,
		validator.Truncate(validator.CleanText(userAgent), domain.MaxFieldLength),
		validator.Truncate(validator.CleanText(referrer), domain.MaxFieldLength),
		nil
}
