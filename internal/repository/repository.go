package repository

import (
	"context"

	"linkpro-analytics/internal/domain"
)

// The analytics service only ever reads through these interfaces; the single
// write path is the event Create methods used by tracking.
//
// WHY USE AN INTERFACE?
// 1. Testability: the aggregation rules are tested against mock repositories
// 2. Dependency Inversion: services don't know they are talking to PostgreSQL
//
// Implementations return errors wrapping domain.ErrNotFound for missing rows and
// domain.ErrStoreUnavailable for driver or connectivity failures.

// ProfileRepository is the catalog of link-in-bio profiles
type ProfileRepository interface {
	// Create inserts a profile and fills in its ID and CreatedAt
	Create(ctx context.Context, profile *domain.Profile) error

	// GetByID returns domain.ErrProfileNotFound when the profile is absent
	GetByID(ctx context.Context, id int64) (*domain.Profile, error)
}

// LinkRepository is the catalog of links per profile
type LinkRepository interface {
	Create(ctx context.Context, link *domain.Link) error

	// GetByID returns domain.ErrLinkNotFound when the link is absent
	GetByID(ctx context.Context, id int64) (*domain.Link, error)

	// ListByProfile returns a profile's links ordered by position, then ID
	ListByProfile(ctx context.Context, profileID int64) ([]*domain.Link, error)
}

// ClickRepository stores and aggregates click events
type ClickRepository interface {
	// Create inserts a click; ID and ClickedAt are assigned by the database
	Create(ctx context.Context, click *domain.ClickEvent) error

	// ListByLink returns every click on a link, newest first
	ListByLink(ctx context.Context, linkID int64) ([]*domain.ClickEvent, error)

	// Count returns the number of matching events and of distinct client IPs,
	// with events lacking an IP counted as one visitor
	Count(ctx context.Context, filter domain.EventFilter) (domain.EventCounts, error)

	// CountByReferrer groups matching clicks by raw referrer
	CountByReferrer(ctx context.Context, filter domain.EventFilter) ([]domain.ReferrerCount, error)

	// CountByPeriod groups matching clicks into truncated time buckets
	CountByPeriod(ctx context.Context, filter domain.EventFilter, granularity domain.Granularity) ([]domain.PeriodCount, error)
}

// ViewRepository stores and aggregates page views
// Filters passed here never carry a LinkID
type ViewRepository interface {
	Create(ctx context.Context, view *domain.PageView) error
	ListByProfile(ctx context.Context, profileID int64) ([]*domain.PageView, error)
	Count(ctx context.Context, filter domain.EventFilter) (domain.EventCounts, error)
	CountByReferrer(ctx context.Context, filter domain.EventFilter) ([]domain.ReferrerCount, error)
	CountByPeriod(ctx context.Context, filter domain.EventFilter, granularity domain.Granularity) ([]domain.PeriodCount, error)
}
