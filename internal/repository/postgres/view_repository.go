package postgres

import (
	"context"

	"linkpro-analytics/internal/domain"
	"linkpro-analytics/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

// viewRepository is the PostgreSQL implementation for page views
type viewRepository struct {
	db *pgxpool.Pool
}

// NewViewRepository creates a new PostgreSQL page view repository
func NewViewRepository(db *pgxpool.Pool) repository.ViewRepository {
	return &viewRepository{db: db}
}

// Create inserts a new page view
func (r *viewRepository) Create(ctx context.Context, view *domain.PageView) error {
	defer observe("create_view")()

	query := `
		INSERT INTO page_views (profile_id, ip_address, user_agent, referrer)
		VALUES ($1, CAST($2::text AS inet), $3, $4)
		RETURNING id, viewed_at
	`

	err := r.db.QueryRow(ctx, query, view.ProfileID, view.IPAddress, view.UserAgent, view.Referrer).
		Scan(&view.ID, &view.ViewedAt)
	if err != nil {
		return storeError("create page view", err)
	}

	return nil
}

// ListByProfile retrieves every page view of a profile, newest first
func (r *viewRepository) ListByProfile(ctx context.Context, profileID int64) ([]*domain.PageView, error) {
	defer observe("list_views")()

	query := `
		SELECT id, profile_id, viewed_at, host(ip_address), user_agent, referrer
		FROM page_views
		WHERE profile_id = $1
		ORDER BY viewed_at DESC, id DESC
	`

	rows, err := r.db.Query(ctx, query, profileID)
	if err != nil {
		return nil, storeError("list page views", err)
	}
	defer rows.Close()

	views := []*domain.PageView{}
	for rows.Next() {
		view := &domain.PageView{}
		if err := rows.Scan(
			&view.ID,
			&view.ProfileID,
			&view.ViewedAt,
			&view.IPAddress,
			&view.UserAgent,
			&view.Referrer,
		); err != nil {
			return nil, storeError("scan page view", err)
		}
		views = append(views, view)
	}

	if err := rows.Err(); err != nil {
		return nil, storeError("iterate page views", err)
	}

	return views, nil
}

// Count, CountByReferrer and CountByPeriod share their SQL with clicks.
// A LinkID on the filter would reference a column page_views doesn't have, so
// it is dropped here.

func (r *viewRepository) Count(ctx context.Context, filter domain.EventFilter) (domain.EventCounts, error) {
	filter.LinkID = nil
	return viewTable.count(ctx, r.db, filter)
}

func (r *viewRepository) CountByReferrer(ctx context.Context, filter domain.EventFilter) ([]domain.ReferrerCount, error) {
	filter.LinkID = nil
	return viewTable.countByReferrer(ctx, r.db, filter)
}

func (r *viewRepository) CountByPeriod(ctx context.Context, filter domain.EventFilter, granularity domain.Granularity) ([]domain.PeriodCount, error) {
	filter.LinkID = nil
	return viewTable.countByPeriod(ctx, r.db, filter, granularity)
}
