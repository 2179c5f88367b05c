package postgres

import (
	"context"

	"linkpro-analytics/internal/domain"
	"linkpro-analytics/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

// clickRepository is the PostgreSQL implementation for click events
type clickRepository struct {
	db *pgxpool.Pool
}

// NewClickRepository creates a new PostgreSQL click repository
func NewClickRepository(db *pgxpool.Pool) repository.ClickRepository {
	return &clickRepository{db: db}
}

// Create inserts a new click event into the database
// clicked_at comes from the column default so clients can never backdate events.
// The single INSERT is atomic: either the whole row exists or nothing does.
func (r *clickRepository) Create(ctx context.Context, click *domain.ClickEvent) error {
	defer observe("create_click")()

	query := `
		INSERT INTO click_events (link_id, profile_id, ip_address, user_agent, referrer)
		VALUES ($1, $2, CAST($3::text AS inet), $4, $5)
		RETURNING id, clicked_at
	`

	err := r.db.QueryRow(
		ctx,
		query,
		click.LinkID,
		click.ProfileID,
		click.IPAddress,
		click.UserAgent,
		click.Referrer,
	).Scan(&click.ID, &click.ClickedAt)
	if err != nil {
		return storeError("create click event", err)
	}

	return nil
}

// ListByLink retrieves every click recorded for a link
func (r *clickRepository) ListByLink(ctx context.Context, linkID int64) ([]*domain.ClickEvent, error) {
	defer observe("list_clicks")()

	query := `
		SELECT id, link_id, profile_id, clicked_at, host(ip_address), user_agent, referrer
		FROM click_events
		WHERE link_id = $1
		ORDER BY clicked_at DESC, id DESC
	`

	rows, err := r.db.Query(ctx, query, linkID)
	if err != nil {
		return nil, storeError("list clicks", err)
	}
	defer rows.Close()

	clicks := []*domain.ClickEvent{}
	for rows.Next() {
		click := &domain.ClickEvent{}
		err := rows.Scan(
			&click.ID,
			&click.LinkID,
			&click.ProfileID,
			&click.ClickedAt,
			&click.IPAddress,
			&click.UserAgent,
			&click.Referrer,
		)
		if err != nil {
			return nil, storeError("scan click", err)
		}
		clicks = append(clicks, click)
	}

	if err := rows.Err(); err != nil {
		return nil, storeError("iterate clicks", err)
	}

	return clicks, nil
}

func (r *clickRepository) Count(ctx context.Context, filter domain.EventFilter) (domain.EventCounts, error) {
	return clickTable.count(ctx, r.db, filter)
}

func (r *clickRepository) CountByReferrer(ctx context.Context, filter domain.EventFilter) ([]domain.ReferrerCount, error) {
	return clickTable.countByReferrer(ctx, r.db, filter)
}

func (r *clickRepository) CountByPeriod(ctx context.Context, filter domain.EventFilter, granularity domain.Granularity) ([]domain.PeriodCount, error) {
	return clickTable.countByPeriod(ctx, r.db, filter, granularity)
}
