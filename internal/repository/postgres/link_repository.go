package postgres

import (
	"context"
	"errors"

	"linkpro-analytics/internal/domain"
	"linkpro-analytics/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// linkRepository is the PostgreSQL implementation of repository.LinkRepository
type linkRepository struct {
	db *pgxpool.Pool
}

// NewLinkRepository creates a new PostgreSQL link repository
func NewLinkRepository(db *pgxpool.Pool) repository.LinkRepository {
	return &linkRepository{db: db}
}

// Create inserts a new link
func (r *linkRepository) Create(ctx context.Context, link *domain.Link) error {
	defer observe("create_link")()

	query := `
		INSERT INTO links (profile_id, title, url, position)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query, link.ProfileID, link.Title, link.URL, link.Position).
		Scan(&link.ID, &link.CreatedAt)
	if err != nil {
		return storeError("create link", err)
	}

	return nil
}

// GetByID retrieves a link by its ID
func (r *linkRepository) GetByID(ctx context.Context, id int64) (*domain.Link, error) {
	defer observe("get_link")()

	query := `
		SELECT id, profile_id, title, url, position, created_at
		FROM links
		WHERE id = $1
	`

	link := &domain.Link{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&link.ID,
		&link.ProfileID,
		&link.Title,
		&link.URL,
		&link.Position,
		&link.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLinkNotFound
		}
		return nil, storeError("get link", err)
	}

	return link, nil
}

// ListByProfile returns all links of a profile in display order
func (r *linkRepository) ListByProfile(ctx context.Context, profileID int64) ([]*domain.Link, error) {
	defer observe("list_links")()

	query := `
		SELECT id, profile_id, title, url, position, created_at
		FROM links
		WHERE profile_id = $1
		ORDER BY position ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, profileID)
	if err != nil {
		return nil, storeError("list links", err)
	}
	defer rows.Close() // Always close rows to release the pooled connection

	links := []*domain.Link{}
	for rows.Next() {
		link := &domain.Link{}
		if err := rows.Scan(
			&link.ID,
			&link.ProfileID,
			&link.Title,
			&link.URL,
			&link.Position,
			&link.CreatedAt,
		); err != nil {
			return nil, storeError("scan link", err)
		}
		links = append(links, link)
	}

	if err := rows.Err(); err != nil {
		return nil, storeError("iterate links", err)
	}

	return links, nil
}
