package postgres

import (
	"context"
	"errors"

	"linkpro-analytics/internal/domain"
	"linkpro-analytics/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// profileRepository is the PostgreSQL implementation of repository.ProfileRepository
type profileRepository struct {
	db *pgxpool.Pool
}

// NewProfileRepository creates a new PostgreSQL profile repository
func NewProfileRepository(db *pgxpool.Pool) repository.ProfileRepository {
	return &profileRepository{db: db}
}

// Create inserts a new profile
func (r *profileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	defer observe("create_profile")()

	query := `
		INSERT INTO link_profiles (username, title)
		VALUES ($1, $2)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query, profile.Username, profile.Title).
		Scan(&profile.ID, &profile.CreatedAt)
	if err != nil {
		return storeError("create profile", err)
	}

	return nil
}

// GetByID retrieves a profile by its ID
func (r *profileRepository) GetByID(ctx context.Context, id int64) (*domain.Profile, error) {
	defer observe("get_profile")()

	query := `
		SELECT id, username, title, created_at
		FROM link_profiles
		WHERE id = $1
	`

	profile := &domain.Profile{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&profile.ID,
		&profile.Username,
		&profile.Title, // pgx handles NULL -> nil conversion automatically
		&profile.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, storeError("get profile", err)
	}

	return profile, nil
}
