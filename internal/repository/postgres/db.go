package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"linkpro-analytics/internal/domain"
	"linkpro-analytics/internal/metrics"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

// InitDB initializes the database connection pool
// This is called once at application startup and the pool is then handed to
// every repository constructor
func InitDB(ctx context.Context, dsn string, maxConns, minConns int, maxLifetime time.Duration) (*pgxpool.Pool, error) {
	// Parse the connection string and create a config
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	// Configure connection pool settings
	config.MaxConns = int32(maxConns)
	config.MinConns = int32(minConns)
	config.MaxConnLifetime = maxLifetime
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	// date_trunc buckets follow the session time zone; pin it so hourly and
	// daily buckets mean the same thing on every connection
	config.ConnConfig.RuntimeParams["timezone"] = "UTC"

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test the connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// Migrate creates the tables and indexes if they don't exist yet
// The statements are idempotent, so running it on every start is safe
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// ServerVersion returns the PostgreSQL version string
// Used by the health endpoint and `linkctl check-db`
func ServerVersion(ctx context.Context, db *pgxpool.Pool) (string, error) {
	var version string
	if err := db.QueryRow(ctx, "SELECT version()").Scan(&version); err != nil {
		return "", storeError("query server version", err)
	}
	return version, nil
}

// storeError wraps a driver error so callers can match domain.ErrStoreUnavailable
// while the original message is preserved for the 500 response
func storeError(op string, err error) error {
	metrics.DatabaseErrorsTotal.WithLabelValues(op).Inc()
	return fmt.Errorf("failed to %s: %w: %w", op, domain.ErrStoreUnavailable, err)
}

// observe records how long a query took
// Usage: defer observe("count_clicks")()
func observe(op string) func() {
	start := time.Now()
	return func() {
		metrics.DatabaseQueryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}

// eventWhere builds the WHERE clause shared by every click and view aggregate
// tsColumn is clicked_at or viewed_at; the link condition is only added when
// the filter carries one (views never do)
func eventWhere(filter domain.EventFilter, tsColumn string) (string, []any) {
	conds := []string{"profile_id = $1"}
	args := []any{filter.ProfileID}

	if filter.LinkID != nil {
		args = append(args, *filter.LinkID)
		conds = append(conds, fmt.Sprintf("link_id = $%d", len(args)))
	}
	if filter.Window.Start != nil {
		args = append(args, *filter.Window.Start)
		conds = append(conds, fmt.Sprintf("%s >= $%d", tsColumn, len(args)))
	}
	if filter.Window.End != nil {
		op := "<="
		if filter.Window.ExcludeEnd {
			op = "<"
		}
		args = append(args, *filter.Window.End)
		conds = append(conds, fmt.Sprintf("%s %s $%d", tsColumn, op, len(args)))
	}

	return strings.Join(conds, " AND "), args
}

// truncUnit maps a granularity to its date_trunc field
func truncUnit(g domain.Granularity) string {
	if g == domain.GranularityHourly {
		return "hour"
	}
	return "day"
}
