package postgres

import (
	"context"
	"fmt"

	"linkpro-analytics/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// eventTable describes one of the two event tables
// Clicks and views are aggregated with identical SQL apart from these names
type eventTable struct {
	name     string // click_events or page_views
	tsColumn string // clicked_at or viewed_at
	label    string // used in metric labels and error messages
}

var (
	clickTable = eventTable{name: "click_events", tsColumn: "clicked_at", label: "clicks"}
	viewTable  = eventTable{name: "page_views", tsColumn: "viewed_at", label: "views"}
)

// count returns the total and the number of distinct client IPs
// Events without an IP form one extra visitor between them
func (t eventTable) count(ctx context.Context, db *pgxpool.Pool, filter domain.EventFilter) (domain.EventCounts, error) {
	defer observe("count_" + t.label)()

	where, args := eventWhere(filter, t.tsColumn)
	query := fmt.Sprintf(
		`SELECT COUNT(*),
			COUNT(DISTINCT ip_address) + CASE WHEN bool_or(ip_address IS NULL) THEN 1 ELSE 0 END
		FROM %s WHERE %s`,
		t.name, where,
	)

	var counts domain.EventCounts
	if err := db.QueryRow(ctx, query, args...).Scan(&counts.Total, &counts.Unique); err != nil {
		return domain.EventCounts{}, storeError("count "+t.label, err)
	}

	return counts, nil
}

// countByReferrer groups events by their raw referrer
// NULL and empty referrers collapse into the same "" group
func (t eventTable) countByReferrer(ctx context.Context, db *pgxpool.Pool, filter domain.EventFilter) ([]domain.ReferrerCount, error) {
	defer observe("referrers_" + t.label)()

	where, args := eventWhere(filter, t.tsColumn)
	query := fmt.Sprintf(`
		SELECT COALESCE(referrer, '') AS ref, COUNT(*)
		FROM %s
		WHERE %s
		GROUP BY ref
	`, t.name, where)

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, storeError("count "+t.label+" by referrer", err)
	}
	defer rows.Close()

	var result []domain.ReferrerCount
	for rows.Next() {
		var rc domain.ReferrerCount
		if err := rows.Scan(&rc.Referrer, &rc.Count); err != nil {
			return nil, storeError("scan referrer count", err)
		}
		result = append(result, rc)
	}

	if err := rows.Err(); err != nil {
		return nil, storeError("iterate referrer counts", err)
	}

	return result, nil
}

// countByPeriod buckets events with date_trunc
// The unit comes from truncUnit, never from user input, so formatting it into
// the query is safe
func (t eventTable) countByPeriod(ctx context.Context, db *pgxpool.Pool, filter domain.EventFilter, g domain.Granularity) ([]domain.PeriodCount, error) {
	defer observe("periods_" + t.label)()

	where, args := eventWhere(filter, t.tsColumn)
	query := fmt.Sprintf(`
		SELECT date_trunc('%s', %s) AS period, COUNT(*), COUNT(DISTINCT ip_address)
		FROM %s
		WHERE %s
		GROUP BY period
		ORDER BY period
	`, truncUnit(g), t.tsColumn, t.name, where)

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, storeError("count "+t.label+" by period", err)
	}
	defer rows.Close()

	var result []domain.PeriodCount
	for rows.Next() {
		var pc domain.PeriodCount
		if err := rows.Scan(&pc.Period, &pc.Count, &pc.Unique); err != nil {
			return nil, storeError("scan period count", err)
		}
		pc.Period = pc.Period.UTC()
		result = append(result, pc)
	}

	if err := rows.Err(); err != nil {
		return nil, storeError("iterate period counts", err)
	}

	return result, nil
}
