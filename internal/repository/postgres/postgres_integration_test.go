//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"linkpro-analytics/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// setupDB starts a throwaway PostgreSQL and applies the schema
func setupDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("linkpro_analytics_test"),
		tcpostgres.WithUsername("linkpro"),
		tcpostgres.WithPassword("linkpro_test_password"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Skipf("PostgreSQL container not available: %v", err)
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := InitDB(ctx, dsn, 5, 1, time.Hour)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, Migrate(ctx, db))
	// Running it twice must be harmless
	require.NoError(t, Migrate(ctx, db))

	return db
}

type fixture struct {
	profile *domain.Profile
	links   []*domain.Link
}

func seedProfile(t *testing.T, db *pgxpool.Pool, username string, positions ...int) fixture {
	t.Helper()
	ctx := context.Background()

	profile := domain.NewProfile(username, "")
	require.NoError(t, NewProfileRepository(db).Create(ctx, profile))

	f := fixture{profile: profile}
	for i, pos := range positions {
		link := domain.NewLink(profile.ID, "link", "https://example.com/"+username, pos)
		require.NoError(t, NewLinkRepository(db).Create(ctx, link), "link %d", i)
		f.links = append(f.links, link)
	}
	return f
}

func TestProfileAndLinkRepositories(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	f := seedProfile(t, db, "creator", 2, 0, 0)

	t.Run("profile round trip", func(t *testing.T) {
		got, err := NewProfileRepository(db).GetByID(ctx, f.profile.ID)

		require.NoError(t, err)
		assert.Equal(t, "creator", got.Username)
		assert.Nil(t, got.Title)
	})

	t.Run("missing profile", func(t *testing.T) {
		_, err := NewProfileRepository(db).GetByID(ctx, 999999)

		assert.ErrorIs(t, err, domain.ErrProfileNotFound)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("missing link", func(t *testing.T) {
		_, err := NewLinkRepository(db).GetByID(ctx, 999999)

		assert.ErrorIs(t, err, domain.ErrLinkNotFound)
	})

	t.Run("links ordered by position then id", func(t *testing.T) {
		links, err := NewLinkRepository(db).ListByProfile(ctx, f.profile.ID)

		require.NoError(t, err)
		require.Len(t, links, 3)
		assert.Equal(t, []int64{f.links[1].ID, f.links[2].ID, f.links[0].ID},
			[]int64{links[0].ID, links[1].ID, links[2].ID})
	})

	t.Run("duplicate username", func(t *testing.T) {
		err := NewProfileRepository(db).Create(ctx, domain.NewProfile("creator", ""))

		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	})
}

func TestEventRepositories_Aggregates(t *testing.T) {
	// Arrange
	db := setupDB(t)
	ctx := context.Background()
	f := seedProfile(t, db, "events", 0, 1)
	other := seedProfile(t, db, "other", 0)

	clicks := NewClickRepository(db)
	views := NewViewRepository(db)

	for _, c := range []*domain.ClickEvent{
		domain.NewClickEvent(f.links[0].ID, f.profile.ID, "10.0.0.1", "ua", "https://tiktok.com/@x"),
		domain.NewClickEvent(f.links[0].ID, f.profile.ID, "10.0.0.1", "ua", "https://tiktok.com/@y"),
		domain.NewClickEvent(f.links[1].ID, f.profile.ID, "10.0.0.2", "", ""),
		domain.NewClickEvent(f.links[1].ID, f.profile.ID, "", "", "https://instagram.com"),
		domain.NewClickEvent(other.links[0].ID, other.profile.ID, "10.0.0.9", "", ""),
	} {
		require.NoError(t, clicks.Create(ctx, c))
		require.NotZero(t, c.ID)
		require.False(t, c.ClickedAt.IsZero())
	}
	for _, v := range []*domain.PageView{
		domain.NewPageView(f.profile.ID, "10.0.0.1", "", ""),
		domain.NewPageView(f.profile.ID, "10.0.0.3", "", "https://tiktok.com"),
		domain.NewPageView(f.profile.ID, "2001:db8::1", "", ""),
		domain.NewPageView(f.profile.ID, "", "", ""),
	} {
		require.NoError(t, views.Create(ctx, v))
	}

	profileFilter := domain.EventFilter{ProfileID: f.profile.ID}

	t.Run("counts exclude other profiles, null ips are one visitor", func(t *testing.T) {
		c, err := clicks.Count(ctx, profileFilter)
		require.NoError(t, err)
		assert.Equal(t, domain.EventCounts{Total: 4, Unique: 3}, c)

		v, err := views.Count(ctx, profileFilter)
		require.NoError(t, err)
		assert.Equal(t, domain.EventCounts{Total: 4, Unique: 4}, v)
	})

	t.Run("empty window counts nothing", func(t *testing.T) {
		c, err := clicks.Count(ctx, domain.EventFilter{ProfileID: 999999})

		require.NoError(t, err)
		assert.Equal(t, domain.EventCounts{}, c)
	})

	t.Run("link filter", func(t *testing.T) {
		filter := profileFilter
		filter.LinkID = &f.links[0].ID

		c, err := clicks.Count(ctx, filter)

		require.NoError(t, err)
		assert.Equal(t, int64(2), c.Total)
		assert.Equal(t, int64(1), c.Unique)
	})

	t.Run("window bounds", func(t *testing.T) {
		future := time.Now().Add(time.Hour)
		filter := profileFilter
		filter.Window = domain.TimeRange{Start: &future}

		c, err := clicks.Count(ctx, filter)

		require.NoError(t, err)
		assert.Equal(t, int64(0), c.Total)
	})

	t.Run("half-open period excludes its end", func(t *testing.T) {
		linkClicks, err := clicks.ListByLink(ctx, f.links[1].ID)
		require.NoError(t, err)
		newest := linkClicks[0].ClickedAt

		filter := domain.EventFilter{ProfileID: f.profile.ID, LinkID: &f.links[1].ID}
		filter.Window = domain.NewPeriod(newest.Add(-time.Hour), newest)
		open, err := clicks.Count(ctx, filter)
		require.NoError(t, err)

		filter.Window = domain.NewTimeRange(newest.Add(-time.Hour), newest)
		closed, err := clicks.Count(ctx, filter)
		require.NoError(t, err)

		assert.Equal(t, int64(1), open.Total)
		assert.Equal(t, int64(2), closed.Total)
	})

	t.Run("referrer groups", func(t *testing.T) {
		groups, err := clicks.CountByReferrer(ctx, profileFilter)

		require.NoError(t, err)
		byReferrer := map[string]int64{}
		for _, g := range groups {
			byReferrer[g.Referrer] += g.Count
		}
		assert.Equal(t, map[string]int64{
			"https://tiktok.com/@x": 1,
			"https://tiktok.com/@y": 1,
			"":                      1,
			"https://instagram.com": 1,
		}, byReferrer)
	})

	t.Run("period buckets are truncated in UTC", func(t *testing.T) {
		periods, err := views.CountByPeriod(ctx, profileFilter, domain.GranularityDaily)

		require.NoError(t, err)
		require.Len(t, periods, 1)
		p := periods[0]
		assert.Equal(t, int64(4), p.Count)
		// Bucket uniques skip events without an IP
		assert.Equal(t, int64(3), p.Unique)
		assert.Equal(t, time.UTC, p.Period.Location())
		assert.Equal(t, p.Period.Truncate(24*time.Hour), p.Period)
	})

	t.Run("hourly buckets", func(t *testing.T) {
		periods, err := clicks.CountByPeriod(ctx, profileFilter, domain.GranularityHourly)

		require.NoError(t, err)
		var total int64
		for _, p := range periods {
			assert.Zero(t, p.Period.Minute())
			total += p.Count
		}
		assert.Equal(t, int64(4), total)
	})

	t.Run("raw listings", func(t *testing.T) {
		linkClicks, err := clicks.ListByLink(ctx, f.links[1].ID)
		require.NoError(t, err)
		require.Len(t, linkClicks, 2)
		assert.Nil(t, linkClicks[0].IPAddress)
		require.NotNil(t, linkClicks[1].IPAddress)
		assert.Equal(t, "10.0.0.2", *linkClicks[1].IPAddress)

		profileViews, err := views.ListByProfile(ctx, f.profile.ID)
		require.NoError(t, err)
		assert.Len(t, profileViews, 4)

		none, err := clicks.ListByLink(ctx, 999999)
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func TestServerVersion(t *testing.T) {
	db := setupDB(t)

	version, err := ServerVersion(context.Background(), db)

	require.NoError(t, err)
	assert.Contains(t, version, "PostgreSQL")
}
