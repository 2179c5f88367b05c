package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"strings"

	"linkpro-analytics/internal/domain"
	"linkpro-analytics/internal/repository/postgres"
	"linkpro-analytics/internal/service"
	"linkpro-analytics/pkg/validator"
)

// seedReferrers mixes every traffic bucket; "" is direct traffic
var seedReferrers = []string{
	"https://instagram.com",
	"https://tiktok.com",
	"https://twitter.com",
	"https://t.co/abc123",
	"",
	"https://google.com",
	"https://facebook.com",
}

var seedUserAgents = []string{
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 Instagram 300.0",
	"Mozilla/5.0 (Linux; Android 14) AppleWebKit/537.36 Chrome/120.0 Mobile Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_0) AppleWebKit/605.1.15 Safari/605.1.15",
}

// SeedCommand creates a profile with links and synthetic traffic
// Events go through the tracking service so they obey the same rules as live ingestion
type SeedCommand struct{}

func (c *SeedCommand) Name() string { return "seed" }
func (c *SeedCommand) Description() string {
	return "Create a demo profile with links, clicks and views"
}

func (c *SeedCommand) Execute(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	username := fs.String("profile", "demo", "username of the profile to create")
	title := fs.String("title", "Demo Creator", "display title of the profile")
	urlBase := fs.String("url-base", "https://example.com", "base URL for the generated links")
	numLinks := fs.Int("links", 5, "number of links")
	numClicks := fs.Int("clicks", 200, "number of clicks spread over the links")
	numViews := fs.Int("views", 800, "number of page views")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := validator.ValidateURL(*urlBase); err != nil {
		return fmt.Errorf("invalid -url-base: %w", err)
	}
	if *numLinks < 1 && *numClicks > 0 {
		return fmt.Errorf("-clicks needs at least one link")
	}

	profiles := postgres.NewProfileRepository(env.DB)
	links := postgres.NewLinkRepository(env.DB)
	tracking := service.NewTrackingService(
		profiles,
		links,
		postgres.NewClickRepository(env.DB),
		postgres.NewViewRepository(env.DB),
		nil,
	)

	profile := domain.NewProfile(*username, *title)
	if err := profiles.Create(ctx, profile); err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	env.Logger.Info("profile created", "profile_id", profile.ID, "username", profile.Username)

	base := strings.TrimRight(*urlBase, "/")
	created := make([]*domain.Link, 0, *numLinks)
	for i := range *numLinks {
		link := domain.NewLink(profile.ID, fmt.Sprintf("Link %d", i+1), fmt.Sprintf("%s/%d", base, i+1), i)
		if err := links.Create(ctx, link); err != nil {
			return fmt.Errorf("failed to create link %d: %w", i+1, err)
		}
		created = append(created, link)
	}

	for range *numViews {
		if _, err := tracking.TrackView(ctx, service.ViewInput{
			ProfileID: profile.ID,
			IPAddress: randomIP(),
			UserAgent: pick(seedUserAgents),
			Referrer:  pick(seedReferrers),
		}); err != nil {
			return err
		}
	}

	for range *numClicks {
		// Earlier links get more traffic, like a real page
		link := created[min(rand.IntN(len(created)), rand.IntN(len(created)))]
		if _, err := tracking.TrackClick(ctx, service.ClickInput{
			LinkID:    link.ID,
			ProfileID: profile.ID,
			IPAddress: randomIP(),
			UserAgent: pick(seedUserAgents),
			Referrer:  pick(seedReferrers),
		}); err != nil {
			return err
		}
	}

	fmt.Printf("Seeded profile %q (id %d): %d links, %d clicks, %d views\n",
		profile.Username, profile.ID, len(created), *numClicks, *numViews)
	return nil
}

func pick(values []string) string {
	return values[rand.IntN(len(values))]
}

// randomIP draws from a small pool so unique counts stay below totals
func randomIP() string {
	return fmt.Sprintf("10.0.%d.%d", rand.IntN(4), 1+rand.IntN(50))
}
