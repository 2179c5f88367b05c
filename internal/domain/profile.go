package domain

import "time"

// Profile is the owner of a link-in-bio page
// Every click and page view is recorded under exactly one profile
type Profile struct {
	ID        int64     // Auto-incrementing ID
	Username  string    // Unique handle (e.g., "jane")
	Title     *string   // Optional display title (pointer = nullable)
	CreatedAt time.Time // When the profile was created
}

// Link is one trackable outbound URL on a profile's page
type Link struct {
	ID        int64
	ProfileID int64 // Foreign key to Profile
	Title     string
	URL       string
	Position  int // Display order on the page, ties broken by ID
	CreatedAt time.Time
}

// BelongsTo reports whether the link is owned by the given profile
// Click events copy the link's owner, so a mismatch would break per-profile totals
func (l *Link) BelongsTo(profileID int64) bool {
	return l.ProfileID == profileID
}

// NewProfile creates a profile with the given username and optional title
func NewProfile(username, title string) *Profile {
	p := &Profile{
		Username:  username,
		CreatedAt: time.Now(),
	}
	if title != "" {
		p.Title = &title
	}
	return p
}

// NewLink creates a link for a profile at the given position
func NewLink(profileID int64, title, url string, position int) *Link {
	return &Link{
		ProfileID: profileID,
		Title:     title,
		URL:       url,
		Position:  position,
		CreatedAt: time.Now(),
	}
}
