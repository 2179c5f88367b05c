package domain

import "time"

// MaxFieldLength is the longest user agent or referrer we store
// Longer values are truncated at ingestion rather than rejected
const MaxFieldLength = 1000

// ClickEvent represents a single click on a profile link
// ProfileID is a denormalized copy of the link's owner so profile-wide
// queries never have to join through links
type ClickEvent struct {
	ID        int64
	LinkID    int64
	ProfileID int64
	ClickedAt time.Time // Assigned by the database at insert time
	IPAddress *string   // nil when the client address is unknown
	UserAgent *string
	Referrer  *string
}

// PageView represents a single view of a profile page
type PageView struct {
	ID        int64
	ProfileID int64
	ViewedAt  time.Time
	IPAddress *string
	UserAgent *string
	Referrer  *string
}

// NewClickEvent creates a click event ready to be persisted
// Empty strings become nil so they are stored as NULL
func NewClickEvent(linkID, profileID int64, ipAddress, userAgent, referrer string) *ClickEvent {
	return &ClickEvent{
		LinkID:    linkID,
		ProfileID: profileID,
		IPAddress: optional(ipAddress),
		UserAgent: optional(userAgent),
		Referrer:  optional(referrer),
	}
}

// NewPageView creates a page view ready to be persisted
func NewPageView(profileID int64, ipAddress, userAgent, referrer string) *PageView {
	return &PageView{
		ProfileID: profileID,
		IPAddress: optional(ipAddress),
		UserAgent: optional(userAgent),
		Referrer:  optional(referrer),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Event types as they appear in metrics labels and live notifications
const (
	EventTypeClick = "click"
	EventTypeView  = "view"
)

// TrackingResult is returned to the caller once an event has been stored
type TrackingResult struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	EventID   int64     `json:"event_id"`
}

// EventNotification is pushed to live subscribers of a profile after ingestion
type EventNotification struct {
	Type      string    `json:"type"`
	ProfileID int64     `json:"profile_id"`
	LinkID    *int64    `json:"link_id,omitempty"`
	EventID   int64     `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`
}
