package service

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"linkpro-analytics/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTracking(m *mocks, n Notifier) *TrackingService {
	return NewTrackingService(m.profiles, m.links, m.clicks, m.views, n)
}

func TestTrackClick_Success(t *testing.T) {
	// Arrange
	ctx := context.Background()
	m := newMocks()
	notifier := new(MockNotifier)
	svc := newTracking(m, notifier)
	clickedAt := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	m.links.On("GetByID", ctx, int64(5)).Return(&domain.Link{ID: 5, ProfileID: 1}, nil)
	m.profiles.On("GetByID", ctx, int64(1)).Return(testProfile(1), nil)
	m.clicks.On("Create", ctx, mock.AnythingOfType("*domain.ClickEvent")).
		Run(func(args mock.Arguments) {
			c := args.Get(1).(*domain.ClickEvent)
			c.ID = 42
			c.ClickedAt = clickedAt
		}).
		Return(nil)
	notifier.On("Publish", int64(1), mock.MatchedBy(func(e domain.EventNotification) bool {
		return e.Type == domain.EventTypeClick && e.EventID == 42 && e.LinkID != nil && *e.LinkID == 5
	})).Return()

	// Act
	result, err := svc.TrackClick(ctx, ClickInput{
		LinkID:    5,
		ProfileID: 1,
		IPAddress: "192.168.1.1",
		UserAgent: "Mozilla/5.0",
		Referrer:  "https://instagram.com",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "success", result.Status)
	assert.Equal(t, "Click tracked successfully", result.Message)
	assert.Equal(t, int64(42), result.EventID)
	assert.Equal(t, clickedAt, result.Timestamp)
	m.assertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestTrackClick_StoresSanitizedFields(t *testing.T) {
	// Arrange
	ctx := context.Background()
	m := newMocks()
	svc := newTracking(m, nil)
	longUA := strings.Repeat("x", 1500)

	m.links.On("GetByID", ctx, int64(5)).Return(&domain.Link{ID: 5, ProfileID: 1}, nil)
	m.profiles.On("GetByID", ctx, int64(1)).Return(testProfile(1), nil)
	m.clicks.On("Create", ctx, mock.MatchedBy(func(c *domain.ClickEvent) bool {
		return c.IPAddress == nil && c.Referrer == nil &&
			c.UserAgent != nil && len(*c.UserAgent) == domain.MaxFieldLength
	})).Return(nil)

	// Act
	_, err := svc.TrackClick(ctx, ClickInput{LinkID: 5, ProfileID: 1, UserAgent: longUA})

	// Assert
	require.NoError(t, err)
	m.assertExpectations(t)
}

func TestTrackClick_StoresCleanedText(t *testing.T) {
	// Arrange
	ctx := context.Background()
	m := newMocks()
	svc := newTracking(m, nil)

	m.links.On("GetByID", ctx, int64(5)).Return(&domain.Link{ID: 5, ProfileID: 1}, nil)
	m.profiles.On("GetByID", ctx, int64(1)).Return(testProfile(1), nil)
	m.clicks.On("Create", ctx, mock.MatchedBy(func(c *domain.ClickEvent) bool {
		return c.UserAgent != nil && *c.UserAgent == "bot\uFFFD" &&
			c.Referrer != nil && *c.Referrer == "https://x.com/"
	})).Return(nil)

	// Act
	_, err := svc.TrackClick(ctx, ClickInput{
		LinkID:    5,
		ProfileID: 1,
		IPAddress: "203.0.113.4",
		UserAgent: "bot\xff\xfe",
		Referrer:  "https://x.com/\x00",
	})

	// Assert
	require.NoError(t, err)
	m.assertExpectations(t)
}

func TestTrackView_StoresCleanedText(t *testing.T) {
	// Arrange
	ctx := context.Background()
	m := newMocks()
	svc := newTracking(m, nil)

	m.profiles.On("GetByID", ctx, int64(1)).Return(testProfile(1), nil)
	m.views.On("Create", ctx, mock.MatchedBy(func(v *domain.PageView) bool {
		return v.UserAgent != nil && utf8.ValidString(*v.UserAgent) &&
			!strings.Contains(*v.UserAgent, "\x00") && v.Referrer == nil
	})).Return(nil)

	// Act
	_, err := svc.TrackView(ctx, ViewInput{ProfileID: 1, UserAgent: "curl\x00/8.\xc3"})

	// Assert
	require.NoError(t, err)
	m.assertExpectations(t)
}

func TestTrackClick_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   ClickInput
		setup   func(m *mocks)
		wantErr error
	}{
		{
			name:  "unknown link",
			input: ClickInput{LinkID: 99, ProfileID: 1},
			setup: func(m *mocks) {
				m.links.On("GetByID", mock.Anything, int64(99)).Return(nil, domain.ErrLinkNotFound)
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name:  "unknown profile",
			input: ClickInput{LinkID: 5, ProfileID: 99},
			setup: func(m *mocks) {
				m.links.On("GetByID", mock.Anything, int64(5)).Return(&domain.Link{ID: 5, ProfileID: 1}, nil)
				m.profiles.On("GetByID", mock.Anything, int64(99)).Return(nil, domain.ErrProfileNotFound)
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name:  "link of another profile",
			input: ClickInput{LinkID: 5, ProfileID: 2},
			setup: func(m *mocks) {
				m.links.On("GetByID", mock.Anything, int64(5)).Return(&domain.Link{ID: 5, ProfileID: 1}, nil)
				m.profiles.On("GetByID", mock.Anything, int64(2)).Return(testProfile(2), nil)
			},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:  "malformed IP",
			input: ClickInput{LinkID: 5, ProfileID: 1, IPAddress: "999.1.1.1"},
			setup: func(m *mocks) {
				m.links.On("GetByID", mock.Anything, int64(5)).Return(&domain.Link{ID: 5, ProfileID: 1}, nil)
				m.profiles.On("GetByID", mock.Anything, int64(1)).Return(testProfile(1), nil)
			},
			wantErr: domain.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			m := newMocks()
			tt.setup(m)
			svc := newTracking(m, nil)

			// Act
			result, err := svc.TrackClick(context.Background(), tt.input)

			// Assert
			assert.Nil(t, result)
			assert.ErrorIs(t, err, tt.wantErr)
			m.clicks.AssertNumberOfCalls(t, "Create", 0)
		})
	}
}

func TestTrackView_Success(t *testing.T) {
	// Arrange
	ctx := context.Background()
	m := newMocks()
	notifier := new(MockNotifier)
	svc := newTracking(m, notifier)

	m.profiles.On("GetByID", ctx, int64(1)).Return(testProfile(1), nil)
	m.views.On("Create", ctx, mock.AnythingOfType("*domain.PageView")).
		Run(func(args mock.Arguments) { args.Get(1).(*domain.PageView).ID = 7 }).
		Return(nil)
	notifier.On("Publish", int64(1), mock.MatchedBy(func(e domain.EventNotification) bool {
		return e.Type == domain.EventTypeView && e.EventID == 7 && e.LinkID == nil
	})).Return()

	// Act
	result, err := svc.TrackView(ctx, ViewInput{ProfileID: 1, IPAddress: "2001:db8::1"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Page view tracked successfully", result.Message)
	assert.Equal(t, int64(7), result.EventID)
	notifier.AssertExpectations(t)
}

func TestTrackView_ProfileNotFound(t *testing.T) {
	m := newMocks()
	svc := newTracking(m, nil)

	m.profiles.On("GetByID", mock.Anything, int64(3)).Return(nil, domain.ErrProfileNotFound)

	_, err := svc.TrackView(context.Background(), ViewInput{ProfileID: 3})

	assert.ErrorIs(t, err, domain.ErrNotFound)
	m.views.AssertNumberOfCalls(t, "Create", 0)
}

func TestTrackView_StoreError(t *testing.T) {
	m := newMocks()
	svc := newTracking(m, nil)

	m.profiles.On("GetByID", mock.Anything, int64(1)).Return(testProfile(1), nil)
	m.views.On("Create", mock.Anything, mock.Anything).Return(domain.ErrStoreUnavailable)

	_, err := svc.TrackView(context.Background(), ViewInput{ProfileID: 1})

	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestListLinkClicks(t *testing.T) {
	ctx := context.Background()
	m := newMocks()
	svc := newTracking(m, nil)
	clicks := []*domain.ClickEvent{{ID: 2, LinkID: 5}, {ID: 1, LinkID: 5}}

	m.clicks.On("ListByLink", ctx, int64(5)).Return(clicks, nil)

	got, err := svc.ListLinkClicks(ctx, 5)

	require.NoError(t, err)
	assert.Equal(t, clicks, got)
}
