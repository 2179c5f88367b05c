package service

import (
	"context"
	"time"

	"linkpro-analytics/internal/domain"

	"github.com/stretchr/testify/mock"
)

// ==================== MOCKS ====================

// MockProfileRepository is a mock implementation of ProfileRepository
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockProfileRepository) GetByID(ctx context.Context, id int64) (*domain.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}

// MockLinkRepository is a mock implementation of LinkRepository
type MockLinkRepository struct {
	mock.Mock
}

func (m *MockLinkRepository) Create(ctx context.Context, link *domain.Link) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

func (m *MockLinkRepository) GetByID(ctx context.Context, id int64) (*domain.Link, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Link), args.Error(1)
}

func (m *MockLinkRepository) ListByProfile(ctx context.Context, profileID int64) ([]*domain.Link, error) {
	args := m.Called(ctx, profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Link), args.Error(1)
}

// MockClickRepository is a mock implementation of ClickRepository
type MockClickRepository struct {
	mock.Mock
}

func (m *MockClickRepository) Create(ctx context.Context, click *domain.ClickEvent) error {
	args := m.Called(ctx, click)
	return args.Error(0)
}

func (m *MockClickRepository) ListByLink(ctx context.Context, linkID int64) ([]*domain.ClickEvent, error) {
	args := m.Called(ctx, linkID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ClickEvent), args.Error(1)
}

func (m *MockClickRepository) Count(ctx context.Context, filter domain.EventFilter) (domain.EventCounts, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(domain.EventCounts), args.Error(1)
}

func (m *MockClickRepository) CountByReferrer(ctx context.Context, filter domain.EventFilter) ([]domain.ReferrerCount, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReferrerCount), args.Error(1)
}

func (m *MockClickRepository) CountByPeriod(ctx context.Context, filter domain.EventFilter, granularity domain.Granularity) ([]domain.PeriodCount, error) {
	args := m.Called(ctx, filter, granularity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PeriodCount), args.Error(1)
}

// MockViewRepository is a mock implementation of ViewRepository
type MockViewRepository struct {
	mock.Mock
}

func (m *MockViewRepository) Create(ctx context.Context, view *domain.PageView) error {
	args := m.Called(ctx, view)
	return args.Error(0)
}

func (m *MockViewRepository) ListByProfile(ctx context.Context, profileID int64) ([]*domain.PageView, error) {
	args := m.Called(ctx, profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PageView), args.Error(1)
}

func (m *MockViewRepository) Count(ctx context.Context, filter domain.EventFilter) (domain.EventCounts, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(domain.EventCounts), args.Error(1)
}

func (m *MockViewRepository) CountByReferrer(ctx context.Context, filter domain.EventFilter) ([]domain.ReferrerCount, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReferrerCount), args.Error(1)
}

func (m *MockViewRepository) CountByPeriod(ctx context.Context, filter domain.EventFilter, granularity domain.Granularity) ([]domain.PeriodCount, error) {
	args := m.Called(ctx, filter, granularity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PeriodCount), args.Error(1)
}

// MockNotifier records published events
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Publish(profileID int64, event domain.EventNotification) {
	m.Called(profileID, event)
}

// ==================== HELPERS ====================

type mocks struct {
	profiles *MockProfileRepository
	links    *MockLinkRepository
	clicks   *MockClickRepository
	views    *MockViewRepository
}

func newMocks() *mocks {
	return &mocks{
		profiles: new(MockProfileRepository),
		links:    new(MockLinkRepository),
		clicks:   new(MockClickRepository),
		views:    new(MockViewRepository),
	}
}

func (m *mocks) analytics(now time.Time) *AnalyticsService {
	return NewAnalyticsService(m.profiles, m.links, m.clicks, m.views).
		WithClock(func() time.Time { return now })
}

func (m *mocks) assertExpectations(t mock.TestingT) {
	m.profiles.AssertExpectations(t)
	m.links.AssertExpectations(t)
	m.clicks.AssertExpectations(t)
	m.views.AssertExpectations(t)
}

func testProfile(id int64) *domain.Profile {
	title := "Creator Links"
	return &domain.Profile{
		ID:        id,
		Username:  "creator",
		Title:     &title,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// linkFilter matches click filters scoped to one link
func linkFilter(linkID int64) any {
	return mock.MatchedBy(func(f domain.EventFilter) bool {
		return f.LinkID != nil && *f.LinkID == linkID
	})
}

// profileFilter matches filters that cover the whole profile
func profileFilter() any {
	return mock.MatchedBy(func(f domain.EventFilter) bool {
		return f.LinkID == nil
	})
}
