package subscription

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/bookflix/internal/events"
	"github.com/magabrotheeeer/bookflix/internal/lib/sl"
	"github.com/magabrotheeeer/bookflix/internal/models"
	"github.com/magabrotheeeer/bookflix/internal/storage"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) ListTiers(ctx context.Context) ([]*models.Tier, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Tier), args.Error(1)
}

func (m *RepoMock) GetTier(ctx context.Context, id int) (*models.Tier, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tier), args.Error(1)
}

func (m *RepoMock) GetDefaultTier(ctx context.Context) (*models.Tier, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tier), args.Error(1)
}

func (m *RepoMock) GetCurrentSubscription(ctx context.Context, userUID string, now time.Time) (*models.Subscription, error) {
	args := m.Called(ctx, userUID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *RepoMock) ListSubscriptions(ctx context.Context, userUID string) ([]*models.Subscription, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

func (m *RepoMock) ActivateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error) {
	args := m.Called(ctx, sub)
	if fn, ok := args.Get(0).(func(context.Context, models.Subscription) *models.Subscription); ok {
		return fn(ctx, sub), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, msg any) error {
	return m.Called(ctx, routingKey, msg).Error(0)
}

var (
	fixedNow = time.Date(2024, 2, 25, 12, 0, 0, 0, time.UTC)
	freeTier = &models.Tier{ID: 1, Name: "FREE", Duration: "7D"}
	paidTier = &models.Tier{ID: 2, Name: "BOOKWORM", Duration: "30D", PriceUSD: 9.99, PaymentRequired: true}
	lifeTier = &models.Tier{ID: 3, Name: "FOREVER", Duration: "LT", PriceUSD: 99, PaymentRequired: true}
)

func newTestService(repo *RepoMock, cache *CacheMock, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	s := New(repo, cache, pub, sl.Discard(), time.Hour)
	s.now = func() time.Time { return fixedNow }
	return s
}

// activateReturns заставляет мок хранилища вернуть переданный период с ID.
func activateReturns(repo *RepoMock) {
	repo.On("ActivateSubscription", mock.Anything, mock.Anything).
		Return(func(_ context.Context, sub models.Subscription) *models.Subscription {
			sub.ID = 42
			return &sub
		}, nil)
}

func TestService_Tiers(t *testing.T) {
	tiers := []*models.Tier{freeTier, paidTier}

	tests := []struct {
		name    string
		setup   func(r *RepoMock, c *CacheMock)
		want    []*models.Tier
		wantErr bool
	}{
		{
			name: "from cache",
			setup: func(_ *RepoMock, c *CacheMock) {
				c.On("Get", mock.Anything, "bookflix:tiers", mock.Anything).
					Run(func(args mock.Arguments) {
						out := args.Get(2).(*[]*models.Tier)
						*out = tiers
					}).Return(true, nil)
			},
			want: tiers,
		},
		{
			name: "cache miss loads and stores",
			setup: func(r *RepoMock, c *CacheMock) {
				c.On("Get", mock.Anything, "bookflix:tiers", mock.Anything).Return(false, nil)
				r.On("ListTiers", mock.Anything).Return(tiers, nil)
				c.On("Set", mock.Anything, "bookflix:tiers", tiers, time.Hour).Return(nil)
			},
			want: tiers,
		},
		{
			name: "cache failure falls back to storage",
			setup: func(r *RepoMock, c *CacheMock) {
				c.On("Get", mock.Anything, "bookflix:tiers", mock.Anything).Return(false, errors.New("redis down"))
				r.On("ListTiers", mock.Anything).Return(tiers, nil)
				c.On("Set", mock.Anything, "bookflix:tiers", tiers, time.Hour).Return(errors.New("redis down"))
			},
			want: tiers,
		},
		{
			name: "storage error",
			setup: func(r *RepoMock, c *CacheMock) {
				c.On("Get", mock.Anything, "bookflix:tiers", mock.Anything).Return(false, nil)
				r.On("ListTiers", mock.Anything).Return(nil, errors.New("db error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, c := new(RepoMock), new(CacheMock)
			tt.setup(repo, c)

			got, err := newTestService(repo, c, nil).Tiers(context.Background())
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			repo.AssertExpectations(t)
			c.AssertExpectations(t)
		})
	}
}

func TestService_Tier_NotFound(t *testing.T) {
	repo := new(RepoMock)
	repo.On("GetTier", mock.Anything, 99).Return(nil, storage.ErrNotFound)

	_, err := newTestService(repo, new(CacheMock), nil).Tier(context.Background(), 99)
	assert.ErrorIs(t, err, ErrTierNotFound)
}

func TestService_Current(t *testing.T) {
	repo := new(RepoMock)
	sub := &models.Subscription{ID: 1, UserUID: "u1", TierID: 2, IsActive: true, EndDate: fixedNow.Add(time.Hour)}
	expired := &models.Subscription{ID: 2, UserUID: "u3", TierID: 2, IsActive: true, EndDate: fixedNow.Add(-time.Second)}
	repo.On("GetCurrentSubscription", mock.Anything, "u1", fixedNow).Return(sub, nil)
	repo.On("GetCurrentSubscription", mock.Anything, "u2", fixedNow).Return(nil, storage.ErrNotFound)
	repo.On("GetCurrentSubscription", mock.Anything, "u3", fixedNow).Return(expired, nil)
	s := newTestService(repo, new(CacheMock), nil)

	got, err := s.Current(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, sub, got)

	_, err = s.Current(context.Background(), "u2")
	assert.ErrorIs(t, err, ErrNoActiveSubscription)

	ok, err := s.Status(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Status(context.Background(), "u2")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = s.Status(context.Background(), "u3")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestService_Upgrade(t *testing.T) {
	t.Run("switches tier", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetTier", mock.Anything, paidTier.ID).Return(paidTier, nil)
		repo.On("GetCurrentSubscription", mock.Anything, "u1", fixedNow).
			Return(&models.Subscription{ID: 1, UserUID: "u1", TierID: freeTier.ID, IsActive: true}, nil)
		activateReturns(repo)

		pub := new(PublisherMock)
		pub.On("Publish", mock.Anything, events.SubscriptionActivated, mock.MatchedBy(func(e models.SubscriptionActivated) bool {
			return e.UserUID == "u1" && e.TierID == paidTier.ID && e.Source == SourceUpgrade
		})).Return(nil)

		sub, err := newTestService(repo, new(CacheMock), pub).Upgrade(context.Background(), "u1", paidTier.ID)
		require.NoError(t, err)
		assert.Equal(t, paidTier.ID, sub.TierID)
		assert.True(t, sub.IsActive)
		assert.Equal(t, fixedNow, sub.StartDate)
		assert.Equal(t, fixedNow.AddDate(0, 0, 30), sub.EndDate)
		require.NotNil(t, sub.Tier)
		assert.Equal(t, "BOOKWORM", sub.Tier.Name)
		pub.AssertExpectations(t)
	})

	t.Run("same tier makes no write", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetTier", mock.Anything, paidTier.ID).Return(paidTier, nil)
		repo.On("GetCurrentSubscription", mock.Anything, "u1", fixedNow).
			Return(&models.Subscription{ID: 1, UserUID: "u1", TierID: paidTier.ID, IsActive: true}, nil)

		_, err := newTestService(repo, new(CacheMock), nil).Upgrade(context.Background(), "u1", paidTier.ID)
		assert.ErrorIs(t, err, ErrSameTier)
		repo.AssertNotCalled(t, "ActivateSubscription", mock.Anything, mock.Anything)
	})

	t.Run("unknown tier", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetTier", mock.Anything, 77).Return(nil, storage.ErrNotFound)

		_, err := newTestService(repo, new(CacheMock), nil).Upgrade(context.Background(), "u1", 77)
		assert.ErrorIs(t, err, ErrTierNotFound)
		repo.AssertNotCalled(t, "ActivateSubscription", mock.Anything, mock.Anything)
	})

	t.Run("first subscription", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetTier", mock.Anything, lifeTier.ID).Return(lifeTier, nil)
		repo.On("GetCurrentSubscription", mock.Anything, "u1", fixedNow).Return(nil, storage.ErrNotFound)
		activateReturns(repo)

		sub, err := newTestService(repo, new(CacheMock), nil).Upgrade(context.Background(), "u1", lifeTier.ID)
		require.NoError(t, err)
		assert.Equal(t, fixedNow.Add(36500*24*time.Hour), sub.EndDate)
	})

	t.Run("publish failure does not fail upgrade", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetTier", mock.Anything, freeTier.ID).Return(freeTier, nil)
		repo.On("GetCurrentSubscription", mock.Anything, "u1", fixedNow).Return(nil, storage.ErrNotFound)
		activateReturns(repo)
		pub := new(PublisherMock)
		pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

		sub, err := newTestService(repo, new(CacheMock), pub).Upgrade(context.Background(), "u1", freeTier.ID)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 3, 3, 12, 0, 0, 0, time.UTC), sub.EndDate)
	})
}

func TestService_ActivateDefault(t *testing.T) {
	t.Run("no free tier", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetDefaultTier", mock.Anything).Return(nil, storage.ErrNotFound)

		sub, err := newTestService(repo, new(CacheMock), nil).ActivateDefault(context.Background(), "u1")
		require.NoError(t, err)
		assert.Nil(t, sub)
	})

	t.Run("activates free tier", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetDefaultTier", mock.Anything).Return(freeTier, nil)
		activateReturns(repo)

		sub, err := newTestService(repo, new(CacheMock), nil).ActivateDefault(context.Background(), "u1")
		require.NoError(t, err)
		require.NotNil(t, sub)
		assert.Equal(t, freeTier.ID, sub.TierID)
		assert.Equal(t, fixedNow.AddDate(0, 0, 7), sub.EndDate)
	})
}
