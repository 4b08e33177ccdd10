// Package subscription содержит бизнес-логику жизненного цикла подписок:
// каталог тарифов, текущая подписка, смена тарифа и активация периода.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/bookflix/internal/cache"
	"github.com/magabrotheeeer/bookflix/internal/events"
	"github.com/magabrotheeeer/bookflix/internal/lib/period"
	"github.com/magabrotheeeer/bookflix/internal/lib/sl"
	"github.com/magabrotheeeer/bookflix/internal/metrics"
	"github.com/magabrotheeeer/bookflix/internal/models"
	"github.com/magabrotheeeer/bookflix/internal/storage"
)

// Источники активации подписки.
const (
	SourceSignup  = "signup"
	SourceUpgrade = "upgrade"
	SourcePayment = "payment"
)

var (
	// ErrTierNotFound тариф не существует.
	ErrTierNotFound = errors.New("subscription tier not found")
	// ErrSameTier пользователь уже подписан на этот тариф.
	ErrSameTier = errors.New("already subscribed to this tier")
	// ErrNoActiveSubscription у пользователя нет действующей подписки.
	ErrNoActiveSubscription = errors.New("no active subscription found")
)

// Repository методы хранилища, нужные сервису подписок.
type Repository interface {
	ListTiers(ctx context.Context) ([]*models.Tier, error)
	GetTier(ctx context.Context, id int) (*models.Tier, error)
	GetDefaultTier(ctx context.Context) (*models.Tier, error)
	GetCurrentSubscription(ctx context.Context, userUID string, now time.Time) (*models.Subscription, error)
	ListSubscriptions(ctx context.Context, userUID string) ([]*models.Subscription, error)
	ActivateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// Service управляет подписками пользователей.
type Service struct {
	repo      Repository
	cache     Cache
	publisher events.Publisher
	log       *slog.Logger
	tiersTTL  time.Duration
	now       func() time.Time
}

// New создает сервис подписок.
func New(repo Repository, cache Cache, publisher events.Publisher, log *slog.Logger, tiersTTL time.Duration) *Service {
	return &Service{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		log:       log,
		tiersTTL:  tiersTTL,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Tiers возвращает каталог тарифов, используя кеш.
func (s *Service) Tiers(ctx context.Context) ([]*models.Tier, error) {
	const op = "subscription.Tiers"

	var tiers []*models.Tier
	found, err := s.cache.Get(ctx, cache.TiersKey, &tiers)
	if err != nil {
		s.log.Warn("failed to read tiers from cache", sl.Err(err))
	}
	if found {
		return tiers, nil
	}

	tiers, err = s.repo.ListTiers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Set(ctx, cache.TiersKey, tiers, s.tiersTTL); err != nil {
		s.log.Warn("failed to cache tiers", sl.Err(err))
	}
	return tiers, nil
}

// Tier возвращает тариф по ID.
func (s *Service) Tier(ctx context.Context, id int) (*models.Tier, error) {
	const op = "subscription.Tier"

	tier, err := s.repo.GetTier(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, ErrTierNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return tier, nil
}

// Current возвращает действующую подписку пользователя.
func (s *Service) Current(ctx context.Context, userUID string) (*models.Subscription, error) {
	const op = "subscription.Current"

	sub, err := s.repo.GetCurrentSubscription(ctx, userUID, s.now())
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, ErrNoActiveSubscription)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// List возвращает все периоды подписки пользователя.
func (s *Service) List(ctx context.Context, userUID string) ([]*models.Subscription, error) {
	const op = "subscription.List"

	subs, err := s.repo.ListSubscriptions(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return subs, nil
}

// Status сообщает, есть ли у пользователя действующая подписка.
func (s *Service) Status(ctx context.Context, userUID string) (bool, error) {
	sub, err := s.Current(ctx, userUID)
	if errors.Is(err, ErrNoActiveSubscription) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return sub.IsValid(s.now()), nil
}

// Upgrade переводит пользователя на тариф tierID. Повторный выбор
// текущего тарифа ничего не меняет и возвращает ErrSameTier.
func (s *Service) Upgrade(ctx context.Context, userUID string, tierID int) (*models.Subscription, error) {
	const op = "subscription.Upgrade"

	tier, err := s.Tier(ctx, tierID)
	if err != nil {
		return nil, err
	}

	current, err := s.Current(ctx, userUID)
	switch {
	case err == nil && current.TierID == tier.ID:
		return nil, fmt.Errorf("%s: %w", op, ErrSameTier)
	case err != nil && !errors.Is(err, ErrNoActiveSubscription):
		return nil, err
	}

	return s.Activate(ctx, userUID, tier, SourceUpgrade)
}

// Activate создает новый период подписки на тариф, деактивируя предыдущие.
func (s *Service) Activate(ctx context.Context, userUID string, tier *models.Tier, source string) (*models.Subscription, error) {
	const op = "subscription.Activate"

	start := s.now()
	sub, err := s.repo.ActivateSubscription(ctx, models.Subscription{
		UserUID:   userUID,
		TierID:    tier.ID,
		StartDate: start,
		EndDate:   period.EndDate(start, tier.Duration),
		IsActive:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if sub.Tier == nil {
		sub.Tier = tier
	}

	s.log.Info("subscription activated",
		slog.String("user_uid", userUID),
		slog.String("tier", tier.Name),
		slog.String("source", source),
		slog.Time("end_date", sub.EndDate),
	)
	s.Notify(ctx, sub, source)
	return sub, nil
}

// ActivateDefault выдает новому пользователю бесплатный тариф, если он есть в каталоге.
func (s *Service) ActivateDefault(ctx context.Context, userUID string) (*models.Subscription, error) {
	const op = "subscription.ActivateDefault"

	tier, err := s.repo.GetDefaultTier(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.Activate(ctx, userUID, tier, SourceSignup)
}

// Notify учитывает активацию в метриках и публикует событие.
// Ошибка публикации только логируется.
func (s *Service) Notify(ctx context.Context, sub *models.Subscription, source string) {
	tierName := ""
	if sub.Tier != nil {
		tierName = sub.Tier.Name
	}
	metrics.SubscriptionsActivated.WithLabelValues(tierName, source).Inc()

	err := s.publisher.Publish(ctx, events.SubscriptionActivated, models.SubscriptionActivated{
		SubscriptionID: sub.ID,
		UserUID:        sub.UserUID,
		TierID:         sub.TierID,
		TierName:       tierName,
		StartDate:      sub.StartDate,
		EndDate:        sub.EndDate,
		Source:         source,
	})
	if err != nil {
		s.log.Warn("failed to publish subscription event", sl.Err(err),
			slog.Int("subscription_id", sub.ID))
	}
}
