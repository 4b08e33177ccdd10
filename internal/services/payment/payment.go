// Package payment оформляет платные тарифы через PayPal: создает платеж,
// выполняет его после подтверждения пользователем и активирует подписку.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/bookflix/internal/events"
	"github.com/magabrotheeeer/bookflix/internal/lib/period"
	"github.com/magabrotheeeer/bookflix/internal/lib/sl"
	"github.com/magabrotheeeer/bookflix/internal/metrics"
	"github.com/magabrotheeeer/bookflix/internal/models"
	"github.com/magabrotheeeer/bookflix/internal/paymentprovider"
	"github.com/magabrotheeeer/bookflix/internal/services/subscription"
	"github.com/magabrotheeeer/bookflix/internal/storage"
)

var (
	// ErrTierNotFound тариф не существует.
	ErrTierNotFound = errors.New("subscription tier not found")
	// ErrPaymentNotFound платеж с таким идентификатором не создавался.
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrForbidden платеж принадлежит другому пользователю.
	ErrForbidden = errors.New("payment belongs to another user")
	// ErrPaymentNotApproved PayPal отклонил платеж.
	ErrPaymentNotApproved = errors.New("payment was not approved")
	// ErrGateway PayPal недоступен или вернул ошибку сервера.
	ErrGateway = errors.New("payment gateway error")
)

// Repository методы хранилища, нужные сервису платежей.
type Repository interface {
	GetTier(ctx context.Context, id int) (*models.Tier, error)
	CreatePayment(ctx context.Context, p models.Payment) (int, error)
	GetPayment(ctx context.Context, paymentID string) (*models.Payment, error)
	ListPayments(ctx context.Context, userUID string) ([]*models.Payment, error)
	CompletePayment(ctx context.Context, paymentID, payerID string, sub models.Subscription) (*models.Subscription, bool, error)
	FailPayment(ctx context.Context, paymentID, payerID string) error
	GetSubscription(ctx context.Context, id int) (*models.Subscription, error)
}

// Gateway платежный шлюз.
type Gateway interface {
	CreatePayment(ctx context.Context, req paymentprovider.CreatePaymentRequest) (*paymentprovider.Payment, error)
	ExecutePayment(ctx context.Context, paymentID, payerID string) (*paymentprovider.Payment, error)
}

// Subscriptions активирует подписки и сообщает об активации.
type Subscriptions interface {
	Activate(ctx context.Context, userUID string, tier *models.Tier, source string) (*models.Subscription, error)
	Notify(ctx context.Context, sub *models.Subscription, source string)
}

// Service проводит оплату тарифов.
type Service struct {
	repo      Repository
	gateway   Gateway
	subs      Subscriptions
	publisher events.Publisher
	log       *slog.Logger
	now       func() time.Time
}

// New создает сервис платежей.
func New(repo Repository, gateway Gateway, subs Subscriptions, publisher events.Publisher, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		gateway:   gateway,
		subs:      subs,
		publisher: publisher,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create оформляет тариф. Бесплатный тариф активируется сразу,
// для платного создается платеж PayPal и возвращается ссылка на подтверждение.
func (s *Service) Create(ctx context.Context, userUID string, tierID int) (*models.PaymentResult, error) {
	const op = "payment.Create"

	tier, err := s.repo.GetTier(ctx, tierID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, ErrTierNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !tier.PaymentRequired {
		sub, err := s.subs.Activate(ctx, userUID, tier, subscription.SourceUpgrade)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return &models.PaymentResult{Subscription: sub}, nil
	}

	p, err := s.gateway.CreatePayment(ctx, paymentprovider.CreatePaymentRequest{
		Amount:      tier.PriceUSD,
		Currency:    "USD",
		Description: "Bookflix " + tier.Name + " subscription",
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrGateway, err)
	}

	if _, err := s.repo.CreatePayment(ctx, models.Payment{
		UserUID:   userUID,
		TierID:    tier.ID,
		PaymentID: p.ID,
		Amount:    tier.PriceUSD,
		Currency:  "USD",
	}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	metrics.PaymentsProcessed.WithLabelValues(models.PaymentCreated).Inc()

	s.log.Info("payment created",
		slog.String("user_uid", userUID),
		slog.String("payment_id", p.ID),
		slog.String("tier", tier.Name),
	)
	return &models.PaymentResult{ApprovalURL: p.ApprovalURL, PaymentID: p.ID}, nil
}

// Execute выполняет подтвержденный платеж и активирует подписку.
// Повторный вызов для выполненного платежа возвращает уже созданную подписку.
func (s *Service) Execute(ctx context.Context, userUID string, req models.ExecuteRequest) (*models.Subscription, error) {
	const op = "payment.Execute"

	p, err := s.repo.GetPayment(ctx, req.PaymentID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, ErrPaymentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if p.UserUID != userUID {
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	switch {
	case p.Status == models.PaymentCompleted && p.SubscriptionID != nil:
		sub, err := s.repo.GetSubscription(ctx, *p.SubscriptionID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return sub, nil
	case p.Status == models.PaymentFailed:
		return nil, fmt.Errorf("%s: %w", op, ErrPaymentNotApproved)
	}

	executed, err := s.gateway.ExecutePayment(ctx, req.PaymentID, req.PayerID)
	var apiErr *paymentprovider.APIError
	switch {
	case errors.Is(err, paymentprovider.ErrAuth):
		return nil, fmt.Errorf("%s: %w: %w", op, ErrGateway, err)
	case errors.As(err, &apiErr) && apiErr.Declined():
		s.fail(ctx, req, apiErr.Name)
		return nil, fmt.Errorf("%s: %w", op, ErrPaymentNotApproved)
	case err != nil:
		return nil, fmt.Errorf("%s: %w: %w", op, ErrGateway, err)
	case executed.State != paymentprovider.StateApproved:
		s.fail(ctx, req, executed.State)
		return nil, fmt.Errorf("%s: %w", op, ErrPaymentNotApproved)
	}

	tier, err := s.repo.GetTier(ctx, p.TierID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	start := s.now()
	sub, completed, err := s.repo.CompletePayment(ctx, req.PaymentID, req.PayerID, models.Subscription{
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
	if !completed {
		return sub, nil
	}

	metrics.PaymentsProcessed.WithLabelValues(models.PaymentCompleted).Inc()
	s.log.Info("payment completed",
		slog.String("user_uid", userUID),
		slog.String("payment_id", req.PaymentID),
		slog.Int("subscription_id", sub.ID),
	)
	err = s.publisher.Publish(ctx, events.PaymentCompleted, models.PaymentCompletedEvent{
		PaymentID:      p.PaymentID,
		UserUID:        p.UserUID,
		TierID:         p.TierID,
		Amount:         p.Amount,
		Currency:       p.Currency,
		SubscriptionID: sub.ID,
	})
	if err != nil {
		s.log.Warn("failed to publish payment event", sl.Err(err), slog.String("payment_id", req.PaymentID))
	}
	s.subs.Notify(ctx, sub, subscription.SourcePayment)
	return sub, nil
}

// List возвращает платежи пользователя.
func (s *Service) List(ctx context.Context, userUID string) ([]*models.Payment, error) {
	const op = "payment.List"

	payments, err := s.repo.ListPayments(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return payments, nil
}

func (s *Service) fail(ctx context.Context, req models.ExecuteRequest, reason string) {
	metrics.PaymentsProcessed.WithLabelValues(models.PaymentFailed).Inc()
	s.log.Warn("payment not approved",
		slog.String("payment_id", req.PaymentID),
		slog.String("reason", reason),
	)
	if err := s.repo.FailPayment(ctx, req.PaymentID, req.PayerID); err != nil {
		s.log.Error("failed to mark payment as failed", sl.Err(err), slog.String("payment_id", req.PaymentID))
	}
}
