package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/bookflix/internal/models"
)

const subscriptionSelect = `SELECT s.id, s.user_uid, s.tier_id, s.start_date, s.end_date, s.is_active,
			      t.id, t.name, t.price, t.price_usd, t.currency, t.duration, t.payment_required,
			      t.book_limit, t.max_downloads, t.description
			  FROM user_subscriptions s
			  JOIN subscription_tiers t ON t.id = s.tier_id`

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func scanSubscription(row interface{ Scan(...any) error }) (*models.Subscription, error) {
	var (
		sub models.Subscription
		t   models.Tier
	)
	if err := row.Scan(&sub.ID, &sub.UserUID, &sub.TierID, &sub.StartDate, &sub.EndDate, &sub.IsActive,
		&t.ID, &t.Name, &t.Price, &t.PriceUSD, &t.Currency, &t.Duration, &t.PaymentRequired,
		&t.BookLimit, &t.MaxDownloads, &t.Description); err != nil {
		return nil, err
	}
	sub.Tier = &t
	return &sub, nil
}

// GetCurrentSubscription возвращает действующую на момент now подписку пользователя.
func (s *Storage) GetCurrentSubscription(ctx context.Context, userUID string, now time.Time) (*models.Subscription, error) {
	const op = "storage.GetCurrentSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	sub, err := scanSubscription(s.DB.QueryRowContext(ctx, subscriptionSelect+`
			  WHERE s.user_uid = $1 AND s.is_active AND s.end_date > $2
			  ORDER BY s.end_date DESC
			  LIMIT 1`, userUID, now))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return sub, nil
}

// GetSubscription возвращает период подписки по ID.
func (s *Storage) GetSubscription(ctx context.Context, id int) (*models.Subscription, error) {
	const op = "storage.GetSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	sub, err := getSubscription(ctx, s.DB, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return sub, nil
}

func getSubscription(ctx context.Context, q queryer, id int) (*models.Subscription, error) {
	return scanSubscription(q.QueryRowContext(ctx, subscriptionSelect+` WHERE s.id = $1`, id))
}

// ListSubscriptions возвращает историю подписок пользователя, новые первыми.
func (s *Storage) ListSubscriptions(ctx context.Context, userUID string) ([]*models.Subscription, error) {
	const op = "storage.ListSubscriptions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, subscriptionSelect+`
			  WHERE s.user_uid = $1
			  ORDER BY s.start_date DESC, s.id DESC`, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := []*models.Subscription{}
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, sub)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ActivateSubscription в одной транзакции деактивирует все активные
// подписки пользователя и создает новую активную.
func (s *Storage) ActivateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error) {
	const op = "storage.ActivateSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var created *models.Subscription
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		created, err = activateTx(ctx, tx, sub)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return created, nil
}

func activateTx(ctx context.Context, tx *sql.Tx, sub models.Subscription) (*models.Subscription, error) {
	// строка пользователя сериализует конкурентные активации
	var uid string
	if err := tx.QueryRowContext(ctx, `SELECT uid FROM users WHERE uid = $1 FOR UPDATE`,
		sub.UserUID).Scan(&uid); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE user_subscriptions
			  SET is_active = FALSE
			  WHERE user_uid = $1 AND is_active`, sub.UserUID); err != nil {
		return nil, err
	}

	var id int
	if err := tx.QueryRowContext(ctx, `INSERT INTO user_subscriptions
			      (user_uid, tier_id, start_date, end_date, is_active)
			  VALUES ($1, $2, $3, $4, TRUE)
			  RETURNING id`,
		sub.UserUID, sub.TierID, sub.StartDate, sub.EndDate).Scan(&id); err != nil {
		return nil, err
	}
	return getSubscription(ctx, tx, id)
}
