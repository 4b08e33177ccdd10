package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/bookflix/internal/models"
)

const paymentColumns = `id, user_uid, tier_id, payment_id, payer_id, amount, currency, status,
			      subscription_id, created_at, updated_at`

func scanPayment(row interface{ Scan(...any) error }) (*models.Payment, error) {
	var (
		p       models.Payment
		payerID sql.NullString
		subID   sql.NullInt64
	)
	if err := row.Scan(&p.ID, &p.UserUID, &p.TierID, &p.PaymentID, &payerID, &p.Amount, &p.Currency,
		&p.Status, &subID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if payerID.Valid {
		p.PayerID = &payerID.String
	}
	if subID.Valid {
		id := int(subID.Int64)
		p.SubscriptionID = &id
	}
	return &p, nil
}

// CreatePayment сохраняет платеж в статусе created и возвращает его ID.
func (s *Storage) CreatePayment(ctx context.Context, p models.Payment) (int, error) {
	const op = "storage.CreatePayment"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO payments (user_uid, tier_id, payment_id, amount, currency, status)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id`
	var newID int
	if err := s.DB.QueryRowContext(ctx, query, p.UserUID, p.TierID, p.PaymentID, p.Amount,
		p.Currency, models.PaymentCreated).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return newID, nil
}

// GetPayment возвращает платеж по идентификатору PayPal.
func (s *Storage) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	const op = "storage.GetPayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	p, err := scanPayment(s.DB.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE payment_id = $1`, paymentID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return p, nil
}

// ListPayments возвращает платежи пользователя, новые первыми.
func (s *Storage) ListPayments(ctx context.Context, userUID string) ([]*models.Payment, error) {
	const op = "storage.ListPayments"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT `+paymentColumns+`
			  FROM payments
			  WHERE user_uid = $1
			  ORDER BY created_at DESC, id DESC`, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := []*models.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CompletePayment в одной транзакции блокирует платеж, создает подписку
// и помечает платеж выполненным. Если платеж уже выполнен, возвращает
// ранее созданную подписку и completed = false.
func (s *Storage) CompletePayment(ctx context.Context, paymentID, payerID string,
	sub models.Subscription) (result *models.Subscription, completed bool, err error) {
	const op = "storage.CompletePayment"
	select {
	case <-ctx.Done():
		return nil, false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		p, err := scanPayment(tx.QueryRowContext(ctx, `SELECT `+paymentColumns+`
			  FROM payments WHERE payment_id = $1 FOR UPDATE`, paymentID))
		if err != nil {
			return err
		}
		if p.Status == models.PaymentCompleted && p.SubscriptionID != nil {
			result, err = getSubscription(ctx, tx, *p.SubscriptionID)
			return err
		}

		sub.UserUID = p.UserUID
		sub.TierID = p.TierID
		result, err = activateTx(ctx, tx, sub)
		if err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, `UPDATE payments
			  SET status = $1, payer_id = $2, subscription_id = $3, updated_at = NOW()
			  WHERE id = $4`, models.PaymentCompleted, payerID, result.ID, p.ID); err != nil {
			return err
		}
		completed = true
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return result, completed, nil
}

// FailPayment помечает невыполненный платеж как failed.
func (s *Storage) FailPayment(ctx context.Context, paymentID, payerID string) error {
	const op = "storage.FailPayment"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	_, err := s.DB.ExecContext(ctx, `UPDATE payments
			  SET status = $1, payer_id = $2, updated_at = NOW()
			  WHERE payment_id = $3 AND status <> $4`,
		models.PaymentFailed, payerID, paymentID, models.PaymentCompleted)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
