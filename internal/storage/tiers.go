package storage

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/bookflix/internal/models"
)

const tierColumns = `id, name, price, price_usd, currency, duration, payment_required,
			      book_limit, max_downloads, description`

func scanTier(row interface{ Scan(...any) error }) (*models.Tier, error) {
	var t models.Tier
	if err := row.Scan(&t.ID, &t.Name, &t.Price, &t.PriceUSD, &t.Currency, &t.Duration,
		&t.PaymentRequired, &t.BookLimit, &t.MaxDownloads, &t.Description); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTiers возвращает каталог тарифов от дешевых к дорогим.
func (s *Storage) ListTiers(ctx context.Context) ([]*models.Tier, error) {
	const op = "storage.ListTiers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT `+tierColumns+`
			  FROM subscription_tiers
			  ORDER BY price_usd, id`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := []*models.Tier{}
	for rows.Next() {
		t, err := scanTier(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetTier возвращает тариф по ID.
func (s *Storage) GetTier(ctx context.Context, id int) (*models.Tier, error) {
	const op = "storage.GetTier"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	t, err := scanTier(s.DB.QueryRowContext(ctx,
		`SELECT `+tierColumns+` FROM subscription_tiers WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return t, nil
}

// GetDefaultTier возвращает самый дешевый бесплатный тариф,
// который выдается при регистрации.
func (s *Storage) GetDefaultTier(ctx context.Context) (*models.Tier, error) {
	const op = "storage.GetDefaultTier"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	t, err := scanTier(s.DB.QueryRowContext(ctx, `SELECT `+tierColumns+`
			  FROM subscription_tiers
			  WHERE NOT payment_required
			  ORDER BY price_usd, id
			  LIMIT 1`))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return t, nil
}
