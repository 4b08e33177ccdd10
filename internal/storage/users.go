package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/bookflix/internal/models"
)

// Статус подписки не хранится в users, а вычисляется по активному периоду.
const userSelect = `SELECT u.uid, u.username, u.email, u.password_hash, u.first_name, u.middle_name,
			      u.last_name, u.phone, u.birthdate, u.role, u.created_at, s.end_date
			  FROM users u
			  LEFT JOIN LATERAL (
			      SELECT end_date FROM user_subscriptions
			      WHERE user_uid = u.uid AND is_active AND end_date > NOW()
			      ORDER BY end_date DESC
			      LIMIT 1
			  ) s ON TRUE`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var (
		u                   models.User
		middleName, phone   sql.NullString
		birthdate, subUntil sql.NullTime
	)
	if err := row.Scan(&u.UUID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &middleName,
		&u.LastName, &phone, &birthdate, &u.Role, &u.CreatedAt, &subUntil); err != nil {
		return nil, err
	}
	if middleName.Valid {
		u.MiddleName = &middleName.String
	}
	if phone.Valid {
		u.Phone = &phone.String
	}
	if birthdate.Valid {
		u.Birthdate = &birthdate.Time
	}
	if subUntil.Valid {
		u.IsSubscribed = true
		u.SubscriptionEndDate = &subUntil.Time
	}
	return &u, nil
}

// RegisterUser сохраняет нового пользователя и возвращает его UID.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.RegisterUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID string
	query := `INSERT INTO users (username, email, password_hash, first_name, middle_name,
			      last_name, phone, birthdate, role)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  RETURNING uid`
	if err := s.DB.QueryRowContext(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.FirstName, user.MiddleName,
		user.LastName, user.Phone, user.Birthdate, user.Role).Scan(&newID); err != nil {
		return "", fmt.Errorf("%s: %w", op, mapError(err))
	}
	return newID, nil
}

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	u, err := scanUser(s.DB.QueryRowContext(ctx, userSelect+` WHERE u.uid = $1`, userUID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return u, nil
}

// GetUserByUsername возвращает пользователя по его username.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	u, err := scanUser(s.DB.QueryRowContext(ctx, userSelect+` WHERE u.username = $1`, username))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return u, nil
}

// UpdateUserProfile перезаписывает поля профиля пользователя.
func (s *Storage) UpdateUserProfile(ctx context.Context, user *models.User) error {
	const op = "storage.UpdateUserProfile"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET email = $1, first_name = $2, middle_name = $3, last_name = $4,
			      phone = $5, birthdate = $6
			  WHERE uid = $7`
	res, err := s.DB.ExecContext(ctx, query, user.Email, user.FirstName, user.MiddleName,
		user.LastName, user.Phone, user.Birthdate, user.UUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// UserExists сообщает, заняты ли username и email.
func (s *Storage) UserExists(ctx context.Context, username, email string) (usernameTaken, emailTaken bool, err error) {
	const op = "storage.UserExists"
	select {
	case <-ctx.Done():
		return false, false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT
			      EXISTS (SELECT 1 FROM users WHERE username = $1),
			      EXISTS (SELECT 1 FROM users WHERE lower(email) = lower($2))`
	if err = s.DB.QueryRowContext(ctx, query, username, email).Scan(&usernameTaken, &emailTaken); err != nil {
		return false, false, fmt.Errorf("%s: %w", op, err)
	}
	return usernameTaken, emailTaken, nil
}
