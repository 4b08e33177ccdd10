package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/bookflix/internal/models"
)

// AddFavorite добавляет книгу в избранное. created = false,
// если книга уже была в избранном.
func (s *Storage) AddFavorite(ctx context.Context, userUID string, bookID int) (bool, error) {
	const op = "storage.AddFavorite"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx, `INSERT INTO user_favorites (user_uid, book_id)
			  VALUES ($1, $2)
			  ON CONFLICT (user_uid, book_id) DO NOTHING`, userUID, bookID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, mapError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n == 1, nil
}

// RemoveFavorite убирает книгу из избранного. removed = false, если ее там не было.
func (s *Storage) RemoveFavorite(ctx context.Context, userUID string, bookID int) (bool, error) {
	const op = "storage.RemoveFavorite"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM user_favorites
			  WHERE user_uid = $1 AND book_id = $2`, userUID, bookID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n == 1, nil
}

// ListFavorites возвращает избранное пользователя, последние добавленные первыми.
func (s *Storage) ListFavorites(ctx context.Context, userUID string) ([]*models.Favorite, error) {
	const op = "storage.ListFavorites"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT f.id, f.created_at, COALESCE(h.progress, 0), `+bookColumns+`
			  FROM user_favorites f
			  JOIN books b ON b.id = f.book_id
			  LEFT JOIN reading_history h ON h.user_uid = f.user_uid AND h.book_id = f.book_id
			  WHERE f.user_uid = $1
			  ORDER BY f.created_at DESC, f.id DESC`, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := []*models.Favorite{}
	for rows.Next() {
		var (
			f       models.Favorite
			pubDate sql.NullTime
			pages   sql.NullInt32
		)
		dest := append([]any{&f.ID, &f.CreatedAt, &f.Book.ReadingProgress},
			bookDest(&f.Book.Book, &pubDate, &pages)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		fillBook(&f.Book.Book, pubDate, pages)
		f.Book.IsFavorited = true
		result = append(result, &f)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpsertProgress записывает прогресс чтения, последняя запись побеждает.
func (s *Storage) UpsertProgress(ctx context.Context, userUID string, bookID, progress int) (*models.ReadingHistory, error) {
	const op = "storage.UpsertProgress"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var h models.ReadingHistory
	err := s.DB.QueryRowContext(ctx, `INSERT INTO reading_history (user_uid, book_id, progress, last_read)
			  VALUES ($1, $2, $3, NOW())
			  ON CONFLICT (user_uid, book_id) DO UPDATE
			  SET progress = EXCLUDED.progress, last_read = NOW()
			  RETURNING id, progress, last_read`, userUID, bookID, progress).
		Scan(&h.ID, &h.Progress, &h.LastRead)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &h, nil
}

// ListReadingHistory возвращает историю чтения, недавно читанные первыми.
func (s *Storage) ListReadingHistory(ctx context.Context, userUID string) ([]*models.ReadingHistory, error) {
	const op = "storage.ListReadingHistory"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT h.id, h.progress, h.last_read,
			      EXISTS (SELECT 1 FROM user_favorites f WHERE f.user_uid = h.user_uid AND f.book_id = h.book_id),
			      `+bookColumns+`
			  FROM reading_history h
			  JOIN books b ON b.id = h.book_id
			  WHERE h.user_uid = $1
			  ORDER BY h.last_read DESC, h.id DESC`, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := []*models.ReadingHistory{}
	for rows.Next() {
		var (
			h       models.ReadingHistory
			pubDate sql.NullTime
			pages   sql.NullInt32
		)
		dest := append([]any{&h.ID, &h.Progress, &h.LastRead, &h.Book.IsFavorited},
			bookDest(&h.Book.Book, &pubDate, &pages)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		fillBook(&h.Book.Book, pubDate, pages)
		h.Book.ReadingProgress = h.Progress
		result = append(result, &h)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// BookStates возвращает состояние книг для пользователя. Книги без
// избранного и прогресса в результат не попадают.
func (s *Storage) BookStates(ctx context.Context, userUID string, bookIDs []int) (map[int]models.BookState, error) {
	const op = "storage.BookStates"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result := make(map[int]models.BookState, len(bookIDs))
	if len(bookIDs) == 0 || userUID == "" {
		return result, nil
	}
	ids := make([]int32, len(bookIDs))
	for i, id := range bookIDs {
		ids[i] = int32(id)
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT b.id,
			      EXISTS (SELECT 1 FROM user_favorites f WHERE f.user_uid = $1 AND f.book_id = b.id),
			      COALESCE((SELECT h.progress FROM reading_history h WHERE h.user_uid = $1 AND h.book_id = b.id), 0)
			  FROM books b
			  WHERE b.id = ANY($2::int[])`, userUID, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var (
			id    int
			state models.BookState
		)
		if err := rows.Scan(&id, &state.IsFavorited, &state.ReadingProgress); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if state.IsFavorited || state.ReadingProgress > 0 {
			result[id] = state
		}
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
