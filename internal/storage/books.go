package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/bookflix/internal/models"
)

const bookColumns = `b.id, b.source, b.external_id, b.title, b.authors, b.description, b.thumbnail_url,
			      b.preview_link, b.publication_date, b.isbn, b.page_count, b.categories, b.language,
			      b.cover_id, b.created_at, b.updated_at`

func bookDest(b *models.Book, pubDate *sql.NullTime, pages *sql.NullInt32) []any {
	return []any{&b.ID, &b.Source, &b.ExternalID, &b.Title, &b.Authors, &b.Description, &b.ThumbnailURL,
		&b.PreviewLink, pubDate, &b.ISBN, pages, &b.Categories, &b.Language,
		&b.CoverID, &b.CreatedAt, &b.UpdatedAt}
}

func fillBook(b *models.Book, pubDate sql.NullTime, pages sql.NullInt32) {
	if pubDate.Valid {
		b.PublicationDate = &pubDate.Time
	}
	if pages.Valid {
		n := int(pages.Int32)
		b.PageCount = &n
	}
}

func scanBook(row interface{ Scan(...any) error }) (*models.Book, error) {
	var (
		b       models.Book
		pubDate sql.NullTime
		pages   sql.NullInt32
	)
	if err := row.Scan(bookDest(&b, &pubDate, &pages)...); err != nil {
		return nil, err
	}
	fillBook(&b, pubDate, pages)
	return &b, nil
}

// UpsertBook находит книгу по (source, external_id) или создает ее.
// У существующей книги обновляются только поля, пришедшие непустыми.
func (s *Storage) UpsertBook(ctx context.Context, book models.Book) (*models.Book, error) {
	const op = "storage.UpsertBook"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if book.Source == "" {
		book.Source = models.SourceGoogle
	}
	query := `INSERT INTO books AS b (source, external_id, title, authors, description, thumbnail_url,
			      preview_link, publication_date, isbn, page_count, categories, language, cover_id)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			  ON CONFLICT (source, external_id) DO UPDATE SET
			      title = COALESCE(NULLIF(EXCLUDED.title, ''), b.title),
			      authors = COALESCE(NULLIF(EXCLUDED.authors, ''), b.authors),
			      description = COALESCE(NULLIF(EXCLUDED.description, ''), b.description),
			      thumbnail_url = COALESCE(NULLIF(EXCLUDED.thumbnail_url, ''), b.thumbnail_url),
			      preview_link = COALESCE(NULLIF(EXCLUDED.preview_link, ''), b.preview_link),
			      publication_date = COALESCE(EXCLUDED.publication_date, b.publication_date),
			      isbn = COALESCE(NULLIF(EXCLUDED.isbn, ''), b.isbn),
			      page_count = COALESCE(EXCLUDED.page_count, b.page_count),
			      categories = COALESCE(NULLIF(EXCLUDED.categories, ''), b.categories),
			      language = COALESCE(NULLIF(EXCLUDED.language, ''), b.language),
			      cover_id = COALESCE(NULLIF(EXCLUDED.cover_id, ''), b.cover_id),
			      updated_at = NOW()
			  RETURNING ` + bookColumns

	var pages any
	if book.PageCount != nil {
		pages = *book.PageCount
	}
	var pubDate any
	if book.PublicationDate != nil {
		pubDate = *book.PublicationDate
	}
	b, err := scanBook(s.DB.QueryRowContext(ctx, query, book.Source, book.ExternalID, book.Title,
		book.Authors, book.Description, book.ThumbnailURL, book.PreviewLink, pubDate, book.ISBN,
		pages, book.Categories, book.Language, book.CoverID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return b, nil
}

// GetBook возвращает книгу из локального каталога по ID.
func (s *Storage) GetBook(ctx context.Context, id int) (*models.Book, error) {
	const op = "storage.GetBook"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	b, err := scanBook(s.DB.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books b WHERE b.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return b, nil
}

// GetBookByExternalID возвращает книгу по идентификатору внешнего провайдера.
func (s *Storage) GetBookByExternalID(ctx context.Context, source, externalID string) (*models.Book, error) {
	const op = "storage.GetBookByExternalID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	b, err := scanBook(s.DB.QueryRowContext(ctx, `SELECT `+bookColumns+`
			  FROM books b
			  WHERE b.source = $1 AND b.external_id = $2`, source, externalID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return b, nil
}

// ListBooks возвращает локальный каталог с пагинацией, свежие первыми.
func (s *Storage) ListBooks(ctx context.Context, limit, offset int) ([]*models.Book, error) {
	const op = "storage.ListBooks"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT `+bookColumns+`
			  FROM books b
			  ORDER BY b.updated_at DESC, b.id DESC
			  LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := []*models.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
