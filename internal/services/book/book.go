// Package book реализует каталог книг поверх внешних провайдеров:
// поиск с сохранением результатов в локальную базу, подборки,
// избранное и прогресс чтения.
package book

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/bookflix/internal/bookprovider"
	"github.com/magabrotheeeer/bookflix/internal/bookprovider/openlibrary"
	"github.com/magabrotheeeer/bookflix/internal/cache"
	"github.com/magabrotheeeer/bookflix/internal/lib/sl"
	"github.com/magabrotheeeer/bookflix/internal/models"
	"github.com/magabrotheeeer/bookflix/internal/storage"
)

// Размеры страницы локального каталога.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Ответы операций с избранным и прогрессом.
const (
	StatusFavorited        = "favorited"
	StatusAlreadyFavorited = "already favorited"
	StatusUnfavorited      = "unfavorited"
	StatusProgressUpdated  = "progress updated"
)

var (
	// ErrEmptyQuery не передан ни запрос, ни категория.
	ErrEmptyQuery = errors.New("query parameter is required")
	// ErrUnknownSource запрошен неизвестный провайдер.
	ErrUnknownSource = errors.New("unknown book source")
	// ErrBookNotFound книга не найдена ни локально, ни у провайдера.
	ErrBookNotFound = errors.New("book not found")
	// ErrInvalidFormat формат скачивания не поддерживается.
	ErrInvalidFormat = errors.New("invalid download format")
	// ErrInvalidProgress прогресс вне диапазона 0..100.
	ErrInvalidProgress = errors.New("progress must be between 0 and 100")
)

// Repository методы хранилища книг и библиотеки пользователя.
type Repository interface {
	UpsertBook(ctx context.Context, book models.Book) (*models.Book, error)
	GetBook(ctx context.Context, id int) (*models.Book, error)
	GetBookByExternalID(ctx context.Context, source, externalID string) (*models.Book, error)
	ListBooks(ctx context.Context, limit, offset int) ([]*models.Book, error)
	AddFavorite(ctx context.Context, userUID string, bookID int) (bool, error)
	RemoveFavorite(ctx context.Context, userUID string, bookID int) (bool, error)
	ListFavorites(ctx context.Context, userUID string) ([]*models.Favorite, error)
	UpsertProgress(ctx context.Context, userUID string, bookID, progress int) (*models.ReadingHistory, error)
	ListReadingHistory(ctx context.Context, userUID string) ([]*models.ReadingHistory, error)
	BookStates(ctx context.Context, userUID string, bookIDs []int) (map[int]models.BookState, error)
}

// GoogleBooks методы клиента Google Books.
type GoogleBooks interface {
	Search(ctx context.Context, query, category string) ([]models.Book, error)
	Newest(ctx context.Context, subject string) ([]models.Book, error)
	Volume(ctx context.Context, id string) (*models.Book, error)
	Download(ctx context.Context, id, format string) (*models.DownloadLinks, error)
}

// OpenLibrary методы клиента OpenLibrary.
type OpenLibrary interface {
	Search(ctx context.Context, query string, limit int) ([]models.Book, error)
	Trending(ctx context.Context, period string) ([]models.Book, error)
}

// Cache описывает методы для кэширования подборок.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// Service каталог книг и библиотека пользователя.
type Service struct {
	repo        Repository
	google      GoogleBooks
	openLibrary OpenLibrary
	cache       Cache
	log         *slog.Logger
	listsTTL    time.Duration
}

// New создает сервис книг.
func New(repo Repository, google GoogleBooks, openLibrary OpenLibrary, cache Cache,
	log *slog.Logger, listsTTL time.Duration) *Service {
	return &Service{
		repo:        repo,
		google:      google,
		openLibrary: openLibrary,
		cache:       cache,
		log:         log,
		listsTTL:    listsTTL,
	}
}

// Search ищет книги у провайдера source и сохраняет найденное в каталог.
// Пустой source означает Google Books.
func (s *Service) Search(ctx context.Context, userUID, query, category, source string) ([]models.BookView, error) {
	const op = "book.Search"

	query = strings.TrimSpace(query)
	category = strings.TrimSpace(category)
	if query == "" && category == "" {
		return nil, ErrEmptyQuery
	}

	var (
		found []models.Book
		err   error
	)
	switch source {
	case "", models.SourceGoogle:
		found, err = s.google.Search(ctx, query, category)
	case models.SourceOpenLibrary:
		q := query
		if category != "" {
			q = strings.TrimSpace("subject:" + category + " " + query)
		}
		found, err = s.openLibrary.Search(ctx, q, 0)
	default:
		return nil, fmt.Errorf("%s: %w", op, ErrUnknownSource)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	books, err := s.save(ctx, found)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.views(ctx, userUID, books)
}

// Get возвращает книгу из локального каталога.
func (s *Service) Get(ctx context.Context, userUID string, id int) (*models.BookView, error) {
	const op = "book.Get"

	b, err := s.repo.GetBook(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, ErrBookNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.view(ctx, userUID, b)
}

// GetExternal возвращает книгу по идентификатору Google Books.
// Если книги нет в каталоге, она запрашивается у Google и сохраняется.
func (s *Service) GetExternal(ctx context.Context, userUID, externalID string) (*models.BookView, error) {
	const op = "book.GetExternal"

	b, err := s.repo.GetBookByExternalID(ctx, models.SourceGoogle, externalID)
	if err == nil {
		return s.view(ctx, userUID, b)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	fetched, err := s.google.Volume(ctx, externalID)
	if errors.Is(err, bookprovider.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, ErrBookNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	b, err = s.repo.UpsertBook(ctx, *fetched)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.view(ctx, userUID, b)
}

// Trending возвращает популярные за день книги OpenLibrary.
func (s *Service) Trending(ctx context.Context, userUID string) ([]models.BookView, error) {
	return s.collection(ctx, userUID, cache.TrendingKey, "book.Trending", func(ctx context.Context) ([]models.Book, error) {
		return s.openLibrary.Trending(ctx, openlibrary.Daily)
	})
}

// NewReleases возвращает новинки Google Books.
func (s *Service) NewReleases(ctx context.Context, userUID string) ([]models.BookView, error) {
	return s.collection(ctx, userUID, cache.NewReleasesKey, "book.NewReleases", func(ctx context.Context) ([]models.Book, error) {
		return s.google.Newest(ctx, "")
	})
}

// List возвращает страницу локального каталога.
func (s *Service) List(ctx context.Context, userUID string, limit, offset int) ([]models.BookView, error) {
	const op = "book.List"

	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}

	books, err := s.repo.ListBooks(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.views(ctx, userUID, books)
}

// Favorite добавляет книгу в избранное. Повторное добавление не ошибка.
func (s *Service) Favorite(ctx context.Context, userUID string, bookID int) (string, error) {
	const op = "book.Favorite"

	created, err := s.repo.AddFavorite(ctx, userUID, bookID)
	if errors.Is(err, storage.ErrNotFound) {
		return "", fmt.Errorf("%s: %w", op, ErrBookNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if !created {
		return StatusAlreadyFavorited, nil
	}
	return StatusFavorited, nil
}

// Unfavorite убирает книгу из избранного.
func (s *Service) Unfavorite(ctx context.Context, userUID string, bookID int) (string, error) {
	const op = "book.Unfavorite"

	if _, err := s.Get(ctx, "", bookID); err != nil {
		return "", err
	}
	if _, err := s.repo.RemoveFavorite(ctx, userUID, bookID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return StatusUnfavorited, nil
}

// UpdateProgress сохраняет прогресс чтения, последняя запись побеждает.
func (s *Service) UpdateProgress(ctx context.Context, userUID string, bookID, progress int) (*models.ReadingHistory, error) {
	const op = "book.UpdateProgress"

	if progress < 0 || progress > 100 {
		return nil, ErrInvalidProgress
	}
	h, err := s.repo.UpsertProgress(ctx, userUID, bookID, progress)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, ErrBookNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return h, nil
}

// Favorites возвращает избранное пользователя.
func (s *Service) Favorites(ctx context.Context, userUID string) ([]*models.Favorite, error) {
	const op = "book.Favorites"

	favs, err := s.repo.ListFavorites(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return favs, nil
}

// ReadingHistory возвращает историю чтения, последние прочитанные первыми.
func (s *Service) ReadingHistory(ctx context.Context, userUID string) ([]*models.ReadingHistory, error) {
	const op = "book.ReadingHistory"

	history, err := s.repo.ListReadingHistory(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return history, nil
}

// Download возвращает ссылки на скачивание книги Google Books из каталога.
func (s *Service) Download(ctx context.Context, externalID, format string) (*models.DownloadLinks, error) {
	const op = "book.Download"

	format = strings.ToLower(format)
	if !bookprovider.ValidFormat(format) {
		return nil, ErrInvalidFormat
	}
	if _, err := s.repo.GetBookByExternalID(ctx, models.SourceGoogle, externalID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrBookNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	links, err := s.google.Download(ctx, externalID, format)
	if errors.Is(err, bookprovider.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, ErrBookNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return links, nil
}

// collection отдает подборку из кеша или загружает ее у провайдера.
func (s *Service) collection(ctx context.Context, userUID, key, op string,
	fetch func(ctx context.Context) ([]models.Book, error)) ([]models.BookView, error) {
	var books []*models.Book
	found, err := s.cache.Get(ctx, key, &books)
	if err != nil {
		s.log.Warn("failed to read collection from cache", sl.Err(err), slog.String("key", key))
	}
	if !found {
		fetched, err := fetch(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if books, err = s.save(ctx, fetched); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := s.cache.Set(ctx, key, books, s.listsTTL); err != nil {
			s.log.Warn("failed to cache collection", sl.Err(err), slog.String("key", key))
		}
	}
	return s.views(ctx, userUID, books)
}

func (s *Service) save(ctx context.Context, found []models.Book) ([]*models.Book, error) {
	books := make([]*models.Book, 0, len(found))
	for _, b := range found {
		if b.ExternalID == "" {
			continue
		}
		saved, err := s.repo.UpsertBook(ctx, b)
		if err != nil {
			return nil, err
		}
		books = append(books, saved)
	}
	return books, nil
}

func (s *Service) views(ctx context.Context, userUID string, books []*models.Book) ([]models.BookView, error) {
	const op = "book.views"

	result := make([]models.BookView, 0, len(books))
	if len(books) == 0 {
		return result, nil
	}
	ids := make([]int, len(books))
	for i, b := range books {
		ids[i] = b.ID
	}

	states := map[int]models.BookState{}
	if userUID != "" {
		var err error
		if states, err = s.repo.BookStates(ctx, userUID, ids); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	for _, b := range books {
		result = append(result, models.BookView{Book: *b, BookState: states[b.ID]})
	}
	return result, nil
}

func (s *Service) view(ctx context.Context, userUID string, b *models.Book) (*models.BookView, error) {
	views, err := s.views(ctx, userUID, []*models.Book{b})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}
