// Package openlibrary клиент публичного API OpenLibrary: поиск и популярные книги.
package openlibrary

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/magabrotheeeer/bookflix/internal/bookprovider"
	"github.com/magabrotheeeer/bookflix/internal/config"
	"github.com/magabrotheeeer/bookflix/internal/models"
)

const provider = "openlibrary"

// Периоды популярности.
const (
	Daily  = "daily"
	Weekly = "weekly"
)

// Client обращается к OpenLibrary.
type Client struct {
	baseURL   string
	coversURL string
	limit     int
	http      *http.Client
}

// New создает клиента с таймаутом из конфигурации.
func New(cfg config.OpenLibrary) *Client {
	return &Client{
		baseURL:   strings.TrimRight(cfg.OpenLibraryBaseURL, "/"),
		coversURL: strings.TrimRight(cfg.OpenLibraryCoversURL, "/"),
		limit:     cfg.OpenLibraryLimit,
		http:      &http.Client{Timeout: cfg.OpenLibraryTimeout},
	}
}

type work struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name"`
	FirstPublishYear int      `json:"first_publish_year"`
	CoverI           int      `json:"cover_i"`
	Language         []string `json:"language"`
	ISBN             []string `json:"isbn"`
	Pages            int      `json:"number_of_pages_median"`
	Subject          []string `json:"subject"`
}

type searchResponse struct {
	NumFound int    `json:"numFound"`
	Docs     []work `json:"docs"`
}

type trendingResponse struct {
	Works []work `json:"works"`
}

// Search ищет книги, limit <= 0 берется из конфигурации.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]models.Book, error) {
	const op = "openlibrary.Search"

	if limit <= 0 {
		limit = c.limit
	}
	params := url.Values{}
	params.Set("q", query)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/search.json?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var resp searchResponse
	if err := bookprovider.Do(ctx, c.http, provider, req, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c.toBooks(resp.Docs), nil
}

// Trending возвращает популярные книги за период daily или weekly.
func (c *Client) Trending(ctx context.Context, period string) ([]models.Book, error) {
	const op = "openlibrary.Trending"

	if period != Weekly {
		period = Daily
	}
	u := c.baseURL + "/trending/" + period + ".json"
	if c.limit > 0 {
		u += "?limit=" + strconv.Itoa(c.limit)
	}
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var resp trendingResponse
	if err := bookprovider.Do(ctx, c.http, provider, req, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c.toBooks(resp.Works), nil
}

func (c *Client) toBooks(works []work) []models.Book {
	books := make([]models.Book, 0, len(works))
	for _, w := range works {
		if w.Key == "" {
			continue
		}
		books = append(books, c.toBook(w))
	}
	return books
}

func (c *Client) toBook(w work) models.Book {
	b := models.Book{
		Source:      models.SourceOpenLibrary,
		ExternalID:  path.Base(w.Key),
		Title:       strings.TrimSpace(w.Title),
		Authors:     "Unknown Author",
		PreviewLink: c.baseURL + w.Key,
	}
	if len(w.AuthorName) > 0 {
		b.Authors = strings.Join(w.AuthorName, ", ")
	}
	if w.CoverI > 0 {
		b.CoverID = strconv.Itoa(w.CoverI)
		b.ThumbnailURL = fmt.Sprintf("%s/b/id/%d-M.jpg", c.coversURL, w.CoverI)
	}
	if w.FirstPublishYear > 0 {
		d := time.Date(w.FirstPublishYear, time.January, 1, 0, 0, 0, 0, time.UTC)
		b.PublicationDate = &d
	}
	if len(w.Language) > 0 {
		b.Language = w.Language[0]
	}
	if len(w.ISBN) > 0 {
		b.ISBN = w.ISBN[0]
	}
	if w.Pages > 0 {
		pages := w.Pages
		b.PageCount = &pages
	}
	if len(w.Subject) > 0 {
		subjects := w.Subject
		if len(subjects) > 5 {
			subjects = subjects[:5]
		}
		b.Categories = strings.Join(subjects, ", ")
	}
	return b
}
