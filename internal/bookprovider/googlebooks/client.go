// Package googlebooks клиент Google Books API v1.
package googlebooks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/magabrotheeeer/bookflix/internal/bookprovider"
	"github.com/magabrotheeeer/bookflix/internal/config"
	"github.com/magabrotheeeer/bookflix/internal/models"
)

const provider = "googlebooks"

// Client обращается к Google Books API.
type Client struct {
	baseURL    string
	apiKey     string
	maxResults int
	http       *http.Client
}

// New создает клиента с таймаутом из конфигурации.
func New(cfg config.GoogleBooks) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.GoogleBaseURL, "/"),
		apiKey:     cfg.GoogleAPIKey,
		maxResults: cfg.GoogleMaxResults,
		http:       &http.Client{Timeout: cfg.GoogleTimeout},
	}
}

// Search ищет книги по строке запроса, category добавляется как subject:.
// Пустой результат не является ошибкой.
func (c *Client) Search(ctx context.Context, query, category string) ([]models.Book, error) {
	const op = "googlebooks.Search"

	q := strings.TrimSpace(query)
	if category != "" {
		q = strings.TrimSpace("subject:" + category + " " + q)
	}
	params := url.Values{}
	params.Set("q", q)
	books, err := c.list(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return books, nil
}

// Newest возвращает новинки по теме subject.
func (c *Client) Newest(ctx context.Context, subject string) ([]models.Book, error) {
	const op = "googlebooks.Newest"

	if subject == "" {
		subject = "fiction"
	}
	params := url.Values{}
	params.Set("q", "subject:"+subject)
	params.Set("orderBy", "newest")
	books, err := c.list(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return books, nil
}

// Volume возвращает одну книгу по идентификатору тома.
func (c *Client) Volume(ctx context.Context, id string) (*models.Book, error) {
	const op = "googlebooks.Volume"

	v, err := c.volume(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if v.VolumeInfo == nil {
		return nil, fmt.Errorf("%s: %w", op, bookprovider.ErrNotFound)
	}
	if v.ID == "" {
		v.ID = id
	}
	b := v.toBook()
	return &b, nil
}

// Download возвращает ссылки на скачивание в формате format.
// Если прямое скачивание недоступно, возвращается ссылка на предпросмотр.
func (c *Client) Download(ctx context.Context, id, format string) (*models.DownloadLinks, error) {
	const op = "googlebooks.Download"

	v, err := c.volume(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	links := map[string]string{}
	switch format {
	case "pdf":
		if v.AccessInfo.PDF.IsAvailable && v.AccessInfo.PDF.AcsTokenLink != "" {
			links["pdf"] = v.AccessInfo.PDF.AcsTokenLink
		}
	case "epub":
		if v.AccessInfo.EPUB.IsAvailable && v.AccessInfo.EPUB.AcsTokenLink != "" {
			links["epub"] = v.AccessInfo.EPUB.AcsTokenLink
		}
	}
	if len(links) > 0 {
		return &models.DownloadLinks{Links: links}, nil
	}

	if v.VolumeInfo != nil && v.VolumeInfo.PreviewLink != "" {
		return &models.DownloadLinks{
			Message:     fmt.Sprintf("Direct download not available for this book in %s format.", format),
			PreviewLink: v.VolumeInfo.PreviewLink,
		}, nil
	}
	return nil, fmt.Errorf("%s: %w", op, bookprovider.ErrNotFound)
}

func (c *Client) list(ctx context.Context, params url.Values) ([]models.Book, error) {
	if c.apiKey == "" {
		return nil, bookprovider.ErrNotConfigured
	}
	params.Set("key", c.apiKey)
	if c.maxResults > 0 {
		params.Set("maxResults", strconv.Itoa(c.maxResults))
	}

	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/volumes?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	var resp volumesResponse
	if err := bookprovider.Do(ctx, c.http, provider, req, &resp); err != nil {
		return nil, err
	}

	books := make([]models.Book, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID == "" || item.VolumeInfo == nil {
			continue
		}
		books = append(books, item.toBook())
	}
	return books, nil
}

func (c *Client) volume(ctx context.Context, id string) (*volume, error) {
	if c.apiKey == "" {
		return nil, bookprovider.ErrNotConfigured
	}
	params := url.Values{}
	params.Set("key", c.apiKey)

	req, err := http.NewRequest(http.MethodGet,
		c.baseURL+"/volumes/"+url.PathEscape(id)+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	var v volume
	if err := bookprovider.Do(ctx, c.http, provider, req, &v); err != nil {
		var httpErr *bookprovider.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return nil, bookprovider.ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}
