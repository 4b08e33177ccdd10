// Package bookprovider содержит общие для клиентов внешних каталогов книг
// ошибки и выполнение HTTP-запросов с классификацией отказов.
package bookprovider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/magabrotheeeer/bookflix/internal/metrics"
)

var (
	// ErrTimeout внешний API не ответил вовремя.
	ErrTimeout = errors.New("upstream timeout")
	// ErrUnavailable не удалось подключиться к внешнему API.
	ErrUnavailable = errors.New("upstream unavailable")
	// ErrMalformed ответ внешнего API не удалось разобрать.
	ErrMalformed = errors.New("malformed upstream response")
	// ErrNotFound внешний API не знает запрошенной книги.
	ErrNotFound = errors.New("book not found upstream")
	// ErrNotConfigured клиент не настроен, например нет API ключа.
	ErrNotConfigured = errors.New("provider is not configured")
)

// Форматы, которые можно запросить для скачивания.
var Formats = []string{"pdf", "epub", "mobi", "txt"}

// ValidFormat сообщает, поддерживается ли формат скачивания.
func ValidFormat(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}

// HTTPError внешний API ответил статусом вне 2xx.
type HTTPError struct {
	Provider   string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s responded with status %d", e.Provider, e.StatusCode)
}

// Do выполняет запрос и декодирует JSON-ответ в out.
func Do(ctx context.Context, client *http.Client, provider string, req *http.Request, out any) error {
	resp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		if isTimeout(err) {
			metrics.UpstreamRequests.WithLabelValues(provider, "timeout").Inc()
			return fmt.Errorf("%s: %w", provider, ErrTimeout)
		}
		metrics.UpstreamRequests.WithLabelValues(provider, "unavailable").Inc()
		return fmt.Errorf("%s: %w: %v", provider, ErrUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.UpstreamRequests.WithLabelValues(provider, "http_error").Inc()
		return &HTTPError{Provider: provider, StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if isTimeout(err) {
			metrics.UpstreamRequests.WithLabelValues(provider, "timeout").Inc()
			return fmt.Errorf("%s: %w", provider, ErrTimeout)
		}
		metrics.UpstreamRequests.WithLabelValues(provider, "malformed").Inc()
		return fmt.Errorf("%s: %w: %v", provider, ErrMalformed, err)
	}
	metrics.UpstreamRequests.WithLabelValues(provider, "ok").Inc()
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
