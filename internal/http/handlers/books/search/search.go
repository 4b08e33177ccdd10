// Package search ищет книги у внешнего провайдера и сохраняет их в каталог.
package search

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/bookflix/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bookflix/internal/http/response"
	"github.com/magabrotheeeer/bookflix/internal/models"
)

// Service ищет книги.
type Service interface {
	Search(ctx context.Context, userUID, query, category, source string) ([]models.BookView, error)
}

// Handler обработчик поиска. Если source задан, параметр запроса
// source игнорируется.
type Handler struct {
	log     *slog.Logger
	service Service
	source  string
}

// New создает обработчик поиска с выбором провайдера через ?source=.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// NewForSource создает обработчик, всегда ищущий у провайдера source.
func NewForSource(log *slog.Logger, service Service, source string) *Handler {
	return &Handler{log: log, service: service, source: source}
}

// ServeHTTP godoc
// @Summary Поиск книг
// @Description Пустой результат возвращается как пустой список.
// @Tags Books
// @Produce  json
// @Param q query string false "Строка поиска"
// @Param category query string false "Категория"
// @Param source query string false "google или openlibrary"
// @Success 200 {object} response.Response{data=[]models.BookView}
// @Failure 400 {object} response.ErrorResponse "Не передан запрос"
// @Failure 502 {object} response.ErrorResponse
// @Failure 503 {object} response.ErrorResponse
// @Failure 504 {object} response.ErrorResponse
// @Router /books/search [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.books.search"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	q := r.URL.Query()
	source := h.source
	if source == "" {
		source = q.Get("source")
	}

	userUID, _ := middlewarectx.UserUIDFrom(r.Context())
	books, err := h.service.Search(r.Context(), userUID, q.Get("q"), q.Get("category"), source)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	log.Info("books found", slog.Int("count", len(books)))
	render.JSON(w, r, response.StatusOKWithData(books))
}
