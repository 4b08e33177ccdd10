// Package download отдает ссылки на скачивание книги Google Books.
// Доступен только пользователям с действующей подпиской.
package download

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/bookflix/internal/http/response"
	"github.com/magabrotheeeer/bookflix/internal/models"
)

const defaultFormat = "pdf"

// Service возвращает ссылки на скачивание.
type Service interface {
	Download(ctx context.Context, externalID, format string) (*models.DownloadLinks, error)
}

// Handler обработчик скачивания.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает обработчик.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Ссылки на скачивание
// @Description Если прямое скачивание недоступно, возвращается ссылка на предпросмотр.
// @Tags GoogleBooks
// @Produce  json
// @Security BearerAuth
// @Param externalID path string true "ID тома Google Books"
// @Param format query string false "pdf, epub, mobi или txt" default(pdf)
// @Success 200 {object} response.Response{data=models.DownloadLinks}
// @Failure 400 {object} response.ErrorResponse "Неподдерживаемый формат"
// @Failure 403 {object} response.ErrorResponse "Нет действующей подписки"
// @Failure 404 {object} response.ErrorResponse
// @Router /googlebooks/{externalID}/download [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.googlebooks.download"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	format := r.URL.Query().Get("format")
	if format == "" {
		format = defaultFormat
	}

	links, err := h.service.Download(r.Context(), chi.URLParam(r, "externalID"), format)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(links))
}
