// Package volume отдает книгу по идентификатору Google Books. Книга
// ищется в каталоге, при промахе запрашивается у Google и сохраняется.
package volume

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/bookflix/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bookflix/internal/http/response"
	"github.com/magabrotheeeer/bookflix/internal/models"
)

// Service возвращает книгу по внешнему идентификатору.
type Service interface {
	GetExternal(ctx context.Context, userUID, externalID string) (*models.BookView, error)
}

// Handler обработчик книги Google Books.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает обработчик.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Книга Google Books
// @Tags GoogleBooks
// @Produce  json
// @Param externalID path string true "ID тома Google Books"
// @Success 200 {object} response.Response{data=models.BookView}
// @Failure 404 {object} response.ErrorResponse
// @Failure 503 {object} response.ErrorResponse
// @Failure 504 {object} response.ErrorResponse
// @Router /googlebooks/{externalID} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.googlebooks.volume"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	externalID := chi.URLParam(r, "externalID")
	userUID, _ := middlewarectx.UserUIDFrom(r.Context())
	b, err := h.service.GetExternal(r.Context(), userUID, externalID)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(b))
}
