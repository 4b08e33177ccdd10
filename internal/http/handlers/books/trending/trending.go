// Package trending отдает популярные сегодня книги.
package trending

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

// Service возвращает популярные книги.
type Service interface {
	Trending(ctx context.Context, userUID string) ([]models.BookView, error)
}

// Handler обработчик подборки популярных книг.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает обработчик.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Популярные книги
// @Tags Books
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.BookView}
// @Router /books/trending [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.books.trending"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, _ := middlewarectx.UserUIDFrom(r.Context())
	books, err := h.service.Trending(r.Context(), userUID)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(books))
}
