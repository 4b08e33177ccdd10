// Package read отдает книгу из локального каталога по ID.
package read

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/bookflix/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bookflix/internal/http/response"
	"github.com/magabrotheeeer/bookflix/internal/models"
)

// Service возвращает книгу.
type Service interface {
	Get(ctx context.Context, userUID string, id int) (*models.BookView, error)
}

// Handler обработчик чтения книги.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает обработчик.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Книга по ID
// @Tags Books
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID книги"
// @Success 200 {object} response.Response{data=models.BookView}
// @Failure 404 {object} response.ErrorResponse
// @Router /books/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.books.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode id from url"))
		return
	}

	userUID, _ := middlewarectx.UserUIDFrom(r.Context())
	b, err := h.service.Get(r.Context(), userUID, id)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(b))
}
