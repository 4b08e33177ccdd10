// Package unfavorite убирает книгу из избранного.
package unfavorite

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
)

// Service управляет избранным.
type Service interface {
	Unfavorite(ctx context.Context, userUID string, bookID int) (string, error)
}

// Handler обработчик удаления из избранного.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает обработчик.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Убрать из избранного
// @Tags Books
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID книги"
// @Success 200 {object} response.Response{data=map[string]string}
// @Failure 404 {object} response.ErrorResponse
// @Router /books/{id}/unfavorite [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.books.unfavorite"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := middlewarectx.UserUIDFrom(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode id from url"))
		return
	}

	status, err := h.service.Unfavorite(r.Context(), userUID, id)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]string{"status": status}))
}
