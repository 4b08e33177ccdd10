// Package favorites отдает избранные книги пользователя.
package favorites

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

// Service возвращает избранное.
type Service interface {
	Favorites(ctx context.Context, userUID string) ([]*models.Favorite, error)
}

// Handler обработчик избранного.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает обработчик.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Избранные книги
// @Tags Books
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.Favorite}
// @Router /books/favorites [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.books.favorites"

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

	favs, err := h.service.Favorites(r.Context(), userUID)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(favs))
}
