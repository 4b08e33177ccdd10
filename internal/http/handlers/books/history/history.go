// Package history отдает историю чтения пользователя.
package history

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

// Service возвращает историю чтения.
type Service interface {
	ReadingHistory(ctx context.Context, userUID string) ([]*models.ReadingHistory, error)
}

// Handler обработчик истории чтения.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает обработчик.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary История чтения
// @Tags Books
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.ReadingHistory}
// @Router /books/reading_history [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.books.history"

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

	history, err := h.service.ReadingHistory(r.Context(), userUID)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(history))
}
