// Package list отдает страницу локального каталога книг.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/bookflix/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bookflix/internal/http/response"
	"github.com/magabrotheeeer/bookflix/internal/models"
)

// Service возвращает каталог.
type Service interface {
	List(ctx context.Context, userUID string, limit, offset int) ([]models.BookView, error)
}

// Handler обработчик каталога.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает обработчик.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Локальный каталог книг
// @Tags Books
// @Produce  json
// @Security BearerAuth
// @Param limit query int false "Размер страницы, по умолчанию 20, максимум 100"
// @Param offset query int false "Смещение"
// @Success 200 {object} response.Response{data=[]models.BookView}
// @Failure 400 {object} response.ErrorResponse
// @Router /books [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.books.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	limit, err := intParam(r, "limit")
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("limit must be an integer"))
		return
	}
	offset, err := intParam(r, "offset")
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("offset must be an integer"))
		return
	}

	userUID, _ := middlewarectx.UserUIDFrom(r.Context())
	books, err := h.service.List(r.Context(), userUID, limit, offset)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(books))
}

func intParam(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
