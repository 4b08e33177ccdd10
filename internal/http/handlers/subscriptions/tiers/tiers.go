// Package tiers отдает каталог тарифов.
package tiers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/bookflix/internal/http/response"
	"github.com/magabrotheeeer/bookflix/internal/models"
)

// Service возвращает каталог тарифов.
type Service interface {
	Tiers(ctx context.Context) ([]*models.Tier, error)
}

// Handler обработчик каталога тарифов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает обработчик.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список тарифов
// @Tags Subscriptions
// @Produce  json
// @Success 200 {object} response.Response{data=[]models.Tier}
// @Router /subscriptions/tiers [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscriptions.tiers"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	tiers, err := h.service.Tiers(r.Context())
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(tiers))
}
