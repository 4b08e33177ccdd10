// Package upgrade переводит пользователя на другой тариф без оплаты.
package upgrade

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/bookflix/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bookflix/internal/http/response"
	"github.com/magabrotheeeer/bookflix/internal/lib/sl"
	"github.com/magabrotheeeer/bookflix/internal/models"
)

// Service меняет тариф пользователя.
type Service interface {
	Upgrade(ctx context.Context, userUID string, tierID int) (*models.Subscription, error)
}

// Handler обработчик смены тарифа.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает обработчик.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Сменить тариф
// @Description Деактивирует текущую подписку и создает новую на выбранный тариф.
// @Tags Subscriptions
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.UpgradeRequest true "Тариф"
// @Success 201 {object} response.Response{data=models.Subscription}
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse "Тариф не найден"
// @Failure 409 {object} response.ErrorResponse "Уже подписан на этот тариф"
// @Router /subscriptions/upgrade [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscriptions.upgrade"

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

	var req models.UpgradeRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Info("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	tierID := req.RequestedTier()
	if tierID <= 0 {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("tier_id is required"))
		return
	}

	sub, err := h.service.Upgrade(r.Context(), userUID, tierID)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}

	log.Info("subscription upgraded", slog.String("user_uid", userUID), slog.Int("tier_id", tierID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(sub))
}
