// Package paymentcreate оформляет тариф: бесплатный активируется сразу,
// для платного возвращается ссылка на подтверждение оплаты в PayPal.
package paymentcreate

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/bookflix/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bookflix/internal/http/response"
	"github.com/magabrotheeeer/bookflix/internal/lib/sl"
	"github.com/magabrotheeeer/bookflix/internal/models"
)

// Service создает платеж.
type Service interface {
	Create(ctx context.Context, userUID string, tierID int) (*models.PaymentResult, error)
}

// Handler обработчик создания платежа.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает обработчик.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Создать платеж
// @Description Для бесплатного тарифа сразу возвращает подписку, для платного ссылку approval_url.
// @Tags Subscriptions
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.PaymentRequest true "Тариф"
// @Success 200 {object} response.Response{data=models.PaymentResult} "Ссылка на оплату"
// @Success 201 {object} response.Response{data=models.PaymentResult} "Бесплатный тариф активирован"
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse "Тариф не найден"
// @Failure 502 {object} response.ErrorResponse "Ошибка платежного шлюза"
// @Router /subscriptions/payment [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscriptions.paymentcreate"

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

	var req models.PaymentRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Info("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	res, err := h.service.Create(r.Context(), userUID, req.TierID)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}

	if res.Subscription != nil {
		render.Status(r, http.StatusCreated)
	}
	render.JSON(w, r, response.StatusOKWithData(res))
}
