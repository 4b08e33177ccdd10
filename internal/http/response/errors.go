package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/bookflix/internal/bookprovider"
	"github.com/magabrotheeeer/bookflix/internal/lib/sl"
	"github.com/magabrotheeeer/bookflix/internal/paymentprovider"
	"github.com/magabrotheeeer/bookflix/internal/services/book"
	"github.com/magabrotheeeer/bookflix/internal/services/payment"
	"github.com/magabrotheeeer/bookflix/internal/services/subscription"
	"github.com/magabrotheeeer/bookflix/internal/services/user"
)

// MsgInternal текст ответа на непредвиденные ошибки.
const MsgInternal = "internal server error"

type mapping struct {
	target error
	status int
	msg    string
}

var mappings = []mapping{
	{user.ErrInvalidCredentials, http.StatusUnauthorized, "invalid username or password"},
	{user.ErrInvalidToken, http.StatusUnauthorized, "token is invalid or expired"},
	{user.ErrUserNotFound, http.StatusNotFound, "user not found"},

	{subscription.ErrTierNotFound, http.StatusNotFound, "Subscription tier not found."},
	{payment.ErrTierNotFound, http.StatusNotFound, "Subscription tier not found."},
	{subscription.ErrNoActiveSubscription, http.StatusNotFound, "No active subscription found."},
	{subscription.ErrSameTier, http.StatusConflict, "You are already subscribed to this tier."},

	{payment.ErrPaymentNotFound, http.StatusNotFound, "Payment not found."},
	{payment.ErrForbidden, http.StatusForbidden, "You do not have permission to execute this payment."},
	{payment.ErrPaymentNotApproved, http.StatusPaymentRequired, "Payment was not approved."},
	{paymentprovider.ErrNotConfigured, http.StatusServiceUnavailable, "Payment service is not configured."},
	{payment.ErrGateway, http.StatusBadGateway, "Payment gateway error."},

	{book.ErrEmptyQuery, http.StatusBadRequest, "Query parameter is required."},
	{book.ErrUnknownSource, http.StatusBadRequest, "Unknown book source."},
	{book.ErrBookNotFound, http.StatusNotFound, "Book not found."},
	{book.ErrInvalidFormat, http.StatusBadRequest, "Invalid format. Supported formats: pdf, epub, mobi, txt."},
	{book.ErrInvalidProgress, http.StatusBadRequest, "Progress must be between 0 and 100."},

	{bookprovider.ErrNotFound, http.StatusNotFound, "Book not found."},
	{bookprovider.ErrTimeout, http.StatusGatewayTimeout, "Book provider request timed out."},
	{bookprovider.ErrUnavailable, http.StatusServiceUnavailable, "Book provider is unavailable."},
	{bookprovider.ErrMalformed, http.StatusBadGateway, "Book provider returned a malformed response."},
	{bookprovider.ErrNotConfigured, http.StatusServiceUnavailable, "Book provider is not configured."},
}

// FromError возвращает HTTP статус и текст ответа для ошибки сервиса.
// Неизвестные ошибки превращаются в 500 без подробностей.
func FromError(err error) (int, ErrorResponse) {
	var vErr *user.ValidationError
	if errors.As(err, &vErr) {
		return http.StatusBadRequest, Error(vErr.Message)
	}
	var httpErr *bookprovider.HTTPError
	if errors.As(err, &httpErr) {
		return http.StatusServiceUnavailable, Error("Book provider is unavailable.")
	}
	for _, m := range mappings {
		if errors.Is(err, m.target) {
			return m.status, Error(m.msg)
		}
	}
	return http.StatusInternalServerError, Error(MsgInternal)
}

// Fail пишет ответ с ошибкой сервиса. Ошибки 5xx логируются с уровнем Error.
func Fail(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	status, resp := FromError(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", sl.Err(err), slog.Int("status", status))
	} else {
		log.Info("request rejected", sl.Err(err), slog.Int("status", status))
	}
	render.Status(r, status)
	render.JSON(w, r, resp)
}
