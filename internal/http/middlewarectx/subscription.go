package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/bookflix/internal/http/response"
	"github.com/magabrotheeeer/bookflix/internal/lib/sl"
)

// SubscriptionChecker сообщает, есть ли у пользователя действующая подписка.
type SubscriptionChecker interface {
	Status(ctx context.Context, userUID string) (bool, error)
}

// SubscriptionRequired пропускает только пользователей с действующей подпиской.
// Должен стоять после JWTMiddleware.
func SubscriptionRequired(log *slog.Logger, checker SubscriptionChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userUID, ok := UserUIDFrom(r.Context())
			if !ok {
				log.Error("user identification missing")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("user identification missing"))
				return
			}

			active, err := checker.Status(r.Context(), userUID)
			if err != nil {
				log.Error("failed to get subscription status", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error(response.MsgInternal))
				return
			}
			if !active {
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("active subscription required"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
