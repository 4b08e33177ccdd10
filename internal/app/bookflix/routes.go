// Package bookflix собирает HTTP-приложение: зависимости, маршруты и сервер.
package bookflix

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/bookflix/internal/http/handlers/books/favorite"
	"github.com/magabrotheeeer/bookflix/internal/http/handlers/books/favorites"
	"github.com/magabrotheeeer/bookflix/internal/http/handlers/books/history"
	booklist "github.com/magabrotheeeer/bookflix/internal/http/handlers/books/list"
	"github.com/magabrotheeeer/bookflix/internal/http/handlers/books/newreleases"
	"github.com/magabrotheeeer/bookflix/internal/http/handlers/books/progress"
	"github.com/magabrotheeeer/bookflix/internal/http/handlers/books/read"
	"github.com/magabrotheeeer/bookflix/internal/http/handlers/books/search"
	"github.com/magabrotheeeer/bookflix/internal/http/handlers/books/trending"
	"github.com/magabrotheeeer/bookflix/internal/http/handlers/books/unfavorite"
	"github.com/magabrotheeeer/bookflix/internal/http/handlers/googlebooks/download"
	"github.com/magabrotheeeer/bookflix/internal/http/handlers/googlebooks/volume"
	"github.com/magabrotheeeer/bookflix/internal/http/handlers/health"
	"github.com/magabrotheeeer/bookflix/internal/http/handlers/subscriptions/current"
	sublist "github.com/magabrotheeeer/bookflix/internal/http/handlers/subscriptions/list"
	"github.com/magabrotheeeer/bookflix/internal/http/handlers/subscriptions/paymentcreate"
	"github.com/magabrotheeeer/bookflix/internal/http/handlers/subscriptions/paymentexecute"
	"github.com/magabrotheeeer/bookflix/internal/http/handlers/subscriptions/paymentlist"
	"github.com/magabrotheeeer/bookflix/internal/http/handlers/subscriptions/tier"
	"github.com/magabrotheeeer/bookflix/internal/http/handlers/subscriptions/tiers"
	"github.com/magabrotheeeer/bookflix/internal/http/handlers/subscriptions/upgrade"
	"github.com/magabrotheeeer/bookflix/internal/http/handlers/users/login"
	"github.com/magabrotheeeer/bookflix/internal/http/handlers/users/profile"
	"github.com/magabrotheeeer/bookflix/internal/http/handlers/users/profileupdate"
	"github.com/magabrotheeeer/bookflix/internal/http/handlers/users/refresh"
	"github.com/magabrotheeeer/bookflix/internal/http/handlers/users/register"
	"github.com/magabrotheeeer/bookflix/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bookflix/internal/models"
	bookservice "github.com/magabrotheeeer/bookflix/internal/services/book"
	paymentservice "github.com/magabrotheeeer/bookflix/internal/services/payment"
	subservice "github.com/magabrotheeeer/bookflix/internal/services/subscription"
	userservice "github.com/magabrotheeeer/bookflix/internal/services/user"

	// Регистрация swagger-документации.
	_ "github.com/magabrotheeeer/bookflix/docs"
)

// Services набор сервисов, обслуживающих маршруты.
type Services struct {
	Users         *userservice.Service
	Subscriptions *subservice.Service
	Payments      *paymentservice.Service
	Books         *bookservice.Service
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s Services, tokens middlewarectx.TokenParser,
	limiter *middlewarectx.IPLimiter, checks map[string]health.Pinger) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
		middlewarectx.MetricsMiddleware,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(logger, limiter))

		// Открытые конечные точки
		r.Post("/users/register", register.New(logger, s.Users).ServeHTTP)
		r.Post("/users/login", login.New(logger, s.Users).ServeHTTP)
		r.Post("/users/token/refresh", refresh.New(logger, s.Users).ServeHTTP)
		r.Get("/subscriptions/tiers", tiers.New(logger, s.Subscriptions).ServeHTTP)
		r.Get("/subscriptions/tiers/{id}", tier.New(logger, s.Subscriptions).ServeHTTP)
		r.Get("/googlebooks/search", search.NewForSource(logger, s.Books, models.SourceGoogle).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(tokens, logger))

			r.Get("/users/profile", profile.New(logger, s.Users).ServeHTTP)
			r.Patch("/users/profile", profileupdate.New(logger, s.Users).ServeHTTP)

			r.Get("/subscriptions", sublist.New(logger, s.Subscriptions).ServeHTTP)
			r.Get("/subscriptions/current", current.New(logger, s.Subscriptions).ServeHTTP)
			r.Post("/subscriptions/upgrade", upgrade.New(logger, s.Subscriptions).ServeHTTP)
			r.Post("/subscriptions/payment", paymentcreate.New(logger, s.Payments).ServeHTTP)
			r.Post("/subscriptions/payment/execute", paymentexecute.New(logger, s.Payments).ServeHTTP)
			r.Get("/subscriptions/payments", paymentlist.New(logger, s.Payments).ServeHTTP)

			r.Get("/books", booklist.New(logger, s.Books).ServeHTTP)
			r.Get("/books/search", search.New(logger, s.Books).ServeHTTP)
			r.Get("/books/trending", trending.New(logger, s.Books).ServeHTTP)
			r.Get("/books/new_releases", newreleases.New(logger, s.Books).ServeHTTP)
			r.Get("/books/favorites", favorites.New(logger, s.Books).ServeHTTP)
			r.Get("/books/reading_history", history.New(logger, s.Books).ServeHTTP)
			r.Get("/books/{id}", read.New(logger, s.Books).ServeHTTP)
			r.Post("/books/{id}/favorite", favorite.New(logger, s.Books).ServeHTTP)
			r.Post("/books/{id}/unfavorite", unfavorite.New(logger, s.Books).ServeHTTP)
			r.Post("/books/{id}/update_progress", progress.New(logger, s.Books).ServeHTTP)

			r.Get("/googlebooks/{externalID}", volume.New(logger, s.Books).ServeHTTP)
			r.With(middlewarectx.SubscriptionRequired(logger, s.Subscriptions)).
				Get("/googlebooks/{externalID}/download", download.New(logger, s.Books).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger, checks).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
