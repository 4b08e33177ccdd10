package bookflix

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/bookflix/internal/bookprovider/googlebooks"
	"github.com/magabrotheeeer/bookflix/internal/bookprovider/openlibrary"
	"github.com/magabrotheeeer/bookflix/internal/cache"
	"github.com/magabrotheeeer/bookflix/internal/config"
	"github.com/magabrotheeeer/bookflix/internal/events"
	"github.com/magabrotheeeer/bookflix/internal/http/handlers/health"
	"github.com/magabrotheeeer/bookflix/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bookflix/internal/lib/jwt"
	"github.com/magabrotheeeer/bookflix/internal/lib/sl"
	"github.com/magabrotheeeer/bookflix/internal/migrations"
	"github.com/magabrotheeeer/bookflix/internal/paymentprovider"
	bookservice "github.com/magabrotheeeer/bookflix/internal/services/book"
	paymentservice "github.com/magabrotheeeer/bookflix/internal/services/payment"
	subservice "github.com/magabrotheeeer/bookflix/internal/services/subscription"
	userservice "github.com/magabrotheeeer/bookflix/internal/services/user"
	"github.com/magabrotheeeer/bookflix/internal/storage"
)

const shutdownTimeout = 15 * time.Second

// App HTTP-приложение bookflix.
type App struct {
	server    *http.Server
	logger    *slog.Logger
	db        *storage.Storage
	cache     *cache.Cache
	publisher *events.AMQPPublisher
}

// New поднимает зависимости приложения и собирает роутер.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "bookflix.New"

	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = storage.CheckDatabaseReady(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	// каталог тарифов мог измениться вместе с миграциями
	if err = cacheRedis.Invalidate(ctx, cache.TiersKey); err != nil {
		logger.Warn("failed to reset tiers cache", sl.Err(err))
	}

	app := &App{logger: logger, db: db, cache: cacheRedis}

	var publisher events.Publisher = events.Nop{}
	if cfg.RabbitMQURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange,
			cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.publisher = amqpPublisher
		publisher = amqpPublisher
	} else {
		logger.Warn("rabbitmq url is empty, events are not published")
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL, cfg.RefreshTokenTTL)

	subscriptions := subservice.New(db, cacheRedis, publisher, logger, cfg.TiersTTL)
	services := Services{
		Users:         userservice.New(db, subscriptions, jwtMaker, logger),
		Subscriptions: subscriptions,
		Payments: paymentservice.New(db, paymentprovider.NewClient(cfg.PayPal),
			subscriptions, publisher, logger),
		Books: bookservice.New(db, googlebooks.New(cfg.GoogleBooks), openlibrary.New(cfg.OpenLibrary),
			cacheRedis, logger, cfg.ListsTTL),
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, services, jwtMaker,
		middlewarectx.NewIPLimiter(cfg.RPS, cfg.Burst),
		map[string]health.Pinger{"postgres": db, "redis": cacheRedis})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// Run запускает HTTP-сервер и корректно останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		return a.server.Shutdown(timeoutCtx)
	}
}

func (a *App) close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("failed to close rabbitmq publisher", sl.Err(err))
		}
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Warn("failed to close redis", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close database", sl.Err(err))
	}
}
