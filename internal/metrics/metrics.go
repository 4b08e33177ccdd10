// Package metrics объявляет метрики Prometheus сервиса bookflix.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests число обработанных HTTP-запросов.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bookflix",
		Name:      "http_requests_total",
		Help:      "Number of processed HTTP requests.",
	}, []string{"method", "route", "status"})

	// HTTPDuration длительность обработки HTTP-запросов.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "bookflix",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// UpstreamRequests запросы к внешним API по провайдеру и исходу.
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bookflix",
		Name:      "upstream_requests_total",
		Help:      "Requests to external providers by outcome.",
	}, []string{"provider", "outcome"})

	// SubscriptionsActivated активированные подписки по тарифу и источнику.
	SubscriptionsActivated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bookflix",
		Name:      "subscriptions_activated_total",
		Help:      "Activated subscriptions by tier and source.",
	}, []string{"tier", "source"})

	// PaymentsProcessed платежи по статусу.
	PaymentsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bookflix",
		Name:      "payments_total",
		Help:      "Payments by resulting status.",
	}, []string{"status"})
)
