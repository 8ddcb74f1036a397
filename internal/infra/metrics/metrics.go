package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	APIRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_api_requests_total",
		Help: "Количество запросов локального API",
	}, []string{"method", "status"})

	SendErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_send_errors_total",
		Help: "Ошибки отправки сообщений в телеграм",
	})

	ReplyEventsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_reply_events_total",
		Help: "Принятые ответы пользователей",
	})

	StaleRepliesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_stale_replies_total",
		Help: "Ответы на неизвестные или истёкшие сообщения",
	})

	LedgerSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "relay_ledger_entries",
		Help: "Текущее количество записей в журнале ответов",
	})

	SweepRemovedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_sweep_removed_total",
		Help: "Записи журнала, удалённые при периодической чистке",
	})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: prometheus.DefBuckets,
	}, []string{"component", "operation", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "status"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		APIRequestsTotal,
		SendErrorsTotal,
		ReplyEventsTotal,
		StaleRepliesTotal,
		LedgerSize,
		SweepRemovedTotal,
		NetworkRequestDuration,
		NetworkRequestTotal,
	)
}

// StartServer запускает HTTP сервер с эндпоинтом /metrics.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
	}()
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, status).Inc()
}
