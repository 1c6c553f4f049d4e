package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsManager holds the service's Prometheus collectors on a dedicated registry.
type MetricsManager struct {
	Registry                   *prometheus.Registry
	PostingsCreatedTotal       prometheus.Counter
	PostingsClaimedTotal       prometheus.Counter
	MatchAttemptsTotal         *prometheus.CounterVec
	ProviderErrorsTotal        *prometheus.CounterVec
	StaleResultsDiscardedTotal prometheus.Counter
	ProviderLatency            prometheus.Histogram
	HTTPRequestsTotal          *prometheus.CounterVec
	HTTPRequestDurationSeconds *prometheus.HistogramVec
}

// NewMetricsManager registers every collector under the given namespace.
func NewMetricsManager(serviceName string) *MetricsManager {
	registry := prometheus.NewRegistry()

	m := &MetricsManager{
		Registry: registry,
		PostingsCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "postings_created_total",
			Help:      "Total number of lost-item postings created.",
		}),
		PostingsClaimedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "postings_claimed_total",
			Help:      "Total number of postings retired after a finder submission.",
		}),
		MatchAttemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "match_attempts_total",
			Help:      "Scoring attempts by outcome.",
		}, []string{"outcome"}),
		ProviderErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "provider_errors_total",
			Help:      "Similarity pipeline failures by error kind.",
		}, []string{"kind"}),
		StaleResultsDiscardedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "stale_results_discarded_total",
			Help:      "Scoring results dropped because a newer candidate superseded them.",
		}),
		ProviderLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: serviceName,
			Name:      "provider_latency_seconds",
			Help:      "Wall time of one scoring attempt.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}

	registry.MustRegister(
		m.PostingsCreatedTotal,
		m.PostingsClaimedTotal,
		m.MatchAttemptsTotal,
		m.ProviderErrorsTotal,
		m.StaleResultsDiscardedTotal,
		m.ProviderLatency,
		m.HTTPRequestsTotal,
		m.HTTPRequestDurationSeconds,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveScore records the outcome and latency of one scoring attempt.
func (m *MetricsManager) ObserveScore(outcome string, d time.Duration) {
	m.MatchAttemptsTotal.WithLabelValues(outcome).Inc()
	m.ProviderLatency.Observe(d.Seconds())
}

func (m *MetricsManager) ProviderError(kind string) {
	m.ProviderErrorsTotal.WithLabelValues(kind).Inc()
}

func (m *MetricsManager) StaleResultDiscarded() {
	m.StaleResultsDiscardedTotal.Inc()
}

func (m *MetricsManager) PostingCreated() {
	m.PostingsCreatedTotal.Inc()
}

func (m *MetricsManager) PostingClaimed() {
	m.PostingsClaimedTotal.Inc()
}

// StartMetricsServer serves /metrics for registry until ctx is cancelled.
// An empty port disables the server.
func StartMetricsServer(ctx context.Context, port string, appLogger *logger.Logger, registry *prometheus.Registry) error {
	if port == "" {
		appLogger.Info("Prometheus metrics server port not configured, server will not start.")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	appLogger.Info("Prometheus metrics server starting", zap.String("port", port), zap.String("path", "/metrics"))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
