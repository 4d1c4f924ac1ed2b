package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP, cache, database and domain events.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	dbQueryDuration *prometheus.HistogramVec

	donationsTotal      *prometheus.CounterVec
	donationAmountTotal *prometheus.CounterVec
	campaignReviews     *prometheus.CounterVec
	profileDecisions    *prometheus.CounterVec
	reconcileFixes      prometheus.Counter
	outboxPublished     *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	donationsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "donations_total",
		Help: "Donations recorded, by payment method and resulting status",
	}, []string{"method", "status"})

	donationAmountTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "donation_amount_total",
		Help: "Sum of completed donation amounts",
	}, []string{"currency"})

	campaignReviews := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "campaign_reviews_total",
		Help: "Campaign moderation actions",
	}, []string{"action"})

	profileDecisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "profile_decisions_total",
		Help: "Student profile verification decisions",
	}, []string{"status"})

	reconcileFixes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "campaign_total_corrections_total",
		Help: "Campaign totals corrected by the reconciliation job",
	})

	outboxPublished := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_total",
		Help: "Outbox events handed to the publisher, by result",
	}, []string{"result"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHits, cacheMisses, dbQueryDuration,
		donationsTotal, donationAmountTotal, campaignReviews, profileDecisions, reconcileFixes, outboxPublished, goroutines)

	return &MetricsService{
		registry:            registry,
		handler:             promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:     requestDuration,
		requestTotal:        requestTotal,
		cacheLatency:        cacheLatency,
		cacheWrite:          cacheWrite,
		cacheHits:           cacheHits,
		cacheMisses:         cacheMisses,
		dbQueryDuration:     dbQueryDuration,
		donationsTotal:      donationsTotal,
		donationAmountTotal: donationAmountTotal,
		campaignReviews:     campaignReviews,
		profileDecisions:    profileDecisions,
		reconcileFixes:      reconcileFixes,
		outboxPublished:     outboxPublished,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry returns the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a cache hit or miss.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// RecordDonation counts a recorded donation and, when completed, its amount.
func (m *MetricsService) RecordDonation(method, status, currency string, amount float64, completed bool) {
	if m == nil {
		return
	}
	m.donationsTotal.WithLabelValues(method, status).Inc()
	if completed {
		m.donationAmountTotal.WithLabelValues(currency).Add(amount)
	}
}

// RecordCampaignReview counts a moderation action.
func (m *MetricsService) RecordCampaignReview(action string) {
	if m == nil {
		return
	}
	m.campaignReviews.WithLabelValues(action).Inc()
}

// RecordProfileDecision counts a profile decision.
func (m *MetricsService) RecordProfileDecision(status string) {
	if m == nil {
		return
	}
	m.profileDecisions.WithLabelValues(status).Inc()
}

// RecordReconcileCorrections adds n corrected campaign totals.
func (m *MetricsService) RecordReconcileCorrections(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.reconcileFixes.Add(float64(n))
}

// RecordOutbox counts published or failed outbox events.
func (m *MetricsService) RecordOutbox(result string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.outboxPublished.WithLabelValues(result).Add(float64(n))
}
