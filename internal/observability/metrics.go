package observability

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yungbote/graphloader/internal/platform/envutil"
	"github.com/yungbote/graphloader/internal/platform/logger"
)

// Metrics is nil-safe: every method is a no-op on a nil receiver, so callers can
// hold a *Metrics regardless of METRICS_ENABLED.
type Metrics struct {
	registry *prometheus.Registry

	triples       *prometheus.CounterVec
	upsertLatency *prometheus.HistogramVec
	invalid       *prometheus.CounterVec
	sources       *prometheus.CounterVec
	degenerate    prometheus.Counter
	statsLatency  *prometheus.HistogramVec

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

func Current() *Metrics {
	return instance
}

// Init returns the process-wide metrics, or nil when metrics are disabled.
func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = NewMetrics(prometheus.NewRegistry())
		if log != nil {
			log.Info("metrics initialized")
		}
	})
	return instance
}

// NewMetrics registers the ingestion collectors on reg.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: reg,
		triples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gl_triples_total",
			Help: "Triples processed by outcome and failure code.",
		}, []string{"outcome", "code"}),
		upsertLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gl_upsert_duration_seconds",
			Help:    "Latency of one triple upsert unit of work.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15},
		}, []string{"outcome"}),
		invalid: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gl_records_invalid_total",
			Help: "Raw records rejected before reaching the store, by reason.",
		}, []string{"reason"}),
		sources: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gl_sources_total",
			Help: "Source units ingested, by resulting status.",
		}, []string{"status"}),
		degenerate: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gl_relation_types_degenerate_total",
			Help: "Relationship labels that normalized to a symbol without letters or digits.",
		}),
		statsLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gl_stats_query_duration_seconds",
			Help:    "Latency of aggregate statistics queries.",
			Buckets: prometheus.DefBuckets,
		}, []string{"query", "status"}),
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gl_api_requests_total",
			Help: "Admin API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gl_api_request_duration_seconds",
			Help:    "Admin API latency in seconds by method/route/status.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"method", "route", "status"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gl_api_inflight_requests",
			Help: "In-flight admin API requests.",
		}),
	}
	reg.MustRegister(
		m.triples,
		m.upsertLatency,
		m.invalid,
		m.sources,
		m.degenerate,
		m.statsLatency,
		m.apiRequests,
		m.apiLatency,
		m.apiInflight,
	)
	return m
}

// ObserveUpsert records one upsert outcome. An empty code means success.
func (m *Metrics) ObserveUpsert(code string, dur time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if strings.TrimSpace(code) != "" {
		outcome = "error"
	}
	m.triples.WithLabelValues(outcome, code).Inc()
	m.upsertLatency.WithLabelValues(outcome).Observe(dur.Seconds())
}

func (m *Metrics) IncInvalid(reason string) {
	if m == nil {
		return
	}
	m.invalid.WithLabelValues(reason).Inc()
	m.triples.WithLabelValues("invalid", reason).Inc()
}

func (m *Metrics) IncSource(status string) {
	if m == nil {
		return
	}
	m.sources.WithLabelValues(status).Inc()
}

func (m *Metrics) IncDegenerateRelation() {
	if m == nil {
		return
	}
	m.degenerate.Inc()
}

func (m *Metrics) ObserveStatsQuery(query string, err error, dur time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.statsLatency.WithLabelValues(query, status).Observe(dur.Seconds())
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route, status).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartServer exposes /metrics on a dedicated listener until ctx is done.
func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}
