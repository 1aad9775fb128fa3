package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveUpsert("", time.Millisecond)
	m.IncInvalid("empty")
	m.IncSource("ok")
	m.IncDegenerateRelation()
	m.ObserveStatsQuery("node_counts", nil, time.Millisecond)
	m.ObserveAPI("GET", "/api/stats", "200", time.Millisecond)
	m.ApiInflightInc()
	m.ApiInflightDec()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 from nil metrics handler, got %d", rec.Code)
	}
}

func TestMetrics_CountsOutcomes(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.ObserveUpsert("", 2*time.Millisecond)
	m.ObserveUpsert("", 3*time.Millisecond)
	m.ObserveUpsert("constraint_violation", time.Millisecond)
	m.IncInvalid("missing_field")
	m.ObserveStatsQuery("relation_counts", errors.New("down"), time.Millisecond)

	if got := testutil.ToFloat64(m.triples.WithLabelValues("success", "")); got != 2 {
		t.Fatalf("success count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.triples.WithLabelValues("error", "constraint_violation")); got != 1 {
		t.Fatalf("error count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.invalid.WithLabelValues("missing_field")); got != 1 {
		t.Fatalf("invalid count = %v, want 1", got)
	}
}

func TestMetrics_HandlerExposesCollectors(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.IncSource("partial")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `gl_sources_total{status="partial"} 1`) {
		t.Fatalf("metrics body missing source counter:\n%s", rec.Body.String())
	}
}
