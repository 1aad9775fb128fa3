package observability

import "testing"

func TestOtelSampleRatio(t *testing.T) {
	cases := map[string]float64{
		"":     0.1,
		"0.5":  0.5,
		"2":    1,
		"-1":   0,
		"nope": 0.1,
	}
	for raw, want := range cases {
		t.Setenv("OTEL_SAMPLER_RATIO", raw)
		if got := otelSampleRatio(); got != want {
			t.Fatalf("otelSampleRatio(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestOtelHeaders(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "x-api-key=abc, broken ,x-team = graph,=v")
	h := otelHeaders()
	if len(h) != 2 || h["x-api-key"] != "abc" || h["x-team"] != "graph" {
		t.Fatalf("unexpected headers: %v", h)
	}
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "")
	if otelHeaders() != nil {
		t.Fatalf("expected nil headers when unset")
	}
}

func TestInitOTel_DisabledReturnsNil(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "false")
	if shutdown := InitOTel(t.Context(), nil, OtelConfig{}); shutdown != nil {
		t.Fatalf("expected nil shutdown when tracing disabled")
	}
}
