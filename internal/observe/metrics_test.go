package observe_test

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/TiGz/arlo-reading-app-sub000/internal/observe"
)

func TestNewMetrics_RecordsThroughProvider(t *testing.T) {
	t.Parallel()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	ctx := context.Background()
	m.CarrierDuration.Record(ctx, 1.5)
	m.RecordAttempt(ctx, "match")
	m.RecordAttempt(ctx, "no_match")
	m.RecordCacheLookup(ctx, true)
	m.RecordRecognizerFault(ctx, "no_speech", true)
	m.Escalations.Add(ctx, 1)
	m.Advances.Add(ctx, 1)
	m.ActiveSessions.Add(ctx, 1)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	got := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, met := range sm.Metrics {
			got[met.Name] = true
		}
	}
	for _, name := range []string{
		"reading.carrier.duration",
		"reading.attempts",
		"reading.escalations",
		"reading.advances",
		"reading.cache.lookups",
		"reading.recognizer.faults",
		"reading.active_sessions",
	} {
		if !got[name] {
			t.Errorf("metric %q was not collected; got %v", name, got)
		}
	}
}

func TestDefaultMetrics_ReturnsSameInstance(t *testing.T) {
	t.Parallel()
	if observe.DefaultMetrics() != observe.DefaultMetrics() {
		t.Error("DefaultMetrics should be a singleton")
	}
}
