// Package observe provides observability primitives for the collaborative
// reading engine: OpenTelemetry metrics and tracing helpers.
//
// Metrics are recorded through the OpenTelemetry Metrics API with a
// Prometheus exporter bridge (see [InitProvider]) so they can be scraped
// from the standard /metrics endpoint. A package-level default [Metrics]
// instance ([DefaultMetrics]) is provided for convenience; tests should use
// [NewMetrics] with a custom [metric.MeterProvider] to avoid cross-test
// pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name for all engine metrics.
const meterName = "github.com/TiGz/arlo-reading-app-sub000"

// Metrics holds all OpenTelemetry metric instruments for the engine.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Histograms ---

	// CarrierDuration tracks wall-clock carrier playback time per sentence.
	CarrierDuration metric.Float64Histogram

	// --- Counters ---

	// Attempts counts judged reading attempts. Use with attribute:
	//   attribute.String("outcome", "match" | "no_match" | "no_speech" | "timeout")
	Attempts metric.Int64Counter

	// Escalations counts correction playbacks (three consecutive failures).
	Escalations metric.Int64Counter

	// Advances counts successful sentence completions.
	Advances metric.Int64Counter

	// CacheLookups counts word-timestamp index lookups. Use with attribute:
	//   attribute.String("result", "hit" | "miss")
	CacheLookups metric.Int64Counter

	// RecognizerFaults counts recognizer faults by class and severity.
	RecognizerFaults metric.Int64Counter

	// --- Gauges ---

	// ActiveSessions tracks the number of live collaborative sessions.
	ActiveSessions metric.Int64UpDownCounter
}

// carrierBuckets defines histogram bucket boundaries (in seconds) sized for
// sentence-length speech playback.
var carrierBuckets = []float64{
	0.1, 0.25, 0.5, 1, 2, 4, 8, 15, 30,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.CarrierDuration, err = m.Float64Histogram("reading.carrier.duration",
		metric.WithDescription("Wall-clock duration of carrier playback per sentence."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(carrierBuckets...),
	); err != nil {
		return nil, err
	}

	if met.Attempts, err = m.Int64Counter("reading.attempts",
		metric.WithDescription("Judged reading attempts by outcome."),
	); err != nil {
		return nil, err
	}
	if met.Escalations, err = m.Int64Counter("reading.escalations",
		metric.WithDescription("Correction playbacks triggered by three consecutive failures."),
	); err != nil {
		return nil, err
	}
	if met.Advances, err = m.Int64Counter("reading.advances",
		metric.WithDescription("Sentences completed successfully."),
	); err != nil {
		return nil, err
	}
	if met.CacheLookups, err = m.Int64Counter("reading.cache.lookups",
		metric.WithDescription("Word-timestamp index lookups by result."),
	); err != nil {
		return nil, err
	}
	if met.RecognizerFaults, err = m.Int64Counter("reading.recognizer.faults",
		metric.WithDescription("Recognizer faults by class and severity."),
	); err != nil {
		return nil, err
	}

	if met.ActiveSessions, err = m.Int64UpDownCounter("reading.active_sessions",
		metric.WithDescription("Number of live collaborative sessions."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it
// on first call using [otel.GetMeterProvider]. Subsequent calls return the
// same pointer. Panics if instrument creation fails (should not happen with
// the global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordAttempt records a judged reading attempt with its outcome label.
func (m *Metrics) RecordAttempt(ctx context.Context, outcome string) {
	m.Attempts.Add(ctx, 1,
		metric.WithAttributes(attribute.String("outcome", outcome)),
	)
}

// RecordCacheLookup records a word-timestamp index lookup result.
func (m *Metrics) RecordCacheLookup(ctx context.Context, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.Add(ctx, 1,
		metric.WithAttributes(attribute.String("result", result)),
	)
}

// RecordRecognizerFault records a recognizer fault with class and severity
// labels.
func (m *Metrics) RecordRecognizerFault(ctx context.Context, class string, recoverable bool) {
	severity := "fatal"
	if recoverable {
		severity = "recoverable"
	}
	m.RecognizerFaults.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("class", class),
			attribute.String("severity", severity),
		),
	)
}
