package session

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Metric instruments — initialized once via InitMetrics().
var (
	keysCounter  metric.Int64Counter
	keyHistogram metric.Float64Histogram
	evalCounter  metric.Int64Counter
	errorCounter metric.Int64Counter
	resultGauge  metric.Float64Gauge
)

// Session store gauges, exposed on /metrics.
var (
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "calculator_active_sessions",
		Help: "Number of calculator sessions currently held in memory.",
	})
	sessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "calculator_sessions_created_total",
		Help: "Total number of calculator sessions created.",
	})
	sessionsEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "calculator_sessions_evicted_total",
		Help: "Total number of idle calculator sessions evicted.",
	})
)

// InitMetrics registers custom OTel metric instruments for calculator
// sessions. Call this once at startup (after observability.InitMetrics).
func InitMetrics() error {
	meter := otel.Meter("calculator")

	var err error

	keysCounter, err = meter.Int64Counter("calculator.keys.total",
		metric.WithDescription("Total number of key events handled"),
		metric.WithUnit("{key}"),
	)
	if err != nil {
		return fmt.Errorf("creating keys counter: %w", err)
	}

	keyHistogram, err = meter.Float64Histogram("calculator.key.duration",
		metric.WithDescription("Duration of key event handling in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1),
	)
	if err != nil {
		return fmt.Errorf("creating key histogram: %w", err)
	}

	evalCounter, err = meter.Int64Counter("calculator.evaluations.total",
		metric.WithDescription("Total number of evaluated expressions"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return fmt.Errorf("creating evaluation counter: %w", err)
	}

	errorCounter, err = meter.Int64Counter("calculator.errors.total",
		metric.WithDescription("Total number of calculator errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return fmt.Errorf("creating error counter: %w", err)
	}

	resultGauge, err = meter.Float64Gauge("calculator.last_result",
		metric.WithDescription("The result of the last evaluated expression"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("creating result gauge: %w", err)
	}

	return nil
}
