package middleware

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/moqwire/pkg/protocol"
	"github.com/vango-dev/moqwire/pkg/transport"
)

// MetricsConfig configures the Prometheus parse observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "moqwire").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for parse duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus parse observer.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the duration histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "moqwire",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Size buckets in bytes, from a bare header up to the default message limit.
var byteBuckets = []float64{2, 8, 32, 128, 512, 2048, 8192, 32768, 65536}

var attemptBuckets = []float64{1, 2, 3, 5, 8, 13, 21}

type metrics struct {
	parsesTotal     *prometheus.CounterVec
	incompleteTotal *prometheus.CounterVec
	parseBytes      *prometheus.HistogramVec
	parseAttempts   *prometheus.HistogramVec
	parseDuration   *prometheus.HistogramVec
}

// Collectors are shared per registry; registering the same names twice
// would panic in promauto.
var (
	registered   = make(map[prometheus.Registerer]*metrics)
	registeredMu sync.Mutex
)

func initMetrics(config MetricsConfig) *metrics {
	factory := promauto.With(config.Registry)

	return &metrics{
		parsesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "parses_total",
			Help:        "Total number of finished parses by kind, type and result",
			ConstLabels: config.ConstLabels,
		}, []string{"kind", "type", "result"}),

		incompleteTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "incomplete_total",
			Help:        "Total number of parse attempts that needed more input",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		parseBytes: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "parse_bytes",
			Help:        "Encoded size of successfully parsed items in bytes",
			ConstLabels: config.ConstLabels,
			Buckets:     byteBuckets,
		}, []string{"kind"}),

		parseAttempts: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "parse_attempts",
			Help:        "Parse calls needed per item",
			ConstLabels: config.ConstLabels,
			Buckets:     attemptBuckets,
		}, []string{"kind"}),

		parseDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "parse_duration_seconds",
			Help:        "Time from the first parse attempt to the result, including reads",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"kind"}),
	}
}

// Prometheus returns a parse observer that records Prometheus metrics.
//
// Metrics collected:
//   - moqwire_parses_total: Counter of parses by kind, type and result
//   - moqwire_incomplete_total: Counter of attempts that needed more input
//   - moqwire_parse_bytes: Histogram of encoded sizes
//   - moqwire_parse_attempts: Histogram of parse calls per item
//   - moqwire_parse_duration_seconds: Histogram of parse latency
//
// Observers built for the same registry share their collectors.
//
// Example:
//
//	obs := middleware.Prometheus(middleware.WithNamespace("relay"))
//	r := transport.NewReader(conn, transport.WithObserver(obs))
//
//	http.Handle("/metrics", promhttp.Handler())
func Prometheus(opts ...MetricsOption) transport.Observer {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	registeredMu.Lock()
	m, ok := registered[config.Registry]
	if !ok {
		m = initMetrics(config)
		registered[config.Registry] = m
	}
	registeredMu.Unlock()

	return m
}

// ObserveParse implements transport.Observer.
func (m *metrics) ObserveParse(_ context.Context, ev transport.ParseEvent) {
	kind := string(ev.Kind)
	typ := ev.Type
	if typ == "" {
		typ = "unknown"
	}

	m.parsesTotal.WithLabelValues(kind, typ, categorizeError(ev.Err)).Inc()
	if ev.Attempts > 1 {
		m.incompleteTotal.WithLabelValues(kind).Add(float64(ev.Attempts - 1))
	}
	m.parseAttempts.WithLabelValues(kind).Observe(float64(ev.Attempts))
	m.parseDuration.WithLabelValues(kind).Observe(ev.Duration.Seconds())
	if ev.Err == nil {
		m.parseBytes.WithLabelValues(kind).Observe(float64(ev.Bytes))
	}
}

// categorizeError maps a parse error to a low-cardinality result label.
func categorizeError(err error) string {
	switch {
	case err == nil:
		return "ok"
	case protocol.IsMalformed(err):
		return "malformed"
	case errors.Is(err, transport.ErrMessageTooLarge), errors.Is(err, transport.ErrPayloadTooLarge):
		return "too_large"
	case errors.Is(err, transport.ErrUnexpectedFrame):
		return "unexpected_frame"
	case errors.Is(err, io.ErrUnexpectedEOF):
		return "truncated"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
