package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/auralens/auralens/internal/errors"
	"github.com/auralens/auralens/pkg/server"
)

// MetricsConfig configures the Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "auralens").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for event duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer

	// Gatherer is what Handler serves. It defaults to Registry when that
	// is a *prometheus.Registry, else to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
}

// MetricsOption configures the Prometheus metrics.
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

// WithBuckets sets the histogram buckets.
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

// WithGatherer sets what the metrics handler serves.
func WithGatherer(g prometheus.Gatherer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Gatherer = g
	}
}

// defaultMetricsConfig returns the default metrics configuration.
func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "auralens",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus metrics of the process. It is a session
// observer, an upload observer and a preview observer at once, and provides
// the event middleware.
type Metrics struct {
	eventsTotal    *prometheus.CounterVec
	eventDuration  *prometheus.HistogramVec
	eventErrors    *prometheus.CounterVec
	patchesSent    prometheus.Counter
	activeSessions prometheus.Gauge
	sessionsTotal  prometheus.Counter
	filesAccepted  *prometheus.CounterVec
	filesRejected  *prometheus.CounterVec
	livePreviews   prometheus.Gauge

	gatherer prometheus.Gatherer
}

// NewMetrics registers the metrics and returns them.
//
// Metrics collected:
//   - auralens_events_total: events by type and status
//   - auralens_event_duration_seconds: event dispatch duration, render included
//   - auralens_event_errors_total: failed events by type and error type
//   - auralens_patches_sent_total: DOM patches sent to clients
//   - auralens_active_sessions: connected live sessions
//   - auralens_sessions_total: live sessions ever connected
//   - auralens_files_accepted_total: accepted images by media type
//   - auralens_files_rejected_total: rejected selections by reason
//   - auralens_live_previews: unreleased preview references
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	m := middleware.NewMetrics(middleware.WithRegistry(reg))
//	srv := server.New(cfg, factory,
//	    server.WithMiddleware(m.Middleware()),
//	    server.WithObserver(m),
//	    server.WithMetricsHandler(m.Handler()))
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Gatherer == nil {
		if g, ok := config.Registry.(prometheus.Gatherer); ok {
			config.Gatherer = g
		} else {
			config.Gatherer = prometheus.DefaultGatherer
		}
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "events_total",
			Help:        "Total number of client events processed",
			ConstLabels: config.ConstLabels,
		}, []string{"event", "status"}),

		eventDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "event_duration_seconds",
			Help:        "Event processing duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"event"}),

		eventErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "event_errors_total",
			Help:        "Total number of event processing errors",
			ConstLabels: config.ConstLabels,
		}, []string{"event", "error_type"}),

		patchesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "patches_sent_total",
			Help:        "Total number of patches sent to clients",
			ConstLabels: config.ConstLabels,
		}),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_sessions",
			Help:        "Number of connected live sessions",
			ConstLabels: config.ConstLabels,
		}),

		sessionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "sessions_total",
			Help:        "Total number of live sessions connected",
			ConstLabels: config.ConstLabels,
		}),

		filesAccepted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "files_accepted_total",
			Help:        "Images accepted by the upload widget",
			ConstLabels: config.ConstLabels,
		}, []string{"media_type"}),

		filesRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "files_rejected_total",
			Help:        "Selections rejected by the upload widget",
			ConstLabels: config.ConstLabels,
		}, []string{"reason"}),

		livePreviews: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "live_previews",
			Help:        "Number of unreleased preview references",
			ConstLabels: config.ConstLabels,
		}),

		gatherer: config.Gatherer,
	}
}

// Prometheus registers metrics and returns only their event middleware.
func Prometheus(opts ...MetricsOption) server.Middleware {
	return NewMetrics(opts...).Middleware()
}

// Middleware times and counts every event dispatch.
func (m *Metrics) Middleware() server.Middleware {
	return func(c *server.Ctx, next func() error) error {
		event := "unknown"
		if e := c.Event(); e != nil && e.Type != "" {
			event = e.Type
		}

		start := time.Now()
		err := next()
		m.eventDuration.WithLabelValues(event).Observe(time.Since(start).Seconds())

		status := "success"
		if err != nil {
			status = "error"
			m.eventErrors.WithLabelValues(event, categorizeError(err)).Inc()
		}
		m.eventsTotal.WithLabelValues(event, status).Inc()

		return err
	}
}

// Handler serves the gathered metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// SessionOpened implements server.Observer.
func (m *Metrics) SessionOpened() {
	m.activeSessions.Inc()
	m.sessionsTotal.Inc()
}

// SessionClosed implements server.Observer.
func (m *Metrics) SessionClosed() {
	m.activeSessions.Dec()
}

// PatchesSent implements server.Observer.
func (m *Metrics) PatchesSent(n int) {
	m.patchesSent.Add(float64(n))
}

// FileAccepted counts an accepted image.
func (m *Metrics) FileAccepted(mediaType string) {
	m.filesAccepted.WithLabelValues(mediaLabel(mediaType)).Inc()
}

// FileRejected counts a rejected selection.
func (m *Metrics) FileRejected(reason string) {
	m.filesRejected.WithLabelValues(reason).Inc()
}

// PreviewCreated implements preview.Observer.
func (m *Metrics) PreviewCreated() {
	m.livePreviews.Inc()
}

// PreviewReleased implements preview.Observer.
func (m *Metrics) PreviewReleased() {
	m.livePreviews.Dec()
}

// knownImageTypes bounds the media_type label; browsers declare whatever
// the file extension suggests.
var knownImageTypes = map[string]bool{
	"image/png":     true,
	"image/jpeg":    true,
	"image/gif":     true,
	"image/webp":    true,
	"image/avif":    true,
	"image/svg+xml": true,
	"image/heic":    true,
	"image/bmp":     true,
	"image/tiff":    true,
}

func mediaLabel(mediaType string) string {
	mt := strings.ToLower(strings.TrimSpace(mediaType))
	if knownImageTypes[mt] {
		return mt
	}
	return "other"
}

// categorizeError returns a low-cardinality label for err. Coded errors use
// their code.
func categorizeError(err error) string {
	var panicErr *server.HandlerError
	if errors.As(err, &panicErr) {
		return "panic"
	}
	if code := errors.Code(err); code != "" {
		return code
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline"):
		return "timeout"
	case strings.Contains(msg, "not found"):
		return "not_found"
	case strings.Contains(msg, "too large"):
		return "too_large"
	case strings.Contains(msg, "canceled"):
		return "canceled"
	default:
		return "internal"
	}
}
