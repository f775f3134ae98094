package middleware

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/auralens/auralens/app/uploader"
	"github.com/auralens/auralens/pkg/preview"
	"github.com/auralens/auralens/pkg/server"
	"github.com/auralens/auralens/pkg/upload"
)

// The metrics plug into every observer hook of the runtime.
var (
	_ server.Observer   = (*Metrics)(nil)
	_ uploader.Observer = (*Metrics)(nil)
	_ preview.Observer  = (*Metrics)(nil)
)

// =============================================================================
// Test Helpers
// =============================================================================

// dispatch runs mws around handler for a synthetic event.
func dispatch(t *testing.T, e *server.Event, patches int, handler func() error, mws ...server.Middleware) error {
	t.Helper()
	return server.Dispatch(context.Background(), e, mws, func() (int, error) {
		return patches, handler()
	})
}

func clickEvent() *server.Event {
	return &server.Event{Seq: 7, HID: "h3", Type: "click"}
}

func dropEvent(files ...upload.Candidate) *server.Event {
	return &server.Event{Seq: 8, HID: "h9", Type: "drop", Files: files}
}

// =============================================================================
// Config Tests
// =============================================================================

func TestOpenTelemetryConfig(t *testing.T) {
	t.Run("default config", func(t *testing.T) {
		config := defaultOTelConfig()
		if config.TracerName != "auralens" {
			t.Errorf("TracerName = %q, want auralens", config.TracerName)
		}
		if !config.IncludeFiles {
			t.Error("IncludeFiles should default to true")
		}
		if config.Filter != nil || config.AttributeExtractor != nil {
			t.Error("Filter and AttributeExtractor should default to nil")
		}
	})

	t.Run("options", func(t *testing.T) {
		config := defaultOTelConfig()
		for _, opt := range []OTelOption{
			WithTracerName("custom"),
			WithIncludeFiles(false),
			WithEventFilter(func(*server.Ctx) bool { return false }),
		} {
			opt(&config)
		}
		if config.TracerName != "custom" {
			t.Errorf("TracerName = %q", config.TracerName)
		}
		if config.IncludeFiles {
			t.Error("IncludeFiles should be false")
		}
		if config.Filter == nil {
			t.Error("Filter not set")
		}
	})
}

func TestMetricsConfig(t *testing.T) {
	t.Run("default config", func(t *testing.T) {
		config := defaultMetricsConfig()
		if config.Namespace != "auralens" {
			t.Errorf("Namespace = %q, want auralens", config.Namespace)
		}
		if len(config.Buckets) != len(prometheus.DefBuckets) {
			t.Errorf("Buckets = %v", config.Buckets)
		}
		if config.Registry != prometheus.DefaultRegisterer {
			t.Error("Registry should default to prometheus.DefaultRegisterer")
		}
	})

	t.Run("options", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		config := defaultMetricsConfig()
		for _, opt := range []MetricsOption{
			WithNamespace("ns"),
			WithSubsystem("web"),
			WithConstLabels(prometheus.Labels{"env": "test"}),
			WithBuckets([]float64{0.1, 1}),
			WithRegistry(reg),
			WithGatherer(reg),
		} {
			opt(&config)
		}
		if config.Namespace != "ns" || config.Subsystem != "web" {
			t.Errorf("Namespace/Subsystem = %q/%q", config.Namespace, config.Subsystem)
		}
		if config.ConstLabels["env"] != "test" {
			t.Errorf("ConstLabels = %v", config.ConstLabels)
		}
		if len(config.Buckets) != 2 {
			t.Errorf("Buckets = %v", config.Buckets)
		}
		if config.Registry != reg || config.Gatherer != reg {
			t.Error("Registry/Gatherer not set")
		}
	})
}

func TestMiddlewareOrder(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg))

	var order []string
	outer := func(c *server.Ctx, next func() error) error {
		order = append(order, "outer")
		return next()
	}
	err := dispatch(t, clickEvent(), 0, func() error {
		order = append(order, "handler")
		return nil
	}, outer, m.Middleware(), OpenTelemetry())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 2 || order[0] != "outer" || order[1] != "handler" {
		t.Errorf("order = %v", order)
	}
}
